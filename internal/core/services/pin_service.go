package services

import (
	"context"
	"errors"
	"log"
	"time"

	"nexbank/internal/adapters/persistence/repositories"
	"nexbank/internal/core/domain"
	"nexbank/internal/pkg/password"

	"gorm.io/gorm"
)

const (
	// MaxPinFailures locks the user and account once reached
	MaxPinFailures = 5

	// LockReasonPin is recorded on the profile when the PIN budget is spent
	LockReasonPin = "too many PIN failures"
)

// PinService verifies transaction PINs and escalates repeated failures to a
// lock on both the user profile and the named account.
type PinService struct {
	userRepo    repositories.UserRepository
	accountRepo repositories.AccountRepository
}

// NewPinService creates a new PIN service
func NewPinService(userRepo repositories.UserRepository, accountRepo repositories.AccountRepository) *PinService {
	return &PinService{
		userRepo:    userRepo,
		accountRepo: accountRepo,
	}
}

// SetPin stores a new transaction PIN for the user
func (s *PinService) SetPin(ctx context.Context, userID uint, pin string) error {
	if !password.ValidatePin(pin) {
		return domain.ErrInvalidInput
	}

	hash, err := password.Hash(pin)
	if err != nil {
		return err
	}
	return s.userRepo.SetPin(ctx, userID, hash)
}

// VerifyPin checks the submitted PIN against the stored credential.
// A mismatch increments the failure counter before the error is returned,
// so the count is durable even when the subsequent lock check fails. A
// successful verification resets the counter.
func (s *PinService) VerifyPin(ctx context.Context, userID uint, pin string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	if user.IsLocked() {
		return domain.ErrAccountLocked
	}
	if !user.HasPin() {
		return domain.ErrPinNotSet
	}

	if !password.Verify(pin, user.PinHash) {
		if _, incErr := s.userRepo.IncrementPinFailures(ctx, userID); incErr != nil {
			log.Printf("❌ Failed to record PIN failure for user %d: %v", userID, incErr)
		}
		return domain.ErrInvalidPin
	}

	if err := s.userRepo.ResetPinFailures(ctx, userID); err != nil {
		log.Printf("❌ Failed to reset PIN failures for user %d: %v", userID, err)
	}
	return nil
}

// LockIfExceeded locks the user and the named account once the PIN failure
// counter has reached the budget. Kept separate from VerifyPin so the
// failure count persists even if this step errors. Locking is
// one-directional; only officer intervention unlocks.
func (s *PinService) LockIfExceeded(ctx context.Context, userID uint, accountNo string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if user.PinFailCount < MaxPinFailures {
		return nil
	}
	if user.IsLocked() {
		return nil // already locked, nothing to do
	}

	if err := s.userRepo.Lock(ctx, userID, LockReasonPin, time.Now()); err != nil {
		return err
	}
	if accountNo != "" {
		if err := s.accountRepo.Lock(ctx, accountNo); err != nil {
			log.Printf("❌ Failed to lock account %s after PIN failures: %v", accountNo, err)
			return err
		}
	}

	log.Printf("🔒 User %d and account %s locked: %s", userID, accountNo, LockReasonPin)
	return nil
}
