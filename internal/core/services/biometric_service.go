package services

import (
	"context"
	"log"
	"time"

	"nexbank/internal/adapters/persistence/repositories"
	"nexbank/internal/core/domain"
)

const (
	// BiometricThreshold is the amount (minor units, inclusive) from which
	// an operation requires biometric step-up
	BiometricThreshold int64 = 10_000_000

	// MaxBioFailures locks the user and account once reached
	MaxBioFailures = 5

	// LockReasonBiometric is recorded when the biometric budget is spent
	LockReasonBiometric = "biometric failed"

	// BiometricCodeUnavailable is reported by devices without a usable
	// sensor; it never counts toward the failure budget
	BiometricCodeUnavailable = "unavailable"
)

// ChallengeResult is the outcome of a platform biometric challenge,
// performed on-device and submitted by the client.
type ChallengeResult struct {
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// BiometricService decides when an amount requires biometric step-up and
// tracks biometric failures independently from the PIN counter.
type BiometricService struct {
	userRepo    repositories.UserRepository
	accountRepo repositories.AccountRepository
}

// NewBiometricService creates a new biometric service
func NewBiometricService(userRepo repositories.UserRepository, accountRepo repositories.AccountRepository) *BiometricService {
	return &BiometricService{
		userRepo:    userRepo,
		accountRepo: accountRepo,
	}
}

// RequiresBiometric reports whether the amount needs biometric step-up.
// The boundary is inclusive: exactly BiometricThreshold requires it.
func RequiresBiometric(amount int64) bool {
	return amount >= BiometricThreshold
}

// ProcessResult applies a challenge outcome to the failure budget.
// Success resets the counter. A missing sensor (code "unavailable") is
// surfaced without touching the counter. Any other failure increments the
// counter and locks user and account once the budget is spent.
func (s *BiometricService) ProcessResult(ctx context.Context, userID uint, accountNo string, result ChallengeResult) error {
	if result.Success {
		if err := s.userRepo.ResetBioFailures(ctx, userID); err != nil {
			log.Printf("❌ Failed to reset biometric failures for user %d: %v", userID, err)
		}
		return nil
	}

	if result.Code == BiometricCodeUnavailable {
		return domain.ErrBiometricUnavailable
	}

	count, err := s.userRepo.IncrementBioFailures(ctx, userID)
	if err != nil {
		log.Printf("❌ Failed to record biometric failure for user %d: %v", userID, err)
		return domain.ErrBiometricFailed
	}

	if count >= MaxBioFailures {
		if err := s.lock(ctx, userID, accountNo); err != nil {
			log.Printf("❌ Failed to lock after biometric failures (user %d): %v", userID, err)
		}
	}

	return domain.ErrBiometricFailed
}

func (s *BiometricService) lock(ctx context.Context, userID uint, accountNo string) error {
	if err := s.userRepo.Lock(ctx, userID, LockReasonBiometric, time.Now()); err != nil {
		return err
	}
	if accountNo != "" {
		if err := s.accountRepo.Lock(ctx, accountNo); err != nil {
			return err
		}
	}

	log.Printf("🔒 User %d and account %s locked: %s", userID, accountNo, LockReasonBiometric)
	return nil
}
