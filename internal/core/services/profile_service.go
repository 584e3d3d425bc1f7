package services

import (
	"context"
	"errors"

	"nexbank/internal/adapters/persistence/models"
	"nexbank/internal/adapters/persistence/repositories"
	"nexbank/internal/core/domain"

	"gorm.io/gorm"
)

// ProfileService resolves identity and transact eligibility.
// Leaf dependency of every money-movement operation; pure reads only.
type ProfileService struct {
	userRepo    repositories.UserRepository
	accountRepo repositories.AccountRepository
}

// NewProfileService creates a new profile service
func NewProfileService(userRepo repositories.UserRepository, accountRepo repositories.AccountRepository) *ProfileService {
	return &ProfileService{userRepo: userRepo, accountRepo: accountRepo}
}

// EnsureCanTransact checks that the acting user may move money.
// A customer is eligible only when the profile exists, is not locked,
// carries eKYC status exactly "VERIFIED", and has the transact permission.
func (s *ProfileService) EnsureCanTransact(ctx context.Context, userID uint) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotEligible
		}
		return err
	}

	if user.IsLocked() {
		return domain.ErrAccountLocked
	}

	// Exact, case-sensitive match. "Verified", "verified" etc. do not pass.
	if user.KycStatus != models.KycVerified {
		return domain.ErrNotEligible
	}
	if !user.CanTransact {
		return domain.ErrNotEligible
	}

	return nil
}

// GetProfile returns the user profile
func (s *ProfileService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// Accounts lists the accounts owned by the user
func (s *ProfileService) Accounts(ctx context.Context, userID uint) ([]*models.Account, error) {
	return s.accountRepo.GetByUserID(ctx, userID)
}

// Account returns one account, enforcing strict ownership. Another user's
// account number yields ErrNotAccountOwner, never the account.
func (s *ProfileService) Account(ctx context.Context, userID uint, accountNo string) (*models.Account, error) {
	account, err := s.accountRepo.GetByAccountNo(ctx, accountNo)
	if err != nil {
		return nil, err
	}
	if account.UserID != userID {
		return nil, domain.ErrNotAccountOwner
	}
	return account, nil
}
