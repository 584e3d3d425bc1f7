package services

import (
	"context"
	"errors"
	"log"
	"time"

	"nexbank/internal/adapters/persistence/models"
	"nexbank/internal/adapters/persistence/repositories"
	"nexbank/internal/core/domain"

	"gorm.io/gorm"
)

// OfficerService handles back-office operations: eKYC review, manual lock
// management, and account provisioning.
type OfficerService struct {
	userRepo    repositories.UserRepository
	accountRepo repositories.AccountRepository
}

// NewOfficerService creates a new officer service
func NewOfficerService(
	userRepo repositories.UserRepository,
	accountRepo repositories.AccountRepository,
) *OfficerService {
	return &OfficerService{
		userRepo:    userRepo,
		accountRepo: accountRepo,
	}
}

// ListUsersOutput represents list users output
type ListUsersOutput struct {
	Users      []*models.UserResponse `json:"users"`
	Total      int64                  `json:"total"`
	Page       int                    `json:"page"`
	Limit      int                    `json:"limit"`
	TotalPages int                    `json:"total_pages"`
}

// ListUsers lists all users with pagination
func (s *OfficerService) ListUsers(ctx context.Context, page, limit int) (*ListUsersOutput, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	offset := (page - 1) * limit

	users, total, err := s.userRepo.List(ctx, offset, limit)
	if err != nil {
		return nil, err
	}

	userResponses := make([]*models.UserResponse, len(users))
	for i, user := range users {
		userResponses[i] = user.ToResponse()
	}

	totalPages := int(total) / limit
	if int(total)%limit > 0 {
		totalPages++
	}

	return &ListUsersOutput{
		Users:      userResponses,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

// GetUser gets a user by ID
func (s *OfficerService) GetUser(ctx context.Context, id uint) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user.ToResponse(), nil
}

// SetKycStatus records the outcome of an eKYC review. Only a VERIFIED
// outcome turns the transact capability on; any other outcome turns it off.
func (s *OfficerService) SetKycStatus(ctx context.Context, userID uint, status string) (*models.UserResponse, error) {
	if status != models.KycPending && status != models.KycVerified && status != models.KycRejected {
		return nil, domain.ErrInvalidInput
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	canTransact := status == models.KycVerified
	if err := s.userRepo.SetKycStatus(ctx, userID, status, canTransact); err != nil {
		return nil, err
	}

	user.KycStatus = status
	user.CanTransact = canTransact

	log.Printf("✅ eKYC status for user %d set to %s by officer", userID, status)
	return user.ToResponse(), nil
}

// UnlockUser clears a lock and resets both failure counters. Accounts
// locked alongside the profile are unlocked in the same pass.
func (s *OfficerService) UnlockUser(ctx context.Context, userID uint) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	if err := s.userRepo.Unlock(ctx, userID); err != nil {
		return err
	}

	accounts, err := s.accountRepo.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	for _, account := range accounts {
		if !account.IsLocked() {
			continue
		}
		if err := s.accountRepo.Unlock(ctx, account.AccountNo); err != nil {
			log.Printf("❌ Failed to unlock account %s for user %d: %v", account.AccountNo, userID, err)
		}
	}

	log.Printf("🔓 User %d unlocked by officer (was: %s)", userID, user.LockReason)
	return nil
}

// LockUser applies a manual lock with the officer's stated reason
func (s *OfficerService) LockUser(ctx context.Context, userID uint, reason string) error {
	if reason == "" {
		reason = "locked by officer"
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	if err := s.userRepo.Lock(ctx, userID, reason, time.Now()); err != nil {
		return err
	}

	log.Printf("🔒 User %d locked by officer: %s", userID, reason)
	return nil
}

// ProvisionAccountInput represents account provisioning input
type ProvisionAccountInput struct {
	UserID    uint   `json:"user_id" validate:"required"`
	AccountNo string `json:"account_no" validate:"required,len=9"`
	Kind      string `json:"kind" validate:"required"`
	Currency  string `json:"currency"`
}

// ProvisionAccount opens a new account for a customer
func (s *OfficerService) ProvisionAccount(ctx context.Context, input *ProvisionAccountInput) (*models.Account, error) {
	if input.Kind != models.AccountPayment && input.Kind != models.AccountSavings && input.Kind != models.AccountMortgage {
		return nil, domain.ErrInvalidInput
	}
	if input.Currency == "" {
		input.Currency = "VND"
	}

	if _, err := s.userRepo.GetByID(ctx, input.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	if _, err := s.accountRepo.GetByAccountNo(ctx, input.AccountNo); err == nil {
		return nil, domain.ErrDuplicateEntry
	} else if !errors.Is(err, domain.ErrAccountNotFound) && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	account := &models.Account{
		AccountNo: input.AccountNo,
		UserID:    input.UserID,
		Kind:      input.Kind,
		Balance:   0,
		Currency:  input.Currency,
		Status:    models.StatusActive,
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	log.Printf("✅ Account %s (%s) provisioned for user %d", account.AccountNo, account.Kind, account.UserID)
	return account, nil
}

// LockAccount locks a single account without touching the owner profile
func (s *OfficerService) LockAccount(ctx context.Context, accountNo string) error {
	if _, err := s.accountRepo.GetByAccountNo(ctx, accountNo); err != nil {
		return err
	}
	if err := s.accountRepo.Lock(ctx, accountNo); err != nil {
		return err
	}
	log.Printf("🔒 Account %s locked by officer", accountNo)
	return nil
}

// UnlockAccount unlocks a single account
func (s *OfficerService) UnlockAccount(ctx context.Context, accountNo string) error {
	if _, err := s.accountRepo.GetByAccountNo(ctx, accountNo); err != nil {
		return err
	}
	if err := s.accountRepo.Unlock(ctx, accountNo); err != nil {
		return err
	}
	log.Printf("🔓 Account %s unlocked by officer", accountNo)
	return nil
}

// ListAccounts lists all accounts with pagination
func (s *OfficerService) ListAccounts(ctx context.Context, page, limit int) ([]*models.Account, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return s.accountRepo.List(ctx, (page-1)*limit, limit)
}
