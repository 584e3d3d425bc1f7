package services

import (
	"context"
	"errors"
	"log"

	"nexbank/internal/adapters/persistence/models"
	"nexbank/internal/adapters/persistence/repositories"
	"nexbank/internal/core/domain"
)

// TransactionService runs the money-movement pipeline: eligibility gate,
// PIN verification, biometric step-up where the amount requires it, OTP
// issuance, and finally the balance mutation with ledger recording. Each
// gate can short-circuit the pipeline with a typed error.
type TransactionService struct {
	profile     *ProfileService
	pin         *PinService
	biometric   *BiometricService
	otp         *OtpService
	balance     *BalanceService
	accountRepo repositories.AccountRepository
	txRepo      repositories.PendingTransactionRepository
}

// NewTransactionService creates a new transaction service
func NewTransactionService(
	profile *ProfileService,
	pin *PinService,
	biometric *BiometricService,
	otp *OtpService,
	balance *BalanceService,
	accountRepo repositories.AccountRepository,
	txRepo repositories.PendingTransactionRepository,
) *TransactionService {
	return &TransactionService{
		profile:     profile,
		pin:         pin,
		biometric:   biometric,
		otp:         otp,
		balance:     balance,
		accountRepo: accountRepo,
		txRepo:      txRepo,
	}
}

// DepositInput is a direct cash deposit request
type DepositInput struct {
	AccountNo string
	Amount    int64
	Pin       string
}

// Deposit performs a PIN-gated cash deposit, applied immediately.
func (s *TransactionService) Deposit(ctx context.Context, userID uint, input DepositInput) (int64, error) {
	if input.Amount <= 0 {
		return 0, domain.ErrInvalidAmount
	}
	if err := s.profile.EnsureCanTransact(ctx, userID); err != nil {
		return 0, err
	}
	if err := s.verifyPinWithLock(ctx, userID, input.AccountNo, input.Pin); err != nil {
		return 0, err
	}

	return s.balance.Deposit(ctx, userID, input.AccountNo, input.Amount)
}

// MoneyMovementInput is a withdrawal or transfer initiation request
type MoneyMovementInput struct {
	Kind        string
	AccountNo   string
	DestAccount string
	DestBankRef string
	Amount      int64
	Pin         string
	Biometric   *ChallengeResult
}

// Initiate runs the gates for a withdrawal or transfer and issues an OTP
// bound to a new pending transaction. The balance is untouched until the
// code is confirmed.
func (s *TransactionService) Initiate(ctx context.Context, userID uint, input MoneyMovementInput) (*OtpIssueResult, error) {
	if input.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if input.Kind != models.TxCashWithdraw && input.Kind != models.TxTransfer {
		return nil, domain.ErrInvalidInput
	}

	// 1. Eligibility gate
	if err := s.profile.EnsureCanTransact(ctx, userID); err != nil {
		return nil, err
	}

	// 2. Source account: strict ownership, must be ACTIVE
	source, err := s.accountRepo.GetByAccountNo(ctx, input.AccountNo)
	if err != nil {
		return nil, err
	}
	if source.UserID != userID {
		return nil, domain.ErrNotAccountOwner
	}
	if source.IsLocked() {
		return nil, domain.ErrAccountLocked
	}

	// 3. Destination checks for internal transfers
	if input.Kind == models.TxTransfer {
		if input.DestAccount == "" && input.DestBankRef == "" {
			return nil, domain.ErrInvalidInput
		}
		if input.DestAccount != "" {
			if input.DestAccount == input.AccountNo {
				return nil, domain.ErrSameAccount
			}
			if _, err := s.accountRepo.GetByAccountNo(ctx, input.DestAccount); err != nil {
				return nil, err
			}
		}
	}

	// 4. PIN gate
	if err := s.verifyPinWithLock(ctx, userID, input.AccountNo, input.Pin); err != nil {
		return nil, err
	}

	// 5. Biometric step-up above the amount threshold
	bioVerified := false
	if RequiresBiometric(input.Amount) {
		if input.Biometric == nil {
			return nil, domain.ErrBiometricRequired
		}
		if err := s.biometric.ProcessResult(ctx, userID, input.AccountNo, *input.Biometric); err != nil {
			return nil, err
		}
		bioVerified = true
	}

	// 6. Issue the OTP bound to a new pending transaction
	return s.otp.Initiate(ctx, InitiateInput{
		UserID:        userID,
		Kind:          input.Kind,
		Amount:        input.Amount,
		SourceAccount: input.AccountNo,
		DestAccount:   input.DestAccount,
		DestBankRef:   input.DestBankRef,
		BioVerified:   bioVerified,
	})
}

// Confirm validates the submitted code, claims the single-use confirmation,
// and applies the balance mutation. Returns the new source balance.
func (s *TransactionService) Confirm(ctx context.Context, userID uint, txID, code string) (int64, error) {
	if err := s.profile.EnsureCanTransact(ctx, userID); err != nil {
		return 0, err
	}

	tx, err := s.otp.Confirm(ctx, userID, txID, code)
	if err != nil {
		return 0, err
	}

	newBalance, err := s.balance.ApplyPending(ctx, tx)
	if err != nil {
		// The claim is ours; the mutation did not land. Terminal failure.
		if markErr := s.txRepo.MarkFailed(ctx, txID); markErr != nil {
			log.Printf("❌ Failed to mark transaction %s failed: %v", txID, markErr)
		}
		return 0, err
	}

	return newBalance, nil
}

// Resend regenerates the OTP once the prior code has expired
func (s *TransactionService) Resend(ctx context.Context, userID uint, txID string) (*OtpIssueResult, error) {
	return s.otp.Resend(ctx, userID, txID)
}

// Cancel abandons a pending transaction before confirmation
func (s *TransactionService) Cancel(ctx context.Context, userID uint, txID string) error {
	return s.otp.Cancel(ctx, userID, txID)
}

// verifyPinWithLock verifies the PIN and, after a failure, runs the lock
// check as a separate best-effort step so the failure count has already
// been persisted whatever happens here.
func (s *TransactionService) verifyPinWithLock(ctx context.Context, userID uint, accountNo, pin string) error {
	err := s.pin.VerifyPin(ctx, userID, pin)
	if err == nil {
		return nil
	}

	if errors.Is(err, domain.ErrInvalidPin) {
		if lockErr := s.pin.LockIfExceeded(ctx, userID, accountNo); lockErr != nil {
			log.Printf("❌ Lock check failed for user %d: %v", userID, lockErr)
		}
	}
	return err
}
