package services

import (
	"context"
	"fmt"
	"log"

	"nexbank/internal/adapters/persistence/models"
	"nexbank/internal/adapters/persistence/repositories"
	"nexbank/internal/core/domain"
	"nexbank/internal/pkg/mask"
)

// BalanceService applies deposits, withdrawals, and transfers as atomic
// conditional balance updates. Insufficient-funds protection lives in the
// conditional update itself, not in any external lock: concurrent debits on
// one account serialize in the store.
type BalanceService struct {
	accountRepo repositories.AccountRepository
	ledger      *LedgerService
}

// NewBalanceService creates a new balance service
func NewBalanceService(accountRepo repositories.AccountRepository, ledger *LedgerService) *BalanceService {
	return &BalanceService{
		accountRepo: accountRepo,
		ledger:      ledger,
	}
}

// Deposit credits an account. Callers must have run the eligibility and PIN
// gates. Returns the new balance.
func (s *BalanceService) Deposit(ctx context.Context, userID uint, accountNo string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidAmount
	}
	if err := s.ensureOwner(ctx, userID, accountNo); err != nil {
		return 0, err
	}

	newBalance, err := s.accountRepo.AddBalance(ctx, accountNo, amount)
	if err != nil {
		return 0, err
	}

	s.ledger.RecordTransaction(ctx, accountNo, models.TxCashDeposit, models.DirectionIn, amount, "Cash deposit")
	s.ledger.NotifyUser(ctx, userID, "Deposit completed",
		fmt.Sprintf("Deposited %d to account %s", amount, mask.AccountNo(accountNo)))

	return newBalance, nil
}

// Withdraw debits an account. The conditional update aborts untouched when
// the balance does not cover the amount. Returns the new balance.
func (s *BalanceService) Withdraw(ctx context.Context, userID uint, accountNo string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidAmount
	}

	newBalance, err := s.accountRepo.SubtractBalance(ctx, accountNo, amount)
	if err != nil {
		return 0, err
	}

	s.ledger.RecordTransaction(ctx, accountNo, models.TxCashWithdraw, models.DirectionOut, amount, "Cash withdrawal")
	s.ledger.NotifyUser(ctx, userID, "Withdrawal completed",
		fmt.Sprintf("Withdrew %d from account %s", amount, mask.AccountNo(accountNo)))

	return newBalance, nil
}

// ApplyPending applies the balance effect of a confirmed pending
// transaction. Called exactly once per transaction by the confirm winner.
func (s *BalanceService) ApplyPending(ctx context.Context, tx *models.PendingTransaction) (int64, error) {
	switch tx.Kind {
	case models.TxCashWithdraw:
		return s.Withdraw(ctx, tx.UserID, tx.SourceAccount, tx.Amount)
	case models.TxTransfer:
		return s.transfer(ctx, tx)
	case models.TxCashDeposit:
		return s.Deposit(ctx, tx.UserID, tx.SourceAccount, tx.Amount)
	default:
		return 0, domain.ErrInvalidInput
	}
}

// transfer debits the source then credits the destination. The two legs are
// separate single-key updates: the debit is applied at most once per
// transaction id and is never retried; the credit is idempotent and is
// retried by the reconciliation sweep if it cannot be applied now. Money is
// therefore never created or destroyed, only delayed.
func (s *BalanceService) transfer(ctx context.Context, tx *models.PendingTransaction) (int64, error) {
	if tx.Amount <= 0 {
		return 0, domain.ErrInvalidAmount
	}

	newBalance, err := s.accountRepo.DebitForTransaction(ctx, tx.ID, tx.SourceAccount, tx.Amount)
	if err != nil {
		return 0, err
	}

	dest := tx.DestAccount
	if dest == "" {
		dest = tx.DestBankRef
	}
	s.ledger.RecordTransaction(ctx, tx.SourceAccount, models.TxTransfer, models.DirectionOut, tx.Amount,
		fmt.Sprintf("Transfer to %s", mask.AccountNo(dest)))
	s.ledger.NotifyUser(ctx, tx.UserID, "Transfer sent",
		fmt.Sprintf("Transferred %d to %s", tx.Amount, mask.AccountNo(dest)))

	if err := s.ApplyCredit(ctx, tx); err != nil {
		// Source is debited; the sweep retries the credit until it lands.
		log.Printf("❌ RECONCILE: credit leg of transaction %s not applied yet: %v", tx.ID, err)
	}

	return newBalance, nil
}

// ApplyCredit applies the credit leg of a transfer idempotently. Also
// invoked by the reconciliation sweep for transfers whose credit did not
// land on the first attempt. External transfers (bank reference only) have
// no internal credit leg.
func (s *BalanceService) ApplyCredit(ctx context.Context, tx *models.PendingTransaction) error {
	if tx.Kind != models.TxTransfer || tx.DestAccount == "" {
		return nil
	}

	applied, err := s.accountRepo.CreditForTransaction(ctx, tx.ID, tx.DestAccount, tx.Amount)
	if err != nil {
		return err
	}
	if !applied {
		// A concurrent attempt already landed the credit and its ledger entry.
		return nil
	}

	s.ledger.RecordTransaction(ctx, tx.DestAccount, models.TxTransfer, models.DirectionIn, tx.Amount,
		fmt.Sprintf("Transfer from %s", mask.AccountNo(tx.SourceAccount)))

	destAccount, err := s.accountRepo.GetByAccountNo(ctx, tx.DestAccount)
	if err == nil {
		s.ledger.NotifyUser(ctx, destAccount.UserID, "Transfer received",
			fmt.Sprintf("Received %d from %s", tx.Amount, mask.AccountNo(tx.SourceAccount)))
	}

	return nil
}

// ensureOwner enforces the strict ownership check: the account must belong
// to the acting user, exact match on user id.
func (s *BalanceService) ensureOwner(ctx context.Context, userID uint, accountNo string) error {
	account, err := s.accountRepo.GetByAccountNo(ctx, accountNo)
	if err != nil {
		return err
	}
	if account.UserID != userID {
		return domain.ErrNotAccountOwner
	}
	return nil
}
