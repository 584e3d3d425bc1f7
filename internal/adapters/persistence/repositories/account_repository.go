package repositories

import (
	"context"
	"errors"

	"nexbank/internal/adapters/persistence/models"
	"nexbank/internal/core/domain"

	"gorm.io/gorm"
)

// accountRepository implements AccountRepository interface
type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

// Create creates a new account
func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

// GetByAccountNo gets an account by account number
func (r *accountRepository) GetByAccountNo(ctx context.Context, accountNo string) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).Where("account_no = ?", accountNo).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// GetByUserID gets all accounts owned by a user
func (r *accountRepository) GetByUserID(ctx context.Context, userID uint) ([]*models.Account, error) {
	var accounts []*models.Account
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("account_no").Find(&accounts).Error
	return accounts, err
}

// List lists accounts with pagination (officer back-office)
func (r *accountRepository) List(ctx context.Context, offset, limit int) ([]*models.Account, int64, error) {
	var accounts []*models.Account
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Account{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).Offset(offset).Limit(limit).Order("account_no").Find(&accounts).Error; err != nil {
		return nil, 0, err
	}

	return accounts, total, nil
}

// AddBalance credits an ACTIVE account as a single conditional update and
// returns the new balance.
func (r *accountRepository) AddBalance(ctx context.Context, accountNo string, amount int64) (int64, error) {
	var newBalance int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Account{}).
			Where("account_no = ? AND status = ?", accountNo, models.StatusActive).
			Update("balance", gorm.Expr("balance + ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return r.classifyUpdateFailure(tx, accountNo, 0)
		}
		return tx.Model(&models.Account{}).
			Where("account_no = ?", accountNo).
			Select("balance").
			Scan(&newBalance).Error
	})
	return newBalance, err
}

// SubtractBalance debits an ACTIVE account only when the balance covers the
// amount. Two concurrent debits can never both succeed past the balance
// because the check and the decrement are one conditional update.
func (r *accountRepository) SubtractBalance(ctx context.Context, accountNo string, amount int64) (int64, error) {
	var newBalance int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Account{}).
			Where("account_no = ? AND status = ? AND balance >= ?", accountNo, models.StatusActive, amount).
			Update("balance", gorm.Expr("balance - ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return r.classifyUpdateFailure(tx, accountNo, amount)
		}
		return tx.Model(&models.Account{}).
			Where("account_no = ?", accountNo).
			Select("balance").
			Scan(&newBalance).Error
	})
	return newBalance, err
}

// classifyUpdateFailure resolves why a conditional balance update matched no
// rows: missing account, locked account, or insufficient funds.
func (r *accountRepository) classifyUpdateFailure(tx *gorm.DB, accountNo string, amount int64) error {
	var account models.Account
	if err := tx.Where("account_no = ?", accountNo).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrAccountNotFound
		}
		return err
	}
	if account.IsLocked() {
		return domain.ErrAccountLocked
	}
	if amount > 0 && account.Balance < amount {
		return domain.ErrInsufficientFunds
	}
	return domain.ErrInternalServer
}

// DebitForTransaction applies the debit leg of a transfer at most once per
// pending transaction. The debit-applied flag and the balance decrement
// commit together, so a retry after a crash either sees the flag set and
// returns the recorded balance, or re-runs the whole leg.
func (r *accountRepository) DebitForTransaction(ctx context.Context, txID, accountNo string, amount int64) (int64, error) {
	var newBalance int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.PendingTransaction{}).
			Where("id = ? AND debit_applied = ?", txID, false).
			Update("debit_applied", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Debit already applied, return the balance recorded then.
			return tx.Model(&models.PendingTransaction{}).
				Where("id = ?", txID).
				Select("new_balance").
				Scan(&newBalance).Error
		}

		debit := tx.Model(&models.Account{}).
			Where("account_no = ? AND status = ? AND balance >= ?", accountNo, models.StatusActive, amount).
			Update("balance", gorm.Expr("balance - ?", amount))
		if debit.Error != nil {
			return debit.Error
		}
		if debit.RowsAffected == 0 {
			return r.classifyUpdateFailure(tx, accountNo, amount)
		}

		if err := tx.Model(&models.Account{}).
			Where("account_no = ?", accountNo).
			Select("balance").
			Scan(&newBalance).Error; err != nil {
			return err
		}

		return tx.Model(&models.PendingTransaction{}).
			Where("id = ?", txID).
			Update("new_balance", newBalance).Error
	})
	return newBalance, err
}

// CreditForTransaction applies the credit leg of a transfer at most once per
// pending transaction. Safe to retry until it succeeds; a destination that
// is locked leaves the credit unapplied for the reconciliation sweep.
func (r *accountRepository) CreditForTransaction(ctx context.Context, txID, accountNo string, amount int64) (bool, error) {
	applied := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.PendingTransaction{}).
			Where("id = ? AND credit_applied = ?", txID, false).
			Update("credit_applied", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Credit already applied by an earlier attempt.
			return nil
		}
		applied = true

		credit := tx.Model(&models.Account{}).
			Where("account_no = ? AND status = ?", accountNo, models.StatusActive).
			Update("balance", gorm.Expr("balance + ?", amount))
		if credit.Error != nil {
			return credit.Error
		}
		if credit.RowsAffected == 0 {
			return r.classifyUpdateFailure(tx, accountNo, 0)
		}
		return nil
	})
	return applied, err
}

// Lock transitions the account to LOCKED. Idempotent.
func (r *accountRepository) Lock(ctx context.Context, accountNo string) error {
	return r.db.WithContext(ctx).Model(&models.Account{}).
		Where("account_no = ? AND status = ?", accountNo, models.StatusActive).
		Update("status", models.StatusLocked).Error
}

// Unlock reactivates a locked account (officer back-office)
func (r *accountRepository) Unlock(ctx context.Context, accountNo string) error {
	return r.db.WithContext(ctx).Model(&models.Account{}).
		Where("account_no = ?", accountNo).
		Update("status", models.StatusActive).Error
}
