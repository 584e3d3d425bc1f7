package repositories

import (
	"context"
	"errors"
	"time"

	"nexbank/internal/adapters/persistence/models"
	"nexbank/internal/core/domain"

	"gorm.io/gorm"
)

// pendingTransactionRepository implements PendingTransactionRepository interface
type pendingTransactionRepository struct {
	db *gorm.DB
}

// NewPendingTransactionRepository creates a new pending transaction repository
func NewPendingTransactionRepository(db *gorm.DB) PendingTransactionRepository {
	return &pendingTransactionRepository{db: db}
}

// Create creates a new pending transaction
func (r *pendingTransactionRepository) Create(ctx context.Context, tx *models.PendingTransaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

// GetByID gets a pending transaction by ID
func (r *pendingTransactionRepository) GetByID(ctx context.Context, id string) (*models.PendingTransaction, error) {
	var tx models.PendingTransaction
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return &tx, nil
}

// UpdateOtp replaces the OTP code and expiry. Only PENDING transactions can
// be re-issued a code; anything else means the transaction already reached a
// terminal state.
func (r *pendingTransactionRepository) UpdateOtp(ctx context.Context, id, code string, expiresAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.PendingTransaction{}).
		Where("id = ? AND status = ?", id, models.TxPending).
		Updates(map[string]interface{}{
			"otp_code":       code,
			"otp_expires_at": expiresAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrTransactionNotPending
	}
	return nil
}

// MarkConfirmed transitions PENDING -> CONFIRMED as a conditional update.
// Under concurrent confirmations exactly one caller observes claimed=true;
// the balance mutation is applied only by that caller.
func (r *pendingTransactionRepository) MarkConfirmed(ctx context.Context, id string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.PendingTransaction{}).
		Where("id = ? AND status = ?", id, models.TxPending).
		Updates(map[string]interface{}{
			"status":       models.TxConfirmed,
			"confirmed_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkFailed transitions a transaction to FAILED
func (r *pendingTransactionRepository) MarkFailed(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&models.PendingTransaction{}).
		Where("id = ?", id).
		Update("status", models.TxFailed).Error
}

// MarkExpired transitions a PENDING transaction to EXPIRED
func (r *pendingTransactionRepository) MarkExpired(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&models.PendingTransaction{}).
		Where("id = ? AND status = ?", id, models.TxPending).
		Update("status", models.TxExpired).Error
}

// ListUnappliedCredits returns confirmed transfers with a debited source and
// an uncredited destination, oldest first. Input for the reconciliation
// sweep.
func (r *pendingTransactionRepository) ListUnappliedCredits(ctx context.Context, limit int) ([]*models.PendingTransaction, error) {
	var txs []*models.PendingTransaction
	err := r.db.WithContext(ctx).
		Where("kind = ? AND status = ? AND debit_applied = ? AND credit_applied = ? AND dest_account <> ''",
			models.TxTransfer, models.TxConfirmed, true, false).
		Order("confirmed_at").
		Limit(limit).
		Find(&txs).Error
	return txs, err
}

// ExpireStale marks abandoned PENDING transactions as EXPIRED. Correctness
// does not depend on this running; confirm and resend evaluate expiry
// lazily against the clock.
func (r *pendingTransactionRepository) ExpireStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.PendingTransaction{}).
		Where("status = ? AND otp_expires_at < ?", models.TxPending, cutoff).
		Update("status", models.TxExpired)
	return res.RowsAffected, res.Error
}
