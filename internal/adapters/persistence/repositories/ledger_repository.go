package repositories

import (
	"context"

	"nexbank/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// ledgerRepository implements LedgerRepository interface.
// History rows and notifications are append-only: this repository exposes
// no update or delete beyond the read flag on notifications.
type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

// AppendTransaction appends an immutable history entry
func (r *ledgerRepository) AppendTransaction(ctx context.Context, entry *models.AccountTransaction) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListByAccount lists history entries for an account, newest first
func (r *ledgerRepository) ListByAccount(ctx context.Context, accountNo string, offset, limit int) ([]*models.AccountTransaction, int64, error) {
	var entries []*models.AccountTransaction
	var total int64

	q := r.db.WithContext(ctx).Model(&models.AccountTransaction{}).Where("account_no = ?", accountNo)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := q.Order("id DESC").Offset(offset).Limit(limit).Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// AppendNotification appends a user-visible notification
func (r *ledgerRepository) AppendNotification(ctx context.Context, n *models.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

// ListNotifications lists notifications for a user, newest first
func (r *ledgerRepository) ListNotifications(ctx context.Context, userID uint, offset, limit int) ([]*models.Notification, int64, error) {
	var notifications []*models.Notification
	var total int64

	q := r.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := q.Order("id DESC").Offset(offset).Limit(limit).Find(&notifications).Error; err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

// MarkNotificationRead flags a notification as read. Scoped by user so one
// customer cannot touch another's notifications.
func (r *ledgerRepository) MarkNotificationRead(ctx context.Context, userID, id uint) error {
	return r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true).Error
}
