package services

import (
	"context"
	"log"

	"nexbank/internal/adapters/persistence/models"
	"nexbank/internal/adapters/persistence/repositories"
)

// LedgerService appends immutable history entries and user notifications
// after committed balance mutations. Appends are fire-and-forget relative to
// the mutation: a failed append never rolls back the balance change, it is
// logged as a reconciliation item instead.
type LedgerService struct {
	ledgerRepo repositories.LedgerRepository
}

// NewLedgerService creates a new ledger service
func NewLedgerService(ledgerRepo repositories.LedgerRepository) *LedgerService {
	return &LedgerService{ledgerRepo: ledgerRepo}
}

// RecordTransaction appends one history entry for a committed mutation
func (s *LedgerService) RecordTransaction(ctx context.Context, accountNo, txType, direction string, amount int64, description string) {
	entry := &models.AccountTransaction{
		AccountNo:   accountNo,
		Type:        txType,
		Direction:   direction,
		Amount:      amount,
		Currency:    "VND",
		Description: description,
	}
	if err := s.ledgerRepo.AppendTransaction(ctx, entry); err != nil {
		log.Printf("❌ RECONCILE: failed to append history for account %s (%s %d): %v",
			accountNo, txType, amount, err)
	}
}

// NotifyUser appends a user-visible notification
func (s *LedgerService) NotifyUser(ctx context.Context, userID uint, title, body string) {
	n := &models.Notification{
		UserID: userID,
		Title:  title,
		Body:   body,
	}
	if err := s.ledgerRepo.AppendNotification(ctx, n); err != nil {
		log.Printf("❌ RECONCILE: failed to append notification for user %d: %v", userID, err)
	}
}

// History lists history entries for an account, newest first
func (s *LedgerService) History(ctx context.Context, accountNo string, offset, limit int) ([]*models.AccountTransaction, int64, error) {
	return s.ledgerRepo.ListByAccount(ctx, accountNo, offset, limit)
}

// Notifications lists notifications for a user, newest first
func (s *LedgerService) Notifications(ctx context.Context, userID uint, offset, limit int) ([]*models.Notification, int64, error) {
	return s.ledgerRepo.ListNotifications(ctx, userID, offset, limit)
}

// MarkRead flags a notification as read
func (s *LedgerService) MarkRead(ctx context.Context, userID, id uint) error {
	return s.ledgerRepo.MarkNotificationRead(ctx, userID, id)
}
