package repositories

import (
	"context"
	"time"

	"nexbank/internal/adapters/persistence/models"
)

// UserRepository defines user repository interface.
// Failure counters and lock transitions are expressed as conditional
// single-row updates so concurrent attempts never lose an increment.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context, offset, limit int) ([]*models.User, int64, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	SetPin(ctx context.Context, userID uint, pinHash string) error
	SetKycStatus(ctx context.Context, userID uint, status string, canTransact bool) error

	IncrementPinFailures(ctx context.Context, userID uint) (int, error)
	ResetPinFailures(ctx context.Context, userID uint) error
	IncrementBioFailures(ctx context.Context, userID uint) (int, error)
	ResetBioFailures(ctx context.Context, userID uint) error

	Lock(ctx context.Context, userID uint, reason string, at time.Time) error
	Unlock(ctx context.Context, userID uint) error
}

// AccountRepository defines account repository interface.
// All balance mutations are atomic conditional updates keyed by account
// number; a zero-row update means the condition did not hold.
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByAccountNo(ctx context.Context, accountNo string) (*models.Account, error)
	GetByUserID(ctx context.Context, userID uint) ([]*models.Account, error)
	List(ctx context.Context, offset, limit int) ([]*models.Account, int64, error)

	// AddBalance credits an ACTIVE account and returns the new balance.
	AddBalance(ctx context.Context, accountNo string, amount int64) (int64, error)
	// SubtractBalance debits an ACTIVE account only when the current
	// balance covers the amount, and returns the new balance.
	SubtractBalance(ctx context.Context, accountNo string, amount int64) (int64, error)

	// DebitForTransaction performs the debit leg of a transfer exactly
	// once per pending transaction id. Calling it again after the debit
	// has been applied returns the recorded balance without re-debiting.
	DebitForTransaction(ctx context.Context, txID, accountNo string, amount int64) (int64, error)
	// CreditForTransaction performs the credit leg of a transfer exactly
	// once per pending transaction id. Safe to retry; reports whether this
	// call applied the credit.
	CreditForTransaction(ctx context.Context, txID, accountNo string, amount int64) (bool, error)

	Lock(ctx context.Context, accountNo string) error
	Unlock(ctx context.Context, accountNo string) error
}

// PendingTransactionRepository defines pending transaction repository interface
type PendingTransactionRepository interface {
	Create(ctx context.Context, tx *models.PendingTransaction) error
	GetByID(ctx context.Context, id string) (*models.PendingTransaction, error)

	// UpdateOtp replaces the OTP code and expiry while the transaction is
	// still PENDING.
	UpdateOtp(ctx context.Context, id, code string, expiresAt time.Time) error

	// MarkConfirmed transitions PENDING -> CONFIRMED conditionally and
	// reports whether this caller won the transition.
	MarkConfirmed(ctx context.Context, id string, at time.Time) (bool, error)
	MarkFailed(ctx context.Context, id string) error
	MarkExpired(ctx context.Context, id string) error

	// ListUnappliedCredits returns confirmed transfers whose debit leg has
	// been applied but whose credit leg has not.
	ListUnappliedCredits(ctx context.Context, limit int) ([]*models.PendingTransaction, error)
	// ExpireStale marks PENDING transactions whose OTP expired before the
	// cutoff as EXPIRED, returning the number of rows affected.
	ExpireStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// LedgerRepository defines the append-only history and notification interface
type LedgerRepository interface {
	AppendTransaction(ctx context.Context, entry *models.AccountTransaction) error
	ListByAccount(ctx context.Context, accountNo string, offset, limit int) ([]*models.AccountTransaction, int64, error)

	AppendNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID uint, offset, limit int) ([]*models.Notification, int64, error)
	MarkNotificationRead(ctx context.Context, userID, id uint) error
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) error
}
