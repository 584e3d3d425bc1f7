package models

import (
	"time"

	"gorm.io/gorm"
)

// ============================================================
// Users & Sessions
// ============================================================

// User roles
const (
	RoleCustomer = "CUSTOMER"
	RoleOfficer  = "OFFICER"
)

// User / account statuses
const (
	StatusActive = "ACTIVE"
	StatusLocked = "LOCKED"
)

// eKYC statuses
const (
	KycPending  = "PENDING"
	KycVerified = "VERIFIED"
	KycRejected = "REJECTED"
)

// User represents users table
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Email        string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	FullName     string         `gorm:"size:100" json:"full_name"`
	Password     string         `gorm:"size:255;not null" json:"-"`
	Role         string         `gorm:"size:20;default:'CUSTOMER'" json:"role"`
	Status       string         `gorm:"size:20;default:'ACTIVE'" json:"status"`
	KycStatus    string         `gorm:"size:20;default:'PENDING'" json:"kyc_status"`
	CanTransact  bool           `gorm:"default:false" json:"can_transact"`
	PinHash      string         `gorm:"size:255" json:"-"`
	PinFailCount int            `gorm:"default:0" json:"-"`
	BioFailCount int            `gorm:"default:0" json:"-"`
	LockReason   string         `gorm:"size:100" json:"lock_reason,omitempty"`
	LockedAt     *time.Time     `json:"locked_at,omitempty"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// IsLocked reports whether the user profile is locked
func (u *User) IsLocked() bool {
	return u.Status == StatusLocked
}

// HasPin reports whether a transaction PIN has been set
func (u *User) HasPin() bool {
	return u.PinHash != ""
}

// UserResponse DTO
type UserResponse struct {
	ID          uint      `json:"id"`
	Email       string    `json:"email"`
	FullName    string    `json:"full_name"`
	Role        string    `json:"role"`
	Status      string    `json:"status"`
	KycStatus   string    `json:"kyc_status"`
	CanTransact bool      `json:"can_transact"`
	HasPin      bool      `json:"has_pin"`
	CreatedAt   time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
		Role:        u.Role,
		Status:      u.Status,
		KycStatus:   u.KycStatus,
		CanTransact: u.CanTransact,
		HasPin:      u.HasPin(),
		CreatedAt:   u.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Accounts & Ledger
// ============================================================

// Account kinds
const (
	AccountPayment  = "PAYMENT"
	AccountSavings  = "SAVINGS"
	AccountMortgage = "MORTGAGE"
)

// Account represents accounts table.
// AccountNo is a human-assigned identifier, not an auto-increment key.
// Balance is in minor currency units and is only ever mutated through
// conditional updates that keep it non-negative.
type Account struct {
	AccountNo string    `gorm:"primaryKey;size:20" json:"account_no"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Kind      string    `gorm:"size:20;default:'PAYMENT'" json:"kind"`
	Balance   int64     `gorm:"not null;default:0" json:"balance"`
	Currency  string    `gorm:"size:3;default:'VND'" json:"currency"`
	Status    string    `gorm:"size:20;default:'ACTIVE'" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
}

func (Account) TableName() string {
	return "accounts"
}

func (a *Account) IsLocked() bool {
	return a.Status == StatusLocked
}

// Transaction directions
const (
	DirectionIn  = "IN"
	DirectionOut = "OUT"
)

// AccountTransaction represents account_transactions table (append-only ledger).
// Rows are created by the ledger recorder after a committed balance mutation
// and never updated or deleted.
type AccountTransaction struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	AccountNo   string    `gorm:"index;size:20;not null" json:"account_no"`
	Type        string    `gorm:"size:20;not null" json:"type"`
	Direction   string    `gorm:"size:3;not null" json:"direction"`
	Amount      int64     `gorm:"not null" json:"amount"`
	Currency    string    `gorm:"size:3;default:'VND'" json:"currency"`
	Description string    `gorm:"size:255" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (AccountTransaction) TableName() string {
	return "account_transactions"
}

// Notification represents notifications table (append-only, per user)
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Title     string    `gorm:"size:100;not null" json:"title"`
	Body      string    `gorm:"size:500" json:"body"`
	IsRead    bool      `gorm:"default:false" json:"is_read"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

// ============================================================
// Pending Transactions (OTP-gated money movement)
// ============================================================

// Pending transaction kinds
const (
	TxCashDeposit  = "CASH_DEPOSIT"
	TxCashWithdraw = "CASH_WITHDRAW"
	TxTransfer     = "TRANSFER"
)

// Pending transaction statuses
const (
	TxPending   = "PENDING"
	TxConfirmed = "CONFIRMED"
	TxExpired   = "EXPIRED"
	TxFailed    = "FAILED"
)

// PendingTransaction represents pending_transactions table.
// Exactly one OTP code is valid per transaction at any time. The
// PENDING -> CONFIRMED transition is performed as a conditional update so
// that concurrent confirmations elect a single winner.
type PendingTransaction struct {
	ID            string     `gorm:"primaryKey;size:36" json:"id"`
	UserID        uint       `gorm:"index;not null" json:"user_id"`
	Kind          string     `gorm:"size:20;not null" json:"kind"`
	Amount        int64      `gorm:"not null" json:"amount"`
	SourceAccount string     `gorm:"size:20;not null" json:"source_account"`
	DestAccount   string     `gorm:"size:20" json:"dest_account,omitempty"`
	DestBankRef   string     `gorm:"size:50" json:"dest_bank_ref,omitempty"`
	OtpCode       string     `gorm:"size:6" json:"-"`
	OtpExpiresAt  time.Time  `json:"otp_expires_at"`
	BioVerified   bool       `gorm:"default:false" json:"bio_verified"`
	Status        string     `gorm:"size:20;default:'PENDING';index" json:"status"`
	DebitApplied  bool       `gorm:"default:false" json:"-"`
	CreditApplied bool       `gorm:"default:false" json:"-"`
	NewBalance    int64      `json:"-"`
	ConfirmedAt   *time.Time `json:"confirmed_at,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PendingTransaction) TableName() string {
	return "pending_transactions"
}

// OtpExpired reports whether the current OTP code is past its validity window
func (t *PendingTransaction) OtpExpired(now time.Time) bool {
	return now.After(t.OtpExpiresAt)
}

// AutoMigrate creates or updates all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Account{},
		&AccountTransaction{},
		&Notification{},
		&PendingTransaction{},
	)
}
