package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"time"

	"nexbank/internal/adapters/persistence/models"
	"nexbank/internal/adapters/persistence/repositories"
	"nexbank/internal/core/domain"
	"nexbank/internal/pkg/mailer"
	"nexbank/internal/pkg/mask"

	"github.com/google/uuid"
)

const (
	// OtpLength is the number of digits in a one-time code
	OtpLength = 6

	// DefaultOtpValidity is the code validity window
	DefaultOtpValidity = 180 * time.Second
)

// OtpIssueResult is returned to the client after a code is issued.
// The raw code is dispatched out-of-band only and never included here.
type OtpIssueResult struct {
	TransactionID string    `json:"transaction_id"`
	MaskedEmail   string    `json:"masked_email"`
	ExpireAt      time.Time `json:"expire_at"`
}

// OtpService issues time-boxed one-time codes bound to a pending
// transaction, validates submitted codes, and enforces expiry-gated resend.
type OtpService struct {
	txRepo          repositories.PendingTransactionRepository
	userRepo        repositories.UserRepository
	sender          mailer.Sender
	limiter         RateLimiter
	validity        time.Duration
	initiatePerHour int
	now             func() time.Time
}

// NewOtpService creates a new OTP service
func NewOtpService(
	txRepo repositories.PendingTransactionRepository,
	userRepo repositories.UserRepository,
	sender mailer.Sender,
	limiter RateLimiter,
	validitySeconds int,
	initiatePerHour int,
) *OtpService {
	validity := DefaultOtpValidity
	if validitySeconds > 0 {
		validity = time.Duration(validitySeconds) * time.Second
	}

	return &OtpService{
		txRepo:          txRepo,
		userRepo:        userRepo,
		sender:          sender,
		limiter:         limiter,
		validity:        validity,
		initiatePerHour: initiatePerHour,
		now:             time.Now,
	}
}

// InitiateInput describes a money-movement request awaiting confirmation
type InitiateInput struct {
	UserID        uint
	Kind          string
	Amount        int64
	SourceAccount string
	DestAccount   string
	DestBankRef   string
	BioVerified   bool
}

// Initiate creates a PendingTransaction with a fresh code and dispatches it
// out-of-band to the user's registered email. The caller is expected to have
// run the eligibility, PIN, and biometric gates already.
func (s *OtpService) Initiate(ctx context.Context, input InitiateInput) (*OtpIssueResult, error) {
	user, err := s.userRepo.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.checkRate(ctx, "otp_initiate", input.UserID); err != nil {
		return nil, err
	}

	code, err := generateOtpCode(OtpLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate OTP: %w", err)
	}

	expireAt := s.now().Add(s.validity)
	tx := &models.PendingTransaction{
		ID:            uuid.New().String(),
		UserID:        input.UserID,
		Kind:          input.Kind,
		Amount:        input.Amount,
		SourceAccount: input.SourceAccount,
		DestAccount:   input.DestAccount,
		DestBankRef:   input.DestBankRef,
		OtpCode:       code,
		OtpExpiresAt:  expireAt,
		BioVerified:   input.BioVerified,
		Status:        models.TxPending,
	}
	if err := s.txRepo.Create(ctx, tx); err != nil {
		return nil, err
	}

	s.dispatchCode(user.Email, code, tx)

	return &OtpIssueResult{
		TransactionID: tx.ID,
		MaskedEmail:   mask.Email(user.Email),
		ExpireAt:      expireAt,
	}, nil
}

// Confirm validates a submitted code and, on success, claims the
// PENDING -> CONFIRMED transition. Exactly one concurrent caller wins the
// claim; everyone else sees ErrTransactionNotPending. The transaction is
// returned to the caller so the balance mutation can be applied.
func (s *OtpService) Confirm(ctx context.Context, userID uint, txID, code string) (*models.PendingTransaction, error) {
	tx, err := s.txRepo.GetByID(ctx, txID)
	if err != nil {
		return nil, err
	}
	if tx.UserID != userID {
		// Do not reveal other users' transactions.
		return nil, domain.ErrTransactionNotFound
	}

	if tx.Status != models.TxPending {
		return nil, domain.ErrTransactionNotPending
	}
	if code != tx.OtpCode {
		return nil, domain.ErrOtpMismatch
	}
	if tx.OtpExpired(s.now()) {
		// Lazy expiry: the row stays PENDING and can be re-issued a code.
		return nil, domain.ErrOtpExpired
	}

	claimed, err := s.txRepo.MarkConfirmed(ctx, txID, s.now())
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, domain.ErrTransactionNotPending
	}

	return tx, nil
}

// Resend regenerates the code and expiry, but only once the prior code has
// expired. While the code is still valid the request is rejected.
func (s *OtpService) Resend(ctx context.Context, userID uint, txID string) (*OtpIssueResult, error) {
	tx, err := s.txRepo.GetByID(ctx, txID)
	if err != nil {
		return nil, err
	}
	if tx.UserID != userID {
		return nil, domain.ErrTransactionNotFound
	}

	if tx.Status != models.TxPending {
		return nil, domain.ErrTransactionNotPending
	}
	if !tx.OtpExpired(s.now()) {
		return nil, domain.ErrOtpStillValid
	}

	if err := s.checkRate(ctx, "otp_resend", userID); err != nil {
		return nil, err
	}

	code, err := generateOtpCode(OtpLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate OTP: %w", err)
	}

	expireAt := s.now().Add(s.validity)
	if err := s.txRepo.UpdateOtp(ctx, txID, code, expireAt); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.dispatchCode(user.Email, code, tx)

	return &OtpIssueResult{
		TransactionID: txID,
		MaskedEmail:   mask.Email(user.Email),
		ExpireAt:      expireAt,
	}, nil
}

// Cancel abandons a pending transaction before confirmation. No balance
// effect; the row is marked EXPIRED.
func (s *OtpService) Cancel(ctx context.Context, userID uint, txID string) error {
	tx, err := s.txRepo.GetByID(ctx, txID)
	if err != nil {
		return err
	}
	if tx.UserID != userID {
		return domain.ErrTransactionNotFound
	}
	if tx.Status != models.TxPending {
		return domain.ErrTransactionNotPending
	}
	return s.txRepo.MarkExpired(ctx, txID)
}

// checkRate applies the per-user issuance limit. Limiter errors fail open.
func (s *OtpService) checkRate(ctx context.Context, scope string, userID uint) error {
	if s.limiter == nil {
		return nil
	}
	allowed, err := s.limiter.Allow(ctx, scope, fmt.Sprintf("%d", userID), s.initiatePerHour, time.Hour)
	if err != nil {
		log.Printf("⚠️ OTP rate limiter error (scope %s): %v", scope, err)
		return nil
	}
	if !allowed {
		return domain.ErrOtpRateLimited
	}
	return nil
}

// dispatchCode sends the code to the out-of-band channel without blocking
// the request path. Delivery failure is logged; the code remains valid and
// the user can request a resend once it expires.
func (s *OtpService) dispatchCode(email, code string, tx *models.PendingTransaction) {
	if s.sender == nil {
		log.Printf("⚠️ OTP mail sender not configured, code for transaction %s not delivered", tx.ID)
		return
	}

	subject := "Your NexBank confirmation code"
	body := fmt.Sprintf(
		"<p>Your one-time code is <b>%s</b>.</p>"+
			"<p>It confirms a %s of %d (transaction %s) and expires in %d seconds.</p>"+
			"<p>If you did not request this, contact support immediately.</p>",
		code, tx.Kind, tx.Amount, tx.ID, int(s.validity.Seconds()),
	)

	go func() {
		if err := s.sender.Send(email, subject, body); err != nil {
			log.Printf("❌ Failed to deliver OTP for transaction %s: %v", tx.ID, err)
		}
	}()
}

// generateOtpCode generates a cryptographically secure numeric code
func generateOtpCode(length int) (string, error) {
	code := ""
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		code += fmt.Sprintf("%d", n.Int64())
	}
	return code, nil
}
