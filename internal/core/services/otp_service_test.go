package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"nexbank/internal/adapters/persistence/models"
	"nexbank/internal/core/domain"
)

func issueOtp(t *testing.T, env *testEnv, userID uint) *models.PendingTransaction {
	t.Helper()

	result, err := env.otp.Initiate(context.Background(), InitiateInput{
		UserID:        userID,
		Kind:          models.TxCashWithdraw,
		Amount:        100_000,
		SourceAccount: "1000000001",
	})
	if err != nil {
		t.Fatalf("failed to issue OTP: %v", err)
	}

	tx := env.store.tx(result.TransactionID)
	if tx == nil {
		t.Fatalf("pending transaction %s not stored", result.TransactionID)
	}
	return tx
}

func TestOtpInitiateNeverRevealsCode(t *testing.T) {
	env := newTestEnv()
	user := env.seedCustomer("somchai@example.com")

	result, err := env.otp.Initiate(context.Background(), InitiateInput{
		UserID:        user.ID,
		Kind:          models.TxCashWithdraw,
		Amount:        100_000,
		SourceAccount: "1000000001",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tx := env.store.tx(result.TransactionID)
	if len(tx.OtpCode) != OtpLength {
		t.Fatalf("expected a %d-digit code, got %q", OtpLength, tx.OtpCode)
	}
	for _, c := range tx.OtpCode {
		if c < '0' || c > '9' {
			t.Fatalf("expected numeric code, got %q", tx.OtpCode)
		}
	}
	if result.MaskedEmail == user.Email {
		t.Fatalf("expected masked email, got the raw address %q", result.MaskedEmail)
	}
	if tx.Status != models.TxPending {
		t.Fatalf("expected status PENDING, got %s", tx.Status)
	}
}

func TestOtpConfirm(t *testing.T) {
	env := newTestEnv()
	user := env.seedCustomer("somchai@example.com")
	tx := issueOtp(t, env, user.ID)

	confirmed, err := env.otp.Confirm(context.Background(), user.ID, tx.ID, tx.OtpCode)
	if err != nil {
		t.Fatalf("expected confirm to succeed, got %v", err)
	}
	if confirmed.ID != tx.ID {
		t.Fatalf("expected transaction %s, got %s", tx.ID, confirmed.ID)
	}

	stored := env.store.tx(tx.ID)
	if stored.Status != models.TxConfirmed {
		t.Fatalf("expected status CONFIRMED, got %s", stored.Status)
	}
	if stored.ConfirmedAt == nil {
		t.Fatalf("expected confirmed_at to be set")
	}
}

func TestOtpConfirmMismatch(t *testing.T) {
	env := newTestEnv()
	user := env.seedCustomer("somchai@example.com")
	tx := issueOtp(t, env, user.ID)

	wrong := "000000"
	if wrong == tx.OtpCode {
		wrong = "000001"
	}

	if _, err := env.otp.Confirm(context.Background(), user.ID, tx.ID, wrong); !errors.Is(err, domain.ErrOtpMismatch) {
		t.Fatalf("expected ErrOtpMismatch, got %v", err)
	}

	// The transaction stays PENDING; the right code still confirms it.
	if _, err := env.otp.Confirm(context.Background(), user.ID, tx.ID, tx.OtpCode); err != nil {
		t.Fatalf("expected correct code to still confirm, got %v", err)
	}
}

func TestOtpConfirmExpiredLeavesPending(t *testing.T) {
	env := newTestEnv()
	user := env.seedCustomer("somchai@example.com")
	tx := issueOtp(t, env, user.ID)

	// Move the clock past the validity window.
	env.otp.now = func() time.Time { return time.Now().Add(181 * time.Second) }

	if _, err := env.otp.Confirm(context.Background(), user.ID, tx.ID, tx.OtpCode); !errors.Is(err, domain.ErrOtpExpired) {
		t.Fatalf("expected ErrOtpExpired, got %v", err)
	}

	// Lazy expiry: the row is not transitioned, a resend can revive it.
	if got := env.store.tx(tx.ID).Status; got != models.TxPending {
		t.Fatalf("expected status PENDING after expired confirm, got %s", got)
	}
}

func TestOtpConfirmIsSingleUse(t *testing.T) {
	env := newTestEnv()
	user := env.seedCustomer("somchai@example.com")
	tx := issueOtp(t, env, user.ID)

	if _, err := env.otp.Confirm(context.Background(), user.ID, tx.ID, tx.OtpCode); err != nil {
		t.Fatalf("first confirm failed: %v", err)
	}
	if _, err := env.otp.Confirm(context.Background(), user.ID, tx.ID, tx.OtpCode); !errors.Is(err, domain.ErrTransactionNotPending) {
		t.Fatalf("expected ErrTransactionNotPending on replay, got %v", err)
	}
}

func TestOtpConfirmHidesForeignTransactions(t *testing.T) {
	env := newTestEnv()
	owner := env.seedCustomer("owner@example.com")
	intruder := env.seedCustomer("intruder@example.com")
	tx := issueOtp(t, env, owner.ID)

	if _, err := env.otp.Confirm(context.Background(), intruder.ID, tx.ID, tx.OtpCode); !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound for foreign transaction, got %v", err)
	}
}

func TestOtpResendOnlyAfterExpiry(t *testing.T) {
	env := newTestEnv()
	user := env.seedCustomer("somchai@example.com")
	tx := issueOtp(t, env, user.ID)

	// Still valid: resend refused.
	if _, err := env.otp.Resend(context.Background(), user.ID, tx.ID); !errors.Is(err, domain.ErrOtpStillValid) {
		t.Fatalf("expected ErrOtpStillValid, got %v", err)
	}

	// Expired: resend issues a fresh code and expiry.
	env.otp.now = func() time.Time { return time.Now().Add(181 * time.Second) }
	result, err := env.otp.Resend(context.Background(), user.ID, tx.ID)
	if err != nil {
		t.Fatalf("expected resend to succeed after expiry, got %v", err)
	}
	if result.TransactionID != tx.ID {
		t.Fatalf("expected same transaction id %s, got %s", tx.ID, result.TransactionID)
	}

	renewed := env.store.tx(tx.ID)
	if renewed.OtpCode == tx.OtpCode {
		t.Fatalf("expected a fresh code on resend")
	}
	if !renewed.OtpExpiresAt.After(tx.OtpExpiresAt) {
		t.Fatalf("expected a later expiry on resend")
	}
	if renewed.Status != models.TxPending {
		t.Fatalf("expected status PENDING, got %s", renewed.Status)
	}
}

func TestOtpResendRejectedWhenNotPending(t *testing.T) {
	env := newTestEnv()
	user := env.seedCustomer("somchai@example.com")
	tx := issueOtp(t, env, user.ID)

	if _, err := env.otp.Confirm(context.Background(), user.ID, tx.ID, tx.OtpCode); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if _, err := env.otp.Resend(context.Background(), user.ID, tx.ID); !errors.Is(err, domain.ErrTransactionNotPending) {
		t.Fatalf("expected ErrTransactionNotPending, got %v", err)
	}
}

func TestOtpCancel(t *testing.T) {
	env := newTestEnv()
	user := env.seedCustomer("somchai@example.com")
	tx := issueOtp(t, env, user.ID)

	if err := env.otp.Cancel(context.Background(), user.ID, tx.ID); err != nil {
		t.Fatalf("expected cancel to succeed, got %v", err)
	}
	if got := env.store.tx(tx.ID).Status; got != models.TxExpired {
		t.Fatalf("expected status EXPIRED, got %s", got)
	}

	// Cancelled transactions cannot be confirmed or cancelled again.
	if _, err := env.otp.Confirm(context.Background(), user.ID, tx.ID, tx.OtpCode); !errors.Is(err, domain.ErrTransactionNotPending) {
		t.Fatalf("expected ErrTransactionNotPending after cancel, got %v", err)
	}
	if err := env.otp.Cancel(context.Background(), user.ID, tx.ID); !errors.Is(err, domain.ErrTransactionNotPending) {
		t.Fatalf("expected ErrTransactionNotPending on repeat cancel, got %v", err)
	}
}

func TestOtpInitiateRateLimited(t *testing.T) {
	env := newTestEnv()
	user := env.seedCustomer("somchai@example.com")
	env.otp.limiter = &fakeLimiter{}
	env.otp.initiatePerHour = 2

	input := InitiateInput{
		UserID:        user.ID,
		Kind:          models.TxCashWithdraw,
		Amount:        100_000,
		SourceAccount: "1000000001",
	}

	for i := 0; i < 2; i++ {
		if _, err := env.otp.Initiate(context.Background(), input); err != nil {
			t.Fatalf("issue %d: unexpected error: %v", i+1, err)
		}
	}
	if _, err := env.otp.Initiate(context.Background(), input); !errors.Is(err, domain.ErrOtpRateLimited) {
		t.Fatalf("expected ErrOtpRateLimited, got %v", err)
	}
}
