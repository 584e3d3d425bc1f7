package services

import (
	"context"
	"errors"
	"testing"

	"nexbank/internal/adapters/persistence/models"
	"nexbank/internal/core/domain"
)

func TestEnsureCanTransact(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(u *models.User)
		wantErr error
	}{
		{
			name:    "verified and enabled customer passes",
			mutate:  func(u *models.User) {},
			wantErr: nil,
		},
		{
			name:    "locked profile is rejected",
			mutate:  func(u *models.User) { u.Status = models.StatusLocked },
			wantErr: domain.ErrAccountLocked,
		},
		{
			name:    "pending kyc is rejected",
			mutate:  func(u *models.User) { u.KycStatus = models.KycPending },
			wantErr: domain.ErrNotEligible,
		},
		{
			name:    "rejected kyc is rejected",
			mutate:  func(u *models.User) { u.KycStatus = models.KycRejected },
			wantErr: domain.ErrNotEligible,
		},
		{
			name:    "kyc status match is case-sensitive",
			mutate:  func(u *models.User) { u.KycStatus = "Verified" },
			wantErr: domain.ErrNotEligible,
		},
		{
			name:    "transact permission withheld",
			mutate:  func(u *models.User) { u.CanTransact = false },
			wantErr: domain.ErrNotEligible,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			user := env.seedCustomer("somchai@example.com")
			tt.mutate(user)
			env.store.putUser(user)

			err := env.profile.EnsureCanTransact(context.Background(), user.ID)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestEnsureCanTransactUnknownUser(t *testing.T) {
	env := newTestEnv()

	err := env.profile.EnsureCanTransact(context.Background(), 999)
	if !errors.Is(err, domain.ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible, got %v", err)
	}
}

func TestProfileAccountOwnership(t *testing.T) {
	env := newTestEnv()
	owner := env.seedCustomer("owner@example.com")
	other := env.seedCustomer("other@example.com")
	env.seedAccount(owner.ID, "1000000001", 5_000)

	account, err := env.profile.Account(context.Background(), owner.ID, "1000000001")
	if err != nil {
		t.Fatalf("expected owner to read own account, got %v", err)
	}
	if account.Balance != 5_000 {
		t.Fatalf("expected balance 5000, got %d", account.Balance)
	}

	if _, err := env.profile.Account(context.Background(), other.ID, "1000000001"); !errors.Is(err, domain.ErrNotAccountOwner) {
		t.Fatalf("expected ErrNotAccountOwner, got %v", err)
	}

	if _, err := env.profile.Account(context.Background(), owner.ID, "no-such"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestProfileAccountsListsOnlyOwn(t *testing.T) {
	env := newTestEnv()
	owner := env.seedCustomer("owner@example.com")
	other := env.seedCustomer("other@example.com")
	env.seedAccount(owner.ID, "1000000001", 0)
	env.seedAccount(owner.ID, "1000000002", 0)
	env.seedAccount(other.ID, "2000000001", 0)

	accounts, err := env.profile.Accounts(context.Background(), owner.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(accounts))
	}
	for _, a := range accounts {
		if a.UserID != owner.ID {
			t.Fatalf("expected only owner accounts, got account of user %d", a.UserID)
		}
	}
}
