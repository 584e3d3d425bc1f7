package services

import (
	"context"
	"testing"
)

func TestLedgerHistoryIsNewestFirst(t *testing.T) {
	env := newTestEnv()

	env.ledger.RecordTransaction(context.Background(), "1000000001", "CASH_DEPOSIT", "IN", 100, "first")
	env.ledger.RecordTransaction(context.Background(), "1000000001", "CASH_WITHDRAW", "OUT", 50, "second")
	env.ledger.RecordTransaction(context.Background(), "2000000001", "CASH_DEPOSIT", "IN", 999, "other account")

	entries, total, err := env.ledger.History(context.Background(), "1000000001", 0, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected total 2, got %d", total)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Description != "second" || entries[1].Description != "first" {
		t.Fatalf("expected newest first, got %q then %q", entries[0].Description, entries[1].Description)
	}
}

func TestNotificationsScopedPerUser(t *testing.T) {
	env := newTestEnv()
	alice := env.seedCustomer("alice@example.com")
	bob := env.seedCustomer("bob@example.com")

	env.ledger.NotifyUser(context.Background(), alice.ID, "Deposit completed", "...")
	env.ledger.NotifyUser(context.Background(), bob.ID, "Transfer received", "...")

	notifications, total, err := env.ledger.Notifications(context.Background(), alice.ID, 0, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(notifications) != 1 {
		t.Fatalf("expected exactly 1 notification, got %d", len(notifications))
	}
	if notifications[0].Title != "Deposit completed" {
		t.Fatalf("expected alice's own notification, got %q", notifications[0].Title)
	}
	if notifications[0].IsRead {
		t.Fatalf("expected notification unread on arrival")
	}

	// Bob cannot flag Alice's notification.
	if err := env.ledger.MarkRead(context.Background(), bob.ID, notifications[0].ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	refetched, _, _ := env.ledger.Notifications(context.Background(), alice.ID, 0, 10)
	if refetched[0].IsRead {
		t.Fatalf("expected cross-user mark-read to be a no-op")
	}

	// Alice can.
	if err := env.ledger.MarkRead(context.Background(), alice.ID, notifications[0].ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	refetched, _, _ = env.ledger.Notifications(context.Background(), alice.ID, 0, 10)
	if !refetched[0].IsRead {
		t.Fatalf("expected notification marked read")
	}
}
