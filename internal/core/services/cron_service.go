package services

import (
	"context"
	"log"
	"time"

	"nexbank/internal/adapters/persistence/repositories"

	"github.com/robfig/cron/v3"
)

// CronService runs the background reconciliation jobs: retrying unapplied
// credit legs, expiring stale pending transactions, and purging expired
// refresh tokens.
type CronService struct {
	cron             *cron.Cron
	balance          *BalanceService
	txRepo           repositories.PendingTransactionRepository
	refreshTokenRepo repositories.RefreshTokenRepository
}

// NewCronService creates a new cron service
func NewCronService(
	balance *BalanceService,
	txRepo repositories.PendingTransactionRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
) *CronService {
	return &CronService{
		cron:             cron.New(),
		balance:          balance,
		txRepo:           txRepo,
		refreshTokenRepo: refreshTokenRepo,
	}
}

// Start registers and launches all scheduled jobs
func (s *CronService) Start() {
	// Retry credit legs that a confirm left unapplied
	s.cron.AddFunc("@every 1m", s.retryUnappliedCredits)

	// Expire PENDING transactions whose OTP lapsed without a resend
	s.cron.AddFunc("@every 5m", s.expireStaleTransactions)

	// Purge expired refresh tokens nightly
	s.cron.AddFunc("0 3 * * *", s.purgeExpiredTokens)

	s.cron.Start()
	log.Println("🚀 CronService started")
}

// Stop gracefully stops the scheduler, waiting for running jobs
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("🛑 CronService stopped")
}

func (s *CronService) retryUnappliedCredits() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pending, err := s.txRepo.ListUnappliedCredits(ctx, 100)
	if err != nil {
		log.Printf("❌ Credit retry query error: %v", err)
		return
	}

	applied := 0
	for _, tx := range pending {
		if err := s.balance.ApplyCredit(ctx, tx); err != nil {
			log.Printf("❌ Credit retry for transaction %s error: %v", tx.ID, err)
			continue
		}
		applied++
	}

	if applied > 0 {
		log.Printf("✅ Re-applied %d pending credit legs", applied)
	}
}

func (s *CronService) expireStaleTransactions() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Keep a grace window so a confirm racing the sweep still sees PENDING
	cutoff := time.Now().Add(-10 * time.Minute)

	n, err := s.txRepo.ExpireStale(ctx, cutoff)
	if err != nil {
		log.Printf("❌ Stale transaction sweep error: %v", err)
		return
	}
	if n > 0 {
		log.Printf("🗑️ Expired %d stale pending transactions", n)
	}
}

func (s *CronService) purgeExpiredTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.refreshTokenRepo.DeleteExpired(ctx); err != nil {
		log.Printf("❌ Refresh token purge error: %v", err)
		return
	}
	log.Println("🗑️ Purged expired refresh tokens")
}
