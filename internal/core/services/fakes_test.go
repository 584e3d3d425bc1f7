package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"nexbank/internal/adapters/persistence/models"
	"nexbank/internal/core/domain"
	"nexbank/internal/pkg/password"

	"gorm.io/gorm"
)

// memStore is a single in-memory backing store shared by the fake
// repositories so the transfer legs see the same pending transaction rows
// the account repository flags.
type memStore struct {
	mu sync.Mutex

	users         map[uint]*models.User
	accounts      map[string]*models.Account
	txs           map[string]*models.PendingTransaction
	entries       []*models.AccountTransaction
	notifications []*models.Notification

	nextUserID  uint
	nextEntryID uint
	nextNotifID uint
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[uint]*models.User),
		accounts: make(map[string]*models.Account),
		txs:      make(map[string]*models.PendingTransaction),
	}
}

func (s *memStore) putUser(u *models.User) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		s.nextUserID++
		u.ID = s.nextUserID
	}
	cp := *u
	s.users[u.ID] = &cp
	return u
}

func (s *memStore) putAccount(a *models.Account) *models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.accounts[a.AccountNo] = &cp
	return a
}

func (s *memStore) user(id uint) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		cp := *u
		return &cp
	}
	return nil
}

func (s *memStore) account(no string) *models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.accounts[no]; ok {
		cp := *a
		return &cp
	}
	return nil
}

func (s *memStore) tx(id string) *models.PendingTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.txs[id]; ok {
		cp := *t
		return &cp
	}
	return nil
}

// ------------------------------------------------------------
// UserRepository
// ------------------------------------------------------------

type fakeUserRepo struct {
	store *memStore
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	r.store.putUser(user)
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	if u := r.store.user(id); u != nil {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *user
	r.store.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) List(ctx context.Context, offset, limit int) ([]*models.User, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	ids := make([]uint, 0, len(r.store.users))
	for id := range r.store.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	total := int64(len(ids))
	var out []*models.User
	for i, id := range ids {
		if i < offset {
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		cp := *r.store.users[id]
		out = append(out, &cp)
	}
	return out, total, nil
}

func (r *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (r *fakeUserRepo) SetPin(ctx context.Context, userID uint, pinHash string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.PinHash = pinHash
	return nil
}

func (r *fakeUserRepo) SetKycStatus(ctx context.Context, userID uint, status string, canTransact bool) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.KycStatus = status
	u.CanTransact = canTransact
	return nil
}

func (r *fakeUserRepo) IncrementPinFailures(ctx context.Context, userID uint) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[userID]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	u.PinFailCount++
	return u.PinFailCount, nil
}

func (r *fakeUserRepo) ResetPinFailures(ctx context.Context, userID uint) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.PinFailCount = 0
	return nil
}

func (r *fakeUserRepo) IncrementBioFailures(ctx context.Context, userID uint) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[userID]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	u.BioFailCount++
	return u.BioFailCount, nil
}

func (r *fakeUserRepo) ResetBioFailures(ctx context.Context, userID uint) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.BioFailCount = 0
	return nil
}

func (r *fakeUserRepo) Lock(ctx context.Context, userID uint, reason string, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if u.Status != models.StatusActive {
		return nil
	}
	u.Status = models.StatusLocked
	u.LockReason = reason
	u.LockedAt = &at
	return nil
}

func (r *fakeUserRepo) Unlock(ctx context.Context, userID uint) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Status = models.StatusActive
	u.LockReason = ""
	u.LockedAt = nil
	u.PinFailCount = 0
	u.BioFailCount = 0
	return nil
}

// ------------------------------------------------------------
// AccountRepository
// ------------------------------------------------------------

type fakeAccountRepo struct {
	store *memStore
}

func (r *fakeAccountRepo) Create(ctx context.Context, account *models.Account) error {
	r.store.putAccount(account)
	return nil
}

func (r *fakeAccountRepo) GetByAccountNo(ctx context.Context, accountNo string) (*models.Account, error) {
	if a := r.store.account(accountNo); a != nil {
		return a, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (r *fakeAccountRepo) GetByUserID(ctx context.Context, userID uint) ([]*models.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*models.Account
	for _, a := range r.store.accounts {
		if a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountNo < out[j].AccountNo })
	return out, nil
}

func (r *fakeAccountRepo) List(ctx context.Context, offset, limit int) ([]*models.Account, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	nos := make([]string, 0, len(r.store.accounts))
	for no := range r.store.accounts {
		nos = append(nos, no)
	}
	sort.Strings(nos)

	total := int64(len(nos))
	var out []*models.Account
	for i, no := range nos {
		if i < offset {
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		cp := *r.store.accounts[no]
		out = append(out, &cp)
	}
	return out, total, nil
}

func (r *fakeAccountRepo) AddBalance(ctx context.Context, accountNo string, amount int64) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	a, ok := r.store.accounts[accountNo]
	if !ok {
		return 0, domain.ErrAccountNotFound
	}
	if a.Status != models.StatusActive {
		return 0, domain.ErrAccountLocked
	}
	a.Balance += amount
	return a.Balance, nil
}

func (r *fakeAccountRepo) SubtractBalance(ctx context.Context, accountNo string, amount int64) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.debitLocked(accountNo, amount)
}

// debitLocked assumes the store mutex is held.
func (r *fakeAccountRepo) debitLocked(accountNo string, amount int64) (int64, error) {
	a, ok := r.store.accounts[accountNo]
	if !ok {
		return 0, domain.ErrAccountNotFound
	}
	if a.Status != models.StatusActive {
		return 0, domain.ErrAccountLocked
	}
	if a.Balance < amount {
		return 0, domain.ErrInsufficientFunds
	}
	a.Balance -= amount
	return a.Balance, nil
}

func (r *fakeAccountRepo) DebitForTransaction(ctx context.Context, txID, accountNo string, amount int64) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	tx, ok := r.store.txs[txID]
	if !ok {
		return 0, domain.ErrTransactionNotFound
	}
	if tx.DebitApplied {
		return tx.NewBalance, nil
	}

	newBalance, err := r.debitLocked(accountNo, amount)
	if err != nil {
		return 0, err
	}
	tx.DebitApplied = true
	tx.NewBalance = newBalance
	return newBalance, nil
}

func (r *fakeAccountRepo) CreditForTransaction(ctx context.Context, txID, accountNo string, amount int64) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	tx, ok := r.store.txs[txID]
	if !ok {
		return false, domain.ErrTransactionNotFound
	}
	if tx.CreditApplied {
		return false, nil
	}

	a, ok := r.store.accounts[accountNo]
	if !ok {
		return false, domain.ErrAccountNotFound
	}
	if a.Status != models.StatusActive {
		return false, domain.ErrAccountLocked
	}
	a.Balance += amount
	tx.CreditApplied = true
	return true, nil
}

func (r *fakeAccountRepo) Lock(ctx context.Context, accountNo string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	a, ok := r.store.accounts[accountNo]
	if !ok {
		return domain.ErrAccountNotFound
	}
	if a.Status == models.StatusActive {
		a.Status = models.StatusLocked
	}
	return nil
}

func (r *fakeAccountRepo) Unlock(ctx context.Context, accountNo string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	a, ok := r.store.accounts[accountNo]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.Status = models.StatusActive
	return nil
}

// ------------------------------------------------------------
// PendingTransactionRepository
// ------------------------------------------------------------

type fakeTxRepo struct {
	store *memStore
}

func (r *fakeTxRepo) Create(ctx context.Context, tx *models.PendingTransaction) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *tx
	r.store.txs[tx.ID] = &cp
	return nil
}

func (r *fakeTxRepo) GetByID(ctx context.Context, id string) (*models.PendingTransaction, error) {
	if t := r.store.tx(id); t != nil {
		return t, nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (r *fakeTxRepo) UpdateOtp(ctx context.Context, id, code string, expiresAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	t, ok := r.store.txs[id]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	if t.Status != models.TxPending {
		return domain.ErrTransactionNotPending
	}
	t.OtpCode = code
	t.OtpExpiresAt = expiresAt
	return nil
}

func (r *fakeTxRepo) MarkConfirmed(ctx context.Context, id string, at time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	t, ok := r.store.txs[id]
	if !ok {
		return false, domain.ErrTransactionNotFound
	}
	if t.Status != models.TxPending {
		return false, nil
	}
	t.Status = models.TxConfirmed
	t.ConfirmedAt = &at
	return true, nil
}

func (r *fakeTxRepo) MarkFailed(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	t, ok := r.store.txs[id]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	t.Status = models.TxFailed
	return nil
}

func (r *fakeTxRepo) MarkExpired(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	t, ok := r.store.txs[id]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	if t.Status == models.TxPending {
		t.Status = models.TxExpired
	}
	return nil
}

func (r *fakeTxRepo) ListUnappliedCredits(ctx context.Context, limit int) ([]*models.PendingTransaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*models.PendingTransaction
	for _, t := range r.store.txs {
		if t.Kind == models.TxTransfer && t.Status == models.TxConfirmed &&
			t.DebitApplied && !t.CreditApplied && t.DestAccount != "" {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ConfirmedAt.Before(*out[j].ConfirmedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeTxRepo) ExpireStale(ctx context.Context, cutoff time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var n int64
	for _, t := range r.store.txs {
		if t.Status == models.TxPending && t.OtpExpiresAt.Before(cutoff) {
			t.Status = models.TxExpired
			n++
		}
	}
	return n, nil
}

// ------------------------------------------------------------
// LedgerRepository
// ------------------------------------------------------------

type fakeLedgerRepo struct {
	store *memStore
}

func (r *fakeLedgerRepo) AppendTransaction(ctx context.Context, entry *models.AccountTransaction) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.nextEntryID++
	cp := *entry
	cp.ID = r.store.nextEntryID
	r.store.entries = append(r.store.entries, &cp)
	return nil
}

func (r *fakeLedgerRepo) ListByAccount(ctx context.Context, accountNo string, offset, limit int) ([]*models.AccountTransaction, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var all []*models.AccountTransaction
	for i := len(r.store.entries) - 1; i >= 0; i-- {
		if r.store.entries[i].AccountNo == accountNo {
			cp := *r.store.entries[i]
			all = append(all, &cp)
		}
	}
	total := int64(len(all))
	if offset > len(all) {
		offset = len(all)
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}

func (r *fakeLedgerRepo) AppendNotification(ctx context.Context, n *models.Notification) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.nextNotifID++
	cp := *n
	cp.ID = r.store.nextNotifID
	r.store.notifications = append(r.store.notifications, &cp)
	return nil
}

func (r *fakeLedgerRepo) ListNotifications(ctx context.Context, userID uint, offset, limit int) ([]*models.Notification, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var all []*models.Notification
	for i := len(r.store.notifications) - 1; i >= 0; i-- {
		if r.store.notifications[i].UserID == userID {
			cp := *r.store.notifications[i]
			all = append(all, &cp)
		}
	}
	total := int64(len(all))
	if offset > len(all) {
		offset = len(all)
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}

func (r *fakeLedgerRepo) MarkNotificationRead(ctx context.Context, userID, id uint) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, n := range r.store.notifications {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return nil
}

// ------------------------------------------------------------
// Misc fakes and helpers
// ------------------------------------------------------------

// fakeLimiter counts calls per scope and allows until the configured limit
// is spent. A nil map means everything is allowed.
type fakeLimiter struct {
	mu    sync.Mutex
	calls map[string]int
}

func (l *fakeLimiter) Allow(ctx context.Context, scope, subject string, limit int, window time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.calls == nil {
		l.calls = make(map[string]int)
	}
	l.calls[scope]++
	return l.calls[scope] <= limit, nil
}

// fakeSender records dispatched mail instead of talking SMTP
type fakeSender struct {
	mu   sync.Mutex
	sent []string
}

func (s *fakeSender) Send(to, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, to)
	return nil
}

// testEnv wires every service against the shared in-memory store
type testEnv struct {
	store       *memStore
	userRepo    *fakeUserRepo
	accountRepo *fakeAccountRepo
	txRepo      *fakeTxRepo
	ledgerRepo  *fakeLedgerRepo
	sender      *fakeSender

	profile     *ProfileService
	pin         *PinService
	biometric   *BiometricService
	otp         *OtpService
	ledger      *LedgerService
	balance     *BalanceService
	transaction *TransactionService
}

func newTestEnv() *testEnv {
	store := newMemStore()
	env := &testEnv{
		store:       store,
		userRepo:    &fakeUserRepo{store: store},
		accountRepo: &fakeAccountRepo{store: store},
		txRepo:      &fakeTxRepo{store: store},
		ledgerRepo:  &fakeLedgerRepo{store: store},
		sender:      &fakeSender{},
	}

	env.profile = NewProfileService(env.userRepo, env.accountRepo)
	env.pin = NewPinService(env.userRepo, env.accountRepo)
	env.biometric = NewBiometricService(env.userRepo, env.accountRepo)
	env.otp = NewOtpService(env.txRepo, env.userRepo, env.sender, nil, 180, 0)
	env.ledger = NewLedgerService(env.ledgerRepo)
	env.balance = NewBalanceService(env.accountRepo, env.ledger)
	env.transaction = NewTransactionService(
		env.profile, env.pin, env.biometric, env.otp, env.balance,
		env.accountRepo, env.txRepo,
	)
	return env
}

// bcrypt at full cost dominates test time, so the shared PIN hash is
// computed once per run.
var (
	testPinOnce sync.Once
	testPinHash string
)

const testPin = "123456"

func pinHash() string {
	testPinOnce.Do(func() {
		hash, err := password.Hash(testPin)
		if err != nil {
			panic(err)
		}
		testPinHash = hash
	})
	return testPinHash
}

// seedCustomer inserts a verified, transact-enabled customer with a PIN set
func (e *testEnv) seedCustomer(email string) *models.User {
	return e.store.putUser(&models.User{
		Email:       email,
		FullName:    "Test Customer",
		Role:        models.RoleCustomer,
		Status:      models.StatusActive,
		KycStatus:   models.KycVerified,
		CanTransact: true,
		PinHash:     pinHash(),
	})
}

// seedAccount inserts an ACTIVE payment account for the user
func (e *testEnv) seedAccount(userID uint, accountNo string, balance int64) *models.Account {
	return e.store.putAccount(&models.Account{
		AccountNo: accountNo,
		UserID:    userID,
		Kind:      models.AccountPayment,
		Balance:   balance,
		Currency:  "VND",
		Status:    models.StatusActive,
	})
}
