package wallet

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps accounts in process memory. Each account has its
// own lock; the slot map lock is only held to find or insert a slot.
type MemoryRepository struct {
	mu    sync.Mutex
	slots map[string]*slot

	grant int64
	now   func() time.Time
}

type slot struct {
	mu      sync.RWMutex
	account *Account
	txs     []Transaction
	keys    map[string]struct{}
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository(signupGrant int64) *MemoryRepository {
	return &MemoryRepository{
		slots: make(map[string]*slot),
		grant: signupGrant,
		now:   time.Now,
	}
}

// SetClock overrides the time source.
func (m *MemoryRepository) SetClock(now func() time.Time) {
	m.now = now
}

func (m *MemoryRepository) slotFor(accountID string) *slot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.slots[accountID]
	if !ok {
		s = &slot{keys: make(map[string]struct{})}
		m.slots[accountID] = s
	}
	return s
}

func (m *MemoryRepository) lookup(accountID string) (*slot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.slots[accountID]
	return s, ok
}

func (m *MemoryRepository) fresh(accountID string) Account {
	now := m.now().UTC()
	return Account{
		AccountID:   accountID,
		Balance:     m.grant,
		TotalEarned: m.grant,
		SignupGrant: m.grant,
		CreatedAt:   now,
		LastUpdated: now,
	}
}

// current returns the account state, or a fresh one that is not yet stored.
// Caller holds s.mu.
func (m *MemoryRepository) current(s *slot, accountID string) Account {
	if s.account != nil {
		return *s.account
	}
	return m.fresh(accountID)
}

func (m *MemoryRepository) GetOrCreate(ctx context.Context, accountID string) (*Account, error) {
	if accountID == "" {
		return nil, ErrInvalidEntry
	}
	s := m.slotFor(accountID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.account == nil {
		acc := m.fresh(accountID)
		s.account = &acc
	}
	acc := *s.account
	return &acc, nil
}

func (m *MemoryRepository) GetAccount(ctx context.Context, accountID string) (*Account, error) {
	s, ok := m.lookup(accountID)
	if !ok {
		return nil, ErrAccountNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.account == nil {
		return nil, ErrAccountNotFound
	}
	acc := *s.account
	return &acc, nil
}

func (m *MemoryRepository) Apply(ctx context.Context, e Entry) (*Account, *Transaction, error) {
	if err := e.validate(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	s := m.slotFor(e.AccountID)
	s.mu.Lock()
	defer s.mu.Unlock()

	// A failed entry must not leave a newly created account behind.
	base := m.current(s, e.AccountID)

	if e.IdempotencyKey != "" {
		if _, seen := s.keys[e.IdempotencyKey]; seen {
			return nil, nil, ErrDuplicateEntry
		}
	}

	now := m.now().UTC()
	amount := e.Amount
	if e.Kind == KindEarn && e.DailyCap > 0 {
		var err error
		amount, err = clampToAllowance(amount, e.DailyCap, s.earnedSince(e.Source, startOfDay(now)))
		if err != nil {
			return nil, nil, err
		}
	}

	next, err := settle(base, e.Kind, amount)
	if err != nil {
		return nil, nil, err
	}
	next.LastUpdated = now

	tx := Transaction{
		ID:             uuid.NewString(),
		AccountID:      e.AccountID,
		Seq:            next.TxCount,
		Kind:           e.Kind,
		Amount:         amount,
		Source:         e.Source,
		Description:    e.Description,
		Metadata:       e.Metadata.clone(),
		IdempotencyKey: e.IdempotencyKey,
		BalanceAfter:   next.Balance,
		Status:         StatusCompleted,
		CreatedAt:      now,
	}

	s.txs = append(s.txs, tx)
	s.account = &next
	if e.IdempotencyKey != "" {
		s.keys[e.IdempotencyKey] = struct{}{}
	}

	acc := next
	out := tx
	out.Metadata = tx.Metadata.clone()
	return &acc, &out, nil
}

// earnedSince sums earn amounts for source at or after since. Caller holds s.mu.
func (s *slot) earnedSince(source string, since time.Time) int64 {
	var total int64
	for i := len(s.txs) - 1; i >= 0; i-- {
		tx := s.txs[i]
		if tx.CreatedAt.Before(since) {
			break
		}
		if tx.Kind == KindEarn && tx.Source == source {
			total += tx.Amount
		}
	}
	return total
}

func (m *MemoryRepository) ListTransactions(ctx context.Context, accountID string, limit, offset int) (*Page, error) {
	limit, offset = normalizePage(limit, offset)

	s, ok := m.lookup(accountID)
	if !ok {
		return &Page{Transactions: []Transaction{}}, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	page := &Page{Transactions: []Transaction{}}
	if s.account == nil {
		return page, nil
	}
	acc := *s.account
	page.Account = &acc
	page.Total = int64(len(s.txs))

	for i := len(s.txs) - 1 - offset; i >= 0 && len(page.Transactions) < limit; i-- {
		tx := s.txs[i]
		tx.Metadata = tx.Metadata.clone()
		page.Transactions = append(page.Transactions, tx)
	}
	page.HasMore = int64(offset+limit) < page.Total
	return page, nil
}

func (m *MemoryRepository) Reconcile(ctx context.Context) ([]Mismatch, error) {
	m.mu.Lock()
	ids := make([]string, 0, len(m.slots))
	slots := make([]*slot, 0, len(m.slots))
	for id, s := range m.slots {
		ids = append(ids, id)
		slots = append(slots, s)
	}
	m.mu.Unlock()

	var out []Mismatch
	for i, s := range slots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.mu.RLock()
		if s.account != nil {
			ledger := s.account.SignupGrant
			for _, tx := range s.txs {
				if tx.Kind == KindEarn {
					ledger += tx.Amount
				} else {
					ledger -= tx.Amount
				}
			}
			if ledger != s.account.Balance {
				out = append(out, Mismatch{AccountID: ids[i], CachedBalance: s.account.Balance, LedgerBalance: ledger})
			}
		}
		s.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out, nil
}
