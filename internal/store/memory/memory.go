// Package memory is an in-process store.Store.
//
// Units of work are fully serialized by one mutex and run against a copy of the state
// that replaces the live state only on success, which gives all-or-nothing commits and
// makes every Lock* call trivially exclusive.
package memory

import (
	"bytes"
	"context"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oatsaysai/partner-ledger/internal/models"
	"github.com/oatsaysai/partner-ledger/internal/store"
	"github.com/shopspring/decimal"
)

type state struct {
	users         map[uuid.UUID]models.User
	wallets       map[uuid.UUID]models.Wallet
	transactions  map[uuid.UUID]models.Transaction
	txOrder       []uuid.UUID
	debts         map[uuid.UUID]models.Debt
	payments      []models.DebtPayment
	goals         map[uuid.UUID]models.Goal
	contributions []models.GoalContribution
	requests      map[uuid.UUID]models.PartnerRequest
}

func newState() *state {
	return &state{
		users:        make(map[uuid.UUID]models.User),
		wallets:      make(map[uuid.UUID]models.Wallet),
		transactions: make(map[uuid.UUID]models.Transaction),
		debts:        make(map[uuid.UUID]models.Debt),
		goals:        make(map[uuid.UUID]models.Goal),
		requests:     make(map[uuid.UUID]models.PartnerRequest),
	}
}

func (s *state) clone() *state {
	return &state{
		users:         maps.Clone(s.users),
		wallets:       maps.Clone(s.wallets),
		transactions:  maps.Clone(s.transactions),
		txOrder:       slices.Clone(s.txOrder),
		debts:         maps.Clone(s.debts),
		payments:      slices.Clone(s.payments),
		goals:         maps.Clone(s.goals),
		contributions: slices.Clone(s.contributions),
		requests:      maps.Clone(s.requests),
	}
}

// Store is a mutex-guarded in-memory store
type Store struct {
	mu    sync.Mutex
	state *state

	auditMu sync.Mutex
	audit   []models.AuditEntry
}

// New returns an empty store
func New() *Store {
	return &Store{state: newState()}
}

// WithTx implements store.Store
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.state.clone()
	if err := fn(&tx{st: work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

// AppendAudit implements store.Store
func (s *Store) AppendAudit(ctx context.Context, e models.AuditEntry) error {
	s.auditMu.Lock()
	defer s.auditMu.Unlock()
	s.audit = append(s.audit, e)
	return nil
}

// PruneAudit implements store.Store
func (s *Store) PruneAudit(ctx context.Context, before time.Time) (int64, error) {
	s.auditMu.Lock()
	defer s.auditMu.Unlock()
	kept := s.audit[:0]
	var n int64
	for _, e := range s.audit {
		if e.CreatedAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, e)
	}
	s.audit = kept
	return n, nil
}

// AuditEntries returns a copy of the audit log
func (s *Store) AuditEntries() []models.AuditEntry {
	s.auditMu.Lock()
	defer s.auditMu.Unlock()
	return slices.Clone(s.audit)
}

type tx struct {
	st *state
}

func sortIDs(ids []uuid.UUID) []uuid.UUID {
	ids = slices.Clone(ids)
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
	return slices.Compact(ids)
}

// users

func (t *tx) InsertUser(ctx context.Context, u models.User) error {
	for _, other := range t.st.users {
		if u.Email != "" && strings.EqualFold(other.Email, u.Email) {
			return store.ErrUniqueViolation
		}
		if u.DiscordID != "" && other.DiscordID == u.DiscordID {
			return store.ErrUniqueViolation
		}
	}
	t.st.users[u.ID] = u
	return nil
}

func (t *tx) User(ctx context.Context, id uuid.UUID) (models.User, error) {
	u, ok := t.st.users[id]
	if !ok {
		return models.User{}, store.ErrNotFound
	}
	return u, nil
}

func (t *tx) UserByEmail(ctx context.Context, email string) (models.User, error) {
	for _, u := range t.st.users {
		if u.Email != "" && strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return models.User{}, store.ErrNotFound
}

func (t *tx) UserByDiscordID(ctx context.Context, discordID string) (models.User, error) {
	for _, u := range t.st.users {
		if u.DiscordID != "" && u.DiscordID == discordID {
			return u, nil
		}
	}
	return models.User{}, store.ErrNotFound
}

func (t *tx) UpdateUserProfile(ctx context.Context, id uuid.UUID, email, displayName string) error {
	u, ok := t.st.users[id]
	if !ok {
		return store.ErrNotFound
	}
	for _, other := range t.st.users {
		if other.ID != id && email != "" && strings.EqualFold(other.Email, email) {
			return store.ErrUniqueViolation
		}
	}
	u.Email = email
	u.DisplayName = displayName
	t.st.users[id] = u
	return nil
}

func (t *tx) LockUsers(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]models.User, error) {
	out := make(map[uuid.UUID]models.User, len(ids))
	for _, id := range sortIDs(ids) {
		u, ok := t.st.users[id]
		if !ok {
			return nil, store.ErrNotFound
		}
		out[id] = u
	}
	return out, nil
}

func samePartner(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (t *tx) SetPartner(ctx context.Context, id uuid.UUID, expect, partnerID *uuid.UUID) (bool, error) {
	u, ok := t.st.users[id]
	if !ok {
		return false, store.ErrNotFound
	}
	if !samePartner(u.PartnerID, expect) {
		return false, nil
	}
	u.PartnerID = partnerID
	t.st.users[id] = u
	return true, nil
}

// wallets

func (t *tx) InsertWallet(ctx context.Context, w models.Wallet) error {
	t.st.wallets[w.ID] = w
	return nil
}

func (t *tx) Wallet(ctx context.Context, id uuid.UUID) (models.Wallet, error) {
	w, ok := t.st.wallets[id]
	if !ok || w.DeletedAt != nil {
		return models.Wallet{}, store.ErrNotFound
	}
	return w, nil
}

func (t *tx) LockWallets(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]models.Wallet, error) {
	out := make(map[uuid.UUID]models.Wallet, len(ids))
	for _, id := range sortIDs(ids) {
		w, err := t.Wallet(ctx, id)
		if err != nil {
			return nil, err
		}
		out[id] = w
	}
	return out, nil
}

func (t *tx) WalletsFor(ctx context.Context, owners ...uuid.UUID) ([]models.Wallet, error) {
	var out []models.Wallet
	for _, w := range t.st.wallets {
		if w.DeletedAt != nil {
			continue
		}
		if w.OwnerID != nil && slices.Contains(owners, *w.OwnerID) {
			out = append(out, w)
		}
	}
	sortWallets(out)
	return out, nil
}

func (t *tx) AllWallets(ctx context.Context) ([]models.Wallet, error) {
	out := slices.Collect(maps.Values(t.st.wallets))
	sortWallets(out)
	return out, nil
}

func sortWallets(ws []models.Wallet) {
	sort.SliceStable(ws, func(i, j int) bool {
		if !ws[i].CreatedAt.Equal(ws[j].CreatedAt) {
			return ws[i].CreatedAt.Before(ws[j].CreatedAt)
		}
		return ws[i].Name < ws[j].Name
	})
}

func (t *tx) UpdateWalletDetails(ctx context.Context, w models.Wallet) error {
	cur, err := t.Wallet(ctx, w.ID)
	if err != nil {
		return err
	}
	cur.Name, cur.Color, cur.Icon = w.Name, w.Color, w.Icon
	t.st.wallets[w.ID] = cur
	return nil
}

func (t *tx) SetWalletBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	w, ok := t.st.wallets[id]
	if !ok {
		return store.ErrNotFound
	}
	w.Balance = balance
	t.st.wallets[id] = w
	return nil
}

func (t *tx) SoftDeleteWallet(ctx context.Context, id uuid.UUID, at time.Time) error {
	w, err := t.Wallet(ctx, id)
	if err != nil {
		return err
	}
	w.DeletedAt = &at
	t.st.wallets[id] = w
	return nil
}

// transactions

func (t *tx) InsertTransaction(ctx context.Context, tr models.Transaction) error {
	if _, exists := t.st.transactions[tr.ID]; exists {
		return store.ErrUniqueViolation
	}
	t.st.transactions[tr.ID] = tr
	t.st.txOrder = append(t.st.txOrder, tr.ID)
	return nil
}

func (t *tx) LockTransaction(ctx context.Context, id uuid.UUID) (models.Transaction, error) {
	tr, ok := t.st.transactions[id]
	if !ok {
		return models.Transaction{}, store.ErrNotFound
	}
	return tr, nil
}

func (t *tx) ListTransactions(ctx context.Context, f store.TransactionFilter) ([]models.Transaction, error) {
	var out []models.Transaction
	// newest insert first so that the stable sort keeps it first among equal timestamps
	for i := len(t.st.txOrder) - 1; i >= 0; i-- {
		tr, ok := t.st.transactions[t.st.txOrder[i]]
		if !ok || !matches(tr, f) {
			continue
		}
		out = append(out, tr)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func matches(tr models.Transaction, f store.TransactionFilter) bool {
	if tr.DeletedAt != nil && !f.IncludeDeleted {
		return false
	}
	if f.From != nil && tr.OccurredAt.Before(*f.From) {
		return false
	}
	if f.To != nil && tr.OccurredAt.After(*f.To) {
		return false
	}
	if len(f.WalletIDs) == 0 {
		return true
	}
	for _, id := range tr.WalletIDs() {
		if slices.Contains(f.WalletIDs, id) {
			return true
		}
	}
	return false
}

func (t *tx) UpdateTransactionDetails(ctx context.Context, tr models.Transaction) error {
	cur, ok := t.st.transactions[tr.ID]
	if !ok {
		return store.ErrNotFound
	}
	cur.Category, cur.Description, cur.Notes = tr.Category, tr.Description, tr.Notes
	t.st.transactions[tr.ID] = cur
	return nil
}

func (t *tx) SetTransactionDeleted(ctx context.Context, id uuid.UUID, at *time.Time) error {
	cur, ok := t.st.transactions[id]
	if !ok {
		return store.ErrNotFound
	}
	cur.DeletedAt = at
	t.st.transactions[id] = cur
	return nil
}

func (t *tx) HardDeleteTransaction(ctx context.Context, id uuid.UUID) error {
	if _, ok := t.st.transactions[id]; !ok {
		return store.ErrNotFound
	}
	delete(t.st.transactions, id)
	t.st.txOrder = slices.DeleteFunc(t.st.txOrder, func(x uuid.UUID) bool { return x == id })
	return nil
}

// debts

func (t *tx) InsertDebt(ctx context.Context, d models.Debt) error {
	t.st.debts[d.ID] = d
	return nil
}

func (t *tx) LockDebt(ctx context.Context, id uuid.UUID) (models.Debt, error) {
	d, ok := t.st.debts[id]
	if !ok || d.DeletedAt != nil {
		return models.Debt{}, store.ErrNotFound
	}
	return d, nil
}

func (t *tx) DebtsFor(ctx context.Context, owners ...uuid.UUID) ([]models.Debt, error) {
	var out []models.Debt
	for _, d := range t.st.debts {
		if d.DeletedAt == nil && slices.Contains(owners, d.OwnerID) {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (t *tx) SetDebtRemaining(ctx context.Context, id uuid.UUID, remaining decimal.Decimal) error {
	d, err := t.LockDebt(ctx, id)
	if err != nil {
		return err
	}
	d.RemainingAmount = remaining
	t.st.debts[id] = d
	return nil
}

func (t *tx) SoftDeleteDebt(ctx context.Context, id uuid.UUID, at time.Time) error {
	d, err := t.LockDebt(ctx, id)
	if err != nil {
		return err
	}
	d.DeletedAt = &at
	t.st.debts[id] = d
	for i, p := range t.st.payments {
		if p.DebtID == id && p.DeletedAt == nil {
			p.DeletedAt = &at
			t.st.payments[i] = p
		}
	}
	return nil
}

func (t *tx) InsertDebtPayment(ctx context.Context, p models.DebtPayment) error {
	t.st.payments = append(t.st.payments, p)
	return nil
}

func (t *tx) DebtPayments(ctx context.Context, debtID uuid.UUID) ([]models.DebtPayment, error) {
	var out []models.DebtPayment
	for _, p := range t.st.payments {
		if p.DebtID == debtID && p.DeletedAt == nil {
			out = append(out, p)
		}
	}
	return out, nil
}

// goals

func (t *tx) InsertGoal(ctx context.Context, g models.Goal) error {
	t.st.goals[g.ID] = g
	return nil
}

func (t *tx) LockGoal(ctx context.Context, id uuid.UUID) (models.Goal, error) {
	g, ok := t.st.goals[id]
	if !ok || g.DeletedAt != nil {
		return models.Goal{}, store.ErrNotFound
	}
	return g, nil
}

func (t *tx) GoalsFor(ctx context.Context, owners ...uuid.UUID) ([]models.Goal, error) {
	var out []models.Goal
	for _, g := range t.st.goals {
		if g.DeletedAt == nil && slices.Contains(owners, g.OwnerID) {
			out = append(out, g)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (t *tx) UpdateGoalDetails(ctx context.Context, g models.Goal) error {
	cur, err := t.LockGoal(ctx, g.ID)
	if err != nil {
		return err
	}
	cur.Name, cur.TargetAmount, cur.TargetDate, cur.Icon, cur.Color = g.Name, g.TargetAmount, g.TargetDate, g.Icon, g.Color
	t.st.goals[g.ID] = cur
	return nil
}

func (t *tx) SetGoalAmount(ctx context.Context, id uuid.UUID, current decimal.Decimal) error {
	g, err := t.LockGoal(ctx, id)
	if err != nil {
		return err
	}
	g.CurrentAmount = current
	t.st.goals[id] = g
	return nil
}

func (t *tx) SoftDeleteGoal(ctx context.Context, id uuid.UUID, at time.Time) error {
	g, err := t.LockGoal(ctx, id)
	if err != nil {
		return err
	}
	g.DeletedAt = &at
	t.st.goals[id] = g
	return nil
}

func (t *tx) InsertGoalContribution(ctx context.Context, c models.GoalContribution) error {
	t.st.contributions = append(t.st.contributions, c)
	return nil
}

func (t *tx) GoalContributions(ctx context.Context, goalID uuid.UUID) ([]models.GoalContribution, error) {
	var out []models.GoalContribution
	for _, c := range t.st.contributions {
		if c.GoalID == goalID {
			out = append(out, c)
		}
	}
	return out, nil
}

// partner requests

func (t *tx) InsertPartnerRequest(ctx context.Context, r models.PartnerRequest) error {
	if r.Status == models.RequestPending {
		for _, other := range t.st.requests {
			if other.Status != models.RequestPending {
				continue
			}
			if other.FromUserID == r.FromUserID || other.Involves(r.FromUserID, r.ToUserID) {
				return store.ErrUniqueViolation
			}
		}
	}
	t.st.requests[r.ID] = r
	return nil
}

func (t *tx) LockPartnerRequest(ctx context.Context, id uuid.UUID) (models.PartnerRequest, error) {
	r, ok := t.st.requests[id]
	if !ok {
		return models.PartnerRequest{}, store.ErrNotFound
	}
	return r, nil
}

func (t *tx) PendingRequests(ctx context.Context, userID uuid.UUID) ([]models.PartnerRequest, error) {
	var out []models.PartnerRequest
	for _, r := range t.st.requests {
		if r.Status == models.RequestPending && (r.FromUserID == userID || r.ToUserID == userID) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (t *tx) SetRequestStatus(ctx context.Context, id uuid.UUID, status models.RequestStatus, at time.Time) error {
	r, ok := t.st.requests[id]
	if !ok {
		return store.ErrNotFound
	}
	r.Status = status
	r.RespondedAt = &at
	t.st.requests[id] = r
	return nil
}
