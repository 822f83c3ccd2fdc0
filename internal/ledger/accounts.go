package ledger

import (
	"context"
	"fmt"
	"sort"

	"github.com/iho/networth/internal/domain"
	"github.com/iho/networth/internal/money"
)

// Totals are the derived balance-sheet figures. They are recomputed from the
// account store on every read; nothing here is cached.
type Totals struct {
	ByGroup map[domain.Group]money.Money
	Assets  money.Money
	Debt    money.Money
	Net     money.Money
}

// Add creates a new account of the given type with a zero balance. An empty
// name defaults to the type's display name.
func (l *Ledger) Add(ctx context.Context, accountType domain.AccountType, name string) (domain.Account, error) {
	if _, err := accountType.Group(); err != nil {
		return domain.Account{}, err
	}
	if name == "" {
		name = accountType.DisplayName()
	}
	if err := domain.ValidateAccountName(name); err != nil {
		return domain.Account{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	accounts, err := l.loadAccounts(ctx)
	if err != nil {
		return domain.Account{}, err
	}

	account := domain.Account{
		ID:        l.idGen.Generate(),
		Type:      accountType,
		Name:      name,
		Balance:   money.Zero,
		UpdatedAt: l.now(),
	}
	accounts = append(accounts, account)

	if err := l.saveAccounts(ctx, accounts); err != nil {
		return domain.Account{}, err
	}
	l.refreshSnapshot(ctx, accounts)

	l.log.Debug().Str("account_id", account.ID).Str("type", string(accountType)).Msg("account added")
	return account, nil
}

// Get returns the account with the given id.
func (l *Ledger) Get(ctx context.Context, id string) (domain.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	accounts, err := l.loadAccounts(ctx)
	if err != nil {
		return domain.Account{}, err
	}
	for _, a := range accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return domain.Account{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
}

// List returns all accounts in insertion order.
func (l *Ledger) List(ctx context.Context) ([]domain.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadAccounts(ctx)
}

// Rename changes an account's name and logs a rename operation. Renames do
// not touch the balance, so UpdatedAt is left alone.
func (l *Ledger) Rename(ctx context.Context, id, name string) error {
	if err := domain.ValidateAccountName(name); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	accounts, err := l.loadAccounts(ctx)
	if err != nil {
		return err
	}
	idx := indexOf(accounts, id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}

	before := accounts[idx].Name
	accounts[idx].Name = name

	op := domain.Operation{
		ID:          l.idGen.Generate(),
		At:          l.now(),
		Kind:        domain.OpRename,
		AccountType: accounts[idx].Type,
		AccountID:   id,
		BeforeName:  before,
		AfterName:   name,
	}

	return l.commit(ctx, accounts, op)
}

// SetBalance re-baselines an account's balance to value and logs a
// set_balance operation with the before/after pair.
func (l *Ledger) SetBalance(ctx context.Context, id string, value money.Money) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	accounts, err := l.loadAccounts(ctx)
	if err != nil {
		return err
	}
	idx := indexOf(accounts, id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}

	before := accounts[idx].Balance
	accounts[idx].Balance = value
	accounts[idx].UpdatedAt = l.now()

	op := domain.Operation{
		ID:          l.idGen.Generate(),
		At:          l.now(),
		Kind:        domain.OpSetBalance,
		AccountType: accounts[idx].Type,
		AccountID:   id,
		Before:      before,
		After:       value,
	}

	return l.commit(ctx, accounts, op)
}

// Adjust applies a signed delta to an account's balance and logs an adjust
// operation.
func (l *Ledger) Adjust(ctx context.Context, id string, delta money.Money) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	accounts, err := l.loadAccounts(ctx)
	if err != nil {
		return err
	}
	idx := indexOf(accounts, id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}

	before := accounts[idx].Balance
	after := before.Add(delta)
	accounts[idx].Balance = after
	accounts[idx].UpdatedAt = l.now()

	op := domain.Operation{
		ID:          l.idGen.Generate(),
		At:          l.now(),
		Kind:        domain.OpAdjust,
		AccountType: accounts[idx].Type,
		AccountID:   id,
		Delta:       delta,
		Before:      before,
		After:       after,
	}

	return l.commit(ctx, accounts, op)
}

// Transfer moves amount from one account to another, resolving the
// sign-aware flow rule independently for each side: an incoming flow
// decreases a debt account's stored (owed) balance and increases any other
// account's balance. A transfer between two tracked accounts never changes
// net worth.
func (l *Ledger) Transfer(ctx context.Context, fromID, toID string, amount money.Money) error {
	if fromID == toID {
		return fmt.Errorf("%w: %s", domain.ErrInvalidTarget, toID)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	accounts, err := l.loadAccounts(ctx)
	if err != nil {
		return err
	}
	fromIdx := indexOf(accounts, fromID)
	if fromIdx < 0 {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, fromID)
	}
	toIdx := indexOf(accounts, toID)
	if toIdx < 0 {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, toID)
	}

	from := &accounts[fromIdx]
	to := &accounts[toIdx]

	fromBefore := from.Balance
	toBefore := to.Balance

	from.Balance = fromBefore.Add(domain.StoredDelta(from.Type, amount.Neg()))
	to.Balance = toBefore.Add(domain.StoredDelta(to.Type, amount))
	now := l.now()
	from.UpdatedAt = now
	to.UpdatedAt = now

	op := domain.Operation{
		ID:          l.idGen.Generate(),
		At:          now,
		Kind:        domain.OpTransfer,
		AccountType: from.Type,
		FromID:      fromID,
		ToID:        toID,
		Amount:      amount,
		FromBefore:  fromBefore,
		FromAfter:   from.Balance,
		ToBefore:    toBefore,
		ToAfter:     to.Balance,
	}

	return l.commit(ctx, accounts, op)
}

// Delete removes an account permanently. Operation log entries referencing
// it are kept, orphaned but still displayable through their recorded type.
func (l *Ledger) Delete(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	accounts, err := l.loadAccounts(ctx)
	if err != nil {
		return err
	}
	idx := indexOf(accounts, id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}

	accounts = append(accounts[:idx], accounts[idx+1:]...)
	if err := l.saveAccounts(ctx, accounts); err != nil {
		return err
	}
	l.refreshSnapshot(ctx, accounts)

	l.log.Debug().Str("account_id", id).Msg("account deleted")
	return nil
}

// Totals recomputes every derived figure from the live account store.
func (l *Ledger) Totals(ctx context.Context) (Totals, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	accounts, err := l.loadAccounts(ctx)
	if err != nil {
		return Totals{}, err
	}
	return computeTotals(accounts)
}

// GroupTotal returns the balance sum for one group.
func (l *Ledger) GroupTotal(ctx context.Context, g domain.Group) (money.Money, error) {
	totals, err := l.Totals(ctx)
	if err != nil {
		return money.Zero, err
	}
	return totals.ByGroup[g], nil
}

func computeTotals(accounts []domain.Account) (Totals, error) {
	t := Totals{ByGroup: make(map[domain.Group]money.Money, len(domain.Groups))}
	for _, g := range domain.Groups {
		t.ByGroup[g] = money.Zero
	}

	for _, a := range accounts {
		g, err := a.Type.Group()
		if err != nil {
			return Totals{}, err
		}
		t.ByGroup[g] = t.ByGroup[g].Add(a.Balance)
	}

	t.Assets = money.Sum(
		t.ByGroup[domain.GroupLiquid],
		t.ByGroup[domain.GroupInvest],
		t.ByGroup[domain.GroupFixed],
		t.ByGroup[domain.GroupReceivable],
	)
	t.Debt = t.ByGroup[domain.GroupDebt]
	t.Net = t.Assets.Sub(t.Debt)
	return t, nil
}

// commit persists the mutated accounts and appends exactly one operation.
// The pair is not separable: the log entry is the only audit trail for the
// balance change it describes. The operation is written first, so a partial
// failure can strand an extra log entry but never an unexplained balance.
// It then refreshes today's snapshot from the committed state.
func (l *Ledger) commit(ctx context.Context, accounts []domain.Account, op domain.Operation) error {
	ops, err := l.loadOperations(ctx)
	if err != nil {
		return err
	}
	ops = append(ops, op)

	if err := l.saveOperations(ctx, ops); err != nil {
		return err
	}
	if err := l.saveAccounts(ctx, accounts); err != nil {
		return err
	}
	l.refreshSnapshot(ctx, accounts)

	l.log.Debug().Str("op_id", op.ID).Str("kind", string(op.Kind)).Msg("operation recorded")
	return nil
}

func indexOf(accounts []domain.Account, id string) int {
	for i := range accounts {
		if accounts[i].ID == id {
			return i
		}
	}
	return -1
}

// sortedByAt returns ops ordered by timestamp. Entries sharing a timestamp
// keep their relative insertion order; callers must not read meaning into
// the order of such ties.
func sortedByAt(ops []domain.Operation) []domain.Operation {
	out := make([]domain.Operation, len(ops))
	copy(out, ops)
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out
}
