package ledger

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/iho/networth/internal/domain"
)

// UpsertSnapshot rolls up the live accounts into a snapshot for date
// (YYYY-MM-DD; empty means today) and replaces any existing snapshot for
// that date. Mutations refresh today's snapshot automatically; this is the
// explicit entry point for backdated or on-demand snapshots.
func (l *Ledger) UpsertSnapshot(ctx context.Context, date string) (domain.Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.upsertSnapshotLocked(ctx, date)
}

func (l *Ledger) upsertSnapshotLocked(ctx context.Context, date string) (domain.Snapshot, error) {
	if date == "" {
		date = l.now().Format(domain.DateFormat)
	}
	if _, err := time.Parse(domain.DateFormat, date); err != nil {
		return domain.Snapshot{}, fmt.Errorf("invalid snapshot date %q: %w", date, err)
	}

	accounts, err := l.loadAccounts(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}

	snap, err := buildSnapshot(accounts, date)
	if err != nil {
		return domain.Snapshot{}, err
	}

	snaps, err := l.loadSnapshots(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}

	replaced := false
	for i := range snaps {
		if snaps[i].Date == date {
			snaps[i] = snap
			replaced = true
			break
		}
	}
	if !replaced {
		snaps = append(snaps, snap)
	}

	if err := l.saveSnapshots(ctx, snaps); err != nil {
		return domain.Snapshot{}, err
	}

	l.log.Debug().Str("date", date).Bool("replaced", replaced).Msg("snapshot upserted")
	return snap, nil
}

// refreshSnapshot records today's position after a mutation, so trend data
// accrues without an explicit snapshot command. Snapshots are derived data:
// a failure here is logged but never undoes the mutation that triggered it.
// Nothing is recorded while the account store is empty.
func (l *Ledger) refreshSnapshot(ctx context.Context, accounts []domain.Account) {
	if len(accounts) == 0 {
		return
	}
	if _, err := l.upsertSnapshotLocked(ctx, ""); err != nil {
		l.log.Warn().Err(err).Msg("snapshot refresh failed")
	}
}

func buildSnapshot(accounts []domain.Account, date string) (domain.Snapshot, error) {
	totals, err := computeTotals(accounts)
	if err != nil {
		return domain.Snapshot{}, err
	}

	snap := domain.Snapshot{
		Date:       date,
		Net:        totals.Net,
		Debt:       totals.Debt,
		Cash:       totals.ByGroup[domain.GroupLiquid],
		Invest:     totals.ByGroup[domain.GroupInvest],
		Fixed:      totals.ByGroup[domain.GroupFixed],
		Receivable: totals.ByGroup[domain.GroupReceivable],
	}
	for _, a := range accounts {
		snap.Accounts = append(snap.Accounts, domain.SnapshotAccount{
			ID:      a.ID,
			Type:    a.Type,
			Name:    a.Name,
			Balance: a.Balance,
		})
	}
	return snap, nil
}

// Snapshots returns all snapshots ordered by date.
func (l *Ledger) Snapshots(ctx context.Context) ([]domain.Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	snaps, err := l.loadSnapshots(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Date < snaps[j].Date })
	return snaps, nil
}

// MonthStartDay reads the configured month start day. Anything missing,
// non-numeric, or out of range falls back per the clamping rules, with 1 as
// the default.
func (l *Ledger) MonthStartDay(ctx context.Context) int {
	raw, ok, err := l.store.Get(ctx, KeyMonthStart)
	if err != nil || !ok {
		return 1
	}
	d, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 1
	}
	return domain.ClampMonthStartDay(d)
}

// SetMonthStartDay stores the month start day, clamped to [1,28].
func (l *Ledger) SetMonthStartDay(ctx context.Context, d int) error {
	d = domain.ClampMonthStartDay(d)
	return l.store.Set(ctx, KeyMonthStart, strconv.Itoa(d))
}

// MonthBucket is one point of the trend series: the last snapshot of a
// cycle-aligned month.
type MonthBucket struct {
	Month    string
	Snapshot domain.Snapshot
}

// MonthlySeries buckets snapshots by the configured month start day. Within
// a bucket the latest snapshot wins, so the series reflects each cycle's
// closing position.
func (l *Ledger) MonthlySeries(ctx context.Context) ([]MonthBucket, error) {
	startDay := l.MonthStartDay(ctx)

	snaps, err := l.Snapshots(ctx)
	if err != nil {
		return nil, err
	}

	byMonth := make(map[string]domain.Snapshot)
	for _, s := range snaps {
		key, err := domain.MonthKeyForDateKey(s.Date, startDay)
		if err != nil {
			continue
		}
		// Snapshots are date-ordered, so the last write is the latest.
		byMonth[key] = s
	}

	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Strings(months)

	series := make([]MonthBucket, 0, len(months))
	for _, m := range months {
		series = append(series, MonthBucket{Month: m, Snapshot: byMonth[m]})
	}
	return series, nil
}
