package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/iho/networth/internal/money"
)

// DateFormat is the snapshot date key format.
const DateFormat = "2006-01-02"

// MonthFormat is the trend bucket key format.
const MonthFormat = "2006-01"

// SnapshotAccount is the optional per-account breakdown inside a snapshot.
type SnapshotAccount struct {
	ID      string      `json:"id"`
	Type    AccountType `json:"type"`
	Name    string      `json:"name"`
	Balance money.Money `json:"balance"`
}

// Snapshot is one dated rollup of account balances. There is at most one
// snapshot per calendar date; writing the same date replaces the prior one.
type Snapshot struct {
	Date       string            `json:"date"`
	Net        money.Money       `json:"net"`
	Debt       money.Money       `json:"debt"`
	Cash       money.Money       `json:"cash"`
	Invest     money.Money       `json:"invest"`
	Fixed      money.Money       `json:"fixed"`
	Receivable money.Money       `json:"receivable"`
	Accounts   []SnapshotAccount `json:"accounts,omitempty"`
}

// UnmarshalJSON decodes a snapshot leniently. Older schema versions may lack
// the per-account breakdown, and stored values may be numbers, strings, or
// garbage; every numeric field that fails to parse decodes to zero instead
// of failing the whole snapshot.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw struct {
		Date       string            `json:"date"`
		Net        json.RawMessage   `json:"net"`
		Debt       json.RawMessage   `json:"debt"`
		Cash       json.RawMessage   `json:"cash"`
		Invest     json.RawMessage   `json:"invest"`
		Fixed      json.RawMessage   `json:"fixed"`
		Receivable json.RawMessage   `json:"receivable"`
		Accounts   []SnapshotAccount `json:"accounts"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	s.Date = raw.Date
	s.Net = lenientMoney(raw.Net)
	s.Debt = lenientMoney(raw.Debt)
	s.Cash = lenientMoney(raw.Cash)
	s.Invest = lenientMoney(raw.Invest)
	s.Fixed = lenientMoney(raw.Fixed)
	s.Receivable = lenientMoney(raw.Receivable)
	s.Accounts = raw.Accounts
	return nil
}

func lenientMoney(raw json.RawMessage) money.Money {
	if len(raw) == 0 {
		return money.Zero
	}
	var m money.Money
	if err := json.Unmarshal(raw, &m); err != nil {
		return money.Zero
	}
	return m
}

// ClampMonthStartDay normalizes a user-configured month start day to [1,28].
// Out-of-range values are clamped; the engine treats anything non-numeric as
// day 1 before it reaches here.
func ClampMonthStartDay(d int) int {
	if d < 1 {
		return 1
	}
	if d > 28 {
		return 28
	}
	return d
}

// MonthKeyForDateKey buckets a YYYY-MM-DD date key into a YYYY-MM month key
// relative to startDay: the date belongs to its calendar month when its day
// is on or after startDay, and to the previous month otherwise. This aligns
// "month" with a billing or salary cycle instead of the calendar.
func MonthKeyForDateKey(dateKey string, startDay int) (string, error) {
	t, err := time.Parse(DateFormat, dateKey)
	if err != nil {
		return "", fmt.Errorf("invalid date key %q: %w", dateKey, err)
	}
	startDay = ClampMonthStartDay(startDay)
	if t.Day() < startDay {
		t = t.AddDate(0, -1, 0)
	}
	return t.Format(MonthFormat), nil
}
