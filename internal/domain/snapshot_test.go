package domain

import (
	"encoding/json"
	"testing"
)

func TestClampMonthStartDay(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{-5, 1},
		{0, 1},
		{1, 1},
		{15, 15},
		{28, 28},
		{29, 28},
		{31, 28},
	}

	for _, tt := range tests {
		if got := ClampMonthStartDay(tt.in); got != tt.want {
			t.Errorf("ClampMonthStartDay(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestMonthKeyForDateKey(t *testing.T) {
	tests := []struct {
		name     string
		dateKey  string
		startDay int
		want     string
		wantErr  bool
	}{
		{name: "day before cycle start", dateKey: "2026-01-04", startDay: 5, want: "2025-12"},
		{name: "day on cycle start", dateKey: "2026-01-05", startDay: 5, want: "2026-01"},
		{name: "day after cycle start", dateKey: "2026-01-20", startDay: 5, want: "2026-01"},
		{name: "default cycle is calendar month", dateKey: "2026-03-01", startDay: 1, want: "2026-03"},
		{name: "march 1 with late start", dateKey: "2026-03-01", startDay: 28, want: "2026-02"},
		{name: "start day clamps above 28", dateKey: "2026-03-27", startDay: 31, want: "2026-02"},
		{name: "year boundary", dateKey: "2026-01-01", startDay: 2, want: "2025-12"},
		{name: "invalid date key", dateKey: "2026-13-40", startDay: 1, wantErr: true},
		{name: "not a date", dateKey: "hello", startDay: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MonthKeyForDateKey(tt.dateKey, tt.startDay)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("MonthKeyForDateKey(%q, %d) = %q, want %q", tt.dateKey, tt.startDay, got, tt.want)
			}
		})
	}
}

func TestSnapshot_UnmarshalJSON_Lenient(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantNet   int64
		wantDebt  int64
		wantCount int
	}{
		{
			name:    "string amounts",
			input:   `{"date":"2026-08-01","net":"123.45","debt":"10.00"}`,
			wantNet: 12345, wantDebt: 1000,
		},
		{
			name:    "numeric amounts",
			input:   `{"date":"2026-08-01","net":123.45,"debt":10}`,
			wantNet: 12345, wantDebt: 1000,
		},
		{
			name:    "garbage amount decodes to zero",
			input:   `{"date":"2026-08-01","net":"oops","debt":{"x":1}}`,
			wantNet: 0, wantDebt: 0,
		},
		{
			name:    "missing fields decode to zero",
			input:   `{"date":"2026-08-01"}`,
			wantNet: 0, wantDebt: 0,
		},
		{
			name:      "with account breakdown",
			input:     `{"date":"2026-08-01","net":"5.00","accounts":[{"id":"a","type":"cash","name":"Cash","balance":"5.00"}]}`,
			wantNet:   500,
			wantCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Snapshot
			if err := json.Unmarshal([]byte(tt.input), &s); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if s.Date != "2026-08-01" {
				t.Errorf("date = %q", s.Date)
			}
			if s.Net.Cents() != tt.wantNet {
				t.Errorf("net = %d cents, want %d", s.Net.Cents(), tt.wantNet)
			}
			if s.Debt.Cents() != tt.wantDebt {
				t.Errorf("debt = %d cents, want %d", s.Debt.Cents(), tt.wantDebt)
			}
			if len(s.Accounts) != tt.wantCount {
				t.Errorf("accounts = %d, want %d", len(s.Accounts), tt.wantCount)
			}
		})
	}
}
