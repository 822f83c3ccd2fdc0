package money

import (
	"encoding/json"
	"math"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantCents int64
		wantErr   bool
	}{
		{name: "integer", input: "100", wantCents: 10000},
		{name: "two decimals", input: "12.34", wantCents: 1234},
		{name: "one decimal", input: "0.1", wantCents: 10},
		{name: "negative", input: "-5.50", wantCents: -550},
		{name: "negative zero normalizes", input: "-0.00", wantCents: 0},
		{name: "rounds half up", input: "0.005", wantCents: 1},
		{name: "truncates sub-cent noise", input: "10.004", wantCents: 1000},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", m)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if m.Cents() != tt.wantCents {
				t.Errorf("Parse(%q) = %d cents, want %d", tt.input, m.Cents(), tt.wantCents)
			}
		})
	}
}

func TestAdd_NoFloatDrift(t *testing.T) {
	a, _ := Parse("0.1")
	b, _ := Parse("0.2")

	got := a.Add(b)
	if got.String() != "0.30" {
		t.Errorf("0.1 + 0.2 = %s, want 0.30", got)
	}
}

func TestFromFloat(t *testing.T) {
	tests := []struct {
		name      string
		input     float64
		wantCents int64
		wantErr   bool
	}{
		{name: "simple", input: 12.34, wantCents: 1234},
		{name: "float noise", input: 0.1 + 0.2, wantCents: 30},
		{name: "negative zero", input: -0.0, wantCents: 0},
		{name: "nan", input: math.NaN(), wantErr: true},
		{name: "inf", input: math.Inf(1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := FromFloat(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if m.Cents() != tt.wantCents {
				t.Errorf("FromFloat(%v) = %d cents, want %d", tt.input, m.Cents(), tt.wantCents)
			}
		})
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "0.00"},
		{1, "0.01"},
		{-1, "-0.01"},
		{1234, "12.34"},
		{100000, "1000.00"},
	}

	for _, tt := range tests {
		if got := FromCents(tt.cents).String(); got != tt.want {
			t.Errorf("FromCents(%d).String() = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestJSONRoundTrip(t *testing.T) {
	m := FromCents(1234)

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"12.34"` {
		t.Errorf("marshal = %s, want \"12.34\"", data)
	}

	var back Money
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Cents() != 1234 {
		t.Errorf("round trip = %d cents, want 1234", back.Cents())
	}
}

func TestUnmarshalJSON_AcceptsNumbers(t *testing.T) {
	var m Money
	if err := json.Unmarshal([]byte(`12.34`), &m); err != nil {
		t.Fatalf("unmarshal number: %v", err)
	}
	if m.Cents() != 1234 {
		t.Errorf("got %d cents, want 1234", m.Cents())
	}
}

func TestSum(t *testing.T) {
	got := Sum(FromCents(100), FromCents(-30), FromCents(5))
	if got.Cents() != 75 {
		t.Errorf("Sum = %d cents, want 75", got.Cents())
	}
}
