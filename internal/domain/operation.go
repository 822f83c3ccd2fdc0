package domain

import (
	"time"

	"github.com/iho/networth/internal/money"
)

// OpKind discriminates the four operation log variants.
type OpKind string

const (
	OpRename     OpKind = "rename"
	OpSetBalance OpKind = "set_balance"
	OpAdjust     OpKind = "adjust"
	OpTransfer   OpKind = "transfer"
)

// Operation is one immutable entry in the append-only operation log.
//
// Only the fields for the entry's Kind are populated. At is the sole
// ordering key; two entries created in the same tick may share a timestamp
// and consumers must treat such ties as unordered. AccountType records the
// account's type at creation time so the entry stays displayable even if the
// account is later deleted or its type becomes invalid.
type Operation struct {
	ID          string      `json:"id"`
	At          time.Time   `json:"at"`
	Kind        OpKind      `json:"kind"`
	AccountType AccountType `json:"accountType,omitempty"`

	// rename / set_balance / adjust
	AccountID string `json:"accountId,omitempty"`

	// rename
	BeforeName string `json:"beforeName,omitempty"`
	AfterName  string `json:"afterName,omitempty"`

	// set_balance / adjust
	Before money.Money `json:"before,omitzero"`
	After  money.Money `json:"after,omitzero"`

	// adjust
	Delta money.Money `json:"delta,omitzero"`

	// transfer
	FromID     string      `json:"fromId,omitempty"`
	ToID       string      `json:"toId,omitempty"`
	Amount     money.Money `json:"amount,omitzero"`
	FromBefore money.Money `json:"fromBefore,omitzero"`
	FromAfter  money.Money `json:"fromAfter,omitzero"`
	ToBefore   money.Money `json:"toBefore,omitzero"`
	ToAfter    money.Money `json:"toAfter,omitzero"`
}

// Touches reports whether the operation affects the balance of accountID.
func (o Operation) Touches(accountID string) bool {
	switch o.Kind {
	case OpSetBalance, OpAdjust:
		return o.AccountID == accountID
	case OpTransfer:
		return o.FromID == accountID || o.ToID == accountID
	default:
		return false
	}
}
