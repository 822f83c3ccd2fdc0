package domain

import (
	"fmt"
	"time"

	"github.com/iho/networth/internal/money"
)

// Group is one of the five fixed balance-sheet categories. Every account
// type maps to exactly one group; group membership is always derived from
// the type and never stored.
type Group string

const (
	GroupLiquid     Group = "liquid"
	GroupInvest     Group = "invest"
	GroupFixed      Group = "fixed"
	GroupReceivable Group = "receivable"
	GroupDebt       Group = "debt"
)

// Groups lists all groups in balance-sheet display order.
var Groups = []Group{GroupLiquid, GroupInvest, GroupFixed, GroupReceivable, GroupDebt}

// AccountType identifies what kind of account a balance belongs to.
type AccountType string

const (
	TypeCash    AccountType = "cash"
	TypeDeposit AccountType = "deposit"
	TypeWallet  AccountType = "ewallet"

	TypeStock  AccountType = "stock"
	TypeFund   AccountType = "fund"
	TypeCrypto AccountType = "crypto"

	TypeHouse AccountType = "house"
	TypeCar   AccountType = "car"

	TypeLend AccountType = "lend"

	TypeCreditCard AccountType = "credit_card"
	TypeLoan       AccountType = "loan"
	TypePayable    AccountType = "payable"
	TypeOtherDebt  AccountType = "other_debt"
)

// AllTypes lists every valid account type. The style and display-name tables
// below are checked against it for exhaustiveness in tests.
var AllTypes = []AccountType{
	TypeCash, TypeDeposit, TypeWallet,
	TypeStock, TypeFund, TypeCrypto,
	TypeHouse, TypeCar,
	TypeLend,
	TypeCreditCard, TypeLoan, TypePayable, TypeOtherDebt,
}

// Group returns the balance-sheet group the type belongs to. An unknown type
// is a hard error, never a silent default.
func (t AccountType) Group() (Group, error) {
	switch t {
	case TypeCash, TypeDeposit, TypeWallet:
		return GroupLiquid, nil
	case TypeStock, TypeFund, TypeCrypto:
		return GroupInvest, nil
	case TypeHouse, TypeCar:
		return GroupFixed, nil
	case TypeLend:
		return GroupReceivable, nil
	case TypeCreditCard, TypeLoan, TypePayable, TypeOtherDebt:
		return GroupDebt, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownType, string(t))
	}
}

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	_, err := t.Group()
	return err == nil
}

// IsDebt reports whether t belongs to the debt group. Debt balances store
// the owed amount, which inverts the sign of incoming flows.
func (t AccountType) IsDebt() bool {
	g, err := t.Group()
	return err == nil && g == GroupDebt
}

// ParseAccountType validates a raw type string.
func ParseAccountType(s string) (AccountType, error) {
	t := AccountType(s)
	if _, err := t.Group(); err != nil {
		return "", err
	}
	return t, nil
}

var displayNames = map[AccountType]string{
	TypeCash:       "Cash",
	TypeDeposit:    "Bank Deposit",
	TypeWallet:     "E-Wallet",
	TypeStock:      "Stocks",
	TypeFund:       "Funds",
	TypeCrypto:     "Crypto",
	TypeHouse:      "Real Estate",
	TypeCar:        "Vehicle",
	TypeLend:       "Money Lent",
	TypeCreditCard: "Credit Card",
	TypeLoan:       "Loan",
	TypePayable:    "Payable",
	TypeOtherDebt:  "Other Debt",
}

// DisplayName returns the human-readable name for the type, used as the
// default account name.
func (t AccountType) DisplayName() string {
	if name, ok := displayNames[t]; ok {
		return name
	}
	return string(t)
}

// Style is the fixed presentation lookup for an account type.
type Style struct {
	Icon  string
	Color string
}

var styles = map[AccountType]Style{
	TypeCash:       {Icon: "banknote", Color: "#34c759"},
	TypeDeposit:    {Icon: "bank", Color: "#007aff"},
	TypeWallet:     {Icon: "wallet", Color: "#5ac8fa"},
	TypeStock:      {Icon: "chart-line", Color: "#af52de"},
	TypeFund:       {Icon: "chart-pie", Color: "#5856d6"},
	TypeCrypto:     {Icon: "coins", Color: "#ff9500"},
	TypeHouse:      {Icon: "house", Color: "#a2845e"},
	TypeCar:        {Icon: "car", Color: "#8e8e93"},
	TypeLend:       {Icon: "hand-coins", Color: "#00c7be"},
	TypeCreditCard: {Icon: "credit-card", Color: "#ff3b30"},
	TypeLoan:       {Icon: "file-text", Color: "#ff2d55"},
	TypePayable:    {Icon: "receipt", Color: "#ff6482"},
	TypeOtherDebt:  {Icon: "scale", Color: "#bf5af2"},
}

// StyleFor returns the icon/color pair for the type.
func (t AccountType) StyleFor() (Style, error) {
	if _, err := t.Group(); err != nil {
		return Style{}, err
	}
	return styles[t], nil
}

// Account is a named balance on the user's balance sheet.
type Account struct {
	ID        string      `json:"id"`
	Type      AccountType `json:"type"`
	Name      string      `json:"name"`
	Balance   money.Money `json:"balance"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// StoredDelta resolves the sign-aware flow rule: flow is signed money from
// the account's perspective (positive means money coming in). For a
// debt-group account the stored balance is the owed amount, so an incoming
// flow decreases it; for every other group incoming flow increases it.
func StoredDelta(t AccountType, flow money.Money) money.Money {
	if t.IsDebt() {
		return flow.Neg()
	}
	return flow
}
