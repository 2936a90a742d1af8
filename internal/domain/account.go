package domain

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// AccountType classifies an account for sign convention purposes.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeIncome    AccountType = "income"
	AccountTypeExpense   AccountType = "expense"
)

// Valid reports whether t is one of the known account types.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeIncome, AccountTypeExpense:
		return true
	}
	return false
}

// DebitNormal reports whether a debit increases accounts of this type.
func (t AccountType) DebitNormal() bool {
	return t == AccountTypeAsset || t == AccountTypeExpense
}

// Default account codes.
const (
	AccountCash                    = "1000"
	AccountMemberWallet            = "2000"
	AccountPrizePool               = "2100"
	AccountPendingWithdrawals      = "2200"
	AccountRetainedEarnings        = "3000"
	AccountMembershipIncome        = "4000"
	AccountReferralBonusExpense    = "5000"
	AccountTierBonusExpense        = "5100"
	AccountCommunitySupportExpense = "5200"
)

// Account is an entry in the chart of accounts.
type Account struct {
	Code        string      `yaml:"code" json:"code"`
	Name        string      `yaml:"name" json:"name"`
	Type        AccountType `yaml:"type" json:"type"`
	Restricted  bool        `yaml:"restricted" json:"restricted"`
	Description string      `yaml:"description" json:"description"`
}

// SignedBalance applies the sign convention of the account type to raw totals.
func (a Account) SignedBalance(debits, credits decimal.Decimal) decimal.Decimal {
	return SignedBalance(a.Type, debits, credits)
}

// SignedBalance returns debits-credits for debit-normal types and
// credits-debits for the rest.
func SignedBalance(t AccountType, debits, credits decimal.Decimal) decimal.Decimal {
	if t.DebitNormal() {
		return debits.Sub(credits)
	}
	return credits.Sub(debits)
}

// ChartOfAccounts is an immutable lookup of accounts by code.
type ChartOfAccounts struct {
	accounts   map[string]Account
	ordered    []Account
	restricted string
}

// NewChartOfAccounts builds a chart and validates it.
//
// Codes must be unique and non-empty, and at most one account may be
// restricted. A restricted account must be a liability.
func NewChartOfAccounts(accounts []Account) (*ChartOfAccounts, error) {
	if len(accounts) == 0 {
		return nil, fmt.Errorf("%w: no accounts", ErrInvalidChart)
	}

	c := &ChartOfAccounts{
		accounts: make(map[string]Account, len(accounts)),
		ordered:  make([]Account, 0, len(accounts)),
	}

	for _, acc := range accounts {
		if acc.Code == "" {
			return nil, fmt.Errorf("%w: empty account code", ErrInvalidChart)
		}
		if !acc.Type.Valid() {
			return nil, fmt.Errorf("%w: account %s has unknown type %q", ErrInvalidChart, acc.Code, acc.Type)
		}
		if _, dup := c.accounts[acc.Code]; dup {
			return nil, fmt.Errorf("%w: duplicate account code %s", ErrInvalidChart, acc.Code)
		}
		if acc.Restricted {
			if acc.Type != AccountTypeLiability {
				return nil, fmt.Errorf("%w: restricted account %s must be a liability", ErrInvalidChart, acc.Code)
			}
			if c.restricted != "" {
				return nil, fmt.Errorf("%w: more than one restricted account (%s, %s)", ErrInvalidChart, c.restricted, acc.Code)
			}
			c.restricted = acc.Code
		}

		c.accounts[acc.Code] = acc
		c.ordered = append(c.ordered, acc)
	}

	sort.Slice(c.ordered, func(i, j int) bool { return c.ordered[i].Code < c.ordered[j].Code })

	return c, nil
}

// DefaultChartOfAccounts returns the chart used by a standard deployment.
func DefaultChartOfAccounts() *ChartOfAccounts {
	c, err := NewChartOfAccounts(DefaultAccounts())
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultAccounts lists the seed accounts.
func DefaultAccounts() []Account {
	return []Account{
		{Code: AccountCash, Name: "Cash/Bank", Type: AccountTypeAsset, Description: "Operating bank account"},
		{Code: AccountMemberWallet, Name: "Member-Wallet-Liability", Type: AccountTypeLiability, Description: "Amounts owed to members"},
		{Code: AccountPrizePool, Name: "Prize-Pool-Payable", Type: AccountTypeLiability, Restricted: true, Description: "Restricted prize draw fund"},
		{Code: AccountPendingWithdrawals, Name: "Pending-Withdrawals", Type: AccountTypeLiability, Description: "Withdrawals awaiting settlement"},
		{Code: AccountRetainedEarnings, Name: "Retained-Earnings", Type: AccountTypeEquity, Description: "Owner equity"},
		{Code: AccountMembershipIncome, Name: "Membership-Income", Type: AccountTypeIncome, Description: "Platform share of membership fees"},
		{Code: AccountReferralBonusExpense, Name: "Referral-Bonus-Expense", Type: AccountTypeExpense, Description: "Referral bonuses paid to members"},
		{Code: AccountTierBonusExpense, Name: "Tier-Bonus-Expense", Type: AccountTypeExpense, Description: "Tier bonuses paid to members"},
		{Code: AccountCommunitySupportExpense, Name: "Community-Support-Expense", Type: AccountTypeExpense, Description: "Unclaimed prizes reallocated to community support"},
	}
}

// Get returns the account for code.
func (c *ChartOfAccounts) Get(code string) (Account, error) {
	acc, ok := c.accounts[code]
	if !ok {
		return Account{}, &UnknownAccountError{Code: code}
	}
	return acc, nil
}

// TypeOf returns the account type for code.
func (c *ChartOfAccounts) TypeOf(code string) (AccountType, error) {
	acc, err := c.Get(code)
	if err != nil {
		return "", err
	}
	return acc.Type, nil
}

// IsRestricted reports whether code is the restricted fund account.
func (c *ChartOfAccounts) IsRestricted(code string) bool {
	return c.restricted != "" && c.restricted == code
}

// RestrictedAccount returns the restricted account if the chart has one.
func (c *ChartOfAccounts) RestrictedAccount() (Account, bool) {
	if c.restricted == "" {
		return Account{}, false
	}
	return c.accounts[c.restricted], true
}

// Accounts returns all accounts ordered by code.
func (c *ChartOfAccounts) Accounts() []Account {
	out := make([]Account, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Has reports whether code exists in the chart.
func (c *ChartOfAccounts) Has(code string) bool {
	_, ok := c.accounts[code]
	return ok
}
