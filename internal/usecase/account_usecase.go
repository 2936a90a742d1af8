package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/iho/fundledger/internal/domain"
)

// AccountUseCase serves the chart of accounts and account balances.
type AccountUseCase struct {
	chart       *domain.ChartOfAccounts
	accountRepo AccountRepository
	calculator  *BalanceCalculator
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(chart *domain.ChartOfAccounts, accountRepo AccountRepository, calculator *BalanceCalculator) *AccountUseCase {
	return &AccountUseCase{
		chart:       chart,
		accountRepo: accountRepo,
		calculator:  calculator,
	}
}

// AccountBalance is an account with its balance.
type AccountBalance struct {
	Account domain.Account
	// Balance is the signed balance. DisplayBalance clamps the restricted
	// account at zero.
	Balance        decimal.Decimal
	DisplayBalance decimal.Decimal
}

// SyncChart stores the chart and creates balance rows for new accounts.
func (uc *AccountUseCase) SyncChart(ctx context.Context) error {
	return uc.accountRepo.Sync(ctx, uc.chart.Accounts())
}

// ListAccounts returns the chart sorted by code.
func (uc *AccountUseCase) ListAccounts() []domain.Account {
	return uc.chart.Accounts()
}

// GetAccount retrieves an account by code.
func (uc *AccountUseCase) GetAccount(code string) (domain.Account, error) {
	return uc.chart.Get(code)
}

// GetBalance computes the balance of an account from its entries.
func (uc *AccountUseCase) GetBalance(ctx context.Context, code string) (*AccountBalance, error) {
	acc, err := uc.chart.Get(code)
	if err != nil {
		return nil, err
	}

	balance, err := uc.calculator.BalanceOf(ctx, code)
	if err != nil {
		return nil, err
	}

	display := balance
	if acc.Restricted && display.IsNegative() {
		display = decimal.Zero
	}

	return &AccountBalance{Account: acc, Balance: balance, DisplayBalance: display}, nil
}
