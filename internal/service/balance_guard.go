package service

import (
	"context"
	"errors"

	"onlinebank/internal/model"
	"onlinebank/internal/repository"

	"github.com/shopspring/decimal"
)

// BalanceGuard 余额校验策略
// 出账（取款、商户消费、转账转出）不允许超过当前余额；
// 入账不设上限；金额恰好等于余额时允许清零；零金额视为合法的空流水
type BalanceGuard struct {
	accountRepo *repository.AccountRepository
}

func NewBalanceGuard(accountRepo *repository.AccountRepository) *BalanceGuard {
	return &BalanceGuard{accountRepo: accountRepo}
}

// CheckWithdrawal 校验出账金额，amount 传正数
func (g *BalanceGuard) CheckWithdrawal(account *model.Account, amount decimal.Decimal) error {
	if amount.GreaterThan(account.Balance) {
		return ErrInsufficientFunds
	}
	return nil
}

// CheckExists 校验账户是否存在（不限归属，转账转入方使用）
func (g *BalanceGuard) CheckExists(ctx context.Context, accountID int64) error {
	_, err := g.accountRepo.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return ErrAccountNotFound
		}
		return err
	}
	return nil
}
