package service

import (
	"context"
	"errors"
	"testing"

	"onlinebank/internal/model"
	"onlinebank/internal/repository"

	"github.com/shopspring/decimal"
)

func TestCheckWithdrawal(t *testing.T) {
	guard := NewBalanceGuard(nil)
	account := &model.Account{Balance: decimal.RequireFromString("100.00")}

	cases := []struct {
		amount string
		wantOK bool
	}{
		{"50.00", true},
		{"100.00", true}, // 清零合法
		{"100.01", false},
		{"0", true},
	}
	for _, c := range cases {
		err := guard.CheckWithdrawal(account, decimal.RequireFromString(c.amount))
		if c.wantOK && err != nil {
			t.Errorf("金额=%s 期望通过，实际 %v", c.amount, err)
		}
		if !c.wantOK && !errors.Is(err, ErrInsufficientFunds) {
			t.Errorf("金额=%s 期望 ErrInsufficientFunds，实际 %v", c.amount, err)
		}
	}
}

func TestCheckExists(t *testing.T) {
	db := newTestDB(t)
	guard := NewBalanceGuard(repository.NewAccountRepository(db))
	acct := seedAccount(t, db, 1, "0.00")

	if err := guard.CheckExists(context.Background(), acct.ID); err != nil {
		t.Fatal(err)
	}
	if err := guard.CheckExists(context.Background(), 9999); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("期望 ErrAccountNotFound，实际 %v", err)
	}
}
