package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"onlinebank/internal/infrastructure/database"
	"onlinebank/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "bank.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("打开测试库失败: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		t.Fatalf("迁移失败: %v", err)
	}
	return db
}

func TestGetForUserScoping(t *testing.T) {
	db := newTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	account := &model.Account{UserID: 1, Balance: decimal.Zero}
	if err := repo.Create(ctx, account); err != nil {
		t.Fatal(err)
	}

	if _, err := repo.GetForUser(ctx, 1, account.ID); err != nil {
		t.Fatalf("本人查询失败: %v", err)
	}
	// 他人账户与不存在的账户不可区分
	if _, err := repo.GetForUser(ctx, 2, account.ID); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("期望 ErrAccountNotFound，实际 %v", err)
	}
	if _, err := repo.GetForUser(ctx, 1, 9999); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("期望 ErrAccountNotFound，实际 %v", err)
	}
}

func TestUpdateBalanceOptimisticLock(t *testing.T) {
	db := newTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	account := &model.Account{UserID: 1, Balance: decimal.RequireFromString("100.00")}
	if err := repo.Create(ctx, account); err != nil {
		t.Fatal(err)
	}

	// 版本 0 覆写成功，版本号自增
	if err := repo.UpdateBalance(ctx, nil, account.ID, decimal.RequireFromString("80.00"), 0); err != nil {
		t.Fatal(err)
	}

	// 再拿旧版本写入必须冲突
	err := repo.UpdateBalance(ctx, nil, account.ID, decimal.RequireFromString("60.00"), 0)
	if !errors.Is(err, ErrOptimisticLock) {
		t.Fatalf("期望 ErrOptimisticLock，实际 %v", err)
	}

	// 用新版本重试成功
	if err := repo.UpdateBalance(ctx, nil, account.ID, decimal.RequireFromString("60.00"), 1); err != nil {
		t.Fatal(err)
	}

	got, err := repo.Get(ctx, account.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Balance.Equal(decimal.RequireFromString("60.00")) {
		t.Fatalf("余额=%s 期望=60.00", got.Balance)
	}
	if got.Version != 2 {
		t.Fatalf("版本=%d 期望=2", got.Version)
	}
}

func TestUpdateBalanceUnknownAccount(t *testing.T) {
	db := newTestDB(t)
	repo := NewAccountRepository(db)

	err := repo.UpdateBalance(context.Background(), nil, 9999, decimal.Zero, 0)
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("期望 ErrAccountNotFound，实际 %v", err)
	}
}
