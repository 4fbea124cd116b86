package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account 银行账户表
// 余额为 DECIMAL(9,2)，任何时刻不允许为负；余额只能经由 LedgerService 变更
type Account struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64           `gorm:"index;not null" json:"user_id"`
	Balance   decimal.Decimal `gorm:"type:decimal(9,2);not null;default:0" json:"balance"`
	Version   int             `gorm:"not null;default:0" json:"version"` // 乐观锁版本号
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Account) TableName() string {
	return "account"
}
