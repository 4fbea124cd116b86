package model

import (
	"time"
)

// User 用户表
// 密码只保存 bcrypt 哈希，注销用户不做物理删除，只置 is_active = false
type User struct {
	ID         int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	FirstName  string     `gorm:"type:varchar(255);not null" json:"first_name"`
	LastName   string     `gorm:"type:varchar(255)" json:"last_name"`
	MiddleName string     `gorm:"type:varchar(255)" json:"middle_name"`
	Email      string     `gorm:"type:varchar(60);uniqueIndex;not null" json:"email"`
	Password   string     `gorm:"type:varchar(128);not null" json:"-"` // bcrypt 哈希
	Country    string     `gorm:"type:varchar(255)" json:"country"`
	City       string     `gorm:"type:varchar(255)" json:"city"`
	IsActive   bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "user"
}

// AuthToken 接口令牌表
// 注册或登录时显式签发，过期令牌由后台任务定期清理
type AuthToken struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Key       string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"key"`
	UserID    int64     `gorm:"index;not null" json:"user_id"`
	ExpiredAt time.Time `gorm:"not null" json:"expired_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (AuthToken) TableName() string {
	return "auth_token"
}
