package models

import (
	"time"

	"github.com/tortasnery/storefront/pkg/enums"
)

// User is a back-office admin or a registered storefront customer.
type User struct {
	ID           int64          `gorm:"column:id;primaryKey;autoIncrement"`
	FullName     string         `gorm:"column:full_name;not null"`
	Email        string         `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash string         `gorm:"column:password_hash;not null"`
	Role         enums.UserRole `gorm:"column:role;not null"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	LastLogin    *time.Time     `gorm:"column:last_login"`
}

func (User) TableName() string { return "users" }
