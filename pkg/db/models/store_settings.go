package models

import "time"

// StoreSettingsID is the fixed primary key of the singleton settings row.
const StoreSettingsID = 1

type StoreSettings struct {
	ID           int       `gorm:"column:id;primaryKey;autoIncrement:false"`
	StoreName    string    `gorm:"column:store_name"`
	ContactEmail string    `gorm:"column:contact_email"`
	ContactPhone string    `gorm:"column:contact_phone"`
	Address      string    `gorm:"column:address"`
	Logo         string    `gorm:"column:logo"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (StoreSettings) TableName() string { return "store_settings" }
