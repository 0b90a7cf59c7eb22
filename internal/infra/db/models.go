package db

import (
	"time"

	"gorm.io/gorm"
)

type userModel struct {
	ID        uint   `gorm:"primaryKey"`
	UID       string `gorm:"uniqueIndex;not null"`
	Email     string `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (userModel) TableName() string { return "users" }

type thresholdModel struct {
	ID        uint   `gorm:"primaryKey"`
	OwnerUID  string `gorm:"index:idx_thresholds_owner_enabled_deleted,priority:1;not null"`
	Ticker    string `gorm:"not null"`
	Target    string `gorm:"not null"`
	Condition string `gorm:"not null"`
	Enabled   bool   `gorm:"index:idx_thresholds_owner_enabled_deleted,priority:2"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index:idx_thresholds_owner_enabled_deleted,priority:3"`
}

func (thresholdModel) TableName() string { return "thresholds" }
