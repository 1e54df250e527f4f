package models

import (
	"time"

	"gorm.io/gorm"
)

// SmartLock — локальное зеркало замка из облака TTLock.
// Не больше одной активной записи на TTLockID.
type SmartLock struct {
	gorm.Model
	TTLockID int    `gorm:"column:ttlock_id;uniqueIndex"`
	Name     string
	Mac      string `gorm:"column:mac"`
	Alias    string

	Category string
	Location string

	HasGateway   int
	FeatureValue string
	LockData     string

	ElectricQuantity int
	LastBatteryCheck time.Time

	IsNotificationOn bool

	UserID uint `gorm:"index"`

	AccessLogs []AccessLog `gorm:"constraint:OnDelete:CASCADE"`
}
