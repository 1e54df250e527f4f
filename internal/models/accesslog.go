package models

import (
	"time"

	"gorm.io/gorm"
)

// AccessLog — одна запись об открытии/закрытии замка. После записи не
// изменяется; удаляется только каскадом вместе с SmartLock. Вебхук
// вендора может доставить событие повторно — строки не дедуплицируются.
type AccessLog struct {
	gorm.Model
	SmartLockID uint `gorm:"index"`

	// Денормализованный id замка у вендора.
	LockID  int `gorm:"column:lock_id;index"`
	LockMac string

	RecordType            int
	RecordTypeDescription string

	Username    string
	KeyboardPwd string

	Success            int
	IsAccessSuccessful bool `gorm:"index"`

	BatteryPercentage int

	// Unix-время в миллисекундах, как пришло от вендора.
	LockEventLocalTime      int64
	ServerReceivedLocalTime int64

	// То же самое, приведённое к UTC-моментам.
	LockEventUtcTime      time.Time
	ServerReceivedUtcTime time.Time
}
