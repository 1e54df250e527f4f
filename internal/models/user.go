package models

import (
	"time"

	"gorm.io/gorm"
)

type UserStatus int

const (
	UserActive UserStatus = iota
	UserDisabledByAdmin
	UserDeleted
)

type User struct {
	gorm.Model
	FirstName string
	LastName  string
	Email     string `gorm:"index"`
	DialCode  string
	// номер без кода страны
	PhoneNumber string `gorm:"index"`

	Status          UserStatus `gorm:"default:0"`
	IsPhoneVerified bool
	IsEmailVerified bool

	AddressLine1 string
	State        string
	City         string
	ZipCode      string

	// Учётка на стороне TTLock (создаётся при установке пароля).
	TTLockUsername string `gorm:"column:ttlock_username;index"`
	TTLockPassword string `gorm:"column:ttlock_password"` // md5-хэш, как требует вендор

	PasswordHash string

	FailedLoginAttempts int
	LastLogin           *time.Time

	SmartLocks []SmartLock     `gorm:"constraint:OnDelete:CASCADE"`
	Parameters []UserParameter `gorm:"constraint:OnDelete:CASCADE"`
}

func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// UserParameter — типизированный key/value на пользователе (OTP-коды,
// отложенные смены телефона/почты). Ключи хранятся в нижнем регистре.
type UserParameter struct {
	gorm.Model
	UserID   uint   `gorm:"index:idx_user_param,priority:1"`
	ParamKey string `gorm:"column:param_key;index:idx_user_param,priority:2"`
	Value    string
}

func (UserParameter) TableName() string { return "user_parameters" }
