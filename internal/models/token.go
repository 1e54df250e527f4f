package models

import (
	"time"

	"gorm.io/gorm"
)

// AccessRefreshToken — bearer-токен вендора, выданный пользователю при
// логине. На пользователя хранится ровно одна запись: повторный логин
// перезаписывает её (upsert).
type AccessRefreshToken struct {
	gorm.Model
	UserID uint `gorm:"uniqueIndex"`

	AccessToken  string `gorm:"index"`
	Uid          int64  `gorm:"column:uid"`
	ExpiresIn    int64  // заявленное вендором время жизни, сек
	Scope        string
	RefreshToken string

	// UTC-момент выдачи/сохранения токена.
	IssuedAtUtc time.Time
}

// IsValidAt — строго now < issuedAt + expiresIn (в UTC).
func (t *AccessRefreshToken) IsValidAt(now time.Time) bool {
	if t.AccessToken == "" {
		return false
	}
	expiry := t.IssuedAtUtc.Add(time.Duration(t.ExpiresIn) * time.Second)
	return now.UTC().Before(expiry)
}

func (t *AccessRefreshToken) IsValid() bool {
	return t.IsValidAt(time.Now())
}
