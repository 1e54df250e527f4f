package repo

import (
	"errors"

	"resido/internal/models"

	"gorm.io/gorm"
)

type ParamStore struct {
	db *gorm.DB
}

func NewParamStore(db *gorm.DB) *ParamStore {
	return &ParamStore{db: db}
}

func (s *ParamStore) Get(userID uint, key string) (string, error) {
	var m models.UserParameter
	err := s.db.Where("user_id = ? AND param_key = ?", userID, key).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return m.Value, nil
}

func (s *ParamStore) Upsert(userID uint, key, value string) error {
	var m models.UserParameter
	tx := s.db.Where("user_id = ? AND param_key = ?", userID, key).First(&m)
	if tx.Error != nil {
		if !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return tx.Error
		}
		return s.db.Create(&models.UserParameter{UserID: userID, ParamKey: key, Value: value}).Error
	}
	return s.db.Model(&m).Update("value", value).Error
}

// ClearIfMatch — условный UPDATE: код гасится, только если его ещё
// никто не потребил. Две параллельные проверки — один победитель.
func (s *ParamStore) ClearIfMatch(userID uint, key, expect string) (bool, error) {
	if expect == "" {
		return false, nil
	}
	tx := s.db.Model(&models.UserParameter{}).
		Where("user_id = ? AND param_key = ? AND value = ?", userID, key, expect).
		Update("value", "")
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}
