package repo

import (
	"errors"

	"resido/internal/models"

	"gorm.io/gorm"
)

type TokenStore struct {
	db *gorm.DB
}

func NewTokenStore(db *gorm.DB) *TokenStore {
	return &TokenStore{db: db}
}

// Upsert — на пользователя ровно одна строка: повторный логин
// перезаписывает токен, а не добавляет новый.
func (s *TokenStore) Upsert(tok models.AccessRefreshToken) (models.AccessRefreshToken, error) {
	var m models.AccessRefreshToken
	tx := s.db.Where("user_id = ?", tok.UserID).First(&m)
	if tx.Error != nil {
		if !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return models.AccessRefreshToken{}, tx.Error
		}
		if err := s.db.Create(&tok).Error; err != nil {
			return models.AccessRefreshToken{}, err
		}
		return tok, nil
	}

	m.AccessToken = tok.AccessToken
	m.Uid = tok.Uid
	m.ExpiresIn = tok.ExpiresIn
	m.Scope = tok.Scope
	m.RefreshToken = tok.RefreshToken
	m.IssuedAtUtc = tok.IssuedAtUtc
	if err := s.db.Save(&m).Error; err != nil {
		return models.AccessRefreshToken{}, err
	}
	return m, nil
}

// FindByAccessToken возвращает токен и его владельца; (nil, nil, nil) —
// токен неизвестен.
func (s *TokenStore) FindByAccessToken(token string) (*models.AccessRefreshToken, *models.User, error) {
	if token == "" {
		return nil, nil, nil
	}
	var m models.AccessRefreshToken
	if err := s.db.Where("access_token = ?", token).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	var u models.User
	if err := s.db.First(&u, m.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	return &m, &u, nil
}

func (s *TokenStore) FindByUser(userID uint) (*models.AccessRefreshToken, error) {
	var m models.AccessRefreshToken
	if err := s.db.Where("user_id = ?", userID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}
