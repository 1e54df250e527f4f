package repo

import (
	"errors"
	"time"

	"resido/internal/models"

	"gorm.io/gorm"
)

type SmartLockStore struct {
	db *gorm.DB
}

func NewSmartLockStore(db *gorm.DB) *SmartLockStore {
	return &SmartLockStore{db: db}
}

// FindByTTLockID — поиск зеркала по id вендора (используется вебхуком).
func (s *SmartLockStore) FindByTTLockID(id int) (*models.SmartLock, bool) {
	var m models.SmartLock
	if err := s.db.Where("ttlock_id = ?", id).First(&m).Error; err != nil {
		return nil, false
	}
	return &m, true
}

func (s *SmartLockStore) FindByIDForUser(id, userID uint) (*models.SmartLock, bool) {
	var m models.SmartLock
	if err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&m).Error; err != nil {
		return nil, false
	}
	return &m, true
}

func (s *SmartLockStore) ListByUser(userID uint) ([]models.SmartLock, error) {
	var out []models.SmartLock
	err := s.db.Where("user_id = ?", userID).Order("id").Find(&out).Error
	return out, err
}

// Upsert — создаёт/обновляет зеркало по ttlock_id. Повторная
// инициализация того же замка обновляет существующую строку, а не
// плодит дубликаты.
func (s *SmartLockStore) Upsert(lock models.SmartLock) (models.SmartLock, error) {
	var m models.SmartLock
	tx := s.db.Where("ttlock_id = ?", lock.TTLockID).First(&m)
	if tx.Error != nil {
		if !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return models.SmartLock{}, tx.Error
		}
		if err := s.db.Create(&lock).Error; err != nil {
			return models.SmartLock{}, err
		}
		return lock, nil
	}

	m.Name = lock.Name
	m.Alias = lock.Alias
	m.Mac = lock.Mac
	m.UserID = lock.UserID
	m.HasGateway = lock.HasGateway
	m.FeatureValue = lock.FeatureValue
	if lock.LockData != "" {
		m.LockData = lock.LockData
	}
	if lock.ElectricQuantity > 0 {
		m.ElectricQuantity = lock.ElectricQuantity
		m.LastBatteryCheck = time.Now().UTC()
	}
	if err := s.db.Save(&m).Error; err != nil {
		return models.SmartLock{}, err
	}
	return m, nil
}

func (s *SmartLockStore) Rename(id uint, alias string) error {
	return s.db.Model(&models.SmartLock{}).Where("id = ?", id).Update("alias", alias).Error
}

func (s *SmartLockStore) SetNotification(id uint, on bool) error {
	return s.db.Model(&models.SmartLock{}).Where("id = ?", id).Update("is_notification_on", on).Error
}

// Delete удаляет зеркало вместе с журналом (одна транзакция; каскад на
// уровне схемы не гарантирован на sqlite-подобных бэкендах).
func (s *SmartLockStore) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("smart_lock_id = ?", id).Delete(&models.AccessLog{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.SmartLock{}, id).Error
	})
}
