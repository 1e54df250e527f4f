package repo

import (
	"time"

	"resido/internal/models"

	"gorm.io/gorm"
)

type AccessLogStore struct {
	db *gorm.DB
}

func NewAccessLogStore(db *gorm.DB) *AccessLogStore {
	return &AccessLogStore{db: db}
}

// SaveBatch пишет пачку событий одной транзакцией: либо вся пачка,
// либо ничего.
func (s *AccessLogStore) SaveBatch(entries []models.AccessLog) error {
	if len(entries) == 0 {
		return nil
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&entries).Error
	})
}

func (s *AccessLogStore) UpdateBattery(smartLockID uint, percent int, at time.Time) error {
	return s.db.Model(&models.SmartLock{}).
		Where("id = ?", smartLockID).
		Updates(map[string]any{
			"electric_quantity":  percent,
			"last_battery_check": at,
		}).Error
}

// LogQuery — фильтры выборки журнала.
type LogQuery struct {
	SmartLockID uint
	// nil — без фильтра, иначе только успешные/неуспешные
	Successful *bool
	Page       int
	PageSize   int
}

// QueryLogs — форма под хендлеры: фильтр по успешности опционален.
func (s *AccessLogStore) QueryLogs(smartLockID uint, successful *bool, page, size int) ([]models.AccessLog, int64, error) {
	return s.Query(LogQuery{
		SmartLockID: smartLockID,
		Successful:  successful,
		Page:        page,
		PageSize:    size,
	})
}

// Query — свежие события первыми.
func (s *AccessLogStore) Query(q LogQuery) ([]models.AccessLog, int64, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	size := q.PageSize
	if size < 1 || size > 200 {
		size = 20
	}

	tx := s.db.Model(&models.AccessLog{}).Where("smart_lock_id = ?", q.SmartLockID)
	if q.Successful != nil {
		tx = tx.Where("is_access_successful = ?", *q.Successful)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []models.AccessLog
	err := tx.Order("lock_event_utc_time DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&out).Error
	return out, total, err
}
