package accesslog

import (
	"fmt"
	"sync"
	"time"

	"resido/internal/logs"
	"resido/internal/models"
)

// Store — контракт хранилища журнала для инжестора.
type Store interface {
	// SaveBatch пишет пачку строк одной транзакцией.
	SaveBatch(entries []models.AccessLog) error
	// UpdateBattery обновляет заряд и момент последней проверки замка.
	UpdateBattery(smartLockID uint, percent int, at time.Time) error
}

// Ingestor обрабатывает пачку событий вебхука в фоне: по событию
// независимо (сбой одного не валит пачку), запись — одной транзакцией
// в конце. HTTP-ответ его не ждёт.
type Ingestor struct {
	store Store
	now   func() time.Time
	wg    sync.WaitGroup
}

func NewIngestor(store Store) *Ingestor {
	return &Ingestor{store: store, now: time.Now}
}

// Dispatch запускает фоновую обработку и сразу возвращается.
func (in *Ingestor) Dispatch(env Envelope, records []Record, lock *models.SmartLock) {
	in.wg.Add(1)
	go func() {
		defer in.wg.Done()
		in.run(env, records, lock)
	}()
}

// Wait дожидается всех запущенных пачек (тесты, graceful shutdown).
func (in *Ingestor) Wait() {
	in.wg.Wait()
}

func (in *Ingestor) run(env Envelope, records []Record, lock *models.SmartLock) {
	if lock == nil {
		// Замок не зарегистрирован локально: ничего не пишем, вендору
		// уже ответили 200.
		logs.Logger.Warnf("webhook: unknown lockId=%d, dropping %d record(s)", env.LockID, len(records))
		return
	}

	entries := make([]models.AccessLog, 0, len(records))
	battery := -1
	for _, rec := range records {
		entry, err := normalizeGuarded(env, rec, lock)
		if err != nil {
			logs.Logger.Warnf("webhook: lockId=%d record skipped: %v", env.LockID, err)
			continue
		}
		entries = append(entries, entry)
		battery = rec.ElectricQuantity
	}
	if len(entries) == 0 {
		return
	}

	if err := in.store.SaveBatch(entries); err != nil {
		logs.Logger.Errorf("webhook: lockId=%d save batch: %v", env.LockID, err)
		return
	}
	if battery >= 0 {
		if err := in.store.UpdateBattery(lock.ID, battery, in.now().UTC()); err != nil {
			logs.Logger.Errorf("webhook: lockId=%d battery update: %v", env.LockID, err)
		}
	}
}

// normalizeGuarded изолирует сбой одного события, включая панику.
func normalizeGuarded(env Envelope, rec Record, lock *models.SmartLock) (entry models.AccessLog, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return Normalize(env, rec, lock)
}
