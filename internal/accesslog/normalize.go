package accesslog

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"resido/internal/events"
	"resido/internal/models"
)

// Envelope — внешний конверт вебхука (без самих событий).
type Envelope struct {
	NotifyType int
	LockID     int
	// Пусто для upload-варианта.
	LockMac string
	Source  events.Source
}

// Record — одно сырое событие из JSON-массива records.
// LockID в записи дублирует конверт и игнорируется в пользу конверта.
type Record struct {
	LockID           int    `json:"lockId"`
	RecordType       int    `json:"recordType"`
	Success          int    `json:"success"`
	Username         string `json:"username"`
	KeyboardPwd      string `json:"keyboardPwd"`
	LockDate         int64  `json:"lockDate"`
	ElectricQuantity int    `json:"electricQuantity"`
	ServerDate       int64  `json:"serverDate"`
}

// ParseRecords разбирает JSON-строку поля records.
func ParseRecords(raw string) ([]Record, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var out []Record
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ToUTC: unix-миллисекунды -> UTC-момент. Всегда трактуем как Unix ms,
// без локальных таймзон.
func ToUTC(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func FromUTC(t time.Time) int64 {
	return t.UnixMilli()
}

// Normalize превращает сырое событие в строку журнала доступа.
// Описание резолвится по источнику конверта и больше не пересчитывается.
func Normalize(env Envelope, rec Record, lock *models.SmartLock) (models.AccessLog, error) {
	if lock == nil {
		return models.AccessLog{}, fmt.Errorf("smart lock not resolved for lockId=%d", env.LockID)
	}
	if rec.LockDate < 0 || rec.ServerDate < 0 {
		return models.AccessLog{}, fmt.Errorf("record type %d: negative timestamp", rec.RecordType)
	}

	return models.AccessLog{
		SmartLockID:           lock.ID,
		LockID:                env.LockID,
		LockMac:               env.LockMac,
		RecordType:            rec.RecordType,
		RecordTypeDescription: events.Describe(rec.RecordType, env.Source),
		Username:              rec.Username,
		KeyboardPwd:           rec.KeyboardPwd,
		Success:               rec.Success,
		// Выводим явно из success; в старой версии поле оставалось
		// незаполненным и ломало поиск по флагу.
		IsAccessSuccessful:      rec.Success != 0,
		BatteryPercentage:       rec.ElectricQuantity,
		LockEventLocalTime:      rec.LockDate,
		ServerReceivedLocalTime: rec.ServerDate,
		LockEventUtcTime:        ToUTC(rec.LockDate),
		ServerReceivedUtcTime:   ToUTC(rec.ServerDate),
	}, nil
}
