package accesslog

import (
	"errors"
	"sync"
	"testing"
	"time"

	"resido/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu        sync.Mutex
	entries   []models.AccessLog
	batches   int
	battery   map[uint]int
	batteryAt map[uint]time.Time
	saveErr   error
}

func newMemStore() *memStore {
	return &memStore{battery: map[uint]int{}, batteryAt: map[uint]time.Time{}}
}

func (m *memStore) SaveBatch(entries []models.AccessLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.entries = append(m.entries, entries...)
	m.batches++
	return nil
}

func (m *memStore) UpdateBattery(id uint, pct int, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.battery[id] = pct
	m.batteryAt[id] = at
	return nil
}

func testLock(id uint, ttlockID int) *models.SmartLock {
	l := &models.SmartLock{TTLockID: ttlockID}
	l.ID = id
	return l
}

func TestIngestBatch(t *testing.T) {
	store := newMemStore()
	in := NewIngestor(store)

	env := Envelope{LockID: 1001, LockMac: "AA:BB"}
	records := []Record{
		{RecordType: 4, Success: 1, LockDate: 1000, ServerDate: 2000, ElectricQuantity: 80},
		{RecordType: 11, Success: 1, LockDate: 3000, ServerDate: 4000, ElectricQuantity: 79},
	}

	in.Dispatch(env, records, testLock(5, 1001))
	in.Wait()

	require.Len(t, store.entries, 2)
	assert.Equal(t, 1, store.batches, "одна транзакция на пачку")
	assert.Equal(t, 79, store.battery[5], "побеждает последняя запись")
}

func TestIngestPartialFailureIsolation(t *testing.T) {
	store := newMemStore()
	in := NewIngestor(store)

	env := Envelope{LockID: 1001}
	records := []Record{
		{RecordType: 4, LockDate: 1000, ServerDate: 2000, ElectricQuantity: 50},
		{RecordType: 11, LockDate: -1, ServerDate: 2000, ElectricQuantity: 49}, // битая
		{RecordType: 45, LockDate: 3000, ServerDate: 4000, ElectricQuantity: 48},
	}

	in.Dispatch(env, records, testLock(5, 1001))
	in.Wait()

	require.Len(t, store.entries, 2)
	assert.Equal(t, 4, store.entries[0].RecordType)
	assert.Equal(t, 45, store.entries[1].RecordType)
	assert.Equal(t, 48, store.battery[5])
}

func TestIngestUnknownLockIsNoop(t *testing.T) {
	store := newMemStore()
	in := NewIngestor(store)

	in.Dispatch(Envelope{LockID: 4242}, []Record{{RecordType: 4}}, nil)
	in.Wait()

	assert.Empty(t, store.entries)
	assert.Empty(t, store.battery)
}

func TestIngestSaveErrorSkipsBattery(t *testing.T) {
	store := newMemStore()
	store.saveErr = errors.New("db down")
	in := NewIngestor(store)

	in.Dispatch(Envelope{LockID: 1001}, []Record{{RecordType: 4, ElectricQuantity: 30}}, testLock(5, 1001))
	in.Wait()

	assert.Empty(t, store.entries)
	assert.Empty(t, store.battery, "заряд не трогаем, если пачка не записалась")
}
