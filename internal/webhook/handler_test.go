package webhook

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"resido/internal/accesslog"
	"resido/internal/models"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memLocks struct {
	byTTLockID map[int]*models.SmartLock
}

func (m *memLocks) FindByTTLockID(id int) (*models.SmartLock, bool) {
	l, ok := m.byTTLockID[id]
	return l, ok
}

type memLogStore struct {
	mu      sync.Mutex
	entries []models.AccessLog
	battery map[uint]int
}

func (m *memLogStore) SaveBatch(entries []models.AccessLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *memLogStore) UpdateBattery(id uint, pct int, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.battery == nil {
		m.battery = map[uint]int{}
	}
	m.battery[id] = pct
	return nil
}

func newTestRouter(locks *memLocks, store *memLogStore) (*mux.Router, *accesslog.Ingestor) {
	in := accesslog.NewIngestor(store)
	r := mux.NewRouter()
	NewHTTP(locks, in).RegisterRoutes(r)
	return r, in
}

func postCallback(t *testing.T, r http.Handler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/webhook/callback", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCallbackIngestsRecord(t *testing.T) {
	lock := &models.SmartLock{TTLockID: 1001}
	lock.ID = 9
	locks := &memLocks{byTTLockID: map[int]*models.SmartLock{1001: lock}}
	store := &memLogStore{}
	router, in := newTestRouter(locks, store)

	form := url.Values{
		"notifyType": {"1"},
		"lockId":     {"1001"},
		"lockMac":    {"AA:BB:CC:DD:EE:FF"},
		"records":    {`[{"lockId":1001,"recordType":4,"success":1,"lockDate":1700000000000,"serverDate":1700000005000,"electricQuantity":77}]`},
	}
	w := postCallback(t, router, form)
	assert.Equal(t, http.StatusOK, w.Code)

	in.Wait()
	require.Len(t, store.entries, 1)
	entry := store.entries[0]
	assert.Equal(t, uint(9), entry.SmartLockID)
	assert.Equal(t, "Unlock by Passcode", entry.RecordTypeDescription, "описание из таблицы push-событий")
	assert.Equal(t, 77, entry.BatteryPercentage)
	assert.True(t, entry.IsAccessSuccessful)
	assert.Equal(t, 77, store.battery[9])
}

func TestCallbackEmptyRecords(t *testing.T) {
	locks := &memLocks{byTTLockID: map[int]*models.SmartLock{}}
	store := &memLogStore{}
	router, in := newTestRouter(locks, store)

	w := postCallback(t, router, url.Values{"lockId": {"1001"}, "records": {""}})
	assert.Equal(t, http.StatusOK, w.Code)

	in.Wait()
	assert.Empty(t, store.entries)
}

func TestCallbackUnknownDevice(t *testing.T) {
	locks := &memLocks{byTTLockID: map[int]*models.SmartLock{}}
	store := &memLogStore{}
	router, in := newTestRouter(locks, store)

	form := url.Values{
		"lockId":  {"4242"},
		"records": {`[{"recordType":4,"success":1,"lockDate":1,"serverDate":2}]`},
	}
	w := postCallback(t, router, form)
	assert.Equal(t, http.StatusOK, w.Code, "вебхук всегда подтверждается")

	in.Wait()
	assert.Empty(t, store.entries)
	assert.Empty(t, store.battery)
}

func TestCallbackMalformedRecords(t *testing.T) {
	locks := &memLocks{byTTLockID: map[int]*models.SmartLock{}}
	store := &memLogStore{}
	router, in := newTestRouter(locks, store)

	w := postCallback(t, router, url.Values{"lockId": {"1001"}, "records": {"{broken"}})
	assert.Equal(t, http.StatusOK, w.Code)

	in.Wait()
	assert.Empty(t, store.entries)
}

func TestUploadRecordUsesAppCatalog(t *testing.T) {
	lock := &models.SmartLock{TTLockID: 2002}
	lock.ID = 3
	locks := &memLocks{byTTLockID: map[int]*models.SmartLock{2002: lock}}
	store := &memLogStore{}
	router, in := newTestRouter(locks, store)

	body := `{"lockId":2002,"records":"[{\"recordType\":4,\"success\":1,\"lockDate\":1700000000000,\"serverDate\":1700000001000,\"electricQuantity\":55}]"}`
	req := httptest.NewRequest(http.MethodPost, "/api/webhook/uploadrecord", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	in.Wait()
	require.Len(t, store.entries, 1)
	assert.Equal(t, "Unlock by Passcode Success", store.entries[0].RecordTypeDescription)
	assert.Empty(t, store.entries[0].LockMac, "у upload-варианта нет MAC")
	assert.Equal(t, 55, store.battery[3])
}

func TestUploadRecordBadJSON(t *testing.T) {
	locks := &memLocks{byTTLockID: map[int]*models.SmartLock{}}
	store := &memLogStore{}
	router, _ := newTestRouter(locks, store)

	req := httptest.NewRequest(http.MethodPost, "/api/webhook/uploadrecord", strings.NewReader("{oops"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
