package locks

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"resido/internal/auth"
	"resido/internal/logs"
	"resido/internal/models"
	"resido/internal/ttlock"

	"github.com/gorilla/mux"
)

// MirrorStore — локальные зеркала замков.
type MirrorStore interface {
	FindByTTLockID(id int) (*models.SmartLock, bool)
	ListByUser(userID uint) ([]models.SmartLock, error)
	Upsert(lock models.SmartLock) (models.SmartLock, error)
	Rename(id uint, alias string) error
	Delete(id uint) error
}

// LogStore — локальный журнал событий.
type LogStore interface {
	QueryLogs(smartLockID uint, successful *bool, page, size int) ([]models.AccessLog, int64, error)
}

// VendorLocks — операции облака TTLock над замками.
type VendorLocks interface {
	ListLocks(ctx context.Context, accessToken string, pageNo, pageSize int, alias string) (ttlock.LockPage, error)
	GetLockDetail(ctx context.Context, accessToken string, lockID int) (ttlock.LockDetail, error)
	InitializeLock(ctx context.Context, accessToken, lockData, lockAlias string) (ttlock.InitializeResult, error)
	DeleteLock(ctx context.Context, accessToken string, lockID int) error
	RenameLock(ctx context.Context, accessToken string, lockID int, alias string) error
	ListAccessRecords(ctx context.Context, accessToken string, lockID, pageNo, pageSize int) (ttlock.RecordPage, error)
}

// HTTP — проксирующие эндпоинты замков. Все маршруты висят на
// авторизованном сабраутере: до вендора доходят только валидные токены.
type HTTP struct {
	mirrors MirrorStore
	logsDB  LogStore
	vendor  VendorLocks
}

func NewHTTP(mirrors MirrorStore, logsDB LogStore, vendor VendorLocks) *HTTP {
	return &HTTP{mirrors: mirrors, logsDB: logsDB, vendor: vendor}
}

func (h *HTTP) RegisterRoutes(authorized *mux.Router) {
	api := authorized.PathPrefix("/locks").Subrouter()

	api.HandleFunc("", h.handleList).Methods(http.MethodGet)
	api.HandleFunc("/initialize", h.handleInitialize).Methods(http.MethodPost)
	api.HandleFunc("/{lockId:[0-9]+}", h.handleDetail).Methods(http.MethodGet)
	api.HandleFunc("/{lockId:[0-9]+}/rename", h.handleRename).Methods(http.MethodPost)
	api.HandleFunc("/{lockId:[0-9]+}", h.handleDelete).Methods(http.MethodDelete)
	api.HandleFunc("/{lockId:[0-9]+}/accesslogs", h.handleAccessLogs).Methods(http.MethodGet)
	api.HandleFunc("/{lockId:[0-9]+}/records", h.handleVendorRecords).Methods(http.MethodGet)
}

func lockIDVar(r *http.Request) int {
	id, _ := strconv.Atoi(mux.Vars(r)["lockId"])
	return id
}

func pageParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("pageNo"))
	size, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	return page, size
}

// resolveOwned находит зеркало и проверяет владельца.
func (h *HTTP) resolveOwned(r *http.Request, id *auth.Identity) (*models.SmartLock, bool) {
	lock, ok := h.mirrors.FindByTTLockID(lockIDVar(r))
	if !ok || lock.UserID != id.User.ID {
		return nil, false
	}
	return lock, true
}

// ─────────────────────────── проксируемые операции ───────────────────────────

func (h *HTTP) handleList(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r)
	page, size := pageParams(r)

	vendorPage, err := h.vendor.ListLocks(r.Context(), id.Token.AccessToken, page, size, r.URL.Query().Get("alias"))
	if err != nil {
		h.writeVendorError(w, "list locks", err)
		return
	}

	// мержим локальные поля (категория, заряд, уведомления) в ответ
	mirrors, _ := h.mirrors.ListByUser(id.User.ID)
	byVendorID := make(map[int]models.SmartLock, len(mirrors))
	for _, m := range mirrors {
		byVendorID[m.TTLockID] = m
	}

	type lockView struct {
		ttlock.Lock
		Category         string `json:"category,omitempty"`
		Location         string `json:"location,omitempty"`
		IsNotificationOn bool   `json:"isNotificationOn"`
	}
	out := make([]lockView, 0, len(vendorPage.List))
	for _, l := range vendorPage.List {
		v := lockView{Lock: l}
		if m, ok := byVendorID[l.LockID]; ok {
			v.Category = m.Category
			v.Location = m.Location
			v.IsNotificationOn = m.IsNotificationOn
		}
		out = append(out, v)
	}

	models.WriteOK(w, map[string]any{
		"list":       out,
		"pageNo":     vendorPage.PageNo,
		"pagesTotal": vendorPage.PagesTotal,
		"total":      vendorPage.Total,
	})
}

func (h *HTTP) handleDetail(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r)

	detail, err := h.vendor.GetLockDetail(r.Context(), id.Token.AccessToken, lockIDVar(r))
	if err != nil {
		h.writeVendorError(w, "lock detail", err)
		return
	}

	// обновляем зеркало попутно, если оно есть
	if lock, ok := h.resolveOwned(r, id); ok && detail.ElectricQuantity > 0 {
		lock.ElectricQuantity = detail.ElectricQuantity
		lock.LastBatteryCheck = time.Now().UTC()
		_, _ = h.mirrors.Upsert(*lock)
	}

	models.WriteOK(w, detail)
}

// handleInitialize привязывает замок: вендор + локальное зеркало.
func (h *HTTP) handleInitialize(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r)

	var in struct {
		LockData string `json:"lockData"`
		Alias    string `json:"lockAlias"`
		Category string `json:"category"`
		Location string `json:"location"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.LockData == "" {
		models.WriteFail(w, "lockData is required.")
		return
	}

	res, err := h.vendor.InitializeLock(r.Context(), id.Token.AccessToken, in.LockData, in.Alias)
	if err != nil {
		h.writeVendorError(w, "initialize lock", err)
		return
	}

	mirror, err := h.mirrors.Upsert(models.SmartLock{
		TTLockID: res.LockID,
		Alias:    in.Alias,
		Category: in.Category,
		Location: in.Location,
		LockData: in.LockData,
		UserID:   id.User.ID,
	})
	if err != nil {
		logs.Logger.Errorf("locks: mirror lockId=%d: %v", res.LockID, err)
		models.WriteFail(w, "Lock initialized but could not be saved locally.")
		return
	}

	models.WriteOK(w, map[string]any{
		"lockId": res.LockID,
		"keyId":  res.KeyID,
		"id":     mirror.ID,
	})
}

func (h *HTTP) handleRename(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r)

	var in struct {
		Alias string `json:"lockAlias"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Alias == "" {
		models.WriteFail(w, "lockAlias is required.")
		return
	}

	vendorID := lockIDVar(r)
	if err := h.vendor.RenameLock(r.Context(), id.Token.AccessToken, vendorID, in.Alias); err != nil {
		h.writeVendorError(w, "rename lock", err)
		return
	}
	if lock, ok := h.resolveOwned(r, id); ok {
		if err := h.mirrors.Rename(lock.ID, in.Alias); err != nil {
			logs.Logger.Warnf("locks: rename mirror lockId=%d: %v", vendorID, err)
		}
	}
	models.WriteOKMessage(w, "Lock renamed.", nil)
}

// handleDelete удаляет замок у вендора и локально; журнал уходит
// каскадом вместе с зеркалом.
func (h *HTTP) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r)
	vendorID := lockIDVar(r)

	if err := h.vendor.DeleteLock(r.Context(), id.Token.AccessToken, vendorID); err != nil {
		h.writeVendorError(w, "delete lock", err)
		return
	}
	if lock, ok := h.resolveOwned(r, id); ok {
		if err := h.mirrors.Delete(lock.ID); err != nil {
			logs.Logger.Errorf("locks: delete mirror lockId=%d: %v", vendorID, err)
			models.WriteFail(w, "Lock deleted but local history could not be removed.")
			return
		}
	}
	models.WriteOKMessage(w, "Lock deleted.", nil)
}

// ─────────────────────────── журнал ───────────────────────────

// handleAccessLogs читает локальный журнал (наполняется вебхуком), с
// опциональным фильтром по успешности.
func (h *HTTP) handleAccessLogs(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r)

	lock, ok := h.resolveOwned(r, id)
	if !ok {
		models.WriteFail(w, "Lock not found.")
		return
	}

	var successful *bool
	if raw := r.URL.Query().Get("successful"); raw != "" {
		v := raw == "true" || raw == "1"
		successful = &v
	}
	page, size := pageParams(r)

	entries, total, err := h.logsDB.QueryLogs(lock.ID, successful, page, size)
	if err != nil {
		logs.Logger.Errorf("locks: query logs lockId=%d: %v", lock.TTLockID, err)
		models.WriteFail(w, "Unable to load access history.")
		return
	}

	type logView struct {
		RecordType  int    `json:"recordType"`
		Description string `json:"description"`
		Username    string `json:"username,omitempty"`
		Success     bool   `json:"success"`
		Battery     int    `json:"battery"`
		LockTimeUtc string `json:"lockTimeUtc"`
	}
	out := make([]logView, 0, len(entries))
	for _, e := range entries {
		out = append(out, logView{
			RecordType:  e.RecordType,
			Description: e.RecordTypeDescription,
			Username:    e.Username,
			Success:     e.IsAccessSuccessful,
			Battery:     e.BatteryPercentage,
			LockTimeUtc: e.LockEventUtcTime.Format(time.RFC3339),
		})
	}

	models.WriteOK(w, map[string]any{
		"list":  out,
		"total": total,
	})
}

// handleVendorRecords проксирует историю, которую хранит сам вендор.
func (h *HTTP) handleVendorRecords(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r)
	page, size := pageParams(r)

	recs, err := h.vendor.ListAccessRecords(r.Context(), id.Token.AccessToken, lockIDVar(r), page, size)
	if err != nil {
		h.writeVendorError(w, "vendor records", err)
		return
	}
	models.WriteOK(w, recs)
}

func (h *HTTP) writeVendorError(w http.ResponseWriter, op string, err error) {
	logs.Logger.Errorf("locks: %s: %v", op, err)
	models.WriteFail(w, "The lock service could not complete the request.")
}
