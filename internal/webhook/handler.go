package webhook

import (
	"encoding/json"
	"net/http"
	"strconv"

	"resido/internal/accesslog"
	"resido/internal/events"
	"resido/internal/logs"
	"resido/internal/models"

	"github.com/gorilla/mux"
)

// LockResolver ищет локальное зеркало замка по id вендора.
// Вебхук не аутентифицирован и не фильтруется по владельцу.
type LockResolver interface {
	FindByTTLockID(id int) (*models.SmartLock, bool)
}

// HTTP принимает push-коллбеки вендора. Жёсткий контракт: любой ответ,
// кроме 200, вендор считает сбоем и начинает повторные доставки, поэтому
// все ошибки здесь гасятся в лог и наружу уходит 200.
type HTTP struct {
	locks  LockResolver
	ingest *accesslog.Ingestor
}

func NewHTTP(locks LockResolver, ingest *accesslog.Ingestor) *HTTP {
	return &HTTP{locks: locks, ingest: ingest}
}

func (h *HTTP) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api/webhook").Subrouter()

	// POST /api/webhook/callback  (form: notifyType, lockId, lockMac, records)
	api.HandleFunc("/callback", h.handleCallback).Methods(http.MethodPost)

	// POST /api/webhook/uploadrecord  (json: lockId, records)
	api.HandleFunc("/uploadrecord", h.handleUploadRecord).Methods(http.MethodPost)
}

// handleCallback — события, дошедшие через сам замок/шлюз.
func (h *HTTP) handleCallback(w http.ResponseWriter, r *http.Request) {
	defer acknowledge(w)

	if err := r.ParseForm(); err != nil {
		logs.Logger.Warnf("webhook callback: bad form: %v", err)
		return
	}
	lockID, _ := strconv.Atoi(r.Form.Get("lockId"))
	notifyType, _ := strconv.Atoi(r.Form.Get("notifyType"))

	h.accept(accesslog.Envelope{
		NotifyType: notifyType,
		LockID:     lockID,
		LockMac:    r.Form.Get("lockMac"),
		Source:     events.LockOriginated,
	}, r.Form.Get("records"))
}

// handleUploadRecord — события, выгруженные приложением.
func (h *HTTP) handleUploadRecord(w http.ResponseWriter, r *http.Request) {
	defer acknowledge(w)

	var in struct {
		LockID  int    `json:"lockId"`
		Records string `json:"records"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		logs.Logger.Warnf("webhook uploadrecord: bad body: %v", err)
		return
	}

	h.accept(accesslog.Envelope{
		LockID: in.LockID,
		Source: events.AppOriginated,
	}, in.Records)
}

func (h *HTTP) accept(env accesslog.Envelope, raw string) {
	if raw == "" {
		logs.Logger.Debugf("webhook: lockId=%d empty records, acknowledged", env.LockID)
		return
	}
	records, err := accesslog.ParseRecords(raw)
	if err != nil {
		logs.Logger.Warnf("webhook: lockId=%d records parse: %v", env.LockID, err)
		return
	}
	if len(records) == 0 {
		return
	}

	lock, _ := h.locks.FindByTTLockID(env.LockID)
	// Ответ не ждёт записи: вендору важно быстрое подтверждение.
	h.ingest.Dispatch(env, records, lock)
}

func acknowledge(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
}
