package account

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"resido/internal/auth"
	"resido/internal/logs"
	"resido/internal/models"
	"resido/internal/ttlock"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"
)

// UserStore — доступ к пользователям для аккаунт-флоу.
type UserStore interface {
	FindByID(id uint) (*models.User, error)
	FindByEmail(email string) (*models.User, error)
	FindByPhone(dialCode, phone string) (*models.User, error)
	Create(u *models.User) error
	Save(u *models.User) error
}

// VendorAuth — часть облака TTLock, нужная аккаунтам.
type VendorAuth interface {
	RegisterUser(ctx context.Context, username, md5Password string) (ttlock.RegisterResponse, error)
	GetAccessToken(ctx context.Context, username, md5Password string) (ttlock.AccessTokenResponse, error)
	ResetPassword(ctx context.Context, username, md5Password string) error
}

// ParamReader — чтение отложенных контактов после проверки кода смены.
type ParamReader interface {
	Get(userID uint, key string) (string, error)
	Upsert(userID uint, key, value string) error
}

type HTTP struct {
	users  UserStore
	tokens auth.TokenStore
	params ParamReader
	otp    *auth.OtpService
	vendor VendorAuth
	now    func() time.Time
}

func NewHTTP(users UserStore, tokens auth.TokenStore, params ParamReader, otp *auth.OtpService, vendor VendorAuth) *HTTP {
	return &HTTP{
		users:  users,
		tokens: tokens,
		params: params,
		otp:    otp,
		vendor: vendor,
		now:    time.Now,
	}
}

// RegisterOpenRoutes вешает публичные ручки точными путями на корневой
// роутер: сабраутер с общим префиксом перекрыл бы токен-гейт (mux не
// возвращается к следующим маршрутам после совпадения префикса).
func (h *HTTP) RegisterOpenRoutes(r *mux.Router) {
	r.HandleFunc("/api/account/registration", h.handleRegistration).Methods(http.MethodPost)
	r.HandleFunc("/api/account/createpassword", h.handleCreatePassword).Methods(http.MethodPost)
	r.HandleFunc("/api/account/login", h.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/account/sendotp", h.handleSendOtp).Methods(http.MethodPost)
	r.HandleFunc("/api/account/verifyotp", h.handleVerifyOtp).Methods(http.MethodPost)
	r.HandleFunc("/api/account/resetpassword", h.handleResetPassword).Methods(http.MethodPost)
}

// RegisterAuthorizedRoutes — ручки под токен-гейтом.
func (h *HTTP) RegisterAuthorizedRoutes(authorized *mux.Router) {
	acc := authorized.PathPrefix("/account").Subrouter()
	acc.HandleFunc("/profile", h.handleProfile).Methods(http.MethodGet)
	acc.HandleFunc("/updatephone", h.handleUpdatePhone).Methods(http.MethodPost)
	acc.HandleFunc("/updateemail", h.handleUpdateEmail).Methods(http.MethodPost)
}

// identity — общие поля запроса, по которым ищем пользователя.
type identity struct {
	Email       string `json:"email"`
	DialCode    string `json:"dialCode"`
	PhoneNumber string `json:"phoneNumber"`
}

func (h *HTTP) lookup(id identity) (*models.User, error) {
	if id.Email != "" {
		return h.users.FindByEmail(id.Email)
	}
	return h.users.FindByPhone(id.DialCode, id.PhoneNumber)
}

func decode(r *http.Request, into any) bool {
	return json.NewDecoder(r.Body).Decode(into) == nil
}

// ─────────────────────────── регистрация ───────────────────────────

func (h *HTTP) handleRegistration(w http.ResponseWriter, r *http.Request) {
	var in struct {
		identity
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}
	if !decode(r, &in) {
		models.WriteFail(w, "Invalid request body.")
		return
	}
	if in.Email == "" && in.PhoneNumber == "" {
		models.WriteFail(w, "Email or phone number is required.")
		return
	}

	if existing, err := h.lookup(in.identity); err != nil {
		models.WriteFail(w, "Unable to process registration.")
		return
	} else if existing != nil {
		models.WriteFail(w, "An account with these details already exists.")
		return
	}

	user := &models.User{
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Email:       strings.ToLower(strings.TrimSpace(in.Email)),
		DialCode:    in.DialCode,
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
	}
	if err := h.users.Create(user); err != nil {
		logs.Logger.Errorf("account: create user: %v", err)
		models.WriteFail(w, "Unable to process registration.")
		return
	}

	// подтверждение контакта сразу после регистрации
	purpose := auth.LoginSms
	if in.PhoneNumber == "" {
		purpose = auth.LoginEmail
	}
	if err := h.otp.Send(r.Context(), user, purpose); err != nil {
		h.writeOtpError(w, err)
		return
	}

	models.WriteOKMessage(w, "Verification code sent.", map[string]any{"userId": user.ID})
}

// handleCreatePassword завершает регистрацию: локальный пароль +
// учётка на стороне вендора.
func (h *HTTP) handleCreatePassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		identity
		Password string `json:"password"`
	}
	if !decode(r, &in) || in.Password == "" {
		models.WriteFail(w, "Invalid request body.")
		return
	}

	user, err := h.lookup(in.identity)
	if err != nil || user == nil {
		models.WriteFail(w, "Account not found.")
		return
	}
	if !user.IsPhoneVerified && !user.IsEmailVerified {
		code := models.CodePhoneNotVerified
		if in.Email != "" {
			code = models.CodeEmailNotVerified
		}
		models.WriteStatus(w, code, "Please verify your contact details first.")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		models.WriteFail(w, "Unable to set password.")
		return
	}

	// Вендор не принимает произвольные имена: генерируем своё и храним
	// вместе с md5-паролем, которым ходим к облаку.
	username := user.TTLockUsername
	md5pass := ttlock.MD5Hex(in.Password)
	if username == "" {
		username = "resido_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
		reg, err := h.vendor.RegisterUser(r.Context(), username, md5pass)
		if err != nil {
			logs.Logger.Errorf("account: vendor register user=%d: %v", user.ID, err)
			models.WriteFail(w, "Unable to create lock account.")
			return
		}
		if reg.Username != "" {
			username = reg.Username
		}
	} else {
		if err := h.vendor.ResetPassword(r.Context(), username, md5pass); err != nil {
			logs.Logger.Errorf("account: vendor reset user=%d: %v", user.ID, err)
			models.WriteFail(w, "Unable to update lock account.")
			return
		}
	}

	user.PasswordHash = string(hash)
	user.TTLockUsername = username
	user.TTLockPassword = md5pass
	if err := h.users.Save(user); err != nil {
		models.WriteFail(w, "Unable to set password.")
		return
	}
	models.WriteOKMessage(w, "Password created.", nil)
}

// ─────────────────────────── логин ───────────────────────────

func (h *HTTP) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		identity
		Password string `json:"password"`
	}
	if !decode(r, &in) {
		models.WriteFail(w, "Invalid request body.")
		return
	}

	user, err := h.lookup(in.identity)
	if err != nil {
		models.WriteFail(w, "Unable to process login.")
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)) != nil {
		models.WriteStatus(w, models.CodePermissionDenied, "Invalid credentials.")
		return
	}
	if user.Status != models.UserActive {
		models.WriteStatus(w, models.CodePermissionDenied, "Account is disabled.")
		return
	}
	if user.TTLockUsername == "" {
		models.WriteFail(w, "Account setup is incomplete.")
		return
	}

	vt, err := h.vendor.GetAccessToken(r.Context(), user.TTLockUsername, user.TTLockPassword)
	if err != nil {
		logs.Logger.Errorf("account: vendor token user=%d: %v", user.ID, err)
		models.WriteFail(w, "Unable to sign in to the lock service.")
		return
	}

	// повторный логин перезаписывает единственную запись токена
	tok, err := h.tokens.Upsert(models.AccessRefreshToken{
		UserID:       user.ID,
		AccessToken:  vt.AccessToken,
		Uid:          vt.Uid,
		ExpiresIn:    vt.ExpiresIn,
		Scope:        vt.Scope,
		RefreshToken: vt.RefreshToken,
		IssuedAtUtc:  h.now().UTC(),
	})
	if err != nil {
		logs.Logger.Errorf("account: token upsert user=%d: %v", user.ID, err)
		models.WriteFail(w, "Unable to process login.")
		return
	}

	now := h.now()
	user.LastLogin = &now
	user.FailedLoginAttempts = 0
	_ = h.users.Save(user)

	models.WriteOK(w, map[string]any{
		"accessToken": tok.AccessToken,
		"expiresIn":   tok.ExpiresIn,
		"fullName":    user.FullName(),
		"email":       user.Email,
	})
}

// ─────────────────────────── OTP ───────────────────────────

// purposeFromRequest: назначение + канал выбираются по типу операции и
// тому, какой контакт прислан.
func purposeFromRequest(kind string, hasEmail bool) (auth.Purpose, bool) {
	switch kind {
	case "", "login":
		if hasEmail {
			return auth.LoginEmail, true
		}
		return auth.LoginSms, true
	case "password_reset":
		if hasEmail {
			return auth.PasswordResetEmail, true
		}
		return auth.PasswordResetPhone, true
	default:
		return 0, false
	}
}

func (h *HTTP) handleSendOtp(w http.ResponseWriter, r *http.Request) {
	var in struct {
		identity
		Type string `json:"type"`
	}
	if !decode(r, &in) {
		models.WriteFail(w, "Invalid request body.")
		return
	}

	user, err := h.lookup(in.identity)
	if err != nil || user == nil {
		models.WriteFail(w, "Account not found.")
		return
	}
	purpose, ok := purposeFromRequest(in.Type, in.Email != "")
	if !ok {
		models.WriteFail(w, "Unknown OTP type.")
		return
	}

	if err := h.otp.Send(r.Context(), user, purpose); err != nil {
		h.writeOtpError(w, err)
		return
	}
	models.WriteOKMessage(w, "Verification code sent.", nil)
}

func (h *HTTP) handleVerifyOtp(w http.ResponseWriter, r *http.Request) {
	var in struct {
		identity
		Type string `json:"type"`
		Otp  string `json:"otp"`
	}
	if !decode(r, &in) {
		models.WriteFail(w, "Invalid request body.")
		return
	}

	user, err := h.lookup(in.identity)
	if err != nil || user == nil {
		models.WriteFail(w, "Account not found.")
		return
	}
	purpose, ok := purposeFromRequest(in.Type, in.Email != "")
	if !ok {
		models.WriteFail(w, "Unknown OTP type.")
		return
	}

	if err := h.otp.Verify(user, in.Otp, purpose); err != nil {
		h.writeOtpError(w, err)
		return
	}

	// успешный логин-код подтверждает контакт
	switch purpose {
	case auth.LoginSms:
		user.IsPhoneVerified = true
		_ = h.users.Save(user)
	case auth.LoginEmail:
		user.IsEmailVerified = true
		_ = h.users.Save(user)
	}

	models.WriteOKMessage(w, "Code verified.", nil)
}

// handleResetPassword: код смены пароля переживает проверку и гасится
// только здесь, после того как вендор принял новый пароль.
func (h *HTTP) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		identity
		Otp         string `json:"otp"`
		NewPassword string `json:"newPassword"`
	}
	if !decode(r, &in) || in.NewPassword == "" {
		models.WriteFail(w, "Invalid request body.")
		return
	}

	user, err := h.lookup(in.identity)
	if err != nil || user == nil {
		models.WriteFail(w, "Account not found.")
		return
	}

	purpose := auth.PasswordResetPhone
	if in.Email != "" {
		purpose = auth.PasswordResetEmail
	}
	if err := h.otp.Verify(user, in.Otp, purpose); err != nil {
		h.writeOtpError(w, err)
		return
	}

	md5pass := ttlock.MD5Hex(in.NewPassword)
	if user.TTLockUsername != "" {
		if err := h.vendor.ResetPassword(r.Context(), user.TTLockUsername, md5pass); err != nil {
			logs.Logger.Errorf("account: vendor reset user=%d: %v", user.ID, err)
			models.WriteFail(w, "Unable to reset password.")
			return
		}
		user.TTLockPassword = md5pass
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		models.WriteFail(w, "Unable to reset password.")
		return
	}
	user.PasswordHash = string(hash)
	if err := h.users.Save(user); err != nil {
		models.WriteFail(w, "Unable to reset password.")
		return
	}

	if err := h.otp.ClearPasswordReset(user); err != nil {
		logs.Logger.Warnf("account: clear reset otp user=%d: %v", user.ID, err)
	}
	models.WriteOKMessage(w, "Password has been reset.", nil)
}

// ─────────────────────────── профиль / смена контактов ───────────────────────────

func (h *HTTP) handleProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r)
	if !ok {
		models.WriteStatus(w, models.CodePermissionDenied, "Authorization token is missing.")
		return
	}
	u := id.User
	models.WriteOK(w, map[string]any{
		"firstName":       u.FirstName,
		"lastName":        u.LastName,
		"email":           u.Email,
		"dialCode":        u.DialCode,
		"phoneNumber":     u.PhoneNumber,
		"isPhoneVerified": u.IsPhoneVerified,
		"isEmailVerified": u.IsEmailVerified,
	})
}

// handleUpdatePhone: код уходит на новый номер; сам номер применяется
// после проверки.
func (h *HTTP) handleUpdatePhone(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r)
	if !ok {
		models.WriteStatus(w, models.CodePermissionDenied, "Authorization token is missing.")
		return
	}
	var in struct {
		NewDialCode    string `json:"newDialCode"`
		NewPhoneNumber string `json:"newPhoneNumber"`
		Otp            string `json:"otp"`
	}
	if !decode(r, &in) {
		models.WriteFail(w, "Invalid request body.")
		return
	}
	user := id.User

	// без кода — отправка; с кодом — применение
	if in.Otp == "" {
		if in.NewPhoneNumber == "" {
			models.WriteFail(w, "New phone number is required.")
			return
		}
		if err := h.otp.SendContactUpdate(r.Context(), user, auth.UpdatePhone, "", in.NewDialCode, in.NewPhoneNumber); err != nil {
			h.writeOtpError(w, err)
			return
		}
		models.WriteOKMessage(w, "Verification code sent to the new number.", nil)
		return
	}

	if err := h.otp.Verify(user, in.Otp, auth.UpdatePhone); err != nil {
		h.writeOtpError(w, err)
		return
	}
	phone, _ := h.params.Get(user.ID, auth.ParamNewPhoneToUpdate)
	dial, _ := h.params.Get(user.ID, auth.ParamNewDialCodeToUpdate)
	if phone == "" {
		models.WriteFail(w, "No pending phone update.")
		return
	}
	user.DialCode = dial
	user.PhoneNumber = phone
	user.IsPhoneVerified = true
	if err := h.users.Save(user); err != nil {
		models.WriteFail(w, "Unable to update phone number.")
		return
	}
	_ = h.params.Upsert(user.ID, auth.ParamNewPhoneToUpdate, "")
	_ = h.params.Upsert(user.ID, auth.ParamNewDialCodeToUpdate, "")
	models.WriteOKMessage(w, "Phone number updated.", nil)
}

func (h *HTTP) handleUpdateEmail(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r)
	if !ok {
		models.WriteStatus(w, models.CodePermissionDenied, "Authorization token is missing.")
		return
	}
	var in struct {
		NewEmail string `json:"newEmail"`
		Otp      string `json:"otp"`
	}
	if !decode(r, &in) {
		models.WriteFail(w, "Invalid request body.")
		return
	}
	user := id.User

	if in.Otp == "" {
		if in.NewEmail == "" {
			models.WriteFail(w, "New email is required.")
			return
		}
		if err := h.otp.SendContactUpdate(r.Context(), user, auth.UpdateEmail, in.NewEmail, "", ""); err != nil {
			h.writeOtpError(w, err)
			return
		}
		models.WriteOKMessage(w, "Verification code sent to the new email.", nil)
		return
	}

	if err := h.otp.Verify(user, in.Otp, auth.UpdateEmail); err != nil {
		h.writeOtpError(w, err)
		return
	}
	email, _ := h.params.Get(user.ID, auth.ParamNewEmailToUpdate)
	if email == "" {
		models.WriteFail(w, "No pending email update.")
		return
	}
	user.Email = strings.ToLower(email)
	user.IsEmailVerified = true
	if err := h.users.Save(user); err != nil {
		models.WriteFail(w, "Unable to update email.")
		return
	}
	_ = h.params.Upsert(user.ID, auth.ParamNewEmailToUpdate, "")
	models.WriteOKMessage(w, "Email updated.", nil)
}

// writeOtpError переводит ошибки OTP в конверт клиента.
func (h *HTTP) writeOtpError(w http.ResponseWriter, err error) {
	var de *auth.DeliveryError
	switch {
	case errors.Is(err, auth.ErrCooldown):
		models.WriteFail(w, "Please wait before requesting another code.")
	case errors.Is(err, auth.ErrNotIssued):
		models.WriteFail(w, "No verification code was requested.")
	case errors.Is(err, auth.ErrExpired):
		models.WriteFail(w, "Verification code has expired.")
	case errors.Is(err, auth.ErrMismatch):
		models.WriteFail(w, "Verification code is incorrect.")
	case errors.As(err, &de):
		models.WriteStatus(w, models.CodeSmsSendFailure, "Unable to deliver the verification code.")
	default:
		logs.Logger.Errorf("account: otp: %v", err)
		models.WriteFail(w, "Unable to process the request.")
	}
}
