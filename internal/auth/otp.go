package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"resido/internal/logs"
	"resido/internal/models"
	"resido/internal/notify"
)

// OtpService — конечный автомат одноразовых кодов:
// NoCodeIssued -> CodeIssued -> {Verified | Expired | Superseded}.
type OtpService struct {
	params ParamStore
	sms    notify.SmsSender
	mail   notify.MailSender

	resendCooldown time.Duration
	verifyWindow   time.Duration

	now func() time.Time
}

func NewOtpService(params ParamStore, sms notify.SmsSender, mail notify.MailSender, resendCooldown, verifyWindow time.Duration) *OtpService {
	if resendCooldown <= 0 {
		resendCooldown = 120 * time.Second
	}
	if verifyWindow <= 0 {
		verifyWindow = 50 * time.Minute
	}
	return &OtpService{
		params:         params,
		sms:            sms,
		mail:           mail,
		resendCooldown: resendCooldown,
		verifyWindow:   verifyWindow,
		now:            time.Now,
	}
}

// Send генерирует код, сохраняет его под ключами назначения и отправляет
// по каналу назначения (контакты берутся из профиля пользователя).
func (s *OtpService) Send(ctx context.Context, user *models.User, purpose Purpose) error {
	return s.send(ctx, user, purpose, "", "", "")
}

// SendContactUpdate — вариант для смены телефона/почты: код уходит на
// НОВЫЙ контакт, а сам контакт откладывается в параметры до проверки.
func (s *OtpService) SendContactUpdate(ctx context.Context, user *models.User, purpose Purpose, newEmail, newDialCode, newPhone string) error {
	if newPhone != "" {
		if err := s.params.Upsert(user.ID, ParamNewDialCodeToUpdate, newDialCode); err != nil {
			return err
		}
		if err := s.params.Upsert(user.ID, ParamNewPhoneToUpdate, newPhone); err != nil {
			return err
		}
	}
	if newEmail != "" {
		if err := s.params.Upsert(user.ID, ParamNewEmailToUpdate, newEmail); err != nil {
			return err
		}
	}
	return s.send(ctx, user, purpose, newEmail, newDialCode, newPhone)
}

func (s *OtpService) send(ctx context.Context, user *models.User, purpose Purpose, overrideEmail, overrideDialCode, overridePhone string) error {
	otpKey, sendTimeKey := purpose.keys()

	// Окно переотправки.
	lastRaw, err := s.params.Get(user.ID, sendTimeKey)
	if err != nil {
		return err
	}
	if lastRaw != "" {
		if last, perr := strconv.ParseInt(lastRaw, 10, 64); perr == nil {
			if s.now().UTC().Sub(time.Unix(0, last).UTC()) < s.resendCooldown {
				return ErrCooldown
			}
		}
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("otp generate: %w", err)
	}

	// Сначала сохранить, потом отправлять: сбой доставки не должен
	// оставить "отправленный" код без записи.
	if err := s.params.Upsert(user.ID, otpKey, code); err != nil {
		return err
	}
	if err := s.params.Upsert(user.ID, sendTimeKey, strconv.FormatInt(s.now().UTC().UnixNano(), 10)); err != nil {
		return err
	}

	if purpose.bySms() {
		to := user.DialCode + user.PhoneNumber
		if overridePhone != "" {
			to = overrideDialCode + overridePhone
		}
		if err := s.sms.Send(ctx, to, smsBody(purpose, code)); err != nil {
			return &DeliveryError{Err: err}
		}
	} else {
		to := user.Email
		if overrideEmail != "" {
			to = overrideEmail
		}
		if err := s.mail.Send(ctx, to, mailSubject(purpose), mailBody(purpose, code)); err != nil {
			return &DeliveryError{Err: err}
		}
	}

	logs.Logger.Infof("otp sent: user=%d purpose=%s", user.ID, purpose)
	return nil
}

// Verify проверяет код. Порядок проверок фиксирован: не выдан -> истёк ->
// не совпал. Для всех назначений, кроме смены пароля, успешная проверка
// атомарно гасит код.
func (s *OtpService) Verify(user *models.User, submitted string, purpose Purpose) error {
	otpKey, sendTimeKey := purpose.keys()

	stored, err := s.params.Get(user.ID, otpKey)
	if err != nil {
		return err
	}
	sendRaw, err := s.params.Get(user.ID, sendTimeKey)
	if err != nil {
		return err
	}
	if stored == "" || sendRaw == "" {
		return ErrNotIssued
	}

	sendNanos, err := strconv.ParseInt(sendRaw, 10, 64)
	if err != nil {
		return ErrNotIssued
	}
	if s.now().UTC().Sub(time.Unix(0, sendNanos).UTC()) > s.verifyWindow {
		return ErrExpired
	}

	if submitted == "" || submitted != stored {
		return ErrMismatch
	}

	if purpose.isPasswordReset() {
		return nil
	}

	// Условная очистка: проигравший гонку получает ErrMismatch.
	cleared, err := s.params.ClearIfMatch(user.ID, otpKey, stored)
	if err != nil {
		return err
	}
	if !cleared {
		return ErrMismatch
	}
	return s.params.Upsert(user.ID, sendTimeKey, "")
}

// ClearPasswordReset гасит код смены пароля — вызывается после того, как
// новый пароль фактически записан.
func (s *OtpService) ClearPasswordReset(user *models.User) error {
	if err := s.params.Upsert(user.ID, ParamPasswordResetOtp, ""); err != nil {
		return err
	}
	return s.params.Upsert(user.ID, ParamPasswordResetOtpSendTime, "")
}

// generateCode — 4 цифры, равномерно по [0000..9999].
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}

func smsBody(p Purpose, code string) string {
	switch p {
	case UpdatePhone:
		return fmt.Sprintf("Your phone update verification code is %s.", code)
	case LoginSms:
		return fmt.Sprintf("Your login verification code is %s.", code)
	default:
		return fmt.Sprintf("Your password reset code is %s.", code)
	}
}

func mailSubject(p Purpose) string {
	switch p {
	case UpdateEmail:
		return "Email update verification"
	case LoginEmail:
		return "Verify your email"
	default:
		return "Password reset"
	}
}

func mailBody(p Purpose, code string) string {
	switch p {
	case UpdateEmail:
		return fmt.Sprintf("Your email update verification code is %s.", code)
	case LoginEmail:
		return fmt.Sprintf("Your login verification code is %s.", code)
	default:
		return fmt.Sprintf("Your password reset code is %s.", code)
	}
}
