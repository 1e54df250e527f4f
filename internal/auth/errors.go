package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrCooldown — повторный запрос кода раньше окна переотправки.
	ErrCooldown = errors.New("otp: resend cooldown active")
	// ErrNotIssued — код не запрашивался (или уже использован).
	ErrNotIssued = errors.New("otp: not issued")
	// ErrExpired — окно проверки истекло.
	ErrExpired = errors.New("otp: expired")
	// ErrMismatch — код не совпал либо уже потреблён параллельной проверкой.
	ErrMismatch = errors.New("otp: mismatch")
)

// DeliveryError отделяет сбой внешнего канала (SMS/почта) от сбоя
// генерации/хранения: код уже сохранён, пользователь его не получил.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("otp delivery: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
