package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"resido/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memParams struct {
	mu   sync.Mutex
	data map[uint]map[string]string
}

func newMemParams() *memParams {
	return &memParams{data: map[uint]map[string]string{}}
}

func (m *memParams) Get(userID uint, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[userID][key], nil
}

func (m *memParams) Upsert(userID uint, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[userID] == nil {
		m.data[userID] = map[string]string{}
	}
	m.data[userID][key] = value
	return nil
}

func (m *memParams) ClearIfMatch(userID uint, key, expect string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[userID][key] != expect || expect == "" {
		return false, nil
	}
	m.data[userID][key] = ""
	return true, nil
}

type fakeSms struct {
	mu   sync.Mutex
	sent []string // адресаты
	err  error
}

func (f *fakeSms) Send(_ context.Context, to, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to)
	return nil
}

type fakeMail struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeMail) Send(_ context.Context, to, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to)
	return nil
}

func testUser() *models.User {
	u := &models.User{Email: "a@b.c", DialCode: "+49", PhoneNumber: "123456"}
	u.ID = 1
	return u
}

func newTestService(params *memParams, sms *fakeSms, mail *fakeMail) (*OtpService, *time.Time) {
	s := NewOtpService(params, sms, mail, 120*time.Second, 50*time.Minute)
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	return s, &now
}

func storedCode(t *testing.T, params *memParams, user *models.User, purpose Purpose) string {
	t.Helper()
	key, _ := purpose.keys()
	v, err := params.Get(user.ID, key)
	require.NoError(t, err)
	return v
}

func TestSendStoresAndDelivers(t *testing.T) {
	params, sms, mail := newMemParams(), &fakeSms{}, &fakeMail{}
	s, _ := newTestService(params, sms, mail)
	user := testUser()

	require.NoError(t, s.Send(context.Background(), user, LoginSms))

	code := storedCode(t, params, user, LoginSms)
	require.Len(t, code, 4)
	assert.Equal(t, []string{"+49123456"}, sms.sent)
	assert.Empty(t, mail.sent)

	require.NoError(t, s.Verify(user, code, LoginSms))
}

func TestSendEmailPurposeUsesMail(t *testing.T) {
	params, sms, mail := newMemParams(), &fakeSms{}, &fakeMail{}
	s, _ := newTestService(params, sms, mail)
	user := testUser()

	require.NoError(t, s.Send(context.Background(), user, LoginEmail))
	assert.Equal(t, []string{"a@b.c"}, mail.sent)
	assert.Empty(t, sms.sent)
}

func TestResendCooldown(t *testing.T) {
	params, sms, mail := newMemParams(), &fakeSms{}, &fakeMail{}
	s, now := newTestService(params, sms, mail)
	user := testUser()

	require.NoError(t, s.Send(context.Background(), user, LoginSms))
	first := storedCode(t, params, user, LoginSms)

	// до истечения кулдауна — отказ
	*now = now.Add(119 * time.Second)
	err := s.Send(context.Background(), user, LoginSms)
	assert.ErrorIs(t, err, ErrCooldown)
	assert.Equal(t, first, storedCode(t, params, user, LoginSms), "старый код не перезаписан")

	// после — успех и новый код (может совпасть по значению, но отправка прошла)
	*now = now.Add(2 * time.Second)
	require.NoError(t, s.Send(context.Background(), user, LoginSms))
	assert.Len(t, sms.sent, 2)
}

func TestCooldownIsPerPurpose(t *testing.T) {
	params, sms, mail := newMemParams(), &fakeSms{}, &fakeMail{}
	s, _ := newTestService(params, sms, mail)
	user := testUser()

	require.NoError(t, s.Send(context.Background(), user, LoginSms))
	// другой набор ключей — кулдаун логина не мешает
	require.NoError(t, s.Send(context.Background(), user, PasswordResetPhone))
}

func TestVerifyNotIssued(t *testing.T) {
	params, sms, mail := newMemParams(), &fakeSms{}, &fakeMail{}
	s, _ := newTestService(params, sms, mail)

	err := s.Verify(testUser(), "1234", LoginSms)
	assert.ErrorIs(t, err, ErrNotIssued)
}

func TestVerifyWindowBoundary(t *testing.T) {
	params, sms, mail := newMemParams(), &fakeSms{}, &fakeMail{}
	s, now := newTestService(params, sms, mail)
	user := testUser()

	require.NoError(t, s.Send(context.Background(), user, LoginSms))
	code := storedCode(t, params, user, LoginSms)

	// секунда после окна — истечение важнее совпадения кода
	*now = now.Add(50*time.Minute + time.Second)
	err := s.Verify(user, code, LoginSms)
	assert.ErrorIs(t, err, ErrExpired)
	err = s.Verify(user, "0000", LoginSms)
	assert.ErrorIs(t, err, ErrExpired, "истёкший код — expired даже при несовпадении")
}

func TestVerifyJustInsideWindow(t *testing.T) {
	params, sms, mail := newMemParams(), &fakeSms{}, &fakeMail{}
	s, now := newTestService(params, sms, mail)
	user := testUser()

	require.NoError(t, s.Send(context.Background(), user, LoginSms))
	code := storedCode(t, params, user, LoginSms)

	*now = now.Add(50*time.Minute - time.Second)
	require.NoError(t, s.Verify(user, code, LoginSms))
}

func TestVerifyMismatch(t *testing.T) {
	params, sms, mail := newMemParams(), &fakeSms{}, &fakeMail{}
	s, _ := newTestService(params, sms, mail)
	user := testUser()

	require.NoError(t, s.Send(context.Background(), user, LoginSms))
	code := storedCode(t, params, user, LoginSms)

	wrong := "0000"
	if wrong == code {
		wrong = "0001"
	}
	assert.ErrorIs(t, s.Verify(user, wrong, LoginSms), ErrMismatch)
	// код остаётся пригодным после неудачной попытки
	require.NoError(t, s.Verify(user, code, LoginSms))
}

func TestVerifyClearsLoginButKeepsPasswordReset(t *testing.T) {
	params, sms, mail := newMemParams(), &fakeSms{}, &fakeMail{}
	s, now := newTestService(params, sms, mail)
	user := testUser()

	require.NoError(t, s.Send(context.Background(), user, LoginSms))
	loginCode := storedCode(t, params, user, LoginSms)
	require.NoError(t, s.Send(context.Background(), user, PasswordResetEmail))
	resetCode := storedCode(t, params, user, PasswordResetEmail)

	*now = now.Add(49 * time.Minute)

	require.NoError(t, s.Verify(user, loginCode, LoginSms))
	assert.Empty(t, storedCode(t, params, user, LoginSms), "логин-код погашен")
	assert.ErrorIs(t, s.Verify(user, loginCode, LoginSms), ErrNotIssued, "повторная проверка не проходит")

	require.NoError(t, s.Verify(user, resetCode, PasswordResetEmail))
	assert.Equal(t, resetCode, storedCode(t, params, user, PasswordResetEmail), "reset-код переживает проверку")
	// повтор в пределах окна переиспользует тот же код
	require.NoError(t, s.Verify(user, resetCode, PasswordResetEmail))

	// и гасится только по завершении смены пароля
	require.NoError(t, s.ClearPasswordReset(user))
	assert.ErrorIs(t, s.Verify(user, resetCode, PasswordResetEmail), ErrNotIssued)
}

func TestVerifyConcurrentSingleWinner(t *testing.T) {
	params, sms, mail := newMemParams(), &fakeSms{}, &fakeMail{}
	s, _ := newTestService(params, sms, mail)
	user := testUser()

	require.NoError(t, s.Send(context.Background(), user, LoginSms))
	code := storedCode(t, params, user, LoginSms)

	const n = 16
	var wg sync.WaitGroup
	results := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = s.Verify(user, code, LoginSms)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range results {
		if err == nil {
			wins++
		}
	}
	assert.Equal(t, 1, wins, "ровно одна проверка потребляет код")
}

func TestSendDeliveryFailure(t *testing.T) {
	params, sms, mail := newMemParams(), &fakeSms{err: errors.New("gateway down")}, &fakeMail{}
	s, _ := newTestService(params, sms, mail)
	user := testUser()

	err := s.Send(context.Background(), user, LoginSms)
	var de *DeliveryError
	require.ErrorAs(t, err, &de)
	assert.NotErrorIs(t, err, ErrCooldown)
}

func TestSendContactUpdateTargetsNewContact(t *testing.T) {
	params, sms, mail := newMemParams(), &fakeSms{}, &fakeMail{}
	s, _ := newTestService(params, sms, mail)
	user := testUser()

	require.NoError(t, s.SendContactUpdate(context.Background(), user, UpdatePhone, "", "+31", "999888"))
	assert.Equal(t, []string{"+31999888"}, sms.sent)

	phone, _ := params.Get(user.ID, ParamNewPhoneToUpdate)
	dial, _ := params.Get(user.ID, ParamNewDialCodeToUpdate)
	assert.Equal(t, "999888", phone)
	assert.Equal(t, "+31", dial)
}
