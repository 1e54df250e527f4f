package auth

// Ключи типизированных параметров пользователя. Хранятся в нижнем
// регистре — так исторически лежат в таблице user_parameters.
const (
	ParamOtp         = "otp"
	ParamOtpSendTime = "otp_send_time"

	ParamEmailUpdateOtp         = "email_update_otp"
	ParamEmailUpdateOtpSendTime = "email_update_otp_send_time"

	ParamPhoneUpdateOtp         = "phone_update_otp"
	ParamPhoneUpdateOtpSendTime = "phone_update_otp_send_time"

	ParamPasswordResetOtp         = "password_reset_otp"
	ParamPasswordResetOtpSendTime = "password_reset_otp_send_time"

	ParamNewEmailToUpdate    = "new_email_to_update"
	ParamNewPhoneToUpdate    = "new_phone_to_update"
	ParamNewDialCodeToUpdate = "new_dial_code_to_update"
)

// ParamStore — хранилище параметров пользователя. Реализация обязана
// делать ClearIfMatch атомарно (условный UPDATE), иначе две параллельные
// проверки одного кода могут пройти обе.
type ParamStore interface {
	// Get возвращает значение ключа; "" — если ключа нет.
	Get(userID uint, key string) (string, error)
	Upsert(userID uint, key, value string) error
	// ClearIfMatch обнуляет значение, только если оно всё ещё равно expect.
	// false — значение уже изменилось (код потреблён кем-то другим).
	ClearIfMatch(userID uint, key, expect string) (bool, error)
}

// Purpose — назначение одноразового кода; выбирает пару ключей хранения
// и канал доставки.
type Purpose int

const (
	LoginSms Purpose = iota
	LoginEmail
	PasswordResetPhone
	PasswordResetEmail
	UpdatePhone
	UpdateEmail
)

func (p Purpose) String() string {
	switch p {
	case LoginSms:
		return "login_sms"
	case LoginEmail:
		return "login_email"
	case PasswordResetPhone:
		return "password_reset_phone"
	case PasswordResetEmail:
		return "password_reset_email"
	case UpdatePhone:
		return "update_phone"
	case UpdateEmail:
		return "update_email"
	}
	return "unknown"
}

// keys — пара (код, время отправки) для назначения.
func (p Purpose) keys() (otpKey, sendTimeKey string) {
	switch p {
	case PasswordResetPhone, PasswordResetEmail:
		return ParamPasswordResetOtp, ParamPasswordResetOtpSendTime
	case UpdatePhone:
		return ParamPhoneUpdateOtp, ParamPhoneUpdateOtpSendTime
	case UpdateEmail:
		return ParamEmailUpdateOtp, ParamEmailUpdateOtpSendTime
	default:
		return ParamOtp, ParamOtpSendTime
	}
}

// isPasswordReset: такие коды не очищаются при проверке — их стирает
// только завершённая смена пароля, чтобы повтор внутри окна мог
// переиспользовать уже проверенный код.
func (p Purpose) isPasswordReset() bool {
	return p == PasswordResetPhone || p == PasswordResetEmail
}

// bySms — канал доставки.
func (p Purpose) bySms() bool {
	return p == LoginSms || p == PasswordResetPhone || p == UpdatePhone
}
