package service

import (
	"errors"

	"github.com/hamiRasekh/ftsmotors-sub000/internal/models"
)

// Sentinel errors returned by AuthService. The HTTP layer is the only
// place these are translated into status codes.
var (
	ErrInvalidPhone       = errors.New("invalid phone number format")
	ErrRateLimited        = errors.New("too many OTP requests")
	ErrOTPInvalid         = errors.New("invalid or expired OTP")
	ErrInvalidCredentials = errors.New("invalid phone number or password")
	ErrUserExists         = errors.New("user already registered")
)

// SMSDeliveryError reports a failed provider send together with the
// redacted diagnostic payload for the operator.
type SMSDeliveryError struct {
	Debug models.SMSDebug
}

func (e *SMSDeliveryError) Error() string {
	if e.Debug.Transport != "" {
		return "sms delivery failed: " + e.Debug.Transport
	}
	if e.Debug.ErrorMessage != "" {
		return "sms delivery failed: " + e.Debug.ErrorMessage
	}
	return "sms delivery failed"
}
