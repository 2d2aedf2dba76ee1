package service

import (
	"github.com/sirupsen/logrus"

	"github.com/hamiRasekh/ftsmotors-sub000/internal/config"
	"github.com/hamiRasekh/ftsmotors-sub000/internal/store"
)

// OTPVerifier checks submitted codes against the store. The caller
// only learns pass/fail; the distinct failure modes are kept in the
// logs so a guesser cannot tell which one occurred.
type OTPVerifier struct {
	store  *store.OTPStore
	cfg    *config.OTPConfig
	logger *logrus.Logger
}

func NewOTPVerifier(otpStore *store.OTPStore, cfg *config.OTPConfig, logger *logrus.Logger) *OTPVerifier {
	return &OTPVerifier{
		store:  otpStore,
		cfg:    cfg,
		logger: logger,
	}
}

// Verify runs the per-phone state machine. The entry is consumed on
// success, on observed expiry, and once the attempt budget is spent.
// A mismatch spends an attempt but leaves the entry in place; the
// budget check happens at the top of the next call, so a phone gets
// at most MaxAttempts wrong guesses against one code. The whole
// sequence executes atomically in the store, so concurrent verifies
// for the same phone cannot over-spend the budget or both consume the
// same code.
func (v *OTPVerifier) Verify(phoneNumber, submitted string) bool {
	log := v.logger.WithField("phone", phoneNumber)

	outcome, attempts := v.store.ConsumeAttempt(phoneNumber, submitted, v.cfg.MaxAttempts)

	switch outcome {
	case store.AttemptNoEntry:
		log.Info("OTP verification failed: no OTP for phone")
	case store.AttemptExpired:
		log.Info("OTP verification failed: expired")
	case store.AttemptExhausted:
		log.Warn("OTP verification failed: max attempts reached")
	case store.AttemptMismatch:
		log.WithField("attempts", attempts).Info("OTP verification failed: mismatch")
	case store.AttemptMatch:
		log.Info("OTP verified")
		return true
	}
	return false
}
