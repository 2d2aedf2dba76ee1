package service

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/sirupsen/logrus"

	"github.com/hamiRasekh/ftsmotors-sub000/internal/config"
	"github.com/hamiRasekh/ftsmotors-sub000/internal/store"
)

// OTPIssuer generates codes and gates issuance behind the per-phone
// sliding window. Callers must check CanProceed before Issue.
type OTPIssuer struct {
	store  *store.OTPStore
	cfg    *config.OTPConfig
	logger *logrus.Logger
}

func NewOTPIssuer(otpStore *store.OTPStore, cfg *config.OTPConfig, logger *logrus.Logger) *OTPIssuer {
	return &OTPIssuer{
		store:  otpStore,
		cfg:    cfg,
		logger: logger,
	}
}

// CanProceed applies the rate limit for one send request. The first
// request of a window (no window, or the previous one has lapsed)
// installs a fresh window with count 1 and is always allowed. A live
// window admits requests up to the configured maximum; the request
// that would exceed it is rejected without touching the counter. The
// check-and-count runs atomically in the store, so concurrent sends
// cannot each install a fresh window or slip past the cap together.
func (i *OTPIssuer) CanProceed(phoneNumber string) bool {
	if i.store.TryAcquireSlot(phoneNumber, i.cfg.RateLimitMax, i.cfg.RateLimitWindow) {
		return true
	}

	i.logger.WithFields(logrus.Fields{
		"phone": phoneNumber,
		"limit": i.cfg.RateLimitMax,
	}).Warn("OTP request rate limited")
	return false
}

// Issue generates a fresh code, stores it (replacing any live one)
// and sweeps expired state while it is at it.
func (i *OTPIssuer) Issue(phoneNumber string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP: %w", err)
	}

	i.store.PutOTP(phoneNumber, code)
	i.store.SweepExpired(i.store.Now())

	i.logger.WithField("phone", phoneNumber).Info("OTP issued")
	return code, nil
}

// generateCode draws from [100000, 999999]. The lower bound excludes
// leading-zero codes; that shrinks the space by 10% but is the
// established behavior clients and support tooling expect.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
