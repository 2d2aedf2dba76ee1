// Package store holds the process-local OTP state: one live code and
// one rate-limit window per phone number. Nothing here survives a
// restart; expiry is enforced on read, with an opportunistic sweep as
// housekeeping.
package store

import (
	"sync"
	"time"

	"github.com/hamiRasekh/ftsmotors-sub000/internal/models"
	"github.com/sirupsen/logrus"
)

type OTPStore struct {
	mu      sync.Mutex
	otps    map[string]*models.OTPEntry
	windows map[string]*models.RateLimitWindow
	expiry  time.Duration
	logger  *logrus.Logger
	now     func() time.Time
}

func New(expiry time.Duration, logger *logrus.Logger) *OTPStore {
	return NewWithClock(expiry, logger, time.Now)
}

// NewWithClock injects the time source; tests use it to drive expiry
// and window resets without sleeping.
func NewWithClock(expiry time.Duration, logger *logrus.Logger, now func() time.Time) *OTPStore {
	return &OTPStore{
		otps:    make(map[string]*models.OTPEntry),
		windows: make(map[string]*models.RateLimitWindow),
		expiry:  expiry,
		logger:  logger,
		now:     now,
	}
}

// Now exposes the store's clock so issuance and verification share a
// single time source.
func (s *OTPStore) Now() time.Time {
	return s.now()
}

// PutOTP unconditionally replaces any live entry for phone. A resend
// invalidates the previous code even if it had attempts left.
func (s *OTPStore) PutOTP(phone, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.otps[phone] = &models.OTPEntry{
		Code:      code,
		Phone:     phone,
		Attempts:  0,
		CreatedAt: now,
		ExpiresAt: now.Add(s.expiry),
	}
}

func (s *OTPStore) GetOTP(phone string) (models.OTPEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.otps[phone]
	if !ok {
		return models.OTPEntry{}, false
	}
	return *entry, true
}

func (s *OTPStore) DeleteOTP(phone string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.otps, phone)
}

// IncrementAttempts bumps the attempt counter in place and returns the
// new value. It is a no-op returning 0 when no entry exists.
func (s *OTPStore) IncrementAttempts(phone string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.otps[phone]
	if !ok {
		return 0
	}
	entry.Attempts++
	return entry.Attempts
}

func (s *OTPStore) PutRateWindow(phone string, window models.RateLimitWindow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := window
	s.windows[phone] = &w
}

func (s *OTPStore) GetRateWindow(phone string) (models.RateLimitWindow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	window, ok := s.windows[phone]
	if !ok {
		return models.RateLimitWindow{}, false
	}
	return *window, true
}

// IncrementRateCount bumps the live window's counter and returns the
// new value, 0 when no window exists.
func (s *OTPStore) IncrementRateCount(phone string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	window, ok := s.windows[phone]
	if !ok {
		return 0
	}
	window.Count++
	return window.Count
}

// AttemptOutcome is the result of one verification attempt evaluated
// against the stored entry.
type AttemptOutcome int

const (
	AttemptNoEntry AttemptOutcome = iota
	AttemptExpired
	AttemptExhausted
	AttemptMismatch
	AttemptMatch
)

// ConsumeAttempt runs one whole verification attempt under the store
// lock: expiry check, attempt budget, counting the attempt, and the
// code comparison. Holding the lock across the sequence is what keeps
// two racing verifies from both passing the budget gate on a stale
// read, or from both matching the same code before either deletes it.
// The entry is removed on match, on observed expiry, and once the
// budget is spent. Returns the outcome and the attempt count after
// this call.
func (s *OTPStore) ConsumeAttempt(phone, submitted string, maxAttempts int) (AttemptOutcome, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.otps[phone]
	if !ok {
		return AttemptNoEntry, 0
	}

	if s.now().After(entry.ExpiresAt) {
		delete(s.otps, phone)
		return AttemptExpired, entry.Attempts
	}

	if entry.Attempts >= maxAttempts {
		delete(s.otps, phone)
		return AttemptExhausted, entry.Attempts
	}

	// This attempt counts whether or not it matches.
	entry.Attempts++

	if submitted == entry.Code {
		delete(s.otps, phone)
		return AttemptMatch, entry.Attempts
	}
	return AttemptMismatch, entry.Attempts
}

// TryAcquireSlot admits or rejects one send request against the
// phone's window, atomically. An absent or lapsed window is replaced
// by a fresh one with count 1 and the request is admitted; a live
// window admits up to max requests. The rejected request does not
// mutate the counter.
func (s *OTPStore) TryAcquireSlot(phone string, max int, window time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w, ok := s.windows[phone]
	if !ok || now.After(w.ResetAt) {
		s.windows[phone] = &models.RateLimitWindow{
			Count:   1,
			ResetAt: now.Add(window),
		}
		return true
	}

	if w.Count < max {
		w.Count++
		return true
	}
	return false
}

// SweepExpired drops every entry and window whose deadline has passed.
// Correctness does not depend on it: expiry is re-checked on read.
func (s *OTPStore) SweepExpired(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for phone, entry := range s.otps {
		if entry.ExpiresAt.Before(now) {
			delete(s.otps, phone)
			removed++
		}
	}
	for phone, window := range s.windows {
		if window.ResetAt.Before(now) {
			delete(s.windows, phone)
			removed++
		}
	}

	if removed > 0 {
		s.logger.WithField("removed", removed).Debug("Swept expired OTP state")
	}
}
