package store

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamiRasekh/ftsmotors-sub000/internal/models"
)

func newTestStore(t *testing.T) (*OTPStore, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewWithClock(5*time.Minute, logger, clock.Now), clock
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestPutOTPOverwrites(t *testing.T) {
	s, _ := newTestStore(t)

	s.PutOTP("09123456789", "111111")
	s.IncrementAttempts("09123456789")
	s.PutOTP("09123456789", "222222")

	entry, ok := s.GetOTP("09123456789")
	require.True(t, ok)
	assert.Equal(t, "222222", entry.Code)
	assert.Equal(t, 0, entry.Attempts)
}

func TestPutOTPSetsExpiry(t *testing.T) {
	s, clock := newTestStore(t)

	s.PutOTP("09123456789", "123456")

	entry, ok := s.GetOTP("09123456789")
	require.True(t, ok)
	assert.Equal(t, clock.Now().Add(5*time.Minute), entry.ExpiresAt)
}

func TestGetOTPMissing(t *testing.T) {
	s, _ := newTestStore(t)

	_, ok := s.GetOTP("09123456789")
	assert.False(t, ok)
}

func TestIncrementAttempts(t *testing.T) {
	s, _ := newTestStore(t)

	assert.Equal(t, 0, s.IncrementAttempts("09123456789"))

	s.PutOTP("09123456789", "123456")
	assert.Equal(t, 1, s.IncrementAttempts("09123456789"))
	assert.Equal(t, 2, s.IncrementAttempts("09123456789"))

	entry, ok := s.GetOTP("09123456789")
	require.True(t, ok)
	assert.Equal(t, 2, entry.Attempts)
}

func TestDeleteOTP(t *testing.T) {
	s, _ := newTestStore(t)

	s.PutOTP("09123456789", "123456")
	s.DeleteOTP("09123456789")

	_, ok := s.GetOTP("09123456789")
	assert.False(t, ok)
}

func TestRateWindow(t *testing.T) {
	s, clock := newTestStore(t)

	_, ok := s.GetRateWindow("09123456789")
	assert.False(t, ok)
	assert.Equal(t, 0, s.IncrementRateCount("09123456789"))

	s.PutRateWindow("09123456789", models.RateLimitWindow{
		Count:   1,
		ResetAt: clock.Now().Add(10 * time.Minute),
	})

	assert.Equal(t, 2, s.IncrementRateCount("09123456789"))

	window, ok := s.GetRateWindow("09123456789")
	require.True(t, ok)
	assert.Equal(t, 2, window.Count)
}

func TestSweepExpired(t *testing.T) {
	s, clock := newTestStore(t)

	s.PutOTP("09123456789", "123456")
	s.PutRateWindow("09123456789", models.RateLimitWindow{
		Count:   1,
		ResetAt: clock.Now().Add(10 * time.Minute),
	})
	s.PutOTP("09111111111", "654321")

	clock.Advance(6 * time.Minute)
	s.SweepExpired(clock.Now())

	// Both entries are older than the 5 minute expiry, the window not.
	_, ok := s.GetOTP("09123456789")
	assert.False(t, ok)
	_, ok = s.GetOTP("09111111111")
	assert.False(t, ok)
	_, ok = s.GetRateWindow("09123456789")
	assert.True(t, ok)

	clock.Advance(5 * time.Minute)
	s.SweepExpired(clock.Now())

	_, ok = s.GetRateWindow("09123456789")
	assert.False(t, ok)
}

func TestConsumeAttemptOutcomes(t *testing.T) {
	s, clock := newTestStore(t)

	outcome, attempts := s.ConsumeAttempt("09123456789", "123456", 3)
	assert.Equal(t, AttemptNoEntry, outcome)
	assert.Equal(t, 0, attempts)

	s.PutOTP("09123456789", "123456")

	outcome, attempts = s.ConsumeAttempt("09123456789", "000000", 3)
	assert.Equal(t, AttemptMismatch, outcome)
	assert.Equal(t, 1, attempts)

	// The counted attempt persists.
	entry, ok := s.GetOTP("09123456789")
	require.True(t, ok)
	assert.Equal(t, 1, entry.Attempts)

	outcome, _ = s.ConsumeAttempt("09123456789", "123456", 3)
	assert.Equal(t, AttemptMatch, outcome)

	// Match consumed the entry.
	_, ok = s.GetOTP("09123456789")
	assert.False(t, ok)

	s.PutOTP("09123456789", "123456")
	clock.Advance(6 * time.Minute)

	outcome, _ = s.ConsumeAttempt("09123456789", "123456", 3)
	assert.Equal(t, AttemptExpired, outcome)
	_, ok = s.GetOTP("09123456789")
	assert.False(t, ok)
}

func TestConsumeAttemptExhaustsBudget(t *testing.T) {
	s, _ := newTestStore(t)
	s.PutOTP("09123456789", "123456")

	for i := 0; i < 3; i++ {
		outcome, _ := s.ConsumeAttempt("09123456789", "000000", 3)
		require.Equal(t, AttemptMismatch, outcome)
	}

	outcome, _ := s.ConsumeAttempt("09123456789", "123456", 3)
	assert.Equal(t, AttemptExhausted, outcome)
	_, ok := s.GetOTP("09123456789")
	assert.False(t, ok)
}

func TestConsumeAttemptConcurrentCorrectCode(t *testing.T) {
	s, _ := newTestStore(t)
	s.PutOTP("09123456789", "123456")

	var wg sync.WaitGroup
	var matches int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, _ := s.ConsumeAttempt("09123456789", "123456", 3)
			if outcome == AttemptMatch {
				atomic.AddInt32(&matches, 1)
			}
		}()
	}
	wg.Wait()

	// The code is consumed exactly once no matter how many verifies
	// race for it.
	assert.Equal(t, int32(1), matches)
	_, ok := s.GetOTP("09123456789")
	assert.False(t, ok)
}

func TestConsumeAttemptConcurrentWrongGuesses(t *testing.T) {
	s, _ := newTestStore(t)
	s.PutOTP("09123456789", "123456")

	var wg sync.WaitGroup
	var mismatches, exhausted, missing int32
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, _ := s.ConsumeAttempt("09123456789", "000000", 3)
			switch outcome {
			case AttemptMismatch:
				atomic.AddInt32(&mismatches, 1)
			case AttemptExhausted:
				atomic.AddInt32(&exhausted, 1)
			case AttemptNoEntry:
				atomic.AddInt32(&missing, 1)
			}
		}()
	}
	wg.Wait()

	// Exactly three guesses are evaluated; the fourth caller observes
	// the spent budget and deletes the entry, the rest find nothing.
	assert.Equal(t, int32(3), mismatches)
	assert.Equal(t, int32(1), exhausted)
	assert.Equal(t, int32(6), missing)
}

func TestTryAcquireSlot(t *testing.T) {
	s, clock := newTestStore(t)

	for i := 0; i < 3; i++ {
		require.True(t, s.TryAcquireSlot("09123456789", 3, 10*time.Minute))
	}
	assert.False(t, s.TryAcquireSlot("09123456789", 3, 10*time.Minute))

	window, ok := s.GetRateWindow("09123456789")
	require.True(t, ok)
	assert.Equal(t, 3, window.Count)

	clock.Advance(10*time.Minute + time.Second)

	assert.True(t, s.TryAcquireSlot("09123456789", 3, 10*time.Minute))
	window, ok = s.GetRateWindow("09123456789")
	require.True(t, ok)
	assert.Equal(t, 1, window.Count)
}

func TestTryAcquireSlotConcurrent(t *testing.T) {
	s, _ := newTestStore(t)

	var wg sync.WaitGroup
	var admitted int32
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.TryAcquireSlot("09123456789", 3, 10*time.Minute) {
				atomic.AddInt32(&admitted, 1)
			}
		}()
	}
	wg.Wait()

	// Racing first sends must not each install a fresh window.
	assert.Equal(t, int32(3), admitted)
}

func TestConcurrentIncrements(t *testing.T) {
	s, _ := newTestStore(t)
	s.PutOTP("09123456789", "123456")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.IncrementAttempts("09123456789")
		}()
	}
	wg.Wait()

	entry, ok := s.GetOTP("09123456789")
	require.True(t, ok)
	assert.Equal(t, 50, entry.Attempts)
}
