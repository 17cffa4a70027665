package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimingDelay_NoDelayOnSuccess(t *testing.T) {
	td := NewTimingDelay(TimingConfig{BaseDelayMs: 200, RandomDelayMs: 100})

	start := time.Now()
	td.Wait(true)
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 50*time.Millisecond)
}

func TestTimingDelay_DelaysOnFailure(t *testing.T) {
	td := NewTimingDelay(TimingConfig{BaseDelayMs: 50, RandomDelayMs: 20})

	start := time.Now()
	td.Wait(false)
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	assert.Less(t, elapsed, 500*time.Millisecond)
}

func TestTimingDelay_ZeroConfig(t *testing.T) {
	td := NewTimingDelay(TimingConfig{})

	// Must not panic or sleep noticeably
	start := time.Now()
	td.Wait(false)
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}
