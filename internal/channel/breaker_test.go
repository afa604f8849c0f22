package channel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := NewMicroBreaker(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, b.TryAcquire())
		b.OnFailure()
	}

	assert.False(t, b.TryAcquire())
}

func TestBreakerSuccessResetsCount(t *testing.T) {
	b := NewMicroBreaker(3, time.Minute)

	b.OnFailure()
	b.OnFailure()
	b.OnSuccess()
	b.OnFailure()
	b.OnFailure()

	assert.True(t, b.TryAcquire())
}

func TestBreakerSingleProbeAfterOpenWindow(t *testing.T) {
	b := NewMicroBreaker(1, 10*time.Millisecond)

	b.OnFailure()
	assert.False(t, b.TryAcquire())

	time.Sleep(15 * time.Millisecond)

	// Exactly one probe is allowed through.
	assert.True(t, b.TryAcquire())
	assert.False(t, b.TryAcquire())

	// A failed probe reopens the breaker.
	b.OnFailure()
	assert.False(t, b.TryAcquire())
}

func TestBreakerProbeSuccessCloses(t *testing.T) {
	b := NewMicroBreaker(1, 5*time.Millisecond)

	b.OnFailure()
	time.Sleep(10 * time.Millisecond)

	assert.True(t, b.TryAcquire())
	b.OnSuccess()

	assert.True(t, b.TryAcquire())
	assert.True(t, b.TryAcquire())
}
