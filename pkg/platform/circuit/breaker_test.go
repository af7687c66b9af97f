package circuit

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errStore = errors.New("store down")

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	b := New("audit", WithFailureThreshold(3))

	assert.Equal(t, NoTransition, b.Record(errStore))
	assert.Equal(t, NoTransition, b.Record(errStore))
	assert.False(t, b.IsOpen())

	assert.Equal(t, Opened, b.Record(errStore))
	assert.True(t, b.IsOpen())
	assert.Equal(t, "open", b.State().String())

	assert.Equal(t, NoTransition, b.Record(errStore), "already open")
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b := New("audit", WithFailureThreshold(2))

	b.Record(errStore)
	b.Record(nil)
	assert.Equal(t, NoTransition, b.Record(errStore))
	assert.False(t, b.IsOpen())
}

func TestBreaker_ClosesAfterConsecutiveSuccesses(t *testing.T) {
	b := New("audit", WithFailureThreshold(1), WithSuccessThreshold(2))
	b.Record(errStore)

	assert.Equal(t, NoTransition, b.Record(nil))
	b.Record(errStore)
	assert.Equal(t, NoTransition, b.Record(nil), "a failure restarts the success count")
	assert.Equal(t, Closed, b.Record(nil))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_Reset(t *testing.T) {
	b := New("audit", WithFailureThreshold(1))
	b.Record(errStore)

	b.Reset()

	assert.False(t, b.IsOpen())
	assert.Equal(t, "audit", b.Name())
}

func TestNew_IgnoresNonPositiveThresholds(t *testing.T) {
	b := New("audit", WithFailureThreshold(0), WithSuccessThreshold(-1))
	for i := 0; i < 4; i++ {
		b.Record(errStore)
	}
	assert.False(t, b.IsOpen())
	assert.Equal(t, Opened, b.Record(errStore))
}
