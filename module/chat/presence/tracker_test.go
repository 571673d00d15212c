package presence

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypingSignalExpiresAfterTTL(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tr := New(Conf{TTL: 3 * time.Second, Clock: func() time.Time { return now }})

	tr.OnTyping("alice")
	require.Equal(t, []string{"alice"}, tr.Typists())

	now = now.Add(2 * time.Second)
	require.Equal(t, []string{"alice"}, tr.Typists(), "still inside TTL")

	now = now.Add(1500 * time.Millisecond)
	require.Empty(t, tr.Typists(), "never reported past expiresAt without a refresh")
}

func TestRefreshExtendsTTL(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tr := New(Conf{TTL: 3 * time.Second, Clock: func() time.Time { return now }})

	tr.OnTyping("alice")
	now = now.Add(2 * time.Second)
	tr.OnTyping("alice")
	now = now.Add(2 * time.Second)
	require.Equal(t, []string{"alice"}, tr.Typists(), "refresh moves the deadline")
}

func TestStopRemovesImmediately(t *testing.T) {
	tr := New(Conf{TTL: time.Hour})
	tr.OnTyping("alice")
	tr.OnTyping("bob")
	tr.OnStop("alice")
	assert.Equal(t, []string{"bob"}, tr.Typists())
}

func TestOutgoingThrottle(t *testing.T) {
	var typed, stopped atomic.Int32
	tr := New(Conf{
		Idle:       40 * time.Millisecond,
		EmitTyping: func() { typed.Add(1) },
		EmitStop:   func() { stopped.Add(1) },
	})

	for i := 0; i < 8; i++ {
		tr.NoteKeystroke()
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, int32(1), typed.Load(), "one typing signal per burst")
	assert.Equal(t, int32(0), stopped.Load(), "no stop while still typing")

	require.Eventually(t, func() bool { return stopped.Load() == 1 },
		time.Second, 5*time.Millisecond, "exactly one stop after the idle window")
	assert.Equal(t, int32(1), typed.Load())
}

func TestFlushStopForceEmitsAndDisarms(t *testing.T) {
	var stopped atomic.Int32
	tr := New(Conf{
		Idle:     30 * time.Millisecond,
		EmitStop: func() { stopped.Add(1) },
	})

	tr.NoteKeystroke()
	tr.FlushStop()
	assert.Equal(t, int32(1), stopped.Load(), "stop emitted immediately on send")

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(1), stopped.Load(), "idle timer was disarmed")
}

func TestStopMutesEmissions(t *testing.T) {
	var typed atomic.Int32
	tr := New(Conf{Idle: 30 * time.Millisecond, EmitTyping: func() { typed.Add(1) }})

	tr.Stop()
	tr.NoteKeystroke()
	assert.Equal(t, int32(0), typed.Load())
}
