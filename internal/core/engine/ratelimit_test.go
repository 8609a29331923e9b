package engine

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestGate(t *testing.T, interval time.Duration) (*Gate, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	gate, err := NewGate(map[Window]time.Duration{
		WindowLookup:       interval,
		WindowAutocomplete: interval / 3,
	})
	require.NoError(t, err)
	gate.Clock = clock.Now
	return gate, clock
}

func TestGateIntervalBoundary(t *testing.T) {
	gate, clock := newTestGate(t, time.Second)

	require.True(t, gate.Admit(WindowLookup))

	clock.Advance(time.Second - time.Nanosecond)
	decision := gate.Check(WindowLookup)
	require.False(t, decision.Allowed)
	require.Equal(t, time.Nanosecond, decision.RetryAfter)

	clock.Advance(time.Nanosecond)
	require.True(t, gate.Admit(WindowLookup))
}

func TestGateDenialDoesNotMoveWindow(t *testing.T) {
	gate, clock := newTestGate(t, time.Second)

	require.True(t, gate.Admit(WindowLookup))
	clock.Advance(600 * time.Millisecond)
	require.False(t, gate.Admit(WindowLookup))

	// Measured from the admission, not from the denial.
	clock.Advance(400 * time.Millisecond)
	require.True(t, gate.Admit(WindowLookup))
}

func TestGateNoBurstCredit(t *testing.T) {
	gate, clock := newTestGate(t, time.Second)

	require.True(t, gate.Admit(WindowLookup))
	clock.Advance(time.Hour)
	require.True(t, gate.Admit(WindowLookup))
	require.False(t, gate.Admit(WindowLookup))
}

func TestGateWindowsAreIndependent(t *testing.T) {
	gate, clock := newTestGate(t, 3*time.Second)

	require.True(t, gate.Admit(WindowLookup))
	require.True(t, gate.Admit(WindowAutocomplete))

	clock.Advance(time.Second)
	require.False(t, gate.Admit(WindowLookup))
	require.True(t, gate.Admit(WindowAutocomplete))
}

func TestGateUnknownWindowDenied(t *testing.T) {
	gate, _ := newTestGate(t, time.Second)
	require.False(t, gate.Admit(Window("translate")))
}

func TestGateConcurrentSingleAdmission(t *testing.T) {
	gate, _ := newTestGate(t, time.Second)

	const callers = 64
	var admitted atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if gate.Admit(WindowLookup) {
				admitted.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	require.Equal(t, int32(1), admitted.Load())
}

func TestGateTwoRequestsWithinInterval(t *testing.T) {
	gate, clock := newTestGate(t, time.Second)

	require.True(t, gate.Admit(WindowLookup))
	clock.Advance(200 * time.Millisecond)
	decision := gate.Check(WindowLookup)
	require.False(t, decision.Allowed)
	require.Equal(t, 800*time.Millisecond, decision.RetryAfter)
}

func TestIntervalsFromRate(t *testing.T) {
	intervals, err := IntervalsFromRate(60, 3)
	require.NoError(t, err)
	require.Equal(t, time.Second, intervals[WindowLookup])
	require.Equal(t, time.Second/3, intervals[WindowAutocomplete])

	intervals, err = IntervalsFromRate(20, 3)
	require.NoError(t, err)
	require.Equal(t, 3*time.Second, intervals[WindowLookup])
	require.Equal(t, time.Second, intervals[WindowAutocomplete])

	_, err = IntervalsFromRate(0, 3)
	require.Error(t, err)
	_, err = IntervalsFromRate(60, 0)
	require.Error(t, err)
}

func TestNewGateRejectsNonPositiveInterval(t *testing.T) {
	_, err := NewGate(map[Window]time.Duration{WindowLookup: 0})
	require.Error(t, err)

	_, err = NewGate(nil)
	require.Error(t, err)
}

func TestGateWindowsAndInterval(t *testing.T) {
	gate, err := NewGateFromRate(60, 3)
	require.NoError(t, err)
	require.Equal(t, []Window{WindowAutocomplete, WindowLookup}, gate.Windows())

	interval, ok := gate.Interval(WindowLookup)
	require.True(t, ok)
	require.Equal(t, time.Second, interval)

	_, ok = gate.Interval(Window("missing"))
	require.False(t, ok)
}

func TestNilGateDenies(t *testing.T) {
	var gate *Gate
	require.False(t, gate.Admit(WindowLookup))
	require.False(t, gate.Check(WindowAutocomplete).Allowed)
}
