package engine

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Window identifies an independently admitted call class.
type Window string

const (
	// WindowLookup is shared by dictionary lookups and sentence generation.
	WindowLookup Window = "lookup"
	// WindowAutocomplete is used by autocomplete suggestions.
	WindowAutocomplete Window = "autocomplete"
)

// DefaultRatePerMinute mirrors the service default of one lookup per second.
const DefaultRatePerMinute = 60

// DefaultAutocompleteMultiplier lets autocomplete run three times as often as lookups.
const DefaultAutocompleteMultiplier = 3

// Decision is the outcome of an admission check.
type Decision struct {
	Allowed bool
	// RetryAfter is the remaining part of the interval when denied.
	RetryAfter time.Duration
}

// Gate is a strict minimum-interval limiter with one window per call class.
//
// A window admits a call when it has never admitted one or when at least its
// interval has elapsed since the last admission. Denials leave state untouched,
// so no burst credit accumulates. Each window has its own lock.
type Gate struct {
	Clock   func() time.Time
	windows map[Window]*rateWindow
}

type rateWindow struct {
	mu          sync.Mutex
	minInterval time.Duration
	lastAdmit   time.Time
	admitted    bool
}

// NewGate builds a gate from per-window minimum intervals.
func NewGate(intervals map[Window]time.Duration) (*Gate, error) {
	if len(intervals) == 0 {
		return nil, fmt.Errorf("at least one admission window is required")
	}
	windows := make(map[Window]*rateWindow, len(intervals))
	for id, interval := range intervals {
		if id == "" {
			return nil, fmt.Errorf("admission window id is required")
		}
		if interval <= 0 {
			return nil, fmt.Errorf("admission window %q: interval must be positive, got %s", id, interval)
		}
		windows[id] = &rateWindow{minInterval: interval}
	}
	return &Gate{windows: windows}, nil
}

// IntervalsFromRate derives the lookup and autocomplete intervals from a
// requests-per-minute rate: 60/rate seconds and 60/(rate*multiplier) seconds.
func IntervalsFromRate(ratePerMinute, autocompleteMultiplier float64) (map[Window]time.Duration, error) {
	if ratePerMinute <= 0 {
		return nil, fmt.Errorf("rate limit must be positive, got %v", ratePerMinute)
	}
	if autocompleteMultiplier <= 0 {
		return nil, fmt.Errorf("autocomplete multiplier must be positive, got %v", autocompleteMultiplier)
	}

	lookup := time.Duration(float64(time.Minute) / ratePerMinute)
	autocomplete := time.Duration(float64(time.Minute) / (ratePerMinute * autocompleteMultiplier))
	if lookup <= 0 || autocomplete <= 0 {
		return nil, fmt.Errorf("rate limit %v/min is too high to express as an interval", ratePerMinute)
	}

	return map[Window]time.Duration{
		WindowLookup:       lookup,
		WindowAutocomplete: autocomplete,
	}, nil
}

// NewGateFromRate is shorthand for IntervalsFromRate followed by NewGate.
func NewGateFromRate(ratePerMinute, autocompleteMultiplier float64) (*Gate, error) {
	intervals, err := IntervalsFromRate(ratePerMinute, autocompleteMultiplier)
	if err != nil {
		return nil, err
	}
	return NewGate(intervals)
}

// Admit reports whether a call in the window may proceed now.
func (g *Gate) Admit(id Window) bool {
	return g.Check(id).Allowed
}

// Check performs an admission check and records the admission when allowed.
// Unknown windows and a nil gate are denied.
func (g *Gate) Check(id Window) Decision {
	if g == nil {
		return Decision{}
	}
	w, ok := g.windows[id]
	if !ok {
		return Decision{}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	now := g.now()
	if w.admitted {
		elapsed := now.Sub(w.lastAdmit)
		if elapsed < w.minInterval {
			return Decision{RetryAfter: w.minInterval - elapsed}
		}
	}

	w.lastAdmit = now
	w.admitted = true
	return Decision{Allowed: true}
}

// Interval returns the minimum interval configured for a window.
func (g *Gate) Interval(id Window) (time.Duration, bool) {
	if g == nil {
		return 0, false
	}
	w, ok := g.windows[id]
	if !ok {
		return 0, false
	}
	return w.minInterval, true
}

// Windows lists configured window ids in sorted order.
func (g *Gate) Windows() []Window {
	if g == nil {
		return nil
	}
	ids := make([]Window, 0, len(g.windows))
	for id := range g.windows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (g *Gate) now() time.Time {
	if g != nil && g.Clock != nil {
		return g.Clock()
	}
	return time.Now()
}
