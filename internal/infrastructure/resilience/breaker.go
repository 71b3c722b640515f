package resilience

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrCircuitOpen     = errors.New("circuit breaker is open")
	ErrTooManyRequests = errors.New("too many requests")
)

// State represents the circuit breaker state
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Settings configures the circuit breaker behavior
type Settings struct {
	// FailureThreshold is the number of consecutive failures that opens
	// the breaker. Defaults to 5.
	FailureThreshold uint32
	// Cooldown is how long the breaker stays open before probing.
	// Defaults to 30s.
	Cooldown time.Duration
	// HalfOpenProbes is how many trial calls may run while half-open, and
	// how many must succeed to close again. Defaults to 1.
	HalfOpenProbes uint32
	// OnStateChange is called whenever the state changes, under no lock.
	OnStateChange func(name string, from State, to State)
	// Now overrides time.Now, for tests.
	Now func() time.Time
}

// Counts holds the statistics for the current state
type Counts struct {
	Requests             uint32
	TotalSuccesses       uint32
	TotalFailures        uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

// Breaker implements the circuit breaker pattern
type Breaker struct {
	name     string
	settings Settings

	mu       sync.Mutex
	state    State
	counts   Counts
	openedAt time.Time
	inFlight uint32
}

// New creates a circuit breaker, filling unset settings with defaults.
func New(name string, settings Settings) *Breaker {
	if settings.FailureThreshold == 0 {
		settings.FailureThreshold = 5
	}
	if settings.Cooldown == 0 {
		settings.Cooldown = 30 * time.Second
	}
	if settings.HalfOpenProbes == 0 {
		settings.HalfOpenProbes = 1
	}
	if settings.Now == nil {
		settings.Now = time.Now
	}
	return &Breaker{name: name, settings: settings}
}

// Name returns the name of the circuit breaker
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current state, moving open to half-open once the
// cooldown has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	state, notify := b.refreshLocked()
	b.mu.Unlock()
	notify()
	return state
}

// Counts returns a copy of the counts for the current state
func (b *Breaker) Counts() Counts {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts
}

// Do runs fn if the breaker admits it and records the outcome. A non-nil
// error from fn counts as a failure and is returned unchanged.
func (b *Breaker) Do(fn func() error) error {
	if err := b.admit(); err != nil {
		return err
	}

	success := false
	defer func() {
		b.complete(success)
	}()

	err := fn()
	success = err == nil
	return err
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	state, notify := b.refreshLocked()
	defer notify()
	defer b.mu.Unlock()

	switch state {
	case StateOpen:
		return ErrCircuitOpen
	case StateHalfOpen:
		if b.inFlight >= b.settings.HalfOpenProbes {
			return ErrTooManyRequests
		}
	}
	b.inFlight++
	b.counts.Requests++
	return nil
}

func (b *Breaker) complete(success bool) {
	b.mu.Lock()
	b.inFlight--

	notify := func() {}
	if success {
		b.counts.TotalSuccesses++
		b.counts.ConsecutiveSuccesses++
		b.counts.ConsecutiveFailures = 0
		if b.state == StateHalfOpen && b.counts.ConsecutiveSuccesses >= b.settings.HalfOpenProbes {
			notify = b.transitionLocked(StateClosed)
		}
	} else {
		b.counts.TotalFailures++
		b.counts.ConsecutiveFailures++
		b.counts.ConsecutiveSuccesses = 0
		if b.state == StateHalfOpen || b.counts.ConsecutiveFailures >= b.settings.FailureThreshold {
			notify = b.transitionLocked(StateOpen)
		}
	}
	b.mu.Unlock()
	notify()
}

func (b *Breaker) refreshLocked() (State, func()) {
	if b.state == StateOpen && !b.settings.Now().Before(b.openedAt.Add(b.settings.Cooldown)) {
		return StateHalfOpen, b.transitionLocked(StateHalfOpen)
	}
	return b.state, func() {}
}

// transitionLocked switches state and returns the callback to run once
// the lock is released.
func (b *Breaker) transitionLocked(to State) func() {
	from := b.state
	if from == to {
		return func() {}
	}
	b.state = to
	b.counts = Counts{}
	if to == StateOpen {
		b.openedAt = b.settings.Now()
	}

	if cb := b.settings.OnStateChange; cb != nil {
		name := b.name
		return func() { cb(name, from, to) }
	}
	return func() {}
}
