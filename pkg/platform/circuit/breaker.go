// Package circuit provides a two-state circuit breaker for remote dependencies.
package circuit

import "sync"

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means the dependency is healthy and calls go to it first.
	StateClosed State = iota
	// StateOpen means the dependency is failing and callers should prefer
	// their fallback.
	StateOpen
)

func (s State) String() string {
	if s == StateOpen {
		return "open"
	}
	return "closed"
}

// StateChange represents a circuit breaker state transition.
type StateChange struct {
	Opened bool
	Closed bool
}

// Breaker opens after FailureThreshold consecutive failures and closes again
// after SuccessThreshold consecutive successes while open. Callers keep
// probing the dependency while open; the breaker only advises.
type Breaker struct {
	mu               sync.Mutex
	state            State
	name             string
	failureCount     int
	successCount     int
	failureThreshold int
	successThreshold int
	onChange         func(name string, to State)
}

// Option configures a Breaker instance.
type Option func(*Breaker)

// WithFailureThreshold sets the number of consecutive failures to open the circuit.
// Default is 5.
func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.failureThreshold = n
		}
	}
}

// WithSuccessThreshold sets the number of consecutive successes to close the circuit.
// Default is 3.
func WithSuccessThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.successThreshold = n
		}
	}
}

// WithStateChangeHook is called, outside the lock, on every transition.
func WithStateChangeHook(fn func(name string, to State)) Option {
	return func(b *Breaker) {
		b.onChange = fn
	}
}

func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:             name,
		state:            StateClosed,
		failureThreshold: 5,
		successThreshold: 3,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func (b *Breaker) Name() string {
	return b.name
}

func (b *Breaker) IsOpen() bool {
	return b.State() == StateOpen
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// RecordFailure records a failed call. useFallback is true while the circuit
// is open.
func (b *Breaker) RecordFailure() (useFallback bool, change StateChange) {
	b.mu.Lock()
	b.failureCount++
	b.successCount = 0
	switch {
	case b.state == StateOpen:
		useFallback = true
	case b.failureCount >= b.failureThreshold:
		b.state = StateOpen
		useFallback, change = true, StateChange{Opened: true}
	}
	b.mu.Unlock()

	b.notify(change)
	return useFallback, change
}

// RecordSuccess records a successful call. usePrimary turns true once the
// circuit is closed.
func (b *Breaker) RecordSuccess() (usePrimary bool, change StateChange) {
	b.mu.Lock()
	usePrimary = true
	if b.state == StateOpen {
		b.successCount++
		if b.successCount >= b.successThreshold {
			b.state = StateClosed
			b.failureCount = 0
			b.successCount = 0
			change = StateChange{Closed: true}
		} else {
			usePrimary = false
		}
	} else {
		b.failureCount = 0
	}
	b.mu.Unlock()

	b.notify(change)
	return usePrimary, change
}

// Reset closes the circuit and clears counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failureCount = 0
	b.successCount = 0
}

func (b *Breaker) notify(change StateChange) {
	if b.onChange == nil {
		return
	}
	switch {
	case change.Opened:
		b.onChange(b.name, StateOpen)
	case change.Closed:
		b.onChange(b.name, StateClosed)
	}
}
