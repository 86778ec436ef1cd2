// Package circuitbreaker guards a repeatedly attempted operation with a
// generation-counted state machine. The stream worker uses it to stop
// hammering a source that has failed too many reconnects in a row.
package circuitbreaker

import (
	"fmt"
	"sync"
	"time"
)

// State is one of the three circuit breaker states.
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half_open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Counts tracks request outcomes within the breaker's current generation.
type Counts struct {
	Requests             uint32
	TotalSuccesses       uint32
	TotalFailures        uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

// Settings configures a Breaker. Zero values fall back to defaults.
type Settings struct {
	Name          string
	MaxRequests   uint32        // requests allowed through while half-open
	Interval      time.Duration // closed-state window after which counts reset
	Timeout       time.Duration // open-state duration before probing half-open
	ReadyToTrip   func(counts Counts) bool
	OnStateChange func(name string, from, to State)
}

// Breaker trips open after repeated failures, refuses calls while open,
// and probes a single half-open call before closing again.
type Breaker struct {
	name          string
	maxRequests   uint32
	interval      time.Duration
	timeout       time.Duration
	readyToTrip   func(counts Counts) bool
	onStateChange func(name string, from, to State)

	mutex  sync.RWMutex
	state  State
	counts Counts
	expiry time.Time
}

// New builds a Breaker from st, applying defaults for anything unset.
func New(st Settings) *Breaker {
	b := &Breaker{
		name:          st.Name,
		maxRequests:   st.MaxRequests,
		interval:      st.Interval,
		timeout:       st.Timeout,
		readyToTrip:   st.ReadyToTrip,
		onStateChange: st.OnStateChange,
	}
	if b.readyToTrip == nil {
		b.readyToTrip = func(c Counts) bool { return c.ConsecutiveFailures >= 5 }
	}
	if b.maxRequests == 0 {
		b.maxRequests = 1
	}
	if b.interval <= 0 {
		b.interval = 60 * time.Second
	}
	if b.timeout <= 0 {
		b.timeout = 60 * time.Second
	}
	return b
}

// ErrOpen is returned by Execute when the breaker refuses the call.
type ErrOpen struct{ Name string }

func (e *ErrOpen) Error() string { return fmt.Sprintf("circuit breaker %q is open", e.Name) }

// ErrTooManyRequests is returned by Execute when the breaker is half-open
// and already has maxRequests in flight.
type ErrTooManyRequests struct{ Name string }

func (e *ErrTooManyRequests) Error() string {
	return fmt.Sprintf("circuit breaker %q is half-open and at its request cap", e.Name)
}

// Execute runs op if the breaker currently admits calls, recording the
// outcome. A panic inside op is recorded as a failure and re-raised.
func (b *Breaker) Execute(op func() error) error {
	generation, err := b.before()
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			b.after(generation, false)
			panic(r)
		}
	}()

	err = op()
	b.after(generation, err == nil)
	return err
}

func (b *Breaker) before() (uint64, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	now := time.Now()
	state, generation := b.currentState(now)

	switch {
	case state == StateOpen:
		return generation, &ErrOpen{Name: b.name}
	case state == StateHalfOpen && b.counts.Requests >= b.maxRequests:
		return generation, &ErrTooManyRequests{Name: b.name}
	}

	b.counts.Requests++
	return generation, nil
}

func (b *Breaker) after(before uint64, success bool) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	now := time.Now()
	state, generation := b.currentState(now)
	if generation != before {
		return
	}
	if success {
		b.onSuccess(state, now)
	} else {
		b.onFailure(state, now)
	}
}

func (b *Breaker) onSuccess(state State, now time.Time) {
	switch state {
	case StateClosed:
		b.counts.TotalSuccesses++
		b.counts.ConsecutiveSuccesses++
		b.counts.ConsecutiveFailures = 0
	case StateHalfOpen:
		b.counts.TotalSuccesses++
		b.counts.ConsecutiveSuccesses++
		b.counts.ConsecutiveFailures = 0
		if b.counts.ConsecutiveSuccesses >= b.maxRequests {
			b.setState(StateClosed, now)
		}
	}
}

func (b *Breaker) onFailure(state State, now time.Time) {
	switch state {
	case StateClosed:
		b.counts.TotalFailures++
		b.counts.ConsecutiveFailures++
		b.counts.ConsecutiveSuccesses = 0
		if b.readyToTrip(b.counts) {
			b.setState(StateOpen, now)
		}
	case StateHalfOpen:
		b.setState(StateOpen, now)
	}
}

// currentState advances the state machine for elapsed time (clears counts
// past a closed-state interval, flips open to half-open past timeout) and
// returns the resulting state and its generation.
func (b *Breaker) currentState(now time.Time) (State, uint64) {
	switch b.state {
	case StateClosed:
		if !b.expiry.IsZero() && b.expiry.Before(now) {
			b.toNewGeneration(now)
		}
	case StateOpen:
		if b.expiry.Before(now) {
			b.setState(StateHalfOpen, now)
		}
	}
	return b.state, uint64(b.expiry.UnixNano())
}

func (b *Breaker) setState(state State, now time.Time) {
	if b.state == state {
		return
	}
	prev := b.state
	b.state = state
	b.toNewGeneration(now)
	if b.onStateChange != nil {
		b.onStateChange(b.name, prev, state)
	}
}

func (b *Breaker) toNewGeneration(now time.Time) {
	b.counts = Counts{}

	var zero time.Time
	switch b.state {
	case StateClosed:
		if b.interval == 0 {
			b.expiry = zero
		} else {
			b.expiry = now.Add(b.interval)
		}
	case StateOpen:
		b.expiry = now.Add(b.timeout)
	default: // half-open
		b.expiry = zero
	}
}

// State returns the breaker's current state, advancing its internal clock
// first so a caller observes an open-to-half-open transition without
// needing to call Execute.
func (b *Breaker) State() State {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	state, _ := b.currentState(time.Now())
	return state
}

// Counts returns a snapshot of the current generation's counters.
func (b *Breaker) Counts() Counts {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return b.counts
}

// Name returns the breaker's configured name.
func (b *Breaker) Name() string { return b.name }
