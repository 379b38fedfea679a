// Package breaker sheds traffic to providers that keep failing. The forwarder
// records the outcome of every proxied invocation; once a provider trips, its
// requests are rejected locally until a probe shows the vendor recovered.
//
// State transitions:
//
//	Closed → Open        when consecutive failures ≥ FailureThreshold
//	Open   → HalfOpen   after Timeout elapses
//	HalfOpen → Closed   when consecutive successes ≥ SuccessThreshold
//	HalfOpen → Open     on any failure
package breaker

import (
	"errors"
	"os"
	"strconv"
	"sync"
	"time"
)

// State represents a breaker's current state.
type State int

const (
	// StateClosed is normal operation; requests pass through.
	StateClosed State = iota
	// StateOpen rejects requests immediately; the provider is considered down.
	StateOpen
	// StateHalfOpen lets probe requests through to test recovery.
	StateHalfOpen
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned when a call is rejected because the provider's circuit
// is open.
var ErrOpen = errors.New("provider circuit open")

// Config carries the thresholds shared by all breakers in a Set.
type Config struct {
	FailureThreshold int
	SuccessThreshold int
	Timeout          time.Duration
}

// ConfigFromEnv reads BREAKER_FAILURE_THRESHOLD, BREAKER_SUCCESS_THRESHOLD,
// and BREAKER_TIMEOUT. Zero values fall back to the 5/1/30s defaults in New.
func ConfigFromEnv() Config {
	cfg := Config{}
	if v, err := strconv.Atoi(os.Getenv("BREAKER_FAILURE_THRESHOLD")); err == nil {
		cfg.FailureThreshold = v
	}
	if v, err := strconv.Atoi(os.Getenv("BREAKER_SUCCESS_THRESHOLD")); err == nil {
		cfg.SuccessThreshold = v
	}
	if d, err := time.ParseDuration(os.Getenv("BREAKER_TIMEOUT")); err == nil {
		cfg.Timeout = d
	}
	return cfg
}

// Breaker guards a single downstream provider.
type Breaker struct {
	mu               sync.Mutex
	state            State
	failureCount     int
	successCount     int
	failureThreshold int
	successThreshold int
	timeout          time.Duration
	openUntil        time.Time

	// notify fires on every state change, with mu held. Keep it cheap.
	notify func(State)
}

// New creates a Breaker with the given thresholds and open timeout.
// Defaults are applied for zero/negative values: failureThreshold=5,
// successThreshold=1, timeout=30s.
func New(failureThreshold, successThreshold int, timeout time.Duration) *Breaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	if successThreshold <= 0 {
		successThreshold = 1
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Breaker{
		state:            StateClosed,
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		timeout:          timeout,
	}
}

// State returns the current state, transitioning Open→HalfOpen if the timeout
// has elapsed.
func (cb *Breaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.resolveState()
}

// resolveState must be called with cb.mu held.
func (cb *Breaker) resolveState() State {
	if cb.state == StateOpen && time.Now().After(cb.openUntil) {
		cb.transition(StateHalfOpen)
		cb.successCount = 0
	}
	return cb.state
}

// transition must be called with cb.mu held.
func (cb *Breaker) transition(to State) {
	if cb.state == to {
		return
	}
	cb.state = to
	if cb.notify != nil {
		cb.notify(to)
	}
}

// Allow returns true if the request should proceed (circuit is Closed or
// HalfOpen), false if it should be rejected (circuit is Open).
func (cb *Breaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.resolveState() != StateOpen
}

// RecordSuccess notifies the breaker that a call succeeded.
func (cb *Breaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	switch cb.state {
	case StateHalfOpen:
		cb.successCount++
		if cb.successCount >= cb.successThreshold {
			cb.transition(StateClosed)
			cb.failureCount = 0
			cb.successCount = 0
		}
	case StateClosed:
		cb.failureCount = 0
	}
}

// RecordFailure notifies the breaker that a call failed.
func (cb *Breaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	switch cb.state {
	case StateClosed:
		cb.failureCount++
		if cb.failureCount >= cb.failureThreshold {
			cb.transition(StateOpen)
			cb.openUntil = time.Now().Add(cb.timeout)
		}
	case StateHalfOpen:
		cb.transition(StateOpen)
		cb.openUntil = time.Now().Add(cb.timeout)
		cb.successCount = 0
	}
}

// Set holds one Breaker per provider, created on demand.
type Set struct {
	mu       sync.Mutex
	breakers map[string]*Breaker
	cfg      Config

	// onChange receives provider state changes, for the state gauge.
	onChange func(name string, s State)
}

// NewSet builds a Set whose breakers share cfg. onChange may be nil.
func NewSet(cfg Config, onChange func(name string, s State)) *Set {
	return &Set{
		breakers: make(map[string]*Breaker),
		cfg:      cfg,
		onChange: onChange,
	}
}

// Breaker returns the breaker for name, creating it on first use.
func (s *Set) Breaker(name string) *Breaker {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cb, ok := s.breakers[name]; ok {
		return cb
	}
	cb := New(s.cfg.FailureThreshold, s.cfg.SuccessThreshold, s.cfg.Timeout)
	if s.onChange != nil {
		cb.notify = func(st State) { s.onChange(name, st) }
		s.onChange(name, StateClosed)
	}
	s.breakers[name] = cb
	return cb
}

// Do runs fn under name's breaker: it returns ErrOpen without calling fn when
// the circuit is open, and records fn's outcome otherwise.
func (s *Set) Do(name string, fn func() error) error {
	cb := s.Breaker(name)
	if !cb.Allow() {
		return ErrOpen
	}
	if err := fn(); err != nil {
		cb.RecordFailure()
		return err
	}
	cb.RecordSuccess()
	return nil
}

// States snapshots the current state of every breaker in the set.
func (s *Set) States() map[string]State {
	s.mu.Lock()
	names := make([]string, 0, len(s.breakers))
	breakers := make([]*Breaker, 0, len(s.breakers))
	for name, cb := range s.breakers {
		names = append(names, name)
		breakers = append(breakers, cb)
	}
	s.mu.Unlock()

	// Resolve states outside the set lock; State takes each breaker's own.
	out := make(map[string]State, len(names))
	for i, cb := range breakers {
		out[names[i]] = cb.State()
	}
	return out
}
