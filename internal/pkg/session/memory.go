package session

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/shandysiswandi/adminotp/internal/pkg/clock"
)

type memoryEntry struct {
	values    Values
	expiresAt time.Time
}

// Memory is a process-local Store, meant for single-instance deployments and tests.
type Memory struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	ttl     time.Duration
	clock   clock.Clocker
}

// NewMemory returns an in-memory Store whose sessions expire after ttl of inactivity.
func NewMemory(ttl time.Duration, clk clock.Clocker) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Memory{
		entries: make(map[string]*memoryEntry),
		ttl:     ttl,
		clock:   clk,
	}
}

// entry returns the live entry for sid, dropping it when expired. Caller holds mu.
func (s *Memory) entry(sid string) *memoryEntry {
	e, ok := s.entries[sid]
	if !ok {
		return nil
	}
	if s.clock.Now().After(e.expiresAt) {
		delete(s.entries, sid)
		return nil
	}
	return e
}

func (s *Memory) touch(sid string) *memoryEntry {
	e := s.entry(sid)
	if e == nil {
		e = &memoryEntry{values: make(Values)}
		s.entries[sid] = e
	}
	e.expiresAt = s.clock.Now().Add(s.ttl)
	return e
}

// Get returns a copy of the session values.
func (s *Memory) Get(_ context.Context, sid string) (Values, error) {
	if sid == "" {
		return nil, ErrIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(Values)
	if e := s.entry(sid); e != nil {
		for k, v := range e.values {
			out[k] = v
		}
	}
	return out, nil
}

// Set merges values into the session.
func (s *Memory) Set(_ context.Context, sid string, values Values) error {
	if sid == "" {
		return ErrIDRequired
	}
	if len(values) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.touch(sid)
	for k, v := range values {
		e.values[k] = v
	}
	return nil
}

// IncrIf increments key under the store lock. A non-integer value restarts from zero.
func (s *Memory) IncrIf(_ context.Context, sid, key, guard, want string) (int64, bool, error) {
	if sid == "" {
		return 0, false, ErrIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entry(sid)
	if e == nil {
		return 0, false, nil
	}
	if v, ok := e.values[guard]; !ok || v != want {
		return 0, false, nil
	}

	n, err := strconv.ParseInt(e.values[key], 10, 64)
	if err != nil {
		n = 0
	}
	n++
	e.values[key] = strconv.FormatInt(n, 10)
	e.expiresAt = s.clock.Now().Add(s.ttl)
	return n, true, nil
}

// Flush removes the session.
func (s *Memory) Flush(_ context.Context, sid string) error {
	if sid == "" {
		return ErrIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, sid)
	return nil
}
