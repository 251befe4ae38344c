package config

import "sync/atomic"

// Store holds a copy-on-write snapshot of Config. Readers call Get and
// receive a pointer that will never change underneath them; writers call
// Update, which builds a whole new Config from a mutator applied to a copy
// of the current one and swaps it in atomically — a load-once-at-startup
// pointer has no way to satisfy PUT /config/context.
type Store struct {
	ptr atomic.Pointer[Config]
}

// NewStore publishes cfg as the initial snapshot.
func NewStore(cfg *Config) *Store {
	s := &Store{}
	s.ptr.Store(cfg)
	return s
}

// Get returns the current snapshot. The returned pointer must be treated
// as read-only by the caller.
func (s *Store) Get() *Config {
	return s.ptr.Load()
}

// Update applies mutate to a shallow copy of the current snapshot and
// publishes the result. mutate runs without holding any lock, so it must
// not retain or mutate the Config pointer it's handed beyond its own call.
func (s *Store) Update(mutate func(next *Config)) *Config {
	current := s.ptr.Load()
	next := *current
	mutate(&next)
	s.ptr.Store(&next)
	return &next
}

// UpdateContext is the narrow mutation PUT /config/context exposes: it
// replaces only the ContextConfig, leaving every other section untouched.
func (s *Store) UpdateContext(ctx ContextConfig) *Config {
	return s.Update(func(next *Config) {
		next.Context = ctx
	})
}
