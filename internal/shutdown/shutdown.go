// Package shutdown provides a process-wide stop signal shared by all units.
package shutdown

import (
	"sync"
	"sync/atomic"
)

// Signal transitions from unset to set exactly once. There's no way back.
type Signal struct {
	set  int32
	once sync.Once
	done chan struct{}
}

// New returns an unset signal.
func New() *Signal {
	return &Signal{
		done: make(chan struct{}),
	}
}

// Set sets the signal. Consequent calls have no effect.
func (s *Signal) Set() {
	s.once.Do(func() {
		atomic.StoreInt32(&s.set, 1)
		close(s.done)
	})
}

// IsSet reports whether the signal was set.
func (s *Signal) IsSet() bool {
	return atomic.LoadInt32(&s.set) == 1
}

// Done returns a channel that's closed when the signal is set.
func (s *Signal) Done() <-chan struct{} {
	return s.done
}
