package session

import "sync/atomic"

// Sequencer hands out increasing tokens so only the newest search may
// apply its response.
type Sequencer struct {
	latest atomic.Uint64
}

// Next issues a token newer than every previous one.
func (s *Sequencer) Next() uint64 { return s.latest.Add(1) }

// IsLatest reports whether token is the most recently issued one.
func (s *Sequencer) IsLatest(token uint64) bool { return s.latest.Load() == token }
