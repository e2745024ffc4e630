package engine

import "sync/atomic"

// Sequencer stamps processed events with a strictly increasing number.
//
// Thread-safety: safe for concurrent use, though only the Run loop
// calls Next in practice.
type Sequencer struct {
	seq atomic.Int64
}

// NewSequencer creates a sequencer starting at 0.
func NewSequencer() *Sequencer {
	return &Sequencer{}
}

// NewSequencerAt creates a sequencer that continues after start.
// Used when appending to an existing journal.
func NewSequencerAt(start int64) *Sequencer {
	s := &Sequencer{}
	s.seq.Store(start)
	return s
}

// Next returns the next sequence number.
func (s *Sequencer) Next() int64 {
	return s.seq.Add(1)
}

// Current returns the last number handed out.
func (s *Sequencer) Current() int64 {
	return s.seq.Load()
}
