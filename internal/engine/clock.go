package engine

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/roach88/tesseract/internal/store"
)

// Clock hands out the seq numbers that order the resolution log.
//
// A seq is logical: it says where a record sits in the log, not when it was
// written, so listings and replays never depend on wall time. Safe for
// concurrent use.
type Clock struct {
	last atomic.Int64
}

// NewClock returns a clock for an empty log; the first seq is 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt returns a clock whose first seq is last+1.
func NewClockAt(last int64) *Clock {
	c := &Clock{}
	c.last.Store(last)
	return c
}

// ResumeClock returns a clock that continues after the highest seq already
// in st, so records appended by a new process keep the log ordered.
func ResumeClock(ctx context.Context, st *store.Store) (*Clock, error) {
	last, err := st.LastSeq(ctx)
	if err != nil {
		return nil, fmt.Errorf("resume clock: %w", err)
	}
	return NewClockAt(last), nil
}

// Next returns the next seq.
func (c *Clock) Next() int64 {
	return c.last.Add(1)
}

// Current returns the last seq handed out.
func (c *Clock) Current() int64 {
	return c.last.Load()
}
