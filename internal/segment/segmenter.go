package segment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
)

type state int

const (
	inactive state = iota
	active
	activePendingGap
)

func (s state) String() string {
	switch s {
	case inactive:
		return "inactive"
	case active:
		return "active"
	case activePendingGap:
		return "active-pending-gap"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Segmenter turns a loudness stream into active intervals in a single pass
type Segmenter struct {
	params Params

	state    state
	since    int64 // frame where the current active region began
	gapSince int64 // frame where the pending gap began

	last    int64
	started bool
	flushed bool
}

// New creates a segmenter for one run
func New(p Params) (*Segmenter, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Segmenter{params: p}, nil
}

// Push consumes the next sample. It returns an interval when a silence gap
// long enough to be a cut has just closed the active region.
func (s *Segmenter) Push(smp Sample) (Interval, bool, error) {
	if s.flushed {
		return Interval{}, false, fmt.Errorf("segmenter already flushed")
	}
	if err := checkLoudness(smp); err != nil {
		return Interval{}, false, err
	}
	if s.started && smp.Frame <= s.last {
		return Interval{}, false, fmt.Errorf("%w: frame %d after %d", ErrNonMonotonicInput, smp.Frame, s.last)
	}
	s.started = true
	s.last = smp.Frame

	threshold := s.params.MinActiveLoudness

	switch s.state {
	case inactive:
		if smp.Loudness > threshold {
			s.state = active
			s.since = smp.Frame
		}
		return Interval{}, false, nil

	case active, activePendingGap:
		if smp.Loudness >= threshold {
			s.state = active
			return Interval{}, false, nil
		}

		if s.state == active {
			s.state = activePendingGap
			s.gapSince = smp.Frame
		}

		gap := float64(smp.Frame+smp.span()-s.gapSince) / s.params.SampleRate
		if gap < s.params.MinInactiveGap {
			return Interval{}, false, nil
		}

		s.state = inactive
		iv := Interval{
			Start: s.seconds(s.since),
			End:   math.Min(s.seconds(s.gapSince), s.params.TotalDuration),
		}
		if iv.End <= iv.Start {
			return Interval{}, false, nil
		}
		return iv, true, nil
	}

	return Interval{}, false, fmt.Errorf("unknown segmenter state %v", s.state)
}

// Flush ends the stream. A region still open, including one with an
// unresolved gap, runs through to the total duration.
func (s *Segmenter) Flush() (Interval, bool) {
	if s.flushed {
		return Interval{}, false
	}
	s.flushed = true

	if s.state == inactive {
		return Interval{}, false
	}
	s.state = inactive

	start := s.seconds(s.since)
	if s.params.TotalDuration <= start {
		return Interval{}, false
	}
	return Interval{Start: start, End: s.params.TotalDuration}, true
}

func (s *Segmenter) seconds(frame int64) float64 {
	return float64(frame) / s.params.SampleRate
}

// Segment runs the segmenter over a complete sample sequence. Every sample is
// checked before any is consumed. All-quiet input yields an empty slice.
func Segment(samples []Sample, p Params) ([]Interval, error) {
	seg, err := New(p)
	if err != nil {
		return nil, err
	}

	for i, smp := range samples {
		if err := checkLoudness(smp); err != nil {
			return nil, err
		}
		if i > 0 && smp.Frame <= samples[i-1].Frame {
			return nil, fmt.Errorf("%w: frame %d after %d", ErrNonMonotonicInput, smp.Frame, samples[i-1].Frame)
		}
	}

	intervals := make([]Interval, 0)
	for _, smp := range samples {
		iv, ok, err := seg.Push(smp)
		if err != nil {
			return nil, err
		}
		if ok {
			intervals = append(intervals, iv)
		}
	}
	if iv, ok := seg.Flush(); ok {
		intervals = append(intervals, iv)
	}
	return intervals, nil
}

// Run pulls samples from src until io.EOF. Source errors are returned as-is.
// Cancelling ctx discards the partial result.
func Run(ctx context.Context, src Source, p Params) ([]Interval, error) {
	seg, err := New(p)
	if err != nil {
		return nil, err
	}

	intervals := make([]Interval, 0)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		smp, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		iv, ok, err := seg.Push(smp)
		if err != nil {
			return nil, err
		}
		if ok {
			intervals = append(intervals, iv)
		}
	}

	if iv, ok := seg.Flush(); ok {
		intervals = append(intervals, iv)
	}
	return intervals, nil
}
