package segment

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidParameter reports parameters or samples the segmenter cannot work with.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrNonMonotonicInput reports a sample whose frame does not advance past the previous one.
	ErrNonMonotonicInput = errors.New("non-monotonic sample frames")

	// ErrEmptyResult reports that no sample ever rose above the loudness threshold.
	ErrEmptyResult = errors.New("no active intervals found")
)

// Validate checks the run parameters
func (p Params) Validate() error {
	if math.IsNaN(p.SampleRate) || math.IsInf(p.SampleRate, 0) || p.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive, got %v", ErrInvalidParameter, p.SampleRate)
	}
	if math.IsNaN(p.MinInactiveGap) || math.IsInf(p.MinInactiveGap, 0) || p.MinInactiveGap < 0 {
		return fmt.Errorf("%w: min inactive gap must be >= 0, got %v", ErrInvalidParameter, p.MinInactiveGap)
	}
	if math.IsNaN(p.MinActiveLoudness) || math.IsInf(p.MinActiveLoudness, 0) {
		return fmt.Errorf("%w: min active loudness must be finite, got %v", ErrInvalidParameter, p.MinActiveLoudness)
	}
	if math.IsNaN(p.TotalDuration) || math.IsInf(p.TotalDuration, 0) || p.TotalDuration < 0 {
		return fmt.Errorf("%w: total duration must be >= 0, got %v", ErrInvalidParameter, p.TotalDuration)
	}
	return nil
}

func checkLoudness(s Sample) error {
	if math.IsNaN(s.Loudness) || math.IsInf(s.Loudness, 0) {
		return fmt.Errorf("%w: non-finite loudness %v at frame %d", ErrInvalidParameter, s.Loudness, s.Frame)
	}
	return nil
}
