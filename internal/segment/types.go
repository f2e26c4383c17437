package segment

import (
	"time"

	"github.com/myfatemi04/autocut/pkg/util"
)

// Sample is one loudness measurement covering a fixed-duration audio chunk
type Sample struct {
	// Frame is the audio frame offset where the chunk starts. It accumulates
	// chunk lengths, so Frame / SampleRate is elapsed time in seconds.
	Frame int64
	// Length is the number of audio frames covered by the chunk. Zero counts as one.
	Length   int64
	Loudness float64
}

func (s Sample) span() int64 {
	if s.Length <= 0 {
		return 1
	}
	return s.Length
}

// Interval is an active span of the source, in seconds
type Interval struct {
	Start float64 `yaml:"start" json:"start"`
	End   float64 `yaml:"end" json:"end"`
}

// Duration returns the interval length in seconds
func (iv Interval) Duration() float64 {
	return iv.End - iv.Start
}

// StartTime returns the start as a time.Duration
func (iv Interval) StartTime() time.Duration {
	return util.Seconds(iv.Start)
}

// EndTime returns the end as a time.Duration
func (iv Interval) EndTime() time.Duration {
	return util.Seconds(iv.End)
}

// TotalDuration sums the length of all intervals in seconds
func TotalDuration(intervals []Interval) float64 {
	total := 0.0
	for _, iv := range intervals {
		total += iv.Duration()
	}
	return total
}

// Params configures a segmentation run
type Params struct {
	// MinActiveLoudness is the loudness a sample must exceed to open an active region.
	MinActiveLoudness float64 `yaml:"min_active_loudness"`
	// MinInactiveGap is the shortest silence, in seconds, that closes an active region.
	MinInactiveGap float64 `yaml:"min_inactive_gap"`
	// SampleRate converts frame offsets to seconds.
	SampleRate float64 `yaml:"sample_rate"`
	// TotalDuration closes a region still open at end of stream.
	TotalDuration float64 `yaml:"total_duration"`
}

// Source yields samples in increasing frame order and io.EOF when exhausted
type Source interface {
	Next() (Sample, error)
}
