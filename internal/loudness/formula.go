package loudness

import (
	"fmt"
	"math"
	"sort"
)

// Formula reduces one chunk of normalised samples, split per channel, to a scalar loudness
type Formula interface {
	Name() string
	Measure(channels [][]float64) float64
}

const (
	SumLogName = "sum-log"
	RMSName    = "rms-dbfs"
)

// SumLog is 10*ln(sum|x| + 1e-8) per channel, averaged across channels.
// It grows with chunk length, so thresholds depend on the sample rate.
type SumLog struct{}

func (SumLog) Name() string { return SumLogName }

func (SumLog) Measure(channels [][]float64) float64 {
	return average(channels, func(ch []float64) float64 {
		sum := 0.0
		for _, v := range ch {
			sum += math.Abs(v)
		}
		return 10 * math.Log(sum+1e-8)
	})
}

// RMS is the root-mean-square level in dBFS, averaged across channels
type RMS struct{}

func (RMS) Name() string { return RMSName }

func (RMS) Measure(channels [][]float64) float64 {
	return average(channels, func(ch []float64) float64 {
		if len(ch) == 0 {
			return 20 * math.Log10(1e-10)
		}
		sum := 0.0
		for _, v := range ch {
			sum += v * v
		}
		return 20 * math.Log10(math.Sqrt(sum/float64(len(ch)))+1e-10)
	})
}

func average(channels [][]float64, f func([]float64) float64) float64 {
	if len(channels) == 0 {
		return f(nil)
	}
	total := 0.0
	for _, ch := range channels {
		total += f(ch)
	}
	return total / float64(len(channels))
}

var formulas = map[string]Formula{
	SumLogName: SumLog{},
	RMSName:    RMS{},
}

// Lookup resolves a formula by its config name
func Lookup(name string) (Formula, error) {
	if name == "" {
		return SumLog{}, nil
	}
	f, ok := formulas[name]
	if !ok {
		return nil, fmt.Errorf("unknown loudness formula %q (available: %v)", name, Names())
	}
	return f, nil
}

// Names lists the registered formula names
func Names() []string {
	names := make([]string, 0, len(formulas))
	for name := range formulas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
