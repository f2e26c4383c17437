package loudness

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSumLog(t *testing.T) {
	f := SumLog{}
	assert.Equal(t, SumLogName, f.Name())

	silent := f.Measure([][]float64{make([]float64, 100)})
	assert.InDelta(t, 10*math.Log(1e-8), silent, 1e-9)

	loud := f.Measure([][]float64{{0.5, -0.5, 0.5, -0.5}})
	assert.InDelta(t, 10*math.Log(2+1e-8), loud, 1e-9)

	stereo := f.Measure([][]float64{{1, -1}, {0, 0}})
	assert.InDelta(t, (10*math.Log(2+1e-8)+10*math.Log(1e-8))/2, stereo, 1e-9)
}

func TestRMS(t *testing.T) {
	f := RMS{}
	assert.Equal(t, RMSName, f.Name())

	full := f.Measure([][]float64{{1, -1, 1, -1}})
	assert.InDelta(t, 0, full, 1e-6)

	half := f.Measure([][]float64{{0.5, -0.5}})
	assert.InDelta(t, 20*math.Log10(0.5), half, 1e-6)

	assert.Less(t, f.Measure([][]float64{{}}), -150.0)
}

func TestLookup(t *testing.T) {
	f, err := Lookup("")
	require.NoError(t, err)
	assert.Equal(t, SumLogName, f.Name())

	f, err = Lookup(RMSName)
	require.NoError(t, err)
	assert.Equal(t, RMSName, f.Name())

	_, err = Lookup("lufs")
	assert.Error(t, err)

	assert.Equal(t, []string{RMSName, SumLogName}, Names())
}
