package util

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00:00.000"},
		{1500 * time.Millisecond, "00:00:01.500"},
		{61*time.Second + 250*time.Millisecond, "00:01:01.250"},
		{time.Hour + 2*time.Minute + 3*time.Second, "01:02:03.000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.in))
	}
}

func TestSeconds(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, Seconds(1.5))
	assert.Equal(t, time.Duration(0), Seconds(math.NaN()))
	assert.Equal(t, 33333*time.Microsecond, Seconds(1.0/30))
}

func TestParseFrameRate(t *testing.T) {
	assert.Equal(t, 30.0, ParseFrameRate("30/1"))
	assert.InDelta(t, 29.97, ParseFrameRate("30000/1001"), 0.001)
	assert.Equal(t, 0.0, ParseFrameRate("0/0"))
	assert.Equal(t, 0.0, ParseFrameRate("30"))
	assert.Equal(t, 0.0, ParseFrameRate("a/b"))
}

func TestSiblingPath(t *testing.T) {
	assert.Equal(t, "talk_active.mp4", SiblingPath("talk.mp4", "_active"))
	assert.Equal(t, filepath.Join("dir", "v.x_active.mov"), SiblingPath(filepath.Join("dir", "v.x.mov"), "_active"))
	assert.Equal(t, "noext_active", SiblingPath("noext", "_active"))
}

func TestFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, EnsureDir(dir))
	assert.True(t, FileExists(dir))

	f := filepath.Join(dir, "x.wav")
	require.NoError(t, os.WriteFile(f, []byte("x"), 0644))
	assert.True(t, FileExists(f))

	CleanupFiles("", f, filepath.Join(dir, "missing"))
	assert.False(t, FileExists(f))
}
