package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myfatemi04/autocut/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cfgFile, verbose = "", false
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autocut.yaml")

	_, err := execute(t, "config", "init", path)
	require.NoError(t, err)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Segment, cfg.Segment)

	_, err = execute(t, "config", "init", path)
	assert.ErrorContains(t, err, "already exists")

	_, err = execute(t, "config", "init", "--force", path)
	assert.NoError(t, err)

	out, err := execute(t, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "min_inactive_gap: 0.5")
	assert.Contains(t, out, "loudness_formula: sum-log")
	assert.Contains(t, out, "copy_codec: false")
}

func TestListFormulas(t *testing.T) {
	out, err := execute(t, "list", "formulas")
	require.NoError(t, err)
	assert.Equal(t, "rms-dbfs\nsum-log\n", out)

	_, err = execute(t, "list", "models")
	assert.Error(t, err)
}

func TestTuningApply(t *testing.T) {
	var opts tuning
	cmd := &cobra.Command{Use: "trim"}
	opts.register(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--threshold", "-3", "--formula", "rms-dbfs", "--keep-temp"}))

	cfg := config.Default()
	require.NoError(t, opts.apply(cmd, cfg))
	assert.Equal(t, -3.0, cfg.Segment.MinActiveLoudness)
	assert.Equal(t, "rms-dbfs", cfg.Segment.LoudnessFormula)
	assert.False(t, cfg.Output.RemoveTemp)
	assert.Equal(t, 0.5, cfg.Segment.MinInactiveGap, "unset flags keep the config value")
}

func TestTrimFlags(t *testing.T) {
	cmd := newTrimCmd()
	for _, name := range []string{"output", "fast", "threshold", "min-gap", "cuts"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
	assert.Nil(t, newAnalyzeCmd().Flags().Lookup("fast"))
}

func TestTuningApplyRejectsInvalid(t *testing.T) {
	var opts tuning
	cmd := &cobra.Command{Use: "analyze"}
	opts.register(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--min-gap", "-1"}))

	assert.Error(t, opts.apply(cmd, config.Default()))
}

func TestTrimRequiresInput(t *testing.T) {
	_, err := execute(t, "trim")
	assert.Error(t, err)

	_, err = execute(t, "analyze", "a.mp4", "b.mp4")
	assert.Error(t, err)
}
