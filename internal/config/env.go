package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// EnvLoader applies AUTOCUT_* environment overrides. Tests can override
// Lookup to inject deterministic maps.
type EnvLoader struct {
	Lookup func(string) (string, bool)
}

// Apply overlays environment values onto cfg
func (l EnvLoader) Apply(cfg *Config) error {
	if l.Lookup == nil {
		l.Lookup = os.LookupEnv
	}

	overrideString(l.Lookup, "AUTOCUT_TEMP_DIR", &cfg.TempDir)
	overrideString(l.Lookup, "AUTOCUT_LOUDNESS_FORMULA", &cfg.Segment.LoudnessFormula)
	overrideString(l.Lookup, "AUTOCUT_OUTPUT", &cfg.Output.Path)
	overrideString(l.Lookup, "AUTOCUT_TEMP_AUDIO", &cfg.Output.TempAudioPath)
	overrideString(l.Lookup, "AUTOCUT_VIDEO_CODEC", &cfg.Output.VideoCodec)
	overrideString(l.Lookup, "AUTOCUT_AUDIO_CODEC", &cfg.Output.AudioCodec)
	overrideString(l.Lookup, "AUTOCUT_FFMPEG", &cfg.FFmpeg.BinaryPath)
	overrideString(l.Lookup, "AUTOCUT_FFPROBE", &cfg.FFmpeg.ProbePath)

	if err := overrideFloat(l.Lookup, "AUTOCUT_MIN_ACTIVE_LOUDNESS", &cfg.Segment.MinActiveLoudness); err != nil {
		return err
	}
	if err := overrideFloat(l.Lookup, "AUTOCUT_MIN_INACTIVE_GAP", &cfg.Segment.MinInactiveGap); err != nil {
		return err
	}
	if err := overrideFloat(l.Lookup, "AUTOCUT_CHUNK_DURATION", &cfg.Segment.ChunkDuration); err != nil {
		return err
	}
	if err := overrideInt(l.Lookup, "AUTOCUT_FFMPEG_THREADS", &cfg.FFmpeg.Threads); err != nil {
		return err
	}
	if err := overrideBool(l.Lookup, "AUTOCUT_REMOVE_TEMP", &cfg.Output.RemoveTemp); err != nil {
		return err
	}
	if err := overrideBool(l.Lookup, "AUTOCUT_COPY_CODEC", &cfg.Output.CopyCodec); err != nil {
		return err
	}
	return nil
}

func overrideString(lookup func(string) (string, bool), key string, target *string) {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		*target = strings.TrimSpace(value)
	}
}

func overrideFloat(lookup func(string) (string, bool), key string, target *float64) error {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return fmt.Errorf("config: invalid value for %s: %w", key, err)
		}
		*target = parsed
	}
	return nil
}

func overrideInt(lookup func(string) (string, bool), key string, target *int) error {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("config: invalid value for %s: %w", key, err)
		}
		*target = parsed
	}
	return nil
}

func overrideBool(lookup func(string) (string, bool), key string, target *bool) error {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("config: invalid value for %s: %w", key, err)
		}
		*target = parsed
	}
	return nil
}
