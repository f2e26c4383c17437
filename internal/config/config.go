package config

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/myfatemi04/autocut/internal/loudness"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all application configuration
type Config struct {
	// Core settings
	TempDir string `yaml:"temp_dir"`

	// Segmentation settings
	Segment SegmentConfig `yaml:"segment"`

	// Audio extraction settings
	Audio AudioConfig `yaml:"audio"`

	// Output settings
	Output OutputConfig `yaml:"output"`

	// FFmpeg settings
	FFmpeg FFmpegConfig `yaml:"ffmpeg"`
}

type SegmentConfig struct {
	MinActiveLoudness float64 `yaml:"min_active_loudness"`
	MinInactiveGap    float64 `yaml:"min_inactive_gap"`
	ChunkDuration     float64 `yaml:"chunk_duration"`
	LoudnessFormula   string  `yaml:"loudness_formula"`
}

// AudioConfig controls the PCM track extracted for analysis. Zero keeps the source value.
type AudioConfig struct {
	SampleRate int `yaml:"sample_rate"`
	Channels   int `yaml:"channels"`
}

type OutputConfig struct {
	Path          string `yaml:"path"`
	TempAudioPath string `yaml:"temp_audio_path"`
	VideoCodec    string `yaml:"video_codec"`
	AudioCodec    string `yaml:"audio_codec"`
	CRF           int    `yaml:"crf"`
	Preset        string `yaml:"preset"`
	RemoveTemp    bool   `yaml:"remove_temp"`
	Autorotate    bool   `yaml:"autorotate"`
	CopyCodec     bool   `yaml:"copy_codec"`
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path"`
	ProbePath  string `yaml:"probe_path"`
	Threads    int    `yaml:"threads"`
}

// Load reads configuration from file, applies AUTOCUT_* environment
// overrides and validates the result
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	if err := (EnvLoader{}).Apply(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks value ranges
func (c *Config) Validate() error {
	s := c.Segment
	if math.IsNaN(s.MinActiveLoudness) || math.IsInf(s.MinActiveLoudness, 0) {
		return fmt.Errorf("config: segment.min_active_loudness must be finite")
	}
	if math.IsNaN(s.MinInactiveGap) || s.MinInactiveGap < 0 {
		return fmt.Errorf("config: segment.min_inactive_gap must be >= 0, got %v", s.MinInactiveGap)
	}
	if math.IsNaN(s.ChunkDuration) || s.ChunkDuration <= 0 {
		return fmt.Errorf("config: segment.chunk_duration must be positive, got %v", s.ChunkDuration)
	}
	if _, err := loudness.Lookup(s.LoudnessFormula); err != nil {
		return fmt.Errorf("config: segment.loudness_formula: %w", err)
	}
	if c.Audio.SampleRate < 0 {
		return fmt.Errorf("config: audio.sample_rate cannot be negative")
	}
	if c.Audio.Channels < 0 {
		return fmt.Errorf("config: audio.channels cannot be negative")
	}
	if c.Output.CRF < 0 || c.Output.CRF > 51 {
		return fmt.Errorf("config: output.crf must be between 0 and 51")
	}
	if c.Output.VideoCodec == "" || c.Output.AudioCodec == "" {
		return fmt.Errorf("config: output codecs are required")
	}
	if c.FFmpeg.Threads < 0 {
		return fmt.Errorf("config: ffmpeg.threads cannot be negative")
	}
	return nil
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		TempDir: os.TempDir(),
		Segment: SegmentConfig{
			MinActiveLoudness: 10,
			MinInactiveGap:    0.5,
			ChunkDuration:     loudness.DefaultChunkDuration,
			LoudnessFormula:   loudness.SumLogName,
		},
		Audio: AudioConfig{
			SampleRate: 44100,
			Channels:   0,
		},
		Output: OutputConfig{
			VideoCodec: "libx264",
			AudioCodec: "aac",
			CRF:        23,
			Preset:     "medium",
			RemoveTemp: true,
			Autorotate: true,
		},
		FFmpeg: FFmpegConfig{
			BinaryPath: "ffmpeg",
			ProbePath:  "ffprobe",
			Threads:    0,
		},
	}
}

func findConfigFile() string {
	candidates := []string{
		"./autocut.yaml",
		"./autocut.yml",
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".autocut", "config.yaml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return Default()
}
