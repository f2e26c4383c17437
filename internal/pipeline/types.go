package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/myfatemi04/autocut/internal/ffmpeg"
	"github.com/myfatemi04/autocut/internal/segment"
	"github.com/myfatemi04/autocut/pkg/util"
)

// Prober reads container metadata
type Prober interface {
	ProbeVideo(ctx context.Context, path string) (*ffmpeg.VideoInfo, error)
}

// AudioExtractor decodes the first audio stream of a video into a WAV file
type AudioExtractor interface {
	ExtractAudio(ctx context.Context, input, output string, format ffmpeg.AudioFormat, progressFunc ffmpeg.ProgressFunc) error
}

// Assembler renders the active intervals of input into a single file
type Assembler interface {
	Assemble(ctx context.Context, input string, intervals []segment.Interval, opts ffmpeg.AssembleOptions) error
}

// Tools bundles the external collaborators a Pipeline drives
type Tools struct {
	Prober    Prober
	Extractor AudioExtractor
	Assembler Assembler
}

// Result is the cut list produced by a run
type Result struct {
	RunID         string             `yaml:"run_id"`
	InputPath     string             `yaml:"input"`
	OutputPath    string             `yaml:"output,omitempty"`
	Formula       string             `yaml:"loudness_formula"`
	Rotation      int                `yaml:"rotation,omitempty"`
	TotalDuration float64            `yaml:"total_duration"`
	KeptDuration  float64            `yaml:"kept_duration"`
	Params        segment.Params     `yaml:"params"`
	Intervals     []segment.Interval `yaml:"intervals"`
	CreatedAt     time.Time          `yaml:"created_at"`
}

// RemovedDuration is the number of seconds cut from the source
func (r *Result) RemovedDuration() float64 {
	removed := r.TotalDuration - r.KeptDuration
	if removed < 0 {
		return 0
	}
	return removed
}

// Marshal encodes the cut list as YAML
func (r *Result) Marshal() ([]byte, error) {
	return yaml.Marshal(r)
}

// SaveCutList writes the cut list as YAML to path
func (r *Result) SaveCutList(path string) error {
	data, err := r.Marshal()
	if err != nil {
		return fmt.Errorf("marshal cut list: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := util.EnsureDir(dir); err != nil {
			return fmt.Errorf("create cut list dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write cut list: %w", err)
	}
	return nil
}
