package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/myfatemi04/autocut/internal/config"
	"github.com/myfatemi04/autocut/internal/ffmpeg"
	"github.com/myfatemi04/autocut/internal/loudness"
	"github.com/myfatemi04/autocut/internal/segment"
	"github.com/myfatemi04/autocut/pkg/util"
)

// ErrNoAudio is returned when the input has no audio stream to analyze
var ErrNoAudio = errors.New("input has no audio stream")

// OutputSuffix is inserted before the extension of the input to name the default output
const OutputSuffix = "_active"

// Pipeline orchestrates probe, audio extraction, segmentation and assembly
type Pipeline struct {
	logger zerolog.Logger
	cfg    *config.Config
	tools  Tools
	newID  func() string
	now    func() time.Time
}

// New creates a pipeline backed by the ffmpeg executor
func New(logger zerolog.Logger, cfg *config.Config) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	ff, err := ffmpeg.New(logger, ffmpeg.Options{
		FFmpegPath:  cfg.FFmpeg.BinaryPath,
		FFprobePath: cfg.FFmpeg.ProbePath,
		Threads:     cfg.FFmpeg.Threads,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ffmpeg: %w", err)
	}

	return NewWithTools(logger, cfg, Tools{
		Prober:    ff,
		Extractor: ff,
		Assembler: ff,
	})
}

// NewWithTools creates a pipeline over caller-supplied collaborators
func NewWithTools(logger zerolog.Logger, cfg *config.Config, tools Tools) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if tools.Prober == nil || tools.Extractor == nil || tools.Assembler == nil {
		return nil, fmt.Errorf("pipeline: prober, extractor and assembler are required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Pipeline{
		logger: logger.With().Str("component", "pipeline").Logger(),
		cfg:    cfg,
		tools:  tools,
		newID:  uuid.NewString,
		now:    time.Now,
	}, nil
}

// Analyze measures the loudness of input and returns its active intervals.
// A source with no active interval yields segment.ErrEmptyResult.
func (p *Pipeline) Analyze(ctx context.Context, input string) (*Result, error) {
	if input == "" {
		return nil, fmt.Errorf("input path cannot be empty")
	}
	if !util.FileExists(input) {
		return nil, fmt.Errorf("input not found: %s", input)
	}

	formula, err := loudness.Lookup(p.cfg.Segment.LoudnessFormula)
	if err != nil {
		return nil, err
	}

	runID := p.newID()
	logger := p.logger.With().Str("run", runID).Logger()
	logger.Info().Str("input", input).Msg("starting analysis")

	// Stage 1: container metadata
	info, err := p.tools.Prober.ProbeVideo(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to probe video: %w", err)
	}
	if !info.HasAudio {
		return nil, fmt.Errorf("%s: %w", input, ErrNoAudio)
	}

	event := logger.Info().
		Dur("duration", info.Duration).
		Int("width", info.Width).
		Int("height", info.Height).
		Float64("fps", info.FPS).
		Str("audio_codec", info.AudioCodec).
		Int("audio_rate", info.AudioSampleRate)
	if info.Rotation != 0 {
		event = event.Int("rotation", info.Rotation).Bool("autorotate", p.cfg.Output.Autorotate)
	}
	event.Msg("video metadata extracted")

	// Stage 2: decode audio to PCM
	wavPath, err := p.tempAudioPath(runID)
	if err != nil {
		return nil, err
	}
	if p.cfg.Output.RemoveTemp {
		defer util.CleanupFiles(wavPath)
	}

	format := ffmpeg.AnalysisFormat(p.cfg.Audio.SampleRate, p.cfg.Audio.Channels)
	if err := p.tools.Extractor.ExtractAudio(ctx, input, wavPath, format, nil); err != nil {
		return nil, fmt.Errorf("failed to extract audio: %w", err)
	}

	// Stage 3: sample and segment
	sampler, err := loudness.OpenWAV(wavPath, loudness.Options{
		ChunkDuration: p.cfg.Segment.ChunkDuration,
		Formula:       formula,
		Progress:      progressLogger(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open extracted audio: %w", err)
	}
	defer sampler.Close()

	total := info.Duration.Seconds()
	if total <= 0 {
		total = sampler.TotalDuration()
	}

	params := segment.Params{
		MinActiveLoudness: p.cfg.Segment.MinActiveLoudness,
		MinInactiveGap:    p.cfg.Segment.MinInactiveGap,
		SampleRate:        sampler.SampleRate(),
		TotalDuration:     total,
	}

	logger.Debug().
		Float64("sample_rate", params.SampleRate).
		Int("channels", sampler.Channels()).
		Int("chunk_frames", sampler.ChunkFrames()).
		Str("formula", formula.Name()).
		Msg("segmenting audio")

	intervals, err := segment.Run(ctx, sampler, params)
	if err != nil {
		return nil, fmt.Errorf("segmentation failed: %w", err)
	}
	if len(intervals) == 0 {
		return nil, fmt.Errorf("%s: %w", input, segment.ErrEmptyResult)
	}

	res := &Result{
		RunID:         runID,
		InputPath:     input,
		Formula:       formula.Name(),
		Rotation:      info.Rotation,
		TotalDuration: total,
		KeptDuration:  segment.TotalDuration(intervals),
		Params:        params,
		Intervals:     intervals,
		CreatedAt:     p.now().UTC(),
	}

	logger.Info().
		Int("intervals", len(intervals)).
		Float64("kept_seconds", res.KeptDuration).
		Float64("removed_seconds", res.RemovedDuration()).
		Msg("analysis complete")

	return res, nil
}

// Trim analyzes input and writes its active intervals to output.
// An empty output falls back to the configured path, then to <input>_active<ext>.
func (p *Pipeline) Trim(ctx context.Context, input, output string) (*Result, error) {
	output = p.OutputPath(input, output)

	res, err := p.Analyze(ctx, input)
	if err != nil {
		return nil, err
	}
	res.OutputPath = output

	start := time.Now()
	err = p.tools.Assembler.Assemble(ctx, input, res.Intervals, ffmpeg.AssembleOptions{
		Output:     output,
		TempDir:    p.cfg.TempDir,
		VideoCodec: p.cfg.Output.VideoCodec,
		AudioCodec: p.cfg.Output.AudioCodec,
		CRF:        p.cfg.Output.CRF,
		Preset:     p.cfg.Output.Preset,
		RemoveTemp: p.cfg.Output.RemoveTemp,
		Autorotate: p.cfg.Output.Autorotate,
		CopyCodec:  p.cfg.Output.CopyCodec,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to assemble output: %w", err)
	}

	p.logger.Info().
		Str("run", res.RunID).
		Str("output", output).
		Dur("elapsed", time.Since(start)).
		Msg("trim complete")

	return res, nil
}

// OutputPath resolves where Trim writes for the given input
func (p *Pipeline) OutputPath(input, output string) string {
	if output != "" {
		return output
	}
	if p.cfg.Output.Path != "" {
		return p.cfg.Output.Path
	}
	return util.SiblingPath(input, OutputSuffix)
}

func (p *Pipeline) tempAudioPath(runID string) (string, error) {
	if path := p.cfg.Output.TempAudioPath; path != "" {
		if err := util.EnsureDir(filepath.Dir(path)); err != nil {
			return "", fmt.Errorf("failed to create temp audio dir: %w", err)
		}
		return path, nil
	}

	dir := p.cfg.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := util.EnsureDir(dir); err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	return filepath.Join(dir, "autocut-"+runID+".wav"), nil
}

// progressLogger reports sampler progress in 10% steps
func progressLogger(logger zerolog.Logger) func(done, total int64) {
	next := int64(10)
	return func(done, total int64) {
		if total <= 0 {
			return
		}
		pct := done * 100 / total
		if pct < next {
			return
		}
		step := pct - pct%10
		next = step + 10
		logger.Debug().Int64("percent", step).Msg("analyzing audio")
	}
}
