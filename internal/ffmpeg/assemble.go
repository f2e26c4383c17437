package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/myfatemi04/autocut/internal/segment"
)

// AssembleOptions configures rendering of the active intervals
type AssembleOptions struct {
	Output       string
	TempDir      string
	VideoCodec   string
	AudioCodec   string
	CRF          int
	Preset       string
	RemoveTemp   bool
	Autorotate   bool
	// CopyCodec skips re-encoding. Cuts snap to keyframes, so parts may start early.
	CopyCodec    bool
	ProgressFunc ProgressFunc
}

// Assemble cuts every interval out of input and joins them, in order, into opts.Output.
// Parts are re-encoded so audio and video stay in sync across the joins,
// unless opts.CopyCodec trades that accuracy for speed.
func (e *Executor) Assemble(ctx context.Context, input string, intervals []segment.Interval, opts AssembleOptions) error {
	if err := validateAssembly(input, intervals, opts); err != nil {
		return err
	}

	partsDir, err := os.MkdirTemp(opts.TempDir, "autocut-parts-*")
	if err != nil {
		return fmt.Errorf("failed to create parts dir: %w", err)
	}
	if opts.RemoveTemp {
		defer os.RemoveAll(partsDir)
	}

	e.logger.Info().
		Str("input", input).
		Str("output", opts.Output).
		Int("intervals", len(intervals)).
		Float64("kept_seconds", segment.TotalDuration(intervals)).
		Str("parts_dir", partsDir).
		Bool("copy_codec", opts.CopyCodec).
		Msg("assembling active intervals")

	ext := filepath.Ext(opts.Output)
	if ext == "" {
		ext = ".mp4"
	}

	parts := make([]string, 0, len(intervals))
	for i, iv := range intervals {
		if err := ctx.Err(); err != nil {
			return err
		}

		part := filepath.Join(partsDir, fmt.Sprintf("part_%04d%s", i, ext))
		if err := e.ExtractClip(ctx, input, partOptions(iv, part, opts)); err != nil {
			return fmt.Errorf("interval %d [%.3f, %.3f]: %w", i, iv.Start, iv.End, err)
		}
		parts = append(parts, part)

		e.logger.Debug().
			Int("part", i+1).
			Int("of", len(intervals)).
			Float64("start", iv.Start).
			Float64("end", iv.End).
			Msg("interval extracted")
	}

	err = e.Concat(ctx, ConcatOptions{
		Inputs:       parts,
		Output:       opts.Output,
		ListDir:      partsDir,
		FastStart:    true,
		ProgressFunc: opts.ProgressFunc,
	})
	if err != nil {
		return err
	}

	e.logger.Info().Str("output", opts.Output).Msg("assembly complete")
	return nil
}

func partOptions(iv segment.Interval, part string, opts AssembleOptions) ClipOptions {
	return ClipOptions{
		Start:        iv.StartTime(),
		End:          iv.EndTime(),
		Output:       part,
		CopyCodec:    opts.CopyCodec,
		VideoCodec:   opts.VideoCodec,
		AudioCodec:   opts.AudioCodec,
		CRF:          opts.CRF,
		Preset:       opts.Preset,
		NoAutorotate: !opts.Autorotate,
		ProgressFunc: opts.ProgressFunc,
	}
}

func validateAssembly(input string, intervals []segment.Interval, opts AssembleOptions) error {
	if len(intervals) == 0 {
		return fmt.Errorf("nothing to assemble: %w", segment.ErrEmptyResult)
	}
	if input == "" {
		return fmt.Errorf("input path is required")
	}
	if opts.Output == "" {
		return fmt.Errorf("output path is required")
	}
	if inAbs, err := filepath.Abs(input); err == nil {
		if outAbs, err := filepath.Abs(opts.Output); err == nil && inAbs == outAbs {
			return fmt.Errorf("output would overwrite input %s", input)
		}
	}

	prevEnd := 0.0
	for i, iv := range intervals {
		if iv.End <= iv.Start {
			return fmt.Errorf("interval %d is empty: [%.3f, %.3f]", i, iv.Start, iv.End)
		}
		if iv.Start < prevEnd {
			return fmt.Errorf("interval %d overlaps or precedes interval %d", i, i-1)
		}
		prevEnd = iv.End
	}
	return nil
}
