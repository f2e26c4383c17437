package ffmpeg

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/myfatemi04/autocut/pkg/util"
)

// ClipOptions defines clip extraction parameters
type ClipOptions struct {
	Start        time.Duration
	End          time.Duration
	Output       string
	CopyCodec    bool // If true, use -c copy for fast extraction
	VideoCodec   string
	AudioCodec   string
	CRF          int // Quality (0-51, lower = better)
	Preset       string
	NoAutorotate bool
	ProgressFunc ProgressFunc
}

// ExtractClip cuts a segment from a video
func (e *Executor) ExtractClip(ctx context.Context, input string, opts ClipOptions) error {
	duration := opts.End - opts.Start
	if duration <= 0 {
		return fmt.Errorf("invalid clip duration: end must be after start")
	}
	if opts.Output == "" {
		return fmt.Errorf("output path is required")
	}

	e.logger.Debug().
		Str("input", input).
		Str("output", opts.Output).
		Dur("start", opts.Start).
		Dur("duration", duration).
		Bool("copy_codec", opts.CopyCodec).
		Msg("extracting clip")

	runOpts := RunOptions{
		Args:            clipArgs(input, opts),
		ProgressHandler: opts.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Trace().Str("ffmpeg", line).Msg("clip extraction")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("clip extraction failed: %w", err)
	}

	return nil
}

// clipArgs seeks after -i so cuts land on the exact timestamp rather than the nearest keyframe
func clipArgs(input string, opts ClipOptions) []string {
	var args []string
	if opts.NoAutorotate {
		args = append(args, "-noautorotate")
	}

	args = append(args,
		"-i", input,
		"-ss", util.FormatDuration(opts.Start),
		"-t", util.FormatDuration(opts.End-opts.Start),
		"-map", "0:v:0?",
		"-map", "0:a:0?",
	)

	if opts.CopyCodec {
		args = append(args, "-c", "copy")
	} else {
		args = append(args, encodeArgs(opts.VideoCodec, opts.AudioCodec, opts.CRF, opts.Preset)...)
	}

	args = append(args, "-avoid_negative_ts", "make_zero", opts.Output)
	return args
}

// encodeArgs fills in the package defaults for any zero setting
func encodeArgs(videoCodec, audioCodec string, crf int, preset string) []string {
	if videoCodec == "" {
		videoCodec = DefaultVideoCodec
	}
	if audioCodec == "" {
		audioCodec = DefaultAudioCodec
	}
	if crf == 0 {
		crf = DefaultCRF
	}
	if preset == "" {
		preset = DefaultPreset
	}
	return []string{
		"-c:v", videoCodec,
		"-c:a", audioCodec,
		"-crf", strconv.Itoa(crf),
		"-preset", preset,
	}
}
