package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ConcatOptions defines concatenation parameters
type ConcatOptions struct {
	Inputs       []string
	Output       string
	ListDir      string // where the concat list is written; "" means the system temp dir
	ReEncode     bool
	VideoCodec   string
	AudioCodec   string
	CRF          int
	FastStart    bool
	ProgressFunc ProgressFunc
}

// Concat merges multiple video files into one
func (e *Executor) Concat(ctx context.Context, opts ConcatOptions) error {
	if len(opts.Inputs) == 0 {
		return fmt.Errorf("no input files provided")
	}
	if opts.Output == "" {
		return fmt.Errorf("output path is required")
	}

	e.logger.Info().
		Int("inputs", len(opts.Inputs)).
		Str("output", opts.Output).
		Msg("concatenating videos")

	// Create temporary concat file list
	concatFile, err := createConcatFile(opts.ListDir, opts.Inputs)
	if err != nil {
		return fmt.Errorf("failed to create concat file: %w", err)
	}
	defer os.Remove(concatFile)

	runOpts := RunOptions{
		Args:            concatArgs(concatFile, opts),
		ProgressHandler: opts.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Trace().Str("ffmpeg", line).Msg("concatenating")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("concat failed: %w", err)
	}
	return nil
}

func concatArgs(listFile string, opts ConcatOptions) []string {
	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
	}

	if opts.ReEncode {
		args = append(args, encodeArgs(opts.VideoCodec, opts.AudioCodec, opts.CRF, "")...)
	} else {
		args = append(args, "-c", "copy")
	}

	if opts.FastStart {
		args = append(args, "-movflags", "+faststart")
	}

	return append(args, opts.Output)
}

// createConcatFile generates a temporary file list for ffmpeg concat
func createConcatFile(dir string, inputs []string) (string, error) {
	tmpFile, err := os.CreateTemp(dir, "autocut-concat-*.txt")
	if err != nil {
		return "", err
	}
	defer tmpFile.Close()

	for _, input := range inputs {
		absPath, err := filepath.Abs(input)
		if err != nil {
			return "", err
		}
		// concat demuxer quoting: close the quote, emit an escaped quote, reopen
		quoted := strings.ReplaceAll(absPath, "'", `'\''`)
		if _, err := fmt.Fprintf(tmpFile, "file '%s'\n", quoted); err != nil {
			return "", err
		}
	}

	return tmpFile.Name(), nil
}
