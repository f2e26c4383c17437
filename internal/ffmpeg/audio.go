package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// AudioFormat defines audio extraction format options
type AudioFormat struct {
	Codec      string
	SampleRate int // 0 keeps the source rate
	Channels   int // 0 keeps the source layout
}

// AnalysisFormat is the PCM track the loudness sampler reads
func AnalysisFormat(sampleRate, channels int) AudioFormat {
	return AudioFormat{
		Codec:      "pcm_s16le",
		SampleRate: sampleRate,
		Channels:   channels,
	}
}

// ExtractAudio writes the first audio stream of input to a WAV file
func (e *Executor) ExtractAudio(ctx context.Context, input, output string, format AudioFormat, progressFunc ProgressFunc) error {
	if input == "" {
		return fmt.Errorf("input path is required")
	}
	if output == "" {
		return fmt.Errorf("output path is required")
	}

	e.logger.Info().
		Str("input", input).
		Str("output", output).
		Str("codec", format.Codec).
		Int("sample_rate", format.SampleRate).
		Msg("extracting audio")

	opts := RunOptions{
		Args:            extractAudioArgs(input, output, format),
		ProgressHandler: progressFunc,
		LogHandler: func(line string) {
			e.logger.Trace().Str("ffmpeg", line).Msg("audio extraction")
		},
	}

	if err := e.Run(ctx, opts); err != nil {
		return fmt.Errorf("audio extraction failed: %w", err)
	}
	return nil
}

func extractAudioArgs(input, output string, format AudioFormat) []string {
	codec := format.Codec
	if codec == "" {
		codec = "pcm_s16le"
	}

	args := []string{
		"-i", input,
		"-vn", // no video
		"-map", "0:a:0",
		"-acodec", codec,
	}
	if format.SampleRate > 0 {
		args = append(args, "-ar", fmt.Sprintf("%d", format.SampleRate))
	}
	if format.Channels > 0 {
		args = append(args, "-ac", fmt.Sprintf("%d", format.Channels))
	}
	return append(args, "-f", "wav", output)
}

// VolumeStats holds volume analysis results
type VolumeStats struct {
	MeanVolume float64
	MaxVolume  float64
}

// AnalyzeVolume calculates volume statistics for audio/video file
func (e *Executor) AnalyzeVolume(ctx context.Context, input string) (*VolumeStats, error) {
	e.logger.Info().Str("input", input).Msg("analyzing volume")

	var stderrBuf bytes.Buffer
	var mu sync.Mutex

	opts := RunOptions{
		Args: []string{
			"-i", input,
			"-vn",
			"-af", "volumedetect",
			"-f", "null",
			"-",
		},
		LogHandler: func(line string) {
			mu.Lock()
			stderrBuf.WriteString(line + "\n")
			mu.Unlock()
		},
	}

	err := e.Run(ctx, opts)

	mu.Lock()
	output := stderrBuf.String()
	mu.Unlock()

	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("volume analysis failed: %w", err)
	}

	stats, ok := parseVolumeOutput(output)
	if !ok {
		return nil, fmt.Errorf("volume analysis produced no output")
	}
	return stats, nil
}

// parseVolumeOutput extracts volume stats from volumedetect output
func parseVolumeOutput(output string) (*VolumeStats, bool) {
	stats := &VolumeStats{}
	found := false

	for _, line := range strings.Split(output, "\n") {
		if v, ok := volumeField(line, "mean_volume:"); ok {
			stats.MeanVolume = v
			found = true
		} else if v, ok := volumeField(line, "max_volume:"); ok {
			stats.MaxVolume = v
			found = true
		}
	}

	return stats, found
}

func volumeField(line, key string) (float64, bool) {
	_, rest, ok := strings.Cut(line, key)
	if !ok {
		return 0, false
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
