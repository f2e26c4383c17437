package ffmpeg

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myfatemi04/autocut/internal/segment"
)

func TestBaseArgs(t *testing.T) {
	e := &Executor{logger: zerolog.Nop()}
	assert.Equal(t, []string{"-y", "-hide_banner", "-loglevel", "info", "-nostdin", "-progress", "pipe:2"}, e.baseArgs())

	e.threads = 4
	args := e.baseArgs()
	assert.Contains(t, strings.Join(args, " "), "-threads 4 -progress pipe:2")
}

func TestNewMissingBinary(t *testing.T) {
	_, err := New(zerolog.Nop(), Options{FFmpegPath: "definitely-not-ffmpeg-xyz"})
	assert.ErrorContains(t, err, "ffmpeg not found")
}

func TestRunRequiresArgs(t *testing.T) {
	e := &Executor{logger: zerolog.Nop()}
	assert.Error(t, e.Run(context.Background(), RunOptions{}))
}

func TestStreamOutputProgress(t *testing.T) {
	e := &Executor{logger: zerolog.Nop()}
	input := strings.Join([]string{
		"Input #0, mov,mp4,m4a,3gp,3g2,mj2, from 'in.mp4':",
		"frame=12",
		"fps=24.5",
		"bitrate=1200.0kbits/s",
		"out_time=00:00:00.500000",
		"speed=2.1x",
		"progress=continue",
		"frame=30",
		"progress=end",
		"Error while decoding stream #0:1",
	}, "\n")

	var got []Progress
	var lines int
	last := e.streamOutput(strings.NewReader(input), func(p *Progress) {
		got = append(got, *p)
	}, func(string) { lines++ })

	require.Len(t, got, 2)
	assert.Equal(t, 12, got[0].Frame)
	assert.Equal(t, 24.5, got[0].FPS)
	assert.Equal(t, "1200.0kbits/s", got[0].Bitrate)
	assert.Equal(t, "00:00:00.500000", got[0].Time)
	assert.Equal(t, "2.1x", got[0].Speed)
	assert.Equal(t, 30, got[1].Frame)
	assert.Equal(t, 10, lines)
	assert.Equal(t, "Error while decoding stream #0:1", last)
}

func TestParseProbeOutput(t *testing.T) {
	raw := `{
  "streams": [
    {"codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080,
     "r_frame_rate": "30000/1001",
     "side_data_list": [{"side_data_type": "Display Matrix", "rotation": -90}]},
    {"codec_type": "audio", "codec_name": "aac", "sample_rate": "48000", "channels": 2, "bit_rate": "128000"}
  ],
  "format": {"duration": "12.500000", "bit_rate": "5000000"}
}`

	info, err := parseProbeOutput([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, 12500*time.Millisecond, info.Duration)
	assert.Equal(t, 1920, info.Width)
	assert.Equal(t, "h264", info.VideoCodec)
	assert.InDelta(t, 29.97, info.FPS, 0.01)
	assert.Equal(t, 90, info.Rotation)
	assert.True(t, info.HasAudio)
	assert.Equal(t, 48000, info.AudioSampleRate)
	assert.Equal(t, 2, info.AudioChannels)
	assert.Equal(t, int64(128000), info.AudioBitrate)
}

func TestParseProbeRotateTag(t *testing.T) {
	raw := `{"streams": [{"codec_type": "video", "tags": {"rotate": "270"}}], "format": {"duration": "1.0"}}`
	info, err := parseProbeOutput([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, 270, info.Rotation)
	assert.False(t, info.HasAudio)
}

func TestParseProbeOutputErrors(t *testing.T) {
	_, err := parseProbeOutput([]byte("not json"))
	assert.Error(t, err)

	_, err = parseProbeOutput([]byte(`{"streams": [], "format": {}}`))
	assert.Error(t, err)
}

func TestParseVolumeOutput(t *testing.T) {
	out := `[Parsed_volumedetect_0 @ 0x7f] n_samples: 96000
[Parsed_volumedetect_0 @ 0x7f] mean_volume: -21.3 dB
[Parsed_volumedetect_0 @ 0x7f] max_volume: -3.0 dB`

	stats, ok := parseVolumeOutput(out)
	require.True(t, ok)
	assert.Equal(t, -21.3, stats.MeanVolume)
	assert.Equal(t, -3.0, stats.MaxVolume)

	_, ok = parseVolumeOutput("nothing useful here")
	assert.False(t, ok)
}

func TestExtractAudioArgs(t *testing.T) {
	args := extractAudioArgs("in.mov", "out.wav", AnalysisFormat(44100, 0))
	assert.Equal(t, []string{
		"-i", "in.mov", "-vn", "-map", "0:a:0", "-acodec", "pcm_s16le",
		"-ar", "44100", "-f", "wav", "out.wav",
	}, args)

	args = extractAudioArgs("in.mov", "out.wav", AudioFormat{Channels: 1})
	assert.Equal(t, []string{
		"-i", "in.mov", "-vn", "-map", "0:a:0", "-acodec", "pcm_s16le",
		"-ac", "1", "-f", "wav", "out.wav",
	}, args)
}

func TestClipArgs(t *testing.T) {
	args := clipArgs("in.mp4", ClipOptions{
		Start:  1500 * time.Millisecond,
		End:    4 * time.Second,
		Output: "part.mp4",
	})
	assert.Equal(t, []string{
		"-i", "in.mp4",
		"-ss", "00:00:01.500", "-t", "00:00:02.500",
		"-map", "0:v:0?", "-map", "0:a:0?",
		"-c:v", "libx264", "-c:a", "aac", "-crf", "23", "-preset", "medium",
		"-avoid_negative_ts", "make_zero", "part.mp4",
	}, args)

	args = clipArgs("in.mp4", ClipOptions{End: time.Second, Output: "p.mp4", CopyCodec: true, NoAutorotate: true})
	assert.Equal(t, "-noautorotate", args[0])
	assert.Contains(t, strings.Join(args, " "), "-c copy")
}

func TestExtractClipInvalidDuration(t *testing.T) {
	e := &Executor{logger: zerolog.Nop()}
	err := e.ExtractClip(context.Background(), "in.mp4", ClipOptions{Start: time.Second, End: time.Second, Output: "x.mp4"})
	assert.ErrorContains(t, err, "invalid clip duration")
}

func TestConcatArgs(t *testing.T) {
	args := concatArgs("list.txt", ConcatOptions{Output: "out.mp4", FastStart: true})
	assert.Equal(t, []string{
		"-f", "concat", "-safe", "0", "-i", "list.txt",
		"-c", "copy", "-movflags", "+faststart", "out.mp4",
	}, args)

	args = concatArgs("list.txt", ConcatOptions{Output: "out.mkv", ReEncode: true, VideoCodec: "libx265"})
	assert.Contains(t, strings.Join(args, " "), "-c:v libx265 -c:a aac -crf 23")
}

func TestCreateConcatFile(t *testing.T) {
	dir := t.TempDir()
	path, err := createConcatFile(dir, []string{"/tmp/a.mp4", "/tmp/it's.mp4"})
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "file '/tmp/a.mp4'\nfile '/tmp/it'\\''s.mp4'\n", string(data))
}

func TestValidateAssembly(t *testing.T) {
	opts := AssembleOptions{Output: "out.mp4"}
	ok := []segment.Interval{{Start: 0, End: 1}, {Start: 1.5, End: 3}}

	assert.NoError(t, validateAssembly("in.mp4", ok, opts))
	assert.ErrorIs(t, validateAssembly("in.mp4", nil, opts), segment.ErrEmptyResult)
	assert.Error(t, validateAssembly("", ok, opts))
	assert.Error(t, validateAssembly("in.mp4", ok, AssembleOptions{}))
	assert.ErrorContains(t, validateAssembly("out.mp4", ok, opts), "overwrite")
	assert.Error(t, validateAssembly("in.mp4", []segment.Interval{{Start: 1, End: 1}}, opts))
	assert.Error(t, validateAssembly("in.mp4", []segment.Interval{{Start: 0, End: 2}, {Start: 1, End: 3}}, opts))
}

func TestPartOptions(t *testing.T) {
	iv := segment.Interval{Start: 1.5, End: 3}
	opts := AssembleOptions{Output: "out.mp4", Preset: "fast", Autorotate: true}

	clip := partOptions(iv, "part_0000.mp4", opts)
	assert.Equal(t, 1500*time.Millisecond, clip.Start)
	assert.Equal(t, 3*time.Second, clip.End)
	assert.Equal(t, "part_0000.mp4", clip.Output)
	assert.False(t, clip.CopyCodec)
	assert.False(t, clip.NoAutorotate)
	assert.Contains(t, strings.Join(clipArgs("in.mp4", clip), " "), "-preset fast")

	opts.CopyCodec = true
	opts.Autorotate = false
	clip = partOptions(iv, "part_0000.mp4", opts)
	assert.True(t, clip.CopyCodec)
	assert.True(t, clip.NoAutorotate)

	args := strings.Join(clipArgs("in.mp4", clip), " ")
	assert.Contains(t, args, "-c copy")
	assert.NotContains(t, args, "-c:v")
}

func TestAssembleEmptyIsReported(t *testing.T) {
	e := &Executor{logger: zerolog.Nop()}
	err := e.Assemble(context.Background(), "in.mp4", []segment.Interval{}, AssembleOptions{Output: "out.mp4"})
	assert.ErrorIs(t, err, segment.ErrEmptyResult)
}
