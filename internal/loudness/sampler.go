package loudness

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/myfatemi04/autocut/internal/segment"
)

// DefaultChunkDuration matches a 30 fps video frame
const DefaultChunkDuration = 1.0 / 30

// WAV fmt chunk audio format tags. Extensible headers are what ffmpeg writes
// for more than two channels; go-audio does not expose their subformat.
const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// Options configures a Sampler
type Options struct {
	// ChunkDuration is the length of audio, in seconds, behind each sample.
	ChunkDuration float64
	Formula       Formula
	// Progress, if set, is called after every sample with frames read and total frames.
	Progress func(done, total int64)
}

// Sampler reads a PCM WAV stream and yields one loudness sample per chunk
type Sampler struct {
	dec    *wav.Decoder
	closer io.Closer

	formula  Formula
	progress func(done, total int64)

	sampleRate  int
	channels    int
	chunkFrames int
	totalFrames int64
	scale       float64
	offset      int

	frame   int64
	buf     *audio.IntBuffer
	pending []int
	perChan [][]float64
	drained bool
}

// NewSampler prepares a sampler over WAV data
func NewSampler(r io.ReadSeeker, opts Options) (*Sampler, error) {
	if opts.ChunkDuration == 0 {
		opts.ChunkDuration = DefaultChunkDuration
	}
	if opts.ChunkDuration < 0 || math.IsNaN(opts.ChunkDuration) || math.IsInf(opts.ChunkDuration, 0) {
		return nil, fmt.Errorf("invalid chunk duration: %v", opts.ChunkDuration)
	}
	if opts.Formula == nil {
		opts.Formula = SumLog{}
	}

	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("not a valid WAV stream")
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("failed to locate PCM data: %w", err)
	}

	switch dec.WavAudioFormat {
	case wavFormatPCM, wavFormatExtensible:
	default:
		return nil, fmt.Errorf("unsupported WAV encoding %d: only integer PCM is supported", dec.WavAudioFormat)
	}

	channels := int(dec.NumChans)
	bitDepth := int(dec.BitDepth)
	sampleRate := int(dec.SampleRate)
	if channels < 1 || sampleRate <= 0 {
		return nil, fmt.Errorf("unsupported WAV format: %d channels at %d Hz", channels, sampleRate)
	}
	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("unsupported WAV bit depth: %d", bitDepth)
	}

	chunkFrames := int(math.Round(float64(sampleRate) * opts.ChunkDuration))
	if chunkFrames < 1 {
		chunkFrames = 1
	}

	s := &Sampler{
		dec:         dec,
		formula:     opts.Formula,
		progress:    opts.Progress,
		sampleRate:  sampleRate,
		channels:    channels,
		chunkFrames: chunkFrames,
		totalFrames: int64(dec.PCMSize) / int64(channels*bitDepth/8),
		scale:       float64(int64(1) << (bitDepth - 1)),
		buf: &audio.IntBuffer{
			Format: &audio.Format{NumChannels: channels, SampleRate: sampleRate},
			Data:   make([]int, chunkFrames*channels),
		},
		perChan: make([][]float64, channels),
	}
	// 8-bit WAV is unsigned
	if bitDepth == 8 {
		s.offset = 128
	}
	return s, nil
}

// OpenWAV opens a WAV file; Close releases it
func OpenWAV(path string, opts Options) (*Sampler, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}

	s, err := NewSampler(f, opts)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.closer = f
	return s, nil
}

// SampleRate is the audio frame rate, the unit of Sample.Frame
func (s *Sampler) SampleRate() float64 {
	return float64(s.sampleRate)
}

// TotalDuration is the PCM length in seconds
func (s *Sampler) TotalDuration() float64 {
	return float64(s.totalFrames) / float64(s.sampleRate)
}

// ChunkFrames is the number of audio frames behind each full sample
func (s *Sampler) ChunkFrames() int {
	return s.chunkFrames
}

// Channels is the channel count of the stream
func (s *Sampler) Channels() int {
	return s.channels
}

// Next measures the next chunk. The final chunk may be short. It returns io.EOF when the PCM data is exhausted.
func (s *Sampler) Next() (segment.Sample, error) {
	need := s.chunkFrames * s.channels

	for len(s.pending) < need && !s.drained {
		n, err := s.dec.PCMBuffer(s.buf)
		if err != nil {
			return segment.Sample{}, fmt.Errorf("failed to decode PCM: %w", err)
		}
		if n == 0 {
			s.drained = true
			break
		}
		s.pending = append(s.pending, s.buf.Data[:n]...)
	}

	frames := len(s.pending) / s.channels
	if frames > s.chunkFrames {
		frames = s.chunkFrames
	}
	if frames == 0 {
		return segment.Sample{}, io.EOF
	}

	for c := range s.perChan {
		s.perChan[c] = s.perChan[c][:0]
	}
	for i := 0; i < frames*s.channels; i++ {
		c := i % s.channels
		s.perChan[c] = append(s.perChan[c], float64(s.pending[i]-s.offset)/s.scale)
	}

	smp := segment.Sample{
		Frame:    s.frame,
		Length:   int64(frames),
		Loudness: s.formula.Measure(s.perChan),
	}

	s.pending = append(s.pending[:0], s.pending[frames*s.channels:]...)
	s.frame += int64(frames)

	if s.progress != nil {
		s.progress(s.frame, s.totalFrames)
	}
	return smp, nil
}

// Close releases the underlying file, if any
func (s *Sampler) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}
