package capture

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"

	"github.com/banshee-data/siren.report/internal/fsutil"
)

var (
	// ErrEndOfStream is returned by Source.Read once every sample has been delivered.
	ErrEndOfStream = errors.New("capture: end of stream")
	// ErrUnsupportedFormat is returned by Open for files it cannot decode.
	ErrUnsupportedFormat = errors.New("capture: unsupported audio format")
)

// Source yields mono samples in [-1, 1].
type Source interface {
	SampleRate() float64
	// Read fills p with up to len(p) samples and returns how many were
	// written. It returns 0, ErrEndOfStream when the source is exhausted.
	Read(p []float64) (int, error)
}

// Open decodes an audio file from disk by extension (.wav or .mp3).
func Open(path string) (Source, error) {
	return OpenFS(fsutil.OSFileSystem{}, path)
}

// OpenFS is Open against fsys. The file is read fully into memory before
// decoding starts.
func OpenFS(fsys fsutil.FileSystem, path string) (Source, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".wav", ".mp3":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio file: %w", err)
	}

	if ext == ".wav" {
		return NewWAVSource(bytes.NewReader(data))
	}
	return NewMP3Source(bytes.NewReader(data))
}

// sliceSource serves decoded samples from memory.
type sliceSource struct {
	rate    float64
	samples []float64
	pos     int
}

func (s *sliceSource) SampleRate() float64 { return s.rate }

func (s *sliceSource) Read(p []float64) (int, error) {
	if s.pos >= len(s.samples) {
		return 0, ErrEndOfStream
	}
	n := copy(p, s.samples[s.pos:])
	s.pos += n
	return n, nil
}

// WAVSource plays the first channel of a PCM WAV file.
type WAVSource struct {
	sliceSource
	Channels int
	BitDepth int
}

// NewWAVSource decodes a whole PCM WAV stream.
func NewWAVSource(r io.ReadSeeker) (*WAVSource, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("%w: not a PCM WAV file", ErrUnsupportedFormat)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode WAV: %w", err)
	}

	channels := int(d.NumChans)
	if buf.Format != nil && buf.Format.NumChannels > 0 {
		channels = buf.Format.NumChannels
	}
	if channels < 1 {
		channels = 1
	}
	depth := buf.SourceBitDepth
	if depth == 0 {
		depth = int(d.BitDepth)
	}
	if depth < 8 || depth > 32 {
		return nil, fmt.Errorf("%w: %d-bit samples", ErrUnsupportedFormat, depth)
	}

	full := float64(int64(1) << (depth - 1))
	samples := make([]float64, 0, len(buf.Data)/channels)
	for i := 0; i+channels <= len(buf.Data); i += channels {
		v := buf.Data[i]
		if depth == 8 {
			// 8-bit WAV is unsigned.
			v -= 128
		}
		samples = append(samples, float64(v)/full)
	}

	return &WAVSource{
		sliceSource: sliceSource{rate: float64(d.SampleRate), samples: samples},
		Channels:    channels,
		BitDepth:    depth,
	}, nil
}

// Duration returns the decoded length in seconds.
func (s *WAVSource) Duration() float64 {
	return float64(len(s.samples)) / s.rate
}

// MP3Source plays the left channel of an MP3 stream.
type MP3Source struct {
	dec *mp3.Decoder
	buf []byte
}

// NewMP3Source wraps an MP3 stream. Decoding happens lazily on Read.
func NewMP3Source(r io.Reader) (*MP3Source, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}
	return &MP3Source{dec: dec}, nil
}

func (s *MP3Source) SampleRate() float64 { return float64(s.dec.SampleRate()) }

// Read decodes 16-bit little-endian stereo and keeps the left channel.
func (s *MP3Source) Read(p []float64) (int, error) {
	const frameBytes = 4
	if len(p) == 0 {
		return 0, nil
	}
	want := len(p) * frameBytes
	if cap(s.buf) < want {
		s.buf = make([]byte, want)
	}
	buf := s.buf[:want]

	got, err := io.ReadFull(s.dec, buf)
	frames := got / frameBytes
	for i := 0; i < frames; i++ {
		lo, hi := buf[i*frameBytes], buf[i*frameBytes+1]
		p[i] = float64(int16(uint16(lo)|uint16(hi)<<8)) / 32768
	}
	switch {
	case frames > 0:
		return frames, nil
	case err == nil || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF):
		return 0, ErrEndOfStream
	default:
		return 0, fmt.Errorf("failed to decode MP3: %w", err)
	}
}
