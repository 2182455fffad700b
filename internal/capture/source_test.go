package capture

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/siren.report/internal/fsutil"
)

func readAll(t *testing.T, src Source) []float64 {
	t.Helper()
	var out []float64
	buf := make([]float64, 1000)
	for {
		n, err := src.Read(buf)
		if errors.Is(err, ErrEndOfStream) {
			return out
		}
		require.NoError(t, err)
		out = append(out, buf[:n]...)
	}
}

func shortSiren() SirenConfig {
	cfg := DefaultSirenConfig()
	cfg.Duration = 500 * time.Millisecond
	cfg.Noise = 0
	return cfg
}

func TestSliceSource(t *testing.T) {
	src := &sliceSource{rate: 100, samples: []float64{1, 2, 3}}
	buf := make([]float64, 2)

	n, err := src.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = src.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 3.0, buf[0])
	_, err = src.Read(buf)
	assert.ErrorIs(t, err, ErrEndOfStream)
}

func TestSirenSourceLength(t *testing.T) {
	src := NewSirenSource(shortSiren())
	assert.Equal(t, 48000.0, src.SampleRate())
	assert.Len(t, readAll(t, src), 24000)
}

func TestSirenSourceDeterministic(t *testing.T) {
	cfg := shortSiren()
	cfg.Noise = 0.01
	a := readAll(t, NewSirenSource(cfg))
	b := readAll(t, NewSirenSource(cfg))
	assert.Equal(t, a, b)

	cfg.Seed = 2
	c := readAll(t, NewSirenSource(cfg))
	assert.NotEqual(t, a, c)
}

func TestSirenSourceAmplitude(t *testing.T) {
	cfg := DefaultSirenConfig()
	cfg.Duration = 8 * time.Second
	limit := cfg.Amplitude + cfg.Noise
	for i, x := range readAll(t, NewSirenSource(cfg)) {
		if math.Abs(x) > limit+1e-12 {
			t.Fatalf("sample %d = %v exceeds %v", i, x, limit)
		}
	}
}

func TestSirenSourceTones(t *testing.T) {
	src := NewSirenSource(DefaultSirenConfig())

	assert.Equal(t, 960.0, src.Tone(0))
	assert.Equal(t, 960.0, src.Tone(0.6))
	assert.Equal(t, 770.0, src.Tone(0.7))
	assert.Equal(t, 960.0, src.Tone(1.4))

	// Approaching is sharp, receding is flat, closest approach is nominal.
	assert.Greater(t, src.Frequency(0.1), 960.0)
	assert.Less(t, src.Frequency(10), 770.0)
	assert.InDelta(t, src.Tone(6), src.Frequency(6), 1e-9)
}

func TestWriteWAVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pass.wav")
	require.NoError(t, WriteWAV(path, NewSirenSource(shortSiren()), 0))

	src, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, 48000.0, src.SampleRate())

	wavSrc, ok := src.(*WAVSource)
	require.True(t, ok)
	assert.Equal(t, 1, wavSrc.Channels)
	assert.Equal(t, 16, wavSrc.BitDepth)
	assert.InDelta(t, 0.5, wavSrc.Duration(), 1e-9)

	want := readAll(t, NewSirenSource(shortSiren()))
	got := readAll(t, src)
	require.Len(t, got, len(want))
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-4 {
			t.Fatalf("sample %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestWriteWAVLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.wav")
	require.NoError(t, WriteWAV(path, NewSirenSource(shortSiren()), 0.25))

	src, err := Open(path)
	require.NoError(t, err)
	assert.Len(t, readAll(t, src), 12000)
}

func TestWriteWAVBadPath(t *testing.T) {
	err := WriteWAV(filepath.Join(t.TempDir(), "missing", "x.wav"), NewSirenSource(shortSiren()), 0)
	assert.Error(t, err)
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Open(filepath.Join(dir, "clip.flac"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Open(filepath.Join(dir, "missing.wav"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnsupportedFormat)

	junk := filepath.Join(dir, "junk.wav")
	require.NoError(t, os.WriteFile(junk, []byte("definitely not RIFF data"), 0644))
	_, err = Open(junk)
	assert.Error(t, err)
}

func TestNewMP3SourceRejectsEmpty(t *testing.T) {
	_, err := NewMP3Source(bytes.NewReader(nil))
	assert.Error(t, err)
}

func TestOpenFS(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.wav")
	require.NoError(t, WriteWAV(path, NewSirenSource(shortSiren()), 0.1))
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	mem := fsutil.NewMemoryFileSystem()
	mem.Put("/recordings/PASS.WAV", data)

	src, err := OpenFS(mem, "/recordings/PASS.WAV")
	require.NoError(t, err)
	assert.Equal(t, 48000.0, src.SampleRate())
	assert.Len(t, readAll(t, src), 4800)

	_, err = OpenFS(mem, "/recordings/other.wav")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
