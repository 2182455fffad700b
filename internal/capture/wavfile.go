package capture

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteWAV renders src into a 16-bit mono PCM WAV file at path. A
// non-positive seconds renders until the source ends.
func WriteWAV(path string, src Source, seconds float64) (err error) {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to create WAV file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close WAV file: %w", cerr)
		}
	}()

	rate := int(src.SampleRate())
	enc := wav.NewEncoder(f, rate, 16, 1, 1)

	limit := -1
	if seconds > 0 {
		limit = int(seconds * src.SampleRate())
	}

	chunk := make([]float64, 4096)
	ints := make([]int, len(chunk))
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: rate},
		SourceBitDepth: 16,
	}
	written := 0
	for limit < 0 || written < limit {
		want := len(chunk)
		if limit >= 0 {
			want = min(want, limit-written)
		}
		n, rerr := src.Read(chunk[:want])
		if errors.Is(rerr, ErrEndOfStream) {
			break
		}
		if rerr != nil {
			return fmt.Errorf("failed to read source: %w", rerr)
		}
		for i, x := range chunk[:n] {
			ints[i] = int(math.Round(math.Max(-1, math.Min(1, x)) * 32767))
		}
		buf.Data = ints[:n]
		if err := enc.Write(buf); err != nil {
			return fmt.Errorf("failed to write WAV samples: %w", err)
		}
		written += n
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalise WAV header: %w", err)
	}
	return nil
}
