package capture

import (
	"math"
	"math/rand"
	"time"

	"github.com/banshee-data/siren.report/internal/doppler"
)

// SirenConfig describes a synthetic two-tone siren driving past a listener.
type SirenConfig struct {
	SampleRate float64
	HighToneHz float64
	LowToneHz  float64
	HalfPeriod time.Duration // how long each tone sounds before switching

	Speed  float64 // m/s
	Offset float64 // m, closest distance to the listener
	T0     float64 // s, time of closest approach

	Amplitude    float64 // peak amplitude at closest approach
	Noise        float64 // peak amplitude of uniform white noise
	Seed         int64
	Duration     time.Duration
	SpeedOfSound float64
}

// DefaultSirenConfig returns a 40 km/h pass 5 m from the listener, closest
// at 6 s into a 12 s clip.
func DefaultSirenConfig() SirenConfig {
	return SirenConfig{
		SampleRate:   48000,
		HighToneHz:   960,
		LowToneHz:    770,
		HalfPeriod:   650 * time.Millisecond,
		Speed:        40 / 3.6,
		Offset:       5,
		T0:           6,
		Amplitude:    0.05,
		Noise:        0.002,
		Seed:         1,
		Duration:     12 * time.Second,
		SpeedOfSound: doppler.SpeedOfSound,
	}
}

// SirenSource renders SirenConfig sample by sample. The phase is integrated
// so the waveform stays continuous when the pitch changes.
type SirenSource struct {
	cfg   SirenConfig
	rng   *rand.Rand
	total int
	pos   int
	phase float64
}

// NewSirenSource returns a source positioned at t = 0.
func NewSirenSource(cfg SirenConfig) *SirenSource {
	return &SirenSource{
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(cfg.Seed)),
		total: int(cfg.Duration.Seconds() * cfg.SampleRate),
	}
}

func (s *SirenSource) SampleRate() float64 { return s.cfg.SampleRate }

// Read renders the next len(p) samples.
func (s *SirenSource) Read(p []float64) (int, error) {
	if s.pos >= s.total {
		return 0, ErrEndOfStream
	}
	n := min(len(p), s.total-s.pos)
	near := math.Max(s.cfg.Offset, 1)
	for i := 0; i < n; i++ {
		t := float64(s.pos+i) / s.cfg.SampleRate
		f := s.Frequency(t)
		s.phase += 2 * math.Pi * f / s.cfg.SampleRate
		if s.phase > 2*math.Pi {
			s.phase -= 2 * math.Pi
		}

		amp := s.cfg.Amplitude * near / math.Max(s.distance(t), 1)
		x := amp * math.Sin(s.phase)
		if s.cfg.Noise > 0 {
			x += s.cfg.Noise * (2*s.rng.Float64() - 1)
		}
		p[i] = x
	}
	s.pos += n
	return n, nil
}

// Tone returns the nominal tone sounding at time t.
func (s *SirenSource) Tone(t float64) float64 {
	half := s.cfg.HalfPeriod.Seconds()
	if half <= 0 || int(math.Floor(t/half))%2 == 0 {
		return s.cfg.HighToneHz
	}
	return s.cfg.LowToneHz
}

// Frequency returns the Doppler-shifted frequency heard at time t.
func (s *SirenSource) Frequency(t float64) float64 {
	f := doppler.Predict(s.Tone(t), t, s.cfg.Speed, s.cfg.Offset, s.cfg.T0, s.cfg.SpeedOfSound)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return s.Tone(t)
	}
	return f
}

func (s *SirenSource) distance(t float64) float64 {
	along := s.cfg.Speed * (t - s.cfg.T0)
	return math.Hypot(s.cfg.Offset, along)
}
