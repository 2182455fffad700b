package siren

import (
	"sync"

	"github.com/google/uuid"

	"github.com/banshee-data/siren.report/internal/doppler"
	"github.com/banshee-data/siren.report/internal/monitoring"
	"github.com/banshee-data/siren.report/internal/pitch"
)

// DefaultEstimate is the starting point of every session: 30 km/h, 5 m from
// the road, closest approach unset.
var DefaultEstimate = Estimate{Speed: 30 / 3.6, Offset: 5, T0: 0}

// Snapshot is a read-only copy of a session after one tick.
type Snapshot struct {
	SessionID string   `json:"session_id"`
	Now       float64  `json:"now"`
	Readings  Readings `json:"readings"`
	Tone      Tone     `json:"tone"`
	Estimate  Estimate `json:"estimate"`
	Refitted  bool     `json:"refitted"` // a fit ran and was adopted on this tick

	Generic []Sample      `json:"generic"`
	High    []Observation `json:"high"`
	Low     []Observation `json:"low"`
}

// Session owns all mutable estimation state for one recording. Ingest and
// Reset may be called from different goroutines; each call is atomic with
// respect to the others.
type Session struct {
	mu sync.Mutex

	id        string
	params    Params
	estimator Estimator
	store     *Store
	estimate  Estimate
}

// NewSession returns a session in its reset state.
func NewSession(p Params) *Session {
	return &Session{
		id:        uuid.New().String(),
		params:    p,
		estimator: p.Estimator(),
		store:     NewStore(p),
		estimate:  DefaultEstimate,
	}
}

// ID returns the session's correlation ID used in log lines.
func (s *Session) ID() string { return s.id }

// Params returns the session's configuration.
func (s *Session) Params() Params { return s.params }

// Ingest runs the detectors over one frame captured at now (seconds since
// recording start) and folds the result into the session.
func (s *Session) Ingest(f pitch.Frame, now float64) Snapshot {
	return s.ingest(s.params.Detect(f), now)
}

func (s *Session) ingest(r Readings, now float64) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.store.Record(now, r)

	tone := s.store.Classify(r.Siren)
	if tone != ToneNone {
		obs := Observation{Time: now, Frequency: r.Siren}
		if s.store.Admit(tone, obs) {
			s.seed(tone, r.Siren, now)
		}
	}

	s.store.Trim(now)

	refitted := false
	if s.store.DueForRefit() {
		next, ok := s.estimator.Fit(s.store.high, s.store.low, s.estimate)
		if ok {
			s.estimate = next
			refitted = true
			monitoring.Logf("[Session] Refit: session=%s, t=%.3f, high=%d, low=%d, %s",
				s.id, now, len(s.store.high), len(s.store.low), next)
		}
	}

	snap := s.snapshotLocked(now)
	snap.Readings = r
	snap.Tone = tone
	snap.Refitted = refitted
	return snap
}

// seed bootstraps speed and t0 from the first reading of a tone. The low tone
// only seeds while t0 is still unset.
func (s *Session) seed(tone Tone, measured, now float64) {
	nominal := s.params.HighToneHz
	if tone == ToneLow {
		if s.estimate.T0 != 0 {
			return
		}
		nominal = s.params.LowToneHz
	}
	s.estimate.Speed = doppler.SeedSpeed(nominal, measured, s.params.SpeedOfSound)
	s.estimate.T0 = now + 5
	monitoring.Logf("[Session] Seeded from %s tone: session=%s, t=%.3f, f=%.2f, %s",
		tone, s.id, now, measured, s.estimate)
}

// Reset clears every history and marker and restores DefaultEstimate.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Reset()
	s.estimate = DefaultEstimate
}

// ClearHistories clears every history and marker but keeps the estimate, as
// happens when a new recording starts.
func (s *Session) ClearHistories() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Reset()
}

// Estimate returns the current estimate.
func (s *Session) Estimate() Estimate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.estimate
}

// Snapshot returns a copy of the current state without ingesting anything.
func (s *Session) Snapshot(now float64) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(now)
}

func (s *Session) snapshotLocked(now float64) Snapshot {
	return Snapshot{
		SessionID: s.id,
		Now:       now,
		Estimate:  s.estimate,
		Generic:   s.store.Generic(),
		High:      s.store.High(),
		Low:       s.store.Low(),
	}
}
