package siren

import "math"

// Store holds the per-session observation histories: a bounded generic
// history of every tick, and a sliding window of observations per tone.
type Store struct {
	params Params

	generic *ring[Sample]
	high    []Observation
	low     []Observation

	// first-detection time per tone; valid only when the matching flag is set
	highFirst, lowFirst   float64
	highMarked, lowMarked bool
}

// NewStore returns an empty store sized from p.
func NewStore(p Params) *Store {
	return &Store{
		params:  p,
		generic: newRing[Sample](p.HistoryCapacity),
	}
}

// Record appends one tick to the generic history, evicting the oldest entry
// when the ring is full.
func (s *Store) Record(now float64, r Readings) {
	s.generic.push(Sample{
		Time:        now,
		Fundamental: r.Fundamental,
		Dominant:    r.Dominant,
		Siren:       r.Siren,
	})
}

// Classify attributes a siren-band frequency to a tone. The high tone wins
// when both windows match.
func (s *Store) Classify(f float64) Tone {
	switch {
	case math.Abs(f-s.params.HighToneHz) < s.params.HighToneToleranceHz:
		return ToneHigh
	case math.Abs(f-s.params.LowToneHz) < s.params.LowToneToleranceHz:
		return ToneLow
	default:
		return ToneNone
	}
}

// Admit appends obs to the tone's history. It reports whether the history was
// empty beforehand, which is when callers seed the estimate.
func (s *Store) Admit(tone Tone, obs Observation) (first bool) {
	switch tone {
	case ToneHigh:
		first = len(s.high) == 0
		if first && !s.highMarked {
			s.highFirst, s.highMarked = obs.Time, true
		}
		s.high = append(s.high, obs)
	case ToneLow:
		first = len(s.low) == 0
		if first && !s.lowMarked {
			s.lowFirst, s.lowMarked = obs.Time, true
		}
		s.low = append(s.low, obs)
	}
	return first
}

// Trim drops tone observations older than the sliding window and those
// inside the warm-up period after each tone's first detection.
func (s *Store) Trim(now float64) {
	minTime := now - s.params.Window.Seconds()
	warmup := s.params.Warmup.Seconds()

	highMin, lowMin := minTime, minTime
	if s.highMarked {
		highMin = max(highMin, s.highFirst+warmup)
	}
	if s.lowMarked {
		lowMin = max(lowMin, s.lowFirst+warmup)
	}
	s.high = keepFrom(s.high, highMin)
	s.low = keepFrom(s.low, lowMin)
}

// Count returns the combined size of both tone histories.
func (s *Store) Count() int { return len(s.high) + len(s.low) }

// DueForRefit reports whether the combined tone count is a positive multiple
// of the refit interval.
func (s *Store) DueForRefit() bool {
	n := s.Count()
	return n > 0 && s.params.RefitEvery > 0 && n%s.params.RefitEvery == 0
}

// High returns a copy of the high-tone history.
func (s *Store) High() []Observation { return append([]Observation(nil), s.high...) }

// Low returns a copy of the low-tone history.
func (s *Store) Low() []Observation { return append([]Observation(nil), s.low...) }

// Generic returns the generic history in arrival order.
func (s *Store) Generic() []Sample { return s.generic.slice() }

// FirstDetection returns the first-detection time for a tone, if any.
func (s *Store) FirstDetection(tone Tone) (float64, bool) {
	switch tone {
	case ToneHigh:
		return s.highFirst, s.highMarked
	case ToneLow:
		return s.lowFirst, s.lowMarked
	}
	return 0, false
}

// Reset empties every history and clears both first-detection markers.
func (s *Store) Reset() {
	s.generic.reset()
	s.high = s.high[:0]
	s.low = s.low[:0]
	s.highFirst, s.highMarked = 0, false
	s.lowFirst, s.lowMarked = 0, false
}

// keepFrom filters obs in place, keeping entries with Time >= minTime.
func keepFrom(obs []Observation, minTime float64) []Observation {
	out := obs[:0]
	for _, o := range obs {
		if o.Time >= minTime {
			out = append(out, o)
		}
	}
	return out
}
