package siren

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestClassify(t *testing.T) {
	s := NewStore(DefaultParams())

	tests := []struct {
		freq float64
		want Tone
	}{
		{960, ToneHigh},
		{1009, ToneHigh},
		{911, ToneHigh},
		{1010, ToneNone}, // tolerance is exclusive
		{910, ToneNone},
		{770, ToneLow},
		{701, ToneLow},
		{839, ToneLow},
		{700, ToneNone},
		{840, ToneNone},
		{0, ToneNone},
	}
	for _, tt := range tests {
		if got := s.Classify(tt.freq); got != tt.want {
			t.Errorf("Classify(%v) = %v, want %v", tt.freq, got, tt.want)
		}
	}
}

func TestClassifyOverlapPrefersHigh(t *testing.T) {
	p := DefaultParams()
	p.LowToneToleranceHz = 300
	s := NewStore(p)
	if got := s.Classify(950); got != ToneHigh {
		t.Errorf("Classify(950) = %v, want high", got)
	}
}

func TestAdmitMarksFirstDetectionOnce(t *testing.T) {
	s := NewStore(DefaultParams())

	if first := s.Admit(ToneHigh, Observation{Time: 2, Frequency: 960}); !first {
		t.Fatal("first admission should report an empty history")
	}
	if first := s.Admit(ToneHigh, Observation{Time: 2.1, Frequency: 960}); first {
		t.Error("second admission reported an empty history")
	}

	// Emptying the history by trimming keeps the original marker.
	s.Trim(100)
	if s.Count() != 0 {
		t.Fatalf("Count() = %d after trimming everything, want 0", s.Count())
	}
	s.Admit(ToneHigh, Observation{Time: 100, Frequency: 960})
	if at, ok := s.FirstDetection(ToneHigh); !ok || at != 2 {
		t.Errorf("FirstDetection(high) = %v, %v, want 2, true", at, ok)
	}
	if _, ok := s.FirstDetection(ToneLow); ok {
		t.Error("low tone marked without a low observation")
	}
}

func TestTrimWindow(t *testing.T) {
	p := DefaultParams()
	p.Warmup = 0
	s := NewStore(p)

	for i := 0; i <= 300; i++ {
		now := float64(i) / 10
		s.Admit(ToneHigh, Observation{Time: now, Frequency: 960})
		s.Admit(ToneLow, Observation{Time: now, Frequency: 770})
		s.Trim(now)
	}

	for _, obs := range [][]Observation{s.High(), s.Low()} {
		if len(obs) == 0 {
			t.Fatal("history unexpectedly empty")
		}
		if obs[0].Time < 30-15 {
			t.Errorf("oldest observation at %v, want >= 15", obs[0].Time)
		}
		if obs[len(obs)-1].Time != 30 {
			t.Errorf("newest observation at %v, want 30", obs[len(obs)-1].Time)
		}
	}
}

func TestTrimWarmup(t *testing.T) {
	s := NewStore(DefaultParams())

	for i := 0; i <= 30; i++ {
		now := float64(i) / 10
		s.Admit(ToneHigh, Observation{Time: now, Frequency: 960})
		s.Trim(now)
	}

	high := s.High()
	if len(high) != 21 {
		t.Fatalf("len(High()) = %d, want 21", len(high))
	}
	for _, o := range high {
		if o.Time < 1 {
			t.Errorf("observation at %v survived the 1s warm-up", o.Time)
		}
	}
}

func TestGenericHistoryBounded(t *testing.T) {
	s := NewStore(DefaultParams())
	for i := 0; i < 1500; i++ {
		s.Record(float64(i), Readings{Fundamental: 1})
	}

	got := s.Generic()
	if len(got) != 1000 {
		t.Fatalf("len(Generic()) = %d, want 1000", len(got))
	}
	if got[0].Time != 500 || got[999].Time != 1499 {
		t.Errorf("Generic() spans [%v, %v], want [500, 1499]", got[0].Time, got[999].Time)
	}
}

func TestDueForRefit(t *testing.T) {
	p := DefaultParams()
	p.Warmup = 0
	s := NewStore(p)

	if s.DueForRefit() {
		t.Error("empty store is due for refit")
	}
	for i := 1; i <= 40; i++ {
		tone := ToneHigh
		if i%2 == 0 {
			tone = ToneLow
		}
		s.Admit(tone, Observation{Time: float64(i) * 0.01, Frequency: 900})
		want := i%20 == 0
		if got := s.DueForRefit(); got != want {
			t.Errorf("after %d observations DueForRefit() = %v, want %v", i, got, want)
		}
	}
}

func TestStoreReset(t *testing.T) {
	p := DefaultParams()
	p.Window = 15 * time.Second
	s := NewStore(p)
	s.Record(1, Readings{Siren: 960})
	s.Admit(ToneHigh, Observation{Time: 1, Frequency: 960})
	s.Admit(ToneLow, Observation{Time: 1, Frequency: 770})

	s.Reset()

	if diff := cmp.Diff([]Sample{}, s.Generic()); diff != "" {
		t.Errorf("Generic() mismatch (-want +got):\n%s", diff)
	}
	if s.Count() != 0 {
		t.Errorf("Count() = %d, want 0", s.Count())
	}
	if _, ok := s.FirstDetection(ToneHigh); ok {
		t.Error("high marker survived Reset")
	}
	if _, ok := s.FirstDetection(ToneLow); ok {
		t.Error("low marker survived Reset")
	}
}
