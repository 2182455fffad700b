// Package recorder drives a siren session from an audio source: it owns the
// listening/recording state machine, feeds the analyser, and stamps each
// frame with recording-relative time from a Clock.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/banshee-data/siren.report/internal/capture"
	"github.com/banshee-data/siren.report/internal/monitoring"
	"github.com/banshee-data/siren.report/internal/siren"
	"github.com/banshee-data/siren.report/internal/timeutil"
)

// ErrNotListening is returned when audio or a recording is requested while
// the recorder is idle.
var ErrNotListening = errors.New("recorder: not listening")

// State is the recorder's position in idle → listening → recording.
type State int

const (
	StateIdle State = iota
	StateListening
	StateRecording
)

func (s State) String() string {
	switch s {
	case StateListening:
		return "listening"
	case StateRecording:
		return "recording"
	default:
		return "idle"
	}
}

// Recorder couples an Analyser with a Session.
type Recorder struct {
	mu       sync.Mutex
	clock    timeutil.Clock
	analyser *capture.Analyser
	session  *siren.Session

	state State
	start time.Time
}

// New returns an idle recorder.
func New(session *siren.Session, analyser *capture.Analyser, clock timeutil.Clock) *Recorder {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Recorder{
		clock:    clock,
		analyser: analyser,
		session:  session,
	}
}

// State returns the current state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Session returns the session the recorder feeds.
func (r *Recorder) Session() *siren.Session { return r.session }

// Listen turns the input on. Calling it while already listening or
// recording has no effect.
func (r *Recorder) Listen() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateIdle {
		r.state = StateListening
		monitoring.Logf("[Recorder] Listening: session=%s", r.session.ID())
	}
}

// StartRecording clears the histories, keeps the current estimate, and
// starts the recording clock at zero.
func (r *Recorder) StartRecording() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateIdle {
		return ErrNotListening
	}
	r.session.ClearHistories()
	r.start = r.clock.Now()
	r.state = StateRecording
	monitoring.Logf("[Recorder] Recording started: session=%s", r.session.ID())
	return nil
}

// StopRecording stops adding to the histories but keeps them.
func (r *Recorder) StopRecording() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateRecording {
		r.state = StateListening
		monitoring.Logf("[Recorder] Recording stopped: session=%s, elapsed=%s",
			r.session.ID(), r.clock.Since(r.start).Round(time.Millisecond))
	}
}

// Clear resets the session to its defaults without changing state.
func (r *Recorder) Clear() {
	r.session.Reset()
}

// Stop turns the input off, stopping any recording and clearing the session.
func (r *Recorder) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = StateIdle
	r.analyser.Reset()
	r.session.Reset()
}

// Elapsed returns the recording-relative time in seconds.
func (r *Recorder) Elapsed() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.elapsedLocked()
}

func (r *Recorder) elapsedLocked() float64 {
	if r.state != StateRecording {
		return 0
	}
	return r.clock.Since(r.start).Seconds()
}

// Tick feeds samples to the analyser and returns the resulting snapshot.
// While recording the frame is ingested into the session; while only
// listening the detector readings are reported without touching the
// histories.
func (r *Recorder) Tick(samples []float64) (siren.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateIdle {
		return siren.Snapshot{}, ErrNotListening
	}
	r.analyser.Write(samples)
	frame := r.analyser.Frame()

	now := r.elapsedLocked()
	if r.state == StateRecording {
		return r.session.Ingest(frame, now), nil
	}

	snap := r.session.Snapshot(now)
	snap.Readings = r.session.Params().Detect(frame)
	return snap, nil
}

// advancer is implemented by clocks that follow audio time rather than
// wall time.
type advancer interface {
	Advance(d time.Duration)
}

// Run pumps src through Tick one hop at a time until the source ends or ctx
// is cancelled, calling onSnapshot after every tick. With a MockClock the
// clock is advanced by the hop duration before each tick so timestamps
// follow audio time; otherwise ticks are paced by a ticker at the hop rate.
func (r *Recorder) Run(ctx context.Context, src capture.Source, hopSize int, onSnapshot func(siren.Snapshot)) error {
	if hopSize < 1 {
		return fmt.Errorf("hop size must be positive, got %d", hopSize)
	}
	if src.SampleRate() != r.analyser.SampleRate() {
		return fmt.Errorf("source sample rate %.0f Hz does not match analyser rate %.0f Hz",
			src.SampleRate(), r.analyser.SampleRate())
	}

	hop := time.Duration(float64(hopSize) / src.SampleRate() * float64(time.Second))
	adv, replay := r.clock.(advancer)

	var pace <-chan time.Time
	if !replay {
		ticker := r.clock.NewTicker(hop)
		defer ticker.Stop()
		pace = ticker.C()
	}

	buf := make([]float64, hopSize)
	ticks := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if pace != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-pace:
			}
		}

		n, err := src.Read(buf)
		if errors.Is(err, capture.ErrEndOfStream) {
			monitoring.Logf("[Recorder] Source drained: session=%s, ticks=%d", r.session.ID(), ticks)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read audio: %w", err)
		}

		if replay {
			adv.Advance(time.Duration(float64(n) / src.SampleRate() * float64(time.Second)))
		}
		snap, err := r.Tick(buf[:n])
		if err != nil {
			return err
		}
		ticks++
		if onSnapshot != nil {
			onSnapshot(snap)
		}
	}
}
