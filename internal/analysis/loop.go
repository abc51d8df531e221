package analysis

import (
	"context"
	"log"
	"sync"
	"time"
)

// Source is the live audio graph endpoint the loop reads from: the most
// recent mono samples plus the source's monotonic audio clock.
type Source interface {
	// Samples returns the latest n mono samples, oldest first.
	Samples(n int) []float64
	// Clock returns the audio-graph clock in seconds.
	Clock() float64
}

// Transport reports the playback-side fields merged into each snapshot.
type Transport interface {
	Status() TransportStatus
}

// Loop drives feature extraction at a fixed tick rate. Each tick it pulls
// samples from the attached source, runs the spectrum and extractor passes,
// merges transport state, and publishes a Snapshot. Ticks with no attached
// source reschedule without computing, which tolerates the startup gap
// between "playback requested" and "graph wired".
type Loop struct {
	tick      time.Duration
	fftSize   int
	transport Transport
	out       chan Snapshot

	startMu sync.Mutex // serializes Start/Stop
	cancel  context.CancelFunc
	done    chan struct{}

	mu        sync.Mutex // guards src and the stateful passes below
	src       Source
	spectrum  *Spectrum
	extractor *Extractor
}

// NewLoop creates a stopped Loop. The snapshot channel is created once and
// survives restarts, so subscribers never need to resubscribe.
func NewLoop(sampleRate, fftSize, tickHz int, smoothing float64, transport Transport) *Loop {
	if tickHz <= 0 {
		tickHz = 60
	}
	return &Loop{
		tick:      time.Second / time.Duration(tickHz),
		fftSize:   fftSize,
		transport: transport,
		out:       make(chan Snapshot, 8),
		spectrum:  NewSpectrum(fftSize, smoothing),
		extractor: NewExtractor(float64(sampleRate), fftSize),
	}
}

// Snapshots returns the channel snapshots are published on. Slow consumers
// have snapshots dropped, never block the loop.
func (l *Loop) Snapshots() <-chan Snapshot { return l.out }

// Attach sets the source the loop reads from. A nil source detaches.
func (l *Loop) Attach(src Source) {
	l.mu.Lock()
	l.src = src
	l.mu.Unlock()
}

// Reset clears the rolling analysis state (smoothed spectrum, beat history,
// adaptive threshold). Called whenever a new source is loaded.
func (l *Loop) Reset() {
	l.mu.Lock()
	l.spectrum.Reset()
	l.extractor.Reset()
	l.mu.Unlock()
}

// Start begins ticking. Any previous run is cancelled and fully drained
// first, so rapid start/stop/start sequences can never leave two concurrent
// tickers running.
func (l *Loop) Start() {
	l.startMu.Lock()
	defer l.startMu.Unlock()
	l.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	l.cancel = cancel
	l.done = done
	go l.run(ctx, done)
}

// Stop cancels the current run and waits for it to finish.
func (l *Loop) Stop() {
	l.startMu.Lock()
	defer l.startMu.Unlock()
	l.stopLocked()
}

func (l *Loop) stopLocked() {
	if l.cancel != nil {
		l.cancel()
		<-l.done
		l.cancel = nil
		l.done = nil
	}
}

func (l *Loop) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(l.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.tickOnce()
		}
	}
}

// tickOnce performs one extraction pass. It never stops the loop: a panic in
// the pass is logged and treated as "no data this tick".
func (l *Loop) tickOnce() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("analysis: tick recovered: %v", r)
		}
	}()

	l.mu.Lock()
	src := l.src
	if src == nil {
		l.mu.Unlock()
		return
	}
	samples := src.Samples(l.fftSize)
	now := src.Clock()
	freq, wave := l.spectrum.Process(samples)
	feats := l.extractor.Process(freq, now)
	l.mu.Unlock()

	st := l.transport.Status()
	snap := Snapshot{
		FrequencyData: freq,
		TimeData:      wave,
		Volume:        feats.Volume,
		BassEnergy:    feats.BassEnergy,
		MidEnergy:     feats.MidEnergy,
		HighEnergy:    feats.HighEnergy,
		Beat:          feats.Beat,
		BPM:           feats.BPM,
		IsPlaying:     st.IsPlaying,
		CurrentTime:   st.CurrentTime,
		Duration:      st.Duration,
		MicMode:       st.MicMode,
		MicStopping:   st.MicStopping,
	}

	select {
	case l.out <- snap:
	default:
		// consumer lagging, drop this tick
	}
}
