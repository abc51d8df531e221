// Package player owns the audio pipeline: decoding strategies, the speaker
// graph, microphone capture, and the transport state machine the analysis
// loop and UI read from.
package player

import (
	"sync"
	"sync/atomic"

	"github.com/gopxl/beep/v2"
)

// Tap is the graph endpoint the analysis loop reads from. It captures a mono
// mix of everything that flows through it into a ring buffer and counts every
// sample seen; the count divided by the sample rate is the graph clock. File
// strategies push through Streamer (sitting last in the speaker chain),
// microphone capture pushes directly.
type Tap struct {
	sampleRate float64
	mu         sync.Mutex
	buf        []float64
	pos        int
	size       int
	streamed   atomic.Int64
}

// NewTap creates a Tap with the given ring size.
func NewTap(bufSize int, sampleRate float64) *Tap {
	return &Tap{
		sampleRate: sampleRate,
		buf:        make([]float64, bufSize),
		size:       bufSize,
	}
}

// Push records mono samples into the ring and advances the clock.
func (t *Tap) Push(samples []float64) {
	t.mu.Lock()
	for _, v := range samples {
		t.buf[t.pos] = v
		t.pos = (t.pos + 1) % t.size
	}
	t.mu.Unlock()
	t.streamed.Add(int64(len(samples)))
}

// Samples returns the last n captured samples in chronological order.
func (t *Tap) Samples(n int) []float64 {
	if n > t.size {
		n = t.size
	}
	out := make([]float64, n)
	t.mu.Lock()
	start := (t.pos - n + t.size) % t.size
	for i := range out {
		out[i] = t.buf[(start+i)%t.size]
	}
	t.mu.Unlock()
	return out
}

// Clock returns the graph clock in seconds: total samples streamed through
// this tap divided by the sample rate. It keeps advancing while the chain
// streams silence (e.g. paused), matching audio-context clock behavior.
func (t *Tap) Clock() float64 {
	return float64(t.streamed.Load()) / t.sampleRate
}

// Streamer wraps s so that all audio flowing to the speaker is also captured
// by the tap.
func (t *Tap) Streamer(s beep.Streamer) beep.Streamer {
	return &tapStreamer{t: t, s: s}
}

type tapStreamer struct {
	t *Tap
	s beep.Streamer
}

func (ts *tapStreamer) Stream(samples [][2]float64) (int, bool) {
	n, ok := ts.s.Stream(samples)
	ts.t.mu.Lock()
	for i := range n {
		ts.t.buf[ts.t.pos] = (samples[i][0] + samples[i][1]) / 2
		ts.t.pos = (ts.t.pos + 1) % ts.t.size
	}
	ts.t.mu.Unlock()
	ts.t.streamed.Add(int64(n))
	return n, ok
}

func (ts *tapStreamer) Err() error { return ts.s.Err() }
