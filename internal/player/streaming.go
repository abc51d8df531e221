package player

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/lumenbeat/lumenbeat/internal/decode"
)

// streamingStrategy plays a seekable decoder directly:
//
//	[decode] -> [resample] -> [volume] -> [ctrl] -> [tap] -> [speaker]
//
// Position and duration come straight from the decoder, so no manual clock
// is needed. The tap sits after the pause control: a paused chain streams
// silence, which keeps the graph clock advancing and lets the spectrum
// decay naturally.
type streamingStrategy struct {
	engineRate beep.SampleRate

	mu      sync.Mutex
	dec     *decode.Decoded
	ctrl    *beep.Ctrl
	vol     *effects.Volume
	tap     *Tap
	gain    float64
	playing bool
	started bool // chain currently attached to the speaker mixer
	ended   bool // natural end observed, position pinned at duration
	done    atomic.Bool
}

func newStreamingStrategy(dec *decode.Decoded, engineRate beep.SampleRate, tapSize int) *streamingStrategy {
	s := &streamingStrategy{
		engineRate: engineRate,
		dec:        dec,
		gain:       1,
		tap:        NewTap(tapSize, float64(engineRate)),
	}
	var src beep.Streamer = dec.Streamer
	if dec.Format.SampleRate != engineRate {
		src = beep.Resample(resampleQuality, dec.Format.SampleRate, engineRate, src)
	}
	s.vol = &effects.Volume{Streamer: src, Base: 2}
	s.vol.Volume, s.vol.Silent = gainToVolume(s.gain)
	s.ctrl = &beep.Ctrl{Streamer: s.vol}
	return s
}

// syncEnd folds the end-of-track callback flag into strategy state.
// Must be called with s.mu held.
func (s *streamingStrategy) syncEnd() {
	if s.done.Swap(false) {
		s.playing = false
		s.started = false // the finished chain was dropped by the mixer
		s.ended = true
	}
}

func (s *streamingStrategy) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncEnd()
	if s.playing {
		return
	}
	if s.ended {
		speaker.Lock()
		s.dec.Streamer.Seek(0)
		speaker.Unlock()
		s.ended = false
	}
	if !s.started {
		// The callback only flips an atomic: it fires on the speaker
		// goroutine, where taking locks would invert lock order.
		speaker.Play(beep.Seq(s.tap.Streamer(s.ctrl), beep.Callback(func() {
			s.done.Store(true)
		})))
		s.started = true
	}
	speaker.Lock()
	s.ctrl.Paused = false
	speaker.Unlock()
	s.playing = true
}

func (s *streamingStrategy) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncEnd()
	if !s.playing {
		return
	}
	speaker.Lock()
	s.ctrl.Paused = true
	speaker.Unlock()
	s.playing = false
}

func (s *streamingStrategy) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncEnd()
	return s.playing
}

// Seek repositions the decoder in place. The mixer keeps pulling from the
// same chain, so a seek while playing is gapless and a seek while paused
// only moves the stored position.
func (s *streamingStrategy) Seek(sec float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncEnd()
	s.ended = false

	speaker.Lock()
	defer speaker.Unlock()
	n := s.dec.Format.SampleRate.N(time.Duration(sec * float64(time.Second)))
	if n < 0 {
		n = 0
	}
	if limit := s.dec.Streamer.Len() - 1; n > limit {
		n = limit
	}
	s.dec.Streamer.Seek(n)
}

func (s *streamingStrategy) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncEnd()
	speaker.Lock()
	defer speaker.Unlock()
	if s.ended {
		return s.dec.Format.SampleRate.D(s.dec.Streamer.Len()).Seconds()
	}
	return s.dec.Format.SampleRate.D(s.dec.Streamer.Position()).Seconds()
}

func (s *streamingStrategy) Duration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	speaker.Lock()
	defer speaker.Unlock()
	return s.dec.Format.SampleRate.D(s.dec.Streamer.Len()).Seconds()
}

func (s *streamingStrategy) SetVolume(gain float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gain = gain
	speaker.Lock()
	s.vol.Volume, s.vol.Silent = gainToVolume(gain)
	speaker.Unlock()
}

func (s *streamingStrategy) Tap() *Tap { return s.tap }

func (s *streamingStrategy) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		speaker.Clear()
		s.started = false
	}
	s.playing = false
	s.dec.Close()
}
