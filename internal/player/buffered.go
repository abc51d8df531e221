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

// bufferedStrategy serves decoders that cannot seek: the whole track is
// drained into an in-memory beep.Buffer up front, and playback schedules
// buffer segments against the speaker. Scheduled segments expose no readable
// position, so a ManualClock reconstructs it from the tap's graph clock.
//
// Every operation that discards the current segment (seek, close) bumps the
// generation counter so the discarded segment's end callback is ignored.
type bufferedStrategy struct {
	engineRate beep.SampleRate
	buf        *beep.Buffer
	duration   float64
	tap        *Tap

	mu        sync.Mutex
	ctrl      *beep.Ctrl
	vol       *effects.Volume
	gain      float64
	clock     ManualClock
	playing   bool
	scheduled bool
	gen       atomic.Int64
	done      atomic.Bool
}

// newBufferedStrategy decodes the entire source into memory. Decode errors
// surface here, before any playback state exists, so a failed load leaves
// the previous session untouched.
func newBufferedStrategy(dec *decode.Decoded, engineRate beep.SampleRate, tapSize int) (*bufferedStrategy, error) {
	buf := beep.NewBuffer(beep.Format{SampleRate: engineRate, NumChannels: 2, Precision: 2})
	var src beep.Streamer = dec.Streamer
	if dec.Format.SampleRate != engineRate {
		src = beep.Resample(resampleQuality, dec.Format.SampleRate, engineRate, src)
	}
	buf.Append(src)
	err := dec.Streamer.Err()
	dec.Close()
	if err != nil {
		return nil, err
	}
	if buf.Len() == 0 {
		return nil, ErrNoAudio
	}

	return &bufferedStrategy{
		engineRate: engineRate,
		buf:        buf,
		duration:   engineRate.D(buf.Len()).Seconds(),
		tap:        NewTap(tapSize, float64(engineRate)),
		gain:       1,
	}, nil
}

// schedule replaces the active segment with one starting at fromSec.
// Must be called with s.mu held.
func (s *bufferedStrategy) schedule(fromSec float64, paused bool) {
	gen := s.gen.Add(1)
	speaker.Clear()

	from := s.engineRate.N(time.Duration(fromSec * float64(time.Second)))
	if from < 0 {
		from = 0
	}
	if from > s.buf.Len() {
		from = s.buf.Len()
	}
	seg := s.buf.Streamer(from, s.buf.Len())

	vol := &effects.Volume{Streamer: seg, Base: 2}
	vol.Volume, vol.Silent = gainToVolume(s.gain)
	ctrl := &beep.Ctrl{Streamer: vol, Paused: paused}
	s.vol, s.ctrl = vol, ctrl
	s.scheduled = true

	speaker.Play(beep.Seq(s.tap.Streamer(ctrl), beep.Callback(func() {
		// Only the live segment may report the end; a reschedule bumps gen
		// before this segment is dropped from the mixer.
		if s.gen.Load() == gen {
			s.done.Store(true)
		}
	})))
}

// syncEnd folds the end-of-track flag into strategy state: position rewinds
// to zero and the finished segment is forgotten. Must be called with s.mu held.
func (s *bufferedStrategy) syncEnd() {
	if s.done.Swap(false) {
		s.playing = false
		s.scheduled = false
		s.clock.Reset()
	}
}

func (s *bufferedStrategy) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncEnd()
	if s.playing {
		return
	}
	if !s.scheduled {
		s.schedule(s.clock.Offset(), false)
	} else {
		speaker.Lock()
		s.ctrl.Paused = false
		speaker.Unlock()
	}
	s.clock.Start(s.tap.Clock())
	s.playing = true
}

func (s *bufferedStrategy) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncEnd()
	if !s.playing {
		return
	}
	// Snapshot the position before freezing the segment, or it desyncs.
	s.clock.Stop(s.tap.Clock(), s.duration)
	speaker.Lock()
	s.ctrl.Paused = true
	speaker.Unlock()
	s.playing = false
}

func (s *bufferedStrategy) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncEnd()
	return s.playing
}

func (s *bufferedStrategy) Seek(sec float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncEnd()
	if sec < 0 {
		sec = 0
	}
	if sec > s.duration {
		sec = s.duration
	}
	s.clock.Seek(s.tap.Clock(), sec)
	if s.playing {
		s.schedule(sec, false)
	} else if s.scheduled {
		// Paused: keep a segment parked at the new offset so resume is
		// instant, but only the stored position changes.
		s.schedule(sec, true)
	}
}

func (s *bufferedStrategy) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncEnd()
	return s.clock.Pos(s.tap.Clock(), s.duration)
}

func (s *bufferedStrategy) Duration() float64 { return s.duration }

func (s *bufferedStrategy) SetVolume(gain float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gain = gain
	speaker.Lock()
	if s.vol != nil {
		s.vol.Volume, s.vol.Silent = gainToVolume(gain)
	}
	speaker.Unlock()
}

func (s *bufferedStrategy) Tap() *Tap { return s.tap }

func (s *bufferedStrategy) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen.Add(1)
	if s.scheduled {
		speaker.Clear()
		s.scheduled = false
	}
	s.playing = false
}
