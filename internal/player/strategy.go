package player

import (
	"errors"
	"math"
)

// ErrNoAudio is returned when a source decodes to zero samples.
var ErrNoAudio = errors.New("no audio data in source")

// strategy is one playback backend behind the controller. Two
// implementations exist: streamingStrategy for decoders that can seek in
// place, and bufferedStrategy for forward-only decoders, which loads the
// whole track into memory and tracks position with a ManualClock. The
// controller picks one per load; their transport semantics are identical
// from the caller's side.
type strategy interface {
	Play()
	Pause()
	Playing() bool
	Seek(sec float64)
	Position() float64
	Duration() float64
	SetVolume(gain float64)
	Tap() *Tap
	Close()
}

const resampleQuality = 4

// gainToVolume converts a linear [0,1] gain to effects.Volume fields
// (base-2 exponent, with zero gain expressed as Silent).
func gainToVolume(gain float64) (vol float64, silent bool) {
	if gain <= 0 {
		return 0, true
	}
	return math.Log2(gain), false
}
