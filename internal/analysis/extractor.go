package analysis

import "math"

// Frequency band edges in Hz. Bins above the high edge (or below the bass
// edge) are ignored for band energy.
const (
	bassLowHz  = 20
	bassHighHz = 150
	midHighHz  = 2000
	highHighHz = 20000
)

const (
	// minBeatGap is the minimum spacing between accepted beats, in audio-clock
	// seconds. The same gap gates beat-history recording, separately.
	minBeatGap = 0.3

	baseThreshold = 0.15
	thresholdGain = 0.1

	historyCap = 20

	minBPM = 50
	maxBPM = 200
)

// Features is the output of a single extraction pass.
type Features struct {
	Volume     float64
	BassEnergy float64
	MidEnergy  float64
	HighEnergy float64
	Beat       bool
	BPM        int // 0 while unknown
}

// Extractor computes perceptual features from a byte magnitude spectrum.
// It keeps rolling state across calls: the adaptive beat threshold, the
// timestamp of the last accepted beat, and a bounded history of recorded
// beats used for the tempo estimate.
type Extractor struct {
	sampleRate float64
	fftSize    int

	threshold float64
	lastBeat  float64   // audio-clock seconds of last accepted beat
	history   []float64 // audio-clock seconds of recorded beats, newest last
	bpm       int
	anyBeat   bool // false until the first beat is accepted
}

// NewExtractor creates an Extractor for spectra produced at the given sample
// rate and transform size.
func NewExtractor(sampleRate float64, fftSize int) *Extractor {
	return &Extractor{
		sampleRate: sampleRate,
		fftSize:    fftSize,
		threshold:  baseThreshold,
		history:    make([]float64, 0, historyCap),
	}
}

// Process derives features from the frequency buffer. now is the audio-graph
// clock in seconds, used for beat spacing; it must be monotonic for a given
// source. An empty buffer yields zero energies and no beat.
func (e *Extractor) Process(freq []byte, now float64) Features {
	var f Features
	f.Volume = meanNormalized(freq, 0, len(freq))

	binHz := e.sampleRate / float64(e.fftSize)
	f.BassEnergy = e.bandEnergy(freq, binHz, bassLowHz, bassHighHz)
	f.MidEnergy = e.bandEnergy(freq, binHz, bassHighHz, midHighHz)
	f.HighEnergy = e.bandEnergy(freq, binHz, midHighHz, highHighHz)

	if f.BassEnergy > e.threshold && (!e.anyBeat || now-e.lastBeat >= minBeatGap) {
		f.Beat = true
		e.lastBeat = now
		e.anyBeat = true
		e.record(now)
	}

	// Self-normalizing threshold: sustained loud bass raises the bar so only
	// spikes above the current floor register as beats.
	e.threshold = baseThreshold + f.BassEnergy*thresholdGain

	e.updateBPM()
	f.BPM = e.bpm
	return f
}

// Reset discards all rolling state. Called whenever a new source is loaded.
func (e *Extractor) Reset() {
	e.threshold = baseThreshold
	e.lastBeat = 0
	e.anyBeat = false
	e.history = e.history[:0]
	e.bpm = 0
}

// record appends a beat timestamp to the history, but only when it is at
// least minBeatGap from the last recorded entry. Recording is gated
// separately from acceptance: history may lag acceptances, which keeps the
// tempo estimate steady when acceptances bunch up at the gap limit.
func (e *Extractor) record(now float64) {
	if n := len(e.history); n > 0 && now-e.history[n-1] < minBeatGap {
		return
	}
	e.history = append(e.history, now)
	if len(e.history) > historyCap {
		e.history = e.history[1:]
	}
}

// updateBPM refreshes the tempo estimate from recorded inter-beat intervals.
// Results outside [minBPM, maxBPM] are rejected as double/half-tempo misreads
// and the previous estimate stands.
func (e *Extractor) updateBPM() {
	if len(e.history) <= 3 {
		return
	}
	var sum float64
	for i := 1; i < len(e.history); i++ {
		sum += e.history[i] - e.history[i-1]
	}
	avg := sum / float64(len(e.history)-1)
	if avg <= 0 {
		return
	}
	bpm := int(math.Round(60 / avg))
	if bpm >= minBPM && bpm <= maxBPM {
		e.bpm = bpm
	}
}

// bandEnergy averages the bins whose center frequency falls in [lowHz, highHz),
// normalized by 255. A band with no bins (degenerate transform sizes) is 0.
func (e *Extractor) bandEnergy(freq []byte, binHz, lowHz, highHz float64) float64 {
	lo := int(lowHz / binHz)
	hi := int(highHz / binHz)
	if hi > len(freq) {
		hi = len(freq)
	}
	return meanNormalized(freq, lo, hi)
}

func meanNormalized(freq []byte, lo, hi int) float64 {
	if lo < 0 {
		lo = 0
	}
	if hi > len(freq) {
		hi = len(freq)
	}
	if hi <= lo {
		return 0
	}
	var sum float64
	for _, v := range freq[lo:hi] {
		sum += float64(v)
	}
	return sum / float64(hi-lo) / 255
}
