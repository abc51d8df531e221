// Package analysis turns raw audio samples into the feature snapshots that
// drive the visual patterns: a byte magnitude spectrum, waveform bytes,
// per-band energies, beat events, and a tempo estimate.
package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Byte spectrum dB mapping range. Magnitudes at or below minDB map to 0,
// at or above maxDB map to 255.
const (
	minDB = -100.0
	maxDB = -30.0
)

// Spectrum converts mono samples into byte-valued frequency and time-domain
// buffers. It applies a Hann window before the FFT and exponential temporal
// smoothing across calls, so consecutive spectra decay rather than flicker.
type Spectrum struct {
	fftSize   int
	smoothing float64
	window    []float64 // precomputed Hann coefficients
	buf       []float64 // reusable windowed-input buffer
	smoothed  []float64 // smoothed linear magnitudes, fftSize/2 bins
}

// NewSpectrum creates a Spectrum for the given transform size and smoothing
// constant. Bins() reports the length of both output buffers.
func NewSpectrum(fftSize int, smoothing float64) *Spectrum {
	window := make([]float64, fftSize)
	for i := range window {
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(fftSize-1)))
	}
	return &Spectrum{
		fftSize:   fftSize,
		smoothing: smoothing,
		window:    window,
		buf:       make([]float64, fftSize),
		smoothed:  make([]float64, fftSize/2),
	}
}

// Bins returns the number of frequency bins produced per call.
func (s *Spectrum) Bins() int { return s.fftSize / 2 }

// Process computes the byte spectrum and waveform bytes for the given mono
// samples. Fewer than fftSize samples are zero-padded; nil or empty input
// decays the smoothed state toward silence rather than producing garbage.
// The returned slices are freshly allocated on every call.
func (s *Spectrum) Process(samples []float64) (freq, wave []byte) {
	bins := s.fftSize / 2
	freq = make([]byte, bins)
	wave = make([]byte, bins)

	if len(samples) > s.fftSize {
		samples = samples[len(samples)-s.fftSize:]
	}

	clear(s.buf)
	copy(s.buf, samples)
	for i := range s.buf {
		s.buf[i] *= s.window[i]
	}

	spectrum := fft.FFTReal(s.buf)

	norm := 2.0 / float64(s.fftSize)
	for i := 0; i < bins; i++ {
		mag := cmplx.Abs(spectrum[i]) * norm
		s.smoothed[i] = s.smoothing*s.smoothed[i] + (1-s.smoothing)*mag
		freq[i] = magToByte(s.smoothed[i])
	}

	// Waveform bytes from the most recent bins samples, centered at 128.
	tail := samples
	if len(tail) > bins {
		tail = tail[len(tail)-bins:]
	}
	for i := range wave {
		wave[i] = 128
	}
	off := bins - len(tail)
	for i, v := range tail {
		wave[off+i] = waveByte(v)
	}
	return freq, wave
}

// Reset clears the smoothed magnitude state, e.g. when a new source is loaded.
func (s *Spectrum) Reset() {
	clear(s.smoothed)
}

func magToByte(mag float64) byte {
	if mag <= 0 {
		return 0
	}
	db := 20 * math.Log10(mag)
	v := 255 * (db - minDB) / (maxDB - minDB)
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return byte(v)
}

func waveByte(v float64) byte {
	b := 128 * (1 + v)
	if b <= 0 {
		return 0
	}
	if b >= 255 {
		return 255
	}
	return byte(b)
}
