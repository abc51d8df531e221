package analysis

import (
	"math"
	"testing"
)

func TestSpectrumBufferLengths(t *testing.T) {
	s := NewSpectrum(testFFTSize, 0.8)
	if s.Bins() != testBins {
		t.Fatalf("Bins() = %d, want %d", s.Bins(), testBins)
	}
	freq, wave := s.Process(make([]float64, testFFTSize))
	if len(freq) != len(wave) || len(freq) != testBins {
		t.Errorf("lengths freq=%d wave=%d, want both %d", len(freq), len(wave), testBins)
	}
}

func TestSpectrumSilence(t *testing.T) {
	s := NewSpectrum(testFFTSize, 0.8)
	freq, wave := s.Process(nil)
	for i, v := range freq {
		if v != 0 {
			t.Fatalf("freq[%d] = %d, want 0 on silence", i, v)
		}
	}
	for i, v := range wave {
		if v != 128 {
			t.Fatalf("wave[%d] = %d, want 128 on silence", i, v)
		}
	}
}

func TestSpectrumPeakBin(t *testing.T) {
	s := NewSpectrum(testFFTSize, 0) // no smoothing: single-shot peak
	binHz := float64(testRate) / float64(testFFTSize)
	wantBin := 64
	freqHz := float64(wantBin) * binHz

	// Keep the tone quiet so adjacent bins don't all saturate the byte scale.
	samples := make([]float64, testFFTSize)
	for i := range samples {
		samples[i] = 0.01 * math.Sin(2*math.Pi*freqHz*float64(i)/float64(testRate))
	}
	freq, _ := s.Process(samples)

	peak := 0
	for i, v := range freq {
		if v > freq[peak] {
			peak = i
		}
	}
	if peak < wantBin-1 || peak > wantBin+1 {
		t.Errorf("peak bin = %d, want %d +/- 1", peak, wantBin)
	}
	if freq[peak] == 0 {
		t.Error("peak magnitude byte is 0, want a strong response")
	}
}

func TestSpectrumSmoothingDecays(t *testing.T) {
	s := NewSpectrum(testFFTSize, 0.8)
	binHz := float64(testRate) / float64(testFFTSize)
	// Quiet tone: a loud one would pin the bin at 255 and hide the decay.
	samples := make([]float64, testFFTSize)
	for i := range samples {
		samples[i] = 0.01 * math.Sin(2*math.Pi*64*binHz*float64(i)/float64(testRate))
	}
	freq, _ := s.Process(samples)
	first := freq[64]
	if first == 0 {
		t.Fatal("setup: no response at driven bin")
	}

	// Feed silence: the smoothed spectrum must decay, not vanish instantly.
	freq, _ = s.Process(make([]float64, testFFTSize))
	decayed := freq[64]
	if decayed >= first {
		t.Errorf("bin did not decay: %d -> %d", first, decayed)
	}

	s.Reset()
	freq, _ = s.Process(make([]float64, testFFTSize))
	if freq[64] != 0 {
		t.Errorf("after Reset and silence, bin = %d, want 0", freq[64])
	}
}

func TestSpectrumShortInputZeroPadded(t *testing.T) {
	s := NewSpectrum(testFFTSize, 0.8)
	freq, wave := s.Process(make([]float64, 100))
	if len(freq) != testBins || len(wave) != testBins {
		t.Errorf("short input changed output lengths: %d/%d", len(freq), len(wave))
	}
}

func TestWaveByteClamps(t *testing.T) {
	tests := []struct {
		in   float64
		want byte
	}{
		{-2, 0},
		{-1, 0},
		{0, 128},
		{1, 255},
		{2, 255},
	}
	for _, tt := range tests {
		if got := waveByte(tt.in); got != tt.want {
			t.Errorf("waveByte(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestMagToByteBounds(t *testing.T) {
	if got := magToByte(0); got != 0 {
		t.Errorf("magToByte(0) = %d, want 0", got)
	}
	if got := magToByte(1); got != 255 {
		t.Errorf("magToByte(1) = %d, want 255 (0 dB)", got)
	}
	// -100 dB and below clamp to zero.
	if got := magToByte(1e-6); got != 0 {
		t.Errorf("magToByte(1e-6) = %d, want 0", got)
	}
	// Monotonic in between.
	prev := byte(0)
	for mag := 1e-5; mag < 1; mag *= 2 {
		b := magToByte(mag)
		if b < prev {
			t.Fatalf("magToByte not monotonic at %v: %d < %d", mag, b, prev)
		}
		prev = b
	}
}
