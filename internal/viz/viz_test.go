package viz

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/lumenbeat/lumenbeat/internal/analysis"
)

func loudSnapshot() analysis.Snapshot {
	freq := make([]byte, 1024)
	wave := make([]byte, 1024)
	for i := range freq {
		freq[i] = 200
		wave[i] = 250
	}
	return analysis.Snapshot{
		FrequencyData: freq,
		TimeData:      wave,
		Volume:        0.8,
		Beat:          true,
	}
}

func quietSnapshot() analysis.Snapshot {
	freq := make([]byte, 1024)
	wave := make([]byte, 1024)
	for i := range wave {
		wave[i] = 128
	}
	return analysis.Snapshot{FrequencyData: freq, TimeData: wave}
}

func TestRenderersHaveDistinctNames(t *testing.T) {
	seen := map[string]bool{}
	for _, r := range Renderers() {
		if r.Name() == "" {
			t.Fatal("renderer with empty name")
		}
		if seen[r.Name()] {
			t.Fatalf("duplicate renderer name %q", r.Name())
		}
		seen[r.Name()] = true
	}
}

func TestRenderersRespectWidth(t *testing.T) {
	cfg := DefaultConfig()
	for _, r := range Renderers() {
		for _, w := range []int{20, 40, 80} {
			out := r.Render(loudSnapshot(), cfg, w)
			if got := lipgloss.Width(out); got > w {
				t.Errorf("%s at width %d rendered %d columns", r.Name(), w, got)
			}
			if out == "" {
				t.Errorf("%s rendered nothing at width %d", r.Name(), w)
			}
		}
	}
}

func TestRenderersHandleEmptySnapshot(t *testing.T) {
	cfg := DefaultConfig()
	for _, r := range Renderers() {
		out := r.Render(analysis.Snapshot{}, cfg, 40)
		if got := lipgloss.Width(out); got > 40 {
			t.Errorf("%s empty snapshot rendered %d columns", r.Name(), got)
		}
	}
}

func TestBarsLoudTallerThanQuiet(t *testing.T) {
	cfg := DefaultConfig()
	loudBars := NewBars()
	quietBars := NewBars()

	var loudLevel, quietLevel float64
	// Several frames so attack smoothing settles.
	for i := 0; i < 10; i++ {
		loud := loudBars.bands(loudSnapshot().FrequencyData, cfg)
		quiet := quietBars.bands(quietSnapshot().FrequencyData, cfg)
		loudLevel, quietLevel = loud[0], quiet[0]
	}
	if loudLevel <= quietLevel {
		t.Fatalf("loud level %v not above quiet level %v", loudLevel, quietLevel)
	}
}

func TestBarsDecayWithoutData(t *testing.T) {
	cfg := DefaultConfig()
	b := NewBars()
	for i := 0; i < 5; i++ {
		b.bands(loudSnapshot().FrequencyData, cfg)
	}
	before := b.prev[0]
	b.bands(nil, cfg)
	if b.prev[0] >= before {
		t.Fatalf("level did not decay without data: %v -> %v", before, b.prev[0])
	}
}

func TestPulseFlashDecays(t *testing.T) {
	cfg := DefaultConfig()
	p := NewPulse()

	p.Render(loudSnapshot(), cfg, 40)
	if p.flash != 1 {
		t.Fatalf("flash after beat = %v, want 1", p.flash)
	}
	snap := loudSnapshot()
	snap.Beat = false
	for i := 0; i < 20; i++ {
		p.Render(snap, cfg, 40)
	}
	if p.flash != 0 {
		t.Fatalf("flash did not decay to 0, got %v", p.flash)
	}
}

func TestWaveSilenceIsFlat(t *testing.T) {
	cfg := DefaultConfig()
	w := NewWave()
	out := w.Render(quietSnapshot(), cfg, 30)
	if strings.Contains(out, "█") {
		t.Fatal("silent waveform rendered full blocks")
	}
}

func TestSensitivityScalesLevels(t *testing.T) {
	snap := loudSnapshot()
	snap.Beat = false
	snap.Volume = 0.3

	low := DefaultConfig()
	low.Sensitivity = 0.1
	high := DefaultConfig()
	high.Sensitivity = 3

	pLow, pHigh := NewPulse(), NewPulse()
	outLow := pLow.Render(snap, low, 40)
	outHigh := pHigh.Render(snap, high, 40)

	if strings.Count(outLow, "█") >= strings.Count(outHigh, "█") {
		t.Fatal("higher sensitivity did not fill more of the pulse bar")
	}
}

func TestLogIndexMonotonic(t *testing.T) {
	prev := -1
	for i := 0; i <= barsBands; i++ {
		idx := logIndex(i, barsBands, 1024)
		if idx < prev {
			t.Fatalf("logIndex not monotonic at %d: %d < %d", i, idx, prev)
		}
		prev = idx
	}
	if got := logIndex(barsBands, barsBands, 1024); got != 1024 {
		t.Fatalf("final edge = %d, want 1024", got)
	}
	if got := logIndex(0, barsBands, 1024); got != 0 {
		t.Fatalf("first edge = %d, want 0", got)
	}
}
