package viz

import (
	"strings"

	"github.com/lumenbeat/lumenbeat/internal/analysis"
)

const barsBands = 16

// Bars renders the frequency spectrum as a row of vertical bars. Bands are
// spaced logarithmically across the bins so the low end gets the resolution
// the ear expects, with fast-attack slow-decay smoothing between frames.
type Bars struct {
	prev [barsBands]float64
}

// NewBars creates a spectrum bar renderer.
func NewBars() *Bars { return &Bars{} }

func (b *Bars) Name() string { return "bars" }

func (b *Bars) Render(snap analysis.Snapshot, cfg Config, width int) string {
	if width < barsBands {
		return ""
	}
	bands := b.bands(snap.FrequencyData, cfg)

	// Bars with separators when there is room, packed bars otherwise.
	sep := " "
	bw := (width - (barsBands - 1)) / barsBands
	if bw < 1 {
		bw, sep = 1, ""
	}

	var sb strings.Builder
	for i, level := range bands {
		style := styleFor(level, snap.Beat, cfg)
		sb.WriteString(style.Render(strings.Repeat(blockFor(level), bw)))
		if i < barsBands-1 {
			sb.WriteString(sep)
		}
	}
	return sb.String()
}

// bands folds the byte spectrum into barsBands normalized levels.
func (b *Bars) bands(freq []byte, cfg Config) [barsBands]float64 {
	var bands [barsBands]float64
	if len(freq) == 0 {
		// No data: decay toward silence, faster with more motion.
		decay := 1 - 0.2*cfg.MotionIntensity
		if decay < 0 {
			decay = 0
		}
		for i := range bands {
			b.prev[i] *= decay
			bands[i] = b.prev[i]
		}
		return bands
	}

	// Logarithmic band edges over the available bins.
	n := len(freq)
	for i := range bands {
		lo := logIndex(i, barsBands, n)
		hi := logIndex(i+1, barsBands, n)
		if hi <= lo {
			hi = lo + 1
		}
		if hi > n {
			hi = n
		}
		var sum float64
		for j := lo; j < hi; j++ {
			sum += float64(freq[j])
		}
		level := clamp01(sum / float64(hi-lo) / 255 * cfg.Sensitivity)

		// Fast attack, slow decay; motion intensity speeds the decay.
		if level > b.prev[i] {
			level = level*0.6 + b.prev[i]*0.4
		} else {
			hold := 0.75 / max(cfg.MotionIntensity, 0.25)
			if hold > 0.95 {
				hold = 0.95
			}
			level = level*(1-hold) + b.prev[i]*hold
		}
		b.prev[i] = level
		bands[i] = level
	}
	return bands
}

// logIndex maps band edge i of total to a bin index in [1, n].
func logIndex(i, total, n int) int {
	// Base-2 spread: edge k sits at n * 2^(k-total).
	idx := n
	for k := total; k > i; k-- {
		idx /= 2
	}
	if idx < 1 {
		idx = 1
	}
	if i == 0 {
		idx = 0
	}
	return idx
}
