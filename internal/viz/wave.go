package viz

import (
	"strings"

	"github.com/lumenbeat/lumenbeat/internal/analysis"
)

// Wave renders the time-domain waveform as a single line of block glyphs,
// one column per sample bucket. Silence draws mid-height blocks since the
// waveform bytes center on 128.
type Wave struct{}

// NewWave creates a waveform renderer.
func NewWave() *Wave { return &Wave{} }

func (w *Wave) Name() string { return "wave" }

func (w *Wave) Render(snap analysis.Snapshot, cfg Config, width int) string {
	if width < 1 {
		return ""
	}
	data := snap.TimeData
	if len(data) == 0 {
		return dimStyle.Render(strings.Repeat(barBlocks[len(barBlocks)/2], width))
	}

	step := len(data) / width
	if step < 1 {
		step = 1
	}

	var sb strings.Builder
	for col := 0; col < width; col++ {
		start := col * step
		if start >= len(data) {
			break
		}
		end := start + step
		if end > len(data) {
			end = len(data)
		}
		// Peak deviation from center within the bucket.
		var peak float64
		for _, v := range data[start:end] {
			d := float64(v) - 128
			if d < 0 {
				d = -d
			}
			if d > peak {
				peak = d
			}
		}
		level := clamp01(peak / 128 * cfg.Sensitivity)
		sb.WriteString(styleFor(level, snap.Beat, cfg).Render(blockFor(level)))
	}
	return sb.String()
}
