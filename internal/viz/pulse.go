package viz

import (
	"strings"

	"github.com/lumenbeat/lumenbeat/internal/analysis"
)

// Pulse renders a full-width energy bar that flashes on beats and decays
// between them, sized by overall volume.
type Pulse struct {
	flash float64 // remaining beat flash energy, decays per frame
}

// NewPulse creates a beat pulse renderer.
func NewPulse() *Pulse { return &Pulse{} }

func (p *Pulse) Name() string { return "pulse" }

func (p *Pulse) Render(snap analysis.Snapshot, cfg Config, width int) string {
	if width < 1 {
		return ""
	}
	if snap.Beat {
		p.flash = 1
	} else {
		decay := 0.15 * max(cfg.MotionIntensity, 0.25)
		p.flash -= decay
		if p.flash < 0 {
			p.flash = 0
		}
	}

	level := clamp01(snap.Volume*cfg.Sensitivity + p.flash*0.5)
	filled := int(level * float64(width))
	if filled > width {
		filled = width
	}

	style := styleFor(level, snap.Beat || p.flash > 0.5, cfg)
	var sb strings.Builder
	sb.WriteString(style.Render(strings.Repeat("█", filled)))
	sb.WriteString(dimStyle.Render(strings.Repeat("░", width-filled)))
	return sb.String()
}
