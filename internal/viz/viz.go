// Package viz renders analysis snapshots as terminal visuals. Renderers are
// pure functions of a snapshot plus a Config; the analysis core knows nothing
// about them, and new patterns plug in by implementing Renderer.
package viz

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/lumenbeat/lumenbeat/internal/analysis"
)

// ColorMode selects how a renderer colors its output.
type ColorMode int

const (
	// ColorGradient colors by level: green, yellow, red.
	ColorGradient ColorMode = iota
	// ColorSolid uses Config.BaseColor for everything.
	ColorSolid
	// ColorBeat uses the accent color while a beat is active, dim otherwise.
	ColorBeat
)

// Config is the contract between the core and a renderer. The core never
// inspects it; it is carried opaquely and handed to Render.
type Config struct {
	Sensitivity     float64 // multiplier on incoming levels, 1.0 = neutral
	MotionIntensity float64 // scales decay and pulse strength, 1.0 = neutral
	ColorMode       ColorMode
	BaseColor       string // lipgloss color used by ColorSolid
}

// DefaultConfig returns a neutral renderer configuration.
func DefaultConfig() Config {
	return Config{
		Sensitivity:     1,
		MotionIntensity: 1,
		ColorMode:       ColorGradient,
		BaseColor:       "10",
	}
}

// Renderer turns one snapshot into one line-oriented terminal frame.
type Renderer interface {
	Name() string
	Render(snap analysis.Snapshot, cfg Config, width int) string
}

// Renderers returns the built-in patterns in cycling order.
func Renderers() []Renderer {
	return []Renderer{NewBars(), NewWave(), NewPulse()}
}

// Unicode block elements for bar height (9 levels including space).
var barBlocks = []string{" ", "▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}

// Level color palette, standard ANSI so it adapts to the terminal theme.
var (
	levelLow  = lipgloss.ANSIColor(10) // bright green
	levelMid  = lipgloss.ANSIColor(11) // bright yellow
	levelHigh = lipgloss.ANSIColor(9)  // bright red
	dimColor  = lipgloss.ANSIColor(8)  // bright black
)

var (
	lowStyle  = lipgloss.NewStyle().Foreground(levelLow)
	midStyle  = lipgloss.NewStyle().Foreground(levelMid)
	highStyle = lipgloss.NewStyle().Foreground(levelHigh)
	dimStyle  = lipgloss.NewStyle().Foreground(dimColor)
)

// styleFor picks the style for a normalized level under the given config.
func styleFor(level float64, beat bool, cfg Config) lipgloss.Style {
	switch cfg.ColorMode {
	case ColorSolid:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.BaseColor))
	case ColorBeat:
		if beat {
			return highStyle
		}
		return dimStyle
	default:
		switch {
		case level > 0.75:
			return highStyle
		case level > 0.45:
			return midStyle
		default:
			return lowStyle
		}
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// blockFor maps a normalized level to a block glyph.
func blockFor(level float64) string {
	idx := int(clamp01(level) * float64(len(barBlocks)-1))
	return barBlocks[idx]
}
