package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lumenbeat/lumenbeat/internal/analysis"
	"github.com/lumenbeat/lumenbeat/internal/player"
	"github.com/lumenbeat/lumenbeat/internal/stream"
	"github.com/lumenbeat/lumenbeat/internal/viz"
)

// ANSI palette so the UI adapts to the terminal theme.
var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(10)).Bold(true)
	trackStyle  = lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(11))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(10)).Bold(true)
	alertStyle  = lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(9)).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(8))

	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.ANSIColor(8)).
			Padding(1, 2)
)

type snapMsg analysis.Snapshot

type alertMsg string

type micDoneMsg struct{ err error }

type loadedMsg struct{ url string }

// model is the Bubbletea model for the lumenbeat TUI.
type model struct {
	ctrl   *player.Controller
	hub    *stream.Hub
	sub    *stream.Subscriber
	alerts chan string

	tracks   []string
	trackIdx int

	renderers []viz.Renderer
	rIdx      int
	vcfg      viz.Config

	snap     analysis.Snapshot
	alert    string
	alertAt  time.Time
	width    int
	height   int
	quitting bool
}

func newModel(ctrl *player.Controller, hub *stream.Hub, tracks []string, alerts chan string) model {
	return model{
		ctrl:      ctrl,
		hub:       hub,
		sub:       hub.Subscribe(),
		alerts:    alerts,
		tracks:    tracks,
		renderers: viz.Renderers(),
		vcfg:      viz.DefaultConfig(),
		width:     80,
	}
}

// Init loads the first track and starts the message pumps.
func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.loadCmd(m.tracks[0]),
		m.waitSnap(),
		m.waitAlert(),
		tea.WindowSize(),
	)
}

func (m model) waitSnap() tea.Cmd {
	sub := m.sub
	return func() tea.Msg {
		snap, ok := <-sub.C
		if !ok {
			return nil
		}
		return snapMsg(snap)
	}
}

func (m model) waitAlert() tea.Cmd {
	alerts := m.alerts
	return func() tea.Msg {
		return alertMsg(<-alerts)
	}
}

// loadCmd opens a source off the update loop; network fetches may block.
func (m model) loadCmd(url string) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		ctrl.Load(url)
		return loadedMsg{url: url}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd := m.handleKey(msg)
		if m.quitting {
			return m, tea.Quit
		}
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case snapMsg:
		m.snap = analysis.Snapshot(msg)
		if m.alert != "" && time.Since(m.alertAt) > 5*time.Second {
			m.alert = ""
		}
		return m, m.waitSnap()

	case alertMsg:
		m.alert = string(msg)
		m.alertAt = time.Now()
		return m, m.waitAlert()

	case micDoneMsg:
		// Failure already alerted through the alert hook.
		return m, nil

	case loadedMsg:
		return m, nil
	}
	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) tea.Cmd {
	status := m.ctrl.Status()

	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true

	case " ":
		if status.MicMode {
			return nil
		}
		if status.IsPlaying {
			m.ctrl.Pause()
		} else {
			m.ctrl.Play()
		}

	case "i":
		if status.MicMode {
			m.ctrl.StopMic()
			return nil
		}
		ctrl := m.ctrl
		return func() tea.Msg { return micDoneMsg{err: ctrl.StartMic()} }

	case "left":
		m.ctrl.Seek(status.CurrentTime - 5)
	case "right":
		m.ctrl.Seek(status.CurrentTime + 5)

	case "up":
		m.ctrl.SetVolume(m.ctrl.Volume() + 0.05)
	case "down":
		m.ctrl.SetVolume(m.ctrl.Volume() - 0.05)

	case "n":
		if len(m.tracks) > 1 {
			m.trackIdx = (m.trackIdx + 1) % len(m.tracks)
			return m.loadCmd(m.tracks[m.trackIdx])
		}
	case "p":
		if len(m.tracks) > 1 {
			m.trackIdx = (m.trackIdx - 1 + len(m.tracks)) % len(m.tracks)
			return m.loadCmd(m.tracks[m.trackIdx])
		}

	case "tab":
		m.rIdx = (m.rIdx + 1) % len(m.renderers)

	case "1":
		m.vcfg.ColorMode = viz.ColorGradient
	case "2":
		m.vcfg.ColorMode = viz.ColorSolid
	case "3":
		m.vcfg.ColorMode = viz.ColorBeat

	case "+", "=":
		if m.vcfg.Sensitivity < 4 {
			m.vcfg.Sensitivity += 0.25
		}
	case "-":
		if m.vcfg.Sensitivity > 0.25 {
			m.vcfg.Sensitivity -= 0.25
		}
	}
	return nil
}

func (m model) View() string {
	if m.quitting {
		return "bye\n"
	}

	inner := m.width - 8
	if inner < 20 {
		inner = 20
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("LUMENBEAT"))
	b.WriteString("  ")
	b.WriteString(trackStyle.Render(m.ctrl.Track()))
	b.WriteString("\n\n")

	b.WriteString(m.renderers[m.rIdx].Render(m.snap, m.vcfg, inner))
	b.WriteString("\n\n")

	b.WriteString(m.transportLine())
	if m.alert != "" {
		b.WriteString("\n")
		b.WriteString(alertStyle.Render(m.alert))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("space play/pause · i mic · ←/→ seek · ↑/↓ vol · n/p track · tab pattern · 1-3 color · +/- sens · q quit"))

	return frameStyle.Width(m.width - 4).Render(b.String())
}

// transportLine reads live controller status: the last snapshot goes stale
// the moment the analysis loop stops (pause, mic wind-down), and the line
// must reflect the new state on the very redraw the keypress triggers.
func (m model) transportLine() string {
	st := m.ctrl.Status()
	switch {
	case st.MicStopping:
		return statusStyle.Render("MIC winding down...")
	case st.MicMode:
		line := "MIC LIVE"
		if m.snap.BPM > 0 {
			line += fmt.Sprintf("  %d BPM", m.snap.BPM)
		}
		return statusStyle.Render(line)
	}

	state := "PAUSED"
	if st.IsPlaying {
		state = "PLAYING"
	}
	line := fmt.Sprintf("%s  %s / %s", state, fmtTime(st.CurrentTime), fmtTime(st.Duration))
	if m.snap.BPM > 0 {
		line += fmt.Sprintf("  %d BPM", m.snap.BPM)
	}
	line += fmt.Sprintf("  vol %d%%", int(m.ctrl.Volume()*100+0.5))
	if m.snap.Beat {
		line += "  ●"
	}
	return statusStyle.Render(line)
}

func fmtTime(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	d := time.Duration(sec * float64(time.Second)).Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
