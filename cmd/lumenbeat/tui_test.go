package main

import (
	"strings"
	"testing"

	"github.com/lumenbeat/lumenbeat/internal/analysis"
	"github.com/lumenbeat/lumenbeat/internal/config"
	"github.com/lumenbeat/lumenbeat/internal/player"
	"github.com/lumenbeat/lumenbeat/internal/stream"
)

func testModel(t *testing.T) model {
	t.Helper()
	ctrl := player.NewController(config.Load())
	t.Cleanup(ctrl.Close)
	return newModel(ctrl, stream.NewHub(), []string{"track.mp3"}, make(chan string, 1))
}

func TestTransportLineIgnoresStaleSnapshot(t *testing.T) {
	m := testModel(t)

	// Snapshot still claims playback; the controller says otherwise. The
	// controller wins, or the line freezes on "PLAYING" after a pause.
	m.snap = analysis.Snapshot{IsPlaying: true, CurrentTime: 42, Duration: 60}

	line := m.transportLine()
	if strings.Contains(line, "PLAYING") {
		t.Fatalf("transport line shows stale play state: %q", line)
	}
	if !strings.Contains(line, "PAUSED") {
		t.Fatalf("transport line = %q, want PAUSED", line)
	}
}

func TestTransportLineKeepsSnapshotTempo(t *testing.T) {
	m := testModel(t)
	m.snap = analysis.Snapshot{BPM: 128}

	if line := m.transportLine(); !strings.Contains(line, "128 BPM") {
		t.Fatalf("transport line = %q, want tempo from snapshot", line)
	}
}

func TestFmtTime(t *testing.T) {
	tests := []struct {
		sec  float64
		want string
	}{
		{0, "0:00"},
		{-3, "0:00"},
		{59.4, "0:59"},
		{61, "1:01"},
		{3599, "59:59"},
	}
	for _, tt := range tests {
		if got := fmtTime(tt.sec); got != tt.want {
			t.Errorf("fmtTime(%v) = %q, want %q", tt.sec, got, tt.want)
		}
	}
}
