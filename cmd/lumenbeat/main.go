// Package main is the entry point for the lumenbeat audio-reactive player.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lumenbeat/lumenbeat/internal/config"
	"github.com/lumenbeat/lumenbeat/internal/player"
	"github.com/lumenbeat/lumenbeat/internal/stream"
)

func run() error {
	if len(os.Args) < 2 {
		return errors.New("usage: lumenbeat <file-or-url> [more ...]")
	}
	tracks := os.Args[1:]

	cfg := config.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Println("lumenbeat starting up...")

	ctrl := player.NewController(cfg)
	if err := ctrl.Init(); err != nil {
		return fmt.Errorf("audio init: %w", err)
	}
	defer ctrl.Close()

	// Fan analysis frames out: the TUI is one subscriber, more can attach.
	hub := stream.NewHub()
	go hub.Run(ctx, ctrl.Snapshots())

	alerts := make(chan string, 4)
	ctrl.SetAlertFunc(func(msg string) {
		select {
		case alerts <- msg:
		default:
		}
	})

	m := newModel(ctrl, hub, tracks, alerts)
	prog := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := prog.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
