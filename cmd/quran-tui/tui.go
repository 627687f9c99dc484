package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quran-tui/internal/audio"
	"quran-tui/internal/cache"
	"quran-tui/internal/search"
	"quran-tui/internal/settings"
	"quran-tui/internal/state"
	"quran-tui/internal/ui"
)

var (
	startChapter int
	resume       bool
)

func runTUI(cmd *cobra.Command, args []string) error {
	path, err := settings.DefaultPath()
	if err != nil {
		return err
	}
	store := settings.NewStore(path)
	saved, err := store.Load()
	if err != nil {
		log.Warn("ignoring unreadable settings", zap.String("path", path), zap.Error(err))
	}

	reciter := saved.Reciter
	if reciter == "" {
		reciter = cfg.Audio.Reciter
	}
	app := state.NewApp(saved.Dark(lipgloss.HasDarkBackground()), reciter)
	untrack := settings.Track(app, store, func(err error) {
		log.Warn("saving settings failed", zap.Error(err))
	})
	defer untrack()

	client, err := newClient(cfg.Cache.Offline)
	if err != nil {
		return err
	}
	chapters := cache.NewChapterList(client)

	searchCtrl := search.NewController(chapters, search.Options{
		Debounce:  cfg.Search.Debounce,
		MinLength: cfg.Search.MinLength,
		Limit:     cfg.Search.Limit,
	}, log)
	defer searchCtrl.Close()

	backend, err := audio.NewExecBackend(cfg.Audio.Player, log)
	if err != nil {
		return err
	}
	if !backend.Available() {
		log.Warn("audio player not found; playback will fail", zap.String("player", cfg.Audio.Player))
	}
	player := audio.NewController(backend, log)
	defer player.Close()

	start := startChapter
	if start == 0 && resume {
		start = saved.LastChapter
	}

	model := ui.NewModel(ui.Deps{
		Client:       client,
		Chapters:     chapters,
		Search:       searchCtrl,
		Player:       player,
		App:          app,
		Logger:       log,
		StartChapter: start,
		OnChapter: func(id int) {
			if err := store.Update(func(s *settings.Settings) { s.LastChapter = id }); err != nil {
				log.Warn("saving last chapter failed", zap.Error(err))
			}
		},
	})
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}
