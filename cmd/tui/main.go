package main

import (
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"video-resolver/internal/config"
	"video-resolver/internal/registry"
	"video-resolver/internal/tui"
)

func main() {
	configManager := config.NewManager()
	cfg, err := configManager.Load("")
	if err != nil {
		log.Fatal(err)
	}

	reg := registry.NewRegistry()
	if err := reg.RegisterDefaultPlatforms(cfg); err != nil {
		log.Fatal(err)
	}

	model := tui.InitialModel(reg)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatal(err)
		os.Exit(1)
	}
}
