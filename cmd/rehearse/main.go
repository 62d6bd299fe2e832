package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tbeaumont/rehearse/internal/app"
	"github.com/tbeaumont/rehearse/internal/config"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", config.DefaultPath(), "path to the config file")
	flag.Parse()

	// .env is optional; environment overrides work without it.
	godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rehearse: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(app.New(cfg), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "rehearse: %v\n", err)
		os.Exit(1)
	}
}
