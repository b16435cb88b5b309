package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"github.com/yusukeinoue-jpg/lime-tool/internal/auth"
	"github.com/yusukeinoue-jpg/lime-tool/internal/config"
	"github.com/yusukeinoue-jpg/lime-tool/internal/database"
	"github.com/yusukeinoue-jpg/lime-tool/internal/mapview"
	"github.com/yusukeinoue-jpg/lime-tool/internal/ports"
	"github.com/yusukeinoue-jpg/lime-tool/internal/retrieval"
	"github.com/yusukeinoue-jpg/lime-tool/internal/ui"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (defaults are used when empty)")
	file := flag.String("file", "", "Fleet snapshot CSV to review (required)")
	portsPath := flag.String("ports", "", "Reference port table (.csv or .shp), overrides the config file")
	lang := flag.String("lang", "", "Display language (ja or en)")
	flag.Parse()

	if *file == "" {
		fmt.Println("Error: --file is required.")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if *portsPath != "" {
		cfg.PortsPath = *portsPath
	}

	// Logs would draw over the alt screen
	cfg.ConfigureLogging()
	log.SetOutput(io.Discard)

	ctx := context.Background()
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		fmt.Printf("Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := ports.NewRepository(db)
	if _, err := ports.Provision(ctx, repo, cfg.PortsPath); err != nil {
		fmt.Printf("Error loading reference ports: %v\n", err)
		os.Exit(1)
	}
	table, err := repo.ListPorts(ctx)
	if err != nil {
		fmt.Printf("Error reading reference ports: %v\n", err)
		os.Exit(1)
	}

	builder := mapview.NewBuilder(cfg.Links(), cfg.Center())
	builder.Zoom = cfg.Zoom

	model := ui.NewModel(ui.Options{
		Gate:     auth.NewGate(cfg.Secret),
		Pipeline: retrieval.NewService(cfg.Sentinel, cfg.Location()),
		Builder:  builder,
		Labels:   mapview.Negotiate(*lang, "", cfg.Language()),
		Ports:    table,
		Snapshot: func() (io.ReadCloser, error) { return os.Open(*file) },
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running application: %v\n", err)
		os.Exit(1)
	}
}
