package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/guialv3s/InfinityAIRPG/pkg/character"
	"github.com/joho/godotenv"
)

type ConsoleConfig struct {
	APIBaseURL string        `env:"API_BASE_URL" envDefault:"http://localhost:8080"`
	PlayerID   string        `env:"PLAYER_ID"    envDefault:"console"`
	CampaignID string        `env:"CAMPAIGN_ID"`
	Timeout    time.Duration `env:"CONSOLE_TIMEOUT" envDefault:"30s"`
}

// Key returns the character this console plays.
func (c *ConsoleConfig) Key() character.Key {
	return character.Key{PlayerID: c.PlayerID, CampaignID: c.CampaignID}
}

func loadConsoleConfig() (*ConsoleConfig, error) {
	var cfg ConsoleConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.CampaignID == "" {
		// a fresh campaign per session unless one is named
		cfg.CampaignID = uuid.New().String()[:8]
	}
	if err := cfg.Key().Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func main() {
	_ = godotenv.Load()

	cfg, err := loadConsoleConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: cfg.Timeout}

	if !testConnection(client, cfg.APIBaseURL) {
		fmt.Fprintf(os.Stderr, "Could not connect to API. Please ensure the API is running.\nTry: docker-compose up -d\n")
		os.Exit(1)
	}

	cr, err := getCharacter(client, cfg.APIBaseURL, cfg.Key())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load character: %v\n", err)
		os.Exit(1)
	}
	if cr == nil {
		fmt.Printf("No character yet for campaign %s. Let's create one.\n\n", cfg.CampaignID)
		req := promptCharacter(os.Stdin, os.Stdout)
		cr, err = createCharacter(client, cfg.APIBaseURL, cfg.Key(), req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create character: %v\n", err)
			os.Exit(1)
		}
	}

	// the event stream outlives individual requests, so no client timeout
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan SSEEvent, 16)
	go func() {
		defer close(events)
		_ = listenToSSE(ctx, &http.Client{}, cfg.APIBaseURL, cfg.Key(), events)
	}()

	p := tea.NewProgram(NewConsoleUI(cfg, client, cr, events),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

// promptCharacter asks for the creation fields on the terminal.
func promptCharacter(in io.Reader, out io.Writer) CreateCharacterRequest {
	reader := bufio.NewReader(in)
	ask := func(label, fallback string) string {
		_, _ = fmt.Fprintf(out, "%s [%s]: ", label, fallback)
		line, _ := reader.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
		return fallback
	}
	return CreateCharacterRequest{
		Name:  ask("Name", "Aria"),
		Class: ask("Class", "Rogue"),
		Race:  ask("Race", "Human"),
		Theme: ask("Theme", "classic fantasy"),
		Mode:  ask("Mode (narrative, dice, strict)", "narrative"),
	}
}
