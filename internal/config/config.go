package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is everything the client needs to reach one game.
type Config struct {
	// ServerURL is the http(s) base of the API server.
	ServerURL string `env:"EOP_SERVER_URL" envDefault:"http://localhost:8080"`
	// WebSocketURL is the ws(s) base; derived from ServerURL when empty.
	WebSocketURL string `env:"EOP_WS_URL"`
	// GameID is the game to attach to.
	GameID string `env:"EOP_GAME_ID"`
	// Nickname is used when the game asks us to join.
	Nickname string `env:"EOP_NICKNAME" envDefault:"observer"`
	// Debug switches the logger to development output.
	Debug bool `env:"EOP_DEBUG" envDefault:"false"`
}

// Load reads .env (when present) and the environment.
func Load() (Config, error) {
	_ = godotenv.Load() // missing .env is fine

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.WebSocketURL == "" {
		cfg.WebSocketURL = wsBase(cfg.ServerURL)
	}
	return cfg, nil
}

func wsBase(httpURL string) string {
	switch {
	case len(httpURL) > 8 && httpURL[:8] == "https://":
		return "wss://" + httpURL[8:]
	case len(httpURL) > 7 && httpURL[:7] == "http://":
		return "ws://" + httpURL[7:]
	default:
		return httpURL
	}
}
