package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr    string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath      string     `env:"DB_PATH" envDefault:"data/breadcrumbs.db"`
	LogLevel    slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	SPADir      string     `env:"SPA_DIR" envDefault:"../web/dist"`
	BackendURL  string     `env:"BACKEND_URL" envDefault:"http://localhost:54321/rest/v1"`
	AuthURL     string     `env:"AUTH_URL" envDefault:"http://localhost:54321/auth/v1"`
	BackendKey  string     `env:"BACKEND_KEY"`
	GeocoderURL string     `env:"GEOCODER_URL" envDefault:"https://nominatim.openstreetmap.org"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
