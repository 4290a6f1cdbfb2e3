package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	// RoomStore selects the repository backend: memory, redis or sqlite.
	RoomStore string `env:"ROOM_STORE" envDefault:"memory"`
	RedisURL  string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	DBPath    string `env:"DB_PATH" envDefault:"data/rooms.db"`

	RoomTTL             time.Duration `env:"ROOM_TTL" envDefault:"6h"`
	AdminAbsenceTimeout time.Duration `env:"ADMIN_ABSENCE_TIMEOUT" envDefault:"0s"`

	SecretPepper       string   `env:"SECRET_PEPPER"`
	PuzzleImages       []string `env:"PUZZLE_IMAGES" envSeparator:"," envDefault:"/puzzles/puzzle1.png,/puzzles/puzzle2.png"`
	DefaultDurationSec int      `env:"DEFAULT_DURATION_SEC" envDefault:"60"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	switch cfg.RoomStore {
	case "memory", "redis", "sqlite":
	default:
		return nil, fmt.Errorf("unknown ROOM_STORE %q", cfg.RoomStore)
	}
	if len(cfg.PuzzleImages) == 0 {
		return nil, fmt.Errorf("PUZZLE_IMAGES must list at least one image")
	}
	return &cfg, nil
}
