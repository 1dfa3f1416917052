package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Game is one bookable game exposed on the bot menu.
type Game struct {
	Key   string `yaml:"key"`
	Title string `yaml:"title"`
}

type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		Debug    bool   `yaml:"debug"`
	} `yaml:"telegram"`

	Store struct {
		Path string `yaml:"path"`
	} `yaml:"store"`

	Audit struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"audit"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		IntervalHours int    `yaml:"interval_hours"`
		StoragePath   string `yaml:"storage_path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backup"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Holds struct {
		// Backend is "memory" or "redis".
		Backend string `yaml:"backend"`
	} `yaml:"holds"`

	Booking struct {
		// Policy is "direct" or "hold".
		Policy string `yaml:"policy"`
	} `yaml:"booking"`

	API struct {
		Enabled bool `yaml:"enabled"`
		Port    int  `yaml:"port"`
	} `yaml:"api"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Sheets struct {
		Enabled         bool   `yaml:"enabled"`
		CredentialsFile string `yaml:"credentials_file"`
		SpreadsheetID   string `yaml:"spreadsheet_id"`
	} `yaml:"sheets"`

	Games []Game `yaml:"games"`

	Admins []int64 `yaml:"admins"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Store.Path == "" {
		cfg.Store.Path = "data/bookings.json"
	}
	if cfg.Audit.Path == "" {
		cfg.Audit.Path = "data/audit.db"
	}
	if cfg.Holds.Backend == "" {
		cfg.Holds.Backend = "memory"
	}
	if cfg.Booking.Policy == "" {
		cfg.Booking.Policy = "hold"
	}
	if cfg.API.Port == 0 {
		cfg.API.Port = 8080
	}
	if len(cfg.Games) == 0 {
		cfg.Games = []Game{
			{Key: "gameA", Title: "Game A"},
			{Key: "gameB", Title: "Game B"},
		}
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	switch cfg.Holds.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid holds backend %q", cfg.Holds.Backend)
	}
	switch cfg.Booking.Policy {
	case "direct", "hold":
	default:
		return fmt.Errorf("invalid booking policy %q", cfg.Booking.Policy)
	}
	for _, g := range cfg.Games {
		if g.Key == "" {
			return fmt.Errorf("game with empty key")
		}
		// Game keys are embedded into underscore-delimited callback
		// payloads, so an underscore would corrupt payload parsing.
		if strings.Contains(g.Key, "_") {
			return fmt.Errorf("game key %q must not contain underscores", g.Key)
		}
	}
	return nil
}

// GameTitle resolves a game key to its display title, falling back to the
// key itself for unknown games.
func (c *Config) GameTitle(key string) string {
	for _, g := range c.Games {
		if g.Key == key {
			return g.Title
		}
	}
	return key
}

// IsAdmin reports whether a chat ID belongs to the admin list.
func (c *Config) IsAdmin(id int64) bool {
	for _, a := range c.Admins {
		if a == id {
			return true
		}
	}
	return false
}
