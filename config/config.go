package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/meikuraledutech/chatflow"
)

// Config holds the chatflow server configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Canvas  CanvasConfig  `toml:"canvas"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// StorageConfig selects where saved flows go.
type StorageConfig struct {
	Driver string `toml:"driver"` // "", "postgres", "sqlite"
	DSN    string `toml:"dsn"`
}

// CanvasConfig holds editor defaults.
type CanvasConfig struct {
	NodeHalfWidth   float64 `toml:"node_half_width"`
	NodeHalfHeight  float64 `toml:"node_half_height"`
	DefaultX        float64 `toml:"default_x"`
	DefaultY        float64 `toml:"default_y"`
	NotificationTTL string  `toml:"notification_ttl"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Addr: ":3000"},
		Storage: StorageConfig{},
		Canvas: CanvasConfig{
			NodeHalfWidth:   chatflow.DefaultNodeHalfSize.Width,
			NodeHalfHeight:  chatflow.DefaultNodeHalfSize.Height,
			DefaultX:        chatflow.DefaultNodePosition.X,
			DefaultY:        chatflow.DefaultNodePosition.Y,
			NotificationTTL: chatflow.NotificationTTL.String(),
		},
	}
}

// Load reads the config file at path over the defaults. A missing file is
// not an error. DATABASE_URL, when set, selects postgres.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		case !os.IsNotExist(err):
			return nil, err
		}
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Storage.Driver = "postgres"
		cfg.Storage.DSN = url
	}
	return cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// TTL parses NotificationTTL, falling back to the default on bad input.
func (c CanvasConfig) TTL() time.Duration {
	d, err := time.ParseDuration(c.NotificationTTL)
	if err != nil || d <= 0 {
		return chatflow.NotificationTTL
	}
	return d
}

// CanvasOptions turns the canvas settings into chatflow options.
func (c CanvasConfig) CanvasOptions() []chatflow.Option {
	return []chatflow.Option{
		chatflow.WithNodeHalfSize(chatflow.Size{Width: c.NodeHalfWidth, Height: c.NodeHalfHeight}),
		chatflow.WithDefaultPosition(chatflow.Position{X: c.DefaultX, Y: c.DefaultY}),
	}
}
