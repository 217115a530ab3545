package main

import (
	"fmt"
	"log/slog"

	"github.com/BurntSushi/toml"
	"github.com/royalcat/pointsregroup/regroup"
)

type Config struct {
	regroup.Config

	Listen       string `toml:"listen"`
	OtelEndpoint string `toml:"otel_endpoint"`
}

func ConfigDefault() Config {
	return Config{
		Config: regroup.ConfigDefault(),
		Listen: ":8080",
	}
}

// loadConfig overlays the toml file at path on the defaults. An empty path
// keeps the defaults.
func loadConfig(path string) (Config, error) {
	cfg := ConfigDefault()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("error reading config %s: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		slog.Warn("unknown config key", "key", key.String())
	}

	if _, err := regroup.ParseMode(string(cfg.Mode)); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
