package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Server struct {
	Port              string `json:"port" yaml:"port"`
	RequestTimeoutSec int    `json:"request_timeout_sec" yaml:"request_timeout_sec"`
}

// Provider holds the per-provider overrides. API keys are never read
// from the file; they come from the environment only.
type Provider struct {
	BaseURL string `json:"base_url" yaml:"base_url"`
}

type Config struct {
	Server       Server   `json:"server" yaml:"server"`
	AlphaVantage Provider `json:"alpha_vantage" yaml:"alpha_vantage"`
	IEXCloud     Provider `json:"iex_cloud" yaml:"iex_cloud"`
	Quandl       Provider `json:"quandl" yaml:"quandl"`
}

func Default() Config {
	return Config{
		Server: Server{Port: "8080", RequestTimeoutSec: 10},
	}
}

// Load reads config from path, JSON or YAML by extension. If path is
// empty or the file does not exist, it returns defaults. Environment
// variables override select fields.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		for _, candidate := range []string{"config.json", "config.yaml"} {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			switch filepath.Ext(path) {
			case ".yaml", ".yml":
				if err := yaml.Unmarshal(b, &cfg); err != nil {
					return cfg, fmt.Errorf("parse config: %w", err)
				}
			default:
				if err := json.Unmarshal(b, &cfg); err != nil {
					return cfg, fmt.Errorf("parse config: %w", err)
				}
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("REQUEST_TIMEOUT_SEC"); v != "" {
		if x, err := strconv.Atoi(v); err == nil && x > 0 {
			cfg.Server.RequestTimeoutSec = x
		}
	}
	if v := os.Getenv("ALPHA_VANTAGE_BASE_URL"); v != "" {
		cfg.AlphaVantage.BaseURL = v
	}
	if v := os.Getenv("IEX_CLOUD_BASE_URL"); v != "" {
		cfg.IEXCloud.BaseURL = v
	}
	if v := os.Getenv("QUANDL_BASE_URL"); v != "" {
		cfg.Quandl.BaseURL = v
	}
}

// BaseURLs returns the non-empty per-provider base URL overrides keyed
// by registry name.
func (c Config) BaseURLs() map[string]string {
	out := map[string]string{}
	for name, p := range map[string]Provider{
		"alpha_vantage": c.AlphaVantage,
		"iex_cloud":     c.IEXCloud,
		"quandl":        c.Quandl,
	} {
		if u := strings.TrimSpace(p.BaseURL); u != "" {
			out[name] = u
		}
	}
	return out
}
