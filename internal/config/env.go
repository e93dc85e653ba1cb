package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

const namespace = "JOINBOARD"

// Env holds process-level overrides read from JOINBOARD_* variables.
type Env struct {
	ConfigPath string `envconfig:"CONFIG"`
	DBPath     string `envconfig:"DB_PATH"`
	AppName    string `envconfig:"APP_NAME"`
	DevMode    *bool  `envconfig:"DEV_MODE"`
	StoreURL   string `envconfig:"STORE_URL"`
	StoreToken string `envconfig:"STORE_TOKEN"`
	UserID     string `envconfig:"USER_ID"`
	LogLevel   string `envconfig:"LOG_LEVEL"`
}

func LoadEnv() (Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return Env{}, fmt.Errorf("load env: %w", err)
	}
	return env, nil
}

// Apply overlays non-empty environment values onto cfg.
// A store URL switches the backend to http.
func (e Env) Apply(cfg Config) Config {
	if v := strings.TrimSpace(e.DBPath); v != "" {
		cfg.Database.Path = v
	}
	if v := strings.TrimSpace(e.StoreURL); v != "" {
		cfg.Store.Backend = StoreBackendHTTP
		cfg.Store.BaseURL = v
	}
	if v := strings.TrimSpace(e.StoreToken); v != "" {
		cfg.Store.AuthToken = v
	}
	if v := strings.TrimSpace(e.UserID); v != "" {
		cfg.User.ID = v
	}
	if v := strings.TrimSpace(e.LogLevel); v != "" {
		cfg.Logging.Level = v
	}
	return cfg
}
