package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hylla/joinboard/internal/dragdrop"
	toml "github.com/pelletier/go-toml/v2"
)

type StoreBackend string

const (
	StoreBackendSQLite StoreBackend = "sqlite"
	StoreBackendHTTP   StoreBackend = "http"
)

type InputMode string

const (
	InputModeTouch   InputMode = "touch"
	InputModePointer InputMode = "pointer"
)

// MemoryDatabasePath selects the shared in-memory sqlite database.
const MemoryDatabasePath = ":memory:"

type Config struct {
	Store    StoreConfig    `toml:"store"`
	Database DatabaseConfig `toml:"database"`
	User     UserConfig     `toml:"user"`
	Drag     DragConfig     `toml:"drag"`
	Logging  LoggingConfig  `toml:"logging"`
	Serve    ServeConfig    `toml:"serve"`
}

type StoreConfig struct {
	Backend   StoreBackend `toml:"backend"`
	BaseURL   string       `toml:"base_url"`
	AuthToken string       `toml:"auth_token"`
	Timeout   string       `toml:"timeout"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type UserConfig struct {
	ID string `toml:"id"`
}

type DragConfig struct {
	InputMode          InputMode `toml:"input_mode"`
	TouchEnabled       bool      `toml:"touch_enabled"`
	ScrollThreshold    float64   `toml:"scroll_threshold"`
	ScrollSpeed        float64   `toml:"scroll_speed"`
	ScrollInterval     string    `toml:"scroll_interval"`
	TouchMoveThreshold float64   `toml:"touch_move_threshold"`
	LongPressDelay     string    `toml:"long_press_delay"`
	RebindDelay        string    `toml:"rebind_delay"`
	CellWidthPx        int       `toml:"cell_width_px"`
	CellHeightPx       int       `toml:"cell_height_px"`
}

type LoggingConfig struct {
	Level   string `toml:"level"`
	DevFile bool   `toml:"dev_file"`
}

type ServeConfig struct {
	HTTPBind    string `toml:"http_bind"`
	APIEndpoint string `toml:"api_endpoint"`
	MCPEndpoint string `toml:"mcp_endpoint"`
}

func Default(dbPath string) Config {
	tuning := dragdrop.DefaultTuning()
	return Config{
		Store: StoreConfig{
			Backend: StoreBackendSQLite,
			Timeout: "10s",
		},
		Database: DatabaseConfig{
			Path: dbPath,
		},
		User: UserConfig{
			ID: "guest",
		},
		Drag: DragConfig{
			InputMode:          InputModeTouch,
			TouchEnabled:       true,
			ScrollThreshold:    tuning.ScrollThreshold,
			ScrollSpeed:        tuning.ScrollSpeed,
			ScrollInterval:     tuning.ScrollInterval.String(),
			TouchMoveThreshold: tuning.TouchMoveThreshold,
			LongPressDelay:     tuning.LongPressDelay.String(),
			RebindDelay:        tuning.RebindDelay.String(),
			CellWidthPx:        10,
			CellHeightPx:       20,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Serve: ServeConfig{
			HTTPBind:    "127.0.0.1:8080",
			APIEndpoint: "/api/v1",
			MCPEndpoint: "/mcp",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Store.Backend {
	case StoreBackendSQLite:
		if strings.TrimSpace(c.Database.Path) == "" {
			return errors.New("database path is required")
		}
	case StoreBackendHTTP:
		parsed, err := url.Parse(strings.TrimSpace(c.Store.BaseURL))
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return fmt.Errorf("invalid store.base_url: %q", c.Store.BaseURL)
		}
	default:
		return fmt.Errorf("invalid store.backend: %q", c.Store.Backend)
	}
	if _, err := c.Store.TimeoutDuration(); err != nil {
		return err
	}

	if strings.TrimSpace(c.User.ID) == "" {
		return errors.New("user.id is required")
	}

	switch c.Drag.InputMode {
	case InputModeTouch, InputModePointer:
	default:
		return fmt.Errorf("invalid drag.input_mode: %q", c.Drag.InputMode)
	}
	if c.Drag.CellWidthPx <= 0 || c.Drag.CellHeightPx <= 0 {
		return errors.New("drag.cell_width_px and drag.cell_height_px must be > 0")
	}
	if _, err := c.Drag.Tuning(); err != nil {
		return err
	}

	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "", "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}
	return nil
}

// TimeoutDuration parses store.timeout. An empty value means no client timeout.
func (s StoreConfig) TimeoutDuration() (time.Duration, error) {
	raw := strings.TrimSpace(s.Timeout)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid store.timeout: %q", s.Timeout)
	}
	return d, nil
}

// Tuning converts the drag section into engine thresholds.
func (d DragConfig) Tuning() (dragdrop.Tuning, error) {
	scrollInterval, err := parseDuration("drag.scroll_interval", d.ScrollInterval)
	if err != nil {
		return dragdrop.Tuning{}, err
	}
	longPress, err := parseDuration("drag.long_press_delay", d.LongPressDelay)
	if err != nil {
		return dragdrop.Tuning{}, err
	}
	rebind, err := parseDuration("drag.rebind_delay", d.RebindDelay)
	if err != nil {
		return dragdrop.Tuning{}, err
	}
	tuning := dragdrop.Tuning{
		ScrollThreshold:    d.ScrollThreshold,
		ScrollSpeed:        d.ScrollSpeed,
		ScrollInterval:     scrollInterval,
		TouchMoveThreshold: d.TouchMoveThreshold,
		LongPressDelay:     longPress,
		RebindDelay:        rebind,
	}
	if err := tuning.Validate(); err != nil {
		return dragdrop.Tuning{}, fmt.Errorf("drag: %w", err)
	}
	return tuning, nil
}

func parseDuration(field, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", field, raw)
	}
	return d, nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
