// Package server mounts the board's document API, board API, and MCP tools on one
// HTTP listener, with liveness and store-readiness checks beside them.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hylla/joinboard/internal/adapters/server/common"
	"github.com/hylla/joinboard/internal/adapters/server/httpapi"
	"github.com/hylla/joinboard/internal/adapters/server/mcpapi"
	"github.com/hylla/joinboard/internal/app"
)

const (
	defaultBindAddress  = "127.0.0.1:8080"
	defaultAPIEndpoint  = "/api/v1"
	defaultMCPEndpoint  = "/mcp"
	defaultReadyTimeout = 2 * time.Second
	shutdownTimeout     = 5 * time.Second
	readHeaderTimeout   = 10 * time.Second
)

// Config selects the listen address, mount points, and advertised MCP identity.
type Config struct {
	HTTPBind      string
	APIEndpoint   string
	MCPEndpoint   string
	ServerName    string
	ServerVersion string
	// ReadyTimeout bounds one store ping behind /readyz.
	ReadyTimeout time.Duration
}

// Dependencies are the board's document tree and its task operations.
type Dependencies struct {
	Documents app.Documents
	Board     common.BoardService
}

// Pinger is implemented by document stores that can report reachability.
// The sqlite repository and the docstore client both do.
type Pinger interface {
	Ping(ctx context.Context) error
}

// healthStatus is the /healthz and /readyz payload.
type healthStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// NewHandler builds the root mux and returns it with the normalized config.
func NewHandler(cfg Config, deps Dependencies) (http.Handler, Config, error) {
	cfg, err := normalizeConfig(cfg)
	if err != nil {
		return nil, Config{}, err
	}
	switch {
	case deps.Documents == nil:
		return nil, Config{}, errors.New("documents dependency is required")
	case deps.Board == nil:
		return nil, Config{}, errors.New("board dependency is required")
	}

	tools, err := mcpapi.NewHandler(mcpapi.Config{
		ServerName:    cfg.ServerName,
		ServerVersion: cfg.ServerVersion,
		EndpointPath:  cfg.MCPEndpoint,
	}, deps.Board)
	if err != nil {
		return nil, Config{}, fmt.Errorf("configure mcp handler: %w", err)
	}
	api := http.StripPrefix(cfg.APIEndpoint, httpapi.NewHandler(deps.Documents, deps.Board))

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeHealth(w, http.StatusOK, healthStatus{Status: "ok"})
	})
	mux.Handle("/readyz", readinessHandler(deps.Documents, cfg.ReadyTimeout))
	mux.Handle(cfg.MCPEndpoint, tools)
	mux.Handle(cfg.APIEndpoint, api)
	mux.Handle(cfg.APIEndpoint+"/", api)
	return mux, cfg, nil
}

// readinessHandler reports 503 while the document store cannot be reached.
// Stores without a Ping method are always ready.
func readinessHandler(docs app.Documents, timeout time.Duration) http.Handler {
	pinger, ok := docs.(Pinger)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !ok {
			writeHealth(w, http.StatusOK, healthStatus{Status: "ready"})
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		if err := pinger.Ping(ctx); err != nil {
			writeHealth(w, http.StatusServiceUnavailable, healthStatus{Status: "unavailable", Error: err.Error()})
			return
		}
		writeHealth(w, http.StatusOK, healthStatus{Status: "ready"})
	})
}

func writeHealth(w http.ResponseWriter, code int, status healthStatus) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(status)
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func Run(ctx context.Context, cfg Config, deps Dependencies) error {
	if ctx == nil {
		ctx = context.Background()
	}
	handler, cfg, err := NewHandler(cfg, deps)
	if err != nil {
		return fmt.Errorf("build server handler: %w", err)
	}
	srv := &http.Server{
		Addr:              cfg.HTTPBind,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen on %s: %w", cfg.HTTPBind, err)
	case <-ctx.Done():
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(drainCtx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("shutdown server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve after shutdown: %w", err)
	}
	return nil
}

// normalizeConfig fills defaults and rejects an API mount that shadows the MCP one.
func normalizeConfig(cfg Config) (Config, error) {
	if cfg.HTTPBind = strings.TrimSpace(cfg.HTTPBind); cfg.HTTPBind == "" {
		cfg.HTTPBind = defaultBindAddress
	}
	cfg.APIEndpoint = normalizeEndpoint(cfg.APIEndpoint, defaultAPIEndpoint)
	cfg.MCPEndpoint = normalizeEndpoint(cfg.MCPEndpoint, defaultMCPEndpoint)
	if cfg.APIEndpoint == cfg.MCPEndpoint {
		return Config{}, fmt.Errorf("api and mcp endpoints must differ, both are %s", cfg.APIEndpoint)
	}
	if cfg.ServerName = strings.TrimSpace(cfg.ServerName); cfg.ServerName == "" {
		cfg.ServerName = "joinboard"
	}
	if cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion); cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = defaultReadyTimeout
	}
	return cfg, nil
}

// normalizeEndpoint returns path as "/a/b", or fallback when path is empty or the root.
func normalizeEndpoint(path, fallback string) string {
	path = strings.Trim(strings.TrimSpace(path), "/")
	if path == "" {
		return fallback
	}
	return "/" + path
}
