package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	charmLog "github.com/charmbracelet/log"
	"github.com/google/uuid"
	serveradapter "github.com/hylla/joinboard/internal/adapters/server"
	servercommon "github.com/hylla/joinboard/internal/adapters/server/common"
	"github.com/hylla/joinboard/internal/adapters/storage/docstore"
	"github.com/hylla/joinboard/internal/adapters/storage/sqlite"
	"github.com/hylla/joinboard/internal/app"
	"github.com/hylla/joinboard/internal/config"
	"github.com/hylla/joinboard/internal/domain"
	"github.com/hylla/joinboard/internal/dragdrop"
	"github.com/hylla/joinboard/internal/platform"
	"github.com/hylla/joinboard/internal/tui"
)

// version is stamped at build time.
var version = "dev"

// program is the part of tea.Program the CLI drives.
type program interface {
	Run() (tea.Model, error)
}

// programFactory builds the TUI program. Tests replace it.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// serveCommandRunner starts the HTTP+MCP serve flow.
var serveCommandRunner = func(ctx context.Context, cfg serveradapter.Config, deps serveradapter.Dependencies) error {
	return serveradapter.Run(ctx, cfg, deps)
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// run runs the requested command flow.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	env, err := config.LoadEnv()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("joinboard", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		configPath string
		dbPath     string
		appName    string
		userID     string
		devMode    bool
		showVer    bool
	)
	defaultDevMode := version == "dev"
	if env.DevMode != nil {
		defaultDevMode = *env.DevMode
	}
	appName = "joinboard"
	if v := strings.TrimSpace(env.AppName); v != "" {
		appName = v
	}
	fs.StringVar(&configPath, "config", "", "path to config TOML")
	fs.StringVar(&dbPath, "db", "", "path to sqlite database (\":memory:\" for a throwaway board)")
	fs.StringVar(&appName, "app", appName, "application name for config/data path resolution")
	fs.StringVar(&userID, "user", "", "board owner id")
	fs.BoolVar(&devMode, "dev", defaultDevMode, "use dev mode paths (<app>-dev)")
	fs.BoolVar(&showVer, "version", false, "show version")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showVer {
		_, _ = fmt.Fprintf(stdout, "joinboard %s\n", version)
		return nil
	}

	paths, err := platform.DefaultPathsWithOptions(platform.Options{
		AppName: appName,
		DevMode: devMode,
	})
	if err != nil {
		return err
	}

	command := firstArg(fs.Args())
	switch command {
	case "paths":
		_, _ = fmt.Fprintf(stdout, "app: %s\n", appName)
		_, _ = fmt.Fprintf(stdout, "dev_mode: %t\n", devMode)
		_, _ = fmt.Fprintf(stdout, "config: %s\n", paths.ConfigPath)
		_, _ = fmt.Fprintf(stdout, "data_dir: %s\n", paths.DataDir)
		_, _ = fmt.Fprintf(stdout, "db: %s\n", paths.DBPath)
		_, _ = fmt.Fprintf(stdout, "log: %s\n", paths.LogPath)
		return nil
	case "", "serve", "board", "move", "seed":
	default:
		return fmt.Errorf("unknown command: %s", command)
	}

	if configPath == "" {
		if v := strings.TrimSpace(env.ConfigPath); v != "" {
			configPath = v
		} else {
			configPath = paths.ConfigPath
		}
	}
	cfg, err := config.Load(configPath, config.Default(paths.DBPath))
	if err != nil {
		return fmt.Errorf("load config %q: %w", configPath, err)
	}
	cfg = env.Apply(cfg)
	if v := strings.TrimSpace(dbPath); v != "" {
		cfg.Database.Path = v
	}
	if v := strings.TrimSpace(userID); v != "" {
		cfg.User.ID = v
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	logger, err := newRuntimeLogger(stderr, appName, devMode, cfg.Logging, paths.LogPath)
	if err != nil {
		return fmt.Errorf("configure runtime logger: %w", err)
	}
	if command == "" {
		// Runtime logs stay in the dev-file sink while the board is on screen.
		logger.SetConsoleEnabled(false)
	}
	defer func() {
		if closeErr := logger.Close(); closeErr != nil && logger.shouldLogToSink(logger.consoleSink) {
			_, _ = fmt.Fprintf(stderr, "warning: close runtime log sink: %v\n", closeErr)
		}
	}()

	logger.Info("startup configuration resolved", "app", appName, "dev_mode", devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	docs, closeDocs, err := openDocuments(cfg, logger)
	if err != nil {
		return err
	}
	defer closeDocs()

	svc := app.NewService(docs, uuid.NewString, nil, app.ServiceConfig{Logger: logger})
	logger.Debug("application service initialized", "user_id", cfg.User.ID)

	rest := fs.Args()
	if len(rest) > 0 {
		rest = rest[1:]
	}
	switch command {
	case "serve":
		return runCommand(logger, command, func() error {
			return runServe(ctx, cfg, docs, svc, rest, appName)
		})
	case "board":
		return runCommand(logger, command, func() error {
			return runBoard(ctx, svc, cfg.User.ID, rest, stdout)
		})
	case "move":
		return runCommand(logger, command, func() error {
			return runMove(ctx, svc, cfg.User.ID, rest, stdout, logger)
		})
	case "seed":
		return runCommand(logger, command, func() error {
			return runSeed(ctx, svc, docs, cfg.User.ID, rest, stdout)
		})
	}

	tuning, err := cfg.Drag.Tuning()
	if err != nil {
		return err
	}
	m := tui.NewModel(
		svc,
		tui.WithUserID(cfg.User.ID),
		tui.WithInputMode(tui.InputMode(cfg.Drag.InputMode)),
		tui.WithTouchEnabled(cfg.Drag.TouchEnabled),
		tui.WithTuning(tuning),
		tui.WithCellSize(cfg.Drag.CellWidthPx, cfg.Drag.CellHeightPx),
		tui.WithLogger(logger),
	)
	defer m.Close()
	logger.Info("starting tui program loop", "user_id", cfg.User.ID, "input_mode", string(cfg.Drag.InputMode))
	if _, err := programFactory(m).Run(); err != nil {
		logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	logger.Info("command flow complete", "command", "tui")
	return nil
}

// runCommand wraps one subcommand with start/complete/failed log events.
func runCommand(logger *runtimeLogger, command string, fn func() error) error {
	logger.Info("command flow start", "command", command)
	if err := fn(); err != nil {
		logger.Error("command flow failed", "command", command, "err", err)
		return fmt.Errorf("run %s command: %w", command, err)
	}
	logger.Info("command flow complete", "command", command)
	return nil
}

// openDocuments selects the document store named by cfg.Store.Backend.
func openDocuments(cfg config.Config, logger *runtimeLogger) (app.Documents, func(), error) {
	switch cfg.Store.Backend {
	case config.StoreBackendHTTP:
		timeout, err := cfg.Store.TimeoutDuration()
		if err != nil {
			return nil, nil, err
		}
		client, err := docstore.New(docstore.Config{
			BaseURL:   cfg.Store.BaseURL,
			AuthToken: cfg.Store.AuthToken,
			Timeout:   timeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("configure document store: %w", err)
		}
		logger.Info("remote document store ready", "base_url", cfg.Store.BaseURL)
		return client, func() {}, nil
	default:
		path := cfg.Database.Path
		logger.Info("opening sqlite repository", "db_path", path)
		var (
			repo *sqlite.Repository
			err  error
		)
		if path == config.MemoryDatabasePath {
			repo, err = sqlite.OpenInMemory()
		} else {
			repo, err = sqlite.Open(path)
		}
		if err != nil {
			logger.Error("sqlite open failed", "db_path", path, "err", err)
			return nil, nil, fmt.Errorf("open sqlite repository: %w", err)
		}
		logger.Info("sqlite repository ready", "db_path", path, "migrations", "ensured")
		return repo, func() {
			if closeErr := repo.Close(); closeErr != nil {
				logger.Warn("sqlite close failed", "db_path", path, "err", closeErr)
			}
		}, nil
	}
}

// runServe runs the serve subcommand flow.
func runServe(ctx context.Context, cfg config.Config, docs app.Documents, svc *app.Service, args []string, appName string) error {
	fs := flag.NewFlagSet("joinboard serve", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		httpBind    string
		apiEndpoint string
		mcpEndpoint string
	)
	fs.StringVar(&httpBind, "http", cfg.Serve.HTTPBind, "HTTP listen address")
	fs.StringVar(&apiEndpoint, "api-endpoint", cfg.Serve.APIEndpoint, "HTTP API base endpoint")
	fs.StringVar(&mcpEndpoint, "mcp-endpoint", cfg.Serve.MCPEndpoint, "MCP streamable HTTP endpoint")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse serve flags: %w", err)
	}
	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected serve arguments: %v", fs.Args())
	}

	return serveCommandRunner(ctx, serveradapter.Config{
		HTTPBind:      httpBind,
		APIEndpoint:   apiEndpoint,
		MCPEndpoint:   mcpEndpoint,
		ServerName:    appName,
		ServerVersion: version,
	}, serveradapter.Dependencies{
		Documents: docs,
		Board:     servercommon.NewAppServiceAdapter(svc),
	})
}

// runBoard prints the grouped board as JSON.
func runBoard(ctx context.Context, svc *app.Service, userID string, args []string, stdout io.Writer) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected board arguments: %v", args)
	}
	snap, err := servercommon.NewAppServiceAdapter(svc).Board(ctx, servercommon.BoardRequest{UserID: userID})
	if err != nil {
		return err
	}
	encoded, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode board json: %w", err)
	}
	encoded = append(encoded, '\n')
	if _, err := stdout.Write(encoded); err != nil {
		return fmt.Errorf("write board to stdout: %w", err)
	}
	return nil
}

// boardSummary records the board a commit rendered.
type boardSummary struct {
	tasks []domain.Task
}

func (b *boardSummary) RenderBoard(tasks []domain.Task) {
	b.tasks = append([]domain.Task(nil), tasks...)
}

// runMove drops one task into a column through the resolver commit path.
func runMove(ctx context.Context, svc *app.Service, userID string, args []string, stdout io.Writer, logger *runtimeLogger) error {
	fs := flag.NewFlagSet("joinboard move", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var taskID, to string
	fs.StringVar(&taskID, "task", "", "task id")
	fs.StringVar(&to, "to", "", "target column (toDo, inProgress, awaitFeedback, done)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse move flags: %w", err)
	}
	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected move arguments: %v", fs.Args())
	}
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return errors.New("--task is required")
	}
	column, err := domain.ParseColumn(to)
	if err != nil {
		return err
	}
	task, err := svc.GetTask(ctx, userID, taskID)
	if err != nil {
		return err
	}

	summary := &boardSummary{}
	resolver := dragdrop.NewResolver(nil, svc, summary, userID, logger)
	if err := resolver.Commit(ctx, dragdrop.Move{TaskID: taskID, Column: column}); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(stdout, "moved %s to %s\n", task.Title, column.Title())
	view := app.GroupBoard(userID, summary.tasks)
	for _, col := range view.Columns {
		_, _ = fmt.Fprintf(stdout, "  %-15s %d\n", col.Column.Title(), len(col.Tasks))
	}
	return nil
}

// runSeed writes a small demo board for the configured user.
func runSeed(ctx context.Context, svc *app.Service, docs app.Documents, userID string, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("joinboard seed", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var due string
	fs.StringVar(&due, "due", time.Now().AddDate(0, 0, 7).Format(time.DateOnly), "due date for seeded tasks (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse seed flags: %w", err)
	}
	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected seed arguments: %v", fs.Args())
	}

	contacts := map[string]domain.Contact{
		"c1": {Name: "Ada Lovelace", Email: "ada@example.com"},
		"c2": {Name: "Grace Hopper", Email: "grace@example.com"},
	}
	for id, contact := range contacts {
		path, err := app.JoinPath(userID, "contacts", id)
		if err != nil {
			return err
		}
		if err := docs.Put(ctx, path, contact); err != nil {
			return fmt.Errorf("write contact %s: %w", id, err)
		}
	}

	inputs := []domain.TaskInput{
		{
			Title:       "Design login screen",
			Description: "Mobile-first layout with **remember me** and a reset link.",
			Category:    domain.CategoryUserStory,
			Priority:    domain.PriorityUrgent,
			Assigned:    []string{"c1"},
			Subtasks:    []domain.Subtask{{Title: "Wireframe"}, {Title: "Review with team"}},
			Board:       domain.ColumnToDo,
		},
		{
			Title:    "Set up CI pipeline",
			Category: domain.CategoryTechnicalTask,
			Assigned: []string{"c2"},
			Board:    domain.ColumnInProgress,
		},
		{
			Title:    "Collect onboarding feedback",
			Category: domain.CategoryUserStory,
			Priority: domain.PriorityLow,
			Assigned: []string{"c1", "c2"},
			Board:    domain.ColumnAwaitFeedback,
		},
		{
			Title:    "Write API docs",
			Category: domain.CategoryTechnicalTask,
			Subtasks: []domain.Subtask{{Title: "Endpoints", Done: true}},
			Board:    domain.ColumnDone,
		},
	}
	for _, in := range inputs {
		in.DueDate = due
		task, err := svc.CreateTask(ctx, userID, in)
		if err != nil {
			return fmt.Errorf("seed task %q: %w", in.Title, err)
		}
		_, _ = fmt.Fprintf(stdout, "created %s %q in %s\n", task.ID, task.Title, task.Board.Title())
	}
	return nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// runtimeLogger fans log events to a styled console sink and an optional dev-file sink.
type runtimeLogger struct {
	sinks          []*charmLog.Logger
	consoleSink    *charmLog.Logger
	consoleEnabled bool
	closeFile      func() error
	devLog         string
}

// newRuntimeLogger configures runtime log sinks from CLI/config state.
func newRuntimeLogger(stderr io.Writer, appName string, devMode bool, cfg config.LoggingConfig, logPath string) (*runtimeLogger, error) {
	levelName := strings.TrimSpace(cfg.Level)
	if levelName == "" {
		levelName = "info"
	}
	level, err := charmLog.ParseLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("parse logging level %q: %w", cfg.Level, err)
	}
	if stderr == nil {
		stderr = io.Discard
	}

	consoleLogger := charmLog.NewWithOptions(stderr, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.TextFormatter,
	})

	logger := &runtimeLogger{
		sinks:          []*charmLog.Logger{consoleLogger},
		consoleSink:    consoleLogger,
		consoleEnabled: true,
	}
	if !devMode || !cfg.DevFile || strings.TrimSpace(logPath) == "" {
		return logger, nil
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return nil, fmt.Errorf("create dev log dir: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open dev log file: %w", err)
	}

	// File output stays unstyled logfmt.
	fileLogger := charmLog.NewWithOptions(logFile, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.LogfmtFormatter,
	})
	logger.sinks = append(logger.sinks, fileLogger)
	logger.closeFile = logFile.Close
	logger.devLog = logPath
	return logger, nil
}

// DevLogPath returns the active dev log file path.
func (l *runtimeLogger) DevLogPath() string {
	if l == nil {
		return ""
	}
	return l.devLog
}

// Close closes the optional dev-file sink.
func (l *runtimeLogger) Close() error {
	if l == nil || l.closeFile == nil {
		return nil
	}
	return l.closeFile()
}

// SetConsoleEnabled toggles whether the console sink receives runtime events.
func (l *runtimeLogger) SetConsoleEnabled(enabled bool) {
	if l == nil {
		return
	}
	l.consoleEnabled = enabled
}

// shouldLogToSink reports whether one sink should receive runtime output.
func (l *runtimeLogger) shouldLogToSink(sink *charmLog.Logger) bool {
	if l == nil || sink == nil {
		return false
	}
	if sink == l.consoleSink && !l.consoleEnabled {
		return false
	}
	return true
}

func (l *runtimeLogger) each(fn func(*charmLog.Logger)) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if l.shouldLogToSink(sink) {
			fn(sink)
		}
	}
}

// Debug logs a debug event to all configured sinks.
func (l *runtimeLogger) Debug(msg any, keyvals ...any) {
	l.each(func(sink *charmLog.Logger) { sink.Debug(msg, keyvals...) })
}

// Info logs an informational event to all configured sinks.
func (l *runtimeLogger) Info(msg any, keyvals ...any) {
	l.each(func(sink *charmLog.Logger) { sink.Info(msg, keyvals...) })
}

// Warn logs a warning event to all configured sinks.
func (l *runtimeLogger) Warn(msg any, keyvals ...any) {
	l.each(func(sink *charmLog.Logger) { sink.Warn(msg, keyvals...) })
}

// Error logs an error event to all configured sinks.
func (l *runtimeLogger) Error(msg any, keyvals ...any) {
	l.each(func(sink *charmLog.Logger) { sink.Error(msg, keyvals...) })
}
