package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/focusboard/internal/config"
	"github.com/rpggio/focusboard/internal/domain/focus"
	"github.com/rpggio/focusboard/internal/markdown"
	"github.com/rpggio/focusboard/internal/mcp"
	"github.com/rpggio/focusboard/internal/reconcile"
	"github.com/rpggio/focusboard/internal/scanner"
	"github.com/rpggio/focusboard/internal/snapshot"
	"github.com/rpggio/focusboard/internal/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := io.Writer(os.Stdout)
	if cfg.Transport.Mode == "stdio" {
		logWriter = os.Stderr
	}
	if cfg.Log.Path != "" {
		fileWriter, file, err := newLogFileWriter(cfg.Log.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer file.Close()
			logWriter = fileWriter
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	for _, path := range []string{cfg.DB.RecordsPath, cfg.DB.SnapshotPath} {
		if err := ensureDBDir(path); err != nil {
			logger.Error("failed to prepare database path", "path", path, "error", err)
			os.Exit(1)
		}
	}

	recordsDB, err := sqlite.New(cfg.DB.RecordsPath)
	if err != nil {
		logger.Error("failed to open record store database", "error", err)
		os.Exit(1)
	}
	defer recordsDB.Close()
	if err := recordsDB.RunMigrations(); err != nil {
		logger.Error("failed to migrate record store database", "error", err)
		os.Exit(1)
	}

	snapshotDB, err := sqlite.New(cfg.DB.SnapshotPath)
	if err != nil {
		logger.Error("failed to open snapshot database", "error", err)
		os.Exit(1)
	}
	defer snapshotDB.Close()
	if err := snapshotDB.RunMigrations(); err != nil {
		logger.Error("failed to migrate snapshot database", "error", err)
		os.Exit(1)
	}

	// The record store database doubles as the legacy snapshot location
	// for devices that predate the split.
	snapshots := snapshot.NewStore(sqlite.NewKV(snapshotDB), sqlite.NewKV(recordsDB), logger)

	engine := reconcile.New(reconcile.Config{
		Store:            sqlite.NewRecordStore(recordsDB, logger),
		Snapshots:        snapshots,
		Logger:           logger,
		PropagationDelay: cfg.Sync.PropagationDelay,
	})

	var sc *scanner.Scanner
	var writer focus.OverviewWriter
	if cfg.Projects.Root != "" {
		sc = scanner.New(cfg.Projects.Root, logger)
		writer = sc.WriteOverview
	}

	manager := focus.NewManager(focus.Config{
		MaxActive: cfg.Board.MaxActive,
		MinActive: cfg.Board.MinActive,
		SlotTags:  cfg.Board.SlotTags,
	}, snapshots, engine, markdown.ExtractChecklist, markdown.NewEditor(), writer, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := manager.Load(ctx); err != nil {
		logger.Error("failed to load board state", "error", err)
		os.Exit(1)
	}
	if sc != nil {
		if err := rescan(ctx, manager, sc); err != nil {
			logger.Warn("initial project scan failed", "error", err)
		}
	}

	var wg sync.WaitGroup
	if cfg.Sync.Interval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runPeriodicSync(ctx, manager, cfg.Sync.Interval, logger)
		}()
	}
	if sc != nil && cfg.Projects.Watch {
		watcher, err := scanner.NewWatcher(cfg.Projects.Root)
		if err != nil {
			logger.Warn("filesystem watching disabled", "error", err)
		} else if err := watcher.Start(); err != nil {
			logger.Warn("filesystem watching disabled", "error", err)
		} else {
			defer watcher.Stop()
			wg.Add(1)
			go func() {
				defer wg.Done()
				runWatchLoop(ctx, manager, sc, watcher, logger)
			}()
		}
	}

	mcpServer := mcp.NewServer(mcp.Config{
		Board:         manager,
		Scanner:       sc,
		AuthToken:     cfg.Auth.Token,
		TransportMode: cfg.Transport.Mode,
		Logger:        logger,
	})

	if cfg.Transport.Mode == "stdio" {
		runStdioMode(ctx, logger, mcpServer)
	} else {
		runHTTPMode(ctx, logger, mcpServer, cfg.Server.Host, cfg.Server.Port)
	}

	stop()
	wg.Wait()
}

func rescan(ctx context.Context, manager *focus.Manager, sc *scanner.Scanner) error {
	discovered, err := sc.Scan()
	if err != nil {
		return err
	}
	return manager.SyncWithProjects(ctx, discovered)
}

func runPeriodicSync(ctx context.Context, manager *focus.Manager, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := manager.ForceSync(ctx); err != nil {
				logger.Warn("periodic sync failed", "error", err)
			}
		}
	}
}

// runWatchLoop rescans the projects folder after filesystem changes,
// debounced so a burst of editor writes triggers one pass.
func runWatchLoop(ctx context.Context, manager *focus.Manager, sc *scanner.Scanner, watcher *scanner.Watcher, logger *slog.Logger) {
	const debounce = 500 * time.Millisecond
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case _, ok := <-watcher.Events():
			if !ok {
				return
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				fire = timer.C
			} else {
				timer.Reset(debounce)
			}
		case err, ok := <-watcher.Errors():
			if ok {
				logger.Warn("watcher error", "error", err)
			}
		case <-fire:
			timer = nil
			fire = nil
			if err := rescan(ctx, manager, sc); err != nil {
				logger.Warn("rescan after file change failed", "error", err)
			}
		}
	}
}

func runStdioMode(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server) {
	logger.Info("starting stdio transport", "auth", "disabled")

	transport := &sdkmcp.StdioTransport{}

	// Run blocks until stdin closes or context is canceled
	if err := mcpServer.Run(ctx, transport); err != nil && ctx.Err() == nil {
		logger.Error("stdio server error", "error", err)
		os.Exit(1)
	}
}

func runHTTPMode(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server, host string, port int) {
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(r *http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{
			Stateless:      false,
			SessionTimeout: 30 * time.Minute,
		},
	)

	router := http.NewServeMux()
	router.Handle("/mcp", mcpHandler)
	router.Handle("/mcp/", mcpHandler)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	addr := fmt.Sprintf("%s:%d", host, port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" || strings.HasPrefix(path, "file::memory:") {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

const (
	maxLogSizeBytes  = 6 * 1024 * 1024
	keepLogSizeBytes = 5 * 1024 * 1024
)

type logFileWriter struct {
	path string
	file *os.File
	mu   sync.Mutex
}

func newLogFileWriter(path string) (*logFileWriter, *os.File, error) {
	if err := ensureLogDir(path); err != nil {
		return nil, nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	writer := &logFileWriter{path: path, file: file}
	if err := writer.truncateIfNeeded(); err != nil {
		return nil, nil, err
	}
	return writer, file, nil
}

func ensureLogDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (w *logFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.file.Write(p)
	if err != nil {
		return n, err
	}
	if err := w.truncateIfNeeded(); err != nil {
		return n, err
	}
	return n, nil
}

func (w *logFileWriter) truncateIfNeeded() error {
	info, err := w.file.Stat()
	if err != nil {
		return err
	}
	size := info.Size()
	if size <= maxLogSizeBytes {
		return nil
	}

	// Keep the newest portion of the log.
	buf := make([]byte, keepLogSizeBytes)
	if _, err := w.file.Seek(size-keepLogSizeBytes, io.SeekStart); err != nil {
		return err
	}
	n, err := w.file.Read(buf)
	if err != nil && err != io.EOF {
		return err
	}
	buf = buf[:n]

	if err := w.file.Truncate(0); err != nil {
		return err
	}
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := w.file.Write(buf); err != nil {
		return err
	}
	_, err = w.file.Seek(0, io.SeekEnd)
	return err
}
