package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/s1natex/tasklist-GO/internal/config"
	"github.com/s1natex/tasklist-GO/internal/localstore"
	"github.com/s1natex/tasklist-GO/internal/tasks"
)

// newLogger builds the process logger. JSON is the default; "text" renders
// through charmbracelet/log for humans. Every line carries the session id.
func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	level := parseLevel(cfg.Level)

	var handler slog.Handler
	if strings.EqualFold(strings.TrimSpace(cfg.Format), "text") {
		handler = charmlog.NewWithOptions(w, charmlog.Options{
			Level:           charmlog.Level(level),
			ReportTimestamp: true,
			TimeFormat:      time.Kitchen,
		})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(handler).With(slog.String("session", uuid.NewString()))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openStore opens the configured backend and loads the collection. Corrupt
// saved data is reported and replaced by an empty list rather than failing
// startup.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*tasks.Store, func(), error) {
	var (
		storage localstore.Storage
		closeFn = func() {}
	)

	switch cfg.Storage {
	case config.StorageMemory:
		storage = localstore.NewMemory()
		logger.Info("storage_opened", slog.String("backend", "memory"))

	default:
		db, err := localstore.Open(ctx, cfg.DBPath, func(err error, wait time.Duration) {
			logger.Warn("storage_retry",
				slog.String("path", cfg.DBPath),
				slog.Duration("wait", wait),
				slog.String("error", err.Error()),
			)
		})
		if err != nil {
			return nil, nil, fmt.Errorf("opening %s: %w", cfg.DBPath, err)
		}
		storage = db
		closeFn = func() {
			if err := db.Close(); err != nil {
				logger.Warn("storage_close_failed", slog.String("error", err.Error()))
			}
		}

		attrs := []any{slog.String("backend", "sqlite"), slog.String("path", cfg.DBPath)}
		if at, ok, err := db.UpdatedAt(ctx, cfg.Key); err == nil && ok {
			attrs = append(attrs, slog.String("last_saved", humanize.Time(at)))
		}
		logger.Info("storage_opened", attrs...)
	}

	store := tasks.NewStore(storage,
		tasks.WithLogger(logger),
		tasks.WithKey(cfg.Key),
	)

	if err := store.Load(ctx); err != nil {
		var corrupt *tasks.CorruptDataError
		if !errors.As(err, &corrupt) {
			closeFn()
			return nil, nil, err
		}
		logger.Warn("store_reset",
			slog.String("key", corrupt.Key),
			slog.String("backup_key", corrupt.Key+".corrupt"),
		)
	}
	return store, closeFn, nil
}
