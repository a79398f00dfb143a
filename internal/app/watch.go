package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/five82/tote/internal/api"
	"github.com/five82/tote/internal/events"
	"github.com/five82/tote/internal/storage"
)

// intervalWatcher polls a file store at the configured interval.
type intervalWatcher struct {
	file     *storage.FileStorage
	interval time.Duration
}

func (w intervalWatcher) Watch(ctx context.Context, notify func(storage.Slot)) error {
	return w.file.WatchEvery(ctx, w.interval, notify)
}

// StartWatcher launches a background goroutine that turns storage changes
// made by other processes into events.StorageChanged. It returns a channel
// closed when the watcher stops.
func StartWatcher(ctx context.Context, w storage.Watcher, pub events.Publisher, logger *slog.Logger) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		err := w.Watch(ctx, func(slot storage.Slot) {
			logger.Debug("storage changed elsewhere", slog.String("slot", string(slot)))
			pub.Publish(events.Signal{Kind: events.StorageChanged, Slot: string(slot), Source: "storage"})
		})
		if err != nil && ctx.Err() == nil {
			logger.Warn("storage watcher stopped", slog.String("error", err.Error()))
		}
	}()
	return done
}

// Verifier checks the persisted token with the server.
type Verifier interface {
	VerifyToken(ctx context.Context) (*api.TokenClaims, error)
}

// verifySession asks the server whether the restored token is still valid. A
// rejected token is torn down by the client's unauthorized handler; other
// failures keep the session so the app works while the server is unreachable.
func verifySession(ctx context.Context, v Verifier, logger *slog.Logger) {
	claims, err := v.VerifyToken(ctx)
	switch {
	case err == nil:
		logger.Debug("restored session verified", slog.String("user", claims.ID))
	case api.IsAuthRejected(err):
		logger.Info("restored session rejected")
	default:
		logger.Warn("verify restored session failed", slog.String("error", err.Error()))
	}
}
