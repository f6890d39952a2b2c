// Package integration reacts to committed ledger mutations.
package integration

import (
	"context"
	"log/slog"
	"time"

	"github.com/odyssey-erp/shopledger/internal/analytics"
	"github.com/odyssey-erp/shopledger/internal/observability"
)

const bumpTimeout = 2 * time.Second

// Hooks fans ledger change events out to the report cache and metrics.
// It satisfies the ChangeNotifier of every ledger service.
type Hooks struct {
	cache   *analytics.Cache
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewHooks constructs integration hooks. Nil collaborators are skipped.
func NewHooks(cache *analytics.Cache, metrics *observability.Metrics, logger *slog.Logger) *Hooks {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hooks{cache: cache, metrics: metrics, logger: logger}
}

// LedgerChanged runs after a mutation committed. A failed cache bump is
// logged and counted but never surfaces to the caller; the write already
// succeeded and reports fall back to the cache TTL.
func (h *Hooks) LedgerChanged(ctx context.Context, source string) {
	if h == nil {
		return
	}
	h.metrics.LedgerEvent(source)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), bumpTimeout)
	defer cancel()
	ver, err := h.cache.Bump(ctx)
	if err != nil {
		h.metrics.CacheBumpFailed()
		h.logger.Warn("report cache bump failed", slog.String("source", source), slog.Any("error", err))
		return
	}
	h.logger.Debug("ledger changed", slog.String("source", source), slog.Int64("cache_version", ver))
}
