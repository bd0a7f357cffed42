package analytics

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/stockroom/internal/inventory"
)

// buildTimeout bounds a shared snapshot once it no longer follows any caller.
const buildTimeout = 30 * time.Second

// ProductSource yields the current catalog snapshot.
type ProductSource interface {
	Snapshot(ctx context.Context) ([]inventory.Product, error)
}

// Dashboard is the aggregated catalog view.
type Dashboard struct {
	Summary           inventory.DashboardSummary `json:"summary"`
	RecentActivity    []inventory.Product        `json:"recent_activity"`
	NewArrivals       []inventory.Product        `json:"new_arrivals"`
	LowStock          []inventory.Product        `json:"low_stock"`
	LowStockThreshold int64                      `json:"low_stock_threshold"`
	GeneratedAt       time.Time                  `json:"generated_at"`
}

// Config tunes the dashboard service.
type Config struct {
	FeedLimit         int
	LowStockThreshold int64
	Logger            *slog.Logger
	Now               func() time.Time
}

// Service builds dashboards from catalog snapshots and caches them until the
// catalog changes.
type Service struct {
	source    ProductSource
	cache     *Cache
	logger    *slog.Logger
	now       func() time.Time
	feedLimit int
	threshold int64
	group     singleflight.Group
}

// NewService wires a ProductSource with a Cache helper.
func NewService(source ProductSource, cache *Cache, cfg Config) *Service {
	feed := cfg.FeedLimit
	if feed <= 0 {
		feed = inventory.DefaultFeedLimit
	}
	threshold := cfg.LowStockThreshold
	if threshold <= 0 {
		threshold = inventory.DefaultLowStockThreshold
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		source:    source,
		cache:     cache,
		logger:    logger,
		now:       now,
		feedLimit: feed,
		threshold: threshold,
	}
}

// Threshold returns the configured low-stock threshold.
func (s *Service) Threshold() int64 {
	return s.threshold
}

// Dashboard returns the cached dashboard, computing it on a miss. Redis
// failures degrade to an uncached computation.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	var out Dashboard
	err := s.cached(ctx, keyDashboard(s.feedLimit, s.threshold), &out, func(ctx context.Context, flight string) (any, error) {
		return s.build(ctx, flight)
	})
	return out, err
}

// LowStock lists products below threshold. A non-positive threshold selects
// the configured one.
func (s *Service) LowStock(ctx context.Context, threshold int64) ([]inventory.Product, error) {
	if threshold <= 0 {
		threshold = s.threshold
	}
	var out []inventory.Product
	err := s.cached(ctx, keyLowStock(threshold), &out, func(ctx context.Context, _ string) (any, error) {
		products, err := s.source.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		return inventory.LowStock(products, threshold), nil
	})
	if out == nil && err == nil {
		out = []inventory.Product{}
	}
	return out, err
}

// Products returns the uncached catalog for exports.
func (s *Service) Products(ctx context.Context) ([]inventory.Product, error) {
	return s.source.Snapshot(ctx)
}

// Refresh recomputes the dashboard and stores it under the current version.
// The version is read before the snapshot so a bump that lands mid-build
// leaves the result under the superseded key.
func (s *Service) Refresh(ctx context.Context) (Dashboard, error) {
	base := keyDashboard(s.feedLimit, s.threshold)
	key, err := s.cache.BuildKey(ctx, base)
	if err != nil {
		d, buildErr := s.build(ctx, base)
		if buildErr != nil {
			return Dashboard{}, buildErr
		}
		return d, err
	}
	d, err := s.build(ctx, key)
	if err != nil {
		return Dashboard{}, err
	}
	if !s.cache.Enabled() {
		return d, nil
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return d, err
	}
	return d, s.cache.Store(ctx, key, raw)
}

// HandleCatalogChanged invalidates cached dashboards after any catalog write.
func (s *Service) HandleCatalogChanged(ctx context.Context, evt inventory.CatalogChangedEvent) error {
	_, err := s.cache.Bump(ctx)
	return err
}

// cached resolves the versioned key before loading so the loader never sees a
// catalog older than the version it is stored under. The loader receives the
// key it runs under for singleflight grouping.
func (s *Service) cached(ctx context.Context, key string, dest any, loader func(context.Context, string) (any, error)) error {
	var loadErr error
	versioned, err := s.cache.BuildKey(ctx, key)
	if err != nil {
		s.logger.Warn("dashboard cache unavailable", slog.String("key", key), slog.Any("error", err))
		return decodeInto(ctx, dest, func(ctx context.Context) (any, error) { return loader(ctx, key) })
	}
	guarded := func(ctx context.Context) (any, error) {
		v, err := loader(ctx, versioned)
		loadErr = err
		return v, err
	}
	if _, err := s.cache.FetchJSON(ctx, versioned, dest, guarded); err != nil {
		if loadErr != nil {
			return loadErr
		}
		s.logger.Warn("dashboard cache fetch", slog.String("key", versioned), slog.Any("error", err))
		return decodeInto(ctx, dest, guarded)
	}
	return nil
}

// build shares one snapshot between concurrent callers of the same flight.
// The shared load is detached from the caller that started it; each caller
// still returns early on its own cancellation.
func (s *Service) build(ctx context.Context, flight string) (Dashboard, error) {
	ch := s.group.DoChan(flight, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), buildTimeout)
		defer cancel()
		products, err := s.source.Snapshot(loadCtx)
		if err != nil {
			return nil, err
		}
		return Dashboard{
			Summary:           inventory.Summarize(products),
			RecentActivity:    inventory.RecentActivity(products, s.feedLimit),
			NewArrivals:       inventory.NewArrivals(products, s.feedLimit),
			LowStock:          inventory.LowStock(products, s.threshold),
			LowStockThreshold: s.threshold,
			GeneratedAt:       s.now().UTC(),
		}, nil
	})
	select {
	case <-ctx.Done():
		return Dashboard{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Dashboard{}, res.Err
		}
		return res.Val.(Dashboard), nil
	}
}

func decodeInto(ctx context.Context, dest any, loader func(context.Context) (any, error)) error {
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
