package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/odyssey-erp/stockroom/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// IdempotencyPort guards movement requests carrying a client key.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// MetricsPort records ledger outcomes.
type MetricsPort interface {
	ObserveMovement(kind, outcome string)
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	Clock             Clock
	Logger            *slog.Logger
	Metrics           MetricsPort
	LowStockThreshold int64
}

// Service coordinates catalog reads and ledger writes against a Store.
type Service struct {
	store       Store
	audit       AuditPort
	idempotency IdempotencyPort
	metrics     MetricsPort
	hooks       []ChangeHook
	clock       Clock
	logger      *slog.Logger
	lowStock    int64
}

// NewService builds Service.
func NewService(store Store, audit AuditPort, idem IdempotencyPort, cfg ServiceConfig, hooks ...ChangeHook) *Service {
	clock := cfg.Clock
	if clock == nil {
		clock = NewSystemClock()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	threshold := cfg.LowStockThreshold
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	return &Service{
		store:       store,
		audit:       audit,
		idempotency: idem,
		metrics:     cfg.Metrics,
		hooks:       hooks,
		clock:       clock,
		logger:      logger,
		lowStock:    threshold,
	}
}

// Products lists the catalog filtered by a name search term.
func (s *Service) Products(ctx context.Context, term string) ([]Product, error) {
	products, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return Search(products, term), nil
}

// Snapshot returns every product as currently stored.
func (s *Service) Snapshot(ctx context.Context) ([]Product, error) {
	products, err := s.store.List(ctx)
	if err != nil {
		return nil, wrapStoreErr("list products", err)
	}
	return products, nil
}

// Get loads a single product.
func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	if id == "" {
		return Product{}, ErrNotFound
	}
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return Product{}, wrapStoreErr("get product", err)
	}
	return p, nil
}

// Create validates fields and stores a new product.
func (s *Service) Create(ctx context.Context, fields ProductFields, actorID int64) (Product, error) {
	p, err := CreateProduct(fields, s.clock)
	if err != nil {
		return Product{}, err
	}
	saved, err := s.store.Create(ctx, p)
	if err != nil {
		return Product{}, wrapStoreErr("create product", err)
	}
	s.afterWrite(ctx, actorID, saved, ChangeCreated, map[string]any{"code": saved.Code, "quantity": saved.Quantity})
	return saved, nil
}

// Edit overwrites the editable fields of a stored product.
func (s *Service) Edit(ctx context.Context, id string, fields ProductFields, actorID int64) (Product, error) {
	if err := ValidateFields(fields); err != nil {
		return Product{}, err
	}
	saved, err := s.store.Update(ctx, id, func(current Product) (Product, error) {
		return EditProduct(current, fields, s.clock)
	})
	if err != nil {
		return Product{}, wrapStoreErr("edit product", err)
	}
	s.afterWrite(ctx, actorID, saved, ChangeEdited, map[string]any{"code": saved.Code, "quantity": saved.Quantity})
	return saved, nil
}

// Delete removes a product from the catalog and from future aggregations.
func (s *Service) Delete(ctx context.Context, id string, actorID int64) error {
	if id == "" {
		return ErrNotFound
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return wrapStoreErr("delete product", err)
	}
	s.afterWrite(ctx, actorID, Product{ID: id, UpdatedAt: s.clock.Now()}, ChangeDeleted, nil)
	return nil
}

// ApplyMovement posts a stock-in or stock-out against a stored product. The
// ledger runs inside the store's per-product atomic update so that two
// concurrent movements never build on the same snapshot.
func (s *Service) ApplyMovement(ctx context.Context, input MovementInput) (Product, error) {
	if input.ProductID == "" {
		return Product{}, ErrNotFound
	}
	if !input.Kind.Valid() {
		s.observe(input.Kind, "rejected")
		return Product{}, &ValidationError{Field: "kind", Reason: "must be stock_in or stock_out"}
	}
	if input.Delta <= 0 {
		s.observe(input.Kind, "rejected")
		return Product{}, &ValidationError{Field: "delta", Reason: "must be positive"}
	}

	key := ""
	if input.IdempotencyKey != "" && s.idempotency != nil {
		key = fmt.Sprintf("movement:%s:%s", input.ProductID, input.IdempotencyKey)
		if err := s.idempotency.CheckAndInsert(ctx, key, "inventory"); err != nil {
			s.observe(input.Kind, "duplicate")
			return Product{}, err
		}
	}

	saved, err := s.store.Update(ctx, input.ProductID, func(current Product) (Product, error) {
		return ApplyMovement(current, input.Kind, input.Delta, s.clock)
	})
	if err != nil {
		if key != "" {
			if delErr := s.idempotency.Delete(ctx, key); delErr != nil {
				s.logger.Warn("release idempotency key", slog.String("key", key), slog.Any("error", delErr))
			}
		}
		err = wrapStoreErr("apply movement", err)
		if errors.Is(err, ErrStoreUnavailable) {
			s.observe(input.Kind, "error")
		} else {
			s.observe(input.Kind, "rejected")
		}
		return Product{}, err
	}
	s.observe(input.Kind, "ok")

	action := ChangeStockIn
	if input.Kind == MovementStockOut {
		action = ChangeStockOut
	}
	s.afterWrite(ctx, input.ActorID, saved, action, map[string]any{
		"delta":    input.Delta,
		"quantity": saved.Quantity,
	})
	if saved.Quantity < s.lowStock {
		s.logger.Info("product below low-stock threshold",
			slog.String("product_id", saved.ID),
			slog.String("name", saved.Name),
			slog.Int64("quantity", saved.Quantity),
			slog.Int64("threshold", s.lowStock))
	}
	return saved, nil
}

func (s *Service) observe(kind MovementKind, outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveMovement(string(kind), outcome)
	}
}

// afterWrite runs side effects of a persisted mutation. Failures are logged and
// never undo the write.
func (s *Service) afterWrite(ctx context.Context, actorID int64, p Product, action ChangeAction, meta map[string]any) {
	if s.audit != nil {
		err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   fmt.Sprintf("inventory:%s", action),
			Entity:   "product",
			EntityID: p.ID,
			Meta:     meta,
			At:       p.UpdatedAt,
		})
		if err != nil {
			s.logger.Warn("audit record", slog.String("product_id", p.ID), slog.Any("error", err))
		}
	}
	evt := CatalogChangedEvent{ProductID: p.ID, Action: action, Quantity: p.Quantity, At: p.UpdatedAt}
	for _, hook := range s.hooks {
		if hook == nil {
			continue
		}
		if err := hook.HandleCatalogChanged(ctx, evt); err != nil {
			s.logger.Warn("catalog change hook", slog.String("action", string(action)), slog.Any("error", err))
		}
	}
}
