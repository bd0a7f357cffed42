package inventory

import (
	"context"
	"time"
)

// ChangeAction names the mutation behind a CatalogChangedEvent.
type ChangeAction string

const (
	ChangeCreated  ChangeAction = "created"
	ChangeEdited   ChangeAction = "edited"
	ChangeDeleted  ChangeAction = "deleted"
	ChangeStockIn  ChangeAction = "stock_in"
	ChangeStockOut ChangeAction = "stock_out"
)

// CatalogChangedEvent is emitted after a mutation has been persisted.
type CatalogChangedEvent struct {
	ProductID string
	Action    ChangeAction
	Quantity  int64
	At        time.Time
}

// ChangeHook receives catalog change notifications, e.g. to invalidate
// dashboard caches.
type ChangeHook interface {
	HandleCatalogChanged(ctx context.Context, evt CatalogChangedEvent) error
}
