package inventory

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/stockroom/internal/platform/httpx"
	"github.com/odyssey-erp/stockroom/internal/shared"
)

// Handler wires HTTP endpoints for the product catalog and stock movements.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.Put("/", h.handleEdit)
		r.Delete("/", h.handleDelete)
		r.Post("/movements", h.handleMovement)
	})
}

type listResponse struct {
	Products []Product `json:"products"`
	Count    int       `json:"count"`
}

type movementRequest struct {
	Kind  MovementKind `json:"kind"`
	Delta int64        `json:"delta"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.Products(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if products == nil {
		products = []Product{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Products: products, Count: len(products)})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var fields ProductFields
	if err := httpx.DecodeJSON(r, &fields); err != nil {
		h.respondError(w, r, err)
		return
	}
	p, err := h.service.Create(r.Context(), fields, shared.ActorFromContext(r.Context()))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) handleEdit(w http.ResponseWriter, r *http.Request) {
	var fields ProductFields
	if err := httpx.DecodeJSON(r, &fields); err != nil {
		h.respondError(w, r, err)
		return
	}
	p, err := h.service.Edit(r.Context(), chi.URLParam(r, "id"), fields, shared.ActorFromContext(r.Context()))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id"), shared.ActorFromContext(r.Context())); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMovement(w http.ResponseWriter, r *http.Request) {
	var req movementRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	p, err := h.service.ApplyMovement(r.Context(), MovementInput{
		ProductID:      chi.URLParam(r, "id"),
		Kind:           req.Kind,
		Delta:          req.Delta,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
		ActorID:        shared.ActorFromContext(r.Context()),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	if fieldErrs := ValidationErrors(err); len(fieldErrs) > 0 {
		problem := httpx.ProblemDetail{
			Title:  "Validation Failed",
			Status: http.StatusBadRequest,
			Detail: err.Error(),
		}
		for _, fe := range fieldErrs {
			problem.Fields = append(problem.Fields, httpx.FieldProblem{Field: fe.Field, Reason: fe.Reason})
		}
		httpx.WriteProblem(w, problem)
		return
	}
	mapped := transportError(err)
	switch {
	case errors.Is(mapped, httpx.ErrUnavailable):
		h.logger.Error("catalog store", slog.String("path", r.URL.Path), slog.Any("error", err))
	case errors.Is(mapped, httpx.ErrConflict), errors.Is(mapped, httpx.ErrNotFound), errors.Is(mapped, httpx.ErrValidation):
	default:
		h.logger.Error("inventory request", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	httpx.RespondError(w, mapped)
}

// transportError maps catalog failures onto the httpx sentinels. Store
// failures drop their cause so driver detail never reaches the client.
func transportError(err error) error {
	switch {
	case errors.Is(err, ErrInsufficientStock), errors.Is(err, shared.ErrIdempotencyConflict):
		return fmt.Errorf("%w: %w", httpx.ErrConflict, err)
	case errors.Is(err, ErrNotFound):
		return fmt.Errorf("%w: %w", httpx.ErrNotFound, err)
	case errors.Is(err, ErrStoreUnavailable):
		return fmt.Errorf("%w: catalog store, refresh before retrying", httpx.ErrUnavailable)
	}
	return err
}
