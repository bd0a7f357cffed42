package analytichttp

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/odyssey-erp/stockroom/internal/platform/httpx"
	"github.com/odyssey-erp/stockroom/internal/shared"
)

// MountRoutes registers dashboard endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}

	r.Get("/", h.handleDashboard)
	r.Get("/low-stock", h.handleLowStock)
	r.Group(func(gr chi.Router) {
		if h.exportLimit > 0 {
			gr.Use(httprate.Limit(h.exportLimit, time.Minute,
				httprate.WithKeyFuncs(rateLimitKey),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "export rate limit reached")
				}),
			))
		}
		gr.Get("/export.csv", h.handleCSV)
		gr.Get("/export.xlsx", h.handleXLSX)
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	if actor := shared.ActorFromContext(r.Context()); actor != 0 {
		return "actor:" + strconv.FormatInt(actor, 10), nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
