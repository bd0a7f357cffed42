package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/stockroom/internal/platform/httpx"
	"github.com/odyssey-erp/stockroom/internal/shared"
)

func newTestRouter(t *testing.T, store Store) (http.Handler, *Service) {
	t.Helper()
	svc := NewService(store, &memoryAudit{}, newMemoryIdempotency(), ServiceConfig{
		Clock:  newStepClock(),
		Logger: discardLogger(),
	})
	r := chi.NewRouter()
	r.Route("/products", NewHandler(discardLogger(), svc).MountRoutes)
	return r, svc
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(shared.ContextWithActor(req.Context(), 42))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func seedProduct(t *testing.T, svc *Service) Product {
	t.Helper()
	p, err := svc.Create(context.Background(), validFields(), 0)
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}

func TestHandlerCreateProduct(t *testing.T) {
	router, _ := newTestRouter(t, NewMemoryStore())

	rr := doRequest(t, router, http.MethodPost, "/products", `{"code":"0042","name":"Olive Oil","quantity":3,"sales_price":"12.50"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var p Product
	if err := json.Unmarshal(rr.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.ID == "" || p.Code != "0042" || p.Quantity != 3 {
		t.Fatalf("unexpected product %+v", p)
	}
	if p.TotalValue.String() != "37.5" {
		t.Fatalf("expected total value 37.5, got %s", p.TotalValue)
	}
}

func TestHandlerCreateValidationListsFields(t *testing.T) {
	router, _ := newTestRouter(t, NewMemoryStore())

	rr := doRequest(t, router, http.MethodPost, "/products", `{"code":"ab","name":" ","quantity":-1,"sales_price":"1"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	var problem httpx.ProblemDetail
	if err := json.Unmarshal(rr.Body.Bytes(), &problem); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var fields []string
	for _, f := range problem.Fields {
		fields = append(fields, f.Field)
	}
	if strings.Join(fields, ",") != "code,name,quantity" {
		t.Fatalf("unexpected fields %v", fields)
	}
}

func TestHandlerRejectsUnknownBodyFields(t *testing.T) {
	router, _ := newTestRouter(t, NewMemoryStore())

	rr := doRequest(t, router, http.MethodPost, "/products", `{"code":"1","name":"x","quantity":1,"sales_price":"1","colour":"red"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestHandlerMovement(t *testing.T) {
	router, svc := newTestRouter(t, NewMemoryStore())
	p := seedProduct(t, svc)

	rr := doRequest(t, router, http.MethodPost, "/products/"+p.ID+"/movements", `{"kind":"stock_out","delta":4}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var moved Product
	if err := json.Unmarshal(rr.Body.Bytes(), &moved); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if moved.Quantity != 6 || moved.LastMovementKind != MovementStockOut {
		t.Fatalf("unexpected product %+v", moved)
	}

	rr = doRequest(t, router, http.MethodPost, "/products/"+p.ID+"/movements", `{"kind":"stock_out","delta":7}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 for oversell, got %d", rr.Code)
	}

	rr = doRequest(t, router, http.MethodPost, "/products/"+p.ID+"/movements", `{"kind":"stock_in","delta":0}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero delta, got %d", rr.Code)
	}
}

func TestHandlerDuplicateMovement(t *testing.T) {
	router, svc := newTestRouter(t, NewMemoryStore())
	p := seedProduct(t, svc)

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/products/"+p.ID+"/movements", strings.NewReader(`{"kind":"stock_in","delta":1}`))
		req.Header.Set("Idempotency-Key", "abc")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr.Code
	}
	if code := send(); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if code := send(); code != http.StatusConflict {
		t.Fatalf("expected 409 on replay, got %d", code)
	}
}

func TestHandlerGetEditDelete(t *testing.T) {
	router, svc := newTestRouter(t, NewMemoryStore())
	p := seedProduct(t, svc)

	if rr := doRequest(t, router, http.MethodGet, "/products/"+p.ID, ""); rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	rr := doRequest(t, router, http.MethodPut, "/products/"+p.ID, `{"code":"9","name":"Renamed","quantity":2,"sales_price":"3"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if rr := doRequest(t, router, http.MethodDelete, "/products/"+p.ID, ""); rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if rr := doRequest(t, router, http.MethodGet, "/products/"+p.ID, ""); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rr.Code)
	}
}

func TestHandlerListSearch(t *testing.T) {
	router, svc := newTestRouter(t, NewMemoryStore())
	seedProduct(t, svc)

	rr := doRequest(t, router, http.MethodGet, "/products?q=RICE", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body listResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 1 {
		t.Fatalf("expected one match, got %d", body.Count)
	}

	rr = doRequest(t, router, http.MethodGet, "/products?q=quinoa", "")
	if !strings.Contains(rr.Body.String(), `"products":[]`) {
		t.Fatalf("expected empty list, got %s", rr.Body.String())
	}
}

func TestHandlerStoreUnavailable(t *testing.T) {
	router, _ := newTestRouter(t, brokenStore{MemoryStore: NewMemoryStore(), err: errors.New("dial tcp: refused")})

	rr := doRequest(t, router, http.MethodGet, "/products", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "dial tcp") {
		t.Fatalf("store cause leaked to client: %s", rr.Body.String())
	}
}

func TestTransportErrorMapsCatalogFailures(t *testing.T) {
	cases := []struct {
		err  error
		want error
	}{
		{&InsufficientStockError{Requested: 5, Available: 1}, httpx.ErrConflict},
		{shared.ErrIdempotencyConflict, httpx.ErrConflict},
		{ErrNotFound, httpx.ErrNotFound},
		{wrapStoreErr("update", errors.New("dial tcp: refused")), httpx.ErrUnavailable},
	}
	for _, tc := range cases {
		got := transportError(tc.err)
		if !errors.Is(got, tc.want) {
			t.Fatalf("%v: expected %v, got %v", tc.err, tc.want, got)
		}
	}
	if !errors.Is(transportError(&InsufficientStockError{}), ErrInsufficientStock) {
		t.Fatalf("conflict mapping dropped the stock error")
	}
	if strings.Contains(transportError(wrapStoreErr("update", errors.New("dial tcp: refused"))).Error(), "dial tcp") {
		t.Fatalf("unavailable mapping kept the store cause")
	}
	plain := errors.New("boom")
	if got := transportError(plain); got != plain {
		t.Fatalf("unmapped error changed: %v", got)
	}
}

func TestHandlerOversellIsConflictProblem(t *testing.T) {
	router, svc := newTestRouter(t, NewMemoryStore())
	p := seedProduct(t, svc)

	rr := doRequest(t, router, http.MethodPost, "/products/"+p.ID+"/movements", `{"kind":"stock_out","delta":99}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
	var problem httpx.ProblemDetail
	if err := json.Unmarshal(rr.Body.Bytes(), &problem); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if problem.Title != "Conflict" || !strings.Contains(problem.Detail, "insufficient stock") {
		t.Fatalf("unexpected problem %+v", problem)
	}
}
