package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/YelzhanWeb/kitchenline/internal/adapter/logger"
	"github.com/YelzhanWeb/kitchenline/internal/domain"
	"github.com/YelzhanWeb/kitchenline/internal/interfaces"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrderService struct {
	menu      *domain.Menu
	placeErr  error
	statusErr error
	statuses  map[string]domain.Status
	lastCmd   interfaces.PlaceOrderCommand
}

func (f *fakeOrderService) GetMenu(context.Context) (*domain.Menu, error) {
	return f.menu, nil
}

func (f *fakeOrderService) PlaceOrder(_ context.Context, cmd interfaces.PlaceOrderCommand) (*domain.Order, error) {
	f.lastCmd = cmd
	if f.placeErr != nil {
		return nil, f.placeErr
	}
	return &domain.Order{
		ID:              "ORD-1-100",
		Status:          domain.StatusPlaced,
		TotalAmount:     decimal.NewFromInt(25),
		Items:           cmd.Items,
		PaymentAccepted: true,
	}, nil
}

func (f *fakeOrderService) GetOrderStatus(_ context.Context, id string) (domain.Status, error) {
	if f.statusErr != nil {
		return domain.StatusInvalid, f.statusErr
	}
	if s, ok := f.statuses[id]; ok {
		return s, nil
	}
	return domain.StatusInvalid, nil
}

func newOrderServer(svc *fakeOrderService) http.Handler {
	mux := http.NewServeMux()
	NewOrderHandler(svc, logger.NewNop()).Register(mux)
	return Chain(mux, RecoveryMiddleware(logger.NewNop()), LoggingMiddleware(logger.NewNop()))
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestOrderHandler_PlaceOrder(t *testing.T) {
	svc := &fakeOrderService{}
	h := newOrderServer(svc)

	rec := do(t, h, http.MethodPost, "/orders", `{"customer_name":" Ann ","contact":"5551234","items":{"Burger":2,"Fries":1}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	var resp PlaceOrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ORD-1-100", resp.OrderID)
	assert.Equal(t, domain.StatusPlaced, resp.Status)
	assert.True(t, resp.TotalAmount.Equal(decimal.NewFromInt(25)))
	assert.Equal(t, "Ann", svc.lastCmd.CustomerName)
	assert.Equal(t, map[string]int{"Burger": 2, "Fries": 1}, svc.lastCmd.Items)
}

func TestOrderHandler_PlaceOrderRejectedReturnsFailureToken(t *testing.T) {
	svc := &fakeOrderService{placeErr: fmt.Errorf("%w: Burger has 8, need 9", domain.ErrInsufficientStock)}
	h := newOrderServer(svc)

	rec := do(t, h, http.MethodPost, "/orders", `{"customer_name":"Bob","contact":"1","items":{"Burger":9}}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	var resp RejectedOrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.FailureToken, resp.OrderID)
	assert.Equal(t, CodeInsufficientStock, resp.Code)
}

func TestOrderHandler_PlaceOrderValidation(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{name: "missing name", body: `{"contact":"1","items":{"Burger":1}}`, wantField: "customer_name"},
		{name: "missing contact", body: `{"customer_name":"Ann","items":{"Burger":1}}`, wantField: "contact"},
		{name: "no items", body: `{"customer_name":"Ann","contact":"1","items":{}}`, wantField: "items"},
		{name: "negative quantity", body: `{"customer_name":"Ann","contact":"1","items":{"Burger":-1}}`, wantField: "items[Burger]"},
		{name: "name too long", body: `{"customer_name":"` + strings.Repeat("a", 101) + `","contact":"1","items":{"Burger":1}}`, wantField: "customer_name"},
		{name: "malformed json", body: `{"customer_name":`},
		{name: "unknown field", body: `{"customer_name":"Ann","contact":"1","items":{"Burger":1},"tip":5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newOrderServer(&fakeOrderService{}), http.MethodPost, "/orders", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, CodeValidation, resp.Code)
			if tt.wantField != "" {
				require.NotEmpty(t, resp.Errors)
				assert.Equal(t, tt.wantField, resp.Errors[0].Field)
			}
		})
	}
}

func TestOrderHandler_PlaceOrderServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"unknown item", fmt.Errorf("%w: Sushi", domain.ErrUnknownItem), http.StatusBadRequest, CodeUnknownItem},
		{"empty after normalising", domain.ErrEmptyOrder, http.StatusBadRequest, CodeEmptyOrder},
		{"kitchen down", fmt.Errorf("get count: %w", interfaces.ErrServiceUnavailable), http.StatusBadGateway, CodeUnavailable},
		{"unexpected", fmt.Errorf("boom"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newOrderServer(&fakeOrderService{placeErr: tt.err})
			rec := do(t, h, http.MethodPost, "/orders", `{"customer_name":"Ann","contact":"1","items":{"Burger":1}}`)
			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Code)
		})
	}
}

func TestOrderHandler_GetOrderStatus(t *testing.T) {
	svc := &fakeOrderService{statuses: map[string]domain.Status{"ORD-1-1": domain.StatusReady}}
	h := newOrderServer(svc)

	rec := do(t, h, http.MethodGet, "/orders/ORD-1-1/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp OrderStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.StatusReady, resp.Status)

	rec = do(t, h, http.MethodGet, "/orders/nope/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.StatusInvalid, resp.Status)

	svc.statusErr = fmt.Errorf("kitchen: %w", interfaces.ErrServiceUnavailable)
	rec = do(t, h, http.MethodGet, "/orders/ORD-1-1/status", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestOrderHandler_MenuAndHealth(t *testing.T) {
	svc := &fakeOrderService{menu: &domain.Menu{Items: []domain.MenuItem{{Name: "Pizza", Price: decimal.NewFromInt(25), Count: 3}}}}
	h := newOrderServer(svc)

	rec := do(t, h, http.MethodGet, "/menu", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var menu domain.Menu
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &menu))
	require.Len(t, menu.Items, 1)
	assert.Equal(t, 3, menu.Items[0].Count)

	rec = do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodDelete, "/menu", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMiddleware_KeepsIncomingRequestIDAndRecovers(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /panic", func(http.ResponseWriter, *http.Request) { panic("kaboom") })
	mux.HandleFunc("GET /id", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(RequestID(r.Context())))
	})
	h := Chain(mux, RecoveryMiddleware(logger.NewNop()), LoggingMiddleware(logger.NewNop()))

	req := httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set(RequestIDHeader, "req-fixed")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "req-fixed", rec.Body.String())

	rec = do(t, h, http.MethodGet, "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
