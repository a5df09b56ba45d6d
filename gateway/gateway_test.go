package gateway_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"

	"github.com/example/shopbot/gateway"
	"github.com/example/shopbot/pkg/access"
	"github.com/example/shopbot/pkg/config"
	"github.com/example/shopbot/pkg/shop"
	"github.com/example/shopbot/pkg/store"
)

const adminRoleID = "admin-role"

func newTestGateway(t *testing.T) *gateway.Gateway {
	t.Helper()

	st, err := store.New(sqlite.Open(filepath.Join(t.TempDir(), "shop.db")), zap.NewNop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	if err := st.Init(); err != nil {
		t.Fatalf("init schema: %v", err)
	}

	cfg := &config.Config{}
	cfg.Shop.AdminRoleID = adminRoleID
	cfg.Shop.PaymentAddress = "LTESTADDR"

	engine := shop.NewEngine(st, access.NewPolicy(adminRoleID), nil, nil, zap.NewNop())
	gw := gateway.NewGateway(cfg, engine, zap.NewNop())
	gw.SetupRoutes()
	return gw
}

func doRequest(t *testing.T, gw *gateway.Gateway, method, path, body string, actor *access.Actor) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		req.Header.Set("X-User-ID", fmt.Sprintf("%d", actor.UserID))
		req.Header.Set("X-Guild-ID", actor.GuildID)
		if len(actor.RoleIDs) > 0 {
			req.Header.Set("X-Role-IDs", strings.Join(actor.RoleIDs, ","))
		}
		if actor.PlatformAdmin {
			req.Header.Set("X-Platform-Admin", "true")
		}
	}

	w := httptest.NewRecorder()
	gw.Router().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	gw := newTestGateway(t)

	w := doRequest(t, gw, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("health = %d, want 200", w.Code)
	}
}

func TestOrderFlowThroughGateway(t *testing.T) {
	gw := newTestGateway(t)
	admin := &access.Actor{UserID: 1, GuildID: "g", RoleIDs: []string{adminRoleID}}
	buyer := &access.Actor{UserID: 42, GuildID: "g"}

	// Admin stocks the catalog.
	w := doRequest(t, gw, http.MethodPost, "/api/v1/items",
		`{"name":"Widget","price":10.0,"stock":5,"description":"a widget"}`, admin)
	if w.Code != http.StatusCreated {
		t.Fatalf("add item = %d, body %s", w.Code, w.Body.String())
	}
	var item struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &item); err != nil {
		t.Fatalf("decode item: %v", err)
	}

	// Buyer places an order and gets payment instructions.
	w = doRequest(t, gw, http.MethodPost, "/api/v1/orders",
		fmt.Sprintf(`{"item_id":%d,"quantity":2}`, item.ID), buyer)
	if w.Code != http.StatusCreated {
		t.Fatalf("create order = %d, body %s", w.Code, w.Body.String())
	}
	var created struct {
		Order struct {
			ID         int64   `json:"id"`
			TotalPrice float64 `json:"total_price"`
			Status     string  `json:"status"`
		} `json:"order"`
		PaymentAddress string `json:"payment_address"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	if created.PaymentAddress != "LTESTADDR" {
		t.Errorf("payment address = %q", created.PaymentAddress)
	}
	if created.Order.TotalPrice != 20.0 || created.Order.Status != "pending" {
		t.Errorf("order = %+v", created.Order)
	}

	// Buyer cannot confirm their own payment.
	path := fmt.Sprintf("/api/v1/orders/%d/confirm-payment", created.Order.ID)
	if w := doRequest(t, gw, http.MethodPost, path, "", buyer); w.Code != http.StatusForbidden {
		t.Fatalf("buyer confirm = %d, want 403", w.Code)
	}

	// Admin confirms, then delivers.
	if w := doRequest(t, gw, http.MethodPost, path, "", admin); w.Code != http.StatusOK {
		t.Fatalf("admin confirm = %d, body %s", w.Code, w.Body.String())
	}
	deliverPath := fmt.Sprintf("/api/v1/orders/%d/deliver", created.Order.ID)
	if w := doRequest(t, gw, http.MethodPost, deliverPath, "", admin); w.Code != http.StatusOK {
		t.Fatalf("deliver = %d, body %s", w.Code, w.Body.String())
	}

	// A second confirmation conflicts instead of re-confirming.
	if w := doRequest(t, gw, http.MethodPost, path, "", admin); w.Code != http.StatusConflict {
		t.Fatalf("second confirm = %d, want 409", w.Code)
	}
}

func TestMissingUserIdentityIsRejected(t *testing.T) {
	gw := newTestGateway(t)

	// No identity headers at all.
	w := doRequest(t, gw, http.MethodPost, "/api/v1/orders", `{"item_id":1,"quantity":1}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing X-User-ID = %d, want 400", w.Code)
	}

	// A malformed user id must not fall back to user 0.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("X-User-ID", "not-a-number")
	w = httptest.NewRecorder()
	gw.Router().ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("malformed X-User-ID = %d, want 400", w.Code)
	}
}

func TestOrderAuditTrailAccess(t *testing.T) {
	gw := newTestGateway(t)
	admin := &access.Actor{UserID: 1, GuildID: "g", RoleIDs: []string{adminRoleID}}
	buyer := &access.Actor{UserID: 42, GuildID: "g"}

	w := doRequest(t, gw, http.MethodGet, "/api/v1/orders/1/audit", "", buyer)
	if w.Code != http.StatusForbidden {
		t.Fatalf("buyer audit read = %d, want 403", w.Code)
	}

	// No audit backend attached in tests, so there is no trail.
	w = doRequest(t, gw, http.MethodGet, "/api/v1/orders/1/audit", "", admin)
	if w.Code != http.StatusNotFound {
		t.Fatalf("audit without backend = %d, want 404", w.Code)
	}
}

func TestErrorTranslation(t *testing.T) {
	gw := newTestGateway(t)
	buyer := &access.Actor{UserID: 42, GuildID: "g"}

	// Unknown order.
	w := doRequest(t, gw, http.MethodGet, "/api/v1/orders/999", "", buyer)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown order = %d, want 404", w.Code)
	}

	// Unknown item on order creation.
	w = doRequest(t, gw, http.MethodPost, "/api/v1/orders", `{"item_id":999,"quantity":1}`, buyer)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown item = %d, want 404", w.Code)
	}

	// Non-admin catalog write.
	w = doRequest(t, gw, http.MethodPost, "/api/v1/items", `{"name":"X","price":1,"stock":1}`, buyer)
	if w.Code != http.StatusForbidden {
		t.Fatalf("non-admin add item = %d, want 403", w.Code)
	}
}
