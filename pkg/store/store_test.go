package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"

	"github.com/example/shopbot/pkg/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "shop.db")
	s, err := New(sqlite.Open(path), zap.NewNop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.Init(); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return s
}

func TestInitIsIdempotentAndPreservesRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	item := &models.Item{Name: "Widget", Price: 10, Stock: 5, CreatedAt: time.Now()}
	if err := s.CreateItem(ctx, item); err != nil {
		t.Fatalf("create item: %v", err)
	}

	if err := s.Init(); err != nil {
		t.Fatalf("second init: %v", err)
	}

	got, err := s.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("get item after re-init: %v", err)
	}
	if got.Name != "Widget" || got.Stock != 5 {
		t.Fatalf("row changed by re-init: %+v", got)
	}
}

func TestEnsureColumnHealsOldSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	s, err := New(sqlite.Open(path), zap.NewNop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	// A pre-upgrade items table, before drive_link existed.
	err = s.db.Exec(`CREATE TABLE items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT,
		price REAL,
		stock INTEGER,
		description TEXT,
		created_at DATETIME
	)`).Error
	if err != nil {
		t.Fatalf("create legacy table: %v", err)
	}
	if err := s.db.Exec(`INSERT INTO items (name, price, stock, description) VALUES ('Old', 1.5, 3, 'legacy row')`).Error; err != nil {
		t.Fatalf("insert legacy row: %v", err)
	}

	if err := s.EnsureColumn(&models.Item{}, "drive_link"); err != nil {
		t.Fatalf("ensure column: %v", err)
	}
	// Repeated call is a no-op.
	if err := s.EnsureColumn(&models.Item{}, "drive_link"); err != nil {
		t.Fatalf("ensure column again: %v", err)
	}

	item, err := s.GetItemByName(context.Background(), "Old")
	if err != nil {
		t.Fatalf("read legacy row after migration: %v", err)
	}
	if item.Stock != 3 || item.Price != 1.5 {
		t.Fatalf("legacy row damaged by migration: %+v", item)
	}
	if item.DriveLink != "" {
		t.Fatalf("expected empty drive_link on legacy row, got %q", item.DriveLink)
	}
}

func TestGetItemNotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetItem(context.Background(), 999); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBanRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	banned, err := s.IsBanned(ctx, 42)
	if err != nil {
		t.Fatalf("is banned: %v", err)
	}
	if banned {
		t.Fatal("fresh user should not be banned")
	}

	if err := s.BanUser(ctx, 42, "chargeback"); err != nil {
		t.Fatalf("ban: %v", err)
	}
	// Re-ban refreshes the row instead of failing on the key.
	if err := s.BanUser(ctx, 42, "chargeback again"); err != nil {
		t.Fatalf("re-ban: %v", err)
	}

	banned, err = s.IsBanned(ctx, 42)
	if err != nil {
		t.Fatalf("is banned: %v", err)
	}
	if !banned {
		t.Fatal("user should be banned")
	}

	ban, err := s.GetBan(ctx, 42)
	if err != nil {
		t.Fatalf("get ban: %v", err)
	}
	if ban.Reason != "chargeback again" {
		t.Fatalf("expected refreshed reason, got %q", ban.Reason)
	}

	if err := s.UnbanUser(ctx, 42); err != nil {
		t.Fatalf("unban: %v", err)
	}
	if err := s.UnbanUser(ctx, 42); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound on double unban, got %v", err)
	}
}

func TestListPendingUnpaid(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	orders := []*models.Order{
		{UserID: 1, ItemID: 1, Quantity: 1, Status: models.StatusPending, CreatedAt: time.Now()},
		{UserID: 2, ItemID: 1, Quantity: 1, Status: models.StatusPaid, PaymentConfirmed: true, CreatedAt: time.Now()},
		{UserID: 3, ItemID: 1, Quantity: 1, Status: models.StatusPending, CreatedAt: time.Now()},
		{UserID: 4, ItemID: 1, Quantity: 1, Status: models.StatusCancelled, CreatedAt: time.Now()},
	}
	for _, o := range orders {
		if err := s.CreateOrder(ctx, o); err != nil {
			t.Fatalf("create order: %v", err)
		}
	}

	pending, err := s.ListPendingUnpaid(ctx)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending unpaid orders, got %d", len(pending))
	}
	for _, o := range pending {
		if o.Status != models.StatusPending || o.PaymentConfirmed {
			t.Fatalf("non-pending order in scan set: %+v", o)
		}
	}
}
