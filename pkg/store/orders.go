package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/example/shopbot/pkg/models"
)

func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	if err := s.db.WithContext(ctx).Create(order).Error; err != nil {
		return &Error{Op: "insert", Table: "orders", Err: err}
	}
	return nil
}

func (s *Store) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, &Error{Op: "select", Table: "orders", Err: err}
	}
	return &order, nil
}

// GetOrderForUpdate reads an order with a row lock inside the current
// transaction, so a status transition cannot race a concurrent one on
// the same order.
func (s *Store) GetOrderForUpdate(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Clauses(forUpdateClause(s.db)...).
		First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, &Error{Op: "select", Table: "orders", Err: err}
	}
	return &order, nil
}

func (s *Store) SaveOrder(ctx context.Context, order *models.Order) error {
	if err := s.db.WithContext(ctx).Save(order).Error; err != nil {
		return &Error{Op: "update", Table: "orders", Err: err}
	}
	return nil
}

func (s *Store) ListUserOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, &Error{Op: "select", Table: "orders", Err: err}
	}
	return orders, nil
}

// ListPendingUnpaid returns every order still awaiting payment. The
// reconciliation loop reads these each tick; it never writes them.
func (s *Store) ListPendingUnpaid(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Where("status = ? AND payment_confirmed = ?", models.StatusPending, false).
		Order("created_at").
		Find(&orders).Error
	if err != nil {
		return nil, &Error{Op: "select", Table: "orders", Err: err}
	}
	return orders, nil
}

func (s *Store) CountOrders(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Order{}).Count(&count).Error; err != nil {
		return 0, &Error{Op: "count", Table: "orders", Err: err}
	}
	return count, nil
}
