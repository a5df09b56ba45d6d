package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/example/shopbot/pkg/models"
)

func (s *Store) CreateItem(ctx context.Context, item *models.Item) error {
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return &Error{Op: "insert", Table: "items", Err: err}
	}
	return nil
}

func (s *Store) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	var item models.Item
	if err := s.db.WithContext(ctx).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, &Error{Op: "select", Table: "items", Err: err}
	}
	return &item, nil
}

func (s *Store) GetItemByName(ctx context.Context, name string) (*models.Item, error) {
	var item models.Item
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, &Error{Op: "select", Table: "items", Err: err}
	}
	return &item, nil
}

func (s *Store) ListItems(ctx context.Context) ([]models.Item, error) {
	var items []models.Item
	if err := s.db.WithContext(ctx).Order("id").Find(&items).Error; err != nil {
		return nil, &Error{Op: "select", Table: "items", Err: err}
	}
	return items, nil
}

func (s *Store) UpdateItemStock(ctx context.Context, id int64, stock int) error {
	res := s.db.WithContext(ctx).Model(&models.Item{}).Where("id = ?", id).Update("stock", stock)
	if res.Error != nil {
		return &Error{Op: "update", Table: "items", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteItem(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&models.Item{}, id)
	if res.Error != nil {
		return &Error{Op: "delete", Table: "items", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
