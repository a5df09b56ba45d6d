package shop

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/example/shopbot/pkg/access"
	"github.com/example/shopbot/pkg/models"
	"github.com/example/shopbot/pkg/store"
)

// Catalog administration. Items are only ever changed through these
// admin operations; in particular nothing here or in the order path
// decrements stock automatically.

func (e *Engine) AddItem(ctx context.Context, actor access.Actor, name string, price float64, stock int, description, driveLink string) (*models.Item, error) {
	if !e.policy.IsAdmin(actor) {
		return nil, ErrPermissionDenied
	}
	if name == "" || price < 0 || stock < 0 {
		return nil, ErrInvalidArgument
	}

	item := &models.Item{
		Name:        name,
		Price:       price,
		Stock:       stock,
		Description: description,
		DriveLink:   driveLink,
		CreatedAt:   time.Now(),
	}
	if err := e.store.CreateItem(ctx, item); err != nil {
		return nil, err
	}

	e.logger.Info("Item added",
		zap.Int64("item_id", item.ID),
		zap.String("name", name),
		zap.Float64("price", price),
		zap.Int("stock", stock))
	e.auditOrder("add_item", actor.UserID, item.ID, bson.M{"name": name, "price": price})

	return item, nil
}

func (e *Engine) UpdateItemStock(ctx context.Context, actor access.Actor, itemID int64, stock int) error {
	if !e.policy.IsAdmin(actor) {
		return ErrPermissionDenied
	}
	if stock < 0 {
		return ErrInvalidArgument
	}

	if err := e.store.UpdateItemStock(ctx, itemID, stock); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	e.logger.Info("Item stock updated", zap.Int64("item_id", itemID), zap.Int("stock", stock))
	e.auditOrder("update_stock", actor.UserID, itemID, bson.M{"stock": stock})
	return nil
}

func (e *Engine) RemoveItem(ctx context.Context, actor access.Actor, itemID int64) error {
	if !e.policy.IsAdmin(actor) {
		return ErrPermissionDenied
	}

	if err := e.store.DeleteItem(ctx, itemID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	e.logger.Info("Item removed", zap.Int64("item_id", itemID))
	e.auditOrder("remove_item", actor.UserID, itemID, nil)
	return nil
}

func (e *Engine) ListItems(ctx context.Context) ([]models.Item, error) {
	return e.store.ListItems(ctx)
}

func (e *Engine) GetItem(ctx context.Context, itemID int64) (*models.Item, error) {
	item, err := e.store.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return item, nil
}
