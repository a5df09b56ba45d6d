package shop

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/example/shopbot/pkg/access"
	"github.com/example/shopbot/pkg/models"
	"github.com/example/shopbot/pkg/repository"
	"github.com/example/shopbot/pkg/store"
)

// Engine owns the order lifecycle: creation, payment confirmation,
// delivery and cancellation. It holds no order state of its own —
// every operation reads and writes the store within its own call, and
// each status transition runs as a single transaction so the
// precondition check and the write commit together.
type Engine struct {
	store  *store.Store
	policy *access.Policy
	cache  *repository.RedisRepository
	audit  *repository.MongoRepository
	logger *zap.Logger
}

// NewEngine wires the engine. cache and audit may be nil; the engine
// is fully functional without them.
func NewEngine(st *store.Store, policy *access.Policy, cache *repository.RedisRepository, audit *repository.MongoRepository, logger *zap.Logger) *Engine {
	return &Engine{
		store:  st,
		policy: policy,
		cache:  cache,
		audit:  audit,
		logger: logger,
	}
}

// CreateOrder places a new order with status pending and a fresh
// confirmation key. Stock is checked but not decremented: the catalog
// reserves nothing at order time, and fulfillment adjusts stock
// explicitly if it needs to.
func (e *Engine) CreateOrder(ctx context.Context, userID, itemID int64, quantity int) (*models.Order, error) {
	if quantity <= 0 {
		return nil, ErrInvalidArgument
	}

	var order *models.Order
	err := e.store.Transaction(ctx, func(tx *store.Store) error {
		banned, err := tx.IsBanned(ctx, userID)
		if err != nil {
			return err
		}
		if banned {
			return ErrBanned
		}

		item, err := tx.GetItem(ctx, itemID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}
		if item.Stock < quantity {
			return ErrInsufficientStock
		}

		total := item.Price * float64(quantity)
		order = &models.Order{
			UserID:          userID,
			ItemID:          itemID,
			Quantity:        quantity,
			TotalPrice:      total,
			LTCAmount:       total,
			Status:          models.StatusPending,
			ConfirmationKey: GenerateConfirmationKey(),
			CreatedAt:       time.Now(),
		}
		return tx.CreateOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Order created",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", userID),
		zap.Int64("item_id", itemID),
		zap.Int("quantity", quantity),
		zap.Float64("total_price", order.TotalPrice))

	e.cacheOrder(ctx, order)
	e.auditOrder("create_order", userID, order.ID, bson.M{
		"item_id":  itemID,
		"quantity": quantity,
		"total":    order.TotalPrice,
	})

	return order, nil
}

// ConfirmPayment marks a pending order as paid. Only administrators
// may call it, and confirming an order twice fails the second time —
// a non-pending order is rejected, never silently re-confirmed.
func (e *Engine) ConfirmPayment(ctx context.Context, orderID int64, actor access.Actor) (*models.Order, error) {
	if !e.policy.IsAdmin(actor) {
		return nil, ErrPermissionDenied
	}

	order, err := e.transition(ctx, orderID, models.StatusPaid, func(o *models.Order) {
		now := time.Now()
		o.PaymentConfirmed = true
		o.PaidAt = &now
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Payment confirmed",
		zap.Int64("order_id", orderID),
		zap.Int64("admin_id", actor.UserID))
	e.auditOrder("confirm_payment", actor.UserID, orderID, bson.M{"status": models.StatusPaid})

	return order, nil
}

// MarkDelivered moves a paid order to delivered.
func (e *Engine) MarkDelivered(ctx context.Context, orderID int64, actor access.Actor) (*models.Order, error) {
	if !e.policy.IsAdmin(actor) {
		return nil, ErrPermissionDenied
	}

	order, err := e.transition(ctx, orderID, models.StatusDelivered, func(o *models.Order) {
		now := time.Now()
		o.DeliveredAt = &now
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Order delivered",
		zap.Int64("order_id", orderID),
		zap.Int64("admin_id", actor.UserID))
	e.auditOrder("mark_delivered", actor.UserID, orderID, bson.M{"status": models.StatusDelivered})

	return order, nil
}

// CancelOrder cancels a pending order. Admins may cancel any order;
// buyers only their own. Paid and delivered orders cannot be
// cancelled through this path.
func (e *Engine) CancelOrder(ctx context.Context, orderID int64, actor access.Actor) (*models.Order, error) {
	var order *models.Order
	err := e.store.Transaction(ctx, func(tx *store.Store) error {
		var err error
		order, err = tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}

		if !e.policy.IsAdmin(actor) && order.UserID != actor.UserID {
			return ErrPermissionDenied
		}
		if !models.CanTransition(order.Status, models.StatusCancelled) {
			return ErrInvalidState
		}

		order.Status = models.StatusCancelled
		return tx.SaveOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Order cancelled",
		zap.Int64("order_id", orderID),
		zap.Int64("actor_id", actor.UserID))
	e.invalidateOrder(ctx, orderID)
	e.auditOrder("cancel_order", actor.UserID, orderID, bson.M{"status": models.StatusCancelled})

	return order, nil
}

// SubmitConfirmationKey records that a buyer claims to have sent
// payment for one of their pending orders. It only stamps the
// submission time; the status stays pending until an administrator
// confirms the payment by hand.
func (e *Engine) SubmitConfirmationKey(ctx context.Context, userID int64, key string) (*models.Order, error) {
	if key == "" {
		return nil, ErrInvalidArgument
	}

	orders, err := e.store.ListUserOrders(ctx, userID)
	if err != nil {
		return nil, err
	}

	for i := range orders {
		o := &orders[i]
		if o.Status != models.StatusPending || o.ConfirmationKey != key {
			continue
		}
		now := time.Now()
		o.KeySubmittedAt = &now
		if err := e.store.SaveOrder(ctx, o); err != nil {
			return nil, err
		}

		e.logger.Info("Confirmation key submitted",
			zap.Int64("order_id", o.ID),
			zap.Int64("user_id", userID))
		e.auditOrder("submit_key", userID, o.ID, bson.M{"key": key})
		return o, nil
	}

	return nil, ErrNotFound
}

// GetOrder returns one order, served from the cache when a copy is
// there and refreshing it otherwise.
func (e *Engine) GetOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	if cached := e.cachedOrder(ctx, orderID); cached != nil {
		return cached, nil
	}

	order, err := e.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	e.cacheOrder(ctx, order)
	return order, nil
}

// OrderAuditTrail returns the recorded transitions for one order,
// newest first. Admin only; without an audit backend attached there
// is no trail to show.
func (e *Engine) OrderAuditTrail(ctx context.Context, orderID int64, actor access.Actor) ([]*repository.AuditLog, error) {
	if !e.policy.IsAdmin(actor) {
		return nil, ErrPermissionDenied
	}
	if e.audit == nil {
		return nil, ErrNotFound
	}
	return e.audit.GetAuditLogs(ctx, orderID, 50)
}

func (e *Engine) ListUserOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	return e.store.ListUserOrders(ctx, userID)
}

func (e *Engine) ListPendingOrders(ctx context.Context, actor access.Actor) ([]models.Order, error) {
	if !e.policy.IsAdmin(actor) {
		return nil, ErrPermissionDenied
	}
	return e.store.ListPendingUnpaid(ctx)
}

// BanUser blocks a user from placing new orders. Their existing
// orders are untouched.
func (e *Engine) BanUser(ctx context.Context, userID int64, reason string, actor access.Actor) error {
	if !e.policy.IsAdmin(actor) {
		return ErrPermissionDenied
	}
	if err := e.store.BanUser(ctx, userID, reason); err != nil {
		return err
	}

	e.logger.Info("User banned",
		zap.Int64("user_id", userID),
		zap.Int64("admin_id", actor.UserID),
		zap.String("reason", reason))
	e.auditOrder("ban_user", actor.UserID, userID, bson.M{"reason": reason})
	return nil
}

func (e *Engine) UnbanUser(ctx context.Context, userID int64, actor access.Actor) error {
	if !e.policy.IsAdmin(actor) {
		return ErrPermissionDenied
	}
	if err := e.store.UnbanUser(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	e.logger.Info("User unbanned",
		zap.Int64("user_id", userID),
		zap.Int64("admin_id", actor.UserID))
	e.auditOrder("unban_user", actor.UserID, userID, nil)
	return nil
}

// transition applies one forward move of the order state machine
// inside a single transaction: lock the row, check the move is legal,
// mutate, save.
func (e *Engine) transition(ctx context.Context, orderID int64, to string, mutate func(*models.Order)) (*models.Order, error) {
	var order *models.Order
	err := e.store.Transaction(ctx, func(tx *store.Store) error {
		var err error
		order, err = tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}

		if !models.CanTransition(order.Status, to) {
			return ErrInvalidState
		}

		order.Status = to
		mutate(order)
		return tx.SaveOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	e.invalidateOrder(ctx, orderID)
	return order, nil
}

// cacheOrder, cachedOrder and invalidateOrder are best effort; a
// cache hiccup must never fail the operation that triggered it.
func (e *Engine) cacheOrder(ctx context.Context, order *models.Order) {
	if e.cache == nil {
		return
	}
	if err := e.cache.CacheOrder(ctx, order); err != nil {
		e.logger.Warn("Failed to cache order", zap.Int64("order_id", order.ID), zap.Error(err))
	}
}

func (e *Engine) cachedOrder(ctx context.Context, orderID int64) *models.Order {
	if e.cache == nil {
		return nil
	}
	order, err := e.cache.GetOrderCache(ctx, orderID)
	if err != nil {
		if !errors.Is(err, repository.ErrCacheMiss) {
			e.logger.Warn("Order cache read failed", zap.Int64("order_id", orderID), zap.Error(err))
		}
		return nil
	}
	return order
}

func (e *Engine) invalidateOrder(ctx context.Context, orderID int64) {
	if e.cache == nil {
		return
	}
	if err := e.cache.InvalidateOrder(ctx, orderID); err != nil {
		e.logger.Warn("Failed to invalidate order cache", zap.Int64("order_id", orderID), zap.Error(err))
	}
}

func (e *Engine) auditOrder(action string, actorID, entityID int64, data bson.M) {
	if e.audit == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := e.audit.CreateAuditLog(ctx, &repository.AuditLog{
			Action:   action,
			ActorID:  actorID,
			EntityID: entityID,
			Data:     data,
		})
		if err != nil {
			e.logger.Warn("Failed to write audit log", zap.String("action", action), zap.Error(err))
		}
	}()
}
