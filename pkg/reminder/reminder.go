// Package reminder implements the payment reconciliation loop: a
// periodic scan over unpaid orders that nudges each buyer to pay.
// The loop observes only — every order mutation happens through the
// order engine on explicit admin or buyer action.
package reminder

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/example/shopbot/pkg/models"
	"github.com/example/shopbot/pkg/store"
)

// UserResolver is the facade's user-lookup capability. A false return
// means the purchasing identity is unknown or unreachable right now;
// the order is skipped this tick, not treated as an error.
type UserResolver interface {
	ResolveUser(userID int64) bool
}

// Deliverer sends one rendered reminder. Implementations are expected
// to bound the send with a timeout.
type Deliverer interface {
	Deliver(userID int64, content string) error
}

type Loop struct {
	store          *store.Store
	resolver       UserResolver
	deliverer      Deliverer
	interval       time.Duration
	paymentAddress string
	logger         *zap.Logger

	inFlight atomic.Bool
}

func NewLoop(st *store.Store, resolver UserResolver, deliverer Deliverer, interval time.Duration, paymentAddress string, logger *zap.Logger) *Loop {
	return &Loop{
		store:          st,
		resolver:       resolver,
		deliverer:      deliverer,
		interval:       interval,
		paymentAddress: paymentAddress,
		logger:         logger,
	}
}

// Start launches the loop. It runs until ctx is cancelled. If a scan
// is still in flight when the next tick fires, that tick is skipped —
// scans never overlap and never queue.
func (l *Loop) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(l.interval)
		defer ticker.Stop()

		l.logger.Info("Payment reminder loop started",
			zap.Duration("interval", l.interval))

		for {
			select {
			case <-ctx.Done():
				l.logger.Info("Payment reminder loop stopped")
				return
			case <-ticker.C:
				if !l.inFlight.CompareAndSwap(false, true) {
					l.logger.Warn("Previous scan still running, skipping tick")
					continue
				}
				go func() {
					defer l.inFlight.Store(false)
					l.Scan(ctx)
				}()
			}
		}
	}()
}

// Scan walks every pending unpaid order once and attempts a reminder
// per order. Failures are per-order: an unreachable user or a failed
// send is logged and counted, and the scan moves on. A store failure
// ends this scan only; the loop tries again next tick.
func (l *Loop) Scan(ctx context.Context) {
	orders, err := l.store.ListPendingUnpaid(ctx)
	if err != nil {
		l.logger.Error("Failed to list pending orders", zap.Error(err))
		return
	}
	if len(orders) == 0 {
		return
	}

	var sent, skipped, failed int
	for i := range orders {
		order := &orders[i]

		if !l.resolver.ResolveUser(order.UserID) {
			skipped++
			continue
		}

		if err := l.deliverer.Deliver(order.UserID, l.renderReminder(order)); err != nil {
			l.logger.Warn("Reminder delivery failed",
				zap.Int64("order_id", order.ID),
				zap.Int64("user_id", order.UserID),
				zap.Error(err))
			failed++
			continue
		}
		sent++
	}

	l.logger.Info("Payment reminder scan complete",
		zap.Int("pending", len(orders)),
		zap.Int("sent", sent),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed))
}

func (l *Loop) renderReminder(order *models.Order) string {
	return fmt.Sprintf(
		"Payment Reminder\n"+
			"Order ID: #%d\n"+
			"Amount Due: $%.2f\n"+
			"Please send %.2f LTC to: %s\n"+
			"After sending payment, submit your confirmation key (confirm <key>) to notify us.",
		order.ID, order.TotalPrice, order.LTCAmount, l.paymentAddress)
}
