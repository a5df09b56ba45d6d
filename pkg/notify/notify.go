// Package notify delivers outbound messages to buyers. Delivery runs
// through a single actor so that every send is serialized and bounded
// by a timeout; a recipient that cannot be reached costs one timeout,
// not a wedged scan.
package notify

import (
	"fmt"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

// Messenger is the chat facade's message-send capability, keyed by
// user identity.
type Messenger interface {
	SendMessage(userID int64, content string) error
}

// SendReminder asks the notification actor to deliver one message.
type SendReminder struct {
	UserID  int64
	Content string
}

type DeliveryResult struct {
	Success bool
	Error   string
}

// NotificationActor wraps a Messenger behind the actor mailbox.
type NotificationActor struct {
	messenger Messenger
	logger    *zap.Logger
}

func (a *NotificationActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *SendReminder:
		if err := a.messenger.SendMessage(msg.UserID, msg.Content); err != nil {
			a.logger.Warn("Delivery failed",
				zap.Int64("user_id", msg.UserID),
				zap.Error(err))
			ctx.Respond(&DeliveryResult{Success: false, Error: err.Error()})
			return
		}
		ctx.Respond(&DeliveryResult{Success: true})

	case *actor.Started:
		a.logger.Info("Notification actor started")

	case *actor.Stopped:
		a.logger.Info("Notification actor stopped")
	}
}

// ActorDeliverer is the synchronous face of the notification actor:
// Deliver blocks until the send finishes or the timeout fires.
type ActorDeliverer struct {
	system  *actor.ActorSystem
	pid     *actor.PID
	timeout time.Duration
}

func NewActorDeliverer(system *actor.ActorSystem, messenger Messenger, logger *zap.Logger, timeout time.Duration) (*ActorDeliverer, error) {
	props := actor.PropsFromProducer(func() actor.Actor {
		return &NotificationActor{
			messenger: messenger,
			logger:    logger.Named("notification-actor"),
		}
	})
	pid, err := system.Root.SpawnNamed(props, "notification-actor")
	if err != nil {
		return nil, fmt.Errorf("failed to spawn notification actor: %w", err)
	}

	return &ActorDeliverer{system: system, pid: pid, timeout: timeout}, nil
}

func (d *ActorDeliverer) Deliver(userID int64, content string) error {
	future := d.system.Root.RequestFuture(d.pid, &SendReminder{UserID: userID, Content: content}, d.timeout)
	res, err := future.Result()
	if err != nil {
		return fmt.Errorf("delivery timed out: %w", err)
	}

	result, ok := res.(*DeliveryResult)
	if !ok {
		return fmt.Errorf("unexpected delivery response %T", res)
	}
	if !result.Success {
		return fmt.Errorf("delivery failed: %s", result.Error)
	}
	return nil
}

func (d *ActorDeliverer) Stop() {
	d.system.Root.Stop(d.pid)
}
