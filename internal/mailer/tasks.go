package mailer

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/gatekeeper/gatekeeper/internal/logging"
)

const (
	TypeActivationEmail = "email:activation"
	TypeResetEmail      = "email:reset"

	queueMail = "mail"
)

type ActivationPayload struct {
	UserID uint `json:"user_id"`
}

type ResetPayload struct {
	Email string `json:"email"`
}

// Dispatcher enqueues email tasks. Delivery is fire-and-forget: enqueue
// failures are logged and never surfaced to the caller.
type Dispatcher struct {
	client *asynq.Client
}

func NewDispatcher(redisAddr string) *Dispatcher {
	return &Dispatcher{
		client: asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr}),
	}
}

func (d *Dispatcher) DispatchActivationEmail(ctx context.Context, userID uint) {
	d.enqueue(ctx, TypeActivationEmail, ActivationPayload{UserID: userID})
}

func (d *Dispatcher) DispatchResetEmail(ctx context.Context, email string) {
	d.enqueue(ctx, TypeResetEmail, ResetPayload{Email: email})
}

func (d *Dispatcher) enqueue(ctx context.Context, taskType string, payload any) {
	l := logging.FromContext(ctx).With("task", taskType)

	body, err := json.Marshal(payload)
	if err != nil {
		l.Error("enqueue_failed", "error", err)
		return
	}
	task := asynq.NewTask(taskType, body, asynq.Queue(queueMail), asynq.MaxRetry(3))
	if _, err := d.client.EnqueueContext(ctx, task); err != nil {
		l.Error("enqueue_failed", "error", err)
	}
}

func (d *Dispatcher) Close() error {
	return d.client.Close()
}
