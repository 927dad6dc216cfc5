package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/gatekeeper/gatekeeper/internal/repo"
	"github.com/gatekeeper/gatekeeper/internal/tokens"
)

// Worker consumes email tasks and composes the outgoing mail. Sending is a
// log write: SMTP delivery sits outside this service.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux

	repo   repo.GormRepo
	codec  *tokens.Codec
	logger *slog.Logger

	activationTTL time.Duration
	resetTTL      time.Duration
	sender        string
}

func NewWorker(redisAddr string, rp repo.GormRepo, codec *tokens.Codec,
	activationTTL, resetTTL time.Duration, sender string, logger *slog.Logger) *Worker {

	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr},
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				queueMail: 1,
			},
		},
	)

	w := &Worker{
		server:        server,
		mux:           asynq.NewServeMux(),
		repo:          rp,
		codec:         codec,
		logger:        logger,
		activationTTL: activationTTL,
		resetTTL:      resetTTL,
		sender:        sender,
	}
	w.mux.HandleFunc(TypeActivationEmail, w.handleActivation)
	w.mux.HandleFunc(TypeResetEmail, w.handleReset)
	return w
}

// Start runs the worker in the background.
func (w *Worker) Start() {
	go func() {
		if err := w.server.Run(w.mux); err != nil && !errors.Is(err, asynq.ErrServerClosed) {
			w.logger.Error("mail worker stopped", "error", err)
		}
	}()
}

func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

func (w *Worker) handleActivation(ctx context.Context, task *asynq.Task) error {
	var payload ActivationPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", TypeActivationEmail, err)
	}

	user, err := w.repo.GetUserByID(ctx, payload.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			// Account deleted before the task ran, drop it.
			return nil
		}
		return err
	}
	if user.Active {
		return nil
	}

	token, err := w.codec.Issue(user.ID, w.activationTTL, tokens.KindConfirmation, "")
	if err != nil {
		return err
	}

	w.send(user.Email, "[Gatekeeper] Activate Your Account",
		fmt.Sprintf("Hello %s, confirm your account with token: %s", user.Username, token))
	return nil
}

func (w *Worker) handleReset(ctx context.Context, task *asynq.Task) error {
	var payload ResetPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", TypeResetEmail, err)
	}

	user, err := w.repo.GetUserByEmail(ctx, payload.Email)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			// Reset requested for an unknown address, nothing to send.
			return nil
		}
		return err
	}

	token, err := w.codec.Issue(user.ID, w.resetTTL, tokens.KindReset, "")
	if err != nil {
		return err
	}

	w.send(user.Email, "[Gatekeeper] Reset Your Password",
		fmt.Sprintf("Hello %s, reset your password with token: %s", user.Username, token))
	return nil
}

func (w *Worker) send(recipient, subject, body string) {
	w.logger.Info("sending email",
		"sender", w.sender,
		"recipient", recipient,
		"subject", subject,
		"body", body,
	)
}
