// Package notify hands email notifications to an out-of-process worker
// through a Redis list. Dispatch is fire-and-forget: a full or unreachable
// queue is logged and never fails the calling request.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Queue is the Redis list the mail worker consumes with BRPOP.
const Queue = "notifications:email"

type Email struct {
	To      string    `json:"to"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Queued  time.Time `json:"queued_at"`
}

type Notifier interface {
	SendEmail(ctx context.Context, email Email)
}

type EmailNotifier struct {
	client *redis.Client
	logger *zap.Logger
}

func NewEmailNotifier(redisURL string, logger *zap.Logger) (*EmailNotifier, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &EmailNotifier{client: redis.NewClient(opts), logger: logger}, nil
}

// NewEmailNotifierFromClient wires an existing client (tests).
func NewEmailNotifierFromClient(client *redis.Client, logger *zap.Logger) *EmailNotifier {
	return &EmailNotifier{client: client, logger: logger}
}

// SendEmail enqueues the email. The caller's request must not block on the
// mail path, so the push gets its own short deadline detached from the
// request context.
func (n *EmailNotifier) SendEmail(ctx context.Context, email Email) {
	email.Queued = time.Now().UTC()

	payload, err := json.Marshal(email)
	if err != nil {
		n.logger.Error("marshal email job", zap.Error(err))
		return
	}

	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	if err := n.client.LPush(pushCtx, Queue, payload).Err(); err != nil {
		n.logger.Error("enqueue email notification",
			zap.String("to", email.To),
			zap.Error(err),
		)
		return
	}

	n.logger.Debug("email notification queued", zap.String("to", email.To))
}

func (n *EmailNotifier) Close() error {
	return n.client.Close()
}
