package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/hibiken/asynq"

	"github.com/starlordamit/poponew-sub001/internal/catalog"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeInviteEmail is the task type for delivering invitation emails.
	TaskTypeInviteEmail = "invite:send_email"
	// TaskTypeInviteSweep is the task type for pruning stale invitations.
	TaskTypeInviteSweep = "invite:sweep_expired"
)

// InviteEmailPayload describes an invitation email to deliver. AcceptURL
// embeds the raw token and must stay out of logs.
type InviteEmailPayload struct {
	To        string    `json:"to"`
	Role      string    `json:"role"`
	AcceptURL string    `json:"accept_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewInviteEmailTask constructs an Asynq task.
func NewInviteEmailTask(payload InviteEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeInviteEmail, data), nil
}

// NewInviteEmailHandler processes TaskTypeInviteEmail tasks.
func NewInviteEmailHandler(logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload InviteEmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		// Placeholder: hand off to SMTP/Mailpit once the mail relay lands.
		if logger != nil {
			logger.Info("deliver invite email",
				slog.String("to", payload.To),
				slog.String("role", payload.Role),
				slog.Time("expires_at", payload.ExpiresAt))
		}
		return nil
	}
}

// InvitePruner is the slice of the invitation service the sweep needs.
type InvitePruner interface {
	PruneExpired(ctx context.Context, retention time.Duration) (int64, error)
}

// NewInviteSweepTask constructs the recurring sweep task.
func NewInviteSweepTask() *asynq.Task {
	return asynq.NewTask(TaskTypeInviteSweep, nil)
}

// NewInviteSweepHandler processes TaskTypeInviteSweep tasks: never-used
// invitations expired past retention are removed; used ones are kept as the
// audit trail.
func NewInviteSweepHandler(pruner InvitePruner, retention time.Duration, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		pruned, err := pruner.PruneExpired(ctx, retention)
		if err != nil {
			return err
		}
		if logger != nil && pruned > 0 {
			logger.Info("pruned expired invitations", slog.Int64("count", pruned))
		}
		return nil
	}
}

// Client submits jobs to the queue.
type Client struct {
	client    *asynq.Client
	acceptURL string
}

// NewClient constructs an Asynq client. acceptBase is the public base URL
// of the invitation acceptance page.
func NewClient(redisOpts asynq.RedisClientOpt, acceptBase string) *Client {
	return &Client{client: asynq.NewClient(redisOpts), acceptURL: acceptBase}
}

// EnqueueInviteEmail enqueues an invitation email task.
func (c *Client) EnqueueInviteEmail(ctx context.Context, email, token string, role catalog.Role, expiresAt time.Time) error {
	task, err := NewInviteEmailTask(InviteEmailPayload{
		To:        email,
		Role:      string(role),
		AcceptURL: fmt.Sprintf("%s/invite/%s", c.acceptURL, url.PathEscape(token)),
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}

// Close releases the underlying Asynq client.
func (c *Client) Close() error {
	return c.client.Close()
}
