// Package outbox persists side-effect deliveries (email, SMS) in their
// own collection and ships them from a background dispatcher. The
// request that triggers a notification only inserts a document; whether
// the send later succeeds or fails is recorded on that document instead
// of being swallowed.
package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	config "github.com/huddle/eventify-go/config"
	models "github.com/huddle/eventify-go/models"
)

const collection = "outbox_messages"

// EnqueueEmail records an email for the dispatcher to deliver.
func EnqueueEmail(ctx context.Context, cfg *config.Config, to, subject, body string) error {
	return enqueue(ctx, cfg, models.OutboxKindEmail, to, subject, body)
}

// EnqueueSMS records a text message for the dispatcher to deliver.
func EnqueueSMS(ctx context.Context, cfg *config.Config, mobile, body string) error {
	return enqueue(ctx, cfg, models.OutboxKindSMS, mobile, "", body)
}

func enqueue(ctx context.Context, cfg *config.Config, kind, recipient, subject, body string) error {
	now := time.Now()
	msg := models.OutboxMessage{
		ID:        primitive.NewObjectID(),
		MessageID: uuid.NewString(),
		Kind:      kind,
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		Status:    models.OutboxStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := cfg.DB().Collection(collection).InsertOne(ctx, msg)
	return err
}
