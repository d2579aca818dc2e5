package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	OutboxKindEmail = "email"
	OutboxKindSMS   = "sms"
)

const (
	OutboxStatusPending = "pending"
	OutboxStatusSent    = "sent"
	OutboxStatusFailed  = "failed"
)

// OutboxMessage is a queued side-effect delivery. Controllers insert
// these in the same request that triggers them; the outbox dispatcher
// picks them up and records the outcome, so a failed send is visible
// and retryable instead of silently dropped.
type OutboxMessage struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MessageID string             `bson:"message_id" json:"message_id"` // stable uuid for log correlation
	Kind      string             `bson:"kind" json:"kind"`
	Recipient string             `bson:"recipient" json:"recipient"`
	Subject   string             `bson:"subject,omitempty" json:"subject,omitempty"`
	Body      string             `bson:"body" json:"body"`
	Status    string             `bson:"status" json:"status"`
	Attempts  int                `bson:"attempts" json:"attempts"`
	LastError string             `bson:"last_error,omitempty" json:"last_error,omitempty"`
	SentAt    *time.Time         `bson:"sent_at,omitempty" json:"sent_at,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
