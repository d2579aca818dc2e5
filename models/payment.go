package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

const (
	PaymentMethodDummy = "dummy"
	PaymentMethodCard  = "card"
	PaymentMethodUPI   = "upi"
)

type Payment struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EventID       primitive.ObjectID `bson:"event_id" json:"event_id"`
	UserID        primitive.ObjectID `bson:"user_id" json:"user_id"`
	Amount        float64            `bson:"amount" json:"amount"`
	Currency      string             `bson:"currency" json:"currency"`
	Method        string             `bson:"method" json:"method"`
	Status        string             `bson:"status" json:"status"`
	TransactionID string             `bson:"transaction_id,omitempty" json:"transaction_id,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}

func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodDummy, PaymentMethodCard, PaymentMethodUPI:
		return true
	}
	return false
}
