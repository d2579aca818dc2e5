package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	NotificationTeamInvite    = "team_invite"
	NotificationEventApproved = "event_approved"
	NotificationEventRejected = "event_rejected"
)

// NotificationPayload carries the ids a client needs to act on the
// notification. Which fields are set depends on Type.
type NotificationPayload struct {
	TeamID   primitive.ObjectID `bson:"team_id,omitempty" json:"team_id,omitempty"`
	EventID  primitive.ObjectID `bson:"event_id,omitempty" json:"event_id,omitempty"`
	InviteID primitive.ObjectID `bson:"invite_id,omitempty" json:"invite_id,omitempty"`
}

type Notification struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	RecipientID primitive.ObjectID  `bson:"recipient_id" json:"recipient_id"`
	SenderID    primitive.ObjectID  `bson:"sender_id,omitempty" json:"sender_id,omitempty"`
	Type        string              `bson:"type" json:"type"`
	Title       string              `bson:"title" json:"title"`
	Message     string              `bson:"message,omitempty" json:"message,omitempty"`
	Payload     NotificationPayload `bson:"payload,omitempty" json:"payload,omitempty"`
	IsRead      bool                `bson:"is_read" json:"is_read"`
	// IsAccepted is nil while the notification is unresolved.
	IsAccepted *bool     `bson:"is_accepted" json:"is_accepted"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
}
