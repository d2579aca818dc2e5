package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	InviteStatusPending   = "pending"
	InviteStatusAccepted  = "accepted"
	InviteStatusDeclined  = "declined"
	InviteStatusWithdrawn = "withdrawn"
)

// InviteTTL is how long an invitation stays redeemable. The expires_at
// field also carries a TTL index so the store removes stale documents
// on its own.
const InviteTTL = 7 * 24 * time.Hour

type Invite struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TeamID    primitive.ObjectID `bson:"team_id" json:"team_id"`
	Email     string             `bson:"email" json:"email"`
	Token     string             `bson:"token" json:"-"`
	Status    string             `bson:"status" json:"status"`
	InviterID primitive.ObjectID `bson:"inviter_id" json:"inviter_id"`
	ExpiresAt time.Time          `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// InvitePreview is what an unauthenticated invitee sees when following
// the invite link, before deciding to register or log in.
type InvitePreview struct {
	TeamName    string    `json:"team_name"`
	InviterName string    `json:"inviter_name"`
	Email       string    `json:"email"`
	Status      string    `json:"status"`
	ExpiresAt   time.Time `json:"expires_at"`
}
