package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Team struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name        string               `bson:"name" json:"name"`
	Description string               `bson:"description,omitempty" json:"description,omitempty"`
	OwnerID     primitive.ObjectID   `bson:"owner_id" json:"owner_id"`
	LeaderID    primitive.ObjectID   `bson:"leader_id" json:"leader_id"`
	Members     []primitive.ObjectID `bson:"members" json:"members"`
	MaxSize     int                  `bson:"max_size,omitempty" json:"max_size,omitempty"`
	CreatedAt   time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time            `bson:"updated_at" json:"updated_at"`
}

// HasMember does a linear scan of the member list; the list is small
// (bounded by MaxSize) so no index is kept.
func (t *Team) HasMember(userID primitive.ObjectID) bool {
	for _, m := range t.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// IsFull reports whether the team has reached its size hint.
// A zero MaxSize means unlimited.
func (t *Team) IsFull() bool {
	return t.MaxSize > 0 && len(t.Members) >= t.MaxSize
}
