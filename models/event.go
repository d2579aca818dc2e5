package models

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	EventStatusPending       = "pending"
	EventStatusApproved      = "approved"
	EventStatusRejected      = "rejected"
	EventStatusEditedPending = "edited_pending"
)

// TeamRequirements is the per-team gender quota an organizer may set.
type TeamRequirements struct {
	Girls int `bson:"girls" json:"girls"`
	Boys  int `bson:"boys" json:"boys"`
}

func (tr TeamRequirements) Total() int {
	return tr.Girls + tr.Boys
}

// PrizeSplit is one rank's share of the prize pool.
type PrizeSplit struct {
	Rank   int     `bson:"rank" json:"rank"`
	Amount float64 `bson:"amount" json:"amount"`
}

type PrizePool struct {
	Total        float64      `bson:"total" json:"total"`
	Currency     string       `bson:"currency,omitempty" json:"currency,omitempty"`
	Distribution []PrizeSplit `bson:"distribution,omitempty" json:"distribution,omitempty"`
}

// EventChanges is the typed shadow copy of the editable fields of an
// approved event. While an event sits in edited_pending, the published
// fields stay live and this draft waits for re-approval.
type EventChanges struct {
	Title            string            `bson:"title,omitempty" json:"title,omitempty"`
	Description      string            `bson:"description,omitempty" json:"description,omitempty"`
	Location         string            `bson:"location,omitempty" json:"location,omitempty"`
	Date             *time.Time        `bson:"date,omitempty" json:"date,omitempty"`
	Price            *float64          `bson:"price,omitempty" json:"price,omitempty"`
	MaxParticipants  *int              `bson:"max_participants,omitempty" json:"max_participants,omitempty"`
	TeamRequirements *TeamRequirements `bson:"team_requirements,omitempty" json:"team_requirements,omitempty"`
	PrizePool        *PrizePool        `bson:"prize_pool,omitempty" json:"prize_pool,omitempty"`
	Images           []string          `bson:"images,omitempty" json:"images,omitempty"`
}

// EditHistoryEntry records one edit submission for the audit trail.
type EditHistoryEntry struct {
	EditedBy primitive.ObjectID `bson:"edited_by" json:"edited_by"`
	EditedAt time.Time          `bson:"edited_at" json:"edited_at"`
	Changes  EventChanges       `bson:"changes" json:"changes"`
}

type Event struct {
	ID               primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	OrganizerID      primitive.ObjectID   `bson:"organizer_id" json:"organizer_id"`
	Title            string               `bson:"title" json:"title"`
	Description      string               `bson:"description,omitempty" json:"description,omitempty"`
	Location         string               `bson:"location,omitempty" json:"location,omitempty"`
	Date             *time.Time           `bson:"date,omitempty" json:"date,omitempty"`
	Price            float64              `bson:"price,omitempty" json:"price,omitempty"`
	MaxParticipants  int                  `bson:"max_participants,omitempty" json:"max_participants,omitempty"`
	Participants     []primitive.ObjectID `bson:"participants" json:"participants"`
	TeamRequirements *TeamRequirements    `bson:"team_requirements,omitempty" json:"team_requirements,omitempty"`
	PrizePool        *PrizePool           `bson:"prize_pool,omitempty" json:"prize_pool,omitempty"`
	Images           []string             `bson:"images" json:"images"`

	// Approval workflow. PendingChanges is set only while Status is
	// edited_pending; ApprovedBy/ApprovedAt only while approved;
	// RejectionReason only while rejected.
	Status          string              `bson:"status" json:"status"`
	PendingChanges  *EventChanges       `bson:"pending_changes,omitempty" json:"pending_changes,omitempty"`
	EditHistory     []EditHistoryEntry  `bson:"edit_history,omitempty" json:"edit_history,omitempty"`
	ApprovedBy      *primitive.ObjectID `bson:"approved_by,omitempty" json:"approved_by,omitempty"`
	ApprovedAt      *time.Time          `bson:"approved_at,omitempty" json:"approved_at,omitempty"`
	RejectionReason string              `bson:"rejection_reason,omitempty" json:"rejection_reason,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

var (
	ErrQuotaExceedsCapacity = errors.New("team requirements exceed max participants")
	ErrPrizeOverDistributed = errors.New("prize distribution exceeds total pool")
)

// Validate enforces the write-time business rules on an event document.
// It must pass before insert and again before applying pending changes.
func (e *Event) Validate() error {
	if e.TeamRequirements != nil && e.MaxParticipants > 0 &&
		e.TeamRequirements.Total() > e.MaxParticipants {
		return ErrQuotaExceedsCapacity
	}
	if e.PrizePool != nil {
		var sum float64
		for _, s := range e.PrizePool.Distribution {
			sum += s.Amount
		}
		if sum > e.PrizePool.Total {
			return ErrPrizeOverDistributed
		}
	}
	return nil
}

// CanModerate reports whether an admin decision (approve or reject) is
// valid from the event's current status.
func (e *Event) CanModerate() bool {
	return e.Status == EventStatusPending || e.Status == EventStatusEditedPending
}

// ApplyChanges folds the pending draft into the published fields.
// Unset draft fields keep their published values.
func (e *Event) ApplyChanges(ch *EventChanges) {
	if ch == nil {
		return
	}
	if ch.Title != "" {
		e.Title = ch.Title
	}
	if ch.Description != "" {
		e.Description = ch.Description
	}
	if ch.Location != "" {
		e.Location = ch.Location
	}
	if ch.Date != nil {
		e.Date = ch.Date
	}
	if ch.Price != nil {
		e.Price = *ch.Price
	}
	if ch.MaxParticipants != nil {
		e.MaxParticipants = *ch.MaxParticipants
	}
	if ch.TeamRequirements != nil {
		e.TeamRequirements = ch.TeamRequirements
	}
	if ch.PrizePool != nil {
		e.PrizePool = ch.PrizePool
	}
	if len(ch.Images) > 0 {
		e.Images = ch.Images
	}
}

// HasParticipant does a linear scan; participant lists are capped by
// MaxParticipants.
func (e *Event) HasParticipant(userID primitive.ObjectID) bool {
	for _, p := range e.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

func (e *Event) IsFull() bool {
	return e.MaxParticipants > 0 && len(e.Participants) >= e.MaxParticipants
}
