package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestEventValidate_TeamQuota(t *testing.T) {
	tests := []struct {
		name    string
		event   Event
		wantErr error
	}{
		{
			name: "quota within capacity",
			event: Event{
				MaxParticipants:  10,
				TeamRequirements: &TeamRequirements{Girls: 4, Boys: 6},
			},
		},
		{
			name: "quota exceeds capacity",
			event: Event{
				MaxParticipants:  10,
				TeamRequirements: &TeamRequirements{Girls: 6, Boys: 6},
			},
			wantErr: ErrQuotaExceedsCapacity,
		},
		{
			name: "no capacity set means no quota check",
			event: Event{
				TeamRequirements: &TeamRequirements{Girls: 50, Boys: 50},
			},
		},
		{
			name:  "no requirements",
			event: Event{MaxParticipants: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEventValidate_PrizePool(t *testing.T) {
	ok := Event{PrizePool: &PrizePool{
		Total: 1000,
		Distribution: []PrizeSplit{
			{Rank: 1, Amount: 600},
			{Rank: 2, Amount: 400},
		},
	}}
	assert.NoError(t, ok.Validate())

	over := Event{PrizePool: &PrizePool{
		Total: 1000,
		Distribution: []PrizeSplit{
			{Rank: 1, Amount: 700},
			{Rank: 2, Amount: 400},
		},
	}}
	assert.ErrorIs(t, over.Validate(), ErrPrizeOverDistributed)
}

func TestEventCanModerate(t *testing.T) {
	assert.True(t, (&Event{Status: EventStatusPending}).CanModerate())
	assert.True(t, (&Event{Status: EventStatusEditedPending}).CanModerate())
	assert.False(t, (&Event{Status: EventStatusApproved}).CanModerate())
	assert.False(t, (&Event{Status: EventStatusRejected}).CanModerate())
}

func TestEventApplyChanges(t *testing.T) {
	date := time.Date(2026, 9, 12, 18, 0, 0, 0, time.UTC)
	price := 250.0
	maxP := 40

	event := Event{
		Title:           "Spring Cup",
		Description:     "annual tournament",
		Location:        "Hall A",
		Price:           100,
		MaxParticipants: 20,
	}

	event.ApplyChanges(&EventChanges{
		Title:           "Autumn Cup",
		Date:            &date,
		Price:           &price,
		MaxParticipants: &maxP,
	})

	assert.Equal(t, "Autumn Cup", event.Title)
	assert.Equal(t, "annual tournament", event.Description, "unset fields keep published values")
	assert.Equal(t, "Hall A", event.Location)
	assert.Equal(t, 250.0, event.Price)
	assert.Equal(t, 40, event.MaxParticipants)
	require.NotNil(t, event.Date)
	assert.Equal(t, date, *event.Date)

	// nil draft is a no-op
	before := event
	event.ApplyChanges(nil)
	assert.Equal(t, before, event)
}

func TestEventParticipants(t *testing.T) {
	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	event := Event{MaxParticipants: 2, Participants: []primitive.ObjectID{a}}

	assert.True(t, event.HasParticipant(a))
	assert.False(t, event.HasParticipant(b))
	assert.False(t, event.IsFull())

	event.Participants = append(event.Participants, b)
	assert.True(t, event.IsFull())
}
