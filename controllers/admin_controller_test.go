package controllers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	models "github.com/huddle/eventify-go/models"
)

func TestAdminRoutesRequireAdmin(t *testing.T) {
	_, r, fx := newTestServer(t)
	ctx, cancel := testContext()
	defer cancel()

	organizer := fx.CreateUser(ctx, "Org", "org@x.com", "org", "organizer")

	rec := doJSON(t, r, http.MethodGet, "/api/admin/users", fx.Token(organizer), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestApproveEvent(t *testing.T) {
	cfg, r, fx := newTestServer(t)
	ctx, cancel := testContext()
	defer cancel()

	admin := fx.CreateUser(ctx, "Admin", "admin@x.com", "admin", "admin")
	organizer := fx.CreateUser(ctx, "Org", "org@x.com", "org", "organizer")
	event := fx.CreateEvent(ctx, "Pending Cup", organizer, models.EventStatusPending, 20)

	rec := doJSON(t, r, http.MethodPost, "/api/admin/events/"+event.ID.Hex()+"/approve", fx.Token(admin), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var stored models.Event
	err := cfg.DB().Collection("events").FindOne(ctx, bson.M{"_id": event.ID}).Decode(&stored)
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusApproved, stored.Status)
	require.NotNil(t, stored.ApprovedBy)
	assert.Equal(t, admin.ID, *stored.ApprovedBy)
	assert.NotNil(t, stored.ApprovedAt)

	// organizer gets a decision notification
	count, err := cfg.DB().Collection("notifications").CountDocuments(ctx, bson.M{
		"recipient_id": organizer.ID,
		"type":         models.NotificationEventApproved,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	// a second approve is rejected outright
	rec = doJSON(t, r, http.MethodPost, "/api/admin/events/"+event.ID.Hex()+"/approve", fx.Token(admin), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApproveEvent_FoldsPendingEdit(t *testing.T) {
	cfg, r, fx := newTestServer(t)
	ctx, cancel := testContext()
	defer cancel()

	admin := fx.CreateUser(ctx, "Admin", "admin@x.com", "admin", "admin")
	organizer := fx.CreateUser(ctx, "Org", "org@x.com", "org", "organizer")
	event := fx.CreateEvent(ctx, "Original Title", organizer, models.EventStatusApproved, 20)

	// an edit to a live event parks as a shadow draft
	rec := doJSON(t, r, http.MethodPatch, "/api/events/"+event.ID.Hex(), fx.Token(organizer), map[string]interface{}{
		"title":    "Renamed Title",
		"location": "New Venue",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var parked models.Event
	err := cfg.DB().Collection("events").FindOne(ctx, bson.M{"_id": event.ID}).Decode(&parked)
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusEditedPending, parked.Status)
	require.NotNil(t, parked.PendingChanges)
	assert.Equal(t, "Renamed Title", parked.PendingChanges.Title)
	assert.Equal(t, "Original Title", parked.Title, "published fields untouched until re-approval")
	assert.Len(t, parked.EditHistory, 1)

	// further edits are blocked while the draft waits
	rec = doJSON(t, r, http.MethodPatch, "/api/events/"+event.ID.Hex(), fx.Token(organizer), map[string]interface{}{
		"title": "Another Rename",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// re-approval publishes the draft
	rec = doJSON(t, r, http.MethodPost, "/api/admin/events/"+event.ID.Hex()+"/approve", fx.Token(admin), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var published models.Event
	err = cfg.DB().Collection("events").FindOne(ctx, bson.M{"_id": event.ID}).Decode(&published)
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusApproved, published.Status)
	assert.Equal(t, "Renamed Title", published.Title)
	assert.Equal(t, "New Venue", published.Location)
	assert.Nil(t, published.PendingChanges)
}

func TestRejectEvent(t *testing.T) {
	cfg, r, fx := newTestServer(t)
	ctx, cancel := testContext()
	defer cancel()

	admin := fx.CreateUser(ctx, "Admin", "admin@x.com", "admin", "admin")
	organizer := fx.CreateUser(ctx, "Org", "org@x.com", "org", "organizer")
	event := fx.CreateEvent(ctx, "Sketchy Event", organizer, models.EventStatusPending, 20)

	// reason is mandatory
	rec := doJSON(t, r, http.MethodPost, "/api/admin/events/"+event.ID.Hex()+"/reject", fx.Token(admin), map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/api/admin/events/"+event.ID.Hex()+"/reject", fx.Token(admin), map[string]interface{}{
		"reason": "missing contact info",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var stored models.Event
	err := cfg.DB().Collection("events").FindOne(ctx, bson.M{"_id": event.ID}).Decode(&stored)
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusRejected, stored.Status)
	assert.Equal(t, "missing contact info", stored.RejectionReason)
	assert.Nil(t, stored.ApprovedBy)
	assert.Nil(t, stored.ApprovedAt)

	count, err := cfg.DB().Collection("notifications").CountDocuments(ctx, bson.M{
		"recipient_id": organizer.ID,
		"type":         models.NotificationEventRejected,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestUpdateUserRole(t *testing.T) {
	cfg, r, fx := newTestServer(t)
	ctx, cancel := testContext()
	defer cancel()

	admin := fx.CreateUser(ctx, "Admin", "admin@x.com", "admin", "admin")
	user := fx.CreateUser(ctx, "Plain", "plain@x.com", "plain", "user")

	rec := doJSON(t, r, http.MethodPatch, "/api/admin/users/"+user.ID.Hex()+"/role", fx.Token(admin), map[string]interface{}{
		"role": "superuser",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodPatch, "/api/admin/users/"+user.ID.Hex()+"/role", fx.Token(admin), map[string]interface{}{
		"role": "organizer",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var stored models.User
	err := cfg.DB().Collection("users").FindOne(ctx, bson.M{"_id": user.ID}).Decode(&stored)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOrganizer, stored.Role)
	assert.NotNil(t, stored.OrganizerProfile, "promotion backfills the organizer sub-profile")
}

func TestAdminDeleteUser_Cascades(t *testing.T) {
	cfg, r, fx := newTestServer(t)
	ctx, cancel := testContext()
	defer cancel()

	admin := fx.CreateUser(ctx, "Admin", "admin@x.com", "admin", "admin")
	organizer := fx.CreateUser(ctx, "Org", "org@x.com", "org", "organizer")
	bystander := fx.CreateUser(ctx, "By", "by@x.com", "by", "user")

	fx.CreateEvent(ctx, "Doomed Event", organizer, models.EventStatusApproved, 0)
	fx.CreateTeam(ctx, "Doomed Team", organizer, 0)
	other := fx.CreateTeam(ctx, "Survivor Team", bystander, 0)

	_, err := cfg.DB().Collection("teams").UpdateOne(ctx,
		bson.M{"_id": other.ID}, bson.M{"$addToSet": bson.M{"members": organizer.ID}})
	require.NoError(t, err)

	rec := doJSON(t, r, http.MethodDelete, "/api/admin/users/"+organizer.ID.Hex(), fx.Token(admin), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	count, err := cfg.DB().Collection("events").CountDocuments(ctx, bson.M{"organizer_id": organizer.ID})
	require.NoError(t, err)
	assert.Zero(t, count)

	count, err = cfg.DB().Collection("teams").CountDocuments(ctx, bson.M{"owner_id": organizer.ID})
	require.NoError(t, err)
	assert.Zero(t, count)

	var survivor models.Team
	err = cfg.DB().Collection("teams").FindOne(ctx, bson.M{"_id": other.ID}).Decode(&survivor)
	require.NoError(t, err)
	assert.NotContains(t, survivor.Members, organizer.ID, "pulled out of teams they did not own")
}
