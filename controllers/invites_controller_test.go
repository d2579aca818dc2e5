package controllers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	models "github.com/huddle/eventify-go/models"
)

func TestInviteLifecycle_RegisterAndJoin(t *testing.T) {
	cfg, r, fx := newTestServer(t)
	ctx, cancel := testContext()
	defer cancel()

	owner := fx.CreateUser(ctx, "Organizer A", "a@x.com", "orga", "organizer")
	team := fx.CreateTeam(ctx, "Team T", owner, 0)

	// owner sends the invite
	rec := doJSON(t, r, http.MethodPost, "/api/invites/teams/"+team.ID.Hex()+"/invite",
		fx.Token(owner), map[string]string{"email": "b@x.com"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Token string `json:"token"`
	}
	decodeBody(t, rec, &created)
	require.NotEmpty(t, created.Token)

	// a second invite for the same address is rejected while this one is live
	rec = doJSON(t, r, http.MethodPost, "/api/invites/teams/"+team.ID.Hex()+"/invite",
		fx.Token(owner), map[string]string{"email": "b@x.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// invitee previews, then registers through the token
	rec = doJSON(t, r, http.MethodGet, "/api/invites/"+created.Token, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/api/invites/"+created.Token+"/join", "", map[string]string{
		"name":     "New B",
		"email":    "ignored@x.com", // bound to the invited address server-side
		"username": "newb",
		"password": "longenough1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// the team now contains the new user
	var updated models.Team
	err := cfg.DB().Collection("teams").FindOne(ctx, bson.M{"_id": team.ID}).Decode(&updated)
	require.NoError(t, err)
	assert.Len(t, updated.Members, 2)

	var invite models.Invite
	err = cfg.DB().Collection("invites").FindOne(ctx, bson.M{"token": created.Token}).Decode(&invite)
	require.NoError(t, err)
	assert.Equal(t, models.InviteStatusAccepted, invite.Status)

	// the token is spent: a second redemption is filtered out
	rec = doJSON(t, r, http.MethodPost, "/api/invites/"+created.Token+"/join", "", map[string]string{
		"name":     "Another",
		"email":    "c@x.com",
		"username": "another",
		"password": "longenough1",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAcceptInvite_ExpiredToken(t *testing.T) {
	_, r, fx := newTestServer(t)
	ctx, cancel := testContext()
	defer cancel()

	owner := fx.CreateUser(ctx, "Owner", "o@x.com", "owner", "organizer")
	invitee := fx.CreateUser(ctx, "Invitee", "inv@x.com", "invitee", "user")
	team := fx.CreateTeam(ctx, "Stale", owner, 0)

	// already past expiry, status still pending
	invite := fx.CreateInvite(ctx, team, owner, "inv@x.com", time.Now().Add(-time.Hour))

	rec := doJSON(t, r, http.MethodPost, "/api/invites/"+invite.Token+"/accept", fx.Token(invitee), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAcceptInvite_EmailMismatch(t *testing.T) {
	_, r, fx := newTestServer(t)
	ctx, cancel := testContext()
	defer cancel()

	owner := fx.CreateUser(ctx, "Owner", "o@x.com", "owner", "organizer")
	wrongUser := fx.CreateUser(ctx, "Wrong", "wrong@x.com", "wrong", "user")
	team := fx.CreateTeam(ctx, "Picky", owner, 0)

	invite := fx.CreateInvite(ctx, team, owner, "right@x.com", time.Now().Add(time.Hour))

	rec := doJSON(t, r, http.MethodPost, "/api/invites/"+invite.Token+"/accept", fx.Token(wrongUser), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAcceptInvite_AlreadyMember(t *testing.T) {
	cfg, r, fx := newTestServer(t)
	ctx, cancel := testContext()
	defer cancel()

	owner := fx.CreateUser(ctx, "Owner", "o@x.com", "owner", "organizer")
	member := fx.CreateUser(ctx, "Member", "m@x.com", "member", "user")
	team := fx.CreateTeam(ctx, "Crowded", owner, 0)

	_, err := cfg.DB().Collection("teams").UpdateOne(ctx,
		bson.M{"_id": team.ID}, bson.M{"$addToSet": bson.M{"members": member.ID}})
	require.NoError(t, err)

	invite := fx.CreateInvite(ctx, team, owner, "m@x.com", time.Now().Add(time.Hour))

	rec := doJSON(t, r, http.MethodPost, "/api/invites/"+invite.Token+"/accept", fx.Token(member), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateInvite_OnlyOwner(t *testing.T) {
	_, r, fx := newTestServer(t)
	ctx, cancel := testContext()
	defer cancel()

	owner := fx.CreateUser(ctx, "Owner", "o@x.com", "owner", "organizer")
	outsider := fx.CreateUser(ctx, "Outsider", "out@x.com", "outsider", "user")
	team := fx.CreateTeam(ctx, "Guarded", owner, 0)

	rec := doJSON(t, r, http.MethodPost, "/api/invites/teams/"+team.ID.Hex()+"/invite",
		fx.Token(outsider), map[string]string{"email": "someone@x.com"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestWithdrawInvite(t *testing.T) {
	cfg, r, fx := newTestServer(t)
	ctx, cancel := testContext()
	defer cancel()

	owner := fx.CreateUser(ctx, "Owner", "o@x.com", "owner", "organizer")
	team := fx.CreateTeam(ctx, "Fickle", owner, 0)
	invite := fx.CreateInvite(ctx, team, owner, "late@x.com", time.Now().Add(time.Hour))

	rec := doJSON(t, r, http.MethodDelete, "/api/invites/"+invite.ID.Hex(), fx.Token(owner), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var stored models.Invite
	err := cfg.DB().Collection("invites").FindOne(ctx, bson.M{"_id": invite.ID}).Decode(&stored)
	require.NoError(t, err)
	assert.Equal(t, models.InviteStatusWithdrawn, stored.Status)

	// a withdrawn invite no longer previews
	rec = doJSON(t, r, http.MethodGet, "/api/invites/"+invite.Token, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNotificationInviteFlow(t *testing.T) {
	cfg, r, fx := newTestServer(t)
	ctx, cancel := testContext()
	defer cancel()

	owner := fx.CreateUser(ctx, "Owner", "o@x.com", "owner", "organizer")
	invitee := fx.CreateUser(ctx, "Known", "known@x.com", "known", "user")
	team := fx.CreateTeam(ctx, "Sociable", owner, 0)

	// inviting a known address creates a notification
	rec := doJSON(t, r, http.MethodPost, "/api/invites/teams/"+team.ID.Hex()+"/invite",
		fx.Token(owner), map[string]string{"email": "known@x.com"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var notifs []models.Notification
	recList := doJSON(t, r, http.MethodGet, "/api/notifications", fx.Token(invitee), nil)
	require.Equal(t, http.StatusOK, recList.Code)
	decodeBody(t, recList, &notifs)
	require.Len(t, notifs, 1)
	assert.Equal(t, models.NotificationTeamInvite, notifs[0].Type)
	assert.Nil(t, notifs[0].IsAccepted)

	// accepting through the notification joins the team and resolves both records
	rec = doJSON(t, r, http.MethodPost, "/api/notifications/"+notifs[0].ID.Hex()+"/accept",
		fx.Token(invitee), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updatedTeam models.Team
	err := cfg.DB().Collection("teams").FindOne(ctx, bson.M{"_id": team.ID}).Decode(&updatedTeam)
	require.NoError(t, err)
	assert.True(t, updatedTeam.HasMember(invitee.ID))

	var invite models.Invite
	err = cfg.DB().Collection("invites").FindOne(ctx, bson.M{"team_id": team.ID}).Decode(&invite)
	require.NoError(t, err)
	assert.Equal(t, models.InviteStatusAccepted, invite.Status)

	// the notification cannot be acted on twice
	rec = doJSON(t, r, http.MethodPost, "/api/notifications/"+notifs[0].ID.Hex()+"/accept",
		fx.Token(invitee), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeclineNotification(t *testing.T) {
	cfg, r, fx := newTestServer(t)
	ctx, cancel := testContext()
	defer cancel()

	owner := fx.CreateUser(ctx, "Owner", "o@x.com", "owner", "organizer")
	invitee := fx.CreateUser(ctx, "Shy", "shy@x.com", "shy", "user")
	team := fx.CreateTeam(ctx, "Hopeful", owner, 0)

	rec := doJSON(t, r, http.MethodPost, "/api/invites/teams/"+team.ID.Hex()+"/invite",
		fx.Token(owner), map[string]string{"email": "shy@x.com"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var notifs []models.Notification
	recList := doJSON(t, r, http.MethodGet, "/api/notifications", fx.Token(invitee), nil)
	decodeBody(t, recList, &notifs)
	require.Len(t, notifs, 1)

	rec = doJSON(t, r, http.MethodPost, "/api/notifications/"+notifs[0].ID.Hex()+"/decline",
		fx.Token(invitee), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var team2 models.Team
	err := cfg.DB().Collection("teams").FindOne(ctx, bson.M{"_id": team.ID}).Decode(&team2)
	require.NoError(t, err)
	assert.False(t, team2.HasMember(invitee.ID))

	var invite models.Invite
	err = cfg.DB().Collection("invites").FindOne(ctx, bson.M{"team_id": team.ID}).Decode(&invite)
	require.NoError(t, err)
	assert.Equal(t, models.InviteStatusDeclined, invite.Status)
}
