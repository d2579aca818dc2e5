package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	config "github.com/huddle/eventify-go/config"
	models "github.com/huddle/eventify-go/models"
	"github.com/huddle/eventify-go/outbox"
	utils "github.com/huddle/eventify-go/utils"
)

// ---------------- CREATE ----------------
func CreateInvite(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("user_id")
		inviterID, err := primitive.ObjectIDFromHex(uid)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}

		teamID, err := primitive.ObjectIDFromHex(c.Param("teamId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid team id"})
			return
		}

		var input struct {
			Email string `json:"email" binding:"required,email"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		email := strings.ToLower(strings.TrimSpace(input.Email))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		db := cfg.DB()

		var team models.Team
		if err := db.Collection("teams").FindOne(ctx, bson.M{"_id": teamID}).Decode(&team); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "team not found"})
			return
		}

		if team.OwnerID != inviterID {
			c.JSON(http.StatusForbidden, gin.H{"error": "only the team owner can invite"})
			return
		}

		if team.IsFull() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "team is full"})
			return
		}

		// At most one active invite per (team, email).
		now := time.Now()
		count, err := db.Collection("invites").CountDocuments(ctx, bson.M{
			"team_id":    teamID,
			"email":      email,
			"status":     models.InviteStatusPending,
			"expires_at": bson.M{"$gt": now},
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not check existing invites"})
			return
		}
		if count > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "an active invite for this email already exists"})
			return
		}

		// If the address already belongs to a member there is nothing to invite.
		var invitee models.User
		inviteeErr := db.Collection("users").FindOne(ctx, bson.M{"email": email}).Decode(&invitee)
		if inviteeErr == nil && team.HasMember(invitee.ID) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "already a member"})
			return
		}

		token, err := utils.NewInviteToken()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create invite"})
			return
		}

		invite := models.Invite{
			ID:        primitive.NewObjectID(),
			TeamID:    teamID,
			Email:     email,
			Token:     token,
			Status:    models.InviteStatusPending,
			InviterID: inviterID,
			ExpiresAt: now.Add(models.InviteTTL),
			CreatedAt: now,
			UpdatedAt: now,
		}

		if _, err := db.Collection("invites").InsertOne(ctx, invite); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create invite"})
			return
		}

		var inviter models.User
		_ = db.Collection("users").FindOne(ctx, bson.M{"_id": inviterID}).Decode(&inviter)

		// The email goes through the outbox; a delivery failure is
		// recorded there, not surfaced on this request.
		link := fmt.Sprintf("%s/invites/%s", cfg.AppBaseURL, token)
		body := utils.InviteEmailBody(team.Name, inviter.Name, link, invite.ExpiresAt)
		if err := outbox.EnqueueEmail(ctx, cfg, email, "You're invited to join "+team.Name, body); err != nil {
			log.Error().Err(err).Str("invite", invite.ID.Hex()).Msg("could not enqueue invite email")
		}

		// Known users also get an in-app notification tied to the invite.
		if inviteeErr == nil {
			notif := models.Notification{
				ID:          primitive.NewObjectID(),
				RecipientID: invitee.ID,
				SenderID:    inviterID,
				Type:        models.NotificationTeamInvite,
				Title:       "Team invitation",
				Message:     fmt.Sprintf("%s invited you to join %s", inviter.Name, team.Name),
				Payload: models.NotificationPayload{
					TeamID:   teamID,
					InviteID: invite.ID,
				},
				CreatedAt: now,
				UpdatedAt: now,
			}
			if _, err := db.Collection("notifications").InsertOne(ctx, notif); err != nil {
				log.Error().Err(err).Str("invite", invite.ID.Hex()).Msg("could not create invite notification")
			}
		}

		c.JSON(http.StatusCreated, gin.H{
			"id":         invite.ID.Hex(),
			"token":      token,
			"expires_at": invite.ExpiresAt,
			"message":    "invite sent",
		})
	}
}

// ---------------- PREVIEW ----------------
func GetInviteByToken(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Param("token")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		db := cfg.DB()

		var invite models.Invite
		err := db.Collection("invites").FindOne(ctx, bson.M{
			"token":      token,
			"status":     models.InviteStatusPending,
			"expires_at": bson.M{"$gt": time.Now()},
		}).Decode(&invite)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "invite not found or expired"})
			return
		}

		var team models.Team
		if err := db.Collection("teams").FindOne(ctx, bson.M{"_id": invite.TeamID}).Decode(&team); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "team not found"})
			return
		}

		var inviter models.User
		_ = db.Collection("users").FindOne(ctx, bson.M{"_id": invite.InviterID}).Decode(&inviter)

		c.JSON(http.StatusOK, models.InvitePreview{
			TeamName:    team.Name,
			InviterName: inviter.Name,
			Email:       invite.Email,
			Status:      invite.Status,
			ExpiresAt:   invite.ExpiresAt,
		})
	}
}

// redeemInvite is the single redemption path shared by token accept,
// register-and-join, and notification accept. The status flip uses a
// filter on {pending, unexpired}, so a token redeems at most once: the
// loser of a concurrent race sees no match and reports not-found.
func redeemInvite(ctx context.Context, cfg *config.Config, invite *models.Invite, user *models.User) (int, error) {
	db := cfg.DB()

	if !strings.EqualFold(user.Email, invite.Email) {
		return http.StatusForbidden, fmt.Errorf("invite was issued to a different email")
	}

	var team models.Team
	if err := db.Collection("teams").FindOne(ctx, bson.M{"_id": invite.TeamID}).Decode(&team); err != nil {
		return http.StatusNotFound, fmt.Errorf("team not found")
	}

	if team.HasMember(user.ID) {
		return http.StatusBadRequest, fmt.Errorf("already a member")
	}
	if team.IsFull() {
		return http.StatusBadRequest, fmt.Errorf("team is full")
	}

	res := db.Collection("invites").FindOneAndUpdate(ctx,
		bson.M{
			"_id":        invite.ID,
			"status":     models.InviteStatusPending,
			"expires_at": bson.M{"$gt": time.Now()},
		},
		bson.M{"$set": bson.M{"status": models.InviteStatusAccepted, "updated_at": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if res.Err() != nil {
		return http.StatusNotFound, fmt.Errorf("invite not found or expired")
	}

	ok, err := addTeamMember(ctx, cfg, team.ID, user.ID, team.MaxSize)
	if err != nil {
		return http.StatusInternalServerError, fmt.Errorf("could not join team")
	}
	if !ok {
		return http.StatusBadRequest, fmt.Errorf("team is full")
	}

	// Resolve the linked notification, if one was created.
	accepted := true
	_, _ = db.Collection("notifications").UpdateOne(ctx,
		bson.M{"payload.invite_id": invite.ID, "recipient_id": user.ID},
		bson.M{"$set": bson.M{"is_accepted": accepted, "is_read": true, "updated_at": time.Now()}})

	return http.StatusOK, nil
}

// findPendingInvite loads an unexpired pending invite by token.
func findPendingInvite(ctx context.Context, cfg *config.Config, token string) (*models.Invite, error) {
	var invite models.Invite
	err := cfg.DB().Collection("invites").FindOne(ctx, bson.M{
		"token":      token,
		"status":     models.InviteStatusPending,
		"expires_at": bson.M{"$gt": time.Now()},
	}).Decode(&invite)
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

// ---------------- ACCEPT (logged-in) ----------------
func AcceptInvite(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("user_id")
		userID, err := primitive.ObjectIDFromHex(uid)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		invite, err := findPendingInvite(ctx, cfg, c.Param("token"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "invite not found or expired"})
			return
		}

		var user models.User
		if err := cfg.DB().Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}

		if status, err := redeemInvite(ctx, cfg, invite, &user); err != nil {
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "invite accepted", "team_id": invite.TeamID.Hex()})
	}
}

// ---------------- REGISTER AND JOIN ----------------
func JoinWithInvite(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input registerInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		invite, err := findPendingInvite(ctx, cfg, c.Param("token"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "invite not found or expired"})
			return
		}

		// Registration is bound to the invited address.
		input.Email = invite.Email

		user, status, err := createUser(ctx, cfg, input)
		if err != nil {
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		if status, err := redeemInvite(ctx, cfg, invite, user); err != nil {
			// The account exists either way; the invite problem is reported.
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		token, err := utils.IssueToken(cfg, user.ID.Hex(), user.Email, user.Role)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"token":   token,
			"user":    user,
			"team_id": invite.TeamID.Hex(),
			"message": "registered and joined team",
		})
	}
}

// ---------------- WITHDRAW ----------------
func WithdrawInvite(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		requesterID := c.GetString("user_id")

		inviteID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invite id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		col := cfg.DB().Collection("invites")

		var invite models.Invite
		if err := col.FindOne(ctx, bson.M{"_id": inviteID}).Decode(&invite); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "invite not found"})
			return
		}

		if role != models.RoleAdmin && invite.InviterID.Hex() != requesterID {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}

		if invite.Status != models.InviteStatusPending {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invite already resolved"})
			return
		}

		_, err = col.UpdateOne(ctx, bson.M{"_id": inviteID},
			bson.M{"$set": bson.M{"status": models.InviteStatusWithdrawn, "updated_at": time.Now()}})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not withdraw invite"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "invite withdrawn", "id": inviteID.Hex()})
	}
}

// ---------------- LIST (per team) ----------------
func ListTeamInvites(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		requesterID := c.GetString("user_id")

		teamID, err := primitive.ObjectIDFromHex(c.Param("teamId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid team id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		var team models.Team
		if err := cfg.DB().Collection("teams").FindOne(ctx, bson.M{"_id": teamID}).Decode(&team); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "team not found"})
			return
		}

		if role != models.RoleAdmin && team.OwnerID.Hex() != requesterID {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}

		cursor, err := cfg.DB().Collection("invites").Find(ctx, bson.M{"team_id": teamID})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch invites"})
			return
		}

		var invites []models.Invite
		if err := cursor.All(ctx, &invites); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not decode invites"})
			return
		}
		if invites == nil {
			invites = []models.Invite{}
		}

		c.JSON(http.StatusOK, invites)
	}
}
