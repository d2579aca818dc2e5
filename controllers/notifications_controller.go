package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	config "github.com/huddle/eventify-go/config"
	models "github.com/huddle/eventify-go/models"
)

// ---------------- LIST ----------------
func ListNotifications(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("user_id")
		userID, err := primitive.ObjectIDFromHex(uid)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		filter := bson.M{"recipient_id": userID}
		if c.Query("unread") == "true" {
			filter["is_read"] = false
		}

		cursor, err := cfg.DB().Collection("notifications").Find(ctx, filter,
			options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(100))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch notifications"})
			return
		}

		var notifs []models.Notification
		if err := cursor.All(ctx, &notifs); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not decode notifications"})
			return
		}
		if notifs == nil {
			notifs = []models.Notification{}
		}

		c.JSON(http.StatusOK, notifs)
	}
}

// ---------------- MARK READ ----------------
func MarkNotificationRead(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("user_id")
		userID, err := primitive.ObjectIDFromHex(uid)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}

		notifID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		res, err := cfg.DB().Collection("notifications").UpdateOne(ctx,
			bson.M{"_id": notifID, "recipient_id": userID},
			bson.M{"$set": bson.M{"is_read": true, "updated_at": time.Now()}})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update notification"})
			return
		}
		if res.MatchedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "notification read", "id": notifID.Hex()})
	}
}

// loadActionableNotification fetches a notification owned by the caller
// that is a team invite and still unresolved.
func loadActionableNotification(ctx context.Context, cfg *config.Config, notifID, userID primitive.ObjectID) (*models.Notification, int, string) {
	var notif models.Notification
	err := cfg.DB().Collection("notifications").
		FindOne(ctx, bson.M{"_id": notifID, "recipient_id": userID}).
		Decode(&notif)
	if err != nil {
		return nil, http.StatusNotFound, "notification not found"
	}
	if notif.Type != models.NotificationTeamInvite {
		return nil, http.StatusBadRequest, "notification is not actionable"
	}
	if notif.IsAccepted != nil {
		return nil, http.StatusBadRequest, "notification already resolved"
	}
	return &notif, 0, ""
}

// ---------------- ACCEPT ----------------
// Accepting a team-invite notification delegates to the invite's own
// state machine; there is exactly one source of truth for membership.
func AcceptNotification(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("user_id")
		userID, err := primitive.ObjectIDFromHex(uid)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}

		notifID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		notif, status, msg := loadActionableNotification(ctx, cfg, notifID, userID)
		if notif == nil {
			c.JSON(status, gin.H{"error": msg})
			return
		}

		db := cfg.DB()

		var invite models.Invite
		err = db.Collection("invites").FindOne(ctx, bson.M{
			"_id":        notif.Payload.InviteID,
			"status":     models.InviteStatusPending,
			"expires_at": bson.M{"$gt": time.Now()},
		}).Decode(&invite)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "invite not found or expired"})
			return
		}

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}

		// redeemInvite also resolves this notification on success.
		if status, err := redeemInvite(ctx, cfg, &invite, &user); err != nil {
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "invite accepted", "team_id": invite.TeamID.Hex()})
	}
}

// ---------------- DECLINE ----------------
func DeclineNotification(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("user_id")
		userID, err := primitive.ObjectIDFromHex(uid)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}

		notifID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		notif, status, msg := loadActionableNotification(ctx, cfg, notifID, userID)
		if notif == nil {
			c.JSON(status, gin.H{"error": msg})
			return
		}

		now := time.Now()
		declined := false
		_, err = cfg.DB().Collection("notifications").UpdateOne(ctx,
			bson.M{"_id": notifID},
			bson.M{"$set": bson.M{"is_accepted": declined, "is_read": true, "updated_at": now}})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update notification"})
			return
		}

		// Declining ends the invite as well; only a pending one moves.
		_, _ = cfg.DB().Collection("invites").UpdateOne(ctx,
			bson.M{"_id": notif.Payload.InviteID, "status": models.InviteStatusPending},
			bson.M{"$set": bson.M{"status": models.InviteStatusDeclined, "updated_at": now}})

		c.JSON(http.StatusOK, gin.H{"message": "invite declined", "id": notifID.Hex()})
	}
}
