package controllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	config "github.com/huddle/eventify-go/config"
	models "github.com/huddle/eventify-go/models"
)

// ---------------- LIST USERS ----------------
func ListUsers(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		filter := bson.M{}
		if role := c.Query("role"); role != "" {
			filter["role"] = role
		}
		if q := c.Query("q"); q != "" {
			filter["$or"] = []bson.M{
				{"name": bson.M{"$regex": q, "$options": "i"}},
				{"email": bson.M{"$regex": q, "$options": "i"}},
				{"username": bson.M{"$regex": q, "$options": "i"}},
			}
		}

		cursor, err := cfg.DB().Collection("users").Find(ctx, filter)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch users"})
			return
		}

		var users []models.User
		if err := cursor.All(ctx, &users); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not decode users"})
			return
		}
		if users == nil {
			users = []models.User{}
		}

		c.JSON(http.StatusOK, users)
	}
}

// ---------------- CHANGE ROLE ----------------
func UpdateUserRole(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}

		var input struct {
			Role string `json:"role" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if input.Role != models.RoleUser && input.Role != models.RoleOrganizer && input.Role != models.RoleAdmin {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
			return
		}

		update := bson.M{"role": input.Role, "updated_at": time.Now()}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		res, err := cfg.DB().Collection("users").UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": update})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update role"})
			return
		}
		if res.MatchedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}

		// Promoting to organizer needs the sub-profile in place.
		if input.Role == models.RoleOrganizer {
			_, _ = cfg.DB().Collection("users").UpdateOne(ctx,
				bson.M{"_id": userID, "organizer_profile": nil},
				bson.M{"$set": bson.M{"organizer_profile": models.OrganizerProfile{}}})
		}

		c.JSON(http.StatusOK, gin.H{"message": "role updated", "id": userID.Hex(), "role": input.Role})
	}
}

// ---------------- VERIFY ORGANIZER ----------------
func VerifyOrganizer(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		res, err := cfg.DB().Collection("users").UpdateOne(ctx,
			bson.M{"_id": userID, "role": models.RoleOrganizer},
			bson.M{"$set": bson.M{"organizer_profile.is_verified": true, "updated_at": time.Now()}})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not verify organizer"})
			return
		}
		if res.MatchedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "organizer not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "organizer verified", "id": userID.Hex()})
	}
}

// ---------------- DELETE USER (cascade) ----------------
func AdminDeleteUser(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db := cfg.DB()

		res, err := db.Collection("users").DeleteOne(ctx, bson.M{"_id": userID})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete user"})
			return
		}
		if res.DeletedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}

		// Cascade: owned events and teams go away, invites sent by the
		// user are dropped, and the user is pulled out of everything
		// else. Each step is its own document-level operation; a
		// failure is logged and the rest proceeds.
		cascade := []struct {
			name string
			run  func() error
		}{
			{"events", func() error {
				_, err := db.Collection("events").DeleteMany(ctx, bson.M{"organizer_id": userID})
				return err
			}},
			{"teams", func() error {
				_, err := db.Collection("teams").DeleteMany(ctx, bson.M{"owner_id": userID})
				return err
			}},
			{"invites", func() error {
				_, err := db.Collection("invites").DeleteMany(ctx, bson.M{"inviter_id": userID})
				return err
			}},
			{"memberships", func() error {
				_, err := db.Collection("teams").UpdateMany(ctx, bson.M{},
					bson.M{"$pull": bson.M{"members": userID}})
				return err
			}},
			{"participations", func() error {
				_, err := db.Collection("events").UpdateMany(ctx, bson.M{},
					bson.M{"$pull": bson.M{"participants": userID}})
				return err
			}},
			{"notifications", func() error {
				_, err := db.Collection("notifications").DeleteMany(ctx, bson.M{"recipient_id": userID})
				return err
			}},
		}
		for _, step := range cascade {
			if err := step.run(); err != nil {
				log.Error().Err(err).Str("user", userID.Hex()).Str("step", step.name).Msg("cascade delete step failed")
			}
		}

		c.JSON(http.StatusOK, gin.H{"message": "user deleted", "id": userID.Hex()})
	}
}

// ---------------- PENDING EVENTS ----------------
func ListPendingEvents(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		cursor, err := cfg.DB().Collection("events").Find(ctx, bson.M{
			"status": bson.M{"$in": []string{models.EventStatusPending, models.EventStatusEditedPending}},
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch events"})
			return
		}

		var events []models.Event
		if err := cursor.All(ctx, &events); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not decode events"})
			return
		}
		if events == nil {
			events = []models.Event{}
		}

		c.JSON(http.StatusOK, events)
	}
}

// notifyOrganizer queues an in-app notification about a moderation
// decision. Best-effort by way of the notification document itself.
func notifyOrganizer(ctx context.Context, cfg *config.Config, event *models.Event, adminID primitive.ObjectID, notifType, title, message string) {
	now := time.Now()
	notif := models.Notification{
		ID:          primitive.NewObjectID(),
		RecipientID: event.OrganizerID,
		SenderID:    adminID,
		Type:        notifType,
		Title:       title,
		Message:     message,
		Payload:     models.NotificationPayload{EventID: event.ID},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := cfg.DB().Collection("notifications").InsertOne(ctx, notif); err != nil {
		log.Error().Err(err).Str("event", event.ID.Hex()).Msg("could not create moderation notification")
	}
}

// ---------------- APPROVE ----------------
func ApproveEvent(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminID, err := primitive.ObjectIDFromHex(c.GetString("user_id"))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}

		eventID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		col := cfg.DB().Collection("events")

		var event models.Event
		if err := col.FindOne(ctx, bson.M{"_id": eventID}).Decode(&event); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
			return
		}

		if !event.CanModerate() {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("cannot approve an event in status %q", event.Status)})
			return
		}

		now := time.Now()
		set := bson.M{
			"status":      models.EventStatusApproved,
			"approved_by": adminID,
			"approved_at": now,
			"updated_at":  now,
		}

		// Re-approval folds the shadow draft into the published fields.
		if event.Status == models.EventStatusEditedPending {
			event.ApplyChanges(event.PendingChanges)
			if err := event.Validate(); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			set["title"] = event.Title
			set["description"] = event.Description
			set["location"] = event.Location
			set["date"] = event.Date
			set["price"] = event.Price
			set["max_participants"] = event.MaxParticipants
			set["team_requirements"] = event.TeamRequirements
			set["prize_pool"] = event.PrizePool
			set["images"] = event.Images
		}

		update := bson.M{
			"$set":   set,
			"$unset": bson.M{"pending_changes": "", "rejection_reason": ""},
		}
		if _, err := col.UpdateOne(ctx, bson.M{"_id": eventID}, update); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not approve event"})
			return
		}

		notifyOrganizer(ctx, cfg, &event, adminID, models.NotificationEventApproved,
			"Event approved", fmt.Sprintf("Your event %q is now live", event.Title))

		c.JSON(http.StatusOK, gin.H{"message": "event approved", "id": eventID.Hex()})
	}
}

// ---------------- REJECT ----------------
func RejectEvent(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminID, err := primitive.ObjectIDFromHex(c.GetString("user_id"))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}

		eventID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
			return
		}

		var input struct {
			Reason string `json:"reason" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		col := cfg.DB().Collection("events")

		var event models.Event
		if err := col.FindOne(ctx, bson.M{"_id": eventID}).Decode(&event); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
			return
		}

		if !event.CanModerate() {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("cannot reject an event in status %q", event.Status)})
			return
		}

		update := bson.M{
			"$set": bson.M{
				"status":           models.EventStatusRejected,
				"rejection_reason": input.Reason,
				"updated_at":       time.Now(),
			},
			"$unset": bson.M{"approved_by": "", "approved_at": "", "pending_changes": ""},
		}
		if _, err := col.UpdateOne(ctx, bson.M{"_id": eventID}, update); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not reject event"})
			return
		}

		notifyOrganizer(ctx, cfg, &event, adminID, models.NotificationEventRejected,
			"Event rejected", fmt.Sprintf("Your event %q was rejected: %s", event.Title, input.Reason))

		c.JSON(http.StatusOK, gin.H{"message": "event rejected", "id": eventID.Hex()})
	}
}
