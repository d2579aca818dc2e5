package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	config "github.com/huddle/eventify-go/config"
	models "github.com/huddle/eventify-go/models"
	utils "github.com/huddle/eventify-go/utils"
)

// parseEventDate accepts RFC3339 plus a few date-only fallbacks.
func parseEventDate(raw string) (*time.Time, bool) {
	if raw == "" {
		return nil, true
	}
	layouts := []string{time.RFC3339, "2006-01-02", "2006-01-02 15:04", "2006-01-02 15:04:05"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, true
		}
	}
	return nil, false
}

// uploadEventImages pushes every multipart file under key to Cloudinary.
func uploadEventImages(c *gin.Context, key string) ([]string, int, string) {
	form, err := c.MultipartForm()
	if err != nil && err != http.ErrNotMultipart {
		return nil, http.StatusBadRequest, "invalid form data"
	}

	var urls []string
	if form != nil {
		for _, fileHeader := range form.File[key] {
			file, err := fileHeader.Open()
			if err != nil {
				return nil, http.StatusInternalServerError, "failed to open file"
			}
			url, err := utils.UploadToCloudinary(file, fileHeader)
			file.Close()
			if err != nil {
				return nil, http.StatusInternalServerError, "image upload failed"
			}
			urls = append(urls, url)
		}
	}
	return urls, 0, ""
}

type eventInput struct {
	Title           string  `form:"title" json:"title"`
	Description     string  `form:"description" json:"description"`
	Location        string  `form:"location" json:"location"`
	Date            string  `form:"date" json:"date"`
	Price           float64 `form:"price" json:"price"`
	MaxParticipants int     `form:"max_participants" json:"max_participants"`
	Girls           *int    `form:"girls" json:"girls"`
	Boys            *int    `form:"boys" json:"boys"`
	PrizeTotal      float64 `form:"prize_total" json:"prize_total"`
	PrizeCurrency   string  `form:"prize_currency" json:"prize_currency"`
}

// ---------------- CREATE ----------------
func CreateEvent(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("user_id")
		organizerID, err := primitive.ObjectIDFromHex(uid)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}

		var input eventInput
		if err := c.ShouldBind(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if input.Title == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
			return
		}

		date, ok := parseEventDate(input.Date)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format, use RFC3339 or YYYY-MM-DD"})
			return
		}

		imageURLs, status, msg := uploadEventImages(c, "images")
		if msg != "" {
			c.JSON(status, gin.H{"error": msg})
			return
		}

		now := time.Now()
		event := models.Event{
			ID:              primitive.NewObjectID(),
			OrganizerID:     organizerID,
			Title:           input.Title,
			Description:     input.Description,
			Location:        input.Location,
			Date:            date,
			Price:           input.Price,
			MaxParticipants: input.MaxParticipants,
			Participants:    []primitive.ObjectID{},
			Images:          imageURLs,
			Status:          models.EventStatusPending,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if input.Girls != nil || input.Boys != nil {
			tr := models.TeamRequirements{}
			if input.Girls != nil {
				tr.Girls = *input.Girls
			}
			if input.Boys != nil {
				tr.Boys = *input.Boys
			}
			event.TeamRequirements = &tr
		}
		if input.PrizeTotal > 0 {
			event.PrizePool = &models.PrizePool{Total: input.PrizeTotal, Currency: input.PrizeCurrency}
		}

		if err := event.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if _, err := cfg.DB().Collection("events").InsertOne(ctx, event); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create event"})
			return
		}

		c.JSON(http.StatusCreated, event)
	}
}

// ---------------- LIST ----------------
func ListEvents(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("user_id")
		role := c.GetString("role")
		userID, _ := primitive.ObjectIDFromHex(uid)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// Everyone sees approved events; organizers also see their own
		// drafts; admins see the lot.
		var filter bson.M
		switch {
		case role == models.RoleAdmin:
			filter = bson.M{}
		case role == models.RoleOrganizer:
			filter = bson.M{"$or": []bson.M{
				{"status": models.EventStatusApproved},
				{"organizer_id": userID},
			}}
		default:
			filter = bson.M{"status": models.EventStatusApproved}
		}
		if q := c.Query("q"); q != "" {
			filter["title"] = bson.M{"$regex": q, "$options": "i"}
		}

		cursor, err := cfg.DB().Collection("events").Find(ctx, filter)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch events"})
			return
		}

		var events []models.Event
		if err := cursor.All(ctx, &events); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not decode events"})
			return
		}

		if len(events) == 0 {
			c.JSON(http.StatusOK, []models.Event{})
			return
		}

		// --- Pick the most recently updated event ---
		latest := events[0]
		for _, ev := range events {
			if ev.UpdatedAt.After(latest.UpdatedAt) {
				latest = ev
			}
		}

		etag := utils.GenerateETag(latest.ID, latest.UpdatedAt)
		if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
			c.Status(http.StatusNotModified)
			return
		}
		c.Header("ETag", etag)
		c.Header("Last-Modified", latest.UpdatedAt.UTC().Format(http.TimeFormat))

		c.JSON(http.StatusOK, events)
	}
}

// ---------------- GET ----------------
func GetEvent(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("user_id")
		role := c.GetString("role")

		eventID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var event models.Event
		err = cfg.DB().Collection("events").FindOne(ctx, bson.M{"_id": eventID}).Decode(&event)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
			return
		}

		// Unapproved events are visible to their organizer and admins only.
		if event.Status != models.EventStatusApproved &&
			role != models.RoleAdmin && event.OrganizerID.Hex() != uid {
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
			return
		}

		etag := utils.GenerateETag(event.ID, event.UpdatedAt)
		if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
			c.Status(http.StatusNotModified)
			return
		}
		c.Header("ETag", etag)

		c.JSON(http.StatusOK, event)
	}
}

// ---------------- UPDATE ----------------
func UpdateEvent(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		requesterID := c.GetString("user_id")
		userID, err := primitive.ObjectIDFromHex(requesterID)
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

		var existing models.Event
		if err := col.FindOne(ctx, bson.M{"_id": eventID}).Decode(&existing); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
			return
		}

		if role != models.RoleAdmin && existing.OrganizerID.Hex() != requesterID {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}

		if existing.Status == models.EventStatusEditedPending {
			c.JSON(http.StatusBadRequest, gin.H{"error": "previous edit still awaiting review"})
			return
		}

		var input eventInput
		if err := c.ShouldBind(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		date, ok := parseEventDate(input.Date)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format, use RFC3339 or YYYY-MM-DD"})
			return
		}

		newImages, status, msg := uploadEventImages(c, "new_images")
		if msg != "" {
			c.JSON(status, gin.H{"error": msg})
			return
		}

		changes := models.EventChanges{
			Title:       input.Title,
			Description: input.Description,
			Location:    input.Location,
			Date:        date,
			Images:      newImages,
		}
		if input.Price > 0 {
			changes.Price = &input.Price
		}
		if input.MaxParticipants > 0 {
			changes.MaxParticipants = &input.MaxParticipants
		}
		if input.Girls != nil || input.Boys != nil {
			tr := models.TeamRequirements{}
			if input.Girls != nil {
				tr.Girls = *input.Girls
			}
			if input.Boys != nil {
				tr.Boys = *input.Boys
			}
			changes.TeamRequirements = &tr
		}
		if input.PrizeTotal > 0 {
			changes.PrizePool = &models.PrizePool{Total: input.PrizeTotal, Currency: input.PrizeCurrency}
		}

		// Validate against the would-be published document.
		preview := existing
		preview.ApplyChanges(&changes)
		if err := preview.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		now := time.Now()
		historyEntry := models.EditHistoryEntry{EditedBy: userID, EditedAt: now, Changes: changes}

		var update bson.M
		if existing.Status == models.EventStatusApproved {
			// Published events keep serving their current fields; the
			// edit waits for re-approval as a typed draft.
			update = bson.M{
				"$set": bson.M{
					"status":          models.EventStatusEditedPending,
					"pending_changes": changes,
					"updated_at":      now,
				},
				"$push": bson.M{"edit_history": historyEntry},
			}
		} else {
			// Unpublished events are edited in place and re-enter the
			// review queue from scratch.
			set := bson.M{
				"title":             preview.Title,
				"description":       preview.Description,
				"location":          preview.Location,
				"date":              preview.Date,
				"price":             preview.Price,
				"max_participants":  preview.MaxParticipants,
				"team_requirements": preview.TeamRequirements,
				"prize_pool":        preview.PrizePool,
				"images":            preview.Images,
				"status":            models.EventStatusPending,
				"updated_at":        now,
			}
			update = bson.M{
				"$set":   set,
				"$unset": bson.M{"pending_changes": "", "rejection_reason": "", "approved_by": "", "approved_at": ""},
				"$push":  bson.M{"edit_history": historyEntry},
			}
		}

		if _, err := col.UpdateOne(ctx, bson.M{"_id": eventID}, update); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update event"})
			return
		}

		var updated models.Event
		if err := col.FindOne(ctx, bson.M{"_id": eventID}).Decode(&updated); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve updated event"})
			return
		}

		c.JSON(http.StatusOK, updated)
	}
}

// ---------------- DELETE ----------------
func DeleteEvent(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		requesterID := c.GetString("user_id")

		eventID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		col := cfg.DB().Collection("events")

		var existing models.Event
		if err := col.FindOne(ctx, bson.M{"_id": eventID}).Decode(&existing); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
			return
		}

		if role != models.RoleAdmin && existing.OrganizerID.Hex() != requesterID {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}

		res, err := col.DeleteOne(ctx, bson.M{"_id": eventID})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete event"})
			return
		}
		if res.DeletedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
			return
		}

		for _, img := range existing.Images {
			_ = utils.DeleteFromCloudinary(img)
		}

		c.JSON(http.StatusOK, gin.H{"message": "event deleted", "id": eventID.Hex()})
	}
}

// ---------------- JOIN ----------------
func JoinEvent(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("user_id")
		userID, err := primitive.ObjectIDFromHex(uid)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}

		eventID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		col := cfg.DB().Collection("events")

		var event models.Event
		if err := col.FindOne(ctx, bson.M{"_id": eventID}).Decode(&event); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
			return
		}

		if event.OrganizerID == userID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "organizers cannot join their own event"})
			return
		}
		if event.Status != models.EventStatusApproved {
			c.JSON(http.StatusBadRequest, gin.H{"error": "event is not open for joining"})
			return
		}

		// Single atomic add-to-set; the size guard rides in the filter,
		// so a full event simply stops matching. Joining twice is a
		// no-op rather than an error.
		filter := bson.M{"_id": eventID}
		if event.MaxParticipants > 0 {
			filter["$or"] = []bson.M{
				{"participants": userID},
				{"$expr": bson.M{"$lt": []interface{}{bson.M{"$size": "$participants"}, event.MaxParticipants}}},
			}
		}
		res, err := col.UpdateOne(ctx, filter, bson.M{
			"$addToSet": bson.M{"participants": userID},
			"$set":      bson.M{"updated_at": time.Now()},
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not join event"})
			return
		}
		if res.MatchedCount == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "event is full"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "joined event", "event_id": eventID.Hex()})
	}
}

// ---------------- LEAVE ----------------
func LeaveEvent(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("user_id")
		userID, err := primitive.ObjectIDFromHex(uid)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}

		eventID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		res, err := cfg.DB().Collection("events").UpdateOne(ctx,
			bson.M{"_id": eventID},
			bson.M{
				"$pull": bson.M{"participants": userID},
				"$set":  bson.M{"updated_at": time.Now()},
			})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not leave event"})
			return
		}
		if res.MatchedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "left event", "event_id": eventID.Hex()})
	}
}
