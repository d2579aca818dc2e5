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

// ---------------- CREATE ----------------
func CreateTeam(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("user_id")
		userID, err := primitive.ObjectIDFromHex(uid)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}

		var input struct {
			Name        string `json:"name" binding:"required"`
			Description string `json:"description"`
			MaxSize     int    `json:"max_size"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		now := time.Now()
		team := models.Team{
			ID:          primitive.NewObjectID(),
			Name:        input.Name,
			Description: input.Description,
			OwnerID:     userID,
			LeaderID:    userID,
			Members:     []primitive.ObjectID{userID},
			MaxSize:     input.MaxSize,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if _, err := cfg.DB().Collection("teams").InsertOne(ctx, team); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create team"})
			return
		}

		c.JSON(http.StatusCreated, team)
	}
}

// ---------------- LIST ----------------
func ListTeams(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("user_id")
		userID, err := primitive.ObjectIDFromHex(uid)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// Teams the caller belongs to; admins see everything.
		filter := bson.M{"members": userID}
		if c.GetString("role") == models.RoleAdmin {
			filter = bson.M{}
		}
		if q := c.Query("q"); q != "" {
			filter["name"] = bson.M{"$regex": q, "$options": "i"}
		}

		cursor, err := cfg.DB().Collection("teams").Find(ctx, filter)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch teams"})
			return
		}

		var teams []models.Team
		if err := cursor.All(ctx, &teams); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not decode teams"})
			return
		}

		if len(teams) == 0 {
			c.JSON(http.StatusOK, []models.Team{})
			return
		}

		// --- Pick the most recently updated team ---
		latest := teams[0]
		for _, t := range teams {
			if t.UpdatedAt.After(latest.UpdatedAt) {
				latest = t
			}
		}

		etag := utils.GenerateETag(latest.ID, latest.UpdatedAt)
		if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
			c.Status(http.StatusNotModified)
			return
		}
		c.Header("ETag", etag)
		c.Header("Last-Modified", latest.UpdatedAt.UTC().Format(http.TimeFormat))

		c.JSON(http.StatusOK, teams)
	}
}

// ---------------- GET ----------------
func GetTeam(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		teamID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid team id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var team models.Team
		err = cfg.DB().Collection("teams").FindOne(ctx, bson.M{"_id": teamID}).Decode(&team)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "team not found"})
			return
		}

		etag := utils.GenerateETag(team.ID, team.UpdatedAt)
		if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
			c.Status(http.StatusNotModified)
			return
		}
		c.Header("ETag", etag)

		c.JSON(http.StatusOK, team)
	}
}

// ---------------- UPDATE ----------------
func UpdateTeam(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		requesterID := c.GetString("user_id")

		teamID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid team id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		col := cfg.DB().Collection("teams")

		var existing models.Team
		if err := col.FindOne(ctx, bson.M{"_id": teamID}).Decode(&existing); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "team not found"})
			return
		}

		if role != models.RoleAdmin && existing.OwnerID.Hex() != requesterID {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}

		var input struct {
			Name        string `json:"name"`
			Description string `json:"description"`
			MaxSize     int    `json:"max_size"`
			LeaderID    string `json:"leader_id"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		update := bson.M{"updated_at": time.Now()}
		if input.Name != "" {
			update["name"] = input.Name
		}
		if input.Description != "" {
			update["description"] = input.Description
		}
		if input.MaxSize > 0 {
			if input.MaxSize < len(existing.Members) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "max size below current member count"})
				return
			}
			update["max_size"] = input.MaxSize
		}
		if input.LeaderID != "" {
			leaderID, err := primitive.ObjectIDFromHex(input.LeaderID)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid leader id"})
				return
			}
			if !existing.HasMember(leaderID) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "leader must be a team member"})
				return
			}
			update["leader_id"] = leaderID
		}

		if len(update) == 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
			return
		}

		if _, err := col.UpdateOne(ctx, bson.M{"_id": teamID}, bson.M{"$set": update}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update team"})
			return
		}

		var updated models.Team
		if err := col.FindOne(ctx, bson.M{"_id": teamID}).Decode(&updated); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve updated team"})
			return
		}

		c.JSON(http.StatusOK, updated)
	}
}

// ---------------- DELETE ----------------
func DeleteTeam(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		requesterID := c.GetString("user_id")

		teamID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid team id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		col := cfg.DB().Collection("teams")

		var existing models.Team
		if err := col.FindOne(ctx, bson.M{"_id": teamID}).Decode(&existing); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "team not found"})
			return
		}

		if role != models.RoleAdmin && existing.OwnerID.Hex() != requesterID {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}

		if _, err := col.DeleteOne(ctx, bson.M{"_id": teamID}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete team"})
			return
		}

		// Invites to a deleted team are dead weight; drop them too.
		_, _ = cfg.DB().Collection("invites").DeleteMany(ctx, bson.M{"team_id": teamID})

		c.JSON(http.StatusOK, gin.H{"message": "team deleted", "id": teamID.Hex()})
	}
}

// addTeamMember appends a user to the member list with a single atomic
// $addToSet, guarded by the size hint in the filter. Returns false when
// the team is missing or already full.
func addTeamMember(ctx context.Context, cfg *config.Config, teamID, userID primitive.ObjectID, maxSize int) (bool, error) {
	filter := bson.M{"_id": teamID}
	if maxSize > 0 {
		filter["$expr"] = bson.M{"$lt": []interface{}{bson.M{"$size": "$members"}, maxSize}}
	}

	res, err := cfg.DB().Collection("teams").UpdateOne(ctx, filter, bson.M{
		"$addToSet": bson.M{"members": userID},
		"$set":      bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// ---------------- ADD MEMBER ----------------
func AddTeamMember(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		requesterID := c.GetString("user_id")

		teamID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid team id"})
			return
		}

		var input struct {
			UserID string `json:"user_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		memberID, err := primitive.ObjectIDFromHex(input.UserID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid member id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
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

		if team.HasMember(memberID) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "already a member"})
			return
		}

		count, err := cfg.DB().Collection("users").CountDocuments(ctx, bson.M{"_id": memberID})
		if err != nil || count == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user not found"})
			return
		}

		ok, err := addTeamMember(ctx, cfg, teamID, memberID, team.MaxSize)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not add member"})
			return
		}
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "team is full"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "member added", "team_id": teamID.Hex(), "user_id": memberID.Hex()})
	}
}

// ---------------- REMOVE MEMBER ----------------
func RemoveTeamMember(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		requesterID := c.GetString("user_id")

		teamID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid team id"})
			return
		}

		memberID, err := primitive.ObjectIDFromHex(c.Param("userId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid member id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var team models.Team
		if err := cfg.DB().Collection("teams").FindOne(ctx, bson.M{"_id": teamID}).Decode(&team); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "team not found"})
			return
		}

		// Owner removes anyone; members may remove themselves.
		if role != models.RoleAdmin && team.OwnerID.Hex() != requesterID && memberID.Hex() != requesterID {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}

		if memberID == team.OwnerID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "owner cannot leave the team"})
			return
		}

		update := bson.M{
			"$pull": bson.M{"members": memberID},
			"$set":  bson.M{"updated_at": time.Now()},
		}
		if _, err := cfg.DB().Collection("teams").UpdateOne(ctx, bson.M{"_id": teamID}, update); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not remove member"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "member removed", "team_id": teamID.Hex(), "user_id": memberID.Hex()})
	}
}
