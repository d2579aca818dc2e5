package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"

	config "github.com/huddle/eventify-go/config"
	models "github.com/huddle/eventify-go/models"
	utils "github.com/huddle/eventify-go/utils"
)

type registerInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=3"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role"`
	Mobile   string `json:"mobile"`
}

// createUser runs the uniqueness checks and inserts the account.
// Shared between /auth/register and invite-driven registration.
func createUser(ctx context.Context, cfg *config.Config, input registerInput) (*models.User, int, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Username = strings.ToLower(strings.TrimSpace(input.Username))

	role := input.Role
	if role == "" {
		role = models.RoleUser
	}
	if !models.ValidRole(role) {
		return nil, http.StatusBadRequest, fmt.Errorf("invalid role")
	}

	col := cfg.DB().Collection("users")

	count, err := col.CountDocuments(ctx, bson.M{"$or": []bson.M{
		{"email": input.Email},
		{"username": input.Username},
	}})
	if err != nil {
		return nil, http.StatusInternalServerError, fmt.Errorf("could not check existing users")
	}
	if count > 0 {
		return nil, http.StatusBadRequest, fmt.Errorf("email or username already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, http.StatusInternalServerError, fmt.Errorf("could not hash password")
	}

	now := time.Now()
	user := models.User{
		ID:           primitive.NewObjectID(),
		Name:         input.Name,
		Email:        input.Email,
		Username:     input.Username,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
		Mobile:       input.Mobile,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if role == models.RoleOrganizer {
		user.OrganizerProfile = &models.OrganizerProfile{}
	}

	if _, err := col.InsertOne(ctx, user); err != nil {
		// unique index race: two registrations in flight for the same email
		return nil, http.StatusBadRequest, fmt.Errorf("email or username already taken")
	}

	return &user, http.StatusCreated, nil
}

// ---------------- REGISTER ----------------
func Register(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input registerInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		user, status, err := createUser(ctx, cfg, input)
		if err != nil {
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		token, err := utils.IssueToken(cfg, user.ID.Hex(), user.Email, user.Role)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"token": token, "user": user})
	}
}

// ---------------- LOGIN ----------------
func Login(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Identifier string `json:"identifier" binding:"required"` // email or username
			Password   string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ident := strings.ToLower(strings.TrimSpace(input.Identifier))

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var user models.User
		err := cfg.DB().Collection("users").
			FindOne(ctx, bson.M{"$or": []bson.M{{"email": ident}, {"username": ident}}}).
			Decode(&user)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		if !user.IsActive {
			c.JSON(http.StatusForbidden, gin.H{"error": "account deactivated"})
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)) != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		token, err := utils.IssueToken(cfg, user.ID.Hex(), user.Email, user.Role)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
	}
}

// googleUserinfoURL is swappable in tests.
var googleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type googleUserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// fetchGoogleUserInfo verifies the provider access token server-side by
// asking Google who it belongs to.
func fetchGoogleUserInfo(ctx context.Context, accessToken string) (*googleUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
	resp, err := client.Get(googleUserinfoURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google userinfo: status %s", resp.Status)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	if info.Email == "" {
		return nil, fmt.Errorf("google userinfo: no email")
	}
	return &info, nil
}

// ---------------- GOOGLE ----------------
func GoogleAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			AccessToken string `json:"access_token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		info, err := fetchGoogleUserInfo(ctx, input.AccessToken)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "could not verify google token"})
			return
		}

		email := strings.ToLower(info.Email)
		col := cfg.DB().Collection("users")

		var user models.User
		err = col.FindOne(ctx, bson.M{"email": email}).Decode(&user)
		if err != nil {
			// First sign-in: auto-provision with an unusable password.
			placeholder, perr := utils.NewInviteToken()
			if perr != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not provision account"})
				return
			}
			user2, status, cerr := createUser(ctx, cfg, registerInput{
				Name:     info.Name,
				Email:    email,
				Username: usernameFromEmail(ctx, cfg, email),
				Password: placeholder,
				Role:     models.RoleUser,
			})
			if cerr != nil {
				c.JSON(status, gin.H{"error": cerr.Error()})
				return
			}
			user = *user2
		}

		if user.GoogleID == "" {
			_, _ = col.UpdateOne(ctx, bson.M{"_id": user.ID},
				bson.M{"$set": bson.M{"google_id": info.ID, "updated_at": time.Now()}})
		}

		if !user.IsActive {
			c.JSON(http.StatusForbidden, gin.H{"error": "account deactivated"})
			return
		}

		token, err := utils.IssueToken(cfg, user.ID.Hex(), user.Email, user.Role)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
	}
}

// usernameFromEmail derives a free username from the local part of an
// email, suffixing a counter on collision.
func usernameFromEmail(ctx context.Context, cfg *config.Config, email string) string {
	base := strings.Split(email, "@")[0]
	base = strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, strings.ToLower(base))
	if len(base) < 3 {
		base = "user" + base
	}

	col := cfg.DB().Collection("users")
	candidate := base
	for i := 1; ; i++ {
		count, err := col.CountDocuments(ctx, bson.M{"username": candidate})
		if err != nil || count == 0 {
			return candidate
		}
		candidate = fmt.Sprintf("%s%d", base, i)
	}
}

// ---------------- CHECK USERNAME ----------------
func CheckUsername(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := strings.ToLower(strings.TrimSpace(c.Param("username")))
		if len(username) < 3 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username too short"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		count, err := cfg.DB().Collection("users").CountDocuments(ctx, bson.M{"username": username})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not check username"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"available": count == 0})
	}
}

// ---------------- ME ----------------
func Me(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("user_id")
		userID, err := primitive.ObjectIDFromHex(uid)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var user models.User
		if err := cfg.DB().Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}

		c.JSON(http.StatusOK, user)
	}
}
