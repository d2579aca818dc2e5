package testutil

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	config "github.com/huddle/eventify-go/config"
	models "github.com/huddle/eventify-go/models"
	utils "github.com/huddle/eventify-go/utils"
)

// Fixtures creates test data directly in the database.
type Fixtures struct {
	cfg *config.Config
	t   *testing.T
}

func NewFixtures(t *testing.T, cfg *config.Config) *Fixtures {
	t.Helper()
	return &Fixtures{cfg: cfg, t: t}
}

// CreateUser inserts an account with password "password123".
func (f *Fixtures) CreateUser(ctx context.Context, name, email, username, role string) models.User {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("bcrypt: %v", err)
	}

	now := time.Now()
	user := models.User{
		ID:           primitive.NewObjectID(),
		Name:         name,
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if role == models.RoleOrganizer {
		user.OrganizerProfile = &models.OrganizerProfile{}
	}

	if _, err := f.cfg.DB().Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("create test user: %v", err)
	}
	return user
}

// Token issues a bearer token for a fixture user.
func (f *Fixtures) Token(user models.User) string {
	f.t.Helper()
	token, err := utils.IssueToken(f.cfg, user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		f.t.Fatalf("issue token: %v", err)
	}
	return token
}

// CreateTeam inserts a team owned and led by owner.
func (f *Fixtures) CreateTeam(ctx context.Context, name string, owner models.User, maxSize int) models.Team {
	f.t.Helper()

	now := time.Now()
	team := models.Team{
		ID:        primitive.NewObjectID(),
		Name:      name,
		OwnerID:   owner.ID,
		LeaderID:  owner.ID,
		Members:   []primitive.ObjectID{owner.ID},
		MaxSize:   maxSize,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.cfg.DB().Collection("teams").InsertOne(ctx, team); err != nil {
		f.t.Fatalf("create test team: %v", err)
	}
	return team
}

// CreateInvite inserts a pending invite with the given expiry.
func (f *Fixtures) CreateInvite(ctx context.Context, team models.Team, inviter models.User, email string, expiresAt time.Time) models.Invite {
	f.t.Helper()

	token, err := utils.NewInviteToken()
	if err != nil {
		f.t.Fatalf("invite token: %v", err)
	}

	now := time.Now()
	invite := models.Invite{
		ID:        primitive.NewObjectID(),
		TeamID:    team.ID,
		Email:     email,
		Token:     token,
		Status:    models.InviteStatusPending,
		InviterID: inviter.ID,
		ExpiresAt: expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.cfg.DB().Collection("invites").InsertOne(ctx, invite); err != nil {
		f.t.Fatalf("create test invite: %v", err)
	}
	return invite
}

// CreateEvent inserts an event in the given approval status.
func (f *Fixtures) CreateEvent(ctx context.Context, title string, organizer models.User, status string, maxParticipants int) models.Event {
	f.t.Helper()

	now := time.Now()
	event := models.Event{
		ID:              primitive.NewObjectID(),
		OrganizerID:     organizer.ID,
		Title:           title,
		MaxParticipants: maxParticipants,
		Participants:    []primitive.ObjectID{},
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if _, err := f.cfg.DB().Collection("events").InsertOne(ctx, event); err != nil {
		f.t.Fatalf("create test event: %v", err)
	}
	return event
}

// CreateOTP inserts a code document as-is.
func (f *Fixtures) CreateOTP(ctx context.Context, mobile, code, purpose string, used bool, expiresAt time.Time) models.OTP {
	f.t.Helper()

	otp := models.OTP{
		ID:        primitive.NewObjectID(),
		Mobile:    mobile,
		Code:      code,
		Purpose:   purpose,
		IsUsed:    used,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}

	if _, err := f.cfg.DB().Collection("otps").InsertOne(ctx, otp); err != nil {
		f.t.Fatalf("create test otp: %v", err)
	}
	return otp
}
