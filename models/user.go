package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SocialLinks holds optional profile links shown on the public profile.
type SocialLinks struct {
	Instagram string `bson:"instagram,omitempty" json:"instagram,omitempty"`
	Twitter   string `bson:"twitter,omitempty" json:"twitter,omitempty"`
	LinkedIn  string `bson:"linkedin,omitempty" json:"linkedin,omitempty"`
	Website   string `bson:"website,omitempty" json:"website,omitempty"`
}

// OrganizerProfile is the organizer sub-profile embedded on User.
type OrganizerProfile struct {
	IsVerified   bool   `bson:"is_verified" json:"is_verified"`
	Organization string `bson:"organization,omitempty" json:"organization,omitempty"`
	ContactPhone string `bson:"contact_phone,omitempty" json:"contact_phone,omitempty"`
}

type User struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name             string             `bson:"name" json:"name"`
	Email            string             `bson:"email" json:"email"`       // unique
	Username         string             `bson:"username" json:"username"` // unique
	PasswordHash     string             `bson:"password_hash" json:"-"`
	Role             string             `bson:"role" json:"role"` // user, organizer, admin
	IsActive         bool               `bson:"is_active" json:"is_active"`
	Mobile           string             `bson:"mobile,omitempty" json:"mobile,omitempty"`
	MobileVerified   bool               `bson:"mobile_verified" json:"mobile_verified"`
	Bio              string             `bson:"bio,omitempty" json:"bio,omitempty"`
	SocialLinks      SocialLinks        `bson:"social_links,omitempty" json:"social_links,omitempty"`
	OrganizerProfile *OrganizerProfile  `bson:"organizer_profile,omitempty" json:"organizer_profile,omitempty"`
	GoogleID         string             `bson:"google_id,omitempty" json:"-"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updated_at"`
}

const (
	RoleUser      = "user"
	RoleOrganizer = "organizer"
	RoleAdmin     = "admin"
)

// ValidRole reports whether r is a role a client may register with.
// Admin accounts are promoted by an existing admin, never self-assigned.
func ValidRole(r string) bool {
	return r == RoleUser || r == RoleOrganizer
}
