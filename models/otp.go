package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	OTPPurposeRegistration = "registration"
	OTPPurposeLogin        = "login"
	OTPPurposeMobileVerify = "mobile_verify"
)

// OTPTTL is the validity window for a code. The expires_at field also
// carries a TTL index so stale codes fall out of the collection.
const OTPTTL = 10 * time.Minute

type OTP struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Mobile    string             `bson:"mobile" json:"mobile"`
	Code      string             `bson:"code" json:"-"`
	Purpose   string             `bson:"purpose" json:"purpose"`
	IsUsed    bool               `bson:"is_used" json:"is_used"`
	ExpiresAt time.Time          `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

func ValidOTPPurpose(p string) bool {
	switch p {
	case OTPPurposeRegistration, OTPPurposeLogin, OTPPurposeMobileVerify:
		return true
	}
	return false
}
