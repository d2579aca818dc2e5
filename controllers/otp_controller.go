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
	"github.com/huddle/eventify-go/outbox"
	utils "github.com/huddle/eventify-go/utils"
)

type otpSendInput struct {
	Mobile  string `json:"mobile" binding:"required"`
	Purpose string `json:"purpose" binding:"required"`
}

// sendOTP generates, stores and queues a code. Prior unused codes for
// the same (mobile, purpose) pair are invalidated first, so only the
// newest code can verify.
func sendOTP(ctx context.Context, cfg *config.Config, input otpSendInput) (int, error) {
	if !models.ValidOTPPurpose(input.Purpose) {
		return http.StatusBadRequest, fmt.Errorf("invalid purpose")
	}

	code, err := utils.NewOTPCode()
	if err != nil {
		return http.StatusInternalServerError, fmt.Errorf("could not generate code")
	}

	db := cfg.DB()
	now := time.Now()

	_, err = db.Collection("otps").UpdateMany(ctx,
		bson.M{"mobile": input.Mobile, "purpose": input.Purpose, "is_used": false},
		bson.M{"$set": bson.M{"is_used": true}})
	if err != nil {
		return http.StatusInternalServerError, fmt.Errorf("could not invalidate previous codes")
	}

	otp := models.OTP{
		ID:        primitive.NewObjectID(),
		Mobile:    input.Mobile,
		Code:      code,
		Purpose:   input.Purpose,
		ExpiresAt: now.Add(models.OTPTTL),
		CreatedAt: now,
	}
	if _, err := db.Collection("otps").InsertOne(ctx, otp); err != nil {
		return http.StatusInternalServerError, fmt.Errorf("could not store code")
	}

	message := fmt.Sprintf("Your Eventify verification code is %s. It expires in 10 minutes.", code)
	if err := outbox.EnqueueSMS(ctx, cfg, input.Mobile, message); err != nil {
		log.Error().Err(err).Str("mobile", input.Mobile).Msg("could not enqueue otp sms")
	}

	return http.StatusOK, nil
}

// ---------------- SEND ----------------
func SendOTP(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input otpSendInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if status, err := sendOTP(ctx, cfg, input); err != nil {
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "otp sent"})
	}
}

// ResendOTP is the same operation as SendOTP; resending just rotates
// the active code.
func ResendOTP(cfg *config.Config) gin.HandlerFunc {
	return SendOTP(cfg)
}

// ---------------- VERIFY ----------------
func VerifyOTP(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Mobile  string `json:"mobile" binding:"required"`
			Purpose string `json:"purpose" binding:"required"`
			Code    string `json:"code" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		// One matching query that also consumes the code.
		res := cfg.DB().Collection("otps").FindOneAndUpdate(ctx,
			bson.M{
				"mobile":     input.Mobile,
				"purpose":    input.Purpose,
				"code":       input.Code,
				"is_used":    false,
				"expires_at": bson.M{"$gt": time.Now()},
			},
			bson.M{"$set": bson.M{"is_used": true}})
		if res.Err() != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired code"})
			return
		}

		// Mobile-verification codes also flip the flag on the account.
		if input.Purpose == models.OTPPurposeMobileVerify {
			_, _ = cfg.DB().Collection("users").UpdateOne(ctx,
				bson.M{"mobile": input.Mobile},
				bson.M{"$set": bson.M{"mobile_verified": true, "updated_at": time.Now()}})
		}

		c.JSON(http.StatusOK, gin.H{"message": "otp verified"})
	}
}
