package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	config "github.com/huddle/eventify-go/config"
	models "github.com/huddle/eventify-go/models"
)

// ---------------- CREATE ----------------
func CreatePayment(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("user_id")
		userID, err := primitive.ObjectIDFromHex(uid)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}

		var input struct {
			EventID  string  `json:"event_id" binding:"required"`
			Amount   float64 `json:"amount" binding:"required"`
			Currency string  `json:"currency"`
			Method   string  `json:"method" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if input.Amount <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be greater than 0"})
			return
		}
		if !models.ValidPaymentMethod(input.Method) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment method"})
			return
		}

		eventID, err := primitive.ObjectIDFromHex(input.EventID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var event models.Event
		err = cfg.DB().Collection("events").FindOne(ctx, bson.M{"_id": eventID}).Decode(&event)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "event not found"})
			return
		}

		currency := input.Currency
		if currency == "" {
			currency = "INR"
		}

		now := time.Now()
		payment := models.Payment{
			ID:        primitive.NewObjectID(),
			EventID:   eventID,
			UserID:    userID,
			Amount:    input.Amount,
			Currency:  currency,
			Method:    input.Method,
			Status:    models.PaymentStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}

		// The dummy gateway settles instantly with a synthetic
		// transaction id; real methods stay pending for a webhook that
		// this deployment does not have yet.
		if input.Method == models.PaymentMethodDummy {
			payment.Status = models.PaymentStatusCompleted
			payment.TransactionID = "dummy_" + uuid.NewString()
		}

		if _, err := cfg.DB().Collection("payments").InsertOne(ctx, payment); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create payment"})
			return
		}

		c.JSON(http.StatusCreated, payment)
	}
}

// ---------------- GET ----------------
func GetPayment(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		requesterID := c.GetString("user_id")

		paymentID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var payment models.Payment
		err = cfg.DB().Collection("payments").FindOne(ctx, bson.M{"_id": paymentID}).Decode(&payment)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
			return
		}

		if role != models.RoleAdmin && payment.UserID.Hex() != requesterID {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}

		c.JSON(http.StatusOK, payment)
	}
}

// ---------------- LIST (own) ----------------
func ListPayments(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("user_id")
		userID, err := primitive.ObjectIDFromHex(uid)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		filter := bson.M{"user_id": userID}
		if status := c.Query("status"); status != "" {
			filter["status"] = status
		}

		cursor, err := cfg.DB().Collection("payments").Find(ctx, filter)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch payments"})
			return
		}

		var payments []models.Payment
		if err := cursor.All(ctx, &payments); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not decode payments"})
			return
		}
		if payments == nil {
			payments = []models.Payment{}
		}

		c.JSON(http.StatusOK, payments)
	}
}
