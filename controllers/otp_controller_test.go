package controllers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	models "github.com/huddle/eventify-go/models"
)

func TestSendAndVerifyOTP(t *testing.T) {
	cfg, r, _ := newTestServer(t)
	ctx, cancel := testContext()
	defer cancel()

	rec := doJSON(t, r, http.MethodPost, "/api/otp/send", "", map[string]interface{}{
		"mobile":  "+919999900001",
		"purpose": "login",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var otp models.OTP
	err := cfg.DB().Collection("otps").FindOne(ctx, bson.M{
		"mobile": "+919999900001", "purpose": "login", "is_used": false,
	}).Decode(&otp)
	require.NoError(t, err)
	assert.Len(t, otp.Code, 6)

	// the sms goes through the outbox, not straight out
	count, err := cfg.DB().Collection("outbox_messages").CountDocuments(ctx, bson.M{
		"kind": models.OutboxKindSMS, "status": models.OutboxStatusPending,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	rec = doJSON(t, r, http.MethodPost, "/api/otp/verify", "", map[string]interface{}{
		"mobile":  "+919999900001",
		"purpose": "login",
		"code":    otp.Code,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// consumed codes never verify again
	rec = doJSON(t, r, http.MethodPost, "/api/otp/verify", "", map[string]interface{}{
		"mobile":  "+919999900001",
		"purpose": "login",
		"code":    otp.Code,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyOTP_Rejections(t *testing.T) {
	_, r, fx := newTestServer(t)
	ctx, cancel := testContext()
	defer cancel()

	fx.CreateOTP(ctx, "+919999900002", "111111", "login", true, time.Now().Add(5*time.Minute))
	fx.CreateOTP(ctx, "+919999900003", "222222", "registration", false, time.Now().Add(5*time.Minute))
	fx.CreateOTP(ctx, "+919999900004", "333333", "login", false, time.Now().Add(-time.Minute))

	cases := []struct {
		name    string
		mobile  string
		purpose string
		code    string
	}{
		{"used code", "+919999900002", "login", "111111"},
		{"mismatched purpose", "+919999900003", "login", "222222"},
		{"expired code", "+919999900004", "login", "333333"},
		{"wrong code", "+919999900003", "registration", "999999"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, r, http.MethodPost, "/api/otp/verify", "", map[string]interface{}{
				"mobile":  tc.mobile,
				"purpose": tc.purpose,
				"code":    tc.code,
			})
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestResendOTP_RotatesCode(t *testing.T) {
	cfg, r, fx := newTestServer(t)
	ctx, cancel := testContext()
	defer cancel()

	stale := fx.CreateOTP(ctx, "+919999900005", "444444", "login", false, time.Now().Add(5*time.Minute))

	rec := doJSON(t, r, http.MethodPost, "/api/otp/resend", "", map[string]interface{}{
		"mobile":  "+919999900005",
		"purpose": "login",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// the old code is burned
	rec = doJSON(t, r, http.MethodPost, "/api/otp/verify", "", map[string]interface{}{
		"mobile":  "+919999900005",
		"purpose": "login",
		"code":    stale.Code,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// exactly one live code remains
	count, err := cfg.DB().Collection("otps").CountDocuments(ctx, bson.M{
		"mobile": "+919999900005", "purpose": "login", "is_used": false,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestSendOTP_InvalidPurpose(t *testing.T) {
	_, r, _ := newTestServer(t)

	rec := doJSON(t, r, http.MethodPost, "/api/otp/send", "", map[string]interface{}{
		"mobile":  "+919999900006",
		"purpose": "password_reset",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyOTP_MobileVerifyFlipsFlag(t *testing.T) {
	cfg, r, fx := newTestServer(t)
	ctx, cancel := testContext()
	defer cancel()

	user := fx.CreateUser(ctx, "Mob", "mob@x.com", "mob", "user")
	_, err := cfg.DB().Collection("users").UpdateOne(ctx,
		bson.M{"_id": user.ID}, bson.M{"$set": bson.M{"mobile": "+919999900007"}})
	require.NoError(t, err)

	otp := fx.CreateOTP(ctx, "+919999900007", "555555", "mobile_verify", false, time.Now().Add(5*time.Minute))

	rec := doJSON(t, r, http.MethodPost, "/api/otp/verify", "", map[string]interface{}{
		"mobile":  "+919999900007",
		"purpose": "mobile_verify",
		"code":    otp.Code,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var stored models.User
	err = cfg.DB().Collection("users").FindOne(ctx, bson.M{"_id": user.ID}).Decode(&stored)
	require.NoError(t, err)
	assert.True(t, stored.MobileVerified)
}
