package controllers_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "github.com/huddle/eventify-go/models"
)

func TestCreatePayment_DummySettlesInstantly(t *testing.T) {
	_, r, fx := newTestServer(t)
	ctx, cancel := testContext()
	defer cancel()

	organizer := fx.CreateUser(ctx, "Org", "org@x.com", "org", "organizer")
	payer := fx.CreateUser(ctx, "Payer", "payer@x.com", "payer", "user")
	event := fx.CreateEvent(ctx, "Paid Event", organizer, models.EventStatusApproved, 0)

	rec := doJSON(t, r, http.MethodPost, "/api/payments/create-payment", fx.Token(payer), map[string]interface{}{
		"event_id": event.ID.Hex(),
		"amount":   199.0,
		"method":   "dummy",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var payment models.Payment
	decodeBody(t, rec, &payment)
	assert.Equal(t, models.PaymentStatusCompleted, payment.Status)
	assert.True(t, strings.HasPrefix(payment.TransactionID, "dummy_"))
	assert.Equal(t, "INR", payment.Currency, "currency defaults when omitted")
}

func TestCreatePayment_CardStaysPending(t *testing.T) {
	_, r, fx := newTestServer(t)
	ctx, cancel := testContext()
	defer cancel()

	organizer := fx.CreateUser(ctx, "Org", "org@x.com", "org", "organizer")
	payer := fx.CreateUser(ctx, "Payer", "payer@x.com", "payer", "user")
	event := fx.CreateEvent(ctx, "Paid Event", organizer, models.EventStatusApproved, 0)

	rec := doJSON(t, r, http.MethodPost, "/api/payments/create-payment", fx.Token(payer), map[string]interface{}{
		"event_id": event.ID.Hex(),
		"amount":   500.0,
		"currency": "USD",
		"method":   "card",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var payment models.Payment
	decodeBody(t, rec, &payment)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
	assert.Empty(t, payment.TransactionID)
	assert.Equal(t, "USD", payment.Currency)
}

func TestCreatePayment_Rejections(t *testing.T) {
	_, r, fx := newTestServer(t)
	ctx, cancel := testContext()
	defer cancel()

	organizer := fx.CreateUser(ctx, "Org", "org@x.com", "org", "organizer")
	payer := fx.CreateUser(ctx, "Payer", "payer@x.com", "payer", "user")
	event := fx.CreateEvent(ctx, "Paid Event", organizer, models.EventStatusApproved, 0)

	cases := []struct {
		name string
		body map[string]interface{}
	}{
		{"negative amount", map[string]interface{}{"event_id": event.ID.Hex(), "amount": -10.0, "method": "dummy"}},
		{"unknown method", map[string]interface{}{"event_id": event.ID.Hex(), "amount": 10.0, "method": "cheque"}},
		{"unknown event", map[string]interface{}{"event_id": "64f000000000000000000000", "amount": 10.0, "method": "dummy"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, r, http.MethodPost, "/api/payments/create-payment", fx.Token(payer), tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestGetPayment_Ownership(t *testing.T) {
	_, r, fx := newTestServer(t)
	ctx, cancel := testContext()
	defer cancel()

	organizer := fx.CreateUser(ctx, "Org", "org@x.com", "org", "organizer")
	payer := fx.CreateUser(ctx, "Payer", "payer@x.com", "payer", "user")
	other := fx.CreateUser(ctx, "Other", "other@x.com", "other", "user")
	admin := fx.CreateUser(ctx, "Admin", "admin@x.com", "admin", "admin")
	event := fx.CreateEvent(ctx, "Paid Event", organizer, models.EventStatusApproved, 0)

	rec := doJSON(t, r, http.MethodPost, "/api/payments/create-payment", fx.Token(payer), map[string]interface{}{
		"event_id": event.ID.Hex(),
		"amount":   50.0,
		"method":   "dummy",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var payment models.Payment
	decodeBody(t, rec, &payment)

	rec = doJSON(t, r, http.MethodGet, "/api/payments/"+payment.ID.Hex(), fx.Token(other), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/api/payments/"+payment.ID.Hex(), fx.Token(payer), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/api/payments/"+payment.ID.Hex(), fx.Token(admin), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListPayments_FiltersByStatus(t *testing.T) {
	_, r, fx := newTestServer(t)
	ctx, cancel := testContext()
	defer cancel()

	organizer := fx.CreateUser(ctx, "Org", "org@x.com", "org", "organizer")
	payer := fx.CreateUser(ctx, "Payer", "payer@x.com", "payer", "user")
	event := fx.CreateEvent(ctx, "Paid Event", organizer, models.EventStatusApproved, 0)

	for _, method := range []string{"dummy", "card"} {
		rec := doJSON(t, r, http.MethodPost, "/api/payments/create-payment", fx.Token(payer), map[string]interface{}{
			"event_id": event.ID.Hex(),
			"amount":   10.0,
			"method":   method,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	var payments []models.Payment

	rec := doJSON(t, r, http.MethodGet, "/api/payments", fx.Token(payer), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &payments)
	assert.Len(t, payments, 2)

	rec = doJSON(t, r, http.MethodGet, "/api/payments?status=completed", fx.Token(payer), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &payments)
	require.Len(t, payments, 1)
	assert.Equal(t, models.PaymentStatusCompleted, payments[0].Status)
}
