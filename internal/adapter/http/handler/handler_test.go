package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Andorta/payments-reliability-milestone/internal/adapter/http/dto"
	"github.com/Andorta/payments-reliability-milestone/internal/core/domain"
	"github.com/Andorta/payments-reliability-milestone/internal/core/ports"
	"github.com/Andorta/payments-reliability-milestone/internal/core/ports/mocks"
	"github.com/Andorta/payments-reliability-milestone/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func checkoutBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(dto.CheckoutRequest{
		BuyerID:     "buyer-1",
		SellerID:    "seller-1",
		AmountCents: 5000,
		Currency:    "EUR",
		BuyerTrust:  "trusted",
	})
	require.NoError(t, err)
	return body
}

// --- Checkout Handler Tests ---

func TestCheckout_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockCheckoutService(ctrl)
	h := NewCheckoutHandler(mockSvc)

	orderID := uuid.New()
	mockSvc.EXPECT().Checkout(gomock.Any(), ports.CheckoutInput{
		IdempotencyKey: "demo-1",
		BuyerID:        "buyer-1",
		SellerID:       "seller-1",
		AmountCents:    5000,
		Currency:       "EUR",
		BuyerTrust:     domain.BuyerTrustTrusted,
	}).Return(&ports.CheckoutResult{
		OrderID:     orderID,
		Status:      domain.OrderStatusPaid,
		ReadyToShip: true,
		StatusCode:  http.StatusCreated,
	}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewReader(checkoutBody(t)))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.Header.Set(HeaderIdempotencyKey, "demo-1")

	h.Checkout(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, w.Header().Get(HeaderIdempotentReplayed))
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, orderID.String(), data["order_id"])
	assert.Equal(t, "PAID", data["status"])
	assert.Equal(t, true, data["ready_to_ship"])
}

func TestCheckout_ReplayedSetsHeader(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockCheckoutService(ctrl)
	h := NewCheckoutHandler(mockSvc)

	mockSvc.EXPECT().Checkout(gomock.Any(), gomock.Any()).Return(&ports.CheckoutResult{
		OrderID:    uuid.New(),
		Status:     domain.OrderStatusPendingPayment,
		Replayed:   true,
		StatusCode: http.StatusCreated,
	}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewReader(checkoutBody(t)))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.Header.Set(HeaderIdempotencyKey, "demo-1")

	h.Checkout(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "true", w.Header().Get(HeaderIdempotentReplayed))
}

func TestCheckout_MissingIdempotencyKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockCheckoutService(ctrl)
	h := NewCheckoutHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewReader(checkoutBody(t)))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Checkout(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckout_BindingError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockCheckoutService(ctrl)
	h := NewCheckoutHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewReader([]byte("{}")))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.Header.Set(HeaderIdempotencyKey, "demo-1")

	h.Checkout(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckout_Conflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockCheckoutService(ctrl)
	h := NewCheckoutHandler(mockSvc)

	mockSvc.EXPECT().Checkout(gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrIdempotencyConflict())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewReader(checkoutBody(t)))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.Header.Set(HeaderIdempotencyKey, "demo-1")

	h.Checkout(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "IDEM_001", resp["error_code"])
}

// --- Webhook Handler Tests ---

func TestHandleProviderEvent_Applied(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockWebhookService(ctrl)
	h := NewWebhookHandler(mockSvc)

	orderID := uuid.New()
	mockSvc.EXPECT().ProcessEvent(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, in ports.WebhookInput) (*ports.WebhookResult, error) {
			assert.Equal(t, "evt-200", in.EventID)
			assert.Equal(t, orderID, in.OrderID)
			assert.Equal(t, domain.WebhookOutcomePaid, in.Outcome)
			return &ports.WebhookResult{Duplicate: false, Status: domain.OrderStatusPaid}, nil
		})

	body, _ := json.Marshal(dto.WebhookRequest{EventID: "evt-200", OrderID: orderID.String(), Outcome: "PAID"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/provider", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.HandleProviderEvent(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, false, data["duplicate"])
	assert.Equal(t, "PAID", data["status"])
}

func TestHandleProviderEvent_NonPaidOutcomeIsFailed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockWebhookService(ctrl)
	h := NewWebhookHandler(mockSvc)

	orderID := uuid.New()
	mockSvc.EXPECT().ProcessEvent(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, in ports.WebhookInput) (*ports.WebhookResult, error) {
			assert.Equal(t, domain.WebhookOutcomeFailed, in.Outcome)
			return &ports.WebhookResult{Duplicate: false, Status: domain.OrderStatusFailed}, nil
		})

	body, _ := json.Marshal(dto.WebhookRequest{EventID: "evt-201", OrderID: orderID.String(), Outcome: "CANCELLED"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/provider", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.HandleProviderEvent(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleProviderEvent_Duplicate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockWebhookService(ctrl)
	h := NewWebhookHandler(mockSvc)

	orderID := uuid.New()
	mockSvc.EXPECT().ProcessEvent(gomock.Any(), gomock.Any()).
		Return(&ports.WebhookResult{Duplicate: true, Status: domain.OrderStatusPaid}, nil)

	body, _ := json.Marshal(dto.WebhookRequest{EventID: "evt-200", OrderID: orderID.String(), Outcome: "PAID"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/provider", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.HandleProviderEvent(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, true, data["duplicate"])
}

func TestHandleProviderEvent_OrderNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockWebhookService(ctrl)
	h := NewWebhookHandler(mockSvc)

	mockSvc.EXPECT().ProcessEvent(gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrOrderNotFound())

	body, _ := json.Marshal(dto.WebhookRequest{EventID: "evt-404", OrderID: uuid.NewString(), Outcome: "PAID"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/provider", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.HandleProviderEvent(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleProviderEvent_BadOrderID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockWebhookService(ctrl)
	h := NewWebhookHandler(mockSvc)

	body := []byte(`{"event_id":"evt-1","order_id":"not-a-uuid","outcome":"PAID"}`)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/provider", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.HandleProviderEvent(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- Order Handler Tests ---

func TestGetOrder_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockOrderQueryService(ctrl)
	h := NewOrderHandler(mockSvc)

	order := domain.NewOrder("buyer-1", "seller-1", 5000, "EUR",
		domain.BuyerTrustTrusted, domain.OrderStatusPaid)
	mockSvc.EXPECT().GetOrder(gomock.Any(), order.ID).Return(order, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+order.ID.String(), nil)
	c.Params = gin.Params{{Key: "id", Value: order.ID.String()}}

	h.GetOrder(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, order.ID.String(), data["id"])
	assert.Equal(t, "PAID", data["status"])
}

func TestGetOrder_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockOrderQueryService(ctrl)
	h := NewOrderHandler(mockSvc)

	id := uuid.New()
	mockSvc.EXPECT().GetOrder(gomock.Any(), id).Return(nil, apperror.ErrOrderNotFound())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+id.String(), nil)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.GetOrder(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetOrder_InvalidID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockOrderQueryService(ctrl)
	h := NewOrderHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/orders/abc", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	h.GetOrder(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- Health Check ---

type fakeChecker struct {
	name string
	err  error
}

func (f fakeChecker) Name() string                 { return f.name }
func (f fakeChecker) Ping(_ context.Context) error { return f.err }

func TestHealthCheck_AllHealthy(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	HealthCheck(fakeChecker{name: "postgres"}, fakeChecker{name: "redis"})(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}

func TestHealthCheck_Degraded(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	HealthCheck(fakeChecker{name: "postgres"}, fakeChecker{name: "redis", err: errors.New("down")})(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp["status"])
}
