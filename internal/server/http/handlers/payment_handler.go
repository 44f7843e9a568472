package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/archstore/internal/server/http/dto"
)

// SignatureHeader carries the provider webhook signature.
const SignatureHeader = "Stripe-Signature"

// PaymentHandler manages payment endpoints.
type PaymentHandler struct {
	facade PaymentFacade
}

// NewPaymentHandler constructs PaymentHandler.
func NewPaymentHandler(facade PaymentFacade) *PaymentHandler {
	return &PaymentHandler{facade: facade}
}

// CreateIntent handles POST /api/payment/create-payment-intent.
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	var req dto.CreatePaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	intent, err := h.facade.InitiatePayment(c.Request.Context(), req.OrderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.PaymentIntentResponse{ClientSecret: intent.ClientSecret, PaymentIntentID: intent.ID})
}

// Webhook handles POST /api/payment/webhook. The body is verified byte for
// byte, so it is read raw and never bound.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	signature := c.GetHeader(SignatureHeader)
	if signature == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Message: "missing stripe signature"})
		return
	}

	payload, err := c.GetRawData()
	if err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := h.facade.HandleWebhook(c.Request.Context(), payload, signature); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.WebhookResponse{Received: true})
}

// Status handles GET /api/payment/status/:paymentIntentId.
func (h *PaymentHandler) Status(c *gin.Context) {
	intent, err := h.facade.PaymentStatus(c.Request.Context(), c.Param("paymentIntentId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.PaymentStatusResponse{Status: intent.Status, Amount: intent.Amount, Currency: intent.Currency})
}
