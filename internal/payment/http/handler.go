package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mabuhotel/booking-backend/internal/bookingrequest"
	"github.com/mabuhotel/booking-backend/internal/payment"
	"github.com/mabuhotel/booking-backend/internal/pkg/logger"
	"github.com/mabuhotel/booking-backend/internal/pkg/response"
)

const signatureHeader = "X-Paystack-Signature"

type Handler struct {
	client     *payment.Client
	reconciler *payment.Reconciler
	requests   bookingrequest.Service
}

func NewHandler(client *payment.Client, reconciler *payment.Reconciler, requests bookingrequest.Service) *Handler {
	return &Handler{
		client:     client,
		reconciler: reconciler,
		requests:   requests,
	}
}

// Webhook receives asynchronous payment confirmations. Deliveries are
// at-least-once; everything past the signature check acknowledges with 200 so
// the gateway stops redelivering events we have already settled or escalated.
func (h *Handler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	if !h.reconciler.VerifySignature(body, c.GetHeader(signatureHeader)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	outcome, err := h.reconciler.HandleEvent(c.Request.Context(), body)
	if err != nil {
		// Transient; a 500 makes the gateway redeliver.
		logger.Get().Error("webhook processing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": string(outcome)})
}

// CreatePayment opens a fresh gateway transaction for an existing booking
// request after a failed attempt.
func (h *Handler) CreatePayment(c *gin.Context) {
	var body CreatePaymentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	ctx := c.Request.Context()
	br, err := h.requests.GetByID(ctx, body.BookingRequestID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if br.PaymentStatus.Terminal() {
		c.JSON(http.StatusConflict, gin.H{"error": "booking request payment is already settled"})
		return
	}

	br, err = h.requests.PrepareForPaymentRetry(ctx, br.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.client.InitializeTransaction(ctx, payment.InitInput{
		Email:       br.Email,
		AmountKobo:  br.AmountKobo,
		CallbackURL: body.CallbackURL,
		Metadata: map[string]any{
			"bookingRequestId": br.ID,
		},
	})
	if err != nil {
		var ie *payment.InitError
		if errors.As(err, &ie) {
			if markErr := h.requests.RecordInitError(ctx, br.ID, ie.Message); markErr != nil {
				logger.Get().Warn("recording init error on booking request errored",
					zap.String("bookingRequestId", br.ID), zap.Error(markErr))
			}
			if ie.Retryable() {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"error":     "payment provider is unavailable, please try again",
					"retryable": true,
				})
				return
			}
			c.JSON(http.StatusBadGateway, gin.H{
				"error":     "payment provider rejected the transaction",
				"retryable": false,
			})
			return
		}
		response.Error(c, err)
		return
	}

	if err := h.requests.AttachPaymentReference(ctx, br.ID, result.Reference); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, CreatePaymentResponse{
		BookingRequestID: br.ID,
		Reference:        result.Reference,
		AuthorizationURL: result.AuthorizationURL,
		AccessCode:       result.AccessCode,
		AmountKobo:       br.AmountKobo,
	})
}

// Verify is the guest-facing payment poll. It reports the request's settled
// state when the webhook has landed, otherwise the gateway's own view.
// The manual-review state is reported as "processing".
func (h *Handler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	ctx := c.Request.Context()
	br, err := h.requests.GetByReference(ctx, req.Reference)
	if err != nil && !errors.Is(err, bookingrequest.ErrNotFound) {
		response.Error(c, err)
		return
	}

	if br != nil {
		switch br.PaymentStatus {
		case bookingrequest.StatusPaid:
			c.JSON(http.StatusOK, VerifyResponse{
				Reference: req.Reference,
				Status:    "paid",
				BookingID: br.BookingID,
			})
			return
		case bookingrequest.StatusPaidNeedsReview:
			c.JSON(http.StatusOK, VerifyResponse{Reference: req.Reference, Status: "processing"})
			return
		}
	}

	verified, err := h.client.VerifyTransaction(ctx, req.Reference)
	if err != nil {
		response.Error(c, err)
		return
	}

	status := verified.Status
	if status == "success" {
		// Paid at the gateway but the webhook has not settled it yet.
		status = "processing"
	}
	c.JSON(http.StatusOK, VerifyResponse{Reference: req.Reference, Status: status})
}
