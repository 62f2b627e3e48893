package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mabuhotel/booking-backend/internal/availability"
	"github.com/mabuhotel/booking-backend/internal/bookingrequest"
	"github.com/mabuhotel/booking-backend/internal/payment"
	"github.com/mabuhotel/booking-backend/internal/pkg/logger"
	"github.com/mabuhotel/booking-backend/internal/pkg/request"
	"github.com/mabuhotel/booking-backend/internal/pkg/response"
	"github.com/mabuhotel/booking-backend/internal/roomtype"
	"github.com/mabuhotel/booking-backend/internal/timepolicy"
)

// Initializer is the slice of the gateway client the initiate flow needs.
type Initializer interface {
	InitializeTransaction(ctx context.Context, in payment.InitInput) (*payment.InitResult, error)
}

type Handler struct {
	requests     bookingrequest.Service
	roomTypes    roomtype.Service
	availability availability.Service
	gateway      Initializer
}

func NewHandler(
	requests bookingrequest.Service,
	roomTypes roomtype.Service,
	avail availability.Service,
	gateway Initializer,
) *Handler {
	return &Handler{
		requests:     requests,
		roomTypes:    roomTypes,
		availability: avail,
		gateway:      gateway,
	}
}

// Initiate validates and prices the stay, persists (or reuses) the booking
// request, and opens a gateway transaction. The request stays `initiated`
// until the asynchronous webhook settles it.
func (h *Handler) Initiate(c *gin.Context) {
	var body InitiateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	if err := body.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()

	arrival, err := timepolicy.ParseDayKey(body.ArrivalDay)
	if err != nil {
		response.Error(c, err)
		return
	}
	departure, err := timepolicy.ParseDayKey(body.DepartureDay)
	if err != nil {
		response.Error(c, err)
		return
	}
	arrivalEpoch, err := timepolicy.DayKeyToEpochDay(arrival)
	if err != nil {
		response.Error(c, err)
		return
	}
	departureEpoch, err := timepolicy.DayKeyToEpochDay(departure)
	if err != nil {
		response.Error(c, err)
		return
	}
	nights := departureEpoch - arrivalEpoch
	if nights <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "departure day must be after arrival day"})
		return
	}

	rt, err := h.roomTypes.GetByID(ctx, body.RoomTypeID)
	if err != nil {
		response.Error(c, err)
		return
	}
	amountKobo := nights * rt.PriceKobo

	unit, err := h.availability.FindAvailableUnit(ctx, body.RoomTypeID, arrival, departure)
	if err != nil {
		response.Error(c, err)
		return
	}
	if unit == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "no rooms available for the selected dates"})
		return
	}

	br, reused, err := h.findOrCreateRequest(ctx, body, arrival, departure, amountKobo)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.gateway.InitializeTransaction(ctx, payment.InitInput{
		Email:       body.Email,
		AmountKobo:  amountKobo,
		CallbackURL: body.CallbackURL,
		Metadata: map[string]any{
			"bookingRequestId": br.ID,
			"roomTypeId":       body.RoomTypeID,
			"arrivalDay":       string(arrival),
			"departureDay":     string(departure),
		},
	})
	if err != nil {
		h.failInitialization(ctx, br.ID, err)
		respondInitError(c, err)
		return
	}

	if err := h.requests.AttachPaymentReference(ctx, br.ID, result.Reference); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, InitiateResponse{
		BookingRequestID: br.ID,
		Reference:        result.Reference,
		AuthorizationURL: result.AuthorizationURL,
		AccessCode:       result.AccessCode,
		AmountKobo:       amountKobo,
		Reused:           reused,
	})
}

// findOrCreateRequest reuses a recent unpaid request for the identical stay
// when one exists, so a guest retrying a failed payment does not pile up
// duplicate rows.
func (h *Handler) findOrCreateRequest(
	ctx context.Context,
	body InitiateRequest,
	arrival, departure timepolicy.DayKey,
	amountKobo int64,
) (*bookingrequest.BookingRequest, bool, error) {
	existing, err := h.requests.FindReusable(ctx, bookingrequest.ReuseKey{
		Email:        body.Email,
		RoomTypeID:   body.RoomTypeID,
		ArrivalDay:   arrival,
		DepartureDay: departure,
		AmountKobo:   amountKobo,
	})
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		br, err := h.requests.PrepareForPaymentRetry(ctx, existing.ID)
		if err != nil {
			return nil, false, err
		}
		return br, true, nil
	}

	br, err := h.requests.Create(ctx, bookingrequest.CreateInput{
		FullName:          body.FullName,
		PhoneNumber:       body.PhoneNumber,
		Email:             body.Email,
		ArrivalDay:        arrival,
		DepartureDay:      departure,
		RoomTypeID:        body.RoomTypeID,
		RoomSpecification: body.RoomSpecification,
		HeardAboutUs:      body.HeardAboutUs,
		GuestType:         body.GuestType,
		Gender:            body.Gender,
		TermsAccepted:     body.TermsAccepted,
		OfficialID: bookingrequest.OfficialID{
			URL:          body.OfficialIDURL,
			MimeType:     body.OfficialIDMimeType,
			OriginalName: body.OfficialIDOriginalName,
			SizeBytes:    body.OfficialIDSizeBytes,
		},
	}, amountKobo)
	if err != nil {
		return nil, false, err
	}
	return br, false, nil
}

// failInitialization records the gateway failure on the request. Retryable
// failures keep the request reusable; non-retryable ones close it.
func (h *Handler) failInitialization(ctx context.Context, requestID string, initErr error) {
	var ie *payment.InitError
	if errors.As(initErr, &ie) && !ie.Retryable() {
		if err := h.requests.MarkFailed(ctx, requestID, ie.Message); err != nil {
			logger.Get().Warn("marking booking request failed errored",
				zap.String("bookingRequestId", requestID), zap.Error(err))
		}
		return
	}

	if err := h.requests.RecordInitError(ctx, requestID, initErr.Error()); err != nil {
		logger.Get().Warn("recording init error on booking request errored",
			zap.String("bookingRequestId", requestID), zap.Error(err))
	}
}

func respondInitError(c *gin.Context, err error) {
	var ie *payment.InitError
	if errors.As(err, &ie) {
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
}

// Get returns the current payment state of one booking request; the guest's
// post-payment page polls this.
func (h *Handler) Get(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	br, err := h.requests.GetByID(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, RequestStatusResponse{
		ID:            br.ID,
		PaymentStatus: publicStatus(br.PaymentStatus),
		BookingID:     br.BookingID,
	})
}

// publicStatus hides the manual-review state from guests; to them the payment
// is simply still processing.
func publicStatus(s bookingrequest.Status) string {
	if s == bookingrequest.StatusPaidNeedsReview {
		return "processing"
	}
	return string(s)
}
