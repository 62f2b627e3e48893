package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mabuhotel/booking-backend/internal/booking"
	"github.com/mabuhotel/booking-backend/internal/bookingrequest"
	"github.com/mabuhotel/booking-backend/internal/pkg/logger"
	"github.com/mabuhotel/booking-backend/internal/room"
	"github.com/mabuhotel/booking-backend/internal/timepolicy"
)

// Review reasons recorded when a paid transaction cannot be confirmed
// automatically. Money has moved in every one of these cases, so the request
// escalates to a human instead of failing.
const (
	ReasonReferenceMismatchWithRequest      = "REFERENCE_MISMATCH_WITH_REQUEST"
	ReasonReferenceMismatchWithVerification = "REFERENCE_MISMATCH_WITH_VERIFICATION"
	ReasonPaymentStatusNotSuccess           = "PAYMENT_STATUS_NOT_SUCCESS"
	ReasonAmountOrCurrencyMismatch          = "AMOUNT_OR_CURRENCY_MISMATCH"
	ReasonPaidButNoRoomAvailable            = "PAID_BUT_NO_ROOM_AVAILABLE"
	ReasonBookingCreationUnsuccessful       = "BOOKING_CREATION_RETURNED_UNSUCCESSFUL"
	ReasonBookingCreationException          = "BOOKING_CREATION_EXCEPTION"
)

const expectedCurrency = "NGN"

// Outcome summarizes how one webhook delivery was settled.
type Outcome string

const (
	OutcomeIgnored     Outcome = "ignored"
	OutcomeOrphaned    Outcome = "orphaned"
	OutcomeDuplicate   Outcome = "duplicate"
	OutcomeBooked      Outcome = "booked"
	OutcomeNeedsReview Outcome = "needs_review"
)

// Verifier is the slice of the gateway client the reconciler needs.
type Verifier interface {
	VerifyTransaction(ctx context.Context, reference string) (*VerifyResult, error)
}

// RequestStore is the slice of the booking-request state machine the
// reconciler transitions.
type RequestStore interface {
	GetByIDOrReference(ctx context.Context, id, reference string) (*bookingrequest.BookingRequest, error)
	MarkPaid(ctx context.Context, in bookingrequest.MarkPaidInput) error
	MarkPaidNeedsReview(ctx context.Context, in bookingrequest.ReviewInput) error
}

// BookingCreator creates and resolves confirmed bookings.
type BookingCreator interface {
	Create(ctx context.Context, in booking.CreateInput) (*booking.Booking, error)
	GetByReference(ctx context.Context, reference string) (*booking.Booking, error)
}

// UnitFinder re-checks that a unit is still free at settlement time.
type UnitFinder interface {
	FindAvailableUnit(ctx context.Context, roomTypeID string, checkInDay, checkOutDay timepolicy.DayKey) (*room.Room, error)
}

// webhookEvent is the subset of the gateway's event payload we act on.
type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
		Currency  string `json:"currency"`
		Status    string `json:"status"`
		Metadata  struct {
			BookingRequestID string `json:"bookingRequestId"`
		} `json:"metadata"`
	} `json:"data"`
}

// Reconciler turns verified gateway events into bookings. Deliveries may
// arrive more than once and out of order; every path through HandleEvent is
// safe to replay.
type Reconciler struct {
	secret       string
	requests     RequestStore
	bookings     BookingCreator
	availability UnitFinder
	verifier     Verifier
}

func NewReconciler(
	secret string,
	requests RequestStore,
	bookings BookingCreator,
	availability UnitFinder,
	verifier Verifier,
) *Reconciler {
	return &Reconciler{
		secret:       secret,
		requests:     requests,
		bookings:     bookings,
		availability: availability,
		verifier:     verifier,
	}
}

// VerifySignature checks the HMAC-SHA512 hex signature the gateway computes
// over the raw request body. Constant-time compare.
func (r *Reconciler) VerifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(r.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// HandleEvent processes one already-authenticated webhook body. A non-nil
// error means a transient failure the gateway should redeliver; every
// business outcome, including escalation, returns nil.
func (r *Reconciler) HandleEvent(ctx context.Context, body []byte) (Outcome, error) {
	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		logger.Get().Warn("webhook body did not parse", zap.Error(err))
		return OutcomeIgnored, nil
	}
	if event.Event != "charge.success" || event.Data.Reference == "" {
		return OutcomeIgnored, nil
	}
	reference := event.Data.Reference
	log := logger.Get().With(zap.String("reference", reference))

	req, err := r.requests.GetByIDOrReference(ctx, event.Data.Metadata.BookingRequestID, reference)
	if err != nil {
		return "", fmt.Errorf("resolve booking request for webhook failed: %w", err)
	}
	if req == nil {
		// Paid transaction with no request on record. Nothing to transition;
		// acknowledged so the gateway stops redelivering, flagged for the
		// reconciliation sweep to surface.
		log.Warn("webhook for unknown booking request",
			zap.String("bookingRequestId", event.Data.Metadata.BookingRequestID))
		return OutcomeOrphaned, nil
	}
	log = log.With(zap.String("bookingRequestId", req.ID))

	// Replayed delivery for an already-settled request.
	if req.PaymentStatus == bookingrequest.StatusPaid && req.BookingID != nil {
		return OutcomeDuplicate, nil
	}
	if req.PaymentStatus == bookingrequest.StatusPaidNeedsReview {
		return OutcomeDuplicate, nil
	}

	if req.PaymentReference != nil && *req.PaymentReference != reference {
		log.Warn("webhook reference does not match the request's reference",
			zap.String("requestReference", *req.PaymentReference))
		return r.escalate(ctx, req.ID, reference, ReasonReferenceMismatchWithRequest,
			fmt.Sprintf("request holds reference %s", *req.PaymentReference), nil, nil)
	}

	verified, err := r.verifier.VerifyTransaction(ctx, reference)
	if err != nil {
		// Transient until proven otherwise; the gateway will redeliver.
		return "", fmt.Errorf("verify transaction for webhook failed: %w", err)
	}
	if verified.Reference != reference {
		return r.escalate(ctx, req.ID, reference, ReasonReferenceMismatchWithVerification,
			fmt.Sprintf("verification returned reference %s", verified.Reference),
			&verified.AmountKobo, &verified.Currency)
	}
	if verified.Status != "success" {
		return r.escalate(ctx, req.ID, reference, ReasonPaymentStatusNotSuccess,
			fmt.Sprintf("verified status %q: %s", verified.Status, verified.GatewayResponse),
			&verified.AmountKobo, &verified.Currency)
	}
	if verified.AmountKobo != req.AmountKobo || verified.Currency != expectedCurrency {
		return r.escalate(ctx, req.ID, reference, ReasonAmountOrCurrencyMismatch,
			fmt.Sprintf("verified %d %s, expected %d %s",
				verified.AmountKobo, verified.Currency, req.AmountKobo, expectedCurrency),
			&verified.AmountKobo, &verified.Currency)
	}

	// Availability was checked at initiation; the room may have gone since.
	unit, err := r.availability.FindAvailableUnit(ctx, req.RoomTypeID, req.ArrivalDay, req.DepartureDay)
	if err != nil {
		return "", fmt.Errorf("availability re-check for webhook failed: %w", err)
	}
	if unit == nil {
		return r.escalate(ctx, req.ID, reference, ReasonPaidButNoRoomAvailable,
			"no unit free for the paid stay", &verified.AmountKobo, &verified.Currency)
	}

	b, err := r.bookings.Create(ctx, booking.CreateInput{
		RoomID:           unit.ID,
		GuestName:        req.FullName,
		GuestEmail:       req.Email,
		ArrivalDay:       req.ArrivalDay,
		DepartureDay:     req.DepartureDay,
		TotalPriceKobo:   req.AmountKobo,
		PaymentReference: &reference,
	})
	switch {
	case err == nil && b != nil && b.ID != "":
		// Created below.
	case errors.Is(err, booking.ErrDuplicateReference):
		// A concurrent delivery won the insert. Settle against its booking.
		existing, lookupErr := r.bookings.GetByReference(ctx, reference)
		if lookupErr != nil {
			return "", fmt.Errorf("lookup booking after duplicate reference failed: %w", lookupErr)
		}
		if markErr := r.markPaid(ctx, req.ID, reference, existing.ID, verified); markErr != nil {
			return "", markErr
		}
		return OutcomeDuplicate, nil
	case err != nil:
		log.Error("booking creation from webhook failed", zap.Error(err))
		return r.escalate(ctx, req.ID, reference, ReasonBookingCreationException,
			err.Error(), &verified.AmountKobo, &verified.Currency)
	default:
		return r.escalate(ctx, req.ID, reference, ReasonBookingCreationUnsuccessful,
			"booking creation returned no booking", &verified.AmountKobo, &verified.Currency)
	}

	if err := r.markPaid(ctx, req.ID, reference, b.ID, verified); err != nil {
		return "", err
	}
	log.Info("webhook settled into booking", zap.String("bookingId", b.ID))
	return OutcomeBooked, nil
}

func (r *Reconciler) markPaid(ctx context.Context, requestID, reference, bookingID string, verified *VerifyResult) error {
	err := r.requests.MarkPaid(ctx, bookingrequest.MarkPaidInput{
		ID:                 requestID,
		PaymentReference:   reference,
		BookingID:          bookingID,
		VerifiedAmountKobo: &verified.AmountKobo,
		VerifiedCurrency:   &verified.Currency,
	})
	if err != nil {
		return fmt.Errorf("mark booking request paid failed: %w", err)
	}
	return nil
}

func (r *Reconciler) escalate(
	ctx context.Context,
	requestID, reference, reason, detail string,
	amountKobo *int64, currency *string,
) (Outcome, error) {
	err := r.requests.MarkPaidNeedsReview(ctx, bookingrequest.ReviewInput{
		ID:                 requestID,
		PaymentReference:   reference,
		ReviewReason:       reason,
		LastError:          detail,
		VerifiedAmountKobo: amountKobo,
		VerifiedCurrency:   currency,
	})
	if err != nil {
		return "", fmt.Errorf("escalate booking request to review failed: %w", err)
	}
	logger.Get().Warn("payment escalated to manual review",
		zap.String("bookingRequestId", requestID),
		zap.String("reference", reference),
		zap.String("reason", reason),
		zap.String("detail", detail))
	return OutcomeNeedsReview, nil
}
