package bookingrequest

import (
	"net/http"
	"time"

	"github.com/mabuhotel/booking-backend/internal/pkg/apperror"
	"github.com/mabuhotel/booking-backend/internal/timepolicy"
)

var (
	ErrNotFound     = apperror.New(http.StatusNotFound, "booking request not found")
	ErrInvalidInput = apperror.New(http.StatusBadRequest, "invalid booking request input")
)

// Status is the payment lifecycle of a pre-payment reservation intent.
//
//	initiated -> paid               (webhook-confirmed success)
//	initiated -> paid_needs_review  (automated verification could not confirm)
//	initiated -> failed             (gateway initialization rejected)
//	failed    -> initiated          (reuse path, guest retries payment)
//
// paid and paid_needs_review are terminal for automated transitions.
type Status string

const (
	StatusInitiated       Status = "initiated"
	StatusPaid            Status = "paid"
	StatusPaidNeedsReview Status = "paid_needs_review"
	StatusFailed          Status = "failed"
)

// Terminal reports whether automation may still transition the request.
func (s Status) Terminal() bool {
	return s == StatusPaid || s == StatusPaidNeedsReview
}

// OfficialID is the reference to a guest's already-uploaded identity document.
// Upload handling itself lives outside this service.
type OfficialID struct {
	URL          string
	MimeType     string
	OriginalName string
	SizeBytes    int64
}

// BookingRequest captures guest-submitted stay data before payment confirms.
type BookingRequest struct {
	ID string

	FullName    string
	PhoneNumber string
	Email       string

	ArrivalDay   timepolicy.DayKey
	DepartureDay timepolicy.DayKey
	RoomTypeID   string

	RoomSpecification string
	HeardAboutUs      string
	GuestType         string
	Gender            string
	TermsAccepted     bool
	OfficialID        OfficialID

	AmountKobo    int64
	PaymentStatus Status

	PaymentReference *string
	BookingID        *string

	// Diagnostic fields, populated only on review/failure paths.
	ReviewReason       *string
	LastError          *string
	VerifiedAmountKobo *int64
	VerifiedCurrency   *string
	WebhookReceivedAt  *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReuseKey identifies a retryable prior request. All five fields must match
// exactly; a price change inside the window deliberately misses and a fresh
// request is created instead.
type ReuseKey struct {
	Email        string
	RoomTypeID   string
	ArrivalDay   timepolicy.DayKey
	DepartureDay timepolicy.DayKey
	AmountKobo   int64
}
