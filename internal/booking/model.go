package booking

import (
	"net/http"
	"time"

	"github.com/mabuhotel/booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound           = apperror.New(http.StatusNotFound, "booking not found")
	ErrDuplicateReference = apperror.New(http.StatusConflict, "a booking already exists for this payment reference")
	ErrRoomUnavailable    = apperror.New(http.StatusConflict, "room is not available for the requested period")
	ErrInvalidExtension   = apperror.New(http.StatusBadRequest, "new departure day must be after the current one")
)

// PaymentStatusPaid is the only status a booking is ever created with.
// Bookings exist exclusively downstream of a confirmed payment.
const PaymentStatusPaid = "paid"

// Booking is a confirmed, paid stay on one physical unit. CheckIn and CheckOut
// are resolved instants; the civil days they came from are recoverable through
// the time policy.
type Booking struct {
	ID     string
	RoomID string

	GuestName  string
	GuestEmail string

	CheckIn  time.Time
	CheckOut time.Time

	TotalPriceKobo int64
	PaymentStatus  string

	// PaymentReference links the booking back to the gateway transaction.
	// Unique when set; the reconciler depends on that for dedup.
	PaymentReference *string

	CreatedAt time.Time
	UpdatedAt time.Time
}
