package http

import (
	"time"

	"github.com/mabuhotel/booking-backend/internal/booking"
)

// ExtendRequest moves a booking's departure to a later day.
type ExtendRequest struct {
	BookingID       string `json:"booking_id" binding:"required,uuid"`
	NewDepartureDay string `json:"new_departure_day" binding:"required"`
}

type BookingResponse struct {
	ID               string    `json:"id"`
	RoomID           string    `json:"room_id"`
	GuestName        string    `json:"guest_name"`
	GuestEmail       string    `json:"guest_email"`
	CheckIn          time.Time `json:"check_in"`
	CheckOut         time.Time `json:"check_out"`
	TotalPriceKobo   int64     `json:"total_price_kobo"`
	PaymentStatus    string    `json:"payment_status"`
	PaymentReference *string   `json:"payment_reference,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

func NewResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:               b.ID,
		RoomID:           b.RoomID,
		GuestName:        b.GuestName,
		GuestEmail:       b.GuestEmail,
		CheckIn:          b.CheckIn,
		CheckOut:         b.CheckOut,
		TotalPriceKobo:   b.TotalPriceKobo,
		PaymentStatus:    b.PaymentStatus,
		PaymentReference: b.PaymentReference,
		CreatedAt:        b.CreatedAt,
	}
}
