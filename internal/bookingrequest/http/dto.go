package http

import (
	"errors"
)

// InitiateRequest is the guest-facing payload that starts a reservation:
// validate stay, price it, persist the intent and open a payment transaction.
type InitiateRequest struct {
	FullName     string `json:"full_name" binding:"required,min=1,max=200"`
	PhoneNumber  string `json:"phone_number" binding:"required,min=5,max=32"`
	Email        string `json:"email" binding:"required,email"`
	RoomTypeID   string `json:"room_type_id" binding:"required,uuid"`
	ArrivalDay   string `json:"arrival_day" binding:"required"`
	DepartureDay string `json:"departure_day" binding:"required"`

	RoomSpecification string `json:"room_specification"`
	HeardAboutUs      string `json:"heard_about_us"`
	GuestType         string `json:"guest_type"`
	Gender            string `json:"gender"`
	TermsAccepted     bool   `json:"terms_accepted"`

	OfficialIDURL          string `json:"official_id_url"`
	OfficialIDMimeType     string `json:"official_id_mime_type"`
	OfficialIDOriginalName string `json:"official_id_original_name"`
	OfficialIDSizeBytes    int64  `json:"official_id_size_bytes"`

	// CallbackURL optionally overrides where the gateway sends the guest back.
	CallbackURL string `json:"callback_url"`
}

// Validate performs custom validation for InitiateRequest.
func (r *InitiateRequest) Validate() error {
	if !r.TermsAccepted {
		return errors.New("terms must be accepted")
	}
	return nil
}

type InitiateResponse struct {
	BookingRequestID string `json:"booking_request_id"`
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	AmountKobo       int64  `json:"amount_kobo"`
	Reused           bool   `json:"reused"`
}

type RequestStatusResponse struct {
	ID            string  `json:"id"`
	PaymentStatus string  `json:"payment_status"`
	BookingID     *string `json:"booking_id,omitempty"`
}
