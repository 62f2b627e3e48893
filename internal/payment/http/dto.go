package http

// CreatePaymentRequest re-opens a gateway transaction for an existing booking
// request, typically after an earlier attempt failed.
type CreatePaymentRequest struct {
	BookingRequestID string `json:"booking_request_id" binding:"required,uuid"`
	// CallbackURL optionally overrides where the gateway sends the guest back.
	CallbackURL string `json:"callback_url"`
}

type CreatePaymentResponse struct {
	BookingRequestID string `json:"booking_request_id"`
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	AmountKobo       int64  `json:"amount_kobo"`
}

// VerifyRequest defines query parameters for the guest-facing payment poll.
type VerifyRequest struct {
	Reference string `form:"reference" binding:"required"`
}

type VerifyResponse struct {
	Reference string  `json:"reference"`
	Status    string  `json:"status"`
	BookingID *string `json:"booking_id,omitempty"`
}
