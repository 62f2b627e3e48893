package notify

import (
	"context"
	"time"
)

// GuestConfirmation is the payload for the guest-facing booking confirmation.
// Notification payloads are explicit structs; nothing loosely typed crosses
// this boundary.
type GuestConfirmation struct {
	GuestName      string
	GuestEmail     string
	RoomTypeName   string
	CheckIn        time.Time
	CheckOut       time.Time
	TotalPriceKobo int64
}

// OperatorAlert is the payload for the operator's new-booking notification.
type OperatorAlert struct {
	BookingID      string
	GuestName      string
	GuestEmail     string
	RoomTypeName   string
	CheckIn        time.Time
	CheckOut       time.Time
	TotalPriceKobo int64
}

// Notifier delivers transactional notifications. Callers treat delivery as
// best-effort: a failed send must never fail the surrounding operation.
type Notifier interface {
	SendGuestConfirmation(ctx context.Context, in GuestConfirmation) error
	SendOperatorAlert(ctx context.Context, in OperatorAlert) error
}

// Noop is used when no email provider is configured.
type Noop struct{}

func (Noop) SendGuestConfirmation(context.Context, GuestConfirmation) error { return nil }
func (Noop) SendOperatorAlert(context.Context, OperatorAlert) error         { return nil }
