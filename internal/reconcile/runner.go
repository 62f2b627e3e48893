package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/mabuhotel/booking-backend/internal/booking"
	"github.com/mabuhotel/booking-backend/internal/bookingrequest"
)

// BookingLister loads the bookings inside the sweep window.
type BookingLister interface {
	ListCreatedSince(ctx context.Context, cutoff time.Time) ([]*booking.Booking, error)
}

// RequestLister loads the booking requests inside the sweep window.
type RequestLister interface {
	ListCreatedSince(ctx context.Context, since time.Time) ([]*bookingrequest.BookingRequest, error)
}

// RunOptions tunes one sweep. Zero values fall back to the defaults of a
// 14-day window and 24-hour pending timeout.
type RunOptions struct {
	WindowDays          int
	PendingTimeoutHours int
	Now                 time.Time
}

// WindowedResult is a Result annotated with the window it covered.
type WindowedResult struct {
	Result
	WindowStart time.Time `json:"window_start"`
	WindowDays  int       `json:"window_days"`
}

// Runner loads recent records and hands them to the pure analyzer.
type Runner struct {
	bookings BookingLister
	requests RequestLister
}

func NewRunner(bookings BookingLister, requests RequestLister) *Runner {
	return &Runner{bookings: bookings, requests: requests}
}

func (r *Runner) Run(ctx context.Context, opts RunOptions) (*WindowedResult, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	windowDays := opts.WindowDays
	if windowDays <= 0 {
		windowDays = 14
	}
	windowStart := now.Add(-time.Duration(windowDays) * 24 * time.Hour)

	bookings, err := r.bookings.ListCreatedSince(ctx, windowStart)
	if err != nil {
		return nil, fmt.Errorf("load bookings for reconciliation failed: %w", err)
	}
	requests, err := r.requests.ListCreatedSince(ctx, windowStart)
	if err != nil {
		return nil, fmt.Errorf("load booking requests for reconciliation failed: %w", err)
	}

	bookingSnapshots := make([]BookingSnapshot, 0, len(bookings))
	for _, b := range bookings {
		bookingSnapshots = append(bookingSnapshots, BookingSnapshot{
			ID:               b.ID,
			PaymentStatus:    b.PaymentStatus,
			PaymentReference: b.PaymentReference,
			TotalPriceKobo:   b.TotalPriceKobo,
			CreatedAt:        b.CreatedAt,
		})
	}

	requestSnapshots := make([]RequestSnapshot, 0, len(requests))
	for _, br := range requests {
		requestSnapshots = append(requestSnapshots, RequestSnapshot{
			ID:               br.ID,
			PaymentStatus:    string(br.PaymentStatus),
			PaymentReference: br.PaymentReference,
			BookingID:        br.BookingID,
			CreatedAt:        br.CreatedAt,
		})
	}

	result := AnalyzePaymentConsistency(bookingSnapshots, requestSnapshots, Options{
		Now:                 now,
		PendingTimeoutHours: opts.PendingTimeoutHours,
	})

	return &WindowedResult{
		Result:      result,
		WindowStart: windowStart,
		WindowDays:  windowDays,
	}, nil
}
