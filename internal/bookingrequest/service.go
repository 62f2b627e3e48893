package bookingrequest

import (
	"context"
	"errors"
	"time"

	"github.com/mabuhotel/booking-backend/internal/timepolicy"
)

// CreateInput carries the guest-submitted fields of a reservation intent.
// The caller must already have confirmed availability; creation itself does
// not check inventory.
type CreateInput struct {
	FullName          string
	PhoneNumber       string
	Email             string
	ArrivalDay        timepolicy.DayKey
	DepartureDay      timepolicy.DayKey
	RoomTypeID        string
	RoomSpecification string
	HeardAboutUs      string
	GuestType         string
	Gender            string
	TermsAccepted     bool
	OfficialID        OfficialID
}

type Service interface {
	Create(ctx context.Context, in CreateInput, amountKobo int64) (*BookingRequest, error)

	// FindReusable returns a recent unpaid request matching the key, or nil
	// when the guest should get a fresh request instead.
	FindReusable(ctx context.Context, key ReuseKey) (*BookingRequest, error)

	// PrepareForPaymentRetry resets a reused request to initiated and clears
	// its recorded error, ahead of a fresh gateway initialization.
	PrepareForPaymentRetry(ctx context.Context, id string) (*BookingRequest, error)

	AttachPaymentReference(ctx context.Context, id, reference string) error
	RecordInitError(ctx context.Context, id, reason string) error
	MarkFailed(ctx context.Context, id, reason string) error
	MarkPaid(ctx context.Context, in MarkPaidInput) error
	MarkPaidNeedsReview(ctx context.Context, in ReviewInput) error

	GetByID(ctx context.Context, id string) (*BookingRequest, error)
	GetByReference(ctx context.Context, reference string) (*BookingRequest, error)

	// GetByIDOrReference resolves a request by id when given, falling back to
	// the payment reference. Returns nil when neither matches.
	GetByIDOrReference(ctx context.Context, id, reference string) (*BookingRequest, error)

	ListCreatedSince(ctx context.Context, since time.Time) ([]*BookingRequest, error)
}

type service struct {
	repo        Repository
	reuseWindow time.Duration
	now         func() time.Time
}

// NewService builds the booking-request state machine. reuseWindow bounds how
// far back FindReusable will look for a retryable request.
func NewService(repo Repository, reuseWindow time.Duration) Service {
	return &service{repo: repo, reuseWindow: reuseWindow, now: time.Now}
}

// NewServiceWithClock pins the clock for tests.
func NewServiceWithClock(repo Repository, reuseWindow time.Duration, now func() time.Time) Service {
	return &service{repo: repo, reuseWindow: reuseWindow, now: now}
}

func (s *service) Create(ctx context.Context, in CreateInput, amountKobo int64) (*BookingRequest, error) {
	if amountKobo <= 0 {
		return nil, ErrInvalidInput
	}
	if _, err := timepolicy.ParseDayKey(string(in.ArrivalDay)); err != nil {
		return nil, err
	}
	if _, err := timepolicy.ParseDayKey(string(in.DepartureDay)); err != nil {
		return nil, err
	}

	br := &BookingRequest{
		FullName:          in.FullName,
		PhoneNumber:       in.PhoneNumber,
		Email:             in.Email,
		ArrivalDay:        in.ArrivalDay,
		DepartureDay:      in.DepartureDay,
		RoomTypeID:        in.RoomTypeID,
		RoomSpecification: in.RoomSpecification,
		HeardAboutUs:      in.HeardAboutUs,
		GuestType:         in.GuestType,
		Gender:            in.Gender,
		TermsAccepted:     in.TermsAccepted,
		OfficialID:        in.OfficialID,
		AmountKobo:        amountKobo,
		PaymentStatus:     StatusInitiated,
	}

	if err := s.repo.Create(ctx, br); err != nil {
		return nil, err
	}
	return br, nil
}

func (s *service) FindReusable(ctx context.Context, key ReuseKey) (*BookingRequest, error) {
	cutoff := s.now().Add(-s.reuseWindow)
	br, err := s.repo.FindLatestReusable(ctx, key, cutoff)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return br, nil
}

func (s *service) PrepareForPaymentRetry(ctx context.Context, id string) (*BookingRequest, error) {
	if err := s.repo.ResetForRetry(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) AttachPaymentReference(ctx context.Context, id, reference string) error {
	return s.repo.AttachReference(ctx, id, reference)
}

func (s *service) RecordInitError(ctx context.Context, id, reason string) error {
	return s.repo.RecordInitError(ctx, id, reason)
}

func (s *service) MarkFailed(ctx context.Context, id, reason string) error {
	return s.repo.MarkFailed(ctx, id, reason)
}

func (s *service) MarkPaid(ctx context.Context, in MarkPaidInput) error {
	return s.repo.MarkPaid(ctx, in)
}

func (s *service) MarkPaidNeedsReview(ctx context.Context, in ReviewInput) error {
	return s.repo.MarkPaidNeedsReview(ctx, in)
}

func (s *service) GetByID(ctx context.Context, id string) (*BookingRequest, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetByReference(ctx context.Context, reference string) (*BookingRequest, error) {
	return s.repo.GetByReference(ctx, reference)
}

func (s *service) GetByIDOrReference(ctx context.Context, id, reference string) (*BookingRequest, error) {
	if id != "" {
		br, err := s.repo.GetByID(ctx, id)
		if err == nil {
			return br, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	br, err := s.repo.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return br, nil
}

func (s *service) ListCreatedSince(ctx context.Context, since time.Time) ([]*BookingRequest, error) {
	return s.repo.ListCreatedSince(ctx, since)
}
