package bookingrequest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mabuhotel/booking-backend/internal/timepolicy"
)

type fakeRepo struct {
	requests []*BookingRequest
	nextID   int
}

func (f *fakeRepo) Create(_ context.Context, br *BookingRequest) error {
	f.nextID++
	br.ID = fmt.Sprintf("req-%d", f.nextID)
	br.PaymentStatus = StatusInitiated
	br.CreatedAt = time.Now()
	br.UpdatedAt = br.CreatedAt
	f.requests = append(f.requests, br)
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*BookingRequest, error) {
	for _, br := range f.requests {
		if br.ID == id {
			return br, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeRepo) GetByReference(_ context.Context, reference string) (*BookingRequest, error) {
	for _, br := range f.requests {
		if br.PaymentReference != nil && *br.PaymentReference == reference {
			return br, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeRepo) FindLatestReusable(_ context.Context, key ReuseKey, cutoff time.Time) (*BookingRequest, error) {
	var latest *BookingRequest
	for _, br := range f.requests {
		if br.Email != key.Email || br.RoomTypeID != key.RoomTypeID ||
			br.ArrivalDay != key.ArrivalDay || br.DepartureDay != key.DepartureDay ||
			br.AmountKobo != key.AmountKobo {
			continue
		}
		if br.PaymentReference != nil {
			continue
		}
		if br.PaymentStatus != StatusInitiated && br.PaymentStatus != StatusFailed {
			continue
		}
		if br.CreatedAt.Before(cutoff) {
			continue
		}
		if latest == nil || br.CreatedAt.After(latest.CreatedAt) {
			latest = br
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return latest, nil
}

func (f *fakeRepo) ResetForRetry(ctx context.Context, id string) error {
	br, err := f.GetByID(ctx, id)
	if err != nil {
		return err
	}
	br.PaymentStatus = StatusInitiated
	br.LastError = nil
	return nil
}

func (f *fakeRepo) AttachReference(ctx context.Context, id, reference string) error {
	br, err := f.GetByID(ctx, id)
	if err != nil {
		return err
	}
	br.PaymentReference = &reference
	br.LastError = nil
	return nil
}

func (f *fakeRepo) RecordInitError(ctx context.Context, id, lastError string) error {
	br, err := f.GetByID(ctx, id)
	if err != nil {
		return err
	}
	br.LastError = &lastError
	return nil
}

func (f *fakeRepo) MarkFailed(ctx context.Context, id string, reason string) error {
	br, err := f.GetByID(ctx, id)
	if err != nil {
		return err
	}
	br.PaymentStatus = StatusFailed
	br.LastError = &reason
	return nil
}

func (f *fakeRepo) MarkPaid(ctx context.Context, in MarkPaidInput) error {
	br, err := f.GetByID(ctx, in.ID)
	if err != nil {
		return err
	}
	br.PaymentStatus = StatusPaid
	br.PaymentReference = &in.PaymentReference
	br.BookingID = &in.BookingID
	return nil
}

func (f *fakeRepo) MarkPaidNeedsReview(ctx context.Context, in ReviewInput) error {
	br, err := f.GetByID(ctx, in.ID)
	if err != nil {
		return err
	}
	br.PaymentStatus = StatusPaidNeedsReview
	br.PaymentReference = &in.PaymentReference
	br.ReviewReason = &in.ReviewReason
	return nil
}

func (f *fakeRepo) ListCreatedSince(_ context.Context, since time.Time) ([]*BookingRequest, error) {
	var result []*BookingRequest
	for _, br := range f.requests {
		if !br.CreatedAt.Before(since) {
			result = append(result, br)
		}
	}
	return result, nil
}

func testInput() CreateInput {
	return CreateInput{
		FullName:      "Ada Obi",
		PhoneNumber:   "+2348012345678",
		Email:         "ada@example.com",
		ArrivalDay:    timepolicy.DayKey("2026-03-10"),
		DepartureDay:  timepolicy.DayKey("2026-03-12"),
		RoomTypeID:    "rt-1",
		TermsAccepted: true,
	}
}

func TestCreateValidation(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, 10*time.Minute)
	ctx := context.Background()

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := svc.Create(ctx, testInput(), 0)
		require.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("rejects malformed day key", func(t *testing.T) {
		in := testInput()
		in.ArrivalDay = "10/03/2026"
		_, err := svc.Create(ctx, in, 5_000_000)
		require.Error(t, err)
	})

	t.Run("creates initiated request", func(t *testing.T) {
		br, err := svc.Create(ctx, testInput(), 10_000_000)
		require.NoError(t, err)
		require.NotEmpty(t, br.ID)
		require.Equal(t, StatusInitiated, br.PaymentStatus)
		require.Equal(t, int64(10_000_000), br.AmountKobo)
	})
}

func TestFindReusable(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	key := ReuseKey{
		Email:        "ada@example.com",
		RoomTypeID:   "rt-1",
		ArrivalDay:   "2026-03-10",
		DepartureDay: "2026-03-12",
		AmountKobo:   10_000_000,
	}

	seed := func(age time.Duration, status Status, ref *string) *fakeRepo {
		return &fakeRepo{requests: []*BookingRequest{{
			ID:               "req-1",
			Email:            key.Email,
			RoomTypeID:       key.RoomTypeID,
			ArrivalDay:       key.ArrivalDay,
			DepartureDay:     key.DepartureDay,
			AmountKobo:       key.AmountKobo,
			PaymentStatus:    status,
			PaymentReference: ref,
			CreatedAt:        now.Add(-age),
		}}}
	}

	ctx := context.Background()
	clock := func() time.Time { return now }

	t.Run("matches recent initiated request", func(t *testing.T) {
		svc := NewServiceWithClock(seed(5*time.Minute, StatusInitiated, nil), 10*time.Minute, clock)
		br, err := svc.FindReusable(ctx, key)
		require.NoError(t, err)
		require.NotNil(t, br)
		require.Equal(t, "req-1", br.ID)
	})

	t.Run("matches recent failed request", func(t *testing.T) {
		svc := NewServiceWithClock(seed(5*time.Minute, StatusFailed, nil), 10*time.Minute, clock)
		br, err := svc.FindReusable(ctx, key)
		require.NoError(t, err)
		require.NotNil(t, br)
	})

	t.Run("nil outside the window", func(t *testing.T) {
		svc := NewServiceWithClock(seed(11*time.Minute, StatusInitiated, nil), 10*time.Minute, clock)
		br, err := svc.FindReusable(ctx, key)
		require.NoError(t, err)
		require.Nil(t, br)
	})

	t.Run("nil when a reference is already attached", func(t *testing.T) {
		ref := "ps_ref_1"
		svc := NewServiceWithClock(seed(5*time.Minute, StatusInitiated, &ref), 10*time.Minute, clock)
		br, err := svc.FindReusable(ctx, key)
		require.NoError(t, err)
		require.Nil(t, br)
	})

	t.Run("nil when the amount differs", func(t *testing.T) {
		svc := NewServiceWithClock(seed(5*time.Minute, StatusInitiated, nil), 10*time.Minute, clock)
		other := key
		other.AmountKobo = 12_000_000
		br, err := svc.FindReusable(ctx, other)
		require.NoError(t, err)
		require.Nil(t, br)
	})
}

func TestPrepareForPaymentRetry(t *testing.T) {
	ctx := context.Background()
	lastErr := "gateway timed out"
	repo := &fakeRepo{requests: []*BookingRequest{{
		ID:            "req-1",
		PaymentStatus: StatusFailed,
		LastError:     &lastErr,
	}}}
	svc := NewService(repo, 10*time.Minute)

	br, err := svc.PrepareForPaymentRetry(ctx, "req-1")
	require.NoError(t, err)
	require.Equal(t, StatusInitiated, br.PaymentStatus)
	require.Nil(t, br.LastError)

	_, err = svc.PrepareForPaymentRetry(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetByIDOrReference(t *testing.T) {
	ctx := context.Background()
	ref := "ps_ref_9"
	repo := &fakeRepo{requests: []*BookingRequest{
		{ID: "req-1", PaymentStatus: StatusInitiated},
		{ID: "req-2", PaymentStatus: StatusInitiated, PaymentReference: &ref},
	}}
	svc := NewService(repo, 10*time.Minute)

	t.Run("resolves by id first", func(t *testing.T) {
		br, err := svc.GetByIDOrReference(ctx, "req-1", ref)
		require.NoError(t, err)
		require.Equal(t, "req-1", br.ID)
	})

	t.Run("falls back to reference when id misses", func(t *testing.T) {
		br, err := svc.GetByIDOrReference(ctx, "unknown", ref)
		require.NoError(t, err)
		require.Equal(t, "req-2", br.ID)
	})

	t.Run("nil when neither matches", func(t *testing.T) {
		br, err := svc.GetByIDOrReference(ctx, "unknown", "no-such-ref")
		require.NoError(t, err)
		require.Nil(t, br)
	})
}
