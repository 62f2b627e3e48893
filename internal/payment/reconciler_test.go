package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mabuhotel/booking-backend/internal/booking"
	"github.com/mabuhotel/booking-backend/internal/bookingrequest"
	"github.com/mabuhotel/booking-backend/internal/room"
	"github.com/mabuhotel/booking-backend/internal/timepolicy"
)

type fakeRequestStore struct {
	requests map[string]*bookingrequest.BookingRequest
	reviews  []bookingrequest.ReviewInput
	paid     []bookingrequest.MarkPaidInput
}

func newFakeRequestStore() *fakeRequestStore {
	return &fakeRequestStore{requests: map[string]*bookingrequest.BookingRequest{}}
}

func (f *fakeRequestStore) add(br *bookingrequest.BookingRequest) {
	f.requests[br.ID] = br
}

func (f *fakeRequestStore) GetByIDOrReference(_ context.Context, id, reference string) (*bookingrequest.BookingRequest, error) {
	if br, ok := f.requests[id]; ok {
		return br, nil
	}
	for _, br := range f.requests {
		if br.PaymentReference != nil && *br.PaymentReference == reference {
			return br, nil
		}
	}
	return nil, nil
}

func (f *fakeRequestStore) MarkPaid(_ context.Context, in bookingrequest.MarkPaidInput) error {
	br, ok := f.requests[in.ID]
	if !ok {
		return bookingrequest.ErrNotFound
	}
	br.PaymentStatus = bookingrequest.StatusPaid
	br.PaymentReference = &in.PaymentReference
	br.BookingID = &in.BookingID
	f.paid = append(f.paid, in)
	return nil
}

func (f *fakeRequestStore) MarkPaidNeedsReview(_ context.Context, in bookingrequest.ReviewInput) error {
	br, ok := f.requests[in.ID]
	if !ok {
		return bookingrequest.ErrNotFound
	}
	br.PaymentStatus = bookingrequest.StatusPaidNeedsReview
	br.PaymentReference = &in.PaymentReference
	br.ReviewReason = &in.ReviewReason
	f.reviews = append(f.reviews, in)
	return nil
}

type fakeBookingCreator struct {
	bookings  map[string]*booking.Booking // reference -> booking
	nextID    int
	createErr error
}

func newFakeBookingCreator() *fakeBookingCreator {
	return &fakeBookingCreator{bookings: map[string]*booking.Booking{}}
}

func (f *fakeBookingCreator) Create(_ context.Context, in booking.CreateInput) (*booking.Booking, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if in.PaymentReference != nil {
		if _, ok := f.bookings[*in.PaymentReference]; ok {
			return nil, booking.ErrDuplicateReference
		}
	}
	f.nextID++
	b := &booking.Booking{
		ID:               fmt.Sprintf("bk-%d", f.nextID),
		RoomID:           in.RoomID,
		GuestName:        in.GuestName,
		GuestEmail:       in.GuestEmail,
		TotalPriceKobo:   in.TotalPriceKobo,
		PaymentStatus:    booking.PaymentStatusPaid,
		PaymentReference: in.PaymentReference,
	}
	if in.PaymentReference != nil {
		f.bookings[*in.PaymentReference] = b
	}
	return b, nil
}

func (f *fakeBookingCreator) GetByReference(_ context.Context, reference string) (*booking.Booking, error) {
	b, ok := f.bookings[reference]
	if !ok {
		return nil, booking.ErrNotFound
	}
	return b, nil
}

type fakeUnitFinder struct {
	unit *room.Room
	err  error
}

func (f *fakeUnitFinder) FindAvailableUnit(context.Context, string, timepolicy.DayKey, timepolicy.DayKey) (*room.Room, error) {
	return f.unit, f.err
}

type fakeVerifier struct {
	result *VerifyResult
	err    error
}

func (f *fakeVerifier) VerifyTransaction(context.Context, string) (*VerifyResult, error) {
	return f.result, f.err
}

func successVerification(reference string, amountKobo int64) *VerifyResult {
	return &VerifyResult{
		Status:     "success",
		Reference:  reference,
		AmountKobo: amountKobo,
		Currency:   "NGN",
	}
}

func pendingRequest(id string) *bookingrequest.BookingRequest {
	return &bookingrequest.BookingRequest{
		ID:            id,
		FullName:      "Ada Obi",
		Email:         "ada@example.com",
		ArrivalDay:    "2026-03-10",
		DepartureDay:  "2026-03-12",
		RoomTypeID:    "rt-1",
		AmountKobo:    10_000_000,
		PaymentStatus: bookingrequest.StatusInitiated,
	}
}

func webhookBody(event, reference, requestID string, amountKobo int64) []byte {
	return []byte(fmt.Sprintf(
		`{"event":"%s","data":{"reference":"%s","amount":%d,"currency":"NGN","status":"success",
		"metadata":{"bookingRequestId":"%s"}}}`,
		event, reference, amountKobo, requestID))
}

type reconcilerFixture struct {
	store    *fakeRequestStore
	bookings *fakeBookingCreator
	finder   *fakeUnitFinder
	verifier *fakeVerifier
	rec      *Reconciler
}

func newReconcilerFixture() *reconcilerFixture {
	store := newFakeRequestStore()
	bookings := newFakeBookingCreator()
	finder := &fakeUnitFinder{unit: &room.Room{ID: "unit-a", RoomTypeID: "rt-1"}}
	verifier := &fakeVerifier{result: successVerification("ref-1", 10_000_000)}
	return &reconcilerFixture{
		store:    store,
		bookings: bookings,
		finder:   finder,
		verifier: verifier,
		rec:      NewReconciler("whsec_test", store, bookings, finder, verifier),
	}
}

func TestVerifySignature(t *testing.T) {
	rec := NewReconciler("whsec_test", nil, nil, nil, nil)
	body := []byte(`{"event":"charge.success"}`)

	mac := hmac.New(sha512.New, []byte("whsec_test"))
	mac.Write(body)
	good := hex.EncodeToString(mac.Sum(nil))

	require.True(t, rec.VerifySignature(body, good))
	require.False(t, rec.VerifySignature(body, "deadbeef"))
	require.False(t, rec.VerifySignature([]byte(`{"event":"tampered"}`), good))
}

func TestHandleEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("settles a verified charge into a booking", func(t *testing.T) {
		f := newReconcilerFixture()
		f.store.add(pendingRequest("req-1"))

		outcome, err := f.rec.HandleEvent(ctx, webhookBody("charge.success", "ref-1", "req-1", 10_000_000))
		require.NoError(t, err)
		require.Equal(t, OutcomeBooked, outcome)

		br := f.store.requests["req-1"]
		require.Equal(t, bookingrequest.StatusPaid, br.PaymentStatus)
		require.NotNil(t, br.BookingID)
		require.Equal(t, "bk-1", *br.BookingID)
		require.Equal(t, "ref-1", *br.PaymentReference)
	})

	t.Run("ignores unrelated events", func(t *testing.T) {
		f := newReconcilerFixture()
		f.store.add(pendingRequest("req-1"))

		outcome, err := f.rec.HandleEvent(ctx, webhookBody("charge.dispute.create", "ref-1", "req-1", 10_000_000))
		require.NoError(t, err)
		require.Equal(t, OutcomeIgnored, outcome)
		require.Equal(t, bookingrequest.StatusInitiated, f.store.requests["req-1"].PaymentStatus)
	})

	t.Run("replayed delivery is acknowledged without a second booking", func(t *testing.T) {
		f := newReconcilerFixture()
		f.store.add(pendingRequest("req-1"))
		body := webhookBody("charge.success", "ref-1", "req-1", 10_000_000)

		outcome, err := f.rec.HandleEvent(ctx, body)
		require.NoError(t, err)
		require.Equal(t, OutcomeBooked, outcome)

		outcome, err = f.rec.HandleEvent(ctx, body)
		require.NoError(t, err)
		require.Equal(t, OutcomeDuplicate, outcome)
		require.Len(t, f.bookings.bookings, 1)
		require.Len(t, f.store.paid, 1)
	})

	t.Run("unknown request is acknowledged as orphaned", func(t *testing.T) {
		f := newReconcilerFixture()

		outcome, err := f.rec.HandleEvent(ctx, webhookBody("charge.success", "ref-1", "req-ghost", 10_000_000))
		require.NoError(t, err)
		require.Equal(t, OutcomeOrphaned, outcome)
	})

	t.Run("reference mismatch with the request escalates", func(t *testing.T) {
		f := newReconcilerFixture()
		br := pendingRequest("req-1")
		other := "ref-other"
		br.PaymentReference = &other
		f.store.add(br)

		outcome, err := f.rec.HandleEvent(ctx, webhookBody("charge.success", "ref-1", "req-1", 10_000_000))
		require.NoError(t, err)
		require.Equal(t, OutcomeNeedsReview, outcome)
		require.Equal(t, ReasonReferenceMismatchWithRequest, f.store.reviews[0].ReviewReason)
	})

	t.Run("verification reference mismatch escalates", func(t *testing.T) {
		f := newReconcilerFixture()
		f.store.add(pendingRequest("req-1"))
		f.verifier.result = successVerification("ref-swapped", 10_000_000)

		outcome, err := f.rec.HandleEvent(ctx, webhookBody("charge.success", "ref-1", "req-1", 10_000_000))
		require.NoError(t, err)
		require.Equal(t, OutcomeNeedsReview, outcome)
		require.Equal(t, ReasonReferenceMismatchWithVerification, f.store.reviews[0].ReviewReason)
	})

	t.Run("unsuccessful verified status escalates", func(t *testing.T) {
		f := newReconcilerFixture()
		f.store.add(pendingRequest("req-1"))
		f.verifier.result = &VerifyResult{Status: "abandoned", Reference: "ref-1", AmountKobo: 10_000_000, Currency: "NGN"}

		outcome, err := f.rec.HandleEvent(ctx, webhookBody("charge.success", "ref-1", "req-1", 10_000_000))
		require.NoError(t, err)
		require.Equal(t, OutcomeNeedsReview, outcome)
		require.Equal(t, ReasonPaymentStatusNotSuccess, f.store.reviews[0].ReviewReason)
	})

	t.Run("amount mismatch escalates", func(t *testing.T) {
		f := newReconcilerFixture()
		f.store.add(pendingRequest("req-1"))
		f.verifier.result = successVerification("ref-1", 9_999_999)

		outcome, err := f.rec.HandleEvent(ctx, webhookBody("charge.success", "ref-1", "req-1", 10_000_000))
		require.NoError(t, err)
		require.Equal(t, OutcomeNeedsReview, outcome)
		require.Equal(t, ReasonAmountOrCurrencyMismatch, f.store.reviews[0].ReviewReason)
	})

	t.Run("foreign currency escalates", func(t *testing.T) {
		f := newReconcilerFixture()
		f.store.add(pendingRequest("req-1"))
		f.verifier.result = &VerifyResult{Status: "success", Reference: "ref-1", AmountKobo: 10_000_000, Currency: "USD"}

		outcome, err := f.rec.HandleEvent(ctx, webhookBody("charge.success", "ref-1", "req-1", 10_000_000))
		require.NoError(t, err)
		require.Equal(t, OutcomeNeedsReview, outcome)
		require.Equal(t, ReasonAmountOrCurrencyMismatch, f.store.reviews[0].ReviewReason)
	})

	t.Run("paid stay with no unit left escalates", func(t *testing.T) {
		f := newReconcilerFixture()
		f.store.add(pendingRequest("req-1"))
		f.finder.unit = nil

		outcome, err := f.rec.HandleEvent(ctx, webhookBody("charge.success", "ref-1", "req-1", 10_000_000))
		require.NoError(t, err)
		require.Equal(t, OutcomeNeedsReview, outcome)
		require.Equal(t, ReasonPaidButNoRoomAvailable, f.store.reviews[0].ReviewReason)
	})

	t.Run("booking creation failure escalates, not errors", func(t *testing.T) {
		f := newReconcilerFixture()
		f.store.add(pendingRequest("req-1"))
		f.bookings.createErr = errors.New("insert failed")

		outcome, err := f.rec.HandleEvent(ctx, webhookBody("charge.success", "ref-1", "req-1", 10_000_000))
		require.NoError(t, err)
		require.Equal(t, OutcomeNeedsReview, outcome)
		require.Equal(t, ReasonBookingCreationException, f.store.reviews[0].ReviewReason)
	})

	t.Run("losing a concurrent insert settles against the winner", func(t *testing.T) {
		f := newReconcilerFixture()
		f.store.add(pendingRequest("req-1"))

		// A parallel delivery already created the booking for this reference.
		ref := "ref-1"
		_, err := f.bookings.Create(ctx, booking.CreateInput{
			RoomID:           "unit-a",
			GuestName:        "Ada Obi",
			GuestEmail:       "ada@example.com",
			PaymentReference: &ref,
		})
		require.NoError(t, err)

		outcome, err := f.rec.HandleEvent(ctx, webhookBody("charge.success", "ref-1", "req-1", 10_000_000))
		require.NoError(t, err)
		require.Equal(t, OutcomeDuplicate, outcome)

		br := f.store.requests["req-1"]
		require.Equal(t, bookingrequest.StatusPaid, br.PaymentStatus)
		require.Equal(t, "bk-1", *br.BookingID)
	})

	t.Run("verification outage is returned for redelivery", func(t *testing.T) {
		f := newReconcilerFixture()
		f.store.add(pendingRequest("req-1"))
		f.verifier.err = errors.New("gateway unreachable")

		_, err := f.rec.HandleEvent(ctx, webhookBody("charge.success", "ref-1", "req-1", 10_000_000))
		require.Error(t, err)
		require.Equal(t, bookingrequest.StatusInitiated, f.store.requests["req-1"].PaymentStatus)
	})
}
