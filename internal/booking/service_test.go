package booking

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mabuhotel/booking-backend/internal/availability"
	"github.com/mabuhotel/booking-backend/internal/notify"
	"github.com/mabuhotel/booking-backend/internal/room"
	"github.com/mabuhotel/booking-backend/internal/roomtype"
	"github.com/mabuhotel/booking-backend/internal/timepolicy"
)

type fakeBookingRepo struct {
	bookings map[string]*Booking
	nextID   int
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: map[string]*Booking{}}
}

func (f *fakeBookingRepo) Create(_ context.Context, b *Booking) error {
	if b.PaymentReference != nil {
		for _, existing := range f.bookings {
			if existing.PaymentReference != nil && *existing.PaymentReference == *b.PaymentReference {
				return ErrDuplicateReference
			}
		}
	}
	f.nextID++
	b.ID = fmt.Sprintf("bk-%d", f.nextID)
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	clone := *b
	f.bookings[b.ID] = &clone
	return nil
}

func (f *fakeBookingRepo) GetByID(_ context.Context, id string) (*Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *b
	return &clone, nil
}

func (f *fakeBookingRepo) GetByReference(_ context.Context, reference string) (*Booking, error) {
	for _, b := range f.bookings {
		if b.PaymentReference != nil && *b.PaymentReference == reference {
			clone := *b
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeBookingRepo) UpdateCheckOut(_ context.Context, id string, checkOut time.Time, totalPriceKobo int64) error {
	b, ok := f.bookings[id]
	if !ok {
		return ErrNotFound
	}
	b.CheckOut = checkOut
	b.TotalPriceKobo = totalPriceKobo
	b.UpdatedAt = time.Now()
	return nil
}

func (f *fakeBookingRepo) ListCreatedSince(_ context.Context, cutoff time.Time) ([]*Booking, error) {
	var result []*Booking
	for _, b := range f.bookings {
		if !b.CreatedAt.Before(cutoff) {
			clone := *b
			result = append(result, &clone)
		}
	}
	return result, nil
}

type fakeRoomRepo struct {
	rooms map[string]*room.Room
	stays map[string][]room.Stay
}

func newFakeRoomRepo() *fakeRoomRepo {
	return &fakeRoomRepo{rooms: map[string]*room.Room{}, stays: map[string][]room.Stay{}}
}

func (f *fakeRoomRepo) addRoom(id, roomTypeID string) {
	f.rooms[id] = &room.Room{ID: id, RoomTypeID: roomTypeID, UnitNumber: id, CreatedAt: time.Now()}
}

func (f *fakeRoomRepo) addStay(roomID, bookingID string, checkIn, checkOut time.Time) {
	f.stays[roomID] = append(f.stays[roomID], room.Stay{BookingID: bookingID, CheckIn: checkIn, CheckOut: checkOut})
}

func (f *fakeRoomRepo) GetByID(_ context.Context, id string) (*room.Room, error) {
	rm, ok := f.rooms[id]
	if !ok {
		return nil, room.ErrNotFound
	}
	return rm, nil
}

func (f *fakeRoomRepo) ListByRoomType(_ context.Context, roomTypeID string) ([]*room.Room, error) {
	var result []*room.Room
	for _, rm := range f.rooms {
		if rm.RoomTypeID == roomTypeID {
			result = append(result, rm)
		}
	}
	return result, nil
}

func (f *fakeRoomRepo) ListOccupancies(_ context.Context, roomTypeID string, from, to time.Time) ([]*room.Occupancy, error) {
	var result []*room.Occupancy
	for _, rm := range f.rooms {
		if rm.RoomTypeID != roomTypeID {
			continue
		}
		occ := &room.Occupancy{Room: *rm}
		for _, s := range f.stays[rm.ID] {
			if s.CheckIn.Before(to) && s.CheckOut.After(from) {
				occ.Stays = append(occ.Stays, s)
			}
		}
		result = append(result, occ)
	}
	return result, nil
}

func (f *fakeRoomRepo) UpsertAvailability(context.Context, string, time.Time, bool) error {
	return nil
}

type fakeRoomTypeRepo struct {
	types map[string]*roomtype.RoomType
}

func (f *fakeRoomTypeRepo) GetByID(_ context.Context, id string) (*roomtype.RoomType, error) {
	rt, ok := f.types[id]
	if !ok {
		return nil, roomtype.ErrNotFound
	}
	return rt, nil
}

func (f *fakeRoomTypeRepo) GetBySlug(_ context.Context, slug string) (*roomtype.RoomType, error) {
	for _, rt := range f.types {
		if rt.Slug == slug {
			return rt, nil
		}
	}
	return nil, roomtype.ErrNotFound
}

func (f *fakeRoomTypeRepo) List(context.Context, roomtype.Filter) ([]*roomtype.RoomType, int, error) {
	var result []*roomtype.RoomType
	for _, rt := range f.types {
		result = append(result, rt)
	}
	return result, len(result), nil
}

type recorderNotifier struct {
	confirmations []notify.GuestConfirmation
	alerts        []notify.OperatorAlert
}

func (r *recorderNotifier) SendGuestConfirmation(_ context.Context, in notify.GuestConfirmation) error {
	r.confirmations = append(r.confirmations, in)
	return nil
}

func (r *recorderNotifier) SendOperatorAlert(_ context.Context, in notify.OperatorAlert) error {
	r.alerts = append(r.alerts, in)
	return nil
}

func testPolicy(t *testing.T) *timepolicy.Policy {
	t.Helper()
	p, err := timepolicy.New(timepolicy.Options{
		Timezone:      "Africa/Lagos",
		CheckInTime:   "12:45",
		CheckOutTime:  "11:45",
		BufferMinutes: 30,
	})
	require.NoError(t, err)
	return p
}

type fixture struct {
	repo      *fakeBookingRepo
	rooms     *fakeRoomRepo
	roomTypes *fakeRoomTypeRepo
	notifier  *recorderNotifier
	policy    *timepolicy.Policy
	svc       Service
}

func newFixture(t *testing.T, now func() time.Time) *fixture {
	t.Helper()
	p := testPolicy(t)
	repo := newFakeBookingRepo()
	rooms := newFakeRoomRepo()
	roomTypes := &fakeRoomTypeRepo{types: map[string]*roomtype.RoomType{
		"rt-1": {ID: "rt-1", Name: "Deluxe Suite", Slug: "deluxe-suite", PriceKobo: 5_000_000},
	}}
	notifier := &recorderNotifier{}
	avail := availability.NewService(rooms, p)
	svc := NewServiceWithClock(repo, rooms, roomTypes, avail, p, notifier, now)
	return &fixture{repo: repo, rooms: rooms, roomTypes: roomTypes, notifier: notifier, policy: p, svc: svc}
}

func strPtr(s string) *string { return &s }

func TestCreate(t *testing.T) {
	ctx := context.Background()
	// 09:00 UTC = 10:00 in Lagos, well before the nominal check-in hour.
	now := func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }

	t.Run("future arrival uses nominal check-in instant", func(t *testing.T) {
		f := newFixture(t, now)
		f.rooms.addRoom("unit-a", "rt-1")

		b, err := f.svc.Create(ctx, CreateInput{
			RoomID:           "unit-a",
			GuestName:        "Ada Obi",
			GuestEmail:       "ada@example.com",
			ArrivalDay:       "2026-03-10",
			DepartureDay:     "2026-03-12",
			TotalPriceKobo:   10_000_000,
			PaymentReference: strPtr("ref-1"),
		})
		require.NoError(t, err)
		require.Equal(t, PaymentStatusPaid, b.PaymentStatus)

		wantIn, err := f.policy.CheckInInstant("2026-03-10")
		require.NoError(t, err)
		wantOut, err := f.policy.CheckOutInstant("2026-03-12")
		require.NoError(t, err)
		require.True(t, b.CheckIn.Equal(wantIn))
		require.True(t, b.CheckOut.Equal(wantOut))
	})

	t.Run("same-day arrival on a vacant unit starts after the buffer", func(t *testing.T) {
		f := newFixture(t, now)
		f.rooms.addRoom("unit-a", "rt-1")

		b, err := f.svc.Create(ctx, CreateInput{
			RoomID:         "unit-a",
			GuestName:      "Ada Obi",
			GuestEmail:     "ada@example.com",
			ArrivalDay:     "2026-03-01",
			DepartureDay:   "2026-03-03",
			TotalPriceKobo: 10_000_000,
		})
		require.NoError(t, err)
		require.True(t, b.CheckIn.Equal(now().Add(30*time.Minute)))
	})

	t.Run("same-day arrival on an occupied unit waits for the nominal hour", func(t *testing.T) {
		f := newFixture(t, now)
		f.rooms.addRoom("unit-a", "rt-1")
		// Previous guest checks out at 11:45 Lagos today; at 10:00 Lagos the
		// unit is still occupied.
		prevIn, err := f.policy.CheckInInstant("2026-02-27")
		require.NoError(t, err)
		prevOut, err := f.policy.CheckOutInstant("2026-03-01")
		require.NoError(t, err)
		f.rooms.addStay("unit-a", "bk-prev", prevIn, prevOut)

		b, err := f.svc.Create(ctx, CreateInput{
			RoomID:         "unit-a",
			GuestName:      "Ada Obi",
			GuestEmail:     "ada@example.com",
			ArrivalDay:     "2026-03-01",
			DepartureDay:   "2026-03-03",
			TotalPriceKobo: 10_000_000,
		})
		require.NoError(t, err)

		wantIn, err := f.policy.CheckInInstant("2026-03-01")
		require.NoError(t, err)
		require.True(t, b.CheckIn.Equal(wantIn))
	})

	t.Run("duplicate payment reference is rejected", func(t *testing.T) {
		f := newFixture(t, now)
		f.rooms.addRoom("unit-a", "rt-1")

		in := CreateInput{
			RoomID:           "unit-a",
			GuestName:        "Ada Obi",
			GuestEmail:       "ada@example.com",
			ArrivalDay:       "2026-03-10",
			DepartureDay:     "2026-03-12",
			TotalPriceKobo:   10_000_000,
			PaymentReference: strPtr("ref-dup"),
		}
		_, err := f.svc.Create(ctx, in)
		require.NoError(t, err)

		_, err = f.svc.Create(ctx, in)
		require.ErrorIs(t, err, ErrDuplicateReference)
	})

	t.Run("sends guest and operator notifications", func(t *testing.T) {
		f := newFixture(t, now)
		f.rooms.addRoom("unit-a", "rt-1")

		b, err := f.svc.Create(ctx, CreateInput{
			RoomID:         "unit-a",
			GuestName:      "Ada Obi",
			GuestEmail:     "ada@example.com",
			ArrivalDay:     "2026-03-10",
			DepartureDay:   "2026-03-12",
			TotalPriceKobo: 10_000_000,
		})
		require.NoError(t, err)

		require.Len(t, f.notifier.confirmations, 1)
		require.Equal(t, "Deluxe Suite", f.notifier.confirmations[0].RoomTypeName)
		require.Len(t, f.notifier.alerts, 1)
		require.Equal(t, b.ID, f.notifier.alerts[0].BookingID)
	})
}

func TestExtend(t *testing.T) {
	ctx := context.Background()
	now := func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }

	seed := func(t *testing.T, f *fixture) *Booking {
		t.Helper()
		f.rooms.addRoom("unit-a", "rt-1")
		b, err := f.svc.Create(ctx, CreateInput{
			RoomID:         "unit-a",
			GuestName:      "Ada Obi",
			GuestEmail:     "ada@example.com",
			ArrivalDay:     "2026-03-10",
			DepartureDay:   "2026-03-12",
			TotalPriceKobo: 10_000_000,
		})
		require.NoError(t, err)
		f.rooms.addStay("unit-a", b.ID, b.CheckIn, b.CheckOut)
		return b
	}

	t.Run("adds one night at the nightly rate", func(t *testing.T) {
		f := newFixture(t, now)
		b := seed(t, f)

		extended, err := f.svc.Extend(ctx, ExtendInput{BookingID: b.ID, NewDepartureDay: "2026-03-13"})
		require.NoError(t, err)

		wantOut, err := f.policy.CheckOutInstant("2026-03-13")
		require.NoError(t, err)
		require.True(t, extended.CheckOut.Equal(wantOut))
		require.Equal(t, int64(15_000_000), extended.TotalPriceKobo)

		stored, err := f.repo.GetByID(ctx, b.ID)
		require.NoError(t, err)
		require.True(t, stored.CheckOut.Equal(wantOut))
	})

	t.Run("rejects a departure that is not later", func(t *testing.T) {
		f := newFixture(t, now)
		b := seed(t, f)

		_, err := f.svc.Extend(ctx, ExtendInput{BookingID: b.ID, NewDepartureDay: "2026-03-12"})
		require.ErrorIs(t, err, ErrInvalidExtension)

		_, err = f.svc.Extend(ctx, ExtendInput{BookingID: b.ID, NewDepartureDay: "2026-03-11"})
		require.ErrorIs(t, err, ErrInvalidExtension)
	})

	t.Run("rejects when the added nights are already booked", func(t *testing.T) {
		f := newFixture(t, now)
		b := seed(t, f)

		nextIn, err := f.policy.CheckInInstant("2026-03-12")
		require.NoError(t, err)
		nextOut, err := f.policy.CheckOutInstant("2026-03-14")
		require.NoError(t, err)
		f.rooms.addStay("unit-a", "bk-other", nextIn, nextOut)

		_, err = f.svc.Extend(ctx, ExtendInput{BookingID: b.ID, NewDepartureDay: "2026-03-13"})
		require.ErrorIs(t, err, ErrRoomUnavailable)
	})

	t.Run("unknown booking", func(t *testing.T) {
		f := newFixture(t, now)
		seed(t, f)

		_, err := f.svc.Extend(ctx, ExtendInput{BookingID: "bk-missing", NewDepartureDay: "2026-03-13"})
		require.ErrorIs(t, err, ErrNotFound)
	})
}
