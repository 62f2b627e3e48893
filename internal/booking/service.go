package booking

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mabuhotel/booking-backend/internal/availability"
	"github.com/mabuhotel/booking-backend/internal/notify"
	"github.com/mabuhotel/booking-backend/internal/pkg/logger"
	"github.com/mabuhotel/booking-backend/internal/room"
	"github.com/mabuhotel/booking-backend/internal/roomtype"
	"github.com/mabuhotel/booking-backend/internal/timepolicy"
)

// CreateInput carries everything needed to persist a confirmed stay. The unit
// has been selected by the caller; creation assumes payment already succeeded.
type CreateInput struct {
	RoomID     string
	GuestName  string
	GuestEmail string

	ArrivalDay   timepolicy.DayKey
	DepartureDay timepolicy.DayKey

	TotalPriceKobo   int64
	PaymentReference *string
}

// ExtendInput moves an existing booking's departure to a later day.
type ExtendInput struct {
	BookingID       string
	NewDepartureDay timepolicy.DayKey
}

type Service interface {
	// Create persists a paid booking, refreshes the availability cache for the
	// stay range and sends confirmation notifications. Returns
	// ErrDuplicateReference when the payment reference already has a booking.
	Create(ctx context.Context, in CreateInput) (*Booking, error)

	// Extend pushes the checkout to a later day, charging the nightly rate for
	// each added night. Fails with ErrRoomUnavailable when another booking
	// occupies the added days.
	Extend(ctx context.Context, in ExtendInput) (*Booking, error)

	GetByID(ctx context.Context, id string) (*Booking, error)
	GetByReference(ctx context.Context, reference string) (*Booking, error)
	ListCreatedSince(ctx context.Context, cutoff time.Time) ([]*Booking, error)
}

type service struct {
	repo         Repository
	rooms        room.Repository
	roomTypes    roomtype.Repository
	availability availability.Service
	policy       *timepolicy.Policy
	notifier     notify.Notifier
	now          func() time.Time
}

func NewService(
	repo Repository,
	rooms room.Repository,
	roomTypes roomtype.Repository,
	avail availability.Service,
	policy *timepolicy.Policy,
	notifier notify.Notifier,
) Service {
	return &service{
		repo:         repo,
		rooms:        rooms,
		roomTypes:    roomTypes,
		availability: avail,
		policy:       policy,
		notifier:     notifier,
		now:          time.Now,
	}
}

// NewServiceWithClock pins the clock for tests.
func NewServiceWithClock(
	repo Repository,
	rooms room.Repository,
	roomTypes roomtype.Repository,
	avail availability.Service,
	policy *timepolicy.Policy,
	notifier notify.Notifier,
	now func() time.Time,
) Service {
	return &service{
		repo:         repo,
		rooms:        rooms,
		roomTypes:    roomTypes,
		availability: avail,
		policy:       policy,
		notifier:     notifier,
		now:          now,
	}
}

// occupiedNow reports whether the unit currently has a guest in it. Drives the
// same-day check-in rule: a vacant unit can be occupied after a short buffer.
func (s *service) occupiedNow(ctx context.Context, rm *room.Room, at time.Time) (bool, error) {
	units, err := s.rooms.ListOccupancies(ctx, rm.RoomTypeID, at, at.Add(time.Second))
	if err != nil {
		return false, err
	}
	for _, unit := range units {
		if unit.Room.ID == rm.ID {
			return unit.OccupiedAt(at), nil
		}
	}
	return false, nil
}

func (s *service) Create(ctx context.Context, in CreateInput) (*Booking, error) {
	rm, err := s.rooms.GetByID(ctx, in.RoomID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	occupied, err := s.occupiedNow(ctx, rm, now)
	if err != nil {
		return nil, err
	}

	checkIn, err := s.policy.ResolveCheckInInstant(timepolicy.ResolveCheckInInput{
		RequestedDay:    in.ArrivalDay,
		RoomOccupiedNow: occupied,
		Now:             now,
	})
	if err != nil {
		return nil, err
	}
	checkOut, err := s.policy.CheckOutInstant(in.DepartureDay)
	if err != nil {
		return nil, err
	}

	b := &Booking{
		RoomID:           in.RoomID,
		GuestName:        in.GuestName,
		GuestEmail:       in.GuestEmail,
		CheckIn:          checkIn,
		CheckOut:         checkOut,
		TotalPriceKobo:   in.TotalPriceKobo,
		PaymentStatus:    PaymentStatusPaid,
		PaymentReference: in.PaymentReference,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	// The booking row is the source of truth; cache and notification failures
	// must not unwind a persisted stay.
	if err := s.availability.MaterializeForRoomType(ctx, rm.RoomTypeID, in.ArrivalDay, in.DepartureDay); err != nil {
		logger.Get().Warn("availability materialization after booking failed",
			zap.String("bookingId", b.ID), zap.Error(err))
	}
	s.sendNotifications(ctx, b, rm)

	return b, nil
}

func (s *service) sendNotifications(ctx context.Context, b *Booking, rm *room.Room) {
	roomTypeName := rm.RoomTypeID
	if rt, err := s.roomTypes.GetByID(ctx, rm.RoomTypeID); err == nil {
		roomTypeName = rt.Name
	}

	if err := s.notifier.SendGuestConfirmation(ctx, notify.GuestConfirmation{
		GuestName:      b.GuestName,
		GuestEmail:     b.GuestEmail,
		RoomTypeName:   roomTypeName,
		CheckIn:        b.CheckIn,
		CheckOut:       b.CheckOut,
		TotalPriceKobo: b.TotalPriceKobo,
	}); err != nil {
		logger.Get().Warn("guest confirmation email failed",
			zap.String("bookingId", b.ID), zap.Error(err))
	}

	if err := s.notifier.SendOperatorAlert(ctx, notify.OperatorAlert{
		BookingID:      b.ID,
		GuestName:      b.GuestName,
		GuestEmail:     b.GuestEmail,
		RoomTypeName:   roomTypeName,
		CheckIn:        b.CheckIn,
		CheckOut:       b.CheckOut,
		TotalPriceKobo: b.TotalPriceKobo,
	}); err != nil {
		logger.Get().Warn("operator alert email failed",
			zap.String("bookingId", b.ID), zap.Error(err))
	}
}

func (s *service) Extend(ctx context.Context, in ExtendInput) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, in.BookingID)
	if err != nil {
		return nil, err
	}
	rm, err := s.rooms.GetByID(ctx, b.RoomID)
	if err != nil {
		return nil, err
	}

	currentDay := s.policy.DayKeyOf(b.CheckOut)
	currentEpoch, err := timepolicy.DayKeyToEpochDay(currentDay)
	if err != nil {
		return nil, err
	}
	newEpoch, err := timepolicy.DayKeyToEpochDay(in.NewDepartureDay)
	if err != nil {
		return nil, err
	}
	if newEpoch <= currentEpoch {
		return nil, ErrInvalidExtension
	}

	// The added nights occupy [currentDay, newDay); any other booking on this
	// unit overlapping that range blocks the extension.
	newCheckOut, err := s.policy.CheckOutInstant(in.NewDepartureDay)
	if err != nil {
		return nil, err
	}
	units, err := s.rooms.ListOccupancies(ctx, rm.RoomTypeID, b.CheckOut, newCheckOut)
	if err != nil {
		return nil, err
	}
	for _, unit := range units {
		if unit.Room.ID != b.RoomID {
			continue
		}
		for _, stay := range unit.Stays {
			if stay.BookingID == b.ID {
				continue
			}
			overlap, err := timepolicy.RangesOverlapByDay(
				currentDay, in.NewDepartureDay,
				s.policy.DayKeyOf(stay.CheckIn), s.policy.DayKeyOf(stay.CheckOut),
			)
			if err != nil {
				return nil, err
			}
			if overlap {
				return nil, ErrRoomUnavailable
			}
		}
	}

	rt, err := s.roomTypes.GetByID(ctx, rm.RoomTypeID)
	if err != nil {
		return nil, err
	}
	addedNights := newEpoch - currentEpoch
	newTotal := b.TotalPriceKobo + addedNights*rt.PriceKobo

	if err := s.repo.UpdateCheckOut(ctx, b.ID, newCheckOut, newTotal); err != nil {
		return nil, err
	}
	b.CheckOut = newCheckOut
	b.TotalPriceKobo = newTotal

	if err := s.availability.MaterializeForRoomType(ctx, rm.RoomTypeID, currentDay, in.NewDepartureDay); err != nil {
		logger.Get().Warn("availability materialization after extension failed",
			zap.String("bookingId", b.ID), zap.Error(err))
	}

	return b, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Booking, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetByReference(ctx context.Context, reference string) (*Booking, error) {
	return s.repo.GetByReference(ctx, reference)
}

func (s *service) ListCreatedSince(ctx context.Context, cutoff time.Time) ([]*Booking, error) {
	return s.repo.ListCreatedSince(ctx, cutoff)
}
