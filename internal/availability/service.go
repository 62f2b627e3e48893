package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/mabuhotel/booking-backend/internal/room"
	"github.com/mabuhotel/booking-backend/internal/timepolicy"
)

// horizonDays is how far forward the unavailable-day listing looks.
const horizonDays = 365

// Service answers "is a unit of this type free for this day range" and keeps
// the denormalized per-(room, day) availability cache consistent after writes.
// The cache is never authoritative; bookings are.
type Service interface {
	// FindAvailableUnit returns the first unit of the type, in creation order,
	// with no booking conflicting with [checkInDay, checkOutDay). Returns
	// (nil, nil) when the range is empty or every unit conflicts: no free unit
	// is a normal business outcome, not an error.
	FindAvailableUnit(ctx context.Context, roomTypeID string, checkInDay, checkOutDay timepolicy.DayKey) (*room.Room, error)

	// ListUnavailableDays returns the days within the forward horizon on which
	// every unit of the type is booked. Recomputed fresh on every call.
	ListUnavailableDays(ctx context.Context, roomTypeID string) ([]timepolicy.DayKey, error)

	// Materialize recomputes and upserts the availability flag for every
	// (unit, day) pair in [startDay, endDay). Idempotent.
	Materialize(ctx context.Context, units []*room.Occupancy, startDay, endDay timepolicy.DayKey) error

	// MaterializeForRoomType loads current occupancies for the type and
	// materializes the given range. Used after a booking is created or extended.
	MaterializeForRoomType(ctx context.Context, roomTypeID string, startDay, endDay timepolicy.DayKey) error
}

type service struct {
	rooms  room.Repository
	policy *timepolicy.Policy
	now    func() time.Time
}

func NewService(rooms room.Repository, policy *timepolicy.Policy) Service {
	return &service{
		rooms:  rooms,
		policy: policy,
		now:    time.Now,
	}
}

// NewServiceWithClock pins "today" for tests.
func NewServiceWithClock(rooms room.Repository, policy *timepolicy.Policy, now func() time.Time) Service {
	return &service{rooms: rooms, policy: policy, now: now}
}

// stayConflicts reports whether a stay's day range overlaps [startDay, endDay).
func (s *service) stayConflicts(stay room.Stay, startDay, endDay timepolicy.DayKey) (bool, error) {
	stayStart := s.policy.DayKeyOf(stay.CheckIn)
	stayEnd := s.policy.DayKeyOf(stay.CheckOut)
	return timepolicy.RangesOverlapByDay(startDay, endDay, stayStart, stayEnd)
}

func (s *service) FindAvailableUnit(ctx context.Context, roomTypeID string, checkInDay, checkOutDay timepolicy.DayKey) (*room.Room, error) {
	inEpoch, err := timepolicy.DayKeyToEpochDay(checkInDay)
	if err != nil {
		return nil, err
	}
	outEpoch, err := timepolicy.DayKeyToEpochDay(checkOutDay)
	if err != nil {
		return nil, err
	}
	if inEpoch >= outEpoch {
		return nil, nil
	}

	// Instant window is only a pre-filter; the day-level overlap test decides.
	from, err := s.policy.CheckInInstant(checkInDay)
	if err != nil {
		return nil, err
	}
	to, err := s.policy.CheckOutInstant(checkOutDay)
	if err != nil {
		return nil, err
	}

	units, err := s.rooms.ListOccupancies(ctx, roomTypeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load units for availability check failed: %w", err)
	}

	for _, unit := range units {
		conflict := false
		for _, stay := range unit.Stays {
			overlap, err := s.stayConflicts(stay, checkInDay, checkOutDay)
			if err != nil {
				return nil, err
			}
			if overlap {
				conflict = true
				break
			}
		}
		if !conflict {
			u := unit.Room
			return &u, nil
		}
	}

	return nil, nil
}

func (s *service) ListUnavailableDays(ctx context.Context, roomTypeID string) ([]timepolicy.DayKey, error) {
	today := s.policy.DayKeyOf(s.now())
	startEpoch, err := timepolicy.DayKeyToEpochDay(today)
	if err != nil {
		return nil, err
	}
	endEpoch := startEpoch + horizonDays

	from, err := s.policy.CheckInInstant(today)
	if err != nil {
		return nil, err
	}
	to, err := s.policy.CheckOutInstant(timepolicy.EpochDayToDayKey(endEpoch + 1))
	if err != nil {
		return nil, err
	}

	units, err := s.rooms.ListOccupancies(ctx, roomTypeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load units for unavailable days failed: %w", err)
	}

	var unavailable []timepolicy.DayKey

	// Fail-safe: a room type with zero configured units is never bookable and
	// reports the whole horizon as unavailable.
	if len(units) == 0 {
		for epoch := startEpoch; epoch <= endEpoch; epoch++ {
			unavailable = append(unavailable, timepolicy.EpochDayToDayKey(epoch))
		}
		return unavailable, nil
	}

	for epoch := startEpoch; epoch <= endEpoch; epoch++ {
		day := timepolicy.EpochDayToDayKey(epoch)
		nextDay := timepolicy.EpochDayToDayKey(epoch + 1)

		booked := 0
		for _, unit := range units {
			for _, stay := range unit.Stays {
				overlap, err := s.stayConflicts(stay, day, nextDay)
				if err != nil {
					return nil, err
				}
				if overlap {
					booked++
					break
				}
			}
		}

		if booked >= len(units) {
			unavailable = append(unavailable, day)
		}
	}

	return unavailable, nil
}

func (s *service) Materialize(ctx context.Context, units []*room.Occupancy, startDay, endDay timepolicy.DayKey) error {
	days, err := timepolicy.IterateDayKeys(startDay, endDay)
	if err != nil {
		return err
	}

	for _, day := range days {
		date, err := timepolicy.UTCMidnight(day)
		if err != nil {
			return err
		}
		epoch, err := timepolicy.DayKeyToEpochDay(day)
		if err != nil {
			return err
		}
		nextDay := timepolicy.EpochDayToDayKey(epoch + 1)

		for _, unit := range units {
			occupied := false
			for _, stay := range unit.Stays {
				overlap, err := s.stayConflicts(stay, day, nextDay)
				if err != nil {
					return err
				}
				if overlap {
					occupied = true
					break
				}
			}

			if err := s.rooms.UpsertAvailability(ctx, unit.Room.ID, date, !occupied); err != nil {
				return err
			}
		}
	}

	return nil
}

func (s *service) MaterializeForRoomType(ctx context.Context, roomTypeID string, startDay, endDay timepolicy.DayKey) error {
	from, err := s.policy.CheckInInstant(startDay)
	if err != nil {
		return err
	}
	to, err := s.policy.CheckOutInstant(endDay)
	if err != nil {
		return err
	}

	units, err := s.rooms.ListOccupancies(ctx, roomTypeID, from, to)
	if err != nil {
		return fmt.Errorf("load units for materialization failed: %w", err)
	}

	return s.Materialize(ctx, units, startDay, endDay)
}
