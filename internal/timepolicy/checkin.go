package timepolicy

import (
	"fmt"
	"net/http"
	"time"

	"github.com/mabuhotel/booking-backend/internal/pkg/apperror"
)

// Policy is the single source of truth for day boundaries and the fixed
// check-in / check-out wall clock instants of the property.
type Policy struct {
	resolver CivilTimeResolver

	checkInHour   int
	checkInMinute int

	checkOutHour   int
	checkOutMinute int

	bufferMinutes int
}

// Options configures a Policy. CheckInTime and CheckOutTime are wall clock
// times in "HH:MM" form.
type Options struct {
	Timezone      string
	CheckInTime   string
	CheckOutTime  string
	BufferMinutes int
}

// New builds a Policy for the named business timezone.
func New(opts Options) (*Policy, error) {
	resolver, err := NewLocationResolver(opts.Timezone)
	if err != nil {
		return nil, err
	}
	return NewWithResolver(resolver, opts)
}

// NewWithResolver builds a Policy around an injected resolver. Tests use this
// to pin the civil-time seam.
func NewWithResolver(resolver CivilTimeResolver, opts Options) (*Policy, error) {
	p := &Policy{resolver: resolver, bufferMinutes: opts.BufferMinutes}

	var err error
	if p.checkInHour, p.checkInMinute, err = parseWallClock(opts.CheckInTime); err != nil {
		return nil, err
	}
	if p.checkOutHour, p.checkOutMinute, err = parseWallClock(opts.CheckOutTime); err != nil {
		return nil, err
	}
	return p, nil
}

func parseWallClock(s string) (int, int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, apperror.Wrap(fmt.Errorf("wall clock %q: %w", s, err), http.StatusInternalServerError, ErrInvalidTime.Message)
	}
	return t.Hour(), t.Minute(), nil
}

// DayKeyOf formats an instant as a calendar day in the business timezone.
func (p *Policy) DayKeyOf(at time.Time) DayKey {
	return p.resolver.DayKeyAt(at)
}

// CheckInInstant returns the nominal check-in instant for the day key.
// Deterministic: repeated calls with the same key yield the same instant.
func (p *Policy) CheckInInstant(day DayKey) (time.Time, error) {
	return p.resolver.InstantAt(day, p.checkInHour, p.checkInMinute)
}

// CheckOutInstant returns the nominal check-out instant for the day key.
func (p *Policy) CheckOutInstant(day DayKey) (time.Time, error) {
	return p.resolver.InstantAt(day, p.checkOutHour, p.checkOutMinute)
}

// ResolveCheckInInput drives the same-day immediate check-in rule.
type ResolveCheckInInput struct {
	RequestedDay    DayKey
	RoomOccupiedNow bool
	Now             time.Time
	// BufferMinutes overrides the policy default when positive.
	BufferMinutes int
}

// ResolveCheckInInstant returns the instant a guest may actually occupy the
// unit. For a future day, or when the unit is still occupied, that is the
// nominal check-in instant. For a same-day request on a vacant unit the guest
// may move in after a short buffer instead of waiting for the nominal hour.
// This is configurable business policy, not scheduling arithmetic.
func (p *Policy) ResolveCheckInInstant(in ResolveCheckInInput) (time.Time, error) {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	if _, err := ParseDayKey(string(in.RequestedDay)); err != nil {
		return time.Time{}, err
	}

	if in.RequestedDay != p.DayKeyOf(now) || in.RoomOccupiedNow {
		return p.CheckInInstant(in.RequestedDay)
	}

	buffer := in.BufferMinutes
	if buffer <= 0 {
		buffer = p.bufferMinutes
	}
	return now.Add(time.Duration(buffer) * time.Minute), nil
}
