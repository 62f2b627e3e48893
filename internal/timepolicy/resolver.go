package timepolicy

import (
	"net/http"
	"time"

	"github.com/mabuhotel/booking-backend/internal/pkg/apperror"
)

// CivilTimeResolver converts between instants and business-timezone civil time.
// The UTC offset must be resolved at the specific date in question, not assumed
// constant, so zones with offset transitions behave correctly.
type CivilTimeResolver interface {
	// DayKeyAt returns the calendar date of the instant in the business timezone.
	DayKeyAt(at time.Time) DayKey
	// InstantAt returns the instant at the given wall clock time on the given day.
	InstantAt(day DayKey, hour, minute int) (time.Time, error)
}

// locationResolver is the authoritative CivilTimeResolver, backed by the IANA
// timezone database via time.Location.
type locationResolver struct {
	loc *time.Location
}

// NewLocationResolver loads the named IANA timezone (e.g. "Africa/Lagos").
func NewLocationResolver(name string) (CivilTimeResolver, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, apperror.Wrap(err, http.StatusInternalServerError, "unknown booking timezone")
	}
	return &locationResolver{loc: loc}, nil
}

func (r *locationResolver) DayKeyAt(at time.Time) DayKey {
	return DayKey(at.In(r.loc).Format("2006-01-02"))
}

func (r *locationResolver) InstantAt(day DayKey, hour, minute int) (time.Time, error) {
	t, err := dayKeyDate(day)
	if err != nil {
		return time.Time{}, err
	}
	// time.Date resolves the zone offset in effect on that calendar day.
	return time.Date(t.Year(), t.Month(), t.Day(), hour, minute, 0, 0, r.loc), nil
}
