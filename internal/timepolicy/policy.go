package timepolicy

import (
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/mabuhotel/booking-backend/internal/pkg/apperror"
)

var (
	ErrInvalidDayKey = apperror.New(http.StatusBadRequest, "invalid booking day key")
	ErrInvalidTime   = apperror.New(http.StatusBadRequest, "invalid wall clock time")
)

var dayKeyPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

const secondsPerDay = 24 * 60 * 60

// DayKey is a calendar date in the business timezone, serialized as "YYYY-MM-DD".
// It is the canonical unit of comparison for occupancy; raw instants never are.
type DayKey string

func (d DayKey) String() string { return string(d) }

// ParseDayKey validates the "YYYY-MM-DD" shape and the calendar date itself.
func ParseDayKey(s string) (DayKey, error) {
	if !dayKeyPattern.MatchString(s) {
		return "", apperror.Wrap(fmt.Errorf("day key %q does not match YYYY-MM-DD", s), http.StatusBadRequest, ErrInvalidDayKey.Message)
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return "", apperror.Wrap(err, http.StatusBadRequest, ErrInvalidDayKey.Message)
	}
	return DayKey(s), nil
}

func dayKeyDate(d DayKey) (time.Time, error) {
	t, err := time.Parse("2006-01-02", string(d))
	if err != nil {
		return time.Time{}, apperror.Wrap(err, http.StatusBadRequest, ErrInvalidDayKey.Message)
	}
	return t, nil
}

// DayKeyToEpochDay maps a day key onto a day-granularity integer axis
// (days since 1970-01-01) for arithmetic free of instant and timezone concerns.
func DayKeyToEpochDay(d DayKey) (int64, error) {
	t, err := dayKeyDate(d)
	if err != nil {
		return 0, err
	}
	secs := t.Unix()
	// Floor division so pre-epoch dates still round-trip.
	day := secs / secondsPerDay
	if secs < 0 && secs%secondsPerDay != 0 {
		day--
	}
	return day, nil
}

// EpochDayToDayKey is the inverse of DayKeyToEpochDay. The epoch day is
// formatted as a pure UTC calendar date, so the round trip holds for every
// business timezone.
func EpochDayToDayKey(epochDay int64) DayKey {
	t := time.Unix(epochDay*secondsPerDay, 0).UTC()
	return DayKey(t.Format("2006-01-02"))
}

// UTCMidnight returns the UTC-midnight instant representing the day key.
// Availability rows are keyed on this instant.
func UTCMidnight(d DayKey) (time.Time, error) {
	t, err := dayKeyDate(d)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// IterateDayKeys returns the day keys in [start, end). The sequence is
// recomputed on every call and empty when start >= end.
func IterateDayKeys(start, end DayKey) ([]DayKey, error) {
	startEpoch, err := DayKeyToEpochDay(start)
	if err != nil {
		return nil, err
	}
	endEpoch, err := DayKeyToEpochDay(end)
	if err != nil {
		return nil, err
	}

	var days []DayKey
	for day := startEpoch; day < endEpoch; day++ {
		days = append(days, EpochDayToDayKey(day))
	}
	return days, nil
}

// RangesOverlapByDay applies the half-open interval overlap test to two
// day ranges. A range whose start is not strictly before its end is treated
// as empty and overlaps nothing. End-exclusive comparison is what permits
// same-day turnover: one guest's checkout day may equal the next's check-in day.
func RangesOverlapByDay(aStart, aEnd, bStart, bEnd DayKey) (bool, error) {
	as, err := DayKeyToEpochDay(aStart)
	if err != nil {
		return false, err
	}
	ae, err := DayKeyToEpochDay(aEnd)
	if err != nil {
		return false, err
	}
	bs, err := DayKeyToEpochDay(bStart)
	if err != nil {
		return false, err
	}
	be, err := DayKeyToEpochDay(bEnd)
	if err != nil {
		return false, err
	}

	if as >= ae || bs >= be {
		return false, nil
	}
	return as < be && bs < ae, nil
}
