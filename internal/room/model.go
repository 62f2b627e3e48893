package room

import (
	"net/http"
	"time"

	"github.com/mabuhotel/booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound = apperror.New(http.StatusNotFound, "room not found")
)

// Room is one physical unit of a RoomType. Units are created and retired by
// operational tooling; this service never mutates the set of rooms.
type Room struct {
	ID         string
	RoomTypeID string
	UnitNumber string
	CreatedAt  time.Time
}

// Stay is the occupancy window of one booking on a unit, carried as raw
// instants. Day-level comparison is the caller's concern.
type Stay struct {
	BookingID string
	CheckIn   time.Time
	CheckOut  time.Time
}

// Occupancy is a unit together with the bookings relevant to a query window.
type Occupancy struct {
	Room  Room
	Stays []Stay
}

// OccupiedAt reports whether any stay covers the instant.
func (o *Occupancy) OccupiedAt(at time.Time) bool {
	for _, s := range o.Stays {
		if !s.CheckIn.After(at) && s.CheckOut.After(at) {
			return true
		}
	}
	return false
}
