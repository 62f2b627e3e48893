package roomtype

import (
	"net/http"
	"time"

	"github.com/mabuhotel/booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound = apperror.New(http.StatusNotFound, "room type not found")
)

// RoomType is a catalog entry for a class of physical rooms
// (e.g. Standard, Executive). Immutable reference data: this service only
// reads it; the catalog is maintained by operational tooling.
type RoomType struct {
	ID          string
	Name        string
	Slug        string
	Description string
	PriceKobo   int64 // nightly price in minor currency units
	Capacity    int
	ImageURLs   []string
	CreatedAt   time.Time
}

// Filter defines parameters for listing room types.
type Filter struct {
	Page     int
	PageSize int
}
