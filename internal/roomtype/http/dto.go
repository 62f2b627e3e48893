package http

import (
	"time"

	"github.com/mabuhotel/booking-backend/internal/pkg/request"
	"github.com/mabuhotel/booking-backend/internal/roomtype"
)

// ListRoomTypesRequest defines query parameters for listing room types.
type ListRoomTypesRequest struct {
	request.ListParams
}

type RoomTypeResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	PriceKobo   int64     `json:"price_kobo"`
	Capacity    int       `json:"capacity"`
	ImageURLs   []string  `json:"image_urls"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewResponse(rt *roomtype.RoomType) RoomTypeResponse {
	images := rt.ImageURLs
	if images == nil {
		images = []string{}
	}
	return RoomTypeResponse{
		ID:          rt.ID,
		Name:        rt.Name,
		Slug:        rt.Slug,
		Description: rt.Description,
		PriceKobo:   rt.PriceKobo,
		Capacity:    rt.Capacity,
		ImageURLs:   images,
		CreatedAt:   rt.CreatedAt,
	}
}
