package http

// CheckRequest asks whether any unit of a room type is free for a stay.
// Days are business-timezone calendar days in "YYYY-MM-DD" form.
type CheckRequest struct {
	RoomTypeID   string `json:"room_type_id" binding:"required,uuid"`
	ArrivalDay   string `json:"arrival_day" binding:"required"`
	DepartureDay string `json:"departure_day" binding:"required"`
}

// Validate performs custom validation for CheckRequest.
func (r *CheckRequest) Validate() error {
	return nil
}

type CheckResponse struct {
	Available bool `json:"available"`
}

// UnavailableDaysRequest defines query parameters for the unavailable-days listing.
type UnavailableDaysRequest struct {
	RoomTypeID string `form:"room_type_id" binding:"required,uuid"`
}

type UnavailableDaysResponse struct {
	Days []string `json:"days"`
}
