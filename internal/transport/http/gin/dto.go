package httpgin

import "time"

type CreateOrderRequest struct {
	UserID  int64   `json:"user_id" binding:"required"`
	ShowID  int64   `json:"show_id" binding:"required"`
	SeatIDs []int64 `json:"seat_ids" binding:"required,min=1,dive,required"`
}

type ApplyDiscountRequest struct {
	Code string `json:"code" binding:"required"`
}

// PaymentWebhookRequest is the subset of the provider's webhook payload the
// backend acts on. Everything else in the event is ignored.
type PaymentWebhookRequest struct {
	EventType string `json:"event_type" binding:"required"`
	Resource  struct {
		ID string `json:"id"`
	} `json:"resource"`
}

type CreateRoomRequest struct {
	Name        string `json:"name" binding:"required"`
	IsAvailable *bool  `json:"is_available"`
}

type UpdateRoomRequest struct {
	Name        string `json:"name" binding:"required"`
	IsAvailable bool   `json:"is_available"`
}

type GenerateLayoutRequest struct {
	Rows        int `json:"rows" binding:"required,gt=0"`
	SeatsPerRow int `json:"seats_per_row" binding:"required,gt=0"`
}

type SeatRequest struct {
	RowLabel    string `json:"row_label" binding:"required"`
	SeatNumber  int    `json:"seat_number" binding:"required,gt=0"`
	Type        string `json:"type"`
	IsAvailable *bool  `json:"is_available"`
}

type RowAvailabilityRequest struct {
	Available *bool `json:"available" binding:"required"`
}

type ShowRequest struct {
	MovieID        int64  `json:"movie_id" binding:"required"`
	RoomID         int64  `json:"room_id" binding:"required"`
	StartsAt       string `json:"starts_at" binding:"required"`
	EndsAt         string `json:"ends_at" binding:"required"`
	Language       string `json:"language"`
	Subtitle       string `json:"subtitle"`
	Is3D           bool   `json:"is_3d"`
	BasePriceCents int64  `json:"base_price_cents" binding:"required,gt=0"`
}

type DiscountRequest struct {
	Code       string `json:"code" binding:"required"`
	Percentage int    `json:"percentage" binding:"required"`
	ValidUntil string `json:"valid_until" binding:"required"`
	IsActive   bool   `json:"is_active"`
}

type MovieRequest struct {
	Title       string  `json:"title" binding:"required"`
	Genre       string  `json:"genre"`
	Description string  `json:"description"`
	DurationMin int     `json:"duration_min" binding:"required,gt=0"`
	Director    string  `json:"director"`
	ReleaseDate string  `json:"release_date"`
	ImageURL    string  `json:"image_url"`
	TrailerURL  string  `json:"trailer_url"`
	Rating      float64 `json:"rating"`
}

type ReviewRequest struct {
	UserID  int64  `json:"user_id" binding:"required"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type CreateUserRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Email     string `json:"email" binding:"required"`
	Phone     string `json:"phone"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type DeletedResponse struct {
	Deleted int64 `json:"deleted"`
}

type UpdatedResponse struct {
	Updated int64 `json:"updated"`
}

func parseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
