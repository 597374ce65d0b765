package domain

import (
	"strconv"
	"strings"
	"time"
)

// TicketState tracks the occupancy of one seat for one show. A seat with no
// ticket row at all is free; once a row exists it moves through the states
// below and never returns to reserved from booked or invalid.
type TicketState string

const (
	// TicketAvailable marks a provisionally created ticket that is not yet
	// attached to an order. The canonical representation of a free seat is
	// the absence of any ticket row; this state exists for legacy rows only.
	TicketAvailable TicketState = "available"
	TicketReserved  TicketState = "reserved"
	TicketBooked    TicketState = "booked"
	TicketInvalid   TicketState = "invalid"
)

// Active reports whether the state blocks the seat for its show.
func (s TicketState) Active() bool {
	return s == TicketReserved || s == TicketBooked
}

type SeatType string

const (
	SeatStandard SeatType = "standard"
	SeatPremium  SeatType = "premium"
	SeatVIP      SeatType = "vip"
)

// PricePercent returns the price multiplier for the seat type in percent.
// Unknown types price as standard.
func (t SeatType) PricePercent() int64 {
	switch t {
	case SeatPremium:
		return 125
	case SeatVIP:
		return 150
	default:
		return 100
	}
}

// TicketPriceCents computes the snapshot price of a seat for a show. The
// result depends only on the show's base price and the seat type, so later
// edits to either never change already sold tickets.
func TicketPriceCents(basePriceCents int64, seatType SeatType) int64 {
	return basePriceCents * seatType.PricePercent() / 100
}

// DiscountedTotalCents applies a percentage discount to a ticket sum. It is
// always computed from the undiscounted sum, so reapplying a discount never
// compounds.
func DiscountedTotalCents(ticketSumCents int64, percentage int) int64 {
	return ticketSumCents * int64(100-percentage) / 100
}

type Room struct {
	ID          int64
	Name        string
	Capacity    int
	IsAvailable bool
}

type Seat struct {
	ID          int64
	RoomID      int64
	RowLabel    string
	SeatNumber  int
	Type        SeatType
	IsAvailable bool
}

// Label returns the human seat address, e.g. "A1".
func (s Seat) Label() string {
	return s.RowLabel + strconv.Itoa(s.SeatNumber)
}

type Show struct {
	ID             int64
	MovieID        int64
	RoomID         int64
	StartsAt       time.Time
	EndsAt         time.Time
	Language       string
	Subtitle       string
	Is3D           bool
	BasePriceCents int64
	HasStarted     bool
	HasEnded       bool
}

type Ticket struct {
	ID         int64
	ShowID     int64
	SeatID     int64
	OrderID    *int64
	SeatType   SeatType // snapshot at creation
	PriceCents int64    // snapshot at creation
	State      TicketState
}

type Order struct {
	ID         int64
	UserID     int64
	DiscountID *int64
	TotalCents int64
	PaymentRef *string
	CreatedAt  time.Time
}

type OrderWithTickets struct {
	Order   Order
	Tickets []Ticket
}

// NormalizeDiscountCode folds a user-entered code into its stored form.
func NormalizeDiscountCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

type Discount struct {
	ID         int64
	Code       string
	Percentage int
	ValidUntil time.Time
	IsActive   bool
}

// Valid reports whether the discount may be applied at the given instant.
// Validity is evaluated at application time, never at creation time.
func (d Discount) Valid(now time.Time) bool {
	return d.IsActive && !now.After(d.ValidUntil)
}

type ShowCounts struct {
	Available int64
	Reserved  int64
	Booked    int64
	Total     int64
}

type SeatWithState struct {
	Seat
	State TicketState
}

type Movie struct {
	ID          int64
	Title       string
	Genre       string
	Description string
	DurationMin int
	Director    string
	ReleaseDate time.Time
	ImageURL    string
	TrailerURL  string
	Rating      float64
}

type Review struct {
	ID        int64
	MovieID   int64
	UserID    int64
	Rating    int // 0..10
	Comment   string
	CreatedAt time.Time
}

type User struct {
	ID        int64
	FirstName string
	LastName  string
	Email     string
	Phone     string
	CreatedAt time.Time
}
