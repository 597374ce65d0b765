package booking

import "errors"

var (
	ErrNoSeatsSelected    = errors.New("no seats selected")
	ErrDuplicateSeat      = errors.New("duplicate seat in request")
	ErrShowNotFound       = errors.New("show not found")
	ErrShowAlreadyStarted = errors.New("show has already started")
	ErrSeatNotFound       = errors.New("some seats do not exist")
	ErrSeatNotInRoom      = errors.New("seat does not belong to the show's room")
	ErrSeatUnavailable    = errors.New("seat is not available for sale")
	ErrSeatConflict       = errors.New("seat already reserved or booked for this show")
	ErrOrderNotFound      = errors.New("order not found")
	ErrTicketNotFound     = errors.New("ticket not found")
	ErrDiscountNotFound   = errors.New("discount not found")
	ErrDiscountExpired    = errors.New("discount has expired")
	ErrDiscountInactive   = errors.New("discount is not active")
	ErrPaymentFailed      = errors.New("payment provider rejected the order")
	ErrRateLimited        = errors.New("rate limited")
)
