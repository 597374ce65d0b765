// Package memory is an in-memory store used by service tests. It mirrors
// the postgres store's behavior, including which sentinel errors come back
// for missing rows and violated constraints.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kinogo/kinogo/internal/domain"
	"github.com/kinogo/kinogo/internal/repository"
)

type Store struct {
	mu sync.Mutex

	nextID int64

	rooms     map[int64]domain.Room
	seats     map[int64]domain.Seat
	shows     map[int64]domain.Show
	tickets   map[int64]domain.Ticket
	orders    map[int64]domain.Order
	discounts map[int64]domain.Discount
	movies    map[int64]domain.Movie
	reviews   map[int64]domain.Review
	users     map[int64]domain.User

	now time.Time
}

func New() *Store {
	return &Store{
		rooms:     make(map[int64]domain.Room),
		seats:     make(map[int64]domain.Seat),
		shows:     make(map[int64]domain.Show),
		tickets:   make(map[int64]domain.Ticket),
		orders:    make(map[int64]domain.Order),
		discounts: make(map[int64]domain.Discount),
		movies:    make(map[int64]domain.Movie),
		reviews:   make(map[int64]domain.Review),
		users:     make(map[int64]domain.User),
		now:       time.Now(),
	}
}

// RunTx runs fn directly. The fake has no transactions; tests drive
// conflicts through state, not through isolation.
func (s *Store) RunTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Rooms and seats.

func (s *Store) CreateRoom(ctx context.Context, name string, isAvailable bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.id()
	s.rooms[id] = domain.Room{ID: id, Name: name, IsAvailable: isAvailable}
	return id, nil
}

func (s *Store) GetRoom(ctx context.Context, id int64) (*domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (s *Store) ListRooms(ctx context.Context) ([]domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateRoom(ctx context.Context, room domain.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.rooms[room.ID]
	if !ok {
		return repository.ErrNotFound
	}
	room.Capacity = old.Capacity
	s.rooms[room.ID] = room
	return nil
}

func (s *Store) DeleteRoom(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[id]; !ok {
		return repository.ErrNotFound
	}
	for _, show := range s.shows {
		if show.RoomID == id {
			return repository.ErrConflict
		}
	}
	for _, seat := range s.seats {
		if seat.RoomID == id {
			return repository.ErrConflict
		}
	}
	delete(s.rooms, id)
	return nil
}

func (s *Store) CountSeats(ctx context.Context, roomID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, seat := range s.seats {
		if seat.RoomID == roomID {
			n++
		}
	}
	return n, nil
}

func (s *Store) SetRoomCapacity(ctx context.Context, roomID int64, capacity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return repository.ErrNotFound
	}
	r.Capacity = capacity
	s.rooms[roomID] = r
	return nil
}

func (s *Store) CreateSeat(ctx context.Context, seat domain.Seat) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[seat.RoomID]; !ok {
		return 0, repository.ErrConflict
	}
	for _, other := range s.seats {
		if other.RoomID == seat.RoomID && other.RowLabel == seat.RowLabel && other.SeatNumber == seat.SeatNumber {
			return 0, repository.ErrConflict
		}
	}
	seat.ID = s.id()
	s.seats[seat.ID] = seat
	return seat.ID, nil
}

func (s *Store) BatchCreateSeats(ctx context.Context, seats []domain.Seat) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, seat := range seats {
		dup := false
		for _, other := range s.seats {
			if other.RoomID == seat.RoomID && other.RowLabel == seat.RowLabel && other.SeatNumber == seat.SeatNumber {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		seat.ID = s.id()
		s.seats[seat.ID] = seat
	}
	return nil
}

func (s *Store) GetSeat(ctx context.Context, id int64) (*domain.Seat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seat, ok := s.seats[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &seat, nil
}

func (s *Store) UpdateSeat(ctx context.Context, seat domain.Seat) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.seats[seat.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, other := range s.seats {
		if other.ID != seat.ID && other.RoomID == old.RoomID &&
			other.RowLabel == seat.RowLabel && other.SeatNumber == seat.SeatNumber {
			return repository.ErrConflict
		}
	}
	seat.RoomID = old.RoomID
	s.seats[seat.ID] = seat
	return nil
}

func (s *Store) DeleteSeat(ctx context.Context, id int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seat, ok := s.seats[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	delete(s.seats, id)
	return seat.RoomID, nil
}

func (s *Store) DeleteSeatsInRoom(ctx context.Context, roomID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, seat := range s.seats {
		if seat.RoomID == roomID {
			delete(s.seats, id)
			n++
		}
	}
	return n, nil
}

func (s *Store) SetRowAvailability(ctx context.Context, roomID int64, rowLabel string, available bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, seat := range s.seats {
		if seat.RoomID == roomID && seat.RowLabel == rowLabel {
			seat.IsAvailable = available
			s.seats[id] = seat
			n++
		}
	}
	return n, nil
}

func (s *Store) ListSeats(ctx context.Context, roomID int64) ([]domain.Seat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Seat
	for _, seat := range s.seats {
		if seat.RoomID == roomID {
			out = append(out, seat)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.RowLabel != b.RowLabel {
			return a.RowLabel < b.RowLabel
		}
		return a.SeatNumber < b.SeatNumber
	})
	return out, nil
}

func (s *Store) SeatsByIDs(ctx context.Context, ids []int64) ([]domain.Seat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Seat
	for _, id := range ids {
		if seat, ok := s.seats[id]; ok {
			out = append(out, seat)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Shows.

func (s *Store) CreateShow(ctx context.Context, show domain.Show) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[show.RoomID]; !ok {
		return 0, repository.ErrConflict
	}
	if _, ok := s.movies[show.MovieID]; !ok {
		return 0, repository.ErrConflict
	}
	show.ID = s.id()
	s.shows[show.ID] = show
	return show.ID, nil
}

func (s *Store) GetShow(ctx context.Context, id int64) (*domain.Show, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	show, ok := s.shows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &show, nil
}

func (s *Store) ListShows(ctx context.Context, limit, offset int) ([]domain.Show, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]domain.Show, 0, len(s.shows))
	for _, show := range s.shows {
		all = append(all, show)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].StartsAt.Equal(all[j].StartsAt) {
			return all[i].StartsAt.Before(all[j].StartsAt)
		}
		return all[i].ID < all[j].ID
	})
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (s *Store) UpdateShow(ctx context.Context, show domain.Show) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.shows[show.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if _, ok := s.rooms[show.RoomID]; !ok {
		return repository.ErrConflict
	}
	if _, ok := s.movies[show.MovieID]; !ok {
		return repository.ErrConflict
	}
	show.HasStarted = old.HasStarted
	show.HasEnded = old.HasEnded
	s.shows[show.ID] = show
	return nil
}

func (s *Store) DeleteShow(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.shows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.shows, id)
	for tid, t := range s.tickets {
		if t.ShowID == id {
			delete(s.tickets, tid)
		}
	}
	return nil
}

func (s *Store) CountOverlappingShows(ctx context.Context, roomID int64, start, end time.Time, excludeID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, show := range s.shows {
		if show.RoomID != roomID || show.ID == excludeID {
			continue
		}
		if show.StartsAt.Before(end) && show.EndsAt.After(start) {
			n++
		}
	}
	return n, nil
}

func (s *Store) MarkShowStarted(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	show, ok := s.shows[id]
	if !ok {
		return repository.ErrNotFound
	}
	show.HasStarted = true
	s.shows[id] = show
	return nil
}

func (s *Store) MarkShowEnded(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	show, ok := s.shows[id]
	if !ok {
		return repository.ErrNotFound
	}
	show.HasEnded = true
	s.shows[id] = show
	return nil
}

func (s *Store) ShowIDsDueToStart(ctx context.Context, now time.Time) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []int64
	for _, show := range s.shows {
		if !show.HasStarted && !show.StartsAt.After(now) {
			out = append(out, show.ID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (s *Store) ShowIDsDueToEnd(ctx context.Context, now time.Time) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []int64
	for _, show := range s.shows {
		if !show.HasEnded && !show.EndsAt.After(now) {
			out = append(out, show.ID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// Tickets.

func (s *Store) ActiveTicketSeatIDs(ctx context.Context, showID int64, seatIDs []int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	want := make(map[int64]struct{}, len(seatIDs))
	for _, id := range seatIDs {
		want[id] = struct{}{}
	}
	var out []int64
	for _, t := range s.tickets {
		if t.ShowID != showID || !t.State.Active() {
			continue
		}
		if _, ok := want[t.SeatID]; ok {
			out = append(out, t.SeatID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (s *Store) InsertTickets(ctx context.Context, tickets []domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range tickets {
		if t.State.Active() {
			for _, other := range s.tickets {
				if other.ShowID == t.ShowID && other.SeatID == t.SeatID && other.State.Active() {
					return repository.ErrConflict
				}
			}
		}
	}
	for _, t := range tickets {
		t.ID = s.id()
		s.tickets[t.ID] = t
	}
	return nil
}

func (s *Store) GetTicket(ctx context.Context, id int64) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (s *Store) BookTicketsByOrder(ctx context.Context, orderID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, t := range s.tickets {
		if t.OrderID != nil && *t.OrderID == orderID && t.State == domain.TicketReserved {
			t.State = domain.TicketBooked
			s.tickets[id] = t
			n++
		}
	}
	return n, nil
}

func (s *Store) InvalidateReservedTickets(ctx context.Context, showID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, t := range s.tickets {
		if t.ShowID == showID && t.State == domain.TicketReserved {
			t.State = domain.TicketInvalid
			s.tickets[id] = t
			n++
		}
	}
	return n, nil
}

func (s *Store) ListShowSeatStates(ctx context.Context, showID int64) ([]domain.SeatWithState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	show, ok := s.shows[showID]
	if !ok {
		return nil, nil
	}

	active := make(map[int64]domain.TicketState)
	for _, t := range s.tickets {
		if t.ShowID == showID && t.State.Active() {
			active[t.SeatID] = t.State
		}
	}

	var out []domain.SeatWithState
	for _, seat := range s.seats {
		if seat.RoomID != show.RoomID {
			continue
		}
		state, ok := active[seat.ID]
		if !ok {
			state = domain.TicketAvailable
		}
		out = append(out, domain.SeatWithState{Seat: seat, State: state})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.RowLabel != b.RowLabel {
			return a.RowLabel < b.RowLabel
		}
		return a.SeatNumber < b.SeatNumber
	})
	return out, nil
}

func (s *Store) ShowCounts(ctx context.Context, showID int64) (*domain.ShowCounts, error) {
	states, err := s.ListShowSeatStates(ctx, showID)
	if err != nil {
		return nil, err
	}

	var counts domain.ShowCounts
	for _, st := range states {
		counts.Total++
		switch st.State {
		case domain.TicketReserved:
			counts.Reserved++
		case domain.TicketBooked:
			counts.Booked++
		default:
			counts.Available++
		}
	}
	return &counts, nil
}

// Orders.

func (s *Store) CreateOrder(ctx context.Context, userID, totalCents int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.id()
	s.orders[id] = domain.Order{ID: id, UserID: userID, TotalCents: totalCents, CreatedAt: s.now}
	return id, nil
}

func (s *Store) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &o, nil
}

func (s *Store) GetOrderWithTickets(ctx context.Context, id int64) (*domain.OrderWithTickets, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := domain.OrderWithTickets{Order: o}
	for _, t := range s.tickets {
		if t.OrderID != nil && *t.OrderID == id {
			out.Tickets = append(out.Tickets, t)
		}
	}
	sort.Slice(out.Tickets, func(i, j int) bool { return out.Tickets[i].ID < out.Tickets[j].ID })
	return &out, nil
}

func (s *Store) ListOrdersByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) DeleteOrder(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.orders, id)
	for tid, t := range s.tickets {
		if t.OrderID != nil && *t.OrderID == id {
			delete(s.tickets, tid)
		}
	}
	return nil
}

func (s *Store) SetOrderPaymentRef(ctx context.Context, id int64, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	for _, other := range s.orders {
		if other.ID != id && other.PaymentRef != nil && *other.PaymentRef == ref {
			return repository.ErrConflict
		}
	}
	o.PaymentRef = &ref
	s.orders[id] = o
	return nil
}

func (s *Store) OrderIDByPaymentRef(ctx context.Context, ref string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range s.orders {
		if o.PaymentRef != nil && *o.PaymentRef == ref {
			return o.ID, nil
		}
	}
	return 0, repository.ErrNotFound
}

func (s *Store) SetOrderDiscount(ctx context.Context, id int64, discountID *int64, totalCents int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	o.DiscountID = discountID
	o.TotalCents = totalCents
	s.orders[id] = o
	return nil
}

func (s *Store) TicketSumCents(ctx context.Context, orderID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sum int64
	for _, t := range s.tickets {
		if t.OrderID != nil && *t.OrderID == orderID {
			sum += t.PriceCents
		}
	}
	return sum, nil
}

// Discounts.

func (s *Store) CreateDiscount(ctx context.Context, d domain.Discount) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, other := range s.discounts {
		if other.Code == d.Code {
			return 0, repository.ErrConflict
		}
	}
	d.ID = s.id()
	s.discounts[d.ID] = d
	return d.ID, nil
}

func (s *Store) DiscountByCode(ctx context.Context, code string) (*domain.Discount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.discounts {
		if d.Code == code {
			return &d, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) ListDiscounts(ctx context.Context) ([]domain.Discount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Discount, 0, len(s.discounts))
	for _, d := range s.discounts {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateDiscount(ctx context.Context, code string, d domain.Discount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, old := range s.discounts {
		if old.Code != code {
			continue
		}
		for _, other := range s.discounts {
			if other.ID != id && other.Code == d.Code {
				return repository.ErrConflict
			}
		}
		d.ID = id
		s.discounts[id] = d
		return nil
	}
	return repository.ErrNotFound
}

func (s *Store) DeleteDiscount(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, d := range s.discounts {
		if d.Code == code {
			delete(s.discounts, id)
			return nil
		}
	}
	return repository.ErrNotFound
}

// Catalog.

func (s *Store) CreateMovie(ctx context.Context, m domain.Movie) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m.ID = s.id()
	s.movies[m.ID] = m
	return m.ID, nil
}

func (s *Store) GetMovie(ctx context.Context, id int64) (*domain.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.movies[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (s *Store) ListMovies(ctx context.Context) ([]domain.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Movie, 0, len(s.movies))
	for _, m := range s.movies {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateMovie(ctx context.Context, m domain.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.movies[m.ID]; !ok {
		return repository.ErrNotFound
	}
	s.movies[m.ID] = m
	return nil
}

func (s *Store) DeleteMovie(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.movies[id]; !ok {
		return repository.ErrNotFound
	}
	for _, show := range s.shows {
		if show.MovieID == id {
			return repository.ErrConflict
		}
	}
	delete(s.movies, id)
	return nil
}

func (s *Store) CreateReview(ctx context.Context, r domain.Review) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.movies[r.MovieID]; !ok {
		return 0, repository.ErrConflict
	}
	r.ID = s.id()
	r.CreatedAt = s.now
	s.reviews[r.ID] = r
	return r.ID, nil
}

func (s *Store) ListReviewsByMovie(ctx context.Context, movieID int64) ([]domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Review
	for _, r := range s.reviews {
		if r.MovieID == movieID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) DeleteReview(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reviews[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.reviews, id)
	return nil
}

func (s *Store) CreateUser(ctx context.Context, u domain.User) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, other := range s.users {
		if other.Email == u.Email {
			return 0, repository.ErrConflict
		}
	}
	u.ID = s.id()
	u.CreatedAt = s.now
	s.users[u.ID] = u
	return u.ID, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}
