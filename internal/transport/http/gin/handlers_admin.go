package httpgin

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kinogo/kinogo/internal/domain"
	"github.com/kinogo/kinogo/internal/service"
)

// @Summary  Create room
// @Param    req body  CreateRoomRequest true "payload"
// @Success  201 {object} domain.Room
// @Router   /admin/rooms [post]
func handleCreateRoom(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateRoomRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		available := true
		if req.IsAvailable != nil {
			available = *req.IsAvailable
		}
		room, err := svcs.Rooms.CreateRoom(c.Request.Context(), req.Name, available)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, room)
	}
}

// @Summary  List rooms
// @Success  200 {array} domain.Room
// @Router   /admin/rooms [get]
func handleListRooms(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svcs.Rooms.ListRooms(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary  Get room
// @Param    id  path  int  true  "Room ID"
// @Success  200 {object} domain.Room
// @Router   /admin/rooms/{id} [get]
func handleGetRoom(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		room, err := svcs.Rooms.GetRoom(c.Request.Context(), roomID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, room)
	}
}

// @Summary  Update room
// @Param    id  path  int  true  "Room ID"
// @Param    req body  UpdateRoomRequest true "payload"
// @Success  204
// @Router   /admin/rooms/{id} [put]
func handleUpdateRoom(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req UpdateRoomRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		err := svcs.Rooms.UpdateRoom(c.Request.Context(), domain.Room{
			ID:          roomID,
			Name:        req.Name,
			IsAvailable: req.IsAvailable,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Delete room
// @Param    id  path  int  true  "Room ID"
// @Success  204
// @Failure  409 {object} ErrorResponse "room has seats or shows"
// @Router   /admin/rooms/{id} [delete]
func handleDeleteRoom(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		if err := svcs.Rooms.DeleteRoom(c.Request.Context(), roomID); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Generate seat layout
// @Param    id  path  int  true  "Room ID"
// @Param    req body  GenerateLayoutRequest true "payload"
// @Success  201 {array} domain.Seat
// @Router   /admin/rooms/{id}/layout [post]
func handleGenerateLayout(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req GenerateLayoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		seats, err := svcs.Rooms.GenerateLayout(c.Request.Context(), roomID, req.Rows, req.SeatsPerRow)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, seats)
	}
}

// @Summary  List room seats
// @Param    id  path  int  true  "Room ID"
// @Success  200 {array} domain.Seat
// @Router   /admin/rooms/{id}/seats [get]
func handleListRoomSeats(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		seats, err := svcs.Rooms.ListSeats(c.Request.Context(), roomID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, seats)
	}
}

// @Summary  Create seat
// @Param    id  path  int  true  "Room ID"
// @Param    req body  SeatRequest true "payload"
// @Success  201 {object} domain.Seat
// @Failure  409 {object} ErrorResponse "position taken"
// @Router   /admin/rooms/{id}/seats [post]
func handleCreateSeat(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req SeatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		available := true
		if req.IsAvailable != nil {
			available = *req.IsAvailable
		}
		seatType := domain.SeatType(req.Type)
		if seatType == "" {
			seatType = domain.SeatStandard
		}
		seat, err := svcs.Rooms.CreateSeat(c.Request.Context(), domain.Seat{
			RoomID:      roomID,
			RowLabel:    req.RowLabel,
			SeatNumber:  req.SeatNumber,
			Type:        seatType,
			IsAvailable: available,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, seat)
	}
}

// @Summary  Delete all seats in room
// @Param    id  path  int  true  "Room ID"
// @Success  200 {object} DeletedResponse
// @Router   /admin/rooms/{id}/seats [delete]
func handleDeleteAllSeats(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		n, err := svcs.Rooms.DeleteAllSeats(c.Request.Context(), roomID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, DeletedResponse{Deleted: n})
	}
}

// @Summary  Set availability for a whole row
// @Param    id   path  int     true  "Room ID"
// @Param    row  path  string  true  "Row label"
// @Param    req body  RowAvailabilityRequest true "payload"
// @Success  200 {object} UpdatedResponse
// @Router   /admin/rooms/{id}/rows/{row} [patch]
func handleSetRowAvailability(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		row := c.Param("row")
		var req RowAvailabilityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		n, err := svcs.Rooms.SetAvailabilityForRow(c.Request.Context(), roomID, row, *req.Available)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, UpdatedResponse{Updated: n})
	}
}

// @Summary  Update seat
// @Param    id  path  int  true  "Seat ID"
// @Param    req body  SeatRequest true "payload"
// @Success  204
// @Router   /admin/seats/{id} [put]
func handleUpdateSeat(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		seatID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req SeatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		available := true
		if req.IsAvailable != nil {
			available = *req.IsAvailable
		}
		seatType := domain.SeatType(req.Type)
		if seatType == "" {
			seatType = domain.SeatStandard
		}
		err := svcs.Rooms.UpdateSeat(c.Request.Context(), domain.Seat{
			ID:          seatID,
			RowLabel:    req.RowLabel,
			SeatNumber:  req.SeatNumber,
			Type:        seatType,
			IsAvailable: available,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Delete seat
// @Param    id  path  int  true  "Seat ID"
// @Success  204
// @Router   /admin/seats/{id} [delete]
func handleDeleteSeat(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		seatID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		if err := svcs.Rooms.DeleteSeat(c.Request.Context(), seatID); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Create show
// @Param    req body  ShowRequest true "payload"
// @Success  201 {object} domain.Show
// @Failure  409 {object} ErrorResponse "room occupied"
// @Router   /admin/shows [post]
func handleCreateShow(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		show, ok := bindShow(c, 0)
		if !ok {
			return
		}
		out, err := svcs.Shows.CreateShow(c.Request.Context(), show)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, out)
	}
}

// @Summary  Update show
// @Param    id  path  int  true  "Show ID"
// @Param    req body  ShowRequest true "payload"
// @Success  200 {object} domain.Show
// @Router   /admin/shows/{id} [put]
func handleUpdateShow(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		showID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		show, ok := bindShow(c, showID)
		if !ok {
			return
		}
		out, err := svcs.Shows.UpdateShow(c.Request.Context(), show)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary  Delete show and its tickets
// @Param    id  path  int  true  "Show ID"
// @Success  204
// @Router   /admin/shows/{id} [delete]
func handleDeleteShow(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		showID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		if err := svcs.Shows.DeleteShow(c.Request.Context(), showID); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Start show, invalidating unpaid reservations
// @Param    id  path  int  true  "Show ID"
// @Success  204
// @Router   /admin/shows/{id}/start [post]
func handleStartShow(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		showID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		if err := svcs.Shows.StartShow(c.Request.Context(), showID); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  End show
// @Param    id  path  int  true  "Show ID"
// @Success  204
// @Router   /admin/shows/{id}/end [post]
func handleEndShow(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		showID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		if err := svcs.Shows.EndShow(c.Request.Context(), showID); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Create discount
// @Param    req body  DiscountRequest true "payload"
// @Success  201 {object} domain.Discount
// @Router   /admin/discounts [post]
func handleCreateDiscount(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, ok := bindDiscount(c)
		if !ok {
			return
		}
		out, err := svcs.Discounts.Create(c.Request.Context(), d)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, out)
	}
}

// @Summary  List discounts
// @Success  200 {array} domain.Discount
// @Router   /admin/discounts [get]
func handleListDiscounts(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svcs.Discounts.List(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary  Update discount
// @Param    code  path  string  true  "Discount code"
// @Param    req body  DiscountRequest true "payload"
// @Success  204
// @Router   /admin/discounts/{code} [put]
func handleUpdateDiscount(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.Param("code")
		d, ok := bindDiscount(c)
		if !ok {
			return
		}
		if err := svcs.Discounts.Update(c.Request.Context(), code, d); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Delete discount
// @Param    code  path  string  true  "Discount code"
// @Success  204
// @Router   /admin/discounts/{code} [delete]
func handleDeleteDiscount(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svcs.Discounts.Delete(c.Request.Context(), c.Param("code")); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Create movie
// @Param    req body  MovieRequest true "payload"
// @Success  201 {object} domain.Movie
// @Router   /admin/movies [post]
func handleCreateMovie(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, ok := bindMovie(c, 0)
		if !ok {
			return
		}
		out, err := svcs.Catalog.CreateMovie(c.Request.Context(), m)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, out)
	}
}

// @Summary  Update movie
// @Param    id  path  int  true  "Movie ID"
// @Param    req body  MovieRequest true "payload"
// @Success  204
// @Router   /admin/movies/{id} [put]
func handleUpdateMovie(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		movieID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		m, ok := bindMovie(c, movieID)
		if !ok {
			return
		}
		if err := svcs.Catalog.UpdateMovie(c.Request.Context(), m); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Delete movie
// @Param    id  path  int  true  "Movie ID"
// @Success  204
// @Failure  409 {object} ErrorResponse "movie has shows"
// @Router   /admin/movies/{id} [delete]
func handleDeleteMovie(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		movieID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		if err := svcs.Catalog.DeleteMovie(c.Request.Context(), movieID); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Delete review
// @Param    id  path  int  true  "Review ID"
// @Success  204
// @Router   /admin/reviews/{id} [delete]
func handleDeleteReview(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		reviewID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		if err := svcs.Catalog.DeleteReview(c.Request.Context(), reviewID); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// --- binding helpers ---

func bindShow(c *gin.Context, id int64) (domain.Show, bool) {
	var req ShowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return domain.Show{}, false
	}
	starts, err := parseRFC3339(req.StartsAt)
	if err != nil {
		badRequest(c, "invalid starts_at (RFC3339)")
		return domain.Show{}, false
	}
	ends, err := parseRFC3339(req.EndsAt)
	if err != nil {
		badRequest(c, "invalid ends_at (RFC3339)")
		return domain.Show{}, false
	}
	return domain.Show{
		ID:             id,
		MovieID:        req.MovieID,
		RoomID:         req.RoomID,
		StartsAt:       starts,
		EndsAt:         ends,
		Language:       req.Language,
		Subtitle:       req.Subtitle,
		Is3D:           req.Is3D,
		BasePriceCents: req.BasePriceCents,
	}, true
}

func bindDiscount(c *gin.Context) (domain.Discount, bool) {
	var req DiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return domain.Discount{}, false
	}
	validUntil, err := parseRFC3339(req.ValidUntil)
	if err != nil {
		badRequest(c, "invalid valid_until (RFC3339)")
		return domain.Discount{}, false
	}
	return domain.Discount{
		Code:       req.Code,
		Percentage: req.Percentage,
		ValidUntil: validUntil,
		IsActive:   req.IsActive,
	}, true
}

func bindMovie(c *gin.Context, id int64) (domain.Movie, bool) {
	var req MovieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return domain.Movie{}, false
	}
	var release time.Time
	if req.ReleaseDate != "" {
		var err error
		release, err = parseRFC3339(req.ReleaseDate)
		if err != nil {
			badRequest(c, "invalid release_date (RFC3339)")
			return domain.Movie{}, false
		}
	}
	return domain.Movie{
		ID:          id,
		Title:       req.Title,
		Genre:       req.Genre,
		Description: req.Description,
		DurationMin: req.DurationMin,
		Director:    req.Director,
		ReleaseDate: release,
		ImageURL:    req.ImageURL,
		TrailerURL:  req.TrailerURL,
		Rating:      req.Rating,
	}, true
}
