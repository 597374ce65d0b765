package httpgin

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	redisrepo "github.com/kinogo/kinogo/internal/repository/redis"
	"github.com/kinogo/kinogo/internal/service"
	"github.com/kinogo/kinogo/internal/service/booking"
	"github.com/kinogo/kinogo/internal/service/catalog"
	"github.com/kinogo/kinogo/internal/service/discounts"
	"github.com/kinogo/kinogo/internal/service/query"
	"github.com/kinogo/kinogo/internal/service/rooms"
	"github.com/kinogo/kinogo/internal/service/shows"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func NewRouter(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public API
	r.GET("/shows", handleListShows(svcs))
	r.GET("/shows/:id", handleGetShow(svcs))
	r.GET("/shows/:id/availability", handleGetAvailability(svcs))
	r.GET("/shows/:id/seats", handleGetSeatMap(svcs))

	r.POST("/orders", handleCreateOrder(svcs, idem))
	r.GET("/orders/:id", handleGetOrder(svcs))
	r.DELETE("/orders/:id", handleDeleteOrder(svcs))
	r.POST("/orders/:id/discount", handleApplyDiscount(svcs))
	r.GET("/tickets/:id", handleGetTicket(svcs))
	r.GET("/users/:id/orders", handleListUserOrders(svcs))

	r.POST("/webhooks/paypal", handlePaymentWebhook(svcs, logger))

	r.GET("/movies", handleListMovies(svcs))
	r.GET("/movies/:id", handleGetMovie(svcs))
	r.GET("/movies/:id/reviews", handleListReviews(svcs))
	r.POST("/movies/:id/reviews", handleCreateReview(svcs))
	r.POST("/users", handleCreateUser(svcs))

	// Admin-API
	// TODO: add admin middleware
	adm := r.Group("/admin")
	{
		adm.POST("/rooms", handleCreateRoom(svcs))
		adm.GET("/rooms", handleListRooms(svcs))
		adm.GET("/rooms/:id", handleGetRoom(svcs))
		adm.PUT("/rooms/:id", handleUpdateRoom(svcs))
		adm.DELETE("/rooms/:id", handleDeleteRoom(svcs))

		adm.POST("/rooms/:id/layout", handleGenerateLayout(svcs))
		adm.GET("/rooms/:id/seats", handleListRoomSeats(svcs))
		adm.POST("/rooms/:id/seats", handleCreateSeat(svcs))
		adm.DELETE("/rooms/:id/seats", handleDeleteAllSeats(svcs))
		adm.PATCH("/rooms/:id/rows/:row", handleSetRowAvailability(svcs))
		adm.PUT("/seats/:id", handleUpdateSeat(svcs))
		adm.DELETE("/seats/:id", handleDeleteSeat(svcs))

		adm.POST("/shows", handleCreateShow(svcs))
		adm.PUT("/shows/:id", handleUpdateShow(svcs))
		adm.DELETE("/shows/:id", handleDeleteShow(svcs))
		adm.POST("/shows/:id/start", handleStartShow(svcs))
		adm.POST("/shows/:id/end", handleEndShow(svcs))

		adm.POST("/discounts", handleCreateDiscount(svcs))
		adm.GET("/discounts", handleListDiscounts(svcs))
		adm.PUT("/discounts/:code", handleUpdateDiscount(svcs))
		adm.DELETE("/discounts/:code", handleDeleteDiscount(svcs))

		adm.POST("/movies", handleCreateMovie(svcs))
		adm.PUT("/movies/:id", handleUpdateMovie(svcs))
		adm.DELETE("/movies/:id", handleDeleteMovie(svcs))
		adm.DELETE("/reviews/:id", handleDeleteReview(svcs))
	}

	return r
}

// --- Helpers ---

func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	s := c.Param(name)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	switch {
	// booking service
	case errors.Is(err, booking.ErrNoSeatsSelected),
		errors.Is(err, booking.ErrDuplicateSeat):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, booking.ErrShowNotFound),
		errors.Is(err, booking.ErrSeatNotFound),
		errors.Is(err, booking.ErrOrderNotFound),
		errors.Is(err, booking.ErrTicketNotFound),
		errors.Is(err, booking.ErrDiscountNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, booking.ErrSeatConflict),
		errors.Is(err, booking.ErrShowAlreadyStarted),
		errors.Is(err, booking.ErrSeatNotInRoom),
		errors.Is(err, booking.ErrSeatUnavailable),
		errors.Is(err, booking.ErrDiscountExpired),
		errors.Is(err, booking.ErrDiscountInactive):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, booking.ErrPaymentFailed):
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "payment provider unavailable"})
	case errors.Is(err, booking.ErrRateLimited):
		c.Header("Retry-After", "60")
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: err.Error()})

	// shows service
	case errors.Is(err, shows.ErrShowNotFound),
		errors.Is(err, shows.ErrUnknownReference):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, shows.ErrInvalidTimeRange):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, shows.ErrShowOverlap):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})

	// rooms service
	case errors.Is(err, rooms.ErrRoomNotFound),
		errors.Is(err, rooms.ErrSeatNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, rooms.ErrInvalidLayout):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, rooms.ErrRoomHasSeats),
		errors.Is(err, rooms.ErrRoomInUse),
		errors.Is(err, rooms.ErrDuplicateSeatPosition):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})

	// discounts service
	case errors.Is(err, discounts.ErrDiscountNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, discounts.ErrInvalidPercentage),
		errors.Is(err, discounts.ErrEmptyCode):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, discounts.ErrCodeTaken):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})

	// query service
	case errors.Is(err, query.ErrShowNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})

	// catalog service
	case errors.Is(err, catalog.ErrMovieNotFound),
		errors.Is(err, catalog.ErrReviewNotFound),
		errors.Is(err, catalog.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, catalog.ErrInvalidRating),
		errors.Is(err, catalog.ErrInvalidEmail):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, catalog.ErrMovieInUse),
		errors.Is(err, catalog.ErrEmailTaken):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})

	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
