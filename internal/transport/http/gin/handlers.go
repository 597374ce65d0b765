package httpgin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kinogo/kinogo/internal/domain"
	redisrepo "github.com/kinogo/kinogo/internal/repository/redis"
	"github.com/kinogo/kinogo/internal/service"
	"github.com/kinogo/kinogo/internal/service/booking"
)

// paymentApprovedEvent is the provider event that confirms a capture.
const paymentApprovedEvent = "CHECKOUT.ORDER.APPROVED"

// @Summary  List shows
// @Param    limit  query  int  false  "page size"
// @Param    offset query  int  false  "offset"
// @Success  200  {array}  domain.Show
// @Router   /shows [get]
func handleListShows(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := parseIntDefault(c.Query("limit"), 50)
		offset := parseIntDefault(c.Query("offset"), 0)

		out, err := svcs.Query.ListShows(c.Request.Context(), limit, offset)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, out, "public, max-age=60", true)
	}
}

// @Summary  Get show
// @Param    id  path  int  true  "Show ID"
// @Success  200  {object}  domain.Show
// @Failure  404  {object}  ErrorResponse
// @Router   /shows/{id} [get]
func handleGetShow(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		showID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		show, err := svcs.Query.GetShow(c.Request.Context(), showID)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, show, "public, max-age=60", true)
	}
}

// @Summary  Get seat availability counters
// @Param    id  path  int  true  "Show ID"
// @Success  200  {object}  domain.ShowCounts
// @Router   /shows/{id}/availability [get]
func handleGetAvailability(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		showID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		counts, err := svcs.Query.ShowCounts(c.Request.Context(), showID)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, counts, "public, max-age=15", true)
	}
}

// @Summary  Get seat map with occupancy
// @Param    id  path  int  true  "Show ID"
// @Success  200  {array}  domain.SeatWithState
// @Router   /shows/{id}/seats [get]
func handleGetSeatMap(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		showID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		seats, err := svcs.Query.SeatMap(c.Request.Context(), showID)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, seats, "public, max-age=15", true)
	}
}

// @Summary  Create order (idempotent)
// @Param    req body  CreateOrderRequest true "payload"
// @Header   201 {string} Idempotency-Key "echo"
// @Success  201 {object} domain.OrderWithTickets
// @Failure  400 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "seat conflict / idem in progress"
// @Failure  429 {object} ErrorResponse "rate limited"
// @Router   /orders [post]
func handleCreateOrder(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemOrder(req.ShowID, idemKey)

			if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
				c.Header("Idempotency-Key", idemKey)
				c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
				return
			}

			locked, err := idem.AcquireLock(c.Request.Context(), idemStorageKey, 60*time.Second)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
					c.Header("Idempotency-Key", idemKey)
					c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(http.StatusConflict, ErrorResponse{Error: "idempotency key in progress"})
				return
			}
		}

		out, err := svcs.Booking.CreateOrder(c.Request.Context(), req.UserID, req.ShowID, req.SeatIDs)
		if err != nil {
			if idemStorageKey != "" && idem != nil {
				_ = idem.Release(c.Request.Context(), idemStorageKey)
			}
			respondErr(c, err)
			return
		}

		if idemStorageKey != "" && idem != nil {
			b, _ := json.Marshal(out)
			_ = idem.SaveResult(c.Request.Context(), idemStorageKey, string(b))
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, out)
	}
}

// @Summary  Get order with tickets
// @Param    id  path  int  true  "Order ID"
// @Success  200 {object} domain.OrderWithTickets
// @Router   /orders/{id} [get]
func handleGetOrder(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		out, err := svcs.Booking.GetOrder(c.Request.Context(), orderID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary  Get ticket
// @Param    id  path  int  true  "Ticket ID"
// @Success  200 {object} domain.Ticket
// @Failure  404 {object} ErrorResponse
// @Router   /tickets/{id} [get]
func handleGetTicket(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		ticketID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		t, err := svcs.Booking.GetTicket(c.Request.Context(), ticketID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

// @Summary  Cancel order
// @Param    id  path  int  true  "Order ID"
// @Success  204
// @Failure  404 {object} ErrorResponse
// @Router   /orders/{id} [delete]
func handleDeleteOrder(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		if err := svcs.Booking.DeleteOrder(c.Request.Context(), orderID); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Apply discount code to order
// @Param    id  path  int  true  "Order ID"
// @Param    req body  ApplyDiscountRequest true "payload"
// @Success  200 {object} domain.Order
// @Failure  409 {object} ErrorResponse "expired or inactive"
// @Router   /orders/{id}/discount [post]
func handleApplyDiscount(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req ApplyDiscountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		order, err := svcs.Booking.ApplyDiscount(c.Request.Context(), orderID, req.Code)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// @Summary  List user's orders
// @Param    id  path  int  true  "User ID"
// @Success  200 {array} domain.Order
// @Router   /users/{id}/orders [get]
func handleListUserOrders(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		out, err := svcs.Booking.ListOrdersByUser(c.Request.Context(), userID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary  Payment provider webhook
// @Param    req body  PaymentWebhookRequest true "provider event"
// @Success  200 {object} map[string]string
// @Router   /webhooks/paypal [post]
func handlePaymentWebhook(svcs *service.Services, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PaymentWebhookRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		if req.EventType != paymentApprovedEvent {
			// Not ours to handle; acknowledge so the provider stops retrying.
			c.JSON(http.StatusOK, gin.H{"status": "ignored"})
			return
		}
		if req.Resource.ID == "" {
			badRequest(c, "missing resource.id")
			return
		}

		if _, err := svcs.Booking.ConfirmPayment(c.Request.Context(), req.Resource.ID); err != nil {
			if errors.Is(err, booking.ErrOrderNotFound) {
				// Unknown reference, possibly a replay for a deleted order.
				logger.Warn("webhook for unknown payment ref", "ref", req.Resource.ID)
				c.JSON(http.StatusOK, gin.H{"status": "ignored"})
				return
			}
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "confirmed"})
	}
}

// @Summary  List movies
// @Success  200 {array} domain.Movie
// @Router   /movies [get]
func handleListMovies(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svcs.Catalog.ListMovies(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, out, "public, max-age=60", true)
	}
}

// @Summary  Get movie
// @Param    id  path  int  true  "Movie ID"
// @Success  200 {object} domain.Movie
// @Router   /movies/{id} [get]
func handleGetMovie(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		movieID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		m, err := svcs.Catalog.GetMovie(c.Request.Context(), movieID)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, m, "public, max-age=60", true)
	}
}

// @Summary  List movie reviews
// @Param    id  path  int  true  "Movie ID"
// @Success  200 {array} domain.Review
// @Router   /movies/{id}/reviews [get]
func handleListReviews(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		movieID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		out, err := svcs.Catalog.ListReviewsByMovie(c.Request.Context(), movieID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary  Create movie review
// @Param    id  path  int  true  "Movie ID"
// @Param    req body  ReviewRequest true "payload"
// @Success  201 {object} map[string]int64
// @Router   /movies/{id}/reviews [post]
func handleCreateReview(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		movieID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req ReviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		id, err := svcs.Catalog.CreateReview(c.Request.Context(), domain.Review{
			MovieID: movieID,
			UserID:  req.UserID,
			Rating:  req.Rating,
			Comment: req.Comment,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"review_id": id})
	}
}

// @Summary  Register user
// @Param    req body  CreateUserRequest true "payload"
// @Success  201 {object} domain.User
// @Router   /users [post]
func handleCreateUser(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		u, err := svcs.Catalog.CreateUser(c.Request.Context(), domain.User{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
			Phone:     req.Phone,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, u)
	}
}
