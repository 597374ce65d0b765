// Package service bundles the application services for wiring.
package service

import (
	"github.com/kinogo/kinogo/internal/service/booking"
	"github.com/kinogo/kinogo/internal/service/catalog"
	"github.com/kinogo/kinogo/internal/service/discounts"
	"github.com/kinogo/kinogo/internal/service/query"
	"github.com/kinogo/kinogo/internal/service/rooms"
	"github.com/kinogo/kinogo/internal/service/shows"
)

// Services is the full application service set handed to the transport.
type Services struct {
	Rooms     *rooms.Service
	Shows     *shows.Service
	Booking   *booking.Service
	Discounts *discounts.Service
	Query     *query.Service
	Catalog   *catalog.Service
}
