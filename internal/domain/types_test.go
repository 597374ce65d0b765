package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTicketPriceCents(t *testing.T) {
	tests := []struct {
		name     string
		base     int64
		seatType SeatType
		want     int64
	}{
		{"standard", 1000, SeatStandard, 1000},
		{"premium adds 25 percent", 1000, SeatPremium, 1250},
		{"vip adds 50 percent", 1000, SeatVIP, 1500},
		{"unknown type prices as standard", 1000, SeatType("recliner"), 1000},
		{"truncates toward zero", 999, SeatPremium, 1248},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TicketPriceCents(tt.base, tt.seatType))
		})
	}
}

func TestDiscountedTotalCents(t *testing.T) {
	assert.Equal(t, int64(900), DiscountedTotalCents(1000, 10))
	assert.Equal(t, int64(1000), DiscountedTotalCents(1000, 0))
	assert.Equal(t, int64(0), DiscountedTotalCents(1000, 100))

	// Reapplying is always computed from the undiscounted sum, so two
	// applications of 10% still yield 900, not 810.
	sum := int64(1000)
	assert.Equal(t, DiscountedTotalCents(sum, 10), DiscountedTotalCents(sum, 10))
}

func TestTicketStateActive(t *testing.T) {
	assert.True(t, TicketReserved.Active())
	assert.True(t, TicketBooked.Active())
	assert.False(t, TicketAvailable.Active())
	assert.False(t, TicketInvalid.Active())
}

func TestDiscountValid(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	d := Discount{IsActive: true, ValidUntil: now.Add(time.Hour)}
	assert.True(t, d.Valid(now))
	assert.True(t, d.Valid(now.Add(time.Hour)), "boundary instant is still valid")
	assert.False(t, d.Valid(now.Add(2*time.Hour)))

	d.IsActive = false
	assert.False(t, d.Valid(now), "inactive discount is never valid")
}

func TestSeatLabel(t *testing.T) {
	assert.Equal(t, "A1", Seat{RowLabel: "A", SeatNumber: 1}.Label())
	assert.Equal(t, "C12", Seat{RowLabel: "C", SeatNumber: 12}.Label())
}

func TestNormalizeDiscountCode(t *testing.T) {
	assert.Equal(t, "SUMMER10", NormalizeDiscountCode("  summer10 "))
	assert.Equal(t, "SUMMER10", NormalizeDiscountCode("Summer10"))
}
