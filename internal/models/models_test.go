package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCart_CalculateTotal(t *testing.T) {
	cart := &Cart{
		Items: []CartItem{
			{ID: "a", TotalPrice: 500},
			{ID: "b", TotalPrice: 1500},
		},
	}

	total := cart.CalculateTotal()
	assert.Equal(t, 2000.0, total)
	assert.Equal(t, 2000.0, cart.TotalAmount)

	cart.Items = nil
	assert.Equal(t, 0.0, cart.CalculateTotal())
}

func TestCart_DropExpiredItems(t *testing.T) {
	now := time.Now()
	cart := &Cart{
		Items: []CartItem{
			{ID: "fresh", TotalPrice: 100, AddedAt: now.Add(-5 * time.Minute)},
			{ID: "stale", TotalPrice: 200, AddedAt: now.Add(-CartItemTTL - time.Minute)},
		},
	}

	dropped := cart.DropExpiredItems(now)
	assert.Equal(t, 1, dropped)
	assert.Len(t, cart.Items, 1)
	assert.Equal(t, "fresh", cart.Items[0].ID)
	assert.Equal(t, 100.0, cart.TotalAmount)
}

func TestCart_RemoveItems(t *testing.T) {
	cart := &Cart{
		Items: []CartItem{
			{ID: "a", TotalPrice: 100},
			{ID: "b", TotalPrice: 200},
			{ID: "c", TotalPrice: 300},
		},
	}

	t.Run("RemovesSelected", func(t *testing.T) {
		removed := cart.RemoveItems([]string{"a", "c"})
		assert.Equal(t, 2, removed)
		assert.Len(t, cart.Items, 1)
		assert.Equal(t, 200.0, cart.TotalAmount)
	})

	t.Run("IdempotentOnRetry", func(t *testing.T) {
		removed := cart.RemoveItems([]string{"a", "c"})
		assert.Equal(t, 0, removed)
		assert.Len(t, cart.Items, 1)
		assert.Equal(t, 200.0, cart.TotalAmount)
	})

	t.Run("EmptySelection", func(t *testing.T) {
		assert.Equal(t, 0, cart.RemoveItems(nil))
	})
}

func TestNewBookingReference(t *testing.T) {
	ref := NewBookingReference()
	assert.True(t, strings.HasPrefix(ref, "BKG"))
	assert.GreaterOrEqual(t, len(ref), len("BKG")+13+5)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		seen[NewBookingReference()] = true
	}
	assert.Greater(t, len(seen), 90)
}

func TestBooking_CanTransition(t *testing.T) {
	assert.True(t, (&Booking{Status: StatusPending}).CanTransition())
	assert.True(t, (&Booking{Status: StatusConfirmed}).CanTransition())
	assert.False(t, (&Booking{Status: StatusCancelled}).CanTransition())
	assert.False(t, (&Booking{Status: StatusCompleted}).CanTransition())
}

func TestHotel_RoomLookups(t *testing.T) {
	hotel := &Hotel{Rooms: []Room{
		{RoomID: "r1", Type: "double", Price: 1000},
		{RoomID: "r2", Type: "suite", Price: 2500},
	}}

	assert.Equal(t, 2500.0, hotel.RoomByID("r2").Price)
	assert.Nil(t, hotel.RoomByID("missing"))
	assert.Equal(t, "r1", hotel.RoomByType("double").RoomID)
	assert.Nil(t, hotel.RoomByType("villa"))
}
