package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHotelService_ListHotels(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	seedHotel(t, f, "hotel-1")
	seedHotel(t, f, "hotel-2")
	seedHotel(t, f, "hotel-3")

	inactive := seedHotel(t, f, "hotel-4")
	inactive.Active = false
	require.NoError(t, f.hotels.Save(ctx, inactive))

	t.Run("AllActive", func(t *testing.T) {
		hotels, total, err := f.hotelSvc.ListHotels(ctx, "", 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 3, total, "inactive hotels are hidden")
		assert.Len(t, hotels, 3)
	})

	t.Run("Paged", func(t *testing.T) {
		page1, total, err := f.hotelSvc.ListHotels(ctx, "", 1, 2)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.Len(t, page1, 2)

		page2, _, err := f.hotelSvc.ListHotels(ctx, "", 2, 2)
		require.NoError(t, err)
		assert.Len(t, page2, 1)

		empty, _, err := f.hotelSvc.ListHotels(ctx, "", 5, 2)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("DestinationFilter", func(t *testing.T) {
		hotels, total, err := f.hotelSvc.ListHotels(ctx, "mumbai", 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.Len(t, hotels, 3)

		_, total, err = f.hotelSvc.ListHotels(ctx, "antarctica", 1, 10)
		require.NoError(t, err)
		assert.Zero(t, total)
	})
}

func TestHotelService_GetHotel(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	seedHotel(t, f, "hotel-1")

	hotel, err := f.hotelSvc.GetHotel(ctx, "hotel-1")
	require.NoError(t, err)
	assert.Equal(t, "Grand hotel-1", hotel.Name)
	require.Len(t, hotel.Rooms, 2)
	assert.Equal(t, "Standard Room", hotel.Rooms[0].Name)

	_, err = f.hotelSvc.GetHotel(ctx, "ghost")
	assert.ErrorIs(t, err, ErrHotelNotFound)
}
