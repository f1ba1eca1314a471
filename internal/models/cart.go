package models

import "time"

type CartItem struct {
	ID           string    `json:"id"`
	HotelID      string    `json:"hotel_id"`
	HotelName    string    `json:"hotel_name"`
	RoomID       string    `json:"room_id"`
	RoomName     string    `json:"room_name"`
	RoomType     string    `json:"room_type"`
	CheckInDate  time.Time `json:"check_in_date"`
	CheckOutDate time.Time `json:"check_out_date"`
	Guests       int       `json:"guests"`
	Rooms        int       `json:"rooms"`
	Price        float64   `json:"price"`
	Nights       int       `json:"nights"`
	TotalPrice   float64   `json:"total_price"`
	AddedAt      time.Time `json:"added_at"`
}

// Cart is the per-user document stored in Redis. Version guards concurrent
// read-modify-write cycles: every save checks and increments it.
type Cart struct {
	UserID      string     `json:"user_id"`
	Items       []CartItem `json:"items"`
	TotalAmount float64    `json:"total_amount"`
	ExpiresAt   time.Time  `json:"expires_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Version     int64      `json:"version"`
}

// CalculateTotal recomputes the aggregate from line items. Never trust a
// caller-supplied total.
func (c *Cart) CalculateTotal() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.TotalPrice
	}
	c.TotalAmount = total
	return total
}

// DropExpiredItems removes items older than the per-item TTL and recomputes
// the total. Returns the number of items dropped.
func (c *Cart) DropExpiredItems(now time.Time) int {
	kept := c.Items[:0]
	for _, item := range c.Items {
		if item.AddedAt.Add(CartItemTTL).After(now) {
			kept = append(kept, item)
		}
	}
	dropped := len(c.Items) - len(kept)
	c.Items = kept
	c.CalculateTotal()
	return dropped
}

// RemoveItems deletes the given item ids, ignoring ids that are already
// absent, and recomputes the total. Safe to re-apply after a partial failure.
func (c *Cart) RemoveItems(itemIDs []string) int {
	if len(itemIDs) == 0 {
		return 0
	}
	drop := make(map[string]bool, len(itemIDs))
	for _, id := range itemIDs {
		drop[id] = true
	}
	kept := c.Items[:0]
	for _, item := range c.Items {
		if !drop[item.ID] {
			kept = append(kept, item)
		}
	}
	removed := len(c.Items) - len(kept)
	c.Items = kept
	c.CalculateTotal()
	return removed
}

// ItemByID returns the item with the given id, or nil.
func (c *Cart) ItemByID(id string) *CartItem {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return &c.Items[i]
		}
	}
	return nil
}
