package models

import "time"

type Room struct {
	RoomID       string   `json:"room_id" yaml:"room_id"`
	Name         string   `json:"name" yaml:"name"`
	Type         string   `json:"type" yaml:"type"` // single, double, suite, deluxe, presidential, villa
	Price        float64  `json:"price" yaml:"price"`
	Capacity     int      `json:"capacity" yaml:"capacity"`
	Amenities    []string `json:"amenities,omitempty" yaml:"amenities,omitempty"`
	Availability int      `json:"availability" yaml:"availability"`
	Description  string   `json:"description,omitempty" yaml:"description,omitempty"`
	BedType      string   `json:"bed_type,omitempty" yaml:"bed_type,omitempty"`
}

type Address struct {
	Street     string `json:"street,omitempty" yaml:"street,omitempty"`
	City       string `json:"city,omitempty" yaml:"city,omitempty"`
	State      string `json:"state,omitempty" yaml:"state,omitempty"`
	Country    string `json:"country,omitempty" yaml:"country,omitempty"`
	PostalCode string `json:"postal_code,omitempty" yaml:"postal_code,omitempty"`
}

type Hotel struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Destination string    `json:"destination" yaml:"destination"`
	Address     Address   `json:"address" yaml:"address"`
	Description string    `json:"description" yaml:"description"`
	Rating      float64   `json:"rating" yaml:"rating"`
	ReviewCount int       `json:"review_count" yaml:"review_count"`
	Amenities   []string  `json:"amenities,omitempty" yaml:"amenities,omitempty"`
	Rooms       []Room    `json:"rooms" yaml:"rooms"`
	Featured    bool      `json:"featured" yaml:"featured"`
	Active      bool      `json:"active" yaml:"active"`
	Tags        []string  `json:"tags,omitempty" yaml:"tags,omitempty"`
	CreatedAt   time.Time `json:"created_at" yaml:"-"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"-"`
}

// RoomByID returns the room with the given id, or nil.
func (h *Hotel) RoomByID(roomID string) *Room {
	for i := range h.Rooms {
		if h.Rooms[i].RoomID == roomID {
			return &h.Rooms[i]
		}
	}
	return nil
}

// RoomByType returns the first room of the given type, or nil.
func (h *Hotel) RoomByType(roomType string) *Room {
	for i := range h.Rooms {
		if h.Rooms[i].Type == roomType {
			return &h.Rooms[i]
		}
	}
	return nil
}
