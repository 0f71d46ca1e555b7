package models

import (
	"time"

	"github.com/google/uuid"
)

type Location struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type LocationInput struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
}

// ItemLocation records where units of an item are placed. It is informational:
// the item quantity remains the authoritative stock figure.
type ItemLocation struct {
	ItemID       uuid.UUID `json:"item_id" db:"item_id"`
	LocationID   uuid.UUID `json:"location_id" db:"location_id"`
	LocationName string    `json:"location_name,omitempty"`
	Quantity     int       `json:"quantity" db:"quantity"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
