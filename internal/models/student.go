package models

import (
	"time"

	"github.com/google/uuid"
)

// Student is an enrolled identity. RegisterNumber is the stable unique
// key; the embedding is fixed at enrollment and never updated.
type Student struct {
	ID             uuid.UUID `json:"id" db:"id"`
	RegisterNumber string    `json:"register_number" db:"register_number"`
	Name           string    `json:"name" db:"name"`
	PhotoKey       string    `json:"-" db:"photo_key"`
	Embedding      []float32 `json:"-" db:"embedding"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
