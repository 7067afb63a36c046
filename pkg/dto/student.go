package dto

import "github.com/google/uuid"

type EnrollStudentRequest struct {
	RegisterNumber string    `json:"register_number" binding:"required"`
	Name           string    `json:"name" binding:"required"`
	Embedding      []float32 `json:"embedding" binding:"required"`
	// Photo is an optional base64 data URL captured by the enrollment
	// form; raw base64 without a data: prefix is also accepted.
	Photo string `json:"photo,omitempty"`
}

// StudentResponse is the external view of a student. The embedding is
// never exposed.
type StudentResponse struct {
	ID             uuid.UUID `json:"id"`
	RegisterNumber string    `json:"register_number"`
	Name           string    `json:"name"`
	PhotoURL       string    `json:"photo_url,omitempty"`
	CreatedAt      string    `json:"created_at"`
}
