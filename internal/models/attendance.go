package models

import (
	"time"

	"github.com/google/uuid"
)

// AttendanceEvent is one attendance mark. At most one event exists per
// (StudentKey, WindowKey) pair; the ledger enforces this atomically.
type AttendanceEvent struct {
	ID         uuid.UUID `json:"id" db:"id"`
	StudentKey string    `json:"student_key" db:"student_key"`
	WindowKey  string    `json:"window_key" db:"window_key"`
	MarkedAt   time.Time `json:"marked_at" db:"marked_at"`
}

// AttendanceNotice is the message published to NATS when a student is
// recognized, consumed by the API to feed the live WebSocket register.
type AttendanceNotice struct {
	EventID        uuid.UUID `json:"event_id"`
	StudentID      uuid.UUID `json:"student_id"`
	RegisterNumber string    `json:"register_number"`
	Name           string    `json:"name"`
	WindowKey      string    `json:"window_key"`
	Distance       float64   `json:"distance"`
	MarkedAt       time.Time `json:"marked_at"`
	Duplicate      bool      `json:"duplicate"`
}
