package dto

import "github.com/google/uuid"

type RecognizeRequest struct {
	// Embedding is the face descriptor extracted by the capture client.
	// An empty or missing vector means no face was detected.
	Embedding []float32 `json:"embedding"`
}

type AttendanceEventResponse struct {
	ID         uuid.UUID `json:"id"`
	StudentKey string    `json:"student_key"`
	WindowKey  string    `json:"window_key"`
	MarkedAt   string    `json:"marked_at"`
}

// RecognizeResponse reports the terminal outcome of a recognition
// request. Student and Event are present for attendance_marked and
// already_marked.
type RecognizeResponse struct {
	Status   string                   `json:"status"`
	Student  *StudentResponse         `json:"student,omitempty"`
	Event    *AttendanceEventResponse `json:"event,omitempty"`
	Distance float64                  `json:"distance,omitempty"`
	Window   string                   `json:"window,omitempty"`
}

type AttendanceListResponse struct {
	Events []AttendanceEventResponse `json:"events"`
	Total  int                       `json:"total"`
}

type WindowResponse struct {
	Window string                    `json:"window"`
	Events []AttendanceEventResponse `json:"events"`
	Total  int                       `json:"total"`
}
