package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/attend/internal/models"
	"github.com/your-org/attend/internal/queue"
	"github.com/your-org/attend/internal/recognition"
	"github.com/your-org/attend/pkg/dto"
)

type AttendanceHandler struct {
	coord    *recognition.Coordinator
	producer *queue.Producer
}

func NewAttendanceHandler(coord *recognition.Coordinator, producer *queue.Producer) *AttendanceHandler {
	return &AttendanceHandler{coord: coord, producer: producer}
}

// Recognize matches the submitted embedding and marks attendance once
// per admission window. A repeat within the window returns the original
// event with status already_marked.
func (h *AttendanceHandler) Recognize(c *gin.Context) {
	var req dto.RecognizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.coord.Recognize(c.Request.Context(), req.Embedding)
	if err != nil {
		writeError(c, err)
		return
	}

	if result.Status == recognition.StatusNoMatch {
		c.JSON(http.StatusNotFound, dto.RecognizeResponse{Status: string(result.Status)})
		return
	}

	if h.producer != nil {
		notice := &models.AttendanceNotice{
			EventID:        result.Event.ID,
			StudentID:      result.Student.ID,
			RegisterNumber: result.Student.RegisterNumber,
			Name:           result.Student.Name,
			WindowKey:      result.WindowKey,
			Distance:       result.Distance,
			MarkedAt:       result.Event.MarkedAt,
			Duplicate:      result.Status == recognition.StatusAlreadyMarked,
		}
		pubCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		if err := h.producer.PublishNotice(pubCtx, notice); err != nil {
			slog.Warn("publish attendance notice", "error", err)
		}
		cancel()
	}

	student := studentResponse(result.Student)
	c.JSON(http.StatusOK, dto.RecognizeResponse{
		Status:   string(result.Status),
		Student:  &student,
		Event:    eventResponse(result.Event),
		Distance: result.Distance,
		Window:   result.WindowKey,
	})
}

// ListForStudent returns one student's attendance history.
func (h *AttendanceHandler) ListForStudent(c *gin.Context) {
	events, err := h.coord.Attendance(c.Request.Context(), c.Param("key"))
	if err != nil {
		writeError(c, err)
		return
	}

	resp := dto.AttendanceListResponse{Events: eventResponses(events), Total: len(events)}
	c.JSON(http.StatusOK, resp)
}

// CurrentWindow returns the register for the active admission window.
func (h *AttendanceHandler) CurrentWindow(c *gin.Context) {
	window, events, err := h.coord.CurrentWindow(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.WindowResponse{
		Window: window,
		Events: eventResponses(events),
		Total:  len(events),
	})
}

func eventResponse(ev *models.AttendanceEvent) *dto.AttendanceEventResponse {
	if ev == nil {
		return nil
	}
	return &dto.AttendanceEventResponse{
		ID:         ev.ID,
		StudentKey: ev.StudentKey,
		WindowKey:  ev.WindowKey,
		MarkedAt:   ev.MarkedAt.Format(time.RFC3339),
	}
}

func eventResponses(events []models.AttendanceEvent) []dto.AttendanceEventResponse {
	out := make([]dto.AttendanceEventResponse, 0, len(events))
	for i := range events {
		out = append(out, *eventResponse(&events[i]))
	}
	return out
}
