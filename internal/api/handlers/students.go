package handlers

import (
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/attend/internal/models"
	"github.com/your-org/attend/internal/recognition"
	"github.com/your-org/attend/internal/storage"
	"github.com/your-org/attend/pkg/dto"
)

type StudentHandler struct {
	coord  *recognition.Coordinator
	roster recognition.Roster
	photos *storage.MinIOStore
}

func NewStudentHandler(coord *recognition.Coordinator, roster recognition.Roster, photos *storage.MinIOStore) *StudentHandler {
	return &StudentHandler{coord: coord, roster: roster, photos: photos}
}

// Enroll registers a new student with a face embedding and an optional
// enrollment photo.
func (h *StudentHandler) Enroll(c *gin.Context) {
	var req dto.EnrollStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var photoKey string
	if req.Photo != "" {
		if h.photos == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "photo storage not configured"})
			return
		}
		data, contentType, err := decodePhoto(req.Photo)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid photo encoding"})
			return
		}
		photoKey = "photos/" + strings.TrimSpace(req.RegisterNumber)
		if err := h.photos.PutPhoto(c.Request.Context(), photoKey, data, contentType); err != nil {
			writeError(c, err)
			return
		}
	}

	student, err := h.coord.Enroll(c.Request.Context(), req.RegisterNumber, req.Name, req.Embedding, photoKey)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, studentResponse(student))
}

func (h *StudentHandler) List(c *gin.Context) {
	students, err := h.roster.ListStudents(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]dto.StudentResponse, 0, len(students))
	for i := range students {
		resp = append(resp, studentResponse(&students[i]))
	}

	c.JSON(http.StatusOK, gin.H{"students": resp, "total": len(resp)})
}

func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.roster.GetStudent(c.Request.Context(), c.Param("key"))
	if err != nil {
		writeError(c, err)
		return
	}
	if student == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
		return
	}

	c.JSON(http.StatusOK, studentResponse(student))
}

// Photo streams the enrollment photo from object storage.
func (h *StudentHandler) Photo(c *gin.Context) {
	student, err := h.roster.GetStudent(c.Request.Context(), c.Param("key"))
	if err != nil {
		writeError(c, err)
		return
	}
	if student == nil || student.PhotoKey == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "photo not found"})
		return
	}

	data, err := h.photos.GetPhoto(c.Request.Context(), student.PhotoKey)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Data(http.StatusOK, http.DetectContentType(data), data)
}

func studentResponse(s *models.Student) dto.StudentResponse {
	resp := dto.StudentResponse{
		ID:             s.ID,
		RegisterNumber: s.RegisterNumber,
		Name:           s.Name,
		CreatedAt:      s.CreatedAt.Format(time.RFC3339),
	}
	if s.PhotoKey != "" {
		resp.PhotoURL = "/v1/students/" + s.RegisterNumber + "/photo"
	}
	return resp
}

// decodePhoto accepts either a raw base64 string or a browser data URL
// ("data:image/jpeg;base64,...").
func decodePhoto(photo string) ([]byte, string, error) {
	contentType := "image/jpeg"
	if strings.HasPrefix(photo, "data:") {
		rest := strings.TrimPrefix(photo, "data:")
		meta, b64, ok := strings.Cut(rest, ",")
		if !ok {
			return nil, "", base64.CorruptInputError(0)
		}
		if mt, _, _ := strings.Cut(meta, ";"); mt != "" {
			contentType = mt
		}
		photo = b64
	}
	data, err := base64.StdEncoding.DecodeString(photo)
	if err != nil {
		return nil, "", err
	}
	return data, contentType, nil
}
