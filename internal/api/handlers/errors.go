package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/attend/internal/recognition"
)

// writeError maps recognition sentinels onto HTTP statuses. Anything
// unrecognized is treated as a storage-layer failure the client may
// retry.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, recognition.ErrEmptyField),
		errors.Is(err, recognition.ErrInvalidEmbedding):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, recognition.ErrNoFaceDetected):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, recognition.ErrDuplicateKey):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, recognition.ErrUnknownStudent):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, recognition.ErrTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	}
}
