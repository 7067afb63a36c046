package recognition

import "errors"

// Sentinel errors for the enrollment and recognition flows. Callers match
// with errors.Is; storage backends wrap their driver errors into these.
var (
	ErrDuplicateKey     = errors.New("register number already enrolled")
	ErrEmptyField       = errors.New("required field is empty")
	ErrInvalidEmbedding = errors.New("embedding dimension mismatch")
	ErrUnknownStudent   = errors.New("student not enrolled")
	ErrNoFaceDetected   = errors.New("no face detected")
	ErrTimeout          = errors.New("recognition timed out")
	ErrUnavailable      = errors.New("storage unavailable")
)
