package recognition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/attend/internal/models"
	"github.com/your-org/attend/internal/observability"
)

// Ledger is the attendance event store. Implemented by
// storage.MemoryStore and storage.PostgresStore.
type Ledger interface {
	// RecordIfAbsent creates the event for (studentKey, windowKey) unless one
	// already exists. The check and the insert are a single atomic unit:
	// under concurrency exactly one caller gets created=true and every other
	// caller gets the same existing event with created=false.
	RecordIfAbsent(ctx context.Context, studentKey, windowKey string, at time.Time) (*models.AttendanceEvent, bool, error)
	// ListForStudent returns a student's events ordered by MarkedAt ascending.
	ListForStudent(ctx context.Context, studentKey string) ([]models.AttendanceEvent, error)
	// ListWindow returns every event recorded in the given window.
	ListWindow(ctx context.Context, windowKey string) ([]models.AttendanceEvent, error)
}

// Status is the terminal outcome of a recognition request. AlreadyMarked
// is not an error: it signals idempotent dedup within the window.
type Status string

const (
	StatusMarked        Status = "attendance_marked"
	StatusAlreadyMarked Status = "already_marked"
	StatusNoMatch       Status = "no_match"
)

// Result is the outcome of one recognition request. Student and Event
// are nil for StatusNoMatch.
type Result struct {
	Status    Status
	Student   *models.Student
	Event     *models.AttendanceEvent
	Distance  float64
	WindowKey string
}

// Coordinator orchestrates a recognition request: match the query
// embedding against the roster, apply the threshold, derive the
// admission window, and record attendance exactly once per window.
type Coordinator struct {
	roster    Roster
	ledger    Ledger
	matcher   Matcher
	windows   WindowPolicy
	dim       int
	threshold float64
	timeout   time.Duration
	now       func() time.Time
}

type CoordinatorConfig struct {
	Dim       int
	Threshold float64
	Timeout   time.Duration
	Windows   WindowPolicy
	// Now overrides the wall clock; nil means time.Now.
	Now func() time.Time
}

func NewCoordinator(roster Roster, ledger Ledger, matcher Matcher, cfg CoordinatorConfig) *Coordinator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Coordinator{
		roster:    roster,
		ledger:    ledger,
		matcher:   matcher,
		windows:   cfg.Windows,
		dim:       cfg.Dim,
		threshold: cfg.Threshold,
		timeout:   cfg.Timeout,
		now:       cfg.Now,
	}
}

// Enroll validates the submission and delegates to the roster, which
// owns the atomic duplicate-key check. The matcher's index, if any, is
// updated after the write succeeds.
func (c *Coordinator) Enroll(ctx context.Context, registerNumber, name string, embedding []float32, photoKey string) (*models.Student, error) {
	registerNumber = strings.TrimSpace(registerNumber)
	name = strings.TrimSpace(name)
	if registerNumber == "" || name == "" {
		return nil, fmt.Errorf("%w: register number and name are required", ErrEmptyField)
	}
	if len(embedding) != c.dim {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidEmbedding, len(embedding), c.dim)
	}

	s := &models.Student{
		ID:             uuid.New(),
		RegisterNumber: registerNumber,
		Name:           name,
		PhotoKey:       photoKey,
		Embedding:      embedding,
		CreatedAt:      c.now().UTC(),
	}
	if err := c.roster.EnrollStudent(ctx, s); err != nil {
		return nil, err
	}

	if obs, ok := c.matcher.(EnrollObserver); ok {
		obs.ObserveEnroll(*s)
	}

	observability.StudentsEnrolled.Inc()
	slog.Info("student enrolled", "register_number", s.RegisterNumber, "name", s.Name)
	return s, nil
}

// Recognize runs the full pipeline for one query embedding. An empty
// embedding means the upstream detector found no face. The whole request
// runs under a single deadline; a ledger write either happens entirely
// or not at all, so a timeout never leaves partial state.
func (c *Coordinator) Recognize(ctx context.Context, query []float32) (*Result, error) {
	if len(query) == 0 {
		return nil, ErrNoFaceDetected
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	match, err := c.matcher.Match(ctx, query, c.threshold)
	if err != nil {
		return nil, c.mapTimeout(ctx, err)
	}
	if match == nil {
		observability.Recognitions.WithLabelValues(string(StatusNoMatch)).Inc()
		return &Result{Status: StatusNoMatch}, nil
	}
	observability.MatchDistance.Observe(match.Distance)

	at := c.now().UTC()
	windowKey := c.windows.Key(at)

	event, created, err := c.ledger.RecordIfAbsent(ctx, match.Student.RegisterNumber, windowKey, at)
	if err != nil {
		return nil, c.mapTimeout(ctx, err)
	}

	status := StatusAlreadyMarked
	if created {
		status = StatusMarked
		slog.Info("attendance marked",
			"register_number", match.Student.RegisterNumber,
			"window", windowKey,
			"distance", match.Distance,
		)
	}
	observability.Recognitions.WithLabelValues(string(status)).Inc()

	student := match.Student
	return &Result{
		Status:    status,
		Student:   &student,
		Event:     event,
		Distance:  match.Distance,
		WindowKey: windowKey,
	}, nil
}

// Attendance returns a student's full event history.
func (c *Coordinator) Attendance(ctx context.Context, registerNumber string) ([]models.AttendanceEvent, error) {
	ok, err := c.roster.StudentExists(ctx, registerNumber)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStudent, registerNumber)
	}
	return c.ledger.ListForStudent(ctx, registerNumber)
}

// CurrentWindow returns the active window key and its recorded events.
func (c *Coordinator) CurrentWindow(ctx context.Context) (string, []models.AttendanceEvent, error) {
	key := c.windows.Key(c.now())
	events, err := c.ledger.ListWindow(ctx, key)
	return key, events, err
}

func (c *Coordinator) mapTimeout(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}
