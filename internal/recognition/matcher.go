package recognition

import (
	"context"
	"fmt"

	"github.com/your-org/attend/internal/models"
)

// Roster is read/write access to the enrolled student set. Implemented by
// storage.MemoryStore and storage.PostgresStore.
type Roster interface {
	// EnrollStudent persists s. The duplicate-key check and the insert are
	// a single atomic unit; a losing concurrent enrollment gets ErrDuplicateKey.
	EnrollStudent(ctx context.Context, s *models.Student) error
	// ListStudents returns a snapshot of all students in enrollment order.
	ListStudents(ctx context.Context) ([]models.Student, error)
	GetStudent(ctx context.Context, registerNumber string) (*models.Student, error)
	StudentExists(ctx context.Context, registerNumber string) (bool, error)
}

// Match is a successful nearest-neighbor lookup below the threshold.
type Match struct {
	Student  models.Student
	Distance float64
}

// Matcher finds the enrolled student closest to a query embedding.
// Match returns nil when no student is strictly below threshold; an
// empty roster is not an error. Implementations are read-only.
type Matcher interface {
	Match(ctx context.Context, query []float32, threshold float64) (*Match, error)
}

// EnrollObserver is implemented by matchers that keep an in-process
// index; the coordinator notifies it after every successful enrollment.
type EnrollObserver interface {
	ObserveEnroll(s models.Student)
}

// BruteMatcher scans every enrolled student per query. O(n·d), exact,
// and deterministic: equidistant candidates resolve to the first one in
// enrollment order.
type BruteMatcher struct {
	roster Roster
	dim    int
}

func NewBruteMatcher(roster Roster, dim int) *BruteMatcher {
	return &BruteMatcher{roster: roster, dim: dim}
}

func (m *BruteMatcher) Match(ctx context.Context, query []float32, threshold float64) (*Match, error) {
	if len(query) != m.dim {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidEmbedding, len(query), m.dim)
	}

	students, err := m.roster.ListStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}

	var best *Match
	for i := range students {
		d := EuclideanDistance(query, students[i].Embedding)
		if best == nil || d < best.Distance {
			best = &Match{Student: students[i], Distance: d}
		}
	}

	if best == nil || best.Distance >= threshold {
		return nil, nil
	}
	return best, nil
}

// NearestReader is the pgvector-backed lookup: the database returns the
// single closest student and its exact L2 distance.
type NearestReader interface {
	NearestStudent(ctx context.Context, query []float32) (*models.Student, float64, error)
}

// StoreMatcher delegates the nearest-neighbor scan to the storage engine
// (pgvector `<->` ordering) and applies the threshold locally.
type StoreMatcher struct {
	store NearestReader
	dim   int
}

func NewStoreMatcher(store NearestReader, dim int) *StoreMatcher {
	return &StoreMatcher{store: store, dim: dim}
}

func (m *StoreMatcher) Match(ctx context.Context, query []float32, threshold float64) (*Match, error) {
	if len(query) != m.dim {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidEmbedding, len(query), m.dim)
	}

	student, dist, err := m.store.NearestStudent(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("nearest student: %w", err)
	}
	if student == nil || dist >= threshold {
		return nil, nil
	}
	return &Match{Student: *student, Distance: dist}, nil
}
