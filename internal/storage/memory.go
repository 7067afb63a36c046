package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/attend/internal/models"
	"github.com/your-org/attend/internal/recognition"
)

// MemoryStore keeps the roster and the attendance ledger in process
// memory. It backs unit tests and single-node deployments that don't
// need durability. All invariants match PostgresStore: atomic
// duplicate-key enrollment, at most one event per (student, window),
// snapshot reads.
type MemoryStore struct {
	mu       sync.RWMutex
	students []models.Student
	byKey    map[string]int
	events   []models.AttendanceEvent
	byPair   map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byKey:  make(map[string]int),
		byPair: make(map[string]int),
	}
}

func (m *MemoryStore) EnrollStudent(ctx context.Context, s *models.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byKey[s.RegisterNumber]; ok {
		return fmt.Errorf("%w: %s", recognition.ErrDuplicateKey, s.RegisterNumber)
	}
	m.byKey[s.RegisterNumber] = len(m.students)
	m.students = append(m.students, *s)
	return nil
}

// ListStudents returns a copy of the roster in enrollment order.
func (m *MemoryStore) ListStudents(ctx context.Context) ([]models.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Student, len(m.students))
	copy(out, m.students)
	return out, nil
}

func (m *MemoryStore) GetStudent(ctx context.Context, registerNumber string) (*models.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.byKey[registerNumber]
	if !ok {
		return nil, nil
	}
	s := m.students[i]
	return &s, nil
}

func (m *MemoryStore) StudentExists(ctx context.Context, registerNumber string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.byKey[registerNumber]
	return ok, nil
}

// NearestStudent does a full scan; it lets MemoryStore satisfy the same
// matcher seam as the pgvector-backed store.
func (m *MemoryStore) NearestStudent(ctx context.Context, query []float32) (*models.Student, float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var best *models.Student
	bestDist := 0.0
	for i := range m.students {
		d := recognition.EuclideanDistance(query, m.students[i].Embedding)
		if best == nil || d < bestDist {
			best = &m.students[i]
			bestDist = d
		}
	}
	if best == nil {
		return nil, 0, nil
	}
	s := *best
	return &s, bestDist, nil
}

func pairKey(studentKey, windowKey string) string {
	return windowKey + "\x00" + studentKey
}

func (m *MemoryStore) RecordIfAbsent(ctx context.Context, studentKey, windowKey string, at time.Time) (*models.AttendanceEvent, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byKey[studentKey]; !ok {
		return nil, false, fmt.Errorf("%w: %s", recognition.ErrUnknownStudent, studentKey)
	}

	pk := pairKey(studentKey, windowKey)
	if i, ok := m.byPair[pk]; ok {
		ev := m.events[i]
		return &ev, false, nil
	}

	ev := models.AttendanceEvent{
		ID:         uuid.New(),
		StudentKey: studentKey,
		WindowKey:  windowKey,
		MarkedAt:   at,
	}
	m.byPair[pk] = len(m.events)
	m.events = append(m.events, ev)
	return &ev, true, nil
}

func (m *MemoryStore) ListForStudent(ctx context.Context, studentKey string) ([]models.AttendanceEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.AttendanceEvent
	for _, ev := range m.events {
		if ev.StudentKey == studentKey {
			out = append(out, ev)
		}
	}
	// events are appended in creation order, which is MarkedAt order
	return out, nil
}

func (m *MemoryStore) ListWindow(ctx context.Context, windowKey string) ([]models.AttendanceEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.AttendanceEvent
	for _, ev := range m.events {
		if ev.WindowKey == windowKey {
			out = append(out, ev)
		}
	}
	return out, nil
}
