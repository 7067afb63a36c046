package recognition

import (
	"context"
	"fmt"
	"sync"

	"github.com/coder/hnsw"

	"github.com/your-org/attend/internal/models"
)

const hnswMaxNeighbors = 16

// searchK is how many approximate neighbors to pull before re-ranking
// with exact distances. Small rosters get fully covered anyway.
const searchK = 8

// HNSWMatcher keeps an in-process approximate nearest-neighbor graph
// over all enrolled embeddings. Candidates returned by the graph are
// re-ranked with exact Euclidean distances, so the threshold decision is
// exact; only the candidate set is approximate. ObserveEnroll must be
// called under the enrollment write path to keep the graph in sync.
type HNSWMatcher struct {
	mu       sync.RWMutex
	graph    *hnsw.Graph[string]
	students map[string]models.Student
	order    map[string]int // enrollment sequence, for deterministic ties
	seq      int
	dim      int
}

// NewHNSWMatcher builds the graph from the current roster snapshot.
func NewHNSWMatcher(ctx context.Context, roster Roster, dim int) (*HNSWMatcher, error) {
	students, err := roster.ListStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("seed hnsw index: %w", err)
	}

	g := hnsw.NewGraph[string]()
	g.M = hnswMaxNeighbors
	g.Ml = 1.0 / float64(hnswMaxNeighbors)
	g.Distance = hnsw.EuclideanDistance

	m := &HNSWMatcher{
		graph:    g,
		students: make(map[string]models.Student, len(students)),
		order:    make(map[string]int, len(students)),
		dim:      dim,
	}
	for _, s := range students {
		m.insert(s)
	}
	return m, nil
}

func (m *HNSWMatcher) insert(s models.Student) {
	m.graph.Add(hnsw.MakeNode(s.RegisterNumber, s.Embedding))
	m.students[s.RegisterNumber] = s
	m.order[s.RegisterNumber] = m.seq
	m.seq++
}

// ObserveEnroll adds a newly enrolled student to the graph.
func (m *HNSWMatcher) ObserveEnroll(s models.Student) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insert(s)
}

func (m *HNSWMatcher) Match(ctx context.Context, query []float32, threshold float64) (*Match, error) {
	if len(query) != m.dim {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidEmbedding, len(query), m.dim)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.students) == 0 {
		return nil, nil
	}

	neighbors := m.graph.Search(query, searchK)

	var best *Match
	bestOrder := 0
	for _, n := range neighbors {
		s, ok := m.students[n.Key]
		if !ok {
			continue
		}
		d := EuclideanDistance(query, s.Embedding)
		if best == nil || d < best.Distance ||
			(d == best.Distance && m.order[n.Key] < bestOrder) {
			best = &Match{Student: s, Distance: d}
			bestOrder = m.order[n.Key]
		}
	}

	if best == nil || best.Distance >= threshold {
		return nil, nil
	}
	return best, nil
}
