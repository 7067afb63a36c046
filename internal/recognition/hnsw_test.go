package recognition_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/your-org/attend/internal/recognition"
	"github.com/your-org/attend/internal/storage"
)

func TestHNSWMatcherEmptyRoster(t *testing.T) {
	store := storage.NewMemoryStore()
	m, err := recognition.NewHNSWMatcher(context.Background(), store, testDim)
	require.NoError(t, err)

	match, err := m.Match(context.Background(), embedding(), 0.5)
	require.NoError(t, err)
	require.Nil(t, match)
}

func TestHNSWMatcherAgreesWithBruteForce(t *testing.T) {
	store := storage.NewMemoryStore()
	for i := 0; i < 20; i++ {
		enroll(t, store, fmt.Sprintf("S%d", i), fmt.Sprintf("Student %d", i),
			embedding(float32(i), float32(i)*0.5))
	}

	hm, err := recognition.NewHNSWMatcher(context.Background(), store, testDim)
	require.NoError(t, err)
	bm := recognition.NewBruteMatcher(store, testDim)

	for i := 0; i < 20; i++ {
		query := embedding(float32(i)+0.1, float32(i)*0.5)

		want, err := bm.Match(context.Background(), query, 1.0)
		require.NoError(t, err)
		got, err := hm.Match(context.Background(), query, 1.0)
		require.NoError(t, err)

		require.NotNil(t, want)
		require.NotNil(t, got)
		require.Equal(t, want.Student.RegisterNumber, got.Student.RegisterNumber)
		require.InDelta(t, want.Distance, got.Distance, 1e-6)
	}
}

func TestHNSWMatcherObservesEnrollments(t *testing.T) {
	store := storage.NewMemoryStore()
	m, err := recognition.NewHNSWMatcher(context.Background(), store, testDim)
	require.NoError(t, err)

	enroll(t, store, "S1", "Alice", embedding(1))
	m.ObserveEnroll(mustGet(t, store, "S1"))

	match, err := m.Match(context.Background(), embedding(1.05), 0.5)
	require.NoError(t, err)
	require.NotNil(t, match)
	require.Equal(t, "S1", match.Student.RegisterNumber)
}

func TestHNSWMatcherThresholdIsStrict(t *testing.T) {
	store := storage.NewMemoryStore()
	enroll(t, store, "S1", "Alice", embedding())

	m, err := recognition.NewHNSWMatcher(context.Background(), store, testDim)
	require.NoError(t, err)

	match, err := m.Match(context.Background(), embedding(0.5), 0.5)
	require.NoError(t, err)
	require.Nil(t, match)

	match, err = m.Match(context.Background(), embedding(0.49), 0.5)
	require.NoError(t, err)
	require.NotNil(t, match)
}
