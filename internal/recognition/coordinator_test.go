package recognition_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/your-org/attend/internal/recognition"
	"github.com/your-org/attend/internal/storage"
)

func newCoordinator(t *testing.T, now func() time.Time) (*recognition.Coordinator, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	matcher := recognition.NewBruteMatcher(store, testDim)
	coord := recognition.NewCoordinator(store, store, matcher, recognition.CoordinatorConfig{
		Dim:       testDim,
		Threshold: 0.5,
		Timeout:   5 * time.Second,
		Windows:   recognition.WindowPolicy{Mode: recognition.WindowDaily, Location: time.UTC},
		Now:       now,
	})
	return coord, store
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestEnrollValidation(t *testing.T) {
	coord, _ := newCoordinator(t, nil)
	ctx := context.Background()

	_, err := coord.Enroll(ctx, "", "Alice", embedding(), "")
	require.ErrorIs(t, err, recognition.ErrEmptyField)

	_, err = coord.Enroll(ctx, "S1", "  ", embedding(), "")
	require.ErrorIs(t, err, recognition.ErrEmptyField)

	_, err = coord.Enroll(ctx, "S1", "Alice", make([]float32, 64), "")
	require.ErrorIs(t, err, recognition.ErrInvalidEmbedding)
}

func TestEnrollDuplicateKey(t *testing.T) {
	coord, _ := newCoordinator(t, nil)
	ctx := context.Background()

	_, err := coord.Enroll(ctx, "S1", "Alice", embedding(), "")
	require.NoError(t, err)

	_, err = coord.Enroll(ctx, "S1", "Alice again", embedding(1), "")
	require.ErrorIs(t, err, recognition.ErrDuplicateKey)
}

func TestEnrollConcurrentSameKey(t *testing.T) {
	coord, _ := newCoordinator(t, nil)
	ctx := context.Background()

	const n = 32
	var wg sync.WaitGroup
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = coord.Enroll(ctx, "S1", "Alice", embedding(), "")
		}(i)
	}
	wg.Wait()

	var succeeded, duplicates int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		default:
			require.ErrorIs(t, err, recognition.ErrDuplicateKey)
			duplicates++
		}
	}
	require.Equal(t, 1, succeeded)
	require.Equal(t, n-1, duplicates)
}

func TestRecognizeMarksThenDedupes(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	coord, _ := newCoordinator(t, fixedClock(at))
	ctx := context.Background()

	_, err := coord.Enroll(ctx, "S1", "Alice", embedding(), "")
	require.NoError(t, err)

	// All-zeros query matches S1 at distance 0.
	first, err := coord.Recognize(ctx, embedding())
	require.NoError(t, err)
	require.Equal(t, recognition.StatusMarked, first.Status)
	require.Equal(t, "S1", first.Student.RegisterNumber)
	require.Zero(t, first.Distance)
	require.Equal(t, "2026-03-14", first.WindowKey)

	// The immediate repeat within the same window is idempotent and
	// references the same event.
	second, err := coord.Recognize(ctx, embedding())
	require.NoError(t, err)
	require.Equal(t, recognition.StatusAlreadyMarked, second.Status)
	require.Equal(t, first.Event.ID, second.Event.ID)
}

func TestRecognizeNoMatchWritesNothing(t *testing.T) {
	coord, store := newCoordinator(t, nil)
	ctx := context.Background()

	_, err := coord.Enroll(ctx, "S1", "Alice", embedding(), "")
	require.NoError(t, err)

	// Query at distance 0.6 with threshold 0.5.
	result, err := coord.Recognize(ctx, embedding(0.6))
	require.NoError(t, err)
	require.Equal(t, recognition.StatusNoMatch, result.Status)
	require.Nil(t, result.Student)
	require.Nil(t, result.Event)

	events, err := store.ListForStudent(ctx, "S1")
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestRecognizeNoFaceDetected(t *testing.T) {
	coord, _ := newCoordinator(t, nil)

	_, err := coord.Recognize(context.Background(), nil)
	require.ErrorIs(t, err, recognition.ErrNoFaceDetected)
}

func TestRecognizeEmptyRoster(t *testing.T) {
	coord, _ := newCoordinator(t, nil)

	result, err := coord.Recognize(context.Background(), embedding())
	require.NoError(t, err)
	require.Equal(t, recognition.StatusNoMatch, result.Status)
}

func TestRecognizeConcurrentSingleWindow(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	coord, store := newCoordinator(t, fixedClock(at))
	ctx := context.Background()

	_, err := coord.Enroll(ctx, "S1", "Alice", embedding(), "")
	require.NoError(t, err)

	const n = 64
	var wg sync.WaitGroup
	results := make([]*recognition.Result, n)
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = coord.Recognize(ctx, embedding())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	var marked int
	for _, r := range results {
		if r.Status == recognition.StatusMarked {
			marked++
		} else {
			require.Equal(t, recognition.StatusAlreadyMarked, r.Status)
		}
		require.Equal(t, results[0].Event.ID, r.Event.ID)
	}
	require.Equal(t, 1, marked, "exactly one request may create the event")

	events, err := store.ListForStudent(ctx, "S1")
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestRecognizeNewWindowMarksAgain(t *testing.T) {
	day1 := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	clock := day1
	coord, store := newCoordinator(t, func() time.Time { return clock })
	ctx := context.Background()

	_, err := coord.Enroll(ctx, "S1", "Alice", embedding(), "")
	require.NoError(t, err)

	first, err := coord.Recognize(ctx, embedding())
	require.NoError(t, err)
	require.Equal(t, recognition.StatusMarked, first.Status)

	clock = day1.AddDate(0, 0, 1)

	second, err := coord.Recognize(ctx, embedding())
	require.NoError(t, err)
	require.Equal(t, recognition.StatusMarked, second.Status)
	require.NotEqual(t, first.Event.ID, second.Event.ID)

	events, err := store.ListForStudent(ctx, "S1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.True(t, !events[1].MarkedAt.Before(events[0].MarkedAt))
}

func TestAttendanceUnknownStudent(t *testing.T) {
	coord, _ := newCoordinator(t, nil)

	_, err := coord.Attendance(context.Background(), "missing")
	require.ErrorIs(t, err, recognition.ErrUnknownStudent)
}

func TestCurrentWindow(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	coord, _ := newCoordinator(t, fixedClock(at))
	ctx := context.Background()

	_, err := coord.Enroll(ctx, "S1", "Alice", embedding(), "")
	require.NoError(t, err)
	_, err = coord.Recognize(ctx, embedding())
	require.NoError(t, err)

	window, events, err := coord.CurrentWindow(ctx)
	require.NoError(t, err)
	require.Equal(t, "2026-03-14", window)
	require.Len(t, events, 1)
	require.Equal(t, "S1", events[0].StudentKey)
}
