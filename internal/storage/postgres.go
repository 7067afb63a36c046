package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/your-org/attend/internal/config"
	"github.com/your-org/attend/internal/models"
	"github.com/your-org/attend/internal/recognition"
)

type PostgresStore struct {
	pool *pgxpool.Pool
	dim  int
}

func NewPostgresStore(cfg config.DatabaseConfig, dim int) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{pool: pool, dim: dim}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// EnsureSchema creates the tables on startup. The unique indexes are the
// enforcement of the enrollment and per-window dedup invariants.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS students (
			id UUID PRIMARY KEY,
			register_number TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			photo_key TEXT NOT NULL DEFAULT '',
			embedding vector(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, s.dim),
		`CREATE TABLE IF NOT EXISTS attendance_events (
			id UUID PRIMARY KEY,
			student_key TEXT NOT NULL REFERENCES students(register_number),
			window_key TEXT NOT NULL,
			marked_at TIMESTAMPTZ NOT NULL,
			UNIQUE (student_key, window_key)
		)`,
		`CREATE INDEX IF NOT EXISTS attendance_events_window_idx ON attendance_events (window_key)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// --- Students ---

// EnrollStudent inserts st with a conditional insert, so the duplicate
// check and the write are one atomic statement.
func (s *PostgresStore) EnrollStudent(ctx context.Context, st *models.Student) error {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO students (id, register_number, name, photo_key, embedding, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (register_number) DO NOTHING`,
		st.ID, st.RegisterNumber, st.Name, st.PhotoKey, pgvector.NewVector(st.Embedding), st.CreatedAt)
	if err != nil {
		return fmt.Errorf("enroll student: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", recognition.ErrDuplicateKey, st.RegisterNumber)
	}
	return nil
}

func (s *PostgresStore) ListStudents(ctx context.Context) ([]models.Student, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, register_number, name, photo_key, embedding, created_at
		 FROM students ORDER BY created_at, register_number`)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	var students []models.Student
	for rows.Next() {
		var st models.Student
		var emb pgvector.Vector
		if err := rows.Scan(&st.ID, &st.RegisterNumber, &st.Name, &st.PhotoKey, &emb, &st.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		st.Embedding = emb.Slice()
		students = append(students, st)
	}
	return students, rows.Err()
}

func (s *PostgresStore) GetStudent(ctx context.Context, registerNumber string) (*models.Student, error) {
	var st models.Student
	var emb pgvector.Vector
	err := s.pool.QueryRow(ctx,
		`SELECT id, register_number, name, photo_key, embedding, created_at
		 FROM students WHERE register_number = $1`, registerNumber,
	).Scan(&st.ID, &st.RegisterNumber, &st.Name, &st.PhotoKey, &emb, &st.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get student: %w", err)
	}
	st.Embedding = emb.Slice()
	return &st, nil
}

func (s *PostgresStore) StudentExists(ctx context.Context, registerNumber string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM students WHERE register_number = $1)`, registerNumber,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("student exists: %w", err)
	}
	return exists, nil
}

// NearestStudent returns the single closest student by L2 distance using
// the pgvector <-> operator. Equidistant rows resolve by enrollment
// order so repeated queries stay reproducible.
func (s *PostgresStore) NearestStudent(ctx context.Context, query []float32) (*models.Student, float64, error) {
	vec := pgvector.NewVector(query)
	var st models.Student
	var emb pgvector.Vector
	var dist float64
	err := s.pool.QueryRow(ctx,
		`SELECT id, register_number, name, photo_key, embedding, created_at, embedding <-> $1 AS dist
		 FROM students ORDER BY dist, created_at, register_number LIMIT 1`, vec,
	).Scan(&st.ID, &st.RegisterNumber, &st.Name, &st.PhotoKey, &emb, &st.CreatedAt, &dist)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("nearest student: %w", err)
	}
	st.Embedding = emb.Slice()
	return &st, dist, nil
}

// --- Attendance ---

// RecordIfAbsent is a single conditional insert; the unique index on
// (student_key, window_key) makes concurrent duplicates impossible. A
// losing writer reads back the event the winner created.
func (s *PostgresStore) RecordIfAbsent(ctx context.Context, studentKey, windowKey string, at time.Time) (*models.AttendanceEvent, bool, error) {
	ev := &models.AttendanceEvent{
		ID:         uuid.New(),
		StudentKey: studentKey,
		WindowKey:  windowKey,
		MarkedAt:   at,
	}

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO attendance_events (id, student_key, window_key, marked_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (student_key, window_key) DO NOTHING`,
		ev.ID, ev.StudentKey, ev.WindowKey, ev.MarkedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, false, fmt.Errorf("%w: %s", recognition.ErrUnknownStudent, studentKey)
		}
		return nil, false, fmt.Errorf("record attendance: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return ev, true, nil
	}

	existing := &models.AttendanceEvent{}
	err = s.pool.QueryRow(ctx,
		`SELECT id, student_key, window_key, marked_at
		 FROM attendance_events WHERE student_key = $1 AND window_key = $2`,
		studentKey, windowKey,
	).Scan(&existing.ID, &existing.StudentKey, &existing.WindowKey, &existing.MarkedAt)
	if err != nil {
		return nil, false, fmt.Errorf("load existing attendance: %w", err)
	}
	return existing, false, nil
}

func (s *PostgresStore) ListForStudent(ctx context.Context, studentKey string) ([]models.AttendanceEvent, error) {
	return s.listEvents(ctx,
		`SELECT id, student_key, window_key, marked_at
		 FROM attendance_events WHERE student_key = $1 ORDER BY marked_at`, studentKey)
}

func (s *PostgresStore) ListWindow(ctx context.Context, windowKey string) ([]models.AttendanceEvent, error) {
	return s.listEvents(ctx,
		`SELECT id, student_key, window_key, marked_at
		 FROM attendance_events WHERE window_key = $1 ORDER BY marked_at`, windowKey)
}

func (s *PostgresStore) listEvents(ctx context.Context, query string, arg any) ([]models.AttendanceEvent, error) {
	rows, err := s.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	defer rows.Close()

	var events []models.AttendanceEvent
	for rows.Next() {
		var ev models.AttendanceEvent
		if err := rows.Scan(&ev.ID, &ev.StudentKey, &ev.WindowKey, &ev.MarkedAt); err != nil {
			return nil, fmt.Errorf("scan attendance event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
