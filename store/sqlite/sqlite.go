/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Persists calendars, allocations and their day assignments. In production,
  the same patterns apply to PostgreSQL - only minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  allocation.Store:          Allocations and day assignments
  allocation.CalendarSource: Calendar lookup for the allocation service

WRITE ATOMICITY:
  An allocation and its day assignments are written in one transaction.
  SaveAllocation replaces all assignments; AppendAssignments only adds.
  A day appears at most once per (allocation, resource).

KEY TABLES:
  calendars:           Weekly capacity pattern (weekly_json, seconds per weekday)
  calendar_exceptions: Per-date overrides, optionally recurring every year
  allocations:         Request parameters plus the computed finish
  day_assignments:     One row per (allocation, resource, date)

STORAGE FORMATS:
  Dates:        TEXT "2006-01-02"
  Durations:    INTEGER seconds
  Rates:        TEXT decimal ("1.50")
  Timestamps:   TEXT RFC3339

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/capacity.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := allocation.NewService(store, store)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - allocation/store.go: Interface definitions
  - allocation/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/capacity-engine/allocation"
	"github.com/warp/capacity-engine/calendar"
	"github.com/warp/capacity-engine/resources"
	"github.com/warp/capacity-engine/workday"
)

// ErrDuplicateDay is returned when an assignment for the same allocation,
// resource and date already exists.
var ErrDuplicateDay = errors.New("day already assigned")

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Calendars
	CREATE TABLE IF NOT EXISTS calendars (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		weekly_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS calendar_exceptions (
		id TEXT PRIMARY KEY,
		calendar_id TEXT NOT NULL REFERENCES calendars(id) ON DELETE CASCADE,
		date TEXT NOT NULL,
		name TEXT,
		capacity_seconds INTEGER NOT NULL,
		recurring INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_calendar_exceptions_calendar
		ON calendar_exceptions(calendar_id, date);

	-- Allocations
	CREATE TABLE IF NOT EXISTS allocations (
		id TEXT PRIMARY KEY,
		task_id TEXT,
		resource_id TEXT NOT NULL,
		calendar_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		start_seconds INTEGER NOT NULL,
		end_date TEXT,
		end_seconds INTEGER,
		effort_seconds INTEGER NOT NULL,
		resources_per_day TEXT NOT NULL,
		finish_date TEXT NOT NULL,
		finish_seconds INTEGER NOT NULL,
		assigned_seconds INTEGER NOT NULL,
		satisfied INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Open-ended lookups for the horizon scheduler
	CREATE INDEX IF NOT EXISTS idx_allocations_open_ended
		ON allocations(effort_seconds, end_date);

	-- Day assignments
	CREATE TABLE IF NOT EXISTS day_assignments (
		id TEXT PRIMARY KEY,
		allocation_id TEXT NOT NULL REFERENCES allocations(id) ON DELETE CASCADE,
		resource_id TEXT NOT NULL,
		date TEXT NOT NULL,
		duration_seconds INTEGER NOT NULL
	);

	-- CRITICAL: one assignment per allocation, resource and day
	CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_day_assignment
		ON day_assignments(allocation_id, resource_id, date);

	-- Resource load queries (hot path)
	CREATE INDEX IF NOT EXISTS idx_day_assignments_resource_date
		ON day_assignments(resource_id, date);
	`

	_, err := s.db.Exec(schema)
	return err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// CALENDAR STORE (allocation.CalendarSource)
// =============================================================================

// SaveCalendar upserts the calendar and replaces its exceptions.
func (s *Store) SaveCalendar(ctx context.Context, c *calendar.Calendar) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	weekly := make([]int, len(c.Weekly))
	for i, d := range c.Weekly {
		weekly[i] = d.Seconds()
	}
	weeklyJSON, err := json.Marshal(weekly)
	if err != nil {
		return err
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = sqlTx.ExecContext(ctx, `
		INSERT INTO calendars (id, name, weekly_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			weekly_json = excluded.weekly_json,
			updated_at = excluded.updated_at
	`, c.ID, c.Name, string(weeklyJSON), now, now)
	if err != nil {
		return fmt.Errorf("failed to save calendar: %w", err)
	}

	if _, err := sqlTx.ExecContext(ctx, "DELETE FROM calendar_exceptions WHERE calendar_id = ?", c.ID); err != nil {
		return err
	}
	for _, e := range c.Exceptions() {
		_, err := sqlTx.ExecContext(ctx, `
			INSERT INTO calendar_exceptions (id, calendar_id, date, name, capacity_seconds, recurring)
			VALUES (?, ?, ?, ?, ?, ?)
		`, e.ID, c.ID, e.Date.String(), e.Name, e.Capacity.Seconds(), e.Recurring)
		if err != nil {
			return fmt.Errorf("failed to save exception %s: %w", e.ID, err)
		}
	}

	return sqlTx.Commit()
}

// GetCalendar returns an *allocation.NotFoundError for unknown IDs.
func (s *Store) GetCalendar(ctx context.Context, id string) (*calendar.Calendar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.loadCalendar(ctx, id)
}

func (s *Store) loadCalendar(ctx context.Context, id string) (*calendar.Calendar, error) {
	var name, weeklyJSON string
	err := s.db.QueryRowContext(ctx,
		"SELECT name, weekly_json FROM calendars WHERE id = ?", id,
	).Scan(&name, &weeklyJSON)
	if err == sql.ErrNoRows {
		return nil, &allocation.NotFoundError{Kind: "calendar", ID: id}
	}
	if err != nil {
		return nil, err
	}

	var seconds []int
	if err := json.Unmarshal([]byte(weeklyJSON), &seconds); err != nil {
		return nil, fmt.Errorf("calendar %s: corrupt weekly pattern: %w", id, err)
	}
	var weekly [7]workday.EffortDuration
	for i := 0; i < len(weekly) && i < len(seconds); i++ {
		weekly[i] = workday.Seconds(seconds[i])
	}
	c := calendar.New(id, name, weekly)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, name, capacity_seconds, recurring
		FROM calendar_exceptions
		WHERE calendar_id = ?
		ORDER BY date ASC
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var e calendar.Exception
		var date string
		var exName sql.NullString
		var capacity int
		if err := rows.Scan(&e.ID, &date, &exName, &capacity, &e.Recurring); err != nil {
			return nil, err
		}
		if e.Date, err = workday.ParseDate(date); err != nil {
			return nil, err
		}
		e.Name = exName.String
		e.Capacity = workday.Seconds(capacity)
		if err := c.AddException(e); err != nil {
			return nil, err
		}
	}
	return c, rows.Err()
}

// ListCalendars returns all calendars ordered by name.
func (s *Store) ListCalendars(ctx context.Context) ([]*calendar.Calendar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id FROM calendars ORDER BY name, id")
	if err != nil {
		return nil, err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	calendars := make([]*calendar.Calendar, 0, len(ids))
	for _, id := range ids {
		c, err := s.loadCalendar(ctx, id)
		if err != nil {
			return nil, err
		}
		calendars = append(calendars, c)
	}
	return calendars, nil
}

// DeleteCalendar removes a calendar and its exceptions.
func (s *Store) DeleteCalendar(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM calendars WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res, "calendar", id)
}

// =============================================================================
// ALLOCATION STORE (allocation.Store)
// =============================================================================

const allocationColumns = `
	id, task_id, resource_id, calendar_id, start_date, start_seconds, end_date, end_seconds,
	effort_seconds, resources_per_day, finish_date, finish_seconds, assigned_seconds, satisfied,
	created_at, updated_at`

// SaveAllocation upserts the allocation and replaces its assignments.
func (s *Store) SaveAllocation(ctx context.Context, a allocation.Allocation, assignments []allocation.DayAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := upsertAllocation(ctx, sqlTx, a); err != nil {
		return err
	}
	if _, err := sqlTx.ExecContext(ctx, "DELETE FROM day_assignments WHERE allocation_id = ?", a.ID); err != nil {
		return err
	}
	if err := insertAssignments(ctx, sqlTx, assignments); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// AppendAssignments adds assignments and updates the computed fields.
func (s *Store) AppendAssignments(ctx context.Context, a allocation.Allocation, assignments []allocation.DayAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	res, err := sqlTx.ExecContext(ctx, `
		UPDATE allocations
		SET finish_date = ?, finish_seconds = ?, assigned_seconds = ?, satisfied = ?, updated_at = ?
		WHERE id = ?
	`, a.Finish.Date().String(), a.Finish.EffortDuration().Seconds(), a.Assigned.Seconds(),
		a.Satisfied, formatTime(a.UpdatedAt), a.ID)
	if err != nil {
		return fmt.Errorf("failed to update allocation: %w", err)
	}
	if err := requireAffected(res, "allocation", a.ID); err != nil {
		return err
	}
	if err := insertAssignments(ctx, sqlTx, assignments); err != nil {
		return err
	}

	return sqlTx.Commit()
}

func upsertAllocation(ctx context.Context, db execer, a allocation.Allocation) error {
	var endDate sql.NullString
	var endSeconds sql.NullInt64
	if a.End != nil {
		endDate = nullString(a.End.Date().String())
		endSeconds = sql.NullInt64{Int64: int64(a.End.EffortDuration().Seconds()), Valid: true}
	}

	query := `
		INSERT INTO allocations (` + allocationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			task_id = excluded.task_id,
			resource_id = excluded.resource_id,
			calendar_id = excluded.calendar_id,
			start_date = excluded.start_date,
			start_seconds = excluded.start_seconds,
			end_date = excluded.end_date,
			end_seconds = excluded.end_seconds,
			effort_seconds = excluded.effort_seconds,
			resources_per_day = excluded.resources_per_day,
			finish_date = excluded.finish_date,
			finish_seconds = excluded.finish_seconds,
			assigned_seconds = excluded.assigned_seconds,
			satisfied = excluded.satisfied,
			updated_at = excluded.updated_at
	`
	_, err := db.ExecContext(ctx, query,
		a.ID,
		nullString(a.TaskID),
		a.ResourceID,
		a.CalendarID,
		a.Start.Date().String(),
		a.Start.EffortDuration().Seconds(),
		endDate,
		endSeconds,
		a.Effort.Seconds(),
		a.ResourcesPerDay.String(),
		a.Finish.Date().String(),
		a.Finish.EffortDuration().Seconds(),
		a.Assigned.Seconds(),
		a.Satisfied,
		formatTime(a.CreatedAt),
		formatTime(a.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save allocation: %w", err)
	}
	return nil
}

func insertAssignments(ctx context.Context, db execer, assignments []allocation.DayAssignment) error {
	for _, as := range assignments {
		_, err := db.ExecContext(ctx, `
			INSERT INTO day_assignments (id, allocation_id, resource_id, date, duration_seconds)
			VALUES (?, ?, ?, ?, ?)
		`, as.ID, as.AllocationID, as.ResourceID, as.Date.String(), as.Duration.Seconds())
		if err != nil {
			if isUniqueConstraintError(err) {
				return fmt.Errorf("%w: %s on %s", ErrDuplicateDay, as.ResourceID, as.Date)
			}
			return fmt.Errorf("failed to save assignment: %w", err)
		}
	}
	return nil
}

// GetAllocation returns an *allocation.NotFoundError for unknown IDs.
func (s *Store) GetAllocation(ctx context.Context, id string) (allocation.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+allocationColumns+" FROM allocations WHERE id = ?", id)
	a, err := scanAllocation(row)
	if err == sql.ErrNoRows {
		return allocation.Allocation{}, &allocation.NotFoundError{Kind: "allocation", ID: id}
	}
	return a, err
}

// ListAllocations returns all allocations, oldest first.
func (s *Store) ListAllocations(ctx context.Context) ([]allocation.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryAllocations(ctx, "SELECT "+allocationColumns+" FROM allocations ORDER BY created_at, id")
}

// ListOpenEnded returns allocations with neither an effort target nor an end.
func (s *Store) ListOpenEnded(ctx context.Context) ([]allocation.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryAllocations(ctx, "SELECT "+allocationColumns+` FROM allocations
		WHERE effort_seconds = 0 AND end_date IS NULL
		ORDER BY created_at, id`)
}

func (s *Store) queryAllocations(ctx context.Context, query string, args ...any) ([]allocation.Allocation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var allocations []allocation.Allocation
	for rows.Next() {
		a, err := scanAllocation(rows)
		if err != nil {
			return nil, err
		}
		allocations = append(allocations, a)
	}
	return allocations, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAllocation(row scanner) (allocation.Allocation, error) {
	var a allocation.Allocation
	var taskID, endDate sql.NullString
	var endSeconds sql.NullInt64
	var startDate, finishDate, rpd, createdAt, updatedAt string
	var startSeconds, effortSeconds, finishSeconds, assignedSeconds int

	err := row.Scan(&a.ID, &taskID, &a.ResourceID, &a.CalendarID, &startDate, &startSeconds,
		&endDate, &endSeconds, &effortSeconds, &rpd, &finishDate, &finishSeconds,
		&assignedSeconds, &a.Satisfied, &createdAt, &updatedAt)
	if err != nil {
		return a, err
	}

	a.TaskID = taskID.String
	if a.Start, err = parseIntraDay(startDate, startSeconds); err != nil {
		return a, err
	}
	if endDate.Valid {
		end, err := parseIntraDay(endDate.String, int(endSeconds.Int64))
		if err != nil {
			return a, err
		}
		a.End = &end
	}
	if a.Finish, err = parseIntraDay(finishDate, finishSeconds); err != nil {
		return a, err
	}
	if a.ResourcesPerDay, err = resources.Parse(rpd); err != nil {
		return a, err
	}
	a.Effort = workday.Seconds(effortSeconds)
	a.Assigned = workday.Seconds(assignedSeconds)
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	a.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return a, nil
}

// Assignments returns an allocation's assignments ordered by date.
func (s *Store) Assignments(ctx context.Context, allocationID string) ([]allocation.DayAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryAssignments(ctx, `
		SELECT id, allocation_id, resource_id, date, duration_seconds
		FROM day_assignments
		WHERE allocation_id = ?
		ORDER BY date ASC, rowid ASC
	`, allocationID)
}

// AssignmentsForResource returns a resource's assignments in [from, to]
// across all allocations.
func (s *Store) AssignmentsForResource(ctx context.Context, resourceID string, from, to workday.Date) ([]allocation.DayAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryAssignments(ctx, `
		SELECT id, allocation_id, resource_id, date, duration_seconds
		FROM day_assignments
		WHERE resource_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC, rowid ASC
	`, resourceID, from.String(), to.String())
}

func (s *Store) queryAssignments(ctx context.Context, query string, args ...any) ([]allocation.DayAssignment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []allocation.DayAssignment
	for rows.Next() {
		var as allocation.DayAssignment
		var date string
		var seconds int
		if err := rows.Scan(&as.ID, &as.AllocationID, &as.ResourceID, &date, &seconds); err != nil {
			return nil, err
		}
		if as.Date, err = workday.ParseDate(date); err != nil {
			return nil, err
		}
		as.Duration = workday.Seconds(seconds)
		assignments = append(assignments, as)
	}
	return assignments, rows.Err()
}

// DeleteAllocation removes an allocation and its assignments.
func (s *Store) DeleteAllocation(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM allocations WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res, "allocation", id)
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"day_assignments", "allocations", "calendar_exceptions", "calendars"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func requireAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &allocation.NotFoundError{Kind: kind, ID: id}
	}
	return nil
}

func parseIntraDay(date string, seconds int) (workday.IntraDayDate, error) {
	d, err := workday.ParseDate(date)
	if err != nil {
		return workday.IntraDayDate{}, err
	}
	return workday.NewIntraDayDate(d, workday.Seconds(seconds))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
