package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SQLiteStore persists tasks in the shared SQLite database. The schema is
// owned by the storage package.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an open, migrated database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const taskColumns = `id, user_id, title, description, completed, created_at, updated_at`

// Insert persists a new task and sets its ID, CreatedAt, and UpdatedAt.
func (s *SQLiteStore) Insert(ctx context.Context, t *Task) error {
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (user_id, title, description, completed, created_at, updated_at)
		VALUES (?,?,?,?,?,?)`,
		t.UserID, t.Title, nullString(t.Description), t.Completed, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	t.ID = id
	return nil
}

// Get retrieves a task by ID.
func (s *SQLiteStore) Get(ctx context.Context, userID string, id int64) (*Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	return t, nil
}

// Update saves changes to an existing task, updating UpdatedAt automatically.
func (s *SQLiteStore) Update(ctx context.Context, t *Task) error {
	t.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET title=?, description=?, completed=?, updated_at=?
		WHERE id=? AND user_id=?`,
		t.Title, nullString(t.Description), t.Completed, t.UpdatedAt,
		t.ID, t.UserID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("task %d: %w", t.ID, ErrNotFound)
	}
	return nil
}

// List returns the user's tasks matching the filter, newest first.
func (s *SQLiteStore) List(ctx context.Context, userID string, filter Filter) ([]*Task, error) {
	q := strings.Builder{}
	q.WriteString(`SELECT ` + taskColumns + ` FROM tasks WHERE user_id = ?`)
	args := []any{userID}

	if filter.Completed != nil {
		q.WriteString(" AND completed=?")
		args = append(args, *filter.Completed)
	}
	q.WriteString(" ORDER BY created_at DESC, id DESC")
	if filter.Limit > 0 {
		q.WriteString(fmt.Sprintf(" LIMIT %d", filter.Limit))
		if filter.Offset > 0 {
			q.WriteString(fmt.Sprintf(" OFFSET %d", filter.Offset))
		}
	}

	rows, err := s.db.QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Delete removes a task by ID.
func (s *SQLiteStore) Delete(ctx context.Context, userID string, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id=? AND user_id=?", id, userID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	return nil
}

// scanner abstracts sql.Row and sql.Rows for scanTask.
type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (*Task, error) {
	var t Task
	var desc sql.NullString
	err := s.Scan(&t.ID, &t.UserID, &t.Title, &desc, &t.Completed, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if desc.Valid {
		t.Description = &desc.String
	}
	return &t, nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
