package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xvierd/focus-cli/internal/domain"
	"github.com/xvierd/focus-cli/internal/ports"
)

// CreateOrUpdateUserProfile returns the stored profile, creating it with
// defaultName on first use. An existing name is never overwritten.
func (s *Store) CreateOrUpdateUserProfile(ctx context.Context, userID, defaultName string) (*ports.UserProfile, error) {
	now := time.Now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_profiles (user_id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET updated_at = excluded.updated_at
	`, userID, defaultName, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user profile: %w", err)
	}

	profile := &ports.UserProfile{UserID: userID}
	err = s.db.QueryRowContext(ctx, `SELECT name FROM user_profiles WHERE user_id = ?`, userID).Scan(&profile.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to read user profile: %w", err)
	}
	return profile, nil
}

// CreateTaskList creates an empty list.
func (s *Store) CreateTaskList(ctx context.Context, userID, name string, position int) (*domain.TaskList, error) {
	list, err := domain.NewTaskList(userID, name, position)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO task_lists (id, user_id, name, position, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, list.ID, list.UserID, list.Name, list.Position, list.CreatedAt)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateList, name)
		}
		return nil, fmt.Errorf("failed to create task list: %w", err)
	}
	return list, nil
}

// FetchTaskLists loads every list of the user with steps, breaths and history.
func (s *Store) FetchTaskLists(ctx context.Context, userID string) ([]*domain.TaskList, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, position, created_at
		FROM task_lists
		WHERE user_id = ?
		ORDER BY position, created_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query task lists: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var lists []*domain.TaskList
	byID := make(map[string]*domain.TaskList)
	for rows.Next() {
		l := &domain.TaskList{Steps: []*domain.Step{}}
		if err := rows.Scan(&l.ID, &l.UserID, &l.Name, &l.Position, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task list: %w", err)
		}
		lists = append(lists, l)
		byID[l.ID] = l
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate task lists: %w", err)
	}

	steps, err := s.queryStepsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, step := range steps {
		if l, ok := byID[step.TaskListID]; ok {
			l.Steps = append(l.Steps, step)
		}
	}

	return lists, nil
}

// listExists reports whether the list is stored.
func (s *Store) listExists(ctx context.Context, q querier, listID string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(1) FROM task_lists WHERE id = ?`, listID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check task list: %w", err)
	}
	return n > 0, nil
}

// archiveListID returns the id of the user's completed-tasks list, creating it when missing.
func (s *Store) archiveListID(ctx context.Context, tx *sql.Tx, userID string) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM task_lists WHERE user_id = ? AND name = ?`,
		userID, domain.CompletedTasksListName).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("failed to find archive list: %w", err)
	}

	var maxPos sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT MAX(position) FROM task_lists WHERE user_id = ?`, userID).Scan(&maxPos); err != nil {
		return "", fmt.Errorf("failed to read list positions: %w", err)
	}

	list, err := domain.NewTaskList(userID, domain.CompletedTasksListName, int(maxPos.Int64)+1)
	if err != nil {
		return "", err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO task_lists (id, user_id, name, position, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, list.ID, list.UserID, list.Name, list.Position, list.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("failed to create archive list: %w", err)
	}
	return list.ID, nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
