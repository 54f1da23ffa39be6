package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"
	"github.com/xvierd/focus-cli/internal/domain"
	"github.com/xvierd/focus-cli/internal/ports"
)

const stepColumns = `id, user_id, task_list_id, label, duration_ms, actual_duration_ms, elapsed_time_ms,
	completed, locked, position, position_all_active, timezone, color, icon, created_at, updated_at`

// CreateStep persists a new step into step.TaskListID.
func (s *Store) CreateStep(ctx context.Context, step *domain.Step, userID string) error {
	if step.UserID == "" {
		step.UserID = userID
	}
	return s.insertStep(ctx, step.TaskListID, step)
}

// AddTaskToTaskList appends a step to a list.
func (s *Store) AddTaskToTaskList(ctx context.Context, listID string, step *domain.Step) error {
	step.TaskListID = listID
	return s.insertStep(ctx, listID, step)
}

func (s *Store) insertStep(ctx context.Context, listID string, step *domain.Step) error {
	if domain.IsSentinelListID(listID) {
		return fmt.Errorf("%w: %s", domain.ErrInvalidTarget, listID)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		ok, err := s.listExists(ctx, tx, listID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrListNotFound, listID)
		}

		if step.Position == 0 {
			var maxPos sql.NullInt64
			if err := tx.QueryRowContext(ctx, `SELECT MAX(position) FROM steps WHERE task_list_id = ?`, listID).Scan(&maxPos); err != nil {
				return fmt.Errorf("failed to read step positions: %w", err)
			}
			step.Position = int(maxPos.Int64) + 1
		}
		if step.CreatedAt.IsZero() {
			step.CreatedAt = time.Now()
		}
		step.UpdatedAt = time.Now()

		_, err = tx.ExecContext(ctx, `
			INSERT INTO steps (`+stepColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			step.ID, step.UserID, listID, step.Label,
			toMillis(step.Duration), toMillis(step.ActualDuration), toMillis(step.ElapsedTime),
			boolInt(step.Completed), boolInt(step.Locked), step.Position,
			nullInt(step.PositionWhenAllListsActive), nullString(step.Timezone),
			step.Color, step.Icon, step.CreatedAt, step.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert step: %w", err)
		}

		if err := replaceBreaths(ctx, tx, step.ID, step.Breaths); err != nil {
			return err
		}
		return replaceHistory(ctx, tx, step.ID, step.History)
	})
}

// UpdateStep applies a partial update.
func (s *Store) UpdateStep(ctx context.Context, stepID, userID string, update ports.StepUpdate) error {
	if update.IsEmpty() {
		return nil
	}

	var sets []string
	var args []any
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if update.Label != nil {
		add("label", *update.Label)
	}
	if update.Duration != nil {
		add("duration_ms", toMillis(*update.Duration))
	}
	if update.ActualDuration != nil {
		add("actual_duration_ms", toMillis(*update.ActualDuration))
	}
	if update.ElapsedTime != nil {
		add("elapsed_time_ms", toMillis(*update.ElapsedTime))
	}
	if update.Completed != nil {
		add("completed", boolInt(*update.Completed))
	}
	if update.Locked != nil {
		add("locked", boolInt(*update.Locked))
	}
	if update.Position != nil {
		add("position", *update.Position)
	}
	if update.PositionWhenAllListsActive != nil {
		add("position_all_active", *update.PositionWhenAllListsActive)
	}
	if update.Timezone != nil {
		add("timezone", *update.Timezone)
	}
	if update.TaskListID != nil {
		if domain.IsSentinelListID(*update.TaskListID) {
			return fmt.Errorf("%w: %s", domain.ErrInvalidTarget, *update.TaskListID)
		}
		ok, err := s.listExists(ctx, s.db, *update.TaskListID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrListNotFound, *update.TaskListID)
		}
		add("task_list_id", *update.TaskListID)
	}
	add("updated_at", time.Now())

	args = append(args, stepID, userID)
	query := fmt.Sprintf(`UPDATE steps SET %s WHERE id = ? AND user_id = ?`, strings.Join(sets, ", "))

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update step: %w", err)
	}
	return expectOneRow(result)
}

// DeleteStep removes a step owned by the user.
func (s *Store) DeleteStep(ctx context.Context, stepID, userID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM steps WHERE id = ? AND user_id = ?`, stepID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete step: %w", err)
	}
	return expectOneRow(result)
}

// DeleteTaskFromTaskList takes a step out of a list. Completed steps are
// moved into the completed-tasks archive list so their history survives;
// pending steps are deleted.
func (s *Store) DeleteTaskFromTaskList(ctx context.Context, listID, stepID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var userID string
		var completed int
		err := tx.QueryRowContext(ctx, `SELECT user_id, completed FROM steps WHERE id = ? AND task_list_id = ?`,
			stepID, listID).Scan(&userID, &completed)
		if err == sql.ErrNoRows {
			return domain.ErrStepNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to find step: %w", err)
		}

		if completed == 0 {
			if _, err := tx.ExecContext(ctx, `DELETE FROM steps WHERE id = ?`, stepID); err != nil {
				return fmt.Errorf("failed to delete step: %w", err)
			}
			return nil
		}

		archiveID, err := s.archiveListID(ctx, tx, userID)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE steps SET task_list_id = ?, position_all_active = NULL, updated_at = ?
			WHERE id = ?
		`, archiveID, time.Now(), stepID)
		if err != nil {
			return fmt.Errorf("failed to archive step: %w", err)
		}
		return nil
	})
}

// UpdateTaskInTaskList stores every field of step and returns the stored copy.
func (s *Store) UpdateTaskInTaskList(ctx context.Context, listID string, step *domain.Step) (*domain.Step, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE steps SET
				label = ?, duration_ms = ?, actual_duration_ms = ?, elapsed_time_ms = ?,
				completed = ?, locked = ?, position = ?, position_all_active = ?,
				timezone = ?, color = ?, icon = ?, updated_at = ?
			WHERE id = ? AND task_list_id = ?
		`,
			step.Label, toMillis(step.Duration), toMillis(step.ActualDuration), toMillis(step.ElapsedTime),
			boolInt(step.Completed), boolInt(step.Locked), step.Position, nullInt(step.PositionWhenAllListsActive),
			nullString(step.Timezone), step.Color, step.Icon, time.Now(),
			step.ID, listID,
		)
		if err != nil {
			return fmt.Errorf("failed to update step: %w", err)
		}
		if err := expectOneRow(result); err != nil {
			return err
		}
		if err := replaceBreaths(ctx, tx, step.ID, step.Breaths); err != nil {
			return err
		}
		return replaceHistory(ctx, tx, step.ID, step.History)
	})
	if err != nil {
		return nil, err
	}
	return s.getStep(ctx, step.ID)
}

// UpdateStepBreaths replaces the breaths of a step.
func (s *Store) UpdateStepBreaths(ctx context.Context, userID, stepID string, breaths []domain.Breath) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM steps WHERE id = ? AND user_id = ?`, stepID, userID).Scan(&n); err != nil {
			return fmt.Errorf("failed to find step: %w", err)
		}
		if n == 0 {
			return domain.ErrStepNotFound
		}
		return replaceBreaths(ctx, tx, stepID, breaths)
	})
}

// ReorderSteps stores per-list positions in a single transaction.
func (s *Store) ReorderSteps(ctx context.Context, userID string, steps []*domain.Step) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, step := range steps {
			result, err := tx.ExecContext(ctx, `UPDATE steps SET position = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
				step.Position, time.Now(), step.ID, userID)
			if err != nil {
				return fmt.Errorf("failed to reorder step %s: %w", step.ID, err)
			}
			if err := expectOneRow(result); err != nil {
				return fmt.Errorf("failed to reorder step %s: %w", step.ID, err)
			}
		}
		return nil
	})
}

// ReorderStepsAllActive stores all-active positions in a single transaction.
func (s *Store) ReorderStepsAllActive(ctx context.Context, userID string, steps []*domain.Step) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, step := range steps {
			result, err := tx.ExecContext(ctx, `UPDATE steps SET position_all_active = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
				nullInt(step.PositionWhenAllListsActive), time.Now(), step.ID, userID)
			if err != nil {
				return fmt.Errorf("failed to reorder step %s: %w", step.ID, err)
			}
			if err := expectOneRow(result); err != nil {
				return fmt.Errorf("failed to reorder step %s: %w", step.ID, err)
			}
		}
		return nil
	})
}

// SearchSteps does a fuzzy search over pending step labels, best match first.
func (s *Store) SearchSteps(ctx context.Context, userID, query string) ([]*domain.Step, error) {
	steps, err := s.queryStepsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get steps for fuzzy search: %w", err)
	}

	var candidates []*domain.Step
	for _, step := range steps {
		if !step.Completed {
			candidates = append(candidates, step)
		}
	}

	labels := make([]string, len(candidates))
	for i, step := range candidates {
		labels[i] = step.Label
	}

	var result []*domain.Step
	for _, match := range fuzzy.Find(query, labels) {
		result = append(result, candidates[match.Index])
	}
	return result, nil
}

// getStep loads a single step with its breaths and history.
func (s *Store) getStep(ctx context.Context, stepID string) (*domain.Step, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+stepColumns+` FROM steps WHERE id = ?`, stepID)
	if err != nil {
		return nil, fmt.Errorf("failed to query step: %w", err)
	}
	steps, err := scanSteps(rows)
	if err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return nil, domain.ErrStepNotFound
	}
	if err := s.attachChildren(ctx, steps); err != nil {
		return nil, err
	}
	return steps[0], nil
}

// queryStepsByUser loads every step of the user ordered by list position.
func (s *Store) queryStepsByUser(ctx context.Context, userID string) ([]*domain.Step, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+stepColumns+`
		FROM steps
		WHERE user_id = ?
		ORDER BY position, created_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query steps: %w", err)
	}
	steps, err := scanSteps(rows)
	if err != nil {
		return nil, err
	}
	if err := s.attachChildren(ctx, steps); err != nil {
		return nil, err
	}
	return steps, nil
}

// scanSteps reads and closes rows.
func scanSteps(rows *sql.Rows) ([]*domain.Step, error) {
	defer func() { _ = rows.Close() }()

	var steps []*domain.Step
	for rows.Next() {
		var step domain.Step
		var durationMs, actualMs, elapsedMs int64
		var completed, locked int
		var allActive sql.NullInt64
		var tz sql.NullString

		err := rows.Scan(
			&step.ID, &step.UserID, &step.TaskListID, &step.Label,
			&durationMs, &actualMs, &elapsedMs,
			&completed, &locked, &step.Position, &allActive, &tz,
			&step.Color, &step.Icon, &step.CreatedAt, &step.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}

		step.Duration = fromMillis(durationMs)
		step.ActualDuration = fromMillis(actualMs)
		step.ElapsedTime = fromMillis(elapsedMs)
		step.Completed = completed != 0
		step.Locked = locked != 0
		if allActive.Valid {
			step.SetAllActivePosition(int(allActive.Int64))
		}
		if tz.Valid {
			v := tz.String
			step.Timezone = &v
		}
		steps = append(steps, &step)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate steps: %w", err)
	}
	return steps, nil
}

// attachChildren loads breaths and history for the given steps.
func (s *Store) attachChildren(ctx context.Context, steps []*domain.Step) error {
	if len(steps) == 0 {
		return nil
	}

	// Index the steps so child rows can be attached in one pass per table
	byID := make(map[string]*domain.Step, len(steps))
	ids := make([]any, len(steps))
	for i, step := range steps {
		byID[step.ID] = step
		ids[i] = step.ID
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

	// Breaths, in their per-step order
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, step_id, name, completed, total_time_seconds, time_estimation_seconds, position
		FROM breaths WHERE step_id IN (`+placeholders+`)
		ORDER BY position
	`, ids...)
	if err != nil {
		return fmt.Errorf("failed to query breaths: %w", err)
	}
	for rows.Next() {
		var b domain.Breath
		var stepID string
		var completed int
		if err := rows.Scan(&b.ID, &stepID, &b.Name, &completed, &b.TotalTimeSeconds, &b.TimeEstimationSeconds, &b.Position); err != nil {
			_ = rows.Close()
			return fmt.Errorf("failed to scan breath: %w", err)
		}
		b.Completed = completed != 0
		byID[stepID].Breaths = append(byID[stepID].Breaths, b)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("failed to iterate breaths: %w", err)
	}
	_ = rows.Close()

	// History entries, oldest first
	rows, err = s.db.QueryContext(ctx, `
		SELECT step_id, start_time, end_time, actual_duration_ms, git_branch, git_commit
		FROM step_history WHERE step_id IN (`+placeholders+`)
		ORDER BY id
	`, ids...)
	if err != nil {
		return fmt.Errorf("failed to query history: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var h domain.HistoryEntry
		var stepID string
		var actualMs int64
		if err := rows.Scan(&stepID, &h.StartTime, &h.EndTime, &actualMs, &h.GitBranch, &h.GitCommit); err != nil {
			return fmt.Errorf("failed to scan history: %w", err)
		}
		h.ActualDuration = fromMillis(actualMs)
		byID[stepID].History = append(byID[stepID].History, h)
	}
	return rows.Err()
}

func replaceBreaths(ctx context.Context, tx *sql.Tx, stepID string, breaths []domain.Breath) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM breaths WHERE step_id = ?`, stepID); err != nil {
		return fmt.Errorf("failed to clear breaths: %w", err)
	}
	for i, b := range breaths {
		if b.Position == 0 {
			b.Position = i + 1
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO breaths (id, step_id, name, completed, total_time_seconds, time_estimation_seconds, position)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, b.ID, stepID, b.Name, boolInt(b.Completed), b.TotalTimeSeconds, b.TimeEstimationSeconds, b.Position)
		if err != nil {
			return fmt.Errorf("failed to insert breath: %w", err)
		}
	}
	return nil
}

func replaceHistory(ctx context.Context, tx *sql.Tx, stepID string, history []domain.HistoryEntry) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM step_history WHERE step_id = ?`, stepID); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	for _, h := range history {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO step_history (step_id, start_time, end_time, actual_duration_ms, git_branch, git_commit)
			VALUES (?, ?, ?, ?, ?, ?)
		`, stepID, h.StartTime, h.EndTime, toMillis(h.ActualDuration), h.GitBranch, h.GitCommit)
		if err != nil {
			return fmt.Errorf("failed to insert history: %w", err)
		}
	}
	return nil
}

func expectOneRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return domain.ErrStepNotFound
	}
	return nil
}
