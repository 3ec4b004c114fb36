// Package tasks provides the PostgreSQL-backed repository for owned tasks.
// All single-task operations are compound-key lookups on (id, user_id): a
// task owned by someone else produces the same ErrorNotFound as a task that
// does not exist, and updates/deletes are single conditional statements, so
// ownership cannot change between check and write.
package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/taskvault/taskvault/internal/common"
	"github.com/taskvault/taskvault/internal/dbx"
	"github.com/taskvault/taskvault/internal/server/models"
)

// PostgresRepository implements task storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const taskColumns = "id, user_id, title, is_completed, priority, created_at, updated_at"

func scanTask(row *sql.Row, task *models.Task) error {
	return row.Scan(&task.ID, &task.UserID, &task.Title, &task.IsCompleted,
		&task.Priority, &task.CreatedAt, &task.UpdatedAt)
}

// Create inserts a task for task.UserID.
func (r *PostgresRepository) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	query :=
		`INSERT INTO tasks (user_id, title, is_completed, priority)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		task.UserID, task.Title, task.IsCompleted, task.Priority).
		Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return task, nil
}

// ListByUser returns all tasks owned by userID, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Task
	for rows.Next() {
		var item models.Task
		if err := rows.Scan(&item.ID, &item.UserID, &item.Title, &item.IsCompleted,
			&item.Priority, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetByIDAndUser fetches one task by compound key.
func (r *PostgresRepository) GetByIDAndUser(ctx context.Context, id, userID int64) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		 WHERE id = $1 AND user_id = $2
		 `

	task := &models.Task{}
	err := scanTask(r.db.QueryRowContext(ctx, query, id, userID), task)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return task, nil
}

// UpdateByIDAndUser applies a partial update as a single conditional UPDATE.
// Nil patch fields keep their stored values via COALESCE.
func (r *PostgresRepository) UpdateByIDAndUser(ctx context.Context, id, userID int64, patch *models.TaskPatch) (*models.Task, error) {
	query :=
		`UPDATE tasks SET
		     title        = COALESCE($3, title),
		     is_completed = COALESCE($4, is_completed),
		     priority     = COALESCE($5, priority),
		     updated_at   = now()
		 WHERE id = $1 AND user_id = $2
		 RETURNING ` + taskColumns

	task := &models.Task{}
	err := scanTask(r.db.QueryRowContext(ctx, query,
		id, userID, patch.Title, patch.IsCompleted, patch.Priority), task)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return task, nil
}

// DeleteByIDAndUser removes one task by compound key and returns the deleted row.
func (r *PostgresRepository) DeleteByIDAndUser(ctx context.Context, id, userID int64) (*models.Task, error) {
	query :=
		`DELETE FROM tasks
		 WHERE id = $1 AND user_id = $2
		 RETURNING ` + taskColumns

	task := &models.Task{}
	err := scanTask(r.db.QueryRowContext(ctx, query, id, userID), task)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return task, nil
}
