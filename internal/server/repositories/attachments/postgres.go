// Package attachments provides the PostgreSQL-backed repository for task
// attachments. The ownership check rides inside each statement (an INSERT
// ... SELECT guarded by the task's user_id, reads joined on it), so a
// foreign task is indistinguishable from a missing one.
package attachments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/taskvault/taskvault/internal/common"
	"github.com/taskvault/taskvault/internal/dbx"
	"github.com/taskvault/taskvault/internal/server/models"
)

// PostgresRepository implements attachment storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create records an attachment for att.TaskID if that task is owned by
// userID. The guard is part of the INSERT itself; no row means the task is
// foreign or absent, reported uniformly as ErrorNotFound.
func (r *PostgresRepository) Create(ctx context.Context, att *models.Attachment, userID int64) (*models.Attachment, error) {
	query :=
		`INSERT INTO attachments (task_id, file_name, storage_key)
		 SELECT t.id, $3, $4 FROM tasks t
		 WHERE t.id = $1 AND t.user_id = $2
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		att.TaskID, userID, att.FileName, att.StorageKey).Scan(&att.ID, &att.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return att, nil
}

// GetByIDAndOwner fetches one attachment of an owned task.
func (r *PostgresRepository) GetByIDAndOwner(ctx context.Context, id, taskID, userID int64) (*models.Attachment, error) {
	query :=
		`SELECT a.id, a.task_id, a.file_name, a.storage_key, a.created_at
		 FROM attachments a
		 JOIN tasks t ON t.id = a.task_id
		 WHERE a.id = $1 AND a.task_id = $2 AND t.user_id = $3
		 `

	att := &models.Attachment{}
	err := r.db.QueryRowContext(ctx, query, id, taskID, userID).Scan(
		&att.ID, &att.TaskID, &att.FileName, &att.StorageKey, &att.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return att, nil
}

// ListByTaskAndOwner returns the attachments of an owned task, oldest first.
// A foreign or missing task yields ErrorNotFound rather than an empty list.
func (r *PostgresRepository) ListByTaskAndOwner(ctx context.Context, taskID, userID int64) ([]*models.Attachment, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1 AND user_id = $2)`,
		taskID, userID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if !exists {
		return nil, common.ErrorNotFound
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, task_id, file_name, storage_key, created_at
		 FROM attachments
		 WHERE task_id = $1
		 ORDER BY id`, taskID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Attachment
	for rows.Next() {
		var item models.Attachment
		if err := rows.Scan(&item.ID, &item.TaskID, &item.FileName,
			&item.StorageKey, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
