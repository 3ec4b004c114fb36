// Package analytics provides the PostgreSQL-backed aggregate queries for the
// reporting endpoints: per-user task stats, paginated user summaries, and
// ranked task search.
package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/taskvault/taskvault/internal/dbx"
	"github.com/taskvault/taskvault/internal/server/models"
)

// PostgresRepository implements aggregate queries over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// UserExists reports whether a user row exists.
func (r *PostgresRepository) UserExists(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

// TaskStats counts a user's tasks grouped by completion state.
func (r *PostgresRepository) TaskStats(ctx context.Context, userID int64) ([]*models.TaskStat, error) {
	query :=
		`SELECT is_completed, COUNT(*) FROM tasks
		 WHERE user_id = $1
		 GROUP BY is_completed
		 ORDER BY is_completed
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.TaskStat
	for rows.Next() {
		var item models.TaskStat
		if err := rows.Scan(&item.IsCompleted, &item.Count); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// RecentTasks returns a user's newest tasks with the owner's name attached.
func (r *PostgresRepository) RecentTasks(ctx context.Context, userID int64, limit int) ([]*models.TaskOverview, error) {
	query :=
		`SELECT t.id, t.title, t.is_completed, t.priority, t.created_at, u.name
		 FROM tasks t
		 JOIN users u ON u.id = t.user_id
		 WHERE t.user_id = $1
		 ORDER BY t.created_at DESC, t.id DESC
		 LIMIT $2
		 `

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	return scanOverviews(rows)
}

// DailyTaskCounts counts tasks created per day since the given time.
func (r *PostgresRepository) DailyTaskCounts(ctx context.Context, userID int64, since time.Time) ([]*models.DailyCount, error) {
	query :=
		`SELECT date_trunc('day', created_at) AS day, COUNT(*)
		 FROM tasks
		 WHERE user_id = $1 AND created_at >= $2
		 GROUP BY day
		 ORDER BY day
		 `

	rows, err := r.db.QueryContext(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.DailyCount
	for rows.Next() {
		var item models.DailyCount
		if err := rows.Scan(&item.Day, &item.Count); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// openTaskPreviewLimit caps the per-user open-task preview in user summaries.
const openTaskPreviewLimit = 5

// UsersWithTaskCounts returns one page of users, newest first, each with
// total and still-open task counts plus the ids of the newest open tasks.
// The lateral join yields one row per previewed task; a user with no open
// tasks still produces one row with a NULL preview id.
func (r *PostgresRepository) UsersWithTaskCounts(ctx context.Context, offset, limit int) ([]*models.UserTaskSummary, error) {
	query :=
		`SELECT u.id, u.email, u.name, u.created_at, u.task_count, u.open_task_count, p.id
		 FROM (
		     SELECT u.id, u.email, u.name, u.created_at,
		            COUNT(t.id) AS task_count,
		            COUNT(t.id) FILTER (WHERE NOT t.is_completed) AS open_task_count
		     FROM users u
		     LEFT JOIN tasks t ON t.user_id = u.id
		     GROUP BY u.id
		     ORDER BY u.created_at DESC, u.id DESC
		     OFFSET $1 LIMIT $2
		 ) u
		 LEFT JOIN LATERAL (
		     SELECT t.id FROM tasks t
		     WHERE t.user_id = u.id AND NOT t.is_completed
		     ORDER BY t.created_at DESC, t.id DESC
		     LIMIT $3
		 ) p ON TRUE
		 ORDER BY u.created_at DESC, u.id DESC, p.id DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, offset, limit, openTaskPreviewLimit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.UserTaskSummary
	var cur *models.UserTaskSummary
	for rows.Next() {
		var item models.UserTaskSummary
		var previewID sql.NullInt64
		if err := rows.Scan(&item.ID, &item.Email, &item.Name, &item.CreatedAt,
			&item.TaskCount, &item.OpenTaskCount, &previewID); err != nil {
			return nil, err
		}
		if cur == nil || cur.ID != item.ID {
			item.OpenTaskIDs = []int64{}
			cur = &item
			result = append(result, cur)
		}
		if previewID.Valid {
			cur.OpenTaskIDs = append(cur.OpenTaskIDs, previewID.Int64)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CountUsers returns the total number of users, for pagination envelopes.
func (r *PostgresRepository) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// SearchTasks matches tasks by title or owner name, ranking exact title
// matches before prefix matches before substring matches, newest first
// within a rank.
func (r *PostgresRepository) SearchTasks(ctx context.Context, search string, limit int) ([]*models.TaskOverview, error) {
	pattern := "%" + search + "%"
	prefix := search + "%"

	query :=
		`SELECT t.id, t.title, t.is_completed, t.priority, t.created_at, u.name
		 FROM tasks t
		 JOIN users u ON u.id = t.user_id
		 WHERE t.title ILIKE $1 OR u.name ILIKE $1
		 ORDER BY
		     CASE
		         WHEN t.title ILIKE $2 THEN 1
		         WHEN t.title ILIKE $3 THEN 2
		         WHEN t.title ILIKE $1 THEN 3
		         ELSE 4
		     END,
		     t.created_at DESC
		 LIMIT $4
		 `

	rows, err := r.db.QueryContext(ctx, query, pattern, search, prefix, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	return scanOverviews(rows)
}

func scanOverviews(rows *sql.Rows) ([]*models.TaskOverview, error) {
	var result []*models.TaskOverview
	for rows.Next() {
		var item models.TaskOverview
		if err := rows.Scan(&item.ID, &item.Title, &item.IsCompleted,
			&item.Priority, &item.CreatedAt, &item.OwnerName); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
