package analytics

import (
	"context"
	"time"

	"github.com/taskvault/taskvault/internal/server/models"
)

// Repository is the read-only aggregate query surface behind the analytics
// endpoints.
type Repository interface {
	UserExists(ctx context.Context, userID int64) (bool, error)
	TaskStats(ctx context.Context, userID int64) ([]*models.TaskStat, error)
	RecentTasks(ctx context.Context, userID int64, limit int) ([]*models.TaskOverview, error)
	DailyTaskCounts(ctx context.Context, userID int64, since time.Time) ([]*models.DailyCount, error)
	UsersWithTaskCounts(ctx context.Context, offset, limit int) ([]*models.UserTaskSummary, error)
	CountUsers(ctx context.Context) (int64, error)
	SearchTasks(ctx context.Context, query string, limit int) ([]*models.TaskOverview, error)
}
