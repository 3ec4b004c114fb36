package tasks

import (
	"context"

	"github.com/taskvault/taskvault/internal/server/models"
)

// Repository is the task persistence surface. Every per-task operation takes
// the owner's user ID as part of the lookup key; there is deliberately no way
// to address a task by primary key alone.
type Repository interface {
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.Task, error)
	GetByIDAndUser(ctx context.Context, id, userID int64) (*models.Task, error)
	UpdateByIDAndUser(ctx context.Context, id, userID int64, patch *models.TaskPatch) (*models.Task, error)
	DeleteByIDAndUser(ctx context.Context, id, userID int64) (*models.Task, error)
}
