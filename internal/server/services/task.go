package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/taskvault/taskvault/internal/server/models"
	"github.com/taskvault/taskvault/internal/server/repositories/repomanager"
)

// DefaultTaskPriority is assigned when a task is created without one.
const DefaultTaskPriority = "normal"

// TaskService provides the owned-task operations. The owner's user ID comes
// from the verified request principal, never from client input, and travels
// into every repository call as part of the lookup key.
type TaskService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewTaskService constructs a TaskService.
func NewTaskService(db *sql.DB, m repomanager.RepositoryManager) *TaskService {
	return &TaskService{db: db, repomanager: m}
}

// Create stores a new task owned by userID.
func (s *TaskService) Create(ctx context.Context, userID int64, title, priority string) (*models.Task, error) {
	if strings.TrimSpace(priority) == "" {
		priority = DefaultTaskPriority
	}

	task := &models.Task{
		UserID:   userID,
		Title:    title,
		Priority: priority,
	}

	repo := s.repomanager.Tasks(s.db)

	task, err := repo.Create(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("error creating task: %w", err)
	}

	return task, nil
}

// List returns all of userID's tasks.
func (s *TaskService) List(ctx context.Context, userID int64) ([]*models.Task, error) {
	return s.repomanager.Tasks(s.db).ListByUser(ctx, userID)
}

// Get fetches one of userID's tasks. A task owned by someone else surfaces
// as common.ErrorNotFound, same as a missing one.
func (s *TaskService) Get(ctx context.Context, userID, taskID int64) (*models.Task, error) {
	return s.repomanager.Tasks(s.db).GetByIDAndUser(ctx, taskID, userID)
}

// Update applies a partial update to one of userID's tasks.
func (s *TaskService) Update(ctx context.Context, userID, taskID int64, patch *models.TaskPatch) (*models.Task, error) {
	return s.repomanager.Tasks(s.db).UpdateByIDAndUser(ctx, taskID, userID, patch)
}

// Delete removes one of userID's tasks and returns the removed row.
func (s *TaskService) Delete(ctx context.Context, userID, taskID int64) (*models.Task, error) {
	return s.repomanager.Tasks(s.db).DeleteByIDAndUser(ctx, taskID, userID)
}
