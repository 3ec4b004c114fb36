package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/taskvault/taskvault/internal/common"
	"github.com/taskvault/taskvault/internal/server/models"
	"github.com/taskvault/taskvault/internal/server/repositories/repomanager"
)

// recentTaskLimit caps the "recent tasks" section of a user report.
const recentTaskLimit = 10

// UserAnalytics is the per-user report: counts by completion state, the
// newest tasks, and creation counts for the trailing week.
type UserAnalytics struct {
	TaskStats      []*models.TaskStat
	RecentTasks    []*models.TaskOverview
	WeeklyProgress []*models.DailyCount
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page    int
	Limit   int
	Total   int64
	Pages   int64
	HasNext bool
	HasPrev bool
}

// AnalyticsService provides the reporting operations.
type AnalyticsService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewAnalyticsService constructs an AnalyticsService.
func NewAnalyticsService(db *sql.DB, m repomanager.RepositoryManager) *AnalyticsService {
	return &AnalyticsService{db: db, repomanager: m}
}

// UserReport builds the analytics report for one user. A missing user yields
// common.ErrorNotFound.
func (s *AnalyticsService) UserReport(ctx context.Context, userID int64) (*UserAnalytics, error) {
	repo := s.repomanager.Analytics(s.db)

	exists, err := repo.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, common.ErrorNotFound
	}

	stats, err := repo.TaskStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	recent, err := repo.RecentTasks(ctx, userID, recentTaskLimit)
	if err != nil {
		return nil, err
	}

	weekAgo := time.Now().AddDate(0, 0, -7)
	weekly, err := repo.DailyTaskCounts(ctx, userID, weekAgo)
	if err != nil {
		return nil, err
	}

	return &UserAnalytics{
		TaskStats:      stats,
		RecentTasks:    recent,
		WeeklyProgress: weekly,
	}, nil
}

// UsersWithStats returns one page of users with their task counts plus the
// pagination envelope. Page is 1-based.
func (s *AnalyticsService) UsersWithStats(ctx context.Context, page, limit int) ([]*models.UserTaskSummary, *Pagination, error) {
	repo := s.repomanager.Analytics(s.db)

	offset := (page - 1) * limit

	summaries, err := repo.UsersWithTaskCounts(ctx, offset, limit)
	if err != nil {
		return nil, nil, err
	}

	total, err := repo.CountUsers(ctx)
	if err != nil {
		return nil, nil, err
	}

	pages := (total + int64(limit) - 1) / int64(limit)

	pagination := &Pagination{
		Page:    page,
		Limit:   limit,
		Total:   total,
		Pages:   pages,
		HasNext: int64(page*limit) < total,
		HasPrev: page > 1,
	}

	return summaries, pagination, nil
}

// SearchTasks runs the ranked task search.
func (s *AnalyticsService) SearchTasks(ctx context.Context, query string, limit int) ([]*models.TaskOverview, error) {
	return s.repomanager.Analytics(s.db).SearchTasks(ctx, query, limit)
}
