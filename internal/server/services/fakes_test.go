package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/taskvault/taskvault/internal/dbx"
	"github.com/taskvault/taskvault/internal/server/models"
	analyticsrepo "github.com/taskvault/taskvault/internal/server/repositories/analytics"
	attachmentsrepo "github.com/taskvault/taskvault/internal/server/repositories/attachments"
	tasksrepo "github.com/taskvault/taskvault/internal/server/repositories/tasks"
	usersrepo "github.com/taskvault/taskvault/internal/server/repositories/users"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

type fakeUsersRepo struct {
	createOut *models.User
	createErr error
	createdIn *models.User

	getOut *models.User
	getErr error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.createdIn = u
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createOut, nil
}
func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}
func (f *fakeUsersRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

type fakeTasksRepo struct {
	createOut *models.Task
	createErr error

	listOut []*models.Task
	listErr error

	getOut *models.Task
	getErr error

	updateOut   *models.Task
	updateErr   error
	updatePatch *models.TaskPatch

	deleteOut *models.Task
	deleteErr error
}

func (f *fakeTasksRepo) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createOut != nil {
		return f.createOut, nil
	}
	return task, nil
}
func (f *fakeTasksRepo) ListByUser(ctx context.Context, userID int64) ([]*models.Task, error) {
	return f.listOut, f.listErr
}
func (f *fakeTasksRepo) GetByIDAndUser(ctx context.Context, id, userID int64) (*models.Task, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}
func (f *fakeTasksRepo) UpdateByIDAndUser(ctx context.Context, id, userID int64, patch *models.TaskPatch) (*models.Task, error) {
	f.updatePatch = patch
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.updateOut, nil
}
func (f *fakeTasksRepo) DeleteByIDAndUser(ctx context.Context, id, userID int64) (*models.Task, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	return f.deleteOut, nil
}

type fakeAttachmentsRepo struct {
	createErr error

	getOut *models.Attachment
	getErr error

	listOut []*models.Attachment
	listErr error
}

func (f *fakeAttachmentsRepo) Create(ctx context.Context, att *models.Attachment, userID int64) (*models.Attachment, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	att.ID = 1
	return att, nil
}
func (f *fakeAttachmentsRepo) GetByIDAndOwner(ctx context.Context, id, taskID, userID int64) (*models.Attachment, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}
func (f *fakeAttachmentsRepo) ListByTaskAndOwner(ctx context.Context, taskID, userID int64) ([]*models.Attachment, error) {
	return f.listOut, f.listErr
}

type fakeAnalyticsRepo struct {
	exists    bool
	existsErr error

	stats    []*models.TaskStat
	statsErr error

	recent    []*models.TaskOverview
	recentErr error

	daily    []*models.DailyCount
	dailyErr error

	summaries    []*models.UserTaskSummary
	summariesErr error
	gotOffset    int
	gotLimit     int

	count    int64
	countErr error

	searchOut []*models.TaskOverview
	searchErr error
}

func (f *fakeAnalyticsRepo) UserExists(ctx context.Context, userID int64) (bool, error) {
	return f.exists, f.existsErr
}
func (f *fakeAnalyticsRepo) TaskStats(ctx context.Context, userID int64) ([]*models.TaskStat, error) {
	return f.stats, f.statsErr
}
func (f *fakeAnalyticsRepo) RecentTasks(ctx context.Context, userID int64, limit int) ([]*models.TaskOverview, error) {
	return f.recent, f.recentErr
}
func (f *fakeAnalyticsRepo) DailyTaskCounts(ctx context.Context, userID int64, since time.Time) ([]*models.DailyCount, error) {
	return f.daily, f.dailyErr
}
func (f *fakeAnalyticsRepo) UsersWithTaskCounts(ctx context.Context, offset, limit int) ([]*models.UserTaskSummary, error) {
	f.gotOffset, f.gotLimit = offset, limit
	return f.summaries, f.summariesErr
}
func (f *fakeAnalyticsRepo) CountUsers(ctx context.Context) (int64, error) {
	return f.count, f.countErr
}
func (f *fakeAnalyticsRepo) SearchTasks(ctx context.Context, query string, limit int) ([]*models.TaskOverview, error) {
	return f.searchOut, f.searchErr
}

type fakeRepoManager struct {
	u  *fakeUsersRepo
	t  *fakeTasksRepo
	at *fakeAttachmentsRepo
	an *fakeAnalyticsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return m.u }
func (m *fakeRepoManager) Tasks(db dbx.DBTX) tasksrepo.Repository       { return m.t }
func (m *fakeRepoManager) Attachments(db dbx.DBTX) attachmentsrepo.Repository {
	return m.at
}
func (m *fakeRepoManager) Analytics(db dbx.DBTX) analyticsrepo.Repository { return m.an }
