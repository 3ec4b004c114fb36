package httpapi

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/taskvault/taskvault/internal/common"
	"github.com/taskvault/taskvault/internal/dbx"
	"github.com/taskvault/taskvault/internal/logging"
	"github.com/taskvault/taskvault/internal/server/config"
	"github.com/taskvault/taskvault/internal/server/models"
	analyticsrepo "github.com/taskvault/taskvault/internal/server/repositories/analytics"
	attachmentsrepo "github.com/taskvault/taskvault/internal/server/repositories/attachments"
	"github.com/taskvault/taskvault/internal/server/repositories/repomanager"
	tasksrepo "github.com/taskvault/taskvault/internal/server/repositories/tasks"
	usersrepo "github.com/taskvault/taskvault/internal/server/repositories/users"
	"github.com/taskvault/taskvault/internal/server/services"
)

// memUsersRepo is an in-memory users.Repository so handler tests can run the
// full register/login path without PostgreSQL.
type memUsersRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*models.User
}

func newMemUsersRepo() *memUsersRepo {
	return &memUsersRepo{byID: make(map[int64]*models.User)}
}

func (m *memUsersRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if strings.EqualFold(u.Email, user.Email) {
			return nil, common.ErrorAlreadyExists
		}
	}
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	m.byID[user.ID] = user
	return user, nil
}

func (m *memUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memUsersRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

// memTasksRepo is an in-memory tasks.Repository with the same compound-key
// semantics as the real one: wrong owner and missing row are one outcome.
type memTasksRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*models.Task
}

func newMemTasksRepo() *memTasksRepo {
	return &memTasksRepo{byID: make(map[int64]*models.Task)}
}

func (m *memTasksRepo) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	task.ID = m.nextID
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	m.byID[task.ID] = task
	return task, nil
}

func (m *memTasksRepo) ListByUser(ctx context.Context, userID int64) ([]*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Task
	for _, t := range m.byID {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memTasksRepo) GetByIDAndUser(ctx context.Context, id, userID int64) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[id]
	if !ok || t.UserID != userID {
		return nil, common.ErrorNotFound
	}
	return t, nil
}

func (m *memTasksRepo) UpdateByIDAndUser(ctx context.Context, id, userID int64, patch *models.TaskPatch) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[id]
	if !ok || t.UserID != userID {
		return nil, common.ErrorNotFound
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.IsCompleted != nil {
		t.IsCompleted = *patch.IsCompleted
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	t.UpdatedAt = time.Now()
	return t, nil
}

func (m *memTasksRepo) DeleteByIDAndUser(ctx context.Context, id, userID int64) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[id]
	if !ok || t.UserID != userID {
		return nil, common.ErrorNotFound
	}
	delete(m.byID, id)
	return t, nil
}

// memAttachmentsRepo derives ownership through the tasks repo, like the SQL
// implementation derives it through a JOIN.
type memAttachmentsRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*models.Attachment
	tasks  *memTasksRepo
}

func newMemAttachmentsRepo(tasks *memTasksRepo) *memAttachmentsRepo {
	return &memAttachmentsRepo{byID: make(map[int64]*models.Attachment), tasks: tasks}
}

func (m *memAttachmentsRepo) Create(ctx context.Context, att *models.Attachment, userID int64) (*models.Attachment, error) {
	if _, err := m.tasks.GetByIDAndUser(ctx, att.TaskID, userID); err != nil {
		return nil, common.ErrorNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	att.ID = m.nextID
	att.CreatedAt = time.Now()
	m.byID[att.ID] = att
	return att, nil
}

func (m *memAttachmentsRepo) GetByIDAndOwner(ctx context.Context, id, taskID, userID int64) (*models.Attachment, error) {
	if _, err := m.tasks.GetByIDAndUser(ctx, taskID, userID); err != nil {
		return nil, common.ErrorNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok || a.TaskID != taskID {
		return nil, common.ErrorNotFound
	}
	return a, nil
}

func (m *memAttachmentsRepo) ListByTaskAndOwner(ctx context.Context, taskID, userID int64) ([]*models.Attachment, error) {
	if _, err := m.tasks.GetByIDAndUser(ctx, taskID, userID); err != nil {
		return nil, common.ErrorNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Attachment
	for _, a := range m.byID {
		if a.TaskID == taskID {
			out = append(out, a)
		}
	}
	return out, nil
}

// memAnalyticsRepo computes aggregates from the other in-memory repos.
type memAnalyticsRepo struct {
	users *memUsersRepo
	tasks *memTasksRepo
}

func (m *memAnalyticsRepo) UserExists(ctx context.Context, userID int64) (bool, error) {
	_, err := m.users.GetByID(ctx, userID)
	return err == nil, nil
}

func (m *memAnalyticsRepo) TaskStats(ctx context.Context, userID int64) ([]*models.TaskStat, error) {
	var open, done int64
	tasks, _ := m.tasks.ListByUser(ctx, userID)
	for _, t := range tasks {
		if t.IsCompleted {
			done++
		} else {
			open++
		}
	}
	var out []*models.TaskStat
	if open > 0 {
		out = append(out, &models.TaskStat{IsCompleted: false, Count: open})
	}
	if done > 0 {
		out = append(out, &models.TaskStat{IsCompleted: true, Count: done})
	}
	return out, nil
}

func (m *memAnalyticsRepo) RecentTasks(ctx context.Context, userID int64, limit int) ([]*models.TaskOverview, error) {
	owner, err := m.users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil
	}
	tasks, _ := m.tasks.ListByUser(ctx, userID)
	var out []*models.TaskOverview
	for _, t := range tasks {
		if len(out) == limit {
			break
		}
		out = append(out, &models.TaskOverview{
			ID: t.ID, Title: t.Title, IsCompleted: t.IsCompleted,
			Priority: t.Priority, CreatedAt: t.CreatedAt, OwnerName: owner.Name,
		})
	}
	return out, nil
}

func (m *memAnalyticsRepo) DailyTaskCounts(ctx context.Context, userID int64, since time.Time) ([]*models.DailyCount, error) {
	tasks, _ := m.tasks.ListByUser(ctx, userID)
	var n int64
	for _, t := range tasks {
		if !t.CreatedAt.Before(since) {
			n++
		}
	}
	if n == 0 {
		return nil, nil
	}
	return []*models.DailyCount{{Day: time.Now().Truncate(24 * time.Hour), Count: n}}, nil
}

func (m *memAnalyticsRepo) UsersWithTaskCounts(ctx context.Context, offset, limit int) ([]*models.UserTaskSummary, error) {
	m.users.mu.Lock()
	var out []*models.UserTaskSummary
	for _, u := range m.users.byID {
		out = append(out, &models.UserTaskSummary{ID: u.ID, Email: u.Email, Name: u.Name, CreatedAt: u.CreatedAt, OpenTaskIDs: []int64{}})
	}
	m.users.mu.Unlock()

	m.tasks.mu.Lock()
	defer m.tasks.mu.Unlock()
	for _, s := range out {
		var openIDs []int64
		for _, t := range m.tasks.byID {
			if t.UserID != s.ID {
				continue
			}
			s.TaskCount++
			if !t.IsCompleted {
				s.OpenTaskCount++
				openIDs = append(openIDs, t.ID)
			}
		}
		sort.Slice(openIDs, func(i, j int) bool { return openIDs[i] > openIDs[j] })
		if len(openIDs) > 5 {
			openIDs = openIDs[:5]
		}
		s.OpenTaskIDs = append(s.OpenTaskIDs, openIDs...)
	}
	return out, nil
}

func (m *memAnalyticsRepo) CountUsers(ctx context.Context) (int64, error) {
	m.users.mu.Lock()
	defer m.users.mu.Unlock()
	return int64(len(m.users.byID)), nil
}

func (m *memAnalyticsRepo) SearchTasks(ctx context.Context, query string, limit int) ([]*models.TaskOverview, error) {
	m.tasks.mu.Lock()
	defer m.tasks.mu.Unlock()
	var out []*models.TaskOverview
	for _, t := range m.tasks.byID {
		if strings.Contains(strings.ToLower(t.Title), strings.ToLower(query)) {
			out = append(out, &models.TaskOverview{ID: t.ID, Title: t.Title, Priority: t.Priority, CreatedAt: t.CreatedAt})
		}
	}
	return out, nil
}

type memRepoManager struct {
	users       *memUsersRepo
	tasks       *memTasksRepo
	attachments *memAttachmentsRepo
	analytics   *memAnalyticsRepo
}

func newMemRepoManager() *memRepoManager {
	u := newMemUsersRepo()
	t := newMemTasksRepo()
	return &memRepoManager{
		users:       u,
		tasks:       t,
		attachments: newMemAttachmentsRepo(t),
		analytics:   &memAnalyticsRepo{users: u, tasks: t},
	}
}

func (m *memRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *memRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return m.users }
func (m *memRepoManager) Tasks(db dbx.DBTX) tasksrepo.Repository       { return m.tasks }
func (m *memRepoManager) Attachments(db dbx.DBTX) attachmentsrepo.Repository {
	return m.attachments
}
func (m *memRepoManager) Analytics(db dbx.DBTX) analyticsrepo.Repository { return m.analytics }

var _ repomanager.RepositoryManager = (*memRepoManager)(nil)

type testEnv struct {
	srv    *httptest.Server
	repos  *memRepoManager
	server *HTTPServer
}

// newTestEnv wires the full HTTP surface over in-memory repositories.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		SecretKey:               "test-secret",
		SessionValidityDuration: time.Hour,
		Environment:             config.EnvDevelopment,
		S3RootUser:              "minioadmin",
		S3RootPassword:          "minioadmin",
		S3Bucket:                "attachments",
		S3Region:                "us-east-1",
		S3BaseEndpoint:          "http://127.0.0.1:9000/",
	}

	repos := newMemRepoManager()
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(io.Discard, nil)))

	us := services.NewUserService(db, repos, cfg)
	ts := services.NewTaskService(db, repos)
	as := services.NewAnalyticsService(db, repos)
	ats := services.NewAttachmentService(db, repos, cfg)

	server := NewHTTPServer(cfg, logger, db, us, ts, as, ats)
	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, repos: repos, server: server}
}

type session struct {
	cookie *http.Cookie
	csrf   string
	userID int64
}

// register creates an account through the API and captures the credential
// cookie plus the anti-forgery token from the body.
func (e *testEnv) register(t *testing.T, email, name, password string) *session {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"email": email, "name": name, "password": password})
	resp, err := http.Post(e.srv.URL+"/api/users", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("register request error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register returned %d", resp.StatusCode)
	}

	var sr struct {
		CsrfToken string `json:"csrfToken"`
		User      struct {
			ID int64 `json:"id"`
		} `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		t.Fatalf("decode register response: %v", err)
	}

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == common.SessionCookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("register did not set a session cookie")
	}

	return &session{cookie: cookie, csrf: sr.CsrfToken, userID: sr.User.ID}
}

// doAuthed issues a request carrying the session cookie and, unless csrf is
// empty, the anti-forgery header.
func (e *testEnv) doAuthed(t *testing.T, sess *session, method, path, csrf string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.srv.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if sess != nil {
		req.AddCookie(sess.cookie)
	}
	if csrf != "" {
		req.Header.Set(common.CsrfHeaderName, csrf)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}
