package attachments

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/taskvault/taskvault/internal/common"
	"github.com/taskvault/taskvault/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_OwnedTask(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+attachments\s*\(task_id,\s*file_name,\s*storage_key\)\s*SELECT\s+t\.id,\s*\$3,\s*\$4\s+FROM\s+tasks\s+t\s+WHERE\s+t\.id\s*=\s*\$1\s+AND\s+t\.user_id\s*=\s*\$2\s+RETURNING\s+id,\s*created_at\s*$`

	rows := sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(3), time.Now())
	mock.ExpectQuery(q).
		WithArgs(int64(5), int64(1), "notes.txt", "tasks/2026/9/1/key").
		WillReturnRows(rows)

	att := &models.Attachment{TaskID: 5, FileName: "notes.txt", StorageKey: "tasks/2026/9/1/key"}
	got, err := repo.Create(context.Background(), att, 1)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != 3 {
		t.Fatalf("unexpected attachment: %+v", got)
	}
}

func TestCreate_ForeignTask(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	// INSERT ... SELECT produces no row when the task belongs to someone else.
	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+attachments`).
		WithArgs(int64(5), int64(2), "notes.txt", "key").
		WillReturnError(sql.ErrNoRows)

	att := &models.Attachment{TaskID: 5, FileName: "notes.txt", StorageKey: "key"}
	_, err := repo.Create(context.Background(), att, 2)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestGetByIDAndOwner_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+a\.id,\s*a\.task_id,\s*a\.file_name,\s*a\.storage_key,\s*a\.created_at\s+FROM\s+attachments\s+a\s+JOIN\s+tasks\s+t\s+ON\s+t\.id\s*=\s*a\.task_id\s+WHERE\s+a\.id\s*=\s*\$1\s+AND\s+a\.task_id\s*=\s*\$2\s+AND\s+t\.user_id\s*=\s*\$3\s*$`

	rows := sqlmock.NewRows([]string{"id", "task_id", "file_name", "storage_key", "created_at"}).
		AddRow(int64(3), int64(5), "notes.txt", "key", time.Now())
	mock.ExpectQuery(q).
		WithArgs(int64(3), int64(5), int64(1)).
		WillReturnRows(rows)

	got, err := repo.GetByIDAndOwner(context.Background(), 3, 5, 1)
	if err != nil {
		t.Fatalf("GetByIDAndOwner error: %v", err)
	}
	if got.ID != 3 || got.StorageKey != "key" {
		t.Fatalf("unexpected attachment: %+v", got)
	}
}

func TestGetByIDAndOwner_ForeignOwner(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+a\.id`).
		WithArgs(int64(3), int64(5), int64(2)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByIDAndOwner(context.Background(), 3, 5, 2)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestListByTaskAndOwner_OwnedTask(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	existsQ := `(?s)^SELECT\s+EXISTS\s*\(SELECT\s+1\s+FROM\s+tasks\s+WHERE\s+id\s*=\s*\$1\s+AND\s+user_id\s*=\s*\$2\)\s*$`
	mock.ExpectQuery(existsQ).
		WithArgs(int64(5), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	listQ := `(?s)^SELECT\s+id,\s*task_id,\s*file_name,\s*storage_key,\s*created_at\s+FROM\s+attachments\s+WHERE\s+task_id\s*=\s*\$1\s+ORDER\s+BY\s+id\s*$`
	rows := sqlmock.NewRows([]string{"id", "task_id", "file_name", "storage_key", "created_at"}).
		AddRow(int64(1), int64(5), "a.txt", "k1", time.Now()).
		AddRow(int64(2), int64(5), "b.txt", "k2", time.Now())
	mock.ExpectQuery(listQ).
		WithArgs(int64(5)).
		WillReturnRows(rows)

	got, err := repo.ListByTaskAndOwner(context.Background(), 5, 1)
	if err != nil {
		t.Fatalf("ListByTaskAndOwner error: %v", err)
	}
	if len(got) != 2 || got[0].FileName != "a.txt" {
		t.Fatalf("unexpected attachments: %+v", got)
	}
}

func TestListByTaskAndOwner_ForeignTask(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+EXISTS`).
		WithArgs(int64(5), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := repo.ListByTaskAndOwner(context.Background(), 5, 2)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}
