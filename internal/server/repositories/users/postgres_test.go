package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/abalakin-dev/quizkeeper/internal/common"
	"github.com/abalakin-dev/quizkeeper/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	return string(b)
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+users\s*\(login,\s*password,\s*admin,\s*test_info,\s*score\)`

	records := models.DefaultTestRecords()
	mock.ExpectExec(q).
		WithArgs("alice", "hash", false, mustJSON(t, records), int64(0)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	u := &models.User{Login: "alice", PasswordHash: []byte("hash"), TestRecords: records}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("Create error: %v", err)
	}
}

func TestCreate_DuplicateLogin(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT\s+INTO\s+users`).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})

	u := &models.User{Login: "alice", PasswordHash: []byte("hash"), TestRecords: models.DefaultTestRecords()}
	err := repo.Create(context.Background(), u)
	if !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("expected ErrorAlreadyExists, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT\s+INTO\s+users`).
		WillReturnError(errors.New("db down"))

	u := &models.User{Login: "alice", PasswordHash: []byte("hash")}
	err := repo.Create(context.Background(), u)
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByLogin_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+login,\s*password,\s*admin,\s*test_info,\s*score\s+FROM\s+users\s+WHERE\s+login\s*=\s*\$1\s*$`

	records := mustJSON(t, models.DefaultTestRecords())
	rows := sqlmock.NewRows([]string{"login", "password", "admin", "test_info", "score"}).
		AddRow("alice", "hash", true, []byte(records), int64(7))
	mock.ExpectQuery(q).WithArgs("alice").WillReturnRows(rows)

	got, err := repo.GetByLogin(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetByLogin error: %v", err)
	}
	if got.Login != "alice" || !got.Admin || got.TotalScore != 7 {
		t.Fatalf("unexpected user: %+v", got)
	}
	if len(got.TestRecords) != models.DefaultTestCount {
		t.Fatalf("expected %d test records, got %d", models.DefaultTestCount, len(got.TestRecords))
	}
	if string(got.PasswordHash) != "hash" {
		t.Fatalf("unexpected password hash: %q", got.PasswordHash)
	}
}

func TestGetByLogin_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+login,\s*password`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByLogin(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestAddScore_ReturnsNewTotal(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+users\s+SET\s+score\s*=\s*score\s*\+\s*\$2\s+WHERE\s+login\s*=\s*\$1\s+RETURNING\s+score\s*$`

	rows := sqlmock.NewRows([]string{"score"}).AddRow(int64(8))
	mock.ExpectQuery(q).WithArgs("alice", int64(5)).WillReturnRows(rows)

	total, err := repo.AddScore(context.Background(), "alice", 5)
	if err != nil {
		t.Fatalf("AddScore error: %v", err)
	}
	if total != 8 {
		t.Fatalf("expected total 8, got %d", total)
	}
}

func TestAddScore_UnknownLogin(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`UPDATE\s+users\s+SET\s+score`).
		WithArgs("ghost", int64(5)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.AddScore(context.Background(), "ghost", 5)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestUpdatePassword_ZeroRowsIsNotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+users\s+SET\s+password\s*=\s*\$2`).
		WithArgs("ghost", "newhash").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdatePassword(context.Background(), "ghost", []byte("newhash"))
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestDelete_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE\s+FROM\s+users\s+WHERE\s+login\s*=\s*\$1`).
		WithArgs("bob").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), "bob"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
}

func TestList_OrderedWithoutPasswords(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+login,\s*admin,\s*test_info\s+FROM\s+users\s+ORDER\s+BY\s+login\s+ASC\s*$`

	records := mustJSON(t, models.DefaultTestRecords())
	rows := sqlmock.NewRows([]string{"login", "admin", "test_info"}).
		AddRow("alice", false, []byte(records)).
		AddRow("bob", true, []byte(records))
	mock.ExpectQuery(q).WillReturnRows(rows)

	got, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(got) != 2 || got[0].Login != "alice" || got[1].Login != "bob" {
		t.Fatalf("unexpected users: %+v", got)
	}
	for _, u := range got {
		if len(u.PasswordHash) != 0 {
			t.Fatalf("password hash leaked for %s", u.Login)
		}
	}
}

func TestSetTestResult_SingleStatement(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+users\s+SET\s+test_info\s*=.*jsonb_array_elements\(test_info\).*WHERE\s+login\s*=\s*\$1\s*$`

	mock.ExpectExec(q).
		WithArgs("alice", 3, int64(90)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SetTestResult(context.Background(), "alice", 3, 90); err != nil {
		t.Fatalf("SetTestResult error: %v", err)
	}
}

func TestSetTestResult_UnknownLogin(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+users\s+SET\s+test_info`).
		WithArgs("ghost", 3, int64(90)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetTestResult(context.Background(), "ghost", 3, 90)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestAppendSubmission_ReturnsScoreAndHistory(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	sub := models.Submission{TestID: 4, Date: "2026-08-31", Score: 25}
	entry := mustJSON(t, []models.Submission{sub})
	history := mustJSON(t, []models.Submission{sub})

	q := `(?s)^UPDATE\s+users\s+SET\s+submissions\s*=\s*submissions\s*\|\|\s*\$2::jsonb,\s*score\s*=\s*score\s*\+\s*\$3.*RETURNING\s+score,\s*submissions\s*$`

	rows := sqlmock.NewRows([]string{"score", "submissions"}).AddRow(int64(25), []byte(history))
	mock.ExpectQuery(q).WithArgs("alice", entry, int64(25)).WillReturnRows(rows)

	total, subs, err := repo.AppendSubmission(context.Background(), "alice", sub)
	if err != nil {
		t.Fatalf("AppendSubmission error: %v", err)
	}
	if total != 25 || len(subs) != 1 || subs[0].TestID != 4 {
		t.Fatalf("unexpected result: total=%d subs=%+v", total, subs)
	}
}
