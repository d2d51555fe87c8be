package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/vidyasetu/vidyasetu/internal/models"
)

var userCols = []string{
	"id", "role", "name", "email", "contact_number", "whatsapp_number", "address",
	"profile_photo", "qualifications", "subject", "coaching_name", "coaching_id",
}

func setupUserMock(t *testing.T) (*PostgresUserRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	return NewPostgresUserRepository(db), mock, func() { db.Close() }
}

func TestFindByIdentifier(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectQuery(`FROM users\s+WHERE id = \$1 OR`).
		WithArgs("Asha@Example.com").
		WillReturnRows(sqlmock.NewRows(append(userCols, "password_hash")).
			AddRow("t1", "TEACHER", "Asha", "asha@example.com", "98", "", "", "", "", "Physics", "Bright", "c1", "$2a$hash"))

	acct, err := repo.FindByIdentifier(context.Background(), "Asha@Example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acct.ID != "t1" || acct.Role != models.RoleTeacher || acct.Subject != "Physics" || acct.CoachingID != "c1" {
		t.Errorf("unexpected user: %+v", acct.User)
	}
	if acct.PasswordHash != "$2a$hash" {
		t.Errorf("PasswordHash = %q", acct.PasswordHash)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestFindByIdentifier_PrefersIDMatch(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectQuery(`WHERE id = \$1 OR .+\s+ORDER BY \(id = \$1\) DESC\s+LIMIT 1`).
		WithArgs("ravi@example.com").
		WillReturnRows(sqlmock.NewRows(append(userCols, "password_hash")).
			AddRow("ravi@example.com", "STUDENT", "Ravi", "", "", "", "", "", "", "", "", "", "$2a$hash"))

	acct, err := repo.FindByIdentifier(context.Background(), "ravi@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acct.ID != "ravi@example.com" {
		t.Errorf("ID = %q, want the id match", acct.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestFindByIdentifier_NotFound(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectQuery(`FROM users`).WithArgs("nobody").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByIdentifier(context.Background(), "nobody")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v; want ErrNotFound", err)
	}
}

func TestFindByID(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = $1`)).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("s1", "STUDENT", "Ravi", "", "", "", "", "", "", "", "", "c1"))

	u, err := repo.FindByID(context.Background(), "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Role != models.RoleStudent || u.Name != "Ravi" {
		t.Errorf("unexpected user: %+v", u)
	}
}

func TestFindByID_QueryError(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectQuery(`FROM users`).WillReturnError(errors.New("query failed"))

	_, err := repo.FindByID(context.Background(), "s1")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v; want query failure", err)
	}
}

func TestCreateUser(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs("a1", "admin@example.com", "hash", "SUPER_ADMIN", "Owner",
			"", "", "", "", "", "", "", "").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.CreateUser(context.Background(), models.Account{
		User:         models.User{ID: "a1", Role: models.RoleSuperAdmin, Name: "Owner", Email: "admin@example.com"},
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	u := models.User{ID: "t1", Name: "Asha K", ProfilePhoto: "/uploads/x.jpg"}
	mock.ExpectExec(`UPDATE users\s+SET name = \$2`).
		WithArgs("t1", "Asha K", "", "", "", "/uploads/x.jpg", "", "", "", "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.UpdateProfile(context.Background(), u); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.UpdateProfile(context.Background(), models.User{ID: "gone"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v; want ErrNotFound", err)
	}
}

func TestUpdatePassword(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectExec(`UPDATE users SET password_hash = \$2`).
		WithArgs("a@example.com", "newhash").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdatePassword(context.Background(), "a@example.com", "newhash"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSessions(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO sessions (token, user_id) VALUES ($1, $2)`)).
		WithArgs("tok", "t1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT user_id FROM sessions WHERE token = $1`)).
		WithArgs("tok").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("t1"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT user_id FROM sessions`)).
		WithArgs("stale").
		WillReturnError(sql.ErrNoRows)

	ctx := context.Background()
	if err := repo.CreateSession(ctx, "tok", "t1"); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	id, err := repo.UserIDForToken(ctx, "tok")
	if err != nil || id != "t1" {
		t.Errorf("UserIDForToken = %q, %v", id, err)
	}
	if _, err := repo.UserIDForToken(ctx, "stale"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v; want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestResetCodes(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectExec(`INSERT INTO password_resets`).
		WithArgs("a@example.com", "123456", now.Add(10*time.Minute)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`DELETE FROM password_resets`).
		WithArgs("a@example.com", "123456", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM password_resets`).
		WithArgs("a@example.com", "123456", now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ctx := context.Background()
	if err := repo.SaveResetCode(ctx, "a@example.com", "123456", now.Add(10*time.Minute)); err != nil {
		t.Fatalf("SaveResetCode: %v", err)
	}
	ok, err := repo.ConsumeResetCode(ctx, "a@example.com", "123456", now)
	if err != nil || !ok {
		t.Errorf("first consume = %v, %v; want true", ok, err)
	}
	ok, err = repo.ConsumeResetCode(ctx, "a@example.com", "123456", now)
	if err != nil || ok {
		t.Errorf("second consume = %v, %v; want false", ok, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
