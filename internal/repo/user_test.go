package repo

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

var userCols = []string{"id", "username", "email", "full_name", "password_hash", "role", "is_active", "created_at"}

func TestUserRepo_Create_HashesPassword(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	var stored string
	mock.ExpectQuery(`INSERT INTO users \(username, password_hash, email, full_name, role\)`).
		WithArgs("alice", hashCapture{&stored}, "alice@example.com", "Alice", "inspector").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(1, "alice", "alice@example.com", "Alice", "hash", "inspector", true, time.Now()))

	repo := NewUserRepo(db)
	user, err := repo.Create(context.Background(), "alice", "s3cret", "alice@example.com", "Alice", "inspector")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if user.ID != 1 || user.Role != "inspector" || !user.IsActive {
		t.Errorf("unexpected user: %+v", user)
	}
	if bcrypt.CompareHashAndPassword([]byte(stored), []byte("s3cret")) != nil {
		t.Error("stored hash does not match password")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

// hashCapture records the argument it is matched against.
type hashCapture struct{ dst *string }

func (h hashCapture) Match(v driver.Value) bool {
	s, ok := v.(string)
	if ok {
		*h.dst = s
	}
	return ok
}

func TestUserRepo_Create_Duplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505"})

	_, err = NewUserRepo(db).Create(context.Background(), "alice", "pw", "", "", "inspector")
	if !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestUserRepo_GetByUsername(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, username, email, full_name, password_hash, role, is_active, created_at FROM users WHERE username = \$1`).
		WithArgs("bob").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(2, "bob", "", "", "hash", "admin", false, time.Now()))

	user, err := NewUserRepo(db).GetByUsername(context.Background(), "bob")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if user.Username != "bob" || user.Role != "admin" || user.IsActive {
		t.Errorf("unexpected user: %+v", user)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserRepo_GetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`FROM users WHERE id = \$1`).
		WithArgs(999).
		WillReturnError(sql.ErrNoRows)

	_, err = NewUserRepo(db).GetByID(context.Background(), 999)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserRepo_SetActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`UPDATE users SET is_active = \$1 WHERE id = \$2`).
		WithArgs(false, 3).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(3, "carol", "", "", "hash", "inspector", false, time.Now()))

	user, err := NewUserRepo(db).SetActive(context.Background(), 3, false)
	if err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if user.IsActive {
		t.Error("expected inactive user")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserRepo_ListAndCount(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`FROM users ORDER BY id LIMIT \$1 OFFSET \$2`).
		WithArgs(10, 0).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(1, "admin", "", "", "h", "admin", true, now).
			AddRow(2, "ivan", "", "", "h", "inspector", true, now))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	repo := NewUserRepo(db)
	users, err := repo.List(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(users) != 2 || users[1].Username != "ivan" {
		t.Errorf("unexpected users: %+v", users)
	}
	n, err := repo.Count(context.Background())
	if err != nil || n != 2 {
		t.Errorf("Count = %d, %v", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
