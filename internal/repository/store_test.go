package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unirecords/university-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func studentColumns() []string {
	return []string{"id", "first_name", "last_name", "email", "phone", "student_id", "date_of_birth", "address", "enrollment_date", "created_at", "updated_at"}
}

func studentRow(id int64, email string) []driverValue {
	now := time.Now()
	return []driverValue{id, "Ada", "Lovelace", email, nil, "STU-001", nil, nil, now, now, now}
}

type driverValue = driver.Value

func TestStoreList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	store := NewStudentStore(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM students ORDER BY id")).
		WillReturnRows(sqlmock.NewRows(studentColumns()).
			AddRow(studentRow(1, "ada@example.edu")...).
			AddRow(studentRow(2, "grace@example.edu")...))

	students, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, students, 2)
	assert.Equal(t, int64(1), students[0].ID)
	assert.Equal(t, "grace@example.edu", students[1].Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	store := NewStudentStore(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM students WHERE id = $1")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(studentColumns()).AddRow(studentRow(7, "ada@example.edu")...))

	student, err := store.FindByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), student.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreFindByIDAbsent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	store := NewStudentStore(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM students WHERE id = $1")).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := store.FindByID(context.Background(), 99)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreInsertReturnsStoredRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	store := NewStudentStore(db)

	mock.ExpectQuery("INSERT INTO students \\(first_name, last_name, email, phone, student_id, date_of_birth, address, enrollment_date, created_at, updated_at\\) VALUES .+ RETURNING \\*").
		WithArgs("Ada", "Lovelace", "ada@example.edu", nil, "STU-001", nil, nil).
		WillReturnRows(sqlmock.NewRows(studentColumns()).AddRow(studentRow(1, "ada@example.edu")...))

	stored, err := store.Insert(context.Background(), &models.Student{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.edu",
		StudentID: "STU-001",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.ID)
	assert.Equal(t, "ada@example.edu", stored.Email)
	assert.False(t, stored.EnrollmentDate.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreInsertUniqueViolation(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	store := NewStudentStore(db)

	mock.ExpectQuery("INSERT INTO students").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "students_email_key"})

	_, err := store.Insert(context.Background(), &models.Student{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.edu",
		StudentID: "STU-001",
	})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Contains(t, err.Error(), "students_email_key")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreUpdatePartialFields(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	store := NewStudentStore(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE students SET email = $1, first_name = $2, updated_at = now() WHERE id = $3 RETURNING *")).
		WithArgs("new@example.edu", "Grace", int64(1)).
		WillReturnRows(sqlmock.NewRows(studentColumns()).AddRow(studentRow(1, "new@example.edu")...))

	stored, err := store.Update(context.Background(), 1, map[string]interface{}{
		"first_name": "Grace",
		"email":      "new@example.edu",
	})
	require.NoError(t, err)
	assert.Equal(t, "new@example.edu", stored.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreUpdateEmptyFieldsOnlyRefreshesTimestamp(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	store := NewStudentStore(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE students SET updated_at = now() WHERE id = $1 RETURNING *")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(studentColumns()).AddRow(studentRow(1, "ada@example.edu")...))

	stored, err := store.Update(context.Background(), 1, map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreUpdateAbsent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	store := NewStudentStore(db)

	mock.ExpectQuery("UPDATE students SET").
		WillReturnError(sql.ErrNoRows)

	_, err := store.Update(context.Background(), 42, map[string]interface{}{"email": "x@example.edu"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	store := NewStudentStore(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students WHERE id = $1")).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Delete(context.Background(), 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreDeleteAbsent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	store := NewStudentStore(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students WHERE id = $1")).
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Delete(context.Background(), 42)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}
