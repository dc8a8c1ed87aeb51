package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unirecords/university-api/internal/models"
	"github.com/unirecords/university-api/internal/repository"
	appErrors "github.com/unirecords/university-api/pkg/errors"
)

type fakeStudentStore struct {
	students  []models.Student
	insertErr error
	updateErr error
	listCalls int
}

func (f *fakeStudentStore) List(ctx context.Context) ([]models.Student, error) {
	f.listCalls++
	return f.students, nil
}

func (f *fakeStudentStore) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	for i := range f.students {
		if f.students[i].ID == id {
			return &f.students[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStudentStore) Insert(ctx context.Context, student *models.Student) (*models.Student, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	stored := *student
	stored.ID = int64(len(f.students) + 1)
	f.students = append(f.students, stored)
	return &stored, nil
}

func (f *fakeStudentStore) Update(ctx context.Context, id int64, fields map[string]interface{}) (*models.Student, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	for i := range f.students {
		if f.students[i].ID == id {
			if email, ok := fields["email"]; ok {
				f.students[i].Email = email.(string)
			}
			return &f.students[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStudentStore) Delete(ctx context.Context, id int64) error {
	for i := range f.students {
		if f.students[i].ID == id {
			f.students = append(f.students[:i], f.students[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

// fakeCache stores marshalled JSON like the real cache repository does, so
// Get exercises the same decode path.
type fakeCache struct {
	entries map[string][]byte
	deleted []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]byte{}}
}

func (f *fakeCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := f.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.entries[key] = raw
	return nil
}

func (f *fakeCache) DeleteByPattern(ctx context.Context, pattern string) error {
	f.deleted = append(f.deleted, pattern)
	f.entries = map[string][]byte{}
	return nil
}

func TestStudentCreate(t *testing.T) {
	store := &fakeStudentStore{}
	svc := NewStudentService(store, nil, 0, nil)

	stored, err := svc.Create(context.Background(), CreateStudentRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.edu",
		StudentID: "STU-001",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.ID)
	assert.Equal(t, "ada@example.edu", stored.Email)
}

func TestStudentCreateValidation(t *testing.T) {
	svc := NewStudentService(&fakeStudentStore{}, nil, 0, nil)

	_, err := svc.Create(context.Background(), CreateStudentRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "not-an-email",
		StudentID: "STU-001",
	})
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	require.NotEmpty(t, appErr.Details)
	assert.Equal(t, "email", appErr.Details[0].Field)
}

func TestStudentCreateDuplicate(t *testing.T) {
	store := &fakeStudentStore{insertErr: repository.ErrDuplicate}
	svc := NewStudentService(store, nil, 0, nil)

	_, err := svc.Create(context.Background(), CreateStudentRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.edu",
		StudentID: "STU-001",
	})
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusConflict, appErr.Status)
	assert.Equal(t, "A student with this email or student ID already exists", appErr.Message)
}

func TestStudentGetAbsent(t *testing.T) {
	svc := NewStudentService(&fakeStudentStore{}, nil, 0, nil)

	_, err := svc.Get(context.Background(), 42)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Equal(t, "Student not found", appErr.Message)
}

func TestStudentListCaches(t *testing.T) {
	store := &fakeStudentStore{students: []models.Student{{ID: 1, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.edu", StudentID: "STU-001"}}}
	cache := newFakeCache()
	svc := NewStudentService(store, cache, time.Minute, nil)

	first, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)

	// Second read is served from the cache.
	second, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first[0].Email, second[0].Email)
	assert.Equal(t, 1, store.listCalls)
}

func TestStudentWriteInvalidatesCache(t *testing.T) {
	store := &fakeStudentStore{students: []models.Student{{ID: 1, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.edu", StudentID: "STU-001"}}}
	cache := newFakeCache()
	svc := NewStudentService(store, cache, time.Minute, nil)

	_, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Contains(t, cache.entries, "students:list")

	email := "new@example.edu"
	_, err = svc.Update(context.Background(), 1, UpdateStudentRequest{Email: &email})
	require.NoError(t, err)
	assert.Contains(t, cache.deleted, "students:*")
	assert.NotContains(t, cache.entries, "students:list")
}

func TestStudentUpdateAbsent(t *testing.T) {
	svc := NewStudentService(&fakeStudentStore{}, nil, 0, nil)

	email := "new@example.edu"
	_, err := svc.Update(context.Background(), 42, UpdateStudentRequest{Email: &email})
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Equal(t, "Student not found", appErr.Message)
}

func TestStudentDelete(t *testing.T) {
	store := &fakeStudentStore{students: []models.Student{{ID: 1, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.edu", StudentID: "STU-001"}}}
	svc := NewStudentService(store, nil, 0, nil)

	require.NoError(t, svc.Delete(context.Background(), 1))
	assert.Empty(t, store.students)

	err := svc.Delete(context.Background(), 1)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
}
