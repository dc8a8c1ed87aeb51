package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unirecords/university-api/internal/models"
	"github.com/unirecords/university-api/internal/repository"
	appErrors "github.com/unirecords/university-api/pkg/errors"
)

type fakeCourseStore struct {
	courses   []models.Course
	insertErr error
	updated   map[string]interface{}
}

func (f *fakeCourseStore) List(ctx context.Context) ([]models.Course, error) {
	return f.courses, nil
}

func (f *fakeCourseStore) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	for i := range f.courses {
		if f.courses[i].ID == id {
			return &f.courses[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeCourseStore) Insert(ctx context.Context, course *models.Course) (*models.Course, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	stored := *course
	stored.ID = int64(len(f.courses) + 1)
	f.courses = append(f.courses, stored)
	return &stored, nil
}

func (f *fakeCourseStore) Update(ctx context.Context, id int64, fields map[string]interface{}) (*models.Course, error) {
	f.updated = fields
	for i := range f.courses {
		if f.courses[i].ID == id {
			return &f.courses[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeCourseStore) Delete(ctx context.Context, id int64) error {
	for i := range f.courses {
		if f.courses[i].ID == id {
			f.courses = append(f.courses[:i], f.courses[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func TestCourseCreate(t *testing.T) {
	store := &fakeCourseStore{}
	svc := NewCourseService(store, nil, 0, nil)

	stored, err := svc.Create(context.Background(), CreateCourseRequest{
		CourseCode: "CS-101",
		CourseName: "Intro to Computer Science",
		Credits:    3,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.ID)
	assert.Equal(t, "CS-101", stored.CourseCode)
}

func TestCourseCreateDuplicateCode(t *testing.T) {
	store := &fakeCourseStore{insertErr: repository.ErrDuplicate}
	svc := NewCourseService(store, nil, 0, nil)

	_, err := svc.Create(context.Background(), CreateCourseRequest{
		CourseCode: "CS-101",
		CourseName: "Intro to Computer Science",
		Credits:    3,
	})
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusConflict, appErr.Status)
	assert.Equal(t, "A course with this course code already exists", appErr.Message)
}

func TestCourseCreateRequiresCredits(t *testing.T) {
	svc := NewCourseService(&fakeCourseStore{}, nil, 0, nil)

	_, err := svc.Create(context.Background(), CreateCourseRequest{
		CourseCode: "CS-101",
		CourseName: "Intro to Computer Science",
	})
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	require.NotEmpty(t, appErr.Details)
	assert.Equal(t, "credits", appErr.Details[0].Field)
}

func TestCourseUpdateNeverTouchesCourseCode(t *testing.T) {
	store := &fakeCourseStore{courses: []models.Course{{ID: 1, CourseCode: "CS-101", CourseName: "Intro to Computer Science", Credits: 3}}}
	svc := NewCourseService(store, nil, 0, nil)

	name := "Computer Science I"
	credits := 4
	_, err := svc.Update(context.Background(), 1, UpdateCourseRequest{CourseName: &name, Credits: &credits})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"course_name": "Computer Science I", "credits": 4}, store.updated)
}

func TestCourseGetCachesRow(t *testing.T) {
	store := &fakeCourseStore{courses: []models.Course{{ID: 1, CourseCode: "CS-101", CourseName: "Intro to Computer Science", Credits: 3}}}
	cache := newFakeCache()
	svc := NewCourseService(store, cache, time.Minute, nil)

	first, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	require.Contains(t, cache.entries, "courses:id:1")

	// Drop the backing row; the cached copy still answers.
	store.courses = nil
	second, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, first.CourseCode, second.CourseCode)
}

func TestCourseGetAbsent(t *testing.T) {
	svc := NewCourseService(&fakeCourseStore{}, nil, 0, nil)

	_, err := svc.Get(context.Background(), 42)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Equal(t, "Course not found", appErr.Message)
}
