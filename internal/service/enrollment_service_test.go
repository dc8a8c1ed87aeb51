package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unirecords/university-api/internal/client"
	"github.com/unirecords/university-api/internal/models"
	"github.com/unirecords/university-api/internal/repository"
	appErrors "github.com/unirecords/university-api/pkg/errors"
)

type fakeEnrollmentStore struct {
	enrollments  []models.Enrollment
	activePairs  map[[2]int64]bool
	insertErr    error
	inserted     *models.Enrollment
	updated      map[string]interface{}
	existsCalled bool
}

func newFakeEnrollmentStore() *fakeEnrollmentStore {
	return &fakeEnrollmentStore{activePairs: map[[2]int64]bool{}}
}

func (f *fakeEnrollmentStore) List(ctx context.Context) ([]models.Enrollment, error) {
	return f.enrollments, nil
}

func (f *fakeEnrollmentStore) FindByID(ctx context.Context, id int64) (*models.Enrollment, error) {
	for i := range f.enrollments {
		if f.enrollments[i].ID == id {
			return &f.enrollments[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeEnrollmentStore) Insert(ctx context.Context, enrollment *models.Enrollment) (*models.Enrollment, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	stored := *enrollment
	stored.ID = int64(len(f.enrollments) + 1)
	f.enrollments = append(f.enrollments, stored)
	f.inserted = &stored
	if stored.Status == models.EnrollmentStatusActive {
		f.activePairs[[2]int64{stored.StudentID, stored.CourseID}] = true
	}
	return &stored, nil
}

func (f *fakeEnrollmentStore) Update(ctx context.Context, id int64, fields map[string]interface{}) (*models.Enrollment, error) {
	f.updated = fields
	for i := range f.enrollments {
		if f.enrollments[i].ID == id {
			if status, ok := fields["status"]; ok {
				f.enrollments[i].Status = status.(models.EnrollmentStatus)
				if f.enrollments[i].Status != models.EnrollmentStatusActive {
					delete(f.activePairs, [2]int64{f.enrollments[i].StudentID, f.enrollments[i].CourseID})
				}
			}
			return &f.enrollments[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeEnrollmentStore) Delete(ctx context.Context, id int64) error {
	for i := range f.enrollments {
		if f.enrollments[i].ID == id {
			f.enrollments = append(f.enrollments[:i], f.enrollments[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeEnrollmentStore) ExistsActive(ctx context.Context, studentID, courseID int64) (bool, error) {
	f.existsCalled = true
	return f.activePairs[[2]int64{studentID, courseID}], nil
}

func (f *fakeEnrollmentStore) ListByStudent(ctx context.Context, studentID int64) ([]models.Enrollment, error) {
	var out []models.Enrollment
	for _, e := range f.enrollments {
		if e.StudentID == studentID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEnrollmentStore) ListByCourse(ctx context.Context, courseID int64) ([]models.Enrollment, error) {
	var out []models.Enrollment
	for _, e := range f.enrollments {
		if e.CourseID == courseID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeDirectory struct {
	student      client.Existence
	course       client.Existence
	studentCalls int
	courseCalls  int
}

func (f *fakeDirectory) StudentExists(ctx context.Context, id int64) client.Existence {
	f.studentCalls++
	return f.student
}

func (f *fakeDirectory) CourseExists(ctx context.Context, id int64) client.Existence {
	f.courseCalls++
	return f.course
}

func newEnrollmentService(store enrollmentStore, peers directory) *EnrollmentService {
	return NewEnrollmentService(store, peers, nil)
}

func TestEnrollmentCreateDefaultsToActive(t *testing.T) {
	store := newFakeEnrollmentStore()
	peers := &fakeDirectory{student: client.ExistenceConfirmed, course: client.ExistenceConfirmed}
	svc := newEnrollmentService(store, peers)

	stored, err := svc.Create(context.Background(), CreateEnrollmentRequest{StudentID: 1, CourseID: 2})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusActive, stored.Status)
	assert.Equal(t, int64(1), stored.StudentID)
	assert.Equal(t, int64(2), stored.CourseID)
	assert.Equal(t, 1, peers.studentCalls)
	assert.Equal(t, 1, peers.courseCalls)
	assert.True(t, store.existsCalled)
}

func TestEnrollmentCreateKeepsExplicitStatus(t *testing.T) {
	store := newFakeEnrollmentStore()
	peers := &fakeDirectory{student: client.ExistenceConfirmed, course: client.ExistenceConfirmed}
	svc := newEnrollmentService(store, peers)

	stored, err := svc.Create(context.Background(), CreateEnrollmentRequest{
		StudentID: 1,
		CourseID:  2,
		Status:    models.EnrollmentStatusCompleted,
	})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusCompleted, stored.Status)
}

func TestEnrollmentCreateStudentAbsent(t *testing.T) {
	store := newFakeEnrollmentStore()
	peers := &fakeDirectory{student: client.ExistenceAbsent, course: client.ExistenceConfirmed}
	svc := newEnrollmentService(store, peers)

	_, err := svc.Create(context.Background(), CreateEnrollmentRequest{StudentID: 99, CourseID: 2})
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Equal(t, "Student not found", appErr.Message)
	assert.Equal(t, 0, peers.courseCalls, "course check must not run after the student check fails")
	assert.False(t, store.existsCalled)
}

func TestEnrollmentCreateCourseAbsent(t *testing.T) {
	store := newFakeEnrollmentStore()
	peers := &fakeDirectory{student: client.ExistenceConfirmed, course: client.ExistenceAbsent}
	svc := newEnrollmentService(store, peers)

	_, err := svc.Create(context.Background(), CreateEnrollmentRequest{StudentID: 1, CourseID: 99})
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Equal(t, "Course not found", appErr.Message)
	assert.False(t, store.existsCalled)
}

func TestEnrollmentCreatePeerUnreachableTreatedAsNotFound(t *testing.T) {
	store := newFakeEnrollmentStore()
	peers := &fakeDirectory{student: client.ExistenceUnknown}
	svc := newEnrollmentService(store, peers)

	_, err := svc.Create(context.Background(), CreateEnrollmentRequest{StudentID: 1, CourseID: 2})
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Equal(t, "Student not found", appErr.Message)
	assert.Equal(t, 0, peers.courseCalls)
}

func TestEnrollmentCreateDuplicateActive(t *testing.T) {
	store := newFakeEnrollmentStore()
	store.activePairs[[2]int64{1, 2}] = true
	peers := &fakeDirectory{student: client.ExistenceConfirmed, course: client.ExistenceConfirmed}
	svc := newEnrollmentService(store, peers)

	_, err := svc.Create(context.Background(), CreateEnrollmentRequest{StudentID: 1, CourseID: 2})
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusConflict, appErr.Status)
	assert.Equal(t, "Student is already enrolled in this course", appErr.Message)
	assert.Nil(t, store.inserted)
}

func TestEnrollmentCreateInsertDuplicateMapsToConflict(t *testing.T) {
	store := newFakeEnrollmentStore()
	store.insertErr = repository.ErrDuplicate
	peers := &fakeDirectory{student: client.ExistenceConfirmed, course: client.ExistenceConfirmed}
	svc := newEnrollmentService(store, peers)

	_, err := svc.Create(context.Background(), CreateEnrollmentRequest{StudentID: 1, CourseID: 2})
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusConflict, appErr.Status)
	assert.Equal(t, "Student is already enrolled in this course", appErr.Message)
}

func TestEnrollmentCreateValidation(t *testing.T) {
	store := newFakeEnrollmentStore()
	peers := &fakeDirectory{student: client.ExistenceConfirmed, course: client.ExistenceConfirmed}
	svc := newEnrollmentService(store, peers)

	_, err := svc.Create(context.Background(), CreateEnrollmentRequest{CourseID: 2})
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	require.NotEmpty(t, appErr.Details)
	assert.Equal(t, "studentId", appErr.Details[0].Field)
	assert.Equal(t, 0, peers.studentCalls, "remote checks must not run for invalid payloads")
}

func TestEnrollmentReEnrollAfterDrop(t *testing.T) {
	store := newFakeEnrollmentStore()
	peers := &fakeDirectory{student: client.ExistenceConfirmed, course: client.ExistenceConfirmed}
	svc := newEnrollmentService(store, peers)

	first, err := svc.Create(context.Background(), CreateEnrollmentRequest{StudentID: 1, CourseID: 2})
	require.NoError(t, err)

	dropped := models.EnrollmentStatusDropped
	_, err = svc.Update(context.Background(), first.ID, UpdateEnrollmentRequest{Status: &dropped})
	require.NoError(t, err)
	assert.Equal(t, dropped, store.updated["status"])

	// The pair no longer has an active row, so a second enrollment is allowed.
	second, err := svc.Create(context.Background(), CreateEnrollmentRequest{StudentID: 1, CourseID: 2})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestEnrollmentUpdateAbsent(t *testing.T) {
	store := newFakeEnrollmentStore()
	svc := newEnrollmentService(store, &fakeDirectory{})

	grade := "A"
	_, err := svc.Update(context.Background(), 42, UpdateEnrollmentRequest{Grade: &grade})
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Equal(t, "Enrollment not found", appErr.Message)
}

func TestEnrollmentGetAbsent(t *testing.T) {
	store := newFakeEnrollmentStore()
	svc := newEnrollmentService(store, &fakeDirectory{})

	_, err := svc.Get(context.Background(), 42)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Equal(t, "Enrollment not found", appErr.Message)
}

func TestEnrollmentDeleteAbsent(t *testing.T) {
	store := newFakeEnrollmentStore()
	svc := newEnrollmentService(store, &fakeDirectory{})

	err := svc.Delete(context.Background(), 42)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
}

func TestEnrollmentListByStudentFilters(t *testing.T) {
	store := newFakeEnrollmentStore()
	store.enrollments = []models.Enrollment{
		{ID: 1, StudentID: 5, CourseID: 10, Status: models.EnrollmentStatusActive},
		{ID: 2, StudentID: 6, CourseID: 10, Status: models.EnrollmentStatusActive},
	}
	svc := newEnrollmentService(store, &fakeDirectory{})

	enrollments, err := svc.ListByStudent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	assert.Equal(t, int64(1), enrollments[0].ID)
}
