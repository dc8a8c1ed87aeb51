package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/unirecords/university-api/internal/client"
	"github.com/unirecords/university-api/internal/models"
	"github.com/unirecords/university-api/internal/repository"
	appErrors "github.com/unirecords/university-api/pkg/errors"
)

type enrollmentStore interface {
	List(ctx context.Context) ([]models.Enrollment, error)
	FindByID(ctx context.Context, id int64) (*models.Enrollment, error)
	Insert(ctx context.Context, enrollment *models.Enrollment) (*models.Enrollment, error)
	Update(ctx context.Context, id int64, fields map[string]interface{}) (*models.Enrollment, error)
	Delete(ctx context.Context, id int64) error
	ExistsActive(ctx context.Context, studentID, courseID int64) (bool, error)
	ListByStudent(ctx context.Context, studentID int64) ([]models.Enrollment, error)
	ListByCourse(ctx context.Context, courseID int64) ([]models.Enrollment, error)
}

type directory interface {
	StudentExists(ctx context.Context, id int64) client.Existence
	CourseExists(ctx context.Context, id int64) client.Existence
}

// CreateEnrollmentRequest carries the fields accepted on enrollment creation.
type CreateEnrollmentRequest struct {
	StudentID    int64                   `json:"studentId" validate:"required,min=1"`
	CourseID     int64                   `json:"courseId" validate:"required,min=1"`
	Status       models.EnrollmentStatus `json:"status" validate:"omitempty,oneof=active completed dropped"`
	Semester     *string                 `json:"semester"`
	AcademicYear *string                 `json:"academicYear"`
}

// UpdateEnrollmentRequest carries the optional fields accepted on update.
// The referenced student and course are fixed for the life of the row.
type UpdateEnrollmentRequest struct {
	Status       *models.EnrollmentStatus `json:"status" validate:"omitempty,oneof=active completed dropped"`
	Grade        *string                  `json:"grade"`
	Semester     *string                  `json:"semester"`
	AcademicYear *string                  `json:"academicYear"`
}

// EnrollmentService orchestrates the enrollment workflows, including the
// cross-service existence checks and the duplicate-active guard that run
// before every insert.
type EnrollmentService struct {
	store     enrollmentStore
	peers     directory
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(store enrollmentStore, peers directory, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{store: store, peers: peers, validator: newValidator(), logger: logger}
}

// List returns all enrollments.
func (s *EnrollmentService) List(ctx context.Context) ([]models.Enrollment, error) {
	enrollments, err := s.store.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, nil
}

// Get returns one enrollment by id.
func (s *EnrollmentService) Get(ctx context.Context, id int64) (*models.Enrollment, error) {
	enrollment, err := s.store.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return enrollment, nil
}

// ListByStudent returns the enrollments referencing the given student.
func (s *EnrollmentService) ListByStudent(ctx context.Context, studentID int64) ([]models.Enrollment, error) {
	enrollments, err := s.store.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, nil
}

// ListByCourse returns the enrollments referencing the given course.
func (s *EnrollmentService) ListByCourse(ctx context.Context, courseID int64) ([]models.Enrollment, error) {
	enrollments, err := s.store.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, nil
}

// Create enrolls a student in a course. The referenced student and course
// must exist in their owning services at creation time (checked in that
// order, fail-fast, one remote read each), and at most one active enrollment
// may exist per (student, course) pair. The duplicate check and the insert
// are separate round trips, so two concurrent requests for the same pair can
// both pass the check; deployments that need the invariant under concurrency
// add the partial unique index described in DESIGN.md.
func (s *EnrollmentService) Create(ctx context.Context, req CreateEnrollmentRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError("invalid enrollment payload", err)
	}

	if existence := s.peers.StudentExists(ctx, req.StudentID); existence != client.ExistenceConfirmed {
		// Unreachable and absent collapse into the same not-found outcome;
		// only the log line tells them apart.
		if existence == client.ExistenceUnknown {
			s.logger.Warn("student service unreachable during enrollment, treating as not found",
				zap.Int64("student_id", req.StudentID))
		}
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Student not found")
	}
	if existence := s.peers.CourseExists(ctx, req.CourseID); existence != client.ExistenceConfirmed {
		if existence == client.ExistenceUnknown {
			s.logger.Warn("course service unreachable during enrollment, treating as not found",
				zap.Int64("course_id", req.CourseID))
		}
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Course not found")
	}

	exists, err := s.store.ExistsActive(ctx, req.StudentID, req.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing enrollment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "Student is already enrolled in this course")
	}

	status := req.Status
	if status == "" {
		status = models.EnrollmentStatusActive
	}
	enrollment := &models.Enrollment{
		StudentID:    req.StudentID,
		CourseID:     req.CourseID,
		Status:       status,
		Semester:     req.Semester,
		AcademicYear: req.AcademicYear,
	}
	stored, err := s.store.Insert(ctx, enrollment)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "Student is already enrolled in this course")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}
	return stored, nil
}

// Update applies a partial update to an enrollment; this is how a row moves
// from active to completed or dropped.
func (s *EnrollmentService) Update(ctx context.Context, id int64, req UpdateEnrollmentRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError("invalid enrollment payload", err)
	}
	fields := map[string]interface{}{}
	if req.Status != nil {
		fields["status"] = *req.Status
	}
	if req.Grade != nil {
		fields["grade"] = *req.Grade
	}
	if req.Semester != nil {
		fields["semester"] = *req.Semester
	}
	if req.AcademicYear != nil {
		fields["academic_year"] = *req.AcademicYear
	}
	stored, err := s.store.Update(ctx, id, fields)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment")
	}
	return stored, nil
}

// Delete removes an enrollment by id.
func (s *EnrollmentService) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "Enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete enrollment")
	}
	return nil
}
