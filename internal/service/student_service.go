package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/unirecords/university-api/internal/models"
	"github.com/unirecords/university-api/internal/repository"
	appErrors "github.com/unirecords/university-api/pkg/errors"
)

type studentStore interface {
	List(ctx context.Context) ([]models.Student, error)
	FindByID(ctx context.Context, id int64) (*models.Student, error)
	Insert(ctx context.Context, student *models.Student) (*models.Student, error)
	Update(ctx context.Context, id int64, fields map[string]interface{}) (*models.Student, error)
	Delete(ctx context.Context, id int64) error
}

// ReadCache is the subset of the cache repository the read-side services
// use. A nil ReadCache disables caching entirely.
type ReadCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CreateStudentRequest carries the fields accepted on student creation.
type CreateStudentRequest struct {
	FirstName   string  `json:"firstName" validate:"required"`
	LastName    string  `json:"lastName" validate:"required"`
	Email       string  `json:"email" validate:"required,email"`
	Phone       *string `json:"phone"`
	StudentID   string  `json:"studentId" validate:"required"`
	DateOfBirth *string `json:"dateOfBirth"`
	Address     *string `json:"address"`
}

// UpdateStudentRequest carries the optional fields accepted on update. The
// external student code is immutable and deliberately absent.
type UpdateStudentRequest struct {
	FirstName   *string `json:"firstName" validate:"omitempty,min=1"`
	LastName    *string `json:"lastName" validate:"omitempty,min=1"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Phone       *string `json:"phone"`
	DateOfBirth *string `json:"dateOfBirth"`
	Address     *string `json:"address"`
}

// StudentService handles student record workflows.
type StudentService struct {
	store     studentStore
	cache     ReadCache
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs StudentService. cache may be nil to disable
// the read cache.
func NewStudentService(store studentStore, cache ReadCache, cacheTTL time.Duration, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{store: store, cache: cache, cacheTTL: cacheTTL, validator: newValidator(), logger: logger}
}

// List returns all students.
func (s *StudentService) List(ctx context.Context) ([]models.Student, error) {
	if s.cache != nil {
		var cached []models.Student
		if err := s.cache.Get(ctx, "students:list", &cached); err == nil {
			return cached, nil
		}
	}
	students, err := s.store.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, "students:list", students, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache student list", zap.Error(err))
		}
	}
	return students, nil
}

// Get returns one student by id.
func (s *StudentService) Get(ctx context.Context, id int64) (*models.Student, error) {
	key := fmt.Sprintf("students:id:%d", id)
	if s.cache != nil {
		var cached models.Student
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}
	student, err := s.store.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, student, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache student", zap.Error(err))
		}
	}
	return student, nil
}

// Create validates and persists a new student.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError("invalid student payload", err)
	}
	student := &models.Student{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
		StudentID:   req.StudentID,
		DateOfBirth: req.DateOfBirth,
		Address:     req.Address,
	}
	stored, err := s.store.Insert(ctx, student)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "A student with this email or student ID already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	s.invalidate(ctx)
	return stored, nil
}

// Update applies a partial update to a student.
func (s *StudentService) Update(ctx context.Context, id int64, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError("invalid student payload", err)
	}
	fields := map[string]interface{}{}
	if req.FirstName != nil {
		fields["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		fields["last_name"] = *req.LastName
	}
	if req.Email != nil {
		fields["email"] = *req.Email
	}
	if req.Phone != nil {
		fields["phone"] = *req.Phone
	}
	if req.DateOfBirth != nil {
		fields["date_of_birth"] = *req.DateOfBirth
	}
	if req.Address != nil {
		fields["address"] = *req.Address
	}
	stored, err := s.store.Update(ctx, id, fields)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Student not found")
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "A student with this email already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	s.invalidate(ctx)
	return stored, nil
}

// Delete removes a student by id.
func (s *StudentService) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "Student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	s.invalidate(ctx)
	return nil
}

func (s *StudentService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "students:*"); err != nil {
		s.logger.Warn("failed to invalidate student cache", zap.Error(err))
	}
}
