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

type courseStore interface {
	List(ctx context.Context) ([]models.Course, error)
	FindByID(ctx context.Context, id int64) (*models.Course, error)
	Insert(ctx context.Context, course *models.Course) (*models.Course, error)
	Update(ctx context.Context, id int64, fields map[string]interface{}) (*models.Course, error)
	Delete(ctx context.Context, id int64) error
}

// CreateCourseRequest carries the fields accepted on course creation.
type CreateCourseRequest struct {
	CourseCode  string  `json:"courseCode" validate:"required"`
	CourseName  string  `json:"courseName" validate:"required"`
	Description *string `json:"description"`
	Credits     int     `json:"credits" validate:"required,min=1"`
	Department  *string `json:"department"`
	Semester    *string `json:"semester"`
	MaxStudents *int    `json:"maxStudents" validate:"omitempty,min=1"`
}

// UpdateCourseRequest carries the optional fields accepted on update. The
// course code is immutable post-creation and deliberately absent.
type UpdateCourseRequest struct {
	CourseName  *string `json:"courseName" validate:"omitempty,min=1"`
	Description *string `json:"description"`
	Credits     *int    `json:"credits" validate:"omitempty,min=1"`
	Department  *string `json:"department"`
	Semester    *string `json:"semester"`
	MaxStudents *int    `json:"maxStudents" validate:"omitempty,min=1"`
}

// CourseService handles course record workflows.
type CourseService struct {
	store     courseStore
	cache     ReadCache
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs CourseService. cache may be nil to disable the
// read cache.
func NewCourseService(store courseStore, cache ReadCache, cacheTTL time.Duration, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{store: store, cache: cache, cacheTTL: cacheTTL, validator: newValidator(), logger: logger}
}

// List returns all courses.
func (s *CourseService) List(ctx context.Context) ([]models.Course, error) {
	if s.cache != nil {
		var cached []models.Course
		if err := s.cache.Get(ctx, "courses:list", &cached); err == nil {
			return cached, nil
		}
	}
	courses, err := s.store.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, "courses:list", courses, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache course list", zap.Error(err))
		}
	}
	return courses, nil
}

// Get returns one course by id.
func (s *CourseService) Get(ctx context.Context, id int64) (*models.Course, error) {
	key := fmt.Sprintf("courses:id:%d", id)
	if s.cache != nil {
		var cached models.Course
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}
	course, err := s.store.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, course, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache course", zap.Error(err))
		}
	}
	return course, nil
}

// Create validates and persists a new course.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError("invalid course payload", err)
	}
	course := &models.Course{
		CourseCode:  req.CourseCode,
		CourseName:  req.CourseName,
		Description: req.Description,
		Credits:     req.Credits,
		Department:  req.Department,
		Semester:    req.Semester,
		MaxStudents: req.MaxStudents,
	}
	stored, err := s.store.Insert(ctx, course)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "A course with this course code already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.invalidate(ctx)
	return stored, nil
}

// Update applies a partial update to a course.
func (s *CourseService) Update(ctx context.Context, id int64, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError("invalid course payload", err)
	}
	fields := map[string]interface{}{}
	if req.CourseName != nil {
		fields["course_name"] = *req.CourseName
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Credits != nil {
		fields["credits"] = *req.Credits
	}
	if req.Department != nil {
		fields["department"] = *req.Department
	}
	if req.Semester != nil {
		fields["semester"] = *req.Semester
	}
	if req.MaxStudents != nil {
		fields["max_students"] = *req.MaxStudents
	}
	stored, err := s.store.Update(ctx, id, fields)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	s.invalidate(ctx)
	return stored, nil
}

// Delete removes a course by id.
func (s *CourseService) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "Course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	s.invalidate(ctx)
	return nil
}

func (s *CourseService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "courses:*"); err != nil {
		s.logger.Warn("failed to invalidate course cache", zap.Error(err))
	}
}
