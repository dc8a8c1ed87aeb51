package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/unirecords/university-api/internal/models"
	"github.com/unirecords/university-api/internal/repository"
	appErrors "github.com/unirecords/university-api/pkg/errors"
)

type facultyStore interface {
	List(ctx context.Context) ([]models.Faculty, error)
	FindByID(ctx context.Context, id int64) (*models.Faculty, error)
	Insert(ctx context.Context, member *models.Faculty) (*models.Faculty, error)
	Update(ctx context.Context, id int64, fields map[string]interface{}) (*models.Faculty, error)
	Delete(ctx context.Context, id int64) error
}

// CreateFacultyRequest carries the fields accepted on faculty creation.
// HireDate is an RFC 3339 date string, parsed before persistence.
type CreateFacultyRequest struct {
	FirstName      string  `json:"firstName" validate:"required"`
	LastName       string  `json:"lastName" validate:"required"`
	Email          string  `json:"email" validate:"required,email"`
	Phone          *string `json:"phone"`
	EmployeeID     string  `json:"employeeId" validate:"required"`
	Department     *string `json:"department"`
	Designation    *string `json:"designation"`
	Specialization *string `json:"specialization"`
	HireDate       *string `json:"hireDate"`
}

// UpdateFacultyRequest carries the optional fields accepted on update. The
// employee code is immutable and deliberately absent.
type UpdateFacultyRequest struct {
	FirstName      *string `json:"firstName" validate:"omitempty,min=1"`
	LastName       *string `json:"lastName" validate:"omitempty,min=1"`
	Email          *string `json:"email" validate:"omitempty,email"`
	Phone          *string `json:"phone"`
	Department     *string `json:"department"`
	Designation    *string `json:"designation"`
	Specialization *string `json:"specialization"`
	HireDate       *string `json:"hireDate"`
}

// FacultyService handles faculty record workflows.
type FacultyService struct {
	store     facultyStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFacultyService constructs FacultyService.
func NewFacultyService(store facultyStore, logger *zap.Logger) *FacultyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FacultyService{store: store, validator: newValidator(), logger: logger}
}

// List returns all faculty members.
func (s *FacultyService) List(ctx context.Context) ([]models.Faculty, error) {
	members, err := s.store.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list faculty")
	}
	return members, nil
}

// Get returns one faculty member by id.
func (s *FacultyService) Get(ctx context.Context, id int64) (*models.Faculty, error) {
	member, err := s.store.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Faculty member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty member")
	}
	return member, nil
}

// Create validates and persists a new faculty member.
func (s *FacultyService) Create(ctx context.Context, req CreateFacultyRequest) (*models.Faculty, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError("invalid faculty payload", err)
	}
	hireDate, errDetail := parseHireDate(req.HireDate)
	if errDetail != nil {
		return nil, appErrors.Validation("invalid faculty payload", []appErrors.FieldError{*errDetail})
	}
	member := &models.Faculty{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		Phone:          req.Phone,
		EmployeeID:     req.EmployeeID,
		Department:     req.Department,
		Designation:    req.Designation,
		Specialization: req.Specialization,
		HireDate:       hireDate,
	}
	stored, err := s.store.Insert(ctx, member)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "A faculty member with this email or employee ID already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create faculty member")
	}
	return stored, nil
}

// Update applies a partial update to a faculty member.
func (s *FacultyService) Update(ctx context.Context, id int64, req UpdateFacultyRequest) (*models.Faculty, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError("invalid faculty payload", err)
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
	if req.Department != nil {
		fields["department"] = *req.Department
	}
	if req.Designation != nil {
		fields["designation"] = *req.Designation
	}
	if req.Specialization != nil {
		fields["specialization"] = *req.Specialization
	}
	if req.HireDate != nil {
		hireDate, errDetail := parseHireDate(req.HireDate)
		if errDetail != nil {
			return nil, appErrors.Validation("invalid faculty payload", []appErrors.FieldError{*errDetail})
		}
		fields["hire_date"] = hireDate
	}
	stored, err := s.store.Update(ctx, id, fields)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Faculty member not found")
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "A faculty member with this email already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update faculty member")
	}
	return stored, nil
}

// Delete removes a faculty member by id.
func (s *FacultyService) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "Faculty member not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete faculty member")
	}
	return nil
}

func parseHireDate(raw *string) (*time.Time, *appErrors.FieldError) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, *raw); err == nil {
			return &t, nil
		}
	}
	return nil, &appErrors.FieldError{Field: "hireDate", Message: "must be a valid date"}
}
