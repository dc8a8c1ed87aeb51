package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/unirecords/university-api/internal/models"
)

// EnrollmentRepository is the enrollment record store: the generic CRUD unit
// plus the filtered queries the enrollment workflow needs.
type EnrollmentRepository struct {
	*Store[models.Enrollment]
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	store := NewStore[models.Enrollment](db, Descriptor{
		Table:     "enrollments",
		Columns:   []string{"student_id", "course_id", "status", "grade", "semester", "academic_year"},
		Defaulted: []string{"enrollment_date", "created_at", "updated_at"},
	})
	return &EnrollmentRepository{Store: store, db: db}
}

// ExistsActive reports whether an active enrollment already exists for the
// (student, course) pair.
func (r *EnrollmentRepository) ExistsActive(ctx context.Context, studentID, courseID int64) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE student_id = $1 AND course_id = $2 AND status = $3 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, courseID, models.EnrollmentStatusActive); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check active enrollment: %w", err)
	}
	return true, nil
}

// ListByStudent returns every enrollment referencing the given student.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.Enrollment, error) {
	const query = `SELECT * FROM enrollments WHERE student_id = $1 ORDER BY id`
	rows := []models.Enrollment{}
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list enrollments by student: %w", err)
	}
	return rows, nil
}

// ListByCourse returns every enrollment referencing the given course.
func (r *EnrollmentRepository) ListByCourse(ctx context.Context, courseID int64) ([]models.Enrollment, error) {
	const query = `SELECT * FROM enrollments WHERE course_id = $1 ORDER BY id`
	rows := []models.Enrollment{}
	if err := r.db.SelectContext(ctx, &rows, query, courseID); err != nil {
		return nil, fmt.Errorf("list enrollments by course: %w", err)
	}
	return rows, nil
}
