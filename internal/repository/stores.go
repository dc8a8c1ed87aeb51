package repository

import (
	"github.com/jmoiron/sqlx"

	"github.com/unirecords/university-api/internal/models"
)

// NewStudentStore returns the CRUD store backing the student service.
func NewStudentStore(db *sqlx.DB) *Store[models.Student] {
	return NewStore[models.Student](db, Descriptor{
		Table:     "students",
		Columns:   []string{"first_name", "last_name", "email", "phone", "student_id", "date_of_birth", "address"},
		Defaulted: []string{"enrollment_date", "created_at", "updated_at"},
	})
}

// NewCourseStore returns the CRUD store backing the course service.
func NewCourseStore(db *sqlx.DB) *Store[models.Course] {
	return NewStore[models.Course](db, Descriptor{
		Table:     "courses",
		Columns:   []string{"course_code", "course_name", "description", "credits", "department", "semester", "max_students"},
		Defaulted: []string{"created_at", "updated_at"},
	})
}

// NewFacultyStore returns the CRUD store backing the faculty service.
func NewFacultyStore(db *sqlx.DB) *Store[models.Faculty] {
	return NewStore[models.Faculty](db, Descriptor{
		Table:     "faculty",
		Columns:   []string{"first_name", "last_name", "email", "phone", "employee_id", "department", "designation", "specialization", "hire_date"},
		Defaulted: []string{"created_at", "updated_at"},
	})
}
