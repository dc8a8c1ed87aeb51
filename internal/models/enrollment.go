package models

import "time"

// EnrollmentStatus enumerates the lifecycle states of an enrollment.
type EnrollmentStatus string

const (
	EnrollmentStatusActive    EnrollmentStatus = "active"
	EnrollmentStatusCompleted EnrollmentStatus = "completed"
	EnrollmentStatusDropped   EnrollmentStatus = "dropped"
)

// Valid reports whether the status is one of the known states.
func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentStatusActive, EnrollmentStatusCompleted, EnrollmentStatusDropped:
		return true
	}
	return false
}

// Enrollment links a student to a course. StudentID and CourseID reference
// rows owned by the student and course services; their existence is checked
// once at creation time, over the network, and never re-verified.
type Enrollment struct {
	ID             int64            `db:"id" json:"id"`
	StudentID      int64            `db:"student_id" json:"studentId"`
	CourseID       int64            `db:"course_id" json:"courseId"`
	EnrollmentDate time.Time        `db:"enrollment_date" json:"enrollmentDate"`
	Status         EnrollmentStatus `db:"status" json:"status"`
	Grade          *string          `db:"grade" json:"grade,omitempty"`
	Semester       *string          `db:"semester" json:"semester,omitempty"`
	AcademicYear   *string          `db:"academic_year" json:"academicYear,omitempty"`
	CreatedAt      time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time        `db:"updated_at" json:"updatedAt"`
}
