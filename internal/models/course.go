package models

import "time"

// Course is a row in the courses table. CourseCode is unique and immutable
// once created.
type Course struct {
	ID          int64     `db:"id" json:"id"`
	CourseCode  string    `db:"course_code" json:"courseCode"`
	CourseName  string    `db:"course_name" json:"courseName"`
	Description *string   `db:"description" json:"description,omitempty"`
	Credits     int       `db:"credits" json:"credits"`
	Department  *string   `db:"department" json:"department,omitempty"`
	Semester    *string   `db:"semester" json:"semester,omitempty"`
	MaxStudents *int      `db:"max_students" json:"maxStudents,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}
