package models

import "time"

// Student is a row in the students table. StudentID is the external student
// code shown on campus cards; it is distinct from the generated primary key
// and never changes after creation.
type Student struct {
	ID             int64     `db:"id" json:"id"`
	FirstName      string    `db:"first_name" json:"firstName"`
	LastName       string    `db:"last_name" json:"lastName"`
	Email          string    `db:"email" json:"email"`
	Phone          *string   `db:"phone" json:"phone,omitempty"`
	StudentID      string    `db:"student_id" json:"studentId"`
	DateOfBirth    *string   `db:"date_of_birth" json:"dateOfBirth,omitempty"`
	Address        *string   `db:"address" json:"address,omitempty"`
	EnrollmentDate time.Time `db:"enrollment_date" json:"enrollmentDate"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}
