package models

import "time"

// Faculty is a row in the faculty table. EmployeeID is the unique, immutable
// staff code; email is unique across all faculty.
type Faculty struct {
	ID             int64      `db:"id" json:"id"`
	FirstName      string     `db:"first_name" json:"firstName"`
	LastName       string     `db:"last_name" json:"lastName"`
	Email          string     `db:"email" json:"email"`
	Phone          *string    `db:"phone" json:"phone,omitempty"`
	EmployeeID     string     `db:"employee_id" json:"employeeId"`
	Department     *string    `db:"department" json:"department,omitempty"`
	Designation    *string    `db:"designation" json:"designation,omitempty"`
	Specialization *string    `db:"specialization" json:"specialization,omitempty"`
	HireDate       *time.Time `db:"hire_date" json:"hireDate,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updatedAt"`
}
