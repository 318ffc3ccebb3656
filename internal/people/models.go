package people

import "time"

// Roles recognised by the portal. Stored and compared as strings on the wire.
const (
	RoleStudent    = "Student"
	RoleSupervisor = "Supervisor"
	RoleAdmin      = "Admin"
)

// User is a registered portal account.
type User struct {
	ID           string    `json:"id"`
	Role         string    `json:"role"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	PhoneNumber  string    `json:"phoneNumber"`
	MatricNumber string    `json:"matricNumber,omitempty"`
	EmployeeID   string    `json:"employeeId,omitempty"`
	YearCourse   string    `json:"yearCourse,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Summary is the directory listing shape used by dropdowns and admin tables.
type Summary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	SpecificID string `json:"specificId"` // matric number or employee id depending on role
}
