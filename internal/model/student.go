package model

import "time"

// Student represents a student user of the village portal.
type Student struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	// Standard is the school standard, e.g. "5th" or "10". Nil when the
	// student has not filled their profile; standard-restricted exams fail
	// closed for such students.
	Standard     *string   `json:"standard,omitempty"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// StudentLoginRequest is the payload for student authentication.
type StudentLoginRequest struct {
	Phone    string `json:"phone" binding:"required,min=8,max=15"`
	Password string `json:"password" binding:"required,min=4,max=128"`
}

// StudentLoginResponse is returned after successful student login.
type StudentLoginResponse struct {
	Token   string  `json:"token"`
	Student Student `json:"student"`
}

// CreateStudentRequest is the payload for registering a student account.
type CreateStudentRequest struct {
	Name     string  `json:"name" binding:"required,min=2,max=100"`
	Standard *string `json:"standard" binding:"omitempty,max=10"`
	Phone    string  `json:"phone" binding:"required,min=8,max=15"`
	Password string  `json:"password" binding:"required,min=6,max=128"`
}
