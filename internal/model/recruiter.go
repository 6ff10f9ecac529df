package model

import "time"

// Recruiter represents a hiring-side user who can review attempts and
// watch live proctoring feeds.
type Recruiter struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RecruiterLoginRequest is the payload for recruiter authentication.
type RecruiterLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// RecruiterLoginResponse is returned after successful recruiter login.
type RecruiterLoginResponse struct {
	Token     string    `json:"token"`
	Recruiter Recruiter `json:"recruiter"`
}
