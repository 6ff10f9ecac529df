package model

import "time"

// Candidate represents a job applicant account.
type Candidate struct {
	ID              int       `json:"id"`
	Email           string    `json:"email"`
	FullName        string    `json:"full_name"`
	PasswordHash    string    `json:"-"`
	ExperienceYears float64   `json:"experience_years"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CandidateSkill is a self-declared skill with a proficiency rating.
// Proficiency is one of 4, 6 or 8 (low / mid / high).
type CandidateSkill struct {
	CandidateID int    `json:"candidate_id"`
	SkillName   string `json:"skill_name"`
	Proficiency int    `json:"proficiency"`
}

// CandidateLoginRequest is the payload for candidate authentication.
type CandidateLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// CandidateLoginResponse is returned after successful candidate login.
type CandidateLoginResponse struct {
	Token     string    `json:"token"`
	Candidate Candidate `json:"candidate"`
}

// CreateCandidateRequest is the payload for registering a candidate.
type CreateCandidateRequest struct {
	Email           string                `json:"email" binding:"required,email"`
	FullName        string                `json:"full_name" binding:"required,min=2,max=100"`
	Password        string                `json:"password" binding:"required,min=6,max=128"`
	ExperienceYears float64               `json:"experience_years" binding:"min=0,max=50"`
	Skills          []CandidateSkillInput `json:"skills" binding:"omitempty,dive"`
}

// CandidateSkillInput is one declared skill in a create or update
// request.
type CandidateSkillInput struct {
	SkillName   string `json:"skill_name" binding:"required,min=1,max=64"`
	Proficiency int    `json:"proficiency" binding:"required,oneof=4 6 8"`
}

// UpdateCandidateRequest is the payload for editing a candidate.
// Password is optional; when present it replaces the current one.
type UpdateCandidateRequest struct {
	Email           string                `json:"email" binding:"required,email"`
	FullName        string                `json:"full_name" binding:"required,min=2,max=100"`
	Password        string                `json:"password" binding:"omitempty,min=6,max=128"`
	ExperienceYears float64               `json:"experience_years" binding:"min=0,max=50"`
	Skills          []CandidateSkillInput `json:"skills" binding:"omitempty,dive"`
}

// CandidateWithSkills is a candidate detail payload.
type CandidateWithSkills struct {
	Candidate Candidate        `json:"candidate"`
	Skills    []CandidateSkill `json:"skills"`
}

// InviteCandidateRequest registers an assessment attempt for a
// candidate against a job.
type InviteCandidateRequest struct {
	JobID int `json:"job_id" binding:"required,min=1"`
}
