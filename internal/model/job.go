package model

import "time"

// Job represents a job posting candidates are assessed against.
type Job struct {
	ID              int        `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	DurationMinutes int        `json:"duration_minutes"`
	TotalQuestions  int        `json:"total_questions"`
	ExperienceMin   float64    `json:"experience_min"`
	ExperienceMax   float64    `json:"experience_max"`
	ScheduleStart   *time.Time `json:"schedule_start,omitempty"`
	ScheduleEnd     *time.Time `json:"schedule_end,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// JobSkill is a skill required by a job, with a priority used to weight
// how many questions that skill receives in an assessment.
type JobSkill struct {
	JobID     int    `json:"job_id"`
	SkillName string `json:"skill_name"`
	Priority  int    `json:"priority"`
}

// JobSkillInput is one skill row in a create or update request.
type JobSkillInput struct {
	SkillName string `json:"skill_name" binding:"required,min=1,max=64"`
	Priority  int    `json:"priority" binding:"required,min=1,max=100"`
}

// CreateJobRequest is the payload for posting a new job.
type CreateJobRequest struct {
	Title           string          `json:"title" binding:"required,min=3,max=200"`
	Description     string          `json:"description" binding:"max=5000"`
	DurationMinutes int             `json:"duration_minutes" binding:"required,min=5,max=240"`
	TotalQuestions  int             `json:"total_questions" binding:"required,min=1,max=100"`
	ExperienceMin   float64         `json:"experience_min" binding:"min=0,max=50"`
	ExperienceMax   float64         `json:"experience_max" binding:"min=0,max=50"`
	ScheduleStart   *time.Time      `json:"schedule_start"`
	ScheduleEnd     *time.Time      `json:"schedule_end"`
	Skills          []JobSkillInput `json:"skills" binding:"required,min=1,dive"`
}

// UpdateJobRequest mirrors CreateJobRequest for edits.
type UpdateJobRequest struct {
	Title           string          `json:"title" binding:"required,min=3,max=200"`
	Description     string          `json:"description" binding:"max=5000"`
	DurationMinutes int             `json:"duration_minutes" binding:"required,min=5,max=240"`
	TotalQuestions  int             `json:"total_questions" binding:"required,min=1,max=100"`
	ExperienceMin   float64         `json:"experience_min" binding:"min=0,max=50"`
	ExperienceMax   float64         `json:"experience_max" binding:"min=0,max=50"`
	ScheduleStart   *time.Time      `json:"schedule_start"`
	ScheduleEnd     *time.Time      `json:"schedule_end"`
	Skills          []JobSkillInput `json:"skills" binding:"required,min=1,dive"`
}

// JobWithSkills is a job detail payload.
type JobWithSkills struct {
	Job    Job        `json:"job"`
	Skills []JobSkill `json:"skills"`
}
