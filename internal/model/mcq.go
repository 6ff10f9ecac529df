package model

import "time"

// DifficultyBand orders question difficulty from easiest to hardest.
// The adaptive engine moves candidates up or down this ladder.
type DifficultyBand string

const (
	BandGood    DifficultyBand = "good"
	BandBetter  DifficultyBand = "better"
	BandPerfect DifficultyBand = "perfect"
)

// BandOrder is the difficulty ladder used by the adaptive engine.
var BandOrder = []DifficultyBand{BandGood, BandBetter, BandPerfect}

// BandIndex returns the position of b on the ladder, or 0 if unknown.
func BandIndex(b DifficultyBand) int {
	for i, v := range BandOrder {
		if v == b {
			return i
		}
	}
	return 0
}

// MCQ is a multiple-choice question in the bank. Options always has
// four entries and CorrectAnswer is "1".."4".
type MCQ struct {
	ID            int            `json:"id"`
	Skill         string         `json:"skill"`
	Band          DifficultyBand `json:"band"`
	QuestionText  string         `json:"question_text"`
	Options       []string       `json:"options"`
	CorrectAnswer string         `json:"correct_answer"`
	Source        string         `json:"source"`
	CreatedAt     time.Time      `json:"created_at"`
}

// CreateMCQRequest is the payload for adding a question to the bank.
type CreateMCQRequest struct {
	Skill         string   `json:"skill" binding:"required,min=1,max=64"`
	Band          string   `json:"band" binding:"required,oneof=good better perfect"`
	QuestionText  string   `json:"question_text" binding:"required,min=10"`
	Options       []string `json:"options" binding:"required,len=4,dive,required"`
	CorrectAnswer string   `json:"correct_answer" binding:"required,oneof=1 2 3 4"`
}

// UpdateMCQRequest mirrors CreateMCQRequest for edits.
type UpdateMCQRequest struct {
	Skill         string   `json:"skill" binding:"required,min=1,max=64"`
	Band          string   `json:"band" binding:"required,oneof=good better perfect"`
	QuestionText  string   `json:"question_text" binding:"required,min=10"`
	Options       []string `json:"options" binding:"required,len=4,dive,required"`
	CorrectAnswer string   `json:"correct_answer" binding:"required,oneof=1 2 3 4"`
}

// GenerateMCQRequest asks for synchronous question generation.
type GenerateMCQRequest struct {
	Skill string `json:"skill" binding:"required,min=1,max=64"`
	Band  string `json:"band" binding:"required,oneof=good better perfect"`
	Count int    `json:"count" binding:"required,min=1,max=20"`
}
