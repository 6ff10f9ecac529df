package service

import (
	"testing"

	"github.com/hirelens/hirelens/internal/model"
)

func TestBaseBandForExperience(t *testing.T) {
	cases := []struct {
		name            string
		years, min, max float64
		want            model.DifficultyBand
	}{
		{"bottom third", 2, 0, 9, model.BandGood},
		{"boundary of bottom third", 3, 0, 9, model.BandGood},
		{"middle third", 5, 0, 9, model.BandBetter},
		{"top third", 8, 0, 9, model.BandPerfect},
		{"exactly max", 9, 0, 9, model.BandPerfect},
		{"above max falls back to easiest", 15, 0, 9, model.BandGood},
		{"degenerate range", 5, 4, 4, model.BandGood},
		{"inverted range", 5, 10, 2, model.BandGood},
		{"offset range middle", 6, 3, 12, model.BandBetter},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := baseBandForExperience(tc.years, tc.min, tc.max); got != tc.want {
				t.Errorf("baseBandForExperience(%v, %v, %v) = %s, want %s",
					tc.years, tc.min, tc.max, got, tc.want)
			}
		})
	}
}

func TestProficiencyBand(t *testing.T) {
	cases := []struct {
		proficiency int
		want        model.DifficultyBand
	}{
		{4, model.BandGood},
		{6, model.BandBetter},
		{8, model.BandPerfect},
		{0, model.BandBetter},
		{7, model.BandBetter},
	}
	for _, tc := range cases {
		if got := proficiencyBand(tc.proficiency); got != tc.want {
			t.Errorf("proficiencyBand(%d) = %s, want %s", tc.proficiency, got, tc.want)
		}
	}
}

func TestToBankQuestion(t *testing.T) {
	m := model.MCQ{
		ID:            7,
		QuestionText:  "Which keyword starts a goroutine?",
		Options:       []string{"go", "run", "spawn", "fork"},
		CorrectAnswer: "1",
	}
	q := toBankQuestion(m)
	if q.MCQID != 7 {
		t.Errorf("MCQID = %d, want 7", q.MCQID)
	}
	if q.Answer != "go" {
		t.Errorf("Answer = %q, want %q", q.Answer, "go")
	}
	if len(q.Options) != 4 {
		t.Errorf("Options = %d, want 4", len(q.Options))
	}
}

func TestToBankQuestionBadCorrectAnswer(t *testing.T) {
	cases := []string{"", "0", "5", "x"}
	for _, correct := range cases {
		m := model.MCQ{
			Options:       []string{"a", "b"},
			CorrectAnswer: correct,
		}
		if q := toBankQuestion(m); q.Answer != "" {
			t.Errorf("CorrectAnswer %q: Answer = %q, want empty", correct, q.Answer)
		}
	}
}

func TestSkillsByPriority(t *testing.T) {
	state := &model.EngineState{
		QuestionsPerSkill: map[string]int{"Go": 4, "SQL": 3, "Docker": 3},
		SkillPriorities:   map[string]int{"Go": 5, "SQL": 2, "Docker": 2},
	}
	got := skillsByPriority(state)
	want := []string{"Go", "Docker", "SQL"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v (priority desc, name asc on ties)", got, want)
		}
	}
}

func TestBankEmpty(t *testing.T) {
	if !bankEmpty(nil) {
		t.Error("nil bank should be empty")
	}
	bank := map[model.DifficultyBand]map[string][]model.BankQuestion{
		model.BandGood:   {"Go": {}},
		model.BandBetter: {},
	}
	if !bankEmpty(bank) {
		t.Error("bank with only empty slices should be empty")
	}
	bank[model.BandBetter]["SQL"] = []model.BankQuestion{{MCQID: 1}}
	if bankEmpty(bank) {
		t.Error("bank with a question should not be empty")
	}
}

func TestEngineStateAsked(t *testing.T) {
	state := &model.EngineState{
		AskedQuestions: []model.BankQuestion{{MCQID: 10}, {MCQID: 20}},
	}
	if !state.Asked(10) {
		t.Error("Asked(10) = false, want true")
	}
	if state.Asked(30) {
		t.Error("Asked(30) = true, want false")
	}
	if q := state.AskedQuestion(20); q == nil || q.MCQID != 20 {
		t.Errorf("AskedQuestion(20) = %v", q)
	}
	if q := state.AskedQuestion(30); q != nil {
		t.Errorf("AskedQuestion(30) = %v, want nil", q)
	}
}
