package service

import (
	"lingo_edu_backend/internal/model"
	"sort"
)

type QuestionScore struct {
	QuestionID uint               `json:"questionId"`
	Type       model.QuestionType `json:"type"`
	Earned     float64            `json:"earned"`
	Max        float64            `json:"max"`
	IsCorrect  *bool              `json:"isCorrect"` // nil for manually reviewed types
}

type ScoreSheet struct {
	PerQuestion       map[uint]QuestionScore `json:"-"`
	Ordered           []QuestionScore        `json:"perQuestion"`
	EarnedSum         float64                `json:"earnedSum"`
	MaxSum            float64                `json:"maxSum"`
	TotalScorePercent float64                `json:"totalScorePercent"`
}

// Score grades answers against questions. It does no I/O and does not modify its arguments.
//
// Choice questions are all-or-nothing. Manually reviewed questions earn 0 but their points still
// count toward MaxSum, so mixed assessments show a provisional score until a teacher reviews them.
func Score(questions []model.AssessmentQuestion, answers map[uint]model.AnswerValue) ScoreSheet {
	ordered := make([]*model.AssessmentQuestion, len(questions))
	for i := range questions {
		ordered[i] = &questions[i]
	}
	// fixed summation order keeps float results identical across calls
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Order != ordered[j].Order {
			return ordered[i].Order < ordered[j].Order
		}
		return ordered[i].ID < ordered[j].ID
	})

	sheet := ScoreSheet{
		PerQuestion: make(map[uint]QuestionScore, len(ordered)),
		Ordered:     make([]QuestionScore, 0, len(ordered)),
	}

	for _, q := range ordered {
		qs := gradeQuestion(q, answers[q.ID])
		sheet.PerQuestion[q.ID] = qs
		sheet.Ordered = append(sheet.Ordered, qs)
		sheet.EarnedSum += qs.Earned
		sheet.MaxSum += qs.Max
	}

	if sheet.MaxSum > 0 {
		sheet.TotalScorePercent = 100 * sheet.EarnedSum / sheet.MaxSum
	}
	return sheet
}

func gradeQuestion(q *model.AssessmentQuestion, answer model.AnswerValue) QuestionScore {
	qs := QuestionScore{QuestionID: q.ID, Type: q.Type, Max: q.Points}
	if !q.Type.AutoGraded() {
		return qs
	}

	var correct bool
	switch q.Type {
	case model.QuestionMultipleChoice:
		key := q.CorrectValues()
		correct = len(key) == 1 && answer.Selected != "" && answer.Selected == key[0]
	case model.QuestionCheckbox:
		correct = sameSet(answer.Choices, q.CorrectValues())
	}

	qs.IsCorrect = &correct
	if correct {
		qs.Earned = q.Points
	}
	return qs
}

func sameSet(submitted, key []string) bool {
	want := make(map[string]bool, len(key))
	for _, k := range key {
		want[k] = true
	}
	if len(want) == 0 {
		return false
	}

	got := make(map[string]bool, len(submitted))
	for _, s := range submitted {
		if !want[s] {
			return false
		}
		got[s] = true
	}
	return len(got) == len(want)
}
