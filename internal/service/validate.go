package service

import (
	"fmt"
	"lingo_edu_backend/internal/model"
	"lingo_edu_backend/internal/util"
	"sort"
)

// ValidateAssessment checks the authored definition the engine relies on.
func ValidateAssessment(a *model.Assessment) error {
	invalid := func(questionID uint, format string, args ...interface{}) error {
		return &util.InvalidAssessmentError{AssessmentID: a.ID, QuestionID: questionID, Reason: fmt.Sprintf(format, args...)}
	}

	if a.Kind != model.KindExercise && a.Kind != model.KindFinalExam {
		return invalid(0, "unknown kind %q", a.Kind)
	}
	if a.PassingScorePercent < 0 || a.PassingScorePercent > 100 {
		return invalid(0, "passing score %.2f outside [0,100]", a.PassingScorePercent)
	}
	if a.TimeLimitSeconds != nil && *a.TimeLimitSeconds <= 0 {
		return invalid(0, "time limit must be positive when set")
	}
	if a.MaxAttempts != nil && *a.MaxAttempts <= 0 {
		return invalid(0, "max attempts must be positive when set")
	}

	orders := make(map[int]uint, len(a.Questions))
	for i := range a.Questions {
		q := &a.Questions[i]
		if other, dup := orders[q.Order]; dup {
			return invalid(q.ID, "order %d already used by question %d", q.Order, other)
		}
		orders[q.Order] = q.ID

		if err := validateQuestion(q); err != "" {
			return invalid(q.ID, "%s", err)
		}
	}
	return nil
}

func validateQuestion(q *model.AssessmentQuestion) string {
	if !q.Type.Known() {
		return fmt.Sprintf("unknown question type %q", q.Type)
	}
	if q.Points <= 0 {
		return "points must be positive"
	}
	if len(q.Prompt.Data()) == 0 {
		return "prompt needs at least one language"
	}

	if !q.Type.AutoGraded() {
		if len(q.Options) > 0 {
			return "options are only allowed on choice questions"
		}
		return ""
	}

	seen := make(map[string]bool, len(q.Options))
	for _, o := range q.Options {
		if seen[o.Value] {
			return fmt.Sprintf("duplicate option value %q", o.Value)
		}
		seen[o.Value] = true
	}

	correct := len(q.CorrectValues())
	switch {
	case q.Type == model.QuestionMultipleChoice && correct != 1:
		return fmt.Sprintf("multiple choice needs exactly one correct option, has %d", correct)
	case q.Type == model.QuestionCheckbox && correct < 1:
		return "checkbox needs at least one correct option"
	}
	return ""
}

// normalizeAnswer checks that v has the shape q expects and returns it in canonical form.
// Blank values are always accepted.
func normalizeAnswer(q *model.AssessmentQuestion, v model.AnswerValue) (model.AnswerValue, error) {
	if v.IsBlank() {
		return model.AnswerValue{}, nil
	}

	options := make(map[string]bool, len(q.Options))
	for _, o := range q.Options {
		options[o.Value] = true
	}

	switch q.Type {
	case model.QuestionMultipleChoice:
		if len(v.Choices) > 0 || v.FileURL != "" || !options[v.Selected] {
			return v, util.ErrAnswerTypeMismatch
		}
		return model.AnswerValue{Selected: v.Selected}, nil

	case model.QuestionCheckbox:
		if v.Selected != "" || v.FileURL != "" {
			return v, util.ErrAnswerTypeMismatch
		}
		choices := dedupe(v.Choices)
		for _, c := range choices {
			if !options[c] {
				return v, util.ErrAnswerTypeMismatch
			}
		}
		return model.AnswerValue{Choices: choices}, nil

	case model.QuestionOpenText:
		if len(v.Choices) > 0 || v.FileURL != "" {
			return v, util.ErrAnswerTypeMismatch
		}
		return model.AnswerValue{Selected: v.Selected}, nil

	default: // uploads
		if v.Selected != "" || len(v.Choices) > 0 {
			return v, util.ErrAnswerTypeMismatch
		}
		return model.AnswerValue{FileURL: v.FileURL}, nil
	}
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func findQuestion(a *model.Assessment, questionID uint) *model.AssessmentQuestion {
	for i := range a.Questions {
		if a.Questions[i].ID == questionID {
			return &a.Questions[i]
		}
	}
	return nil
}
