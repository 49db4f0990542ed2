package model

import "gorm.io/datatypes"

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionCheckbox       QuestionType = "checkbox"
	QuestionOpenText       QuestionType = "open_text"
	QuestionAudioUpload    QuestionType = "audio_upload"
	QuestionVideoUpload    QuestionType = "video_upload"
	QuestionFileUpload     QuestionType = "file_upload"
)

// AutoGraded reports whether answers to this type are compared against the authored key.
func (t QuestionType) AutoGraded() bool {
	return t == QuestionMultipleChoice || t == QuestionCheckbox
}

func (t QuestionType) IsUpload() bool {
	return t == QuestionAudioUpload || t == QuestionVideoUpload || t == QuestionFileUpload
}

func (t QuestionType) Known() bool {
	switch t {
	case QuestionMultipleChoice, QuestionCheckbox, QuestionOpenText,
		QuestionAudioUpload, QuestionVideoUpload, QuestionFileUpload:
		return true
	}
	return false
}

// LocalizedText maps a language code to the text in that language.
type LocalizedText map[string]string

type QuestionOption struct {
	Label     string `json:"label"`
	Value     string `json:"value"`
	IsCorrect bool   `json:"isCorrect"`
}

// swagger:model AssessmentQuestion
type AssessmentQuestion struct {
	BaseModel
	AssessmentID uint                                `gorm:"uniqueIndex:idx_assessment_question_order;type:bigint unsigned" json:"assessmentId"`
	Type         QuestionType                        `gorm:"size:20;not null" json:"type"`
	Prompt       datatypes.JSONType[LocalizedText]   `json:"prompt"`
	Options      datatypes.JSONSlice[QuestionOption] `json:"options,omitempty"`
	Points       float64                             `gorm:"not null" json:"points"`
	Order        int                                 `gorm:"column:position;uniqueIndex:idx_assessment_question_order;not null" json:"order"`
}

func (AssessmentQuestion) TableName() string {
	return "assessment_questions"
}

// CorrectValues returns the values of the options marked correct, in authored order.
func (q *AssessmentQuestion) CorrectValues() []string {
	var out []string
	for _, o := range q.Options {
		if o.IsCorrect {
			out = append(out, o.Value)
		}
	}
	return out
}
