package model

import "gorm.io/datatypes"

type ReviewStatus string

const (
	ReviewDraft         ReviewStatus = "draft"          // written while the attempt is in progress
	ReviewAutoGraded    ReviewStatus = "auto_graded"    // isCorrect/earned set at submission
	ReviewPendingReview ReviewStatus = "pending_review" // waits for a teacher to set score/feedback
	ReviewReviewed      ReviewStatus = "reviewed"
)

// AnswerValue holds one response. Exactly one field is meaningful for a given question type:
// Selected for multiple_choice/open_text, Choices for checkbox, FileURL for uploads.
type AnswerValue struct {
	Selected string   `json:"selected,omitempty"`
	Choices  []string `json:"choices,omitempty"`
	FileURL  string   `json:"fileUrl,omitempty"`
}

func (v AnswerValue) IsBlank() bool {
	return v.Selected == "" && len(v.Choices) == 0 && v.FileURL == ""
}

// swagger:model AttemptAnswer
type AttemptAnswer struct {
	BaseModel
	AttemptID  string                          `gorm:"uniqueIndex:idx_attempt_answer;type:varchar(36)" json:"attemptId"`
	QuestionID uint                            `gorm:"uniqueIndex:idx_attempt_answer;type:bigint unsigned" json:"questionId"`
	StudentID  uint                            `gorm:"index;type:bigint unsigned" json:"studentId"`
	Value      datatypes.JSONType[AnswerValue] `json:"value"`

	IsCorrect    *bool        `json:"isCorrect"`
	Earned       *float64     `json:"earned,omitempty"` // provisional points at submission
	Score        *float64     `json:"score"`            // teacher score for manually reviewed types
	Feedback     string       `gorm:"type:text" json:"feedback"`
	ReviewStatus ReviewStatus `gorm:"size:20;default:'draft'" json:"reviewStatus"`
}

func (AttemptAnswer) TableName() string {
	return "attempt_answers"
}
