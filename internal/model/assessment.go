package model

import "time"

type AssessmentKind string

const (
	KindExercise  AssessmentKind = "exercise"
	KindFinalExam AssessmentKind = "final_exam"
)

// swagger:model Assessment
type Assessment struct {
	BaseModel
	Kind                AssessmentKind `gorm:"size:20;not null;default:'exercise'" json:"kind"`
	Title               string         `gorm:"size:255;not null" json:"title"`
	Description         string         `gorm:"type:text" json:"description"`
	LevelID             *uint          `gorm:"index;type:bigint unsigned" json:"levelId,omitempty"` // exam: level it certifies
	PassingScorePercent float64        `gorm:"default:60" json:"passingScorePercent"`
	TimeLimitSeconds    *int           `json:"timeLimitSeconds,omitempty"` // nil = untimed
	MaxAttempts         *int           `json:"maxAttempts,omitempty"`
	IsPublished         bool           `gorm:"default:false" json:"isPublished"`
	PublishedAt         *time.Time     `json:"publishedAt,omitempty"`

	Questions []AssessmentQuestion `gorm:"foreignKey:AssessmentID" json:"questions,omitempty"`
}

func (Assessment) TableName() string {
	return "assessments"
}

func (a *Assessment) IsExam() bool {
	return a.Kind == KindFinalExam
}

func (a *Assessment) IsTimed() bool {
	return a.TimeLimitSeconds != nil && *a.TimeLimitSeconds > 0
}
