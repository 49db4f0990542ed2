package model

import "time"

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptSubmitted  AttemptStatus = "submitted"
)

// SubmitTrigger records what ended an attempt.
type SubmitTrigger string

const (
	TriggerManual SubmitTrigger = "manual"
	TriggerTimer  SubmitTrigger = "timer"
)

type PromotionStatus string

const (
	PromotionNone     PromotionStatus = ""          // exercise, failed exam, or not yet submitted
	PromotionApplied  PromotionStatus = "promoted"  // student moved to the next level
	PromotionTopLevel PromotionStatus = "top_level" // passed, but no level above the current one
	PromotionFailed   PromotionStatus = "failed"    // passed, promotion call failed
	PromotionSkipped  PromotionStatus = "skipped"   // passed exam without a level to certify
)

// swagger:model Attempt
type Attempt struct {
	UUIDBase
	StudentID     uint          `gorm:"uniqueIndex:idx_attempt_number;type:bigint unsigned" json:"studentId"`
	AssessmentID  uint          `gorm:"uniqueIndex:idx_attempt_number;type:bigint unsigned" json:"assessmentId"`
	AttemptNumber int           `gorm:"uniqueIndex:idx_attempt_number;not null" json:"attemptNumber"`
	Status        AttemptStatus `gorm:"size:20;index;default:'in_progress'" json:"status"`

	StartedAt        time.Time  `json:"startedAt"`
	SubmittedAt      *time.Time `json:"submittedAt,omitempty"`
	TimeSpentSeconds *int       `json:"timeSpentSeconds,omitempty"`

	TotalScorePercent *float64        `json:"totalScorePercent,omitempty"`
	Passed            *bool           `json:"passed,omitempty"`
	PromotedToLevelID *uint           `gorm:"type:bigint unsigned" json:"promotedToLevelId,omitempty"`
	PromotionStatus   PromotionStatus `gorm:"size:20" json:"promotionStatus,omitempty"`
	Trigger           SubmitTrigger   `gorm:"column:submit_trigger;size:10" json:"trigger,omitempty"`

	Assessment *Assessment `gorm:"foreignKey:AssessmentID" json:"-"`
}

func (Attempt) TableName() string {
	return "attempts"
}

func (a *Attempt) IsSubmitted() bool {
	return a.SubmittedAt != nil
}
