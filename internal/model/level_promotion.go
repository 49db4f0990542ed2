package model

// LevelPromotion records one promotion caused by a passed final exam. AttemptID is unique so the
// promotion of a given attempt is applied at most once.
type LevelPromotion struct {
	BaseModel
	StudentID   uint   `gorm:"index;type:bigint unsigned" json:"studentId"`
	FromLevelID uint   `gorm:"type:bigint unsigned" json:"fromLevelId"`
	ToLevelID   uint   `gorm:"type:bigint unsigned" json:"toLevelId"`
	AttemptID   string `gorm:"uniqueIndex;type:varchar(36)" json:"attemptId"`
}

func (LevelPromotion) TableName() string {
	return "level_promotions"
}
