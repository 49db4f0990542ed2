package model

// swagger:model Level
type Level struct {
	BaseModel

	Code        string `gorm:"size:20;uniqueIndex;not null" json:"code"` // A1, A2, B1 ...
	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Sequence    int    `gorm:"uniqueIndex;not null" json:"sequence"` // position on the curriculum ladder
}

func (Level) TableName() string {
	return "levels"
}

// DefaultLevels is the ladder seeded into an empty levels table.
func DefaultLevels() []Level {
	return []Level{
		{Code: "A1", Name: "Beginner", Description: "Basic phrases and everyday expressions", Sequence: 1},
		{Code: "A2", Name: "Elementary", Description: "Routine tasks and simple exchanges", Sequence: 2},
		{Code: "B1", Name: "Intermediate", Description: "Familiar matters at work, school and travel", Sequence: 3},
		{Code: "B2", Name: "Upper Intermediate", Description: "Fluent interaction on concrete and abstract topics", Sequence: 4},
		{Code: "C1", Name: "Advanced", Description: "Flexible use for social, academic and professional purposes", Sequence: 5},
		{Code: "C2", Name: "Proficient", Description: "Near-native precision", Sequence: 6},
	}
}
