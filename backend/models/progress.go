package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Allowed progress steps for a single content item.
var ProgressSteps = []int{0, 25, 50, 75, 100}

func ValidProgress(p int) bool {
	for _, s := range ProgressSteps {
		if s == p {
			return true
		}
	}
	return false
}

type UserProgress struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"progress_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_progress_user_content" json:"user_id"`
	ContentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_progress_user_content" json:"content_id"`
	Progress  int       `gorm:"not null;default:0" json:"progress"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (UserProgress) TableName() string {
	return "user_progress"
}

func (p *UserProgress) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

type CompletionStats struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

type SubskillContent struct {
	Subskill Subskill  `json:"subskill"`
	Contents []Content `json:"contents"`
	Percent  int       `json:"percent"`
}

// SkillContentView is everything the content page renders for one skill.
type SkillContentView struct {
	Subskills []SubskillContent `json:"subskills"`
	Progress  map[uuid.UUID]int `json:"progress"`
	Stats     CompletionStats   `json:"stats"`
}
