package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Skill struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Slug        string    `gorm:"uniqueIndex;not null" json:"slug"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description"`
	Price       string    `json:"price"` // empty, "0" or "free" means free
	ImageURL    string    `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (s *Skill) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

type Subskill struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"subskill_id"`
	SkillID     uuid.UUID `gorm:"type:uuid;index;not null" json:"skill_id"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s *Subskill) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

type Content struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"content_id"`
	SubskillID  uuid.UUID `gorm:"type:uuid;index;not null" json:"subskill_id"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `json:"description"`
	ContentURL  string    `json:"content_url"`
	CreatedAt   time.Time `json:"created_at"`
}

func (c *Content) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
