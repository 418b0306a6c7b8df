package store

import (
	"context"

	"skillhub/backend/models"

	"github.com/google/uuid"
)

func (s *Store) ListSkills(ctx context.Context) ([]models.Skill, error) {
	var skills []models.Skill
	if err := s.conn(ctx).Order("name ASC").Find(&skills).Error; err != nil {
		return nil, translate(err, "skills")
	}
	return skills, nil
}

func (s *Store) GetSkillBySlug(ctx context.Context, slug string) (*models.Skill, error) {
	var skill models.Skill
	if err := s.conn(ctx).Where("slug = ?", slug).First(&skill).Error; err != nil {
		return nil, translate(err, "skill")
	}
	return &skill, nil
}

func (s *Store) ListSubskills(ctx context.Context, skillID uuid.UUID) ([]models.Subskill, error) {
	var subskills []models.Subskill
	if err := s.conn(ctx).
		Where("skill_id = ?", skillID).
		Order("created_at ASC").
		Find(&subskills).Error; err != nil {
		return nil, translate(err, "subskills")
	}
	return subskills, nil
}

func (s *Store) ListContents(ctx context.Context, subskillIDs []uuid.UUID) ([]models.Content, error) {
	var contents []models.Content
	if len(subskillIDs) == 0 {
		return contents, nil
	}
	if err := s.conn(ctx).
		Where("subskill_id IN ?", subskillIDs).
		Order("created_at ASC").
		Find(&contents).Error; err != nil {
		return nil, translate(err, "contents")
	}
	return contents, nil
}

// SkillForContent resolves the skill a content item belongs to.
func (s *Store) SkillForContent(ctx context.Context, contentID uuid.UUID) (*models.Skill, error) {
	var skill models.Skill
	err := s.conn(ctx).
		Joins("JOIN subskills ON subskills.skill_id = skills.id").
		Joins("JOIN contents ON contents.subskill_id = subskills.id").
		Where("contents.id = ?", contentID).
		First(&skill).Error
	if err != nil {
		return nil, translate(err, "content")
	}
	return &skill, nil
}
