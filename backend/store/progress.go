package store

import (
	"context"
	"time"

	"skillhub/backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"
)

// ListProgress returns content id -> progress for every row the user has.
func (s *Store) ListProgress(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error) {
	var rows []models.UserProgress
	if err := s.conn(ctx).
		Select("content_id", "progress").
		Where("user_id = ?", userID).
		Find(&rows).Error; err != nil {
		return nil, translate(err, "progress")
	}

	out := make(map[uuid.UUID]int, len(rows))
	for _, r := range rows {
		out[r.ContentID] = r.Progress
	}
	return out, nil
}

func (s *Store) GetProgress(ctx context.Context, userID, contentID uuid.UUID) (int, error) {
	var rows []models.UserProgress
	if err := s.conn(ctx).
		Where("user_id = ? AND content_id = ?", userID, contentID).
		Limit(1).
		Find(&rows).Error; err != nil {
		return 0, translate(err, "progress")
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Progress, nil
}

func (s *Store) UpsertProgress(ctx context.Context, userID, contentID uuid.UUID, progress int) error {
	row := models.UserProgress{
		UserID:    userID,
		ContentID: contentID,
		Progress:  progress,
		UpdatedAt: time.Now(),
	}
	err := s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "content_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"progress", "updated_at"}),
	}).Create(&row).Error
	return translate(err, "progress")
}
