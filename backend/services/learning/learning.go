// Package learning builds the per-skill content view and records progress on
// individual content items.
package learning

import (
	"context"
	"math"

	"skillhub/backend/apperr"
	"skillhub/backend/models"
	"skillhub/backend/store"
	"skillhub/backend/utils"

	"github.com/google/uuid"
)

const (
	openedProgress    = 25
	completedProgress = 100
)

type Service struct {
	store *store.Store
	log   *utils.Logger
}

func NewService(s *store.Store, baseLog *utils.Logger) *Service {
	return &Service{store: s, log: baseLog.With("component", "learning")}
}

// ContentView loads a skill's subskills and contents with the learner's
// progress on each.
func (s *Service) ContentView(ctx context.Context, userID, skillID uuid.UUID) (*models.SkillContentView, error) {
	subskills, err := s.store.ListSubskills(ctx, skillID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(subskills))
	for i, sub := range subskills {
		ids[i] = sub.ID
	}
	contents, err := s.store.ListContents(ctx, ids)
	if err != nil {
		return nil, err
	}
	progress, err := s.store.ListProgress(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := BuildContentView(subskills, contents, progress)
	return &view, nil
}

// BuildContentView groups contents under their subskill, keeping subskill
// order. Only progress for the given contents is kept.
func BuildContentView(subskills []models.Subskill, contents []models.Content, progress map[uuid.UUID]int) models.SkillContentView {
	bySubskill := make(map[uuid.UUID][]models.Content, len(subskills))
	for _, c := range contents {
		bySubskill[c.SubskillID] = append(bySubskill[c.SubskillID], c)
	}

	view := models.SkillContentView{
		Subskills: make([]models.SubskillContent, 0, len(subskills)),
		Progress:  make(map[uuid.UUID]int, len(contents)),
	}
	for _, sub := range subskills {
		items := bySubskill[sub.ID]
		if items == nil {
			items = []models.Content{}
		}
		done := 0
		for _, c := range items {
			p := progress[c.ID]
			view.Progress[c.ID] = p
			if p == completedProgress {
				done++
			}
		}
		view.Stats.Completed += done
		view.Stats.Total += len(items)
		view.Subskills = append(view.Subskills, models.SubskillContent{
			Subskill: sub,
			Contents: items,
			Percent:  Percent(done, len(items)),
		})
	}
	return view
}

// Percent is round(completed/total*100), or 0 for an empty subskill.
func Percent(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

func (s *Service) SetProgress(ctx context.Context, userID, contentID uuid.UUID, progress int) error {
	if !models.ValidProgress(progress) {
		return apperr.Validation("progress must be one of 0, 25, 50, 75, 100")
	}
	return s.store.UpsertProgress(ctx, userID, contentID, progress)
}

// OpenContent marks an untouched item as started and returns its progress.
func (s *Service) OpenContent(ctx context.Context, userID, contentID uuid.UUID) (int, error) {
	current, err := s.store.GetProgress(ctx, userID, contentID)
	if err != nil {
		return 0, err
	}
	if current != 0 {
		return current, nil
	}
	if err := s.store.UpsertProgress(ctx, userID, contentID, openedProgress); err != nil {
		return 0, err
	}
	return openedProgress, nil
}

// ToggleComplete flips an item between complete and not started.
func (s *Service) ToggleComplete(ctx context.Context, userID, contentID uuid.UUID) (int, error) {
	current, err := s.store.GetProgress(ctx, userID, contentID)
	if err != nil {
		return 0, err
	}
	next := completedProgress
	if current == completedProgress {
		next = 0
	}
	if err := s.store.UpsertProgress(ctx, userID, contentID, next); err != nil {
		return 0, err
	}
	s.log.Debug("content completion toggled", "user_id", userID, "content_id", contentID, "progress", next)
	return next, nil
}
