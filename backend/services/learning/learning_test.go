package learning

import (
	"context"
	"testing"

	"skillhub/backend/apperr"
	"skillhub/backend/models"
	"skillhub/backend/store/storetest"
	"skillhub/backend/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercent(t *testing.T) {
	assert.Equal(t, 0, Percent(0, 0))
	assert.Equal(t, 33, Percent(1, 3))
	assert.Equal(t, 67, Percent(2, 3))
	assert.Equal(t, 100, Percent(4, 4))
}

func TestBuildContentView(t *testing.T) {
	a := models.Subskill{ID: uuid.New(), Name: "A"}
	b := models.Subskill{ID: uuid.New(), Name: "B"}
	empty := models.Subskill{ID: uuid.New(), Name: "Empty"}
	contents := []models.Content{
		{ID: uuid.New(), SubskillID: a.ID},
		{ID: uuid.New(), SubskillID: a.ID},
		{ID: uuid.New(), SubskillID: b.ID},
	}
	other := uuid.New()
	progress := map[uuid.UUID]int{contents[0].ID: 100, contents[1].ID: 25, contents[2].ID: 100, other: 100}

	view := BuildContentView([]models.Subskill{b, a, empty}, contents, progress)

	require.Len(t, view.Subskills, 3)
	assert.Equal(t, "B", view.Subskills[0].Subskill.Name)
	assert.Equal(t, 100, view.Subskills[0].Percent)
	assert.Equal(t, 50, view.Subskills[1].Percent)
	assert.Equal(t, 0, view.Subskills[2].Percent)
	assert.Empty(t, view.Subskills[2].Contents)

	assert.Equal(t, models.CompletionStats{Completed: 2, Total: 3}, view.Stats)
	assert.NotContains(t, view.Progress, other)
	assert.Equal(t, 25, view.Progress[contents[1].ID])
}

func TestProgressTransitions(t *testing.T) {
	ctx := context.Background()
	s := storetest.Open(t)
	_, contents := storetest.SeedSkill(t, s.DB(), "python", "")
	svc := NewService(s, utils.NopLogger())
	userID, item := uuid.New(), contents[0].ID

	p, err := svc.OpenContent(ctx, userID, item)
	require.NoError(t, err)
	assert.Equal(t, 25, p)

	require.NoError(t, svc.SetProgress(ctx, userID, item, 75))
	p, err = svc.OpenContent(ctx, userID, item)
	require.NoError(t, err)
	assert.Equal(t, 75, p)

	p, err = svc.ToggleComplete(ctx, userID, item)
	require.NoError(t, err)
	assert.Equal(t, 100, p)
	p, err = svc.ToggleComplete(ctx, userID, item)
	require.NoError(t, err)
	assert.Equal(t, 0, p)

	err = svc.SetProgress(ctx, userID, item, 30)
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestContentView(t *testing.T) {
	ctx := context.Background()
	s := storetest.Open(t)
	skill, contents := storetest.SeedSkill(t, s.DB(), "python", "")
	svc := NewService(s, utils.NopLogger())
	userID := uuid.New()

	_, err := svc.ToggleComplete(ctx, userID, contents[0].ID)
	require.NoError(t, err)

	view, err := svc.ContentView(ctx, userID, skill.ID)
	require.NoError(t, err)
	require.Len(t, view.Subskills, 1)
	assert.Len(t, view.Subskills[0].Contents, 2)
	assert.Equal(t, 50, view.Subskills[0].Percent)
	assert.Equal(t, models.CompletionStats{Completed: 1, Total: 2}, view.Stats)
}
