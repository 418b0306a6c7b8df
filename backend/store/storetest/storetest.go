// Package storetest opens migrated in-memory record stores for tests.
package storetest

import (
	"fmt"
	"strings"
	"testing"

	"skillhub/backend/models"
	"skillhub/backend/store"
	"skillhub/backend/utils"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDB returns a fresh, migrated SQLite database private to t.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, store.AutoMigrate(db))
	return db
}

func Open(t testing.TB) *store.Store {
	t.Helper()
	return store.New(OpenDB(t), utils.NopLogger())
}

// SeedSkill inserts a skill with the given slug and price plus one subskill
// holding two content items.
func SeedSkill(t testing.TB, db *gorm.DB, slug, price string) (*models.Skill, []models.Content) {
	t.Helper()
	skill := &models.Skill{Slug: slug, Name: strings.ToUpper(slug[:1]) + slug[1:], Price: price}
	require.NoError(t, db.Create(skill).Error)

	sub := &models.Subskill{SkillID: skill.ID, Name: "Basics"}
	require.NoError(t, db.Create(sub).Error)

	contents := []models.Content{
		{SubskillID: sub.ID, Title: "Intro"},
		{SubskillID: sub.ID, Title: "Practice"},
	}
	require.NoError(t, db.Create(&contents).Error)
	return skill, contents
}
