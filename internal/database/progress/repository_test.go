package progress

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/zenreader/internal/entities"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "progress.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.ReadingProgress{}))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return NewRepository(db)
}

func TestRepository_SaveProgress_OverwritesInPlace(t *testing.T) {
	repo := setupTestDB(t)
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, repo.SaveProgress(&entities.ReadingProgress{
		BookID: "b1", Mode: entities.ModePaged, ChapterID: "c0", Anchor: entities.PagedAnchor(1), UpdatedAt: now,
	}))
	require.NoError(t, repo.SaveProgress(&entities.ReadingProgress{
		BookID: "b1", Mode: entities.ModeScroll, ChapterID: "c2", Anchor: entities.ScrollAnchor(0.42), UpdatedAt: now.Add(time.Minute),
	}))

	all, err := repo.GetAllProgress()
	require.NoError(t, err)
	require.Len(t, all, 1)

	p, err := repo.GetProgress("b1")
	require.NoError(t, err)
	assert.Equal(t, entities.ModeScroll, p.Mode)
	assert.Equal(t, "c2", p.ChapterID)
	assert.Equal(t, entities.ScrollAnchor(0.42), p.Anchor)
	assert.True(t, p.UpdatedAt.Equal(now.Add(time.Minute)))
}

func TestRepository_DeleteProgress(t *testing.T) {
	repo := setupTestDB(t)

	require.NoError(t, repo.SaveProgress(&entities.ReadingProgress{
		BookID: "b1", Mode: entities.ModePaged, ChapterID: "c0", Anchor: entities.PagedAnchor(0), UpdatedAt: time.Now(),
	}))
	require.NoError(t, repo.DeleteProgress("b1"))
	require.NoError(t, repo.DeleteProgress("b1"))

	_, err := repo.GetProgress("b1")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
