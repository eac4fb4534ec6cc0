package settings

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/zenreader/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	dbPath := filepath.Join(t.TempDir(), "settings.db")

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.Setting{})
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	}

	return repo, cleanup
}

var defaults = entities.ReaderSettings{Mode: entities.ModePaged, FontSize: entities.DefaultFontSize}

func TestRepository_SetSetting_New(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	err := repo.SetSetting("reader_mode", "scroll")
	require.NoError(t, err)

	setting, err := repo.GetSetting("reader_mode")
	require.NoError(t, err)
	assert.Equal(t, "reader_mode", setting.Key)
	assert.Equal(t, "scroll", setting.Value)
}

func TestRepository_SetSetting_Update(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.SetSetting("reader_mode", "paged"))
	require.NoError(t, repo.SetSetting("reader_mode", "scroll"))

	setting, err := repo.GetSetting("reader_mode")
	require.NoError(t, err)
	assert.Equal(t, "scroll", setting.Value)
}

func TestRepository_GetSetting_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetSetting("nonexistent")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_DeleteSetting_NonExistent(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	// Should not error even if key doesn't exist
	err := repo.DeleteSetting("nonexistent")
	assert.NoError(t, err)
}

func TestRepository_ReaderSettings_DefaultsWhenEmpty(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	s, err := repo.GetReaderSettings(defaults)
	require.NoError(t, err)
	assert.Equal(t, defaults, s)
}

func TestRepository_ReaderSettings_RoundTrip(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	want := entities.ReaderSettings{Mode: entities.ModeScroll, FontSize: 22}
	require.NoError(t, repo.SaveReaderSettings(want))

	got, err := repo.GetReaderSettings(defaults)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRepository_ReaderSettings_IgnoresGarbage(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.SetSetting(entities.SettingKeyReaderMode, "sideways"))
	require.NoError(t, repo.SetSetting(entities.SettingKeyReaderFontSize, "99"))

	got, err := repo.GetReaderSettings(defaults)
	require.NoError(t, err)
	assert.Equal(t, entities.ModePaged, got.Mode)
	assert.Equal(t, entities.MaxFontSize, got.FontSize)
}

func TestRepository_LastBookID(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	id, err := repo.GetLastBookID()
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, repo.SetLastBookID("book-1"))
	id, err = repo.GetLastBookID()
	require.NoError(t, err)
	assert.Equal(t, "book-1", id)

	require.NoError(t, repo.SetLastBookID(""))
	id, err = repo.GetLastBookID()
	require.NoError(t, err)
	assert.Empty(t, id)
}
