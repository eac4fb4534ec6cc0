package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/zenreader/internal/entities"
)

func TestNewDatabase_MigratesReaderTables(t *testing.T) {
	db, err := NewDatabase(filepath.Join(t.TempDir(), "reader.db"))
	require.NoError(t, err)
	defer db.Close()

	for _, model := range []any{
		&entities.Book{},
		&entities.BookContent{},
		&entities.ChapterIndex{},
		&entities.ReadingProgress{},
		&entities.Bookmark{},
		&entities.Setting{},
	} {
		assert.True(t, db.DB.Migrator().HasTable(model), "%T", model)
	}

	assert.NoError(t, db.Ping())
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, parseLogLevel("silent"))
	assert.Equal(t, logger.Info, parseLogLevel("INFO"))
	assert.Equal(t, logger.Warn, parseLogLevel(""))
}
