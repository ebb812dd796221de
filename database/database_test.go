package database

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/lshigami/quizsync/config"
	"github.com/lshigami/quizsync/internal/model"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestNewDatabase(t *testing.T) {
	tests := []struct {
		name    string
		driver  string
		wantErr bool
	}{
		{name: "default driver is sqlite", driver: ""},
		{name: "sqlite", driver: "SQLite"},
		{name: "unknown driver", driver: "oracle", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{}
			cfg.Database.Driver = tt.driver
			cfg.Database.Path = filepath.Join(t.TempDir(), "test.db")

			db, err := NewDatabase(cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NoError(t, Migrate(db))
			assert.True(t, db.Migrator().HasTable(&model.PendingMutation{}))
			assert.True(t, db.Migrator().HasTable(&model.LocalAttempt{}))
		})
	}
}

func TestNewDatabase_LogsThroughZerolog(t *testing.T) {
	var buf bytes.Buffer
	previous := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = previous })

	cfg := &config.Config{}
	cfg.Database.Path = filepath.Join(t.TempDir(), "log.db")
	db, err := NewDatabase(cfg)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	buf.Reset()

	var attempt model.LocalAttempt
	err = db.Where("attempt_id = ?", 404).First(&attempt).Error
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	assert.Empty(t, buf.String(), "a missing row is not worth a log line")

	err = db.Table("no_such_table").First(&attempt).Error
	require.Error(t, err)
	assert.Contains(t, buf.String(), `"component":"gorm"`)
}
