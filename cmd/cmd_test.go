package cmd_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/mautops/office-gin/cmd"
	"github.com/mautops/office-gin/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestCommandsRegistered(t *testing.T) {
	rootCmd := cmd.GetRootCmd()
	for _, name := range []string{"server", "migrate"} {
		found, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, found.Use)
	}

	serverCmd, _, err := rootCmd.Find([]string{"server"})
	require.NoError(t, err)
	assert.NotNil(t, serverCmd.Flags().Lookup("host"))
	assert.NotNil(t, serverCmd.Flags().Lookup("port"))
}

func TestMigrateCommandWithSQLite(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "office.db")
	configPath := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf("database:\n  driver: sqlite\n  path: %q\nlog:\n  level: error\n", dbPath)
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	rootCmd := cmd.GetRootCmd()
	rootCmd.SetArgs([]string{"migrate", "--config", configPath})
	require.NoError(t, rootCmd.Execute())

	db, err := gorm.Open(sqlite.Open(dbPath), database.GormConfig())
	require.NoError(t, err)
	defer database.Close(db)

	for _, table := range []string{"attendance_records", "daily_tasks", "editor_sheets", "editor_tasks", "approval_records", "audit_logs", "events"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}
