package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupEnv points the CLI at a throwaway data directory via environment
// overrides, the same path a packaged install would use.
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("PACKRAT_DB_PATH", filepath.Join(dir, "inventory.db"))
	t.Setenv("PACKRAT_BACKUP_DIR", filepath.Join(dir, "backups"))
	t.Setenv("PACKRAT_LOG_DIR", filepath.Join(dir, "logs"))
	return dir
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestBoxAndItemLifecycle(t *testing.T) {
	setupEnv(t)

	out, err := runCommand(t, "box", "add", "Garage", "--location", "Shelf 2")
	require.NoError(t, err)
	assert.Contains(t, out, "Created box 1")

	out, err = runCommand(t, "item", "add", "Hammer", "--box", "1", "--quantity", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Created item 1")

	out, err = runCommand(t, "item", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "Hammer")
	assert.Contains(t, out, "Garage")

	// Deleting a box needs explicit confirmation.
	_, err = runCommand(t, "box", "rm", "1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	out, err = runCommand(t, "box", "rm", "1", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted box 1")

	out, err = runCommand(t, "item", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "No items")
}

func TestUpdateCommandsKeepUnsetFields(t *testing.T) {
	setupEnv(t)

	_, err := runCommand(t, "box", "add", "Garage", "--location", "Shelf 2")
	require.NoError(t, err)
	_, err = runCommand(t, "item", "add", "Hammer", "--box", "1", "--quantity", "5")
	require.NoError(t, err)

	// Only the quantity flag is set; name and box stay as they are.
	_, err = runCommand(t, "item", "update", "1", "--quantity", "8")
	require.NoError(t, err)

	out, err := runCommand(t, "history", "ls", "--action", "UPDATE")
	require.NoError(t, err)
	assert.Contains(t, out, "quantity: 5 → 8")

	// Same for boxes.
	_, err = runCommand(t, "box", "update", "1", "--name", "Workshop")
	require.NoError(t, err)

	out, err = runCommand(t, "box", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "Workshop")
	assert.Contains(t, out, "Shelf 2")
}

func TestMissingEntityExitCode(t *testing.T) {
	setupEnv(t)

	out, err := runCommand(t, "item", "rm", "99", "--yes")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error ["+ErrCodeNotFound+"]")
}

func TestImportLifecycle(t *testing.T) {
	dir := setupEnv(t)

	_, err := runCommand(t, "box", "add", "Garage")
	require.NoError(t, err)

	path := filepath.Join(dir, "import.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"Item Name,Box,Quantity\nHammer,Garage,3\nWrench,Garage,1\n"), 0o644))

	out, err := runCommand(t, "import", "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "2 rows valid")

	out, err = runCommand(t, "import", "commit", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 items")

	out, err = runCommand(t, "history", "ls", "--action", "IMPORT")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 items from CSV")
}

func TestImportValidate_ReportsRowErrors(t *testing.T) {
	dir := setupEnv(t)

	path := filepath.Join(dir, "import.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"Item Name,Box,Quantity\n,Basement,abc\n"), 0o644))

	out, err := runCommand(t, "import", "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	// One row carrying three errors still counts as one invalid row.
	assert.Contains(t, out, "1 of 1 rows invalid:")
	assert.Contains(t, out, "Row 2: Item name is empty")
	assert.Contains(t, out, "Row 2: Box 'Basement' does not exist. Create it first.")
	assert.Contains(t, out, "Row 2: Invalid quantity 'abc' (must be a number)")
}

func TestExportInventoryCommand(t *testing.T) {
	dir := setupEnv(t)

	_, err := runCommand(t, "box", "add", "Garage")
	require.NoError(t, err)
	_, err = runCommand(t, "item", "add", "Hammer", "--box", "1", "--quantity", "3")
	require.NoError(t, err)

	path := filepath.Join(dir, "export.csv")
	out, err := runCommand(t, "export", "inventory", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 1 items")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ID,Item Name,Box,Quantity")
	assert.Contains(t, string(data), "Hammer,Garage,3")
}

func TestBackupCommands(t *testing.T) {
	dir := setupEnv(t)

	// A fresh database with no backups is stale.
	_, err := runCommand(t, "backup", "status")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	out, err := runCommand(t, "backup", "create")
	require.NoError(t, err)
	assert.Contains(t, out, "Backed up to")

	entries, err := os.ReadDir(filepath.Join(dir, "backups"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Regexp(t, `^inventory_backup_\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}\.db$`, entries[0].Name())

	out, err = runCommand(t, "backup", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Latest backup:")
}

func TestStatsCommand(t *testing.T) {
	setupEnv(t)

	_, err := runCommand(t, "box", "add", "Garage")
	require.NoError(t, err)
	_, err = runCommand(t, "item", "add", "Hammer", "--box", "1", "--quantity", "3")
	require.NoError(t, err)

	out, err := runCommand(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Boxes: 1")
	assert.Contains(t, out, "Items: 1")
	assert.Contains(t, out, "Total quantity: 3")
}

func TestJSONOutput(t *testing.T) {
	setupEnv(t)

	out, err := runCommand(t, "--format", "json", "box", "add", "Garage")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestDailyLogWritten(t *testing.T) {
	dir := setupEnv(t)

	_, err := runCommand(t, "box", "add", "Garage")
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(dir, "logs"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Regexp(t, `^inventory_\d{4}-\d{2}-\d{2}\.log$`, entries[0].Name())

	data, err := os.ReadFile(filepath.Join(dir, "logs", entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "CREATE - BOX 'Garage' (ID: 1) - Created new box")
}
