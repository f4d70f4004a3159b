package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packrat-dev/packrat/internal/testutil"
)

func TestDailyWriter_WritesDatedFile(t *testing.T) {
	dir := t.TempDir()
	w, err := NewDailyWriter(dir)
	require.NoError(t, err)
	defer w.Close()

	clock := testutil.NewClock(time.Date(2025, 6, 1, 23, 0, 0, 0, time.UTC), 0)
	w.now = clock.Current

	_, err = w.Write([]byte("first line\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "inventory_2025-06-01.log"))
	require.NoError(t, err)
	assert.Equal(t, "first line\n", string(data))
}

func TestDailyWriter_RollsOnDayChange(t *testing.T) {
	dir := t.TempDir()
	w, err := NewDailyWriter(dir)
	require.NoError(t, err)
	defer w.Close()

	clock := testutil.NewClock(time.Date(2025, 6, 1, 23, 59, 0, 0, time.UTC), 0)
	w.now = clock.Current

	_, err = w.Write([]byte("before midnight\n"))
	require.NoError(t, err)

	clock.Set(time.Date(2025, 6, 2, 0, 1, 0, 0, time.UTC))
	_, err = w.Write([]byte("after midnight\n"))
	require.NoError(t, err)

	first, err := os.ReadFile(filepath.Join(dir, "inventory_2025-06-01.log"))
	require.NoError(t, err)
	assert.Equal(t, "before midnight\n", string(first))

	second, err := os.ReadFile(filepath.Join(dir, "inventory_2025-06-02.log"))
	require.NoError(t, err)
	assert.Equal(t, "after midnight\n", string(second))
}

func TestDailyWriter_AppendsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	clock := testutil.NewClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), 0)

	w, err := NewDailyWriter(dir)
	require.NoError(t, err)
	w.now = clock.Current
	_, err = w.Write([]byte("run one\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	w, err = NewDailyWriter(dir)
	require.NoError(t, err)
	w.now = clock.Current
	_, err = w.Write([]byte("run two\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(filepath.Join(dir, "inventory_2025-06-01.log"))
	require.NoError(t, err)
	assert.Equal(t, "run one\nrun two\n", string(data))
}

func TestNew_LineFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, false)

	log.Info().Msg("Box created")

	line := buf.String()
	assert.Contains(t, line, " - INFO - Box created")
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} - INFO - Box created`, line)
}

func TestNew_VerboseEnablesDebug(t *testing.T) {
	var buf bytes.Buffer

	log := New(&buf, false)
	log.Debug().Msg("hidden")
	assert.Empty(t, buf.String())

	log = New(&buf, true)
	log.Debug().Msg("shown")
	assert.Contains(t, buf.String(), " - DEBUG - shown")
}
