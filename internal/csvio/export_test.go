package csvio

import (
	"bytes"
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packrat-dev/packrat/internal/audit"
)

func seedInventory(t *testing.T, env *testEnv) {
	t.Helper()
	ctx := context.Background()

	garage, err := env.repo.CreateBox(ctx, "Garage", "")
	require.NoError(t, err)
	attic, err := env.repo.CreateBox(ctx, "Attic", "")
	require.NoError(t, err)
	_, err = env.repo.CreateItem(ctx, "Hammer", garage, 3)
	require.NoError(t, err)
	_, err = env.repo.CreateItem(ctx, "Holiday lights", attic, 2)
	require.NoError(t, err)
}

func TestExportInventory(t *testing.T) {
	env := newTestEnv(t)
	seedInventory(t, env)

	var buf bytes.Buffer
	count, err := env.exporter.ExportInventory(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "inventory_export", buf.Bytes())

	exports, err := env.log.Query(context.Background(), audit.Filter{Action: audit.ActionExport})
	require.NoError(t, err)
	require.Len(t, exports, 1)
	assert.Equal(t, audit.EntityInventory, exports[0].EntityType)
	assert.Equal(t, "Exported 2 items to CSV", exports[0].Details)
}

func TestExportInventory_Empty(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	count, err := env.exporter.ExportInventory(context.Background(), &buf)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Equal(t, "ID,Item Name,Box,Quantity\n", buf.String())
}

func TestExportAudit(t *testing.T) {
	env := newTestEnv(t)
	seedInventory(t, env)

	var buf bytes.Buffer
	count, err := env.exporter.ExportAudit(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "audit_export", buf.Bytes())

	exports, err := env.log.Query(context.Background(), audit.Filter{Action: audit.ActionExport})
	require.NoError(t, err)
	require.Len(t, exports, 1)
	assert.Equal(t, audit.EntityLogs, exports[0].EntityType)
	assert.Equal(t, "Exported 4 audit logs to CSV", exports[0].Details)
}
