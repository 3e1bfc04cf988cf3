package merge_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/assetpipe/pkg/asset"
	"github.com/agentstation/assetpipe/pkg/merge"
)

func TestPreserveAcrossPull(t *testing.T) {
	working := chair(t, nil)
	body := working.Item("Body")
	body.Action = "BodyAction"
	body.Mesh.UVLayers = append(body.Mesh.UVLayers, "Paint")
	body.Mesh.ActiveUV = "Paint"
	body.ActiveVertexGroup = "Gone"

	published := chair(t, nil)
	published.Item("Body").Mesh.UVLayers = append(published.Item("Body").Mesh.UVLayers, "Paint")

	kept := merge.Capture(working)
	assert.Equal(t, 1, kept.Len())

	m := newMerger(t, map[string]*asset.Document{publishPath: published})
	_, err := m.Merge(context.Background(), working, pull())
	require.NoError(t, err)

	pulled := working.Item("Body")
	require.NotSame(t, body, pulled, "the published Body replaced the local one")
	assert.Equal(t, "UVMap", pulled.Mesh.ActiveUV)

	assert.Equal(t, 1, kept.Restore(working))
	assert.Equal(t, "BodyAction", pulled.Action)
	assert.Equal(t, "Paint", pulled.Mesh.ActiveUV)
	assert.Empty(t, pulled.ActiveVertexGroup, "missing layers are not restored")
}

func TestUnassignActions(t *testing.T) {
	d := chair(t, nil)
	d.Item("Body").Action = "Walk"
	lib := asset.TestItem(t, d, d.Group("chair-rigging"), "Library", "rigging")
	lib.Linked = true
	lib.Action = "Idle"

	assert.Equal(t, 1, merge.UnassignActions(d))
	assert.Empty(t, d.Item("Body").Action)
	assert.Equal(t, "Idle", lib.Action, "linked items are read only")
	assert.Equal(t, 0, merge.UnassignActions(asset.New()))
}
