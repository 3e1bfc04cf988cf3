package diff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/assetpipe/cmd/assetpipe/cmd/diff"
	"github.com/agentstation/assetpipe/pkg/asset"
)

func chair(t *testing.T, armatureOwner string) *asset.Document {
	t.Helper()
	d := asset.TestDocument(t, "chair", "modeling", "rigging")
	body := asset.TestItem(t, d, d.Group("chair-modeling"), "Body", "modeling")
	body.AddRecord(asset.SubItemOwnership{Name: "RIG-Armature", Kind: asset.KindModifier, Owner: armatureOwner})
	return d
}

func TestLines(t *testing.T) {
	lines := diff.Lines(chair(t, "rigging"))
	assert.Contains(t, lines, "item Body = modeling\n")
	assert.Contains(t, lines, "MODIFIER Body/RIG-Armature = rigging\n")
	assert.IsNonDecreasing(t, lines)
}

func TestUnified(t *testing.T) {
	same, err := diff.Unified(chair(t, "rigging"), chair(t, "rigging"), "a", "b", 3)
	require.NoError(t, err)
	assert.Empty(t, same)

	changed, err := diff.Unified(chair(t, "rigging"), chair(t, "animation"), "publish/chair-v001.yaml", "chair-rigging.yaml", 0)
	require.NoError(t, err)
	assert.Contains(t, changed, "--- publish/chair-v001.yaml")
	assert.Contains(t, changed, "+++ chair-rigging.yaml")
	assert.Contains(t, changed, "-MODIFIER Body/RIG-Armature = rigging")
	assert.Contains(t, changed, "+MODIFIER Body/RIG-Armature = animation")
}
