package asset_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/assetpipe/pkg/asset"
	pkgerrors "github.com/agentstation/assetpipe/pkg/errors"
)

func sampleDocument(t *testing.T) *asset.Document {
	t.Helper()
	d := asset.TestDocument(t, "chair", "modeling", "rigging")
	body := asset.TestItem(t, d, d.Group("chair-modeling"), "Body", "modeling")
	rig := asset.TestItem(t, d, d.Group("chair-rigging"), "Rig", "rigging")
	mat := asset.TestShared(t, d, "Wood", "modeling", asset.SharedMaterial)
	body.MaterialSlots = []*asset.Shared{mat}
	body.Parent = rig
	body.Modifiers = []*asset.Modifier{{Name: "RIG-Armature", Type: "ARMATURE", Object: rig, Props: map[string]any{"use_deform": true}}}
	body.VertexGroups = []*asset.VertexGroup{{Name: "Spine", Weights: []float64{1, 0.5, 0, 0}}}
	body.AddRecord(asset.SubItemOwnership{Name: "RIG-Armature", Kind: asset.KindModifier, Owner: "rigging"})
	return d
}

func TestClone(t *testing.T) {
	d := sampleDocument(t)
	clone := d.Clone()

	require.Equal(t, d.Len(), clone.Len())
	assert.Equal(t, "chair", clone.Root().Name)
	assert.NotSame(t, d.Root(), clone.Root())

	body := clone.Item("Body")
	require.NotNil(t, body)
	assert.Same(t, clone.Item("Rig"), body.Parent)
	assert.Same(t, clone.Item("Rig"), body.Modifiers[0].Object)
	assert.Same(t, clone.Shared("Wood"), body.MaterialSlots[0])

	body.VertexGroups[0].Weights[0] = 0
	body.Modifiers[0].Props["use_deform"] = false
	body.Records[0].Owner = "modeling"

	orig := d.Item("Body")
	assert.Equal(t, 1.0, orig.VertexGroups[0].Weights[0])
	assert.Equal(t, true, orig.Modifiers[0].Props["use_deform"])
	assert.Equal(t, "rigging", orig.Records[0].Owner)
}

func TestImport(t *testing.T) {
	t.Run("copies closure", func(t *testing.T) {
		src := sampleDocument(t)
		dst := asset.NewDocument("scene")

		root, err := dst.Import(src, src.Root())
		require.NoError(t, err)
		assert.Equal(t, "chair", root.Meta().Name)
		assert.NotNil(t, dst.Item("Body"))
		assert.Same(t, dst.Item("Rig"), dst.Item("Body").Parent)
		assert.NotContains(t, dst.Scene(), root, "imports are not linked into the scene")
	})

	t.Run("name collision fails without mutation", func(t *testing.T) {
		src := sampleDocument(t)
		dst := asset.NewDocument("scene")
		asset.TestItem(t, dst, dst.Root(), "Rig", "rigging")
		before := dst.Len()

		_, err := dst.Import(src, src.Root())
		require.Error(t, err)
		assert.True(t, pkgerrors.IsAlreadyExists(err))
		assert.Equal(t, before, dst.Len())
	})

	t.Run("reuses linked entities", func(t *testing.T) {
		src := sampleDocument(t)
		src.Shared("Wood").Linked = true

		dst := asset.NewDocument("scene")
		lib := asset.TestShared(t, dst, "Wood", "NONE", asset.SharedMaterial)
		lib.Linked = true

		_, err := dst.Import(src, src.Root())
		require.NoError(t, err)
		assert.Same(t, lib, dst.Item("Body").MaterialSlots[0])
	})

	t.Run("nil root", func(t *testing.T) {
		_, err := asset.NewDocument("x").Import(asset.New(), nil)
		assert.True(t, pkgerrors.IsValidationError(err))
	})
}

func TestMeshPoints(t *testing.T) {
	m := asset.TestMesh(t, 8)
	assert.Len(t, m.Points(asset.DomainPoint), 8)
	centers := m.Points(asset.DomainFace)
	require.Len(t, centers, 2)
	assert.Equal(t, asset.Vec3{1.5, 0, 0}, centers[0])
	assert.Equal(t, asset.Vec3{5.5, 0, 0}, centers[1])
	assert.True(t, m.IsUVLayer("UVMap"))
	assert.NotNil(t, m.Attribute("material_index"))
	assert.Nil(t, m.ShapeKey("Basis"))
}
