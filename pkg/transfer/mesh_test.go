package transfer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/assetpipe/pkg/asset"
	"github.com/agentstation/assetpipe/pkg/constants"
	pkgerrors "github.com/agentstation/assetpipe/pkg/errors"
	"github.com/agentstation/assetpipe/pkg/logging"
	"github.com/agentstation/assetpipe/pkg/tasklayer"
	"github.com/agentstation/assetpipe/pkg/transfer"
)

func TestNearestVertex(t *testing.T) {
	from := []asset.Vec3{{0, 0, 0}, {2, 0, 0}, {4, 0, 0}}
	to := []asset.Vec3{{0.4, 0, 0}, {1, 0, 0}, {3.9, 1, 0}, {10, 0, 0}}

	got := transfer.NearestVertex{}.Sample(from, to)
	assert.Equal(t, []int{0, 0, 2, 2}, got, "ties go to the lowest index")
	assert.Nil(t, transfer.NearestVertex{}.Sample(nil, to))
}

func TestResample(t *testing.T) {
	from := []asset.Vec3{{0, 0, 0}, {1, 0, 0}}

	t.Run("same count copies by index", func(t *testing.T) {
		to := []asset.Vec3{{5, 0, 0}, {-5, 0, 0}}
		assert.Equal(t, []float64{1, 2}, transfer.Resample(transfer.NearestVertex{}, from, to, []float64{1, 2}))
	})

	t.Run("different count samples nearest", func(t *testing.T) {
		to := []asset.Vec3{{0, 0, 0}, {0.9, 0, 0}, {2, 0, 0}}
		assert.Equal(t, []float64{1, 2, 2}, transfer.Resample(transfer.NearestVertex{}, from, to, []float64{1, 2}))
	})

	t.Run("short values yield zero", func(t *testing.T) {
		to := []asset.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 0, 0}}
		assert.Equal(t, []float64{1, 0, 0}, transfer.Resample(transfer.NearestVertex{}, from, to, []float64{1}))
	})
}

func TestVertexGroupTransfer(t *testing.T) {
	r := transfer.NewRegistry()
	records := []asset.SubItemOwnership{
		{Name: "Spine", Kind: asset.KindVertexGroup, Owner: "rigging"},
		{Name: "Head", Kind: asset.KindVertexGroup, Owner: "rigging"},
	}

	newSource := func() *asset.Item {
		return &asset.Item{
			Core: asset.Core{Name: "Body.LOCAL"},
			Mesh: asset.TestMesh(t, 4),
			VertexGroups: []*asset.VertexGroup{
				{Name: "Spine", Weights: []float64{1, 0.5, 0, 0.25}},
				{Name: "Head", Weights: []float64{0, 0, 1, 1}},
			},
		}
	}

	t.Run("identical topology", func(t *testing.T) {
		source := newSource()
		target := &asset.Item{
			Mesh:         asset.TestMesh(t, 4),
			VertexGroups: []*asset.VertexGroup{{Name: "Spine", Weights: []float64{0, 0, 0, 0}}},
		}
		require.NoError(t, r.Apply(context.Background(), source, target, asset.KindVertexGroup, records))
		require.Len(t, target.VertexGroups, 2)
		assert.Equal(t, []float64{1, 0.5, 0, 0.25}, target.VertexGroup("Spine").Weights)
		assert.Equal(t, []float64{0, 0, 1, 1}, target.VertexGroup("Head").Weights)

		target.VertexGroup("Spine").Weights[0] = 0
		assert.Equal(t, 1.0, source.VertexGroup("Spine").Weights[0])
	})

	t.Run("resampled", func(t *testing.T) {
		source := newSource()
		target := &asset.Item{Mesh: asset.TestMesh(t, 8)}
		require.NoError(t, r.Apply(context.Background(), source, target, asset.KindVertexGroup, records))
		assert.Equal(t, []float64{1, 0.5, 0, 0.25, 0.25, 0.25, 0.25, 0.25}, target.VertexGroup("Spine").Weights)
		assert.Equal(t, []float64{0, 0, 1, 1, 1, 1, 1, 1}, target.VertexGroup("Head").Weights)
	})

	t.Run("missing group aborts the batch", func(t *testing.T) {
		tl := logging.NewTestLogger(t)
		ctx := logging.WithLogger(context.Background(), tl.Logger)
		source := newSource()
		source.VertexGroups = source.VertexGroups[:1]
		target := &asset.Item{Mesh: asset.TestMesh(t, 4)}

		require.NoError(t, r.Apply(ctx, source, target, asset.KindVertexGroup, records))
		assert.Empty(t, target.VertexGroups)
		tl.AssertContains(t, "Vertex group not found on source")
	})
}

func TestAttributeTransfer(t *testing.T) {
	r := transfer.NewRegistry()
	records := []asset.SubItemOwnership{{Name: "sharp_face", Kind: asset.KindAttribute, Owner: "modeling"}}

	source := &asset.Item{Mesh: asset.TestMesh(t, 8)}
	source.Mesh.Attributes = append(source.Mesh.Attributes,
		&asset.Attribute{Name: "sharp_face", Domain: asset.DomainFace, Values: []float64{1, 0}})

	t.Run("replaces existing", func(t *testing.T) {
		target := &asset.Item{Mesh: asset.TestMesh(t, 8)}
		target.Mesh.Attributes = append(target.Mesh.Attributes,
			&asset.Attribute{Name: "sharp_face", Domain: asset.DomainPoint, Values: make([]float64, 8)})

		require.NoError(t, r.Apply(context.Background(), source, target, asset.KindAttribute, records))
		got := target.Mesh.Attribute("sharp_face")
		require.NotNil(t, got)
		assert.Equal(t, asset.DomainFace, got.Domain)
		assert.Equal(t, []float64{1, 0}, got.Values)
		assert.Len(t, target.Mesh.Attributes, 2)
	})

	t.Run("resamples faces", func(t *testing.T) {
		target := &asset.Item{Mesh: asset.TestMesh(t, 4)}
		require.NoError(t, r.Apply(context.Background(), source, target, asset.KindAttribute, records))
		assert.Equal(t, []float64{1}, target.Mesh.Attribute("sharp_face").Values)
	})

	t.Run("absent on source", func(t *testing.T) {
		target := &asset.Item{Mesh: asset.TestMesh(t, 4)}
		missing := []asset.SubItemOwnership{{Name: "gone", Kind: asset.KindAttribute}}
		require.NoError(t, r.Apply(context.Background(), source, target, asset.KindAttribute, missing))
		assert.Nil(t, target.Mesh.Attribute("gone"))
	})
}

func TestMaterialTransfer(t *testing.T) {
	r := transfer.NewRegistry()
	wood := &asset.Shared{Core: asset.Core{Name: "Wood"}, Kind: asset.SharedMaterial}
	metal := &asset.Shared{Core: asset.Core{Name: "Metal"}, Kind: asset.SharedMaterial}

	source := &asset.Item{Mesh: asset.TestMesh(t, 8), MaterialSlots: []*asset.Shared{wood, metal}}
	source.Mesh.Attribute(constants.MaterialIndexAttribute).Values = []float64{0, 1}
	target := &asset.Item{Mesh: asset.TestMesh(t, 8), MaterialSlots: []*asset.Shared{metal}}

	records := []asset.SubItemOwnership{{Name: constants.MaterialRecordName, Kind: asset.KindMaterialSlot, Owner: "shading"}}
	require.NoError(t, r.Apply(context.Background(), source, target, asset.KindMaterialSlot, records))

	assert.Equal(t, []*asset.Shared{wood, metal}, target.MaterialSlots)
	assert.Equal(t, []float64{0, 1}, target.Mesh.Attribute(constants.MaterialIndexAttribute).Values)

	target.MaterialSlots[0] = nil
	assert.Same(t, wood, source.MaterialSlots[0], "slot list is copied")
}

func TestShapeKeyTransfer(t *testing.T) {
	r := transfer.NewRegistry()
	record := func(names ...string) []asset.SubItemOwnership {
		var out []asset.SubItemOwnership
		for _, n := range names {
			out = append(out, asset.SubItemOwnership{Name: n, Kind: asset.KindShapeKey, Owner: "modeling"})
		}
		return out
	}
	newSource := func() *asset.Item {
		m := asset.TestMesh(t, 4)
		m.ShapeKeys = []*asset.ShapeKey{
			{Name: "Basis"},
			{Name: "Smile", RelativeKey: "Basis", Value: 0.5, Offsets: []asset.Vec3{{0, 1, 0}, {0, 1, 0}, {0, 0, 0}, {0, 0, 0}}},
			{Name: "Grin", RelativeKey: "Smile", Value: 1},
		}
		return &asset.Item{Core: asset.Core{Name: "Face.LOCAL"}, Mesh: m}
	}

	t.Run("keeps relative key", func(t *testing.T) {
		source := newSource()
		target := &asset.Item{Mesh: asset.TestMesh(t, 4)}
		require.NoError(t, r.Apply(context.Background(), source, target, asset.KindShapeKey, record("Basis", "Smile")))

		require.Len(t, target.Mesh.ShapeKeys, 2)
		smile := target.Mesh.ShapeKey("Smile")
		require.NotNil(t, smile)
		assert.Equal(t, "Basis", smile.RelativeKey)
		assert.Equal(t, 0.5, smile.Value)
		assert.Equal(t, source.Mesh.ShapeKey("Smile").Offsets, smile.Offsets)
	})

	t.Run("falls back to basis", func(t *testing.T) {
		tl := logging.NewTestLogger(t)
		ctx := logging.WithLogger(context.Background(), tl.Logger)
		source := newSource()
		target := &asset.Item{Core: asset.Core{Name: "Face.EXTERNAL"}, Mesh: asset.TestMesh(t, 4)}
		target.Mesh.ShapeKeys = []*asset.ShapeKey{{Name: "Basis"}}

		require.NoError(t, r.Apply(ctx, source, target, asset.KindShapeKey, record("Grin")))
		assert.Equal(t, "Basis", target.Mesh.ShapeKey("Grin").RelativeKey)
		tl.AssertContains(t, "Base shape was removed from target")
	})

	t.Run("resamples offsets", func(t *testing.T) {
		source := newSource()
		target := &asset.Item{Mesh: asset.TestMesh(t, 6)}
		require.NoError(t, r.Apply(context.Background(), source, target, asset.KindShapeKey, record("Basis", "Smile")))
		assert.Len(t, target.Mesh.ShapeKey("Smile").Offsets, 6)
		assert.Equal(t, asset.Vec3{0, 1, 0}, target.Mesh.ShapeKey("Smile").Offsets[1])
	})

	t.Run("init rejects keys before their base", func(t *testing.T) {
		item := newSource()
		item.Mesh.ShapeKeys[1], item.Mesh.ShapeKeys[2] = item.Mesh.ShapeKeys[2], item.Mesh.ShapeKeys[1]
		s, err := r.Get(asset.KindShapeKey)
		require.NoError(t, err)

		_, err = s.Init(item, transfer.LayerClaimer(tasklayer.TestConfig(t), []string{"modeling"}))
		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidationError(err))
	})
}

func TestParentTransfer(t *testing.T) {
	r := transfer.NewRegistry()
	rig := &asset.Item{Core: asset.Core{Name: "Rig"}}
	source := &asset.Item{Parent: rig, ParentTransform: []float64{1, 0, 0, 1}}
	target := &asset.Item{}

	records := []asset.SubItemOwnership{{Name: constants.ParentRecordName, Kind: asset.KindParent, Owner: "rigging"}}
	require.NoError(t, r.Apply(context.Background(), source, target, asset.KindParent, records))
	assert.Same(t, rig, target.Parent)
	assert.Equal(t, []float64{1, 0, 0, 1}, target.ParentTransform)
}

func TestCustomPropertyTransfer(t *testing.T) {
	r := transfer.NewRegistry()
	source := &asset.Item{CustomProps: map[string]any{"size": 2.0}}
	target := &asset.Item{CustomProps: map[string]any{"size": 1.0, "stale": "x"}}

	records := []asset.SubItemOwnership{
		{Name: "size", Kind: asset.KindCustomProperty, Owner: "rigging"},
		{Name: "stale", Kind: asset.KindCustomProperty, Owner: "rigging"},
	}
	require.NoError(t, r.Apply(context.Background(), source, target, asset.KindCustomProperty, records))
	assert.Equal(t, map[string]any{"size": 2.0}, target.CustomProps)
}

func TestWithSampler(t *testing.T) {
	r := transfer.NewRegistry(transfer.WithSampler(firstSampler{}))
	source := &asset.Item{
		Mesh:         asset.TestMesh(t, 4),
		VertexGroups: []*asset.VertexGroup{{Name: "Spine", Weights: []float64{0.5, 1, 1, 1}}},
	}
	target := &asset.Item{Mesh: asset.TestMesh(t, 2)}

	records := []asset.SubItemOwnership{{Name: "Spine", Kind: asset.KindVertexGroup}}
	require.NoError(t, r.Apply(context.Background(), source, target, asset.KindVertexGroup, records))
	assert.Equal(t, []float64{0.5, 0.5}, target.VertexGroup("Spine").Weights)
}

type firstSampler struct{}

func (firstSampler) Sample(_, to []asset.Vec3) []int {
	return make([]int, len(to))
}
