package transfer_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/assetpipe/pkg/asset"
	"github.com/agentstation/assetpipe/pkg/constants"
	pkgerrors "github.com/agentstation/assetpipe/pkg/errors"
	"github.com/agentstation/assetpipe/pkg/tasklayer"
	"github.com/agentstation/assetpipe/pkg/transfer"
)

func riggedItem(t *testing.T) (*asset.Document, *asset.Item) {
	t.Helper()
	d := asset.TestDocument(t, "chair", "modeling", "rigging")
	rig := asset.TestItem(t, d, d.Group("chair-rigging"), "Rig", "rigging")
	body := asset.TestItem(t, d, d.Group("chair-modeling"), "Body", "modeling")
	wood := asset.TestShared(t, d, "Wood", "shading", asset.SharedMaterial)

	body.Modifiers = []*asset.Modifier{{Name: "Armature", Type: "ARMATURE", Object: rig}}
	body.Drivers = []asset.Driver{{Path: `modifiers["Armature"].show_viewport`, Expression: "var"}}
	body.VertexGroups = []*asset.VertexGroup{{Name: "Spine", Weights: []float64{1, 1, 0, 0}}}
	body.CustomProps = map[string]any{"size": 2.0}
	body.Parent = rig
	body.MaterialSlots = []*asset.Shared{wood}
	body.Mesh.ShapeKeys = []*asset.ShapeKey{{Name: "Basis"}}
	body.Mesh.Attributes = append(body.Mesh.Attributes,
		&asset.Attribute{Name: "sharp_face", Domain: asset.DomainFace, Values: []float64{1}},
		&asset.Attribute{Name: ".internal", Domain: asset.DomainPoint, Values: []float64{0, 0, 0, 0}},
	)
	return d, body
}

func TestNewRegistry(t *testing.T) {
	r := transfer.NewRegistry()
	strategies := r.Strategies()
	require.Len(t, strategies, len(asset.Kinds()))
	for i, kind := range asset.Kinds() {
		assert.Equal(t, kind, strategies[i].Kind())
		assert.NotEmpty(t, strategies[i].Name())
		assert.NotEmpty(t, strategies[i].Description())
	}

	_, err := r.Get(asset.Kind("BOGUS"))
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestRegister(t *testing.T) {
	r := transfer.NewRegistry()
	assert.True(t, pkgerrors.IsValidationError(r.Register(nil)))

	custom := &stubStrategy{kind: asset.KindParent}
	require.NoError(t, r.Register(custom))
	got, err := r.Get(asset.KindParent)
	require.NoError(t, err)
	assert.Same(t, custom, got)

	assert.True(t, pkgerrors.IsValidationError(r.Register(&stubStrategy{kind: "BOGUS"})))
}

func TestInitAll(t *testing.T) {
	cfg := tasklayer.TestConfig(t)
	r := transfer.NewRegistry(transfer.WithPrefixes(cfg))
	_, body := riggedItem(t)

	got, err := r.InitAll(body, transfer.LayerClaimer(cfg, []string{"rigging"}))
	require.NoError(t, err)

	want := []asset.SubItemOwnership{
		{Name: "size", Kind: asset.KindCustomProperty, Owner: "rigging"},
		{Name: constants.ParentRecordName, Kind: asset.KindParent, Owner: "rigging"},
		{Name: "RIG-Armature", Kind: asset.KindModifier, Owner: "rigging"},
		{Name: "Spine", Kind: asset.KindVertexGroup, Owner: "rigging"},
		{Name: constants.MaterialRecordName, Kind: asset.KindMaterialSlot, Owner: "rigging", Surrender: true},
		{Name: "Basis", Kind: asset.KindShapeKey, Owner: "rigging"},
		{Name: "sharp_face", Kind: asset.KindAttribute, Owner: "rigging"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("InitAll() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "Armature", body.Modifiers[0].Name, "init never renames")
}

func TestInitAllSkipsTracked(t *testing.T) {
	cfg := tasklayer.TestConfig(t)
	r := transfer.NewRegistry(transfer.WithPrefixes(cfg))
	_, body := riggedItem(t)
	claim := transfer.LayerClaimer(cfg, []string{"modeling"})

	records, err := r.InitAll(body, claim)
	require.NoError(t, err)
	for _, rec := range records {
		body.AddRecord(rec)
		r.Adopt(body, rec)
	}

	again, err := r.InitAll(body, claim)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestInitAllGates(t *testing.T) {
	cfg := tasklayer.TestConfig(t)
	r := transfer.NewRegistry(transfer.WithPrefixes(cfg))
	claim := transfer.LayerClaimer(cfg, []string{"rigging"})

	t.Run("linked items", func(t *testing.T) {
		_, body := riggedItem(t)
		body.Linked = true
		got, err := r.InitAll(body, claim)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("no mesh", func(t *testing.T) {
		_, body := riggedItem(t)
		body.Mesh = nil
		got, err := r.InitAll(body, claim)
		require.NoError(t, err)
		for _, rec := range got {
			assert.False(t, rec.Kind.NeedsMesh(), rec.Kind)
			assert.NotEqual(t, asset.KindMaterialSlot, rec.Kind)
		}
		assert.Len(t, got, 3)
	})

	t.Run("missing default", func(t *testing.T) {
		f := tasklayer.TestFile(t)
		delete(f.TransferDataDefaults, asset.KindParent)
		partial, err := tasklayer.New(f)
		require.NoError(t, err)

		_, body := riggedItem(t)
		_, err = r.InitAll(body, transfer.LayerClaimer(partial, []string{"rigging"}))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "task layer file missing key PARENT")
	})
}

func TestAdopt(t *testing.T) {
	cfg := tasklayer.TestConfig(t)
	r := transfer.NewRegistry(transfer.WithPrefixes(cfg))
	_, body := riggedItem(t)

	rec := asset.SubItemOwnership{Name: "RIG-Armature", Kind: asset.KindModifier, Owner: "rigging"}
	assert.True(t, r.Adopt(body, rec))
	assert.Equal(t, "RIG-Armature", body.Modifiers[0].Name)
	assert.Equal(t, `modifiers["RIG-Armature"].show_viewport`, body.Drivers[0].Path)
	assert.False(t, r.Adopt(body, rec), "already adopted")

	assert.False(t, r.Adopt(body, asset.SubItemOwnership{Name: "Spine", Kind: asset.KindVertexGroup, Owner: "rigging"}))
}

func TestIsMissing(t *testing.T) {
	r := transfer.NewRegistry()
	_, body := riggedItem(t)

	tests := []struct {
		name   string
		record asset.SubItemOwnership
		mutate func(*asset.Item)
	}{
		{"vertex group", asset.SubItemOwnership{Name: "Spine", Kind: asset.KindVertexGroup}, func(i *asset.Item) { i.VertexGroups = nil }},
		{"modifier", asset.SubItemOwnership{Name: "Armature", Kind: asset.KindModifier}, func(i *asset.Item) { i.Modifiers = nil }},
		{"material", asset.SubItemOwnership{Name: constants.MaterialRecordName, Kind: asset.KindMaterialSlot}, func(i *asset.Item) { i.MaterialSlots = nil }},
		{"shape key", asset.SubItemOwnership{Name: "Basis", Kind: asset.KindShapeKey}, func(i *asset.Item) { i.Mesh.ShapeKeys = nil }},
		{"attribute", asset.SubItemOwnership{Name: "sharp_face", Kind: asset.KindAttribute}, func(i *asset.Item) { i.Mesh.Attributes = nil }},
		{"parent", asset.SubItemOwnership{Name: constants.ParentRecordName, Kind: asset.KindParent}, func(i *asset.Item) { i.Parent = nil }},
		{"custom property", asset.SubItemOwnership{Name: "size", Kind: asset.KindCustomProperty}, func(i *asset.Item) { i.CustomProps = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, body = riggedItem(t)
			assert.False(t, r.IsMissing(body, tt.record))
			tt.mutate(body)
			assert.True(t, r.IsMissing(body, tt.record))
		})
	}
}

func TestCleanAll(t *testing.T) {
	r := transfer.NewRegistry()
	_, body := riggedItem(t)
	body.AddRecord(asset.SubItemOwnership{Name: "Spine", Kind: asset.KindVertexGroup, Owner: "rigging"})
	body.AddRecord(asset.SubItemOwnership{Name: constants.ParentRecordName, Kind: asset.KindParent, Owner: "rigging"})

	removed := r.CleanAll(context.Background(), body)

	want := map[asset.Kind][]string{
		asset.KindModifier:       {"Armature"},
		asset.KindMaterialSlot:   {constants.MaterialRecordName},
		asset.KindShapeKey:       {"Basis"},
		asset.KindAttribute:      {"sharp_face"},
		asset.KindCustomProperty: {"size"},
	}
	if diff := cmp.Diff(want, removed); diff != "" {
		t.Errorf("CleanAll() mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, body.Modifiers)
	assert.Empty(t, body.Drivers, "drivers of removed modifiers are dropped")
	assert.Len(t, body.VertexGroups, 1)
	assert.NotNil(t, body.Parent)
	assert.NotNil(t, body.Mesh.Attribute(constants.MaterialIndexAttribute), "material indexes are not attributes")
	assert.NotNil(t, body.Mesh.Attribute(".internal"))
}

func TestApply(t *testing.T) {
	r := transfer.NewRegistry()
	d, body := riggedItem(t)
	other := asset.TestItem(t, d, nil, "Body.EXTERNAL", "modeling")
	records := []asset.SubItemOwnership{{Name: "size", Kind: asset.KindCustomProperty, Owner: "rigging"}}

	t.Run("same item only restores ownership", func(t *testing.T) {
		body.CustomProps["size"] = 3.0
		require.NoError(t, r.Apply(context.Background(), body, body, asset.KindCustomProperty, records))
		assert.NotNil(t, body.Record(asset.KindCustomProperty, "size"))
		assert.Equal(t, 3.0, body.CustomProps["size"])
	})

	t.Run("transfers onto target", func(t *testing.T) {
		require.NoError(t, r.Apply(context.Background(), body, other, asset.KindCustomProperty, records))
		assert.Equal(t, 3.0, other.CustomProps["size"])
		require.Len(t, other.Records, 1)

		require.NoError(t, r.Apply(context.Background(), body, other, asset.KindCustomProperty, records))
		assert.Len(t, other.Records, 1, "records are added once")
	})

	t.Run("nil target", func(t *testing.T) {
		assert.NoError(t, r.Apply(context.Background(), body, nil, asset.KindCustomProperty, records))
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		other.Modifiers = nil
		err := r.Apply(ctx, body, other, asset.KindModifier, []asset.SubItemOwnership{{Name: "Armature", Kind: asset.KindModifier}})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

type stubStrategy struct {
	kind asset.Kind
}

func (s *stubStrategy) Name() string        { return "stub" }
func (s *stubStrategy) Description() string { return "stub" }
func (s *stubStrategy) Kind() asset.Kind    { return s.kind }
func (s *stubStrategy) Init(*asset.Item, transfer.Claimer) ([]asset.SubItemOwnership, error) {
	return nil, nil
}
func (s *stubStrategy) IsMissing(*asset.Item, asset.SubItemOwnership) bool { return false }
func (s *stubStrategy) Clean(*asset.Item) []string                         { return nil }
func (s *stubStrategy) Transfer(context.Context, *asset.Item, *asset.Item, []asset.SubItemOwnership) error {
	return nil
}
