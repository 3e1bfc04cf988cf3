package snapshot

import (
	"testing"

	"github.com/agentstation/assetpipe/pkg/asset"
)

// TestChair returns a chair document that exercises every field of the
// snapshot format: nested groups, cross-item references, shared entities,
// ownership records and active indices.
func TestChair(t testing.TB) *asset.Document {
	t.Helper()
	d := asset.TestDocument(t, "chair", "modeling", "rigging", "shading")
	d.Root().Asset = &asset.AssetMark{CatalogID: "c0ffee00-0000-4000-8000-000000000001"}
	d.LinkScene(d.Root())

	rig := asset.TestItem(t, d, d.Group("chair-rigging"), "Rig", "rigging")
	rig.Mesh = nil
	body := asset.TestItem(t, d, d.Group("chair-modeling"), "Body", "modeling")
	leg := asset.TestItem(t, d, d.Group("chair-modeling"), "Leg", "modeling")

	image := asset.TestShared(t, d, "wood.png", "shading", asset.SharedImage)
	material := asset.TestShared(t, d, "Wood", "shading", asset.SharedMaterial)
	material.Refs = append(material.Refs, image)
	bevel := asset.TestShared(t, d, "GN-Bevel", "modeling", asset.SharedNodeGroup)

	body.Mesh.ColorAttributes = []string{"Dirt"}
	body.Mesh.ActiveColor = "Dirt"
	body.Mesh.UVLayers = append(body.Mesh.UVLayers, "Detail")
	body.Mesh.Attributes = append(body.Mesh.Attributes, &asset.Attribute{Name: "Dirt", Domain: asset.DomainPoint, Values: []float64{0, 0.25, 0.5, 1}})
	body.Mesh.ShapeKeys = []*asset.ShapeKey{
		{Name: "Basis"},
		{Name: "Slouch", RelativeKey: "Basis", Value: 0.5, Offsets: []asset.Vec3{{0, 0, 0}, {0, 0, -0.1}, {0, 0, -0.1}, {0, 0, 0}}},
	}
	body.VertexGroups = []*asset.VertexGroup{{Name: "DEF-spine", Weights: []float64{1, 1, 0.5, 0}}}
	body.Modifiers = []*asset.Modifier{
		{Name: "RIG-Armature", Type: "ARMATURE", Object: rig, Props: map[string]any{"use_vertex_groups": true}},
		{Name: "GEO-Bevel", Type: "NODES", NodeGroup: bevel, Props: map[string]any{"width": 0.02}},
	}
	body.Constraints = []*asset.Constraint{{Name: "RIG-Child Of", Type: "CHILD_OF", Target: rig, Props: map[string]any{"influence": 1.0}}}
	body.MaterialSlots = []*asset.Shared{material, nil}
	body.Parent = rig
	body.ParentTransform = []float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
	body.CustomProps = map[string]any{"variant": "oak"}
	body.Drivers = []asset.Driver{{Path: `modifiers["GEO-Bevel"].show_viewport`, Expression: "lod > 0"}}
	body.ActiveVertexGroup = "DEF-spine"
	body.ActiveShapeKey = "Slouch"
	body.ActiveAttribute = "Dirt"
	body.Action = "chair_idle"
	body.Records = []asset.SubItemOwnership{
		{Name: "RIG-Armature", Kind: asset.KindModifier, Owner: "rigging"},
		{Name: "GEO-Bevel", Kind: asset.KindModifier, Owner: "modeling", Surrender: true},
		{Name: "DEF-spine", Kind: asset.KindVertexGroup, Owner: "rigging"},
	}

	leg.Surrender = true
	leg.Parent = body
	return d
}
