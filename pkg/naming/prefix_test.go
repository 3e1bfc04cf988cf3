package naming_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentstation/assetpipe/pkg/asset"
	"github.com/agentstation/assetpipe/pkg/naming"
)

var prefixes = naming.Prefixes{
	"modeling": "GEO",
	"rigging":  "RIG",
	"shading":  "SHD",
}

func TestTaskLayerPrefixName(t *testing.T) {
	tests := []struct {
		name  string
		owner string
		want  string
	}{
		{"Armature", "rigging", "RIG-Armature"},
		{"RIG-Armature", "modeling", "RIG-Armature"},
		{"GEO-Subsurf", "rigging", "GEO-Subsurf"},
		{"Subsurf", "unknown", "Subsurf"},
		{"RIGArmature", "rigging", "RIG-RIGArmature"},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.owner, func(t *testing.T) {
			assert.Equal(t, tt.want, naming.TaskLayerPrefixName(tt.name, tt.owner, prefixes))
		})
	}
}

func TestTaskLayerPrefixBasename(t *testing.T) {
	assert.Equal(t, "Armature", naming.TaskLayerPrefixBasename("RIG-Armature", prefixes))
	assert.Equal(t, "Armature-2", naming.TaskLayerPrefixBasename("GEO-Armature-2", prefixes))
	assert.Equal(t, "XYZ-Armature", naming.TaskLayerPrefixBasename("XYZ-Armature", prefixes))
}

func TestUpdateTaskLayerPrefix(t *testing.T) {
	item := &asset.Item{
		Modifiers: []*asset.Modifier{
			{Name: "GEO-Armature", Type: "ARMATURE"},
			{Name: "GEO-Subsurf", Type: "SUBSURF"},
		},
		Constraints: []*asset.Constraint{{Name: "GEO-Track", Type: "TRACK_TO"}},
		Drivers: []asset.Driver{
			{Path: `modifiers["GEO-Armature"].show_viewport`, Expression: "var"},
		},
		Records: []asset.SubItemOwnership{
			{Name: "GEO-Armature", Kind: asset.KindModifier, Owner: "rigging"},
			{Name: "GEO-Subsurf", Kind: asset.KindModifier, Owner: "modeling"},
			{Name: "GEO-Track", Kind: asset.KindConstraint, Owner: "rigging"},
			{Name: "GEO-Group", Kind: asset.KindVertexGroup, Owner: "rigging"},
		},
	}

	assert.Equal(t, 2, naming.UpdateTaskLayerPrefix(item, prefixes))
	assert.Equal(t, "RIG-Armature", item.Modifiers[0].Name)
	assert.Equal(t, "GEO-Subsurf", item.Modifiers[1].Name)
	assert.Equal(t, "RIG-Track", item.Constraints[0].Name)
	assert.Equal(t, `modifiers["RIG-Armature"].show_viewport`, item.Drivers[0].Path)
	assert.NotNil(t, item.Record(asset.KindModifier, "RIG-Armature"))
	assert.NotNil(t, item.Record(asset.KindVertexGroup, "GEO-Group"), "vertex groups are never prefixed")

	assert.Equal(t, 0, naming.UpdateTaskLayerPrefix(item, prefixes), "second pass is a no-op")
}
