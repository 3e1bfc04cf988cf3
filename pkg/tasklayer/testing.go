package tasklayer

import (
	"testing"

	"github.com/agentstation/assetpipe/pkg/asset"
)

// TestFile returns a task layer definition with modeling, rigging, shading
// and animation layers.
func TestFile(t testing.TB) File {
	t.Helper()
	return File{
		TaskLayerTypes: Layers{
			{Key: "modeling", Prefix: "GEO"},
			{Key: "rigging", Prefix: "RIG"},
			{Key: "shading", Prefix: "SHD"},
			{Key: "animation", Prefix: "ANI"},
		},
		TransferDataDefaults: map[asset.Kind]Default{
			asset.KindVertexGroup:    {Owner: "rigging"},
			asset.KindModifier:       {Owner: "rigging"},
			asset.KindConstraint:     {Owner: "rigging"},
			asset.KindMaterialSlot:   {Owner: "shading", AutoSurrender: true},
			asset.KindShapeKey:       {Owner: "modeling"},
			asset.KindAttribute:      {Owner: "modeling"},
			asset.KindParent:         {Owner: "rigging"},
			asset.KindCustomProperty: {Owner: "rigging"},
		},
		AttributeDefaults: map[string]Default{
			"sharp_face": {Owner: "modeling"},
			"skin_tone":  {Owner: "shading", AutoSurrender: true},
		},
	}
}

// TestConfig returns a validated Config built from TestFile.
func TestConfig(t testing.TB) *Config {
	t.Helper()
	c, err := New(TestFile(t))
	if err != nil {
		t.Fatalf("invalid test task layer file: %v", err)
	}
	return c
}
