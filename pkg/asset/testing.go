package asset

import (
	"testing"

	"github.com/agentstation/assetpipe/pkg/constants"
)

// TestDocument creates a document with an asset root named assetName and one
// task layer group per owner, named "<asset>-<owner>" and owned by it.
func TestDocument(t testing.TB, assetName string, owners ...string) *Document {
	t.Helper()
	d := NewDocument(assetName)
	for _, owner := range owners {
		TestGroup(t, d, d.Root(), assetName+"-"+owner, owner)
	}
	return d
}

// TestGroup adds a group under parent.
func TestGroup(t testing.TB, d *Document, parent *Group, name, owner string) *Group {
	t.Helper()
	g := &Group{Core: Core{Name: name, Owner: owner}}
	if err := d.AddGroup(g); err != nil {
		t.Fatalf("failed to add test group: %v", err)
	}
	if parent != nil {
		d.Link(parent, g)
	}
	return g
}

// TestItem adds an item with a small mesh under parent.
func TestItem(t testing.TB, d *Document, parent *Group, name, owner string) *Item {
	t.Helper()
	i := &Item{
		Core: Core{Name: name, Owner: owner},
		Mesh: TestMesh(t, 4),
	}
	if err := d.AddItem(i); err != nil {
		t.Fatalf("failed to add test item: %v", err)
	}
	if parent != nil {
		d.Link(parent, i)
	}
	return i
}

// TestShared adds a shared entity.
func TestShared(t testing.TB, d *Document, name, owner string, kind SharedKind) *Shared {
	t.Helper()
	s := &Shared{Core: Core{Name: name, Owner: owner}, Kind: kind}
	if err := d.AddShared(s); err != nil {
		t.Fatalf("failed to add test shared entity: %v", err)
	}
	return s
}

// TestMesh returns a strip of n vertices along X with one quad per four
// vertices and a material_index face attribute.
func TestMesh(t testing.TB, n int) *Mesh {
	t.Helper()
	m := &Mesh{UVLayers: []string{"UVMap"}, ActiveUV: "UVMap"}
	for i := 0; i < n; i++ {
		m.Vertices = append(m.Vertices, Vec3{float64(i), 0, 0})
	}
	var faceIdx []float64
	for start := 0; start+3 < n; start += 4 {
		m.Faces = append(m.Faces, []int{start, start + 1, start + 2, start + 3})
		faceIdx = append(faceIdx, 0)
	}
	m.Attributes = append(m.Attributes, &Attribute{Name: constants.MaterialIndexAttribute, Domain: DomainFace, Values: faceIdx})
	return m
}
