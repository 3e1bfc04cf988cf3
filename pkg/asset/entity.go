package asset

import (
	"github.com/agentstation/assetpipe/pkg/constants"
)

// Type distinguishes the three entity namespaces of a Document.
// Names are unique per Type, not across types.
type Type string

// Entity types.
const (
	TypeGroup  Type = "group"
	TypeItem   Type = "item"
	TypeShared Type = "shared"
)

// String returns the string representation of a Type.
func (t Type) String() string {
	return string(t)
}

// Core holds the fields every entity carries.
type Core struct {
	Name      string
	Owner     string
	Surrender bool // let the other side's owner take over on the next merge
	Linked    bool // read-only, imported from another file
}

// Meta returns the shared entity fields.
func (c *Core) Meta() *Core {
	return c
}

// Unowned reports whether no task layer has claimed the entity.
func (c *Core) Unowned() bool {
	return c.Owner == "" || c.Owner == constants.NoOwner
}

// Entity is a Group, an Item or a Shared entity.
type Entity interface {
	Type() Type
	Meta() *Core
}

// Group is a named container node. Groups directly under the asset root
// are the task layer groups.
type Group struct {
	Core
	Children []*Group
	Items    []*Item

	// Asset is set when the group is marked as a library asset.
	Asset *AssetMark
}

// AssetMark is the library metadata of a group marked as an asset.
type AssetMark struct {
	CatalogID string
}

// Type implements Entity.
func (g *Group) Type() Type { return TypeGroup }

// HasChild reports whether child is a direct member of g.
func (g *Group) HasChild(child Entity) bool {
	switch c := child.(type) {
	case *Group:
		for _, existing := range g.Children {
			if existing == c {
				return true
			}
		}
	case *Item:
		for _, existing := range g.Items {
			if existing == c {
				return true
			}
		}
	}
	return false
}

// AllItems returns the items of g and of every nested group, each once,
// depth first.
func (g *Group) AllItems() []*Item {
	var out []*Item
	seenGroups := make(map[*Group]bool)
	seenItems := make(map[*Item]bool)
	var walk func(*Group)
	walk = func(cur *Group) {
		if seenGroups[cur] {
			return
		}
		seenGroups[cur] = true
		for _, item := range cur.Items {
			if !seenItems[item] {
				seenItems[item] = true
				out = append(out, item)
			}
		}
		for _, child := range cur.Children {
			walk(child)
		}
	}
	walk(g)
	return out
}

// SharedKind names what a Shared entity holds.
type SharedKind string

// Shared entity kinds.
const (
	SharedMaterial  SharedKind = "material"
	SharedNodeGroup SharedKind = "node_group"
	SharedImage     SharedKind = "image"
)

// Shared is data referenced by several items, such as a material or a node
// graph. It is not tree-owned but still carries an owner for conflicts.
type Shared struct {
	Core
	Kind SharedKind
	Refs []*Shared
}

// Type implements Entity.
func (s *Shared) Type() Type { return TypeShared }

// Domain is the element an attribute stores one value for.
type Domain string

// Attribute domains.
const (
	DomainPoint Domain = "POINT"
	DomainFace  Domain = "FACE"
)

// Vec3 is a position or offset in object space.
type Vec3 [3]float64

// Mesh is the geometry of an item.
type Mesh struct {
	Vertices        []Vec3
	Faces           [][]int
	UVLayers        []string
	ActiveUV        string
	ColorAttributes []string
	ActiveColor     string
	Attributes      []*Attribute
	ShapeKeys       []*ShapeKey
}

// Attribute returns the attribute with the given name, or nil.
func (m *Mesh) Attribute(name string) *Attribute {
	for _, a := range m.Attributes {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// ShapeKey returns the shape key with the given name, or nil.
func (m *Mesh) ShapeKey(name string) *ShapeKey {
	for _, k := range m.ShapeKeys {
		if k.Name == name {
			return k
		}
	}
	return nil
}

// IsUVLayer reports whether name is one of the mesh's UV layers.
func (m *Mesh) IsUVLayer(name string) bool {
	for _, uv := range m.UVLayers {
		if uv == name {
			return true
		}
	}
	return false
}

// FaceCenters returns the centroid of every face.
func (m *Mesh) FaceCenters() []Vec3 {
	centers := make([]Vec3, len(m.Faces))
	for i, face := range m.Faces {
		if len(face) == 0 {
			continue
		}
		var c Vec3
		for _, vi := range face {
			if vi < 0 || vi >= len(m.Vertices) {
				continue
			}
			for axis := range c {
				c[axis] += m.Vertices[vi][axis]
			}
		}
		for axis := range c {
			c[axis] /= float64(len(face))
		}
		centers[i] = c
	}
	return centers
}

// Points returns the positions of the given domain's elements.
func (m *Mesh) Points(domain Domain) []Vec3 {
	if domain == DomainFace {
		return m.FaceCenters()
	}
	return m.Vertices
}

// Attribute is a named per-element value layer.
type Attribute struct {
	Name   string
	Domain Domain
	Values []float64
}

// ShapeKey is a named set of vertex offsets relative to another key.
type ShapeKey struct {
	Name        string
	RelativeKey string
	Value       float64
	Offsets     []Vec3
}

// VertexGroup stores one weight per vertex.
type VertexGroup struct {
	Name    string
	Weights []float64
}

// Modifier is one entry of an item's modifier stack.
type Modifier struct {
	Name      string
	Type      string
	Props     map[string]any
	Object    *Item
	NodeGroup *Shared
}

// Constraint is one entry of an item's constraint stack.
type Constraint struct {
	Name   string
	Type   string
	Props  map[string]any
	Target *Item
}

// Driver animates a property path of its item with an expression.
type Driver struct {
	Path       string
	Expression string
}

// Item is a content-bearing node of the asset tree.
type Item struct {
	Core

	Records []SubItemOwnership

	Mesh            *Mesh
	VertexGroups    []*VertexGroup
	Modifiers       []*Modifier
	Constraints     []*Constraint
	MaterialSlots   []*Shared
	Parent          *Item
	ParentTransform []float64
	CustomProps     map[string]any
	Drivers         []Driver

	ActiveVertexGroup string
	ActiveShapeKey    string
	ActiveAttribute   string
	Action            string
}

// Type implements Entity.
func (i *Item) Type() Type { return TypeItem }

// SubItemOwnership records which task layer owns one named sub-item of an item.
type SubItemOwnership struct {
	Name      string `json:"name" yaml:"name"`
	Kind      Kind   `json:"kind" yaml:"kind"`
	Owner     string `json:"owner" yaml:"owner"`
	Surrender bool   `json:"surrender,omitempty" yaml:"surrender,omitempty"`
}

// Record returns the ownership record for (kind, name), or nil.
func (i *Item) Record(kind Kind, name string) *SubItemOwnership {
	for idx := range i.Records {
		if i.Records[idx].Kind == kind && i.Records[idx].Name == name {
			return &i.Records[idx]
		}
	}
	return nil
}

// RecordsOf returns the records of one kind, in order.
func (i *Item) RecordsOf(kind Kind) []SubItemOwnership {
	var out []SubItemOwnership
	for _, r := range i.Records {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

// AddRecord appends rec unless a record with the same kind and name exists.
func (i *Item) AddRecord(rec SubItemOwnership) bool {
	if i.Record(rec.Kind, rec.Name) != nil {
		return false
	}
	i.Records = append(i.Records, rec)
	return true
}

// RemoveRecord deletes the record for (kind, name).
func (i *Item) RemoveRecord(kind Kind, name string) bool {
	for idx := range i.Records {
		if i.Records[idx].Kind == kind && i.Records[idx].Name == name {
			i.Records = append(i.Records[:idx], i.Records[idx+1:]...)
			return true
		}
	}
	return false
}

// ClearRecords drops all ownership bookkeeping of the item.
func (i *Item) ClearRecords() {
	i.Records = nil
}

// VertexGroup returns the vertex group with the given name, or nil.
func (i *Item) VertexGroup(name string) *VertexGroup {
	for _, vg := range i.VertexGroups {
		if vg.Name == name {
			return vg
		}
	}
	return nil
}

// ModifierIndex returns the stack position of the named modifier, or -1.
func (i *Item) ModifierIndex(name string) int {
	for idx, m := range i.Modifiers {
		if m.Name == name {
			return idx
		}
	}
	return -1
}

// ConstraintIndex returns the stack position of the named constraint, or -1.
func (i *Item) ConstraintIndex(name string) int {
	for idx, c := range i.Constraints {
		if c.Name == name {
			return idx
		}
	}
	return -1
}

// VertexCount returns the number of vertices, zero without mesh data.
func (i *Item) VertexCount() int {
	if i.Mesh == nil {
		return 0
	}
	return len(i.Mesh.Vertices)
}
