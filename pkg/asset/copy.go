package asset

import (
	"maps"
	"slices"

	"github.com/agentstation/assetpipe/pkg/errors"
)

// copier deep-copies entities and rewires references between copies.
type copier struct {
	mapped map[Entity]Entity
}

func newCopier() *copier {
	return &copier{mapped: make(map[Entity]Entity)}
}

// shell allocates the copy of e with its core fields only.
func (c *copier) shell(e Entity) Entity {
	var out Entity
	switch v := e.(type) {
	case *Group:
		out = &Group{Core: v.Core}
	case *Item:
		out = &Item{Core: v.Core}
	case *Shared:
		out = &Shared{Core: v.Core, Kind: v.Kind}
	}
	c.mapped[e] = out
	return out
}

func (c *copier) group(g *Group) *Group {
	if g == nil {
		return nil
	}
	if m, ok := c.mapped[g].(*Group); ok {
		return m
	}
	return nil
}

func (c *copier) item(i *Item) *Item {
	if i == nil {
		return nil
	}
	if m, ok := c.mapped[i].(*Item); ok {
		return m
	}
	return nil
}

func (c *copier) shared(s *Shared) *Shared {
	if s == nil {
		return nil
	}
	if m, ok := c.mapped[s].(*Shared); ok {
		return m
	}
	return nil
}

// fill copies content and references of src into its shell.
func (c *copier) fill(src Entity) {
	switch v := src.(type) {
	case *Group:
		dst := c.mapped[v].(*Group)
		if v.Asset != nil {
			mark := *v.Asset
			dst.Asset = &mark
		}
		for _, child := range v.Children {
			if m := c.group(child); m != nil {
				dst.Children = append(dst.Children, m)
			}
		}
		for _, item := range v.Items {
			if m := c.item(item); m != nil {
				dst.Items = append(dst.Items, m)
			}
		}
	case *Item:
		dst := c.mapped[v].(*Item)
		c.fillItem(v, dst)
	case *Shared:
		dst := c.mapped[v].(*Shared)
		for _, r := range v.Refs {
			if m := c.shared(r); m != nil {
				dst.Refs = append(dst.Refs, m)
			}
		}
	}
}

func (c *copier) fillItem(src, dst *Item) {
	dst.Records = slices.Clone(src.Records)
	dst.Mesh = CopyMesh(src.Mesh)
	for _, vg := range src.VertexGroups {
		dst.VertexGroups = append(dst.VertexGroups, &VertexGroup{Name: vg.Name, Weights: slices.Clone(vg.Weights)})
	}
	for _, m := range src.Modifiers {
		dst.Modifiers = append(dst.Modifiers, &Modifier{
			Name:      m.Name,
			Type:      m.Type,
			Props:     maps.Clone(m.Props),
			Object:    c.item(m.Object),
			NodeGroup: c.shared(m.NodeGroup),
		})
	}
	for _, con := range src.Constraints {
		dst.Constraints = append(dst.Constraints, &Constraint{
			Name:   con.Name,
			Type:   con.Type,
			Props:  maps.Clone(con.Props),
			Target: c.item(con.Target),
		})
	}
	for _, s := range src.MaterialSlots {
		dst.MaterialSlots = append(dst.MaterialSlots, c.shared(s))
	}
	dst.Parent = c.item(src.Parent)
	dst.ParentTransform = slices.Clone(src.ParentTransform)
	dst.CustomProps = maps.Clone(src.CustomProps)
	dst.Drivers = slices.Clone(src.Drivers)
	dst.ActiveVertexGroup = src.ActiveVertexGroup
	dst.ActiveShapeKey = src.ActiveShapeKey
	dst.ActiveAttribute = src.ActiveAttribute
	dst.Action = src.Action
}

// CopyMesh returns a deep copy of m.
func CopyMesh(m *Mesh) *Mesh {
	if m == nil {
		return nil
	}
	out := &Mesh{
		Vertices:        slices.Clone(m.Vertices),
		UVLayers:        slices.Clone(m.UVLayers),
		ActiveUV:        m.ActiveUV,
		ColorAttributes: slices.Clone(m.ColorAttributes),
		ActiveColor:     m.ActiveColor,
	}
	for _, f := range m.Faces {
		out.Faces = append(out.Faces, slices.Clone(f))
	}
	for _, a := range m.Attributes {
		out.Attributes = append(out.Attributes, &Attribute{Name: a.Name, Domain: a.Domain, Values: slices.Clone(a.Values)})
	}
	for _, k := range m.ShapeKeys {
		out.ShapeKeys = append(out.ShapeKeys, &ShapeKey{
			Name:        k.Name,
			RelativeKey: k.RelativeKey,
			Value:       k.Value,
			Offsets:     slices.Clone(k.Offsets),
		})
	}
	return out
}

// Import copies root and everything it references from src into d and
// returns the copy of root. Linked entities that already exist in d under
// the same name are reused instead of copied. Any other name collision
// fails the import before d is modified.
func (d *Document) Import(src *Document, root Entity) (Entity, error) {
	if root == nil {
		return nil, errors.ErrInvalidInput
	}
	closure := src.Closure(root)

	c := newCopier()
	var fresh []Entity
	isFresh := make(map[Entity]bool)
	for _, e := range closure {
		existing := d.Lookup(e.Type(), e.Meta().Name)
		if existing == nil {
			shell := c.shell(e)
			fresh = append(fresh, shell)
			isFresh[e] = true
			continue
		}
		if e.Meta().Linked && existing.Meta().Linked {
			c.mapped[e] = existing
			continue
		}
		return nil, nameTaken(e.Type(), e.Meta().Name)
	}

	for _, e := range closure {
		if isFresh[e] {
			c.fill(e)
		}
	}
	for _, e := range fresh {
		if err := d.Add(e); err != nil {
			return nil, err
		}
	}
	return c.mapped[root], nil
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	out := New()
	c := newCopier()
	all := d.Entities()
	for _, e := range all {
		c.shell(e)
	}
	for _, e := range all {
		c.fill(e)
		_ = out.Add(c.mapped[e])
	}
	out.root = c.group(d.root)
	for _, g := range d.scene {
		out.scene = append(out.scene, c.group(g))
	}
	return out
}
