package merge

import (
	"slices"

	"github.com/agentstation/assetpipe/pkg/asset"
	"github.com/agentstation/assetpipe/pkg/naming"
)

type activeState struct {
	VertexGroup string
	ShapeKey    string
	Attribute   string
	UV          string
	Color       string
	Action      string
}

// Preserved holds per-item active layers and animation actions of a working
// copy, keyed by item base name.
type Preserved struct {
	items map[string]activeState
}

// Capture records the active layers and actions of every non-linked item
// of the asset.
func Capture(doc *asset.Document) *Preserved {
	p := &Preserved{items: make(map[string]activeState)}
	root := doc.Root()
	if root == nil {
		return p
	}
	for _, item := range root.AllItems() {
		if item.Linked {
			continue
		}
		s := activeState{
			VertexGroup: item.ActiveVertexGroup,
			ShapeKey:    item.ActiveShapeKey,
			Attribute:   item.ActiveAttribute,
			Action:      item.Action,
		}
		if item.Mesh != nil {
			s.UV = item.Mesh.ActiveUV
			s.Color = item.Mesh.ActiveColor
		}
		p.items[naming.Basename(item.Name)] = s
	}
	return p
}

// Len returns the number of captured items.
func (p *Preserved) Len() int {
	return len(p.items)
}

// Restore re-applies captured state to the items of doc with the same base
// name. Active layers are only restored when the layer still exists. It
// returns the number of items touched.
func (p *Preserved) Restore(doc *asset.Document) int {
	root := doc.Root()
	if root == nil {
		return 0
	}
	n := 0
	for _, item := range root.AllItems() {
		s, ok := p.items[naming.Basename(item.Name)]
		if !ok || item.Linked {
			continue
		}
		n++
		item.Action = s.Action
		if item.VertexGroup(s.VertexGroup) != nil {
			item.ActiveVertexGroup = s.VertexGroup
		}
		m := item.Mesh
		if m == nil {
			continue
		}
		if m.ShapeKey(s.ShapeKey) != nil {
			item.ActiveShapeKey = s.ShapeKey
		}
		if m.Attribute(s.Attribute) != nil {
			item.ActiveAttribute = s.Attribute
		}
		if m.IsUVLayer(s.UV) {
			m.ActiveUV = s.UV
		}
		if slices.Contains(m.ColorAttributes, s.Color) {
			m.ActiveColor = s.Color
		}
	}
	return n
}

// UnassignActions clears the animation action of every item of the asset,
// as done to a published copy before it is saved. It returns the number of
// cleared actions.
func UnassignActions(doc *asset.Document) int {
	root := doc.Root()
	if root == nil {
		return 0
	}
	n := 0
	for _, item := range root.AllItems() {
		if item.Action != "" && !item.Linked {
			item.Action = ""
			n++
		}
	}
	return n
}
