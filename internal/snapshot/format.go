package snapshot

import (
	"fmt"

	"github.com/agentstation/assetpipe/pkg/asset"
)

// FormatVersion is written into every snapshot file.
const FormatVersion = 1

// fileDTO is the on-disk shape of a snapshot. Entities reference each
// other by name within their type.
type fileDTO struct {
	Version int         `yaml:"version"`
	ID      string      `yaml:"id,omitempty"`
	Root    string      `yaml:"root,omitempty"`
	Scene   []string    `yaml:"scene,omitempty"`
	Groups  []groupDTO  `yaml:"groups,omitempty"`
	Items   []itemDTO   `yaml:"items,omitempty"`
	Shared  []sharedDTO `yaml:"shared,omitempty"`
}

// CoreDTO holds the fields shared by every entity record.
type CoreDTO struct {
	Name      string `yaml:"name"`
	Owner     string `yaml:"owner,omitempty"`
	Surrender bool   `yaml:"surrender,omitempty"`
	Linked    bool   `yaml:"linked,omitempty"`
}

type groupDTO struct {
	CoreDTO   `yaml:",inline"`
	Children  []string `yaml:"children,omitempty"`
	Items     []string `yaml:"items,omitempty"`
	Asset     bool     `yaml:"asset,omitempty"`
	CatalogID string   `yaml:"catalog_id,omitempty"`
}

type attributeDTO struct {
	Name   string       `yaml:"name"`
	Domain asset.Domain `yaml:"domain"`
	Values []float64    `yaml:"values,flow"`
}

type shapeKeyDTO struct {
	Name        string       `yaml:"name"`
	RelativeKey string       `yaml:"relative_key,omitempty"`
	Value       float64      `yaml:"value,omitempty"`
	Offsets     []asset.Vec3 `yaml:"offsets,omitempty"`
}

type meshDTO struct {
	Vertices        []asset.Vec3   `yaml:"vertices"`
	Faces           [][]int        `yaml:"faces,omitempty"`
	UVLayers        []string       `yaml:"uv_layers,omitempty"`
	ActiveUV        string         `yaml:"active_uv,omitempty"`
	ColorAttributes []string       `yaml:"color_attributes,omitempty"`
	ActiveColor     string         `yaml:"active_color,omitempty"`
	Attributes      []attributeDTO `yaml:"attributes,omitempty"`
	ShapeKeys       []shapeKeyDTO  `yaml:"shape_keys,omitempty"`
}

type vertexGroupDTO struct {
	Name    string    `yaml:"name"`
	Weights []float64 `yaml:"weights,flow"`
}

type modifierDTO struct {
	Name      string         `yaml:"name"`
	Type      string         `yaml:"type,omitempty"`
	Props     map[string]any `yaml:"props,omitempty"`
	Object    string         `yaml:"object,omitempty"`
	NodeGroup string         `yaml:"node_group,omitempty"`
}

type constraintDTO struct {
	Name   string         `yaml:"name"`
	Type   string         `yaml:"type,omitempty"`
	Props  map[string]any `yaml:"props,omitempty"`
	Target string         `yaml:"target,omitempty"`
}

type driverDTO struct {
	Path       string `yaml:"path"`
	Expression string `yaml:"expression"`
}

type itemDTO struct {
	CoreDTO         `yaml:",inline"`
	Records         []asset.SubItemOwnership `yaml:"records,omitempty"`
	Mesh            *meshDTO                 `yaml:"mesh,omitempty"`
	VertexGroups    []vertexGroupDTO         `yaml:"vertex_groups,omitempty"`
	Modifiers       []modifierDTO            `yaml:"modifiers,omitempty"`
	Constraints     []constraintDTO          `yaml:"constraints,omitempty"`
	MaterialSlots   []string                 `yaml:"material_slots,omitempty"`
	Parent          string                   `yaml:"parent,omitempty"`
	ParentTransform []float64                `yaml:"parent_transform,omitempty,flow"`
	CustomProps     map[string]any           `yaml:"custom_props,omitempty"`
	Drivers         []driverDTO              `yaml:"drivers,omitempty"`

	ActiveVertexGroup string `yaml:"active_vertex_group,omitempty"`
	ActiveShapeKey    string `yaml:"active_shape_key,omitempty"`
	ActiveAttribute   string `yaml:"active_attribute,omitempty"`
	Action            string `yaml:"action,omitempty"`
}

type sharedDTO struct {
	CoreDTO `yaml:",inline"`
	Kind    asset.SharedKind `yaml:"kind"`
	Refs    []string         `yaml:"refs,omitempty"`
}

func toCore(c asset.Core) CoreDTO {
	return CoreDTO{Name: c.Name, Owner: c.Owner, Surrender: c.Surrender, Linked: c.Linked}
}

func (c CoreDTO) core() asset.Core {
	return asset.Core{Name: c.Name, Owner: c.Owner, Surrender: c.Surrender, Linked: c.Linked}
}

func name[T asset.Entity](e T, ok bool) string {
	if !ok {
		return ""
	}
	return e.Meta().Name
}

// encode converts doc into its file shape.
func encode(doc *asset.Document, id string) *fileDTO {
	f := &fileDTO{Version: FormatVersion, ID: id}
	if root := doc.Root(); root != nil {
		f.Root = root.Name
	}
	for _, g := range doc.Scene() {
		f.Scene = append(f.Scene, g.Name)
	}

	for _, g := range doc.Groups() {
		dto := groupDTO{CoreDTO: toCore(g.Core)}
		for _, c := range g.Children {
			dto.Children = append(dto.Children, c.Name)
		}
		for _, i := range g.Items {
			dto.Items = append(dto.Items, i.Name)
		}
		if g.Asset != nil {
			dto.Asset = true
			dto.CatalogID = g.Asset.CatalogID
		}
		f.Groups = append(f.Groups, dto)
	}

	for _, i := range doc.Items() {
		f.Items = append(f.Items, encodeItem(i))
	}

	for _, s := range doc.SharedEntities() {
		dto := sharedDTO{CoreDTO: toCore(s.Core), Kind: s.Kind}
		for _, r := range s.Refs {
			dto.Refs = append(dto.Refs, r.Name)
		}
		f.Shared = append(f.Shared, dto)
	}
	return f
}

func encodeItem(i *asset.Item) itemDTO {
	dto := itemDTO{
		CoreDTO:           toCore(i.Core),
		Records:           i.Records,
		ParentTransform:   i.ParentTransform,
		CustomProps:       i.CustomProps,
		ActiveVertexGroup: i.ActiveVertexGroup,
		ActiveShapeKey:    i.ActiveShapeKey,
		ActiveAttribute:   i.ActiveAttribute,
		Action:            i.Action,
		Parent:            name(i.Parent, i.Parent != nil),
	}
	if m := i.Mesh; m != nil {
		md := &meshDTO{
			Vertices:        m.Vertices,
			Faces:           m.Faces,
			UVLayers:        m.UVLayers,
			ActiveUV:        m.ActiveUV,
			ColorAttributes: m.ColorAttributes,
			ActiveColor:     m.ActiveColor,
		}
		for _, a := range m.Attributes {
			md.Attributes = append(md.Attributes, attributeDTO{Name: a.Name, Domain: a.Domain, Values: a.Values})
		}
		for _, k := range m.ShapeKeys {
			md.ShapeKeys = append(md.ShapeKeys, shapeKeyDTO{Name: k.Name, RelativeKey: k.RelativeKey, Value: k.Value, Offsets: k.Offsets})
		}
		dto.Mesh = md
	}
	for _, vg := range i.VertexGroups {
		dto.VertexGroups = append(dto.VertexGroups, vertexGroupDTO{Name: vg.Name, Weights: vg.Weights})
	}
	for _, m := range i.Modifiers {
		dto.Modifiers = append(dto.Modifiers, modifierDTO{
			Name:      m.Name,
			Type:      m.Type,
			Props:     m.Props,
			Object:    name(m.Object, m.Object != nil),
			NodeGroup: name(m.NodeGroup, m.NodeGroup != nil),
		})
	}
	for _, c := range i.Constraints {
		dto.Constraints = append(dto.Constraints, constraintDTO{
			Name:   c.Name,
			Type:   c.Type,
			Props:  c.Props,
			Target: name(c.Target, c.Target != nil),
		})
	}
	for _, s := range i.MaterialSlots {
		dto.MaterialSlots = append(dto.MaterialSlots, name(s, s != nil))
	}
	for _, d := range i.Drivers {
		dto.Drivers = append(dto.Drivers, driverDTO{Path: d.Path, Expression: d.Expression})
	}
	return dto
}

// resolver turns names back into entities of a decoded document.
type resolver struct {
	doc *asset.Document
	err error
}

func (r *resolver) group(owner, ref string) *asset.Group {
	g := r.doc.Group(ref)
	if g == nil && r.err == nil {
		r.err = fmt.Errorf("%s references unknown group %q", owner, ref)
	}
	return g
}

func (r *resolver) item(owner, ref string) *asset.Item {
	if ref == "" {
		return nil
	}
	i := r.doc.Item(ref)
	if i == nil && r.err == nil {
		r.err = fmt.Errorf("%s references unknown item %q", owner, ref)
	}
	return i
}

func (r *resolver) shared(owner, ref string) *asset.Shared {
	if ref == "" {
		return nil
	}
	s := r.doc.Shared(ref)
	if s == nil && r.err == nil {
		r.err = fmt.Errorf("%s references unknown shared entity %q", owner, ref)
	}
	return s
}

// decode builds a document from its file shape.
func decode(f *fileDTO) (*asset.Document, error) {
	if f.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", f.Version)
	}
	doc := asset.New()

	groups := make([]*asset.Group, len(f.Groups))
	for idx, dto := range f.Groups {
		groups[idx] = &asset.Group{Core: dto.core()}
		if dto.Asset {
			groups[idx].Asset = &asset.AssetMark{CatalogID: dto.CatalogID}
		}
		if err := doc.AddGroup(groups[idx]); err != nil {
			return nil, err
		}
	}
	items := make([]*asset.Item, len(f.Items))
	for idx, dto := range f.Items {
		items[idx] = &asset.Item{Core: dto.core()}
		if err := doc.AddItem(items[idx]); err != nil {
			return nil, err
		}
	}
	shared := make([]*asset.Shared, len(f.Shared))
	for idx, dto := range f.Shared {
		shared[idx] = &asset.Shared{Core: dto.core(), Kind: dto.Kind}
		if err := doc.AddShared(shared[idx]); err != nil {
			return nil, err
		}
	}

	r := &resolver{doc: doc}
	for idx, dto := range f.Groups {
		g := groups[idx]
		for _, ref := range dto.Children {
			if c := r.group(g.Name, ref); c != nil {
				g.Children = append(g.Children, c)
			}
		}
		for _, ref := range dto.Items {
			if i := r.item(g.Name, ref); i != nil {
				g.Items = append(g.Items, i)
			}
		}
	}
	for idx, dto := range f.Items {
		decodeItem(r, items[idx], dto)
	}
	for idx, dto := range f.Shared {
		s := shared[idx]
		for _, ref := range dto.Refs {
			if target := r.shared(s.Name, ref); target != nil {
				s.Refs = append(s.Refs, target)
			}
		}
	}

	if f.Root != "" {
		doc.SetRoot(r.group("root", f.Root))
	}
	for _, ref := range f.Scene {
		if g := r.group("scene", ref); g != nil {
			doc.LinkScene(g)
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return doc, nil
}

func decodeItem(r *resolver, i *asset.Item, dto itemDTO) {
	i.Records = dto.Records
	i.ParentTransform = dto.ParentTransform
	i.CustomProps = dto.CustomProps
	i.ActiveVertexGroup = dto.ActiveVertexGroup
	i.ActiveShapeKey = dto.ActiveShapeKey
	i.ActiveAttribute = dto.ActiveAttribute
	i.Action = dto.Action
	i.Parent = r.item(i.Name, dto.Parent)

	if md := dto.Mesh; md != nil {
		m := &asset.Mesh{
			Vertices:        md.Vertices,
			Faces:           md.Faces,
			UVLayers:        md.UVLayers,
			ActiveUV:        md.ActiveUV,
			ColorAttributes: md.ColorAttributes,
			ActiveColor:     md.ActiveColor,
		}
		for _, a := range md.Attributes {
			m.Attributes = append(m.Attributes, &asset.Attribute{Name: a.Name, Domain: a.Domain, Values: a.Values})
		}
		for _, k := range md.ShapeKeys {
			m.ShapeKeys = append(m.ShapeKeys, &asset.ShapeKey{Name: k.Name, RelativeKey: k.RelativeKey, Value: k.Value, Offsets: k.Offsets})
		}
		i.Mesh = m
	}
	for _, vg := range dto.VertexGroups {
		i.VertexGroups = append(i.VertexGroups, &asset.VertexGroup{Name: vg.Name, Weights: vg.Weights})
	}
	for _, m := range dto.Modifiers {
		i.Modifiers = append(i.Modifiers, &asset.Modifier{
			Name:      m.Name,
			Type:      m.Type,
			Props:     m.Props,
			Object:    r.item(i.Name, m.Object),
			NodeGroup: r.shared(i.Name, m.NodeGroup),
		})
	}
	for _, c := range dto.Constraints {
		i.Constraints = append(i.Constraints, &asset.Constraint{
			Name:   c.Name,
			Type:   c.Type,
			Props:  c.Props,
			Target: r.item(i.Name, c.Target),
		})
	}
	for _, ref := range dto.MaterialSlots {
		i.MaterialSlots = append(i.MaterialSlots, r.shared(i.Name, ref))
	}
	for _, d := range dto.Drivers {
		i.Drivers = append(i.Drivers, asset.Driver{Path: d.Path, Expression: d.Expression})
	}
}
