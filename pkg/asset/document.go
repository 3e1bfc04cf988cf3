// Package asset is the in-memory model of an asset document: groups, items
// and shared entities connected by references, plus the sub-item ownership
// records that drive a task layer merge.
//
// A Document is not safe for concurrent mutation. Merges are run to
// completion by a single goroutine.
package asset

import (
	"fmt"

	"github.com/agentstation/assetpipe/pkg/constants"
	"github.com/agentstation/assetpipe/pkg/errors"
)

// Document holds every entity of one working file, indexed by name.
type Document struct {
	root  *Group
	scene []*Group

	groups []*Group
	items  []*Item
	shared []*Shared

	groupIndex  map[string]*Group
	itemIndex   map[string]*Item
	sharedIndex map[string]*Shared
}

// New returns an empty document without an asset root.
func New() *Document {
	return &Document{
		groupIndex:  make(map[string]*Group),
		itemIndex:   make(map[string]*Item),
		sharedIndex: make(map[string]*Shared),
	}
}

// NewDocument returns a document whose asset root is a fresh group named
// assetName, linked into the scene.
func NewDocument(assetName string) *Document {
	d := New()
	root := &Group{Core: Core{Name: assetName, Owner: constants.NoOwner}}
	_ = d.AddGroup(root)
	d.SetRoot(root)
	d.scene = append(d.scene, root)
	return d
}

// Root returns the asset root group.
func (d *Document) Root() *Group {
	return d.root
}

// SetRoot marks g as the asset root. g must belong to the document.
func (d *Document) SetRoot(g *Group) {
	d.root = g
}

// Scene returns the scene roots. Everything reachable from them is in use.
func (d *Document) Scene() []*Group {
	return d.scene
}

// LinkScene adds g to the scene roots.
func (d *Document) LinkScene(g *Group) {
	for _, existing := range d.scene {
		if existing == g {
			return
		}
	}
	d.scene = append(d.scene, g)
}

// UnlinkScene removes g from the scene roots.
func (d *Document) UnlinkScene(g *Group) {
	for idx, existing := range d.scene {
		if existing == g {
			d.scene = append(d.scene[:idx], d.scene[idx+1:]...)
			return
		}
	}
}

// Groups returns all groups in insertion order.
func (d *Document) Groups() []*Group { return d.groups }

// Items returns all items in insertion order.
func (d *Document) Items() []*Item { return d.items }

// SharedEntities returns all shared entities in insertion order.
func (d *Document) SharedEntities() []*Shared { return d.shared }

// Group looks up a group by name.
func (d *Document) Group(name string) *Group { return d.groupIndex[name] }

// Item looks up an item by name.
func (d *Document) Item(name string) *Item { return d.itemIndex[name] }

// Shared looks up a shared entity by name.
func (d *Document) Shared(name string) *Shared { return d.sharedIndex[name] }

// Lookup returns the entity of type t named name, or nil.
func (d *Document) Lookup(t Type, name string) Entity {
	switch t {
	case TypeGroup:
		if g := d.groupIndex[name]; g != nil {
			return g
		}
	case TypeItem:
		if i := d.itemIndex[name]; i != nil {
			return i
		}
	case TypeShared:
		if s := d.sharedIndex[name]; s != nil {
			return s
		}
	}
	return nil
}

// Contains reports whether e is registered in the document.
func (d *Document) Contains(e Entity) bool {
	found := d.Lookup(e.Type(), e.Meta().Name)
	return found != nil && found == e
}

func nameTaken(t Type, name string) error {
	return fmt.Errorf("%s %q: %w", t, name, errors.ErrAlreadyExists)
}

// AddGroup registers g.
func (d *Document) AddGroup(g *Group) error {
	if _, ok := d.groupIndex[g.Name]; ok {
		return nameTaken(TypeGroup, g.Name)
	}
	d.groups = append(d.groups, g)
	d.groupIndex[g.Name] = g
	return nil
}

// AddItem registers i.
func (d *Document) AddItem(i *Item) error {
	if _, ok := d.itemIndex[i.Name]; ok {
		return nameTaken(TypeItem, i.Name)
	}
	d.items = append(d.items, i)
	d.itemIndex[i.Name] = i
	return nil
}

// AddShared registers s.
func (d *Document) AddShared(s *Shared) error {
	if _, ok := d.sharedIndex[s.Name]; ok {
		return nameTaken(TypeShared, s.Name)
	}
	d.shared = append(d.shared, s)
	d.sharedIndex[s.Name] = s
	return nil
}

// Add registers an entity of any type.
func (d *Document) Add(e Entity) error {
	switch v := e.(type) {
	case *Group:
		return d.AddGroup(v)
	case *Item:
		return d.AddItem(v)
	case *Shared:
		return d.AddShared(v)
	}
	return fmt.Errorf("unsupported entity %T", e)
}

// Link makes child a member of parent. Linking twice is a no-op.
func (d *Document) Link(parent *Group, child Entity) {
	if parent.HasChild(child) {
		return
	}
	switch c := child.(type) {
	case *Group:
		parent.Children = append(parent.Children, c)
	case *Item:
		parent.Items = append(parent.Items, c)
	}
}

// Unlink removes child from parent's members.
func (d *Document) Unlink(parent *Group, child Entity) {
	switch c := child.(type) {
	case *Group:
		parent.Children = removeGroup(parent.Children, c)
	case *Item:
		parent.Items = removeItem(parent.Items, c)
	}
}

// Containers returns every group that holds e as a direct member.
func (d *Document) Containers(e Entity) []*Group {
	var out []*Group
	for _, g := range d.groups {
		if g.HasChild(e) {
			out = append(out, g)
		}
	}
	return out
}

// Rename changes the name of e, failing when another entity of the same
// type already uses newName.
func (d *Document) Rename(e Entity, newName string) error {
	meta := e.Meta()
	if meta.Name == newName {
		return nil
	}
	if existing := d.Lookup(e.Type(), newName); existing != nil {
		return nameTaken(e.Type(), newName)
	}
	if !d.Contains(e) {
		return errors.NewNotFoundError(e.Type().String(), meta.Name)
	}

	switch v := e.(type) {
	case *Group:
		delete(d.groupIndex, v.Name)
		v.Name = newName
		d.groupIndex[newName] = v
	case *Item:
		delete(d.itemIndex, v.Name)
		v.Name = newName
		d.itemIndex[newName] = v
	case *Shared:
		delete(d.sharedIndex, v.Name)
		v.Name = newName
		d.sharedIndex[newName] = v
	}
	return nil
}

// Len returns the number of entities in the document.
func (d *Document) Len() int {
	return len(d.groups) + len(d.items) + len(d.shared)
}

// Entities returns groups, then items, then shared entities.
func (d *Document) Entities() []Entity {
	out := make([]Entity, 0, d.Len())
	for _, g := range d.groups {
		out = append(out, g)
	}
	for _, i := range d.items {
		out = append(out, i)
	}
	for _, s := range d.shared {
		out = append(out, s)
	}
	return out
}

func removeGroup(list []*Group, g *Group) []*Group {
	out := list[:0]
	for _, existing := range list {
		if existing != g {
			out = append(out, existing)
		}
	}
	return out
}

func removeItem(list []*Item, i *Item) []*Item {
	out := list[:0]
	for _, existing := range list {
		if existing != i {
			out = append(out, existing)
		}
	}
	return out
}

func removeShared(list []*Shared, s *Shared) []*Shared {
	out := list[:0]
	for _, existing := range list {
		if existing != s {
			out = append(out, existing)
		}
	}
	return out
}
