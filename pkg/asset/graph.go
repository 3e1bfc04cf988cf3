package asset

// Adjacency returns the outgoing references of e in a stable order.
// Groups reference their child groups and items; items reference their
// parent, material slots and the targets of modifiers and constraints;
// shared entities reference other shared entities.
func (d *Document) Adjacency(e Entity) []Entity {
	var out []Entity
	switch v := e.(type) {
	case *Group:
		for _, c := range v.Children {
			out = append(out, c)
		}
		for _, i := range v.Items {
			out = append(out, i)
		}
	case *Item:
		if v.Parent != nil {
			out = append(out, v.Parent)
		}
		for _, s := range v.MaterialSlots {
			if s != nil {
				out = append(out, s)
			}
		}
		for _, m := range v.Modifiers {
			if m.Object != nil {
				out = append(out, m.Object)
			}
			if m.NodeGroup != nil {
				out = append(out, m.NodeGroup)
			}
		}
		for _, c := range v.Constraints {
			if c.Target != nil {
				out = append(out, c.Target)
			}
		}
	case *Shared:
		for _, r := range v.Refs {
			if r != nil {
				out = append(out, r)
			}
		}
	}
	return out
}

// Closure returns root and everything transitively referenced from it, in
// breadth-first discovery order. Cycles are visited once.
func (d *Document) Closure(root Entity) []Entity {
	if root == nil {
		return nil
	}
	visited := map[Entity]bool{root: true}
	queue := []Entity{root}
	var out []Entity
	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]
		out = append(out, e)
		for _, next := range d.Adjacency(e) {
			if visited[next] {
				continue
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}
	return out
}

// ClosureItems returns the items of the closure of root.
func (d *Document) ClosureItems(root Entity) []*Item {
	var out []*Item
	for _, e := range d.Closure(root) {
		if i, ok := e.(*Item); ok {
			out = append(out, i)
		}
	}
	return out
}

// ClosureShared returns the shared entities of the closure of root.
func (d *Document) ClosureShared(root Entity) []*Shared {
	var out []*Shared
	for _, e := range d.Closure(root) {
		if s, ok := e.(*Shared); ok {
			out = append(out, s)
		}
	}
	return out
}

// Reachable returns the set of entities reachable from the scene roots.
func (d *Document) Reachable() map[Entity]bool {
	seen := make(map[Entity]bool)
	for _, g := range d.scene {
		for _, e := range d.Closure(g) {
			seen[e] = true
		}
	}
	return seen
}

// RemapUsers redirects every reference to from onto to. Both must have the
// same type. When a group already holds to, its reference to from is dropped.
func (d *Document) RemapUsers(from, to Entity) {
	if from == nil || to == nil || from == to || from.Type() != to.Type() {
		return
	}

	switch f := from.(type) {
	case *Group:
		t := to.(*Group)
		for _, g := range d.groups {
			g.Children = replaceGroup(g.Children, f, t)
		}
		d.scene = replaceGroup(d.scene, f, t)
	case *Item:
		t := to.(*Item)
		for _, g := range d.groups {
			g.Items = replaceItem(g.Items, f, t)
		}
		for _, i := range d.items {
			if i.Parent == f {
				i.Parent = t
			}
			for _, m := range i.Modifiers {
				if m.Object == f {
					m.Object = t
				}
			}
			for _, c := range i.Constraints {
				if c.Target == f {
					c.Target = t
				}
			}
		}
	case *Shared:
		t := to.(*Shared)
		for _, i := range d.items {
			for idx, s := range i.MaterialSlots {
				if s == f {
					i.MaterialSlots[idx] = t
				}
			}
			for _, m := range i.Modifiers {
				if m.NodeGroup == f {
					m.NodeGroup = t
				}
			}
		}
		for _, s := range d.shared {
			for idx, r := range s.Refs {
				if r == f {
					s.Refs[idx] = t
				}
			}
		}
	}
}

// Remove unregisters e and clears every reference to it.
func (d *Document) Remove(e Entity) {
	switch v := e.(type) {
	case *Group:
		if d.groupIndex[v.Name] == v {
			delete(d.groupIndex, v.Name)
		}
		d.groups = removeGroup(d.groups, v)
		for _, g := range d.groups {
			g.Children = removeGroup(g.Children, v)
		}
		d.scene = removeGroup(d.scene, v)
		if d.root == v {
			d.root = nil
		}
	case *Item:
		if d.itemIndex[v.Name] == v {
			delete(d.itemIndex, v.Name)
		}
		d.items = removeItem(d.items, v)
		for _, g := range d.groups {
			g.Items = removeItem(g.Items, v)
		}
		for _, i := range d.items {
			if i.Parent == v {
				i.Parent = nil
			}
			for _, m := range i.Modifiers {
				if m.Object == v {
					m.Object = nil
				}
			}
			for _, c := range i.Constraints {
				if c.Target == v {
					c.Target = nil
				}
			}
		}
	case *Shared:
		if d.sharedIndex[v.Name] == v {
			delete(d.sharedIndex, v.Name)
		}
		d.shared = removeShared(d.shared, v)
		for _, i := range d.items {
			for idx, s := range i.MaterialSlots {
				if s == v {
					i.MaterialSlots[idx] = nil
				}
			}
			for _, m := range i.Modifiers {
				if m.NodeGroup == v {
					m.NodeGroup = nil
				}
			}
		}
		for _, s := range d.shared {
			s.Refs = removeShared(s.Refs, v)
		}
	}
}

// Purge removes every non-linked entity that is not reachable from the
// scene roots and returns the removed entities in document order.
func (d *Document) Purge() []Entity {
	reachable := d.Reachable()
	var orphans []Entity
	for _, e := range d.Entities() {
		if reachable[e] || e.Meta().Linked {
			continue
		}
		orphans = append(orphans, e)
	}
	for _, e := range orphans {
		d.Remove(e)
	}
	return orphans
}

func replaceGroup(list []*Group, from, to *Group) []*Group {
	hasTo := false
	for _, g := range list {
		if g == to {
			hasTo = true
			break
		}
	}
	out := list[:0]
	for _, g := range list {
		switch {
		case g == from && hasTo:
			continue
		case g == from:
			out = append(out, to)
			hasTo = true
		default:
			out = append(out, g)
		}
	}
	return out
}

func replaceItem(list []*Item, from, to *Item) []*Item {
	hasTo := false
	for _, i := range list {
		if i == to {
			hasTo = true
			break
		}
	}
	out := list[:0]
	for _, i := range list {
		switch {
		case i == from && hasTo:
			continue
		case i == from:
			out = append(out, to)
			hasTo = true
		default:
			out = append(out, i)
		}
	}
	return out
}
