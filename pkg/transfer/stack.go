package transfer

import (
	"context"
	"maps"
	"slices"

	"github.com/agentstation/assetpipe/pkg/asset"
	"github.com/agentstation/assetpipe/pkg/logging"
	"github.com/agentstation/assetpipe/pkg/naming"
)

// stackOps gives stackStrategy access to one ordered stack of an item.
type stackOps[T any] struct {
	collection string
	entries    func(item *asset.Item) *[]T
	name       func(entry T) string
	setName    func(entry T, name string)
	// copyOf returns a new entry with the source's type, properties and references.
	copyOf func(entry T) T
}

func (ops stackOps[T]) names(item *asset.Item) []string {
	list := *ops.entries(item)
	out := make([]string, 0, len(list))
	for _, e := range list {
		out = append(out, ops.name(e))
	}
	return out
}

func (ops stackOps[T]) index(item *asset.Item, name string) int {
	return slices.IndexFunc(*ops.entries(item), func(e T) bool { return ops.name(e) == name })
}

// stackStrategy handles modifiers and constraints. Entry names carry the
// owning task layer's prefix, and an entry's position follows its previous
// sibling on the source.
type stackStrategy[T any] struct {
	baseStrategy
	ops      stackOps[T]
	prefixes PrefixSource
}

// Init prefixes untracked entries with their claimant's task layer prefix.
// The entries themselves are renamed by Adopt once the records are committed.
func (s *stackStrategy[T]) Init(item *asset.Item, claim Claimer) ([]asset.SubItemOwnership, error) {
	prefixes := s.prefixes.Prefixes()
	var out []asset.SubItemOwnership
	for _, name := range s.ops.names(item) {
		owner, surrender, err := claim.Claim(s.kind, name)
		if err != nil {
			return nil, err
		}
		prefixed := naming.TaskLayerPrefixName(name, owner, prefixes)
		if item.Record(s.kind, prefixed) != nil {
			continue
		}
		if slices.ContainsFunc(out, func(r asset.SubItemOwnership) bool { return r.Name == prefixed }) {
			continue
		}
		out = append(out, asset.SubItemOwnership{
			Name:      prefixed,
			Kind:      s.kind,
			Owner:     owner,
			Surrender: surrender,
		})
	}
	return out, nil
}

// Adopt renames the entry a new record was discovered from so that it
// carries the record's prefixed name.
func (s *stackStrategy[T]) Adopt(item *asset.Item, record asset.SubItemOwnership) bool {
	if s.ops.index(item, record.Name) >= 0 {
		return false
	}
	prefixes := s.prefixes.Prefixes()
	for _, e := range *s.ops.entries(item) {
		name := s.ops.name(e)
		if naming.TaskLayerPrefixName(name, record.Owner, prefixes) != record.Name {
			continue
		}
		s.ops.setName(e, record.Name)
		renameDrivers(item, s.ops.collection, name, record.Name)
		return true
	}
	return false
}

// IsMissing reports whether the recorded entry is gone.
func (s *stackStrategy[T]) IsMissing(item *asset.Item, record asset.SubItemOwnership) bool {
	return record.Kind == s.kind && s.ops.index(item, record.Name) < 0
}

// Clean removes untracked entries together with their drivers.
func (s *stackStrategy[T]) Clean(item *asset.Item) []string {
	removed := untracked(item, s.kind, s.ops.names(item))
	if len(removed) == 0 {
		return nil
	}
	list := s.ops.entries(item)
	*list = slices.DeleteFunc(*list, func(e T) bool { return slices.Contains(removed, s.ops.name(e)) })
	for _, name := range removed {
		cleanupDrivers(item, s.ops.collection, name)
	}
	return removed
}

// Transfer syncs every recorded entry from source onto target.
func (s *stackStrategy[T]) Transfer(ctx context.Context, source, target *asset.Item, records []asset.SubItemOwnership) error {
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.transferOne(ctx, source, target, rec.Name)
	}
	return nil
}

func (s *stackStrategy[T]) transferOne(ctx context.Context, source, target *asset.Item, name string) {
	logger := logging.FromContext(ctx)
	list := s.ops.entries(target)

	if idx := s.ops.index(target, name); idx >= 0 {
		*list = slices.Delete(*list, idx, idx+1)
	}

	srcIdx := s.ops.index(source, name)
	if srcIdx < 0 {
		// The record outlived its entry on the source side.
		logger.Debug().
			Str("kind", s.kind.String()).
			Str("entry", name).
			Str("source", source.Name).
			Msg("Transfer cancelled, entry not found on source")
		cleanupDrivers(target, s.ops.collection, name)
		return
	}

	at := 0
	if srcIdx > 0 {
		prefixes := s.prefixes.Prefixes()
		anchor := naming.TaskLayerPrefixBasename(s.ops.name((*s.ops.entries(source))[srcIdx-1]), prefixes)
		for idx, e := range *list {
			if naming.TaskLayerPrefixBasename(s.ops.name(e), prefixes) == anchor {
				at = idx + 1
				break
			}
		}
	}

	entry := s.ops.copyOf((*s.ops.entries(source))[srcIdx])
	*list = slices.Insert(*list, at, entry)
	logger.Debug().
		Str("kind", s.kind.String()).
		Str("entry", name).
		Int("index", at).
		Msg("Transferred stack entry")

	transferDrivers(source, target, s.ops.collection, name)
}

func newModifierStrategy(prefixes PrefixSource) *stackStrategy[*asset.Modifier] {
	return &stackStrategy[*asset.Modifier]{
		baseStrategy: baseStrategy{
			name:        "modifiers",
			description: "Syncs modifier stack entries and keeps them after their previous sibling",
			kind:        asset.KindModifier,
		},
		prefixes: prefixes,
		ops: stackOps[*asset.Modifier]{
			collection: "modifiers",
			entries:    func(item *asset.Item) *[]*asset.Modifier { return &item.Modifiers },
			name:       func(m *asset.Modifier) string { return m.Name },
			setName:    func(m *asset.Modifier, name string) { m.Name = name },
			copyOf: func(m *asset.Modifier) *asset.Modifier {
				return &asset.Modifier{
					Name:      m.Name,
					Type:      m.Type,
					Props:     maps.Clone(m.Props),
					Object:    m.Object,
					NodeGroup: m.NodeGroup,
				}
			},
		},
	}
}

func newConstraintStrategy(prefixes PrefixSource) *stackStrategy[*asset.Constraint] {
	return &stackStrategy[*asset.Constraint]{
		baseStrategy: baseStrategy{
			name:        "constraints",
			description: "Syncs constraint stack entries and keeps them after their previous sibling",
			kind:        asset.KindConstraint,
		},
		prefixes: prefixes,
		ops: stackOps[*asset.Constraint]{
			collection: "constraints",
			entries:    func(item *asset.Item) *[]*asset.Constraint { return &item.Constraints },
			name:       func(c *asset.Constraint) string { return c.Name },
			setName:    func(c *asset.Constraint, name string) { c.Name = name },
			copyOf: func(c *asset.Constraint) *asset.Constraint {
				return &asset.Constraint{
					Name:   c.Name,
					Type:   c.Type,
					Props:  maps.Clone(c.Props),
					Target: c.Target,
				}
			},
		},
	}
}
