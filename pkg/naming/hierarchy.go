package naming

import (
	"context"
	"fmt"

	"github.com/agentstation/assetpipe/pkg/asset"
	"github.com/agentstation/assetpipe/pkg/constants"
	"github.com/agentstation/assetpipe/pkg/errors"
	"github.com/agentstation/assetpipe/pkg/logging"
)

// RenameOp is one planned rename.
type RenameOp struct {
	Entity asset.Entity
	From   string
	To     string
}

// String returns a readable form of the op.
func (op RenameOp) String() string {
	return fmt.Sprintf("%s %q -> %q", op.Entity.Type(), op.From, op.To)
}

// simulation tracks names as they will be after the ops planned so far.
type simulation struct {
	doc   *asset.Document
	names map[asset.Entity]string
	taken map[asset.Type]map[string]asset.Entity
}

func newSimulation(doc *asset.Document) *simulation {
	return &simulation{
		doc:   doc,
		names: make(map[asset.Entity]string),
		taken: map[asset.Type]map[string]asset.Entity{
			asset.TypeGroup:  {},
			asset.TypeItem:   {},
			asset.TypeShared: {},
		},
	}
}

func (s *simulation) name(e asset.Entity) string {
	if n, ok := s.names[e]; ok {
		return n
	}
	return e.Meta().Name
}

func (s *simulation) owner(t asset.Type, name string) asset.Entity {
	if e, ok := s.taken[t][name]; ok {
		return e
	}
	e := s.doc.Lookup(t, name)
	if e != nil && s.name(e) != name {
		return nil // renamed away earlier in the plan
	}
	return e
}

func (s *simulation) rename(e asset.Entity, to string) RenameOp {
	from := s.name(e)
	s.taken[e.Type()][from] = nil
	s.names[e] = to
	s.taken[e.Type()][to] = e
	return RenameOp{Entity: e, From: from, To: to}
}

// ResolveNamingCollisions plans the renames that append suffix to every
// non-linked entity. When the suffixed name is already used by another
// entity, that entity is first renamed with the ".OLD" marker. Nothing is
// mutated; any name without room for a suffix fails the whole plan.
func ResolveNamingCollisions(doc *asset.Document, entities []asset.Entity, suffix Suffix) ([]RenameOp, error) {
	if _, err := TargetSuffix(suffix); err != nil {
		return nil, err
	}
	for _, e := range entities {
		if err := CheckLength(e.Meta().Name); err != nil {
			return nil, err
		}
	}

	sim := newSimulation(doc)
	var ops []RenameOp
	for _, e := range entities {
		if e.Meta().Linked {
			continue
		}
		target := AddSuffix(sim.name(e), suffix)
		if blocker := sim.owner(e.Type(), target); blocker != nil && blocker != e {
			moved := target + constants.CollisionMarker
			for sim.owner(e.Type(), moved) != nil {
				moved += constants.CollisionMarker
			}
			ops = append(ops, sim.rename(blocker, moved))
		}
		ops = append(ops, sim.rename(e, target))
	}
	return ops, nil
}

// Apply performs planned renames in order.
func Apply(doc *asset.Document, ops []RenameOp) error {
	for _, op := range ops {
		if err := doc.Rename(op.Entity, op.To); err != nil {
			return fmt.Errorf("renaming %s: %w", op, err)
		}
	}
	return nil
}

// AddSuffixToHierarchy suffixes root and everything it references.
func AddSuffixToHierarchy(doc *asset.Document, root asset.Entity, suffix Suffix) error {
	ops, err := ResolveNamingCollisions(doc, doc.Closure(root), suffix)
	if err != nil {
		return err
	}
	return Apply(doc, ops)
}

// RemoveSuffixFromHierarchy strips merge suffixes from root and everything
// it references. A failed rename is logged and collected but never stops
// the pass.
func RemoveSuffixFromHierarchy(ctx context.Context, doc *asset.Document, root asset.Entity) []error {
	logger := logging.FromContext(ctx)
	var errs []error
	for _, e := range doc.Closure(root) {
		if e.Meta().Linked {
			continue
		}
		name := e.Meta().Name
		base := Basename(name)
		if base == name {
			continue
		}
		if err := doc.Rename(e, base); err != nil {
			logger.Debug().Err(err).Str("entity", name).Msg("Could not strip merge suffix")
			errs = append(errs, errors.NewNamingError(name, err))
		}
	}
	return errs
}
