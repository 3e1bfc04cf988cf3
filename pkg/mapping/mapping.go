// Package mapping decides, for every entity of a suffixed local asset and
// its imported external counterpart, which side survives the merge and
// which sub-items have to be transferred onto the survivor.
//
// Build only reads the document. All decisions are returned as ordered
// lists so that two builds over the same input agree exactly.
package mapping

import (
	"context"
	"fmt"
	"slices"

	"github.com/agentstation/assetpipe/pkg/asset"
	"github.com/agentstation/assetpipe/pkg/constants"
	"github.com/agentstation/assetpipe/pkg/errors"
	"github.com/agentstation/assetpipe/pkg/logging"
	"github.com/agentstation/assetpipe/pkg/naming"
)

// Pair maps a discarded entity onto the entity that survives the merge.
type Pair[T comparable] struct {
	From T
	To   T
}

// Pairs is an ordered entity map.
type Pairs[T comparable] []Pair[T]

// Target returns what from maps onto.
func (p Pairs[T]) Target(from T) (T, bool) {
	for _, pair := range p {
		if pair.From == from {
			return pair.To, true
		}
	}
	var zero T
	return zero, false
}

// Contains reports whether e is on either side of a pair.
func (p Pairs[T]) Contains(e T) bool {
	for _, pair := range p {
		if pair.From == e || pair.To == e {
			return true
		}
	}
	return false
}

func (p *Pairs[T]) add(from, to T) {
	*p = append(*p, Pair[T]{From: from, To: to})
}

// TransferEntry lists the records of one kind to copy from Source onto Target.
type TransferEntry struct {
	Source  *asset.Item
	Target  *asset.Item
	Kind    asset.Kind
	Records []asset.SubItemOwnership
}

// ActiveIndex holds the active layers to restore on Target after the merge.
type ActiveIndex struct {
	Target      *asset.Item
	ActiveUV    string
	ActiveColor string
}

// SubItemConflict is a record owned differently on both sides with
// neither side surrendering it.
type SubItemConflict struct {
	Item   *asset.Item
	Record asset.SubItemOwnership
}

// String returns a conflict ID such as `MODIFIER "RIG-Armature" on "Body.LOCAL"`.
func (c SubItemConflict) String() string {
	return fmt.Sprintf("%s %q on %q", c.Record.Kind, c.Record.Name, c.Item.Name)
}

// Mapping is the result of Build.
type Mapping struct {
	ItemMap             Pairs[*asset.Item]
	GroupMap            Pairs[*asset.Group]
	SharedEntityMap     Pairs[*asset.Shared]
	ExternalGroupsToAdd []*asset.Group
	LocalGroupsToRemove []*asset.Group
	ExternalItemsToAdd  []*asset.Item
	TransferMap         []*TransferEntry
	ActiveIndexMap      []ActiveIndex
	ItemConflicts       []asset.Entity
	SubItemConflicts    []SubItemConflict

	// Unmatched lists local entities without an external counterpart.
	Unmatched []asset.Entity
}

// HasConflicts reports whether the merge must stop at the conflict gate.
func (m *Mapping) HasConflicts() bool {
	return len(m.ItemConflicts) > 0 || len(m.SubItemConflicts) > 0
}

// ConflictIDs describes every conflict, ownership conflicts first.
func (m *Mapping) ConflictIDs() []string {
	out := make([]string, 0, len(m.ItemConflicts)+len(m.SubItemConflicts))
	for _, e := range m.ItemConflicts {
		out = append(out, fmt.Sprintf("%s %q", e.Type(), e.Meta().Name))
	}
	for _, c := range m.SubItemConflicts {
		out = append(out, c.String())
	}
	return out
}

// Transfer returns the entry for (source, kind), or nil.
func (m *Mapping) Transfer(source *asset.Item, kind asset.Kind) *TransferEntry {
	for _, e := range m.TransferMap {
		if e.Source == source && e.Kind == kind {
			return e
		}
	}
	return nil
}

// Option configures Build.
type Option func(*builder)

// WithPrefixes sets the task layer prefixes used to match modifier and
// constraint records whose prefix differs between the two sides.
func WithPrefixes(p naming.Prefixes) Option {
	return func(b *builder) {
		b.prefixes = p
	}
}

type builder struct {
	doc      *asset.Document
	local    []string
	prefixes naming.Prefixes
	m        *Mapping
	localSet map[asset.Entity]bool
	extSet   map[asset.Entity]bool
}

func (b *builder) isLocal(owner string) bool {
	return slices.Contains(b.local, owner)
}

// Build maps the suffixed local asset localRoot onto the suffixed external
// asset externalRoot for a working copy whose local task layers are local.
// Conflicts are collected, never returned as an error.
func Build(ctx context.Context, doc *asset.Document, localRoot, externalRoot *asset.Group, local []string, opts ...Option) (*Mapping, error) {
	if localRoot == nil || externalRoot == nil {
		return nil, errors.NewValidationError("root", nil, "local and external roots are required")
	}
	if len(local) == 0 {
		return nil, errors.NewValidationError("local task layers", local, "at least one task layer must be local")
	}

	b := &builder{
		doc:      doc,
		local:    local,
		m:        &Mapping{},
		localSet: make(map[asset.Entity]bool),
		extSet:   make(map[asset.Entity]bool),
	}
	for _, opt := range opts {
		opt(b)
	}
	for _, e := range doc.Closure(localRoot) {
		b.localSet[e] = true
	}
	for _, e := range doc.Closure(externalRoot) {
		b.extSet[e] = true
	}

	b.buildItemMap(ctx, localRoot, externalRoot)
	b.buildGroupMap(ctx, localRoot, externalRoot)
	b.buildSharedMap(localRoot)
	b.buildTransferMap(ctx)
	b.buildActiveIndexMap()

	logging.FromContext(ctx).Debug().
		Int("items", len(b.m.ItemMap)).
		Int("groups", len(b.m.GroupMap)).
		Int("shared", len(b.m.SharedEntityMap)).
		Int("transfers", len(b.m.TransferMap)).
		Int("conflicts", len(b.m.ItemConflicts)+len(b.m.SubItemConflicts)).
		Msg("Built merge mapping")
	return b.m, nil
}

// counterpart returns the entity named like e with the opposite suffix,
// restricted to entities of the given side when side is not nil.
func (b *builder) counterpart(e asset.Entity, side map[asset.Entity]bool) asset.Entity {
	name, err := naming.TargetName(e.Meta().Name)
	if err != nil {
		return nil
	}
	other := b.doc.Lookup(e.Type(), name)
	if other == nil || (side != nil && !side[other]) {
		return nil
	}
	return other
}

// checkConflict records local as conflicting when it is owned by a local
// task layer, owners differ and both sides have the same surrender flag.
func (b *builder) checkConflict(external, local asset.Entity) {
	l, x := local.Meta(), external.Meta()
	if !b.isLocal(l.Owner) {
		return
	}
	if x.Owner != l.Owner && l.Surrender == x.Surrender {
		b.m.ItemConflicts = append(b.m.ItemConflicts, local)
	}
}

func (b *builder) buildItemMap(ctx context.Context, localRoot, externalRoot *asset.Group) {
	logger := logging.FromContext(ctx)
	for _, local := range b.doc.ClosureItems(localRoot) {
		if local.Unowned() || local.Linked {
			continue
		}
		ext, _ := b.counterpart(local, b.extSet).(*asset.Item)
		if ext == nil {
			logger.Debug().Str("item", local.Name).Msg("No external counterpart")
			b.m.Unmatched = append(b.m.Unmatched, local)
			continue
		}
		b.checkConflict(ext, local)

		switch {
		case ext.Surrender && !local.Surrender && local.Owner != ext.Owner:
			b.m.ItemMap.add(ext, local)
		case local.Surrender && !ext.Surrender && local.Owner != ext.Owner:
			b.m.ItemMap.add(local, ext)
		case b.isLocal(local.Owner):
			b.m.ItemMap.add(ext, local)
		default:
			b.m.ItemMap.add(local, ext)
		}
	}

	for _, ext := range b.doc.ClosureItems(externalRoot) {
		if ext.Linked {
			continue
		}
		if b.counterpart(ext, b.localSet) == nil && !b.isLocal(ext.Owner) {
			b.m.ExternalItemsToAdd = append(b.m.ExternalItemsToAdd, ext)
		}
	}
}

func (b *builder) buildGroupMap(ctx context.Context, localRoot, externalRoot *asset.Group) {
	logger := logging.FromContext(ctx)
	for _, local := range localRoot.Children {
		if b.isLocal(local.Owner) {
			continue
		}
		if ext, _ := b.counterpart(local, nil).(*asset.Group); ext != nil {
			b.m.GroupMap.add(local, ext)
			continue
		}
		logger.Debug().Str("group", local.Name).Msg("No external counterpart")
		b.m.Unmatched = append(b.m.Unmatched, local)
	}

	for _, ext := range externalRoot.Children {
		if b.counterpart(ext, nil) == nil && !b.isLocal(ext.Owner) {
			b.m.ExternalGroupsToAdd = append(b.m.ExternalGroupsToAdd, ext)
		}
	}

	for _, local := range localRoot.Children {
		if b.counterpart(local, nil) == nil && !b.isLocal(local.Owner) {
			b.m.LocalGroupsToRemove = append(b.m.LocalGroupsToRemove, local)
		}
	}
}

func (b *builder) buildSharedMap(localRoot *asset.Group) {
	for _, local := range b.doc.ClosureShared(localRoot) {
		if local.Linked {
			continue
		}
		ext, _ := b.counterpart(local, nil).(*asset.Shared)
		if ext == nil {
			continue
		}
		b.checkConflict(ext, local)
		if b.isLocal(local.Owner) && local.Owner != constants.NoOwner {
			b.m.SharedEntityMap.add(ext, local)
		} else {
			b.m.SharedEntityMap.add(local, ext)
		}
	}
}

// matching returns the record of the same kind and prefix basename on the
// counterpart of item.
func (b *builder) matching(item *asset.Item, rec asset.SubItemOwnership) *asset.SubItemOwnership {
	other, _ := b.counterpart(item, nil).(*asset.Item)
	if other == nil {
		return nil
	}
	base := naming.TaskLayerPrefixBasename(rec.Name, b.prefixes)
	for idx := range other.Records {
		if other.Records[idx].Kind == rec.Kind && naming.TaskLayerPrefixBasename(other.Records[idx].Name, b.prefixes) == base {
			return &other.Records[idx]
		}
	}
	return nil
}

func (b *builder) subItemConflict(item *asset.Item, rec asset.SubItemOwnership) bool {
	match := b.matching(item, rec)
	if match == nil {
		return false
	}
	if !b.isLocal(match.Owner) && !b.isLocal(rec.Owner) {
		return false
	}
	if match.Owner == rec.Owner || match.Surrender || rec.Surrender {
		return false
	}
	if b.isLocal(match.Owner) && b.isLocal(rec.Owner) {
		return false
	}
	b.m.SubItemConflicts = append(b.m.SubItemConflicts, SubItemConflict{Item: item, Record: rec})
	return true
}

func (b *builder) surrendered(item *asset.Item, rec asset.SubItemOwnership) bool {
	match := b.matching(item, rec)
	return match != nil && rec.Surrender && !match.Surrender && rec.Owner != match.Owner
}

func (b *builder) buildTransferMap(ctx context.Context) {
	logger := logging.FromContext(ctx)
	for _, pair := range b.m.ItemMap {
		target := pair.To
		for _, item := range []*asset.Item{pair.From, pair.To} {
			for _, rec := range item.Records {
				if b.subItemConflict(item, rec) {
					logger.Error().
						Str("item", item.Name).
						Str("kind", rec.Kind.String()).
						Str("record", rec.Name).
						Msg("Transferable data conflict")
					continue
				}
				b.include(item, target, rec)
			}
		}
	}
}

func (b *builder) include(source, target *asset.Item, rec asset.SubItemOwnership) {
	fromLocal := b.isLocal(rec.Owner) && naming.HasSuffix(source.Name, naming.Local)
	fromExternal := !b.isLocal(rec.Owner) && rec.Owner != constants.NoOwner && naming.HasSuffix(source.Name, naming.External)
	if !fromLocal && !fromExternal {
		return
	}
	if b.surrendered(source, rec) {
		return
	}
	if e := b.m.Transfer(source, rec.Kind); e != nil {
		e.Records = append(e.Records, rec)
		return
	}
	b.m.TransferMap = append(b.m.TransferMap, &TransferEntry{
		Source:  source,
		Target:  target,
		Kind:    rec.Kind,
		Records: []asset.SubItemOwnership{rec},
	})
}

func (b *builder) buildActiveIndexMap() {
	for _, e := range b.m.TransferMap {
		if e.Kind != asset.KindMaterialSlot || e.Source.Mesh == nil {
			continue
		}
		b.m.ActiveIndexMap = append(b.m.ActiveIndexMap, ActiveIndex{
			Target:      e.Target,
			ActiveUV:    e.Source.Mesh.ActiveUV,
			ActiveColor: e.Source.Mesh.ActiveColor,
		})
	}
}
