// Package merge runs a task layer merge between a working copy and a
// published snapshot of the same asset.
//
// A merge is a state machine over one in-memory Document:
//
//	start -> suffixed -> imported -> mapped -> conflict-gate -> applying ->
//	remapping -> purged -> unsuffixed -> done
//
// with aborted reachable only from the conflict gate. Pull and push use the
// same machine; for a push the caller opens the published snapshot as the
// document and merges the working copy in with the complementary task
// layers as local.
//
// A merge that fails leaves the document in an unspecified state. Callers
// keep a backup taken before the merge and restore it on error.
package merge

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/agentstation/assetpipe/pkg/asset"
	"github.com/agentstation/assetpipe/pkg/constants"
	"github.com/agentstation/assetpipe/pkg/errors"
	"github.com/agentstation/assetpipe/pkg/logging"
	"github.com/agentstation/assetpipe/pkg/mapping"
	"github.com/agentstation/assetpipe/pkg/naming"
	"github.com/agentstation/assetpipe/pkg/tasklayer"
	"github.com/agentstation/assetpipe/pkg/transfer"
)

// Importer copies the asset named baseName, and everything it references,
// from the snapshot at path into doc and returns the imported root.
type Importer interface {
	ImportAssetByName(doc *asset.Document, path, baseName string) (*asset.Group, error)
}

// ImporterFunc adapts a function to the Importer interface.
type ImporterFunc func(doc *asset.Document, path, baseName string) (*asset.Group, error)

// ImportAssetByName implements Importer.
func (f ImporterFunc) ImportAssetByName(doc *asset.Document, path, baseName string) (*asset.Group, error) {
	return f(doc, path, baseName)
}

// HookRunner runs the hooks registered for a merge mode and status.
type HookRunner interface {
	Execute(ctx context.Context, mode, status string, root *asset.Group) error
}

// Request describes one merge.
type Request struct {
	Direction    Direction
	LocalLayers  []string
	ExternalPath string
}

// Merger runs merges for one task layer definition.
type Merger struct {
	cfg      *tasklayer.Config
	importer Importer
	registry *transfer.Registry
	profiler *Profiler
	hooks    HookRunner
}

// Option configures a Merger.
type Option func(*Merger)

// WithRegistry sets the transfer registry.
func WithRegistry(r *transfer.Registry) Option {
	return func(m *Merger) {
		if r != nil {
			m.registry = r
		}
	}
}

// WithProfiler shares a profiler between merges, so a sync reports pull and
// push together.
func WithProfiler(p *Profiler) Option {
	return func(m *Merger) {
		if p != nil {
			m.profiler = p
		}
	}
}

// WithHooks sets the hooks run before and after each merge.
func WithHooks(h HookRunner) Option {
	return func(m *Merger) {
		m.hooks = h
	}
}

// New returns a Merger importing snapshots through importer.
func New(cfg *tasklayer.Config, importer Importer, opts ...Option) (*Merger, error) {
	if cfg == nil {
		return nil, errors.NewValidationError("config", nil, "task layer config is required")
	}
	if importer == nil {
		return nil, errors.NewValidationError("importer", nil, "importer is required")
	}
	m := &Merger{cfg: cfg, importer: importer}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = transfer.NewRegistry(transfer.WithPrefixes(cfg))
	}
	if m.profiler == nil {
		m.profiler = NewProfiler()
	}
	return m, nil
}

// Profiler returns the merger's profiler.
func (m *Merger) Profiler() *Profiler {
	return m.profiler
}

func (m *Merger) validate(doc *asset.Document, req Request) error {
	if !req.Direction.Valid() {
		return errors.NewValidationError("direction", req.Direction, "must be pull or push")
	}
	if req.ExternalPath == "" {
		return errors.NewValidationError("external path", req.ExternalPath, "cannot be empty")
	}
	if err := m.cfg.ValidateLocal(req.LocalLayers); err != nil {
		return err
	}
	if doc == nil || doc.Root() == nil {
		return errors.NewNotFoundError("asset root", "document")
	}
	return nil
}

// run holds the state of one merge.
type run struct {
	*Merger
	ctx     context.Context
	doc     *asset.Document
	req     Request
	root    *asset.Group
	state   State
	builder *ResultBuilder
}

func (r *run) advance(next State) error {
	if !r.state.CanTransition(next) {
		return fmt.Errorf("invalid merge transition %s -> %s", r.state, next)
	}
	if next != StateAborted {
		if err := r.ctx.Err(); err != nil {
			return fmt.Errorf("merge interrupted before %s: %w", next, err)
		}
	}
	logging.FromContext(r.ctx).Debug().
		Str("from", r.state.String()).
		Str("to", next.String()).
		Msg("Merge state changed")
	r.state = next
	r.builder.WithState(next)
	return nil
}

// Merge merges the snapshot at req.ExternalPath into doc. When the mapping
// holds conflicts the merge stops at the conflict gate, returns a Result in
// StateAborted together with a *errors.MergeError and leaves doc suffixed.
func (m *Merger) Merge(ctx context.Context, doc *asset.Document, req Request) (*Result, error) {
	if err := m.validate(doc, req); err != nil {
		return nil, err
	}
	root := doc.Root()
	mergeID := uuid.NewString()
	ctx = logging.WithMergeID(ctx, mergeID)
	ctx = logging.WithDirection(ctx, req.Direction.String())
	ctx = logging.WithAsset(ctx, root.Name)

	r := &run{
		Merger:  m,
		ctx:     ctx,
		doc:     doc,
		req:     req,
		root:    root,
		state:   StateStart,
		builder: NewResultBuilder(mergeID, req.Direction),
	}
	return r.execute()
}

func (r *run) execute() (*Result, error) {
	ctx, dir := r.ctx, r.req.Direction
	logger := logging.FromContext(ctx)
	baseName := r.root.Name

	logger.Info().
		Strs("local_layers", r.req.LocalLayers).
		Str("external", r.req.ExternalPath).
		Msg("Starting merge")

	if r.hooks != nil {
		if err := r.hooks.Execute(ctx, dir.String(), HookPre, r.root); err != nil {
			return nil, fmt.Errorf("pre-%s hooks: %w", dir, err)
		}
	}

	stopTotal := r.profiler.Start(dir, PhaseTotal)
	defer stopTotal()

	externalRoot, err := r.importExternal(baseName)
	if err != nil {
		return nil, err
	}

	stop := r.profiler.Start(dir, PhaseMapping)
	mp, err := mapping.Build(ctx, r.doc, r.root, externalRoot, r.req.LocalLayers,
		mapping.WithPrefixes(r.cfg.Prefixes()))
	stop()
	if err != nil {
		return nil, err
	}
	r.builder.WithMapping(mp)
	if err := r.advance(StateMapped); err != nil {
		return nil, err
	}

	if err := r.advance(StateConflictGate); err != nil {
		return nil, err
	}
	if mp.HasConflicts() {
		for _, e := range mp.ItemConflicts {
			logger.Error().
				Str("type", e.Type().String()).
				Str("name", e.Meta().Name).
				Msg("Ownership conflict found")
		}
		ids := mp.ConflictIDs()
		if err := r.advance(StateAborted); err != nil {
			return nil, err
		}
		result := r.builder.WithConflicts(ids).Build()
		return result, errors.NewMergeError(r.req.ExternalPath, baseName, ids, nil)
	}

	if err := r.advance(StateApplying); err != nil {
		return nil, err
	}
	if err := r.applyTransfers(mp); err != nil {
		return nil, err
	}

	if err := r.advance(StateRemapping); err != nil {
		return nil, err
	}
	r.remapItems(mp)
	r.restoreActiveIndexes(mp)
	r.remapGroups(mp)
	r.remapShared(mp)

	stop = r.profiler.Start(dir, PhaseMerge)
	r.purge()
	if err := r.advance(StatePurged); err != nil {
		return nil, err
	}
	for _, err := range naming.RemoveSuffixFromHierarchy(ctx, r.doc, r.root) {
		r.builder.WithWarning(err.Error())
	}
	stop()
	if err := r.advance(StateUnsuffixed); err != nil {
		return nil, err
	}
	if err := r.advance(StateDone); err != nil {
		return nil, err
	}

	if r.hooks != nil {
		if err := r.hooks.Execute(ctx, dir.String(), HookPost, r.root); err != nil {
			return nil, fmt.Errorf("post-%s hooks: %w", dir, err)
		}
	}

	result := r.builder.Build()
	logger.Info().
		Int("transferred", result.TransferredCount()).
		Int("added", len(result.Added)).
		Int("purged", len(result.Purged)).
		Dur("duration", result.Metadata.Duration).
		Msg("Merge completed")
	return result, nil
}

func (r *run) importExternal(baseName string) (*asset.Group, error) {
	defer r.profiler.Start(r.req.Direction, PhaseImport)()

	if err := naming.AddSuffixToHierarchy(r.doc, r.root, naming.Local); err != nil {
		return nil, fmt.Errorf("suffix local asset: %w", err)
	}
	if err := r.advance(StateSuffixed); err != nil {
		return nil, err
	}

	externalRoot, err := r.importer.ImportAssetByName(r.doc, r.req.ExternalPath, baseName)
	if err != nil {
		return nil, err
	}
	if err := naming.AddSuffixToHierarchy(r.doc, externalRoot, naming.External); err != nil {
		return nil, fmt.Errorf("suffix external asset: %w", err)
	}
	return externalRoot, r.advance(StateImported)
}

func (r *run) applyTransfers(mp *mapping.Mapping) error {
	defer r.profiler.Start(r.req.Direction, PhaseTransferData)()

	for _, pair := range mp.ItemMap {
		pair.To.ClearRecords()
	}
	for _, e := range mp.TransferMap {
		started := time.Now()
		ctx := logging.WithKind(r.ctx, e.Kind.String())
		if err := r.registry.Apply(ctx, e.Source, e.Target, e.Kind, e.Records); err != nil {
			return err
		}
		logging.FromContext(ctx).Trace().
			Str("source", e.Source.Name).
			Str("target", e.Target.Name).
			Int("records", len(e.Records)).
			Msg("Transferred data")
		r.profiler.ObserveKind(r.req.Direction, e.Kind, time.Since(started))
		r.builder.WithTransferred(e.Kind, len(e.Records))
	}
	return nil
}

// retire renames an entity whose users were moved to its counterpart.
func (r *run) retire(e asset.Entity) {
	name := e.Meta().Name
	if err := r.doc.Rename(e, name+constants.RemappedMarker); err != nil {
		logging.FromContext(r.ctx).Debug().Err(err).Str("name", name).Msg("Could not rename remapped entity")
	}
}

func (r *run) remapItems(mp *mapping.Mapping) {
	defer r.profiler.Start(r.req.Direction, PhaseObjects)()

	for _, pair := range mp.ItemMap {
		r.doc.RemapUsers(pair.From, pair.To)
		r.retire(pair.From)
		r.registry.CleanAll(r.ctx, pair.To)
	}
}

func (r *run) restoreActiveIndexes(mp *mapping.Mapping) {
	defer r.profiler.Start(r.req.Direction, PhaseIndexes)()

	for _, idx := range mp.ActiveIndexMap {
		m := idx.Target.Mesh
		if m == nil {
			continue
		}
		if m.IsUVLayer(idx.ActiveUV) {
			m.ActiveUV = idx.ActiveUV
		}
		if slices.Contains(m.ColorAttributes, idx.ActiveColor) {
			m.ActiveColor = idx.ActiveColor
		}
	}
}

func (r *run) remapGroups(mp *mapping.Mapping) {
	defer r.profiler.Start(r.req.Direction, PhaseCollections)()

	for _, pair := range mp.GroupMap {
		r.doc.RemapUsers(pair.From, pair.To)
		r.retire(pair.From)
	}
	for _, g := range mp.ExternalGroupsToAdd {
		r.doc.Link(r.root, g)
		r.builder.WithAdded(naming.Basename(g.Name))
	}
	for _, g := range mp.LocalGroupsToRemove {
		r.doc.Unlink(r.root, g)
	}

	reachable := make(map[asset.Entity]bool)
	for _, e := range r.doc.Closure(r.root) {
		reachable[e] = true
	}
	for _, item := range mp.ExternalItemsToAdd {
		if !reachable[item] {
			dest := r.destination(item, reachable)
			r.doc.Link(dest, item)
			logging.FromContext(r.ctx).Debug().
				Str("item", item.Name).
				Str("group", dest.Name).
				Msg("Linked new external item")
		}
		r.builder.WithAdded(naming.Basename(item.Name))
	}
}

// destination returns the local counterpart of one of item's groups, or the
// asset root.
func (r *run) destination(item *asset.Item, reachable map[asset.Entity]bool) *asset.Group {
	for _, g := range r.doc.Containers(item) {
		name, err := naming.TargetName(g.Name)
		if err != nil {
			continue
		}
		if local := r.doc.Group(name); local != nil && reachable[local] {
			return local
		}
	}
	return r.root
}

func (r *run) remapShared(mp *mapping.Mapping) {
	defer r.profiler.Start(r.req.Direction, PhaseSharedIDs)()

	for _, pair := range mp.SharedEntityMap {
		r.doc.RemapUsers(pair.From, pair.To)
		r.retire(pair.From)
	}
}

// purge removes orphans. The asset root counts as reachable for the purge
// without being left in the scene.
func (r *run) purge() {
	if !slices.Contains(r.doc.Scene(), r.root) {
		r.doc.LinkScene(r.root)
		defer r.doc.UnlinkScene(r.root)
	}
	purged := r.doc.Purge()
	r.builder.WithPurged(purged)
	logging.FromContext(r.ctx).Debug().Int("count", len(purged)).Msg("Purged orphans")
}
