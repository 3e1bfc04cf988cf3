// Package ownership discovers which task layer owns the groups, items,
// shared entities and sub-items of a working copy.
//
// Discovery is split in two steps. Discover inspects a document and returns
// a Report without touching it, so the result can be shown to the user.
// Commit then applies a Report.
package ownership

import (
	"context"
	"fmt"
	"slices"

	"github.com/agentstation/assetpipe/pkg/asset"
	"github.com/agentstation/assetpipe/pkg/constants"
	"github.com/agentstation/assetpipe/pkg/errors"
	"github.com/agentstation/assetpipe/pkg/logging"
	"github.com/agentstation/assetpipe/pkg/naming"
	"github.com/agentstation/assetpipe/pkg/tasklayer"
	"github.com/agentstation/assetpipe/pkg/transfer"
)

// Claim assigns an owner to an unowned entity.
type Claim struct {
	Entity asset.Entity
	Owner  string
}

// PendingRecord is a newly discovered sub-item of an item.
type PendingRecord struct {
	Item   *asset.Item
	Record asset.SubItemOwnership
}

// StaleRecord is a local record whose sub-item no longer exists.
type StaleRecord struct {
	Item   *asset.Item
	Record asset.SubItemOwnership
}

// Report is the result of Discover.
type Report struct {
	LocalLayers []string
	Claims      []Claim
	Pending     []PendingRecord
	Invalid     []*asset.Item
	Stale       []StaleRecord

	discoverer *Discoverer
}

// Empty reports whether committing r would change nothing.
func (r *Report) Empty() bool {
	return len(r.Claims) == 0 && len(r.Pending) == 0 && len(r.Invalid) == 0 && len(r.Stale) == 0
}

// Discoverer runs discovery against one task layer definition.
type Discoverer struct {
	cfg      *tasklayer.Config
	registry *transfer.Registry
}

// Option configures a Discoverer.
type Option func(*Discoverer)

// WithRegistry sets the transfer registry used to find sub-items.
func WithRegistry(r *transfer.Registry) Option {
	return func(d *Discoverer) {
		if r != nil {
			d.registry = r
		}
	}
}

// New returns a Discoverer for cfg.
func New(cfg *tasklayer.Config, opts ...Option) *Discoverer {
	d := &Discoverer{cfg: cfg}
	for _, opt := range opts {
		opt(d)
	}
	if d.registry == nil {
		d.registry = transfer.NewRegistry(transfer.WithPrefixes(cfg))
	}
	return d
}

// Discover inspects doc with the default registry. See Discoverer.Discover.
func Discover(ctx context.Context, doc *asset.Document, cfg *tasklayer.Config, local []string) (*Report, error) {
	return New(cfg).Discover(ctx, doc, local)
}

// Commit applies a report returned by Discover.
func Commit(ctx context.Context, doc *asset.Document, report *Report) error {
	if report == nil || report.discoverer == nil {
		return errors.NewValidationError("report", nil, "report was not produced by Discover")
	}
	return report.discoverer.Commit(ctx, doc, report)
}

// Discover finds unowned entities, untracked sub-items, invalid items and
// stale records in doc for a working copy whose local task layers are
// local. It never mutates doc.
func (d *Discoverer) Discover(ctx context.Context, doc *asset.Document, local []string) (*Report, error) {
	if err := d.cfg.ValidateLocal(local); err != nil {
		return nil, err
	}
	root := doc.Root()
	if root == nil {
		return nil, errors.NewNotFoundError("asset root", "document")
	}

	report := &Report{LocalLayers: slices.Clone(local), discoverer: d}
	owners := make(map[asset.Entity]string)
	ownerOf := func(e asset.Entity) string {
		if o, ok := owners[e]; ok {
			return o
		}
		return e.Meta().Owner
	}
	claim := func(e asset.Entity, owner string) {
		if _, ok := owners[e]; ok {
			return
		}
		owners[e] = owner
		report.Claims = append(report.Claims, Claim{Entity: e, Owner: owner})
	}
	isLocal := func(owner string) bool { return slices.Contains(local, owner) }
	defaultLayer := local[0]

	for _, g := range root.Children {
		if g.Unowned() && !g.Linked {
			claim(g, defaultLayer)
		}
	}

	// placed[item] lists the owners of the task layer groups holding it.
	placed := make(map[*asset.Item][]string)
	for _, g := range root.Children {
		owner := ownerOf(g)
		for _, item := range g.AllItems() {
			placed[item] = append(placed[item], owner)
			if isLocal(owner) && item.Unowned() && !item.Linked {
				claim(item, owner)
			}
		}
	}

	for _, s := range doc.ClosureShared(root) {
		if s.Unowned() && !s.Linked {
			claim(s, defaultLayer)
		}
	}

	tree := root.AllItems()
	inTree := make(map[*asset.Item]bool, len(tree))
	for _, item := range tree {
		inTree[item] = true
	}

	claimer := transfer.LayerClaimer(d.cfg, local)
	for _, item := range tree {
		if item.Linked {
			continue
		}
		owner := ownerOf(item)
		if owner == "" || owner == constants.NoOwner {
			report.Invalid = append(report.Invalid, item)
			continue
		}
		if isLocal(owner) && !slices.Contains(placed[item], owner) {
			report.Invalid = append(report.Invalid, item)
			continue
		}

		if item.Parent != nil && !item.Parent.Linked && !inTree[item.Parent] {
			return nil, errors.NewValidationError("parent", item.Parent.Name,
				fmt.Sprintf("parent of %q cannot be outside of the asset", item.Name))
		}

		for _, rec := range item.Records {
			if isLocal(rec.Owner) && d.registry.IsMissing(item, rec) {
				report.Stale = append(report.Stale, StaleRecord{Item: item, Record: rec})
			}
		}

		records, err := d.registry.InitAll(item, claimer)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			report.Pending = append(report.Pending, PendingRecord{Item: item, Record: rec})
		}
	}

	logging.FromContext(ctx).Debug().
		Int("claims", len(report.Claims)).
		Int("pending", len(report.Pending)).
		Int("invalid", len(report.Invalid)).
		Int("stale", len(report.Stale)).
		Msg("Discovered ownership")
	return report, nil
}

// Commit applies claims, adds pending records, removes stale records and
// deletes invalid items, in that order. Modifier and constraint prefixes
// are then brought in line with their owners.
func (d *Discoverer) Commit(ctx context.Context, doc *asset.Document, report *Report) error {
	logger := logging.FromContext(ctx)
	if report == nil {
		return errors.NewValidationError("report", nil, "report cannot be nil")
	}

	for _, c := range report.Claims {
		c.Entity.Meta().Owner = c.Owner
		logger.Debug().
			Str("type", c.Entity.Type().String()).
			Str("name", c.Entity.Meta().Name).
			Str("owner", c.Owner).
			Msg("Claimed ownership")
	}

	for _, p := range report.Pending {
		if p.Item.AddRecord(p.Record) {
			d.registry.Adopt(p.Item, p.Record)
		}
	}

	for _, s := range report.Stale {
		s.Item.RemoveRecord(s.Record.Kind, s.Record.Name)
		logger.Debug().
			Str("item", s.Item.Name).
			Str("kind", s.Record.Kind.String()).
			Str("record", s.Record.Name).
			Msg("Removed stale record")
	}

	for _, item := range report.Invalid {
		logger.Warn().
			Str("item", item.Name).
			Str("owner", item.Owner).
			Msg("Deleting invalid item, it has no owner or is outside its task layer group")
		doc.Remove(item)
	}

	if root := doc.Root(); root != nil {
		prefixes := d.cfg.Prefixes()
		for _, item := range root.AllItems() {
			if item.Linked {
				continue
			}
			if n := naming.UpdateTaskLayerPrefix(item, prefixes); n > 0 {
				logger.Debug().Str("item", item.Name).Int("renamed", n).Msg("Updated task layer prefixes")
			}
		}
	}
	return nil
}
