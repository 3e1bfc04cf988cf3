package transfer

import (
	"context"
	"fmt"
	"sync"

	"github.com/agentstation/assetpipe/pkg/asset"
	"github.com/agentstation/assetpipe/pkg/errors"
	"github.com/agentstation/assetpipe/pkg/logging"
)

// initOrder is the order Init runs in. Mesh kinds come last and only run
// on items with mesh data.
var initOrder = []asset.Kind{
	asset.KindConstraint,
	asset.KindCustomProperty,
	asset.KindParent,
	asset.KindModifier,
	asset.KindVertexGroup,
	asset.KindMaterialSlot,
	asset.KindShapeKey,
	asset.KindAttribute,
}

// Registry maps every Kind to exactly one Strategy.
type Registry struct {
	mu         sync.RWMutex
	strategies map[asset.Kind]Strategy
	sampler    Sampler
	prefixes   PrefixSource
}

// Option configures a Registry.
type Option func(*Registry)

// WithSampler replaces the nearest-vertex sampler used by mesh kinds.
func WithSampler(s Sampler) Option {
	return func(r *Registry) {
		if s != nil {
			r.sampler = s
		}
	}
}

// WithPrefixes sets where modifier and constraint strategies read task
// layer prefixes from.
func WithPrefixes(p PrefixSource) Option {
	return func(r *Registry) {
		if p != nil {
			r.prefixes = p
		}
	}
}

// NewRegistry returns a registry with the built-in strategy of every kind.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		strategies: make(map[asset.Kind]Strategy),
		sampler:    NearestVertex{},
		prefixes:   noPrefixes{},
	}
	for _, opt := range opts {
		opt(r)
	}

	for _, s := range []Strategy{
		newVertexGroupStrategy(r.sampler),
		newModifierStrategy(r.prefixes),
		newConstraintStrategy(r.prefixes),
		newMaterialStrategy(r.sampler),
		newShapeKeyStrategy(r.sampler),
		newAttributeStrategy(r.sampler),
		newParentStrategy(),
		newCustomPropStrategy(),
	} {
		r.strategies[s.Kind()] = s
	}
	return r
}

// Register replaces the strategy of s.Kind().
func (r *Registry) Register(s Strategy) error {
	if s == nil {
		return errors.NewValidationError("strategy", nil, "strategy cannot be nil")
	}
	if !s.Kind().Valid() {
		return errors.NewValidationError("kind", s.Kind(), "unknown sub-item kind")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[s.Kind()] = s
	return nil
}

// Get returns the strategy of kind.
func (r *Registry) Get(kind asset.Kind) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[kind]
	if !ok {
		return nil, errors.NewNotFoundError("transfer strategy", kind.String())
	}
	return s, nil
}

// Strategies returns the registered strategies in canonical kind order.
func (r *Registry) Strategies() []Strategy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Strategy, 0, len(r.strategies))
	for _, kind := range asset.Kinds() {
		if s, ok := r.strategies[kind]; ok {
			out = append(out, s)
		}
	}
	return out
}

// InitAll returns records for every untracked sub-item of item. Linked items
// are skipped, and mesh kinds only run when the item has mesh data.
func (r *Registry) InitAll(item *asset.Item, claim Claimer) ([]asset.SubItemOwnership, error) {
	if item.Linked {
		return nil, nil
	}
	var out []asset.SubItemOwnership
	for _, kind := range initOrder {
		if (kind.NeedsMesh() || kind == asset.KindMaterialSlot) && item.Mesh == nil {
			continue
		}
		s, err := r.Get(kind)
		if err != nil {
			return nil, err
		}
		records, err := s.Init(item, claim)
		if err != nil {
			return nil, fmt.Errorf("init %s on %q: %w", kind, item.Name, err)
		}
		out = append(out, records...)
	}
	return out, nil
}

// Adopter is implemented by strategies whose entries are renamed when a
// new record is committed.
type Adopter interface {
	Adopt(item *asset.Item, record asset.SubItemOwnership) bool
}

// Adopt lets the kind's strategy rename the entry a new record was
// discovered from. It reports whether anything was renamed.
func (r *Registry) Adopt(item *asset.Item, record asset.SubItemOwnership) bool {
	s, err := r.Get(record.Kind)
	if err != nil {
		return false
	}
	if a, ok := s.(Adopter); ok {
		return a.Adopt(item, record)
	}
	return false
}

// CleanAll removes every untracked sub-item of item and returns the removed
// names by kind.
func (r *Registry) CleanAll(ctx context.Context, item *asset.Item) map[asset.Kind][]string {
	logger := logging.FromContext(ctx)
	out := make(map[asset.Kind][]string)
	for _, s := range r.Strategies() {
		removed := s.Clean(item)
		if len(removed) == 0 {
			continue
		}
		out[s.Kind()] = removed
		logger.Debug().
			Str("item", item.Name).
			Str("kind", s.Kind().String()).
			Strs("removed", removed).
			Msg("Cleaned untracked sub-items")
	}
	return out
}

// IsMissing reports whether record is tracked on item but its data is gone.
func (r *Registry) IsMissing(item *asset.Item, record asset.SubItemOwnership) bool {
	s, err := r.Get(record.Kind)
	if err != nil {
		return false
	}
	return s.IsMissing(item, record)
}

// Apply restores the ownership records on target and, unless source and
// target are the same item, transfers the recorded sub-items.
func (r *Registry) Apply(ctx context.Context, source, target *asset.Item, kind asset.Kind, records []asset.SubItemOwnership) error {
	logger := logging.FromContext(ctx)
	if target == nil {
		logger.Warn().
			Str("kind", kind.String()).
			Msg("Failed to transfer data, no target item")
		return nil
	}
	for _, rec := range records {
		target.AddRecord(rec)
	}
	if source == target {
		return nil
	}

	s, err := r.Get(kind)
	if err != nil {
		return err
	}
	logger.Debug().
		Str("kind", kind.String()).
		Str("source", source.Name).
		Str("target", target.Name).
		Int("records", len(records)).
		Msg("Transferring data")
	if err := s.Transfer(ctx, source, target, records); err != nil {
		return fmt.Errorf("transfer %s from %q to %q: %w", kind, source.Name, target.Name, err)
	}
	return nil
}
