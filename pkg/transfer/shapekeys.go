package transfer

import (
	"context"
	"fmt"
	"slices"

	"github.com/agentstation/assetpipe/pkg/asset"
	"github.com/agentstation/assetpipe/pkg/errors"
	"github.com/agentstation/assetpipe/pkg/logging"
)

type shapeKeyStrategy struct {
	baseStrategy
	sampler Sampler
}

func newShapeKeyStrategy(sampler Sampler) *shapeKeyStrategy {
	return &shapeKeyStrategy{
		baseStrategy: baseStrategy{
			name:        "shape-keys",
			description: "Copies shape keys and their relative-key links",
			kind:        asset.KindShapeKey,
		},
		sampler: sampler,
	}
}

func shapeKeyNames(m *asset.Mesh) []string {
	if m == nil {
		return nil
	}
	out := make([]string, 0, len(m.ShapeKeys))
	for _, k := range m.ShapeKeys {
		out = append(out, k.Name)
	}
	return out
}

func shapeKeyIndex(m *asset.Mesh, name string) int {
	return slices.IndexFunc(m.ShapeKeys, func(k *asset.ShapeKey) bool { return k.Name == name })
}

// Init fails when a key is ordered before the key it is relative to.
func (s *shapeKeyStrategy) Init(item *asset.Item, claim Claimer) ([]asset.SubItemOwnership, error) {
	if item.Mesh == nil || len(item.Mesh.ShapeKeys) == 0 {
		return nil, nil
	}
	for i, k := range item.Mesh.ShapeKeys {
		if k.RelativeKey == "" {
			continue
		}
		if base := shapeKeyIndex(item.Mesh, k.RelativeKey); base > i {
			return nil, errors.NewValidationError("shape key", k.Name,
				fmt.Sprintf("must be ordered after its base shape %q on %q", k.RelativeKey, item.Name))
		}
	}
	return claimNew(item, s.kind, shapeKeyNames(item.Mesh), claim)
}

func (s *shapeKeyStrategy) IsMissing(item *asset.Item, record asset.SubItemOwnership) bool {
	if record.Kind != s.kind || item.Mesh == nil {
		return false
	}
	return item.Mesh.ShapeKey(record.Name) == nil
}

func (s *shapeKeyStrategy) Clean(item *asset.Item) []string {
	if item.Mesh == nil {
		return nil
	}
	removed := untracked(item, s.kind, shapeKeyNames(item.Mesh))
	item.Mesh.ShapeKeys = slices.DeleteFunc(item.Mesh.ShapeKeys, func(k *asset.ShapeKey) bool {
		return slices.Contains(removed, k.Name)
	})
	return removed
}

func (s *shapeKeyStrategy) Transfer(ctx context.Context, source, target *asset.Item, records []asset.SubItemOwnership) error {
	if source.Mesh == nil || target.Mesh == nil || len(source.Mesh.ShapeKeys) == 0 {
		return nil
	}
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.transferOne(ctx, source, target, rec.Name)
	}
	return nil
}

func (s *shapeKeyStrategy) transferOne(ctx context.Context, source, target *asset.Item, name string) {
	logger := logging.FromContext(ctx)
	src := source.Mesh.ShapeKey(name)
	if src == nil {
		logger.Warn().
			Str("shape_key", name).
			Str("source", source.Name).
			Msg("Shape key not found on source")
		return
	}

	tgt := target.Mesh.ShapeKey(name)
	if tgt == nil {
		tgt = &asset.ShapeKey{Name: name}
		target.Mesh.ShapeKeys = append(target.Mesh.ShapeKeys, tgt)
	}

	tgt.RelativeKey = ""
	if src.RelativeKey != "" && src.RelativeKey != src.Name {
		switch {
		case target.Mesh.ShapeKey(src.RelativeKey) != nil:
			tgt.RelativeKey = src.RelativeKey
		default:
			// Another task layer removed the base shape; fall back to the basis.
			if basis := target.Mesh.ShapeKeys[0]; basis != tgt {
				tgt.RelativeKey = basis.Name
			}
			logger.Warn().
				Str("shape_key", name).
				Str("relative_key", src.RelativeKey).
				Str("target", target.Name).
				Msg("Base shape was removed from target, using basis")
		}
	}
	tgt.Value = src.Value
	tgt.Offsets = Resample(s.sampler, source.Mesh.Vertices, target.Mesh.Vertices, src.Offsets)

	transferDrivers(source, target, "key_blocks", name)
}
