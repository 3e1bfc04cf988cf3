package transfer

import (
	"context"
	"slices"

	"github.com/agentstation/assetpipe/pkg/asset"
	"github.com/agentstation/assetpipe/pkg/constants"
)

// materialStrategy tracks all material slots of an item as one record.
type materialStrategy struct {
	baseStrategy
	sampler Sampler
}

func newMaterialStrategy(sampler Sampler) *materialStrategy {
	return &materialStrategy{
		baseStrategy: baseStrategy{
			name:        "materials",
			description: "Replaces material slots and per-face material indexes",
			kind:        asset.KindMaterialSlot,
		},
		sampler: sampler,
	}
}

func (s *materialStrategy) Init(item *asset.Item, claim Claimer) ([]asset.SubItemOwnership, error) {
	if len(item.MaterialSlots) == 0 {
		return nil, nil
	}
	return claimNew(item, s.kind, []string{constants.MaterialRecordName}, claim)
}

func (s *materialStrategy) IsMissing(item *asset.Item, record asset.SubItemOwnership) bool {
	return record.Kind == s.kind && len(item.MaterialSlots) == 0
}

func (s *materialStrategy) Clean(item *asset.Item) []string {
	if item.Record(s.kind, constants.MaterialRecordName) != nil || len(item.MaterialSlots) == 0 {
		return nil
	}
	item.MaterialSlots = nil
	return []string{constants.MaterialRecordName}
}

func (s *materialStrategy) Transfer(ctx context.Context, source, target *asset.Item, _ []asset.SubItemOwnership) error {
	target.MaterialSlots = slices.Clone(source.MaterialSlots)
	if source.Mesh != nil && source.Mesh.Attribute(constants.MaterialIndexAttribute) != nil {
		copyAttribute(ctx, s.sampler, source, target, constants.MaterialIndexAttribute)
	}
	return nil
}
