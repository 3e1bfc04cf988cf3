package transfer

import (
	"context"
	"slices"

	"github.com/agentstation/assetpipe/pkg/asset"
	"github.com/agentstation/assetpipe/pkg/constants"
)

type parentStrategy struct {
	baseStrategy
}

func newParentStrategy() *parentStrategy {
	return &parentStrategy{
		baseStrategy: baseStrategy{
			name:        "parent",
			description: "Copies the parent relationship and parent transform",
			kind:        asset.KindParent,
		},
	}
}

func (s *parentStrategy) Init(item *asset.Item, claim Claimer) ([]asset.SubItemOwnership, error) {
	if item.Parent == nil {
		return nil, nil
	}
	return claimNew(item, s.kind, []string{constants.ParentRecordName}, claim)
}

func (s *parentStrategy) IsMissing(item *asset.Item, record asset.SubItemOwnership) bool {
	return record.Kind == s.kind && item.Parent == nil
}

func (s *parentStrategy) Clean(item *asset.Item) []string {
	if item.Record(s.kind, constants.ParentRecordName) != nil || item.Parent == nil {
		return nil
	}
	item.Parent = nil
	return []string{constants.ParentRecordName}
}

func (s *parentStrategy) Transfer(_ context.Context, source, target *asset.Item, _ []asset.SubItemOwnership) error {
	target.Parent = source.Parent
	target.ParentTransform = slices.Clone(source.ParentTransform)
	return nil
}
