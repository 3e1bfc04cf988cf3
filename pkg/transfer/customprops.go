package transfer

import (
	"context"
	"slices"

	"github.com/agentstation/assetpipe/pkg/asset"
)

type customPropStrategy struct {
	baseStrategy
}

func newCustomPropStrategy() *customPropStrategy {
	return &customPropStrategy{
		baseStrategy: baseStrategy{
			name:        "custom-properties",
			description: "Copies custom property values",
			kind:        asset.KindCustomProperty,
		},
	}
}

func customPropNames(item *asset.Item) []string {
	out := make([]string, 0, len(item.CustomProps))
	for name := range item.CustomProps {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

func (s *customPropStrategy) Init(item *asset.Item, claim Claimer) ([]asset.SubItemOwnership, error) {
	return claimNew(item, s.kind, customPropNames(item), claim)
}

func (s *customPropStrategy) IsMissing(item *asset.Item, record asset.SubItemOwnership) bool {
	if record.Kind != s.kind {
		return false
	}
	_, ok := item.CustomProps[record.Name]
	return !ok
}

func (s *customPropStrategy) Clean(item *asset.Item) []string {
	removed := untracked(item, s.kind, customPropNames(item))
	for _, name := range removed {
		delete(item.CustomProps, name)
	}
	return removed
}

func (s *customPropStrategy) Transfer(_ context.Context, source, target *asset.Item, records []asset.SubItemOwnership) error {
	for _, rec := range records {
		value, ok := source.CustomProps[rec.Name]
		if !ok {
			delete(target.CustomProps, rec.Name)
			continue
		}
		if target.CustomProps == nil {
			target.CustomProps = make(map[string]any)
		}
		target.CustomProps[rec.Name] = value
	}
	return nil
}
