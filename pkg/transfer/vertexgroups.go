package transfer

import (
	"context"
	"slices"

	"github.com/agentstation/assetpipe/pkg/asset"
	"github.com/agentstation/assetpipe/pkg/logging"
)

type vertexGroupStrategy struct {
	baseStrategy
	sampler Sampler
}

func newVertexGroupStrategy(sampler Sampler) *vertexGroupStrategy {
	return &vertexGroupStrategy{
		baseStrategy: baseStrategy{
			name:        "vertex-groups",
			description: "Copies vertex group weights, resampled by nearest vertex when topology differs",
			kind:        asset.KindVertexGroup,
		},
		sampler: sampler,
	}
}

func vertexGroupNames(item *asset.Item) []string {
	out := make([]string, 0, len(item.VertexGroups))
	for _, vg := range item.VertexGroups {
		out = append(out, vg.Name)
	}
	return out
}

func (s *vertexGroupStrategy) Init(item *asset.Item, claim Claimer) ([]asset.SubItemOwnership, error) {
	return claimNew(item, s.kind, vertexGroupNames(item), claim)
}

func (s *vertexGroupStrategy) IsMissing(item *asset.Item, record asset.SubItemOwnership) bool {
	return record.Kind == s.kind && item.VertexGroup(record.Name) == nil
}

func (s *vertexGroupStrategy) Clean(item *asset.Item) []string {
	removed := untracked(item, s.kind, vertexGroupNames(item))
	item.VertexGroups = slices.DeleteFunc(item.VertexGroups, func(vg *asset.VertexGroup) bool {
		return slices.Contains(removed, vg.Name)
	})
	return removed
}

// Transfer moves all requested groups in one pass so the vertex mapping is
// computed once per item pair.
func (s *vertexGroupStrategy) Transfer(ctx context.Context, source, target *asset.Item, records []asset.SubItemOwnership) error {
	logger := logging.FromContext(ctx)
	names := recordNames(records)
	for _, name := range names {
		if source.VertexGroup(name) == nil {
			logger.Error().
				Str("vertex_group", name).
				Str("source", source.Name).
				Msg("Vertex group not found on source")
			return nil
		}
	}
	if source.Mesh == nil || target.Mesh == nil {
		return nil
	}

	var mapping []int
	if len(source.Mesh.Vertices) != len(target.Mesh.Vertices) {
		mapping = s.sampler.Sample(source.Mesh.Vertices, target.Mesh.Vertices)
		logger.Debug().
			Str("source", source.Name).
			Str("target", target.Name).
			Msg("Topology differs, resampling vertex groups")
	}

	n := len(target.Mesh.Vertices)
	for _, name := range names {
		src := source.VertexGroup(name)
		var weights []float64
		if mapping == nil {
			weights = make([]float64, n)
			copy(weights, src.Weights)
		} else {
			weights = pick(mapping, n, src.Weights)
		}
		if tgt := target.VertexGroup(name); tgt != nil {
			tgt.Weights = weights
			continue
		}
		target.VertexGroups = append(target.VertexGroups, &asset.VertexGroup{Name: name, Weights: weights})
	}
	return nil
}
