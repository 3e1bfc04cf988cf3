package transfer

import (
	"context"
	"slices"
	"strings"

	"github.com/agentstation/assetpipe/pkg/asset"
	"github.com/agentstation/assetpipe/pkg/constants"
	"github.com/agentstation/assetpipe/pkg/logging"
)

type attributeStrategy struct {
	baseStrategy
	sampler Sampler
}

func newAttributeStrategy(sampler Sampler) *attributeStrategy {
	return &attributeStrategy{
		baseStrategy: baseStrategy{
			name:        "attributes",
			description: "Copies generic geometry attributes, resampled when topology differs",
			kind:        asset.KindAttribute,
		},
		sampler: sampler,
	}
}

// editableAttributes returns the attributes tracked by ownership records.
// Material indexes travel with the material slots, UV layers with the mesh,
// and dot-prefixed names are internal.
func editableAttributes(m *asset.Mesh) []string {
	if m == nil {
		return nil
	}
	var out []string
	for _, a := range m.Attributes {
		if a.Name == constants.MaterialIndexAttribute || m.IsUVLayer(a.Name) || strings.HasPrefix(a.Name, ".") {
			continue
		}
		out = append(out, a.Name)
	}
	return out
}

func (s *attributeStrategy) Init(item *asset.Item, claim Claimer) ([]asset.SubItemOwnership, error) {
	return claimNew(item, s.kind, editableAttributes(item.Mesh), claim)
}

func (s *attributeStrategy) IsMissing(item *asset.Item, record asset.SubItemOwnership) bool {
	if record.Kind != s.kind || item.Mesh == nil {
		return false
	}
	return !slices.Contains(editableAttributes(item.Mesh), record.Name)
}

func (s *attributeStrategy) Clean(item *asset.Item) []string {
	if item.Mesh == nil {
		return nil
	}
	removed := untracked(item, s.kind, editableAttributes(item.Mesh))
	item.Mesh.Attributes = slices.DeleteFunc(item.Mesh.Attributes, func(a *asset.Attribute) bool {
		return slices.Contains(removed, a.Name)
	})
	return removed
}

func (s *attributeStrategy) Transfer(ctx context.Context, source, target *asset.Item, records []asset.SubItemOwnership) error {
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		copyAttribute(ctx, s.sampler, source, target, rec.Name)
	}
	return nil
}

// copyAttribute replaces target's attribute name with the source's,
// resampling when the element counts of the domain differ.
func copyAttribute(ctx context.Context, sampler Sampler, source, target *asset.Item, name string) {
	if source.Mesh == nil || target.Mesh == nil {
		return
	}
	src := source.Mesh.Attribute(name)
	if src == nil {
		logging.FromContext(ctx).Debug().
			Str("attribute", name).
			Str("source", source.Name).
			Msg("Failed to find attribute to transfer")
		return
	}

	from := source.Mesh.Points(src.Domain)
	to := target.Mesh.Points(src.Domain)
	attr := &asset.Attribute{
		Name:   name,
		Domain: src.Domain,
		Values: Resample(sampler, from, to, src.Values),
	}

	if idx := slices.IndexFunc(target.Mesh.Attributes, func(a *asset.Attribute) bool { return a.Name == name }); idx >= 0 {
		target.Mesh.Attributes[idx] = attr
		return
	}
	target.Mesh.Attributes = append(target.Mesh.Attributes, attr)
}
