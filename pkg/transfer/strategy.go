// Package transfer moves owned sub-items between the two copies of an item
// during a merge. Every asset.Kind has exactly one Strategy that knows how
// to discover, validate, clean up and copy sub-items of that kind.
package transfer

import (
	"context"

	"github.com/agentstation/assetpipe/pkg/asset"
	"github.com/agentstation/assetpipe/pkg/naming"
	"github.com/agentstation/assetpipe/pkg/tasklayer"
)

// Strategy handles one kind of sub-item.
type Strategy interface {
	// Name returns the strategy name
	Name() string

	// Description returns a human-readable description
	Description() string

	// Kind returns the sub-item kind this strategy handles
	Kind() asset.Kind

	// Init returns a record for every sub-item of item that is not tracked yet
	Init(item *asset.Item, claim Claimer) ([]asset.SubItemOwnership, error)

	// IsMissing reports whether record is tracked but its data is gone
	IsMissing(item *asset.Item, record asset.SubItemOwnership) bool

	// Clean removes sub-items that no record tracks and returns their names
	Clean(item *asset.Item) []string

	// Transfer copies the recorded sub-items from source onto target
	Transfer(ctx context.Context, source, target *asset.Item, records []asset.SubItemOwnership) error
}

// Claimer decides who claims a newly discovered sub-item.
type Claimer interface {
	Claim(kind asset.Kind, name string) (owner string, surrender bool, err error)
}

// ClaimerFunc adapts a function to the Claimer interface.
type ClaimerFunc func(kind asset.Kind, name string) (string, bool, error)

// Claim calls f.
func (f ClaimerFunc) Claim(kind asset.Kind, name string) (string, bool, error) {
	return f(kind, name)
}

// LayerClaimer claims sub-items with the defaults of cfg for a working copy
// whose local task layers are local.
func LayerClaimer(cfg *tasklayer.Config, local []string) Claimer {
	return ClaimerFunc(func(kind asset.Kind, name string) (string, bool, error) {
		return cfg.TransferDataOwner(kind, name, local)
	})
}

// PrefixSource provides the task layer prefixes used to name modifiers and
// constraints. *tasklayer.Config implements it.
type PrefixSource interface {
	Prefixes() naming.Prefixes
}

type noPrefixes struct{}

func (noPrefixes) Prefixes() naming.Prefixes { return nil }

// baseStrategy provides common strategy functionality
type baseStrategy struct {
	name        string
	description string
	kind        asset.Kind
}

// Name returns the strategy name
func (s *baseStrategy) Name() string {
	return s.name
}

// Description returns a human-readable description
func (s *baseStrategy) Description() string {
	return s.description
}

// Kind returns the sub-item kind this strategy handles
func (s *baseStrategy) Kind() asset.Kind {
	return s.kind
}

// claimNew builds records for names that have no record of kind yet.
func claimNew(item *asset.Item, kind asset.Kind, names []string, claim Claimer) ([]asset.SubItemOwnership, error) {
	var out []asset.SubItemOwnership
	seen := make(map[string]bool)
	for _, name := range names {
		if seen[name] || item.Record(kind, name) != nil {
			continue
		}
		seen[name] = true
		owner, surrender, err := claim.Claim(kind, name)
		if err != nil {
			return nil, err
		}
		out = append(out, asset.SubItemOwnership{
			Name:      name,
			Kind:      kind,
			Owner:     owner,
			Surrender: surrender,
		})
	}
	return out, nil
}

// untracked returns the names whose basename has no record of kind.
func untracked(item *asset.Item, kind asset.Kind, names []string) []string {
	var out []string
	for _, name := range names {
		if item.Record(kind, naming.Basename(name)) == nil {
			out = append(out, name)
		}
	}
	return out
}

func recordNames(records []asset.SubItemOwnership) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Name)
	}
	return out
}
