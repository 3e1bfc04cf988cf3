package assetpipe

import (
	"context"
	"path/filepath"
	"slices"

	"github.com/agentstation/assetpipe/internal/publish"
	"github.com/agentstation/assetpipe/pkg/asset"
	"github.com/agentstation/assetpipe/pkg/errors"
	"github.com/agentstation/assetpipe/pkg/ownership"
)

// EntityStatus is the ownership of one group, item or shared entity.
type EntityStatus struct {
	Type      asset.Type `json:"type" yaml:"type"`
	Name      string     `json:"name" yaml:"name"`
	Owner     string     `json:"owner" yaml:"owner"`
	Surrender bool       `json:"surrender,omitempty" yaml:"surrender,omitempty"`
	Local     bool       `json:"local" yaml:"local"`
}

// RecordStatus is the ownership of one sub-item.
type RecordStatus struct {
	Item      string     `json:"item" yaml:"item"`
	Kind      asset.Kind `json:"kind" yaml:"kind"`
	Name      string     `json:"name" yaml:"name"`
	Owner     string     `json:"owner" yaml:"owner"`
	Surrender bool       `json:"surrender,omitempty" yaml:"surrender,omitempty"`
	Local     bool       `json:"local" yaml:"local"`
}

// Status describes a working file.
type Status struct {
	Asset       string          `json:"asset" yaml:"asset"`
	File        string          `json:"file" yaml:"file"`
	LocalLayers []string        `json:"local_layers" yaml:"local_layers"`
	SyncTarget  string          `json:"sync_target,omitempty" yaml:"sync_target,omitempty"`
	Staged      bool            `json:"staged" yaml:"staged"`
	Entities    []EntityStatus  `json:"entities" yaml:"entities"`
	Records     []RecordStatus  `json:"records" yaml:"records"`
	Pending     *PendingSummary `json:"pending" yaml:"pending"`
}

// PendingSummary counts what committing ownership discovery would change.
type PendingSummary struct {
	Claims  int `json:"claims" yaml:"claims"`
	Records int `json:"records" yaml:"records"`
	Invalid int `json:"invalid" yaml:"invalid"`
	Stale   int `json:"stale" yaml:"stale"`
}

func summarizeReport(r *ownership.Report) *PendingSummary {
	return &PendingSummary{
		Claims:  len(r.Claims),
		Records: len(r.Pending),
		Invalid: len(r.Invalid),
		Stale:   len(r.Stale),
	}
}

// Status reports ownership of the working file. It never modifies it.
func (c *client) Status(ctx context.Context, file string) (*Status, error) {
	doc, err := c.store.Load(file)
	if err != nil {
		return nil, err
	}
	root := doc.Root()
	if root == nil {
		return nil, errors.NewNotFoundError("asset root", file)
	}
	local := c.config.localLayers
	isLocal := func(owner string) bool { return slices.Contains(local, owner) }

	st := &Status{
		Asset:       root.Name,
		File:        file,
		LocalLayers: slices.Clone(local),
		Staged:      publish.IsStaged(filepath.Dir(file)),
	}
	if target, err := publish.SyncTarget(filepath.Dir(file)); err == nil {
		st.SyncTarget = target
	}

	for _, e := range doc.Closure(root) {
		meta := e.Meta()
		st.Entities = append(st.Entities, EntityStatus{
			Type:      e.Type(),
			Name:      meta.Name,
			Owner:     meta.Owner,
			Surrender: meta.Surrender,
			Local:     isLocal(meta.Owner),
		})
		item, ok := e.(*asset.Item)
		if !ok {
			continue
		}
		for _, rec := range item.Records {
			st.Records = append(st.Records, RecordStatus{
				Item:      item.Name,
				Kind:      rec.Kind,
				Name:      rec.Name,
				Owner:     rec.Owner,
				Surrender: rec.Surrender,
				Local:     isLocal(rec.Owner),
			})
		}
	}

	report, err := c.Discover(ctx, doc)
	if err != nil {
		return nil, err
	}
	st.Pending = summarizeReport(report)
	return st, nil
}
