package output

import (
	"fmt"
	"io"
	"strconv"

	"github.com/agentstation/assetpipe"
	"github.com/agentstation/assetpipe/pkg/asset"
	"github.com/agentstation/assetpipe/pkg/merge"
	"github.com/agentstation/assetpipe/pkg/ownership"
)

// View is command output with its own tables and a raw form for JSON and
// YAML.
type View interface {
	Tabler
	Raw() any
}

// Write renders v in format to w.
func Write(w io.Writer, format Format, v View) error {
	switch format {
	case FormatJSON, FormatYAML:
		return NewFormatter(format).Format(w, v.Raw())
	default:
		return NewFormatter(format).Format(w, v)
	}
}

// MergeSummary is the serializable form of a merge result.
type MergeSummary struct {
	MergeID     string         `json:"merge_id" yaml:"merge_id"`
	Direction   string         `json:"direction" yaml:"direction"`
	State       string         `json:"state" yaml:"state"`
	Conflicts   []string       `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`
	Transferred map[string]int `json:"transferred,omitempty" yaml:"transferred,omitempty"`
	Added       []string       `json:"added,omitempty" yaml:"added,omitempty"`
	Purged      []string       `json:"purged,omitempty" yaml:"purged,omitempty"`
	Warnings    []string       `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Duration    string         `json:"duration" yaml:"duration"`
}

// MergeView renders one or more merge results.
type MergeView struct {
	Results []*merge.Result
}

// NewMergeView returns a view of the non-nil results.
func NewMergeView(results ...*merge.Result) *MergeView {
	v := &MergeView{}
	for _, r := range results {
		if r != nil {
			v.Results = append(v.Results, r)
		}
	}
	return v
}

// Title implements Titled.
func (v *MergeView) Title() string {
	return "Merge Report"
}

// Raw implements View.
func (v *MergeView) Raw() any {
	out := make([]MergeSummary, 0, len(v.Results))
	for _, r := range v.Results {
		s := MergeSummary{
			MergeID:   r.MergeID,
			Direction: r.Direction.String(),
			State:     r.State.String(),
			Conflicts: r.Conflicts,
			Added:     r.Added,
			Purged:    r.Purged,
			Warnings:  r.Warnings,
			Duration:  r.Metadata.Duration.String(),
		}
		if len(r.Transferred) > 0 {
			s.Transferred = make(map[string]int, len(r.Transferred))
			for k, n := range r.Transferred {
				s.Transferred[k.String()] = n
			}
		}
		out = append(out, s)
	}
	return out
}

// Tables implements Tabler.
func (v *MergeView) Tables() []Data {
	var out []Data
	for _, r := range v.Results {
		summary := Data{
			Title:   fmt.Sprintf("%s %s", r.Direction, r.MergeID),
			Headers: []string{"Property", "Value"},
			Rows: [][]string{
				{"State", r.State.String()},
				{"Transferred", strconv.Itoa(r.TransferredCount())},
				{"Added", strconv.Itoa(len(r.Added))},
				{"Purged", strconv.Itoa(len(r.Purged))},
				{"Duration", r.Metadata.Duration.String()},
			},
		}
		out = append(out, summary)

		if r.HasConflicts() {
			out = append(out, ConflictTable(r.Conflicts))
		}
		if len(r.Transferred) > 0 {
			t := Data{
				Title:           "Transferred",
				Headers:         []string{"Kind", "Records"},
				ColumnAlignment: []Align{AlignLeft, AlignRight},
			}
			for _, k := range asset.Kinds() {
				if n := r.Transferred[k]; n > 0 {
					t.Rows = append(t.Rows, []string{k.DisplayName(), strconv.Itoa(n)})
				}
			}
			out = append(out, t)
		}
		if r.HasWarnings() {
			t := Data{Title: "Warnings", Headers: []string{"#", "Warning"}}
			for i, w := range r.Warnings {
				t.Rows = append(t.Rows, []string{strconv.Itoa(i + 1), w})
			}
			out = append(out, t)
		}
	}
	return out
}

// ConflictTable lists conflict IDs.
func ConflictTable(ids []string) Data {
	t := Data{
		Title:           fmt.Sprintf("Conflicts (%d)", len(ids)),
		Headers:         []string{"#", "Conflict"},
		ColumnAlignment: []Align{AlignRight, AlignLeft},
	}
	for i, id := range ids {
		t.Rows = append(t.Rows, []string{strconv.Itoa(i + 1), id})
	}
	return t
}

// StatusView renders the status of a working file.
type StatusView struct {
	Status *assetpipe.Status
}

// Title implements Titled.
func (v *StatusView) Title() string {
	return "Status of " + v.Status.Asset
}

// Raw implements View.
func (v *StatusView) Raw() any {
	return v.Status
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}

// Tables implements Tabler.
func (v *StatusView) Tables() []Data {
	st := v.Status
	target := st.SyncTarget
	if target == "" {
		target = "none"
	}
	info := Data{
		Title:   st.File,
		Headers: []string{"Property", "Value"},
		Rows: [][]string{
			{"Asset", st.Asset},
			{"Local Layers", fmt.Sprint(st.LocalLayers)},
			{"Sync Target", target},
			{"Staged", yesNo(st.Staged)},
		},
	}
	if p := st.Pending; p != nil {
		info.Rows = append(info.Rows,
			[]string{"Unclaimed", strconv.Itoa(p.Claims)},
			[]string{"Untracked Records", strconv.Itoa(p.Records)},
			[]string{"Invalid Items", strconv.Itoa(p.Invalid)},
			[]string{"Stale Records", strconv.Itoa(p.Stale)},
		)
	}

	entities := Data{Title: "Ownership", Headers: []string{"Type", "Name", "Owner", "Local", "Surrender"}}
	for _, e := range st.Entities {
		entities.Rows = append(entities.Rows, []string{e.Type.String(), e.Name, e.Owner, yesNo(e.Local), yesNo(e.Surrender)})
	}

	records := Data{Title: "Records", Headers: []string{"Item", "Kind", "Name", "Owner", "Local", "Surrender"}}
	for _, r := range st.Records {
		records.Rows = append(records.Rows, []string{r.Item, r.Kind.DisplayName(), r.Name, r.Owner, yesNo(r.Local), yesNo(r.Surrender)})
	}
	return []Data{info, entities, records}
}

// DiscoverySummary is the serializable form of an ownership report.
type DiscoverySummary struct {
	LocalLayers []string            `json:"local_layers" yaml:"local_layers"`
	Claims      []map[string]string `json:"claims,omitempty" yaml:"claims,omitempty"`
	Pending     []map[string]string `json:"pending,omitempty" yaml:"pending,omitempty"`
	Invalid     []string            `json:"invalid,omitempty" yaml:"invalid,omitempty"`
	Stale       []map[string]string `json:"stale,omitempty" yaml:"stale,omitempty"`
}

// DiscoveryView renders an ownership report.
type DiscoveryView struct {
	Report *ownership.Report
}

// Title implements Titled.
func (v *DiscoveryView) Title() string {
	return "Ownership Discovery"
}

// Raw implements View.
func (v *DiscoveryView) Raw() any {
	r := v.Report
	s := DiscoverySummary{LocalLayers: r.LocalLayers}
	for _, c := range r.Claims {
		s.Claims = append(s.Claims, map[string]string{
			"type":  c.Entity.Type().String(),
			"name":  c.Entity.Meta().Name,
			"owner": c.Owner,
		})
	}
	for _, p := range r.Pending {
		s.Pending = append(s.Pending, map[string]string{
			"item":  p.Item.Name,
			"kind":  p.Record.Kind.String(),
			"name":  p.Record.Name,
			"owner": p.Record.Owner,
		})
	}
	for _, i := range r.Invalid {
		s.Invalid = append(s.Invalid, i.Name)
	}
	for _, st := range r.Stale {
		s.Stale = append(s.Stale, map[string]string{
			"item": st.Item.Name,
			"kind": st.Record.Kind.String(),
			"name": st.Record.Name,
		})
	}
	return s
}

// Tables implements Tabler.
func (v *DiscoveryView) Tables() []Data {
	r := v.Report
	claims := Data{Title: "Claims", Headers: []string{"Type", "Name", "Owner"}}
	for _, c := range r.Claims {
		claims.Rows = append(claims.Rows, []string{c.Entity.Type().String(), c.Entity.Meta().Name, c.Owner})
	}
	pending := Data{Title: "New Records", Headers: []string{"Item", "Kind", "Name", "Owner", "Surrender"}}
	for _, p := range r.Pending {
		pending.Rows = append(pending.Rows, []string{p.Item.Name, p.Record.Kind.DisplayName(), p.Record.Name, p.Record.Owner, yesNo(p.Record.Surrender)})
	}
	invalid := Data{Title: "Invalid Items", Headers: []string{"Item", "Owner"}}
	for _, i := range r.Invalid {
		invalid.Rows = append(invalid.Rows, []string{i.Name, i.Owner})
	}
	stale := Data{Title: "Stale Records", Headers: []string{"Item", "Kind", "Name"}}
	for _, s := range r.Stale {
		stale.Rows = append(stale.Rows, []string{s.Item.Name, s.Record.Kind.DisplayName(), s.Record.Name})
	}
	return []Data{claims, pending, invalid, stale}
}
