package merge

import (
	"fmt"
	"strings"
	"time"

	"github.com/agentstation/assetpipe/pkg/asset"
	"github.com/agentstation/assetpipe/pkg/mapping"
)

// Result represents the outcome of a merge.
type Result struct {
	// MergeID identifies the run in logs and backups
	MergeID string

	// Direction of the merge
	Direction Direction

	// State the merge stopped in, StateDone or StateAborted
	State State

	// Mapping built for the merge
	Mapping *mapping.Mapping

	// Conflicts lists every conflict when the merge was aborted
	Conflicts []string

	// Transferred counts transferred records per kind
	Transferred map[asset.Kind]int

	// Added names the external items and groups brought in
	Added []string

	// Purged names the entities removed as orphans
	Purged []string

	// Warnings contains non-critical issues
	Warnings []string

	// Metadata about the run
	Metadata ResultMetadata
}

// ResultMetadata contains timing information about a merge.
type ResultMetadata struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// IsSuccess returns true if the merge reached StateDone.
func (r *Result) IsSuccess() bool {
	return r.State == StateDone
}

// HasConflicts returns true if the merge stopped at the conflict gate.
func (r *Result) HasConflicts() bool {
	return len(r.Conflicts) > 0
}

// HasWarnings returns true if there were warnings.
func (r *Result) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// TransferredCount returns the total number of transferred records.
func (r *Result) TransferredCount() int {
	n := 0
	for _, c := range r.Transferred {
		n += c
	}
	return n
}

// Summary returns a human-readable summary of the result.
func (r *Result) Summary() string {
	if r.HasConflicts() {
		return fmt.Sprintf("%s aborted with %d conflicts", r.Direction, len(r.Conflicts))
	}
	if !r.IsSuccess() {
		return fmt.Sprintf("%s stopped in state %s", r.Direction, r.State)
	}
	return fmt.Sprintf("%s completed: %d records transferred, %d added, %d purged",
		r.Direction, r.TransferredCount(), len(r.Added), len(r.Purged))
}

// Report generates a detailed report of the merge.
func (r *Result) Report() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Merge Report\n============\nID: %s\nDirection: %s\nState: %s\nDuration: %s\n\n",
		r.MergeID, r.Direction, r.State, r.Metadata.Duration)

	if r.HasConflicts() {
		fmt.Fprintf(&sb, "Conflicts (%d):\n--------------\n", len(r.Conflicts))
		for i, c := range r.Conflicts {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, c)
		}
		sb.WriteString("\n")
	}

	if len(r.Transferred) > 0 {
		sb.WriteString("Transferred:\n------------\n")
		for _, k := range asset.Kinds() {
			if n := r.Transferred[k]; n > 0 {
				fmt.Fprintf(&sb, "%s: %d\n", k.DisplayName(), n)
			}
		}
		sb.WriteString("\n")
	}

	if len(r.Added) > 0 {
		fmt.Fprintf(&sb, "Added (%d): %s\n\n", len(r.Added), strings.Join(r.Added, ", "))
	}

	if r.HasWarnings() {
		fmt.Fprintf(&sb, "Warnings (%d):\n-------------\n", len(r.Warnings))
		for i, w := range r.Warnings {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, w)
		}
	}
	return sb.String()
}

// ResultBuilder helps construct Result objects.
type ResultBuilder struct {
	result *Result
}

// NewResultBuilder creates a new ResultBuilder.
func NewResultBuilder(mergeID string, dir Direction) *ResultBuilder {
	return &ResultBuilder{
		result: &Result{
			MergeID:     mergeID,
			Direction:   dir,
			State:       StateStart,
			Transferred: make(map[asset.Kind]int),
			Metadata:    ResultMetadata{StartTime: time.Now()},
		},
	}
}

// WithState records the current state.
func (b *ResultBuilder) WithState(s State) *ResultBuilder {
	b.result.State = s
	return b
}

// WithMapping sets the mapping.
func (b *ResultBuilder) WithMapping(m *mapping.Mapping) *ResultBuilder {
	b.result.Mapping = m
	return b
}

// WithConflicts sets the conflict IDs.
func (b *ResultBuilder) WithConflicts(ids []string) *ResultBuilder {
	b.result.Conflicts = ids
	return b
}

// WithTransferred adds n transferred records of kind.
func (b *ResultBuilder) WithTransferred(kind asset.Kind, n int) *ResultBuilder {
	b.result.Transferred[kind] += n
	return b
}

// WithAdded records an added entity name.
func (b *ResultBuilder) WithAdded(name string) *ResultBuilder {
	b.result.Added = append(b.result.Added, name)
	return b
}

// WithPurged records purged entities.
func (b *ResultBuilder) WithPurged(entities []asset.Entity) *ResultBuilder {
	for _, e := range entities {
		b.result.Purged = append(b.result.Purged, e.Meta().Name)
	}
	return b
}

// WithWarning adds a warning.
func (b *ResultBuilder) WithWarning(warning string) *ResultBuilder {
	b.result.Warnings = append(b.result.Warnings, warning)
	return b
}

// Build finalizes and returns the Result.
func (b *ResultBuilder) Build() *Result {
	b.result.Metadata.EndTime = time.Now()
	b.result.Metadata.Duration = b.result.Metadata.EndTime.Sub(b.result.Metadata.StartTime)
	return b.result
}
