package merge_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentstation/assetpipe/pkg/merge"
)

func TestStateTransitions(t *testing.T) {
	tests := []struct {
		from, to merge.State
		want     bool
	}{
		{merge.StateStart, merge.StateSuffixed, true},
		{merge.StateStart, merge.StateImported, false},
		{merge.StateConflictGate, merge.StateApplying, true},
		{merge.StateConflictGate, merge.StateAborted, true},
		{merge.StateMapped, merge.StateAborted, false},
		{merge.StateApplying, merge.StateAborted, false},
		{merge.StateUnsuffixed, merge.StateDone, true},
		{merge.StateDone, merge.StateStart, false},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}

	assert.True(t, merge.StateDone.Terminal())
	assert.True(t, merge.StateAborted.Terminal())
	assert.False(t, merge.StateApplying.Terminal())
}

func TestDirection(t *testing.T) {
	assert.True(t, merge.Pull.Valid())
	assert.True(t, merge.Push.Valid())
	assert.False(t, merge.Direction("sync").Valid())
}
