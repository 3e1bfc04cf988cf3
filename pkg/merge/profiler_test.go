package merge_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/assetpipe/pkg/asset"
	"github.com/agentstation/assetpipe/pkg/merge"
)

func TestProfiler(t *testing.T) {
	p := merge.NewProfiler()
	p.Observe(merge.Pull, merge.PhaseMapping, 2*time.Millisecond)
	p.Observe(merge.Pull, merge.PhaseMapping, 3*time.Millisecond)
	p.ObserveKind(merge.Pull, asset.KindModifier, time.Millisecond)
	p.Observe(merge.Push, merge.PhaseTotal, 10*time.Millisecond)

	assert.Equal(t, 5*time.Millisecond, p.Total(merge.Pull, merge.PhaseMapping))
	assert.Equal(t, time.Millisecond, p.KindTotal(merge.Pull, asset.KindModifier))
	assert.Zero(t, p.Total(merge.Push, merge.PhaseMapping))

	summary := p.Summary()
	assert.Contains(t, summary, "PULL:")
	assert.Contains(t, summary, "MAPPING")
	assert.Contains(t, summary, "MODIFIER")
	assert.Contains(t, summary, "PUSH:")

	n, err := testutil.GatherAndCount(p.Registry(), "assetpipe_merge_phase_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "one series per direction and phase")

	p.Reset()
	assert.Empty(t, p.Summary())
}

func TestMergeIsProfiled(t *testing.T) {
	p := merge.NewProfiler()
	m := newMerger(t, map[string]*asset.Document{
		publishPath: chair(t, []*asset.Modifier{modifier("GEO-Subsurf", nil)}, "modeling"),
	}, merge.WithProfiler(p))
	require.Same(t, p, m.Profiler())

	_, err := m.Merge(context.Background(), chair(t, nil), pull())
	require.NoError(t, err)

	n, err := testutil.GatherAndCount(p.Registry(), "assetpipe_merge_phase_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 9, n, "every phase is observed once")

	n, err = testutil.GatherAndCount(p.Registry(), "assetpipe_merge_transfer_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
