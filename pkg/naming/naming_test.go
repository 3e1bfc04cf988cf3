package naming_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/assetpipe/pkg/asset"
	pkgerrors "github.com/agentstation/assetpipe/pkg/errors"
	"github.com/agentstation/assetpipe/pkg/naming"
)

func TestTargetSuffix(t *testing.T) {
	got, err := naming.TargetSuffix(naming.Local)
	require.NoError(t, err)
	assert.Equal(t, naming.External, got)

	got, err = naming.TargetSuffix(naming.External)
	require.NoError(t, err)
	assert.Equal(t, naming.Local, got)

	_, err = naming.TargetSuffix("OLD")
	assert.True(t, errors.Is(err, pkgerrors.ErrUnknownSuffix))
}

func TestTargetName(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"Body.LOCAL", "Body.EXTERNAL", false},
		{"Body.EXTERNAL", "Body.LOCAL", false},
		{"Body.001.LOCAL", "Body.001.EXTERNAL", false},
		{"LOCAL.LOCAL", "LOCAL.EXTERNAL", false},
		{"Body", "", true},
		{"Body.OLD", "", true},
		{"BodyLOCAL", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := naming.TargetName(tt.name)
			if tt.wantErr {
				assert.True(t, errors.Is(err, pkgerrors.ErrUnknownSuffix))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTargetNameInvolution(t *testing.T) {
	for _, base := range []string{"Body", "chair-modeling", "A.B.C", "x"} {
		for _, s := range []naming.Suffix{naming.Local, naming.External} {
			name := naming.AddSuffix(base, s)
			once, err := naming.TargetName(name)
			require.NoError(t, err)
			twice, err := naming.TargetName(once)
			require.NoError(t, err)
			assert.Equal(t, name, twice)
		}
	}
}

func TestSuffixRoundTrip(t *testing.T) {
	for _, base := range []string{"Body", "Body.001", "GEO-Body", "LOCAL", strings.Repeat("a", 59)} {
		for _, s := range []naming.Suffix{naming.Local, naming.External} {
			assert.Equal(t, base, naming.Basename(naming.AddSuffix(base, s)))
		}
	}
	assert.Equal(t, "Body.OLD", naming.Basename("Body.OLD"))
}

func TestSuffixOf(t *testing.T) {
	s, ok := naming.SuffixOf("Body.EXTERNAL")
	assert.True(t, ok)
	assert.Equal(t, naming.External, s)

	_, ok = naming.SuffixOf("Body")
	assert.False(t, ok)

	assert.True(t, naming.HasSuffix("Body.LOCAL", naming.Local))
	assert.False(t, naming.HasSuffix("Body.LOCAL", naming.External))
}

func TestCheckLength(t *testing.T) {
	assert.NoError(t, naming.CheckLength(strings.Repeat("a", 59)))
	err := naming.CheckLength(strings.Repeat("a", 60))
	assert.True(t, errors.Is(err, pkgerrors.ErrNameTooLong))
}

func TestResolveNamingCollisions(t *testing.T) {
	d := asset.TestDocument(t, "chair", "modeling")
	g := d.Group("chair-modeling")
	body := asset.TestItem(t, d, g, "Body", "modeling")
	blocker := asset.TestItem(t, d, nil, "Body.LOCAL", "modeling")
	lib := asset.TestShared(t, d, "Library", "NONE", asset.SharedNodeGroup)
	lib.Linked = true
	body.Modifiers = []*asset.Modifier{{Name: "GEO-Nodes", NodeGroup: lib}}

	ops, err := naming.ResolveNamingCollisions(d, d.Closure(d.Root()), naming.Local)
	require.NoError(t, err)

	var got []string
	for _, op := range ops {
		got = append(got, op.String())
	}
	want := []string{
		`group "chair" -> "chair.LOCAL"`,
		`group "chair-modeling" -> "chair-modeling.LOCAL"`,
		`item "Body.LOCAL" -> "Body.LOCAL.OLD"`,
		`item "Body" -> "Body.LOCAL"`,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ResolveNamingCollisions() mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, "Body", body.Name, "planning never mutates")
	assert.Equal(t, "Body.LOCAL", blocker.Name)

	require.NoError(t, naming.Apply(d, ops))
	assert.Same(t, body, d.Item("Body.LOCAL"))
	assert.Same(t, blocker, d.Item("Body.LOCAL.OLD"))
	assert.Equal(t, "Library", lib.Name, "linked entities keep their name")
}

func TestResolveNamingCollisionsTooLong(t *testing.T) {
	d := asset.TestDocument(t, "chair", "modeling")
	asset.TestItem(t, d, d.Group("chair-modeling"), strings.Repeat("b", 60), "modeling")

	ops, err := naming.ResolveNamingCollisions(d, d.Closure(d.Root()), naming.Local)
	require.Error(t, err)
	assert.Nil(t, ops)
	assert.True(t, errors.Is(err, pkgerrors.ErrNameTooLong))

	err = naming.AddSuffixToHierarchy(d, d.Root(), naming.Local)
	require.Error(t, err)
	assert.Equal(t, "chair", d.Root().Name, "nothing renamed before failing")
}

func TestHierarchyRoundTrip(t *testing.T) {
	d := asset.TestDocument(t, "chair", "modeling", "rigging")
	asset.TestItem(t, d, d.Group("chair-modeling"), "Body", "modeling")
	asset.TestItem(t, d, d.Group("chair-rigging"), "Rig", "rigging")
	before := entityNames(d)

	require.NoError(t, naming.AddSuffixToHierarchy(d, d.Root(), naming.External))
	for _, e := range d.Closure(d.Root()) {
		assert.True(t, naming.HasSuffix(e.Meta().Name, naming.External), e.Meta().Name)
	}

	errs := naming.RemoveSuffixFromHierarchy(context.Background(), d, d.Root())
	assert.Empty(t, errs)
	assert.Equal(t, before, entityNames(d))
}

func TestRemoveSuffixCollectsFailures(t *testing.T) {
	d := asset.TestDocument(t, "chair", "modeling")
	require.NoError(t, naming.AddSuffixToHierarchy(d, d.Root(), naming.Local))
	asset.TestItem(t, d, d.Group("chair-modeling.LOCAL"), "Body.LOCAL", "modeling")
	asset.TestItem(t, d, nil, "Body", "modeling")

	errs := naming.RemoveSuffixFromHierarchy(context.Background(), d, d.Root())
	require.Len(t, errs, 1)
	assert.True(t, pkgerrors.IsAlreadyExists(errs[0]))
	assert.Equal(t, "chair", d.Root().Name, "other entities still renamed")
	assert.NotNil(t, d.Item("Body.LOCAL"))
}

func entityNames(d *asset.Document) []string {
	var out []string
	for _, e := range d.Entities() {
		out = append(out, e.Meta().Name)
	}
	return out
}
