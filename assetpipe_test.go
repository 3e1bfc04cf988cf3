package assetpipe_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/assetpipe"
	"github.com/agentstation/assetpipe/internal/publish"
	"github.com/agentstation/assetpipe/internal/snapshot"
	"github.com/agentstation/assetpipe/pkg/asset"
	pkgerrors "github.com/agentstation/assetpipe/pkg/errors"
	"github.com/agentstation/assetpipe/pkg/hooks"
	"github.com/agentstation/assetpipe/pkg/logging"
	"github.com/agentstation/assetpipe/pkg/merge"
	"github.com/agentstation/assetpipe/pkg/tasklayer"
)

// chair returns a chair whose Body, owned by modeling, carries one
// modifier per entry of mods, recorded with the owner at the same index.
func chair(t *testing.T, mods []string, owners ...string) *asset.Document {
	t.Helper()
	d := asset.TestDocument(t, "chair", "modeling", "rigging")
	body := asset.TestItem(t, d, d.Group("chair-modeling"), "Body", "modeling")
	for i, name := range mods {
		body.Modifiers = append(body.Modifiers, &asset.Modifier{Name: name, Type: "NODES"})
		body.AddRecord(asset.SubItemOwnership{Name: name, Kind: asset.KindModifier, Owner: owners[i]})
	}
	return d
}

type fixture struct {
	store     *snapshot.Store
	dir       string
	working   string
	published string
	backups   string
}

func newFixture(t *testing.T, working, published *asset.Document) *fixture {
	t.Helper()
	f := &fixture{
		store:   snapshot.NewStore(),
		dir:     t.TempDir(),
		backups: t.TempDir(),
	}
	f.working = filepath.Join(f.dir, "chair-rigging.yaml")
	require.NoError(t, f.store.Save(working, f.working))
	if published != nil {
		f.published = filepath.Join(publish.Dir(f.dir, publish.Active), publish.FileName("chair", 1))
		require.NoError(t, f.store.Save(published, f.published))
	}
	return f
}

func (f *fixture) client(t *testing.T, opts ...assetpipe.Option) assetpipe.Client {
	t.Helper()
	base := []assetpipe.Option{
		assetpipe.WithTaskLayerConfig(tasklayer.TestConfig(t)),
		assetpipe.WithLocalTaskLayers("rigging"),
		assetpipe.WithStore(f.store),
		assetpipe.WithBackupDir(f.backups),
	}
	c, err := assetpipe.New(append(base, opts...)...)
	require.NoError(t, err)
	return c
}

func (f *fixture) load(t *testing.T, path string) *asset.Document {
	t.Helper()
	doc, err := f.store.Load(path)
	require.NoError(t, err)
	return doc
}

func modifierNames(item *asset.Item) []string {
	var out []string
	for _, m := range item.Modifiers {
		out = append(out, m.Name)
	}
	return out
}

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		opts []assetpipe.Option
	}{
		{"missing task layers", []assetpipe.Option{assetpipe.WithLocalTaskLayers("rigging")}},
		{"missing local layers", []assetpipe.Option{assetpipe.WithTaskLayerConfig(tasklayer.TestConfig(t))}},
		{"unknown local layer", []assetpipe.Option{
			assetpipe.WithTaskLayerConfig(tasklayer.TestConfig(t)),
			assetpipe.WithLocalTaskLayers("lighting"),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := assetpipe.New(tt.opts...)
			assert.Error(t, err)
		})
	}
}

func TestPull(t *testing.T) {
	f := newFixture(t,
		chair(t, []string{"RIG-Armature"}, "rigging"),
		chair(t, []string{"RIG-Armature", "GEO-Subsurf"}, "rigging", "modeling"),
	)
	c := f.client(t)

	var started []merge.Direction
	var completed []*merge.Result
	c.OnMergeStarted(func(dir merge.Direction, file, target string) {
		started = append(started, dir)
		assert.Equal(t, f.working, file)
		assert.Equal(t, f.published, target)
	})
	c.OnMergeCompleted(func(r *merge.Result) { completed = append(completed, r) })
	c.OnConflict(func(*merge.Result) { t.Error("unexpected conflict") })

	result, err := c.Pull(context.Background(), f.working)
	require.NoError(t, err)
	assert.True(t, result.IsSuccess())
	assert.Equal(t, []merge.Direction{merge.Pull}, started)
	require.Len(t, completed, 1)
	assert.Same(t, result, completed[0])

	body := f.load(t, f.working).Item("Body")
	require.NotNil(t, body)
	assert.Equal(t, []string{"RIG-Armature", "GEO-Subsurf"}, modifierNames(body))

	_, err = os.Stat(snapshot.BackupPath(f.backups, "chair"))
	assert.NoError(t, err, "pull backs up the working file")

	t.Run("restore", func(t *testing.T) {
		require.NoError(t, c.Restore(context.Background(), f.working))
		body := f.load(t, f.working).Item("Body")
		assert.Equal(t, []string{"RIG-Armature"}, modifierNames(body))
	})
}

func TestPullConflict(t *testing.T) {
	f := newFixture(t,
		chair(t, []string{"RIG-Armature"}, "rigging"),
		chair(t, []string{"RIG-Armature"}, "animation"),
	)
	c := f.client(t)

	var conflicts []*merge.Result
	c.OnConflict(func(r *merge.Result) { conflicts = append(conflicts, r) })
	c.OnMergeCompleted(func(*merge.Result) { t.Error("aborted merge reported as completed") })

	before, err := os.ReadFile(f.working)
	require.NoError(t, err)

	result, err := c.Pull(context.Background(), f.working)
	require.Error(t, err)
	assert.True(t, errors.Is(err, pkgerrors.ErrConflict))
	require.NotNil(t, result)
	assert.Equal(t, merge.StateAborted, result.State)
	require.Len(t, conflicts, 1)

	after, err := os.ReadFile(f.working)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after), "working file is not saved on conflict")
}

func TestPullBacksUpBeforeDeletingInvalidItems(t *testing.T) {
	working := chair(t, []string{"RIG-Armature"}, "rigging")
	asset.TestItem(t, working, working.Root(), "Scratch", "")
	f := newFixture(t, working, chair(t, []string{"RIG-Armature"}, "rigging"))
	tl := logging.CaptureLoggingForTest(t)

	_, err := f.client(t).Pull(context.Background(), f.working)
	require.NoError(t, err)
	assert.Nil(t, f.load(t, f.working).Item("Scratch"))

	backup, err := f.store.Restore(f.backups, "chair")
	require.NoError(t, err)
	assert.NotNil(t, backup.Item("Scratch"), "the backup holds the working copy as it was")

	out := tl.Output()
	backedUp := strings.Index(out, "Backed up working file")
	deleted := strings.Index(out, "Deleting invalid item")
	require.NotEqual(t, -1, backedUp)
	require.NotEqual(t, -1, deleted)
	assert.Less(t, backedUp, deleted)
	for _, line := range tl.Lines() {
		assert.LessOrEqual(t, strings.Count(line, `"asset":`), 1, line)
	}
}

func TestRestoreRecoversDeletedItem(t *testing.T) {
	working := chair(t, []string{"RIG-Armature"}, "rigging")
	asset.TestItem(t, working, working.Root(), "Scratch", "")
	f := newFixture(t, working, chair(t, []string{"RIG-Armature"}, "rigging"))
	c := f.client(t)

	_, err := c.Pull(context.Background(), f.working)
	require.NoError(t, err)
	require.NoError(t, c.Restore(context.Background(), f.working))
	assert.NotNil(t, f.load(t, f.working).Item("Scratch"))
}

func TestPullWithoutSyncTarget(t *testing.T) {
	f := newFixture(t, chair(t, nil), nil)
	_, err := f.client(t).Pull(context.Background(), f.working)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestPullRunsHooks(t *testing.T) {
	f := newFixture(t,
		chair(t, []string{"RIG-Armature"}, "rigging"),
		chair(t, []string{"RIG-Armature"}, "rigging"),
	)
	d := hooks.NewDispatcher()
	var statuses []string
	require.NoError(t, d.Register("record", hooks.Rules{MergeMode: hooks.Exact("pull")}, func(_ context.Context, e hooks.Event) error {
		statuses = append(statuses, e.MergeStatus)
		return nil
	}))

	_, err := f.client(t, assetpipe.WithHooks(d)).Pull(context.Background(), f.working)
	require.NoError(t, err)
	assert.Equal(t, []string{"pre", "post"}, statuses)
}

func TestPullPreservesActiveState(t *testing.T) {
	working := chair(t, []string{"RIG-Armature"}, "rigging")
	working.Item("Body").Action = "chair_idle"
	f := newFixture(t, working, chair(t, []string{"RIG-Armature"}, "rigging"))

	_, err := f.client(t).Pull(context.Background(), f.working)
	require.NoError(t, err)
	assert.Equal(t, "chair_idle", f.load(t, f.working).Item("Body").Action)
}

func TestPush(t *testing.T) {
	working := chair(t, []string{"RIG-Armature"}, "rigging")
	working.Item("Body").Modifiers[0].Props = map[string]any{"strength": 2}
	published := chair(t, []string{"RIG-Armature", "GEO-Subsurf"}, "rigging", "modeling")
	published.Item("Body").Action = "chair_idle"
	f := newFixture(t, working, published)
	c := f.client(t)

	result, err := c.Push(context.Background(), f.working)
	require.NoError(t, err)
	assert.Equal(t, merge.Push, result.Direction)

	body := f.load(t, f.published).Item("Body")
	require.NotNil(t, body)
	assert.Equal(t, []string{"RIG-Armature", "GEO-Subsurf"}, modifierNames(body))
	assert.EqualValues(t, 2, body.Modifiers[0].Props["strength"])
	assert.Empty(t, body.Action, "push unassigns actions")
}

func TestSync(t *testing.T) {
	f := newFixture(t,
		chair(t, []string{"RIG-Armature"}, "rigging"),
		chair(t, []string{"RIG-Armature", "GEO-Subsurf"}, "rigging", "modeling"),
	)
	c := f.client(t)

	t.Run("pull then push", func(t *testing.T) {
		result, err := c.Sync(context.Background(), f.working)
		require.NoError(t, err)
		assert.Equal(t, f.published, result.Target)
		require.NotNil(t, result.Pull)
		require.NotNil(t, result.Push)
		assert.Contains(t, c.Profiler().Summary(), "PULL:")
		assert.Contains(t, c.Profiler().Summary(), "PUSH:")
	})

	t.Run("without pull", func(t *testing.T) {
		result, err := c.Sync(context.Background(), f.working, assetpipe.SyncWithoutPull())
		require.NoError(t, err)
		assert.Nil(t, result.Pull)
		assert.NotNil(t, result.Push)
	})

	t.Run("staged version becomes the target", func(t *testing.T) {
		path, err := c.Publish(context.Background(), f.working, publish.Staged)
		require.NoError(t, err)
		result, err := c.Sync(context.Background(), f.working)
		require.NoError(t, err)
		assert.Equal(t, path, result.Target)
	})
}

func TestStatus(t *testing.T) {
	f := newFixture(t,
		chair(t, []string{"RIG-Armature"}, "rigging"),
		chair(t, nil),
	)

	st, err := f.client(t).Status(context.Background(), f.working)
	require.NoError(t, err)
	assert.Equal(t, "chair", st.Asset)
	assert.Equal(t, f.published, st.SyncTarget)
	assert.False(t, st.Staged)
	assert.Equal(t, []string{"rigging"}, st.LocalLayers)
	require.NotNil(t, st.Pending)

	owners := make(map[string]assetpipe.EntityStatus)
	for _, e := range st.Entities {
		owners[e.Name] = e
	}
	assert.True(t, owners["chair-rigging"].Local)
	assert.False(t, owners["Body"].Local)
	assert.Equal(t, "modeling", owners["Body"].Owner)

	require.NotEmpty(t, st.Records)
	assert.Equal(t, "RIG-Armature", st.Records[0].Name)
	assert.True(t, st.Records[0].Local)
}

func TestPublish(t *testing.T) {
	f := newFixture(t, chair(t, nil), nil)
	c := f.client(t)

	path, err := c.Publish(context.Background(), f.working, publish.Active)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(f.dir, "publish", "chair-v001.yaml"), path)
	require.NotNil(t, f.load(t, path).Root().Asset)

	path, err = c.Publish(context.Background(), f.working, publish.Review)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(f.dir, "review", "chair-v001.yaml"), path)
}
