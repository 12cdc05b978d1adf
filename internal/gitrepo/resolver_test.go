package gitrepo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vireotag/vireo/internal/logging"
)

// fakeRunner maps joined git arguments to canned responses.
type fakeRunner struct {
	responses map[string]string
	errors    map[string]error
	calls     []string
}

func (f *fakeRunner) Run(_ context.Context, _ string, args ...string) (string, error) {
	key := strings.Join(args, " ")
	f.calls = append(f.calls, key)
	if err, ok := f.errors[key]; ok {
		return "", err
	}
	if out, ok := f.responses[key]; ok {
		return out, nil
	}
	if args[0] == "rev-parse" {
		return "", errors.New("unknown revision")
	}
	return "", nil
}

func testResolver(run Runner) *Resolver {
	return NewResolver(run, logging.Nop())
}

const headCommit = "4f2d9cbe8c2c6a1cf1f3f7f0b7a93d3f8f0e2b11"

func cloneResponses(ref string, kind RefKind) map[string]string {
	m := map[string]string{
		"show -s --format=%ct%n%s " + headCommit: "1700000000\nAdd cover art source",
	}
	switch kind {
	case RefBranch:
		m["rev-parse --verify --quiet refs/remotes/origin/"+ref] = headCommit
	case RefTag:
		m["rev-parse --verify --quiet refs/tags/"+ref+"^{commit}"] = headCommit
	case RefCommit:
		m["rev-parse --verify --quiet "+ref+"^{commit}"] = headCommit
	}
	return m
}

func TestIsLocal(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"https://example.com/plugins/demo", false},
		{"git://example.com/demo.git", false},
		{"ssh://git@example.com/demo.git", false},
		{"git@example.com:user/demo.git", false},
		{"file:///srv/plugins/demo", true},
		{"/srv/plugins/demo", true},
		{"~/plugins/demo", true},
		{"relative/path", true},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.want, IsLocal(tt.src))
		})
	}
}

func TestLocalPath(t *testing.T) {
	assert.Empty(t, LocalPath("https://example.com/demo"))

	p := LocalPath("file:///srv/plugins/demo")
	assert.Equal(t, "/srv/plugins/demo", p)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "plugins"), LocalPath("~/plugins"))

	abs := LocalPath("relative/path")
	assert.True(t, filepath.IsAbs(abs))
}

func TestLocalRepositoryPath(t *testing.T) {
	dir := t.TempDir()
	assert.Empty(t, LocalRepositoryPath(dir), "no .git yet")

	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o700))
	assert.Equal(t, dir, LocalRepositoryPath(dir))
}

func TestNewSource(t *testing.T) {
	src := NewSource("https://example.com/plugins/demo", "")
	assert.Equal(t, "main", src.RequestedRef)
	assert.False(t, src.Local)
	assert.Empty(t, src.Commit, "commit set only after sync")

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o700))
	local := NewSource(dir, "dev")
	assert.True(t, local.Local)
	assert.Equal(t, dir, local.URL)
	assert.Equal(t, "dev", local.RequestedRef)
}

func TestSyncClonesWhenMissing(t *testing.T) {
	target := filepath.Join(t.TempDir(), "demo")
	run := &fakeRunner{responses: cloneResponses("main", RefBranch)}

	src := NewSource("https://example.com/plugins/demo", "main")
	res, err := testResolver(run).Sync(context.Background(), src, target, SyncOptions{})
	require.NoError(t, err)

	assert.Equal(t, headCommit, res.Commit)
	assert.Equal(t, RefBranch, res.RefKind)
	assert.Equal(t, int64(1700000000), res.CommitTime.Unix())
	assert.Equal(t, "Add cover art source", res.Subject)
	assert.Contains(t, run.calls[0], "clone https://example.com/plugins/demo")
}

func TestSyncFetchesExistingCopy(t *testing.T) {
	target := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(target, ".git"), 0o700))

	run := &fakeRunner{responses: cloneResponses("main", RefBranch)}
	src := NewSource("https://example.com/plugins/demo", "main")
	_, err := testResolver(run).Sync(context.Background(), src, target, SyncOptions{})
	require.NoError(t, err)

	assert.Equal(t, "fetch --all --tags --prune", run.calls[0])
	assert.Contains(t, run.calls, "reset --hard "+headCommit)
}

func TestSyncResolutionPrecedence(t *testing.T) {
	// A name that is both a tag and a commit resolves as a tag; a branch wins
	// over everything.
	target := filepath.Join(t.TempDir(), "demo")
	run := &fakeRunner{responses: cloneResponses("v1.0.0", RefTag)}
	run.responses["rev-parse --verify --quiet v1.0.0^{commit}"] = headCommit

	src := NewSource("https://example.com/plugins/demo", "v1.0.0")
	res, err := testResolver(run).Sync(context.Background(), src, target, SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, RefTag, res.RefKind)
}

func TestSyncDeterministic(t *testing.T) {
	src := NewSource("https://example.com/plugins/demo", "v1.0.0")

	var commits []string
	var kinds []RefKind
	for i := 0; i < 3; i++ {
		target := filepath.Join(t.TempDir(), "demo")
		run := &fakeRunner{responses: cloneResponses("v1.0.0", RefTag)}
		res, err := testResolver(run).Sync(context.Background(), src, target, SyncOptions{})
		require.NoError(t, err)
		commits = append(commits, res.Commit)
		kinds = append(kinds, res.RefKind)
	}
	assert.Equal(t, []string{headCommit, headCommit, headCommit}, commits)
	assert.Equal(t, []RefKind{RefTag, RefTag, RefTag}, kinds)
}

func TestSyncDetachedCommit(t *testing.T) {
	target := filepath.Join(t.TempDir(), "demo")
	run := &fakeRunner{responses: cloneResponses(headCommit, RefCommit)}

	src := NewSource("https://example.com/plugins/demo", headCommit)
	res, err := testResolver(run).Sync(context.Background(), src, target, SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, RefCommit, res.RefKind, "raw commit is a warning, not an error")
}

func TestSyncDirtyWorktree(t *testing.T) {
	target := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(target, ".git"), 0o700))

	run := &fakeRunner{responses: cloneResponses("main", RefBranch)}
	run.responses["status --porcelain"] = " M plugin.go"

	src := NewSource("https://example.com/plugins/demo", "main")
	_, err := testResolver(run).Sync(context.Background(), src, target, SyncOptions{})

	var se *SyncError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ErrDirty, se.Kind)

	// AllowDirty proceeds with the reset.
	_, err = testResolver(run).Sync(context.Background(), src, target, SyncOptions{AllowDirty: true})
	require.NoError(t, err)
}

func TestSyncUnresolvableRefListsAvailable(t *testing.T) {
	target := filepath.Join(t.TempDir(), "demo")
	run := &fakeRunner{responses: map[string]string{
		"branch -r --format %(refname:short)": "origin/HEAD\norigin/main\norigin/dev",
		"tag --list":                          "v1.0.0\nv1.1.0",
	}}

	src := NewSource("https://example.com/plugins/demo", "nope")
	_, err := testResolver(run).Sync(context.Background(), src, target, SyncOptions{})

	var se *SyncError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ErrUnresolvable, se.Kind)
	assert.Equal(t, []string{"main", "dev", "v1.0.0", "v1.1.0"}, se.Available)
	assert.Contains(t, se.Error(), "nope")
	assert.Contains(t, se.Error(), "v1.0.0")
}

func TestSyncNetworkError(t *testing.T) {
	target := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(target, ".git"), 0o700))

	run := &fakeRunner{errors: map[string]error{
		"fetch --all --tags --prune": errors.New("could not resolve host"),
	}}

	src := NewSource("https://example.com/plugins/demo", "main")
	_, err := testResolver(run).Sync(context.Background(), src, target, SyncOptions{})

	var se *SyncError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ErrNetwork, se.Kind)
}

func TestSyncCloneFailure(t *testing.T) {
	target := filepath.Join(t.TempDir(), "demo")
	run := &fakeRunner{errors: map[string]error{
		"clone https://example.com/plugins/demo " + target: errors.New("connection refused"),
	}}

	src := NewSource("https://example.com/plugins/demo", "main")
	_, err := testResolver(run).Sync(context.Background(), src, target, SyncOptions{})

	var se *SyncError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ErrNetwork, se.Kind)
}
