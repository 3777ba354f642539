// Copyright 2025 EngFlow Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestRepo creates a working-tree repository at dir with two commits
// on main, tagged v1.0.0 and v1.1.0, so ResolveRef/Read have real Git plumbing to
// exercise. Tests are skipped when no "git" binary is on PATH.
func newTestRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}

	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com")
		out, err := cmd.CombinedOutput()
		require.NoErrorf(t, err, "git %v: %s", args, out)
	}

	run("init", "-b", "main")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.inc"), []byte("hello from main"), 0o644))
	run("add", "a.inc")
	run("commit", "-m", "initial")
	run("tag", "v1.0.0")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.inc"), []byte("hello from v1.1.0"), 0o644))
	run("commit", "-am", "second")
	run("tag", "v1.1.0")

	return dir
}

func TestResolveRefLatestPicksHighestSemverTag(t *testing.T) {
	repoDir := newTestRepo(t)
	core := NewCore(t.TempDir())

	commit, err := core.ResolveRef(context.Background(), repoDir, "latest")
	require.NoError(t, err)
	require.NotEmpty(t, commit)

	text, commitID, err := core.Read(context.Background(), repoDir, "latest", "a.inc")
	require.NoError(t, err)
	require.Equal(t, commit, commitID)
	require.Equal(t, "hello from v1.1.0", text)
}

func TestReadAtSpecificTag(t *testing.T) {
	repoDir := newTestRepo(t)
	core := NewCore(t.TempDir())

	text, _, err := core.Read(context.Background(), repoDir, "v1.0.0", "a.inc")
	require.NoError(t, err)
	require.Equal(t, "hello from main", text)
}

func TestGenericReaderSplitAndPin(t *testing.T) {
	r := NewGenericReader(NewCore(t.TempDir()))
	meta, err := r.ParsePath("example.com/widgets.git/src/a.inc@v1.0.0")
	require.NoError(t, err)
	require.Equal(t, "v1.0.0", meta.RepoRef)

	pinned := r.WithPin("example.com/widgets.git/src/a.inc@v1.0.0", "abc123")
	require.Equal(t, "example.com/widgets.git/src/a.inc@abc123", pinned)
}
