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

package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/builder-lang/builder/reader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupportsDeclinesOtherSchemes(t *testing.T) {
	r := New(t.TempDir())
	for _, ref := range []string{
		"https://example.com/a.inc",
		"github:org/repo/a.inc",
		"git-azure-repos:org/proj/repo/a.inc",
		"bitbucket-server:proj/repo/a.inc",
		"git-local:/srv/repo/a.inc",
		"repo.git/a.inc@main",
	} {
		assert.False(t, r.Supports(ref), ref)
	}
	assert.True(t, r.Supports("a.inc"))
}

func TestReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.inc"), []byte("hello"), 0o644))

	r := New(dir)
	res, err := r.Read(context.Background(), "a.inc", reader.Context{})
	require.NoError(t, err)
	assert.Equal(t, "hello", res.Text)
}

func TestParsePathRejectsEscapeFromRoot(t *testing.T) {
	dir := t.TempDir()
	r := New(dir)
	_, err := r.ParsePath("../../etc/passwd")
	assert.Error(t, err)
}

func TestParsePathAllowsNestedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	r := New(dir)
	meta, err := r.ParsePath("sub/a.inc")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sub", "a.inc"), meta.File)
}

func TestMatchGlob(t *testing.T) {
	ok, err := MatchGlob("vendor/**/*.inc", "vendor/lib/a.inc")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = MatchGlob("vendor/**/*.inc", "src/a.inc")
	require.NoError(t, err)
	assert.False(t, ok)
}
