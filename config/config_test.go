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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "builder.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
cache_dir: /tmp/builder-cache
remote_relative_includes: true
generate_line_control_statements: true
save_dependencies: true
bitbucket_server_base_url: https://bitbucket.example.com
credentials:
  example.com:
    token: secret-token
  internal.example.com:
    username: svc
    password: hunter2
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/builder-cache", cfg.CacheDir)
	assert.True(t, cfg.RemoteRelativeIncludes)
	assert.True(t, cfg.GenerateLineControlStatements)
	assert.True(t, cfg.SaveDependencies)
	assert.Equal(t, "https://bitbucket.example.com", cfg.BitbucketServerBaseURL)
	require.Contains(t, cfg.Credentials, "example.com")
	assert.Equal(t, "secret-token", cfg.Credentials["example.com"].Token)
}

func TestReaderCredentialsConverts(t *testing.T) {
	cfg := Config{Credentials: map[string]Credential{
		"example.com": {Username: "u", Password: "p", Token: "t"},
	}}
	got := cfg.ReaderCredentials()
	require.Contains(t, got, "example.com")
	assert.Equal(t, "u", got["example.com"].Username)
	assert.Equal(t, "t", got["example.com"].Token)
}
