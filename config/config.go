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

// Package config loads Builder's ambient run-time configuration from
// a YAML file (SPEC_FULL.md §4, "Configuration").
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/builder-lang/builder/reader"
)

// Credential carries basic-auth or bearer-token material for a single
// host, keyed by hostname in Config.Credentials.
type Credential struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Token    string `yaml:"token"`
}

// Config is Builder's top-level run configuration.
type Config struct {
	// CacheDir holds Git clone mirrors and is where a deps.lock inside
	// it is read from/written to unless DependencyMapPath overrides
	// that.
	CacheDir string `yaml:"cache_dir"`
	// ClearCache drops the in-memory per-reference read cache at the
	// start of every run instead of reusing it.
	ClearCache bool `yaml:"clear_cache"`
	// RemoteRelativeIncludes resolves a schemeless @include written
	// inside a remotely-fetched file against that remote location
	// instead of the local entry point.
	RemoteRelativeIncludes bool `yaml:"remote_relative_includes"`
	// GenerateLineControlStatements enables "#line N file" output
	// markers.
	GenerateLineControlStatements bool `yaml:"generate_line_control_statements"`
	// SaveDependencies records newly resolved commit pins back into
	// the dependency map as includes are read.
	SaveDependencies bool `yaml:"save_dependencies"`
	// DependencyMapPath is the deps.lock file to load pins from before
	// a run and to save them back to afterward, if SaveDependencies is
	// set. Defaults to "deps.lock" inside CacheDir.
	DependencyMapPath string `yaml:"dependency_map_path"`
	// BitbucketServerBaseURL is required only when an @include uses
	// the bitbucket-server: shorthand scheme, which names no host of
	// its own (spec.md §6.3).
	BitbucketServerBaseURL string `yaml:"bitbucket_server_base_url"`
	// Credentials maps a host to the credential material readers
	// should use for it. Only the HTTP reader consults it, by request
	// host; the Git readers do not use it.
	Credentials map[string]Credential `yaml:"credentials"`
}

// Load parses a YAML config file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// ReaderCredentials converts Config.Credentials to the form the
// reader package's Context expects.
func (c Config) ReaderCredentials() map[string]reader.Credential {
	out := make(map[string]reader.Credential, len(c.Credentials))
	for host, cred := range c.Credentials {
		out[host] = reader.Credential{Username: cred.Username, Password: cred.Password, Token: cred.Token}
	}
	return out
}
