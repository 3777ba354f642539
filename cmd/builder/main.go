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

// Command builder runs Builder's preprocessor over a single input
// file, writing the expanded result to stdout (or -out).
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/builder-lang/builder/builder"
	"github.com/builder-lang/builder/config"
	"github.com/builder-lang/builder/depmap"
	httpreader "github.com/builder-lang/builder/readers/http"
	"github.com/builder-lang/builder/readers/git"
	"github.com/builder-lang/builder/readers/local"
	"github.com/builder-lang/builder/reader"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	inputPath := flag.String("in", "", "path to the input source file")
	outputPath := flag.String("out", "", "path to write output to (default: stdout)")
	flag.Parse()

	if *inputPath == "" {
		log.Fatalf("-in is required")
	}

	cfg := config.Config{}
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
	}

	source, err := os.ReadFile(*inputPath)
	if err != nil {
		log.Fatalf("reading %s: %v", *inputPath, err)
	}

	cacheDir := cfg.CacheDir
	if cacheDir == "" {
		cacheDir = filepath.Join(os.TempDir(), "builder-cache")
	}
	gitCore := git.NewCore(cacheDir)

	registry := reader.NewRegistry(
		httpreader.New(http.DefaultClient),
		git.NewGitHubReader(gitCore),
		git.NewAzureReposReader(gitCore),
		git.NewLocalReader(gitCore),
	)
	if cfg.BitbucketServerBaseURL != "" {
		registry.Register(git.NewBitbucketServerReader(gitCore, cfg.BitbucketServerBaseURL))
	}
	registry.Register(git.NewGenericReader(gitCore))
	registry.Register(local.New(filepath.Dir(*inputPath)))

	depsPath := cfg.DependencyMapPath
	if depsPath == "" {
		depsPath = filepath.Join(cacheDir, "deps.lock")
	}
	deps, err := depmap.Load(depsPath)
	if err != nil {
		log.Fatalf("loading dependency map: %v", err)
	}

	driver := builder.NewDriver(registry, builder.Config{
		RemoteRelativeIncludes:        cfg.RemoteRelativeIncludes,
		GenerateLineControlStatements: cfg.GenerateLineControlStatements,
		ClearCache:                    cfg.ClearCache,
		SaveDependencies:              cfg.SaveDependencies,
	})
	driver.Dependencies = deps

	out, err := driver.Execute(context.Background(), string(source), *inputPath, builder.Context{
		Credentials: cfg.ReaderCredentials(),
	})
	if err != nil {
		log.Fatalf("%v", err)
	}

	if cfg.SaveDependencies {
		if err := depmap.Save(depsPath, driver.Dependencies); err != nil {
			log.Fatalf("saving dependency map: %v", err)
		}
	}

	if *outputPath == "" {
		os.Stdout.WriteString(out)
		return
	}
	if err := os.WriteFile(*outputPath, []byte(out), 0o644); err != nil {
		log.Fatalf("writing %s: %v", *outputPath, err)
	}
}
