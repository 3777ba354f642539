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

// Package http implements Builder's HTTP(S) reader (spec.md §6.3).
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/builder-lang/builder/builderrors"
	"github.com/builder-lang/builder/reader"
)

// DefaultTimeout is the canonical per-read deadline for remote readers
// (spec.md §5, "Resource policy").
const DefaultTimeout = 30 * time.Second

// Reader fetches plain http(s):// references.
type Reader struct {
	Client  *http.Client
	Timeout time.Duration
}

// New returns an HTTP reader using client, or http.DefaultClient if
// client is nil.
func New(client *http.Client) *Reader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Reader{Client: client, Timeout: DefaultTimeout}
}

func (r *Reader) Supports(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

func (r *Reader) ParsePath(ref string) (reader.PathMeta, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return reader.PathMeta{}, fmt.Errorf("invalid URL %q: %w", ref, err)
	}
	dirRef := u.Scheme + "://" + u.Host + path.Dir(u.Path)
	return reader.PathMeta{File: ref, Path: dirRef}, nil
}

func (r *Reader) Read(ctx context.Context, ref string, rctx reader.Context) (reader.ReadResult, error) {
	timeout := r.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return reader.ReadResult{}, err
	}
	if cred, ok := rctx.Credentials[req.URL.Host]; ok {
		switch {
		case cred.Token != "":
			req.Header.Set("Authorization", "Bearer "+cred.Token)
		case cred.Username != "":
			req.SetBasicAuth(cred.Username, cred.Password)
		}
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return reader.ReadResult{}, builderrors.Timeout
		}
		return reader.ReadResult{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return reader.ReadResult{}, fmt.Errorf("unexpected status %s fetching %s", resp.Status, ref)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return reader.ReadResult{}, err
	}
	return reader.ReadResult{Text: string(body)}, nil
}
