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

package builder

// frame is the driver's per-include state: __FILE__/__PATH__ and the
// bookkeeping needed for relative-include resolution and cycle
// detection (spec.md §3 IncludeFrame).
type frame struct {
	file       string
	path       string
	repoRef    string
	repoPrefix string
	resolvedID string
	remote     bool
}
