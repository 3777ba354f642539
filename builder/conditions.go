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

// condFrame tracks one open @if...@endif block. taken reports whether
// the currently open branch (if/elseif/else) is the one whose body
// should run, already folded together with every ancestor block's own
// taken state at the moment this frame was pushed — so a caller only
// ever needs to inspect the top of the stack, never walk it.
type condFrame struct {
	taken   bool
	matched bool // some branch in this block has already been taken
	sawElse bool
}

// condLive reports whether code textually inside the innermost open block
// should currently execute.
func condLive(stack []condFrame) bool {
	if len(stack) == 0 {
		return true
	}
	return stack[len(stack)-1].taken
}
