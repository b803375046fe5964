// Copyright 2020 CUE Authors
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

package eval

import "github.com/J3RN/elixir-sense/internal/core/adt"

// Stack is the Expander's visitation stack (§3.3): an append-only list
// of the binding expressions currently being expanded, used to guard
// against cycles. Membership is structural (adt.Equal), not pointer
// identity, since two syntactically identical but distinct Go values
// represent the same cycle.
type Stack struct {
	frames []adt.Type
}

// Push returns a new Stack with expr appended. The receiver is left
// untouched: each recursive expand call gets its own view, so siblings
// in a Tuple or Call's argument list never see each other's frames.
func (s Stack) Push(expr adt.Type) Stack {
	frames := make([]adt.Type, len(s.frames)+1)
	copy(frames, s.frames)
	frames[len(s.frames)] = expr
	return Stack{frames: frames}
}

// Contains reports whether expr is structurally equal to some frame
// already on the stack.
func (s Stack) Contains(expr adt.Type) bool {
	for _, f := range s.frames {
		if adt.Equal(f, expr) {
			return true
		}
	}
	return false
}
