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

package runtime

import "github.com/J3RN/elixir-sense/internal/core/adt"

// Canonical built-in module atoms consulted after current_module and
// imports when resolving a LocalCall (§4.1). These are data, not
// behavior: the structural operator catalog of §4.2.1 lives in
// internal/core/eval, since it needs the Call Resolver's recursion, not
// just a module name.
const (
	Kernel       adt.Atom = "Kernel"
	SpecialForms adt.Atom = "Kernel.SpecialForms"
	MapModule    adt.Atom = "Map"
)

// LocalCallCandidates builds the ordered candidate target list of §4.1:
// current_module (if set), then imports, then the built-in modules.
func LocalCallCandidates(currentModule *adt.Atom, imports []adt.Atom) []adt.Atom {
	candidates := make([]adt.Atom, 0, len(imports)+3)
	if currentModule != nil {
		candidates = append(candidates, *currentModule)
	}
	candidates = append(candidates, imports...)
	candidates = append(candidates, Kernel, SpecialForms)
	return candidates
}
