/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package canvas

import "wireframer/internal/domain"

// Clipboard is a single-slot holder for a copied component. The entry is a
// full value copy detached from the live original.
type Clipboard struct {
	entry domain.Component
	full  bool
	// pastes counts pastes of the current entry.
	pastes int
}

// Copy replaces the current entry with a copy of c and restarts the paste
// sequence.
func (cb *Clipboard) Copy(c domain.Component) {
	cb.entry = c.Clone()
	cb.full = true
	cb.pastes = 0
}

// next returns the 1-based ordinal of the paste about to happen.
func (cb *Clipboard) next() int {
	cb.pastes++
	return cb.pastes
}

// Pastes reports how many times the current entry has been pasted.
func (cb *Clipboard) Pastes() int { return cb.pastes }

// Entry returns a copy of the held component.
func (cb *Clipboard) Entry() (domain.Component, bool) {
	if !cb.full {
		return domain.Component{}, false
	}
	return cb.entry.Clone(), true
}

func (cb *Clipboard) Empty() bool { return !cb.full }

func (cb *Clipboard) Clear() {
	cb.entry = domain.Component{}
	cb.full = false
	cb.pastes = 0
}
