/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package registry

import "strings"

// Filter returns archetypes whose label, description or type contains query,
// case-insensitively. A blank query returns the whole catalog; no match
// yields an empty, non-nil slice.
func (c *Catalog) Filter(query string) []Archetype {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return c.All()
	}
	out := []Archetype{}
	for _, a := range c.entries {
		if strings.Contains(strings.ToLower(a.Label), q) ||
			strings.Contains(strings.ToLower(a.Description), q) ||
			strings.Contains(strings.ToLower(a.Type), q) {
			out = append(out, a)
		}
	}
	return out
}

// FilterCategory is Filter restricted to one category.
func (c *Catalog) FilterCategory(cat Category, query string) []Archetype {
	out := []Archetype{}
	for _, a := range c.Filter(query) {
		if a.Category == cat {
			out = append(out, a)
		}
	}
	return out
}
