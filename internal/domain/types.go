/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the design tree persisted by the wireframe editor:
// screens holding positioned components. Geometry is always canvas-space.

import "wireframer/internal/geometry"

// Screen is a named canvas holding an ordered set of components.
// Component order is creation order; numbering relies on it.
type Screen struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	IACode      string      `json:"iaCode"`
	Description string      `json:"description"`
	UserJourney []string    `json:"userJourney,omitempty"`
	Components  []Component `json:"components"`
}

// Component is a placed design element. Children mirrors the reverse of
// ParentID links and ZIndex is derived from depth; neither is user-editable.
type Component struct {
	ID                  string   `json:"id"`
	Type                string   `json:"type"`
	Category            string   `json:"category"`
	IACode              string   `json:"iaCode"`
	Label               string   `json:"label"`
	Description         string   `json:"description"`
	X                   float64  `json:"x"`
	Y                   float64  `json:"y"`
	Width               float64  `json:"width"`
	Height              float64  `json:"height"`
	RelatedRequirements []string `json:"relatedRequirements,omitempty"`
	ParentID            string   `json:"parentId,omitempty"`
	Children            []string `json:"children,omitempty"`
	ZIndex              int      `json:"zIndex"`
}

// containerTypes lists archetypes that may hold children.
var containerTypes = map[string]bool{
	"header":    true,
	"footer":    true,
	"sidebar":   true,
	"body":      true,
	"container": true,
	"section":   true,
	"grid":      true,
	"wrapper":   true,
}

// IsContainerType reports whether components of type t may be parents.
func IsContainerType(t string) bool { return containerTypes[t] }

// ContainerTypes returns the container allow-list in a stable order.
func ContainerTypes() []string {
	return []string{"header", "footer", "sidebar", "body", "container", "section", "grid", "wrapper"}
}

func (c Component) IsContainer() bool { return IsContainerType(c.Type) }

func (c Component) Rect() geometry.Rect {
	return geometry.Rect{X: c.X, Y: c.Y, W: c.Width, H: c.Height}
}

// WithRect returns c with its geometry replaced by r.
func (c Component) WithRect(r geometry.Rect) Component {
	c.X, c.Y, c.Width, c.Height = r.X, r.Y, r.W, r.H
	return c
}

// Clone returns a deep copy of c.
func (c Component) Clone() Component {
	c.RelatedRequirements = cloneStrings(c.RelatedRequirements)
	c.Children = cloneStrings(c.Children)
	return c
}

// Clone returns a deep copy of s.
func (s Screen) Clone() Screen {
	s.UserJourney = cloneStrings(s.UserJourney)
	if s.Components != nil {
		comps := make([]Component, len(s.Components))
		for i, c := range s.Components {
			comps[i] = c.Clone()
		}
		s.Components = comps
	}
	return s
}

// IndexOf returns the position of the component with id, or -1.
func (s Screen) IndexOf(id string) int {
	for i := range s.Components {
		if s.Components[i].ID == id {
			return i
		}
	}
	return -1
}

// Component returns the component with id.
func (s Screen) Component(id string) (Component, bool) {
	if i := s.IndexOf(id); i >= 0 {
		return s.Components[i], true
	}
	return Component{}, false
}

// CloneScreens deep-copies a screen slice.
func CloneScreens(in []Screen) []Screen {
	if in == nil {
		return nil
	}
	out := make([]Screen, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}

func cloneStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	return append([]string(nil), in...)
}
