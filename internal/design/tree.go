/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package design implements the wireframe design tree: pure functions that
// derive hierarchy, stacking order and numbering for a screen, and a Model
// that owns the screen set and publishes snapshots of it.
package design

import (
	"fmt"
	"strings"

	"wireframer/internal/domain"
	"wireframer/internal/geometry"
	"wireframer/internal/registry"
)

// Policy holds the tunable constants of the design tree.
type Policy struct {
	ZBaseline       int
	ZStep           int
	DefaultPosition geometry.Pt
	PasteOffset     geometry.Pt
	RoundPlaces     int
}

// DefaultPolicy returns the shipped constants.
func DefaultPolicy() Policy {
	return Policy{
		ZBaseline:       10,
		ZStep:           10,
		DefaultPosition: geometry.Pt{X: 100, Y: 100},
		PasteOffset:     geometry.Pt{X: 20, Y: 20},
		RoundPlaces:     3,
	}
}

func (p Policy) normalized() Policy {
	d := DefaultPolicy()
	if p.ZStep <= 0 {
		p.ZStep = d.ZStep
	}
	if p.RoundPlaces < 0 {
		p.RoundPlaces = d.RoundPlaces
	}
	return p
}

// ScreenCode formats the iaCode of the n-th screen.
func ScreenCode(n int) string { return fmt.Sprintf("IA-%03d", n) }

// NewScreen builds an empty screen that follows count existing screens.
func NewScreen(id string, count int) domain.Screen {
	n := count + 1
	return domain.Screen{
		ID:         id,
		Name:       fmt.Sprintf("Screen %d", n),
		IACode:     ScreenCode(n),
		Components: []domain.Component{},
	}
}

// DefaultScreens is the built-in screen set used when nothing can be loaded.
func DefaultScreens(newID func() string) []domain.Screen {
	if newID == nil {
		newID = NewID
	}
	return []domain.Screen{
		{
			ID: newID(), Name: "Home", IACode: ScreenCode(1),
			Description: "Landing screen",
			UserJourney: []string{"User opens the application", "User sees the overview"},
			Components:  []domain.Component{},
		},
		{
			ID: newID(), Name: "Details", IACode: ScreenCode(2),
			Description: "Detail view of a selected item",
			UserJourney: []string{"User selects an item", "User reviews its details"},
			Components:  []domain.Component{},
		},
	}
}

// codePrefix resolves the iaCode prefix for typ.
func codePrefix(cat *registry.Catalog, typ string) string {
	if cat != nil {
		if a, ok := cat.Lookup(typ); ok && a.CodePrefix != "" {
			return a.CodePrefix
		}
	}
	p := registry.TruncatePrefix(strings.ToUpper(strings.ReplaceAll(typ, "-", "")))
	if p == "" {
		p = "CMP"
	}
	return p
}

func archetypeDescription(cat *registry.Catalog, typ string) string {
	if cat != nil {
		if a, ok := cat.Lookup(typ); ok && a.Description != "" {
			return a.Description
		}
	}
	return typ
}

// applyOrdinal rewrites the generated fields of c for ordinal n.
func applyOrdinal(c domain.Component, cat *registry.Catalog, n int) domain.Component {
	c.Label = fmt.Sprintf("%s %d", c.Type, n)
	c.IACode = fmt.Sprintf("%s-%03d", codePrefix(cat, c.Type), n)
	c.Description = fmt.Sprintf("%s #%d", archetypeDescription(cat, c.Type), n)
	return c
}

func countType(s domain.Screen, typ string) int {
	n := 0
	for _, c := range s.Components {
		if c.Type == typ {
			n++
		}
	}
	return n
}

// NewComponent instantiates archetype a as the next same-type component of s
// at pos. It does not add the component to s.
func NewComponent(s domain.Screen, cat *registry.Catalog, a registry.Archetype, id string, pos geometry.Pt, p Policy) domain.Component {
	p = p.normalized()
	c := domain.Component{
		ID:       id,
		Type:     a.Type,
		Category: string(a.Category),
		X:        geometry.FloatRound(pos.X, p.RoundPlaces),
		Y:        geometry.FloatRound(pos.Y, p.RoundPlaces),
		Width:    a.DefaultWidth,
		Height:   a.DefaultHeight,
		ZIndex:   p.ZBaseline,
	}
	return applyOrdinal(c, cat, countType(s, a.Type)+1)
}

// Renumber assigns dense 1-based ordinals to the components of typ in
// creation order and rewrites their label, iaCode and description.
func Renumber(s domain.Screen, typ string, cat *registry.Catalog) domain.Screen {
	s = s.Clone()
	n := 0
	for i := range s.Components {
		if s.Components[i].Type != typ {
			continue
		}
		n++
		s.Components[i] = applyOrdinal(s.Components[i], cat, n)
	}
	return s
}

// RenumberAll renumbers every type present in s.
func RenumberAll(s domain.Screen, cat *registry.Catalog) domain.Screen {
	seen := map[string]bool{}
	for _, c := range s.Components {
		if !seen[c.Type] {
			seen[c.Type] = true
			s = Renumber(s, c.Type, cat)
		}
	}
	return s
}

// RecomputeZIndex assigns the baseline to roots and parent+step to children.
// A parent chain that revisits a component or leaves the screen ends there,
// so the pass terminates on any input.
func RecomputeZIndex(s domain.Screen, p Policy) domain.Screen {
	p = p.normalized()
	s = s.Clone()
	parent := make(map[string]string, len(s.Components))
	for _, c := range s.Components {
		parent[c.ID] = c.ParentID
	}
	for i := range s.Components {
		depth := 0
		seen := map[string]bool{s.Components[i].ID: true}
		for cur := parent[s.Components[i].ID]; cur != ""; cur = parent[cur] {
			if _, ok := parent[cur]; !ok || seen[cur] {
				break
			}
			seen[cur] = true
			depth++
		}
		s.Components[i].ZIndex = p.ZBaseline + depth*p.ZStep
	}
	return s
}

// IsDescendant reports whether id sits below ancestorID in s.
func IsDescendant(s domain.Screen, ancestorID, id string) bool {
	parent := make(map[string]string, len(s.Components))
	for _, c := range s.Components {
		parent[c.ID] = c.ParentID
	}
	seen := map[string]bool{}
	for cur := parent[id]; cur != ""; cur = parent[cur] {
		if cur == ancestorID {
			return true
		}
		if seen[cur] {
			return false
		}
		seen[cur] = true
	}
	return false
}

// Descendants returns the ids below id in depth-first child order.
func Descendants(s domain.Screen, id string) []string {
	var out []string
	var walk func(string)
	seen := map[string]bool{id: true}
	walk = func(cur string) {
		c, ok := s.Component(cur)
		if !ok {
			return
		}
		for _, ch := range c.Children {
			if seen[ch] {
				continue
			}
			seen[ch] = true
			out = append(out, ch)
			walk(ch)
		}
	}
	walk(id)
	return out
}

// ValidReparentTargets lists the components that id may be moved under.
func ValidReparentTargets(s domain.Screen, id string) []domain.Component {
	out := []domain.Component{}
	for _, c := range s.Components {
		if c.ID == id || !c.IsContainer() || IsDescendant(s, id, c.ID) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ValidateReparent checks that parentID is an acceptable parent for childID.
// An empty parentID means root level and is always allowed for a known child.
func ValidateReparent(s domain.Screen, childID, parentID string) error {
	const op = "reparent"
	if _, ok := s.Component(childID); !ok {
		return invalid(op, "componentId", "unknown component %q", childID)
	}
	if parentID == "" {
		return nil
	}
	if parentID == childID {
		return invalid(op, "parentId", "a component cannot be its own parent")
	}
	parent, ok := s.Component(parentID)
	if !ok {
		return invalid(op, "parentId", "unknown parent %q", parentID)
	}
	if !parent.IsContainer() {
		return invalid(op, "parentId", "%q is not a container type", parent.Type)
	}
	if IsDescendant(s, childID, parentID) {
		return invalid(op, "parentId", "%q is a descendant of %q", parentID, childID)
	}
	return nil
}

func removeString(in []string, v string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != v {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Reparent moves childID under parentID (or to root when empty), keeps both
// sides of the link consistent and recomputes stacking order.
func Reparent(s domain.Screen, childID, parentID string, p Policy) (domain.Screen, error) {
	if err := ValidateReparent(s, childID, parentID); err != nil {
		return s, err
	}
	s = s.Clone()
	ci := s.IndexOf(childID)
	if old := s.Components[ci].ParentID; old != "" {
		if oi := s.IndexOf(old); oi >= 0 {
			s.Components[oi].Children = removeString(s.Components[oi].Children, childID)
		}
	}
	s.Components[ci].ParentID = parentID
	if parentID != "" {
		pi := s.IndexOf(parentID)
		s.Components[pi].Children = append(removeString(s.Components[pi].Children, childID), childID)
	}
	return RecomputeZIndex(s, p), nil
}

// RemoveComponent deletes id from s. Its children are promoted to root level,
// same-type siblings are renumbered and stacking order is recomputed.
func RemoveComponent(s domain.Screen, id string, cat *registry.Catalog, p Policy) domain.Screen {
	i := s.IndexOf(id)
	if i < 0 {
		return s
	}
	s = s.Clone()
	gone := s.Components[i]
	s.Components = append(s.Components[:i], s.Components[i+1:]...)
	for j := range s.Components {
		c := &s.Components[j]
		if c.ParentID == id {
			c.ParentID = ""
		}
		c.Children = removeString(c.Children, id)
	}
	s = Renumber(s, gone.Type, cat)
	return RecomputeZIndex(s, p)
}

// Normalize repairs a screen read from storage: parent links to missing
// components or into cycles are cleared, children lists are made to agree
// with parent links and stacking order is recomputed.
func Normalize(s domain.Screen, p Policy) domain.Screen {
	s = s.Clone()
	if s.Components == nil {
		s.Components = []domain.Component{}
	}
	ids := make(map[string]bool, len(s.Components))
	for _, c := range s.Components {
		ids[c.ID] = true
	}
	for i := range s.Components {
		c := &s.Components[i]
		if c.ParentID == c.ID || !ids[c.ParentID] {
			c.ParentID = ""
		}
	}
	// Break cycles by detaching the first member reached on each loop.
	for i := range s.Components {
		if s.Components[i].ParentID != "" && IsDescendant(s, s.Components[i].ID, s.Components[i].ParentID) {
			s.Components[i].ParentID = ""
		}
	}
	parentOf := make(map[string]string, len(s.Components))
	for _, c := range s.Components {
		parentOf[c.ID] = c.ParentID
	}
	// Stored order wins; stale entries are dropped and unlisted children
	// follow in creation order.
	children := map[string][]string{}
	listed := map[string]bool{}
	for _, c := range s.Components {
		for _, ch := range c.Children {
			if parentOf[ch] == c.ID && !listed[ch] {
				children[c.ID] = append(children[c.ID], ch)
				listed[ch] = true
			}
		}
	}
	for _, c := range s.Components {
		if c.ParentID != "" && !listed[c.ID] {
			children[c.ParentID] = append(children[c.ParentID], c.ID)
		}
	}
	for i := range s.Components {
		s.Components[i].Children = children[s.Components[i].ID]
	}
	return RecomputeZIndex(s, p)
}
