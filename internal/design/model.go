/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package design

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"wireframer/internal/collab"
	"wireframer/internal/domain"
	"wireframer/internal/geometry"
	applog "wireframer/internal/log"
	"wireframer/internal/registry"
)

// Snapshot is an immutable view of the model handed to subscribers.
type Snapshot struct {
	Screens             []domain.Screen
	SelectedScreenID    string
	SelectedComponentID string
	Revision            uint64
}

// SelectedScreen returns the selected screen, if any.
func (s Snapshot) SelectedScreen() (domain.Screen, bool) {
	for _, sc := range s.Screens {
		if sc.ID == s.SelectedScreenID {
			return sc, true
		}
	}
	return domain.Screen{}, false
}

// SelectedComponent returns the selected component of the selected screen.
func (s Snapshot) SelectedComponent() (domain.Component, bool) {
	sc, ok := s.SelectedScreen()
	if !ok || s.SelectedComponentID == "" {
		return domain.Component{}, false
	}
	return sc.Component(s.SelectedComponentID)
}

// Options configures a Model. Zero values fall back to defaults.
type Options struct {
	Catalog      *registry.Catalog
	Confirmer    collab.Confirmer
	Requirements collab.RequirementCatalog
	Policy       *Policy
	NewID        func() string
}

// Model owns the screen set and the current selection. Every successful
// mutation publishes a fresh Snapshot to subscribers.
type Model struct {
	mu       sync.Mutex
	screens  []domain.Screen
	selected string
	active   string
	revision uint64

	catalog *registry.Catalog
	confirm collab.Confirmer
	reqs    collab.RequirementCatalog
	policy  Policy
	newID   func() string

	subs    map[int]func(Snapshot)
	nextSub int
}

// NewModel builds a model from screens. Screens are normalized; when
// selectedID does not name one of them the first screen is selected.
func NewModel(screens []domain.Screen, selectedID string, opts Options) *Model {
	m := &Model{
		catalog: opts.Catalog,
		confirm: opts.Confirmer,
		reqs:    opts.Requirements,
		policy:  DefaultPolicy(),
		newID:   opts.NewID,
		subs:    map[int]func(Snapshot){},
	}
	if m.catalog == nil {
		m.catalog = registry.Builtin()
	}
	if m.confirm == nil {
		m.confirm = collab.AlwaysConfirm
	}
	if opts.Policy != nil {
		m.policy = opts.Policy.normalized()
	}
	if m.newID == nil {
		m.newID = NewID
	}
	m.reset(screens, selectedID)
	return m
}

func (m *Model) log(op string) *slog.Logger {
	return applog.WithOperation(applog.WithComponent("design"), op)
}

// Policy returns the constants the model was built with.
func (m *Model) Policy() Policy { return m.policy }

// Catalog returns the archetype catalog used for new components.
func (m *Model) Catalog() *registry.Catalog { return m.catalog }

func (m *Model) reset(screens []domain.Screen, selectedID string) {
	m.screens = make([]domain.Screen, len(screens))
	for i, s := range screens {
		m.screens[i] = Normalize(s, m.policy)
	}
	m.selected = ""
	m.active = ""
	for _, s := range m.screens {
		if s.ID == selectedID {
			m.selected = selectedID
		}
	}
	if m.selected == "" && len(m.screens) > 0 {
		m.selected = m.screens[0].ID
	}
}

// Replace swaps the whole screen set, as after a load.
func (m *Model) Replace(screens []domain.Screen, selectedID string) {
	m.mu.Lock()
	m.reset(screens, selectedID)
	m.mu.Unlock()
	m.publish()
}

func (m *Model) snapshotLocked() Snapshot {
	return Snapshot{
		Screens:             domain.CloneScreens(m.screens),
		SelectedScreenID:    m.selected,
		SelectedComponentID: m.active,
		Revision:            m.revision,
	}
}

// Snapshot returns a deep copy of the current state.
func (m *Model) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Subscribe registers fn for every published snapshot. The returned func
// removes the subscription.
func (m *Model) Subscribe(fn func(Snapshot)) (cancel func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

func (m *Model) publish() {
	m.mu.Lock()
	m.revision++
	snap := m.snapshotLocked()
	fns := make([]func(Snapshot), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

func (m *Model) screenIndexLocked() (int, error) {
	for i, s := range m.screens {
		if s.ID == m.selected {
			return i, nil
		}
	}
	return -1, ErrNoScreen
}

// mutate applies fn to the selected screen under the lock and publishes the
// result when fn succeeds and reports a change.
func (m *Model) mutate(fn func(s domain.Screen) (domain.Screen, bool, error)) error {
	m.mu.Lock()
	i, err := m.screenIndexLocked()
	if err != nil {
		m.mu.Unlock()
		return err
	}
	next, changed, err := fn(m.screens[i])
	if err != nil || !changed {
		m.mu.Unlock()
		return err
	}
	m.screens[i] = next
	m.mu.Unlock()
	m.publish()
	return nil
}

// AddScreen appends an empty screen and selects it.
func (m *Model) AddScreen() domain.Screen {
	m.mu.Lock()
	s := NewScreen(m.newID(), len(m.screens))
	m.screens = append(m.screens, s)
	m.selected = s.ID
	m.active = ""
	m.mu.Unlock()
	m.log("add_screen").Debug("screen added", slog.String("id", s.ID), slog.String("iaCode", s.IACode))
	m.publish()
	return s.Clone()
}

// ScreenPatch lists the editable scalar fields of a screen. Nil fields are
// left unchanged.
type ScreenPatch struct {
	Name        *string
	IACode      *string
	Description *string
	UserJourney *[]string
}

// UpdateScreen merges patch into the selected screen.
func (m *Model) UpdateScreen(patch ScreenPatch) error {
	return m.mutate(func(s domain.Screen) (domain.Screen, bool, error) {
		if patch.Name != nil && *patch.Name == "" {
			return s, false, invalid("update_screen", "name", "must not be empty")
		}
		s = s.Clone()
		if patch.Name != nil {
			s.Name = *patch.Name
		}
		if patch.IACode != nil {
			s.IACode = *patch.IACode
		}
		if patch.Description != nil {
			s.Description = *patch.Description
		}
		if patch.UserJourney != nil {
			s.UserJourney = append([]string(nil), (*patch.UserJourney)...)
		}
		return s, true, nil
	})
}

// UpdateScreenField sets one scalar field of the selected screen by its
// persisted name (name, iaCode, description).
func (m *Model) UpdateScreenField(field, value string) error {
	switch field {
	case "name":
		return m.UpdateScreen(ScreenPatch{Name: &value})
	case "iaCode":
		return m.UpdateScreen(ScreenPatch{IACode: &value})
	case "description":
		return m.UpdateScreen(ScreenPatch{Description: &value})
	}
	return invalid("update_screen", field, "not an editable field")
}

// DeleteScreen removes the selected screen after confirmation. Selection
// moves to the first remaining screen or to none.
func (m *Model) DeleteScreen() (bool, error) {
	m.mu.Lock()
	i, err := m.screenIndexLocked()
	if err != nil {
		m.mu.Unlock()
		return false, err
	}
	id, name := m.screens[i].ID, m.screens[i].Name
	m.mu.Unlock()

	if !m.confirm.Confirm(fmt.Sprintf("Delete screen %q and all its components?", name)) {
		m.log("delete_screen").Debug("declined", slog.String("name", name))
		return false, nil
	}

	m.mu.Lock()
	i = -1
	for j := range m.screens {
		if m.screens[j].ID == id {
			i = j
		}
	}
	if i < 0 {
		m.mu.Unlock()
		return false, invalid("delete_screen", "id", "screen %q no longer exists", id)
	}
	m.screens = append(m.screens[:i:i], m.screens[i+1:]...)
	m.selected = ""
	m.active = ""
	if len(m.screens) > 0 {
		m.selected = m.screens[0].ID
	}
	m.mu.Unlock()
	m.log("delete_screen").Debug("screen deleted", slog.String("name", name))
	m.publish()
	return true, nil
}

// SelectScreen makes id the selected screen and clears component selection.
func (m *Model) SelectScreen(id string) error {
	m.mu.Lock()
	found := false
	for _, s := range m.screens {
		if s.ID == id {
			found = true
		}
	}
	if !found {
		m.mu.Unlock()
		return invalid("select_screen", "id", "unknown screen %q", id)
	}
	m.selected = id
	m.active = ""
	m.mu.Unlock()
	m.publish()
	return nil
}

// SelectComponent marks id as the active component of the selected screen.
func (m *Model) SelectComponent(id string) error {
	m.mu.Lock()
	i, err := m.screenIndexLocked()
	if err != nil {
		m.mu.Unlock()
		return err
	}
	if m.screens[i].IndexOf(id) < 0 {
		m.mu.Unlock()
		return invalid("select_component", "id", "unknown component %q", id)
	}
	m.active = id
	m.mu.Unlock()
	m.publish()
	return nil
}

// ClearSelection drops the active component.
func (m *Model) ClearSelection() {
	m.mu.Lock()
	had := m.active != ""
	m.active = ""
	m.mu.Unlock()
	if had {
		m.publish()
	}
}

// AddComponent places a new typ component at the default position.
func (m *Model) AddComponent(typ string) (domain.Component, error) {
	return m.AddComponentAt(typ, m.policy.DefaultPosition)
}

// AddComponentAt places a new root-level typ component at pos (canvas-space)
// and selects it.
func (m *Model) AddComponentAt(typ string, pos geometry.Pt) (domain.Component, error) {
	a, ok := m.catalog.Lookup(typ)
	if !ok {
		return domain.Component{}, invalid("add_component", "type", "unknown archetype %q", typ)
	}
	var created domain.Component
	err := m.mutate(func(s domain.Screen) (domain.Screen, bool, error) {
		created = NewComponent(s, m.catalog, a, m.newID(), pos, m.policy)
		s = s.Clone()
		s.Components = append(s.Components, created)
		m.active = created.ID
		return s, true, nil
	})
	if err != nil {
		return domain.Component{}, err
	}
	m.log("add_component").Debug("component added", slog.String("id", created.ID), slog.String("label", created.Label))
	return created.Clone(), nil
}

// PasteComponent inserts an independent copy of entry as its n-th paste,
// at entry's position plus n times the paste offset: fresh id, root level,
// recomputed numbering and baseline z-index. The copy is selected.
func (m *Model) PasteComponent(entry domain.Component, n int) (domain.Component, error) {
	if entry.Type == "" {
		return domain.Component{}, invalid("paste", "type", "clipboard entry has no type")
	}
	if n < 1 {
		n = 1
	}
	k := float64(n)
	var created domain.Component
	err := m.mutate(func(s domain.Screen) (domain.Screen, bool, error) {
		c := entry.Clone()
		c.ID = m.newID()
		c.ParentID = ""
		c.Children = nil
		c.ZIndex = m.policy.ZBaseline
		c.X = geometry.FloatRound(entry.X+k*m.policy.PasteOffset.X, m.policy.RoundPlaces)
		c.Y = geometry.FloatRound(entry.Y+k*m.policy.PasteOffset.Y, m.policy.RoundPlaces)
		c.RelatedRequirements = m.knownRequirements(c.RelatedRequirements)
		created = applyOrdinal(c, m.catalog, countType(s, c.Type)+1)
		s = s.Clone()
		s.Components = append(s.Components, created)
		m.active = created.ID
		return s, true, nil
	})
	if err != nil {
		return domain.Component{}, err
	}
	m.log("paste").Debug("component pasted", slog.String("id", created.ID), slog.String("label", created.Label))
	return created.Clone(), nil
}

func (m *Model) knownRequirements(ids []string) []string {
	if m.reqs == nil || len(ids) == 0 {
		return ids
	}
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := collab.FindRequirement(m.reqs, id); ok {
			out = append(out, id)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ComponentPatch lists the editable fields of a component. Nil fields are
// left unchanged; identity, type and hierarchy are not patchable.
type ComponentPatch struct {
	Label               *string
	IACode              *string
	Description         *string
	Category            *string
	X, Y                *float64
	Width, Height       *float64
	RelatedRequirements *[]string
}

func validNumber(v *float64) bool {
	return v == nil || !(math.IsNaN(*v) || math.IsInf(*v, 0))
}

// UpdateComponent merges patch into component id of the selected screen and
// returns the updated component.
func (m *Model) UpdateComponent(id string, patch ComponentPatch) (domain.Component, error) {
	const op = "update_component"
	var updated domain.Component
	err := m.mutate(func(s domain.Screen) (domain.Screen, bool, error) {
		i := s.IndexOf(id)
		if i < 0 {
			return s, false, invalid(op, "id", "unknown component %q", id)
		}
		for name, v := range map[string]*float64{"x": patch.X, "y": patch.Y, "width": patch.Width, "height": patch.Height} {
			if !validNumber(v) {
				return s, false, invalid(op, name, "must be a finite number")
			}
		}
		if patch.Width != nil && *patch.Width <= 0 {
			return s, false, invalid(op, "width", "must be greater than zero")
		}
		if patch.Height != nil && *patch.Height <= 0 {
			return s, false, invalid(op, "height", "must be greater than zero")
		}
		if patch.RelatedRequirements != nil && m.reqs != nil {
			for _, rid := range *patch.RelatedRequirements {
				if _, ok := collab.FindRequirement(m.reqs, rid); !ok {
					return s, false, invalid(op, "relatedRequirements", "unknown requirement %q", rid)
				}
			}
		}
		s = s.Clone()
		c := &s.Components[i]
		places := m.policy.RoundPlaces
		if patch.Label != nil {
			c.Label = *patch.Label
		}
		if patch.IACode != nil {
			c.IACode = *patch.IACode
		}
		if patch.Description != nil {
			c.Description = *patch.Description
		}
		if patch.Category != nil {
			c.Category = *patch.Category
		}
		if patch.X != nil {
			c.X = geometry.FloatRound(*patch.X, places)
		}
		if patch.Y != nil {
			c.Y = geometry.FloatRound(*patch.Y, places)
		}
		if patch.Width != nil {
			c.Width = geometry.FloatRound(*patch.Width, places)
		}
		if patch.Height != nil {
			c.Height = geometry.FloatRound(*patch.Height, places)
		}
		if patch.RelatedRequirements != nil {
			if len(*patch.RelatedRequirements) == 0 {
				c.RelatedRequirements = nil
			} else {
				c.RelatedRequirements = append([]string(nil), (*patch.RelatedRequirements)...)
			}
		}
		updated = *c
		return s, true, nil
	})
	if err != nil {
		return domain.Component{}, err
	}
	return updated.Clone(), nil
}

// MoveComponent sets the canvas-space rectangle of id in one commit.
func (m *Model) MoveComponent(id string, r geometry.Rect) (domain.Component, error) {
	return m.UpdateComponent(id, ComponentPatch{X: &r.X, Y: &r.Y, Width: &r.W, Height: &r.H})
}

func (m *Model) componentLabel(id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, err := m.screenIndexLocked()
	if err != nil {
		return "", err
	}
	c, ok := m.screens[i].Component(id)
	if !ok {
		return "", invalid("delete_component", "id", "unknown component %q", id)
	}
	return c.Label, nil
}

// DeleteComponent removes id after confirmation. Children are promoted to
// root, same-type components are renumbered and the selection is cleared if
// it pointed at id.
func (m *Model) DeleteComponent(id string) (bool, error) {
	label, err := m.componentLabel(id)
	if err != nil {
		return false, err
	}
	if !m.confirm.Confirm(fmt.Sprintf("Delete %q?", label)) {
		return false, nil
	}
	err = m.mutate(func(s domain.Screen) (domain.Screen, bool, error) {
		if s.IndexOf(id) < 0 {
			return s, false, invalid("delete_component", "id", "unknown component %q", id)
		}
		if m.active == id {
			m.active = ""
		}
		return RemoveComponent(s, id, m.catalog, m.policy), true, nil
	})
	if err != nil {
		return false, err
	}
	m.log("delete_component").Debug("component deleted", slog.String("id", id), slog.String("label", label))
	return true, nil
}

// ClearComponents removes every component of the selected screen after
// confirmation.
func (m *Model) ClearComponents() (bool, error) {
	m.mu.Lock()
	i, err := m.screenIndexLocked()
	if err != nil {
		m.mu.Unlock()
		return false, err
	}
	name, n := m.screens[i].Name, len(m.screens[i].Components)
	m.mu.Unlock()
	if !m.confirm.Confirm(fmt.Sprintf("Remove all %d components from %q?", n, name)) {
		return false, nil
	}
	err = m.mutate(func(s domain.Screen) (domain.Screen, bool, error) {
		s = s.Clone()
		s.Components = []domain.Component{}
		m.active = ""
		return s, true, nil
	})
	if err != nil {
		return false, err
	}
	m.log("clear_components").Debug("screen cleared", slog.String("screen", name), slog.Int("removed", n))
	return true, nil
}

// Reparent moves id under parentID, or to root when parentID is empty.
func (m *Model) Reparent(id, parentID string) error {
	err := m.mutate(func(s domain.Screen) (domain.Screen, bool, error) {
		next, err := Reparent(s, id, parentID, m.policy)
		if err != nil {
			return s, false, err
		}
		return next, true, nil
	})
	if err != nil {
		m.log("reparent").Debug("rejected", slog.String("id", id), slog.String("parent", parentID), slog.Any("err", err))
		return err
	}
	return nil
}
