/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package design

import (
	"errors"
	"strings"
	"testing"

	"wireframer/internal/collab"
	"wireframer/internal/domain"
	"wireframer/internal/geometry"
)

func newTestModel(t *testing.T, confirm collab.Confirmer) *Model {
	t.Helper()
	return NewModel(DefaultScreens(seqIDs("s")), "", Options{Confirmer: confirm, NewID: seqIDs("c")})
}

func TestNewModelSelectsFirstScreen(t *testing.T) {
	m := newTestModel(t, nil)
	snap := m.Snapshot()
	if snap.SelectedScreenID != "s1" {
		t.Fatalf("selected = %q, want s1", snap.SelectedScreenID)
	}
	m2 := NewModel(DefaultScreens(seqIDs("s")), "s2", Options{})
	if m2.Snapshot().SelectedScreenID != "s2" {
		t.Fatalf("explicit selection ignored")
	}
}

func TestAddScreenSelectsIt(t *testing.T) {
	m := newTestModel(t, nil)
	s := m.AddScreen()
	if s.IACode != "IA-003" || s.Name != "Screen 3" {
		t.Fatalf("unexpected screen: %+v", s)
	}
	if m.Snapshot().SelectedScreenID != s.ID {
		t.Fatalf("new screen not selected")
	}
}

func TestDeleteSelectedScreen(t *testing.T) {
	m := newTestModel(t, collab.AlwaysConfirm)
	if err := m.SelectScreen("s2"); err != nil {
		t.Fatalf("select: %v", err)
	}
	c, err := m.AddComponent("card")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	ok, err := m.DeleteScreen()
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	snap := m.Snapshot()
	if snap.SelectedScreenID != "s1" || len(snap.Screens) != 1 {
		t.Fatalf("unexpected state: %+v", snap)
	}
	for _, s := range snap.Screens {
		if s.IndexOf(c.ID) >= 0 {
			t.Fatalf("component of deleted screen still reachable")
		}
	}
	if _, ok := snap.SelectedComponent(); ok {
		t.Fatalf("component selection should be cleared")
	}

	if ok, _ := m.DeleteScreen(); !ok {
		t.Fatalf("second delete failed")
	}
	if snap := m.Snapshot(); snap.SelectedScreenID != "" || len(snap.Screens) != 0 {
		t.Fatalf("expected no-screen state: %+v", snap)
	}
	if _, err := m.AddComponent("button"); !errors.Is(err, ErrNoScreen) {
		t.Fatalf("expected ErrNoScreen, got %v", err)
	}
	if _, err := m.DeleteScreen(); !errors.Is(err, ErrNoScreen) {
		t.Fatalf("expected ErrNoScreen, got %v", err)
	}
}

func TestDeleteScreenRemovesConfirmedScreen(t *testing.T) {
	var m *Model
	prompted := ""
	m = newTestModel(t, collab.ConfirmFunc(func(prompt string) bool {
		prompted = prompt
		// Selection moves while the prompt is open.
		if err := m.SelectScreen("s2"); err != nil {
			t.Fatalf("select during prompt: %v", err)
		}
		return true
	}))
	if ok, err := m.DeleteScreen(); !ok || err != nil {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if !strings.Contains(prompted, "Home") {
		t.Fatalf("prompt = %q", prompted)
	}
	snap := m.Snapshot()
	if len(snap.Screens) != 1 || snap.Screens[0].ID != "s2" {
		t.Fatalf("wrong screen deleted: %+v", snap.Screens)
	}
}

func TestDeclinedConfirmationIsNoop(t *testing.T) {
	m := newTestModel(t, collab.NeverConfirm)
	c, _ := m.AddComponent("button")
	rev := m.Snapshot().Revision

	if ok, err := m.DeleteComponent(c.ID); ok || err != nil {
		t.Fatalf("declined delete should be (false, nil), got %v %v", ok, err)
	}
	if ok, err := m.ClearComponents(); ok || err != nil {
		t.Fatalf("declined clear should be (false, nil), got %v %v", ok, err)
	}
	if ok, err := m.DeleteScreen(); ok || err != nil {
		t.Fatalf("declined screen delete should be (false, nil), got %v %v", ok, err)
	}
	snap := m.Snapshot()
	if snap.Revision != rev || len(snap.Screens) != 2 {
		t.Fatalf("state changed on decline")
	}
	if sc, _ := snap.SelectedScreen(); len(sc.Components) != 1 {
		t.Fatalf("component removed on decline")
	}
}

func TestDeleteRenumbersAndClearsSelection(t *testing.T) {
	m := newTestModel(t, collab.AlwaysConfirm)
	var ids []string
	for i := 0; i < 5; i++ {
		c, err := m.AddComponent("button")
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		ids = append(ids, c.ID)
	}
	if err := m.SelectComponent(ids[2]); err != nil {
		t.Fatalf("select: %v", err)
	}
	if ok, err := m.DeleteComponent(ids[2]); !ok || err != nil {
		t.Fatalf("delete: %v %v", ok, err)
	}
	snap := m.Snapshot()
	if snap.SelectedComponentID != "" {
		t.Fatalf("selection not cleared")
	}
	sc, _ := snap.SelectedScreen()
	for i, c := range sc.Components {
		want := []string{"button 1", "button 2", "button 3", "button 4"}[i]
		if c.Label != want {
			t.Fatalf("label %d = %q, want %q", i, c.Label, want)
		}
	}
}

func TestUpdateComponentPropagatesToSelection(t *testing.T) {
	reqs := collab.StaticRequirements{{ID: "r1", DisplayCode: "REQ-1", Name: "Login"}}
	m := NewModel(DefaultScreens(nil), "", Options{Requirements: reqs})
	c, _ := m.AddComponent("input")

	var seen []string
	cancel := m.Subscribe(func(s Snapshot) {
		if sel, ok := s.SelectedComponent(); ok {
			seen = append(seen, sel.Label)
		}
	})
	defer cancel()

	label := "Email"
	w := 300.0
	if _, err := m.UpdateComponent(c.ID, ComponentPatch{Label: &label, Width: &w, RelatedRequirements: &[]string{"r1"}}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(seen) != 1 || seen[0] != "Email" {
		t.Fatalf("subscriber saw %v", seen)
	}
	sel, _ := m.Snapshot().SelectedComponent()
	if sel.Width != 300 || len(sel.RelatedRequirements) != 1 {
		t.Fatalf("selection stale: %+v", sel)
	}

	bad := 0.0
	if _, err := m.UpdateComponent(c.ID, ComponentPatch{Height: &bad}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for zero height, got %v", err)
	}
	if _, err := m.UpdateComponent(c.ID, ComponentPatch{RelatedRequirements: &[]string{"nope"}}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for unknown requirement, got %v", err)
	}
	if _, err := m.UpdateComponent("missing", ComponentPatch{Label: &label}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for unknown id, got %v", err)
	}
	if len(seen) != 1 {
		t.Fatalf("rejected edits must not publish")
	}
}

func TestModelReparentUnknownAndNoCycle(t *testing.T) {
	m := newTestModel(t, nil)
	outer, _ := m.AddComponent("container")
	inner, _ := m.AddComponent("section")
	if err := m.Reparent(inner.ID, outer.ID); err != nil {
		t.Fatalf("reparent: %v", err)
	}
	before := m.Snapshot()
	if err := m.Reparent(outer.ID, inner.ID); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected cycle rejection, got %v", err)
	}
	after := m.Snapshot()
	if after.Revision != before.Revision {
		t.Fatalf("rejected reparent published a change")
	}
	sc, _ := after.SelectedScreen()
	in, _ := sc.Component(inner.ID)
	if in.ParentID != outer.ID || in.ZIndex != 20 {
		t.Fatalf("unexpected inner: %+v", in)
	}
}

func TestPasteComponentIsIndependent(t *testing.T) {
	m := newTestModel(t, nil)
	parent, _ := m.AddComponent("container")
	x, _ := m.AddComponentAt("card", geometry.Pt{X: 250, Y: 150})
	if err := m.Reparent(x.ID, parent.ID); err != nil {
		t.Fatalf("reparent: %v", err)
	}
	sc, _ := m.Snapshot().SelectedScreen()
	entry, _ := sc.Component(x.ID)

	p1, err := m.PasteComponent(entry, 1)
	if err != nil {
		t.Fatalf("paste: %v", err)
	}
	p2, _ := m.PasteComponent(entry, 2)
	for _, p := range []domain.Component{p1, p2} {
		if p.ID == x.ID || p.ParentID != "" || p.ZIndex != 10 || len(p.Children) != 0 {
			t.Fatalf("paste not independent: %+v", p)
		}
	}
	if p1.X != 270 || p1.Y != 170 || p2.X != 290 || p2.Y != 190 {
		t.Fatalf("paste positions = (%v,%v) (%v,%v)", p1.X, p1.Y, p2.X, p2.Y)
	}
	if p1.ID == p2.ID {
		t.Fatalf("pastes share an id")
	}
	if p1.Label != "card 2" || p2.Label != "card 3" {
		t.Fatalf("labels = %q %q", p1.Label, p2.Label)
	}
	if m.Snapshot().SelectedComponentID != p2.ID {
		t.Fatalf("last paste should be selected")
	}
}

func TestUpdateScreenField(t *testing.T) {
	m := newTestModel(t, nil)
	if err := m.UpdateScreenField("name", "Checkout"); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := m.UpdateScreenField("components", "x"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := m.UpdateScreenField("name", ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("empty name must be rejected, got %v", err)
	}
	journey := []string{"a", "b"}
	if err := m.UpdateScreen(ScreenPatch{UserJourney: &journey}); err != nil {
		t.Fatalf("journey: %v", err)
	}
	sc, _ := m.Snapshot().SelectedScreen()
	if sc.Name != "Checkout" || len(sc.UserJourney) != 2 {
		t.Fatalf("unexpected screen: %+v", sc)
	}
}

func TestSnapshotIsolated(t *testing.T) {
	m := newTestModel(t, nil)
	c, _ := m.AddComponent("button")
	snap := m.Snapshot()
	snap.Screens[0].Components[0].Label = "hacked"
	sc, _ := m.Snapshot().SelectedScreen()
	if got, _ := sc.Component(c.ID); got.Label == "hacked" {
		t.Fatalf("snapshot aliases model state")
	}
}

func TestClearComponents(t *testing.T) {
	m := newTestModel(t, collab.AlwaysConfirm)
	_, _ = m.AddComponent("button")
	_, _ = m.AddComponent("card")
	if ok, err := m.ClearComponents(); !ok || err != nil {
		t.Fatalf("clear: %v %v", ok, err)
	}
	snap := m.Snapshot()
	sc, _ := snap.SelectedScreen()
	if len(sc.Components) != 0 || snap.SelectedComponentID != "" {
		t.Fatalf("screen not cleared: %+v", sc)
	}
	c, _ := m.AddComponent("button")
	if c.Label != "button 1" {
		t.Fatalf("numbering should restart, got %q", c.Label)
	}
}
