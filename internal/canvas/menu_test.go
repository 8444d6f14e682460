/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package canvas

import (
	"errors"
	"testing"

	"wireframer/internal/collab"
	"wireframer/internal/design"
)

func menuItem(t *testing.T, items []MenuItem, a Action) MenuItem {
	t.Helper()
	for _, it := range items {
		if it.Action == a {
			return it
		}
	}
	t.Fatalf("menu has no %s item", a)
	return MenuItem{}
}

func TestContextMenuEnablement(t *testing.T) {
	m := scenarioModel(t, collab.AlwaysConfirm)
	c := NewController(m, DefaultOptions())

	bare := c.ContextMenu("")
	if menuItem(t, bare, ActionCopy).Enabled || menuItem(t, bare, ActionDelete).Enabled {
		t.Fatalf("target actions enabled on bare canvas")
	}
	if menuItem(t, bare, ActionPaste).Enabled {
		t.Fatalf("paste enabled with empty clipboard")
	}
	if !menuItem(t, bare, ActionClearScreen).Enabled {
		t.Fatalf("clear screen should be enabled")
	}
	if err := c.Invoke(ActionPaste, ""); !errors.Is(err, design.ErrValidation) {
		t.Fatalf("disabled action should be rejected, got %v", err)
	}

	on := c.ContextMenu("card")
	if !menuItem(t, on, ActionCopy).Enabled || menuItem(t, on, ActionBringToRoot).Enabled {
		t.Fatalf("unexpected enablement for root card: %+v", on)
	}
	_ = m.SelectComponent("header")
	if err := c.Invoke(ActionCopy, "card"); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if got := m.Snapshot().SelectedComponentID; got != "header" {
		t.Fatalf("copy from menu changed selection to %q", got)
	}
	if e, _ := c.Clipboard().Entry(); e.ID != "card" {
		t.Fatalf("clipboard holds %q, want card", e.ID)
	}
	if !menuItem(t, c.ContextMenu(""), ActionPaste).Enabled {
		t.Fatalf("paste should be enabled after copy")
	}
}

func TestInvokeActions(t *testing.T) {
	m := scenarioModel(t, collab.AlwaysConfirm)
	c := NewController(m, DefaultOptions())
	if err := m.Reparent("card", "header"); err != nil {
		t.Fatalf("reparent: %v", err)
	}
	if err := c.Invoke(ActionBringToRoot, "card"); err != nil {
		t.Fatalf("bring to root: %v", err)
	}
	if got := component(t, m, "card"); got.ParentID != "" || got.ZIndex != 10 {
		t.Fatalf("card not moved to root: %+v", got)
	}
	_ = m.SelectComponent("header")
	if err := c.Invoke(ActionCopy, "card"); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if got := m.Snapshot().SelectedComponentID; got != "header" {
		t.Fatalf("copy from menu changed selection to %q", got)
	}
	if e, _ := c.Clipboard().Entry(); e.ID != "card" {
		t.Fatalf("clipboard holds %q, want card", e.ID)
	}
	if err := c.Invoke(ActionPaste, ""); err != nil {
		t.Fatalf("paste: %v", err)
	}
	if err := c.Invoke(ActionDelete, "header"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	s, _ := m.Snapshot().SelectedScreen()
	if len(s.Components) != 2 || s.IndexOf("header") >= 0 {
		t.Fatalf("unexpected components after delete: %+v", s.Components)
	}
	if err := c.Invoke(ActionClearScreen, ""); err != nil {
		t.Fatalf("clear: %v", err)
	}
	s, _ = m.Snapshot().SelectedScreen()
	if len(s.Components) != 0 {
		t.Fatalf("screen not cleared")
	}
	if err := c.Invoke("explode", ""); err == nil {
		t.Fatalf("unknown action should fail")
	}
}
