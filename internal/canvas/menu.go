/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package canvas

import (
	"fmt"

	"wireframer/internal/design"
)

// Action names a context-menu command.
type Action string

const (
	ActionCopy        Action = "copy"
	ActionPaste       Action = "paste"
	ActionDelete      Action = "delete"
	ActionBringToRoot Action = "bring-to-root"
	ActionClearScreen Action = "clear-screen"
)

// MenuItem is one entry of the declarative context menu. The presentation
// layer renders it and calls Invoke with Action when chosen.
type MenuItem struct {
	Label   string
	Action  Action
	Enabled bool
}

// ContextMenu builds the menu for a right click on targetID (empty for the
// bare canvas).
func (c *Controller) ContextMenu(targetID string) []MenuItem {
	s, _, hasScreen := c.screen()
	target, hasTarget := s.Component(targetID)
	return []MenuItem{
		{Label: "Copy", Action: ActionCopy, Enabled: hasTarget},
		{Label: "Paste", Action: ActionPaste, Enabled: hasScreen && !c.clip.Empty()},
		{Label: "Delete", Action: ActionDelete, Enabled: hasTarget},
		{Label: "Move to top level", Action: ActionBringToRoot, Enabled: hasTarget && target.ParentID != ""},
		{Label: "Clear screen", Action: ActionClearScreen, Enabled: hasScreen && len(s.Components) > 0},
	}
}

// Invoke runs a menu action against targetID. Disabled actions are rejected.
func (c *Controller) Invoke(a Action, targetID string) error {
	for _, item := range c.ContextMenu(targetID) {
		if item.Action != a {
			continue
		}
		if !item.Enabled {
			return &design.ValidationError{Op: "menu", Field: string(a), Reason: "action is not available"}
		}
		return c.run(a, targetID)
	}
	return fmt.Errorf("unknown menu action %q", a)
}

func (c *Controller) run(a Action, targetID string) error {
	switch a {
	case ActionCopy:
		s, _, ok := c.screen()
		if !ok {
			return design.ErrNoScreen
		}
		comp, ok := s.Component(targetID)
		if !ok {
			return &design.ValidationError{Op: "copy", Field: "id", Reason: fmt.Sprintf("unknown component %q", targetID)}
		}
		c.clip.Copy(comp)
		return nil
	case ActionPaste:
		_, err := c.Paste()
		return err
	case ActionDelete:
		ok, err := c.model.DeleteComponent(targetID)
		if ok {
			c.reset(Idle)
		}
		return err
	case ActionBringToRoot:
		return c.model.Reparent(targetID, "")
	case ActionClearScreen:
		ok, err := c.model.ClearComponents()
		if ok {
			c.reset(Idle)
		}
		return err
	}
	return nil
}
