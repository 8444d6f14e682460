/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders screens as handoff sheets (PDF, PNG, SVG).
package export

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sort"

	"wireframer/internal/domain"
	"wireframer/internal/geometry"
	"wireframer/internal/registry"
)

// Sheet is the print layout of one screen: a page large enough to hold every
// component plus a margin and a header band, with the components in paint
// order.
type Sheet struct {
	Screen domain.Screen
	Page   geometry.Size
	// Offset is added to canvas coordinates to get page coordinates.
	Offset geometry.Pt
	Items  []domain.Component
}

const (
	defaultMargin = 24.0
	headerHeight  = 28.0
)

var emptyCanvas = geometry.Size{W: 800, H: 600}

// BuildSheet lays out s. Components are ordered by z-index; equal z-index
// keeps the screen's slice order.
func BuildSheet(s domain.Screen, margin float64) Sheet {
	if margin <= 0 {
		margin = defaultMargin
	}
	items := append([]domain.Component(nil), s.Components...)
	sort.SliceStable(items, func(i, j int) bool { return items[i].ZIndex < items[j].ZIndex })

	content := geometry.Rect{W: emptyCanvas.W, H: emptyCanvas.H}
	for _, c := range items {
		content = content.Union(c.Rect())
	}
	off := geometry.Pt{X: margin - content.X, Y: margin + headerHeight - content.Y}
	return Sheet{
		Screen: s,
		Page:   geometry.Size{W: content.W + 2*margin, H: content.H + 2*margin + headerHeight},
		Offset: off,
		Items:  items,
	}
}

// Place maps a component to page coordinates.
func (sh Sheet) Place(c domain.Component) geometry.Rect { return c.Rect().Translate(sh.Offset) }

// Title is the header line printed above the canvas.
func (sh Sheet) Title() string {
	if sh.Screen.IACode == "" {
		return sh.Screen.Name
	}
	return fmt.Sprintf("%s  %s", sh.Screen.IACode, sh.Screen.Name)
}

// Caption is the text drawn inside a component box.
func Caption(c domain.Component) string {
	if c.IACode == "" {
		return c.Label
	}
	return c.Label + " [" + c.IACode + "]"
}

var categoryFill = map[string]color.RGBA{
	string(registry.CategoryLayout):      {R: 245, G: 245, B: 245, A: 255},
	string(registry.CategoryNavigation):  {R: 227, G: 236, B: 250, A: 255},
	string(registry.CategoryInput):       {R: 232, G: 245, B: 233, A: 255},
	string(registry.CategoryButton):      {R: 255, G: 243, B: 224, A: 255},
	string(registry.CategoryPopup):       {R: 243, G: 229, B: 245, A: 255},
	string(registry.CategoryInformation): {R: 224, G: 247, B: 250, A: 255},
	string(registry.CategoryVisual):      {R: 252, G: 228, B: 236, A: 255},
	string(registry.CategoryState):       {R: 255, G: 253, B: 231, A: 255},
	string(registry.CategoryInteraction): {R: 237, G: 231, B: 246, A: 255},
	string(registry.CategoryMarketing):   {R: 255, G: 235, B: 238, A: 255},
}

// FillFor returns the box colour of a component category.
func FillFor(category string) color.RGBA {
	if c, ok := categoryFill[category]; ok {
		return c
	}
	return color.RGBA{R: 250, G: 250, B: 250, A: 255}
}

var (
	strokeColor = color.RGBA{R: 60, G: 60, B: 60, A: 255}
	textColor   = color.RGBA{R: 20, G: 20, B: 20, A: 255}
)

// ResolveOut places relative output paths under <root>/exports.
func ResolveOut(root, out string) string {
	if filepath.IsAbs(out) || root == "" {
		return out
	}
	return filepath.Join(root, "exports", out)
}

// FileBase is the file name stem used for one screen.
func FileBase(s domain.Screen) string {
	if s.IACode != "" {
		return s.IACode
	}
	return s.ID
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	return nil
}
