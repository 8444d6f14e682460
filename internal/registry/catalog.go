/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package registry is the read-only catalog of placeable component
// archetypes. It only seeds new instances; nothing here holds runtime state.
package registry

import "sort"

// Category groups archetypes in the component library.
type Category string

const (
	CategoryLayout      Category = "layout"
	CategoryNavigation  Category = "navigation"
	CategoryInput       Category = "input"
	CategoryButton      Category = "button"
	CategoryPopup       Category = "popup"
	CategoryInformation Category = "information"
	CategoryVisual      Category = "visual"
	CategoryState       Category = "state"
	CategoryInteraction Category = "interaction"
	CategoryMarketing   Category = "marketing"
	CategoryOther       Category = "other"
)

// Categories lists all categories in library order.
func Categories() []Category {
	return []Category{
		CategoryLayout, CategoryNavigation, CategoryInput, CategoryButton, CategoryPopup,
		CategoryInformation, CategoryVisual, CategoryState, CategoryInteraction,
		CategoryMarketing, CategoryOther,
	}
}

// ValidCategory reports whether c is one of the known categories.
func ValidCategory(c Category) bool {
	for _, k := range Categories() {
		if k == c {
			return true
		}
	}
	return false
}

// Archetype describes the defaults of a placeable component type.
type Archetype struct {
	Type          string   `toml:"type"`
	Category      Category `toml:"category"`
	Label         string   `toml:"label"`
	Description   string   `toml:"description"`
	CodePrefix    string   `toml:"code_prefix"`
	DefaultWidth  float64  `toml:"width"`
	DefaultHeight float64  `toml:"height"`
}

// Catalog is an immutable, ordered set of archetypes keyed by type.
type Catalog struct {
	entries []Archetype
	byType  map[string]int
}

func newCatalog(entries []Archetype) *Catalog {
	c := &Catalog{entries: append([]Archetype(nil), entries...), byType: make(map[string]int, len(entries))}
	for i, a := range c.entries {
		c.byType[a.Type] = i
	}
	return c
}

// All returns every archetype in catalog order.
func (c *Catalog) All() []Archetype { return append([]Archetype(nil), c.entries...) }

// Len returns the number of archetypes.
func (c *Catalog) Len() int { return len(c.entries) }

// Lookup finds an archetype by its type key.
func (c *Catalog) Lookup(typ string) (Archetype, bool) {
	i, ok := c.byType[typ]
	if !ok {
		return Archetype{}, false
	}
	return c.entries[i], true
}

// ByCategory returns the archetypes of one category in catalog order.
func (c *Catalog) ByCategory(cat Category) []Archetype {
	out := []Archetype{}
	for _, a := range c.entries {
		if a.Category == cat {
			out = append(out, a)
		}
	}
	return out
}

// Grouped partitions the catalog by category, skipping empty categories.
func (c *Catalog) Grouped() map[Category][]Archetype {
	out := map[Category][]Archetype{}
	for _, a := range c.entries {
		out[a.Category] = append(out[a.Category], a)
	}
	return out
}

// Types returns all type keys sorted alphabetically.
func (c *Catalog) Types() []string {
	out := make([]string, 0, len(c.entries))
	for _, a := range c.entries {
		out = append(out, a.Type)
	}
	sort.Strings(out)
	return out
}

var builtin = newCatalog([]Archetype{
	// layout
	{Type: "header", Category: CategoryLayout, Label: "Header", Description: "Page header bar", CodePrefix: "HDR", DefaultWidth: 800, DefaultHeight: 60},
	{Type: "footer", Category: CategoryLayout, Label: "Footer", Description: "Page footer bar", CodePrefix: "FTR", DefaultWidth: 800, DefaultHeight: 60},
	{Type: "sidebar", Category: CategoryLayout, Label: "Sidebar", Description: "Side navigation column", CodePrefix: "SDB", DefaultWidth: 200, DefaultHeight: 480},
	{Type: "body", Category: CategoryLayout, Label: "Body", Description: "Main content area", CodePrefix: "BDY", DefaultWidth: 600, DefaultHeight: 480},
	{Type: "container", Category: CategoryLayout, Label: "Container", Description: "Generic layout container", CodePrefix: "CNT", DefaultWidth: 400, DefaultHeight: 300},
	{Type: "section", Category: CategoryLayout, Label: "Section", Description: "Content section", CodePrefix: "SEC", DefaultWidth: 600, DefaultHeight: 240},
	{Type: "grid", Category: CategoryLayout, Label: "Grid", Description: "Grid of equal cells", CodePrefix: "GRD", DefaultWidth: 600, DefaultHeight: 300},
	{Type: "wrapper", Category: CategoryLayout, Label: "Wrapper", Description: "Wrapper around a group of components", CodePrefix: "WRP", DefaultWidth: 400, DefaultHeight: 200},
	// navigation
	{Type: "navbar", Category: CategoryNavigation, Label: "Navigation bar", Description: "Horizontal menu of links", CodePrefix: "NAV", DefaultWidth: 600, DefaultHeight: 48},
	{Type: "breadcrumb", Category: CategoryNavigation, Label: "Breadcrumb", Description: "Path to the current page", CodePrefix: "BRC", DefaultWidth: 300, DefaultHeight: 24},
	{Type: "tabs", Category: CategoryNavigation, Label: "Tabs", Description: "Tabbed views switcher", CodePrefix: "TAB", DefaultWidth: 400, DefaultHeight: 40},
	{Type: "pagination", Category: CategoryNavigation, Label: "Pagination", Description: "Page number controls", CodePrefix: "PAG", DefaultWidth: 240, DefaultHeight: 32},
	{Type: "menu", Category: CategoryNavigation, Label: "Menu", Description: "Vertical list of actions", CodePrefix: "MNU", DefaultWidth: 180, DefaultHeight: 220},
	// input
	{Type: "input", Category: CategoryInput, Label: "Text input", Description: "Single line text field", CodePrefix: "INP", DefaultWidth: 240, DefaultHeight: 36},
	{Type: "textarea", Category: CategoryInput, Label: "Text area", Description: "Multi line text field", CodePrefix: "TXA", DefaultWidth: 320, DefaultHeight: 120},
	{Type: "select", Category: CategoryInput, Label: "Select", Description: "Drop-down choice", CodePrefix: "SEL", DefaultWidth: 200, DefaultHeight: 36},
	{Type: "checkbox", Category: CategoryInput, Label: "Checkbox", Description: "Boolean tick box", CodePrefix: "CHK", DefaultWidth: 120, DefaultHeight: 24},
	{Type: "radio", Category: CategoryInput, Label: "Radio group", Description: "Exclusive choice", CodePrefix: "RAD", DefaultWidth: 160, DefaultHeight: 72},
	{Type: "datepicker", Category: CategoryInput, Label: "Date picker", Description: "Calendar date selection", CodePrefix: "DTP", DefaultWidth: 220, DefaultHeight: 36},
	{Type: "search", Category: CategoryInput, Label: "Search field", Description: "Query input with submit", CodePrefix: "SRC", DefaultWidth: 280, DefaultHeight: 36},
	// button
	{Type: "button", Category: CategoryButton, Label: "Button", Description: "Primary action button", CodePrefix: "BTN", DefaultWidth: 120, DefaultHeight: 40},
	{Type: "icon-button", Category: CategoryButton, Label: "Icon button", Description: "Compact button with an icon", CodePrefix: "IBT", DefaultWidth: 40, DefaultHeight: 40},
	{Type: "link", Category: CategoryButton, Label: "Link", Description: "Inline text link", CodePrefix: "LNK", DefaultWidth: 100, DefaultHeight: 20},
	{Type: "toggle", Category: CategoryButton, Label: "Toggle", Description: "On/off switch", CodePrefix: "TGL", DefaultWidth: 56, DefaultHeight: 28},
	// popup
	{Type: "modal", Category: CategoryPopup, Label: "Modal", Description: "Dialog over the page", CodePrefix: "MDL", DefaultWidth: 420, DefaultHeight: 280},
	{Type: "tooltip", Category: CategoryPopup, Label: "Tooltip", Description: "Hover hint", CodePrefix: "TIP", DefaultWidth: 160, DefaultHeight: 40},
	{Type: "toast", Category: CategoryPopup, Label: "Toast", Description: "Transient notification", CodePrefix: "TST", DefaultWidth: 280, DefaultHeight: 56},
	{Type: "drawer", Category: CategoryPopup, Label: "Drawer", Description: "Sliding side panel", CodePrefix: "DRW", DefaultWidth: 320, DefaultHeight: 480},
	// information
	{Type: "card", Category: CategoryInformation, Label: "Card", Description: "Summary card", CodePrefix: "CRD", DefaultWidth: 200, DefaultHeight: 120},
	{Type: "table", Category: CategoryInformation, Label: "Table", Description: "Tabular data", CodePrefix: "TBL", DefaultWidth: 600, DefaultHeight: 240},
	{Type: "list", Category: CategoryInformation, Label: "List", Description: "Vertical list of items", CodePrefix: "LST", DefaultWidth: 280, DefaultHeight: 200},
	{Type: "text", Category: CategoryInformation, Label: "Text", Description: "Paragraph of copy", CodePrefix: "TXT", DefaultWidth: 320, DefaultHeight: 60},
	{Type: "heading", Category: CategoryInformation, Label: "Heading", Description: "Section title", CodePrefix: "HDG", DefaultWidth: 320, DefaultHeight: 40},
	{Type: "badge", Category: CategoryInformation, Label: "Badge", Description: "Small status label", CodePrefix: "BDG", DefaultWidth: 60, DefaultHeight: 24},
	// visual
	{Type: "image", Category: CategoryVisual, Label: "Image", Description: "Image placeholder", CodePrefix: "IMG", DefaultWidth: 240, DefaultHeight: 160},
	{Type: "icon", Category: CategoryVisual, Label: "Icon", Description: "Pictogram", CodePrefix: "ICN", DefaultWidth: 32, DefaultHeight: 32},
	{Type: "chart", Category: CategoryVisual, Label: "Chart", Description: "Data visualisation", CodePrefix: "CHT", DefaultWidth: 400, DefaultHeight: 240},
	{Type: "avatar", Category: CategoryVisual, Label: "Avatar", Description: "User picture", CodePrefix: "AVT", DefaultWidth: 48, DefaultHeight: 48},
	{Type: "divider", Category: CategoryVisual, Label: "Divider", Description: "Horizontal rule", CodePrefix: "DIV", DefaultWidth: 600, DefaultHeight: 2},
	// state
	{Type: "spinner", Category: CategoryState, Label: "Spinner", Description: "Loading indicator", CodePrefix: "SPN", DefaultWidth: 40, DefaultHeight: 40},
	{Type: "progress", Category: CategoryState, Label: "Progress bar", Description: "Completion indicator", CodePrefix: "PRG", DefaultWidth: 280, DefaultHeight: 12},
	{Type: "empty-state", Category: CategoryState, Label: "Empty state", Description: "Placeholder when there is no data", CodePrefix: "EMP", DefaultWidth: 320, DefaultHeight: 200},
	{Type: "error-state", Category: CategoryState, Label: "Error state", Description: "Failure message block", CodePrefix: "ERR", DefaultWidth: 320, DefaultHeight: 120},
	// interaction
	{Type: "accordion", Category: CategoryInteraction, Label: "Accordion", Description: "Collapsible sections", CodePrefix: "ACC", DefaultWidth: 400, DefaultHeight: 200},
	{Type: "carousel", Category: CategoryInteraction, Label: "Carousel", Description: "Sliding set of items", CodePrefix: "CAR", DefaultWidth: 600, DefaultHeight: 240},
	{Type: "slider", Category: CategoryInteraction, Label: "Slider", Description: "Range selection", CodePrefix: "SLD", DefaultWidth: 240, DefaultHeight: 24},
	{Type: "stepper", Category: CategoryInteraction, Label: "Stepper", Description: "Multi-step progress", CodePrefix: "STP", DefaultWidth: 480, DefaultHeight: 48},
	// marketing
	{Type: "hero", Category: CategoryMarketing, Label: "Hero banner", Description: "Large headline banner", CodePrefix: "HRO", DefaultWidth: 800, DefaultHeight: 320},
	{Type: "cta", Category: CategoryMarketing, Label: "Call to action", Description: "Conversion block", CodePrefix: "CTA", DefaultWidth: 480, DefaultHeight: 120},
	{Type: "testimonial", Category: CategoryMarketing, Label: "Testimonial", Description: "Customer quote", CodePrefix: "TSM", DefaultWidth: 320, DefaultHeight: 160},
	{Type: "pricing", Category: CategoryMarketing, Label: "Pricing table", Description: "Plan comparison", CodePrefix: "PRC", DefaultWidth: 600, DefaultHeight: 320},
	// other
	{Type: "placeholder", Category: CategoryOther, Label: "Placeholder", Description: "Unspecified block", CodePrefix: "PLH", DefaultWidth: 200, DefaultHeight: 100},
	{Type: "annotation", Category: CategoryOther, Label: "Annotation", Description: "Designer note", CodePrefix: "ANN", DefaultWidth: 200, DefaultHeight: 80},
})

// Builtin returns the shipped catalog.
func Builtin() *Catalog { return builtin }
