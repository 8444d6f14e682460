/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package registry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"wireframer/internal/domain"
)

func TestBuiltinCoversEveryCategory(t *testing.T) {
	c := Builtin()
	for _, cat := range Categories() {
		if len(c.ByCategory(cat)) == 0 {
			t.Fatalf("category %q has no archetypes", cat)
		}
	}
	seen := map[string]bool{}
	for _, a := range c.All() {
		if seen[a.Type] {
			t.Fatalf("duplicate type %q", a.Type)
		}
		seen[a.Type] = true
		if a.CodePrefix == "" || a.DefaultWidth <= 0 || a.DefaultHeight <= 0 {
			t.Fatalf("archetype %q has incomplete defaults: %+v", a.Type, a)
		}
	}
}

func TestBuiltinContainsEveryContainerType(t *testing.T) {
	for _, typ := range domain.ContainerTypes() {
		a, ok := Builtin().Lookup(typ)
		if !ok {
			t.Fatalf("container type %q missing from catalog", typ)
		}
		if a.Category != CategoryLayout {
			t.Fatalf("container %q should be a layout archetype, got %q", typ, a.Category)
		}
	}
}

func TestFilter(t *testing.T) {
	c := Builtin()
	cases := []struct {
		query string
		want  string
	}{
		{"BUTTON", "button"},
		{"drop-down", "select"},
		{"icon-b", "icon-button"},
		{"  card ", "card"},
	}
	for _, tc := range cases {
		got := c.Filter(tc.query)
		found := false
		for _, a := range got {
			if a.Type == tc.want {
				found = true
			}
		}
		if !found {
			t.Fatalf("Filter(%q) missing %q: %v", tc.query, tc.want, got)
		}
	}
	if got := c.Filter("zzznothing"); got == nil || len(got) != 0 {
		t.Fatalf("no-match filter should be empty non-nil, got %#v", got)
	}
	if got := c.Filter(""); len(got) != c.Len() {
		t.Fatalf("blank query should return all, got %d of %d", len(got), c.Len())
	}
	for _, a := range c.FilterCategory(CategoryButton, "button") {
		if a.Category != CategoryButton {
			t.Fatalf("FilterCategory leaked %q", a.Type)
		}
	}
}

func TestAllReturnsCopy(t *testing.T) {
	c := Builtin()
	all := c.All()
	all[0].Label = "mutated"
	if a, _ := c.Lookup(all[0].Type); a.Label == "mutated" {
		t.Fatalf("All must not expose internal storage")
	}
}

func TestLoadExtensions(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "extra.toml")
	content := `
[[archetype]]
type = "kanban"
category = "information"
label = "Kanban board"
description = "Columns of cards"
code_prefix = "KBN"
width = 600
height = 320

[[archetype]]
type = "map"
category = "visual"
`
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	base := Builtin()
	ext, err := LoadExtensions(base, p)
	if err != nil {
		t.Fatalf("LoadExtensions error: %v", err)
	}
	if ext.Len() != base.Len()+2 {
		t.Fatalf("expected %d entries, got %d", base.Len()+2, ext.Len())
	}
	k, ok := ext.Lookup("kanban")
	if !ok || k.CodePrefix != "KBN" || k.DefaultWidth != 600 {
		t.Fatalf("kanban not decoded: %+v", k)
	}
	m, _ := ext.Lookup("map")
	if m.Label != "map" || m.CodePrefix != "MAP" || m.DefaultWidth != 200 || m.DefaultHeight != 100 {
		t.Fatalf("defaults not applied: %+v", m)
	}
	if _, ok := base.Lookup("kanban"); ok {
		t.Fatalf("base catalog must not be mutated")
	}
}

func TestExtendRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		in   Archetype
		msg  string
	}{
		{"duplicate", Archetype{Type: "button", Category: CategoryButton}, "duplicate"},
		{"category", Archetype{Type: "x", Category: "weird"}, "unknown category"},
		{"empty", Archetype{Type: " ", Category: CategoryOther}, "type is required"},
	}
	for _, tc := range cases {
		_, err := Extend(Builtin(), []Archetype{tc.in})
		if err == nil || !strings.Contains(err.Error(), tc.msg) {
			t.Fatalf("%s: expected %q error, got %v", tc.name, tc.msg, err)
		}
	}
}

func TestLoadExtensionsBadFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(p, []byte("[[archetype]\ntype="), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadExtensions(Builtin(), p); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestCodePrefixCountsRunes(t *testing.T) {
	c, err := Extend(Builtin(), []Archetype{{Type: "étagère", Category: CategoryOther}})
	if err != nil {
		t.Fatalf("Extend: %v", err)
	}
	a, _ := c.Lookup("étagère")
	if a.CodePrefix != "ÉTA" || !utf8.ValidString(a.CodePrefix) {
		t.Fatalf("prefix = %q", a.CodePrefix)
	}
	for in, want := range map[string]string{"ab": "AB", "ÄÖÜß": "ÄÖÜ", "": ""} {
		if got := TruncatePrefix(in); got != want {
			t.Fatalf("TruncatePrefix(%q) = %q, want %q", in, got, want)
		}
	}
}
