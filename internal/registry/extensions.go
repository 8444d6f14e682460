/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BurntSushi/toml"

	applog "wireframer/internal/log"
)

// extensionFile is the on-disk shape of a catalog extension:
//
//	[[archetype]]
//	type = "kanban"
//	category = "information"
//	label = "Kanban board"
//	code_prefix = "KBN"
//	width = 600
//	height = 320
type extensionFile struct {
	Archetypes []Archetype `toml:"archetype"`
}

// LoadExtensions decodes extra archetypes from a TOML file and returns a new
// catalog holding base followed by the extensions. base is not modified.
func LoadExtensions(base *Catalog, path string) (*Catalog, error) {
	l := applog.WithOperation(applog.WithComponent("registry"), "load_extensions").With(slog.String("path", path))
	if base == nil {
		return nil, errors.New("base catalog is nil")
	}
	var f extensionFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		l.Error("decode failed", slog.Any("err", err))
		return nil, fmt.Errorf("decode catalog extension: %w", err)
	}
	return Extend(base, f.Archetypes)
}

// Extend validates extra archetypes and appends them to a copy of base.
func Extend(base *Catalog, extra []Archetype) (*Catalog, error) {
	entries := base.All()
	seen := make(map[string]bool, len(entries)+len(extra))
	for _, a := range entries {
		seen[a.Type] = true
	}
	for i, a := range extra {
		a.Type = strings.TrimSpace(a.Type)
		switch {
		case a.Type == "":
			return nil, fmt.Errorf("archetype %d: type is required", i)
		case seen[a.Type]:
			return nil, fmt.Errorf("archetype %q: duplicate type", a.Type)
		case !ValidCategory(a.Category):
			return nil, fmt.Errorf("archetype %q: unknown category %q", a.Type, a.Category)
		}
		if a.Label == "" {
			a.Label = a.Type
		}
		if a.CodePrefix == "" {
			a.CodePrefix = TruncatePrefix(strings.ToUpper(a.Type))
		}
		if a.DefaultWidth <= 0 {
			a.DefaultWidth = 200
		}
		if a.DefaultHeight <= 0 {
			a.DefaultHeight = 100
		}
		seen[a.Type] = true
		entries = append(entries, a)
	}
	applog.WithComponent("registry").Debug("catalog extended", slog.Int("added", len(extra)))
	return newCatalog(entries), nil
}

// TruncatePrefix keeps the first three characters of p, counted in runes.
func TruncatePrefix(p string) string {
	r := []rune(p)
	if len(r) > 3 {
		return string(r[:3])
	}
	return p
}
