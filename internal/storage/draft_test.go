/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"wireframer/internal/domain"
)

func sampleScreens() []domain.Screen {
	return []domain.Screen{
		{
			ID: "s1", Name: "Home", IACode: "IA-001", Description: "Landing",
			UserJourney: []string{"open", "browse"},
			Components: []domain.Component{
				{ID: "c1", Type: "container", Category: "layout", IACode: "CNT-001", Label: "container 1", Description: "Generic layout container #1",
					X: 0, Y: 0, Width: 800, Height: 600, Children: []string{"c2"}, ZIndex: 10},
				{ID: "c2", Type: "button", Category: "button", IACode: "BTN-001", Label: "button 1", Description: "Primary action button #1",
					X: 20.5, Y: 40.125, Width: 120, Height: 40, ParentID: "c1", ZIndex: 20, RelatedRequirements: []string{"r1"}},
			},
		},
		{ID: "s2", Name: "Details", IACode: "IA-002", Components: []domain.Component{}},
	}
}

func TestDraftSaveLoadAndBackups(t *testing.T) {
	root := t.TempDir()
	if err := InitWorkspace(root); err != nil {
		t.Fatalf("InitWorkspace: %v", err)
	}
	for _, d := range []string{BackupsDirName, "exports", IndexDirName} {
		if st, err := os.Stat(filepath.Join(root, d)); err != nil || !st.IsDir() {
			t.Fatalf("missing subdir %s", d)
		}
	}
	ds := NewDraftStore(root, 0)
	if _, err := ds.Load(); !errors.Is(err, ErrNoRecord) {
		t.Fatalf("expected ErrNoRecord, got %v", err)
	}
	rec := domain.WireframeRecord{Screens: sampleScreens(), Timestamp: time.Now().UTC().Format(time.RFC3339), ProjectLabel: "Demo"}
	if err := ds.Save(rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !ds.Exists() {
		t.Fatalf("draft file missing")
	}
	rec.ProjectLabel = "Demo 2"
	if err := ds.Save(rec); err != nil {
		t.Fatalf("Save 2: %v", err)
	}
	backups, err := ds.Backups()
	if err != nil || len(backups) != 1 {
		t.Fatalf("expected one backup, got %v (%v)", backups, err)
	}
	got, err := ds.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.ProjectLabel != "Demo 2" || len(got.Screens) != 2 || got.Screens[0].Components[1].ParentID != "c1" {
		t.Fatalf("unexpected draft: %+v", got)
	}
	entries, _ := os.ReadDir(root)
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestDraftCorruptFallsBackToBackup(t *testing.T) {
	root := t.TempDir()
	ds := NewDraftStore(root, 0)
	rec := domain.WireframeRecord{Screens: sampleScreens(), Timestamp: "2025-01-01T00:00:00Z", ProjectLabel: "v1"}
	if err := ds.Save(rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	rec.ProjectLabel = "v2"
	if err := ds.Save(rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := os.WriteFile(ds.Path(), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	got, err := ds.Load()
	if err != nil {
		t.Fatalf("Load should recover from backup: %v", err)
	}
	if got.ProjectLabel != "v1" {
		t.Fatalf("expected backup content v1, got %q", got.ProjectLabel)
	}
}

func TestDraftCorruptWithoutBackup(t *testing.T) {
	root := t.TempDir()
	ds := NewDraftStore(root, 0)
	if err := os.WriteFile(ds.Path(), []byte(`{"screens":"nope","timestamp":"x","projectLabel":""}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ds.Load(); !errors.Is(err, ErrCorruptRecord) {
		t.Fatalf("expected ErrCorruptRecord, got %v", err)
	}
}

func TestDraftPrunesBackups(t *testing.T) {
	root := t.TempDir()
	ds := NewDraftStore(root, 2)
	rec := domain.WireframeRecord{Screens: sampleScreens(), Timestamp: "2025-01-01T00:00:00Z"}
	for i := 0; i < 5; i++ {
		if err := ds.Save(rec); err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
		time.Sleep(2 * time.Millisecond)
	}
	backups, _ := ds.Backups()
	if len(backups) != 2 {
		t.Fatalf("expected 2 backups after prune, got %d", len(backups))
	}
}

func TestWriteAutosave(t *testing.T) {
	root := t.TempDir()
	ds := NewDraftStore(root, 0)
	p, err := ds.WriteAutosave(domain.WireframeRecord{Screens: sampleScreens(), Timestamp: "2025-01-01T00:00:00Z"})
	if err != nil {
		t.Fatalf("WriteAutosave: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(p), AutosavePrefix) {
		t.Fatalf("unexpected autosave name %s", p)
	}
	if ds.Exists() {
		t.Fatalf("autosave must not create the draft")
	}
}
