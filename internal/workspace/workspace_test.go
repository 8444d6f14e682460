/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package workspace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"wireframer/internal/collab"
	"wireframer/internal/config"
	"wireframer/internal/design"
	"wireframer/internal/geometry"
	"wireframer/internal/storage"
)

func openTest(t *testing.T, root string, opts Options) *Workspace {
	t.Helper()
	if opts.Confirmer == nil {
		opts.Confirmer = collab.AlwaysConfirm
	}
	if opts.Config.ConfigVersion == 0 {
		opts.Config = config.Defaults()
	}
	w, err := Open(context.Background(), root, opts)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func TestOpenEmptyWorkspaceUsesDefaults(t *testing.T) {
	w := openTest(t, t.TempDir(), Options{})
	snap := w.Model().Snapshot()
	if len(snap.Screens) != 2 || snap.Screens[0].IACode != "IA-001" || snap.Screens[1].IACode != "IA-002" {
		t.Fatalf("unexpected default screens: %+v", snap.Screens)
	}
	if snap.SelectedScreenID != snap.Screens[0].ID {
		t.Fatalf("first default screen should be selected")
	}
	if w.Source() != "" || len(w.Warnings()) != 0 {
		t.Fatalf("fresh workspace: source=%q warnings=%v", w.Source(), w.Warnings())
	}
	for _, d := range []string{storage.BackupsDirName, storage.IndexDirName} {
		if _, err := os.Stat(filepath.Join(w.Dir(), d)); err != nil {
			t.Fatalf("missing %s: %v", d, err)
		}
	}
}

func TestSaveAndReopen(t *testing.T) {
	root := t.TempDir()
	w := openTest(t, root, Options{})
	m := w.Model()
	card, err := m.AddComponent("container")
	if err != nil {
		t.Fatalf("AddComponent: %v", err)
	}
	btn, err := m.AddComponentAt("button", geometry.Pt{X: 120, Y: 130})
	if err != nil {
		t.Fatalf("AddComponentAt: %v", err)
	}
	link, err := m.AddComponent("link")
	if err != nil {
		t.Fatalf("AddComponent: %v", err)
	}
	// Children are linked in reverse creation order.
	for _, id := range []string{link.ID, btn.ID} {
		if err := m.Reparent(id, card.ID); err != nil {
			t.Fatalf("Reparent: %v", err)
		}
	}
	second := m.Snapshot().Screens[1].ID
	if err := m.SelectScreen(second); err != nil {
		t.Fatalf("SelectScreen: %v", err)
	}
	if err := w.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	want := m.Snapshot()
	_ = w.Close()

	w2 := openTest(t, root, Options{})
	got := w2.Model().Snapshot()
	if w2.Source() != storage.SourceCheckpoint {
		t.Fatalf("expected checkpoint source, got %q", w2.Source())
	}
	if got.SelectedScreenID != second {
		t.Fatalf("selected screen not restored: %q", got.SelectedScreenID)
	}
	if !reflect.DeepEqual(got.Screens, want.Screens) {
		t.Fatalf("screens differ after reopen:\n got %+v\nwant %+v", got.Screens, want.Screens)
	}
	parent, _ := got.Screens[0].Component(card.ID)
	if !reflect.DeepEqual(parent.Children, []string{link.ID, btn.ID}) {
		t.Fatalf("child order changed after reopen: %v", parent.Children)
	}
}

func TestCorruptRecordsFallBackWithWarning(t *testing.T) {
	root := t.TempDir()
	if err := storage.InitWorkspace(root); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, storage.DraftFileName), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	w := openTest(t, root, Options{})
	if len(w.Model().Snapshot().Screens) != 2 {
		t.Fatalf("expected default screens")
	}
	warns := w.Warnings()
	if len(warns) == 0 || !strings.Contains(warns[len(warns)-1], "could not be loaded") {
		t.Fatalf("expected load warning, got %v", warns)
	}
}

func TestSaveAndProceed(t *testing.T) {
	root := t.TempDir()
	var saved, proceeded int
	signals := collab.SignalFuncs{OnSaveCompleted: func() { saved++ }, OnProceed: func() { proceeded++ }}
	answer := false
	confirm := collab.ConfirmFunc(func(string) bool { return answer })
	w := openTest(t, root, Options{Confirmer: confirm, Signals: signals})

	ok, err := w.SaveAndProceed(context.Background())
	if err != nil || ok {
		t.Fatalf("declined: ok=%v err=%v", ok, err)
	}
	if saved != 0 || proceeded != 0 || w.Gateway().Draft().Exists() {
		t.Fatalf("declined save must do nothing")
	}

	answer = true
	ok, err = w.SaveAndProceed(context.Background())
	if err != nil || !ok {
		t.Fatalf("accepted: ok=%v err=%v", ok, err)
	}
	if saved != 1 || proceeded != 1 || !w.Gateway().Draft().Exists() {
		t.Fatalf("signals=%d/%d draft=%v", saved, proceeded, w.Gateway().Draft().Exists())
	}
}

func TestRequirementsFile(t *testing.T) {
	root := t.TempDir()
	data := `[{"id":"r1","displayCode":"REQ-1","name":"Login"}]`
	if err := os.WriteFile(filepath.Join(root, RequirementsFileName), []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	w := openTest(t, root, Options{})
	if r, ok := collab.FindRequirement(w.Requirements(), "r1"); !ok || r.DisplayCode != "REQ-1" {
		t.Fatalf("requirement not loaded: %+v", r)
	}

	c, _ := w.Model().AddComponent("button")
	reqs := []string{"nope"}
	_, err := w.Model().UpdateComponent(c.ID, design.ComponentPatch{RelatedRequirements: &reqs})
	if !errors.Is(err, design.ErrValidation) {
		t.Fatalf("unknown requirement should be rejected, got %v", err)
	}
}

func TestConfigDrivesPolicies(t *testing.T) {
	cfg := config.Defaults()
	cfg.Canvas.PasteOffsetX, cfg.Canvas.PasteOffsetY = 5, 5
	cfg.Canvas.ZoomMax = 150
	w := openTest(t, t.TempDir(), Options{Config: cfg})
	if got := w.Model().Policy().PasteOffset; got != (geometry.Pt{X: 5, Y: 5}) {
		t.Fatalf("paste offset = %+v", got)
	}
	c := w.Controller()
	for i := 0; i < 20; i++ {
		c.ZoomIn()
	}
	if c.Zoom() != 150 {
		t.Fatalf("zoom should clamp at 150, got %d", c.Zoom())
	}
}

func TestRegistryExtensions(t *testing.T) {
	dir := t.TempDir()
	ext := filepath.Join(dir, "ext.toml")
	data := "[[archetype]]\ntype = \"rating\"\ncategory = \"input\"\nlabel = \"Star rating\"\n"
	if err := os.WriteFile(ext, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg := config.Defaults()
	cfg.Registry.Extensions = ext
	w := openTest(t, filepath.Join(dir, "ws"), Options{Config: cfg})
	if _, ok := w.Catalog().Lookup("rating"); !ok {
		t.Fatalf("extension archetype missing")
	}
	c, err := w.Model().AddComponent("rating")
	if err != nil || c.IACode != "RAT-001" {
		t.Fatalf("add extension component: %+v %v", c, err)
	}
}

func TestAutosaveAndThumbnail(t *testing.T) {
	w := openTest(t, t.TempDir(), Options{})
	path, err := w.Autosave()
	if err != nil {
		t.Fatalf("Autosave: %v", err)
	}
	if filepath.Dir(path) != filepath.Join(w.Dir(), storage.BackupsDirName) {
		t.Fatalf("autosave at %s", path)
	}
	id := w.Model().Snapshot().Screens[0].ID
	png, err := w.Thumbnail(context.Background(), id, 0.2)
	if err != nil || len(png) == 0 {
		t.Fatalf("Thumbnail: %v", err)
	}
	if _, err := w.Thumbnail(context.Background(), "missing", 1); !errors.Is(err, design.ErrNoScreen) {
		t.Fatalf("expected ErrNoScreen, got %v", err)
	}
}

func TestConfirmerFor(t *testing.T) {
	if !ConfirmerFor("always", nil, nil).Confirm("x") {
		t.Fatalf("always should confirm")
	}
	if ConfirmerFor("never", nil, nil).Confirm("x") {
		t.Fatalf("never should decline")
	}
	var out strings.Builder
	if !ConfirmerFor("prompt", strings.NewReader("y\n"), &out).Confirm("Go?") {
		t.Fatalf("prompt should accept y")
	}
	if !strings.Contains(out.String(), "Go?") {
		t.Fatalf("prompt not written: %q", out.String())
	}
}
