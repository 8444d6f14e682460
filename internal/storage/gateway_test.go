/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"reflect"
	"testing"
	"time"

	"wireframer/internal/domain"
)

func newGateway(t *testing.T, root string, keep int) *Gateway {
	t.Helper()
	cs, err := OpenSQLiteCheckpoints(root)
	if err != nil {
		t.Fatalf("open checkpoints: %v", err)
	}
	g := NewGateway(NewDraftStore(root, 0), cs, GatewayOptions{ProjectLabel: "Test", KeepCheckpoints: keep})
	t.Cleanup(func() { _ = g.Close() })
	return g
}

func TestGatewayRoundTripIsIdempotent(t *testing.T) {
	root := t.TempDir()
	g := newGateway(t, root, 5)
	ctx := context.Background()
	in := sampleScreens()
	if err := g.Save(ctx, in, "s2"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := g.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Source != SourceCheckpoint || got.SelectedScreenID != "s2" {
		t.Fatalf("unexpected load meta: %+v", got)
	}
	if !reflect.DeepEqual(got.Screens, in) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got.Screens, in)
	}
	if got.Timestamp.IsZero() {
		t.Fatalf("timestamp not restored")
	}

	// save(load(save(S))) stays equal
	if err := g.Save(ctx, got.Screens, got.SelectedScreenID); err != nil {
		t.Fatalf("Save 2: %v", err)
	}
	again, _ := g.Load(ctx)
	if !reflect.DeepEqual(again.Screens, in) {
		t.Fatalf("second round trip mismatch")
	}
}

func TestGatewayNoRecord(t *testing.T) {
	g := newGateway(t, t.TempDir(), 0)
	if _, err := g.Load(context.Background()); !errors.Is(err, ErrNoRecord) {
		t.Fatalf("expected ErrNoRecord, got %v", err)
	}
}

func TestGatewayCorruptCheckpointFallsBackToDraft(t *testing.T) {
	root := t.TempDir()
	g := newGateway(t, root, 0)
	ctx := context.Background()
	if err := g.Save(ctx, sampleScreens(), "s2"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := g.Checkpoints().Put(ctx, Checkpoint{TS: time.Now().Add(time.Hour), Blob: []byte(`{"screens":[{"id":""}]}`)}); err != nil {
		t.Fatalf("put corrupt: %v", err)
	}
	got, err := g.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Source != SourceDraft || len(got.Warnings) != 1 {
		t.Fatalf("expected draft fallback with warning, got %+v", got)
	}
	if got.SelectedScreenID != "s1" {
		t.Fatalf("draft load selects the first screen, got %q", got.SelectedScreenID)
	}
}

func TestGatewayCorruptOnlyRecord(t *testing.T) {
	root := t.TempDir()
	g := newGateway(t, root, 0)
	ctx := context.Background()
	if err := g.Checkpoints().Put(ctx, Checkpoint{Blob: []byte("garbage")}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := g.Load(ctx); !errors.Is(err, ErrCorruptRecord) {
		t.Fatalf("expected ErrCorruptRecord, got %v", err)
	}
}

func TestGatewayPrunesCheckpoints(t *testing.T) {
	root := t.TempDir()
	g := newGateway(t, root, 2)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		if err := g.Save(ctx, sampleScreens(), "s1"); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}
	list, _ := g.Checkpoints().List(ctx, 0)
	if len(list) != 2 {
		t.Fatalf("expected 2 checkpoints, got %d", len(list))
	}
}

func TestGatewayDraftOnly(t *testing.T) {
	root := t.TempDir()
	g := NewGateway(NewDraftStore(root, 0), nil, GatewayOptions{ProjectLabel: "Solo"})
	ctx := context.Background()
	if err := g.Save(ctx, sampleScreens(), "s1"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := g.Load(ctx)
	if err != nil || got.Source != SourceDraft {
		t.Fatalf("Load: %+v %v", got, err)
	}
	b, _ := os.ReadFile(g.Draft().Path())
	var rec domain.WireframeRecord
	if err := json.Unmarshal(b, &rec); err != nil || rec.ProjectLabel != "Solo" {
		t.Fatalf("draft record: %+v %v", rec, err)
	}
}

func TestGatewaySaveFailureIsReported(t *testing.T) {
	root := t.TempDir()
	// a regular file where the backups directory should be
	if err := os.WriteFile(root+"/"+BackupsDirName, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	g := NewGateway(NewDraftStore(root, 0), nil, GatewayOptions{})
	if err := g.Save(context.Background(), sampleScreens(), "s1"); err == nil {
		t.Fatalf("expected save error")
	}
}
