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
	"errors"
	"testing"
	"time"
)

func TestSQLiteCheckpointsLifecycle(t *testing.T) {
	root := t.TempDir()
	cs, err := OpenSQLiteCheckpoints(root)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer cs.Close()
	ctx := context.Background()

	if _, err := cs.Latest(ctx); !errors.Is(err, ErrNoRecord) {
		t.Fatalf("expected ErrNoRecord on empty store, got %v", err)
	}
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		cp := Checkpoint{TS: base.Add(time.Duration(i) * time.Minute), ScreenCount: i + 1, SelectedID: "s1", Blob: []byte{byte('a' + i)}}
		if err := cs.Put(ctx, cp); err != nil {
			t.Fatalf("put %d: %v", i, err)
		}
	}
	latest, err := cs.Latest(ctx)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if string(latest.Blob) != "e" || latest.ScreenCount != 5 || !latest.TS.Equal(base.Add(4*time.Minute)) {
		t.Fatalf("unexpected latest: %+v", latest)
	}
	list, err := cs.List(ctx, 3)
	if err != nil || len(list) != 3 || string(list[2].Blob) != "c" {
		t.Fatalf("unexpected list: %+v (%v)", list, err)
	}
	n, err := cs.Prune(ctx, 2)
	if err != nil || n != 3 {
		t.Fatalf("prune removed %d (%v), want 3", n, err)
	}
	all, _ := cs.List(ctx, 0)
	if len(all) != 2 || string(all[1].Blob) != "d" {
		t.Fatalf("unexpected survivors: %+v", all)
	}
	if n, _ := cs.Prune(ctx, 0); n != 0 {
		t.Fatalf("prune with keep 0 must be a no-op")
	}
}
