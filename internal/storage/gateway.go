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
	"fmt"
	"log/slog"
	"time"

	"wireframer/internal/domain"
	applog "wireframer/internal/log"
)

// Source tells which record a load came from.
type Source string

const (
	SourceCheckpoint Source = "checkpoint"
	SourceDraft      Source = "draft"
)

// Loaded is the result of Gateway.Load.
type Loaded struct {
	Screens          []domain.Screen
	SelectedScreenID string
	Timestamp        time.Time
	Source           Source
	// Warnings lists recoverable problems met on the way, such as a corrupt
	// checkpoint that was skipped in favour of the draft.
	Warnings []string
}

// GatewayOptions configures a Gateway.
type GatewayOptions struct {
	ProjectLabel    string
	KeepCheckpoints int
	Now             func() time.Time
}

// Gateway writes both records on save and restores the preferred one on load.
// Checkpoints may be nil, in which case only the draft is used.
type Gateway struct {
	draft       *DraftStore
	checkpoints CheckpointStore
	opts        GatewayOptions
}

func NewGateway(draft *DraftStore, checkpoints CheckpointStore, opts GatewayOptions) *Gateway {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Gateway{draft: draft, checkpoints: checkpoints, opts: opts}
}

// Draft returns the draft store.
func (g *Gateway) Draft() *DraftStore { return g.draft }

// Checkpoints returns the checkpoint store, if any.
func (g *Gateway) Checkpoints() CheckpointStore { return g.checkpoints }

func persistable(screens []domain.Screen) []domain.Screen {
	out := domain.CloneScreens(screens)
	if out == nil {
		out = []domain.Screen{}
	}
	for i := range out {
		if out[i].Components == nil {
			out[i].Components = []domain.Component{}
		}
	}
	return out
}

// Records builds the draft and checkpoint documents for screens.
func (g *Gateway) Records(screens []domain.Screen, selectedID string) (domain.WireframeRecord, domain.SessionRecord) {
	ts := g.opts.Now().UTC().Format(time.RFC3339Nano)
	screens = persistable(screens)
	draft := domain.WireframeRecord{Screens: screens, Timestamp: ts, ProjectLabel: g.opts.ProjectLabel}
	session := domain.SessionRecord{Screens: domain.CloneScreens(screens), Timestamp: ts}
	for _, s := range screens {
		if s.ID == selectedID {
			sel := s.Clone()
			session.SelectedScreen = &sel
		}
	}
	return draft, session
}

// Save writes the draft, then a checkpoint. Any failure is returned; the
// caller's in-memory state is never touched.
func (g *Gateway) Save(ctx context.Context, screens []domain.Screen, selectedID string) error {
	l := applog.WithOperation(applog.WithComponent("storage"), "save")
	draft, session := g.Records(screens, selectedID)
	if err := g.draft.Save(draft); err != nil {
		l.ErrorContext(ctx, "draft save failed", slog.Any("err", err))
		return fmt.Errorf("save draft: %w", err)
	}
	if g.checkpoints == nil {
		return nil
	}
	blob, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	ts, _ := time.Parse(time.RFC3339Nano, session.Timestamp)
	cp := Checkpoint{TS: ts, ScreenCount: len(session.Screens), SelectedID: selectedID, Blob: blob}
	if err := g.checkpoints.Put(ctx, cp); err != nil {
		l.ErrorContext(ctx, "checkpoint save failed", slog.Any("err", err))
		return fmt.Errorf("save checkpoint: %w", err)
	}
	if g.opts.KeepCheckpoints > 0 {
		if _, err := g.checkpoints.Prune(ctx, g.opts.KeepCheckpoints); err != nil {
			l.WarnContext(ctx, "prune checkpoints failed", slog.Any("err", err))
		}
	}
	l.InfoContext(ctx, "saved", slog.Int("screens", len(screens)), slog.String("selected", selectedID))
	return nil
}

// DecodeCheckpoint validates and decodes a checkpoint blob.
func DecodeCheckpoint(blob []byte) (domain.SessionRecord, error) {
	var rec domain.SessionRecord
	if err := Validate(KindCheckpoint, blob); err != nil {
		return rec, err
	}
	if err := json.Unmarshal(blob, &rec); err != nil {
		return rec, fmt.Errorf("%w: parse checkpoint: %v", ErrCorruptRecord, err)
	}
	return rec, nil
}

func parseTimestamp(s string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return ts
}

// Load restores the latest checkpoint, falling back to the draft. It returns
// ErrNoRecord when neither exists and an error wrapping ErrCorruptRecord when
// the only records present are unusable.
func (g *Gateway) Load(ctx context.Context) (Loaded, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "load")
	var warnings []string
	var firstErr error

	if g.checkpoints != nil {
		cp, err := g.checkpoints.Latest(ctx)
		switch {
		case err == nil:
			rec, derr := DecodeCheckpoint(cp.Blob)
			if derr == nil {
				out := Loaded{Screens: rec.Screens, Timestamp: parseTimestamp(rec.Timestamp), Source: SourceCheckpoint}
				if rec.SelectedScreen != nil {
					out.SelectedScreenID = rec.SelectedScreen.ID
				}
				l.InfoContext(ctx, "restored checkpoint", slog.Int("screens", len(rec.Screens)))
				return out, nil
			}
			l.WarnContext(ctx, "checkpoint unusable", slog.Any("err", derr))
			warnings = append(warnings, fmt.Sprintf("latest checkpoint skipped: %v", derr))
			firstErr = derr
		case errors.Is(err, ErrNoRecord):
		default:
			l.WarnContext(ctx, "checkpoint read failed", slog.Any("err", err))
			warnings = append(warnings, fmt.Sprintf("checkpoint store unavailable: %v", err))
		}
	}

	rec, err := g.draft.Load()
	switch {
	case err == nil:
		l.InfoContext(ctx, "restored draft", slog.Int("screens", len(rec.Screens)))
		out := Loaded{Screens: rec.Screens, Timestamp: parseTimestamp(rec.Timestamp), Source: SourceDraft, Warnings: warnings}
		if len(rec.Screens) > 0 {
			out.SelectedScreenID = rec.Screens[0].ID
		}
		return out, nil
	case errors.Is(err, ErrNoRecord) && firstErr != nil:
		return Loaded{Warnings: warnings}, firstErr
	default:
		return Loaded{Warnings: warnings}, err
	}
}

// Autosave writes an emergency copy of screens to the backups folder.
func (g *Gateway) Autosave(screens []domain.Screen) (string, error) {
	draft, _ := g.Records(screens, "")
	return g.draft.WriteAutosave(draft)
}

// Close releases the checkpoint store.
func (g *Gateway) Close() error {
	if g.checkpoints == nil {
		return nil
	}
	return g.checkpoints.Close()
}
