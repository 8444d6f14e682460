/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"wireframer/internal/storage"
	"wireframer/internal/version"
)

// PGCheckpoints is a storage.CheckpointStore backed by Postgres. Rows are
// scoped by workspace so several workspaces can share one database.
type PGCheckpoints struct {
	db        *sql.DB
	workspace string
}

var _ storage.CheckpointStore = (*PGCheckpoints)(nil)

// NewPGCheckpoints wraps an open, migrated database.
func NewPGCheckpoints(db *sql.DB, workspace string) (*PGCheckpoints, error) {
	if db == nil {
		return nil, errors.New("backend: nil db")
	}
	if strings.TrimSpace(workspace) == "" {
		return nil, errors.New("backend: empty workspace key")
	}
	return &PGCheckpoints{db: db, workspace: workspace}, nil
}

// OpenPGCheckpoints connects to dsn and returns a store for workspace.
func OpenPGCheckpoints(ctx context.Context, dsn, workspace string) (*PGCheckpoints, error) {
	db, err := Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	s, err := NewPGCheckpoints(db, workspace)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PGCheckpoints) Put(ctx context.Context, cp storage.Checkpoint) error {
	if cp.TS.IsZero() {
		cp.TS = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO checkpoints(workspace, ts, screen_count, selected_id, blob, app_version) VALUES($1, $2, $3, $4, $5, $6)`,
		s.workspace, cp.TS.UTC(), cp.ScreenCount, cp.SelectedID, string(cp.Blob), version.String())
	if err != nil {
		return fmt.Errorf("insert checkpoint: %w", err)
	}
	return nil
}

func (s *PGCheckpoints) Latest(ctx context.Context) (storage.Checkpoint, error) {
	list, err := s.List(ctx, 1)
	if err != nil {
		return storage.Checkpoint{}, err
	}
	if len(list) == 0 {
		return storage.Checkpoint{}, storage.ErrNoRecord
	}
	return list[0], nil
}

// List returns checkpoints newest first; limit <= 0 returns all.
func (s *PGCheckpoints) List(ctx context.Context, limit int) ([]storage.Checkpoint, error) {
	q := `SELECT id, ts, screen_count, COALESCE(selected_id, ''), blob::text FROM checkpoints WHERE workspace = $1 ORDER BY ts DESC, id DESC`
	args := []any{s.workspace}
	if limit > 0 {
		q += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []storage.Checkpoint
	for rows.Next() {
		var cp storage.Checkpoint
		var blob string
		if err := rows.Scan(&cp.ID, &cp.TS, &cp.ScreenCount, &cp.SelectedID, &blob); err != nil {
			return nil, err
		}
		cp.Blob = []byte(blob)
		out = append(out, cp)
	}
	return out, rows.Err()
}

func (s *PGCheckpoints) Prune(ctx context.Context, keepLast int) (int64, error) {
	if keepLast <= 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE workspace = $1 AND id NOT IN (
		SELECT id FROM checkpoints WHERE workspace = $1 ORDER BY ts DESC, id DESC LIMIT $2)`, s.workspace, keepLast)
	if err != nil {
		return 0, fmt.Errorf("prune checkpoints: %w", err)
	}
	return res.RowsAffected()
}

func (s *PGCheckpoints) Close() error { return s.db.Close() }
