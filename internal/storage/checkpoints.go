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
	"database/sql"
	"errors"
	"fmt"
	"time"

	"wireframer/internal/version"
)

// Checkpoint is one stored canvas session record.
type Checkpoint struct {
	ID          int64
	TS          time.Time
	ScreenCount int
	SelectedID  string
	Blob        []byte
}

// CheckpointStore keeps canvas session checkpoints. Implementations return
// ErrNoRecord from Latest when the store is empty.
type CheckpointStore interface {
	Put(ctx context.Context, cp Checkpoint) error
	Latest(ctx context.Context) (Checkpoint, error)
	List(ctx context.Context, limit int) ([]Checkpoint, error)
	Prune(ctx context.Context, keepLast int) (int64, error)
	Close() error
}

// language=SQL
// dialect=SQLite
const insertCheckpointSQL = `INSERT INTO checkpoints(ts, screen_count, selected_id, blob, app_version) VALUES (?, ?, ?, ?, ?)`

// language=SQL
// dialect=SQLite
const listCheckpointsSQL = `SELECT id, ts, screen_count, COALESCE(selected_id, ''), blob FROM checkpoints ORDER BY ts DESC, id DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneCheckpointsSQL = `DELETE FROM checkpoints WHERE id NOT IN (
	SELECT id FROM checkpoints ORDER BY ts DESC, id DESC LIMIT ?
)`

// SQLiteCheckpoints stores checkpoints in the workspace session database.
type SQLiteCheckpoints struct {
	db *sql.DB
}

// OpenSQLiteCheckpoints opens the session database of the workspace at root.
func OpenSQLiteCheckpoints(root string) (*SQLiteCheckpoints, error) {
	db, err := OpenSessionDB(root)
	if err != nil {
		return nil, err
	}
	return &SQLiteCheckpoints{db: db}, nil
}

// DB exposes the underlying database for the preview cache.
func (s *SQLiteCheckpoints) DB() *sql.DB { return s.db }

// Put inserts cp. A zero TS is replaced by the current time.
func (s *SQLiteCheckpoints) Put(ctx context.Context, cp Checkpoint) error {
	if cp.TS.IsZero() {
		cp.TS = time.Now()
	}
	_, err := s.db.ExecContext(ctx, insertCheckpointSQL,
		cp.TS.UTC().Format(time.RFC3339Nano), cp.ScreenCount, cp.SelectedID, cp.Blob, version.String())
	if err != nil {
		return fmt.Errorf("insert checkpoint: %w", err)
	}
	return nil
}

func (s *SQLiteCheckpoints) Latest(ctx context.Context) (Checkpoint, error) {
	cps, err := s.List(ctx, 1)
	if err != nil {
		return Checkpoint{}, err
	}
	if len(cps) == 0 {
		return Checkpoint{}, ErrNoRecord
	}
	return cps[0], nil
}

// List returns up to limit checkpoints, newest first.
func (s *SQLiteCheckpoints) List(ctx context.Context, limit int) ([]Checkpoint, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, listCheckpointsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []Checkpoint
	for rows.Next() {
		var cp Checkpoint
		var tsStr string
		if err := rows.Scan(&cp.ID, &tsStr, &cp.ScreenCount, &cp.SelectedID, &cp.Blob); err != nil {
			return nil, err
		}
		// keep the blob even if the timestamp is unreadable
		cp.TS, _ = time.Parse(time.RFC3339Nano, tsStr)
		out = append(out, cp)
	}
	return out, rows.Err()
}

// Prune keeps at most keepLast checkpoints and deletes older ones.
func (s *SQLiteCheckpoints) Prune(ctx context.Context, keepLast int) (int64, error) {
	if keepLast <= 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, pruneCheckpointsSQL, keepLast)
	if err != nil {
		return 0, fmt.Errorf("prune checkpoints: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteCheckpoints) Close() error {
	if s == nil || s.db == nil {
		return errors.New("checkpoint store not open")
	}
	return s.db.Close()
}
