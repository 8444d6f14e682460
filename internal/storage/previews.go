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
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"wireframer/internal/domain"
)

const defaultPreviewCap = 64 * 1024 * 1024

// PreviewCache stores rendered screen thumbnails in the session database.
// Entries are keyed by screen id, content digest and pixel size, so an edit
// to a screen naturally misses the old entry. Least recently used rows are
// evicted once the total size exceeds the cap.
type PreviewCache struct {
	db       *sql.DB
	capBytes int64
}

// NewPreviewCache wraps db. A capBytes of 0 reads WF_PREVIEWS_MAX_BYTES.
func NewPreviewCache(db *sql.DB, capBytes int64) *PreviewCache {
	if capBytes <= 0 {
		capBytes = MaxPreviewBytesFromEnv()
	}
	return &PreviewCache{db: db, capBytes: capBytes}
}

// ScreenDigest hashes the persisted form of s.
func ScreenDigest(s domain.Screen) string {
	b, _ := json.Marshal(s)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:12])
}

// Get returns a cached thumbnail or nil and touches its access time.
func (p *PreviewCache) Get(ctx context.Context, screenID, digest string, w, h int) ([]byte, error) {
	var blob []byte
	err := p.db.QueryRowContext(ctx, `SELECT blob FROM previews WHERE screen_id=? AND digest=? AND w=? AND h=?`,
		screenID, digest, w, h).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query preview: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, _ = p.db.ExecContext(ctx, `UPDATE previews SET last_access=? WHERE screen_id=? AND digest=? AND w=? AND h=?`,
		now, screenID, digest, w, h)
	return blob, nil
}

// Put stores a thumbnail, replacing older digests of the same screen and
// size, then enforces the cap.
func (p *PreviewCache) Put(ctx context.Context, screenID, digest string, w, h int, blob []byte) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := p.db.ExecContext(ctx, `DELETE FROM previews WHERE screen_id=? AND w=? AND h=? AND digest<>?`,
		screenID, w, h, digest); err != nil {
		return fmt.Errorf("drop stale previews: %w", err)
	}
	_, err := p.db.ExecContext(ctx, `INSERT INTO previews(screen_id,digest,w,h,blob,size,updated_at,last_access)
		VALUES(?,?,?,?,?,?,?,?)
		ON CONFLICT(screen_id,digest,w,h) DO UPDATE SET blob=excluded.blob, size=excluded.size, updated_at=excluded.updated_at, last_access=excluded.last_access`,
		screenID, digest, w, h, blob, len(blob), now, now)
	if err != nil {
		return fmt.Errorf("upsert preview: %w", err)
	}
	return p.EvictToFit(ctx, p.capBytes)
}

// GetOrCreate returns the cached thumbnail or renders, stores and returns a
// new one with gen.
func (p *PreviewCache) GetOrCreate(ctx context.Context, s domain.Screen, w, h int, gen func(context.Context) ([]byte, error)) ([]byte, error) {
	digest := ScreenDigest(s)
	if b, err := p.Get(ctx, s.ID, digest, w, h); err != nil || b != nil {
		return b, err
	}
	data, err := gen(ctx)
	if err != nil || data == nil {
		return nil, err
	}
	if err := p.Put(ctx, s.ID, digest, w, h, data); err != nil {
		return nil, err
	}
	return data, nil
}

// EvictToFit deletes least recently used rows until the total size is at
// most capBytes.
func (p *PreviewCache) EvictToFit(ctx context.Context, capBytes int64) error {
	total, err := p.TotalBytes(ctx)
	if err != nil || total <= capBytes {
		return err
	}
	rows, err := p.db.QueryContext(ctx, `SELECT id, size FROM previews ORDER BY last_access ASC, id ASC`)
	if err != nil {
		return fmt.Errorf("select victims: %w", err)
	}
	var victims []any
	cur := total
	for rows.Next() && cur > capBytes {
		var id, sz int64
		if err := rows.Scan(&id, &sz); err != nil {
			_ = rows.Close()
			return err
		}
		victims = append(victims, id)
		cur -= sz
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	// close the cursor before writing
	if err := rows.Close(); err != nil {
		return err
	}
	if len(victims) == 0 {
		return nil
	}
	q := `DELETE FROM previews WHERE id IN (` + strings.TrimSuffix(strings.Repeat("?,", len(victims)), ",") + `)`
	if _, err := p.db.ExecContext(ctx, q, victims...); err != nil {
		return fmt.Errorf("evict delete: %w", err)
	}
	return nil
}

// TotalBytes returns the summed size of all cached thumbnails.
func (p *PreviewCache) TotalBytes(ctx context.Context) (int64, error) {
	var total int64
	if err := p.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size),0) FROM previews`).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum previews size: %w", err)
	}
	return total, nil
}

// MaxPreviewBytesFromEnv reads WF_PREVIEWS_MAX_BYTES, defaulting to 64MB.
func MaxPreviewBytesFromEnv() int64 {
	n, err := strconv.ParseInt(os.Getenv("WF_PREVIEWS_MAX_BYTES"), 10, 64)
	if err != nil || n <= 0 {
		return defaultPreviewCap
	}
	return n
}
