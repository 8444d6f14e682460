/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"wireframer/internal/domain"
	applog "wireframer/internal/log"
)

const (
	DraftFileName  = "wireframe.json"
	BackupsDirName = "backups"
	// AutosavePrefix names crash autosaves inside the backups folder.
	AutosavePrefix = "autosave"
)

// workspaceSubDirs are created by InitWorkspace.
var workspaceSubDirs = []string{
	BackupsDirName,
	"exports",
	IndexDirName,
}

// DraftStore reads and writes the wireframe draft of one workspace.
type DraftStore struct {
	Root string
	// KeepBackups bounds the number of timestamped backups; 0 keeps all.
	KeepBackups int
}

// NewDraftStore returns a store rooted at root without touching the disk.
func NewDraftStore(root string, keepBackups int) *DraftStore {
	return &DraftStore{Root: root, KeepBackups: keepBackups}
}

// InitWorkspace creates root and its standard subfolders.
func InitWorkspace(root string) error {
	if strings.TrimSpace(root) == "" {
		return errors.New("workspace root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("create workspace root: %w", err)
	}
	for _, d := range workspaceSubDirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return fmt.Errorf("create subdir %s: %w", d, err)
		}
	}
	return nil
}

func (d *DraftStore) Path() string { return filepath.Join(d.Root, DraftFileName) }

func (d *DraftStore) backupsDir() string { return filepath.Join(d.Root, BackupsDirName) }

// Exists reports whether a draft file is present.
func (d *DraftStore) Exists() bool {
	_, err := os.Stat(d.Path())
	return err == nil
}

// Save writes rec transactionally and keeps a timestamped backup of the
// previous draft.
func (d *DraftStore) Save(rec domain.WireframeRecord) error {
	l := applog.WithOperation(applog.WithComponent("storage"), "draft_save").With(slog.String("root", d.Root))
	if strings.TrimSpace(d.Root) == "" {
		return errors.New("draft store has no root")
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}
	data = append(data, '\n')

	bdir := d.backupsDir()
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}
	path := d.Path()
	if _, statErr := os.Stat(path); statErr == nil {
		stamp := time.Now().Format("20060102-150405.000")
		bpath := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", DraftFileName, stamp))
		if cerr := copyFile(path, bpath); cerr != nil {
			return fmt.Errorf("backup current draft: %w", cerr)
		}
	}
	if err := writeAtomic(path, data); err != nil {
		l.Error("write failed", slog.Any("err", err))
		return err
	}
	if d.KeepBackups > 0 {
		if n, err := d.pruneBackups(d.KeepBackups); err != nil {
			l.Warn("prune backups failed", slog.Any("err", err))
		} else if n > 0 {
			l.Debug("pruned backups", slog.Int("removed", n))
		}
	}
	l.Info("draft saved", slog.Int("screens", len(rec.Screens)), slog.Int("bytes", len(data)))
	return nil
}

// Load reads the draft. A missing draft yields ErrNoRecord; a draft that
// fails to parse or validate falls back to the latest backup and, failing
// that, yields an error wrapping ErrCorruptRecord.
func (d *DraftStore) Load() (domain.WireframeRecord, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "draft_load").With(slog.String("root", d.Root))
	b, err := os.ReadFile(d.Path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if rec, berr := d.loadLatestBackup(); berr == nil {
				l.Warn("draft missing, restored latest backup")
				return rec, nil
			}
			return domain.WireframeRecord{}, ErrNoRecord
		}
		return domain.WireframeRecord{}, fmt.Errorf("read draft: %w", err)
	}
	rec, perr := decodeDraft(b)
	if perr == nil {
		return rec, nil
	}
	l.Warn("draft unreadable, trying backup", slog.Any("err", perr))
	rec, berr := d.loadLatestBackup()
	if berr != nil {
		return domain.WireframeRecord{}, fmt.Errorf("%w; backup attempt: %v", perr, berr)
	}
	return rec, nil
}

func decodeDraft(b []byte) (domain.WireframeRecord, error) {
	var rec domain.WireframeRecord
	if err := Validate(KindDraft, b); err != nil {
		return rec, err
	}
	if err := json.Unmarshal(b, &rec); err != nil {
		return rec, fmt.Errorf("%w: parse draft: %v", ErrCorruptRecord, err)
	}
	return rec, nil
}

// Backups lists backup files oldest first.
func (d *DraftStore) Backups() ([]string, error) {
	ents, err := os.ReadDir(d.backupsDir())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	var out []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, DraftFileName+".") && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(d.backupsDir(), name))
		}
	}
	// timestamp in name yields lexicographic order
	sort.Strings(out)
	return out, nil
}

func (d *DraftStore) loadLatestBackup() (domain.WireframeRecord, error) {
	candidates, err := d.Backups()
	if err != nil {
		return domain.WireframeRecord{}, err
	}
	if len(candidates) == 0 {
		return domain.WireframeRecord{}, errors.New("no backups found")
	}
	b, err := os.ReadFile(candidates[len(candidates)-1])
	if err != nil {
		return domain.WireframeRecord{}, fmt.Errorf("read latest backup: %w", err)
	}
	return decodeDraft(b)
}

func (d *DraftStore) pruneBackups(keep int) (int, error) {
	all, err := d.Backups()
	if err != nil || len(all) <= keep {
		return 0, err
	}
	removed := 0
	for _, p := range all[:len(all)-keep] {
		if err := os.Remove(p); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// WriteAutosave stores rec as a crash autosave under backups/ and returns
// its path. The regular draft is left untouched.
func (d *DraftStore) WriteAutosave(rec domain.WireframeRecord) (string, error) {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal autosave: %w", err)
	}
	if err := os.MkdirAll(d.backupsDir(), 0o755); err != nil {
		return "", fmt.Errorf("ensure backups dir: %w", err)
	}
	name := fmt.Sprintf("%s-%s.json", AutosavePrefix, time.Now().Format("20060102-150405"))
	p := filepath.Join(d.backupsDir(), name)
	if err := writeAtomic(p, append(data, '\n')); err != nil {
		return "", err
	}
	return p, nil
}

// writeAtomic writes data to a temp file next to path and renames it over
// path.
func writeAtomic(path string, data []byte) error {
	dir, base := filepath.Split(path)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", base, os.Getpid(), rand.Int()))
	if err := writeFileSync(temp, data); err != nil {
		return fmt.Errorf("write temp %s: %w", base, err)
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
	if err := os.Rename(temp, path); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace %s: %w", base, err)
	}
	return nil
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}
