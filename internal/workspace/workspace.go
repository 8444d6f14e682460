/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package workspace opens a wireframe directory and wires the design model,
// the canvas controller, persistence and the host collaborators together.
package workspace

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"wireframer/internal/backend"
	"wireframer/internal/canvas"
	"wireframer/internal/collab"
	"wireframer/internal/config"
	"wireframer/internal/design"
	"wireframer/internal/domain"
	"wireframer/internal/export"
	"wireframer/internal/geometry"
	applog "wireframer/internal/log"
	"wireframer/internal/registry"
	"wireframer/internal/storage"
)

// RequirementsFileName is the optional requirement catalog in a workspace.
const RequirementsFileName = "requirements.json"

// Options injects collaborators. Nil fields get defaults derived from Config.
type Options struct {
	Config       config.AppConfig
	Confirmer    collab.Confirmer
	Signals      collab.Signals
	User         collab.UserContext
	Requirements collab.RequirementCatalog
	// Checkpoints replaces the store chosen from Config.
	Checkpoints storage.CheckpointStore
	// In and Out are used by the "prompt" confirmer. Default stdin/stderr.
	In  io.Reader
	Out io.Writer
}

// Workspace is one open wireframe directory.
type Workspace struct {
	root    string
	cfg     config.AppConfig
	catalog *registry.Catalog
	model   *design.Model
	ctrl    *canvas.Controller
	gw      *storage.Gateway

	previews  *storage.PreviewCache
	previewDB *sql.DB

	confirm collab.Confirmer
	signals collab.Signals
	user    collab.UserContext
	reqs    collab.RequirementCatalog

	source   storage.Source
	loadedAt time.Time
	warnings []string
}

// Open prepares root, loads the persisted screens (or the built-in defaults)
// and returns a ready workspace.
func Open(ctx context.Context, root string, opts Options) (*Workspace, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace: %w", err)
	}
	ctx = applog.WithWorkspace(ctx, abs)
	l := applog.WithOperation(applog.WithComponent("workspace"), "open")
	cfg := opts.Config
	if cfg.ConfigVersion == 0 {
		cfg = config.Defaults()
	}
	if err := storage.InitWorkspace(abs); err != nil {
		return nil, err
	}

	catalog := registry.Builtin()
	if ext := strings.TrimSpace(cfg.Registry.Extensions); ext != "" {
		c, err := registry.LoadExtensions(catalog, ext)
		if err != nil {
			return nil, fmt.Errorf("load registry extensions: %w", err)
		}
		catalog = c
	}

	w := &Workspace{
		root:    abs,
		cfg:     cfg,
		catalog: catalog,
		confirm: opts.Confirmer,
		signals: opts.Signals,
		user:    opts.User,
		reqs:    opts.Requirements,
	}
	if w.confirm == nil {
		w.confirm = ConfirmerFor(cfg.General.Confirm, opts.In, opts.Out)
	}
	if w.signals == nil {
		w.signals = collab.SignalFuncs{}
	}
	if w.user == nil {
		w.user = collab.NewUserSession(domain.User{Name: currentUserName()})
	}
	if w.reqs == nil {
		reqs, err := LoadRequirements(abs)
		if err != nil {
			w.warnings = append(w.warnings, err.Error())
		}
		w.reqs = reqs
	}

	cs := opts.Checkpoints
	if cs == nil {
		cs, err = w.openCheckpoints(ctx)
		if err != nil {
			return nil, err
		}
	}
	if sq, ok := cs.(*storage.SQLiteCheckpoints); ok {
		w.previews = storage.NewPreviewCache(sq.DB(), cfg.Storage.PreviewMaxBytes)
	}
	w.gw = storage.NewGateway(storage.NewDraftStore(abs, cfg.Storage.KeepBackups), cs, storage.GatewayOptions{
		ProjectLabel:    cfg.General.ProjectLabel,
		KeepCheckpoints: cfg.Storage.KeepCheckpoints,
	})

	policy := PolicyFrom(cfg.Canvas)
	w.model = design.NewModel(nil, "", design.Options{
		Catalog:      catalog,
		Confirmer:    w.confirm,
		Requirements: w.reqs,
		Policy:       &policy,
	})
	w.ctrl = canvas.NewController(w.model, ControllerOptionsFrom(cfg.Canvas))

	if err := w.Load(ctx); err != nil {
		_ = w.Close()
		return nil, err
	}
	l.InfoContext(ctx, "workspace open", slog.String("source", string(w.source)), slog.Int("warnings", len(w.warnings)))
	return w, nil
}

func (w *Workspace) openCheckpoints(ctx context.Context) (storage.CheckpointStore, error) {
	if !w.cfg.Backend.Enabled {
		return storage.OpenSQLiteCheckpoints(w.root)
	}
	pw, err := config.BackendPassword()
	if err != nil && !errors.Is(err, config.ErrNoSecret) {
		applog.WithComponent("workspace").WarnContext(ctx, "keyring unavailable", slog.Any("err", err))
	}
	dsn, err := w.cfg.Backend.ConnString(pw)
	if err != nil {
		return nil, err
	}
	timeout := time.Duration(w.cfg.Backend.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	cs, err := backend.OpenPGCheckpoints(cctx, dsn, w.root)
	if err != nil {
		return nil, fmt.Errorf("open backend checkpoints: %w", err)
	}
	// thumbnails stay local
	db, err := storage.OpenSessionDB(w.root)
	if err == nil {
		w.previewDB = db
		w.previews = storage.NewPreviewCache(db, w.cfg.Storage.PreviewMaxBytes)
	}
	return cs, nil
}

// Load replaces the model content with the persisted screens. Missing or
// unusable records fall back to the default screens and add a warning.
func (w *Workspace) Load(ctx context.Context) error {
	l := applog.WithOperation(applog.WithComponent("workspace"), "load")
	loaded, err := w.gw.Load(ctx)
	w.warnings = append(w.warnings, loaded.Warnings...)
	switch {
	case err == nil && len(loaded.Screens) > 0:
		w.model.Replace(loaded.Screens, loaded.SelectedScreenID)
		w.source = loaded.Source
		w.loadedAt = loaded.Timestamp
		return nil
	case err == nil, errors.Is(err, storage.ErrNoRecord):
		l.InfoContext(ctx, "no saved wireframe, using defaults")
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		l.WarnContext(ctx, "load failed, using defaults", slog.Any("err", err))
		w.warnings = append(w.warnings, fmt.Sprintf("saved wireframe could not be loaded: %v", err))
	}
	w.model.Replace(design.DefaultScreens(design.NewID), "")
	w.source = ""
	w.loadedAt = time.Time{}
	return nil
}

// Save persists the current screens and selection.
func (w *Workspace) Save(ctx context.Context) error {
	snap := w.model.Snapshot()
	if err := w.gw.Save(applog.WithWorkspace(ctx, w.root), snap.Screens, snap.SelectedScreenID); err != nil {
		return err
	}
	w.source = storage.SourceDraft
	if w.gw.Checkpoints() != nil {
		w.source = storage.SourceCheckpoint
	}
	return nil
}

// SaveAndProceed asks for confirmation, saves, then signals the host.
// Declining returns (false, nil) and changes nothing.
func (w *Workspace) SaveAndProceed(ctx context.Context) (bool, error) {
	if !w.confirm.Confirm("Save the wireframe and continue to the next step?") {
		return false, nil
	}
	if err := w.Save(ctx); err != nil {
		return false, err
	}
	w.signals.SaveCompleted()
	w.signals.ProceedToNextStep()
	return true, nil
}

// Autosave writes an emergency copy of the in-memory screens.
func (w *Workspace) Autosave() (string, error) {
	return w.gw.Autosave(w.model.Snapshot().Screens)
}

// Thumbnail renders a cached PNG of a screen.
func (w *Workspace) Thumbnail(ctx context.Context, screenID string, scale float64) ([]byte, error) {
	for _, s := range w.model.Snapshot().Screens {
		if s.ID == screenID {
			return export.Thumbnail(ctx, w.previews, s, scale)
		}
	}
	return nil, fmt.Errorf("screen %q: %w", screenID, design.ErrNoScreen)
}

// Close releases the databases.
func (w *Workspace) Close() error {
	var errs []error
	if w.gw != nil {
		errs = append(errs, w.gw.Close())
	}
	if w.previewDB != nil {
		errs = append(errs, w.previewDB.Close())
	}
	return errors.Join(errs...)
}

func (w *Workspace) Dir() string                             { return w.root }
func (w *Workspace) Config() config.AppConfig                { return w.cfg }
func (w *Workspace) Catalog() *registry.Catalog              { return w.catalog }
func (w *Workspace) Model() *design.Model                    { return w.model }
func (w *Workspace) Controller() *canvas.Controller          { return w.ctrl }
func (w *Workspace) Gateway() *storage.Gateway               { return w.gw }
func (w *Workspace) User() collab.UserContext                { return w.user }
func (w *Workspace) Requirements() collab.RequirementCatalog { return w.reqs }

// Source reports where the current screens came from; empty means defaults.
func (w *Workspace) Source() storage.Source { return w.source }

// LoadedAt is the timestamp of the record that was restored.
func (w *Workspace) LoadedAt() time.Time { return w.loadedAt }

// Warnings lists recoverable problems met while opening.
func (w *Workspace) Warnings() []string { return append([]string(nil), w.warnings...) }

// PolicyFrom maps canvas config to design constants.
func PolicyFrom(c config.CanvasConfig) design.Policy {
	return design.Policy{
		ZBaseline:       c.ZBaseline,
		ZStep:           c.ZStep,
		DefaultPosition: geometry.Pt{X: c.DefaultX, Y: c.DefaultY},
		PasteOffset:     geometry.Pt{X: c.PasteOffsetX, Y: c.PasteOffsetY},
		RoundPlaces:     design.DefaultPolicy().RoundPlaces,
	}
}

// ControllerOptionsFrom maps canvas config to interaction constants.
func ControllerOptionsFrom(c config.CanvasConfig) canvas.Options {
	o := canvas.DefaultOptions()
	if c.ZoomMin > 0 && c.ZoomMax >= c.ZoomMin {
		o.Zoom = geometry.ZoomPolicy{Min: c.ZoomMin, Max: c.ZoomMax, Step: c.ZoomStep, Default: c.ZoomDefault}
		if o.Zoom.Step <= 0 {
			o.Zoom.Step = geometry.DefaultZoomPolicy.Step
		}
		if o.Zoom.Default < c.ZoomMin || o.Zoom.Default > c.ZoomMax {
			o.Zoom.Default = c.ZoomMin
		}
	}
	if c.Nudge > 0 {
		o.Nudge = c.Nudge
	}
	if c.NudgeLarge > 0 {
		o.NudgeLarge = c.NudgeLarge
	}
	if c.MinSize > 0 {
		o.MinSize = c.MinSize
	}
	if c.HandleSize > 0 {
		o.HandleSize = c.HandleSize
	}
	if c.SnapThreshold > 0 {
		o.Snap = geometry.SnapOptions{Threshold: c.SnapThreshold, SnapToEdges: true, SnapToCenters: true}
	}
	return o
}

// ConfirmerFor builds the confirmer named by mode: "always", "never" or
// "prompt" (the default).
func ConfirmerFor(mode string, in io.Reader, out io.Writer) collab.Confirmer {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "always", "yes":
		return collab.AlwaysConfirm
	case "never", "no":
		return collab.NeverConfirm
	}
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stderr
	}
	return &collab.PromptConfirmer{In: in, Out: out}
}

// LoadRequirements reads requirements.json from root. A missing file yields
// an empty catalog.
func LoadRequirements(root string) (collab.StaticRequirements, error) {
	b, err := os.ReadFile(filepath.Join(root, RequirementsFileName))
	if errors.Is(err, os.ErrNotExist) {
		return collab.StaticRequirements{}, nil
	}
	if err != nil {
		return collab.StaticRequirements{}, fmt.Errorf("read requirements: %w", err)
	}
	var reqs []domain.Requirement
	if err := json.Unmarshal(b, &reqs); err != nil {
		return collab.StaticRequirements{}, fmt.Errorf("parse requirements: %w", err)
	}
	return collab.StaticRequirements(reqs), nil
}

func currentUserName() string {
	for _, k := range []string{"WF_USER", "USER", "USERNAME"} {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return "designer"
}
