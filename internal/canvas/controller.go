/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package canvas turns pointer and keyboard input on the zoomed canvas into
// design tree mutations. Intermediate drag and resize positions stay in a
// preview; only the final rectangle is committed to the model.
package canvas

import (
	"errors"
	"fmt"
	"log/slog"

	"wireframer/internal/design"
	"wireframer/internal/domain"
	"wireframer/internal/geometry"
	applog "wireframer/internal/log"
)

// State is the interaction state of the controller.
type State int

const (
	Idle State = iota
	Selected
	Dragging
	Resizing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Selected:
		return "selected"
	case Dragging:
		return "dragging"
	case Resizing:
		return "resizing"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Handle identifies one of the eight resize grips of a component.
type Handle int

const (
	HandleNone Handle = iota
	HandleN
	HandleS
	HandleE
	HandleW
	HandleNE
	HandleNW
	HandleSE
	HandleSW
)

// Handles lists the grips in drawing order.
func Handles() []Handle {
	return []Handle{HandleNW, HandleN, HandleNE, HandleE, HandleSE, HandleS, HandleSW, HandleW}
}

func (h Handle) west() bool  { return h == HandleW || h == HandleNW || h == HandleSW }
func (h Handle) east() bool  { return h == HandleE || h == HandleNE || h == HandleSE }
func (h Handle) north() bool { return h == HandleN || h == HandleNE || h == HandleNW }
func (h Handle) south() bool { return h == HandleS || h == HandleSE || h == HandleSW }

// anchor returns the canvas-space position of h on r.
func (h Handle) anchor(r geometry.Rect) geometry.Pt {
	x, y := r.X+r.W/2, r.Y+r.H/2
	if h.west() {
		x = r.X
	}
	if h.east() {
		x = r.X + r.W
	}
	if h.north() {
		y = r.Y
	}
	if h.south() {
		y = r.Y + r.H
	}
	return geometry.Pt{X: x, Y: y}
}

// Key is a keyboard key the controller reacts to.
type Key string

const (
	KeyLeft      Key = "ArrowLeft"
	KeyRight     Key = "ArrowRight"
	KeyUp        Key = "ArrowUp"
	KeyDown      Key = "ArrowDown"
	KeyDelete    Key = "Delete"
	KeyBackspace Key = "Backspace"
	KeyEscape    Key = "Escape"
)

// Modifiers carries the modifier keys held during an event.
type Modifiers struct {
	Shift bool
	Ctrl  bool
}

// Model is the part of the design model the controller drives.
type Model interface {
	Snapshot() design.Snapshot
	SelectComponent(id string) error
	ClearSelection()
	AddComponentAt(typ string, pos geometry.Pt) (domain.Component, error)
	MoveComponent(id string, r geometry.Rect) (domain.Component, error)
	DeleteComponent(id string) (bool, error)
	ClearComponents() (bool, error)
	PasteComponent(entry domain.Component, n int) (domain.Component, error)
	Reparent(id, parentID string) error
}

// Options tunes the controller.
type Options struct {
	Zoom       geometry.ZoomPolicy
	Nudge      float64
	NudgeLarge float64
	MinSize    float64
	// HandleSize is the viewport-space hit box of a resize grip.
	HandleSize float64
	Snap       geometry.SnapOptions
}

// DefaultOptions returns the shipped interaction constants.
func DefaultOptions() Options {
	return Options{
		Zoom:       geometry.DefaultZoomPolicy,
		Nudge:      1,
		NudgeLarge: 10,
		MinSize:    8,
		HandleSize: 8,
	}
}

// ErrNoSelection is returned by actions that need an active component.
var ErrNoSelection = errors.New("no component selected")

// ErrClipboardEmpty is returned by paste when nothing was copied.
var ErrClipboardEmpty = errors.New("clipboard is empty")

type gesture struct {
	id      string
	handle  Handle
	start   geometry.Pt // viewport-space pointer at gesture start
	last    geometry.Pt
	origin  geometry.Rect
	preview geometry.Rect
	moved   bool
}

// Controller is the canvas interaction state machine. It is driven by a
// single input stream and is not safe for concurrent use.
type Controller struct {
	model Model
	opts  Options
	zoom  int
	state State
	g     *gesture
	// pressed is set between pointer-down on a component and pointer-up.
	pressed bool
	guides  []geometry.GuideLine
	clip    Clipboard
	log     *slog.Logger
}

// NewController builds a controller over m.
func NewController(m Model, opts Options) *Controller {
	d := DefaultOptions()
	opts.Zoom = opts.Zoom.Normalized()
	if opts.Nudge <= 0 {
		opts.Nudge = d.Nudge
	}
	if opts.NudgeLarge <= 0 {
		opts.NudgeLarge = d.NudgeLarge
	}
	if opts.MinSize <= 0 {
		opts.MinSize = d.MinSize
	}
	if opts.HandleSize <= 0 {
		opts.HandleSize = d.HandleSize
	}
	return &Controller{
		model: m,
		opts:  opts,
		zoom:  opts.Zoom.Default,
		log:   applog.WithComponent("canvas"),
	}
}

func (c *Controller) State() State { return c.state }

func (c *Controller) Zoom() int { return c.zoom }

// Clipboard exposes the controller's clipboard.
func (c *Controller) Clipboard() *Clipboard { return &c.clip }

// Guides returns the snap guides of the current drag preview.
func (c *Controller) Guides() []geometry.GuideLine {
	return append([]geometry.GuideLine(nil), c.guides...)
}

// Preview returns the uncommitted rectangle of a drag or resize in progress.
func (c *Controller) Preview() (id string, r geometry.Rect, ok bool) {
	if c.g == nil || (c.state != Dragging && c.state != Resizing) {
		return "", geometry.Rect{}, false
	}
	return c.g.id, c.g.preview, true
}

// SetZoom clamps percent to the zoom policy. A gesture in progress is rebased
// so the committed canvas delta is unaffected by the change.
func (c *Controller) SetZoom(percent int) int {
	z := c.opts.Zoom.Clamp(percent)
	if c.g != nil && z != c.zoom {
		c.g.origin = c.g.preview
		c.g.start = c.g.last
	}
	c.zoom = z
	return z
}

func (c *Controller) ZoomIn() int  { return c.SetZoom(c.opts.Zoom.In(c.zoom)) }
func (c *Controller) ZoomOut() int { return c.SetZoom(c.opts.Zoom.Out(c.zoom)) }

// ToCanvas converts a viewport-space pointer position at the current zoom.
func (c *Controller) ToCanvas(p geometry.Pt) geometry.Pt { return geometry.PtToCanvas(p, c.zoom) }

// ViewportRect returns where a component is drawn at the current zoom.
func (c *Controller) ViewportRect(comp domain.Component) geometry.Rect {
	return geometry.RectToViewport(comp.Rect(), c.zoom)
}

func (c *Controller) screen() (domain.Screen, design.Snapshot, bool) {
	snap := c.model.Snapshot()
	s, ok := snap.SelectedScreen()
	return s, snap, ok
}

// HitTest returns the topmost component under the viewport point p.
func (c *Controller) HitTest(p geometry.Pt) (domain.Component, bool) {
	s, _, ok := c.screen()
	if !ok {
		return domain.Component{}, false
	}
	cp := c.ToCanvas(p)
	best := -1
	for i, comp := range s.Components {
		if !comp.Rect().Contains(cp) {
			continue
		}
		if best < 0 || comp.ZIndex >= s.Components[best].ZIndex {
			best = i
		}
	}
	if best < 0 {
		return domain.Component{}, false
	}
	return s.Components[best], true
}

// HandleAt returns the resize grip of the selected component under p.
func (c *Controller) HandleAt(p geometry.Pt) Handle {
	_, snap, ok := c.screen()
	if !ok {
		return HandleNone
	}
	sel, ok := snap.SelectedComponent()
	if !ok {
		return HandleNone
	}
	r := sel.Rect()
	half := c.opts.HandleSize / 2
	for _, h := range Handles() {
		a := geometry.PtToViewport(h.anchor(r), c.zoom)
		if geometry.R(a.X-half, a.Y-half, c.opts.HandleSize, c.opts.HandleSize).Contains(p) {
			return h
		}
	}
	return HandleNone
}

// PointerDown handles a press at viewport point p. Pressing a grip of the
// selected component starts a resize, pressing a component selects it and
// arms a drag, pressing empty canvas clears the selection.
func (c *Controller) PointerDown(p geometry.Pt) error {
	if c.state == Dragging || c.state == Resizing {
		return nil
	}
	if h := c.HandleAt(p); h != HandleNone {
		return c.BeginResize(h, p)
	}
	comp, ok := c.HitTest(p)
	if !ok {
		c.model.ClearSelection()
		c.reset(Idle)
		return nil
	}
	if err := c.model.SelectComponent(comp.ID); err != nil {
		return err
	}
	c.state = Selected
	c.pressed = true
	c.g = &gesture{id: comp.ID, start: p, last: p, origin: comp.Rect(), preview: comp.Rect()}
	return nil
}

// BeginResize starts resizing the selected component from grip h.
func (c *Controller) BeginResize(h Handle, p geometry.Pt) error {
	_, snap, ok := c.screen()
	if !ok {
		return design.ErrNoScreen
	}
	sel, ok := snap.SelectedComponent()
	if !ok {
		return ErrNoSelection
	}
	c.state = Resizing
	c.pressed = true
	c.g = &gesture{id: sel.ID, handle: h, start: p, last: p, origin: sel.Rect(), preview: sel.Rect()}
	return nil
}

// PointerMove updates the preview of a drag or resize. Nothing is
// committed to the model.
func (c *Controller) PointerMove(p geometry.Pt) {
	if c.g == nil || !c.pressed {
		return
	}
	c.g.last = p
	d := geometry.PtToCanvas(p.Sub(c.g.start), c.zoom)
	switch c.state {
	case Selected, Dragging:
		if d.X == 0 && d.Y == 0 && !c.g.moved {
			return
		}
		c.state = Dragging
		c.g.moved = true
		c.g.preview, c.guides = c.snap(c.g.origin.Translate(d))
	case Resizing:
		c.g.moved = true
		c.g.preview = c.resize(c.g.origin, c.g.handle, d)
	}
}

func (c *Controller) snap(r geometry.Rect) (geometry.Rect, []geometry.GuideLine) {
	if !c.opts.Snap.Enabled() {
		return r, nil
	}
	s, _, ok := c.screen()
	if !ok {
		return r, nil
	}
	anchors := make([]geometry.Rect, 0, len(s.Components))
	for _, comp := range s.Components {
		if comp.ID != c.g.id {
			anchors = append(anchors, comp.Rect())
		}
	}
	return geometry.Snap(r, anchors, c.opts.Snap)
}

func (c *Controller) resize(r geometry.Rect, h Handle, d geometry.Pt) geometry.Rect {
	minSize := c.opts.MinSize
	right, bottom := r.X+r.W, r.Y+r.H
	if h.west() {
		r.X += d.X
		r.W -= d.X
		if r.W < minSize {
			r.W = minSize
			r.X = right - minSize
		}
	}
	if h.east() {
		r.W += d.X
		if r.W < minSize {
			r.W = minSize
		}
	}
	if h.north() {
		r.Y += d.Y
		r.H -= d.Y
		if r.H < minSize {
			r.H = minSize
			r.Y = bottom - minSize
		}
	}
	if h.south() {
		r.H += d.Y
		if r.H < minSize {
			r.H = minSize
		}
	}
	return r
}

// PointerUp ends a gesture and commits the final preview, if any.
func (c *Controller) PointerUp(p geometry.Pt) error {
	if c.g == nil || !c.pressed {
		return nil
	}
	c.PointerMove(p)
	g, st := c.g, c.state
	c.pressed = false
	c.guides = nil
	if (st != Dragging && st != Resizing) || !g.moved {
		c.state = Selected
		return nil
	}
	r := g.preview.Round(3)
	if _, err := c.model.MoveComponent(g.id, r); err != nil {
		c.log.Warn("commit failed", slog.String("id", g.id), slog.Any("err", err))
		c.state = Selected
		return err
	}
	c.log.Debug("gesture committed", slog.String("state", st.String()), slog.String("id", g.id),
		slog.Float64("x", r.X), slog.Float64("y", r.Y), slog.Float64("w", r.W), slog.Float64("h", r.H))
	c.state = Selected
	c.g = &gesture{id: g.id, origin: r, preview: r}
	return nil
}

// Drop places a new archetype dragged from the library at viewport point p.
// The component is created at root level and selected.
func (c *Controller) Drop(typ string, p geometry.Pt) (domain.Component, error) {
	comp, err := c.model.AddComponentAt(typ, c.ToCanvas(p))
	if err != nil {
		return domain.Component{}, err
	}
	c.reset(Idle)
	return comp, nil
}

func (c *Controller) reset(s State) {
	c.state = s
	c.g = nil
	c.pressed = false
	c.guides = nil
}

func (c *Controller) selected() (domain.Component, error) {
	_, snap, ok := c.screen()
	if !ok {
		return domain.Component{}, design.ErrNoScreen
	}
	sel, ok := snap.SelectedComponent()
	if !ok {
		return domain.Component{}, ErrNoSelection
	}
	return sel, nil
}

// KeyDown handles a key press. Arrow keys nudge the selected component and
// commit at once; Delete and Backspace delete it; Escape aborts any gesture
// and clears the selection.
func (c *Controller) KeyDown(k Key, mods Modifiers) error {
	if k == KeyEscape {
		c.model.ClearSelection()
		c.reset(Idle)
		return nil
	}
	if c.state == Dragging || c.state == Resizing {
		return nil
	}
	step := c.opts.Nudge
	if mods.Shift {
		step = c.opts.NudgeLarge
	}
	var d geometry.Pt
	switch k {
	case KeyLeft:
		d.X = -step
	case KeyRight:
		d.X = step
	case KeyUp:
		d.Y = -step
	case KeyDown:
		d.Y = step
	case KeyDelete, KeyBackspace:
		_, err := c.DeleteSelected()
		return err
	default:
		return nil
	}
	sel, err := c.selected()
	if err != nil {
		return err
	}
	_, err = c.model.MoveComponent(sel.ID, sel.Rect().Translate(d))
	return err
}

// DeleteSelected deletes the selected component through the model's
// confirmation.
func (c *Controller) DeleteSelected() (bool, error) {
	sel, err := c.selected()
	if err != nil {
		return false, err
	}
	ok, err := c.model.DeleteComponent(sel.ID)
	if ok {
		c.reset(Idle)
	}
	return ok, err
}

// Copy snapshots the selected component into the clipboard.
func (c *Controller) Copy() error {
	sel, err := c.selected()
	if err != nil {
		return err
	}
	c.clip.Copy(sel)
	c.log.Debug("copied", slog.String("id", sel.ID), slog.String("label", sel.Label))
	return nil
}

// Paste inserts the clipboard entry as a new root-level component. It does
// not need a selection. Each paste of the same entry lands one paste offset
// further from the previous one.
func (c *Controller) Paste() (domain.Component, error) {
	entry, ok := c.clip.Entry()
	if !ok {
		return domain.Component{}, ErrClipboardEmpty
	}
	comp, err := c.model.PasteComponent(entry, c.clip.Pastes()+1)
	if err != nil {
		return domain.Component{}, err
	}
	c.clip.next()
	c.reset(Selected)
	return comp, nil
}
