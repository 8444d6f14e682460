/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geometry

// Snapping helpers for the drag preview. UI-agnostic and deterministic.

import "math"

const (
	GuideVertical   = "vertical"
	GuideHorizontal = "horizontal"
)

// SnapOptions controls which guide candidates are considered and the threshold.
// A Threshold of zero or less disables snapping entirely.
type SnapOptions struct {
	Threshold     float64
	SnapToEdges   bool
	SnapToCenters bool
}

// Enabled reports whether any snapping would happen with these options.
func (o SnapOptions) Enabled() bool {
	return o.Threshold > 0 && (o.SnapToEdges || o.SnapToCenters)
}

// GuideLine describes a visual guide produced by an alignment.
// Kind is "edge" or "center"; Position is the x (vertical) or y (horizontal)
// coordinate of the guide.
type GuideLine struct {
	Orientation string
	Kind        string
	Position    float64
	From        Pt
	To          Pt
}

type candidate struct {
	delta float64
	dist  float64
	guide GuideLine
	ok    bool
}

func (c *candidate) consider(delta, threshold float64, g GuideLine) {
	d := math.Abs(delta)
	if d > threshold {
		return
	}
	if !c.ok || d < c.dist {
		*c = candidate{delta: delta, dist: d, guide: g, ok: true}
	}
}

// Snap aligns moving against anchors independently on X and Y and returns
// the adjusted rect plus the guides to draw. Positions are rounded to 3 places.
func Snap(moving Rect, anchors []Rect, opts SnapOptions) (Rect, []GuideLine) {
	if !opts.Enabled() || len(anchors) == 0 {
		return moving, nil
	}
	var bx, by candidate
	mL, mR, mCX := moving.X, moving.X+moving.W, moving.X+moving.W/2
	mT, mB, mCY := moving.Y, moving.Y+moving.H, moving.Y+moving.H/2

	for _, a := range anchors {
		aL, aR, aCX := a.X, a.X+a.W, a.X+a.W/2
		aT, aB, aCY := a.Y, a.Y+a.H, a.Y+a.H/2
		if opts.SnapToEdges {
			bx.consider(mL-aL, opts.Threshold, vertical(aL, moving, a, "edge"))
			bx.consider(mR-aR, opts.Threshold, vertical(aR, moving, a, "edge"))
			bx.consider(mL-aR, opts.Threshold, vertical(aR, moving, a, "edge"))
			bx.consider(mR-aL, opts.Threshold, vertical(aL, moving, a, "edge"))
			by.consider(mT-aT, opts.Threshold, horizontal(aT, moving, a, "edge"))
			by.consider(mB-aB, opts.Threshold, horizontal(aB, moving, a, "edge"))
			by.consider(mT-aB, opts.Threshold, horizontal(aB, moving, a, "edge"))
			by.consider(mB-aT, opts.Threshold, horizontal(aT, moving, a, "edge"))
		}
		if opts.SnapToCenters {
			bx.consider(mCX-aCX, opts.Threshold, vertical(aCX, moving, a, "center"))
			by.consider(mCY-aCY, opts.Threshold, horizontal(aCY, moving, a, "center"))
		}
	}

	snapped := moving
	var guides []GuideLine
	if bx.ok {
		snapped.X = FloatRound(moving.X-bx.delta, 3)
		guides = append(guides, bx.guide)
	}
	if by.ok {
		snapped.Y = FloatRound(moving.Y-by.delta, 3)
		guides = append(guides, by.guide)
	}
	return snapped, guides
}

func vertical(x float64, a, b Rect, kind string) GuideLine {
	x = FloatRound(x, 3)
	return GuideLine{
		Orientation: GuideVertical,
		Kind:        kind,
		Position:    x,
		From:        Pt{x, math.Min(a.Y, b.Y)},
		To:          Pt{x, math.Max(a.Y+a.H, b.Y+b.H)},
	}
}

func horizontal(y float64, a, b Rect, kind string) GuideLine {
	y = FloatRound(y, 3)
	return GuideLine{
		Orientation: GuideHorizontal,
		Kind:        kind,
		Position:    y,
		From:        Pt{math.Min(a.X, b.X), y},
		To:          Pt{math.Max(a.X+a.W, b.X+b.W), y},
	}
}
