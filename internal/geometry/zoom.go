/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geometry

// ZoomPolicy bounds the zoom percentage and defines the zoom in/out step.
type ZoomPolicy struct {
	Min     int
	Max     int
	Step    int
	Default int
}

// DefaultZoomPolicy clamps to [50, 200] in steps of 10 starting at 100.
var DefaultZoomPolicy = ZoomPolicy{Min: 50, Max: 200, Step: 10, Default: 100}

// Normalized fills zero or inconsistent fields from DefaultZoomPolicy.
func (p ZoomPolicy) Normalized() ZoomPolicy {
	if p.Min <= 0 {
		p.Min = DefaultZoomPolicy.Min
	}
	if p.Max < p.Min {
		p.Max = max(DefaultZoomPolicy.Max, p.Min)
	}
	if p.Step <= 0 {
		p.Step = DefaultZoomPolicy.Step
	}
	if p.Default < p.Min || p.Default > p.Max {
		p.Default = min(max(DefaultZoomPolicy.Default, p.Min), p.Max)
	}
	return p
}

// Clamp bounds percent to [Min, Max].
func (p ZoomPolicy) Clamp(percent int) int {
	if percent < p.Min {
		return p.Min
	}
	if percent > p.Max {
		return p.Max
	}
	return percent
}

// In returns the next zoom step above percent.
func (p ZoomPolicy) In(percent int) int { return p.Clamp(percent + p.Step) }

// Out returns the next zoom step below percent.
func (p ZoomPolicy) Out(percent int) int { return p.Clamp(percent - p.Step) }

// The zoom factor is percent/100. Multiplying before dividing keeps typical
// pixel deltas exact (30px at 60% is exactly 50 units).

// ToViewport converts a canvas-space scalar to viewport pixels.
func ToViewport(v float64, percent int) float64 {
	return v * float64(percent) / 100
}

// ToCanvas converts a viewport-space scalar to canvas units.
func ToCanvas(v float64, percent int) float64 {
	if percent == 0 {
		return v
	}
	return v * 100 / float64(percent)
}

func PtToViewport(p Pt, percent int) Pt {
	return Pt{ToViewport(p.X, percent), ToViewport(p.Y, percent)}
}

func PtToCanvas(p Pt, percent int) Pt {
	return Pt{ToCanvas(p.X, percent), ToCanvas(p.Y, percent)}
}

func RectToViewport(r Rect, percent int) Rect {
	return Rect{
		X: ToViewport(r.X, percent),
		Y: ToViewport(r.Y, percent),
		W: ToViewport(r.W, percent),
		H: ToViewport(r.H, percent),
	}
}

func RectToCanvas(r Rect, percent int) Rect {
	return Rect{
		X: ToCanvas(r.X, percent),
		Y: ToCanvas(r.Y, percent),
		W: ToCanvas(r.W, percent),
		H: ToCanvas(r.H, percent),
	}
}
