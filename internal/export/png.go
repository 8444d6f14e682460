/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"wireframer/internal/domain"
	"wireframer/internal/storage"
)

// PNGOptions controls raster export. Scale is pixels per canvas unit
// (default 1).
type PNGOptions struct {
	Scale   float64
	Margin  float64
	Screens []string
}

func (o PNGOptions) scale() float64 {
	if o.Scale <= 0 {
		return 1
	}
	return o.Scale
}

// RenderPNG rasterizes one screen.
func RenderPNG(s domain.Screen, opt PNGOptions) *image.RGBA {
	sh := BuildSheet(s, opt.Margin)
	k := opt.scale()
	px := func(v float64) int { return int(math.Round(v * k)) }

	img := image.NewRGBA(image.Rect(0, 0, px(sh.Page.W), px(sh.Page.H)))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{255, 255, 255, 255}}, image.Point{}, draw.Src)

	face := basicfont.Face7x13
	drawLabel(img, face, px(sh.Offset.X), px(defaultMarginOr(opt.Margin))+13, sh.Title(), img.Bounds())

	for _, c := range sh.Items {
		r := sh.Place(c)
		x0, y0 := px(r.X), px(r.Y)
		x1, y1 := px(r.X+r.W)-1, px(r.Y+r.H)-1
		fillRect(img, x0, y0, x1, y1, FillFor(c.Category))
		strokeRect(img, x0, y0, x1, y1, strokeColor)
		clip := image.Rect(x0+1, y0+1, x1, y1)
		drawLabel(img, face, x0+4, y0+4+face.Ascent, Caption(c), clip)
	}
	return img
}

// EncodePNG renders s and writes it as PNG to w.
func EncodePNG(w io.Writer, s domain.Screen, opt PNGOptions) error {
	if err := png.Encode(w, RenderPNG(s, opt)); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// ExportPNG writes one <iaCode>.png per screen into outDir and returns the
// paths written.
func ExportPNG(screens []domain.Screen, outDir string, opt PNGOptions) ([]string, error) {
	if err := ensureDir(outDir); err != nil {
		return nil, err
	}
	var out []string
	for _, s := range pickScreens(screens, opt.Screens) {
		var buf bytes.Buffer
		if err := EncodePNG(&buf, s, opt); err != nil {
			return out, err
		}
		name := filepath.Join(outDir, FileBase(s)+".png")
		if err := os.WriteFile(name, buf.Bytes(), 0o644); err != nil {
			return out, fmt.Errorf("write png: %w", err)
		}
		out = append(out, name)
	}
	return out, nil
}

// Thumbnail returns the PNG of s at scale, served from the preview cache when
// the screen has not changed since the last render.
func Thumbnail(ctx context.Context, cache *storage.PreviewCache, s domain.Screen, scale float64) ([]byte, error) {
	opt := PNGOptions{Scale: scale}
	sh := BuildSheet(s, 0)
	k := opt.scale()
	w, h := int(math.Round(sh.Page.W*k)), int(math.Round(sh.Page.H*k))
	gen := func(context.Context) ([]byte, error) {
		var buf bytes.Buffer
		if err := EncodePNG(&buf, s, opt); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	if cache == nil {
		return gen(ctx)
	}
	return cache.GetOrCreate(ctx, s, w, h, gen)
}

func drawLabel(img *image.RGBA, face font.Face, x, y int, text string, clip image.Rectangle) {
	dst := img.SubImage(clip).(*image.RGBA)
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(textColor),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// strokeRect draws a 1px axis-aligned rectangle border inclusive of endpoints.
func strokeRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y0, col)
		img.SetRGBA(x, y1, col)
	}
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x0, y, col)
		img.SetRGBA(x1, y, col)
	}
}

func fillRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	draw.Draw(img, image.Rect(x0, y0, x1+1, y1+1), &image.Uniform{C: col}, image.Point{}, draw.Src)
}
