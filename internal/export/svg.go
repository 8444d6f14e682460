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
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"wireframer/internal/domain"
)

// SVGOptions controls vector export.
type SVGOptions struct {
	Margin  float64
	Screens []string
}

// RenderSVG returns the SVG document for one screen. Every component becomes
// a <g> carrying its id, type and iaCode as data attributes.
func RenderSVG(s domain.Screen, opt SVGOptions) ([]byte, error) {
	sh := BuildSheet(s, opt.Margin)
	var buf bytes.Buffer
	var werr error
	wf := func(format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(&buf, format, args...)
	}

	wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	wf("<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\" width=\"%g\" height=\"%g\" viewBox=\"0 0 %g %g\">\n", sh.Page.W, sh.Page.H, sh.Page.W, sh.Page.H)
	wf("  <title>%s</title>\n", escText(sh.Title()))
	wf("  <rect x=\"0\" y=\"0\" width=\"%g\" height=\"%g\" fill=\"#ffffff\"/>\n", sh.Page.W, sh.Page.H)
	wf("  <text x=\"%g\" y=\"%g\" font-family=\"Helvetica, Arial, sans-serif\" font-size=\"12\" font-weight=\"bold\" fill=\"%s\">%s</text>\n",
		sh.Offset.X, defaultMarginOr(opt.Margin)+12, svgColor(textColor), escText(sh.Title()))

	for _, c := range sh.Items {
		r := sh.Place(c)
		wf("  <g id=\"%s\" data-type=\"%s\" data-ia-code=\"%s\" data-z=\"%d\">\n", escAttr(c.ID), escAttr(c.Type), escAttr(c.IACode), c.ZIndex)
		wf("    <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" fill=\"%s\" stroke=\"%s\" stroke-width=\"1\"/>\n",
			r.X, r.Y, r.W, r.H, svgColor(FillFor(c.Category)), svgColor(strokeColor))
		wf("    <text x=\"%g\" y=\"%g\" font-family=\"Helvetica, Arial, sans-serif\" font-size=\"10\" fill=\"%s\">%s</text>\n",
			r.X+4, r.Y+14, svgColor(textColor), escText(Caption(c)))
		wf("  </g>\n")
	}
	wf("</svg>\n")
	if werr != nil {
		return nil, fmt.Errorf("build svg: %w", werr)
	}
	return buf.Bytes(), nil
}

// ExportSVG writes one <iaCode>.svg per screen into outDir.
func ExportSVG(screens []domain.Screen, outDir string, opt SVGOptions) ([]string, error) {
	if err := ensureDir(outDir); err != nil {
		return nil, err
	}
	var out []string
	for _, s := range pickScreens(screens, opt.Screens) {
		b, err := RenderSVG(s, opt)
		if err != nil {
			return out, err
		}
		name := filepath.Join(outDir, FileBase(s)+".svg")
		if err := os.WriteFile(name, b, 0o644); err != nil {
			return out, fmt.Errorf("write svg: %w", err)
		}
		out = append(out, name)
	}
	return out, nil
}

func svgColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

var (
	attrEscaper = strings.NewReplacer("&", "&amp;", "\"", "&quot;", "<", "&lt;", "\n", " ", "\r", "")
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
)

func escAttr(s string) string { return attrEscaper.Replace(s) }

func escText(s string) string { return textEscaper.Replace(s) }
