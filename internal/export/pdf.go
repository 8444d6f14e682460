/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	"wireframer/internal/domain"
	applog "wireframer/internal/log"
)

// PDFOptions controls PDF export behavior. Units are points; one canvas
// unit maps to one point.
type PDFOptions struct {
	Title   string
	Author  string
	Margin  float64
	FontPt  float64
	Screens []string // screen ids; empty exports all
}

// ExportPDF writes screens to a single PDF with one page per screen.
func ExportPDF(screens []domain.Screen, outPath string, opt PDFOptions) error {
	l := applog.WithOperation(applog.WithComponent("export"), "pdf")
	sel := pickScreens(screens, opt.Screens)
	if len(sel) == 0 {
		return errors.New("no screens to export")
	}
	fontPt := opt.FontPt
	if fontPt <= 0 {
		fontPt = 9
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "pt", Size: gofpdf.SizeType{Wd: emptyCanvas.W, Ht: emptyCanvas.H}})
	if opt.Title != "" {
		pdf.SetTitle(opt.Title, true)
	}
	author := opt.Author
	if author == "" {
		author = "Wireframer"
	}
	pdf.SetAuthor(author, true)
	pdf.SetAutoPageBreak(false, 0)

	for _, s := range sel {
		sh := BuildSheet(s, opt.Margin)
		pdf.AddPageFormat("", gofpdf.SizeType{Wd: sh.Page.W, Ht: sh.Page.H})

		pdf.SetFont("Helvetica", "B", 12)
		setTextColor(pdf, textColor)
		pdf.Text(sh.Offset.X, defaultMarginOr(opt.Margin)+12, sh.Title())

		pdf.SetFont("Helvetica", "", fontPt)
		pdf.SetLineWidth(0.8)
		for _, c := range sh.Items {
			r := sh.Place(c)
			setFillColor(pdf, FillFor(c.Category))
			setDrawColor(pdf, strokeColor)
			pdf.Rect(r.X, r.Y, r.W, r.H, "FD")
			pdf.ClipRect(r.X, r.Y, r.W, r.H, false)
			pdf.Text(r.X+4, r.Y+4+fontPt, Caption(c))
			pdf.ClipEnd()
		}
	}

	if err := ensureDir(filepath.Dir(outPath)); err != nil {
		return err
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	l.Info("pdf written", slog.String("path", outPath), slog.Int("pages", len(sel)))
	return nil
}

func defaultMarginOr(m float64) float64 {
	if m <= 0 {
		return defaultMargin
	}
	return m
}

func pickScreens(screens []domain.Screen, ids []string) []domain.Screen {
	if len(ids) == 0 {
		return screens
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []domain.Screen
	for _, s := range screens {
		if want[s.ID] {
			out = append(out, s)
		}
	}
	return out
}

func setDrawColor(pdf *gofpdf.Fpdf, c color.RGBA) {
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
}

func setFillColor(pdf *gofpdf.Fpdf, c color.RGBA) {
	pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}

func setTextColor(pdf *gofpdf.Fpdf, c color.RGBA) {
	pdf.SetTextColor(int(c.R), int(c.G), int(c.B))
}
