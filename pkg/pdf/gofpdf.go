package pdf

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const fontFamily = "Helvetica"

// glyphs missing from cp1252 that show up in school documents.
var cp1252Fallbacks = strings.NewReplacer("≥", ">=", "≤", "<=", "✓", "x")

// Metadata is written into the PDF info dictionary.
type Metadata struct {
	Title   string
	Author  string
	Subject string
}

// GofpdfSink draws onto a gofpdf document using the core Helvetica font.
type GofpdfSink struct {
	pdf    *gofpdf.Fpdf
	tr     func(string) string
	images int
}

// NewGofpdfSink prepares an empty document. Page breaks are driven by the
// Canvas, so gofpdf's own auto break is disabled.
func NewGofpdfSink(geo Geometry, meta Metadata) *GofpdfSink {
	doc := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: geo.Width, Ht: geo.Height},
	})
	doc.SetMargins(geo.MarginLeft, geo.MarginTop, geo.MarginRight)
	doc.SetAutoPageBreak(false, geo.MarginBottom)
	doc.SetCreator("sma-records-api", true)
	if meta.Title != "" {
		doc.SetTitle(meta.Title, true)
	}
	if meta.Author != "" {
		doc.SetAuthor(meta.Author, true)
	}
	if meta.Subject != "" {
		doc.SetSubject(meta.Subject, true)
	}
	doc.SetFont(fontFamily, "", 10)
	return &GofpdfSink{pdf: doc, tr: doc.UnicodeTranslatorFromDescriptor("")}
}

func (s *GofpdfSink) text(raw string) string {
	return s.tr(cp1252Fallbacks.Replace(raw))
}

// AddPage starts a new page.
func (s *GofpdfSink) AddPage() { s.pdf.AddPage() }

// SetFont switches the Helvetica style and size.
func (s *GofpdfSink) SetFont(style string, size float64) {
	s.pdf.SetFont(fontFamily, style, size)
}

// SetTextColor sets the colour used by Cell.
func (s *GofpdfSink) SetTextColor(c Color) { s.pdf.SetTextColor(c.R, c.G, c.B) }

// SetFillColor sets the colour of filled cells and rectangles.
func (s *GofpdfSink) SetFillColor(c Color) { s.pdf.SetFillColor(c.R, c.G, c.B) }

// SetDrawColor sets the colour of lines and borders.
func (s *GofpdfSink) SetDrawColor(c Color) { s.pdf.SetDrawColor(c.R, c.G, c.B) }

// SetLineWidth sets the stroke width in millimetres.
func (s *GofpdfSink) SetLineWidth(w float64) { s.pdf.SetLineWidth(w) }

// Rect draws an outlined or filled rectangle.
func (s *GofpdfSink) Rect(x, y, w, h float64, fill bool) {
	style := "D"
	if fill {
		style = "F"
	}
	s.pdf.Rect(x, y, w, h, style)
}

// Line draws a straight segment.
func (s *GofpdfSink) Line(x1, y1, x2, y2 float64) { s.pdf.Line(x1, y1, x2, y2) }

// Cell writes single-line text in a box at an absolute position.
func (s *GofpdfSink) Cell(x, y, w, h float64, text string, align Align, fill, border bool) {
	borderStr := ""
	if border {
		borderStr = "1"
	}
	s.pdf.SetXY(x, y)
	s.pdf.CellFormat(w, h, s.text(text), borderStr, 0, string(align), fill, 0, "")
}

// StringWidth measures text in the current font, after cp1252 translation.
func (s *GofpdfSink) StringWidth(text string) float64 {
	return s.pdf.GetStringWidth(s.text(text))
}

// Image registers and draws the raster. A decode failure is cleared so the
// rest of the document still renders.
func (s *GofpdfSink) Image(img *Image, x, y, h float64) bool {
	if img == nil || len(img.Data) == 0 {
		return false
	}
	s.images++
	name := fmt.Sprintf("img-%d", s.images)
	opts := gofpdf.ImageOptions{ImageType: img.Format}
	s.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.Data))
	if s.pdf.Err() {
		s.pdf.ClearError()
		return false
	}
	s.pdf.ImageOptions(name, x, y, 0, h, false, opts, 0, "")
	return !s.pdf.Err()
}

// Output writes the finished document.
func (s *GofpdfSink) Output(w io.Writer) error {
	if err := s.pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}
