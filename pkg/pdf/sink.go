// Package pdf holds the page layout primitives used by the document
// renderers. Drawing goes through a Sink so layouts can be exercised
// without producing a real PDF.
package pdf

import "io"

// Color is an RGB triple in the 0-255 range.
type Color struct {
	R, G, B int
}

// Align mirrors the single-letter alignment codes understood by gofpdf.
type Align string

const (
	AlignLeft   Align = "L"
	AlignCenter Align = "C"
	AlignRight  Align = "R"
)

// Font styles.
const (
	StyleRegular = ""
	StyleBold    = "B"
	StyleItalic  = "I"
)

// Image is an in-memory raster ready to be embedded.
type Image struct {
	Data   []byte
	Format string // PNG or JPG
}

// Sink receives low-level drawing operations. Coordinates are millimetres
// from the top-left corner of the current page.
type Sink interface {
	AddPage()
	SetFont(style string, size float64)
	SetTextColor(c Color)
	SetFillColor(c Color)
	SetDrawColor(c Color)
	SetLineWidth(w float64)
	Rect(x, y, w, h float64, fill bool)
	Line(x1, y1, x2, y2 float64)
	Cell(x, y, w, h float64, text string, align Align, fill, border bool)
	StringWidth(text string) float64
	// Image draws img with height h, width following the aspect ratio.
	// It reports false when the image could not be decoded.
	Image(img *Image, x, y, h float64) bool
	Output(w io.Writer) error
}

// Geometry describes the page size and margins in millimetres.
type Geometry struct {
	Width        float64
	Height       float64
	MarginTop    float64
	MarginRight  float64
	MarginBottom float64
	MarginLeft   float64
}

// A4 returns the portrait A4 geometry used by every school document.
func A4() Geometry {
	return Geometry{Width: 210, Height: 297, MarginTop: 15, MarginRight: 15, MarginBottom: 20, MarginLeft: 15}
}

// ContentWidth is the horizontal space between the side margins.
func (g Geometry) ContentWidth() float64 {
	return g.Width - g.MarginLeft - g.MarginRight
}

// Bottom is the lowest y coordinate content may reach.
func (g Geometry) Bottom() float64 {
	return g.Height - g.MarginBottom
}

// Capacity is the printable height of a single page.
func (g Geometry) Capacity() float64 {
	return g.Bottom() - g.MarginTop
}

// Cursor is the current write position.
type Cursor struct {
	X    float64
	Y    float64
	Page int
}
