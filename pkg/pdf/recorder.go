package pdf

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Op is a drawing operation captured by a Recorder.
type Op struct {
	Kind  string // page, cell, rect, line, image
	Page  int
	X, Y  float64
	W, H  float64
	Text  string
	Style string
	Size  float64
	Fill  bool
}

// Recorder is a Sink that keeps every operation in memory. It is the
// capturing sink for layout and renderer tests; Output writes a plain
// transcript, not a PDF.
type Recorder struct {
	ops   []Op
	page  int
	style string
	size  float64

	FailImages bool
	FailOutput error
}

// NewRecorder returns an empty recorder using a 10pt regular font.
func NewRecorder() *Recorder {
	return &Recorder{size: 10}
}

func (r *Recorder) AddPage() {
	r.page++
	r.ops = append(r.ops, Op{Kind: "page", Page: r.page})
}

func (r *Recorder) SetFont(style string, size float64) {
	r.style = style
	r.size = size
}

func (r *Recorder) SetTextColor(Color) {}
func (r *Recorder) SetFillColor(Color) {}
func (r *Recorder) SetDrawColor(Color) {}
func (r *Recorder) SetLineWidth(float64) {}

func (r *Recorder) Rect(x, y, w, h float64, fill bool) {
	r.ops = append(r.ops, Op{Kind: "rect", Page: r.page, X: x, Y: y, W: w, H: h, Fill: fill})
}

func (r *Recorder) Line(x1, y1, x2, y2 float64) {
	r.ops = append(r.ops, Op{Kind: "line", Page: r.page, X: x1, Y: y1, W: x2 - x1, H: y2 - y1})
}

func (r *Recorder) Cell(x, y, w, h float64, text string, align Align, fill, border bool) {
	r.ops = append(r.ops, Op{Kind: "cell", Page: r.page, X: x, Y: y, W: w, H: h, Text: text, Style: r.style, Size: r.size, Fill: fill})
}

// StringWidth approximates Helvetica metrics: 0.18mm per point per rune.
func (r *Recorder) StringWidth(text string) float64 {
	return float64(utf8.RuneCountInString(text)) * r.size * 0.18
}

func (r *Recorder) Image(img *Image, x, y, h float64) bool {
	if r.FailImages || img == nil || len(img.Data) == 0 {
		return false
	}
	r.ops = append(r.ops, Op{Kind: "image", Page: r.page, X: x, Y: y, H: h})
	return true
}

func (r *Recorder) Output(w io.Writer) error {
	if r.FailOutput != nil {
		return r.FailOutput
	}
	for _, op := range r.ops {
		var line string
		switch op.Kind {
		case "cell":
			line = fmt.Sprintf("p%d cell %.1f,%.1f %q\n", op.Page, op.X, op.Y, op.Text)
		default:
			line = fmt.Sprintf("p%d %s %.1f,%.1f\n", op.Page, op.Kind, op.X, op.Y)
		}
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}
	return nil
}

// Ops returns the captured operations.
func (r *Recorder) Ops() []Op { return r.ops }

// Pages reports how many pages were started.
func (r *Recorder) Pages() int { return r.page }

// Texts returns the text of every non-empty cell in drawing order.
func (r *Recorder) Texts() []string {
	var out []string
	for _, op := range r.ops {
		if op.Kind == "cell" && op.Text != "" {
			out = append(out, op.Text)
		}
	}
	return out
}

// Count reports how many cells carry exactly text.
func (r *Recorder) Count(text string) int {
	n := 0
	for _, op := range r.ops {
		if op.Kind == "cell" && op.Text == text {
			n++
		}
	}
	return n
}

// Contains reports whether any cell text contains substr.
func (r *Recorder) Contains(substr string) bool {
	for _, op := range r.ops {
		if op.Kind == "cell" && strings.Contains(op.Text, substr) {
			return true
		}
	}
	return false
}

// Joined concatenates cell texts with single spaces, which is handy for
// asserting on reflowed paragraphs.
func (r *Recorder) Joined() string {
	return strings.Join(r.Texts(), " ")
}
