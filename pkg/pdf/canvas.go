package pdf

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Placeholder is printed wherever a value is missing.
const Placeholder = "—"

var (
	colorText      = Color{33, 37, 41}
	colorMuted     = Color{108, 117, 125}
	colorBanner    = Color{226, 235, 245}
	colorBannerInk = Color{31, 78, 121}
	colorHeadFill  = Color{31, 78, 121}
	colorHeadInk   = Color{255, 255, 255}
	colorZebra     = Color{246, 248, 250}
	colorRule      = Color{173, 181, 189}
)

const (
	bannerHeight  = 7.0
	bannerAdvance = 9.0
	gridRowHeight = 11.0
	signatureArea = 24.0
	lineHeight    = 5.5
	logoHeight    = 20.0
)

// Canvas threads a cursor through the layout primitives. A Canvas belongs
// to a single render and is not safe for concurrent use.
type Canvas struct {
	sink Sink
	geo  Geometry
	cur  Cursor
}

// NewCanvas opens the first page.
func NewCanvas(sink Sink, geo Geometry) *Canvas {
	c := &Canvas{sink: sink, geo: geo}
	c.NewPage()
	return c
}

// Cursor returns a copy of the current position.
func (c *Canvas) Cursor() Cursor { return c.cur }

// Geometry returns the page geometry.
func (c *Canvas) Geometry() Geometry { return c.geo }

// Remaining is the printable height left on the current page.
func (c *Canvas) Remaining() float64 { return c.geo.Bottom() - c.cur.Y }

// NewPage starts a fresh page and resets the cursor to the top margin.
func (c *Canvas) NewPage() {
	c.sink.AddPage()
	c.cur = Cursor{X: c.geo.MarginLeft, Y: c.geo.MarginTop, Page: c.cur.Page + 1}
}

// Ensure breaks the page when h does not fit below the cursor and reports
// whether a break happened.
func (c *Canvas) Ensure(h float64) bool {
	if c.cur.Y+h <= c.geo.Bottom() {
		return false
	}
	c.NewPage()
	return true
}

// Space advances the cursor without drawing.
func (c *Canvas) Space(h float64) {
	c.cur.Y += h
}

// Masthead is the one-time document header.
type Masthead struct {
	SchoolName   string
	DirectorName string
	Title        string
	Subtitle     string
	Logo         *Image
}

// Header draws the masthead at the cursor.
func (c *Canvas) Header(m Masthead) {
	left := c.geo.MarginLeft
	width := c.geo.ContentWidth()
	top := c.cur.Y

	textLeft := left
	blockHeight := 12.0
	if m.Logo != nil && c.sink.Image(m.Logo, left, top, logoHeight) {
		textLeft = left + logoHeight + 4
		blockHeight = logoHeight
	}
	textWidth := left + width - textLeft

	c.sink.SetTextColor(colorText)
	c.sink.SetFont(StyleBold, 13)
	c.sink.Cell(textLeft, top, textWidth, 7, m.SchoolName, AlignCenter, false, false)
	if m.DirectorName != "" {
		c.sink.SetTextColor(colorMuted)
		c.sink.SetFont(StyleRegular, 9)
		c.sink.Cell(textLeft, top+7, textWidth, 5, "Diretor(a): "+m.DirectorName, AlignCenter, false, false)
	}

	y := top + blockHeight + 2
	c.sink.SetDrawColor(colorRule)
	c.sink.SetLineWidth(0.4)
	c.sink.Line(left, y, left+width, y)
	y += 4

	c.sink.SetTextColor(colorBannerInk)
	c.sink.SetFont(StyleBold, 14)
	c.sink.Cell(left, y, width, 8, strings.ToUpper(m.Title), AlignCenter, false, false)
	y += 8
	if m.Subtitle != "" {
		c.sink.SetTextColor(colorMuted)
		c.sink.SetFont(StyleRegular, 10)
		c.sink.Cell(left, y, width, 6, m.Subtitle, AlignCenter, false, false)
		y += 6
	}
	c.cur.Y = y + 4
}

// CustomHeader draws free text lines in place of the masthead.
func (c *Canvas) CustomHeader(text string) {
	left := c.geo.MarginLeft
	width := c.geo.ContentWidth()
	c.sink.SetTextColor(colorText)
	c.sink.SetFont(StyleBold, 11)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, wrapped := range c.wrap(line, width) {
			c.Ensure(lineHeight)
			c.sink.Cell(left, c.cur.Y, width, lineHeight, wrapped, AlignCenter, false, false)
			c.cur.Y += lineHeight
		}
	}
	c.cur.Y += 2
	c.sink.SetDrawColor(colorRule)
	c.sink.SetLineWidth(0.4)
	c.sink.Line(left, c.cur.Y, left+width, c.cur.Y)
	c.cur.Y += 5
}

// FooterInfo is the one-time document footer. Text replaces the default
// issue line when set.
type FooterInfo struct {
	IssuedAt   time.Time
	DocumentID string
	SchoolName string
	Text       string
}

// Footer draws the footer in the bottom margin of the current page. The
// cursor does not move.
func (c *Canvas) Footer(f FooterInfo) {
	left := c.geo.MarginLeft
	width := c.geo.ContentWidth()
	y := c.geo.Bottom() + 4

	c.sink.SetDrawColor(colorRule)
	c.sink.SetLineWidth(0.2)
	c.sink.Line(left, y, left+width, y)

	text := f.Text
	if text == "" {
		parts := []string{"Emitido em " + f.IssuedAt.Format("02/01/2006 15:04")}
		if id := ShortID(f.DocumentID); id != "" {
			parts = append(parts, "Documento "+id)
		}
		if f.SchoolName != "" {
			parts = append(parts, f.SchoolName)
		}
		text = strings.Join(parts, " · ")
	}
	c.sink.SetTextColor(colorMuted)
	c.sink.SetFont(StyleRegular, 8)
	c.sink.Cell(left, y+1, width, 5, c.fit(text, width), AlignCenter, false, false)
}

// ShortID truncates identifiers for display.
func ShortID(id string) string {
	if utf8.RuneCountInString(id) <= 8 {
		return id
	}
	return string([]rune(id)[:8])
}

// SectionTitle draws a tinted banner. The banner never sits alone at the
// bottom of a page.
func (c *Canvas) SectionTitle(text string) {
	c.Ensure(bannerAdvance + gridRowHeight)
	left := c.geo.MarginLeft
	width := c.geo.ContentWidth()
	c.sink.SetFillColor(colorBanner)
	c.sink.Rect(left, c.cur.Y, width, bannerHeight, true)
	c.sink.SetTextColor(colorBannerInk)
	c.sink.SetFont(StyleBold, 10)
	c.sink.Cell(left+2, c.cur.Y, width-4, bannerHeight, strings.ToUpper(text), AlignLeft, false, false)
	c.cur.Y += bannerAdvance
}

// Field is a label/value pair.
type Field struct {
	Label string
	Value string
}

// InfoGrid lays fields out row-major across the given number of columns.
func (c *Canvas) InfoGrid(fields []Field, columns int) {
	if len(fields) == 0 {
		return
	}
	if columns <= 0 {
		columns = 1
	}
	colWidth := c.geo.ContentWidth() / float64(columns)
	for start := 0; start < len(fields); start += columns {
		c.Ensure(gridRowHeight)
		end := start + columns
		if end > len(fields) {
			end = len(fields)
		}
		for i, f := range fields[start:end] {
			x := c.geo.MarginLeft + float64(i)*colWidth
			value := f.Value
			if strings.TrimSpace(value) == "" {
				value = Placeholder
			}
			c.sink.SetTextColor(colorMuted)
			c.sink.SetFont(StyleRegular, 8)
			c.sink.Cell(x, c.cur.Y, colWidth-2, 4, f.Label, AlignLeft, false, false)
			c.sink.SetTextColor(colorText)
			c.sink.SetFont(StyleBold, 10)
			c.sink.Cell(x, c.cur.Y+4, colWidth-2, 6, c.fit(value, colWidth-2), AlignLeft, false, false)
		}
		c.cur.Y += gridRowHeight
	}
	c.cur.Y += 2
}

// Column describes a table column. Widths are relative weights.
type Column struct {
	Header string
	Weight float64
	Align  Align
}

// TableOptions tunes table rendering. Zero values take defaults.
type TableOptions struct {
	HeaderHeight float64
	RowHeight    float64
	FontSize     float64
	EmptyText    string
	Zebra        bool
}

func (o TableOptions) withDefaults() TableOptions {
	if o.HeaderHeight <= 0 {
		o.HeaderHeight = 8
	}
	if o.RowHeight <= 0 {
		o.RowHeight = 7
	}
	if o.FontSize <= 0 {
		o.FontSize = 9
	}
	return o
}

// Table draws a header row followed by the data rows. Before each row the
// projected bottom is checked against the printable area; an overflowing
// row moves to a new page and the header is drawn again above it.
func (c *Canvas) Table(columns []Column, rows [][]string, opts TableOptions) {
	if len(columns) == 0 {
		return
	}
	opts = opts.withDefaults()
	widths := c.columnWidths(columns)

	if len(rows) == 0 {
		if opts.EmptyText == "" {
			return
		}
		c.Ensure(opts.HeaderHeight + opts.RowHeight)
		c.tableHeader(columns, widths, opts)
		c.sink.SetTextColor(colorMuted)
		c.sink.SetFont(StyleItalic, opts.FontSize)
		c.sink.Cell(c.geo.MarginLeft, c.cur.Y, c.geo.ContentWidth(), opts.RowHeight, opts.EmptyText, AlignCenter, false, true)
		c.cur.Y += opts.RowHeight + 3
		return
	}

	c.Ensure(opts.HeaderHeight + opts.RowHeight)
	c.tableHeader(columns, widths, opts)
	for i, row := range rows {
		if c.cur.Y+opts.RowHeight > c.geo.Bottom() {
			c.NewPage()
			c.tableHeader(columns, widths, opts)
		}
		c.tableRow(columns, widths, row, opts, opts.Zebra && i%2 == 1)
	}
	c.cur.Y += 3
}

func (c *Canvas) columnWidths(columns []Column) []float64 {
	total := 0.0
	for _, col := range columns {
		total += weight(col)
	}
	widths := make([]float64, len(columns))
	for i, col := range columns {
		widths[i] = c.geo.ContentWidth() * weight(col) / total
	}
	return widths
}

func weight(col Column) float64 {
	if col.Weight <= 0 {
		return 1
	}
	return col.Weight
}

func (c *Canvas) tableHeader(columns []Column, widths []float64, opts TableOptions) {
	c.sink.SetFillColor(colorHeadFill)
	c.sink.SetTextColor(colorHeadInk)
	c.sink.SetDrawColor(colorRule)
	c.sink.SetLineWidth(0.2)
	c.sink.SetFont(StyleBold, opts.FontSize)
	x := c.geo.MarginLeft
	for i, col := range columns {
		c.sink.Cell(x, c.cur.Y, widths[i], opts.HeaderHeight, c.fit(col.Header, widths[i]-1), AlignCenter, true, true)
		x += widths[i]
	}
	c.cur.Y += opts.HeaderHeight
}

func (c *Canvas) tableRow(columns []Column, widths []float64, row []string, opts TableOptions, shade bool) {
	c.sink.SetFillColor(colorZebra)
	c.sink.SetTextColor(colorText)
	c.sink.SetFont(StyleRegular, opts.FontSize)
	x := c.geo.MarginLeft
	for i, col := range columns {
		value := ""
		if i < len(row) {
			value = row[i]
		}
		align := col.Align
		if align == "" {
			align = AlignLeft
		}
		c.sink.Cell(x, c.cur.Y, widths[i], opts.RowHeight, c.fit(value, widths[i]-1), align, shade, true)
		x += widths[i]
	}
	c.cur.Y += opts.RowHeight
}

// SignatureLines splits the content width evenly into labelled underlines.
func (c *Canvas) SignatureLines(labels []string) {
	if len(labels) == 0 {
		return
	}
	c.Ensure(signatureArea)
	slot := c.geo.ContentWidth() / float64(len(labels))
	const pad = 6.0
	lineY := c.cur.Y + 15
	c.sink.SetDrawColor(colorText)
	c.sink.SetLineWidth(0.3)
	c.sink.SetTextColor(colorText)
	c.sink.SetFont(StyleRegular, 9)
	for i, label := range labels {
		x0 := c.geo.MarginLeft + float64(i)*slot
		c.sink.Line(x0+pad, lineY, x0+slot-pad, lineY)
		c.sink.Cell(x0, lineY+1, slot, 5, label, AlignCenter, false, false)
	}
	c.cur.Y += signatureArea
}

// TextLine writes a single line across the content width.
func (c *Canvas) TextLine(text, style string, size float64, align Align) {
	c.Ensure(lineHeight)
	c.sink.SetTextColor(colorText)
	c.sink.SetFont(style, size)
	width := c.geo.ContentWidth()
	c.sink.Cell(c.geo.MarginLeft, c.cur.Y, width, lineHeight, c.fit(text, width), align, false, false)
	c.cur.Y += lineHeight
}

// Paragraphs reflows text to the content width. Each newline starts a new
// paragraph, lines are justified except the last of each paragraph, and
// page breaks fall between lines.
func (c *Canvas) Paragraphs(text string, size float64) {
	if size <= 0 {
		size = 10
	}
	c.sink.SetTextColor(colorText)
	c.sink.SetFont(StyleRegular, size)
	width := c.geo.ContentWidth()
	for _, paragraph := range strings.Split(text, "\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			c.cur.Y += lineHeight / 2
			continue
		}
		lines := c.wrap(paragraph, width)
		for i, line := range lines {
			if c.Ensure(lineHeight) {
				c.sink.SetTextColor(colorText)
				c.sink.SetFont(StyleRegular, size)
			}
			if i < len(lines)-1 {
				c.justifiedLine(line, width)
			} else {
				c.sink.Cell(c.geo.MarginLeft, c.cur.Y, width, lineHeight, line, AlignLeft, false, false)
			}
			c.cur.Y += lineHeight
		}
		c.cur.Y += 2
	}
}

func (c *Canvas) justifiedLine(line string, width float64) {
	words := strings.Fields(line)
	if len(words) < 2 {
		c.sink.Cell(c.geo.MarginLeft, c.cur.Y, width, lineHeight, line, AlignLeft, false, false)
		return
	}
	widths := make([]float64, len(words))
	total := 0.0
	for i, w := range words {
		widths[i] = c.sink.StringWidth(w)
		total += widths[i]
	}
	gap := (width - total) / float64(len(words)-1)
	x := c.geo.MarginLeft
	for i, w := range words {
		c.sink.Cell(x, c.cur.Y, widths[i], lineHeight, w, AlignLeft, false, false)
		x += widths[i] + gap
	}
}

// wrap breaks text into lines no wider than width using the current font.
func (c *Canvas) wrap(text string, width float64) []string {
	var lines []string
	current := ""
	for _, word := range strings.Fields(text) {
		for c.sink.StringWidth(word) > width {
			if current != "" {
				lines = append(lines, current)
				current = ""
			}
			head, tail := c.splitWord(word, width)
			lines = append(lines, head)
			word = tail
		}
		if word == "" {
			continue
		}
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if c.sink.StringWidth(candidate) <= width {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = word
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

func (c *Canvas) splitWord(word string, width float64) (string, string) {
	runes := []rune(word)
	n := 1
	for n < len(runes) && c.sink.StringWidth(string(runes[:n+1])) <= width {
		n++
	}
	return string(runes[:n]), string(runes[n:])
}

// fit shortens text with an ellipsis until it fits width.
func (c *Canvas) fit(text string, width float64) string {
	if c.sink.StringWidth(text) <= width {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := strings.TrimSpace(string(runes)) + "…"
		if c.sink.StringWidth(candidate) <= width {
			return candidate
		}
	}
	return ""
}
