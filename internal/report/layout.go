package report

import (
	"strings"

	"github.com/go-pdf/fpdf"
)

// A4 portrait in millimetres.
const (
	pageWidth    = 210.0
	pageHeight   = 297.0
	margin       = 20.0
	contentWidth = pageWidth - 2*margin
	bottomLimit  = pageHeight - margin
	usableHeight = bottomLimit - margin
)

type rgb struct{ r, g, b int }

var (
	colorText      = rgb{33, 37, 41}
	colorMuted     = rgb{108, 117, 125}
	colorAccent    = rgb{37, 99, 235}
	colorHeaderBg  = rgb{226, 232, 240}
	colorHighlight = rgb{220, 252, 231}
	colorBorder    = rgb{203, 213, 225}
)

// canvas wraps the PDF with an explicit vertical cursor. Every element asks
// ensure for its projected height before drawing.
type canvas struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
	y   float64
}

func newCanvas(pdf *fpdf.Fpdf) *canvas {
	return &canvas{
		pdf: pdf,
		tr:  pdf.UnicodeTranslatorFromDescriptor(""),
		y:   margin,
	}
}

// ensure starts a new page when h would cross the bottom margin.
// It reports whether a page break happened.
func (c *canvas) ensure(h float64) bool {
	if c.y+h <= bottomLimit || c.y == margin {
		return false
	}
	c.newPage()
	return true
}

func (c *canvas) newPage() {
	c.pdf.AddPage()
	c.y = margin
}

func (c *canvas) font(style string, size float64, col rgb) {
	c.pdf.SetFont("Helvetica", style, size)
	c.pdf.SetTextColor(col.r, col.g, col.b)
}

// lineHeight converts a font size in points to a line advance in millimetres.
func lineHeight(size float64) float64 {
	return size * 0.3528 * 1.35
}

// wrap splits already-encoded text into lines no wider than width using the
// current font metrics. Words longer than a line are broken by characters.
func (c *canvas) wrap(text string, width float64) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		current := ""
		for _, word := range words {
			for c.pdf.GetStringWidth(word) > width {
				head, tail := c.splitWord(word, width)
				if current != "" {
					lines = append(lines, current)
					current = ""
				}
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
			if c.pdf.GetStringWidth(candidate) <= width {
				current = candidate
				continue
			}
			lines = append(lines, current)
			current = word
		}
		lines = append(lines, current)
	}
	return lines
}

// splitWord returns the longest prefix of word fitting width (at least one byte).
func (c *canvas) splitWord(word string, width float64) (string, string) {
	n := 1
	for n < len(word) && c.pdf.GetStringWidth(word[:n+1]) <= width {
		n++
	}
	return word[:n], word[n:]
}

// paragraph wraps and places text at the cursor. Blocks that fit on one page
// move to the next page as a whole; longer blocks break between lines.
func (c *canvas) paragraph(text string, size float64, style string, col rgb, indent float64) {
	c.font(style, size, col)
	lh := lineHeight(size)
	lines := c.wrap(c.tr(text), contentWidth-indent)
	if h := float64(len(lines)) * lh; h <= usableHeight {
		c.ensure(h)
	}
	for _, line := range lines {
		c.ensure(lh)
		c.pdf.SetXY(margin+indent, c.y)
		c.pdf.CellFormat(contentWidth-indent, lh, line, "", 0, "L", false, 0, "")
		c.y += lh
	}
}

// heading places a section title and keeps it with at least keep mm of the
// following content.
func (c *canvas) heading(text string, keep float64) {
	const size = 14.0
	lh := lineHeight(size)
	c.space(4)
	c.ensure(lh + 2 + keep)
	c.font("B", size, colorAccent)
	c.pdf.SetXY(margin, c.y)
	c.pdf.CellFormat(contentWidth, lh, c.tr(text), "", 0, "L", false, 0, "")
	c.y += lh
	c.pdf.SetDrawColor(colorAccent.r, colorAccent.g, colorAccent.b)
	c.pdf.SetLineWidth(0.4)
	c.pdf.Line(margin, c.y+0.5, margin+contentWidth, c.y+0.5)
	c.y += 2
}

// bullets places a list with a leading bullet marker.
func (c *canvas) bullets(items []string, empty string) {
	if len(items) == 0 {
		c.paragraph(empty, 10, "I", colorMuted, 0)
		return
	}
	for _, item := range items {
		c.paragraph("• "+item, 10, "", colorText, 4)
		c.y += 0.8
	}
}

func (c *canvas) space(h float64) {
	if c.y+h > bottomLimit {
		c.newPage()
		return
	}
	c.y += h
}
