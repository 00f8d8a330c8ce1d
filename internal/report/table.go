package report

const (
	tableFontSize = 10.0
	cellPadding   = 1.8
)

type column struct {
	Header string
	Width  float64 // share of the content width
	Align  string
	Bold   bool
}

// table is laid out independently of the surrounding flow: it paginates
// itself, repeats its header row on every page it spans and returns the
// cursor position after the last row.
type table struct {
	Columns   []column
	Rows      [][]string
	Highlight func(row int) bool
	NoHeader  bool
}

type laidRow struct {
	cells  [][]string
	height float64
}

// drawTable renders t starting at the canvas cursor and returns the Y
// coordinate below the table. The caller adopts it as its new cursor.
func (c *canvas) drawTable(t table) float64 {
	lh := lineHeight(tableFontSize)
	widths := make([]float64, len(t.Columns))
	var total float64
	for _, col := range t.Columns {
		total += col.Width
	}
	for i, col := range t.Columns {
		widths[i] = contentWidth * col.Width / total
	}

	header := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = col.Header
	}
	headerRow := c.layoutRow(header, widths, lh, t.Columns, true)

	rows := make([]laidRow, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = c.layoutRow(row, widths, lh, t.Columns, false)
	}

	y := c.y
	first := headerRow.height
	if len(rows) > 0 {
		first += rows[0].height
	}
	if t.NoHeader {
		first -= headerRow.height
	}
	if y+first > bottomLimit && y > margin {
		c.newPage()
		y = c.y
	}
	if !t.NoHeader {
		y = c.drawRow(headerRow, widths, y, t.Columns, &colorHeaderBg, true)
	}

	for i, row := range rows {
		if y+row.height > bottomLimit {
			c.newPage()
			y = c.y
			if !t.NoHeader {
				y = c.drawRow(headerRow, widths, y, t.Columns, &colorHeaderBg, true)
			}
		}
		var fill *rgb
		if t.Highlight != nil && t.Highlight(i) {
			fill = &colorHighlight
		}
		y = c.drawRow(row, widths, y, t.Columns, fill, false)
	}
	return y
}

// layoutRow wraps each cell with the font it will be drawn in, so measured
// widths match the output.
func (c *canvas) layoutRow(cells []string, widths []float64, lh float64, cols []column, header bool) laidRow {
	out := laidRow{cells: make([][]string, len(cells))}
	maxLines := 1
	for i, cell := range cells {
		c.font(cellStyle(cols, i, header), tableFontSize, colorText)
		lines := c.wrap(c.tr(cell), widths[i]-2*cellPadding)
		out.cells[i] = lines
		if len(lines) > maxLines {
			maxLines = len(lines)
		}
	}
	out.height = float64(maxLines)*lh + 2*cellPadding
	return out
}

func (c *canvas) drawRow(row laidRow, widths []float64, y float64, cols []column, fill *rgb, header bool) float64 {
	lh := lineHeight(tableFontSize)
	x := margin
	c.pdf.SetDrawColor(colorBorder.r, colorBorder.g, colorBorder.b)
	c.pdf.SetLineWidth(0.2)
	for i, lines := range row.cells {
		style := "D"
		if fill != nil {
			c.pdf.SetFillColor(fill.r, fill.g, fill.b)
			style = "FD"
		}
		c.pdf.Rect(x, y, widths[i], row.height, style)

		c.font(cellStyle(cols, i, header), tableFontSize, colorText)
		align := "L"
		if i < len(cols) && cols[i].Align != "" && !header {
			align = cols[i].Align
		}
		for j, line := range lines {
			c.pdf.SetXY(x+cellPadding, y+cellPadding+float64(j)*lh)
			c.pdf.CellFormat(widths[i]-2*cellPadding, lh, line, "", 0, align, false, 0, "")
		}
		x += widths[i]
	}
	c.y = y + row.height
	return c.y
}

func cellStyle(cols []column, i int, header bool) string {
	if header || (i < len(cols) && cols[i].Bold) {
		return "B"
	}
	return ""
}
