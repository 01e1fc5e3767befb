package viz

import (
	"math"
	"strings"

	"github.com/golang/geo/r2"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const brailleBlank = 0x2800

// Canvas is Width x Height terminal cells, each holding 2x4 sub-pixels.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set lights the sub-pixel (x, y); the canvas is Width*2 x Height*4 of them.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Lit reports whether any sub-pixel of the cell is set.
func (c *Canvas) Lit(col, row int) bool {
	return c.Grid[row][col] != brailleBlank
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Viewport maps field meters onto canvas sub-pixels with equal scale on both
// axes and +y pointing up.
type Viewport struct {
	bounds r2.Rect
	scale  float64
	w, h   int
}

// FitViewport frames points with a margin of pad meters.
func FitViewport(c *Canvas, pad float64, points ...r2.Point) Viewport {
	bounds := r2.EmptyRect()
	for _, p := range points {
		bounds = bounds.AddPoint(p)
	}
	if bounds.IsEmpty() {
		bounds = r2.RectFromPoints(r2.Point{})
	}
	bounds = bounds.ExpandedByMargin(pad)

	w, h := c.Width*2, c.Height*4
	size := bounds.Size()
	scale := math.Inf(1)
	if size.X > 0 {
		scale = float64(w-1) / size.X
	}
	if size.Y > 0 {
		scale = math.Min(scale, float64(h-1)/size.Y)
	}
	if math.IsInf(scale, 1) {
		scale = 1
	}
	return Viewport{bounds: bounds, scale: scale, w: w, h: h}
}

func (v Viewport) Project(p r2.Point) (int, int) {
	x := (p.X - v.bounds.X.Lo) * v.scale
	y := (v.bounds.Y.Hi - p.Y) * v.scale
	return int(math.Round(x)), int(math.Round(y))
}

// Polyline draws consecutive points joined by lines.
func (c *Canvas) Polyline(v Viewport, points []r2.Point) {
	for i, p := range points {
		x1, y1 := v.Project(p)
		if i == 0 {
			c.Set(x1, y1)
			continue
		}
		x0, y0 := v.Project(points[i-1])
		c.DrawLine(x0, y0, x1, y1)
	}
}

// Robot draws a small triangle at p pointing along heading.
func (c *Canvas) Robot(v Viewport, p r2.Point, heading float64) {
	size := 6 / v.scale
	dir := r2.Point{X: math.Cos(heading), Y: math.Sin(heading)}
	nose := p.Add(dir.Mul(size))
	left := p.Sub(dir.Mul(size / 2)).Add(dir.Ortho().Mul(size / 2))
	right := p.Sub(dir.Mul(size / 2)).Sub(dir.Ortho().Mul(size / 2))
	c.Polyline(v, []r2.Point{nose, left, right, nose})
}
