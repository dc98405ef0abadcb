package viz

import (
	"math"
	"strings"
)

// Braille cells are 2x4 dots:
// 1 4
// 2 5
// 3 6
// 7 8
var pixelMap = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const brailleBlank = 0x2800

// Canvas is a braille pixel grid with a square world window centred on
// the origin. Sub-pixel resolution is (Width*2) x (Height*4).
type Canvas struct {
	Width, Height int
	Grid          [][]rune

	// Scale is the half width of the world window.
	Scale float64
}

func NewCanvas(w, h int, scale float64) *Canvas {
	c := &Canvas{Width: w, Height: h, Scale: scale, Grid: make([][]rune, h)}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= pixelMap[y%4][x%2]
}

// Project maps world coordinates to sub-pixels. Terminal cells are about
// twice as tall as wide, which the 2x4 braille layout already absorbs.
func (c *Canvas) Project(x, y float64) (int, int) {
	pw, ph := float64(c.Width*2), float64(c.Height*4)
	half := math.Min(pw, ph) / 2
	px := pw/2 + x/c.Scale*half
	py := ph/2 - y/c.Scale*half
	return int(math.Round(px)), int(math.Round(py))
}

// Plot sets the pixel under world point (x, y).
func (c *Canvas) Plot(x, y float64) {
	if math.IsNaN(x) || math.IsNaN(y) {
		return
	}
	c.Set(c.Project(x, y))
}

// Disc fills a small circle of sub-pixel radius r around world point (x, y).
func (c *Canvas) Disc(x, y float64, r int) {
	cx, cy := c.Project(x, y)
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				c.Set(cx+dx, cy+dy)
			}
		}
	}
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}
