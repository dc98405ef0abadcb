package export

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/san-kum/orbsim/internal/dynamo"
	"github.com/san-kum/orbsim/internal/viz"
	"gonum.org/v1/gonum/spatial/r3"
)

var palette = []string{"#ffd700", "#00ccff", "#ff6b6b", "#5fd068", "#ff9ff3", "#feca57", "#a29bfe"}

// Tracks records the xy path of every body. It is a sim observer.
type Tracks struct {
	Every int
	Paths [][]r3.Vec
	calls int
}

func NewTracks(every int) *Tracks {
	if every < 1 {
		every = 1
	}
	return &Tracks{Every: every}
}

func (t *Tracks) OnStep(s *dynamo.Simulation) {
	t.calls++
	if (t.calls-1)%t.Every != 0 {
		return
	}
	if len(t.Paths) != s.N() {
		t.Paths = make([][]r3.Vec, s.N())
	}
	for i, b := range s.Bodies {
		t.Paths[i] = append(t.Paths[i], b.Pos)
	}
}

// OrbitsSVG draws every path as a polyline in a square view that keeps
// the aspect ratio, with a dot at the last position.
func OrbitsSVG(w io.Writer, paths [][]r3.Vec, size int) error {
	extent := 0.0
	for _, p := range paths {
		for _, v := range p {
			extent = math.Max(extent, math.Max(math.Abs(v.X), math.Abs(v.Y)))
		}
	}
	if extent == 0 {
		extent = 1
	}
	extent *= 1.1

	half := float64(size) / 2
	project := func(v r3.Vec) (float64, float64) {
		return half + v.X/extent*half, half - v.Y/extent*half
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, size, size, size, size)

	for i, p := range paths {
		if len(p) == 0 {
			continue
		}
		color := palette[i%len(palette)]
		if len(p) > 1 {
			fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1" d="M`, color)
			for j, v := range p {
				x, y := project(v)
				if j == 0 {
					fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
				} else {
					fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
				}
			}
			sb.WriteString("\"/>\n")
		}
		x, y := project(p[len(p)-1])
		fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="3" fill="%s"/>`+"\n", x, y, color)
	}

	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// CanvasToSVG converts a braille canvas to SVG dots.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.Width) * scale * 2
	height := float64(canvas.Height) * scale * 4

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="#00ff00">
`, width, height, width, height)

	bits := [4][2]rune{
		{0x01, 0x08},
		{0x02, 0x10},
		{0x04, 0x20},
		{0x40, 0x80},
	}
	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			pattern := canvas.Grid[row][col] - 0x2800
			if pattern <= 0 {
				continue
			}
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&bits[dy][dx] == 0 {
						continue
					}
					cx := (float64(col*2+dx) + 0.5) * scale
					cy := (float64(row*4+dy) + 0.5) * scale
					fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f"/>`+"\n", cx, cy, scale*0.4)
				}
			}
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}
