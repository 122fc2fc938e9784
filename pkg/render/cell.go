package render

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/cluso-agentviz/pkg/geometry"
)

const upperHalf = '▀'

type glyph struct {
	r  rune
	fg color.RGBA
}

// CellSurface draws into a terminal grid using half-block characters: every
// cell holds two vertically stacked pixels, so screen units are roughly
// square. Text is placed on whole cells.
type CellSurface struct {
	cols, rows int
	bg         color.RGBA
	pixels     []color.RGBA // cols x rows*2
	text       map[int]glyph
}

// NewCellSurface creates a surface for a cols x rows terminal area
func NewCellSurface(cols, rows int) *CellSurface {
	s := &CellSurface{}
	s.Resize(cols, rows)
	return s
}

// Resize changes the grid size and clears it
func (s *CellSurface) Resize(cols, rows int) {
	s.cols, s.rows = max(cols, 0), max(rows, 0)
	s.pixels = make([]color.RGBA, s.cols*s.rows*2)
	s.text = make(map[int]glyph)
}

// Size returns the pixel area: one unit per column, two per row.
func (s *CellSurface) Size() (float64, float64) {
	return float64(s.cols), float64(s.rows * 2)
}

func (s *CellSurface) Clear(c color.Color) {
	s.bg = toRGBA(c)
	for i := range s.pixels {
		s.pixels[i] = s.bg
	}
	clear(s.text)
}

func (s *CellSurface) StrokeSegments(segs []Segment, c color.Color, width float64) {
	col := toRGBA(c)
	for _, seg := range segs {
		s.line(seg.X1, seg.Y1, seg.X2, seg.Y2, col)
	}
}

func (s *CellSurface) StrokeCubic(curve geometry.CubicBezier, c color.Color, width float64) {
	const steps = 24
	col := toRGBA(c)
	prev := curve.P0
	for i := 1; i <= steps; i++ {
		next := curve.At(float64(i) / steps)
		s.line(prev.X, prev.Y, next.X, next.Y, col)
		prev = next
	}
}

func (s *CellSurface) FillCircle(x, y, r float64, c color.Color) {
	s.disc(x, y, math.Max(r, 0.5), toRGBA(c))
}

func (s *CellSurface) StrokeCircle(x, y, r float64, c color.Color, width float64) {
	if r < 0.5 {
		s.plot(x, y, toRGBA(c))
		return
	}
	col := toRGBA(c)
	steps := max(int(2*math.Pi*r), 8)
	for i := 0; i < steps; i++ {
		a := 2 * math.Pi * float64(i) / float64(steps)
		s.plot(x+r*math.Cos(a), y+r*math.Sin(a), col)
	}
}

func (s *CellSurface) FillRect(x, y, w, h float64, c color.Color) {
	col := toRGBA(c)
	for py := int(math.Floor(y)); py < int(math.Ceil(y+h)); py++ {
		for px := int(math.Floor(x)); px < int(math.Ceil(x+w)); px++ {
			s.set(px, py, col)
		}
	}
}

// Glow tints a disc with the colour at reduced opacity.
func (s *CellSurface) Glow(x, y, r float64, c color.Color) {
	s.disc(x, y, r, WithAlpha(toRGBA(c), 0.35))
}

// Text writes s centred on (x, y), clipped to the grid.
func (s *CellSurface) Text(str string, x, y float64, c color.Color) {
	runes := []rune(str)
	row := int(math.Floor(y / 2))
	if row < 0 || row >= s.rows {
		return
	}
	start := int(math.Round(x)) - len(runes)/2
	col := toRGBA(c)
	for i, r := range runes {
		cx := start + i
		if cx < 0 || cx >= s.cols {
			continue
		}
		s.text[row*s.cols+cx] = glyph{r: r, fg: col}
	}
}

// Plain returns the grid as text without colour, one string per row.
// Pixel cells that differ from the background show as '▀'.
func (s *CellSurface) Plain() []string {
	out := make([]string, s.rows)
	var b strings.Builder
	for row := 0; row < s.rows; row++ {
		b.Reset()
		for col := 0; col < s.cols; col++ {
			if g, ok := s.text[row*s.cols+col]; ok {
				b.WriteRune(g.r)
				continue
			}
			top, bottom := s.cell(col, row)
			if top == s.bg && bottom == s.bg {
				b.WriteByte(' ')
			} else {
				b.WriteRune(upperHalf)
			}
		}
		out[row] = b.String()
	}
	return out
}

// Render returns the grid as a lipgloss-styled string. Runs of cells with
// the same style are rendered together.
func (s *CellSurface) Render() string {
	var b strings.Builder
	for row := 0; row < s.rows; row++ {
		var run strings.Builder
		var runStyle lipgloss.Style
		runKey := ""

		flush := func() {
			if run.Len() > 0 {
				b.WriteString(runStyle.Render(run.String()))
				run.Reset()
			}
		}

		for col := 0; col < s.cols; col++ {
			var r rune
			var fg, bg color.RGBA
			if g, ok := s.text[row*s.cols+col]; ok {
				_, bottom := s.cell(col, row)
				r, fg, bg = g.r, g.fg, bottom
			} else {
				top, bottom := s.cell(col, row)
				r, fg, bg = upperHalf, top, bottom
				if top == bottom {
					r = ' '
				}
			}

			key := hex(fg) + hex(bg)
			if key != runKey {
				flush()
				runKey = key
				runStyle = lipgloss.NewStyle().
					Foreground(lipgloss.Color(hex(fg))).
					Background(lipgloss.Color(hex(bg)))
			}
			run.WriteRune(r)
		}
		flush()
		if row < s.rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (s *CellSurface) cell(col, row int) (top, bottom color.RGBA) {
	base := row*2*s.cols + col
	return s.pixels[base], s.pixels[base+s.cols]
}

func (s *CellSurface) set(px, py int, c color.RGBA) {
	if px < 0 || py < 0 || px >= s.cols || py >= s.rows*2 {
		return
	}
	i := py*s.cols + px
	s.pixels[i] = blend(s.pixels[i], c)
}

func (s *CellSurface) plot(x, y float64, c color.RGBA) {
	s.set(int(math.Floor(x)), int(math.Floor(y)), c)
}

func (s *CellSurface) disc(x, y, r float64, c color.RGBA) {
	r2 := r * r
	for py := int(math.Floor(y - r)); py <= int(math.Ceil(y+r)); py++ {
		for px := int(math.Floor(x - r)); px <= int(math.Ceil(x+r)); px++ {
			dx := float64(px) + 0.5 - x
			dy := float64(py) + 0.5 - y
			if dx*dx+dy*dy <= r2 {
				s.set(px, py, c)
			}
		}
	}
	// Always mark the centre so tiny discs stay visible
	s.plot(x, y, c)
}

// line rasterises with Bresenham's algorithm.
func (s *CellSurface) line(x1, y1, x2, y2 float64, c color.RGBA) {
	if !geometry.Finite(x1, y1, x2, y2) {
		return
	}
	// Clipping to the grid (plus a one pixel border) keeps the loop bounded
	// however far off-screen the endpoints are.
	w, h := s.Size()
	x1, y1, x2, y2, ok := clipSegment(x1, y1, x2, y2, -1, -1, w+1, h+1)
	if !ok {
		return
	}

	ax, ay := int(math.Floor(x1)), int(math.Floor(y1))
	bx, by := int(math.Floor(x2)), int(math.Floor(y2))
	dx := abs(bx - ax)
	dy := -abs(by - ay)
	sx, sy := 1, 1
	if ax > bx {
		sx = -1
	}
	if ay > by {
		sy = -1
	}
	err := dx + dy
	for {
		s.set(ax, ay, c)
		if ax == bx && ay == by {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			ax += sx
		}
		if e2 <= dx {
			err += dx
			ay += sy
		}
	}
}

// clipSegment clips a segment to a rectangle (Liang-Barsky). ok is false
// when nothing of the segment is inside.
func clipSegment(x1, y1, x2, y2, minX, minY, maxX, maxY float64) (cx1, cy1, cx2, cy2 float64, ok bool) {
	dx, dy := x2-x1, y2-y1
	t0, t1 := 0.0, 1.0
	edges := [4][2]float64{
		{-dx, x1 - minX},
		{dx, maxX - x1},
		{-dy, y1 - minY},
		{dy, maxY - y1},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return 0, 0, 0, 0, false
			}
			t0 = max(t0, r)
		} else {
			if r < t0 {
				return 0, 0, 0, 0, false
			}
			t1 = min(t1, r)
		}
	}
	return x1 + t0*dx, y1 + t0*dy, x1 + t1*dx, y1 + t1*dy, true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func toRGBA(c color.Color) color.RGBA {
	return color.RGBAModel.Convert(c).(color.RGBA)
}

// blend composites premultiplied src over dst.
func blend(dst, src color.RGBA) color.RGBA {
	if src.A == 0xff {
		return src
	}
	inv := 1 - float64(src.A)/255
	return color.RGBA{
		R: uint8(float64(src.R) + float64(dst.R)*inv),
		G: uint8(float64(src.G) + float64(dst.G)*inv),
		B: uint8(float64(src.B) + float64(dst.B)*inv),
		A: uint8(float64(src.A) + float64(dst.A)*inv),
	}
}

func hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
