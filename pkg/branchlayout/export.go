package branchlayout

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"strings"

	svg "github.com/ajstarks/svgo"

	"github.com/dd0wney/cluso-agentviz/pkg/geometry"
	"github.com/dd0wney/cluso-agentviz/pkg/render"
)

// Status colours
var (
	ColorStatusOK      = color.RGBA{0xa6, 0xe3, 0xa1, 0xff}
	ColorStatusWarn    = color.RGBA{0xf9, 0xe2, 0xaf, 0xff}
	ColorStatusFail    = color.RGBA{0xf3, 0x8b, 0xa8, 0xff}
	ColorStatusUnknown = color.RGBA{0x9a, 0x9e, 0xb5, 0xff}
	colorConnector     = color.RGBA{0x6c, 0x70, 0x86, 0xff}
	colorText          = color.RGBA{0x1e, 0x1e, 0x2e, 0xff}
)

// StatusColor maps a status tag to a fill colour
func StatusColor(status string) color.RGBA {
	switch strings.ToLower(status) {
	case "ok", "valid", "done", "accepted":
		return ColorStatusOK
	case "warn", "assumption", "pending", "uncertain":
		return ColorStatusWarn
	case "fail", "invalid", "rejected", "error":
		return ColorStatusFail
	default:
		return ColorStatusUnknown
	}
}

// WriteSVG renders a layout as a standalone SVG document
func WriteSVG(w io.Writer, res Result, cfg Config) error {
	ew := &errWriter{w: w}
	canvas := svg.New(ew)
	canvas.Start(int(math.Ceil(res.Width)), int(math.Ceil(res.Height)))
	canvas.Rect(0, 0, int(math.Ceil(res.Width)), int(math.Ceil(res.Height)), "fill:"+css(render.ColorBackground))

	for _, c := range res.Connectors {
		canvas.Path(pathData(translate(c.Curve, res.OffsetX, res.OffsetY)),
			fmt.Sprintf("fill:none;stroke:%s;stroke-width:2", css(colorConnector)))
	}

	for _, n := range res.Nodes {
		x := int(math.Round(n.X + res.OffsetX - cfg.NodeWidth/2))
		y := int(math.Round(n.Y + res.OffsetY - cfg.NodeHeight/2))
		style := "fill:" + css(StatusColor(n.Status))
		if n.Current {
			style += ";stroke:#ffffff;stroke-width:3"
		}
		canvas.Roundrect(x, y, int(cfg.NodeWidth), int(cfg.NodeHeight), 8, 8, style)
		canvas.Text(int(math.Round(n.X+res.OffsetX)), int(math.Round(n.Y+res.OffsetY))+5, label(n),
			fmt.Sprintf("text-anchor:middle;font-family:system-ui,sans-serif;font-size:13px;fill:%s", css(colorText)))
	}

	canvas.End()
	return ew.err
}

// Draw renders a layout onto any render.Surface
func Draw(s render.Surface, res Result, cfg Config) {
	s.Clear(render.ColorBackground)
	for _, c := range res.Connectors {
		s.StrokeCubic(translate(c.Curve, res.OffsetX, res.OffsetY), colorConnector, 2)
	}
	for _, n := range res.Nodes {
		x := n.X + res.OffsetX
		y := n.Y + res.OffsetY
		s.FillRect(x-cfg.NodeWidth/2, y-cfg.NodeHeight/2, cfg.NodeWidth, cfg.NodeHeight, StatusColor(n.Status))
		s.Text(label(n), x, y, colorText)
	}
}

func label(n Placed) string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

func translate(c geometry.CubicBezier, dx, dy float64) geometry.CubicBezier {
	d := geometry.Vec2{X: dx, Y: dy}
	return geometry.CubicBezier{P0: c.P0.Add(d), C1: c.C1.Add(d), C2: c.C2.Add(d), P1: c.P1.Add(d)}
}

func pathData(c geometry.CubicBezier) string {
	return fmt.Sprintf("M%.1f,%.1f C%.1f,%.1f %.1f,%.1f %.1f,%.1f",
		c.P0.X, c.P0.Y, c.C1.X, c.C1.Y, c.C2.X, c.C2.Y, c.P1.X, c.P1.Y)
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// errWriter remembers the first write error; svgo does not report them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}
