package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"git.sr.ht/~sbinet/gg"

	"github.com/dd0wney/cluso-agentviz/pkg/geometry"
)

// glowPeak is the opacity at the centre of a glow
const glowPeak = 0.45

// ImageSurface rasterises frames with gg.
type ImageSurface struct {
	dc *gg.Context
}

// NewImageSurface creates a width x height raster surface
func NewImageSurface(width, height int) *ImageSurface {
	return &ImageSurface{dc: gg.NewContext(width, height)}
}

func (s *ImageSurface) Size() (float64, float64) {
	return float64(s.dc.Width()), float64(s.dc.Height())
}

func (s *ImageSurface) Clear(c color.Color) {
	s.dc.SetColor(c)
	s.dc.Clear()
}

func (s *ImageSurface) StrokeSegments(segs []Segment, c color.Color, width float64) {
	if len(segs) == 0 {
		return
	}
	s.dc.SetColor(c)
	s.dc.SetLineWidth(width)
	for _, seg := range segs {
		s.dc.MoveTo(seg.X1, seg.Y1)
		s.dc.LineTo(seg.X2, seg.Y2)
	}
	s.dc.Stroke()
}

func (s *ImageSurface) StrokeCubic(curve geometry.CubicBezier, c color.Color, width float64) {
	s.dc.SetColor(c)
	s.dc.SetLineWidth(width)
	s.dc.MoveTo(curve.P0.X, curve.P0.Y)
	s.dc.CubicTo(curve.C1.X, curve.C1.Y, curve.C2.X, curve.C2.Y, curve.P1.X, curve.P1.Y)
	s.dc.Stroke()
}

func (s *ImageSurface) FillCircle(x, y, r float64, c color.Color) {
	s.dc.SetColor(c)
	s.dc.DrawCircle(x, y, r)
	s.dc.Fill()
}

func (s *ImageSurface) StrokeCircle(x, y, r float64, c color.Color, width float64) {
	s.dc.SetColor(c)
	s.dc.SetLineWidth(width)
	s.dc.DrawCircle(x, y, r)
	s.dc.Stroke()
}

func (s *ImageSurface) FillRect(x, y, w, h float64, c color.Color) {
	s.dc.SetColor(c)
	s.dc.DrawRoundedRectangle(x, y, w, h, 6)
	s.dc.Fill()
}

// Glow fills a radial gradient that fades from a translucent centre to
// fully transparent at r.
func (s *ImageSurface) Glow(x, y, r float64, c color.Color) {
	if r <= 0 {
		return
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	g := gg.NewRadialGradient(x, y, 0, x, y, r)
	g.AddColorStop(0, color.NRGBA{n.R, n.G, n.B, uint8(float64(n.A) * glowPeak)})
	g.AddColorStop(1, color.NRGBA{n.R, n.G, n.B, 0})
	s.dc.SetFillStyle(g)
	s.dc.DrawCircle(x, y, r)
	s.dc.Fill()
}

func (s *ImageSurface) Text(str string, x, y float64, c color.Color) {
	s.dc.SetColor(c)
	s.dc.DrawStringAnchored(str, x, y, 0.5, 0.5)
}

// Image returns the rendered image
func (s *ImageSurface) Image() image.Image {
	return s.dc.Image()
}

// SavePNG writes the image to path
func (s *ImageSurface) SavePNG(path string) error {
	if err := s.dc.SavePNG(path); err != nil {
		return fmt.Errorf("save png %s: %w", path, err)
	}
	return nil
}

// WritePNG encodes the image to w
func (s *ImageSurface) WritePNG(w io.Writer) error {
	return png.Encode(w, s.dc.Image())
}
