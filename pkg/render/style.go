package render

import (
	"image/color"
	"math"
)

// Palette
var (
	ColorBackground    = color.RGBA{0x1e, 0x1e, 0x2e, 0xff}
	ColorLink          = color.RGBA{0x58, 0x5b, 0x70, 0xff}
	ColorLinkHighlight = color.RGBA{0xf9, 0xe2, 0xaf, 0xff}
	ColorPacket        = color.RGBA{0x89, 0xdc, 0xeb, 0xff}
	ColorBroadcast     = color.RGBA{0xcb, 0xa6, 0xf7, 0xff}
	ColorLabel         = color.RGBA{0xcd, 0xd6, 0xf4, 0xff}
	ColorSelection     = color.RGBA{0xff, 0xff, 0xff, 0xff}

	ColorRiskLow    = color.RGBA{0xa6, 0xe3, 0xa1, 0xff}
	ColorRiskMedium = color.RGBA{0xfa, 0xb3, 0x87, 0xff}
	ColorRiskHigh   = color.RGBA{0xf3, 0x8b, 0xa8, 0xff}
)

// RiskColor maps a 0-100 risk score to a node colour band.
func RiskColor(risk float64) color.RGBA {
	switch {
	case risk >= 67:
		return ColorRiskHigh
	case risk >= 34:
		return ColorRiskMedium
	default:
		return ColorRiskLow
	}
}

// WithAlpha returns c with its alpha scaled by a in [0, 1].
func WithAlpha(c color.RGBA, a float64) color.RGBA {
	a = math.Max(0, math.Min(1, a))
	return color.RGBA{
		R: uint8(float64(c.R) * a),
		G: uint8(float64(c.G) * a),
		B: uint8(float64(c.B) * a),
		A: uint8(float64(c.A) * a),
	}
}

// Style holds the sizes used by the compositor. Radii are in screen units
// and do not scale with zoom.
type Style struct {
	LinkWidth       float64
	HighlightWidth  float64
	NodeRadius      float64 // radius of an idle node
	NodeRadiusMax   float64 // cap for busy nodes
	ActivityScale   float64 // extra radius per log(1+activity)
	SelectedScale   float64
	HoveredScale    float64
	PacketRadius    float64
	BroadcastRadius float64 // ring radius at the end of a broadcast
	GlowRadius      float64 // halo size relative to the node radius
	LabelThreshold  int     // labels drawn for every node below this count
	LabelOffset     float64
}

// DefaultStyle is tuned for raster output.
func DefaultStyle() Style {
	return Style{
		LinkWidth:       1.5,
		HighlightWidth:  3,
		NodeRadius:      8,
		NodeRadiusMax:   20,
		ActivityScale:   2,
		SelectedScale:   1.4,
		HoveredScale:    1.2,
		PacketRadius:    4,
		BroadcastRadius: 60,
		GlowRadius:      2.2,
		LabelThreshold:  40,
		LabelOffset:     12,
	}
}

// CellStyle is tuned for terminal half-block output.
func CellStyle() Style {
	return Style{
		LinkWidth:       1,
		HighlightWidth:  1,
		NodeRadius:      1.5,
		NodeRadiusMax:   3,
		ActivityScale:   0.4,
		SelectedScale:   1.5,
		HoveredScale:    1.25,
		PacketRadius:    0.8,
		BroadcastRadius: 10,
		GlowRadius:      2.5,
		LabelThreshold:  25,
		LabelOffset:     2,
	}
}
