package certificate

import (
	"bytes"
	"fmt"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// DefaultPreviewScale renders roughly 1188x840 pixels.
const DefaultPreviewScale = 4.0

// PreviewRenderer rasterises the layout to PNG for on-screen display.
type PreviewRenderer struct {
	scale   float64
	regular *truetype.Font
	bold    *truetype.Font
}

// NewPreviewRenderer constructs a PreviewRenderer drawing scale pixels per
// millimetre.
func NewPreviewRenderer(scale float64) (*PreviewRenderer, error) {
	if scale <= 0 {
		scale = DefaultPreviewScale
	}
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	return &PreviewRenderer{scale: scale, regular: regular, bold: bold}, nil
}

// Size returns the pixel dimensions of rendered previews.
func (r *PreviewRenderer) Size() (int, int) {
	return int(math.Round(PageWidth * r.scale)), int(math.Round(PageHeight * r.scale))
}

// Render implements Renderer.
func (r *PreviewRenderer) Render(req Request) (Artifact, error) {
	layout := Compose(req)
	w, h := r.Size()
	s := r.scale

	dc := gg.NewContext(w, h)
	dc.SetRGB255(255, 255, 255)
	dc.Clear()

	for _, b := range layout.Borders {
		setColor(dc, b.Color)
		dc.SetLineWidth(b.LineWidth * s)
		dc.DrawRectangle(b.X*s, b.Y*s, b.W*s, b.H*s)
		dc.Stroke()
	}

	for _, t := range layout.Texts {
		font := r.regular
		if t.Bold {
			font = r.bold
		}
		dc.SetFontFace(truetype.NewFace(font, &truetype.Options{Size: t.Size * pointToMM * s, DPI: 72}))
		setColor(dc, t.Color)
		ax := 0.0
		if t.Align == AlignCenter {
			ax = 0.5
		}
		dc.DrawStringAnchored(t.Value, t.X*s, t.Y*s, ax, 0)
	}

	for _, rule := range layout.Rules {
		setColor(dc, rule.Color)
		dc.SetLineWidth(rule.LineWidth * s)
		dc.DrawLine(rule.X1*s, rule.Y1*s, rule.X2*s, rule.Y2*s)
		dc.Stroke()
	}

	drawTrophyPNG(dc, layout.Glyph, s)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return Artifact{}, fmt.Errorf("encode preview: %w", err)
	}
	return Artifact{
		Filename:    Filename(req, "png"),
		ContentType: "image/png",
		Data:        buf.Bytes(),
	}, nil
}

func setColor(dc *gg.Context, c Color) {
	dc.SetRGB255(int(c.R), int(c.G), int(c.B))
}

func drawTrophyPNG(dc *gg.Context, g Glyph, s float64) {
	trophy := g.Trophy()
	setColor(dc, g.Color)
	dc.SetLineWidth(trophy.LineWidth * s)

	for _, h := range trophy.Handles {
		dc.DrawCircle(h.Center.X*s, h.Center.Y*s, h.Radius*s)
		dc.Stroke()
	}
	for i, p := range trophy.Cup {
		if i == 0 {
			dc.MoveTo(p.X*s, p.Y*s)
			continue
		}
		dc.LineTo(p.X*s, p.Y*s)
	}
	dc.ClosePath()
	dc.Fill()
	dc.DrawRectangle(trophy.Stem.X*s, trophy.Stem.Y*s, trophy.Stem.W*s, trophy.Stem.H*s)
	dc.Fill()
	dc.DrawRectangle(trophy.Base.X*s, trophy.Base.Y*s, trophy.Base.W*s, trophy.Base.H*s)
	dc.Fill()
}
