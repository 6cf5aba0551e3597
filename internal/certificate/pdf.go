package certificate

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// pdfFontFamily is registered from the Go fonts the preview also uses, so
// both renderers cover the same characters.
const pdfFontFamily = "Go"

// Artifact is a rendered certificate.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Renderer turns a request into an artifact.
type Renderer interface {
	Render(req Request) (Artifact, error)
}

// PDFRenderer produces the downloadable document.
type PDFRenderer struct {
	compress bool
}

// PDFOption configures a PDFRenderer.
type PDFOption func(*PDFRenderer)

// WithoutCompression leaves page content streams uncompressed.
func WithoutCompression() PDFOption {
	return func(r *PDFRenderer) {
		r.compress = false
	}
}

// NewPDFRenderer constructs a PDFRenderer.
func NewPDFRenderer(opts ...PDFOption) *PDFRenderer {
	r := &PDFRenderer{compress: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render implements Renderer.
func (r *PDFRenderer) Render(req Request) (Artifact, error) {
	layout := Compose(req)

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetCompression(r.compress)
	pdf.SetTitle(headingText, true)
	pdf.SetCreator(Organization, true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddUTF8FontFromBytes(pdfFontFamily, "", goregular.TTF)
	pdf.AddUTF8FontFromBytes(pdfFontFamily, "B", gobold.TTF)
	pdf.AddPage()

	for _, b := range layout.Borders {
		pdf.SetDrawColor(int(b.Color.R), int(b.Color.G), int(b.Color.B))
		pdf.SetLineWidth(b.LineWidth)
		pdf.Rect(b.X, b.Y, b.W, b.H, "D")
	}

	for _, t := range layout.Texts {
		style := ""
		if t.Bold {
			style = "B"
		}
		pdf.SetFont(pdfFontFamily, style, t.Size)
		pdf.SetTextColor(int(t.Color.R), int(t.Color.G), int(t.Color.B))
		x := t.X
		if t.Align == AlignCenter {
			x -= pdf.GetStringWidth(t.Value) / 2
		}
		pdf.Text(x, t.Y, t.Value)
	}

	for _, rule := range layout.Rules {
		pdf.SetDrawColor(int(rule.Color.R), int(rule.Color.G), int(rule.Color.B))
		pdf.SetLineWidth(rule.LineWidth)
		pdf.Line(rule.X1, rule.Y1, rule.X2, rule.Y2)
	}

	drawTrophyPDF(pdf, layout.Glyph)

	if err := pdf.Error(); err != nil {
		return Artifact{}, fmt.Errorf("compose pdf: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return Artifact{}, fmt.Errorf("write pdf: %w", err)
	}
	return Artifact{
		Filename:    Filename(req, "pdf"),
		ContentType: "application/pdf",
		Data:        buf.Bytes(),
	}, nil
}

func drawTrophyPDF(pdf *fpdf.Fpdf, g Glyph) {
	trophy := g.Trophy()
	r, gr, b := int(g.Color.R), int(g.Color.G), int(g.Color.B)
	pdf.SetDrawColor(r, gr, b)
	pdf.SetFillColor(r, gr, b)
	pdf.SetLineWidth(trophy.LineWidth)

	for _, h := range trophy.Handles {
		pdf.Circle(h.Center.X, h.Center.Y, h.Radius, "D")
	}
	cup := make([]fpdf.PointType, 0, len(trophy.Cup))
	for _, p := range trophy.Cup {
		cup = append(cup, fpdf.PointType{X: p.X, Y: p.Y})
	}
	pdf.Polygon(cup, "F")
	pdf.Rect(trophy.Stem.X, trophy.Stem.Y, trophy.Stem.W, trophy.Stem.H, "F")
	pdf.Rect(trophy.Base.X, trophy.Base.Y, trophy.Base.W, trophy.Base.H, "F")
}

// Download renders the compressed PDF for req, named per Filename.
func Download(req Request) (Artifact, error) {
	return NewPDFRenderer().Render(req)
}
