package certificate

import (
	"bytes"
	"image/png"
	"strings"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/require"
)

func sampleRequest() Request {
	return Request{
		RecipientName: "Alice",
		ActivityTitle: "Tree Plantation Drive",
		CompletedDate: "3/5/2024",
	}
}

func TestFilenameCollapsesWhitespaceRuns(t *testing.T) {
	req := Request{RecipientName: "Jane  Doe", ActivityTitle: "Tree \t Plantation"}
	require.Equal(t, "Jane_Doe_Tree_Plantation_Certificate.pdf", Filename(req, "pdf"))

	req = Request{RecipientName: " Bob ", ActivityTitle: "Clean-up"}
	require.Equal(t, "_Bob__Clean-up_Certificate.png", Filename(req, ".png"))

	require.Equal(t, "Alice_Tree_Plantation_Drive_Certificate.pdf", Filename(sampleRequest(), "pdf"))
}

func TestComposeOrderAndCoordinates(t *testing.T) {
	layout := Compose(sampleRequest())

	require.Equal(t, 297.0, layout.Width)
	require.Equal(t, 210.0, layout.Height)
	require.Len(t, layout.Borders, 2)
	require.Equal(t, Border{X: 10, Y: 10, W: 277, H: 190, LineWidth: 3, Color: Blue}, layout.Borders[0])
	require.Equal(t, Border{X: 15, Y: 15, W: 267, H: 180, LineWidth: 1, Color: Green}, layout.Borders[1])

	var roles []Role
	for _, text := range layout.Texts {
		roles = append(roles, text.Role)
	}
	require.Equal(t, []Role{
		RoleHeading, RoleSubtitle, RoleCertify, RoleRecipient, RoleCompleted, RoleActivity,
		RoleDateLabel, RoleDate, RoleDirector, RoleOrganization,
	}, roles)

	recipient := layout.Texts[3]
	require.Equal(t, "Alice", recipient.Value)
	require.Equal(t, 148.5, recipient.X)
	require.Equal(t, 110.0, recipient.Y)
	require.Equal(t, 24.0, recipient.Size)
	require.Equal(t, AlignCenter, recipient.Align)

	date := layout.Texts[7]
	require.Equal(t, "3/5/2024", date.Value)
	require.Equal(t, 60.0, date.X)
	require.Equal(t, 185.0, date.Y)
	require.Equal(t, AlignLeft, date.Align)

	director := layout.Texts[9]
	require.Equal(t, "Vision Endeavours", director.Value)
	require.Equal(t, 200.0, director.X)

	require.Equal(t, []Rule{
		{X1: 45, Y1: 190, X2: 120, Y2: 190, LineWidth: 1, Color: Green},
		{X1: 180, Y1: 190, X2: 255, Y2: 190, LineWidth: 1, Color: Green},
	}, layout.Rules)
	require.Equal(t, 148.5, layout.Glyph.X)
	require.Equal(t, 170.0, layout.Glyph.Y)
}

func TestTrophySitsOnBaseline(t *testing.T) {
	trophy := Compose(sampleRequest()).Glyph.Trophy()
	require.InDelta(t, 170.0, trophy.Base.Y+trophy.Base.H, 1e-9)
	require.Less(t, trophy.Cup[0].Y, 170.0)
	require.InDelta(t, 148.5, trophy.Base.X+trophy.Base.W/2, 1e-9)
}

func TestPDFRendererEmitsText(t *testing.T) {
	artifact, err := NewPDFRenderer(WithoutCompression()).Render(sampleRequest())
	require.NoError(t, err)
	require.Equal(t, "Alice_Tree_Plantation_Drive_Certificate.pdf", artifact.Filename)
	require.Equal(t, "application/pdf", artifact.ContentType)
	require.True(t, bytes.HasPrefix(artifact.Data, []byte("%PDF-")))

	body := string(artifact.Data)
	for _, want := range []string{"Alice", "Tree Plantation Drive", "3/5/2024", "Director:", "Certificate of Appreciation"} {
		require.True(t, strings.Contains(body, shownText(want)), "missing %q", want)
	}
}

// shownText is the operand of a Tj operator for s in a UTF-8 font.
func shownText(s string) string {
	var b strings.Builder
	b.WriteString("(")
	for _, unit := range utf16.Encode([]rune(s)) {
		b.WriteByte(byte(unit >> 8))
		b.WriteByte(byte(unit))
	}
	b.WriteString(") Tj")
	return b.String()
}

func TestPDFRendererKeepsNonLatinNames(t *testing.T) {
	req := sampleRequest()
	req.RecipientName = "Łukasz 李雷"

	artifact, err := NewPDFRenderer(WithoutCompression()).Render(req)
	require.NoError(t, err)
	require.Contains(t, string(artifact.Data), shownText("Łukasz 李雷"))
	require.Equal(t, "Łukasz_李雷_Tree_Plantation_Drive_Certificate.pdf", artifact.Filename)
}

func TestPDFRendererCompressedByDefault(t *testing.T) {
	artifact, err := NewPDFRenderer().Render(sampleRequest())
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(artifact.Data, []byte("%PDF-")))
	require.NotContains(t, string(artifact.Data), shownText("Alice"))
}

func TestPreviewRendererProducesPNG(t *testing.T) {
	renderer, err := NewPreviewRenderer(2)
	require.NoError(t, err)

	artifact, err := renderer.Render(sampleRequest())
	require.NoError(t, err)
	require.Equal(t, "image/png", artifact.ContentType)
	require.Equal(t, "Alice_Tree_Plantation_Drive_Certificate.png", artifact.Filename)

	img, err := png.Decode(bytes.NewReader(artifact.Data))
	require.NoError(t, err)
	require.Equal(t, 594, img.Bounds().Dx())
	require.Equal(t, 420, img.Bounds().Dy())

	// Outer border stroke passes through (10mm, 105mm).
	r, g, b, _ := img.At(20, 210).RGBA()
	require.Equal(t, uint32(59), r>>8)
	require.Equal(t, uint32(130), g>>8)
	require.Equal(t, uint32(246), b>>8)
}

func TestPreviewContentMatchesLayout(t *testing.T) {
	content := Preview(sampleRequest())

	texts := make([]string, 0, len(content.Lines))
	for _, line := range content.Lines {
		texts = append(texts, line.Text)
	}
	require.Equal(t, []string{
		"Certificate of Appreciation",
		"Vision Endeavours",
		"This is to certify that",
		"Alice",
		"has successfully completed the volunteering activity",
		"Tree Plantation Drive",
	}, texts)
	require.Equal(t, FooterColumn{Label: "Date:", Value: "3/5/2024"}, content.FooterLeft)
	require.Equal(t, FooterColumn{Label: "Director:", Value: "Vision Endeavours"}, content.FooterRight)
	require.Equal(t, "Alice_Tree_Plantation_Drive_Certificate.pdf", content.Filename)
}

func TestDownloadNamesPDF(t *testing.T) {
	req := sampleRequest()
	req.CompletedDate = "3/25/2024"

	artifact, err := Download(req)
	require.NoError(t, err)
	require.Equal(t, "Alice_Tree_Plantation_Drive_Certificate.pdf", artifact.Filename)
	require.Equal(t, "3/25/2024", Preview(req).FooterLeft.Value)
}
