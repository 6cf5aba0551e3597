// Package certificate lays out and renders certificates of appreciation for
// completed participations.
package certificate

import (
	"strings"
	"unicode"
)

// Page geometry in millimetres, A4 landscape.
const (
	PageWidth  = 297.0
	PageHeight = 210.0
	centreX    = PageWidth / 2
)

const (
	Organization  = "Vision Endeavours"
	headingText   = "Certificate of Appreciation"
	certifyText   = "This is to certify that"
	completedText = "has successfully completed the volunteering activity"
	dateLabel     = "Date:"
	directorLabel = "Director:"
)

// Request is the input shared by every renderer. CompletedDate is printed in
// the footer exactly as given.
type Request struct {
	RecipientName string
	ActivityTitle string
	CompletedDate string
}

// Color is an RGB triple.
type Color struct {
	R, G, B uint8
}

var (
	Blue  = Color{R: 59, G: 130, B: 246}
	Green = Color{R: 16, G: 185, B: 129}
	Slate = Color{R: 15, G: 23, B: 42}
	Gold  = Color{R: 234, G: 179, B: 8}
)

// Role names a text element.
type Role string

const (
	RoleHeading      Role = "heading"
	RoleSubtitle     Role = "subtitle"
	RoleCertify      Role = "certify"
	RoleRecipient    Role = "recipient"
	RoleCompleted    Role = "completed"
	RoleActivity     Role = "activity"
	RoleDateLabel    Role = "date_label"
	RoleDate         Role = "date"
	RoleDirector     Role = "director_label"
	RoleOrganization Role = "director_name"
)

// Align is the horizontal anchor of a text element.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
)

// Border is a stroked rectangle.
type Border struct {
	X, Y, W, H float64
	LineWidth  float64
	Color      Color
}

// Text is a single line. Y is the baseline and Size is in points.
type Text struct {
	Role  Role
	Value string
	X, Y  float64
	Size  float64
	Bold  bool
	Align Align
	Color Color
}

// Rule is a straight stroke.
type Rule struct {
	X1, Y1, X2, Y2 float64
	LineWidth      float64
	Color          Color
}

// Glyph is the decorative trophy; Size is in points and Y is the baseline.
type Glyph struct {
	X, Y  float64
	Size  float64
	Color Color
}

// Layout is the full element table of one certificate in page millimetres.
type Layout struct {
	Width, Height float64
	Borders       []Border
	Texts         []Text
	Rules         []Rule
	Glyph         Glyph
}

// Compose builds the layout for req. Every coordinate is fixed; nothing is
// measured or reflowed.
func Compose(req Request) Layout {
	centered := func(role Role, value string, y, size float64, bold bool, c Color) Text {
		return Text{Role: role, Value: value, X: centreX, Y: y, Size: size, Bold: bold, Align: AlignCenter, Color: c}
	}
	footer := func(role Role, value string, x, y float64) Text {
		return Text{Role: role, Value: value, X: x, Y: y, Size: 12, Align: AlignLeft, Color: Slate}
	}

	return Layout{
		Width:  PageWidth,
		Height: PageHeight,
		Borders: []Border{
			{X: 10, Y: 10, W: 277, H: 190, LineWidth: 3, Color: Blue},
			{X: 15, Y: 15, W: 267, H: 180, LineWidth: 1, Color: Green},
		},
		Texts: []Text{
			centered(RoleHeading, headingText, 50, 28, true, Blue),
			centered(RoleSubtitle, Organization, 65, 16, true, Slate),
			centered(RoleCertify, certifyText, 90, 14, false, Slate),
			centered(RoleRecipient, req.RecipientName, 110, 24, true, Blue),
			centered(RoleCompleted, completedText, 125, 14, false, Slate),
			centered(RoleActivity, req.ActivityTitle, 145, 18, true, Green),
			footer(RoleDateLabel, dateLabel, 60, 175),
			footer(RoleDate, req.CompletedDate, 60, 185),
			footer(RoleDirector, directorLabel, 200, 175),
			footer(RoleOrganization, Organization, 200, 185),
		},
		Rules: []Rule{
			{X1: 45, Y1: 190, X2: 120, Y2: 190, LineWidth: 1, Color: Green},
			{X1: 180, Y1: 190, X2: 255, Y2: 190, LineWidth: 1, Color: Green},
		},
		Glyph: Glyph{X: centreX, Y: 170, Size: 40, Color: Gold},
	}
}

// Filename names the artifact for req: whitespace runs in the recipient name
// and activity title become single underscores.
func Filename(req Request, ext string) string {
	return underscoreSpaces(req.RecipientName) + "_" + underscoreSpaces(req.ActivityTitle) + "_Certificate." + strings.TrimPrefix(ext, ".")
}

func underscoreSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range s {
		if isSpace(r) {
			if !inSpace {
				b.WriteByte('_')
			}
			inSpace = true
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// isSpace matches the whitespace class used for filenames, which also counts
// the byte order mark.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}
