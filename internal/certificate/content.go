package certificate

// PreviewLine is one centred line of the certificate body.
type PreviewLine struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// FooterColumn is a footer label with its underlined value.
type FooterColumn struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// PreviewContent is the ordered text of a certificate for clients that draw
// their own preview.
type PreviewContent struct {
	Lines       []PreviewLine `json:"lines"`
	FooterLeft  FooterColumn  `json:"footer_left"`
	FooterRight FooterColumn  `json:"footer_right"`
	Filename    string        `json:"filename"`
}

// Preview extracts the content of Compose(req) in layout order.
func Preview(req Request) PreviewContent {
	layout := Compose(req)
	content := PreviewContent{Filename: Filename(req, "pdf")}
	for _, t := range layout.Texts {
		switch t.Role {
		case RoleDateLabel:
			content.FooterLeft.Label = t.Value
		case RoleDate:
			content.FooterLeft.Value = t.Value
		case RoleDirector:
			content.FooterRight.Label = t.Value
		case RoleOrganization:
			content.FooterRight.Value = t.Value
		default:
			content.Lines = append(content.Lines, PreviewLine{Role: t.Role, Text: t.Value})
		}
	}
	return content
}
