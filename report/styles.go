package report

// Styles is the visual descriptor stored on an invoice template.
type Styles struct {
	Colors Colors      `json:"colors" yaml:"colors"`
	Fonts  Fonts       `json:"fonts" yaml:"fonts"`
	Layout LayoutStyle `json:"layout" yaml:"layout"`
}

// Colors are CSS color values.
type Colors struct {
	Primary    string `json:"primary" yaml:"primary"`
	Secondary  string `json:"secondary" yaml:"secondary"`
	Accent     string `json:"accent" yaml:"accent"`
	Background string `json:"background" yaml:"background"`
	Text       string `json:"text" yaml:"text"`
	Border     string `json:"border" yaml:"border"`
}

// Fonts name PDF base fonts such as Helvetica-Bold or Times-Roman.
type Fonts struct {
	Heading string `json:"heading" yaml:"heading"`
	Body    string `json:"body" yaml:"body"`
	Mono    string `json:"mono" yaml:"mono"`
}

// LayoutStyle tweaks element placement.
type LayoutStyle struct {
	HeaderAlignment string `json:"headerAlignment" yaml:"headerAlignment"`
	LogoPosition    string `json:"logoPosition" yaml:"logoPosition"`
	TableStyle      string `json:"tableStyle" yaml:"tableStyle"`
	FooterStyle     string `json:"footerStyle" yaml:"footerStyle"`
}

// IsZero reports whether no style was supplied.
func (s Styles) IsZero() bool {
	return s == Styles{}
}

var layoutDefaults = map[Layout]Styles{
	LayoutDefault: {
		Colors: Colors{Primary: "#111827", Secondary: "#6b7280", Accent: "#2563eb", Background: "#ffffff", Text: "#111827", Border: "#e5e7eb"},
		Fonts:  Fonts{Heading: "Helvetica-Bold", Body: "Helvetica", Mono: "Courier"},
		Layout: LayoutStyle{HeaderAlignment: "left", LogoPosition: "left", TableStyle: "simple", FooterStyle: "minimal"},
	},
	LayoutModern: {
		Colors: Colors{Primary: "#1f2937", Secondary: "#6b7280", Accent: "#3b82f6", Background: "#ffffff", Text: "#111827", Border: "#e5e7eb"},
		Fonts:  Fonts{Heading: "Helvetica-Bold", Body: "Helvetica", Mono: "Courier"},
		Layout: LayoutStyle{HeaderAlignment: "left", LogoPosition: "left", TableStyle: "modern", FooterStyle: "minimal"},
	},
	LayoutProfessional: {
		Colors: Colors{Primary: "#111827", Secondary: "#4b5563", Accent: "#1f2937", Background: "#ffffff", Text: "#000000", Border: "#d1d5db"},
		Fonts:  Fonts{Heading: "Times-Bold", Body: "Times-Roman", Mono: "Courier"},
		Layout: LayoutStyle{HeaderAlignment: "center", LogoPosition: "left", TableStyle: "classic", FooterStyle: "traditional"},
	},
}

// mergeStyles fills every empty field of s from the layout defaults.
func mergeStyles(layout Layout, s Styles) Styles {
	d := layoutDefaults[layout]
	pick := func(v, fallback string) string {
		if v == "" {
			return fallback
		}
		return v
	}
	return Styles{
		Colors: Colors{
			Primary:    pick(s.Colors.Primary, d.Colors.Primary),
			Secondary:  pick(s.Colors.Secondary, d.Colors.Secondary),
			Accent:     pick(s.Colors.Accent, d.Colors.Accent),
			Background: pick(s.Colors.Background, d.Colors.Background),
			Text:       pick(s.Colors.Text, d.Colors.Text),
			Border:     pick(s.Colors.Border, d.Colors.Border),
		},
		Fonts: Fonts{
			Heading: pick(s.Fonts.Heading, d.Fonts.Heading),
			Body:    pick(s.Fonts.Body, d.Fonts.Body),
			Mono:    pick(s.Fonts.Mono, d.Fonts.Mono),
		},
		Layout: LayoutStyle{
			HeaderAlignment: pick(s.Layout.HeaderAlignment, d.Layout.HeaderAlignment),
			LogoPosition:    pick(s.Layout.LogoPosition, d.Layout.LogoPosition),
			TableStyle:      pick(s.Layout.TableStyle, d.Layout.TableStyle),
			FooterStyle:     pick(s.Layout.FooterStyle, d.Layout.FooterStyle),
		},
	}
}

// cssFont maps PDF base font names onto CSS font stacks.
func cssFont(name string) string {
	switch name {
	case "Times-Roman", "Times-Bold", "Times-Italic":
		return `"Times New Roman", Times, serif`
	case "Courier", "Courier-Bold":
		return `"Courier New", Courier, monospace`
	default:
		return `Helvetica, Arial, sans-serif`
	}
}

// cssWeight reports the weight implied by a PDF base font name.
func cssWeight(name string) string {
	switch name {
	case "Helvetica-Bold", "Times-Bold", "Courier-Bold":
		return "700"
	default:
		return "400"
	}
}
