package report

import "strings"

// Layout identifies one of the embedded invoice renderers.
type Layout string

const (
	LayoutDefault      Layout = "default"
	LayoutModern       Layout = "modern"
	LayoutProfessional Layout = "professional"
)

// TemplateRef is the part of a template record needed to render with it.
type TemplateRef struct {
	Name   string
	Styles Styles
}

// knownLayouts maps lower-cased template names onto specific renderers.
var knownLayouts = map[string]Layout{
	"modern":       LayoutModern,
	"professional": LayoutProfessional,
}

// SelectLayout picks the renderer for an invoice.
//
//	no reference, or reference that no longer resolves -> LayoutDefault
//	name known (case-insensitive)                       -> that layout
//	any other name                                      -> LayoutModern
//
// Unrecognised names, legacy ones included, render with LayoutModern and
// never with LayoutDefault.
func SelectLayout(templateID *string, tpl *TemplateRef) Layout {
	if templateID == nil || strings.TrimSpace(*templateID) == "" || tpl == nil {
		return LayoutDefault
	}
	if layout, ok := knownLayouts[strings.ToLower(strings.TrimSpace(tpl.Name))]; ok {
		return layout
	}
	return LayoutModern
}
