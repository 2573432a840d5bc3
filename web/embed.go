package web

import "embed"

// Templates embeds the HTML layouts used for PDF rendering.
//
//go:embed templates/pdf/*.html
var Templates embed.FS
