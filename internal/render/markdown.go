// Package render turns assistant markdown into markup that is safe to display.
package render

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Renderer converts markdown to sanitized HTML.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// New returns a Renderer with GitHub flavoured markdown and a user content
// sanitizing policy. Raw HTML in the source is passed to the sanitizer rather
// than dropped, so inline citations such as <a href=...>[1]</a> survive.
func New() *Renderer {
	policy := bluemonday.UGCPolicy()
	policy.AddTargetBlankToFullyQualifiedLinks(true)

	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
		policy: policy,
	}
}

// Markdown renders src and sanitizes the resulting HTML.
func (r *Renderer) Markdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", errors.Wrap(err, "render markdown")
	}
	return r.Sanitize(buf.String()), nil
}

// Sanitize strips unsafe markup from html.
func (r *Renderer) Sanitize(html string) string {
	return r.policy.Sanitize(html)
}
