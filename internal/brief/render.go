// Package brief turns the markdown brief into an email and sends it.
package brief

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>{{.Subject}}</title>
  <style>
    body { margin: 0; padding: 24px; background-color: #f3f4f6; font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; color: #111827; line-height: 1.5; }
    .container { max-width: 720px; margin: 0 auto; background: #ffffff; border-radius: 8px; border: 1px solid #e5e7eb; padding: 24px; }
    table { border-collapse: collapse; margin-bottom: 16px; }
    th, td { border: 1px solid #e5e7eb; padding: 4px 10px; text-align: left; }
    h2 { border-bottom: 1px solid #e5e7eb; padding-bottom: 4px; }
    a { color: #1d4ed8; }
  </style>
</head>
<body>
  <div class="container">
{{.Body}}
  </div>
</body>
</html>
`

// Message is a rendered brief ready to send.
type Message struct {
	Subject string
	Text    string
	HTML    string
}

// Renderer converts markdown briefs to HTML.
type Renderer struct {
	md   goldmark.Markdown
	tmpl *template.Template
}

// NewRenderer creates a renderer with GitHub-style tables enabled.
func NewRenderer() *Renderer {
	return &Renderer{
		md:   goldmark.New(goldmark.WithExtensions(extension.Table, extension.Linkify)),
		tmpl: template.Must(template.New("brief").Parse(pageTemplate)),
	}
}

// Render converts markdown to an HTML fragment.
func (r *Renderer) Render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}

	return buf.String(), nil
}

// Compose renders markdown into a full HTML page and keeps the markdown as
// the plain text alternative.
func (r *Renderer) Compose(subject, markdown string) (*Message, error) {
	body, err := r.Render(markdown)
	if err != nil {
		return nil, err
	}

	var page bytes.Buffer

	data := struct {
		Subject string
		Body    template.HTML
	}{
		Subject: subject,
		Body:    template.HTML(body),
	}

	if err := r.tmpl.Execute(&page, data); err != nil {
		return nil, fmt.Errorf("failed to render HTML template: %w", err)
	}

	return &Message{Subject: subject, Text: markdown, HTML: page.String()}, nil
}
