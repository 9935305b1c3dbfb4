package generate

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// RenderPreview renders pasted study material as HTML. Raw HTML in the input
// is not passed through.
func RenderPreview(text string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(prepareText(text)), &buf); err != nil {
		return "", fmt.Errorf("failed to render preview: %w", err)
	}
	return buf.String(), nil
}
