// Package preview turns the raw editor buffer into the HTML shown in the
// preview pane.
//
// Rendering runs in a fixed order: column maps, user variables, goldmark,
// then the link target rewrite. Each step works on the output of the one
// before it.
package preview

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"
)

// Input is a snapshot of everything a single render reads.
type Input struct {
	Text       string
	BasePath   string
	ColumnMaps []ColumnMap
	Variables  []UserVariable
}

type Renderer struct {
	md     goldmark.Markdown
	logger *zap.Logger

	xhtml          bool
	highlight      bool
	highlightStyle string
}

type Option func(*Renderer)

// WithXHTML makes void elements self-closing.
func WithXHTML(enabled bool) Option {
	return func(r *Renderer) {
		r.xhtml = enabled
	}
}

// WithHighlighting enables chroma highlighting of fenced code blocks.
func WithHighlighting(enabled bool, style string) Option {
	return func(r *Renderer) {
		r.highlight = enabled
		if style != "" {
			r.highlightStyle = style
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Renderer) {
		r.logger = logger
	}
}

func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		logger:         zap.NewNop(),
		highlightStyle: "github",
	}
	for _, opt := range opts {
		opt(r)
	}

	rendererOpts := []renderer.Option{html.WithUnsafe()}
	if r.xhtml {
		rendererOpts = append(rendererOpts, html.WithXHTML())
	}

	extensions := []goldmark.Extender{
		extension.GFM,
		imageExtension{},
	}
	if r.highlight {
		extensions = append(extensions, highlighting.NewHighlighting(
			highlighting.WithStyle(r.highlightStyle),
			highlighting.WithFormatOptions(),
		))
	}

	r.md = goldmark.New(
		goldmark.WithExtensions(extensions...),
		goldmark.WithRendererOptions(rendererOpts...),
	)

	return r
}

// Render produces the preview HTML for in.
func (r *Renderer) Render(in Input) (string, error) {
	text := in.Text
	if len(in.ColumnMaps) > 0 {
		text = ApplyColumnMaps(text, in.ColumnMaps)
	}
	if len(in.Variables) > 0 {
		text = ApplyUserVariables(text, in.Variables)
	}

	pc := parser.NewContext()
	pc.Set(basePathKey, in.BasePath)

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(text), &buf, parser.WithContext(pc)); err != nil {
		return "", errors.Wrap(err, "failed to render markdown")
	}

	result := TargetBlankLinks(buf.Bytes())

	r.logger.Debug(
		"rendered preview",
		zap.Int("source_len", len(in.Text)),
		zap.Int("html_len", len(result)),
		zap.Int("column_maps", len(in.ColumnMaps)),
		zap.Int("variables", len(in.Variables)),
	)

	return string(result), nil
}
