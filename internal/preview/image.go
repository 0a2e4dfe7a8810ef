package preview

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

var basePathKey = parser.NewContextKey()

// ResolveImage prefixes dest with basePath unless dest contains a colon,
// which is taken to mean it already has a scheme or drive letter.
func ResolveImage(basePath string, dest []byte) []byte {
	if basePath == "" || bytes.IndexByte(dest, ':') >= 0 {
		return dest
	}
	resolved := make([]byte, 0, len(basePath)+len(dest))
	resolved = append(resolved, basePath...)
	return append(resolved, dest...)
}

type imageResolver struct{}

func (imageResolver) Transform(doc *ast.Document, _ text.Reader, pc parser.Context) {
	basePath, _ := pc.Get(basePathKey).(string)
	if basePath == "" {
		return
	}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if img, ok := n.(*ast.Image); ok && entering {
			img.Destination = ResolveImage(basePath, img.Destination)
		}
		return ast.WalkContinue, nil
	})
}

type imageRenderer struct {
	html.Config
}

func newImageRenderer() *imageRenderer {
	return &imageRenderer{Config: html.NewConfig()}
}

// SetOption receives the markdown renderer's options, XHTML among them.
func (r *imageRenderer) SetOption(name renderer.OptionName, value interface{}) {
	r.Config.SetOption(name, value)
}

func (r *imageRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindImage, r.renderImage)
}

func (r *imageRenderer) renderImage(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.Image)

	_, _ = w.WriteString(`<img src="`)
	if r.Unsafe || !html.IsDangerousURL(n.Destination) {
		_, _ = w.Write(util.EscapeHTML(util.URLEscape(n.Destination, true)))
	}
	_, _ = w.WriteString(`" alt="`)
	_, _ = w.Write(util.EscapeHTML(altText(n, source)))
	_ = w.WriteByte('"')
	if n.Title != nil {
		_, _ = w.WriteString(` title="`)
		r.Writer.Write(w, n.Title)
		_ = w.WriteByte('"')
	}
	if r.XHTML {
		_, _ = w.WriteString(" />")
	} else {
		_ = w.WriteByte('>')
	}
	return ast.WalkSkipChildren, nil
}

func altText(n ast.Node, source []byte) []byte {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(source))
		case *ast.String:
			buf.Write(t.Value)
		default:
			buf.Write(altText(c, source))
		}
	}
	return buf.Bytes()
}

// imageExtension resolves image sources against the base path carried in
// the parser context and renders them with the configured XHTML mode.
type imageExtension struct{}

func (imageExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(imageResolver{}, 100),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(newImageRenderer(), 100),
	))
}
