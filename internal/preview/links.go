package preview

import (
	"bytes"

	"golang.org/x/net/html"
)

var targetBlank = []byte(` target="blank"`)

// TargetBlankLinks adds target="blank" to every <a> start tag that has no
// target attribute. Everything else is copied byte for byte.
func TargetBlankLinks(src []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(len(src) + len(targetBlank)*4)

	z := html.NewTokenizer(bytes.NewReader(src))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			buf.Write(z.Raw())
			break
		}

		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			buf.Write(z.Raw())
			continue
		}

		// TagName and TagAttr may modify the underlying buffer.
		raw := append([]byte(nil), z.Raw()...)

		name, hasAttr := z.TagName()
		if string(name) != "a" || hasTargetAttr(z, hasAttr) {
			buf.Write(raw)
			continue
		}
		buf.Write(insertTarget(raw, tt == html.SelfClosingTagToken))
	}

	return buf.Bytes()
}

func hasTargetAttr(z *html.Tokenizer, more bool) bool {
	for more {
		var key []byte
		key, _, more = z.TagAttr()
		if string(key) == "target" {
			return true
		}
	}
	return false
}

func insertTarget(tag []byte, selfClosing bool) []byte {
	end := len(tag)
	if end > 0 && tag[end-1] == '>' {
		end--
	}
	if selfClosing && end > 0 && tag[end-1] == '/' {
		end--
	}
	head := bytes.TrimRight(tag[:end], " \t\r\n\f")

	result := make([]byte, 0, len(tag)+len(targetBlank))
	result = append(result, head...)
	result = append(result, targetBlank...)
	if end < len(tag) && tag[end] == '/' {
		result = append(result, ' ')
	}
	return append(result, tag[end:]...)
}
