package preview

import (
	"regexp"
	"strings"

	"github.com/stateful/mdpane/internal/lru"
)

// ColumnMap replaces a heading caption with Value before rendering.
type ColumnMap struct {
	Name  string `json:"Name" yaml:"name" validate:"required"`
	Value string `json:"Value" yaml:"value"`
}

// UserVariable replaces every "{Name}" token with Value before rendering.
type UserVariable struct {
	Name  string `json:"Name" yaml:"name" validate:"required"`
	Value string `json:"Value" yaml:"value"`
}

const patternCacheCapacity = 256

// Compiled heading patterns keyed by column name. Only the patterns are
// cached; tables are always read from the caller.
var patternCache = lru.NewCache[*headingPattern](patternCacheCapacity)

type headingPattern struct {
	name string
	re   *regexp.Regexp
}

func (p *headingPattern) Identifier() string { return p.name }

func compileHeadingPattern(name string) (*headingPattern, error) {
	return patternCache.GetOrCreate(name, func() (*headingPattern, error) {
		re, err := regexp.Compile(`(?im)^(#{1,9}[ \t]+)` + regexp.QuoteMeta(name) + `([ \t\r]*)$`)
		if err != nil {
			return nil, err
		}
		return &headingPattern{name: name, re: re}, nil
	})
}

// ApplyColumnMaps rewrites headings whose caption equals a column name,
// case-insensitively, keeping the heading marker and trailing whitespace.
// Maps are applied in order, so later entries see earlier replacements.
func ApplyColumnMaps(text string, maps []ColumnMap) string {
	for _, m := range maps {
		p, err := compileHeadingPattern(m.Name)
		if err != nil {
			// Quoted names always compile.
			continue
		}
		text = p.re.ReplaceAllString(text, "${1}"+strings.ReplaceAll(m.Value, "$", "$$")+"${2}")
	}
	return text
}

// ApplyUserVariables replaces "{Name}" tokens literally, in table order.
func ApplyUserVariables(text string, vars []UserVariable) string {
	for _, v := range vars {
		text = strings.ReplaceAll(text, "{"+v.Name+"}", v.Value)
	}
	return text
}
