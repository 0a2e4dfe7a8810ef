// Package editor holds the live document buffer behind the editing pane:
// its text, selection, scroll position and display mode.
package editor

import (
	"strings"
	"unicode/utf8"
)

type DisplayMode int

const (
	ModeEditor DisplayMode = iota
	ModePreview
	ModeSideBySide
)

func (m DisplayMode) String() string {
	switch m {
	case ModePreview:
		return "preview"
	case ModeSideBySide:
		return "side-by-side"
	default:
		return "editor"
	}
}

// Position is a zero-based line and rune column.
type Position struct {
	Line   int
	Column int
}

func (p Position) before(o Position) bool {
	return p.Line < o.Line || (p.Line == o.Line && p.Column < o.Column)
}

// Buffer is not safe for concurrent use; callers serialize access.
type Buffer struct {
	lines []string

	anchor Position
	head   Position

	focused    bool
	scrollLine int
	mode       DisplayMode

	onChange []func()
	onRender []func()
}

func NewBuffer() *Buffer {
	return &Buffer{lines: []string{""}}
}

// OnChange registers fn to run after every content change.
func (b *Buffer) OnChange(fn func()) {
	b.onChange = append(b.onChange, fn)
}

// OnRender registers fn to run whenever a re-render is requested.
func (b *Buffer) OnRender(fn func()) {
	b.onRender = append(b.onRender, fn)
}

// RequestRender asks the preview to refresh without touching the content.
func (b *Buffer) RequestRender() {
	for _, fn := range b.onRender {
		fn()
	}
}

func (b *Buffer) Value() string {
	return strings.Join(b.lines, "\n")
}

// SetValue replaces the whole document and moves the cursor to the start.
func (b *Buffer) SetValue(value string) {
	b.anchor, b.head = Position{}, Position{}
	b.scrollLine = 0
	if value == b.Value() {
		return
	}
	b.lines = strings.Split(value, "\n")
	b.changed()
}

// Insert replaces the selection with text and leaves the cursor after it.
func (b *Buffer) Insert(text string) {
	start, end := b.Selection()

	prefix := b.lines[start.Line][:byteOffset(b.lines[start.Line], start.Column)]
	suffix := b.lines[end.Line][byteOffset(b.lines[end.Line], end.Column):]

	inserted := strings.Split(text, "\n")
	last := len(inserted) - 1
	cursor := Position{
		Line:   start.Line + last,
		Column: utf8.RuneCountInString(inserted[last]),
	}
	if last == 0 {
		cursor.Column += start.Column
	}
	inserted[0] = prefix + inserted[0]
	inserted[last] += suffix

	lines := make([]string, 0, len(b.lines)-(end.Line-start.Line)+last)
	lines = append(lines, b.lines[:start.Line]...)
	lines = append(lines, inserted...)
	lines = append(lines, b.lines[end.Line+1:]...)
	b.lines = lines

	b.anchor, b.head = cursor, cursor
	if text != "" || start != end {
		b.changed()
	}
}

func (b *Buffer) changed() {
	for _, fn := range b.onChange {
		fn()
	}
}

func (b *Buffer) LineCount() int {
	return len(b.lines)
}

// Selection returns the selection bounds in document order.
func (b *Buffer) Selection() (start, end Position) {
	if b.head.before(b.anchor) {
		return b.head, b.anchor
	}
	return b.anchor, b.head
}

// Select sets the selection; both ends are clamped to the document.
func (b *Buffer) Select(anchor, head Position) {
	b.anchor = b.clamp(anchor)
	b.head = b.clamp(head)
}

// SetCursor collapses the selection at pos, clamped to the document.
func (b *Buffer) SetCursor(pos Position) {
	pos = b.clamp(pos)
	b.anchor, b.head = pos, pos
}

func (b *Buffer) Cursor() Position {
	return b.head
}

func (b *Buffer) Focus() {
	b.focused = true
}

func (b *Buffer) Focused() bool {
	return b.focused
}

// ScrollIntoView makes pos the first visible line.
func (b *Buffer) ScrollIntoView(pos Position) {
	b.scrollLine = b.clamp(pos).Line
}

func (b *Buffer) ScrollLine() int {
	return b.scrollLine
}

func (b *Buffer) SetDisplayMode(mode DisplayMode) {
	b.mode = mode
}

func (b *Buffer) DisplayMode() DisplayMode {
	return b.mode
}

func (b *Buffer) clamp(pos Position) Position {
	if pos.Line < 0 {
		return Position{}
	}
	if pos.Line >= len(b.lines) {
		last := len(b.lines) - 1
		return Position{Line: last, Column: utf8.RuneCountInString(b.lines[last])}
	}
	if pos.Column < 0 {
		pos.Column = 0
	}
	if n := utf8.RuneCountInString(b.lines[pos.Line]); pos.Column > n {
		pos.Column = n
	}
	return pos
}

func byteOffset(line string, column int) int {
	for i := range line {
		if column == 0 {
			return i
		}
		column--
	}
	return len(line)
}
