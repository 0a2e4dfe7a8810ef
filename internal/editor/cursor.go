package editor

const (
	MarkerStart = "Start"
	MarkerEnd   = "End"
)

// CursorMarker is a position snapshot exchanged with the host. Relative is
// the marker line's fractional position in the document, from 0 to 1.
type CursorMarker struct {
	Name     string  `json:"Name"`
	Line     int     `json:"Line"`
	Column   int     `json:"Column"`
	Relative float64 `json:"Relative"`
}

func (m CursorMarker) Position() Position {
	return Position{Line: m.Line, Column: m.Column}
}

// Markers returns the selection as a Start and End marker pair.
func (b *Buffer) Markers() []CursorMarker {
	start, end := b.Selection()
	return []CursorMarker{
		b.marker(MarkerStart, start),
		b.marker(MarkerEnd, end),
	}
}

func (b *Buffer) marker(name string, pos Position) CursorMarker {
	relative := 0.0
	if n := len(b.lines) - 1; n > 0 {
		relative = float64(pos.Line) / float64(n)
	}
	return CursorMarker{
		Name:     name,
		Line:     pos.Line,
		Column:   pos.Column,
		Relative: relative,
	}
}

// FindMarker returns the first marker named name.
func FindMarker(markers []CursorMarker, name string) (CursorMarker, bool) {
	for _, m := range markers {
		if m.Name == name {
			return m, true
		}
	}
	return CursorMarker{}, false
}
