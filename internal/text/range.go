package text

// Range is a half-open byte range [Start, End) in a buffer.
type Range struct {
	Start uint32
	End   uint32
}

func NewRange(start, end uint32) Range {
	if end < start {
		start, end = end, start
	}
	return Range{Start: start, End: end}
}

func (r Range) Len() uint32 {
	return r.End - r.Start
}

func (r Range) Empty() bool {
	return r.Start == r.End
}

// ContainsOffset reports whether off lies inside the range, boundaries
// included. Boundary inclusion matches the greedy anchor semantics:
// an offset sitting exactly on an edge still belongs to the range.
func (r Range) ContainsOffset(off uint32) bool {
	return off >= r.Start && off <= r.End
}

// ContainsRange reports whether other lies entirely within r,
// boundaries included.
func (r Range) ContainsRange(other Range) bool {
	return other.Start >= r.Start && other.End <= r.End
}

// Intersects reports whether the two ranges share at least one offset,
// counting touching boundaries as intersection.
func (r Range) Intersects(other Range) bool {
	return other.Start <= r.End && r.Start <= other.End
}

// StripWhitespace shrinks r inward past leading and trailing
// whitespace in content. An all-whitespace range collapses to an empty
// range at its end of the leading run.
func StripWhitespace(content []byte, r Range) Range {
	if r.End > uint32(len(content)) {
		r.End = uint32(len(content))
	}
	if r.Start > r.End {
		r.Start = r.End
	}
	for r.Start < r.End && isSpace(content[r.Start]) {
		r.Start++
	}
	for r.End > r.Start && isSpace(content[r.End-1]) {
		r.End--
	}
	return r
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// Union returns the smallest range covering both inputs.
func (r Range) Union(other Range) Range {
	out := r
	if other.Start < out.Start {
		out.Start = other.Start
	}
	if other.End > out.End {
		out.End = other.End
	}
	return out
}
