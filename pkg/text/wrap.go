package text

import (
	"strings"
	"unicode"

	"github.com/matzehuels/flowset/pkg/layout"
)

// Line is one broken line of a paragraph.
type Line struct {
	Text  string
	Width layout.Abs
	// Start and End are rune offsets into the paragraph text.
	Start, End int
}

type token struct {
	text       string
	start, end int
	newline    bool
}

func tokenize(s string) []token {
	var out []token
	var b strings.Builder
	start, i := 0, 0
	flush := func() {
		if b.Len() > 0 {
			out = append(out, token{text: b.String(), start: start, end: i})
			b.Reset()
		}
	}
	for _, r := range s {
		switch {
		case r == '\n':
			flush()
			out = append(out, token{start: i, end: i + 1, newline: true})
		case unicode.IsSpace(r):
			flush()
		default:
			if b.Len() == 0 {
				start = i
			}
			b.WriteRune(r)
		}
		i++
	}
	flush()
	return out
}

// Break breaks s into lines no wider than width at the given font size.
// A word wider than the line is split between characters.
func Break(m Measurer, s string, size, width layout.Abs) []Line {
	space := m.Advance(" ", size)
	var lines []Line
	var cur []token
	var curWidth layout.Abs

	emit := func() {
		if len(cur) == 0 {
			return
		}
		words := make([]string, len(cur))
		for i, t := range cur {
			words[i] = t.text
		}
		lines = append(lines, Line{
			Text:  strings.Join(words, " "),
			Width: curWidth,
			Start: cur[0].start,
			End:   cur[len(cur)-1].end,
		})
		cur, curWidth = nil, 0
	}

	for _, tok := range tokenize(s) {
		if tok.newline {
			emit()
			continue
		}
		w := m.Advance(tok.text, size)
		if len(cur) > 0 && !width.Fits(curWidth+space+w) {
			emit()
		}
		if len(cur) == 0 && !width.Fits(w) {
			for _, part := range splitWord(m, tok, size, width) {
				cur = []token{part}
				curWidth = m.Advance(part.text, size)
				emit()
			}
			continue
		}
		if len(cur) > 0 {
			curWidth += space
		}
		cur = append(cur, tok)
		curWidth += w
	}
	emit()
	return lines
}

func splitWord(m Measurer, tok token, size, width layout.Abs) []token {
	var out []token
	runes := []rune(tok.text)
	from := 0
	for from < len(runes) {
		to := from + 1
		for to < len(runes) && width.Fits(m.Advance(string(runes[from:to+1]), size)) {
			to++
		}
		out = append(out, token{
			text:  string(runes[from:to]),
			start: tok.start + from,
			end:   tok.start + to,
		})
		from = to
	}
	return out
}
