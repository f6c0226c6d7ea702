package cleaner

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// skipped elements contribute no rendered text.
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Head:     true,
	atom.Title:    true,
}

// blocks start and end on their own line; the value is the number of
// line breaks required around them.
var blocks = map[atom.Atom]int{
	atom.P: 2,

	atom.Div: 1, atom.Section: 1, atom.Article: 1, atom.Main: 1, atom.Aside: 1,
	atom.Header: 1, atom.Footer: 1, atom.Nav: 1, atom.Form: 1, atom.Fieldset: 1,
	atom.H1: 1, atom.H2: 1, atom.H3: 1, atom.H4: 1, atom.H5: 1, atom.H6: 1,
	atom.Ul: 1, atom.Ol: 1, atom.Li: 1, atom.Dl: 1, atom.Dt: 1, atom.Dd: 1,
	atom.Table: 1, atom.Tr: 1, atom.Blockquote: 1, atom.Pre: 1, atom.Hr: 1,
	atom.Figure: 1, atom.Figcaption: 1, atom.Address: 1, atom.Details: 1, atom.Summary: 1,
}

// InnerText approximates the DOM innerText of n for documents that were
// never laid out by a browser: script and style content is dropped,
// whitespace collapses inside inline runs, block elements sit on their own
// lines, paragraphs are separated by a blank line and <br> breaks a line.
func InnerText(n *html.Node) string {
	w := &textWriter{}
	w.walk(n, false)
	return strings.TrimSpace(string(w.buf))
}

type textWriter struct {
	buf     []byte
	pending int
}

func (w *textWriter) walk(n *html.Node, pre bool) {
	switch n.Type {
	case html.TextNode:
		w.text(n.Data, pre)
		return
	case html.ElementNode:
		if skipped[n.DataAtom] {
			return
		}
		if n.DataAtom == atom.Br {
			w.lineBreak(1)
			w.flush()
			return
		}
		if n.DataAtom == atom.Pre {
			pre = true
		}
	case html.CommentNode, html.DoctypeNode:
		return
	}

	breaks := blocks[n.DataAtom]
	if n.Type == html.ElementNode && breaks > 0 {
		w.lineBreak(breaks)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c, pre)
		if n.DataAtom == atom.Tr && c.Type == html.ElementNode && c.NextSibling != nil {
			w.text("\t", true)
		}
	}
	if n.Type == html.ElementNode && breaks > 0 {
		w.lineBreak(breaks)
	}
}

func (w *textWriter) lineBreak(n int) {
	if n > w.pending {
		w.pending = n
	}
}

// flush writes pending line breaks, trimming trailing spaces first.
// Breaks before any text are dropped.
func (w *textWriter) flush() {
	if w.pending == 0 {
		return
	}
	w.buf = []byte(strings.TrimRight(string(w.buf), " "))
	if len(w.buf) > 0 {
		w.buf = append(w.buf, strings.Repeat("\n", w.pending)...)
	}
	w.pending = 0
}

func (w *textWriter) text(s string, pre bool) {
	if !pre {
		s = collapseSpace(s)
		if s == "" || s == " " && (len(w.buf) == 0 || w.pending > 0 || w.lastIsSpace()) {
			return
		}
	}
	w.flush()
	if !pre && strings.HasPrefix(s, " ") && (len(w.buf) == 0 || w.lastIsSpace()) {
		s = s[1:]
	}
	w.buf = append(w.buf, s...)
}

func (w *textWriter) lastIsSpace() bool {
	if len(w.buf) == 0 {
		return false
	}
	last := w.buf[len(w.buf)-1]
	return last == ' ' || last == '\n' || last == '\t'
}

// collapseSpace replaces every run of ASCII whitespace with one space.
// U+00A0 is preserved, as browsers do.
func collapseSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			if !inSpace {
				b.WriteByte(' ')
			}
			inSpace = true
		default:
			b.WriteRune(r)
			inSpace = false
		}
	}
	return b.String()
}
