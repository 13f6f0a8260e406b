package convert

import (
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// htmlConverter walks the parsed DOM and emits Markdown for the common
// structural elements. Scripts, styles and anything else non-textual are
// dropped.
type htmlConverter struct{}

func newHTMLConverter() *htmlConverter { return &htmlConverter{} }

func (c *htmlConverter) Name() string { return "html" }

func (c *htmlConverter) Accepts(info StreamInfo) bool {
	switch info.Extension {
	case ".html", ".htm":
		return true
	case "":
		return info.MIMEType == "text/html"
	default:
		return false
	}
}

func (c *htmlConverter) Convert(_ context.Context, r io.ReadSeeker, _ StreamInfo) (*Result, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, badInput(c.Name(), "file is not parseable HTML", err)
	}

	w := &htmlWriter{}
	w.walk(doc)
	return &Result{Markdown: w.markdown(), Title: w.title}, nil
}

type htmlWriter struct {
	blocks []string
	title  string
}

func (w *htmlWriter) markdown() string {
	out := strings.Join(w.blocks, "\n\n")
	if out != "" {
		out += "\n"
	}
	return out
}

func (w *htmlWriter) emit(block string) {
	block = strings.TrimSpace(block)
	if block != "" {
		w.blocks = append(w.blocks, block)
	}
}

func (w *htmlWriter) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Noscript, atom.Iframe:
			return
		case atom.Title:
			w.title = strings.TrimSpace(textContent(n))
			return
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			level := int(n.Data[1] - '0')
			w.emit(strings.Repeat("#", level) + " " + inlineText(n))
			return
		case atom.P:
			w.emit(inlineText(n))
			return
		case atom.Pre:
			w.emit("```\n" + strings.TrimRight(textContent(n), "\n") + "\n```")
			return
		case atom.Blockquote:
			inner := inlineText(n)
			if inner != "" {
				w.emit("> " + inner)
			}
			return
		case atom.Ul, atom.Ol:
			w.emitList(n, n.DataAtom == atom.Ol)
			return
		case atom.Table:
			// Tables are flattened to their cell text, row per line.
			w.emitTable(n)
			return
		}
	}

	if n.Type == html.TextNode {
		// Stray text directly under body.
		if n.Parent != nil && n.Parent.DataAtom == atom.Body {
			w.emit(collapseSpace(n.Data))
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
}

func (w *htmlWriter) emitList(n *html.Node, ordered bool) {
	var lines []string
	i := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.DataAtom != atom.Li {
			continue
		}
		i++
		marker := "- "
		if ordered {
			marker = fmt.Sprintf("%d. ", i)
		}
		item := inlineText(c)
		if item != "" {
			lines = append(lines, marker+item)
		}
	}
	w.emit(strings.Join(lines, "\n"))
}

func (w *htmlWriter) emitTable(n *html.Node) {
	var lines []string
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Tr {
			var cells []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
					cells = append(cells, inlineText(c))
				}
			}
			if len(cells) > 0 {
				lines = append(lines, "| "+strings.Join(cells, " | ")+" |")
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	w.emit(strings.Join(lines, "\n"))
}

// inlineText renders the inline content of a node with Markdown emphasis,
// links and inline code.
func inlineText(n *html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(collapseSpace(n.Data))
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				return
			case atom.Br:
				b.WriteString("\n")
				return
			case atom.A:
				text := strings.TrimSpace(inlineText(n))
				href := attr(n, "href")
				if text == "" {
					text = href
				}
				if href != "" {
					fmt.Fprintf(&b, "[%s](%s)", text, href)
				} else {
					b.WriteString(text)
				}
				return
			case atom.Strong, atom.B:
				if inner := strings.TrimSpace(inlineText(n)); inner != "" {
					b.WriteString("**" + inner + "**")
				}
				return
			case atom.Em, atom.I:
				if inner := strings.TrimSpace(inlineText(n)); inner != "" {
					b.WriteString("*" + inner + "*")
				}
				return
			case atom.Code:
				if inner := strings.TrimSpace(textContent(n)); inner != "" {
					b.WriteString("`" + inner + "`")
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		visit(c)
	}
	return strings.TrimSpace(b.String())
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return b.String()
}

func collapseSpace(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		if strings.ContainsAny(s, " \t\n") && s != "" {
			return " "
		}
		return ""
	}
	out := strings.Join(fields, " ")
	if s != "" && isSpace(s[0]) {
		out = " " + out
	}
	if s != "" && isSpace(s[len(s)-1]) {
		out += " "
	}
	return out
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
