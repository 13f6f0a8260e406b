package convert

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// pdfConverter extracts text from PDF content streams via pdfcpu. Layout is
// not reconstructed; the output is the text runs in stream order, one
// paragraph per text block. Hex-encoded CID text is skipped.
type pdfConverter struct {
	conf *model.Configuration
}

func newPDFConverter() (DocumentConverter, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &pdfConverter{conf: conf}, nil
}

func (c *pdfConverter) Name() string { return "pdf" }

func (c *pdfConverter) Accepts(info StreamInfo) bool {
	if info.Extension == ".pdf" {
		return true
	}
	return info.Extension == "" && info.MIMEType == "application/pdf"
}

func (c *pdfConverter) Convert(ctx context.Context, _ io.ReadSeeker, info StreamInfo) (*Result, error) {
	pages, err := api.PageCountFile(info.LocalPath)
	if err != nil {
		return nil, badInput(c.Name(), "file is not a readable PDF", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	outDir, err := os.MkdirTemp("", "mdgate-pdf-")
	if err != nil {
		return nil, fmt.Errorf("create extraction dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(outDir) }()

	if err := api.ExtractContentFile(info.LocalPath, outDir, nil, c.conf); err != nil {
		return nil, badInput(c.Name(), "failed to extract PDF content", err)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return nil, fmt.Errorf("read extraction dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(outDir, name))
		if err != nil {
			return nil, fmt.Errorf("read extracted content: %w", err)
		}
		text := contentStreamText(data)
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(text)
	}

	md := b.String()
	if md == "" {
		md = fmt.Sprintf("*(no extractable text in %d page PDF)*", pages)
	}
	return &Result{Markdown: md}, nil
}

// contentStreamText pulls the literal strings shown by Tj/TJ/'/\" operators
// out of a decoded PDF content stream.
func contentStreamText(data []byte) string {
	var out strings.Builder
	var pending strings.Builder

	flush := func() {
		s := strings.TrimSpace(pending.String())
		pending.Reset()
		if s == "" {
			return
		}
		if out.Len() > 0 {
			out.WriteString("\n")
		}
		out.WriteString(s)
	}

	i := 0
	for i < len(data) {
		switch data[i] {
		case '(':
			s, next := literalString(data, i)
			pending.WriteString(s)
			i = next
		case 'T':
			if i+1 < len(data) {
				switch data[i+1] {
				case 'j', 'J':
					pending.WriteString(" ")
					i += 2
					continue
				case 'd', 'D', '*':
					flush()
					i += 2
					continue
				}
			}
			i++
		case '\'', '"':
			flush()
			i++
		case '%':
			for i < len(data) && data[i] != '\n' {
				i++
			}
		default:
			i++
		}
	}
	flush()
	return out.String()
}

// literalString decodes a parenthesized PDF string starting at open. Returns
// the decoded text and the index just past the closing parenthesis.
func literalString(data []byte, open int) (string, int) {
	var b strings.Builder
	depth := 0
	i := open
	for i < len(data) {
		c := data[i]
		switch c {
		case '\\':
			if i+1 < len(data) {
				switch data[i+1] {
				case 'n':
					b.WriteByte('\n')
				case 't':
					b.WriteByte('\t')
				case 'r', 'b', 'f':
					// control whitespace, dropped
				case '(', ')', '\\':
					b.WriteByte(data[i+1])
				default:
					// octal escapes and unknown escapes are skipped
				}
				i += 2
				continue
			}
			i++
		case '(':
			depth++
			if depth > 1 {
				b.WriteByte(c)
			}
			i++
		case ')':
			depth--
			if depth == 0 {
				return b.String(), i + 1
			}
			b.WriteByte(c)
			i++
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String(), i
}
