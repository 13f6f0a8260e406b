package convert

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

// docxConverter reads word/document.xml out of the .docx archive and emits
// one Markdown block per paragraph. Heading styles map to # levels, numbered
// and bulleted paragraphs to list items.
type docxConverter struct{}

func newDocxConverter() (DocumentConverter, error) {
	return &docxConverter{}, nil
}

func (c *docxConverter) Name() string { return "docx" }

func (c *docxConverter) Accepts(info StreamInfo) bool {
	return info.Extension == ".docx"
}

func (c *docxConverter) Convert(ctx context.Context, _ io.ReadSeeker, info StreamInfo) (*Result, error) {
	zr, err := zip.OpenReader(info.LocalPath)
	if err != nil {
		return nil, badInput(c.Name(), "file is not a valid .docx archive", err)
	}
	defer func() { _ = zr.Close() }()

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return nil, badInput(c.Name(), "archive has no word/document.xml", nil)
	}

	rc, err := doc.Open()
	if err != nil {
		return nil, badInput(c.Name(), "failed to read word/document.xml", err)
	}
	defer func() { _ = rc.Close() }()

	md, title, err := docxMarkdown(ctx, rc)
	if err != nil {
		return nil, badInput(c.Name(), "word/document.xml is not parseable", err)
	}
	return &Result{Markdown: md, Title: title}, nil
}

func docxMarkdown(ctx context.Context, r io.Reader) (markdown, title string, err error) {
	dec := xml.NewDecoder(r)

	var blocks []string
	var para strings.Builder
	style := ""
	listItem := false

	flush := func() {
		text := strings.TrimSpace(para.String())
		para.Reset()
		defer func() {
			style = ""
			listItem = false
		}()
		if text == "" {
			return
		}
		switch {
		case strings.HasPrefix(style, "Heading"):
			level := 1
			if n := style[len("Heading"):]; len(n) == 1 && n[0] >= '1' && n[0] <= '6' {
				level = int(n[0] - '0')
			}
			blocks = append(blocks, strings.Repeat("#", level)+" "+text)
		case style == "Title":
			if title == "" {
				title = text
			}
			blocks = append(blocks, "# "+text)
		case listItem:
			blocks = append(blocks, "- "+text)
		default:
			blocks = append(blocks, text)
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return "", "", err
		}
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				para.Reset()
				style = ""
				listItem = false
			case "pStyle":
				for _, a := range t.Attr {
					if a.Name.Local == "val" {
						style = a.Value
					}
				}
			case "numPr":
				listItem = true
			case "t":
				var text string
				if err := dec.DecodeElement(&text, &t); err != nil {
					return "", "", err
				}
				para.WriteString(text)
			case "tab":
				para.WriteString("\t")
			case "br":
				para.WriteString("\n")
			}
		case xml.EndElement:
			if t.Name.Local == "p" {
				flush()
			}
		}
	}
	flush()

	out := strings.Join(blocks, "\n\n")
	if out != "" {
		out += "\n"
	}
	return out, title, nil
}
