package convert

import (
	"context"
	"io"
	"strings"
	"unicode/utf8"
)

// plainTextConverter passes text through: plain text and Markdown are already
// Markdown.
type plainTextConverter struct{}

func newPlainTextConverter() *plainTextConverter { return &plainTextConverter{} }

func (c *plainTextConverter) Name() string { return "plaintext" }

func (c *plainTextConverter) Accepts(info StreamInfo) bool {
	switch info.Extension {
	case ".txt", ".text", ".md", ".markdown":
		return true
	case "":
		return info.MIMEType == "text/plain"
	default:
		return false
	}
}

func (c *plainTextConverter) Convert(_ context.Context, r io.ReadSeeker, _ StreamInfo) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, badInput(c.Name(), "file is not valid UTF-8 text", nil)
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	return &Result{Markdown: text}, nil
}
