package convert

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
)

// jsonConverter reindents JSON and wraps it in a fenced code block.
type jsonConverter struct{}

func newJSONConverter() *jsonConverter { return &jsonConverter{} }

func (c *jsonConverter) Name() string { return "json" }

func (c *jsonConverter) Accepts(info StreamInfo) bool {
	return info.Extension == ".json"
}

func (c *jsonConverter) Convert(_ context.Context, r io.ReadSeeker, _ StreamInfo) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(data), "", "  "); err != nil {
		return nil, badInput(c.Name(), "file is not valid JSON", err)
	}

	var b bytes.Buffer
	b.WriteString("```json\n")
	b.Write(buf.Bytes())
	b.WriteString("\n```\n")
	return &Result{Markdown: b.String()}, nil
}
