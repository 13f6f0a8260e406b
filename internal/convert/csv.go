package convert

import (
	"context"
	"encoding/csv"
	"io"
	"strings"
)

// csvConverter renders CSV input as a Markdown pipe table. The first record
// becomes the header row.
type csvConverter struct{}

func newCSVConverter() *csvConverter { return &csvConverter{} }

func (c *csvConverter) Name() string { return "csv" }

func (c *csvConverter) Accepts(info StreamInfo) bool {
	return info.Extension == ".csv"
}

func (c *csvConverter) Convert(_ context.Context, r io.ReadSeeker, _ StreamInfo) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, badInput(c.Name(), "file is not valid CSV", err)
	}
	if len(records) == 0 {
		return &Result{Markdown: ""}, nil
	}

	width := 0
	for _, rec := range records {
		if len(rec) > width {
			width = len(rec)
		}
	}

	var b strings.Builder
	writeRow(&b, records[0], width)
	b.WriteString("|")
	for i := 0; i < width; i++ {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, rec := range records[1:] {
		writeRow(&b, rec, width)
	}
	return &Result{Markdown: b.String()}, nil
}

func writeRow(b *strings.Builder, rec []string, width int) {
	b.WriteString("|")
	for i := 0; i < width; i++ {
		cell := ""
		if i < len(rec) {
			cell = rec[i]
		}
		cell = strings.ReplaceAll(cell, "|", "\\|")
		cell = strings.ReplaceAll(cell, "\n", " ")
		b.WriteString(" ")
		b.WriteString(cell)
		b.WriteString(" |")
	}
	b.WriteString("\n")
}
