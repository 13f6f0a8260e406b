package convert

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const docxBody = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Quarterly Report</w:t></w:r></w:p>
    <w:p><w:r><w:t>Revenue grew </w:t></w:r><w:r><w:t>steadily.</w:t></w:r></w:p>
    <w:p><w:pPr><w:numPr><w:ilvl w:val="0"/></w:numPr></w:pPr><w:r><w:t>first item</w:t></w:r></w:p>
    <w:p><w:pPr><w:numPr><w:ilvl w:val="0"/></w:numPr></w:pPr><w:r><w:t>second item</w:t></w:r></w:p>
    <w:p><w:r><w:t></w:t></w:r></w:p>
  </w:body>
</w:document>`

func writeDocx(t *testing.T, documentXML string) string {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	path := filepath.Join(t.TempDir(), "doc.docx")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatalf("write docx: %v", err)
	}
	return path
}

func TestDocxConvert(t *testing.T) {
	t.Parallel()

	conv, err := newDocxConverter()
	if err != nil {
		t.Fatalf("load docx converter: %v", err)
	}

	path := writeDocx(t, docxBody)
	res, err := conv.Convert(context.Background(), nil, StreamInfo{
		Filename:  "doc.docx",
		Extension: ".docx",
		LocalPath: path,
	})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	for _, want := range []string{
		"# Quarterly Report",
		"Revenue grew steadily.",
		"- first item",
		"- second item",
	} {
		if !strings.Contains(res.Markdown, want) {
			t.Fatalf("markdown=%q missing %q", res.Markdown, want)
		}
	}
}

func TestDocxConvertRejectsNonZip(t *testing.T) {
	t.Parallel()

	conv, err := newDocxConverter()
	if err != nil {
		t.Fatalf("load docx converter: %v", err)
	}

	path := filepath.Join(t.TempDir(), "fake.docx")
	if err := os.WriteFile(path, []byte("not a zip"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	_, err = conv.Convert(context.Background(), nil, StreamInfo{Extension: ".docx", LocalPath: path})
	var cerr *Error
	if !errors.As(err, &cerr) || cerr.Kind != KindBadInput {
		t.Fatalf("expected bad-input Error, got %v", err)
	}
}

func TestDocxConvertRejectsArchiveWithoutDocument(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if _, err := zw.Create("word/styles.xml"); err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	path := filepath.Join(t.TempDir(), "empty.docx")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatalf("write docx: %v", err)
	}

	conv, err := newDocxConverter()
	if err != nil {
		t.Fatalf("load docx converter: %v", err)
	}
	_, err = conv.Convert(context.Background(), nil, StreamInfo{Extension: ".docx", LocalPath: path})
	var cerr *Error
	if !errors.As(err, &cerr) || cerr.Kind != KindBadInput {
		t.Fatalf("expected bad-input Error, got %v", err)
	}
}
