// Package convert turns uploaded documents into Markdown text.
//
// A Handle owns an ordered set of DocumentConverters. It is built once at
// startup (see Bootstrap) and shared read-only across requests; converters
// must be stateless so concurrent dispatch needs no serialization.
package convert

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// StreamInfo describes the input being converted. Extension is lowercase and
// includes the leading dot; LocalPath points at the staged temp file for
// converters that need random access by path.
type StreamInfo struct {
	Filename  string
	Extension string
	MIMEType  string
	LocalPath string
}

// Result is the output of a successful conversion. Only the Markdown text is
// returned to clients; embedded non-text artifacts are discarded.
type Result struct {
	Markdown string
	Title    string
	// Format names the converter that produced the result.
	Format string
}

// DocumentConverter is implemented by every format converter.
type DocumentConverter interface {
	Name() string

	// Accepts reports whether this converter can handle the input. It must
	// not read from the stream.
	Accepts(info StreamInfo) bool

	Convert(ctx context.Context, r io.ReadSeeker, info StreamInfo) (*Result, error)
}

// Handle is the shared converter instance. Read-only after Bootstrap.
type Handle struct {
	converters []DocumentConverter
	logger     *zap.Logger
}

// NewHandle builds a handle over an explicit converter set, in dispatch
// order. Bootstrap is the normal entry point; this exists for callers that
// bring their own converters.
func NewHandle(logger *zap.Logger, converters ...DocumentConverter) *Handle {
	return &Handle{converters: converters, logger: logger}
}

// Names lists the registered converters in dispatch order.
func (h *Handle) Names() []string {
	out := make([]string, 0, len(h.converters))
	for _, c := range h.converters {
		out = append(out, c.Name())
	}
	return out
}

// Convert dispatches the envelope to the first accepting converter. Failures
// come back as *Error; anything else from a converter is wrapped as an
// internal Error so library details never reach the response body.
func (h *Handle) Convert(ctx context.Context, env *Envelope) (*Result, error) {
	info, err := h.streamInfo(env)
	if err != nil {
		return nil, &Error{Kind: KindInternal, Detail: "failed to inspect upload", err: err}
	}

	conv := h.pick(info)
	if conv == nil {
		return nil, &Error{
			Kind:   KindUnsupported,
			Detail: fmt.Sprintf("unsupported document type %s", describeInput(info)),
		}
	}

	f, err := env.Open()
	if err != nil {
		return nil, &Error{Kind: KindInternal, Detail: "failed to read upload", err: err}
	}
	defer func() { _ = f.Close() }()

	res, err := conv.Convert(ctx, f, info)
	if err != nil {
		var cerr *Error
		if asError(err, &cerr) {
			if cerr.Format == "" {
				cerr.Format = conv.Name()
			}
			return nil, cerr
		}
		return nil, &Error{
			Kind:   KindInternal,
			Format: conv.Name(),
			Detail: "conversion failed unexpectedly",
			err:    err,
		}
	}
	if res == nil {
		return nil, &Error{Kind: KindInternal, Format: conv.Name(), Detail: "converter returned no result"}
	}
	res.Format = conv.Name()
	return res, nil
}

func (h *Handle) pick(info StreamInfo) DocumentConverter {
	for _, c := range h.converters {
		if c.Accepts(info) {
			return c
		}
	}
	return nil
}

func (h *Handle) streamInfo(env *Envelope) (StreamInfo, error) {
	info := StreamInfo{
		Filename:  env.Filename,
		Extension: strings.ToLower(filepath.Ext(env.Filename)),
		LocalPath: env.Path(),
	}

	f, err := env.Open()
	if err != nil {
		return StreamInfo{}, err
	}
	defer func() { _ = f.Close() }()

	head := make([]byte, 512)
	n, err := f.Read(head)
	if err != nil && err != io.EOF {
		return StreamInfo{}, err
	}
	info.MIMEType = sniffMIME(head[:n])
	return info, nil
}

// sniffMIME strips the charset parameter http.DetectContentType appends.
func sniffMIME(head []byte) string {
	mt := http.DetectContentType(head)
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	return strings.TrimSpace(mt)
}

func describeInput(info StreamInfo) string {
	if info.Extension != "" {
		return fmt.Sprintf("%q", info.Extension)
	}
	if info.MIMEType != "" {
		return fmt.Sprintf("%q", info.MIMEType)
	}
	return "(unknown)"
}

// DefaultOutputName is used when the upload carries no usable filename.
const DefaultOutputName = "document.md"

// OutputFilename derives the download name: the original filename's stem plus
// ".md". Path components supplied by the client are stripped, never trusted.
func OutputFilename(original string) string {
	base := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	stem = strings.TrimSpace(stem)
	if stem == "" || stem == "." || stem == ".." {
		return DefaultOutputName
	}
	return stem + ".md"
}

func newTempFile(dir, id string) (*os.File, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	return os.OpenFile(filepath.Join(dir, "mdgate-"+id), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
}
