package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"mdgate/internal/convert"
	"mdgate/internal/models"
)

// handleConvert runs the full pipeline for one upload: response-mode check,
// declared-length guard, multipart streaming under the byte ceiling,
// dispatch to the shared converter, and encoding of the result. Every exit
// path produces exactly one response body.
func (s *server) handleConvert(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("response")
	if mode == "" {
		mode = modeDownload
	}
	if mode != modeDownload && mode != modeCompressed {
		writeError(w, http.StatusUnprocessableEntity, models.CodeMalformed,
			fmt.Sprintf("unrecognized response mode %q (expected %q or %q)", mode, modeDownload, modeCompressed))
		return
	}

	release, ok := s.acquireConvertSlot(w)
	if !ok {
		return
	}
	defer release()

	// Reject on the declared length before touching the body.
	if r.ContentLength > 0 && r.ContentLength > s.cfg.MaxUploadBytes {
		s.metrics.IncUploadRejected("declared_too_large")
		writeError(w, http.StatusRequestEntityTooLarge, models.CodeTooLarge,
			fmt.Sprintf("upload exceeds the %d byte limit", s.cfg.MaxUploadBytes))
		return
	}

	env, ok := s.acceptUpload(w, r)
	if !ok {
		return
	}
	defer env.Discard()

	start := time.Now()
	s.metrics.IncConversionsInFlight()
	res, err := s.converter.Convert(r.Context(), env)
	s.metrics.DecConversionsInFlight()
	elapsed := time.Since(start)

	if err != nil {
		s.failConversion(w, r, err, elapsed)
		return
	}

	s.metrics.ObserveConversion(res.Format, "ok", elapsed)
	s.metrics.AddUploadBytes(env.Bytes)
	s.logger.Info("converted document",
		zap.String("envelope", env.ID),
		zap.String("format", res.Format),
		zap.Int64("bytes", env.Bytes),
		zap.Duration("duration", elapsed))

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	if mode == modeDownload {
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", convert.OutputFilename(env.Filename)))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, res.Markdown)
}

// acceptUpload streams the multipart body, requiring exactly one file part
// named "file" and keeping the running byte count under the ceiling. On any
// failure it writes the error response and reports !ok.
func (s *server) acceptUpload(w http.ResponseWriter, r *http.Request) (*convert.Envelope, bool) {
	reader, err := r.MultipartReader()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, models.CodeMalformed,
			`expected a multipart/form-data body with a single "file" part`)
		return nil, false
	}

	declared := r.ContentLength
	if declared <= 0 {
		declared = -1
	}

	var env *convert.Envelope
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			env.Discard()
			writeError(w, http.StatusUnprocessableEntity, models.CodeMalformed, "failed to read multipart body")
			return nil, false
		}
		if part.FormName() != "file" {
			// Non-file form fields are ignored.
			_ = part.Close()
			continue
		}
		if env != nil {
			_ = part.Close()
			env.Discard()
			writeError(w, http.StatusUnprocessableEntity, models.CodeMalformed,
				`request must contain exactly one "file" part`)
			return nil, false
		}

		staged, err := convert.Stage(part, part.FileName(), declared, s.cfg.MaxUploadBytes, "")
		_ = part.Close()
		if err != nil {
			if errors.Is(err, convert.ErrTooLarge) {
				s.metrics.IncUploadRejected("streamed_too_large")
				writeError(w, http.StatusRequestEntityTooLarge, models.CodeTooLarge,
					fmt.Sprintf("upload exceeds the %d byte limit", s.cfg.MaxUploadBytes))
				return nil, false
			}
			// Usually the client went away mid-upload; nothing to keep.
			s.logger.Warn("upload staging failed", zap.Error(err))
			writeError(w, http.StatusUnprocessableEntity, models.CodeMalformed, "failed to read upload")
			return nil, false
		}
		env = staged
	}

	if env == nil {
		writeError(w, http.StatusUnprocessableEntity, models.CodeMalformed, `missing "file" part`)
		return nil, false
	}
	return env, true
}

func (s *server) failConversion(w http.ResponseWriter, r *http.Request, err error, elapsed time.Duration) {
	var cerr *convert.Error
	if errors.As(err, &cerr) {
		s.metrics.ObserveConversion(cerr.Format, "error", elapsed)
		switch cerr.Kind {
		case convert.KindUnsupported, convert.KindBadInput:
			s.logger.Info("conversion rejected",
				zap.String("format", cerr.Format),
				zap.String("detail", cerr.Detail))
			writeError(w, http.StatusUnprocessableEntity, models.CodeConversionFailed, cerr.Error())
		default:
			s.logger.Error("conversion failed", zap.String("format", cerr.Format), zap.Error(err))
			writeError(w, http.StatusInternalServerError, models.CodeConversionFailed,
				"conversion failed unexpectedly")
		}
		return
	}

	if r.Context().Err() != nil {
		// Client is gone; the write below is best effort.
		s.logger.Info("conversion abandoned", zap.Error(r.Context().Err()))
		writeError(w, http.StatusInternalServerError, models.CodeInternal, "request canceled")
		return
	}

	s.metrics.ObserveConversion("unknown", "error", elapsed)
	s.logger.Error("conversion failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, models.CodeInternal, "internal server error")
}
