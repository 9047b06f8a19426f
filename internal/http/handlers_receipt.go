package http

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/core"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/log"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/wire"
)

// handleUploadReceipt extracts a best-effort expense from the multipart
// field "file". Nothing is stored; the client commits the corrected draft
// through POST /api/expenses.
func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+(1<<20))
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, r, log.OpExtract, &core.ExtractionError{Reason: "file too large", Err: err})
			return
		}
		writeError(w, r, log.OpExtract, core.NewValidationError("file", errors.New("expected a multipart upload")))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, log.OpExtract, core.NewValidationError("file", errors.New("no file uploaded")))
		return
	}
	defer file.Close()

	if header.Size > s.maxUpload {
		writeError(w, r, log.OpExtract, &core.ExtractionError{Reason: "file too large"})
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, s.maxUpload))
	if err != nil {
		writeError(w, r, log.OpExtract, &core.ExtractionError{Reason: "could not read upload", Err: err})
		return
	}

	mimeType := uploadMIME(header.Header.Get("Content-Type"), data)
	log.FromContext(r.Context()).DebugContext(r.Context(), "Receipt upload received",
		log.FieldMIMEType, mimeType, log.FieldSizeBytes, len(data))

	result, err := s.deps.Extractor.Extract(r.Context(), data, mimeType)
	if err != nil {
		writeError(w, r, log.OpExtract, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.FromExtraction(result))
}

// uploadMIME trusts a specific declared type and sniffs otherwise.
func uploadMIME(declared string, data []byte) string {
	if mt, _, err := mime.ParseMediaType(declared); err == nil && mt != "application/octet-stream" {
		return mt
	}
	if len(data) == 0 {
		return "application/octet-stream"
	}
	mt, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	return mt
}
