package controllers

import (
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/logitrack/logitrack-backend/api/responses"
	"github.com/logitrack/logitrack-backend/internal/bulk"
	pkgerrors "github.com/logitrack/logitrack-backend/pkg/errors"
	"github.com/logitrack/logitrack-backend/pkg/logger"
)

const bulkUploadMaxBytes = 5 << 20

// BulkUpload imports shipments from a CSV file. The file arrives either as
// the "file" part of a multipart form or as the raw request body.
func BulkUpload(svc bulk.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reader, cleanup, err := bulkFileReader(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer cleanup()

		result, err := svc.Upload(r.Context(), reader)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func bulkFileReader(r *http.Request) (io.Reader, func(), error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.HasPrefix(mediaType, "multipart/") {
		if err := r.ParseMultipartForm(bulkUploadMaxBytes); err != nil {
			return nil, func() {}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form")
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, func() {}, pkgerrors.New(pkgerrors.CodeValidation, "csv file part required")
		}
		return file, func() { file.Close() }, nil
	}
	return http.MaxBytesReader(nil, r.Body, bulkUploadMaxBytes), func() {}, nil
}

// BulkTemplate serves the import template as a CSV download.
func BulkTemplate(svc bulk.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="shipments_template.csv"`)
		if _, err := io.WriteString(w, svc.Template()); err != nil && logg != nil {
			logg.Error(r.Context(), "write bulk template", err)
		}
	}
}
