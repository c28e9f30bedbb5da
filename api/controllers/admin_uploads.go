package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/plywoodshop/storefront/api/responses"
	"github.com/plywoodshop/storefront/internal/media"
	pkgerrors "github.com/plywoodshop/storefront/pkg/errors"
	"github.com/plywoodshop/storefront/pkg/logger"
)

const (
	uploadField = "file"
	// multipartOverhead leaves room for boundaries and part headers on top
	// of the file size cap.
	multipartOverhead = 64 << 10
)

// AdminUpload streams the multipart "file" part straight into the media
// service without buffering the whole form.
func AdminUpload(svc media.Service, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if maxBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
		}

		reader, err := r.MultipartReader()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "multipart form expected"))
			return
		}

		for {
			part, err := reader.NextPart()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				responses.WriteError(r.Context(), logg, w, uploadReadError(err, maxBytes))
				return
			}
			if part.FormName() != uploadField {
				_ = part.Close()
				continue
			}

			result, err := svc.Upload(r.Context(), part.FileName(), part)
			_ = part.Close()
			if err != nil {
				var maxErr *http.MaxBytesError
				if errors.As(err, &maxErr) {
					err = uploadReadError(maxErr, maxBytes)
				}
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccessStatus(w, http.StatusCreated, result)
			return
		}

		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "file field is required").WithDetails(map[string]any{"field": uploadField}))
	}
}

func uploadReadError(err error, maxBytes int64) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "file too large").WithDetails(map[string]any{"max_bytes": maxBytes})
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read multipart form")
}
