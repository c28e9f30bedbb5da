package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	pkgerrors "github.com/plywoodshop/storefront/pkg/errors"
	"github.com/plywoodshop/storefront/pkg/logger"
)

// sniffLen is how many leading bytes are handed to the detector.
const sniffLen = 3072

// Service stores admin uploaded product and blog images.
type Service interface {
	Upload(ctx context.Context, originalName string, body io.Reader) (*UploadResult, error)
}

// UploadResult describes a stored file.
type UploadResult struct {
	FileName string `json:"file_name"`
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

// Config drives where files land and how they are addressed publicly.
type Config struct {
	Dir       string
	URLPrefix string
	MaxBytes  int64
}

type service struct {
	cfg  Config
	logg *logger.Logger
}

// NewService ensures the upload directory exists.
func NewService(cfg Config, logg *logger.Logger) (Service, error) {
	if strings.TrimSpace(cfg.Dir) == "" {
		return nil, errors.New("upload dir required")
	}
	if cfg.MaxBytes <= 0 {
		return nil, errors.New("max upload size must be positive")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if cfg.URLPrefix == "" {
		cfg.URLPrefix = "/uploads"
	}
	return &service{cfg: cfg, logg: logg}, nil
}

// Upload sniffs the body, rejects anything but the allowed image types or
// anything over the size cap, and writes it under a random name.
func (s *service) Upload(ctx context.Context, originalName string, body io.Reader) (*UploadResult, error) {
	limited := io.LimitReader(body, s.cfg.MaxBytes+1)
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(limited, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read upload")
	}
	head = head[:n]
	if n == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is empty")
	}

	mimeType, ext, err := sniffImage(head)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unsupported file type").
			WithDetails(map[string]any{"allowed": allowedImageDescription})
	}

	name := uuid.NewString() + ext
	target := filepath.Join(s.cfg.Dir, name)
	file, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create upload file")
	}

	written, copyErr := io.Copy(file, io.MultiReader(bytes.NewReader(head), limited))
	closeErr := file.Close()
	if copyErr == nil && written > s.cfg.MaxBytes {
		_ = os.Remove(target)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file too large").
			WithDetails(map[string]any{"max_bytes": s.cfg.MaxBytes})
	}
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(target)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, errors.Join(copyErr, closeErr), "write upload file")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"file_name":     name,
		"original_name": originalName,
		"mime_type":     mimeType,
		"size":          written,
	})
	s.logg.Info(ctx, "media.uploaded")

	return &UploadResult{
		FileName: name,
		URL:      path.Join(s.cfg.URLPrefix, name),
		MimeType: mimeType,
		Size:     written,
	}, nil
}
