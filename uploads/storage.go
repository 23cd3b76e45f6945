package uploads

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// PublicPrefix is the URL path uploaded files are served under.
const PublicPrefix = "/uploads/"

const sniffLen = 512

var (
	ErrEmptyFile       = errors.New("file is empty")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooLarge        = errors.New("file is too large")
)

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

type Storage interface {
	Save(header *multipart.FileHeader) (string, error)
	Remove(path string) error
}

// LocalStorage writes uploads into a directory on disk under random names.
type LocalStorage struct {
	Dir      string
	MaxBytes int64
}

func NewLocalStorage(dir string, maxBytes int64) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStorage{Dir: dir, MaxBytes: maxBytes}, nil
}

// Save validates the upload by content and stores it, returning its public path.
func (s *LocalStorage) Save(header *multipart.FileHeader) (string, error) {
	if s.MaxBytes > 0 && header.Size > s.MaxBytes {
		return "", ErrTooLarge
	}

	src, err := header.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	if n == 0 {
		return "", ErrEmptyFile
	}
	ext, ok := allowedImageTypes[normalizeMimeType(mimetype.Detect(head[:n]).String())]
	if !ok {
		return "", ErrUnsupportedType
	}

	name := uuid.New().String() + ext
	dst, err := os.OpenFile(filepath.Join(s.Dir, name), os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}

	body := io.MultiReader(bytes.NewReader(head[:n]), src)
	if s.MaxBytes > 0 {
		body = io.LimitReader(body, s.MaxBytes+1)
	}
	written, err := io.Copy(dst, body)
	closeErr := dst.Close()
	if err == nil && s.MaxBytes > 0 && written > s.MaxBytes {
		err = ErrTooLarge
	}
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(filepath.Join(s.Dir, name))
		return "", err
	}
	return PublicPrefix + name, nil
}

// Remove deletes a file previously returned by Save. Only the base name of
// path is used, so it cannot reach outside Dir.
func (s *LocalStorage) Remove(path string) error {
	name := filepath.Base(strings.TrimPrefix(path, PublicPrefix))
	if name == "." || name == string(filepath.Separator) {
		return fmt.Errorf("invalid upload path %q", path)
	}
	return os.Remove(filepath.Join(s.Dir, name))
}

func normalizeMimeType(raw string) string {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.Index(normalized, ";"); i >= 0 {
		normalized = strings.TrimSpace(normalized[:i])
	}
	return normalized
}
