package storage

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"agrimarket-be/internal/logger"

	"github.com/google/uuid"
	"github.com/nfnt/resize"
	"go.uber.org/zap"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrFileTooLarge      = errors.New("file too large")
)

const (
	maxUploadBytes = 5 << 20
	maxImageWidth  = 800
)

// Store writes uploaded images to local disk under a single directory and
// serves them back by public URL. Filenames are random so an upload can
// never clobber another.
type Store struct {
	dir     string
	baseURL string
}

func New(dir, baseURL string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// SaveImage decodes the upload, scales it down to at most maxImageWidth
// wide and re-encodes it. Returns the public URL of the stored file.
func (s *Store) SaveImage(file multipart.File, header *multipart.FileHeader) (string, error) {
	if header.Size > maxUploadBytes {
		return "", ErrFileTooLarge
	}

	img, format, err := image.Decode(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return "", ErrUnsupportedFormat
	}

	var ext string
	switch format {
	case "jpeg":
		ext = ".jpg"
	case "png":
		ext = ".png"
	default:
		return "", ErrUnsupportedFormat
	}

	if img.Bounds().Dx() > maxImageWidth {
		img = resize.Resize(maxImageWidth, 0, img, resize.Lanczos3)
	}

	name := uuid.New().String() + ext
	path := filepath.Join(s.dir, name)

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer out.Close()

	switch format {
	case "jpeg":
		err = jpeg.Encode(out, img, &jpeg.Options{Quality: 85})
	case "png":
		err = png.Encode(out, img)
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("encode image: %w", err)
	}

	logger.L().Info("image stored",
		zap.String("file", name),
		zap.String("format", format),
		zap.Int64("upload_bytes", header.Size),
	)
	return s.baseURL + "/uploads/" + name, nil
}

// Remove deletes a previously stored file given its public URL. Unknown
// URLs are ignored.
func (s *Store) Remove(url string) error {
	idx := strings.LastIndex(url, "/uploads/")
	if idx < 0 {
		return nil
	}
	name := filepath.Base(url[idx+len("/uploads/"):])
	if name == "." || name == "/" {
		return nil
	}

	err := os.Remove(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Dir is the on-disk directory the router serves as /uploads.
func (s *Store) Dir() string {
	return s.dir
}
