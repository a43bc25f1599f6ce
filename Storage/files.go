package Storage

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/zeebo/blake3"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

var (
	ErrNotImage      = errors.New("file is not a supported image")
	ErrImageTooLarge = errors.New("image dimensions exceed the pixel limit")
)

// DefaultMaxPixels bounds width*height of accepted uploads.
const DefaultMaxPixels = 50_000_000

// Store keeps uploaded cephalograms and generated outputs on local disk.
type Store struct {
	UploadDir string
	OutputDir string
	// MaxPixels rejects uploads whose header declares more pixels; 0 disables.
	MaxPixels int64
}

func New(uploadDir, outputDir string) *Store {
	return &Store{UploadDir: uploadDir, OutputDir: outputDir, MaxPixels: DefaultMaxPixels}
}

type Upload struct {
	Path        string
	Hash        string
	Format      string
	ContentType string
	Width       int
	Height      int
}

// Hash returns the hex BLAKE3 digest used to spot repeated uploads.
func Hash(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Inspect validates that data is a decodable image and returns its format and
// dimensions without decoding the pixels.
func Inspect(data []byte) (string, int, int, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", 0, 0, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return "", 0, 0, ErrNotImage
	}
	return format, cfg.Width, cfg.Height, nil
}

func contentType(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "bmp":
		return "image/bmp"
	case "tiff":
		return "image/tiff"
	}
	return "application/octet-stream"
}

// SaveUpload validates and writes an uploaded image under
// UploadDir/<patient code>/<uuid><ext>.
func (s *Store) SaveUpload(patientCode, filename string, data []byte) (Upload, error) {
	format, w, h, err := Inspect(data)
	if err != nil {
		return Upload{}, err
	}
	if s.MaxPixels > 0 && int64(w)*int64(h) > s.MaxPixels {
		return Upload{}, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, w, h)
	}

	dir := filepath.Join(s.UploadDir, safeName(patientCode))
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return Upload{}, fmt.Errorf("create upload dir: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = "." + format
	}
	path := filepath.Join(dir, uuid.NewString()+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return Upload{}, fmt.Errorf("write upload: %w", err)
	}

	return Upload{
		Path:        path,
		Hash:        Hash(data),
		Format:      format,
		ContentType: contentType(format),
		Width:       w,
		Height:      h,
	}, nil
}

// OutputPath returns OutputDir/<code>/<name>, creating the directory.
func (s *Store) OutputPath(code, name string) (string, error) {
	dir := filepath.Join(s.OutputDir, safeName(code))
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	return filepath.Join(dir, name), nil
}

func (s *Store) Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Remove deletes files, ignoring empty paths and files already gone.
func (s *Store) Remove(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", p).Msg("failed to remove file")
		}
	}
}

// RemoveOutputs drops the whole output directory of a cephalogram.
func (s *Store) RemoveOutputs(code string) {
	dir := filepath.Join(s.OutputDir, safeName(code))
	if err := os.RemoveAll(dir); err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("failed to remove outputs")
	}
}

func safeName(name string) string {
	name = filepath.Base(filepath.Clean("/" + name))
	if name == "/" || name == "." {
		return "_"
	}
	return name
}
