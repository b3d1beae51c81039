package room

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// PublicPrefix is the URL path uploads are served under.
const PublicPrefix = "/uploads/"

var (
	imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}
	imageMIMETypes  = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}
)

// InvalidImageError lists why an upload was rejected.
type InvalidImageError struct {
	Problems []string
}

func (e *InvalidImageError) Error() string {
	return "invalid image: " + strings.Join(e.Problems, "; ")
}

var ErrUploadNotFound = errors.New("upload not found")

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// ValidateImage checks the file extension and, when given, the MIME type.
func ValidateImage(name, contentType string) error {
	var problems []string
	if !contains(imageExtensions, strings.ToLower(filepath.Ext(name))) {
		problems = append(problems, "Invalid image format. Allowed: "+strings.Join(imageExtensions, ", "))
	}
	if ct := mediaType(contentType); ct != "" && !contains(imageMIMETypes, ct) {
		problems = append(problems, "Invalid MIME type. Allowed: "+strings.Join(imageMIMETypes, ", "))
	}
	if len(problems) > 0 {
		return &InvalidImageError{Problems: problems}
	}
	return nil
}

func mediaType(contentType string) string {
	ct, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(ct))
}

// Store keeps uploaded room photos on local disk.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string { return s.dir }

// Save writes data under a fresh uuid name keeping the original extension
// and returns its public path.
func (s *Store) Save(name, contentType string, data []byte) (string, error) {
	if err := ValidateImage(name, contentType); err != nil {
		return "", err
	}
	fileName := uuid.NewString() + strings.ToLower(filepath.Ext(name))
	if err := os.WriteFile(filepath.Join(s.dir, fileName), data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return PublicPrefix + fileName, nil
}

// Open reads a previously saved upload given its public path, with or
// without scheme and host.
func (s *Store) Open(publicURL string) ([]byte, string, error) {
	idx := strings.Index(publicURL, PublicPrefix)
	if idx < 0 {
		return nil, "", ErrUploadNotFound
	}
	name := filepath.Base(publicURL[idx+len(PublicPrefix):])
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, "", ErrUploadNotFound
	}
	if err != nil {
		return nil, "", err
	}
	return data, mimeForExt(filepath.Ext(name)), nil
}

func mimeForExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
