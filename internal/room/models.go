package room

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const modelsDir = "models"

var (
	ErrModelNotFound    = errors.New("model not found")
	ErrNotGLB           = errors.New("file must be a .glb file")
	ErrInvalidModelMIME = errors.New("invalid MIME type for GLB file")
	ErrInvalidModelPath = errors.New("invalid container or file name")
)

var glbMIMETypes = []string{"model/gltf-binary", "application/octet-stream"}

// ValidateModel checks the .glb extension and, when given, the MIME type.
func ValidateModel(filename, contentType string) error {
	if !strings.HasSuffix(strings.ToLower(filename), ".glb") {
		return ErrNotGLB
	}
	if ct := mediaType(contentType); ct != "" && !contains(glbMIMETypes, ct) {
		return ErrInvalidModelMIME
	}
	return nil
}

// ModelStore keeps GLB models on local disk in named containers, below the
// upload directory so they are served under PublicPrefix.
type ModelStore struct {
	dir string
}

func NewModelStore(uploadDir string) *ModelStore {
	return &ModelStore{dir: filepath.Join(uploadDir, modelsDir)}
}

// segment reports whether name is usable as a single path element.
func segment(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.HasPrefix(name, ".") && !strings.ContainsAny(name, `/\`)
}

func (m *ModelStore) path(container, filename string) (string, error) {
	if !segment(container) || !segment(filename) {
		return "", ErrInvalidModelPath
	}
	if err := ValidateModel(filename, ""); err != nil {
		return "", err
	}
	return filepath.Join(m.dir, container, filename), nil
}

func publicModelPath(container, filename string) string {
	return PublicPrefix + modelsDir + "/" + container + "/" + filename
}

// List returns the .glb names in container starting with prefix. A container
// that was never written to is empty.
func (m *ModelStore) List(container, prefix string) ([]string, error) {
	if !segment(container) {
		return nil, ErrInvalidModelPath
	}
	entries, err := os.ReadDir(filepath.Join(m.dir, container))
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".glb") || !strings.HasPrefix(name, prefix) {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

func (m *ModelStore) Open(container, filename string) ([]byte, error) {
	p, err := m.path(container, filename)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrModelNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	return data, nil
}

// URL returns the public path of an existing model.
func (m *ModelStore) URL(container, filename string) (string, error) {
	p, err := m.path(container, filename)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
		return "", ErrModelNotFound
	} else if err != nil {
		return "", fmt.Errorf("stat model: %w", err)
	}
	return publicModelPath(container, filename), nil
}

// Save writes data as container/filename, replacing any previous model with
// that name, and returns its public path.
func (m *ModelStore) Save(container, filename string, data []byte) (string, error) {
	p, err := m.path(container, filename)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("create model container: %w", err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", fmt.Errorf("write model: %w", err)
	}
	return publicModelPath(container, filename), nil
}
