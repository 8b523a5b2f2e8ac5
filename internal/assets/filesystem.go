package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemLoader loads styles from a directory, letting operators ship
// custom stylesheets without rebuilding the binary.
type FilesystemLoader struct {
	basePath string // absolute, validated at construction
}

// NewFilesystemLoader creates a loader rooted at basePath. The path must
// exist and be a directory.
func NewFilesystemLoader(basePath string) (*FilesystemLoader, error) {
	if basePath == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidBasePath)
	}

	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidBasePath, basePath, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidBasePath, basePath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %q is not a directory", ErrInvalidBasePath, basePath)
	}

	return &FilesystemLoader{basePath: abs}, nil
}

// LoadStyle loads <base>/<name>.css. The resolved path is checked to stay
// under the base directory even through symlinks in the name.
func (f *FilesystemLoader) LoadStyle(name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}

	path := filepath.Join(f.basePath, name+".css")
	if !strings.HasPrefix(path, f.basePath+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}

	content, err := os.ReadFile(path) // #nosec G304 -- contained under basePath
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %q", ErrStyleNotFound, name)
		}
		return "", fmt.Errorf("%w: %q: %v", ErrAssetRead, name, err)
	}
	return string(content), nil
}

// Compile-time interface check.
var _ StyleLoader = (*FilesystemLoader)(nil)
