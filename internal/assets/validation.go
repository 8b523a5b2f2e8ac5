package assets

import (
	"fmt"
	"strings"

	"github.com/renderkit/html2doc/internal/fileutil"
)

// ValidateAssetName checks that a style name is safe for use as a
// filename: no separators, no dots, no traversal.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if fileutil.IsFilePath(name) || strings.Contains(name, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}
