package assets

import "errors"

// Resolver combines a custom directory with the embedded styles. Custom
// styles win; names missing from the custom directory fall back to the
// embedded set.
type Resolver struct {
	custom   StyleLoader // nil when no custom path configured
	embedded *EmbeddedLoader
}

// NewResolver creates a Resolver. An empty customBasePath uses embedded
// styles only.
func NewResolver(customBasePath string) (*Resolver, error) {
	r := &Resolver{embedded: NewEmbeddedLoader()}

	if customBasePath != "" {
		fsLoader, err := NewFilesystemLoader(customBasePath)
		if err != nil {
			return nil, err
		}
		r.custom = fsLoader
	}
	return r, nil
}

// LoadStyle loads a style, custom directory first.
func (r *Resolver) LoadStyle(name string) (string, error) {
	if r.custom == nil {
		return r.embedded.LoadStyle(name)
	}

	content, err := r.custom.LoadStyle(name)
	if err == nil {
		return content, nil
	}
	// Fall back only when the custom directory lacks the name; validation
	// and I/O errors surface as-is.
	if !errors.Is(err, ErrStyleNotFound) {
		return "", err
	}
	return r.embedded.LoadStyle(name)
}

// Names lists the embedded style names. Custom directories are not
// enumerated; their contents are operator-managed.
func (r *Resolver) Names() []string {
	return r.embedded.Names()
}

// Compile-time interface check.
var _ StyleLoader = (*Resolver)(nil)
