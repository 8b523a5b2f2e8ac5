package assets

// StyleLoader loads CSS styles by name. Implementations may read from
// embedded files or the filesystem.
type StyleLoader interface {
	// LoadStyle loads a stylesheet by name (without .css extension).
	// Returns ErrStyleNotFound if the style doesn't exist and
	// ErrInvalidAssetName if the name contains invalid characters.
	LoadStyle(name string) (string, error)
}

// DefaultStyleName is the built-in stylesheet applied when a request
// names no style.
const DefaultStyleName = "default"
