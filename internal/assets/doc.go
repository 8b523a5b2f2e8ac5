// Package assets provides CSS stylesheets injected into documents before
// rendering, primarily for markdown conversions that arrive without any
// styling of their own.
//
// Styles are loaded from embedded files by default. A custom directory can
// be layered on top: custom styles take precedence and missing names fall
// back to the embedded set.
package assets
