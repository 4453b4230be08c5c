package indexer

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.lsp.dev/uri"
)

var ErrInvalidURI = errors.New("invalid file URI")

const fileScheme = "file://"

// NormalizeURI turns a path or file URI into the canonical store key: a
// file:// URI of the absolute, cleaned path. Normalizing a normalized URI
// returns it unchanged.
func NormalizeURI(pathOrURI string) (string, error) {
	if pathOrURI == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidURI)
	}

	path := pathOrURI
	switch {
	case strings.HasPrefix(pathOrURI, fileScheme):
		p, err := URIToPath(pathOrURI)
		if err != nil {
			return "", err
		}
		path = p
	case strings.Contains(pathOrURI, "://"):
		return "", fmt.Errorf("%w: unsupported scheme in %q", ErrInvalidURI, pathOrURI)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURI, err)
	}
	return string(uri.File(filepath.Clean(abs))), nil
}

// URIToPath returns the filesystem path of a file URI.
func URIToPath(fileURI string) (path string, err error) {
	if !strings.HasPrefix(fileURI, fileScheme) {
		return "", fmt.Errorf("%w: %q is not a file URI", ErrInvalidURI, fileURI)
	}
	// uri.Parse panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			path, err = "", fmt.Errorf("%w: %v", ErrInvalidURI, r)
		}
	}()

	u, err := uri.Parse(fileURI)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURI, err)
	}
	return u.Filename(), nil
}
