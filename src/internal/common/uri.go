package common

import (
	"strings"

	"go.lsp.dev/uri"
)

const fileScheme = "file://"

// IsFileURI reports whether u uses the file scheme
func IsFileURI(u string) bool {
	return strings.HasPrefix(u, fileScheme)
}

// NormalizeURI returns a canonical form of u so that the same document opened with
// differently escaped URIs maps to one key. Non-file URIs are returned unchanged.
func NormalizeURI(u string) string {
	if !IsFileURI(u) {
		return u
	}
	parsed, err := uri.Parse(u)
	if err != nil {
		return u
	}
	return string(uri.File(parsed.Filename()))
}

// URIToFilePath converts a file:// URI to a file system path
func URIToFilePath(u string) (string, error) {
	if !IsFileURI(u) {
		return "", ParameterValidationError("uri", "not a file URI: "+u)
	}
	parsed, err := uri.Parse(u)
	if err != nil {
		return "", ParameterValidationError("uri", err.Error())
	}
	return parsed.Filename(), nil
}

// FilePathToURI converts a file system path to a file:// URI
func FilePathToURI(path string) string {
	return string(uri.File(path))
}
