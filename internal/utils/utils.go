// Package utils provides helpers for naming stored and temporary files.
//
// Functions:
//   - SanitizeFilename: safe base name for an uploaded file.
//   - GenerateUUID: new random UUID string.
//   - TempName: unique file name for a temp artifact, e.g. "sealed-<uuid>.pdf".
//   - StoredName: unique name for an upload, keeping its sanitized base name.
//
// Used by the stamping engine for its temp files and by the API handlers
// for uploads and outputs.
package utils

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const maxFilenameLen = 100

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

func SanitizeFilename(name string) string {
	// uploads from Windows clients may carry backslash paths
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	safe := unsafeChars.ReplaceAllString(base, "_")
	if len(safe) > maxFilenameLen {
		ext := filepath.Ext(safe)
		if len(ext) >= maxFilenameLen {
			ext = ""
		}
		safe = safe[:maxFilenameLen-len(ext)] + ext
	}
	return safe
}

func GenerateUUID() string {
	return uuid.New().String()
}

// TempName returns prefix-<uuid>ext.
func TempName(prefix, ext string) string {
	return prefix + "-" + GenerateUUID() + ext
}

// StoredName returns prefix-<uuid>-<sanitized name>.
func StoredName(prefix, name string) string {
	return prefix + "-" + GenerateUUID() + "-" + SanitizeFilename(name)
}
