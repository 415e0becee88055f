// Package util holds small parsing and path helpers shared by the
// configuration and the main loop.
package util

import (
	"path/filepath"
)

// CombinePaths resolves rel against the directory base. Absolute paths
// are returned cleaned but otherwise untouched.
func CombinePaths(base, rel string) string {
	if filepath.IsAbs(rel) {
		return filepath.Clean(rel)
	}
	return filepath.Join(base, rel)
}
