package core

import (
	"os"
	"path/filepath"
	"strings"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// ConfigDir finds the directory holding the `.env.<env>` files.
// CONFIG_DIR wins; otherwise the first "config" directory found walking up from the working directory.
// go-test changes the working directory to the test package being run, hence the walk.
func ConfigDir() string {
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		return dir
	}
	wd, err := os.Getwd()
	if err != nil {
		return "config"
	}
	currDir := wd
	for {
		candidate := filepath.Join(currDir, "config")
		if fi, err := os.Stat(candidate); err == nil && fi.IsDir() {
			return candidate
		}
		newDir := filepath.Dir(currDir)
		if newDir == string(os.PathSeparator) || newDir == currDir {
			return filepath.Join(wd, "config")
		}
		currDir = newDir
	}
}
