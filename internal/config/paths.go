package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// DefaultConfigFile is the project config file looked up in the working
// directory.
const DefaultConfigFile = "packsplit.yaml"

// ConfigFileExists reports whether path names an existing file on fsys.
// A leading ~ is expanded first.
func ConfigFileExists(fsys afero.Fs, path string) (bool, error) {
	expanded, err := ExpandPath(path)
	if err != nil {
		return false, err
	}
	return afero.Exists(fsys, expanded)
}

// ExpandPath resolves "~" and "~/..." against the user's home directory.
// Other paths, including "~user/...", are returned unchanged.
func ExpandPath(path string) (string, error) {
	rest, ok := strings.CutPrefix(path, "~")
	if !ok {
		return path, nil
	}
	if rest != "" && rest[0] != '/' && rest[0] != filepath.Separator {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if rest == "" {
		return home, nil
	}
	return filepath.Join(home, rest[1:]), nil
}
