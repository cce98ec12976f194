// Package config locates the notebook's configuration files and loads
// the environment from .env files.
//
// Settings themselves are resolved by services.SettingsService; this
// package only decides where things live.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// DirName is the configuration directory under the user's home.
const DirName = ".notebook"

// Environment variables that move the configuration.
const (
	EnvConfigFile = "NOTEBOOK_CONFIG"
	EnvConfigDir  = "NOTEBOOK_HOME"
)

// Paths holds the resolved configuration locations.
type Paths struct {
	// Dir is the configuration directory.
	Dir string

	// ConfigFile is the TOML settings file.
	ConfigFile string

	// PromptDir holds editable prompt templates.
	PromptDir string
}

// ResolvePaths determines the configuration locations. An explicit path
// (the --config flag) wins, then NOTEBOOK_CONFIG, then NOTEBOOK_HOME,
// then ~/.notebook. A path without a .toml extension names a directory.
func ResolvePaths(explicit string) (Paths, error) {
	path := explicit
	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path == "" {
		path = os.Getenv(EnvConfigDir)
	}
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, fmt.Errorf("locate home directory: %w", err)
		}
		path = filepath.Join(home, DirName)
	}

	path, err := expandHome(path)
	if err != nil {
		return Paths{}, err
	}

	var dir, file string
	if filepath.Ext(path) == ".toml" {
		dir, file = filepath.Dir(path), path
	} else {
		dir, file = path, filepath.Join(path, "config.toml")
	}

	return Paths{
		Dir:        dir,
		ConfigFile: file,
		PromptDir:  filepath.Join(dir, "prompts"),
	}, nil
}

// LoadEnv loads KEY=value pairs from each file into the process
// environment. Missing files are skipped and variables that are already
// set are never overwritten. With no files, ./.env is tried.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ResolveDataDir makes dataDir absolute. A leading ~ is expanded.
func ResolveDataDir(dataDir string) (string, error) {
	dir, err := expandHome(dataDir)
	if err != nil {
		return "", err
	}
	return filepath.Abs(dir)
}

func expandHome(path string) (string, error) {
	if path != "~" && !hasHomePrefix(path) {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}

func hasHomePrefix(path string) bool {
	return len(path) >= 2 && path[0] == '~' && (path[1] == '/' || path[1] == filepath.Separator)
}
