package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables consulted after .env files are loaded.
const (
	EnvDataDir = "GAUNTLET_DATA_DIR"
	EnvUser    = "GAUNTLET_USER"
)

// EnvPaths returns the .env files to try, in order.
func EnvPaths() []string {
	var paths []string
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}
	paths = append(paths, DefaultEnvPath())
	return paths
}

// LoadEnv loads the first existing .env file from paths. Variables already set in
// the process environment are left untouched.
func LoadEnv(paths []string) (string, error) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return path, err
		}
		return path, nil
	}
	return "", nil
}

// EnvString returns the trimmed value of key, or "" when unset.
func EnvString(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
