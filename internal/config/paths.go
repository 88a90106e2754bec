package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mrz1836/patchbay/internal/constants"
	"github.com/mrz1836/patchbay/internal/errors"
)

// HomeDir returns the patchbay data directory.
// PATCHBAY_HOME overrides the default of ~/.patchbay.
func HomeDir() (string, error) {
	if home := os.Getenv("PATCHBAY_HOME"); home != "" {
		return home, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, constants.PatchbayHome), nil
}

// GlobalConfigPath returns the full path to the global configuration file.
func GlobalConfigPath() (string, error) {
	dir, err := HomeDir()
	if err != nil {
		return "", fmt.Errorf("get global config path: %w", err)
	}
	return filepath.Join(dir, constants.ConfigFileName), nil
}

// ProjectConfigPath returns the relative path to the project configuration file.
func ProjectConfigPath() string {
	return filepath.Join(constants.ProjectConfigDir, constants.ConfigFileName)
}

// LogFilePath returns the path to the global log file.
func LogFilePath() (string, error) {
	dir, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, constants.LogsDir, constants.CLILogFileName), nil
}

// LockFilePath returns the cross-process lock file for a sandbox root.
// The file lives outside the sandbox so it never shows up in the working tree.
func LockFilePath(sandboxRoot string) (string, error) {
	dir, err := HomeDir()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(sandboxRoot))
	return filepath.Join(dir, constants.LocksDir, hex.EncodeToString(sum[:8])+".lock"), nil
}
