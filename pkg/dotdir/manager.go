// Package dotdir resolves the .charge/ directory that holds config.toml,
// the default transcript database and the last active chat session.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	dirName = ".charge"

	// HomeEnv points charge at a directory used in place of ~/.charge.
	HomeEnv = "CHARGE_HOME"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the absolute .charge/ directory, creating it when missing.
// The first match wins:
//  1. overrideDir
//  2. ./.charge/ when it exists
//  3. $CHARGE_HOME
//  4. ~/.charge/
func (m *Manager) Target(overrideDir string) (string, error) {
	dir, err := m.resolve(overrideDir)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating charge directory %s: %w", dir, err)
	}
	return filepath.Abs(dir)
}

func (m *Manager) resolve(overrideDir string) (string, error) {
	if overrideDir != "" {
		return overrideDir, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	local := filepath.Join(cwd, dirName)
	if info, err := os.Stat(local); err == nil && info.IsDir() {
		return local, nil
	}

	if env := os.Getenv(HomeEnv); env != "" {
		return env, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// File returns the path of name inside the resolved .charge/ directory.
func (m *Manager) File(overrideDir, name string) (string, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}
