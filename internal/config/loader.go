package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

const (
	// ProjectConfigFile is the name of the project-level config file.
	ProjectConfigFile = "content-mover.yaml"
	// UserConfigDir is the directory for user-level config.
	UserConfigDir = ".config/content-mover"
	// UserConfigFile is the name of the user-level config file.
	UserConfigFile = "config.yaml"
)

// Loader handles configuration loading with layered precedence.
type Loader struct {
	log  *zap.SugaredLogger
	home string
	cwd  string
}

// NewLoader creates a loader for the current user and working directory.
func NewLoader(log *zap.SugaredLogger) *Loader {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	home, _ := os.UserHomeDir()
	cwd, _ := os.Getwd()

	return &Loader{log: log, home: home, cwd: cwd}
}

// Load loads configuration with layered precedence:
//  1. defaults
//  2. user config (~/.config/content-mover/config.yaml)
//  3. project config (content-mover.yaml in the working directory or a parent)
//  4. explicit, if not empty; it must exist
func (l *Loader) Load(explicit string) (*Config, error) {
	config := DefaultConfig()

	if path := l.userConfigPath(); path != "" {
		user, err := readFile(path, &Config{})

		switch {
		case err == nil:
			l.log.Debugw("loaded user config", "path", path)
			config.Merge(user)
		case !errors.Is(err, fs.ErrNotExist):
			l.log.Warnw("failed to load user config", "path", path, "error", err)
		}
	}

	if path := l.findProjectConfig(); path != "" {
		project, err := readFile(path, &Config{})
		if err != nil {
			return nil, err
		}

		l.log.Debugw("loaded project config", "path", path)
		config.Merge(project)
	}

	if explicit != "" {
		cfg, err := readFile(explicit, &Config{})
		if err != nil {
			return nil, err
		}

		l.log.Debugw("loaded config", "path", explicit)
		config.Merge(cfg)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (l *Loader) userConfigPath() string {
	if l.home == "" {
		return ""
	}

	return filepath.Join(l.home, UserConfigDir, UserConfigFile)
}

// findProjectConfig searches the working directory and its parents.
func (l *Loader) findProjectConfig() string {
	if l.cwd == "" {
		return ""
	}

	dir := l.cwd
	for {
		path := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(path); err == nil {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}

		dir = parent
	}
}
