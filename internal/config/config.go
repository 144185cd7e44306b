package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"mcpdiff/internal/domain"
)

// EnvPrefix prefixes every environment override, e.g. MCPDIFF_LOCK_TIMEOUT
const EnvPrefix = "MCPDIFF"

// ErrNoWorkspace is returned when no .mcp directory is found
var ErrNoWorkspace = errors.New("no .mcp directory found")

// Config holds the resolved settings for one workspace
type Config struct {
	Layout domain.Layout

	HashAlgorithm       string
	LockTimeout         time.Duration
	StrictVerification  bool
	CompressCheckpoints bool
	StatusLimit         int
	PatchBinary         string
	ConfigFile          string // empty when no file was read
}

// Load discovers the workspace and reads configuration. workspace overrides
// discovery; when empty MCPDIFF_WORKSPACE is consulted, then the parents of
// the working directory.
func Load(workspace string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if workspace == "" {
		workspace = v.GetString("workspace")
	}
	root, err := resolveWorkspace(workspace)
	if err != nil {
		return nil, err
	}
	layout := domain.NewLayout(root)

	configFile := filepath.Join(layout.HistoryRoot, "config.toml")
	if _, err := os.Stat(configFile); err == nil {
		v.SetConfigFile(configFile)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return fromViper(v, layout)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("workspace", "")
	v.SetDefault("hash.algorithm", "sha256")
	v.SetDefault("lock.timeout", "0s")
	v.SetDefault("replay.strict_verification", false)
	v.SetDefault("checkpoint.compress", false)
	v.SetDefault("status.limit", 50)
	v.SetDefault("patch.binary", "patch")
}

func fromViper(v *viper.Viper, layout domain.Layout) (*Config, error) {
	cfg := &Config{
		Layout:              layout,
		HashAlgorithm:       strings.ToLower(v.GetString("hash.algorithm")),
		LockTimeout:         v.GetDuration("lock.timeout"),
		StrictVerification:  v.GetBool("replay.strict_verification"),
		CompressCheckpoints: v.GetBool("checkpoint.compress"),
		StatusLimit:         v.GetInt("status.limit"),
		PatchBinary:         v.GetString("patch.binary"),
		ConfigFile:          v.ConfigFileUsed(),
	}

	if cfg.LockTimeout < 0 {
		return nil, fmt.Errorf("lock.timeout must not be negative")
	}
	if cfg.StatusLimit < 0 {
		return nil, fmt.Errorf("status.limit must not be negative")
	}
	return cfg, nil
}

func resolveWorkspace(workspace string) (string, error) {
	if workspace != "" {
		abs, err := filepath.Abs(expandHome(workspace))
		if err != nil {
			return "", fmt.Errorf("failed to resolve workspace: %w", err)
		}
		return abs, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return Discover(cwd)
}

// Discover walks up from start to the nearest directory containing .mcp
func Discover(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		info, err := os.Stat(filepath.Join(dir, domain.MarkerDir))
		if err == nil && info.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w above %s", ErrNoWorkspace, start)
		}
		dir = parent
	}
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
