// Copyright 2026 The Reelstore Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the variable [Load] reads the config
// path from.
const EnvironmentVariable = "REELSTORE_CONFIG"

// Environment represents the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Catalog media.
const (
	MediumFile   = "file"
	MediumSQLite = "sqlite"
	MediumMemory = "memory"
)

// Config is the complete reelstore configuration.
type Config struct {
	Environment Environment `yaml:"environment"`

	Paths    PathsConfig    `yaml:"paths"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Upload   UploadConfig   `yaml:"upload"`
	Session  SessionConfig  `yaml:"session"`
	Backup   BackupConfig   `yaml:"backup"`
	Identity IdentityConfig `yaml:"identity"`
	Log      LogConfig      `yaml:"log"`

	// Per-environment overrides, applied after the base values.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides holds the sections an environment may override.
// String fields override when non-empty. Boolean and list fields of
// an overridden section always apply.
type ConfigOverrides struct {
	Paths   *PathsConfig   `yaml:"paths,omitempty"`
	Catalog *CatalogConfig `yaml:"catalog,omitempty"`
	Upload  *UploadConfig  `yaml:"upload,omitempty"`
	Session *SessionConfig `yaml:"session,omitempty"`
	Backup  *BackupConfig  `yaml:"backup,omitempty"`
	Log     *LogConfig     `yaml:"log,omitempty"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// Root is the base directory for reelstore data.
	Root string `yaml:"root"`

	// Catalog is the directory the file medium stores documents in.
	Catalog string `yaml:"catalog"`

	// Database is the SQLite file used by the sqlite medium.
	Database string `yaml:"database"`

	// Backups receives snapshots taken before the catalog is cleared.
	Backups string `yaml:"backups"`
}

// CatalogConfig configures the catalog store.
type CatalogConfig struct {
	// Medium is file, sqlite or memory.
	Medium string `yaml:"medium"`

	// Key is the document key. Default: uploadedVideos.
	Key string `yaml:"key"`

	// MaxDocumentBytes caps the serialized catalog. Zero is unlimited.
	MaxDocumentBytes int64 `yaml:"max_document_bytes"`
}

// UploadConfig configures the checks applied before an upload.
type UploadConfig struct {
	// MaxBytes caps a single payload. Zero is unlimited.
	MaxBytes int64 `yaml:"max_bytes"`

	// AllowedTypes are accepted media type prefixes.
	AllowedTypes []string `yaml:"allowed_types"`
}

// SessionConfig configures the storage session.
type SessionConfig struct {
	// SimulateLatency makes the simulated provider wait as long as
	// the hosted service typically does.
	SimulateLatency bool `yaml:"simulate_latency"`

	// OpeningBalance is the simulated account's starting balance.
	OpeningBalance string `yaml:"opening_balance"`

	// DownloadRequiresSession brings the session up before each
	// download.
	DownloadRequiresSession bool `yaml:"download_requires_session"`
}

// BackupConfig configures snapshots taken before a clear.
type BackupConfig struct {
	Enabled bool `yaml:"enabled"`

	// Compression is none, lz4 or zstd.
	Compression string `yaml:"compression"`

	// Recipients are age public keys (age1...) snapshots are
	// encrypted to. Empty leaves snapshots unencrypted.
	Recipients []string `yaml:"recipients"`
}

// IdentityConfig configures the creator account.
type IdentityConfig struct {
	// CreatorID is the account uploads are attributed to. Empty uses
	// the fallback account.
	CreatorID string `yaml:"creator_id"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`

	// Format is auto (text on a terminal, JSON otherwise), text or
	// json.
	Format string `yaml:"format"`
}

// Default returns the configuration used as the base before a file
// is loaded. Sub-paths are relative to ${REELSTORE_ROOT}; call
// ExpandVariables before using a Default that was not loaded.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".local", "share", "reelstore")

	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			Root:     defaultRoot,
			Catalog:  "${REELSTORE_ROOT}/catalog",
			Database: "${REELSTORE_ROOT}/catalog.db",
			Backups:  "${REELSTORE_ROOT}/backups",
		},
		Catalog: CatalogConfig{
			Medium:           MediumFile,
			Key:              "uploadedVideos",
			MaxDocumentBytes: 256 << 20,
		},
		Upload: UploadConfig{
			MaxBytes:     100 << 20,
			AllowedTypes: []string{"video/"},
		},
		Session: SessionConfig{
			SimulateLatency:         true,
			OpeningBalance:          "80.00",
			DownloadRequiresSession: true,
		},
		Backup: BackupConfig{
			Enabled:     true,
			Compression: "zstd",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load loads the file named by REELSTORE_CONFIG. It fails when the
// variable is unset.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your reelstore config file, or use --config flag", EnvironmentVariable)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from path on top of [Default].
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	cfg.applyEnvironmentOverrides()
	cfg.ExpandVariables()

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		// JSON is a YAML subset, so once comments and trailing commas
		// are gone the yaml tags name the fields for both formats.
		data = jsonc.ToJSON(data)
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		if overrides == nil {
			overrides = &ConfigOverrides{
				Catalog: &CatalogConfig{Medium: MediumSQLite},
				Backup:  &BackupConfig{Enabled: true, Recipients: c.Backup.Recipients},
			}
		}
	}

	if overrides == nil {
		return
	}

	if paths := overrides.Paths; paths != nil {
		overrideString(&c.Paths.Root, paths.Root)
		overrideString(&c.Paths.Catalog, paths.Catalog)
		overrideString(&c.Paths.Database, paths.Database)
		overrideString(&c.Paths.Backups, paths.Backups)
	}

	if catalog := overrides.Catalog; catalog != nil {
		overrideString(&c.Catalog.Medium, catalog.Medium)
		overrideString(&c.Catalog.Key, catalog.Key)
		if catalog.MaxDocumentBytes != 0 {
			c.Catalog.MaxDocumentBytes = catalog.MaxDocumentBytes
		}
	}

	if upload := overrides.Upload; upload != nil {
		if upload.MaxBytes != 0 {
			c.Upload.MaxBytes = upload.MaxBytes
		}
		if upload.AllowedTypes != nil {
			c.Upload.AllowedTypes = upload.AllowedTypes
		}
	}

	if session := overrides.Session; session != nil {
		c.Session.SimulateLatency = session.SimulateLatency
		c.Session.DownloadRequiresSession = session.DownloadRequiresSession
		overrideString(&c.Session.OpeningBalance, session.OpeningBalance)
	}

	if backup := overrides.Backup; backup != nil {
		c.Backup.Enabled = backup.Enabled
		overrideString(&c.Backup.Compression, backup.Compression)
		c.Backup.Recipients = backup.Recipients
	}

	if log := overrides.Log; log != nil {
		overrideString(&c.Log.Level, log.Level)
		overrideString(&c.Log.Format, log.Format)
	}
}

func overrideString(target *string, value string) {
	if value != "" {
		*target = value
	}
}

// ExpandVariables expands ${VAR} and ${VAR:-default} in path fields.
// ${REELSTORE_ROOT} refers to Paths.Root after its own expansion.
func (c *Config) ExpandVariables() {
	vars := map[string]string{
		"REELSTORE_ROOT": c.Paths.Root,
		"HOME":           os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["REELSTORE_ROOT"] = c.Paths.Root

	c.Paths.Catalog = expandVars(c.Paths.Catalog, vars)
	c.Paths.Database = expandVars(c.Paths.Database, vars)
	c.Paths.Backups = expandVars(c.Paths.Backups, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors. All problems are
// reported together.
func (c *Config) Validate() error {
	var errs []error

	if !slices.Contains([]Environment{Development, Staging, Production}, c.Environment) {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}
	if c.Paths.Root == "" {
		errs = append(errs, errors.New("paths.root is required"))
	}

	media := []string{MediumFile, MediumSQLite, MediumMemory}
	if !slices.Contains(media, c.Catalog.Medium) {
		errs = append(errs, fmt.Errorf("catalog.medium must be one of: %v", media))
	}
	if c.Catalog.Medium == MediumFile && c.Paths.Catalog == "" {
		errs = append(errs, errors.New("paths.catalog is required for the file medium"))
	}
	if c.Catalog.Medium == MediumSQLite && c.Paths.Database == "" {
		errs = append(errs, errors.New("paths.database is required for the sqlite medium"))
	}
	if c.Catalog.Key == "" || strings.ContainsAny(c.Catalog.Key, `/\`) {
		errs = append(errs, fmt.Errorf("catalog.key %q must be non-empty and contain no path separators", c.Catalog.Key))
	}
	if c.Catalog.MaxDocumentBytes < 0 {
		errs = append(errs, errors.New("catalog.max_document_bytes must not be negative"))
	}

	if c.Upload.MaxBytes < 0 {
		errs = append(errs, errors.New("upload.max_bytes must not be negative"))
	}
	for _, prefix := range c.Upload.AllowedTypes {
		if !strings.Contains(prefix, "/") {
			errs = append(errs, fmt.Errorf("upload.allowed_types entry %q must look like type/ or type/subtype", prefix))
		}
	}

	compressions := []string{"none", "lz4", "zstd"}
	if !slices.Contains(compressions, c.Backup.Compression) {
		errs = append(errs, fmt.Errorf("backup.compression must be one of: %v", compressions))
	}
	if c.Backup.Enabled && c.Paths.Backups == "" {
		errs = append(errs, errors.New("paths.backups is required when backups are enabled"))
	}
	for _, recipient := range c.Backup.Recipients {
		if !strings.HasPrefix(recipient, "age1") {
			errs = append(errs, fmt.Errorf("backup.recipients entry %q is not an age public key", recipient))
		}
	}

	levels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(levels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of: %v", levels))
	}
	formats := []string{"auto", "text", "json"}
	if !slices.Contains(formats, c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format must be one of: %v", formats))
	}

	return errors.Join(errs...)
}

// EnsurePaths creates the directories the configured media need.
func (c *Config) EnsurePaths() error {
	paths := []string{c.Paths.Root}
	switch c.Catalog.Medium {
	case MediumFile:
		paths = append(paths, c.Paths.Catalog)
	case MediumSQLite:
		paths = append(paths, filepath.Dir(c.Paths.Database))
	}
	if c.Backup.Enabled {
		paths = append(paths, c.Paths.Backups)
	}

	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}
	return nil
}
