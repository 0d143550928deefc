package internal

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/granola-sync/internal/credentials"
	"github.com/starford/granola-sync/internal/route"
	"github.com/starford/granola-sync/internal/syncservice"
	"github.com/starford/granola-sync/internal/transcript"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Credential sources.
const (
	CredentialSourceFile     = "file"
	CredentialSourceLoopback = "loopback"
)

// Config represents the application configuration.
type Config struct {
	App         ApplicationConfig `yaml:"app"`
	Vault       VaultConfig       `yaml:"vault"`
	SQLite      SQLiteConfig      `yaml:"sqlite"`
	Auth        AuthConfig        `yaml:"auth"`
	Granola     GranolaConfig     `yaml:"granola"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Sync        SyncConfig        `yaml:"sync"`
	DailyNote   DailyNoteConfig   `yaml:"dailynote"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validators := []interface{ Validate() error }{
		&c.App, &c.Vault, &c.SQLite, &c.Auth, &c.Granola, &c.Credentials, &c.Sync, &c.DailyNote,
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig holds the path to the Markdown vault directory.
type VaultConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SQLiteConfig holds the sync ledger database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration for the HTTP API.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// GranolaConfig configures the Granola API client.
type GranolaConfig struct {
	BaseURL       string        `yaml:"base_url"`
	ClientVersion string        `yaml:"client_version"`
	UserAgent     string        `yaml:"user_agent"`
	PageSize      int           `yaml:"page_size"`
	MaxPages      int           `yaml:"max_pages"`
	Timeout       time.Duration `yaml:"timeout"`
}

// Validate validates the Granola API configuration.
func (c *GranolaConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required),
		validation.Field(&c.PageSize, validation.Min(1), validation.Max(1000)),
		validation.Field(&c.MaxPages, validation.Min(0)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// CredentialsConfig says where the Granola access token comes from.
//
// Source "file" reads TokenPath, relative to the vault. Source "loopback"
// serves Loopback.SourcePath (anywhere on disk) on a local listener for
// the duration of each lookup.
type CredentialsConfig struct {
	Source    string         `yaml:"source"`
	TokenPath string         `yaml:"token_path"`
	Loopback  LoopbackConfig `yaml:"loopback"`
}

// LoopbackConfig configures the loopback credential listener.
type LoopbackConfig struct {
	Address    string `yaml:"address"`
	SourcePath string `yaml:"source_path"`
}

// Validate validates the credentials configuration.
func (c *CredentialsConfig) Validate() error {
	if c.Source == "" {
		c.Source = CredentialSourceFile
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Source, validation.In(CredentialSourceFile, CredentialSourceLoopback)),
	); err != nil {
		return err
	}
	if c.Source == CredentialSourceLoopback && c.Loopback.SourcePath == "" {
		return fmt.Errorf("credentials: source is %q but loopback.source_path is empty", CredentialSourceLoopback)
	}
	return nil
}

// WatchPath returns the absolute path of the credential file to watch for
// changes, or "" when there is none.
func (c *CredentialsConfig) WatchPath(vaultPath string) string {
	switch c.Source {
	case CredentialSourceLoopback:
		return c.Loopback.SourcePath
	default:
		if c.TokenPath == "" || filepath.IsAbs(c.TokenPath) {
			return ""
		}
		return filepath.Join(vaultPath, c.TokenPath)
	}
}

// SyncConfig controls what is synced, where to, and how often.
type SyncConfig struct {
	Mode           string            `yaml:"mode"`
	Folder         string            `yaml:"folder"`
	Enabled        bool              `yaml:"enabled"`
	Interval       time.Duration     `yaml:"interval"`
	Transcripts    bool              `yaml:"transcripts"`
	Concurrency    int               `yaml:"concurrency"`
	Speakers       map[string]string `yaml:"speakers"`
	DefaultSpeaker string            `yaml:"default_speaker"`
}

// Validate validates the sync configuration.
func (c *SyncConfig) Validate() error {
	modes := make([]any, len(route.Modes))
	for i, m := range route.Modes {
		modes[i] = string(m)
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(modes...)),
		validation.Field(&c.Concurrency, validation.Min(1), validation.Max(64)),
		validation.Field(&c.Interval, validation.When(c.Enabled, validation.Required, validation.Min(time.Minute))),
	)
}

// DailyNoteConfig locates daily notes and the section Granola owns in them.
type DailyNoteConfig struct {
	Folder         string `yaml:"folder"`
	Format         string `yaml:"format"`
	SectionHeading string `yaml:"section_heading"`
}

// Validate validates the daily note configuration.
func (c *DailyNoteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Format, validation.Required),
		validation.Field(&c.SectionHeading, validation.Required),
	)
}

// SyncOptions maps the configuration onto sync service options.
func (c *Config) SyncOptions() syncservice.Options {
	return syncservice.Options{
		Mode:            route.Mode(c.Sync.Mode),
		Folder:          c.Sync.Folder,
		DailyNoteFolder: c.DailyNote.Folder,
		DailyNoteFormat: c.DailyNote.Format,
		SectionHeading:  c.DailyNote.SectionHeading,
		Transcripts:     c.Sync.Transcripts,
		Speakers:        transcript.Speakers{Labels: c.Sync.Speakers, Default: c.Sync.DefaultSpeaker},
		Concurrency:     c.Sync.Concurrency,
	}
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path: "./vault",
		},
		SQLite: SQLiteConfig{
			Path: "./granola-sync.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Granola: GranolaConfig{
			BaseURL:       "https://api.granola.ai",
			ClientVersion: "ObsidianPlugin-0.1.7",
			UserAgent:     "GranolaObsidianPlugin/0.1.7",
			PageSize:      100,
			MaxPages:      10,
			Timeout:       30 * time.Second,
		},
		Credentials: CredentialsConfig{
			Source:    CredentialSourceFile,
			TokenPath: "configs/supabase.json",
			Loopback: LoopbackConfig{
				Address: credentials.DefaultLoopbackAddress,
			},
		},
		Sync: SyncConfig{
			Mode:        string(route.ModeFlat),
			Folder:      "Granola",
			Enabled:     true,
			Interval:    30 * time.Minute,
			Concurrency: 4,
			Speakers: map[string]string{
				"microphone": "Me",
				"system":     "Them",
			},
			DefaultSpeaker: "Guest",
		},
		DailyNote: DailyNoteConfig{
			Folder:         "",
			Format:         route.DefaultDateFormat,
			SectionHeading: syncservice.DefaultSectionHeading,
		},
	}
}
