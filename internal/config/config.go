/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
type AppConfig struct {
	ConfigVersion int            `yaml:"config_version"`
	General       GeneralConfig  `yaml:"general"`
	Canvas        CanvasConfig   `yaml:"canvas"`
	Storage       StorageConfig  `yaml:"storage"`
	Backend       BackendConfig  `yaml:"backend"`
	Logging       LoggingConfig  `yaml:"logging"`
	Registry      RegistryConfig `yaml:"registry"`
}

type GeneralConfig struct {
	ProjectLabel string `yaml:"project_label"`
	// Confirm is "prompt" (ask on stdin), "always" or "never".
	Confirm string `yaml:"confirm"`
}

// CanvasConfig holds the interaction and layout constants.
type CanvasConfig struct {
	ZoomMin       int     `yaml:"zoom_min"`
	ZoomMax       int     `yaml:"zoom_max"`
	ZoomStep      int     `yaml:"zoom_step"`
	ZoomDefault   int     `yaml:"zoom_default"`
	Nudge         float64 `yaml:"nudge"`
	NudgeLarge    float64 `yaml:"nudge_large"`
	MinSize       float64 `yaml:"min_size"`
	HandleSize    float64 `yaml:"handle_size"`
	SnapThreshold float64 `yaml:"snap_threshold"`
	DefaultX      float64 `yaml:"default_x"`
	DefaultY      float64 `yaml:"default_y"`
	PasteOffsetX  float64 `yaml:"paste_offset_x"`
	PasteOffsetY  float64 `yaml:"paste_offset_y"`
	ZBaseline     int     `yaml:"z_baseline"`
	ZStep         int     `yaml:"z_step"`
}

type StorageConfig struct {
	KeepBackups     int   `yaml:"keep_backups"`
	KeepCheckpoints int   `yaml:"keep_checkpoints"`
	PreviewMaxBytes int64 `yaml:"preview_max_bytes"`
}

// BackendConfig selects the shared Postgres checkpoint store.
type BackendConfig struct {
	Enabled   bool   `yaml:"enabled"`
	DSN       string `yaml:"dsn"`
	TimeoutMs int    `yaml:"timeout_ms"`
	// The password is not stored on disk; it lives in the OS keychain.
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type RegistryConfig struct {
	// Extensions is an optional TOML file with extra archetypes.
	Extensions string `yaml:"extensions"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{ProjectLabel: "Untitled", Confirm: "prompt"},
		Canvas: CanvasConfig{
			ZoomMin: 50, ZoomMax: 200, ZoomStep: 10, ZoomDefault: 100,
			Nudge: 1, NudgeLarge: 10, MinSize: 8, HandleSize: 8,
			DefaultX: 100, DefaultY: 100, PasteOffsetX: 20, PasteOffsetY: 20,
			ZBaseline: 10, ZStep: 10,
		},
		Storage: StorageConfig{KeepBackups: 20, KeepCheckpoints: 50, PreviewMaxBytes: 64 << 20},
		Backend: BackendConfig{TimeoutMs: 10000},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvConfigPath     = "WF_CONFIG"
	EnvProjectLabel   = "WF_PROJECT_LABEL"
	EnvConfirm        = "WF_CONFIRM"
	EnvSnapThreshold  = "WF_SNAP_THRESHOLD"
	EnvKeepBackups    = "WF_KEEP_BACKUPS"
	EnvKeepCheckpoint = "WF_KEEP_CHECKPOINTS"
	EnvBackendEnabled = "WF_BACKEND_ENABLED"
	EnvBackendDSN     = "WF_PG_DSN"
	EnvExtensions     = "WF_REGISTRY_EXTENSIONS"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "WF_LOG_LEVEL"
	EnvLogFormat = "WF_LOG_FORMAT"
	EnvLogSource = "WF_LOG_SOURCE"
	EnvLogFile   = "WF_LOG_FILE"
)

// Service/keys for OS keyring.
const (
	keyringService  = "Wireframer"
	keyringPassword = "backend_password"
)

// ErrNoSecret is returned when the keyring holds no backend password.
var ErrNoSecret = errors.New("no backend password stored")

// TokenStore abstracts the keyring so tests can stub it.
type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// osKeyring implements TokenStore using the OS keyring via github.com/zalando/go-keyring.
type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) {
	v, err := keyring.Get(service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNoSecret
	}
	return v, err
}
func (osKeyring) Set(service, key, value string) error { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error {
	err := keyring.Delete(service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

var tokenStore TokenStore = osKeyring{}

// SetTokenStore replaces the secret store and returns the previous one.
func SetTokenStore(ts TokenStore) TokenStore {
	prev := tokenStore
	tokenStore = ts
	return prev
}

// BackendPassword reads the backend password from the keyring.
func BackendPassword() (string, error) { return tokenStore.Get(keyringService, keyringPassword) }

// SetBackendPassword stores the password, or removes it when empty.
func SetBackendPassword(pw string) error {
	if pw == "" {
		return tokenStore.Delete(keyringService, keyringPassword)
	}
	return tokenStore.Set(keyringService, keyringPassword, pw)
}

// ConfigPath returns the per-user config file path. WF_CONFIG wins when set.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "Wireframer")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "Wireframer")
	default:
		home := os.Getenv("HOME")
		if home == "" {
			return "", errors.New("cannot resolve config directory")
		}
		base = filepath.Join(home, ".config", "wireframer")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges
// environment overrides.
func Load() (AppConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		cfg := Defaults()
		applyEnvOverrides(&cfg)
		return cfg, err
	}
	return LoadFrom(path)
}

// LoadFrom is Load with an explicit file path. A missing file is not an
// error; a malformed one is.
func LoadFrom(path string) (AppConfig, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			applyEnvOverrides(&cfg)
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	case !errors.Is(err, os.ErrNotExist):
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Save writes the user config YAML to path (ConfigPath when empty).
func Save(cfg AppConfig, path string) error {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setFloat(dst *float64, v float64) {
	if v != 0 {
		*dst = v
	}
}

func setString(dst *string, v string) {
	if s := strings.TrimSpace(v); s != "" {
		*dst = s
	}
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	setInt(&dst.ConfigVersion, src.ConfigVersion)
	setString(&dst.General.ProjectLabel, src.General.ProjectLabel)
	setString(&dst.General.Confirm, strings.ToLower(src.General.Confirm))

	c, s := &dst.Canvas, src.Canvas
	setInt(&c.ZoomMin, s.ZoomMin)
	setInt(&c.ZoomMax, s.ZoomMax)
	setInt(&c.ZoomStep, s.ZoomStep)
	setInt(&c.ZoomDefault, s.ZoomDefault)
	setFloat(&c.Nudge, s.Nudge)
	setFloat(&c.NudgeLarge, s.NudgeLarge)
	setFloat(&c.MinSize, s.MinSize)
	setFloat(&c.HandleSize, s.HandleSize)
	setFloat(&c.SnapThreshold, s.SnapThreshold)
	setFloat(&c.DefaultX, s.DefaultX)
	setFloat(&c.DefaultY, s.DefaultY)
	setFloat(&c.PasteOffsetX, s.PasteOffsetX)
	setFloat(&c.PasteOffsetY, s.PasteOffsetY)
	setInt(&c.ZBaseline, s.ZBaseline)
	setInt(&c.ZStep, s.ZStep)

	setInt(&dst.Storage.KeepBackups, src.Storage.KeepBackups)
	setInt(&dst.Storage.KeepCheckpoints, src.Storage.KeepCheckpoints)
	if src.Storage.PreviewMaxBytes != 0 {
		dst.Storage.PreviewMaxBytes = src.Storage.PreviewMaxBytes
	}

	// booleans: copy directly from src (file) so user preferences persist
	dst.Backend.Enabled = src.Backend.Enabled
	setString(&dst.Backend.DSN, src.Backend.DSN)
	setInt(&dst.Backend.TimeoutMs, src.Backend.TimeoutMs)

	setString(&dst.Logging.Level, strings.ToLower(src.Logging.Level))
	setString(&dst.Logging.Format, strings.ToLower(src.Logging.Format))
	dst.Logging.Source = src.Logging.Source
	setString(&dst.Logging.File, src.Logging.File)

	setString(&dst.Registry.Extensions, src.Registry.Extensions)
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvProjectLabel)); v != "" {
		cfg.General.ProjectLabel = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvConfirm)); v != "" {
		cfg.General.Confirm = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvSnapThreshold)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			cfg.Canvas.SnapThreshold = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvKeepBackups)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Storage.KeepBackups = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvKeepCheckpoint)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Storage.KeepCheckpoints = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendEnabled)); v != "" {
		cfg.Backend.Enabled = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendDSN)); v != "" {
		cfg.Backend.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvExtensions)); v != "" {
		cfg.Registry.Extensions = v
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env := map[string]string{
		"general.project_label":    EnvProjectLabel,
		"general.confirm":          EnvConfirm,
		"canvas.snap_threshold":    EnvSnapThreshold,
		"storage.keep_backups":     EnvKeepBackups,
		"storage.keep_checkpoints": EnvKeepCheckpoint,
		"backend.enabled":          EnvBackendEnabled,
		"backend.dsn":              EnvBackendDSN,
		"registry.extensions":      EnvExtensions,
		"logging.level":            EnvLogLevel,
		"logging.format":           EnvLogFormat,
		"logging.source":           EnvLogSource,
		"logging.file":             EnvLogFile,
	}[key]
	if env != "" && os.Getenv(env) != "" {
		return env, true
	}
	return "", false
}

// ConnString returns the DSN with password filled in when the DSN is a URL
// without one.
func (b BackendConfig) ConnString(password string) (string, error) {
	dsn := strings.TrimSpace(b.DSN)
	if dsn == "" {
		return "", errors.New("backend dsn not configured")
	}
	if password == "" || !strings.Contains(dsn, "://") {
		return dsn, nil
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}
	if u.User == nil {
		return dsn, nil
	}
	if _, has := u.User.Password(); has {
		return dsn, nil
	}
	u.User = url.UserPassword(u.User.Username(), password)
	return u.String(), nil
}
