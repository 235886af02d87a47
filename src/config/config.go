package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"lsp-folding/src/internal/common"
	"lsp-folding/src/internal/registry"
	"lsp-folding/src/internal/security"
	"lsp-folding/src/server/documents"
	"lsp-folding/src/server/outline"
	"lsp-folding/src/server/process"
)

// Environment variables that override the config file
const (
	EnvLogLevel = "LSP_FOLDING_LOG_LEVEL"
	EnvHTTPAddr = "LSP_FOLDING_HTTP_ADDR"
)

// DefaultHTTPAddr is used by serve --http when nothing else is configured
const DefaultHTTPAddr = ":8080"

// Config contains lsp-folding configuration
type Config struct {
	LogLevel  string                    `yaml:"log_level"`
	Documents DocumentsConfig           `yaml:"documents"`
	Server    ServerConfig              `yaml:"server"`
	Outlines  map[string]*OutlineConfig `yaml:"outlines"`
}

// DocumentsConfig controls how documents are resolved
type DocumentsConfig struct {
	ReadFromDisk bool `yaml:"read_from_disk"`
}

// ServerConfig contains HTTP gateway settings
type ServerConfig struct {
	HTTPAddr       string        `yaml:"http_addr"`
	RequestTimeout time.Duration `yaml:"request_timeout,omitempty"`
}

// OutlineConfig describes the external outline program for one language
type OutlineConfig struct {
	Command    string        `yaml:"command"`
	Args       []string      `yaml:"args"`
	WorkingDir string        `yaml:"working_dir,omitempty"`
	Env        []string      `yaml:"env,omitempty"`
	Timeout    time.Duration `yaml:"timeout"`
}

// LoadConfig loads configuration from a YAML file and applies environment overrides
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := GetDefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if config.Outlines == nil {
		config.Outlines = make(map[string]*OutlineConfig)
	}
	applyEnvOverrides(config)

	// Validate config
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// LoadOrDefault loads path, or the default config path when path is empty. A missing file
// yields the default configuration.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		path = GetDefaultConfigPath()
	}
	if !common.FileExists(path) {
		common.CLILogger.Debug("No config at %s, using defaults", path)
		config := GetDefaultConfig()
		applyEnvOverrides(config)
		return config, validateConfig(config)
	}
	return LoadConfig(path)
}

// LoadEnvFiles loads KEY=VALUE files into the process environment. Missing files are
// skipped and variables that are already set win.
func LoadEnvFiles(paths ...string) error {
	for _, path := range paths {
		if !common.FileExists(path) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", path, err)
		}
		common.CLILogger.Debug("Loaded environment from %s", path)
	}
	return nil
}

// DefaultEnvFiles returns the .env files consulted at startup
func DefaultEnvFiles() []string {
	files := []string{".env"}
	if home, err := os.UserHomeDir(); err == nil {
		files = append(files, filepath.Join(home, ".lsp-folding", ".env"))
	}
	return files
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(config *Config, path string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateDefaultConfig generates a default configuration file
func GenerateDefaultConfig(path string) error {
	config := GetDefaultConfig()
	return SaveConfig(config, path)
}

func applyEnvOverrides(config *Config) {
	config.LogLevel = common.EnvOrDefault(EnvLogLevel, config.LogLevel)
	config.Server.HTTPAddr = common.EnvOrDefault(EnvHTTPAddr, config.Server.HTTPAddr)
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if _, err := common.ParseLogLevel(config.LogLevel); err != nil {
		return err
	}
	if config.Server.RequestTimeout < 0 {
		return fmt.Errorf("server.request_timeout must not be negative")
	}

	for language, outlineConfig := range config.Outlines {
		if outlineConfig == nil || outlineConfig.Command == "" {
			return fmt.Errorf("command is required for language %s", language)
		}
		if outlineConfig.Timeout <= 0 {
			return fmt.Errorf("timeout must be positive for language %s", language)
		}
		if err := security.ValidateCommand(outlineConfig.Command, outlineConfig.Args); err != nil {
			return fmt.Errorf("outline for language %s: %w", language, err)
		}
		if err := security.ValidateEnv(outlineConfig.Env); err != nil {
			return fmt.Errorf("outline for language %s: %w", language, err)
		}
		if err := registry.ValidateLanguage(language); err != nil {
			common.CLILogger.Warn("Outline configured for unrecognized language %s", language)
		}
	}

	return nil
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".lsp-folding", "config.yaml")
}

// GetDefaultConfig returns a configuration with no outline programs
func GetDefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Documents: DocumentsConfig{
			ReadFromDisk: true,
		},
		Server: ServerConfig{
			HTTPAddr: DefaultHTTPAddr,
		},
		Outlines: make(map[string]*OutlineConfig),
	}
}

// Languages returns the languages with a configured outline program, sorted
func (c *Config) Languages() []string {
	langs := make([]string, 0, len(c.Outlines))
	for lang := range c.Outlines {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// DocumentOptions converts the documents section for the document manager
func (c *Config) DocumentOptions() documents.Options {
	return documents.Options{ReadFromDisk: c.Documents.ReadFromDisk}
}

// BuildOutlineRegistry registers a command provider for every configured language
func (c *Config) BuildOutlineRegistry() *outline.Registry {
	reg := outline.NewRegistry()
	for _, lang := range c.Languages() {
		oc := c.Outlines[lang]
		reg.Register(lang, outline.NewCommandProvider(lang, process.CommandSpec{
			Command:    oc.Command,
			Args:       append([]string(nil), oc.Args...),
			WorkingDir: oc.WorkingDir,
			Env:        append([]string(nil), oc.Env...),
		}, oc.Timeout))
	}
	return reg
}
