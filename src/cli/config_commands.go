package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"lsp-folding/src/config"
	"lsp-folding/src/internal/common"
	"lsp-folding/src/internal/registry"
)

// InitConfig writes the default configuration to path (or the default location)
func InitConfig(out io.Writer, path string, overwrite bool) error {
	if path == "" {
		path = config.GetDefaultConfigPath()
	}
	if common.FileExists(path) && !overwrite {
		return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
	}
	if err := config.GenerateDefaultConfig(path); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %s\n", path)
	return nil
}

// ShowConfig prints the effective configuration as YAML
func ShowConfig(out io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = out.Write(data)
	return err
}

// ListLanguages prints every known language, its extensions and its outline program
func ListLanguages(out io.Writer, mode string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyColorMode(mode)

	heading := color.New(color.Bold)
	configured := color.New(color.FgHiGreen)
	missing := color.New(color.FgHiBlack)

	extensions := registry.GetSupportedExtensions()
	heading.Fprintf(out, "%-12s %-24s %s\n", "LANGUAGE", "EXTENSIONS", "OUTLINE")
	for _, lang := range registry.GetLanguageNames() {
		fmt.Fprintf(out, "%-12s %-24s ", lang, fmt.Sprint(extensions[lang]))
		if oc, ok := cfg.Outlines[lang]; ok {
			configured.Fprintf(out, "%s (timeout %v)\n", oc.Command, oc.Timeout)
		} else {
			missing.Fprintln(out, "-")
		}
	}
	return nil
}
