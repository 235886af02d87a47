package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// shellMetacharacters never reach a shell: outline programs run through exec directly, so
// an argument carrying one of them is a misconfiguration or an injection attempt.
var shellMetacharacters = []string{"|", "&", ";", "`", "$", "$(", ">", "<"}

// ValidateCommand checks an outline program invocation taken from configuration
func ValidateCommand(command string, args []string) error {
	if strings.TrimSpace(command) == "" {
		return fmt.Errorf("command is empty")
	}

	baseName := filepath.Base(command)
	for _, meta := range shellMetacharacters {
		if strings.Contains(baseName, meta) {
			return fmt.Errorf("shell injection detected in command: %s", baseName)
		}
	}

	for _, arg := range args {
		if strings.Contains(arg, "..") {
			return fmt.Errorf("path traversal detected in argument: %s", arg)
		}
		for _, meta := range shellMetacharacters {
			if strings.Contains(arg, meta) {
				return fmt.Errorf("shell injection detected in argument: %s", arg)
			}
		}
	}

	return nil
}

// ValidateEnv checks that every entry has the KEY=VALUE form exec expects
func ValidateEnv(env []string) error {
	for _, kv := range env {
		key, _, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return fmt.Errorf("invalid environment entry %q: expected KEY=VALUE", kv)
		}
	}
	return nil
}
