package security

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateCommand_AllowsPlainInvocation(t *testing.T) {
	assert.NoError(t, ValidateCommand("/usr/local/bin/roslyn-outline", []string{"--json", "--lang=csharp"}))
	assert.NoError(t, ValidateCommand("python3", []string{"outline.py"}))
}

func TestValidateCommand_RejectsEmpty(t *testing.T) {
	assert.Error(t, ValidateCommand("  ", nil))
}

func TestValidateCommand_BlocksBasicInjection(t *testing.T) {
	cases := [][]string{{"$(whoami)"}, {";", "rm", "-rf", "/"}, {"out > /etc/passwd"}}
	for _, args := range cases {
		assert.Error(t, ValidateCommand("roslyn-outline", args), "%v", args)
	}
	assert.Error(t, ValidateCommand("outline;rm", nil))
}

func TestValidateCommand_FuzzingStylePatterns(t *testing.T) {
	dangerousPatterns := []string{"|", "&", ";", "`", "$", "$("}
	traversalPatterns := []string{".."}

	tests := []struct {
		name     string
		patterns []string
		prefix   string
		suffix   string
	}{
		{"prefixed dangerous", dangerousPatterns, "prefix", ""},
		{"suffixed dangerous", dangerousPatterns, "", "suffix"},
		{"wrapped dangerous", dangerousPatterns, "pre", "suf"},
		{"prefixed traversal", traversalPatterns, "prefix", ""},
		{"suffixed traversal", traversalPatterns, "", "suffix"},
		{"wrapped traversal", traversalPatterns, "pre", "suf"},
	}

	for _, tt := range tests {
		for _, pattern := range tt.patterns {
			testArg := tt.prefix + pattern + tt.suffix
			t.Run(fmt.Sprintf("%s_%s", tt.name, pattern), func(t *testing.T) {
				assert.Error(t, ValidateCommand("roslyn-outline", []string{testArg}))
			})
		}
	}
}

func TestValidateEnv(t *testing.T) {
	assert.NoError(t, ValidateEnv([]string{"DOTNET_ROOT=/opt/dotnet", "EMPTY="}))
	assert.Error(t, ValidateEnv([]string{"NOEQUALS"}))
	assert.Error(t, ValidateEnv([]string{"=value"}))
}
