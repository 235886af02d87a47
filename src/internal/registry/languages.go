package registry

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// LanguageInfo describes a language the server can recognise from a file name
type LanguageInfo struct {
	Name       string   // LSP language identifier (csharp, go, python, ...)
	Extensions []string // File extensions for this language
}

// Global language registry. Names follow the LSP languageId convention.
var languageRegistry = map[string]LanguageInfo{
	"csharp":     {Name: "csharp", Extensions: []string{".cs", ".csx"}},
	"vb":         {Name: "vb", Extensions: []string{".vb"}},
	"go":         {Name: "go", Extensions: []string{".go"}},
	"python":     {Name: "python", Extensions: []string{".py", ".pyi"}},
	"javascript": {Name: "javascript", Extensions: []string{".js", ".jsx", ".mjs", ".cjs"}},
	"typescript": {Name: "typescript", Extensions: []string{".ts", ".tsx", ".mts", ".cts"}},
	"java":       {Name: "java", Extensions: []string{".java"}},
	"rust":       {Name: "rust", Extensions: []string{".rs"}},
	"c":          {Name: "c", Extensions: []string{".c", ".h"}},
	"cpp":        {Name: "cpp", Extensions: []string{".cpp", ".cc", ".cxx", ".hpp", ".hh"}},
}

var extensionToLanguage = func() map[string]string {
	m := make(map[string]string)
	for name, lang := range languageRegistry {
		for _, ext := range lang.Extensions {
			m[ext] = name
		}
	}
	return m
}()

// GetLanguageByName returns language information by name
func GetLanguageByName(name string) (*LanguageInfo, bool) {
	lang, exists := languageRegistry[name]
	if !exists {
		return nil, false
	}
	return &lang, true
}

// GetLanguageByExtension returns language information by file extension
func GetLanguageByExtension(ext string) (*LanguageInfo, bool) {
	langName, exists := extensionToLanguage[strings.ToLower(ext)]
	if !exists {
		return nil, false
	}
	return GetLanguageByName(langName)
}

// DetectLanguage returns the language id for a path or URI, or "" when unknown
func DetectLanguage(path string) string {
	if lang, ok := GetLanguageByExtension(filepath.Ext(path)); ok {
		return lang.Name
	}
	return ""
}

// GetSupportedExtensions returns a copy of the language -> extensions table
func GetSupportedExtensions() map[string][]string {
	extensions := make(map[string][]string, len(languageRegistry))
	for name, lang := range languageRegistry {
		extensions[name] = append([]string(nil), lang.Extensions...)
	}
	return extensions
}

// GetLanguageNames returns all known language ids, sorted
func GetLanguageNames() []string {
	names := make([]string, 0, len(languageRegistry))
	for name := range languageRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateLanguage returns an error when name is not a known language id
func ValidateLanguage(name string) error {
	if _, ok := languageRegistry[name]; !ok {
		return fmt.Errorf("unsupported language: %s", name)
	}
	return nil
}
