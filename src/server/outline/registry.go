package outline

import (
	"context"
	"sort"
	"sync"

	"lsp-folding/src/internal/common"
	"lsp-folding/src/server/documents"
)

// Registry maps language ids to outline providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register installs p for language, replacing any previous provider
func (r *Registry) Register(language string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[language] = p
	common.LSPLogger.Debug("Registered outline provider for %s", language)
}

// Lookup returns the provider for language
func (r *Registry) Lookup(language string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[language]
	return p, ok
}

// Supports reports whether an outline can be computed for the language
func (r *Registry) Supports(language string) bool {
	_, ok := r.Lookup(language)
	return ok
}

// Languages returns the registered language ids, sorted
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	langs := make([]string, 0, len(r.providers))
	for lang := range r.providers {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// ComputeOutline runs the provider registered for the document's language. Unsupported
// languages yield a nil outline and no error.
func (r *Registry) ComputeOutline(ctx context.Context, doc *documents.Document) (*Outline, error) {
	p, ok := r.Lookup(doc.LanguageID)
	if !ok {
		return nil, nil
	}
	return p.ComputeOutline(ctx, doc)
}
