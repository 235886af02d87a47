package documents

import (
	cmap "github.com/orcaman/concurrent-map/v2"
	"go.lsp.dev/protocol"

	"lsp-folding/src/internal/common"
	"lsp-folding/src/internal/registry"
)

// DocumentManager interface for document-related operations
type DocumentManager interface {
	DetectLanguage(uri string) string
	ExtractURI(params interface{}) (string, error)
	Open(item protocol.TextDocumentItem) *Document
	Change(params *protocol.DidChangeTextDocumentParams) (*Document, error)
	Close(uri string) bool
	Get(uri string) (*Document, bool)
	ResolveDocument(uri string) (*Document, bool)
}

var _ DocumentManager = (*LSPDocumentManager)(nil)

// Options controls how documents that are not open are resolved
type Options struct {
	// ReadFromDisk lets ResolveDocument load file:// URIs that were never opened
	ReadFromDisk bool
}

// LSPDocumentManager tracks the documents opened by the client. Keys are normalized URIs.
type LSPDocumentManager struct {
	docs cmap.ConcurrentMap[string, *Document]
	opts Options
}

// NewLSPDocumentManager creates a new document manager
func NewLSPDocumentManager(opts Options) *LSPDocumentManager {
	return &LSPDocumentManager{
		docs: cmap.New[*Document](),
		opts: opts,
	}
}

// DetectLanguage detects the language id from a file URI
func (dm *LSPDocumentManager) DetectLanguage(uri string) string {
	return registry.DetectLanguage(uri)
}

// ExtractURI extracts the document URI from request parameters
func (dm *LSPDocumentManager) ExtractURI(params interface{}) (string, error) {
	if params == nil {
		return "", common.ParameterValidationError("params", "no parameters provided")
	}

	var uri string
	switch p := params.(type) {
	case *protocol.FoldingRangeParams:
		uri = string(p.TextDocument.URI)
	case protocol.FoldingRangeParams:
		uri = string(p.TextDocument.URI)
	case *protocol.DidOpenTextDocumentParams:
		uri = string(p.TextDocument.URI)
	case *protocol.DidChangeTextDocumentParams:
		uri = string(p.TextDocument.URI)
	case *protocol.DidCloseTextDocumentParams:
		uri = string(p.TextDocument.URI)
	case map[string]interface{}:
		if textDoc, ok := p["textDocument"].(map[string]interface{}); ok {
			uri, _ = textDoc["uri"].(string)
		}
		if uri == "" {
			uri, _ = p["uri"].(string)
		}
	}

	if uri == "" {
		return "", common.ParameterValidationError("textDocument.uri", "no URI found in parameters")
	}
	return uri, nil
}

// Open stores the document sent with textDocument/didOpen, replacing any previous version
func (dm *LSPDocumentManager) Open(item protocol.TextDocumentItem) *Document {
	uri := string(item.URI)
	lang := string(item.LanguageID)
	if lang == "" {
		lang = dm.DetectLanguage(uri)
	}
	doc := NewDocument(uri, lang, item.Version, item.Text)
	dm.docs.Set(common.NormalizeURI(uri), doc)
	common.LSPLogger.Debug("Opened %s (language=%s, version=%d, %d bytes)", uri, lang, item.Version, len(item.Text))
	return doc
}

// Change applies a full-content change. Only the last content change matters under full
// sync. Stale versions are ignored and the current document is returned.
func (dm *LSPDocumentManager) Change(params *protocol.DidChangeTextDocumentParams) (*Document, error) {
	uri := string(params.TextDocument.URI)
	if len(params.ContentChanges) == 0 {
		doc, ok := dm.Get(uri)
		if !ok {
			return nil, common.ParameterValidationError("textDocument.uri", "document is not open: "+uri)
		}
		return doc, nil
	}

	newText := params.ContentChanges[len(params.ContentChanges)-1].Text
	version := params.TextDocument.Version

	var missing bool
	result := dm.docs.Upsert(common.NormalizeURI(uri), nil, func(exist bool, current *Document, _ *Document) *Document {
		if !exist {
			missing = true
			return nil
		}
		if version <= current.Version() {
			common.LSPLogger.Warn("Ignoring stale change for %s: version %d <= %d", uri, version, current.Version())
			return current
		}
		return NewDocument(current.URI, current.LanguageID, version, newText)
	})
	if missing {
		dm.docs.RemoveCb(common.NormalizeURI(uri), func(_ string, v *Document, exists bool) bool {
			return exists && v == nil
		})
		return nil, common.ParameterValidationError("textDocument.uri", "document is not open: "+uri)
	}
	return result, nil
}

// Close forgets a document; it reports whether the document was open
func (dm *LSPDocumentManager) Close(uri string) bool {
	_, ok := dm.docs.Pop(common.NormalizeURI(uri))
	return ok
}

// Get returns the open document for uri
func (dm *LSPDocumentManager) Get(uri string) (*Document, bool) {
	doc, ok := dm.docs.Get(common.NormalizeURI(uri))
	return doc, ok && doc != nil
}

// Len returns the number of open documents
func (dm *LSPDocumentManager) Len() int {
	return dm.docs.Count()
}

// URIs returns the URIs of all open documents
func (dm *LSPDocumentManager) URIs() []string {
	uris := make([]string, 0, dm.docs.Count())
	for item := range dm.docs.IterBuffered() {
		if item.Val != nil {
			uris = append(uris, item.Val.URI)
		}
	}
	return uris
}

// ResolveDocument maps a URI to a document handle. Open documents win; otherwise, when
// enabled, file URIs are read from disk as version 0 and not retained.
func (dm *LSPDocumentManager) ResolveDocument(uri string) (*Document, bool) {
	if doc, ok := dm.Get(uri); ok {
		return doc, true
	}
	if !dm.opts.ReadFromDisk || !common.IsFileURI(uri) {
		return nil, false
	}

	doc, err := dm.load(uri)
	if err != nil {
		common.LSPLogger.Debug("Cannot resolve %s: %v", uri, err)
		return nil, false
	}
	return doc, true
}

func (dm *LSPDocumentManager) load(uri string) (*Document, error) {
	path, err := common.URIToFilePath(uri)
	if err != nil {
		return nil, err
	}
	data, err := common.SafeReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewDocument(uri, dm.DetectLanguage(path), 0, string(data)), nil
}
