// Package outline defines the structural outline consumed by the folding builder and the
// providers that produce it.
package outline

import (
	"context"

	"lsp-folding/src/server/documents"
	"lsp-folding/src/server/text"
)

// Block-type labels attached to spans by outline providers. Only Comment, Imports and
// PreprocessorRegion carry a folding kind; the rest fold as generic regions.
const (
	BlockTypeComment            = "Comment"
	BlockTypeImports            = "Imports"
	BlockTypePreprocessorRegion = "PreprocessorRegion"
	BlockTypeNonstructural      = "Nonstructural"
	BlockTypeNamespace          = "Namespace"
	BlockTypeType               = "Type"
	BlockTypeMember             = "Member"
	BlockTypeStatement          = "Statement"
	BlockTypeConditional        = "Conditional"
	BlockTypeLoop               = "Loop"
	BlockTypeExpression         = "Expression"
	BlockTypeCode               = "Code"
)

// Span is one labeled region of a document.
type Span struct {
	TextSpan    text.Span
	Type        string
	Collapsible bool
}

// Outline is the ordered span list computed for one document version. Version must be
// the version of the document the spans were computed against.
type Outline struct {
	Version int32
	Spans   []Span
}

// Provider computes the outline of a document. A nil outline with a nil error means the
// provider has nothing for this document.
type Provider interface {
	ComputeOutline(ctx context.Context, doc *documents.Document) (*Outline, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, doc *documents.Document) (*Outline, error)

func (f ProviderFunc) ComputeOutline(ctx context.Context, doc *documents.Document) (*Outline, error) {
	return f(ctx, doc)
}
