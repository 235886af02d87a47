// Package folding answers textDocument/foldingRange by turning a document's structural
// outline into folding ranges.
package folding

import (
	"context"

	"go.lsp.dev/protocol"

	"lsp-folding/src/internal/common"
	ferrors "lsp-folding/src/internal/errors"
	"lsp-folding/src/server/documents"
	"lsp-folding/src/server/outline"
)

// FoldingRange is the wire form of one foldable region. Unlike protocol.FoldingRange the
// character fields are always emitted; Kind is omitted when unspecified.
type FoldingRange struct {
	StartLine      uint32                    `json:"startLine"`
	StartCharacter uint32                    `json:"startCharacter"`
	EndLine        uint32                    `json:"endLine"`
	EndCharacter   uint32                    `json:"endCharacter"`
	Kind           protocol.FoldingRangeKind `json:"kind,omitempty"`
}

// DocumentResolver maps a document URI to a document handle
type DocumentResolver interface {
	ResolveDocument(uri string) (*documents.Document, bool)
}

// OutlineService reports outline support per language and computes outlines
type OutlineService interface {
	Supports(language string) bool
	ComputeOutline(ctx context.Context, doc *documents.Document) (*outline.Outline, error)
}

// Builder produces folding ranges. It holds no mutable state and is safe for concurrent use.
type Builder struct {
	resolver DocumentResolver
	outlines OutlineService
}

// NewBuilder creates a builder over the given collaborators
func NewBuilder(resolver DocumentResolver, outlines OutlineService) *Builder {
	return &Builder{resolver: resolver, outlines: outlines}
}

// ConvertToFoldingKind maps an outline block type to a folding kind. Labels outside the
// table have no kind.
func ConvertToFoldingKind(blockType string) protocol.FoldingRangeKind {
	switch blockType {
	case outline.BlockTypeComment:
		return protocol.CommentFoldingRange
	case outline.BlockTypeImports:
		return protocol.ImportsFoldingRange
	case outline.BlockTypePreprocessorRegion:
		return protocol.RegionFoldingRange
	default:
		return ""
	}
}

// FoldingRanges returns the folding ranges for the document named in params. The result
// is never nil; a missing document, an unsupported language or an absent outline all
// yield an empty slice.
func (b *Builder) FoldingRanges(ctx context.Context, params *protocol.FoldingRangeParams) ([]FoldingRange, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	uri := common.NormalizeURI(string(params.TextDocument.URI))

	doc, ok := b.resolver.ResolveDocument(uri)
	if !ok {
		common.LSPLogger.Debug("foldingRange: document not found: %s", uri)
		return []FoldingRange{}, nil
	}
	if !b.outlines.Supports(doc.LanguageID) {
		common.LSPLogger.Debug("foldingRange: no outline provider for language %q (%s)", doc.LanguageID, uri)
		return []FoldingRange{}, nil
	}

	out, err := b.outlines.ComputeOutline(ctx, doc)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if out == nil {
		common.LSPLogger.Debug("foldingRange: no outline computed for %s", uri)
		return []FoldingRange{}, nil
	}

	snapshot, err := doc.Text(ctx)
	if err != nil {
		return nil, err
	}
	if out.Version != snapshot.Version {
		return nil, &ferrors.SnapshotMismatchError{
			URI:            uri,
			OutlineVersion: out.Version,
			TextVersion:    snapshot.Version,
		}
	}

	ranges := make([]FoldingRange, 0, len(out.Spans))
	for _, span := range out.Spans {
		if !span.Collapsible {
			continue
		}
		r, err := snapshot.SpanToRange(span.TextSpan)
		if err != nil {
			return nil, ferrors.WrapWithContext("translate span "+span.TextSpan.String(), err)
		}
		ranges = append(ranges, FoldingRange{
			StartLine:      r.Start.Line,
			StartCharacter: r.Start.Character,
			EndLine:        r.End.Line,
			EndCharacter:   r.End.Character,
			Kind:           ConvertToFoldingKind(span.Type),
		})
	}

	common.LSPLogger.Debug("foldingRange: %d of %d spans for %s", len(ranges), len(out.Spans), uri)
	return ranges, nil
}
