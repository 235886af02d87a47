package documents

import (
	"context"

	"lsp-folding/src/server/text"
)

// Document is an immutable, versioned view of one text document. Every edit produces a
// new Document, so a handle obtained once always yields the same text.
type Document struct {
	URI        string
	LanguageID string
	snapshot   *text.Snapshot
}

// NewDocument creates a document handle for content at version
func NewDocument(uri, languageID string, version int32, content string) *Document {
	return &Document{
		URI:        uri,
		LanguageID: languageID,
		snapshot:   text.NewSnapshot(version, content),
	}
}

// Version returns the document version the handle was created with
func (d *Document) Version() int32 {
	return d.snapshot.Version
}

// Content returns the document text without a cancellation check
func (d *Document) Content() string {
	return d.snapshot.Content()
}

// Text returns the text snapshot bound to this handle
func (d *Document) Text(ctx context.Context) (*text.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.snapshot, nil
}
