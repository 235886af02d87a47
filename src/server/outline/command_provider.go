package outline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"lsp-folding/src/internal/common"
	"lsp-folding/src/internal/constants"
	ferrors "lsp-folding/src/internal/errors"
	"lsp-folding/src/server/documents"
	"lsp-folding/src/server/process"
	"lsp-folding/src/server/text"
)

// DefaultCommandTimeout applies when a command provider is configured without a timeout
const DefaultCommandTimeout = constants.DefaultOutlineTimeout

// CommandProvider obtains outlines from an external program. The document text is written
// to the program's stdin and it prints
//
//	{"spans":[{"start":0,"end":10,"type":"Comment","collapsible":true}]}
//
// or null when it has no outline for the input. Offsets are UTF-8 byte offsets.
type CommandProvider struct {
	Language string
	Spec     process.CommandSpec
	Timeout  time.Duration
	Runner   process.ProcessManager
}

type wireOutline struct {
	Spans []wireSpan `json:"spans"`
}

type wireSpan struct {
	Start       int    `json:"start"`
	End         int    `json:"end"`
	Type        string `json:"type"`
	Collapsible bool   `json:"collapsible"`
}

// NewCommandProvider creates a provider running spec for language
func NewCommandProvider(language string, spec process.CommandSpec, timeout time.Duration) *CommandProvider {
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	return &CommandProvider{
		Language: language,
		Spec:     spec,
		Timeout:  timeout,
		Runner:   process.NewLSPProcessManager(),
	}
}

// ComputeOutline runs the program against doc and stamps the result with doc's version
func (p *CommandProvider) ComputeOutline(ctx context.Context, doc *documents.Document) (*Outline, error) {
	runCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	spec := p.Spec
	spec.Env = append(append([]string(nil), spec.Env...),
		"OUTLINE_LANGUAGE="+doc.LanguageID,
		"OUTLINE_URI="+doc.URI,
		"OUTLINE_VERSION="+strconv.Itoa(int(doc.Version())),
	)

	res, err := p.Runner.Run(runCtx, spec, []byte(doc.Content()))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		outlineErr := ferrors.NewOutlineError(p.Language, p.Spec.Command, err)
		if errors.Is(err, context.DeadlineExceeded) {
			outlineErr.Timeout = p.Timeout
		}
		var exitErr *process.ExitError
		if errors.As(err, &exitErr) {
			outlineErr.Stderr = common.SanitizeErrorForLogging(exitErr.Stderr)
		}
		return nil, outlineErr
	}

	outline, err := decodeOutline(res.Stdout, doc.Version())
	if err != nil {
		return nil, ferrors.NewOutlineError(p.Language, p.Spec.Command, err)
	}
	if outline != nil {
		common.LSPLogger.Debug("Outline for %s: %d spans in %v", doc.URI, len(outline.Spans), res.Duration)
	}
	return outline, nil
}

func decodeOutline(data []byte, version int32) (*Outline, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	var w wireOutline
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("invalid outline output: %w", err)
	}

	out := &Outline{Version: version, Spans: make([]Span, 0, len(w.Spans))}
	for i, s := range w.Spans {
		span := text.Span{Start: text.ByteOffset(s.Start), End: text.ByteOffset(s.End)}
		if err := span.Validate(); err != nil {
			return nil, fmt.Errorf("span %d: %w", i, err)
		}
		out.Spans = append(out.Spans, Span{TextSpan: span, Type: s.Type, Collapsible: s.Collapsible})
	}
	return out, nil
}
