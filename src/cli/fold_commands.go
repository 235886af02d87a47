package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	lspproto "go.lsp.dev/protocol"

	"lsp-folding/src/internal/common"
	"lsp-folding/src/server/documents"
	"lsp-folding/src/server/folding"
	"lsp-folding/src/server/text"
)

// FoldOptions controls the fold command output
type FoldOptions struct {
	JSON     bool
	Language string
	Color    string
}

// RunFold prints the folding ranges of one file
func RunFold(ctx context.Context, out io.Writer, path string, opts FoldOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	data, err := common.SafeReadFile(abs)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	content := string(data)

	uri := common.FilePathToURI(abs)
	docs := documents.NewLSPDocumentManager(documents.Options{})
	doc := docs.Open(lspproto.TextDocumentItem{
		URI:        lspproto.DocumentURI(uri),
		LanguageID: lspproto.LanguageIdentifier(opts.Language),
		Text:       content,
	})

	reg := cfg.BuildOutlineRegistry()
	if !reg.Supports(doc.LanguageID) {
		lang := doc.LanguageID
		if lang == "" {
			lang = "unknown"
		}
		common.CLILogger.Warn("No outline program configured for language %s", lang)
	}

	params := &lspproto.FoldingRangeParams{}
	params.TextDocument.URI = lspproto.DocumentURI(uri)
	ranges, err := folding.NewBuilder(docs, reg).FoldingRanges(ctx, params)
	if err != nil {
		return common.WrapProcessingError("fold "+path, err)
	}

	if opts.JSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(ranges)
	}
	snapshot, err := doc.Text(ctx)
	if err != nil {
		return err
	}
	applyColorMode(opts.Color)
	printFoldingTable(out, path, snapshot, ranges)
	return nil
}

// foldStyles holds the color formatters for the fold table
type foldStyles struct {
	heading *color.Color
	kind    *color.Color
	pos     *color.Color
	preview *color.Color
}

func newFoldStyles() *foldStyles {
	return &foldStyles{
		heading: color.New(color.Bold),
		kind:    color.New(color.FgHiBlue),
		pos:     color.New(color.FgHiGreen),
		preview: color.New(color.FgYellow),
	}
}

func printFoldingTable(out io.Writer, path string, snapshot *text.Snapshot, ranges []folding.FoldingRange) {
	s := newFoldStyles()
	s.heading.Fprintf(out, "%s: %d folding ranges\n", path, len(ranges))
	if len(ranges) == 0 {
		return
	}

	s.heading.Fprintf(out, "%-8s %-12s %-12s %s\n", "KIND", "START", "END", "TEXT")
	for _, r := range ranges {
		kind := string(r.Kind)
		if kind == "" {
			kind = "-"
		}
		s.kind.Fprintf(out, "%-8s ", kind)
		s.pos.Fprintf(out, "%-12s %-12s ",
			fmt.Sprintf("%d:%d", r.StartLine+1, r.StartCharacter+1),
			fmt.Sprintf("%d:%d", r.EndLine+1, r.EndCharacter+1))
		s.preview.Fprintf(out, "%s\n", linePreview(snapshot, int(r.StartLine), 50))
	}
}

// linePreview returns the trimmed text of line, shortened to max runes
func linePreview(snapshot *text.Snapshot, line, max int) string {
	start, err := snapshot.LineStart(line)
	if err != nil {
		return ""
	}
	end := text.ByteOffset(snapshot.Len())
	if next, err := snapshot.LineStart(line + 1); err == nil {
		end = next
	}
	preview := strings.TrimSpace(snapshot.Content()[start:end])
	if runes := []rune(preview); len(runes) > max {
		preview = string(runes[:max]) + "..."
	}
	return preview
}

// applyColorMode follows the --color flag; auto keeps fatih/color's terminal detection
func applyColorMode(mode string) {
	switch mode {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	default:
		if os.Getenv("NO_COLOR") != "" {
			color.NoColor = true
		}
	}
}
