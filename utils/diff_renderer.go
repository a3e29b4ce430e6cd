package utils

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/pmezard/go-difflib/difflib"
)

// UnifiedDiff returns the unified diff between the original and proposed
// content of path. An empty string means the two are identical.
func UnifiedDiff(path, original, proposed string) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(original),
		B:        difflib.SplitLines(proposed),
		FromFile: "original/" + path,
		ToFile:   "proposed/" + path,
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("failed to diff %s: %w", path, err)
	}
	return text, nil
}

// RenderDiff writes diff highlighted with the chroma "diff" lexer.
func RenderDiff(w io.Writer, diff string, theme string) error {
	return quick.Highlight(w, diff, "diff", "terminal256", theme)
}

// RenderDiffWithContext renders diff line by line so a long diff can be
// interrupted.
func RenderDiffWithContext(ctx context.Context, w io.Writer, diff string, theme string) error {
	lines := strings.SplitAfter(diff, "\n")

	for i, line := range lines {
		if line == "" {
			continue
		}
		if i%20 == 0 {
			select {
			case <-ctx.Done():
				fmt.Fprintf(w, "\n\n🔄 Output interrupted...\n")
				return ctx.Err()
			default:
			}
		}

		var buf bytes.Buffer
		if err := RenderDiff(&buf, line, theme); err != nil {
			return err
		}
		if _, err := w.Write(buf.Bytes()); err != nil {
			return err
		}
	}
	return nil
}
