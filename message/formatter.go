// Package message renders commit records into the fixed-layout text blocks
// delivered to the webhook. The layout is load-bearing: consumers align on
// the header/separator framing, so Format must stay byte-deterministic.
package message

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/goliatone/go-commit-relay/core"
)

const (
	headerTimestampLayout = "2006-01-02 15:04:05 -0700 (Mon, 02 Jan 2006)"
	messageIndent         = "    "
	codeFence             = "```"
	changedPathsLabel     = "Changed paths:"
	commitMessageLabel    = "Commit message:"
)

type Formatter struct{}

func NewFormatter() Formatter {
	return Formatter{}
}

// Format renders one commit. The block reads:
//
//	r<rev> | <author> | <timestamp> | <N> line(s)
//	-------- (dash run matching the header's rune length)
//	Changed paths:
//	<K> | <path> (one per entry, supplied order, no trailing blank line)
//	--------
//	Commit message:
//	    <message lines, 4-space indented>
//
// wrapped in a fenced code block so whitespace survives the chat renderer.
func (Formatter) Format(record core.CommitRecord) string {
	header := headerLine(record)
	separator := strings.Repeat("-", utf8.RuneCountInString(header))

	lines := make([]string, 0, 8+len(record.ChangedPaths))
	lines = append(lines, codeFence, header, separator, changedPathsLabel)
	for _, change := range record.ChangedPaths {
		lines = append(lines, fmt.Sprintf("%s | %s", change.Kind, change.Path))
	}
	lines = append(lines, separator, commitMessageLabel)
	lines = append(lines, messageLines(record.Message)...)
	lines = append(lines, codeFence)

	return strings.Join(lines, "\n")
}

func headerLine(record core.CommitRecord) string {
	count := LineCount(record.Message)
	unit := "lines"
	if count == 1 {
		unit = "line"
	}
	return fmt.Sprintf("r%d | %s | %s | %d %s",
		record.Revision,
		record.Author,
		record.Timestamp.Format(headerTimestampLayout),
		count,
		unit,
	)
}

// LineCount is the newline count plus one, with no trailing-newline special
// casing: "fix\n" counts as 2 lines even though only one renders.
func LineCount(message string) int {
	return strings.Count(message, "\n") + 1
}

func messageLines(message string) []string {
	parts := strings.Split(message, "\n")
	if len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	lines := make([]string, 0, len(parts))
	for _, part := range parts {
		lines = append(lines, messageIndent+part)
	}
	return lines
}

var _ core.CommitFormatter = Formatter{}
