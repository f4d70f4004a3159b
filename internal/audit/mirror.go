package audit

import (
	"fmt"
	"io"
	"strings"
	"unicode"
)

// FormatLine renders the human-readable mirror line for an entry:
//
//	<ACTION> - <ENTITY_TYPE> '<name>' (ID: <id>) - <details>
//
// Clauses whose value is absent are omitted.
func FormatLine(e *Entry) string {
	var b strings.Builder
	b.WriteString(string(e.Action))
	b.WriteString(" - ")
	b.WriteString(string(e.EntityType))
	if e.EntityName != "" {
		fmt.Fprintf(&b, " '%s'", e.EntityName)
	}
	if e.EntityID != nil {
		fmt.Fprintf(&b, " (ID: %d)", *e.EntityID)
	}
	if e.Details != "" {
		b.WriteString(" - ")
		b.WriteString(e.Details)
	}
	return b.String()
}

// Mirror appends the formatted entry to the daily log stream. Best-effort:
// a failed write never fails the mutation that produced the entry. If the
// stream rejects the line, it is retried once with an ASCII-safe rendering
// before being dropped.
func (l *Logger) Mirror(e *Entry) {
	if l.mirror == nil {
		return
	}

	line := fmt.Sprintf("%s - INFO - %s\n", e.Timestamp, FormatLine(e))
	if _, err := io.WriteString(l.mirror, line); err != nil {
		// Encoding-hostile streams get a plain ASCII rendering.
		if _, err := io.WriteString(l.mirror, asciiFallback(line)); err != nil {
			return
		}
	}
}

// asciiFallback substitutes characters an ASCII-only stream cannot encode.
// The change arrow used in diff details becomes "->"; anything else
// non-ASCII becomes '?'.
func asciiFallback(s string) string {
	s = strings.ReplaceAll(s, "→", "->")
	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return '?'
		}
		return r
	}, s)
}
