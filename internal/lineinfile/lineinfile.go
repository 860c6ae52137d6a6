// Package lineinfile implements the line-in-file engine (spec §4.7): a
// deterministic, idempotent text-file mutation. The matching/replace/
// insert/append algorithm is ported, behaviorally, from
// original_source/src/core/action/line_in_file.rs — the authoritative
// source for this component's exact edge-case handling (CRLF
// preservation, indentation, last-line-without-newline, blank files).
// Its differs materially from the teacher's own, much richer
// regex/multi-strategy lineinfile plugin, so that plugin is not reused
// here beyond its atomic-write helper (see file_ops.go).
package lineinfile

import (
	"fmt"
	"regexp"
	"strings"
)

var leadingWhitespacePattern = regexp.MustCompile(`^[ \t]*`)

// Apply mutates the file at path to ensure line is present, following
// spec §4.7's presence-check / pattern-replace / insert-after / append
// waterfall. It is idempotent: applying it twice yields the same
// contents as applying it once (spec §8).
func Apply(path, line string, pattern, after *string, indent bool) error {
	content, err := readFile(path)
	if err != nil {
		return fmt.Errorf("line_in_file: read %s: %w", path, err)
	}

	if presenceMatches(content, line, indent) {
		return nil
	}

	if pattern != nil {
		if result, ok := replacePattern(content, *pattern, line, indent); ok {
			return writeFileAtomic(path, result)
		}
	}

	if after != nil {
		if result, ok := insertAfter(content, *after, line); ok {
			return writeFileAtomic(path, result)
		}
	}

	return writeFileAtomic(path, appendLine(content, line))
}

func presenceMatches(content, line string, indent bool) bool {
	_, lines := splitLines(content)
	for _, fl := range lines {
		if equalLine(fl, line, indent) {
			return true
		}
	}
	return false
}

func equalLine(fileLine, target string, indent bool) bool {
	fl := strings.TrimRight(fileLine, " \t\r")
	t := strings.TrimRight(target, " \t\r")
	if indent {
		fl = strings.TrimLeft(fl, " \t")
		t = strings.TrimLeft(t, " \t")
	}
	return fl == t
}

// replacePattern finds the first line containing pattern as a substring
// (or, if pattern is empty, the first line of the file) and replaces its
// textual range with line (spec §4.7 step 2).
func replacePattern(content, pattern, line string, indent bool) (string, bool) {
	_, lines := splitLines(content)

	idx := -1
	if pattern == "" {
		if len(lines) > 0 {
			idx = 0
		}
	} else {
		for i, l := range lines {
			if strings.Contains(l, pattern) {
				idx = i
				break
			}
		}
	}
	if idx == -1 {
		return "", false
	}

	matched := lines[idx]
	trailingCR := strings.HasSuffix(matched, "\r")
	base := strings.TrimSuffix(matched, "\r")

	newText := line
	if indent {
		newText = leadingWhitespacePattern.FindString(base) + strings.TrimLeft(line, " \t")
	}
	if trailingCR {
		newText += "\r"
	}

	lines[idx] = newText
	return ensureTrailingNewline(strings.Join(lines, "\n")), true
}

// insertAfter finds the first line containing after as a substring and
// inserts line immediately following it; an empty after inserts at the
// very start of the file (spec §4.7 step 3).
func insertAfter(content, after, line string) (string, bool) {
	_, lines := splitLines(content)

	if after == "" {
		newLines := make([]string, 0, len(lines)+1)
		newLines = append(newLines, line)
		newLines = append(newLines, lines...)
		return ensureTrailingNewline(strings.Join(newLines, "\n")), true
	}

	idx := -1
	for i, l := range lines {
		if strings.Contains(l, after) {
			idx = i
			break
		}
	}
	if idx == -1 {
		return "", false
	}

	newLines := make([]string, 0, len(lines)+1)
	newLines = append(newLines, lines[:idx+1]...)
	newLines = append(newLines, line)
	newLines = append(newLines, lines[idx+1:]...)
	return ensureTrailingNewline(strings.Join(newLines, "\n")), true
}

// appendLine appends line as the file's last line. A blank or
// whitespace-only file collapses to exactly "line\n" (spec §4.7 step 4).
func appendLine(content, line string) string {
	if strings.TrimSpace(content) == "" {
		return line + "\n"
	}
	_, lines := splitLines(content)
	lines = append(lines, line)
	return ensureTrailingNewline(strings.Join(lines, "\n"))
}

// splitLines splits content on "\n", reporting whether it originally
// ended with a trailing newline and dropping the synthetic empty
// trailing element that Split would otherwise produce for such content.
func splitLines(content string) (hadTrailingNewline bool, lines []string) {
	hadTrailingNewline = strings.HasSuffix(content, "\n")
	lines = strings.Split(content, "\n")
	if hadTrailingNewline {
		lines = lines[:len(lines)-1]
	}
	return hadTrailingNewline, lines
}

func ensureTrailingNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
