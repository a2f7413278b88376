package analyzer

import (
	"regexp"
	"strings"
)

// importRef is one literal import statement lifted from source text, before
// resolution. Relative references carry the leading-dot level; Module may be
// empty for a bare relative import ("from . import x").
type importRef struct {
	Module string
	Names  []string // names listed after "import" in a from-import
	Level  int      // leading dots of a relative import
	Line   int
}

var (
	importRe     = regexp.MustCompile(`^\s*import\s+(.+?)\s*$`)
	fromRe       = regexp.MustCompile(`^\s*from\s+(\.*)([\w.]*)\s+import\s+(.+?)\s*$`)
	fromPrefixRe = regexp.MustCompile(`^\s*from\s+`)
)

// scanImports extracts the static import surface of a source payload. Only
// literal statements are visible; anything assembled at run time is not, by
// design, and is covered by the declared-hint list instead.
func scanImports(src []byte) []importRef {
	var refs []importRef
	lines := strings.Split(string(src), "\n")

	for i := 0; i < len(lines); i++ {
		line := stripLineComment(lines[i])
		startLine := i + 1

		// A parenthesized from-import may span lines; fold it into one,
		// attributed to its opening line.
		if fromPrefixRe.MatchString(line) && strings.Contains(line, "(") && !strings.Contains(line, ")") {
			var folded strings.Builder
			folded.WriteString(line)
			for i+1 < len(lines) {
				i++
				next := stripLineComment(lines[i])
				folded.WriteString(" ")
				folded.WriteString(next)
				if strings.Contains(next, ")") {
					break
				}
			}
			line = folded.String()
		}

		if m := fromRe.FindStringSubmatch(line); m != nil {
			refs = append(refs, importRef{
				Module: m[2],
				Names:  splitImportedNames(m[3]),
				Level:  len(m[1]),
				Line:   startLine,
			})
			continue
		}
		if m := importRe.FindStringSubmatch(line); m != nil {
			for _, item := range strings.Split(m[1], ",") {
				module := strings.TrimSpace(item)
				// "import a.b as c" binds c, but the reference is a.b.
				if idx := strings.Index(module, " as "); idx != -1 {
					module = strings.TrimSpace(module[:idx])
				}
				if isIdentifierPath(module) {
					refs = append(refs, importRef{Module: module, Line: startLine})
				}
			}
		}
	}
	return refs
}

// splitImportedNames parses the name list of a from-import, dropping
// aliases, parentheses and the wildcard.
func splitImportedNames(list string) []string {
	list = strings.Trim(list, "() ")
	var names []string
	for _, item := range strings.Split(list, ",") {
		name := strings.TrimSpace(item)
		if idx := strings.Index(name, " as "); idx != -1 {
			name = strings.TrimSpace(name[:idx])
		}
		if name == "" || name == "*" || !isIdentifierPath(name) {
			continue
		}
		names = append(names, name)
	}
	return names
}

// stripLineComment removes a trailing comment, respecting quoted strings
// well enough for import lines.
func stripLineComment(line string) string {
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '#':
			return line[:i]
		}
	}
	return line
}

// isIdentifierPath reports whether s is a plausible dotted identifier. It
// filters out syntax fragments the line-based scan may catch.
func isIdentifierPath(s string) bool {
	if s == "" {
		return false
	}
	for _, part := range strings.Split(s, ".") {
		if part == "" {
			return false
		}
		for i, r := range part {
			if r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' {
				continue
			}
			if i > 0 && r >= '0' && r <= '9' {
				continue
			}
			return false
		}
	}
	return true
}
