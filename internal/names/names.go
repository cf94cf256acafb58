// Package names recovers display names for internal declaration
// identifiers by scanning a companion source file for recognized
// constructor calls whose first argument is a string literal.
package names

import (
	"fmt"
	"regexp"
	"strings"
)

// Bindings scans companion source text for statements of the form
//
//	const SomeIdent = new Ctor('Display Name', ...)
//
// where Ctor is one of the configured constructor spellings, and returns
// identifier -> unescaped display name. Malformed or unmatched declarations
// are simply absent from the table; the scan never fails.
func Bindings(src []byte, constructors []string) map[string]string {
	table := make(map[string]string)
	if len(constructors) == 0 {
		return table
	}

	quoted := make([]string, len(constructors))
	for i, c := range constructors {
		quoted[i] = regexp.QuoteMeta(c)
	}
	pattern := fmt.Sprintf(
		`(?m)(?:const|let|var)\s+([A-Za-z_$][A-Za-z0-9_$]*)\s*=\s*new\s+(?:%s)\s*\(\s*(?:'((?:\\.|[^'\\])*)'|"((?:\\.|[^"\\])*)")`,
		strings.Join(quoted, "|"))
	re := regexp.MustCompile(pattern)

	for _, m := range re.FindAllSubmatch(src, -1) {
		ident := string(m[1])
		literal := string(m[2])
		if literal == "" && len(m[3]) > 0 {
			literal = string(m[3])
		}
		table[ident] = unescape(literal)
	}
	return table
}

func unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(s[i])
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
