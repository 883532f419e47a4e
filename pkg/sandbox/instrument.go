package sandbox

import "strings"

// instrument inserts a call to the budget-check hook after every
// top-level statement boundary and at the start of every loop body.
// goja exposes no opcode-level hook, so this source-to-source pass is
// how mudforge counts "instructions executed" for spec §4.4's metering:
// a small hand-rolled scanner walks the source respecting string,
// template, and comment boundaries and injects `__tick();` calls without
// needing a full parse tree.
func instrument(source string) string {
	var out strings.Builder
	out.Grow(len(source) + len(source)/4)

	runes := []rune(source)
	n := len(runes)
	inLineComment := false
	inBlockComment := false
	var quote rune // 0, '\'', '"', or '`'
	parenDepth := 0

	for i := 0; i < n; i++ {
		c := runes[i]

		if inLineComment {
			out.WriteRune(c)
			if c == '\n' {
				inLineComment = false
			}
			continue
		}
		if inBlockComment {
			out.WriteRune(c)
			if c == '*' && i+1 < n && runes[i+1] == '/' {
				out.WriteRune(runes[i+1])
				i++
				inBlockComment = false
			}
			continue
		}
		if quote != 0 {
			out.WriteRune(c)
			if c == '\\' && i+1 < n {
				out.WriteRune(runes[i+1])
				i++
				continue
			}
			if c == quote {
				quote = 0
			}
			continue
		}

		switch c {
		case '/':
			if i+1 < n && runes[i+1] == '/' {
				inLineComment = true
				out.WriteRune(c)
				continue
			}
			if i+1 < n && runes[i+1] == '*' {
				inBlockComment = true
				out.WriteRune(c)
				continue
			}
			out.WriteRune(c)
		case '\'', '"', '`':
			quote = c
			out.WriteRune(c)
		case '(':
			parenDepth++
			out.WriteRune(c)
		case ')':
			if parenDepth > 0 {
				parenDepth--
			}
			out.WriteRune(c)
		case ';':
			out.WriteRune(c)
			if parenDepth == 0 {
				out.WriteString(tickCall)
			}
		case '{':
			out.WriteRune(c)
			if precedingKeywordIsLoop(out.String()) {
				out.WriteString(tickCall)
			}
		default:
			out.WriteRune(c)
		}
	}

	return tickDecl + out.String()
}

const tickFn = "__mudforge_tick"
const tickCall = tickFn + "();"
const tickDecl = ""

// precedingKeywordIsLoop is a cheap heuristic: look at the tail of what's
// been emitted so far (up to the '{' just written) for a loop keyword
// immediately before it, ignoring whitespace and a parenthesized
// condition. False positives (e.g. an object literal after "for of"
// destructuring edge cases) only cost an extra tick call, never a
// correctness bug, since ticks are idempotent budget checks.
func precedingKeywordIsLoop(emitted string) bool {
	trimmed := strings.TrimRight(emitted[:len(emitted)-1], " \t\n\r")
	for _, kw := range []string{"for", "while", "do"} {
		if strings.HasSuffix(stripTrailingParen(trimmed), kw) {
			return true
		}
	}
	return false
}

func stripTrailingParen(s string) string {
	depth := 0
	i := len(s)
	for i > 0 {
		c := s[i-1]
		if c == ')' {
			depth++
			i--
			continue
		}
		if depth > 0 {
			if c == '(' {
				depth--
			}
			i--
			continue
		}
		break
	}
	return strings.TrimRight(s[:i], " \t\n\r")
}
