package extractor

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/ternarybob/rednote/pkg/models"
)

var (
	// stateAssignPattern matches `window.__INITIAL_STATE__ = <expr>;` in
	// inline script text. Non-greedy up to the first semicolon; payloads with
	// semicolons inside strings are recovered by the balanced scan instead.
	stateAssignPattern = regexp.MustCompile(`(?s)window\.__INITIAL_STATE__\s*=\s*(.*?);`)

	// stateBracketPattern matches the bracket-notation variant.
	stateBracketPattern = regexp.MustCompile(`(?s)window\[(?:"__INITIAL_STATE__"|'__INITIAL_STATE__')\]\s*=\s*(.*?);`)

	// jsonParsePattern matches a JSON.parse("...") wrapper around the state.
	// The two alternation branches keep the opening and closing quote style
	// paired; RE2 has no backreferences, so the body lands in group 1 for
	// double quotes and group 2 for single quotes.
	jsonParsePattern = regexp.MustCompile(`(?s)^JSON\.parse\(\s*(?:"(.*)"|'(.*)')\s*\)\s*$`)
)

// balancedScanMarker locates the state assignment for the whole-document scan.
const balancedScanMarker = "window.__INITIAL_STATE__="

// MatchStateExpression extracts the right-hand side of a state assignment
// from script text. Returns "" when no assignment is present.
func MatchStateExpression(script string) string {
	if m := stateAssignPattern.FindStringSubmatch(script); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := stateBracketPattern.FindStringSubmatch(script); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// DecodeStateExpression turns a captured JavaScript expression into a state
// map. Handles the JSON.parse("...") wrapper and the bare-object form; the
// site serializes missing values as `undefined`, which JSON does not know.
func DecodeStateExpression(expr string) (models.RawState, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("empty state expression")
	}

	if m := jsonParsePattern.FindStringSubmatch(expr); m != nil {
		// Exactly one alternation branch participates in the match, so the
		// other capture is always empty.
		expr = unescapeJSString(m[1] + m[2])
	}

	expr = strings.ReplaceAll(expr, "undefined", "null")

	var state models.RawState
	if err := json.Unmarshal([]byte(expr), &state); err != nil {
		return nil, fmt.Errorf("failed to decode state expression: %w", err)
	}
	return state, nil
}

// unescapeJSString decodes the backslash escapes of a JavaScript string
// literal body, producing the string JSON.parse would have received.
// Unknown escapes pass the escaped character through unchanged.
func unescapeJSString(body string) string {
	var b strings.Builder
	b.Grow(len(body))

	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i+1 >= len(body) {
			b.WriteByte(c)
			continue
		}
		i++
		switch body[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case 'x':
			if i+2 < len(body) {
				if v, err := strconv.ParseUint(body[i+1:i+3], 16, 8); err == nil {
					b.WriteRune(rune(v))
					i += 2
					continue
				}
			}
			b.WriteByte(body[i])
		case 'u':
			if i+4 < len(body) {
				if v, err := strconv.ParseUint(body[i+1:i+5], 16, 32); err == nil {
					r := rune(v)
					i += 4
					// Combine UTF-16 surrogate pairs
					if utf16.IsSurrogate(r) && i+6 < len(body) && body[i+1] == '\\' && body[i+2] == 'u' {
						if v2, err2 := strconv.ParseUint(body[i+3:i+7], 16, 32); err2 == nil {
							if combined := utf16.DecodeRune(r, rune(v2)); combined != utf8.RuneError {
								r = combined
								i += 6
							}
						}
					}
					b.WriteRune(r)
					continue
				}
			}
			b.WriteByte(body[i])
		default:
			b.WriteByte(body[i])
		}
	}
	return b.String()
}

// ScanBalancedState finds the state assignment anywhere in the document and
// returns the balanced JSON object that follows it. The scanner is string
// aware: braces inside string literals do not count, and escaped quotes do
// not terminate strings.
func ScanBalancedState(html string) string {
	idx := strings.Index(html, balancedScanMarker)
	if idx < 0 {
		return ""
	}

	rest := html[idx+len(balancedScanMarker):]
	start := strings.IndexByte(rest, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(rest); i++ {
		c := rest[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return rest[start : i+1]
			}
		}
	}
	return ""
}
