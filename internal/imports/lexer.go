package imports

import "bytes"

// lexStyle selects the literal forms a C-family language has.
type lexStyle struct {
	// textBlocks enables """...""" literals (Java text blocks, Kotlin raw strings).
	textBlocks bool
	// templates enables `...` literals (JS/TS template strings).
	templates bool
	// regexps enables /.../ literals where an expression can start.
	regexps bool
}

var (
	javaStyle   = lexStyle{textBlocks: true}
	scriptStyle = lexStyle{templates: true, regexps: true}
)

// Keywords after which a '/' starts a regular expression, not a division.
var regexKeywords = map[string]bool{
	"return": true, "typeof": true, "instanceof": true, "in": true, "of": true,
	"new": true, "delete": true, "void": true, "throw": true, "case": true,
	"do": true, "else": true, "yield": true, "await": true,
}

// mask returns a copy of src in which every byte belonging to a comment or a
// string, char or regular expression literal is replaced by a space. Newlines are kept so offsets
// and line numbers stay aligned with the original.
func mask(src []byte, style lexStyle) []byte {
	out := make([]byte, len(src))
	copy(out, src)

	// last is the offset of the previous code byte; afterLiteral is set when
	// a literal came after it. Together they decide whether '/' is a division.
	last, afterLiteral := -1, false

	n := len(src)
	i := 0
	for i < n {
		c := src[i]
		switch {
		case c == '/' && i+1 < n && src[i+1] == '/':
			end := bytes.IndexByte(src[i:], '\n')
			if end < 0 {
				end = n
			} else {
				end += i
			}
			blank(out, i, end)
			i = end
		case c == '/' && i+1 < n && src[i+1] == '*':
			end := bytes.Index(src[i+2:], []byte("*/"))
			if end < 0 {
				end = n
			} else {
				end += i + 4
			}
			blank(out, i, end)
			i = end
		case style.textBlocks && bytes.HasPrefix(src[i:], []byte(`"""`)):
			end := closeQuote(src, i+3, `"""`, true)
			blank(out, i, end)
			i, afterLiteral = end, true
		case c == '"' || c == '\'':
			end := closeQuote(src, i+1, string(c), false)
			blank(out, i, end)
			i, afterLiteral = end, true
		case style.regexps && c == '/' && !afterLiteral && regexAllowed(out, last):
			end := closeRegex(src, i+1)
			if end < 0 {
				last, afterLiteral = i, false
				i++
				continue
			}
			blank(out, i, end)
			i, afterLiteral = end, true
		case style.templates && c == '`':
			end := closeQuote(src, i+1, "`", true)
			blank(out, i, end)
			i, afterLiteral = end, true
		default:
			if !isSpace(c) {
				last, afterLiteral = i, false
			}
			i++
		}
	}
	return out
}

// closeQuote returns the offset just past the closing delimiter that starts
// at or after from, honouring backslash escapes. Single-line literals end at
// an unescaped newline when unterminated.
func closeQuote(src []byte, from int, delim string, multiline bool) int {
	n := len(src)
	for i := from; i < n; i++ {
		switch src[i] {
		case '\\':
			i++
		case '\n':
			if !multiline {
				return i
			}
		default:
			if bytes.HasPrefix(src[i:], []byte(delim)) {
				return i + len(delim)
			}
		}
	}
	return n
}

// regexAllowed reports whether a '/' following the code byte at last begins
// an expression rather than a division.
func regexAllowed(masked []byte, last int) bool {
	if last < 0 {
		return true
	}
	c := masked[last]
	if isIdentByte(c) {
		k := last
		for k >= 0 && isIdentByte(masked[k]) {
			k--
		}
		return regexKeywords[string(masked[k+1:last+1])]
	}
	return c != ')' && c != ']' && c != '}'
}

// closeRegex returns the offset just past the closing '/' of a regular
// expression whose body starts at from, or -1 when the line ends first.
func closeRegex(src []byte, from int) int {
	inClass := false
	for i := from; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case '\n':
			return -1
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '/':
			if !inClass {
				return i + 1
			}
		}
	}
	return -1
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' || c >= 0x80 ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func blank(out []byte, from, to int) {
	for i := from; i < to && i < len(out); i++ {
		if out[i] != '\n' {
			out[i] = ' '
		}
	}
}
