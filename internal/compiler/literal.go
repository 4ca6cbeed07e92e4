package compiler

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// unquoteJavaString strips the delimiters of a string literal or text block
// and processes Java escape sequences.
func unquoteJavaString(lit string) string {
	if strings.HasPrefix(lit, `"""`) && strings.HasSuffix(lit, `"""`) && len(lit) >= 6 {
		body := lit[3 : len(lit)-3]
		if i := strings.IndexByte(body, '\n'); i >= 0 {
			body = body[i+1:]
		}
		return unescapeJava(stripIndent(body))
	}
	if len(lit) >= 2 && lit[0] == '"' && lit[len(lit)-1] == '"' {
		return unescapeJava(lit[1 : len(lit)-1])
	}
	return lit
}

func unquoteJavaChar(lit string) string {
	if len(lit) >= 2 && lit[0] == '\'' && lit[len(lit)-1] == '\'' {
		return unescapeJava(lit[1 : len(lit)-1])
	}
	return lit
}

// stripIndent removes the common leading whitespace of a text block.
func stripIndent(s string) string {
	lines := strings.Split(s, "\n")
	minIndent := math.MaxInt
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		indent := len(l) - len(strings.TrimLeft(l, " \t"))
		minIndent = min(minIndent, indent)
	}
	if minIndent == math.MaxInt {
		minIndent = 0
	}
	for i, l := range lines {
		if len(l) >= minIndent {
			lines[i] = strings.TrimRight(l[minIndent:], " \t")
		} else {
			lines[i] = strings.TrimSpace(l)
		}
	}
	return strings.Join(lines, "\n")
}

func unescapeJava(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'b':
			b.WriteByte('\b')
		case 'r':
			b.WriteByte('\r')
		case 'f':
			b.WriteByte('\f')
		case 's':
			b.WriteByte(' ')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			v, _ := strconv.ParseUint(s[i:j], 8, 8)
			b.WriteRune(rune(v))
			i = j - 1
		case 'u':
			j := i
			for j < len(s) && s[j] == 'u' {
				j++
			}
			if j+4 <= len(s) {
				if v, err := strconv.ParseUint(s[j:j+4], 16, 32); err == nil {
					b.WriteRune(rune(v))
					i = j + 3
					continue
				}
			}
			b.WriteString(`\u`)
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// literalValue converts a literal's source text to its Go value: int32,
// int64, float32, float64, rune, bool, string, or nil for null.
func literalValue(kind, text string) (any, bool) {
	clean := strings.ReplaceAll(text, "_", "")
	switch kind {
	case litString:
		return text, true
	case litChar:
		r, _ := utf8.DecodeRuneInString(text)
		return r, true
	case litBool:
		return text == "true", true
	case litNull:
		return nil, true
	case litInt:
		v, ok := parseJavaInteger(clean, 32)
		return int32(v), ok
	case litLong:
		v, ok := parseJavaInteger(strings.TrimRight(clean, "lL"), 64)
		return v, ok
	case litFloat:
		f, err := strconv.ParseFloat(strings.TrimRight(clean, "fF"), 32)
		return float32(f), err == nil
	case litDouble:
		f, err := strconv.ParseFloat(strings.TrimRight(clean, "dD"), 64)
		return f, err == nil
	}
	return nil, false
}

// parseJavaInteger parses a decimal, hex, octal or binary integer literal.
// Hex, octal and binary literals may use the full unsigned range of the
// target width, as in Java.
func parseJavaInteger(s string, bits int) (int64, bool) {
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	base := 10
	switch {
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		base, s = 16, s[2:]
	case strings.HasPrefix(s, "0b") || strings.HasPrefix(s, "0B"):
		base, s = 2, s[2:]
	case len(s) > 1 && s[0] == '0':
		base, s = 8, s[1:]
	}
	u, err := strconv.ParseUint(s, base, bits)
	if err != nil {
		return 0, false
	}
	var v int64
	if bits == 32 {
		v = int64(int32(uint32(u)))
	} else {
		v = int64(u)
	}
	if neg {
		v = -v
	}
	return v, true
}
