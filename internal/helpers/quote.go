package helpers

const hexChars = "0123456789ABCDEF"

// Quotes a JavaScript string value using the given quote character. Printable
// ASCII and non-ASCII code points are written as-is. Control characters, line
// separators, and unpaired surrogates are escaped.
func QuoteForJS(text []uint16, quote byte) []byte {
	bytes := make([]byte, 0, len(text)+2)
	bytes = append(bytes, quote)

	for i := 0; i < len(text); {
		c, width := decodeUTF16(text, i)
		i += width

		switch c {
		case '\b':
			bytes = append(bytes, "\\b"...)
		case '\f':
			bytes = append(bytes, "\\f"...)
		case '\n':
			bytes = append(bytes, "\\n"...)
		case '\r':
			bytes = append(bytes, "\\r"...)
		case '\t':
			bytes = append(bytes, "\\t"...)
		case '\v':
			bytes = append(bytes, "\\v"...)
		case '\\':
			bytes = append(bytes, "\\\\"...)
		case 0:
			// "\0" followed by a digit would be an octal escape
			if i < len(text) && text[i] >= '0' && text[i] <= '9' {
				bytes = append(bytes, "\\x00"...)
			} else {
				bytes = append(bytes, "\\0"...)
			}

		case '"', '\'', '`':
			if byte(c) == quote {
				bytes = append(bytes, '\\')
			}
			bytes = append(bytes, byte(c))

		default:
			switch {
			case c < 0x20 || c == 0x7F:
				bytes = append(bytes, '\\', 'x', hexChars[c>>4], hexChars[c&15])
			case c == '\u2028' || c == '\u2029' || c == '\uFEFF' || (c >= 0xD800 && c <= 0xDFFF):
				bytes = append(bytes, '\\', 'u', hexChars[c>>12], hexChars[(c>>8)&15], hexChars[(c>>4)&15], hexChars[c&15])
			case c < 0x80:
				bytes = append(bytes, byte(c))
			default:
				var temp [4]byte
				n := encodeRune(temp[:], c)
				bytes = append(bytes, temp[:n]...)
			}
		}
	}

	return append(bytes, quote)
}

func encodeRune(p []byte, r rune) int {
	switch {
	case r <= 0x7FF:
		p[0] = 0xC0 | byte(r>>6)
		p[1] = 0x80 | byte(r)&0x3F
		return 2
	case r <= 0xFFFF:
		p[0] = 0xE0 | byte(r>>12)
		p[1] = 0x80 | byte(r>>6)&0x3F
		p[2] = 0x80 | byte(r)&0x3F
		return 3
	default:
		p[0] = 0xF0 | byte(r>>18)
		p[1] = 0x80 | byte(r>>12)&0x3F
		p[2] = 0x80 | byte(r>>6)&0x3F
		p[3] = 0x80 | byte(r)&0x3F
		return 4
	}
}
