package helpers

import (
	"strings"
	"unicode/utf8"
)

// JavaScript strings are sequences of UTF-16 code units that may contain
// unpaired surrogates, so string literal values are stored as "[]uint16"
// instead of as Go strings.

func StringToUTF16(text string) []uint16 {
	decoded := make([]uint16, 0, len(text))
	for _, c := range text {
		if c <= 0xFFFF {
			decoded = append(decoded, uint16(c))
		} else {
			c -= 0x10000
			decoded = append(decoded, uint16(0xD800+((c>>10)&0x3FF)), uint16(0xDC00+(c&0x3FF)))
		}
	}
	return decoded
}

// Returns the code point starting at "text[i]" and the number of code units
// it occupies. Unpaired surrogates are returned as-is.
func decodeUTF16(text []uint16, i int) (rune, int) {
	r1 := rune(text[i])
	if r1 >= 0xD800 && r1 <= 0xDBFF && i+1 < len(text) {
		if r2 := rune(text[i+1]); r2 >= 0xDC00 && r2 <= 0xDFFF {
			return (r1-0xD800)<<10 | (r2 - 0xDC00) + 0x10000, 2
		}
	}
	return r1, 1
}

// Unpaired surrogates are encoded using WTF-8 so that the conversion is
// lossless. See https://simonsapin.github.io/wtf-8/ for more info.
func UTF16ToString(text []uint16) string {
	b := strings.Builder{}
	for i := 0; i < len(text); {
		c, width := decodeUTF16(text, i)
		i += width
		if c >= 0xD800 && c <= 0xDFFF {
			b.WriteByte(0xE0 | byte(c>>12))
			b.WriteByte(0x80 | byte(c>>6)&0x3F)
			b.WriteByte(0x80 | byte(c)&0x3F)
		} else {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// Does "UTF16ToString(text) == str" without a temporary allocation
func UTF16EqualsString(text []uint16, str string) bool {
	// Strings can't be equal if UTF-16 encoding is longer than UTF-8 encoding
	if len(text) > len(str) {
		return false
	}
	j := 0
	for i := 0; i < len(text); {
		c, width := decodeUTF16(text, i)
		i += width
		if j >= len(str) {
			return false
		}
		if c >= 0xD800 && c <= 0xDFFF {
			return false
		}
		d, size := utf8.DecodeRuneInString(str[j:])
		if c != d {
			return false
		}
		j += size
	}
	return j == len(str)
}

func UTF16EqualsUTF16(a []uint16, b []uint16) bool {
	if len(a) != len(b) {
		return false
	}
	for i, c := range a {
		if c != b[i] {
			return false
		}
	}
	return true
}
