package helpers_test

import (
	"testing"

	"github.com/globalmod/globalmod/internal/helpers"
	"github.com/globalmod/globalmod/internal/test"
)

func TestUTF16RoundTrip(t *testing.T) {
	for _, text := range []string{"", "abc", "\u00e9", "\U0001F355 pizza", "a\u2028b"} {
		t.Run(text, func(t *testing.T) {
			encoded := helpers.StringToUTF16(text)
			test.AssertEqual(t, helpers.UTF16ToString(encoded), text)
			test.AssertEqual(t, helpers.UTF16EqualsString(encoded, text), true)
			test.AssertEqual(t, helpers.UTF16EqualsString(encoded, text+"x"), false)
		})
	}
	test.AssertEqual(t, len(helpers.StringToUTF16("\U0001F355")), 2)
	test.AssertEqual(t, helpers.UTF16EqualsUTF16(helpers.StringToUTF16("ab"), helpers.StringToUTF16("ab")), true)
	test.AssertEqual(t, helpers.UTF16EqualsUTF16(helpers.StringToUTF16("ab"), helpers.StringToUTF16("ac")), false)
}

func TestQuoteForJS(t *testing.T) {
	quote := func(text string) string {
		return string(helpers.QuoteForJS(helpers.StringToUTF16(text), '"'))
	}
	test.AssertEqual(t, quote(""), `""`)
	test.AssertEqual(t, quote("./x"), `"./x"`)
	test.AssertEqual(t, quote(`a"b'c`), `"a\"b'c"`)
	test.AssertEqual(t, quote("a\nb\\"), `"a\nb\\"`)
	test.AssertEqual(t, quote("\x00"), `"\0"`)
	test.AssertEqual(t, quote("\x001"), `"\x001"`)
	test.AssertEqual(t, quote("\x1b"), `"\x1B"`)
	test.AssertEqual(t, quote("\u00e9\U0001F355"), "\"\u00e9\U0001F355\"")
	test.AssertEqual(t, quote("\u2028"), `"\u2028"`)
	test.AssertEqual(t, string(helpers.QuoteForJS([]uint16{0xD800}, '"')), `"\uD800"`)
	test.AssertEqual(t, string(helpers.QuoteForJS(helpers.StringToUTF16("it's"), '\'')), `'it\'s'`)
}
