package js_lexer

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/globalmod/globalmod/internal/helpers"
	"github.com/globalmod/globalmod/internal/logger"
	"github.com/globalmod/globalmod/internal/test"
)

func assertEqualStrings(t *testing.T, a string, b string) {
	t.Helper()
	pretty := func(text string) string {
		builder := strings.Builder{}
		builder.WriteRune('"')
		i := 0
		for i < len(text) {
			c, width := utf8.DecodeRuneInString(text[i:])
			builder.WriteString(fmt.Sprintf("\\u{%X}", c))
			i += width
		}
		builder.WriteRune('"')
		return builder.String()
	}
	if a != b {
		t.Fatalf("%s != %s", pretty(a), pretty(b))
	}
}

// Returns the lexer positioned on the first token along with any messages
func lexFirst(contents string) (Lexer, []logger.Msg) {
	log := logger.NewDeferLog()
	lexer := func() (lexer Lexer) {
		defer func() {
			r := recover()
			if _, isLexerPanic := r.(LexerPanic); r != nil && !isLexerPanic {
				panic(r)
			}
		}()
		return NewLexer(log, test.SourceForTest(contents))
	}()
	return lexer, log.Done()
}

func msgsToString(msgs []logger.Msg) string {
	text := ""
	for _, msg := range msgs {
		text += msg.String(logger.StderrOptions{}, logger.TerminalInfo{})
	}
	return text
}

func expectLexerError(t *testing.T, contents string, expected string) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		_, msgs := lexFirst(contents)
		test.AssertEqual(t, msgsToString(msgs), expected)
	})
}

func TestComment(t *testing.T) {
	expectLexerError(t, "/*", "<stdin>: error: Expected \"*/\" to terminate multi-line comment\n")
	expectLexerError(t, "/*/", "<stdin>: error: Expected \"*/\" to terminate multi-line comment\n")
	expectLexerError(t, "/**/", "")
	expectLexerError(t, "//", "")
}

func expectHashbang(t *testing.T, contents string, expected string) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		lexer, msgs := lexFirst(contents)
		test.AssertEqual(t, len(msgs), 0)
		test.AssertEqual(t, lexer.Token, THashbang)
		test.AssertEqual(t, lexer.Identifier, expected)
	})
}

func TestHashbang(t *testing.T) {
	expectHashbang(t, "#!/usr/bin/env node", "#!/usr/bin/env node")
	expectHashbang(t, "#!/usr/bin/env node\n", "#!/usr/bin/env node")
	expectHashbang(t, "#!/usr/bin/env node\nlet x", "#!/usr/bin/env node")
	expectLexerError(t, " #!/usr/bin/env node", "<stdin>: error: Syntax error \"!\"\n")
}

func expectIdentifier(t *testing.T, contents string, expected string) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		lexer, msgs := lexFirst(contents)
		test.AssertEqual(t, len(msgs), 0)
		test.AssertEqual(t, lexer.Token, TIdentifier)
		test.AssertEqual(t, lexer.Identifier, expected)
	})
}

func TestIdentifier(t *testing.T) {
	expectIdentifier(t, "_", "_")
	expectIdentifier(t, "$", "$")
	expectIdentifier(t, "test", "test")
	expectIdentifier(t, "t\\u0065st", "test")
	expectIdentifier(t, "t\\u{65}st", "test")
	expectIdentifier(t, "require", "require")

	expectLexerError(t, "t\\u.", "<stdin>: error: Syntax error \".\"\n")
	expectLexerError(t, "t\\u0.", "<stdin>: error: Syntax error \".\"\n")
	expectLexerError(t, "t\\u00.", "<stdin>: error: Syntax error \".\"\n")
	expectLexerError(t, "t\\u006.", "<stdin>: error: Syntax error \".\"\n")
	expectLexerError(t, "t\\u{.", "<stdin>: error: Syntax error \".\"\n")
	expectLexerError(t, "t\\u{0.", "<stdin>: error: Syntax error \".\"\n")

	expectIdentifier(t, "a\u200C", "a\u200C")
	expectIdentifier(t, "a\u200D", "a\u200D")
}

func TestEscapedKeyword(t *testing.T) {
	lexer, msgs := lexFirst("\\u0076ar")
	test.AssertEqual(t, len(msgs), 0)
	test.AssertEqual(t, lexer.Token, TEscapedKeyword)
	test.AssertEqual(t, lexer.Identifier, "var")
}

func TestPrivateIdentifier(t *testing.T) {
	lexer, msgs := lexFirst("#foo")
	test.AssertEqual(t, len(msgs), 0)
	test.AssertEqual(t, lexer.Token, TPrivateIdentifier)
	test.AssertEqual(t, lexer.Identifier, "#foo")

	expectLexerError(t, "#1", "<stdin>: error: Syntax error \"1\"\n")
}

func expectNumber(t *testing.T, contents string, expected float64) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		lexer, msgs := lexFirst(contents)
		test.AssertEqual(t, len(msgs), 0)
		test.AssertEqual(t, lexer.Token, TNumericLiteral)
		test.AssertEqual(t, lexer.Number, expected)
	})
}

func TestNumericLiteral(t *testing.T) {
	expectNumber(t, "0", 0.0)
	expectNumber(t, "000", 0.0)
	expectNumber(t, "010", 8.0)
	expectNumber(t, "123", 123.0)
	expectNumber(t, "987", 987.0)
	expectNumber(t, "0123", 83.0)
	expectNumber(t, "0987", 987.0)
	expectNumber(t, "01289", 1289.0)
	expectNumber(t, "999999999", 999999999.0)
	expectNumber(t, "9999999999", 9999999999.0)
	expectNumber(t, "123456789123456789", 123456789123456780.0)

	expectNumber(t, "0b00101", 5.0)
	expectNumber(t, "0B00101", 5.0)
	expectLexerError(t, "0b", "<stdin>: error: Unexpected end of file\n")
	expectLexerError(t, "0b012", "<stdin>: error: Syntax error \"2\"\n")
	expectLexerError(t, "0b01a", "<stdin>: error: Syntax error \"a\"\n")

	expectNumber(t, "0o12345", 5349.0)
	expectNumber(t, "0O12345", 5349.0)
	expectLexerError(t, "0o", "<stdin>: error: Unexpected end of file\n")
	expectLexerError(t, "0o018", "<stdin>: error: Syntax error \"8\"\n")

	expectNumber(t, "0x12345678", float64(0x12345678))
	expectNumber(t, "0xFEDCBA987", float64(0xFEDCBA987))
	expectNumber(t, "0xabcdef", float64(0xabcdef))
	expectLexerError(t, "0x", "<stdin>: error: Unexpected end of file\n")
	expectLexerError(t, "0xGFEDCBA", "<stdin>: error: Syntax error \"G\"\n")

	expectNumber(t, "1.5", 1.5)
	expectNumber(t, ".5", 0.5)
	expectNumber(t, "1.", 1.0)
	expectNumber(t, "1e3", 1000.0)
	expectNumber(t, "1.5e3", 1500.0)
	expectNumber(t, "1e-3", 0.001)
	expectNumber(t, "1E+3", 1000.0)
	expectLexerError(t, "1e", "<stdin>: error: Unexpected end of file\n")
	expectLexerError(t, "1a", "<stdin>: error: Syntax error \"a\"\n")

	expectNumber(t, "1_000", 1000.0)
	expectNumber(t, "0x1_0", 16.0)
	expectNumber(t, "1_0.2_5", 10.25)
	expectLexerError(t, "1__0", "<stdin>: error: Syntax error \"_\"\n")
	expectLexerError(t, "1_", "<stdin>: error: Syntax error \"_\"\n")
	expectLexerError(t, "0_1", "<stdin>: error: Syntax error \"_\"\n")
}

func expectBigInteger(t *testing.T, contents string, expected string) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		lexer, msgs := lexFirst(contents)
		test.AssertEqual(t, len(msgs), 0)
		test.AssertEqual(t, lexer.Token, TBigIntegerLiteral)
		test.AssertEqual(t, lexer.Identifier, expected)
	})
}

func TestBigIntegerLiteral(t *testing.T) {
	expectBigInteger(t, "0n", "0")
	expectBigInteger(t, "123n", "123")
	expectBigInteger(t, "9007199254740993n", "9007199254740993")
	expectBigInteger(t, "0x1fn", "0x1f")
	expectBigInteger(t, "1_000n", "1000")

	expectLexerError(t, "01n", "<stdin>: error: Syntax error \"n\"\n")
	expectLexerError(t, "1.5n", "<stdin>: error: Syntax error \"n\"\n")
}

func expectString(t *testing.T, contents string, expected string) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		lexer, msgs := lexFirst(contents)
		test.AssertEqual(t, len(msgs), 0)
		test.AssertEqual(t, lexer.Token, TStringLiteral)
		assertEqualStrings(t, helpers.UTF16ToString(lexer.StringLiteral), expected)
	})
}

func TestStringLiteral(t *testing.T) {
	expectString(t, "''", "")
	expectString(t, "'123'", "123")
	expectString(t, "\"./x\"", "./x")

	expectString(t, "'\"'", "\"")
	expectString(t, "'\\''", "'")
	expectString(t, "'\\\"'", "\"")
	expectString(t, "'\\\\'", "\\")
	expectString(t, "'\\a'", "a")
	expectString(t, "'\\b'", "\b")
	expectString(t, "'\\f'", "\f")
	expectString(t, "'\\n'", "\n")
	expectString(t, "'\\r'", "\r")
	expectString(t, "'\\t'", "\t")
	expectString(t, "'\\v'", "\v")

	expectString(t, "'\\0'", "\000")
	expectString(t, "'\\7'", "\007")
	expectString(t, "'\\101'", "A")
	expectString(t, "'\\400'", "\0400")

	expectString(t, "'\\x41'", "A")
	expectString(t, "'\\u0041'", "A")
	expectString(t, "'\\u{41}'", "A")
	expectString(t, "'\\u{1F600}'", "\U0001F600")
	expectString(t, "'\\uD83D\\uDE00'", "\U0001F600")
	expectString(t, "'\u00E9'", "\u00E9")

	expectString(t, "'a\\\nb'", "ab")
	expectString(t, "'a\\\r\nb'", "ab")

	expectLexerError(t, "'\\x4'", "<stdin>: error: Syntax error \"'\"\n")
	expectLexerError(t, "'\\u{}'", "<stdin>: error: Syntax error \"}\"\n")
	expectLexerError(t, "'\\u{110000}'", "<stdin>: error: Unicode escape sequence is out of range\n")
	expectLexerError(t, "'abc", "<stdin>: error: Unterminated string literal\n")
	expectLexerError(t, "'a\nb'", "<stdin>: error: Unterminated string literal\n")
}

func TestTemplateLiteral(t *testing.T) {
	lexer, msgs := lexFirst("`x\\u{41}`")
	test.AssertEqual(t, len(msgs), 0)
	test.AssertEqual(t, lexer.Token, TNoSubstitutionTemplateLiteral)
	test.AssertEqual(t, lexer.RawTemplateContents(), "x\\u{41}")

	lexer, msgs = lexFirst("`a${b}c${d}e`")
	test.AssertEqual(t, len(msgs), 0)
	test.AssertEqual(t, lexer.Token, TTemplateHead)
	test.AssertEqual(t, lexer.RawTemplateContents(), "a")
	lexer.Next()
	test.AssertEqual(t, lexer.Identifier, "b")
	lexer.Next()
	lexer.RescanCloseBraceAsTemplateToken()
	test.AssertEqual(t, lexer.Token, TTemplateMiddle)
	test.AssertEqual(t, lexer.RawTemplateContents(), "c")
	lexer.Next()
	test.AssertEqual(t, lexer.Identifier, "d")
	lexer.Next()
	lexer.RescanCloseBraceAsTemplateToken()
	test.AssertEqual(t, lexer.Token, TTemplateTail)
	test.AssertEqual(t, lexer.RawTemplateContents(), "e")
	lexer.Next()
	test.AssertEqual(t, lexer.Token, TEndOfFile)

	// Tagged templates may contain invalid escapes
	lexer, msgs = lexFirst("`\\u`")
	test.AssertEqual(t, len(msgs), 0)
	test.AssertEqual(t, lexer.RawTemplateContents(), "\\u")

	expectLexerError(t, "`abc", "<stdin>: error: Unterminated template literal\n")
}

func TestRegExp(t *testing.T) {
	lexer, msgs := lexFirst("/ab+c/gi.test(x)")
	test.AssertEqual(t, len(msgs), 0)
	test.AssertEqual(t, lexer.Token, TSlash)
	lexer.ScanRegExp()
	test.AssertEqual(t, lexer.Raw(), "/ab+c/gi")
	lexer.Next()
	test.AssertEqual(t, lexer.Token, TDot)

	lexer, _ = lexFirst("/[/]\\//")
	lexer.ScanRegExp()
	test.AssertEqual(t, lexer.Raw(), "/[/]\\//")
}

func TestNewlineBefore(t *testing.T) {
	lexer, _ := lexFirst("a\nb c /* \n */ d")
	test.AssertEqual(t, lexer.HasNewlineBefore, true)
	lexer.Next()
	test.AssertEqual(t, lexer.Identifier, "b")
	test.AssertEqual(t, lexer.HasNewlineBefore, true)
	lexer.Next()
	test.AssertEqual(t, lexer.Identifier, "c")
	test.AssertEqual(t, lexer.HasNewlineBefore, false)
	lexer.Next()
	test.AssertEqual(t, lexer.Identifier, "d")
	test.AssertEqual(t, lexer.HasNewlineBefore, true)
}

func TestRangeOfIdentifier(t *testing.T) {
	source := test.SourceForTest("let foo = #bar")
	test.AssertEqual(t, RangeOfIdentifier(source, logger.Loc{Start: 4}), logger.Range{Loc: logger.Loc{Start: 4}, Len: 3})
	test.AssertEqual(t, RangeOfIdentifier(source, logger.Loc{Start: 10}), logger.Range{Loc: logger.Loc{Start: 10}, Len: 4})
	test.AssertEqual(t, RangeOfIdentifier(source, logger.Loc{Start: 8}), logger.Range{Loc: logger.Loc{Start: 8}, Len: 0})
}

func TestTokens(t *testing.T) {
	expected := []struct {
		contents string
		token    T
	}{
		{"", TEndOfFile},
		{"\x00", TSyntaxError},

		// "#!/usr/bin/env node"
		{"#!", THashbang},

		// Punctuation
		{"(", TOpenParen},
		{")", TCloseParen},
		{"[", TOpenBracket},
		{"]", TCloseBracket},
		{"{", TOpenBrace},
		{"}", TCloseBrace},
		{"...", TDotDotDot},
		{"?.a", TQuestionDot},
		{"?.", TQuestion},
		{"?.5", TQuestion},
		{"??", TQuestionQuestion},
		{"=>", TEqualsGreaterThan},
		{"**", TAsteriskAsterisk},
		{">>>", TGreaterThanGreaterThanGreaterThan},
		{"!==", TExclamationEqualsEquals},

		// Assignments
		{"??=", TQuestionQuestionEquals},
		{"||=", TBarBarEquals},
		{"&&=", TAmpersandAmpersandEquals},
		{"**=", TAsteriskAsteriskEquals},
		{">>>=", TGreaterThanGreaterThanGreaterThanEquals},

		// Reserved words
		{"break", TBreak},
		{"class", TClass},
		{"const", TConst},
		{"default", TDefault},
		{"export", TExport},
		{"function", TFunction},
		{"import", TImport},
		{"typeof", TTypeof},
		{"with", TWith},

		// Contextual keywords are plain identifiers
		{"async", TIdentifier},
		{"from", TIdentifier},
		{"let", TIdentifier},
	}

	for _, it := range expected {
		contents := it.contents
		token := it.token
		t.Run(contents, func(t *testing.T) {
			lexer, _ := lexFirst(contents)
			test.AssertEqual(t, lexer.Token, token)
		})
	}
}
