package logger_test

import (
	"testing"

	"github.com/globalmod/globalmod/internal/logger"
	"github.com/globalmod/globalmod/internal/test"
)

func TestMsgCounts(t *testing.T) {
	test.AssertEqual(t, logger.MsgCounts{}.String(), "no errors")
	test.AssertEqual(t, logger.MsgCounts{Errors: 1}.String(), "1 error")
	test.AssertEqual(t, logger.MsgCounts{Warnings: 2}.String(), "2 warnings")
	test.AssertEqual(t, logger.MsgCounts{Errors: 3, Warnings: 1}.String(), "1 warning and 3 errors")
}

func TestMsgString(t *testing.T) {
	source := logger.Source{PrettyPath: "<stdin>", Contents: "let x = require(y);\nfoo();"}
	r := logger.Range{Loc: logger.Loc{Start: 16}, Len: 1}
	msg := logger.Msg{Kind: logger.Error, Text: "oops", Location: logger.LocationOrNil(&source, r)}

	test.AssertEqualWithDiff(t, msg.String(logger.StderrOptions{IncludeSource: true}, logger.TerminalInfo{}),
		"<stdin>:1:16: error: oops\nlet x = require(y);\n                ^\n")
	test.AssertEqualWithDiff(t, msg.String(logger.StderrOptions{}, logger.TerminalInfo{}),
		"<stdin>: error: oops\n")

	r = logger.Range{Loc: logger.Loc{Start: 20}, Len: 3}
	msg = logger.Msg{Kind: logger.Warning, Text: "hmm", Location: logger.LocationOrNil(&source, r)}
	test.AssertEqualWithDiff(t, msg.String(logger.StderrOptions{IncludeSource: true}, logger.TerminalInfo{}),
		"<stdin>:2:0: warning: hmm\nfoo();\n~~~\n")

	msg = logger.Msg{Kind: logger.Error, Text: "no location"}
	test.AssertEqualWithDiff(t, msg.String(logger.StderrOptions{IncludeSource: true}, logger.TerminalInfo{}),
		"error: no location\n")
}

func TestDeferLogSortsMessages(t *testing.T) {
	source := logger.Source{PrettyPath: "<stdin>", Contents: "a\nb\nc"}
	log := logger.NewDeferLog()
	log.AddWarning(&source, logger.Loc{Start: 4}, "third")
	test.AssertEqual(t, log.HasErrors(), false)
	log.AddError(&source, logger.Loc{Start: 2}, "second")
	log.AddError(nil, logger.Loc{}, "first")
	test.AssertEqual(t, log.HasErrors(), true)

	msgs := log.Done()
	test.AssertEqual(t, len(msgs), 3)
	test.AssertEqual(t, msgs[0].Text, "first")
	test.AssertEqual(t, msgs[1].Text, "second")
	test.AssertEqual(t, msgs[1].Location.Line, 2)
	test.AssertEqual(t, msgs[2].Text, "third")
}

func TestRangeOfString(t *testing.T) {
	source := logger.Source{Contents: `require("a\"b") + 1`}
	r := source.RangeOfString(logger.Loc{Start: 8})
	test.AssertEqual(t, source.TextForRange(r), `"a\"b"`)
	test.AssertEqual(t, source.RangeOfString(logger.Loc{Start: 0}).Len, int32(0))
}
