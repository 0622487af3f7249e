package test

import "testing"

func TestDiff(t *testing.T) {
	AssertEqual(t, Diff("a\nb\nc", "a\nb\nc", false), " a\n b\n c")
	AssertEqual(t, Diff("a\nb\nc", "a\nx\nc", false), " a\n-b\n+x\n c")
	AssertEqual(t, Diff("a", "", false), "-a\n+")
}
