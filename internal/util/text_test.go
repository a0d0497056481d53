package util

import "testing"

func TestCleanTextCollapsesWhitespace(t *testing.T) {
	got := CleanText("  Senior Go\n\tEngineer  ")
	if got != "Senior Go Engineer" {
		t.Fatalf("unexpected cleaned text: %q", got)
	}
}

func TestTokenizeKeepsLanguageSymbols(t *testing.T) {
	toks := Tokenize("C++ / C# and Go, v1.21!")
	want := []string{"c++", "c#", "and", "go", "v1", "21"}
	if len(toks) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %v", len(want), len(toks), toks)
	}
	for i, tok := range toks {
		if tok != want[i] {
			t.Fatalf("token %d: expected %q, got %q", i, want[i], tok)
		}
	}
}

func TestTruncateForLog(t *testing.T) {
	if got := TruncateForLog("abcdef", 4); got != "abcd..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if got := TruncateForLog("abc", 4); got != "abc" {
		t.Fatalf("short string must pass through, got %q", got)
	}
	if got := TruncateForLog("abc", 0); got != "" {
		t.Fatalf("zero limit must return empty, got %q", got)
	}
}
