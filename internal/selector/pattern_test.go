package selector

import "testing"

func TestCompileTrivialPatterns(t *testing.T) {
	for _, src := range []string{"", "()", "  () "} {
		p, err := CompileWordPattern(src)
		if err != nil {
			t.Fatalf("CompileWordPattern(%q): %v", src, err)
		}
		if !p.Trivial() || p.Match("anything") || p.Match("") {
			t.Fatalf("trivial pattern %q should match nothing", src)
		}
	}
}

func TestCompilePatternSubstring(t *testing.T) {
	p, err := CompilePattern(`(example\.com|intranet)`)
	if err != nil {
		t.Fatalf("CompilePattern: %v", err)
	}
	if !p.Match("https://www.Example.com/page") {
		t.Fatalf("url should match")
	}
	if p.Match("https://golang.org") {
		t.Fatalf("url should not match")
	}
	if _, err := CompilePattern("(unclosed"); err == nil {
		t.Fatalf("expected compile error")
	}
}

func TestAppend(t *testing.T) {
	cases := []struct {
		src, word, want string
	}{
		{"", "fox", "(fox)"},
		{"()", "fox", "(fox)"},
		{"(fox)", "dog", "(fox|dog)"},
		{"(fox|dog)", "Dog", "(fox|dog)"},
		{"(fox)", "c++", `(fox|c\+\+)`},
		{"(fox)", "  ", "(fox)"},
	}
	for _, tc := range cases {
		if got := Append(tc.src, tc.word); got != tc.want {
			t.Fatalf("Append(%q,%q) = %q, want %q", tc.src, tc.word, got, tc.want)
		}
	}

	p, err := CompileWordPattern(Append("(fox)", "c++"))
	if err != nil || !p.Match("C++") {
		t.Fatalf("appended pattern should compile and match: %v", err)
	}
}
