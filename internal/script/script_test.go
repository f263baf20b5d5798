package script

import (
	"reflect"
	"testing"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		in   string
		want Script
	}{
		{"", Delimited},
		{"the quick brown fox", Delimited},
		{"Привет мир", Delimited},
		{"你好", Logographic},
		{"hello 世界", Logographic},
		{"㐀", Logographic},        // 扩展 A
		{"㇀", Logographic},        // 笔画
		{"「quoted」", Logographic}, // CJK 标点
		{"こんにちは", Delimited},    // 平假名不在四个区块内
	}
	for _, tc := range cases {
		if got := Classify(tc.in); got != tc.want {
			t.Fatalf("Classify(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestCharactersKeepsCombiningMarks(t *testing.T) {
	got := Characters("中文e\u0301")
	want := []string{"中", "文", "e\u0301"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Characters = %q, want %q", got, want)
	}
	if Characters("") != nil {
		t.Fatalf("Characters(\"\") should be nil")
	}
	if Length("狐狸fox") != 5 {
		t.Fatalf("Length = %d, want 5", Length("狐狸fox"))
	}
}

func TestSentenceDelimiter(t *testing.T) {
	cases := []struct {
		s    Script
		lang string
		want string
	}{
		{Logographic, "en", "。"},
		{Delimited, "ja", "。"},
		{Delimited, "zh-CN", "。"},
		{Delimited, "hi", "।"},
		{Delimited, "hy", ":"},
		{Delimited, "fr", "."},
		{Delimited, "", "."},
	}
	for _, tc := range cases {
		if got := SentenceDelimiter(tc.s, tc.lang); got != tc.want {
			t.Fatalf("SentenceDelimiter(%v,%q) = %q, want %q", tc.s, tc.lang, got, tc.want)
		}
	}
}
