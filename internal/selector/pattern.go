package selector

import (
	"regexp"
	"strings"
)

// Pattern 是存储里 "(a|b|c)" 形式规则的编译结果。
// 空串与 "()" 视为未配置，零值 Pattern 不匹配任何输入。
type Pattern struct {
	src string
	re  *regexp.Regexp
}

// IsTrivial 判断存储值是否只是空分组
func IsTrivial(src string) bool {
	s := strings.TrimSpace(src)
	return s == "" || s == "()"
}

// CompileWordPattern 用于屏蔽词与已掌握词：在词或 n-gram 中查找，大小写不敏感。
// 屏蔽 fox 时 "quick fox" 与 "foxes" 都会被过滤。
func CompileWordPattern(src string) (Pattern, error) {
	return CompilePattern(src)
}

// CompilePattern 用于网站黑名单：在整个输入中查找，大小写不敏感
func CompilePattern(src string) (Pattern, error) {
	if IsTrivial(src) {
		return Pattern{src: src}, nil
	}
	re, err := regexp.Compile(`(?i)` + src)
	if err != nil {
		return Pattern{}, err
	}
	return Pattern{src: src, re: re}, nil
}

func (p Pattern) Match(s string) bool {
	return p.re != nil && p.re.MatchString(s)
}

func (p Pattern) Trivial() bool {
	return p.re == nil
}

func (p Pattern) String() string {
	return p.src
}

// Append 在 "(a|b)" 规则末尾追加一个词并返回新的存储值；已存在时原样返回。
// 追加的词会被转义，避免 "c++" 之类的词破坏规则。
func Append(src, word string) string {
	word = strings.TrimSpace(word)
	if word == "" {
		return src
	}
	quoted := regexp.QuoteMeta(word)
	if IsTrivial(src) {
		return "(" + quoted + ")"
	}

	inner := strings.TrimSpace(src)
	if strings.HasPrefix(inner, "(") && strings.HasSuffix(inner, ")") {
		inner = inner[1 : len(inner)-1]
	}
	for _, alt := range strings.Split(inner, "|") {
		if strings.EqualFold(alt, quoted) || strings.EqualFold(alt, word) {
			return src
		}
	}
	return "(" + inner + "|" + quoted + ")"
}
