// Package script 判断文本片段属于无空格分词的表意文字（CJK）还是以空格分词的文字。
// 分词器、候选筛选和 DOM 改写都通过这里做同一判断，保证三者口径一致。
package script

import (
	"strings"

	"github.com/rivo/uniseg"
)

type Script int

const (
	Delimited Script = iota
	Logographic
)

func (s Script) String() string {
	if s == Logographic {
		return "logographic"
	}
	return "delimited"
}

// IsLogographicRune 覆盖 CJK 统一表意文字、扩展 A、笔画、CJK 符号与标点四个区块
func IsLogographicRune(r rune) bool {
	switch {
	case r >= 0x4e00 && r <= 0x9fff:
		return true
	case r >= 0x3400 && r <= 0x4dbf:
		return true
	case r >= 0x31c0 && r <= 0x31ef:
		return true
	case r >= 0x3000 && r <= 0x303f:
		return true
	}
	return false
}

// Classify 只要出现任一表意字符即视为 Logographic
func Classify(fragment string) Script {
	for _, r := range fragment {
		if IsLogographicRune(r) {
			return Logographic
		}
	}
	return Delimited
}

// Characters 按字素簇切分，组合字符不会被拆开
func Characters(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, len(s)/3+1)
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		out = append(out, g.Str())
	}
	return out
}

// Length 返回字素簇数量，统计翻译字符数时使用
func Length(s string) int {
	return uniseg.GraphemeClusterCount(s)
}

// 少数语言使用自己的句末符号
var sentenceDelimiters = map[string]string{
	"zh":    "。",
	"zh-cn": "。",
	"zh-tw": "。",
	"ja":    "。",
	"hi":    "।",
	"hy":    ":",
}

// SentenceDelimiter 返回改写时切分句子的分隔符。
// 片段本身是 Logographic 时一律用全角句号，其次按源语言查表，最后退回半角句号。
func SentenceDelimiter(s Script, lang string) string {
	if s == Logographic {
		return "。"
	}
	if d, ok := sentenceDelimiters[strings.ToLower(strings.TrimSpace(lang))]; ok {
		return d
	}
	return "."
}
