// Package tokenizer 把可见区域的文本切成 n-gram 并计数。
package tokenizer

import (
	"sort"
	"strings"
	"unicode"

	"github.com/LJTian/WordWeave/internal/script"
)

// TokenCount 每轮可见区域扫描的 n-gram 计数，不落库
type TokenCount map[string]int

func (c TokenCount) Add(token string, n int) {
	c[token] += n
}

// Keys 按字典序返回，便于后续得到稳定的洗牌输入
func (c TokenCount) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Units 按文字类型切分最小单元。
// 表意文字去掉数字、空白和括号后逐字切分；其余文字按空白、逗号、句点、括号和数字切分。
func Units(text string) ([]string, script.Script) {
	s := script.Classify(text)
	if s == script.Logographic {
		stripped := strings.Map(func(r rune) rune {
			if unicode.IsDigit(r) || unicode.IsSpace(r) || r == '(' || r == ')' {
				return -1
			}
			return r
		}, text)
		return script.Characters(stripped), s
	}

	return strings.FieldsFunc(text, isDelimitedSeparator), s
}

func isDelimitedSeparator(r rune) bool {
	switch r {
	case ',', '.', '(', ')':
		return true
	}
	return unicode.IsSpace(r) || unicode.IsDigit(r)
}

// Join 表意文字直接拼接，其余文字用空格连接
func Join(units []string, s script.Script) string {
	if s == script.Logographic {
		return strings.Join(units, "")
	}
	return strings.Join(units, " ")
}

// Count 对每段文本统计长度在 [min, max] 的完整窗口
func Count(texts []string, min, max int) TokenCount {
	counts := make(TokenCount)
	if min < 1 {
		min = 1
	}
	if max < min {
		return counts
	}
	for _, text := range texts {
		units, s := Units(text)
		for b := min; b <= max; b++ {
			for j := 0; j+b <= len(units); j++ {
				counts.Add(Join(units[j:j+b], s), 1)
			}
		}
	}
	return counts
}
