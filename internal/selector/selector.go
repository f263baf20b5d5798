// Package selector 从 n-gram 计数中挑出本轮要翻译的候选词。
package selector

import (
	"regexp"
	"sort"
	"unicode"

	"github.com/LJTian/WordWeave/internal/script"
	"github.com/LJTian/WordWeave/internal/tokenizer"
)

// 包含这些字符的 n-gram 不参与翻译
var punctuation = regexp.MustCompile(`[.,/#!$%^&*;:{}=\\_` + "`" + `~()?@\d+\-]`)

// Rand 只需要 Intn，*rand.Rand 可直接使用，测试里注入固定种子
type Rand interface {
	Intn(n int) int
}

type Options struct {
	// Probability 为目标保留比例（百分比）
	Probability int
	Blacklist   Pattern
	Rand        Rand
}

// UserDefinedOnly 取计数与用户词表的交集，结果排序
func UserDefinedOnly(counts tokenizer.TokenCount, table map[string]string) []string {
	out := make([]string, 0, len(table))
	for token := range counts {
		if _, ok := table[token]; ok {
			out = append(out, token)
		}
	}
	sort.Strings(out)
	return out
}

// Valid 判断一个 n-gram 能否成为候选
func Valid(token string, blacklist Pattern) bool {
	if token == "" {
		return false
	}
	if script.Classify(token) == script.Logographic && script.Length(token) == 0 {
		return false
	}
	for _, r := range token {
		if unicode.IsDigit(r) {
			return false
		}
	}
	if blacklist.Match(token) {
		return false
	}
	return !punctuation.MatchString(token)
}

// TruncatedLength = floor(n*p/100) - 1，小于 0 时取 0
func TruncatedLength(n, probability int) int {
	size := n*probability/100 - 1
	if size < 0 {
		return 0
	}
	if size > n {
		return n
	}
	return size
}

// Probabilistic 过滤后洗牌，取随机排列的前缀
func Probabilistic(counts tokenizer.TokenCount, opts Options) []string {
	filtered := make([]string, 0, len(counts))
	for _, token := range counts.Keys() {
		if Valid(token, opts.Blacklist) {
			filtered = append(filtered, token)
		}
	}

	size := TruncatedLength(len(filtered), opts.Probability)
	if size == 0 {
		return nil
	}
	Shuffle(filtered, opts.Rand)
	return filtered[:size]
}

// Shuffle 是 Fisher-Yates 洗牌；r 为 nil 时保持原顺序
func Shuffle[T any](items []T, r Rand) {
	if r == nil {
		return
	}
	for i := len(items) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}
