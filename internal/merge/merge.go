// Package merge 合并常用词缓存、翻译服务结果与用户自定义词表，并产出统计增量。
package merge

import (
	"sort"
	"strings"

	"github.com/LJTian/WordWeave/internal/selector"
)

type Provenance int

const (
	Cached Provenance = iota
	Fetched
	UserDefined
)

func (p Provenance) String() string {
	switch p {
	case Cached:
		return "cached"
	case Fetched:
		return "fetched"
	case UserDefined:
		return "user_defined"
	}
	return "unknown"
}

type Entry struct {
	Source     string     `json:"source"`
	Translated string     `json:"translated"`
	Provenance Provenance `json:"provenance"`
}

// TranslationMap 以源词为键，每个源词只保留一条
type TranslationMap map[string]Entry

// Plain 返回 源词 -> 译词，用于改写、测验数据与 API 输出
func (m TranslationMap) Plain() map[string]string {
	out := make(map[string]string, len(m))
	for k, e := range m {
		out[k] = e.Translated
	}
	return out
}

func (m TranslationMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type Sources struct {
	Cached      map[string]string
	Fetched     map[string]string
	UserDefined map[string]string
}

// Partition 把候选词分成缓存命中与需要请求的两部分，misses 保持候选顺序
func Partition(candidates []string, cache map[string]string) (hits map[string]string, misses []string) {
	hits = make(map[string]string)
	for _, c := range candidates {
		if t, ok := cache[c]; ok {
			hits[c] = t
			continue
		}
		misses = append(misses, c)
	}
	return hits, misses
}

// 译文里出现这些字符说明不是单纯的词
const illegalChars = "0123456789{}.,;:"

// ValidPair 译文非空、与原文不同且不含数字或结构性标点
func ValidPair(source, translated string) bool {
	if translated == "" || translated == source {
		return false
	}
	return !strings.ContainsAny(translated, illegalChars)
}

// Merge 依次写入缓存、请求结果、用户词表，后写覆盖先写，最后统一做有效性过滤。
// 用户词表整体生效，不要求出现在候选里。
func Merge(src Sources) TranslationMap {
	m := make(TranslationMap, len(src.Cached)+len(src.Fetched)+len(src.UserDefined))
	put := func(table map[string]string, p Provenance) {
		for w, t := range table {
			m[w] = Entry{Source: w, Translated: t, Provenance: p}
		}
	}
	put(src.Cached, Cached)
	put(src.Fetched, Fetched)
	put(src.UserDefined, UserDefined)

	for w, e := range m {
		if !ValidPair(w, e.Translated) {
			delete(m, w)
		}
	}
	return m
}

// ApplyLearnt 去掉译文已被标记为掌握的词
func ApplyLearnt(m TranslationMap, learnt selector.Pattern) TranslationMap {
	if learnt.Trivial() {
		return m
	}
	for w, e := range m {
		if learnt.Match(e.Translated) {
			delete(m, w)
		}
	}
	return m
}
