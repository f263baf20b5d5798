package rewriter

import (
	"strings"

	"golang.org/x/net/html"
)

const (
	// MarkerClass 标记每个被替换的词
	MarkerClass = "wwTranslatedWord"
	// UnitClass 包裹被改写的整段文本节点
	UnitClass = "wwTranslatedUnit"
	// DifficultyClassPrefix 后接难度等级，例如 wwDifficulty-h
	DifficultyClassPrefix = "wwDifficulty-"
)

// Actions 是悬浮卡片上可用的操作，写在 data-actions 上由前端转发给 /actions 接口
var Actions = []string{"speak", "learnt", "save", "blacklist", "info", "visual"}

// InverseMap 原词 -> 渲染片段。
// 按原词索引：le 与 la 都译成 the 时各自保留自己的 data-original。
type InverseMap map[string]string

// BuildInverse 为每个原词生成带原文、译文和语言信息的 span
func BuildInverse(m map[string]string, opts Options) InverseMap {
	inv := make(InverseMap, len(m))
	for source, translated := range m {
		inv[source] = Fragment(source, translated, opts)
	}
	return inv
}

// Fragment 生成单个标记；属性值统一转义
func Fragment(source, translated string, opts Options) string {
	class := MarkerClass
	if level, ok := opts.Difficulty[translated]; ok && level != "" {
		class += " " + DifficultyClassPrefix + level
	}

	var b strings.Builder
	b.WriteString(`<span class="`)
	b.WriteString(html.EscapeString(class))
	writeAttr(&b, "data-sl", opts.SourceLang)
	writeAttr(&b, "data-tl", opts.TargetLang)
	writeAttr(&b, "data-query", source)
	writeAttr(&b, "data-original", source)
	writeAttr(&b, "data-translated", translated)
	writeAttr(&b, "data-actions", strings.Join(Actions, " "))
	b.WriteString(`">`)
	b.WriteString(html.EscapeString(translated))
	b.WriteString(`</span>`)
	return b.String()
}

func writeAttr(b *strings.Builder, name, value string) {
	b.WriteString(`" `)
	b.WriteString(name)
	b.WriteString(`="`)
	b.WriteString(html.EscapeString(value))
}
