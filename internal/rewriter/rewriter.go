// Package rewriter 把文本节点中命中的词替换成可还原的译词标记。
package rewriter

import (
	"math/rand"
	"strings"
	"time"
	"unicode"

	"github.com/LJTian/WordWeave/internal/script"
	"github.com/LJTian/WordWeave/internal/selector"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

type Strategy int

const (
	// OneWord 每个句子最多替换一个词
	OneWord Strategy = iota
	// Deep 按比例替换一段文本中的多个词
	Deep
)

func (s Strategy) String() string {
	if s == Deep {
		return "deep"
	}
	return "one-word"
}

type Options struct {
	SourceLang  string
	TargetLang  string
	Strategy    Strategy
	Probability int
	// Difficulty 译词 -> 难度等级（e/n/h）
	Difficulty map[string]string
	Rand       selector.Rand
}

// Report 汇总一次改写
type Report struct {
	Nodes        int      `json:"nodes"`
	Replacements int      `json:"replacements"`
	Markers      []Marker `json:"markers,omitempty"`
}

// piece 是文本节点里的一段：word 为 true 时才参与匹配
type piece struct {
	text string
	word bool
}

// Rewrite 只处理区域的直接子文本节点；标签节点一律不动。
// 有替换的文本节点整体换成 span.wwTranslatedUnit。
func Rewrite(regions *goquery.Selection, m map[string]string, inv InverseMap, opts Options) Report {
	var rep Report
	if len(m) == 0 {
		return rep
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	regions.Each(func(_ int, region *goquery.Selection) {
		region.Contents().Each(func(_ int, c *goquery.Selection) {
			n := c.Get(0)
			if n == nil || n.Type != html.TextNode || strings.TrimSpace(n.Data) == "" {
				return
			}

			var (
				out      string
				replaced []Marker
			)
			if opts.Strategy == Deep {
				out, replaced = rewriteDeep(n.Data, m, inv, opts)
			} else {
				out, replaced = rewriteOneWord(n.Data, m, inv, opts)
			}
			if len(replaced) == 0 {
				return
			}

			c.ReplaceWithHtml(`<span class="` + UnitClass + `">` + out + `</span>`)
			rep.Nodes++
			rep.Replacements += len(replaced)
			rep.Markers = append(rep.Markers, replaced...)
		})
	})
	return rep
}

// rewriteOneWord 按句子切分，每句随机顺序找第一个命中的词
func rewriteOneWord(text string, m map[string]string, inv InverseMap, opts Options) (string, []Marker) {
	s := script.Classify(text)
	delim := script.SentenceDelimiter(s, opts.SourceLang)
	units := strings.Split(text, delim)

	var (
		markers []Marker
		parts   = make([]string, len(units))
	)
	for i, unit := range units {
		pieces := split(unit, s)
		order := wordIndexes(pieces)
		selector.Shuffle(order, opts.Rand)

		hit := -1
		var frag string
		for _, idx := range order {
			if f, ok := lookup(pieces[idx].text, m, inv); ok {
				hit, frag = idx, f
				break
			}
		}

		var b strings.Builder
		for j, p := range pieces {
			if j == hit {
				mk := writeReplacement(&b, p.text, m, frag)
				markers = append(markers, mk)
				continue
			}
			b.WriteString(html.EscapeString(p.text))
		}
		parts[i] = b.String()
	}
	return strings.Join(parts, html.EscapeString(delim)), markers
}

// rewriteDeep 目标替换数 = floor(词数 * 概率 / 100)，按原顺序替换直到达到目标
func rewriteDeep(text string, m map[string]string, inv InverseMap, opts Options) (string, []Marker) {
	pieces := split(text, script.Classify(text))
	target := len(wordIndexes(pieces)) * opts.Probability / 100

	var (
		b       strings.Builder
		markers []Marker
	)
	for _, p := range pieces {
		if p.word && len(markers) < target {
			if frag, ok := lookup(p.text, m, inv); ok {
				markers = append(markers, writeReplacement(&b, p.text, m, frag))
				continue
			}
		}
		b.WriteString(html.EscapeString(p.text))
	}
	return b.String(), markers
}

// split 表意文字逐字切分，其余文字按空白切分并保留空白原样
func split(text string, s script.Script) []piece {
	if s == script.Logographic {
		chars := script.Characters(text)
		out := make([]piece, len(chars))
		for i, c := range chars {
			out[i] = piece{text: c, word: !isBlank(c)}
		}
		return out
	}

	var (
		out   []piece
		start int
		space bool
	)
	for i, r := range text {
		isSpace := unicode.IsSpace(r)
		if i == 0 {
			space = isSpace
			continue
		}
		if isSpace != space {
			out = append(out, piece{text: text[start:i], word: !space})
			start, space = i, isSpace
		}
	}
	if start < len(text) {
		out = append(out, piece{text: text[start:], word: !space})
	}
	return out
}

func wordIndexes(pieces []piece) []int {
	idx := make([]int, 0, len(pieces))
	for i, p := range pieces {
		if p.word {
			idx = append(idx, i)
		}
	}
	return idx
}

// core 去掉词两端的标点，"fox," 与 "(fox" 都能命中 fox
func core(word string) (prefix, w, suffix string) {
	w = strings.TrimLeftFunc(word, unicode.IsPunct)
	prefix = word[:len(word)-len(w)]
	trimmed := strings.TrimRightFunc(w, unicode.IsPunct)
	suffix = w[len(trimmed):]
	return prefix, trimmed, suffix
}

func lookup(word string, m map[string]string, inv InverseMap) (string, bool) {
	_, w, _ := core(word)
	if w == "" {
		return "", false
	}
	if _, ok := m[w]; !ok {
		return "", false
	}
	frag, ok := inv[w]
	return frag, ok
}

func writeReplacement(b *strings.Builder, word string, m map[string]string, frag string) Marker {
	prefix, w, suffix := core(word)
	b.WriteString(html.EscapeString(prefix))
	b.WriteString(frag)
	b.WriteString(html.EscapeString(suffix))
	return Marker{Original: w, Translated: m[w], Showing: ShowingTranslated}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
