package rewriter

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	ShowingTranslated = "translated"
	ShowingOriginal   = "original"
)

// Marker 是从标记上读回的原文/译文对
type Marker struct {
	Original   string `json:"original"`
	Translated string `json:"translated"`
	Showing    string `json:"showing"`
	Difficulty string `json:"difficulty,omitempty"`
}

func markerSelector() string {
	return "span." + MarkerClass
}

// Toggle 把每个标记的可见文本在译文与原文之间互换，只依赖标记上的属性。
// 返回处理的标记数。
func Toggle(root *goquery.Selection) int {
	n := 0
	root.Find(markerSelector()).Each(func(_ int, s *goquery.Selection) {
		original, _ := s.Attr("data-original")
		translated, _ := s.Attr("data-translated")
		if s.Text() == translated {
			s.SetText(original)
		} else {
			s.SetText(translated)
		}
		n++
	})
	return n
}

// Markers 按文档顺序返回所有标记
func Markers(root *goquery.Selection) []Marker {
	var out []Marker
	root.Find(markerSelector()).Each(func(_ int, s *goquery.Selection) {
		mk := Marker{
			Original:   s.AttrOr("data-original", ""),
			Translated: s.AttrOr("data-translated", ""),
			Showing:    ShowingOriginal,
		}
		if s.Text() == mk.Translated {
			mk.Showing = ShowingTranslated
		}
		for _, class := range strings.Fields(s.AttrOr("class", "")) {
			if level, ok := strings.CutPrefix(class, DifficultyClassPrefix); ok && level != "" {
				mk.Difficulty = level
			}
		}
		out = append(out, mk)
	})
	return out
}
