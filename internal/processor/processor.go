package processor

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"

	"github.com/LJTian/WordWeave/internal/collector"
	"github.com/LJTian/WordWeave/internal/logger"
	"github.com/PuerkitoBio/goquery"
)

const titleMaxRunes = 200

// Page 是进入翻译会话前的统一结构
type Page struct {
	ID        string
	URL       string
	Title     string
	HTML      string
	Visible   []int
	FetchedAt time.Time
}

// SimpleProcessor 做基础清洗与 ID 生成
type SimpleProcessor struct{}

func NewSimpleProcessor() *SimpleProcessor {
	return &SimpleProcessor{}
}

func (p *SimpleProcessor) Process(pages []collector.Page) []Page {
	out := make([]Page, 0, len(pages))
	seen := make(map[string]struct{})

	for _, it := range pages {
		id := hashURL(it.URL)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		doc := strings.ToValidUTF8(it.HTML, "\uFFFD")
		out = append(out, Page{
			ID:        id,
			URL:       it.URL,
			Title:     truncateRunes(extractTitle(doc), titleMaxRunes),
			HTML:      doc,
			Visible:   it.Visible,
			FetchedAt: it.FetchedAt,
		})
	}

	return out
}

// HashURL 供会话 ID 等场景复用
func HashURL(url string) string {
	return hashURL(url)
}

func hashURL(url string) string {
	h := sha1.New()
	h.Write([]byte(url))
	return hex.EncodeToString(h.Sum(nil))
}

func extractTitle(doc string) string {
	d, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		logger.Debug("parse title failed", "error", err)
		return ""
	}
	return strings.Join(strings.Fields(d.Find("title").First().Text()), " ")
}

func truncateRunes(s string, limit int) string {
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit]) + "…"
}
