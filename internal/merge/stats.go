package merge

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/LJTian/WordWeave/internal/script"
)

const (
	monthLayout = "2006-01"
	dayLayout   = "2006-01-02"
)

// Counter: [0] 词数，[1] 字符数，[2] 与 [1] 相同，沿用旧数据布局
type Counter [3]int

// Bucket 周期键 -> 翻译服务 -> 计数；同一时刻只保留当前周期
type Bucket map[string]map[string]Counter

// Stats 是持久化在存储键 stats 下的统计文档
type Stats struct {
	TotalWordsTranslated int `json:"totalWordsTranslated"`
	// [0] 按月，[1] 按天
	TranslatorWiseWordCount [2]Bucket `json:"translatorWiseWordCount"`
}

// Delta 是一轮合并产出的统计增量
type Delta struct {
	Words    int    `json:"words"`
	Chars    int    `json:"chars"`
	Provider string `json:"provider,omitempty"`
	// ProviderCounted 为 false 时不更新按服务的计数（仅用户词表模式）
	ProviderCounted bool `json:"providerCounted"`
}

func NewStats() *Stats {
	return &Stats{TranslatorWiseWordCount: [2]Bucket{{}, {}}}
}

// ParseStats 解析存储里的统计文档，空值返回全新统计
func ParseStats(raw string) (*Stats, error) {
	if strings.TrimSpace(raw) == "" {
		return NewStats(), nil
	}
	s := NewStats()
	if err := json.Unmarshal([]byte(raw), s); err != nil {
		return nil, err
	}
	for i := range s.TranslatorWiseWordCount {
		if s.TranslatorWiseWordCount[i] == nil {
			s.TranslatorWiseWordCount[i] = Bucket{}
		}
	}
	return s, nil
}

func (s *Stats) Marshal() (string, error) {
	bs, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(bs), nil
}

// ComputeDelta 词数为结果条数，字符数为译文字素簇长度之和
func ComputeDelta(m TranslationMap, provider string, userDefinedOnly bool) Delta {
	d := Delta{Words: len(m), Provider: provider, ProviderCounted: !userDefinedOnly && provider != ""}
	for _, e := range m {
		d.Chars += script.Length(e.Translated)
	}
	return d
}

// Apply 累加增量；月份或日期变化时该周期桶整体重置，providers 为重置时预置的服务列表
func (s *Stats) Apply(d Delta, providers []string, now time.Time) {
	s.TotalWordsTranslated += d.Words

	keys := [2]string{now.Format(monthLayout), now.Format(dayLayout)}
	for i, key := range keys {
		if _, ok := s.TranslatorWiseWordCount[i][key]; !ok {
			fresh := make(map[string]Counter, len(providers))
			for _, p := range providers {
				fresh[p] = Counter{}
			}
			s.TranslatorWiseWordCount[i] = Bucket{key: fresh}
		}
		if !d.ProviderCounted {
			continue
		}
		c := s.TranslatorWiseWordCount[i][key][d.Provider]
		c[0] += d.Words
		c[1] += d.Chars
		c[2] += d.Chars
		s.TranslatorWiseWordCount[i][key][d.Provider] = c
	}
}

// Current 返回当前周期某个服务的计数
func (s *Stats) Current(period int, provider string, now time.Time) Counter {
	layout := monthLayout
	if period == 1 {
		layout = dayLayout
	}
	return s.TranslatorWiseWordCount[period][now.Format(layout)][provider]
}
