// Package settings 读取并校验保存在键值存储里的用户配置。
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/LJTian/WordWeave/internal/apperrors"
	"github.com/LJTian/WordWeave/internal/logger"
	"github.com/LJTian/WordWeave/internal/merge"
	"github.com/LJTian/WordWeave/internal/selector"
	"github.com/LJTian/WordWeave/internal/storage"
)

type Settings struct {
	Activation     bool
	Blacklist      selector.Pattern
	DoNotTranslate bool

	SourceLanguage string
	TargetLanguage string

	NgramMin               int
	NgramMax               int
	TranslationProbability int

	UserDefinedTranslations map[string]string
	UserDefinedOnly         bool
	UserBlacklist           selector.Pattern
	Learnt                  selector.Pattern
	// Difficulty 译词 -> 难度等级
	Difficulty map[string]string

	TranslatorService   string
	OneWordTranslation  bool
	TranslatedWordStyle string

	SavedPatterns [][]any

	CWAvailable bool
	CWMap       map[string]string
	Stats       *merge.Stats
}

// Seed 只写入缺失的键
func Seed(ctx context.Context, kv storage.KV) error {
	for k, v := range Defaults() {
		_, ok, err := kv.Get(ctx, k)
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		if err := kv.Set(ctx, k, v); err != nil {
			return err
		}
	}
	return nil
}

// Load 读取全部配置。用户词表、难度分组、方案列表与词规则无法解析时返回 MalformedOverride；
// 常用词缓存与统计损坏时记录告警后重置。
func Load(ctx context.Context, kv storage.KV) (*Settings, error) {
	defaults := Defaults()
	raw := make(map[string]string, len(defaults))
	for k, def := range defaults {
		v, ok, err := kv.Get(ctx, k)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", k, err)
		}
		if !ok {
			v = def
		}
		raw[k] = v
	}

	s := &Settings{
		Activation:          parseBool(raw[KeyActivation], true),
		DoNotTranslate:      parseBool(raw[KeyDoNotTranslate], false),
		SourceLanguage:      strings.TrimSpace(raw[KeySourceLanguage]),
		TargetLanguage:      strings.TrimSpace(raw[KeyTargetLanguage]),
		NgramMin:            parseInt(raw[KeyNgramMin], 1),
		NgramMax:            parseInt(raw[KeyNgramMax], 1),
		UserDefinedOnly:     parseBool(raw[KeyUserDefinedOnly], false),
		TranslatorService:   strings.TrimSpace(raw[KeyTranslatorService]),
		OneWordTranslation:  parseBool(raw[KeyOneWordTranslation], false),
		TranslatedWordStyle: raw[KeyTranslatedWordStyle],
		CWAvailable:         parseBool(raw[KeyCWAvailable], false),
	}
	s.TranslationProbability = parseInt(raw[KeyTranslationProbability], 15)

	var err error
	if s.UserDefinedTranslations, err = parseTable(raw[KeyUserDefinedTranslations]); err != nil {
		return nil, apperrors.MalformedOverride("settings", KeyUserDefinedTranslations, err)
	}
	if s.Difficulty, err = parseTable(raw[KeyDifficultyBuckets]); err != nil {
		return nil, apperrors.MalformedOverride("settings", KeyDifficultyBuckets, err)
	}
	if strings.TrimSpace(raw[KeySavedPatterns]) != "" {
		if err := json.Unmarshal([]byte(raw[KeySavedPatterns]), &s.SavedPatterns); err != nil {
			return nil, apperrors.MalformedOverride("settings", KeySavedPatterns, err)
		}
	}
	if s.Blacklist, err = selector.CompilePattern(raw[KeyBlacklist]); err != nil {
		return nil, apperrors.MalformedOverride("settings", KeyBlacklist, err)
	}
	if s.UserBlacklist, err = selector.CompileWordPattern(raw[KeyUserBlacklistedWords]); err != nil {
		return nil, apperrors.MalformedOverride("settings", KeyUserBlacklistedWords, err)
	}
	if s.Learnt, err = selector.CompileWordPattern(raw[KeyLearntWords]); err != nil {
		return nil, apperrors.MalformedOverride("settings", KeyLearntWords, err)
	}

	if s.CWMap, err = parseTable(raw[KeyCWMap]); err != nil {
		logger.Warn("common word cache is corrupted, ignoring", "error", err)
		s.CWMap, s.CWAvailable = map[string]string{}, false
	}
	if s.Stats, err = merge.ParseStats(raw[KeyStats]); err != nil {
		logger.Warn("stats document is corrupted, starting over", "error", err)
		s.Stats = merge.NewStats()
	}
	return s, nil
}

// Gate 判断引擎能否在该页面启动；不能启动时返回 ConfigurationGap
func (s *Settings) Gate(pageURL string) error {
	switch {
	case !s.Activation:
		return apperrors.ConfigurationGap("gate", "activation is off")
	case s.DoNotTranslate:
		return apperrors.ConfigurationGap("gate", "translation disabled for this page")
	case s.Blacklist.Match(pageURL):
		return apperrors.ConfigurationGap("gate", "page is blacklisted")
	case !s.UserDefinedOnly && ActivePattern(s.SavedPatterns) < 0:
		return apperrors.ConfigurationGap("gate", "no active pattern selected")
	case !s.UserDefinedOnly && (s.SourceLanguage == "" || s.TargetLanguage == ""):
		return apperrors.ConfigurationGap("gate", "source or target language is empty")
	}
	return nil
}

// ActivePattern 返回第一个启用方案的下标，没有时返回 -1
func ActivePattern(patterns [][]any) int {
	for i, p := range patterns {
		if len(p) > 3 && truthy(p[3]) {
			return i
		}
	}
	return -1
}

// BumpActivePattern 给启用方案累加已翻译词数，返回新的存储值；没有启用方案时 ok 为 false
func BumpActivePattern(raw string, n int) (string, bool, error) {
	var patterns [][]any
	if err := json.Unmarshal([]byte(raw), &patterns); err != nil {
		return raw, false, err
	}
	i := ActivePattern(patterns)
	if i < 0 {
		return raw, false, nil
	}
	for len(patterns[i]) < 6 {
		patterns[i] = append(patterns[i], 0)
	}
	count, _ := patterns[i][5].(float64)
	patterns[i][5] = count + float64(n)
	bs, err := json.Marshal(patterns)
	if err != nil {
		return raw, false, err
	}
	return string(bs), true, nil
}

// SaveJSON 序列化后写入
func SaveJSON(ctx context.Context, kv storage.KV, key string, v any) error {
	bs, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return kv.Set(ctx, key, string(bs))
}

// GetString 缺失时返回默认值
func GetString(ctx context.Context, kv storage.KV, key string) (string, error) {
	v, ok, err := kv.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return Defaults()[key], nil
	}
	return v, nil
}

func parseTable(raw string) (map[string]string, error) {
	out := map[string]string{}
	if strings.TrimSpace(raw) == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func parseBool(raw string, def bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	return b
}

func parseInt(raw string, def int) int {
	n, err := strconv.Atoi(strings.Trim(strings.TrimSpace(raw), `"`))
	if err != nil {
		return def
	}
	return n
}

func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "true"
	}
	return false
}
