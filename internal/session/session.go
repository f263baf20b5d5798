// Package session 持有一个页面的翻译会话：文档树、已处理区域与本页译词，
// 并按可见区域逐轮执行 分词 -> 选词 -> 合并 -> 改写 的流水线。
package session

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/LJTian/WordWeave/internal/apperrors"
	"github.com/LJTian/WordWeave/internal/commonwords"
	"github.com/LJTian/WordWeave/internal/logger"
	"github.com/LJTian/WordWeave/internal/merge"
	"github.com/LJTian/WordWeave/internal/monitor"
	"github.com/LJTian/WordWeave/internal/processor"
	"github.com/LJTian/WordWeave/internal/provider"
	"github.com/LJTian/WordWeave/internal/rewriter"
	"github.com/LJTian/WordWeave/internal/selector"
	"github.com/LJTian/WordWeave/internal/settings"
	"github.com/LJTian/WordWeave/internal/storage"
	"github.com/LJTian/WordWeave/internal/tokenizer"
	"github.com/PuerkitoBio/goquery"
)

// TranslatorFactory 按当前配置构造翻译服务
type TranslatorFactory func(ctx context.Context, st *settings.Settings) (provider.Translator, error)

// Deps 是会话依赖的外部能力；除 KV 外都可以为空
type Deps struct {
	KV            storage.KV
	Store         *storage.Store
	NewTranslator TranslatorFactory
	CommonWords   commonwords.Source
	Monitor       *monitor.Monitor
	Rand          selector.Rand
	Now           func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// PassResult 汇总一轮流水线
type PassResult struct {
	Regions    int               `json:"regions"`
	Tokens     int               `json:"tokens"`
	Candidates int               `json:"candidates"`
	Hits       int               `json:"cacheHits"`
	Misses     int               `json:"cacheMisses"`
	Translated map[string]string `json:"translated"`
	Report     rewriter.Report   `json:"report"`
}

type Session struct {
	ID    string
	URL   string
	Title string

	deps       Deps
	settings   *settings.Settings
	translator provider.Translator
	engine     *merge.Engine
	log        *slog.Logger

	mu      sync.Mutex
	doc     *goquery.Document
	regions *goquery.Selection
	ledger  *tokenizer.Ledger
	// retry 是上一轮请求失败时认领的区域，下一轮优先重跑
	retry []int
	// pairs 原文 -> 译文，本页累计，不依赖文档里的标记
	pairs map[string]string
	last  map[string]string
	words int

	cwAvailable bool
	cwMap       map[string]string

	debounce   *Debouncer
	lastActive time.Time
}

// New 初始化会话：读取配置、检查是否允许启动、解析文档。
// 配置损坏返回 MalformedOverride，不允许启动返回 ConfigurationGap。
func New(ctx context.Context, page processor.Page, id string, deps Deps) (*Session, error) {
	if deps.KV == nil {
		return nil, fmt.Errorf("session: kv is required")
	}
	st, err := settings.Load(ctx, deps.KV)
	if err != nil {
		return nil, err
	}
	if err := st.Gate(page.URL); err != nil {
		logger.Debug("engine not started", "url", page.URL, "reason", err)
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return nil, apperrors.New(apperrors.KindInvalidInput, "session", "parse html", err)
	}

	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	s := &Session{
		ID:          id,
		URL:         page.URL,
		Title:       page.Title,
		deps:        deps,
		settings:    st,
		log:         logger.L().With("session", id),
		doc:         doc,
		regions:     doc.Find(RegionSelector),
		ledger:      tokenizer.NewLedger(),
		pairs:       make(map[string]string),
		cwAvailable: st.CWAvailable,
		cwMap:       st.CWMap,
		debounce:    NewDebouncer(ScrollQuietPeriod),
		lastActive:  deps.now(),
	}

	if !st.UserDefinedOnly {
		factory := deps.NewTranslator
		if factory == nil {
			factory = DefaultTranslatorFactory(nil, "")
		}
		t, err := factory(ctx, st)
		if err != nil {
			if _, ok := apperrors.KindOf(err); ok {
				return nil, err
			}
			return nil, apperrors.ConfigurationGap("session", err.Error())
		}
		s.translator = t
	}
	s.engine = merge.NewEngine(s.translator)
	s.injectStyle()
	return s, nil
}

// DefaultTranslatorFactory 用 provider.New 构造服务，keys 为 服务名 -> API key
func DefaultTranslatorFactory(keys map[string]string, geminiModel string) TranslatorFactory {
	return func(ctx context.Context, st *settings.Settings) (provider.Translator, error) {
		return provider.New(ctx, st.TranslatorService, provider.Options{
			Source: st.SourceLanguage,
			Target: st.TargetLanguage,
			APIKey: keys[st.TranslatorService],
			Model:  geminiModel,
		})
	}
}

func (s *Session) Settings() *settings.Settings {
	return s.settings
}

// RegionCount 返回页面区域总数
func (s *Session) RegionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.regions.Length()
}

// Pass 对视口内尚未处理的区域执行一轮流水线。同一会话的多轮互斥执行。
// 请求失败时本轮不改写任何区域，认领的区域留给下一轮。
func (s *Session) Pass(ctx context.Context, vp Viewport) (*PassResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = s.deps.now()

	claimed := append(s.retry, s.ledger.Claim(vp.Indices(s.regions.Length()))...)
	s.retry = nil
	res := &PassResult{Regions: len(claimed), Translated: map[string]string{}}
	if len(claimed) == 0 {
		return res, nil
	}

	texts := make([]string, 0, len(claimed))
	for _, i := range claimed {
		texts = append(texts, s.regions.Eq(i).Text())
	}
	st := s.settings
	counts := tokenizer.Count(texts, st.NgramMin, st.NgramMax)
	res.Tokens = len(counts)

	var candidates []string
	if st.UserDefinedOnly {
		candidates = selector.UserDefinedOnly(counts, st.UserDefinedTranslations)
	} else {
		candidates = selector.Probabilistic(counts, selector.Options{
			Probability: st.TranslationProbability,
			Blacklist:   st.UserBlacklist,
			Rand:        s.deps.Rand,
		})
		s.warmCommonWords(ctx)
		if s.deps.Monitor != nil && s.translator != nil {
			go s.deps.Monitor.Start(ctx, s.translator.TestURL())
		}
	}
	res.Candidates = len(candidates)

	out, err := s.engine.Run(ctx, merge.Request{
		Candidates:      candidates,
		Cache:           s.cwMap,
		UserDefined:     st.UserDefinedTranslations,
		UserDefinedOnly: st.UserDefinedOnly,
		Learnt:          st.Learnt,
	})
	if err != nil {
		s.retry = claimed
		s.log.Warn("pass aborted", "regions", len(claimed), "error", err)
		return nil, err
	}
	res.Hits, res.Misses = out.Hits, out.Misses

	plain := out.Map.Plain()
	for k, v := range plain {
		s.pairs[k] = v
	}
	s.last = plain
	res.Translated = plain
	s.persist(ctx, out)

	opts := s.rewriteOptions()
	inv := rewriter.BuildInverse(plain, opts)
	for _, i := range claimed {
		rep := rewriter.Rewrite(s.regions.Eq(i), plain, inv, opts)
		res.Report.Nodes += rep.Nodes
		res.Report.Replacements += rep.Replacements
		res.Report.Markers = append(res.Report.Markers, rep.Markers...)
	}

	s.log.Info("pass done",
		"regions", len(claimed),
		"tokens", res.Tokens,
		"candidates", res.Candidates,
		"translated", len(plain),
		"replacements", res.Report.Replacements,
	)
	return res, nil
}

// Scroll 在静默期后执行一轮；连续滚动只处理最后一次的视口
func (s *Session) Scroll(vp Viewport) {
	s.mu.Lock()
	s.lastActive = s.deps.now()
	s.mu.Unlock()

	s.debounce.Trigger(func() {
		if _, err := s.Pass(context.Background(), vp); err != nil {
			s.log.Warn("scroll pass failed", "error", err)
		}
	})
}

// Pending 表示有失败待重跑的区域
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.retry) > 0
}

// Toggle 在原文与译文之间切换所有标记，返回切换的数量
func (s *Session) Toggle() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = s.deps.now()
	return rewriter.Toggle(s.doc.Selection)
}

// TranslatedWords 返回本页累计的 原文 -> 译文
func (s *Session) TranslatedWords() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.pairs))
	for k, v := range s.pairs {
		out[k] = v
	}
	return out
}

// LastTranslated 返回最近一轮的结果
func (s *Session) LastTranslated() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.last))
	for k, v := range s.last {
		out[k] = v
	}
	return out
}

func (s *Session) Markers() []rewriter.Marker {
	s.mu.Lock()
	defer s.mu.Unlock()
	return rewriter.Markers(s.doc.Selection)
}

func (s *Session) HTML() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Html()
}

// Close 取消待执行的滚动
func (s *Session) Close() {
	s.debounce.Stop()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) rewriteOptions() rewriter.Options {
	st := s.settings
	strategy := rewriter.Deep
	if st.OneWordTranslation {
		strategy = rewriter.OneWord
	}
	return rewriter.Options{
		SourceLang:  st.SourceLanguage,
		TargetLang:  st.TargetLanguage,
		Strategy:    strategy,
		Probability: st.TranslationProbability,
		Difficulty:  st.Difficulty,
		Rand:        s.deps.Rand,
	}
}

// warmCommonWords 首次运行时翻译常用词表并缓存；失败只记录，本轮退回在线翻译
func (s *Session) warmCommonWords(ctx context.Context) {
	if s.cwAvailable || s.deps.CommonWords == nil || s.translator == nil {
		return
	}
	words, err := s.deps.CommonWords.Fetch(ctx, s.settings.SourceLanguage)
	if err != nil {
		s.log.Warn("fetch common words failed", "locale", s.settings.SourceLanguage, "error", err)
		return
	}
	if len(words) == 0 {
		return
	}
	tmap, err := s.translator.GetTranslations(ctx, words)
	if err != nil {
		s.log.Warn("translate common words failed", "provider", s.translator.Name(), "error", err)
		return
	}
	s.cwMap, s.cwAvailable = tmap, true
	if err := settings.SaveJSON(ctx, s.deps.KV, settings.KeyCWMap, tmap); err != nil {
		s.log.Warn("save common word cache failed", "error", err)
		return
	}
	if err := s.deps.KV.Set(ctx, settings.KeyCWAvailable, "true"); err != nil {
		s.log.Warn("save common word flag failed", "error", err)
	}
	s.log.Info("common words cached", "locale", s.settings.SourceLanguage, "count", len(tmap))
}

// persist 写统计、测验数据、本页计数与方案计数；存储失败不影响改写
func (s *Session) persist(ctx context.Context, out *merge.Result) {
	now := s.deps.now()
	kv := s.deps.KV

	// 累加前重新读取，其它会话写入的计数不会被覆盖
	if raw, err := settings.GetString(ctx, kv, settings.KeyStats); err != nil {
		s.log.Warn("reload stats failed", "error", err)
	} else if fresh, err := merge.ParseStats(raw); err != nil {
		s.log.Warn("stored stats corrupt, resetting", "error", err)
		s.settings.Stats = merge.NewStats()
	} else {
		s.settings.Stats = fresh
	}
	s.settings.Stats.Apply(out.Delta, provider.Names(), now)
	if raw, err := s.settings.Stats.Marshal(); err == nil {
		s.warnOnErr("save stats", kv.Set(ctx, settings.KeyStats, raw))
	}
	s.warnOnErr("save quiz words", settings.SaveJSON(ctx, kv, settings.KeyTranslatedWordsForQuiz, out.Map.Plain()))

	s.words += out.Delta.Words
	s.warnOnErr("save page word count", kv.Set(ctx, settings.KeyNumberOfTranslatedWords, strconv.Itoa(s.words)))

	if raw, err := settings.GetString(ctx, kv, settings.KeySavedPatterns); err == nil {
		bumped, ok, err := settings.BumpActivePattern(raw, out.Delta.Words)
		if err != nil {
			s.log.Warn("bump saved pattern failed", "error", err)
		} else if ok {
			s.warnOnErr("save saved patterns", kv.Set(ctx, settings.KeySavedPatterns, bumped))
		}
	}

	if s.deps.Store == nil {
		return
	}
	if out.Delta.ProviderCounted {
		s.warnOnErr("record usage", s.deps.Store.RecordUsage(out.Delta.Provider, out.Delta.Words, out.Delta.Chars, now))
	}
	s.warnOnErr("save snapshot", s.deps.Store.SaveSnapshot(s.ID, s.URL, s.Title, s.settings.SourceLanguage, s.settings.TargetLanguage, s.pairs))
}

func (s *Session) warnOnErr(what string, err error) {
	if err != nil {
		s.log.Warn(what+" failed", "error", err)
	}
}

// injectStyle 把用户配置的标记样式写进 head
func (s *Session) injectStyle() {
	css := strings.TrimSpace(s.settings.TranslatedWordStyle)
	if css == "" || strings.ContainsAny(css, "<>") {
		return
	}
	rule := `<style data-ww="style">span.` + rewriter.MarkerClass + ` {` + css + `}</style>`
	if head := s.doc.Find("head"); head.Length() > 0 {
		head.AppendHtml(rule)
	}
}
