package merge

import (
	"context"
	"errors"
	"log/slog"

	"github.com/LJTian/WordWeave/internal/apperrors"
	"github.com/LJTian/WordWeave/internal/logger"
	"github.com/LJTian/WordWeave/internal/selector"
)

// Translator 是翻译服务能力：要么全部成功，要么返回错误
type Translator interface {
	Name() string
	GetTranslations(ctx context.Context, tokens []string) (map[string]string, error)
}

type Request struct {
	Candidates      []string
	Cache           map[string]string
	UserDefined     map[string]string
	UserDefinedOnly bool
	Learnt          selector.Pattern
}

type Result struct {
	Map    TranslationMap
	Delta  Delta
	Hits   int
	Misses int
}

type Engine struct {
	Translator Translator
	Log        *slog.Logger
}

func NewEngine(t Translator) *Engine {
	return &Engine{Translator: t, Log: logger.L().With("component", "merge")}
}

var errNoTranslator = errors.New("no translator configured")

// Run 执行一次合并。请求失败时直接返回 FetchFailure，不应用任何部分结果。
func (e *Engine) Run(ctx context.Context, req Request) (*Result, error) {
	if req.UserDefinedOnly {
		m := ApplyLearnt(Merge(Sources{UserDefined: req.UserDefined}), req.Learnt)
		return &Result{Map: m, Delta: ComputeDelta(m, "", true)}, nil
	}

	hits, misses := Partition(req.Candidates, req.Cache)

	var fetched map[string]string
	if len(misses) > 0 {
		if e.Translator == nil {
			return nil, apperrors.FetchFailure("merge", errNoTranslator)
		}
		var err error
		fetched, err = e.Translator.GetTranslations(ctx, misses)
		if err != nil {
			e.log().Warn("fetch translations failed", "provider", e.Translator.Name(), "misses", len(misses), "error", err)
			if _, ok := apperrors.KindOf(err); ok {
				return nil, err
			}
			return nil, apperrors.FetchFailure("merge", err)
		}
	}

	m := ApplyLearnt(Merge(Sources{Cached: hits, Fetched: fetched, UserDefined: req.UserDefined}), req.Learnt)

	provider := ""
	if e.Translator != nil {
		provider = e.Translator.Name()
	}
	e.log().Debug("merge done", "hits", len(hits), "misses", len(misses), "translated", len(m))
	return &Result{
		Map:    m,
		Delta:  ComputeDelta(m, provider, false),
		Hits:   len(hits),
		Misses: len(misses),
	}, nil
}

func (e *Engine) log() *slog.Logger {
	if e.Log != nil {
		return e.Log
	}
	return logger.L()
}
