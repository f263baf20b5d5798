// Package actions 处理译词卡片上的操作，每个操作只读写自己对应的存储键。
package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/LJTian/WordWeave/internal/apperrors"
	"github.com/LJTian/WordWeave/internal/logger"
	"github.com/LJTian/WordWeave/internal/selector"
	"github.com/LJTian/WordWeave/internal/settings"
	"github.com/LJTian/WordWeave/internal/storage"
)

const (
	Speak     = "speak"
	Learnt    = "learnt"
	Save      = "save"
	Blacklist = "blacklist"
	Info      = "info"
	Visual    = "visual"
)

// Speaker 朗读文本，可以为空
type Speaker interface {
	Speak(ctx context.Context, text, lang string) error
}

type Request struct {
	Action     string `json:"action" binding:"required"`
	Original   string `json:"original"`
	Translated string `json:"translated"`
}

// Result 对查询类操作返回需要打开的地址
type Result struct {
	Action string `json:"action"`
	Key    string `json:"key,omitempty"`
	URL    string `json:"url,omitempty"`
}

type Handler struct {
	KV         storage.KV
	TargetLang string
	Speaker    Speaker
}

func NewHandler(kv storage.KV, targetLang string, sp Speaker) *Handler {
	return &Handler{KV: kv, TargetLang: targetLang, Speaker: sp}
}

func (h *Handler) Do(ctx context.Context, req Request) (*Result, error) {
	original := strings.TrimSpace(req.Original)
	translated := strings.TrimSpace(req.Translated)

	switch req.Action {
	case Speak:
		if translated == "" {
			return nil, missing(req.Action, "translated")
		}
		if err := h.KV.Set(ctx, settings.KeyUtterance, translated); err != nil {
			return nil, err
		}
		if h.Speaker != nil {
			if err := h.Speaker.Speak(ctx, translated, h.TargetLang); err != nil {
				logger.Warn("speak failed", "word", translated, "error", err)
			}
		}
		return &Result{Action: req.Action, Key: settings.KeyUtterance}, nil

	case Learnt:
		// 已掌握过滤按译文匹配，所以记录译文
		if translated == "" {
			return nil, missing(req.Action, "translated")
		}
		if err := h.appendPattern(ctx, settings.KeyLearntWords, translated); err != nil {
			return nil, err
		}
		return &Result{Action: req.Action, Key: settings.KeyLearntWords}, nil

	case Save:
		if original == "" || translated == "" {
			return nil, missing(req.Action, "original/translated")
		}
		if err := h.saveTranslation(ctx, original, translated); err != nil {
			return nil, err
		}
		return &Result{Action: req.Action, Key: settings.KeySavedTranslations}, nil

	case Blacklist:
		if original == "" {
			return nil, missing(req.Action, "original")
		}
		if err := h.appendPattern(ctx, settings.KeyUserBlacklistedWords, original); err != nil {
			return nil, err
		}
		return &Result{Action: req.Action, Key: settings.KeyUserBlacklistedWords}, nil

	case Info:
		if translated == "" {
			return nil, missing(req.Action, "translated")
		}
		return &Result{Action: req.Action, URL: InfoURL(h.TargetLang, translated)}, nil

	case Visual:
		if translated == "" {
			return nil, missing(req.Action, "translated")
		}
		return &Result{Action: req.Action, URL: VisualURL(h.TargetLang, translated)}, nil
	}
	return nil, apperrors.New(apperrors.KindInvalidInput, "actions", fmt.Sprintf("unknown action %q", req.Action), nil)
}

// InfoURL 指向目标语言的维基词典词条
func InfoURL(tl, word string) string {
	return "http://" + tl + ".wiktionary.org/wiki/" + url.PathEscape(word)
}

// VisualURL 指向图片搜索
func VisualURL(tl, word string) string {
	return "http://www.google.com/search?lr=lang_" + url.QueryEscape(tl) + "&q=" + url.QueryEscape(word) + "&tbm=isch"
}

func (h *Handler) appendPattern(ctx context.Context, key, word string) error {
	cur, err := settings.GetString(ctx, h.KV, key)
	if err != nil {
		return err
	}
	next := selector.Append(cur, word)
	if next == cur {
		return nil
	}
	return h.KV.Set(ctx, key, next)
}

func (h *Handler) saveTranslation(ctx context.Context, original, translated string) error {
	cur, err := settings.GetString(ctx, h.KV, settings.KeySavedTranslations)
	if err != nil {
		return err
	}
	saved := map[string]string{}
	if strings.TrimSpace(cur) != "" {
		if err := json.Unmarshal([]byte(cur), &saved); err != nil {
			return apperrors.MalformedOverride("actions", settings.KeySavedTranslations, err)
		}
	}
	saved[original] = translated
	return settings.SaveJSON(ctx, h.KV, settings.KeySavedTranslations, saved)
}

func missing(action, field string) error {
	return apperrors.New(apperrors.KindInvalidInput, "actions", action+": "+field+" is required", nil)
}
