package main

import (
	"github.com/LJTian/WordWeave/internal/auth"
	"github.com/LJTian/WordWeave/internal/commonwords"
	"github.com/LJTian/WordWeave/internal/config"
	"github.com/LJTian/WordWeave/internal/provider"
)

// apiKeys 钥匙串优先，其次是配置里的环境变量
func apiKeys(cfg *config.Config, allowEnv bool) map[string]string {
	keys := auth.Keys(allowEnv)
	if !allowEnv {
		return keys
	}
	if _, ok := keys[provider.NameGoogle]; !ok && cfg.GoogleAPIKey != "" {
		keys[provider.NameGoogle] = cfg.GoogleAPIKey
	}
	if _, ok := keys[provider.NameGemini]; !ok && cfg.GeminiAPIKey != "" {
		keys[provider.NameGemini] = cfg.GeminiAPIKey
	}
	return keys
}

func commonWordSource(cfg *config.Config) commonwords.Source {
	chain := commonwords.Chain{commonwords.NewEmbedded()}
	if cfg.CommonWordsURL != "" {
		chain = append(commonwords.Chain{commonwords.NewHTTP(cfg.CommonWordsURL)}, chain...)
	}
	return chain
}
