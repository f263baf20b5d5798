package main

import (
	"context"
	"crypto/subtle"
	"net/http"
	"os"

	"github.com/LJTian/WordWeave/internal/api"
	"github.com/LJTian/WordWeave/internal/auth"
	"github.com/LJTian/WordWeave/internal/collector"
	"github.com/LJTian/WordWeave/internal/commonwords"
	"github.com/LJTian/WordWeave/internal/config"
	"github.com/LJTian/WordWeave/internal/logger"
	"github.com/LJTian/WordWeave/internal/monitor"
	"github.com/LJTian/WordWeave/internal/provider"
	"github.com/LJTian/WordWeave/internal/scheduler"
	"github.com/LJTian/WordWeave/internal/session"
	"github.com/LJTian/WordWeave/internal/settings"
	"github.com/LJTian/WordWeave/internal/storage"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	// 配置了 LOG_FILE 时额外落一份 JSONL
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			logger.Fatal("open log file failed", "path", cfg.LogFile, "error", err)
		}
		defer f.Close()
		logger.Init(logger.ParseLevel(cfg.LogLevel), f)
	} else {
		logger.Init(logger.ParseLevel(cfg.LogLevel), nil)
	}

	store, err := storage.NewStore(cfg.PostgresDSN, cfg.RedisAddr, cfg.RedisPrefix)
	if err != nil {
		logger.Fatal("init store failed", "error", err)
	}
	defer store.Close()

	// 首次启动写入默认设置，已有的键保持不变
	if err := settings.Seed(context.Background(), store.KV); err != nil {
		logger.Fatal("seed settings failed", "error", err)
	}

	keys := auth.Keys(true)
	if _, ok := keys[provider.NameGoogle]; !ok && cfg.GoogleAPIKey != "" {
		keys[provider.NameGoogle] = cfg.GoogleAPIKey
	}
	if _, ok := keys[provider.NameGemini]; !ok && cfg.GeminiAPIKey != "" {
		keys[provider.NameGemini] = cfg.GeminiAPIKey
	}

	cw := commonwords.Chain{commonwords.NewEmbedded()}
	if cfg.CommonWordsURL != "" {
		cw = append(commonwords.Chain{commonwords.NewHTTP(cfg.CommonWordsURL)}, cw...)
	}

	// 服务恢复后重跑挂起的区域；mgr 在下方赋值，回调只会在探测失败又成功后触发
	var mgr *session.Manager
	mon := monitor.New(monitor.NewHTTPProber(cfg.ProbeStrict),
		monitor.WithSurface(&monitor.Board{}),
		monitor.OnRecover(func() {
			go func() {
				n := mgr.Resume(context.Background())
				logger.Info("resumed pending regions after reconnect", "sessions", n)
			}()
		}),
	)
	defer mon.Stop()

	deps := session.Deps{
		KV:            store.KV,
		Store:         store,
		NewTranslator: session.DefaultTranslatorFactory(keys, cfg.GeminiModel),
		CommonWords:   cw,
		Monitor:       mon,
	}
	mopts := []session.ManagerOption{session.WithTTL(cfg.SessionTTL)}
	if cfg.RendererURL != "" {
		mopts = append(mopts, session.WithRenderer(collector.NewRenderClient(cfg.RendererURL)))
	}
	mgr = session.NewManager(deps, mopts...)

	s, err := scheduler.New(cfg.CronSweepSpec, cfg.CronCommonWordsSpec, mgr, store.KV)
	if err != nil {
		logger.Fatal("init scheduler failed", "error", err)
	}
	s.Start()
	defer s.Stop()

	// API
	r := gin.Default()
	// 若配置了全局访问密码，则启用 Basic Auth 保护（/health 仍然免认证）
	if cfg.BasicAuthUser != "" && cfg.BasicAuthPass != "" {
		r.Use(basicAuthMiddleware(cfg.BasicAuthUser, cfg.BasicAuthPass))
	}

	apiServer := api.NewServer(mgr, mon, store.KV, store)
	apiServer.RegisterRoutes(r)

	addr := ":" + cfg.AppPort
	logger.Info("starting api server", "addr", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatal("server exit", "error", err)
	}
}

// basicAuthMiddleware 为整个站点增加一个简单的 Basic Auth 访问密码。
// 仅当配置了 APP_BASIC_USER / APP_BASIC_PASS 时启用。
// /health 不做认证，便于健康检查。
func basicAuthMiddleware(user, pass string) gin.HandlerFunc {
	const realm = "WordWeave"
	uBytes := []byte(user)
	pBytes := []byte(pass)

	return func(c *gin.Context) {
		if c.Request.URL.Path == "/health" {
			c.Next()
			return
		}
		u, p, ok := c.Request.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(u), uBytes) != 1 ||
			subtle.ConstantTimeCompare([]byte(p), pBytes) != 1 {
			c.Header("WWW-Authenticate", `Basic realm="`+realm+`"`)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}
