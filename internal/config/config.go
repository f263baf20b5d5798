package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/LJTian/WordWeave/internal/logger"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string `env:"APP_PORT" envDefault:"9000"`

	PostgresDSN string `env:"POSTGRES_DSN"`
	RedisAddr   string `env:"REDIS_ADDR" envDefault:"localhost:6380"`
	RedisPrefix string `env:"REDIS_PREFIX" envDefault:"wordweave:"`

	// 会话清理与常用词缓存刷新的 cron 表达式
	CronSweepSpec       string        `env:"CRON_SWEEP_SPEC" envDefault:"*/5 * * * *"`
	CronCommonWordsSpec string        `env:"CRON_COMMON_WORDS_SPEC" envDefault:"0 4 * * *"`
	SessionTTL          time.Duration `env:"SESSION_TTL" envDefault:"30m"`

	BasicAuthUser string `env:"APP_BASIC_USER"`
	BasicAuthPass string `env:"APP_BASIC_PASS"`

	// RendererURL 指向 cmd/page-renderer，为空时只做静态抓取
	RendererURL    string `env:"RENDERER_URL"`
	CommonWordsURL string `env:"COMMON_WORDS_URL"`

	// ProbeStrict 为 true 时 5xx 也视为不可达
	ProbeStrict bool `env:"PROBE_STRICT" envDefault:"false"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`

	GoogleAPIKey string `env:"GOOGLE_TRANSLATE_API_KEY"`
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
}

// Load 先尝试读取 .env（不存在时忽略），再解析环境变量
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("load .env failed", "error", err)
	}

	cfg, err := Parse()
	if err != nil {
		logger.Warn("config parse failed, falling back to defaults where unset", "error", err)
	}

	logger.Info("config loaded", "port", cfg.AppPort, "sweep", cfg.CronSweepSpec, "session_ttl", cfg.SessionTTL)
	return cfg
}

// Parse 只读取当前进程环境变量，方便测试
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Now returns current time, 方便后续做可测试封装
func Now() time.Time {
	return time.Now()
}
