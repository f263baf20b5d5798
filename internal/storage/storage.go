package storage

import (
	"context"
	"strings"
	"time"

	"github.com/LJTian/WordWeave/internal/logger"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// UsageRecord 按服务、周期累计翻译词数与字符数，便于跨设备汇总
type UsageRecord struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Provider  string `gorm:"size:32;uniqueIndex:idx_usage_period" json:"provider"`
	Period    string `gorm:"size:8;uniqueIndex:idx_usage_period" json:"period"`     // day / month
	PeriodKey string `gorm:"size:10;uniqueIndex:idx_usage_period" json:"periodKey"` // 2006-01-02 / 2006-01
	Words     int64  `json:"words"`
	Chars     int64  `json:"chars"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PageSnapshot 记录某个页面最近一次合并出的译词，供测验与回看
type PageSnapshot struct {
	ID           string            `gorm:"primaryKey;size:40" json:"id"`
	URL          string            `gorm:"size:1024;index" json:"url"`
	Title        string            `gorm:"size:512" json:"title"`
	SourceLang   string            `gorm:"size:16" json:"sourceLang"`
	TargetLang   string            `gorm:"size:16" json:"targetLang"`
	Translations datatypes.JSONMap `gorm:"type:jsonb" json:"translations"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store 聚合 Postgres 与 Redis。DB 可以为空，此时统计与快照只写键值存储。
type Store struct {
	DB    *gorm.DB
	Redis *redis.Client
	KV    KV
}

func NewStore(dsn, redisAddr, prefix string) (*Store, error) {
	s := &Store{}

	if strings.TrimSpace(dsn) != "" {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return nil, err
		}
		if err := db.AutoMigrate(&UsageRecord{}, &PageSnapshot{}); err != nil {
			return nil, err
		}
		s.DB = db
	}

	if strings.TrimSpace(redisAddr) == "" {
		logger.Warn("redis not configured, using in-memory store")
		s.KV = NewMemoryKV()
		return s, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping failed", "addr", redisAddr, "error", err)
	}

	s.Redis = rdb
	s.KV = NewRedisKV(rdb, prefix)
	return s, nil
}

func (s *Store) Close() error {
	if s.Redis != nil {
		return s.Redis.Close()
	}
	return nil
}

// toValidUTF8 将字符串规范为合法 UTF-8，避免 PostgreSQL invalid byte sequence 错误
func toValidUTF8(v string) string {
	return strings.ToValidUTF8(v, "\uFFFD")
}

// truncateRunesDB 按 rune 数截断字符串，确保不会超过数据库字段长度
func truncateRunesDB(v string, limit int) string {
	if limit <= 0 {
		return ""
	}
	v = strings.TrimSpace(v)
	rs := []rune(v)
	if len(rs) <= limit {
		return v
	}
	return string(rs[:limit])
}

func (s *Store) silent() *gorm.DB {
	return s.DB.Session(&gorm.Session{Logger: s.DB.Logger.LogMode(gormlogger.Silent)})
}
