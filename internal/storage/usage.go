package storage

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

const (
	PeriodDay   = "day"
	PeriodMonth = "month"
)

// RecordUsage 累加当天与当月的计数；未配置数据库时直接返回
func (s *Store) RecordUsage(provider string, words, chars int, now time.Time) error {
	if s.DB == nil || provider == "" || words == 0 {
		return nil
	}
	periods := map[string]string{
		PeriodDay:   now.Format("2006-01-02"),
		PeriodMonth: now.Format("2006-01"),
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		for period, key := range periods {
			rec := UsageRecord{Provider: provider, Period: period, PeriodKey: key}
			if err := tx.Where("provider = ? AND period = ? AND period_key = ?", provider, period, key).
				FirstOrCreate(&rec).Error; err != nil {
				return err
			}
			if err := tx.Model(&rec).UpdateColumns(map[string]any{
				"words":      gorm.Expr("words + ?", words),
				"chars":      gorm.Expr("chars + ?", chars),
				"updated_at": now,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ListUsage 返回某个周期的各服务计数
func (s *Store) ListUsage(period, key string) ([]UsageRecord, error) {
	if s.DB == nil {
		return nil, nil
	}
	var out []UsageRecord
	err := s.DB.Where("period = ? AND period_key = ?", period, key).Order("provider ASC").Find(&out).Error
	return out, err
}

// SaveSnapshot 覆盖写入页面译词快照
func (s *Store) SaveSnapshot(id, url, title, sl, tl string, translations map[string]string) error {
	if s.DB == nil {
		return nil
	}
	data := make(map[string]any, len(translations))
	for k, v := range translations {
		data[toValidUTF8(k)] = toValidUTF8(v)
	}
	snap := PageSnapshot{ID: id}
	if err := s.DB.Where("id = ?", id).FirstOrCreate(&snap).Error; err != nil {
		return err
	}
	return s.DB.Model(&snap).Updates(PageSnapshot{
		URL:          truncateRunesDB(toValidUTF8(url), 1024),
		Title:        truncateRunesDB(toValidUTF8(title), 512),
		SourceLang:   sl,
		TargetLang:   tl,
		Translations: data,
	}).Error
}

// GetSnapshot 未找到时返回 (nil, nil)
func (s *Store) GetSnapshot(id string) (*PageSnapshot, error) {
	if s.DB == nil {
		return nil, nil
	}
	var snap PageSnapshot
	if err := s.silent().Where("id = ?", id).First(&snap).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &snap, nil
}
