package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"ClaimRelay/claim"
)

// SaveChannelConfig upserts the monitoring rule for a channel: an existing
// active row is overwritten in place, otherwise a new row is created.
// Idempotent under repeated identical calls.
func (s *Store) SaveChannelConfig(ctx context.Context, channelID, urlPattern, claimMessage string) error {
	now := time.Now().UTC()

	var existing ChannelConfig
	err := s.db.WithContext(ctx).Where("channel_id = ?", channelID).First(&existing).Error
	switch {
	case err == nil:
		return s.db.WithContext(ctx).Model(&existing).Updates(map[string]any{
			"url_pattern":   urlPattern,
			"claim_message": claimMessage,
			"updated_at":    now,
		}).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		cfg := ChannelConfig{
			ChannelID:    channelID,
			URLPattern:   urlPattern,
			ClaimMessage: claimMessage,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return s.db.WithContext(ctx).Create(&cfg).Error
	default:
		return fmt.Errorf("db: lookup config for channel %s: %w", channelID, err)
	}
}

// GetConfig returns the active rule for a channel, or nil when the channel
// is not monitored.
func (s *Store) GetConfig(ctx context.Context, channelID string) (*claim.Config, error) {
	var cfg ChannelConfig
	err := s.db.WithContext(ctx).Where("channel_id = ?", channelID).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &claim.Config{URLPattern: cfg.URLPattern, ClaimMessage: cfg.ClaimMessage}, nil
}

// RemoveChannelConfig archives the channel's rule. Reports false when the
// channel has no active rule.
func (s *Store) RemoveChannelConfig(ctx context.Context, channelID string) (bool, error) {
	res := s.db.WithContext(ctx).Where("channel_id = ?", channelID).Delete(&ChannelConfig{})
	if res.Error != nil {
		return false, fmt.Errorf("db: archive config for channel %s: %w", channelID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ListChannelConfigs returns every active rule.
func (s *Store) ListChannelConfigs(ctx context.Context) ([]ChannelConfig, error) {
	var configs []ChannelConfig
	if err := s.db.WithContext(ctx).Order("channel_id").Find(&configs).Error; err != nil {
		return nil, fmt.Errorf("db: list configs: %w", err)
	}
	return configs, nil
}
