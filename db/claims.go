package db

import (
	"context"
	"fmt"
	"time"
)

// HasClaimed reports whether an active ledger record exists for the pair.
func (s *Store) HasClaimed(ctx context.Context, channelID, userID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&ClaimRecord{}).
		Where("entry_id = ?", ClaimEntryID(channelID, userID)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("db: check claim %s/%s: %w", channelID, userID, err)
	}
	return count > 0, nil
}

// MarkClaimed writes the ledger record for the pair. A pair that already has
// an active record is left untouched.
func (s *Store) MarkClaimed(ctx context.Context, channelID, userID, username string) error {
	claimed, err := s.HasClaimed(ctx, channelID, userID)
	if err != nil {
		return err
	}
	if claimed {
		return nil
	}

	rec := ClaimRecord{
		EntryID:   ClaimEntryID(channelID, userID),
		ChannelID: channelID,
		UserID:    userID,
		Username:  username,
		ClaimedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("db: record claim %s/%s: %w", channelID, userID, err)
	}
	return nil
}

// ResetClaims archives every active ledger record for a channel, making its
// users eligible to be notified again. Returns how many records were
// archived.
func (s *Store) ResetClaims(ctx context.Context, channelID string) (int64, error) {
	res := s.db.WithContext(ctx).Where("channel_id = ?", channelID).Delete(&ClaimRecord{})
	if res.Error != nil {
		return 0, fmt.Errorf("db: reset claims for channel %s: %w", channelID, res.Error)
	}
	return res.RowsAffected, nil
}

// CountClaims counts the active ledger records for a channel.
func (s *Store) CountClaims(ctx context.Context, channelID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&ClaimRecord{}).
		Where("channel_id = ?", channelID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("db: count claims for channel %s: %w", channelID, err)
	}
	return count, nil
}
