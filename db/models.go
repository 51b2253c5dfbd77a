package db

import (
	"time"

	"gorm.io/gorm"
)

// ChannelConfig maps a monitored channel to the URL fragment it watches for
// and the message DMed to whoever posts it. Archiving is a gorm soft delete;
// archived rows are excluded from every read. One active row per channel,
// enforced by upsert-by-channel-id rather than a unique constraint so that
// archived history can accumulate.
type ChannelConfig struct {
	ID           uint   `gorm:"primaryKey"`
	ChannelID    string `gorm:"index;not null"`
	URLPattern   string `gorm:"not null"`
	ClaimMessage string `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

// ClaimRecord marks one user as notified in one channel. EntryID is the
// deterministic composite of channel and user id. At most one active row per
// pair, enforced by check-then-insert; the remaining race window is accepted
// (see the claim package's per-pair locking).
type ClaimRecord struct {
	ID        uint   `gorm:"primaryKey"`
	EntryID   string `gorm:"index;not null"`
	ChannelID string `gorm:"index;not null"`
	UserID    string `gorm:"not null"`
	Username  string // display snapshot, informational only
	ClaimedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// ClaimEntryID builds the composite ledger key for a (channel, user) pair.
func ClaimEntryID(channelID, userID string) string {
	return channelID + "_" + userID
}
