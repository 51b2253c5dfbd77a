package claim

import (
	"context"
	"fmt"
	"strings"
	"sync"

	log15 "github.com/inconshreveable/log15/v3"
)

// Config is the active monitoring rule for a channel: a URL fragment to look
// for and the message to DM to whoever posts it.
type Config struct {
	URLPattern   string
	ClaimMessage string
}

// Store is the durable side of claim monitoring: channel rules plus the
// ledger of users already notified.
type Store interface {
	// GetConfig returns nil when the channel is not monitored.
	GetConfig(ctx context.Context, channelID string) (*Config, error)
	HasClaimed(ctx context.Context, channelID, userID string) (bool, error)
	MarkClaimed(ctx context.Context, channelID, userID, username string) error
}

// Notifier delivers the claim message to a user.
type Notifier interface {
	SendDM(ctx context.Context, userID, text string) error
}

// Cache is an optional fast path for the already-claimed check. A cache miss
// or error always falls through to the Store.
type Cache interface {
	IsClaimed(ctx context.Context, channelID, userID string) (bool, error)
	SetClaimed(ctx context.Context, channelID, userID string) error
}

// Result reports what a matching message caused.
type Result struct {
	Delivered bool // the DM reached the user
	Recorded  bool // a ledger record was written
}

// Monitor evaluates inbound channel messages against configured URL patterns
// and notifies each qualifying author once per channel.
type Monitor struct {
	store    Store
	notifier Notifier
	cache    Cache

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	logger log15.Logger
}

// NewMonitor builds a Monitor. cache may be nil.
func NewMonitor(store Store, notifier Notifier, cache Cache) *Monitor {
	return &Monitor{
		store:    store,
		notifier: notifier,
		cache:    cache,
		locks:    make(map[string]*sync.Mutex),
		logger:   log15.New("module", "claim"),
	}
}

// HandleMessage runs the per-message evaluation. It returns (nil, nil) when
// the message does not qualify: unmonitored channel, no pattern match, or the
// author already claimed. A qualifying message triggers at most one DM
// attempt and one ledger write. The record is written even when delivery
// fails, so a user whose DMs are closed is never retried.
func (m *Monitor) HandleMessage(ctx context.Context, channelID, userID, username, text string) (*Result, error) {
	cfg, err := m.store.GetConfig(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("claim: lookup config for channel %s: %w", channelID, err)
	}
	if cfg == nil || cfg.URLPattern == "" {
		return nil, nil
	}

	if !strings.Contains(strings.ToLower(text), strings.ToLower(cfg.URLPattern)) {
		return nil, nil
	}

	// Serialize the check-then-insert per (channel,user) so a burst of
	// matching messages from one user yields a single DM. Only guards this
	// process instance.
	lock := m.lockFor(channelID, userID)
	lock.Lock()
	defer lock.Unlock()

	claimed, err := m.isClaimed(ctx, channelID, userID)
	if err != nil {
		return nil, fmt.Errorf("claim: check ledger for %s/%s: %w", channelID, userID, err)
	}
	if claimed {
		m.logger.Debug("user already claimed", "channel", channelID, "user", userID)
		return nil, nil
	}

	res := &Result{}
	if err := m.notifier.SendDM(ctx, userID, cfg.ClaimMessage); err != nil {
		// Recipient may disallow DMs. Non-fatal, no retry.
		m.logger.Warn("could not deliver claim DM", "channel", channelID, "user", userID, "err", err)
	} else {
		res.Delivered = true
		m.logger.Info("claim DM sent", "channel", channelID, "user", userID)
	}

	if err := m.store.MarkClaimed(ctx, channelID, userID, username); err != nil {
		return res, fmt.Errorf("claim: record claim for %s/%s: %w", channelID, userID, err)
	}
	res.Recorded = true

	if m.cache != nil {
		if err := m.cache.SetClaimed(ctx, channelID, userID); err != nil {
			m.logger.Warn("claim cache write failed", "channel", channelID, "user", userID, "err", err)
		}
	}
	return res, nil
}

func (m *Monitor) isClaimed(ctx context.Context, channelID, userID string) (bool, error) {
	if m.cache != nil {
		hit, err := m.cache.IsClaimed(ctx, channelID, userID)
		if err != nil {
			m.logger.Warn("claim cache read failed", "channel", channelID, "user", userID, "err", err)
		} else if hit {
			return true, nil
		}
	}
	return m.store.HasClaimed(ctx, channelID, userID)
}

func (m *Monitor) lockFor(channelID, userID string) *sync.Mutex {
	key := channelID + "_" + userID
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[key] = lock
	}
	return lock
}
