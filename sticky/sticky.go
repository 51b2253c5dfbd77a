// Package sticky keeps per-channel announcement messages pinned to the
// bottom of a channel by periodically deleting and reposting them. State
// lives in process memory only and is lost on restart.
package sticky

import (
	"context"
	"fmt"
	"sync"
	"time"

	log15 "github.com/inconshreveable/log15/v3"
)

const (
	// RepostAfterMessages triggers a repost once this many messages arrived
	// since the sticky was last sent.
	RepostAfterMessages = 5
	// RepostAfterIdle triggers a repost once this much time elapsed since the
	// sticky was last sent, so quiet channels still refresh.
	RepostAfterIdle = 15 * time.Second
)

// Message is the sticky payload reposted on every cycle.
type Message struct {
	Title   string
	Content string
	Color   string
}

// Messenger posts and deletes sticky messages in a channel.
type Messenger interface {
	PostSticky(ctx context.Context, channelID string, msg Message) (messageID string, err error)
	DeleteMessage(ctx context.Context, channelID, messageID string) error
}

type state struct {
	mu sync.Mutex

	msg               Message
	lastMessageID     string
	lastSentAt        time.Time
	messagesSinceSend int
	removed           bool
}

// Registry owns the process-wide sticky state table keyed by channel id.
// Updates to a channel's state are serialized by a per-channel mutex.
type Registry struct {
	mu       sync.Mutex
	channels map[string]*state

	messenger Messenger
	now       func() time.Time
	logger    log15.Logger
}

// NewRegistry builds an empty registry posting through messenger.
func NewRegistry(messenger Messenger) *Registry {
	return &Registry{
		channels:  make(map[string]*state),
		messenger: messenger,
		now:       time.Now,
		logger:    log15.New("module", "sticky"),
	}
}

// Create posts the initial sticky message and activates the channel,
// replacing any sticky already present there. The color is normalized before
// use.
func (r *Registry) Create(ctx context.Context, channelID, title, content, color string) error {
	msg := Message{Title: title, Content: content, Color: NormalizeColor(color)}

	id, err := r.messenger.PostSticky(ctx, channelID, msg)
	if err != nil {
		return fmt.Errorf("sticky: post initial message in %s: %w", channelID, err)
	}

	r.mu.Lock()
	prev := r.channels[channelID]
	r.channels[channelID] = &state{
		msg:           msg,
		lastMessageID: id,
		lastSentAt:    r.now(),
	}
	r.mu.Unlock()

	if prev != nil {
		prev.mu.Lock()
		prev.removed = true
		old := prev.lastMessageID
		prev.mu.Unlock()
		r.deleteQuietly(ctx, channelID, old)
	}

	r.logger.Info("sticky created", "channel", channelID, "title", title)
	return nil
}

// OnChannelActivity counts an inbound message against the channel's sticky
// and reposts it when either threshold is hit. Returns whether a repost
// happened. Channels without a sticky are a no-op.
func (r *Registry) OnChannelActivity(ctx context.Context, channelID string) bool {
	st := r.lookup(channelID)
	if st == nil {
		return false
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	st.messagesSinceSend++
	return r.maybeRepost(ctx, channelID, st)
}

// Refresh re-evaluates the thresholds without counting a message. Used as
// the external re-trigger. Returns whether a repost happened.
func (r *Registry) Refresh(ctx context.Context, channelID string) bool {
	st := r.lookup(channelID)
	if st == nil {
		return false
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	return r.maybeRepost(ctx, channelID, st)
}

// Remove deletes the posted sticky message and discards the channel's state.
// Reports false when the channel has no sticky.
func (r *Registry) Remove(ctx context.Context, channelID string) bool {
	r.mu.Lock()
	st, ok := r.channels[channelID]
	if ok {
		delete(r.channels, channelID)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}

	st.mu.Lock()
	st.removed = true
	old := st.lastMessageID
	st.mu.Unlock()

	r.deleteQuietly(ctx, channelID, old)
	r.logger.Info("sticky removed", "channel", channelID)
	return true
}

// Active reports whether the channel currently has a sticky.
func (r *Registry) Active(channelID string) bool {
	return r.lookup(channelID) != nil
}

// maybeRepost runs the delete-and-repost cycle when a threshold is hit.
// Caller holds st.mu.
func (r *Registry) maybeRepost(ctx context.Context, channelID string, st *state) bool {
	if st.removed {
		return false
	}
	if st.messagesSinceSend < RepostAfterMessages && r.now().Sub(st.lastSentAt) < RepostAfterIdle {
		return false
	}

	r.deleteQuietly(ctx, channelID, st.lastMessageID)

	id, err := r.messenger.PostSticky(ctx, channelID, st.msg)
	if err != nil {
		// Keep counter and timer as-is so the next message retries.
		r.logger.Error("sticky repost failed", "channel", channelID, "err", err)
		return false
	}

	st.lastMessageID = id
	st.lastSentAt = r.now()
	st.messagesSinceSend = 0
	r.logger.Debug("sticky reposted", "channel", channelID, "message", id)
	return true
}

// deleteQuietly removes a previously posted sticky message. A message that
// is already gone counts as success.
func (r *Registry) deleteQuietly(ctx context.Context, channelID, messageID string) {
	if messageID == "" {
		return
	}
	if err := r.messenger.DeleteMessage(ctx, channelID, messageID); err != nil {
		r.logger.Debug("sticky cleanup delete failed", "channel", channelID, "message", messageID, "err", err)
	}
}

func (r *Registry) lookup(channelID string) *state {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.channels[channelID]
}
