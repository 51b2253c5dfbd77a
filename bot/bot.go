// Package bot wires the Slack surface: Socket Mode events feed the claim
// monitor and the sticky registry, slash commands and a modal form expose
// the administrative operations.
package bot

import (
	"context"
	"sync"

	log15 "github.com/inconshreveable/log15/v3"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"ClaimRelay/claim"
	"ClaimRelay/config"
	"ClaimRelay/db"
	"ClaimRelay/sticky"
	"ClaimRelay/utils"
)

// SlackAPI is the slice of the Slack client the bot uses. Narrowed for
// testability.
type SlackAPI interface {
	AuthTestContext(ctx context.Context) (*slack.AuthTestResponse, error)
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	PostEphemeralContext(ctx context.Context, channelID, userID string, options ...slack.MsgOption) (string, error)
	DeleteMessageContext(ctx context.Context, channelID, messageTimestamp string) (string, string, error)
	OpenConversationContext(ctx context.Context, params *slack.OpenConversationParameters) (*slack.Channel, bool, bool, error)
	OpenViewContext(ctx context.Context, triggerID string, view slack.ModalViewRequest) (*slack.ViewResponse, error)
	GetUserInfoContext(ctx context.Context, user string) (*slack.User, error)
}

// AdminStore is the administrative slice of the durable store.
type AdminStore interface {
	SaveChannelConfig(ctx context.Context, channelID, urlPattern, claimMessage string) error
	RemoveChannelConfig(ctx context.Context, channelID string) (bool, error)
	ResetClaims(ctx context.Context, channelID string) (int64, error)
	ListChannelConfigs(ctx context.Context) ([]db.ChannelConfig, error)
	CountClaims(ctx context.Context, channelID string) (int64, error)
}

// claimResetter invalidates cached claim checks for a channel.
type claimResetter interface {
	ResetChannel(ctx context.Context, channelID string) error
}

// Bot runs the Socket Mode event loop.
type Bot struct {
	client SlackAPI
	socket *socketmode.Client
	cfg    *config.Config

	store    AdminStore
	monitor  *claim.Monitor
	stickies *sticky.Registry
	cache    claimResetter // nil when Redis is disabled

	botUserID string

	// Display names are fetched once per user and kept for the ledger's
	// username snapshot.
	userNames   map[string]string
	userNamesMu sync.RWMutex

	logger log15.Logger
}

// New builds the bot and its claim/sticky machinery around a connected
// Slack client. cache may be nil.
func New(cfg *config.Config, client *slack.Client, socket *socketmode.Client, store *db.Store, cache *utils.ClaimCache) *Bot {
	b := &Bot{
		client:    client,
		socket:    socket,
		cfg:       cfg,
		store:     store,
		userNames: make(map[string]string),
		logger:    log15.New("module", "bot"),
	}

	messenger := &slackMessenger{client: client}
	if cache != nil {
		b.cache = cache
		b.monitor = claim.NewMonitor(store, messenger, cache)
	} else {
		b.monitor = claim.NewMonitor(store, messenger, nil)
	}
	b.stickies = sticky.NewRegistry(messenger)
	return b
}

// newBotForTest builds a Bot with injectable fakes. No Slack connection is
// made.
func newBotForTest(client SlackAPI, store AdminStore, cfg *config.Config) *Bot {
	messenger := &slackMessenger{client: client}
	return &Bot{
		client:    client,
		cfg:       cfg,
		store:     store,
		monitor:   claim.NewMonitor(storeAsClaimStore(store), messenger, nil),
		stickies:  sticky.NewRegistry(messenger),
		userNames: make(map[string]string),
		logger:    log15.New("module", "bot"),
	}
}

// storeAsClaimStore narrows an AdminStore that also satisfies claim.Store.
// Test fakes implement both; db.Store does too.
func storeAsClaimStore(store AdminStore) claim.Store {
	cs, ok := store.(claim.Store)
	if !ok {
		return nil
	}
	return cs
}

// Run starts the event loop. Blocks until ctx is canceled.
func (b *Bot) Run(ctx context.Context) error {
	auth, err := b.client.AuthTestContext(ctx)
	if err != nil {
		b.logger.Warn("auth test failed, own messages will not be filtered by user id", "err", err)
	} else {
		b.botUserID = auth.UserID
		b.logger.Info("bot online", "user", auth.User, "id", auth.UserID)
	}

	go func() {
		for evt := range b.socket.Events {
			b.handleEvent(ctx, evt)
		}
	}()

	return b.socket.RunContext(ctx)
}

// handleEvent dispatches one Socket Mode event. No branch may panic or
// return an error upward; the loop must survive any single event's failure.
func (b *Bot) handleEvent(ctx context.Context, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		b.logger.Info("connecting to Slack")

	case socketmode.EventTypeConnected:
		b.logger.Info("connected to Slack")

	case socketmode.EventTypeConnectionError:
		b.logger.Error("slack connection error", "data", evt.Data)

	case socketmode.EventTypeEventsAPI:
		event, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			return
		}
		b.socket.Ack(*evt.Request)
		b.handleEventsAPI(ctx, event)

	case socketmode.EventTypeSlashCommand:
		cmd, ok := evt.Data.(slack.SlashCommand)
		if !ok {
			return
		}
		b.socket.Ack(*evt.Request)
		b.handleSlashCommand(ctx, cmd)

	case socketmode.EventTypeInteractive:
		callback, ok := evt.Data.(slack.InteractionCallback)
		if !ok {
			return
		}
		b.socket.Ack(*evt.Request)
		b.handleInteraction(ctx, callback)
	}
}

func (b *Bot) handleEventsAPI(ctx context.Context, event slackevents.EventsAPIEvent) {
	if event.Type != slackevents.CallbackEvent {
		return
	}
	switch ev := event.InnerEvent.Data.(type) {
	case *slackevents.MessageEvent:
		b.handleMessageEvent(ctx, ev)
	}
}

func (b *Bot) handleInteraction(ctx context.Context, callback slack.InteractionCallback) {
	if callback.Type != slack.InteractionTypeViewSubmission {
		return
	}
	if callback.View.CallbackID == stickyModalID {
		b.handleStickySubmission(ctx, callback)
	}
}

// displayName resolves a user's display name, falling back to the raw id.
// Looked up once per user, then served from memory.
func (b *Bot) displayName(ctx context.Context, userID string) string {
	b.userNamesMu.RLock()
	name, ok := b.userNames[userID]
	b.userNamesMu.RUnlock()
	if ok {
		return name
	}

	name = userID
	if user, err := b.client.GetUserInfoContext(ctx, userID); err != nil {
		b.logger.Debug("user info lookup failed", "user", userID, "err", err)
	} else if user.Profile.DisplayName != "" {
		name = user.Profile.DisplayName
	} else if user.Name != "" {
		name = user.Name
	}

	b.userNamesMu.Lock()
	b.userNames[userID] = name
	b.userNamesMu.Unlock()
	return name
}
