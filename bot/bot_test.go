package bot

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/require"

	"ClaimRelay/claim"
	"ClaimRelay/config"
	"ClaimRelay/db"
)

// fakeSlack records outbound Slack traffic without a connection.
type fakeSlack struct {
	mu          sync.Mutex
	posted      []string // channel ids messages were posted to
	ephemerals  []string // channel ids ephemeral notices went to
	deleted     []string // message ids deleted
	openedViews []slack.ModalViewRequest
	dmOpens     []string // user ids DM conversations were opened with
	nextTS      int
}

func (f *fakeSlack) AuthTestContext(context.Context) (*slack.AuthTestResponse, error) {
	return &slack.AuthTestResponse{UserID: "UBOT", User: "claimrelay"}, nil
}

func (f *fakeSlack) PostMessageContext(_ context.Context, channelID string, _ ...slack.MsgOption) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextTS++
	f.posted = append(f.posted, channelID)
	return channelID, fmt.Sprintf("ts-%d", f.nextTS), nil
}

func (f *fakeSlack) PostEphemeralContext(_ context.Context, channelID, _ string, _ ...slack.MsgOption) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ephemerals = append(f.ephemerals, channelID)
	return "", nil
}

func (f *fakeSlack) DeleteMessageContext(_ context.Context, channelID, messageTimestamp string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageTimestamp)
	return channelID, messageTimestamp, nil
}

func (f *fakeSlack) OpenConversationContext(_ context.Context, params *slack.OpenConversationParameters) (*slack.Channel, bool, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dmOpens = append(f.dmOpens, params.Users[0])
	ch := &slack.Channel{}
	ch.ID = "D" + params.Users[0]
	return ch, false, false, nil
}

func (f *fakeSlack) OpenViewContext(_ context.Context, _ string, view slack.ModalViewRequest) (*slack.ViewResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.openedViews = append(f.openedViews, view)
	return &slack.ViewResponse{}, nil
}

func (f *fakeSlack) GetUserInfoContext(_ context.Context, user string) (*slack.User, error) {
	return &slack.User{ID: user, Name: "user-" + user}, nil
}

func (f *fakeSlack) postCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.posted)
}

// fakeAdminStore satisfies both AdminStore and claim.Store.
type fakeAdminStore struct {
	mu      sync.Mutex
	configs map[string]db.ChannelConfig
	claims  map[string]bool
	resets  int
}

func newFakeAdminStore() *fakeAdminStore {
	return &fakeAdminStore{
		configs: make(map[string]db.ChannelConfig),
		claims:  make(map[string]bool),
	}
}

func (s *fakeAdminStore) SaveChannelConfig(_ context.Context, channelID, urlPattern, claimMessage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[channelID] = db.ChannelConfig{
		ChannelID:    channelID,
		URLPattern:   urlPattern,
		ClaimMessage: claimMessage,
		CreatedAt:    time.Now(),
	}
	return nil
}

func (s *fakeAdminStore) RemoveChannelConfig(_ context.Context, channelID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.configs[channelID]; !ok {
		return false, nil
	}
	delete(s.configs, channelID)
	return true, nil
}

func (s *fakeAdminStore) ResetClaims(_ context.Context, channelID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets++
	var n int64
	for key := range s.claims {
		if key[:len(channelID)+1] == channelID+"_" {
			delete(s.claims, key)
			n++
		}
	}
	return n, nil
}

func (s *fakeAdminStore) ListChannelConfigs(context.Context) ([]db.ChannelConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	configs := make([]db.ChannelConfig, 0, len(s.configs))
	for _, cfg := range s.configs {
		configs = append(configs, cfg)
	}
	return configs, nil
}

func (s *fakeAdminStore) CountClaims(_ context.Context, channelID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for key := range s.claims {
		if key[:len(channelID)+1] == channelID+"_" {
			n++
		}
	}
	return n, nil
}

func (s *fakeAdminStore) GetConfig(_ context.Context, channelID string) (*claim.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.configs[channelID]
	if !ok {
		return nil, nil
	}
	return &claim.Config{URLPattern: cfg.URLPattern, ClaimMessage: cfg.ClaimMessage}, nil
}

func (s *fakeAdminStore) HasClaimed(_ context.Context, channelID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.claims[channelID+"_"+userID], nil
}

func (s *fakeAdminStore) MarkClaimed(_ context.Context, channelID, userID, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claims[channelID+"_"+userID] = true
	return nil
}

func testConfig(t *testing.T, admins string) *config.Config {
	t.Helper()
	t.Setenv("RAILWAY_ENVIRONMENT", "test")
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-test")
	t.Setenv("SLACK_APP_TOKEN", "xapp-test")
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("ADMIN_USER_IDS", admins)
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func newTestBot(t *testing.T, admins string) (*Bot, *fakeSlack, *fakeAdminStore) {
	t.Helper()
	client := &fakeSlack{}
	store := newFakeAdminStore()
	b := newBotForTest(client, store, testConfig(t, admins))
	b.botUserID = "UBOT"
	return b, client, store
}
