package bot

import (
	"context"
	"testing"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slashCmd(command, text, userID string) slack.SlashCommand {
	return slack.SlashCommand{
		Command:     command,
		Text:        text,
		UserID:      userID,
		ChannelID:   "C1",
		ResponseURL: "https://hooks.slack.test/respond",
	}
}

func TestSlashCommand_Unauthorized(t *testing.T) {
	b, client, store := newTestBot(t, "UADMIN")

	b.handleSlashCommand(context.Background(), slashCmd("/claim", "set <#C2|general> example.com/x hi", "UOTHER"))

	assert.Empty(t, store.configs)
	assert.Equal(t, 1, client.postCount()) // rejection reply only
}

func TestSlashCommand_EmptyAllowListRejectsEveryone(t *testing.T) {
	b, _, store := newTestBot(t, "")

	b.handleSlashCommand(context.Background(), slashCmd("/claim", "status", "UANY"))

	assert.Empty(t, store.configs)
}

func TestClaimSet_SavesConfig(t *testing.T) {
	b, _, store := newTestBot(t, "UADMIN")

	b.handleSlashCommand(context.Background(),
		slashCmd("/claim", "set <#C2|general> example.com/x You claimed it!", "UADMIN"))

	cfg, ok := store.configs["C2"]
	require.True(t, ok)
	assert.Equal(t, "example.com/x", cfg.URLPattern)
	assert.Equal(t, "You claimed it!", cfg.ClaimMessage)
}

func TestClaimSet_IsIdempotent(t *testing.T) {
	b, _, store := newTestBot(t, "UADMIN")
	cmd := slashCmd("/claim", "set <#C2|general> example.com/x claimed!", "UADMIN")

	b.handleSlashCommand(context.Background(), cmd)
	b.handleSlashCommand(context.Background(), cmd)

	require.Len(t, store.configs, 1)
	assert.Equal(t, "example.com/x", store.configs["C2"].URLPattern)
}

func TestClaimSet_RejectsBadChannelArg(t *testing.T) {
	b, _, store := newTestBot(t, "UADMIN")

	b.handleSlashCommand(context.Background(), slashCmd("/claim", "set general example.com/x hi", "UADMIN"))

	assert.Empty(t, store.configs)
}

func TestClaimRemove_NotFound(t *testing.T) {
	b, client, _ := newTestBot(t, "UADMIN")

	b.handleSlashCommand(context.Background(), slashCmd("/claim", "remove <#C2|general>", "UADMIN"))

	assert.Equal(t, 1, client.postCount()) // distinct not-found reply
}

func TestClaimRemove_WithReset(t *testing.T) {
	b, _, store := newTestBot(t, "UADMIN")
	require.NoError(t, store.SaveChannelConfig(context.Background(), "C2", "example.com/x", "hi"))
	require.NoError(t, store.MarkClaimed(context.Background(), "C2", "U1", "alice"))

	b.handleSlashCommand(context.Background(), slashCmd("/claim", "remove <#C2|general> reset", "UADMIN"))

	assert.Empty(t, store.configs)
	assert.Equal(t, 1, store.resets)
	claimed, err := store.HasClaimed(context.Background(), "C2", "U1")
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestClaimRemove_WithoutResetKeepsLedger(t *testing.T) {
	b, _, store := newTestBot(t, "UADMIN")
	require.NoError(t, store.SaveChannelConfig(context.Background(), "C2", "example.com/x", "hi"))
	require.NoError(t, store.MarkClaimed(context.Background(), "C2", "U1", "alice"))

	b.handleSlashCommand(context.Background(), slashCmd("/claim", "remove <#C2|general>", "UADMIN"))

	assert.Zero(t, store.resets)
	claimed, err := store.HasClaimed(context.Background(), "C2", "U1")
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestClaimStatus_Replies(t *testing.T) {
	b, client, store := newTestBot(t, "UADMIN")
	require.NoError(t, store.SaveChannelConfig(context.Background(), "C2", "example.com/x", "hi"))

	b.handleSlashCommand(context.Background(), slashCmd("/claim", "status", "UADMIN"))

	assert.Equal(t, 1, client.postCount())
}

func TestStickyCreate_OpensModal(t *testing.T) {
	b, client, _ := newTestBot(t, "UADMIN")

	b.handleSlashCommand(context.Background(), slashCmd("/sticky", "create", "UADMIN"))

	require.Len(t, client.openedViews, 1)
	view := client.openedViews[0]
	assert.Equal(t, stickyModalID, view.CallbackID)
	assert.Equal(t, "C1", view.PrivateMetadata)
	assert.Len(t, view.Blocks.BlockSet, 3)
}

func TestStickyRemove_NotFound(t *testing.T) {
	b, client, _ := newTestBot(t, "UADMIN")

	b.handleSlashCommand(context.Background(), slashCmd("/sticky", "remove", "UADMIN"))

	assert.Equal(t, 1, client.postCount())
	assert.Empty(t, client.deleted)
}

func TestStickySubmission_CreatesAndRemoves(t *testing.T) {
	b, client, _ := newTestBot(t, "UADMIN")

	callback := slack.InteractionCallback{
		Type: slack.InteractionTypeViewSubmission,
		User: slack.User{ID: "UADMIN"},
	}
	callback.View.CallbackID = stickyModalID
	callback.View.PrivateMetadata = "C9"
	callback.View.State = &slack.ViewState{
		Values: map[string]map[string]slack.BlockAction{
			stickyTitleBlock:   {stickyInputAction: {Value: "Rules"}},
			stickyContentBlock: {stickyInputAction: {Value: "Be nice."}},
			stickyColorBlock:   {stickyInputAction: {Value: "FF5733"}},
		},
	}

	b.handleInteraction(context.Background(), callback)

	assert.True(t, b.stickies.Active("C9"))
	assert.Equal(t, []string{"C9"}, client.posted)
	assert.Equal(t, []string{"C9"}, client.ephemerals)

	b.handleSlashCommand(context.Background(), slack.SlashCommand{
		Command: "/sticky", Text: "remove", UserID: "UADMIN", ChannelID: "C9",
		ResponseURL: "https://hooks.slack.test/respond",
	})
	assert.False(t, b.stickies.Active("C9"))
	assert.Equal(t, []string{"ts-1"}, client.deleted)
}

func TestParseChannelMention(t *testing.T) {
	cases := []struct {
		arg  string
		want string
	}{
		{"<#C0123ABC|general>", "C0123ABC"},
		{"<#C0123ABC>", "C0123ABC"},
		{"<#C0123ABC|>", "C0123ABC"},
		{"#general", ""},
		{"general", ""},
		{"<@U0123ABC>", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, parseChannelMention(tc.arg), "arg %q", tc.arg)
	}
}
