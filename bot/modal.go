package bot

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"

	"ClaimRelay/sticky"
)

const (
	stickyModalID = "sticky_modal"

	stickyTitleBlock   = "sticky_title"
	stickyContentBlock = "sticky_content"
	stickyColorBlock   = "sticky_color"
	stickyInputAction  = "value"
)

// openStickyModal shows the creation form. The target channel rides along in
// the view's private metadata so the submission knows where to post.
func (b *Bot) openStickyModal(ctx context.Context, cmd slack.SlashCommand) {
	titleElement := slack.NewPlainTextInputBlockElement(
		slack.NewTextBlockObject(slack.PlainTextType, "Enter the title for the sticky message", false, false),
		stickyInputAction)
	titleElement.MaxLength = 256
	titleInput := slack.NewInputBlock(stickyTitleBlock,
		slack.NewTextBlockObject(slack.PlainTextType, "Title", false, false),
		nil, titleElement)

	contentElement := slack.NewPlainTextInputBlockElement(
		slack.NewTextBlockObject(slack.PlainTextType, "Enter the message content (supports mrkdwn)", false, false),
		stickyInputAction)
	contentElement.Multiline = true
	contentElement.MaxLength = 4000
	contentInput := slack.NewInputBlock(stickyContentBlock,
		slack.NewTextBlockObject(slack.PlainTextType, "Content", false, false),
		nil, contentElement)

	colorElement := slack.NewPlainTextInputBlockElement(
		slack.NewTextBlockObject(slack.PlainTextType, "#5865F2", false, false),
		stickyInputAction)
	colorElement.MaxLength = 7
	colorInput := slack.NewInputBlock(stickyColorBlock,
		slack.NewTextBlockObject(slack.PlainTextType, "Color (hex, e.g. #FF5733)", false, false),
		nil, colorElement)
	colorInput.Optional = true

	view := slack.ModalViewRequest{
		Type:            slack.VTModal,
		CallbackID:      stickyModalID,
		PrivateMetadata: cmd.ChannelID,
		Title:           slack.NewTextBlockObject(slack.PlainTextType, "Create Sticky Message", false, false),
		Submit:          slack.NewTextBlockObject(slack.PlainTextType, "Create", false, false),
		Close:           slack.NewTextBlockObject(slack.PlainTextType, "Cancel", false, false),
		Blocks:          slack.Blocks{BlockSet: []slack.Block{titleInput, contentInput, colorInput}},
	}

	if _, err := b.client.OpenViewContext(ctx, cmd.TriggerID, view); err != nil {
		b.logger.Error("failed to open sticky modal", "channel", cmd.ChannelID, "err", err)
		b.replyEphemeral(ctx, cmd, "❌ Failed to open the sticky message form.")
	}
}

// handleStickySubmission posts the initial sticky and activates the channel.
func (b *Bot) handleStickySubmission(ctx context.Context, callback slack.InteractionCallback) {
	channelID := callback.View.PrivateMetadata
	values := callback.View.State.Values

	title := values[stickyTitleBlock][stickyInputAction].Value
	content := values[stickyContentBlock][stickyInputAction].Value
	color := values[stickyColorBlock][stickyInputAction].Value

	if err := b.stickies.Create(ctx, channelID, title, content, color); err != nil {
		b.logger.Error("failed to create sticky", "channel", channelID, "err", err)
		b.notifyEphemeral(ctx, channelID, callback.User.ID, "❌ Failed to create sticky message.")
		return
	}

	b.notifyEphemeral(ctx, channelID, callback.User.ID, fmt.Sprintf(
		"✅ Sticky message created in <#%s>!\n\n📌 It will be re-sent every *%d messages* or *%d seconds*.",
		channelID, sticky.RepostAfterMessages, int(sticky.RepostAfterIdle.Seconds())))
}

// notifyEphemeral posts a message only the given user sees in the channel.
func (b *Bot) notifyEphemeral(ctx context.Context, channelID, userID, text string) {
	if _, err := b.client.PostEphemeralContext(ctx, channelID, userID, slack.MsgOptionText(text, false)); err != nil {
		b.logger.Error("failed to post ephemeral notice", "channel", channelID, "err", err)
	}
}
