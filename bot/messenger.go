package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/slack-go/slack"

	"ClaimRelay/sticky"
)

// slackMessenger adapts the Slack client to the claim.Notifier and
// sticky.Messenger contracts.
type slackMessenger struct {
	client SlackAPI
}

// SendDM opens (or reuses) the IM conversation with the user and posts the
// claim message there.
func (m *slackMessenger) SendDM(ctx context.Context, userID, text string) error {
	ch, _, _, err := m.client.OpenConversationContext(ctx, &slack.OpenConversationParameters{
		Users:    []string{userID},
		ReturnIM: true,
	})
	if err != nil {
		return fmt.Errorf("open dm with %s: %w", userID, err)
	}

	if _, _, err := m.client.PostMessageContext(ctx, ch.ID, slack.MsgOptionText(text, false)); err != nil {
		return fmt.Errorf("post dm to %s: %w", userID, err)
	}
	return nil
}

// PostSticky renders the sticky as a colored attachment and returns the
// posted message's timestamp id.
func (m *slackMessenger) PostSticky(ctx context.Context, channelID string, msg sticky.Message) (string, error) {
	attachment := slack.Attachment{
		Color:  msg.Color,
		Title:  msg.Title,
		Text:   msg.Content,
		Footer: "📌 Sticky Message",
		Ts:     json.Number(strconv.FormatInt(time.Now().Unix(), 10)),
	}

	_, ts, err := m.client.PostMessageContext(ctx, channelID, slack.MsgOptionAttachments(attachment))
	if err != nil {
		return "", fmt.Errorf("post sticky in %s: %w", channelID, err)
	}
	return ts, nil
}

// DeleteMessage removes a posted sticky. A message that no longer exists
// counts as deleted.
func (m *slackMessenger) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	_, _, err := m.client.DeleteMessageContext(ctx, channelID, messageID)
	if err != nil && err.Error() == "message_not_found" {
		return nil
	}
	return err
}
