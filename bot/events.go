package bot

import (
	"context"

	"github.com/slack-go/slack/slackevents"
)

// handleMessageEvent feeds one channel message through the sticky scheduler
// and the claim monitor. Messages from bots, message subtypes (edits, joins)
// and direct messages are excluded.
func (b *Bot) handleMessageEvent(ctx context.Context, ev *slackevents.MessageEvent) {
	if ev.BotID != "" || ev.User == "" || ev.User == b.botUserID {
		return
	}
	if ev.SubType != "" {
		return
	}
	if ev.ChannelType == "im" || ev.ChannelType == "mpim" {
		return
	}

	b.stickies.OnChannelActivity(ctx, ev.Channel)

	res, err := b.monitor.HandleMessage(ctx, ev.Channel, ev.User, b.displayName(ctx, ev.User), ev.Text)
	if err != nil {
		b.logger.Error("claim evaluation failed", "channel", ev.Channel, "user", ev.User, "err", err)
		return
	}
	if res != nil {
		b.logger.Info("claim processed", "channel", ev.Channel, "user", ev.User, "delivered", res.Delivered)
	}
}
