package bot

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/slack-go/slack"
	"go.uber.org/multierr"
)

const (
	claimUsage = "Usage:\n" +
		"• `/claim set #channel <url-pattern> <claim message>`\n" +
		"• `/claim remove #channel [reset]`\n" +
		"• `/claim status`"
	stickyUsage = "Usage:\n" +
		"• `/sticky create` — open the sticky message form\n" +
		"• `/sticky refresh` — force a threshold check now\n" +
		"• `/sticky remove`"
)

// channelMention matches Slack's escaped channel argument, <#C123ABC|name>.
var channelMention = regexp.MustCompile(`^<#([A-Z0-9]+)(?:\|[^>]*)?>$`)

func (b *Bot) handleSlashCommand(ctx context.Context, cmd slack.SlashCommand) {
	if !b.cfg.IsAdmin(cmd.UserID) {
		b.logger.Info("unauthorized command attempt", "command", cmd.Command, "user", cmd.UserID)
		b.replyEphemeral(ctx, cmd, "❌ You are not authorized to use this command.")
		return
	}

	switch cmd.Command {
	case "/claim":
		b.handleClaimCommand(ctx, cmd)
	case "/sticky":
		b.handleStickyCommand(ctx, cmd)
	default:
		b.replyEphemeral(ctx, cmd, fmt.Sprintf("Unknown command: %s", cmd.Command))
	}
}

func (b *Bot) handleClaimCommand(ctx context.Context, cmd slack.SlashCommand) {
	args := strings.Fields(cmd.Text)
	if len(args) == 0 {
		b.replyEphemeral(ctx, cmd, claimUsage)
		return
	}

	switch strings.ToLower(args[0]) {
	case "set":
		b.handleClaimSet(ctx, cmd, args[1:])
	case "remove":
		b.handleClaimRemove(ctx, cmd, args[1:])
	case "status":
		b.handleClaimStatus(ctx, cmd)
	default:
		b.replyEphemeral(ctx, cmd, claimUsage)
	}
}

func (b *Bot) handleClaimSet(ctx context.Context, cmd slack.SlashCommand, args []string) {
	if len(args) < 3 {
		b.replyEphemeral(ctx, cmd, claimUsage)
		return
	}

	channelID := parseChannelMention(args[0])
	if channelID == "" {
		b.replyEphemeral(ctx, cmd, "❌ The first argument must be a channel, like `#announcements`.")
		return
	}
	urlPattern := args[1]
	claimMessage := strings.Join(args[2:], " ")

	if err := b.store.SaveChannelConfig(ctx, channelID, urlPattern, claimMessage); err != nil {
		b.logger.Error("failed to save channel config", "channel", channelID, "err", err)
		b.replyEphemeral(ctx, cmd, "❌ Failed to set up claim monitoring. Please try again.")
		return
	}

	b.logger.Info("claim monitoring configured", "channel", channelID, "pattern", urlPattern)
	b.replyEphemeral(ctx, cmd, fmt.Sprintf(
		"✅ *Claim monitoring configured!*\n\n📍 Channel: <#%s>\n🔗 Pattern: `%s`\n💬 Message: %s\n\nUsers who post the pattern will receive a DM once per user.",
		channelID, urlPattern, claimMessage))
}

func (b *Bot) handleClaimRemove(ctx context.Context, cmd slack.SlashCommand, args []string) {
	if len(args) < 1 {
		b.replyEphemeral(ctx, cmd, claimUsage)
		return
	}

	channelID := parseChannelMention(args[0])
	if channelID == "" {
		b.replyEphemeral(ctx, cmd, "❌ The first argument must be a channel, like `#announcements`.")
		return
	}
	resetClaims := len(args) > 1 && strings.EqualFold(args[1], "reset")

	found, err := b.store.RemoveChannelConfig(ctx, channelID)
	if err != nil {
		b.logger.Error("failed to remove channel config", "channel", channelID, "err", err)
		b.replyEphemeral(ctx, cmd, "❌ Failed to remove claim monitoring. Please try again.")
		return
	}
	if !found {
		b.replyEphemeral(ctx, cmd, fmt.Sprintf("❌ No claim monitoring is configured for <#%s>.", channelID))
		return
	}

	reply := fmt.Sprintf("✅ Claim monitoring removed from <#%s>.", channelID)
	if resetClaims {
		if err := b.resetClaims(ctx, channelID); err != nil {
			b.logger.Error("failed to reset claims", "channel", channelID, "err", err)
			b.replyEphemeral(ctx, cmd, reply+"\n❌ Resetting the claimed users list failed. Please try again.")
			return
		}
		reply += "\n🔄 Claimed users list has been reset."
	}
	b.logger.Info("claim monitoring removed", "channel", channelID, "reset", resetClaims)
	b.replyEphemeral(ctx, cmd, reply)
}

// resetClaims archives the channel's ledger records and drops cached checks,
// combining both failures.
func (b *Bot) resetClaims(ctx context.Context, channelID string) error {
	_, err := b.store.ResetClaims(ctx, channelID)
	if b.cache != nil {
		err = multierr.Append(err, b.cache.ResetChannel(ctx, channelID))
	}
	return err
}

func (b *Bot) handleClaimStatus(ctx context.Context, cmd slack.SlashCommand) {
	configs, err := b.store.ListChannelConfigs(ctx)
	if err != nil {
		b.logger.Error("failed to list channel configs", "err", err)
		b.replyEphemeral(ctx, cmd, "❌ Failed to get claim status. Please try again.")
		return
	}
	if len(configs) == 0 {
		b.replyEphemeral(ctx, cmd, "📭 No claim monitoring configurations set up yet.\n\nUse `/claim set` to configure a channel.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📊 *Claim Monitoring Status*\n")
	for _, cfg := range configs {
		count, err := b.store.CountClaims(ctx, cfg.ChannelID)
		if err != nil {
			b.logger.Error("failed to count claims", "channel", cfg.ChannelID, "err", err)
			b.replyEphemeral(ctx, cmd, "❌ Failed to get claim status. Please try again.")
			return
		}
		sb.WriteString(fmt.Sprintf("\n• <#%s>\n   🔗 Pattern: `%s`\n   💬 Message: %s\n   👥 Claims sent: %d\n",
			cfg.ChannelID, cfg.URLPattern, truncate(cfg.ClaimMessage, 100), count))
	}
	b.replyEphemeral(ctx, cmd, sb.String())
}

func (b *Bot) handleStickyCommand(ctx context.Context, cmd slack.SlashCommand) {
	args := strings.Fields(cmd.Text)
	if len(args) == 0 {
		b.replyEphemeral(ctx, cmd, stickyUsage)
		return
	}

	switch strings.ToLower(args[0]) {
	case "create":
		b.openStickyModal(ctx, cmd)
	case "refresh":
		if !b.stickies.Active(cmd.ChannelID) {
			b.replyEphemeral(ctx, cmd, "❌ No sticky message is set for this channel.")
			return
		}
		reposted := b.stickies.Refresh(ctx, cmd.ChannelID)
		if reposted {
			b.replyEphemeral(ctx, cmd, "🔄 Sticky message reposted.")
		} else {
			b.replyEphemeral(ctx, cmd, "⏳ Sticky message is still fresh, nothing to do.")
		}
	case "remove":
		if !b.stickies.Remove(ctx, cmd.ChannelID) {
			b.replyEphemeral(ctx, cmd, "❌ No sticky message is set for this channel.")
			return
		}
		b.replyEphemeral(ctx, cmd, fmt.Sprintf("✅ Sticky message removed from <#%s>.", cmd.ChannelID))
	default:
		b.replyEphemeral(ctx, cmd, stickyUsage)
	}
}

// replyEphemeral answers a slash command so only the caller sees it.
func (b *Bot) replyEphemeral(ctx context.Context, cmd slack.SlashCommand, text string) {
	_, _, err := b.client.PostMessageContext(ctx, cmd.ChannelID,
		slack.MsgOptionText(text, false),
		slack.MsgOptionResponseURL(cmd.ResponseURL, slack.ResponseTypeEphemeral))
	if err != nil {
		b.logger.Error("failed to reply to command", "command", cmd.Command, "err", err)
	}
}

func parseChannelMention(arg string) string {
	m := channelMention.FindStringSubmatch(arg)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
