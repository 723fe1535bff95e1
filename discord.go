package kaelbot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"
)

const fallbackReply = "Comms glitch on my end, CMDR. Give it another go in a moment."

// Discord connects the bot to the Discord gateway. It is deliberately
// thin: address detection, typing indicator, and handing text to the Bot.
type Discord struct {
	s    *discordgo.Session
	bot  *Bot
	logg *log.Logger
}

// NewDiscord creates a gateway session for the given bot token.
func NewDiscord(token string, b *Bot, logg *log.Logger) (*Discord, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentMessageContent
	d := &Discord{s: s, bot: b, logg: logg}
	s.AddHandler(d.onMessage)
	return d, nil
}

// Open connects to the gateway.
func (d *Discord) Open() error {
	if err := d.s.Open(); err != nil {
		return fmt.Errorf("discord open: %w", err)
	}
	return nil
}

// Close disconnects from the gateway.
func (d *Discord) Close() error {
	return d.s.Close()
}

func (d *Discord) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}
	content, ok := d.addressed(s, m)
	if !ok {
		return
	}
	go d.reply(m.ChannelID, m.Author.Username, content)
}

func (d *Discord) reply(channelID, author, content string) {
	_ = d.s.ChannelTyping(channelID)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()
	text, err := d.bot.HandleMessage(ctx, channelID, author, content)
	if err != nil {
		d.logg.Error("message handling failed", "channel", channelID, "err", err)
		text = fallbackReply
	}
	if text == "" {
		return
	}
	if _, err := d.s.ChannelMessageSend(channelID, text); err != nil {
		d.logg.Error("send failed", "channel", channelID, "err", err)
	}
}

// addressed decides whether the message is for the bot and strips the
// address form: DMs always are, as are mentions of the bot user and
// messages opening with the kael keyword.
func (d *Discord) addressed(s *discordgo.Session, m *discordgo.MessageCreate) (string, bool) {
	text := strings.TrimSpace(m.Content)
	if m.GuildID == "" {
		return text, true
	}
	if s.State.User != nil {
		for _, form := range []string{"<@" + s.State.User.ID + ">", "<@!" + s.State.User.ID + ">"} {
			if strings.Contains(text, form) {
				return strings.TrimSpace(strings.ReplaceAll(text, form, "")), true
			}
		}
	}
	if rest, ok := cutPrefixFold(text, "kael"); ok {
		if rest == "" || strings.ContainsRune(",:;! ", rune(rest[0])) {
			return strings.TrimLeft(rest, ",:;! "), true
		}
	}
	return "", false
}
