package skills

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"spaceblack/internal/config"
	"spaceblack/internal/logging"
)

// Responder is the piece of the agent the Discord bot needs: one
// method that turns a user message into a reply.
type Responder interface {
	Process(ctx context.Context, input string) (string, error)
}

// discordMessageLimit is Discord's hard cap per message.
const discordMessageLimit = 2000

// DiscordBot relays DMs and @mentions to the agent and posts the
// replies back.
type DiscordBot struct {
	session   *discordgo.Session
	responder Responder
	allowedID string
}

// NewDiscordBot builds the bot from the skill config. The token comes
// from config.json or DISCORD_BOT_TOKEN.
func NewDiscordBot(cfg *config.Config, responder Responder) (*DiscordBot, error) {
	token := credential(cfg, "discord", "bot_token", "DISCORD_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("missing Discord bot token: configure the discord skill or set DISCORD_BOT_TOKEN")
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	allowedID := ""
	if sc, ok := cfg.Skills["discord"]; ok {
		allowedID = sc.AllowedUserID
	}

	bot := &DiscordBot{
		session:   session,
		responder: responder,
		allowedID: allowedID,
	}
	bot.initHandlers()
	return bot, nil
}

func (b *DiscordBot) initHandlers() {
	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		logging.Skills("Discord connected as %s#%s", s.State.User.Username, s.State.User.Discriminator)
	})
	b.session.AddHandler(b.onMessage)
}

// Start opens the gateway connection and blocks until the context is
// cancelled.
func (b *DiscordBot) Start(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	<-ctx.Done()
	return b.session.Close()
}

func (b *DiscordBot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.ID == s.State.User.ID {
		return
	}

	isDM := m.GuildID == ""
	mentioned := false
	for _, user := range m.Mentions {
		if user.ID == s.State.User.ID {
			mentioned = true
			break
		}
	}
	if !isDM && !mentioned {
		return
	}

	// DMs are owner-only; a bot that answers anyone leaks the whole
	// agent to strangers.
	if isDM && (b.allowedID == "" || m.Author.ID != b.allowedID) {
		logging.Get(logging.CategorySkills).Warn("Unauthorized Discord DM from %s", m.Author.ID)
		_, _ = s.ChannelMessageSend(m.ChannelID, "Unauthorized. Set your user id in the discord skill settings to enable DMs.")
		return
	}

	content := stripMention(m.Content, s.State.User.ID)
	if content == "" {
		return
	}

	_ = s.ChannelTyping(m.ChannelID)

	go func() {
		reply, err := b.responder.Process(context.Background(), content)
		if err != nil {
			logging.Get(logging.CategorySkills).Error("Discord relay failed: %v", err)
			_, _ = s.ChannelMessageSend(m.ChannelID, fmt.Sprintf("Error processing request: %v", err))
			return
		}
		if reply == "" {
			reply = "Task completed (no output)."
		}
		for _, chunk := range splitDiscordMessage(reply, discordMessageLimit) {
			if _, err := s.ChannelMessageSend(m.ChannelID, chunk); err != nil {
				logging.Get(logging.CategorySkills).Error("Discord send failed: %v", err)
				return
			}
		}
	}()
}

// stripMention removes the bot's own mention tokens from a message.
func stripMention(content, botID string) string {
	content = strings.ReplaceAll(content, "<@"+botID+">", "")
	content = strings.ReplaceAll(content, "<@!"+botID+">", "")
	return strings.TrimSpace(content)
}

// splitDiscordMessage chunks a reply at the message limit, preferring
// line breaks.
func splitDiscordMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	var chunks []string
	for len(text) > limit {
		cut := strings.LastIndex(text[:limit], "\n")
		if cut <= 0 {
			cut = limit
			// Hard splits must land on a rune boundary.
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
		}
		chunks = append(chunks, strings.TrimSpace(text[:cut]))
		text = strings.TrimSpace(text[cut:])
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}
