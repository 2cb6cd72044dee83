package notify

import (
	"context"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rotisserie/eris"

	"realty-automation/config"
	"realty-automation/models"
	"realty-automation/utils"
)

// telegramLimit is the Bot API cap on message text, in characters.
const telegramLimit = 4096

// Telegram posts the plain-text digest to a single chat.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *utils.Logger
}

// NewTelegram authenticates the bot. An empty endpoint uses the public Bot API.
func NewTelegram(cfg config.TelegramConfig, endpoint string, logger *utils.Logger) (*Telegram, error) {
	if cfg.Token == "" || cfg.ChatID == 0 {
		return nil, eris.New("telegram: token and chat_id are required")
	}
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(cfg.Token, endpoint)
	if err != nil {
		return nil, eris.Wrap(err, "telegram: authorize bot")
	}
	logger.Debug("[telegram] Authorized as @%s", bot.Self.UserName)
	return &Telegram{bot: bot, chatID: cfg.ChatID, logger: logger}, nil
}

// Notify sends the digest text, split into as many messages as needed.
func (t *Telegram) Notify(ctx context.Context, digest models.Digest) error {
	parts := chunkText(digest.Text, telegramLimit)
	for i, part := range parts {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "telegram: cancelled")
		}
		if _, err := t.bot.Send(tgbotapi.NewMessage(t.chatID, part)); err != nil {
			return eris.Wrapf(err, "telegram: send part %d/%d", i+1, len(parts))
		}
	}
	t.logger.Info("[telegram] Digest sent in %d message(s)", len(parts))
	return nil
}

// chunkText splits text into pieces of at most limit characters, breaking on
// line boundaries where it can.
func chunkText(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var b strings.Builder
	size := 0
	flush := func() {
		if b.Len() > 0 {
			chunks = append(chunks, b.String())
			b.Reset()
			size = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		n := utf8.RuneCountInString(line)
		if size+n > limit {
			flush()
		}
		for n > limit {
			runes := []rune(line)
			chunks = append(chunks, string(runes[:limit]))
			line = string(runes[limit:])
			n -= limit
		}
		b.WriteString(line)
		size += n
	}
	flush()
	return chunks
}
