package notify

import (
	"fmt"
	"os"
	"strconv"

	"frames-scraper/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier sends run summaries to a Telegram chat. It is entirely optional:
// a notification failure must never fail the run.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewFromEnv builds a Notifier from SCRAPER_TG_TOKEN and SCRAPER_TG_CHAT.
// Returns (nil, nil) when the token is unset, meaning notifications are off.
func NewFromEnv() (*Notifier, error) {
	token := os.Getenv("SCRAPER_TG_TOKEN")
	if token == "" {
		return nil, nil
	}
	chatStr := os.Getenv("SCRAPER_TG_CHAT")
	chatID, err := strconv.ParseInt(chatStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid SCRAPER_TG_CHAT %q: %w", chatStr, err)
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize bot: %w", err)
	}
	return &Notifier{bot: bot, chatID: chatID}, nil
}

// SessionDone sends a summary of a completed session.
func (n *Notifier) SessionDone(session *models.Session, outDir string) error {
	text := fmt.Sprintf(
		"✅ Scrape finished for %s\n\nProducts: %d\nPages scraped: %d\nPages failed: %d\nOutput: %s",
		session.Site, session.Len(), session.PagesScraped, session.PagesFailed, outDir)
	return n.send(text)
}

// RunFailed reports a fatal run error.
func (n *Notifier) RunFailed(site string, err error) error {
	return n.send(fmt.Sprintf("❌ Scrape failed for %s: %v", site, err))
}

func (n *Notifier) send(text string) error {
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}
