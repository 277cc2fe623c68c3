package bot

import (
	"fmt"
	"strings"
	"time"

	"macro-dashboard/internal/dashboard"
	"macro-dashboard/internal/domain"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// Telegram rejects messages longer than 4096 characters.
const maxMessageRunes = 4000

// Snapshots is the read-only view of the dashboard the bot answers from.
type Snapshots interface {
	PricesText() string
	MarketText() string
	FearGreedText() string
	NewsText() string
	Quote(id string) (domain.PriceQuote, bool)
}

var newBot = tele.NewBot

// StartTelegramBot serves dashboard snapshots over Telegram until the returned
// stop function is called. With no token the bot is skipped and stop is a
// no-op.
func StartTelegramBot(token string, snaps Snapshots, logger *zap.SugaredLogger) (func(), error) {
	if token == "" {
		logger.Info("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return func() {}, nil
	}
	b, err := newBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("create Telegram bot: %w", err)
	}

	for _, cmd := range []string{"/ping", "/prices", "/market", "/feargreed", "/news", "/price", "/help"} {
		cmd := cmd
		b.Handle(cmd, func(c tele.Context) error {
			return c.Send(replyFor(cmd, c.Args(), snaps), &tele.SendOptions{DisableWebPagePreview: true})
		})
	}

	logger.Info("Telegram bot started")
	go b.Start()
	return b.Stop, nil
}

func replyFor(cmd string, args []string, snaps Snapshots) string {
	var reply string
	switch cmd {
	case "/ping":
		reply = "pong"
	case "/prices":
		reply = "Crypto Prices (USD)\n" + snaps.PricesText()
	case "/market":
		reply = "Global Crypto Market\n" + snaps.MarketText()
	case "/feargreed":
		reply = "Fear & Greed Index\n" + snaps.FearGreedText()
	case "/news":
		reply = snaps.NewsText()
	case "/price":
		reply = priceReply(args, snaps)
	default:
		reply = "Commands: /prices /market /feargreed /news /price <id> /ping"
	}
	return truncate(reply, maxMessageRunes)
}

func priceReply(args []string, snaps Snapshots) string {
	if len(args) == 0 {
		return "Usage: /price bitcoin"
	}
	id := strings.ToLower(strings.TrimSpace(args[0]))
	q, ok := snaps.Quote(id)
	if !ok {
		return fmt.Sprintf("No price for %s yet", id)
	}
	return q.DisplayName() + ": " + dashboard.FormatUSD(q.PriceUSD)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
