package telegram

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"confluence/internal/domain/signal"
	"confluence/pkg/errors"
	"confluence/pkg/logger"
)

// Notifier delivers signal and error notifications to a Telegram chat
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	log    *logger.Logger
}

// NewNotifier creates a Telegram notifier bound to one chat
func NewNotifier(token string, chatID int64) (*Notifier, error) {
	if token == "" || chatID == 0 {
		return nil, errors.Wrap(errors.ErrInvalidInput, "telegram token and chat id are required")
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "create telegram bot")
	}

	return &Notifier{
		bot:    bot,
		chatID: chatID,
		log:    logger.Get().With("component", "telegram_notifier"),
	}, nil
}

// SendSignal delivers a formatted trading-signal notification
func (n *Notifier) SendSignal(sig *signal.TradingSignal) error {
	return n.send(FormatSignal(sig))
}

// SendError delivers a free-text error notification
func (n *Notifier) SendError(message string) error {
	return n.send(fmt.Sprintf("❌ <b>Error</b>\n\n%s\n\n<pre>⏰ %s</pre>",
		message, time.Now().UTC().Format("02-01-2006 15:04 UTC")))
}

func (n *Notifier) send(text string) error {
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := n.bot.Send(msg); err != nil {
		n.log.Errorw("Failed to send telegram message", "error", err)
		return errors.Wrap(err, "send telegram message")
	}
	return nil
}

// FormatSignal renders a trading signal as a Telegram HTML message
func FormatSignal(sig *signal.TradingSignal) string {
	emoji := "🚀"
	if sig.Kind == signal.KindSell {
		emoji = "🔴"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>%s %s</b>\n\n", emoji, sig.Kind, sig.Symbol)
	fmt.Fprintf(&b, "Price: <b>%s</b>\n", formatPrice(sig.Price))
	fmt.Fprintf(&b, "Entry: %s\n", formatPrice(sig.Entry))
	fmt.Fprintf(&b, "Stop loss: %s\n", formatPrice(sig.StopLoss))
	fmt.Fprintf(&b, "Take profit: %s\n", formatPrice(sig.TakeProfit))
	fmt.Fprintf(&b, "Trend: %s", sig.Trend)
	if sig.HigherTrend != nil {
		fmt.Fprintf(&b, " | Higher TF: %s", *sig.HigherTrend)
	}
	b.WriteString("\n")
	if sig.Support != nil {
		fmt.Fprintf(&b, "Support: %s\n", formatPrice(*sig.Support))
	}
	if sig.Resistance != nil {
		fmt.Fprintf(&b, "Resistance: %s\n", formatPrice(*sig.Resistance))
	}
	if sig.Confirmation != nil {
		fmt.Fprintf(&b, "\n🧠 AI: %s (confidence %d/100)\n", sig.Confirmation.Conclusion, sig.Confirmation.Confidence)
		if sig.Confirmation.Reasoning != "" {
			fmt.Fprintf(&b, "<i>%s</i>\n", sig.Confirmation.Reasoning)
		}
	}
	fmt.Fprintf(&b, "\n<pre>⏰ %s</pre>", sig.Timestamp.UTC().Format("02-01-2006 15:04 UTC"))
	return b.String()
}

func formatPrice(v float64) string {
	if v >= 1000 {
		return humanize.CommafWithDigits(v, 2)
	}
	return humanize.Ftoa(v)
}
