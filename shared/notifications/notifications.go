package notifications

import (
	"context"
	"math"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"volume-sentry/shared/logger"
)

const sendTimeout = 10 * time.Second

// Notifier delivers alert text to a single configured Telegram chat. A
// Notifier built without credentials is a no-op whose Send always reports
// failure, so callers never need to special-case a disabled sink.
type Notifier struct {
	bot     *tgbotapi.BotAPI
	chatID  int64
	limiter *rate.Limiter
	log     *logger.Logger
}

// New verifies the bot token with GetMe and returns a ready Notifier. Missing
// or invalid credentials yield a disabled Notifier, never an error: alerting
// is an optional capability.
func New(botToken string, chatID int64, log *logger.Logger) *Notifier {
	return newWithEndpoint(botToken, chatID, tgbotapi.APIEndpoint, log)
}

func newWithEndpoint(botToken string, chatID int64, apiEndpoint string, log *logger.Logger) *Notifier {
	if botToken == "" || chatID == 0 {
		log.Warn("Telegram credentials missing, notifications disabled")
		return &Notifier{log: log}
	}

	httpClient := &http.Client{Timeout: sendTimeout}
	bot, err := tgbotapi.NewBotAPIWithClient(botToken, apiEndpoint, httpClient)
	if err != nil {
		log.Warn("Failed to initialize Telegram bot API, notifications disabled", "error", err)
		return &Notifier{log: log}
	}

	log.Info("Telegram bot initialized successfully", "bot", bot.Self.UserName)
	return &Notifier{
		bot:    bot,
		chatID: chatID,
		// 1 message / 5 seconds keeps a busy cycle under Telegram's limits
		limiter: rate.NewLimiter(rate.Limit(0.2), 1),
		log:     log,
	}
}

func (n *Notifier) Enabled() bool {
	return n.bot != nil
}

// Send delivers one text message and reports delivery success. Failures are
// logged and absorbed; the caller only sees the boolean.
func (n *Notifier) Send(text string) bool {
	if n.bot == nil {
		n.log.Debug("Telegram send skipped, notifier disabled")
		return false
	}

	waitCtx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	if err := n.limiter.Wait(waitCtx); err != nil {
		n.log.Error("Telegram rate limiter wait failed", "error", err)
		return false
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.DisableWebPagePreview = true

	maxRetries := 3
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		_, err := n.bot.Send(msg)
		if err == nil {
			n.log.Info("Telegram message sent", "chatID", n.chatID)
			return true
		}
		lastErr = err

		if tgErr, ok := err.(*tgbotapi.Error); ok {
			n.log.Error("Telegram send failed", "attempt", i+1, "code", tgErr.Code, "message", tgErr.Message)
			if tgErr.Code == 429 {
				retryAfter := tgErr.RetryAfter
				if retryAfter <= 0 {
					retryAfter = 1
				}
				time.Sleep(time.Duration(retryAfter) * time.Second)
				continue
			}
		} else {
			n.log.Error("Telegram send failed", "attempt", i+1, "error", err)
		}

		if i < maxRetries-1 {
			time.Sleep(time.Duration(math.Pow(2, float64(i))) * time.Second)
		}
	}

	n.log.Error("Telegram message failed after retries", "retries", maxRetries, "error", lastErr)
	return false
}
