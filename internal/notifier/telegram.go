package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"CryptoGraph/internal/restclient"
)

const DefaultAPIBase = "https://api.telegram.org"

// ErrDisabled is returned by Send when no bot token or chat is configured.
var ErrDisabled = errors.New("telegram notifier disabled")

// Config holds the Telegram bot credentials.
type Config struct {
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
	APIBase  string `yaml:"api_base"`
}

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	chatID    string
	api       *restclient.Client
	poll      *restclient.Client
	log       logrus.FieldLogger
	retryBase time.Duration
	idleWait  time.Duration
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(cfg Config, proxyURL string, log logrus.FieldLogger) *TelegramNotifier {
	n := &TelegramNotifier{
		chatID:    strings.TrimSpace(cfg.ChatID),
		log:       log,
		retryBase: time.Second,
		idleWait:  5 * time.Second,
	}
	token := strings.TrimSpace(cfg.BotToken)
	if token == "" {
		return n
	}
	base := cfg.APIBase
	if base == "" {
		base = DefaultAPIBase
	}
	base = strings.TrimSuffix(base, "/") + "/bot" + token
	n.api = restclient.New(base, restclient.Options{Timeout: 30 * time.Second, Proxy: proxyURL})
	n.poll = restclient.New(base, restclient.Options{Timeout: 35 * time.Second, Proxy: proxyURL})
	return n
}

// Enabled reports whether both a bot token and a chat id are configured.
func (t *TelegramNotifier) Enabled() bool {
	return t.api != nil && t.chatID != ""
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send sends an HTML message to the configured chat.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	if !t.Enabled() {
		return ErrDisabled
	}
	payload := map[string]string{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	var resp apiResponse
	if err := t.api.PostJSON(ctx, "/sendMessage", nil, payload, &resp); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("telegram API error: %s", resp.Description)
	}
	return nil
}

// SendWithRetry sends a message with exponential backoff retry.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		err := t.Send(ctx, text)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrDisabled) {
			return err
		}
		lastErr = err
		if i == maxRetries {
			break
		}
		backoff := t.retryBase * time.Duration(1<<uint(i))
		t.log.WithError(err).WithFields(logrus.Fields{
			"attempt": i + 1,
			"backoff": backoff,
		}).Warn("telegram send failed, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("all %d retries exhausted: %w", maxRetries+1, lastErr)
}
