package notifier

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sjsage522/housewatch/helpers"
	"sjsage522/housewatch/logger"
	"sjsage522/housewatch/pkg/errors"
)

// DefaultTelegramAPIBase is the public Bot API endpoint
const DefaultTelegramAPIBase = "https://api.telegram.org"

// TelegramNotifier posts messages through the Telegram Bot API
type TelegramNotifier struct {
	token   string
	chatID  string
	apiBase string
	client  helpers.Doer
	log     *logger.Logger
}

// NewTelegramNotifier creates a notifier; it is disabled when token or
// chatID is empty
func NewTelegramNotifier(token, chatID, apiBase string, timeout time.Duration) *TelegramNotifier {
	if apiBase == "" {
		apiBase = DefaultTelegramAPIBase
	}
	return &TelegramNotifier{
		token:   token,
		chatID:  chatID,
		apiBase: strings.TrimRight(apiBase, "/"),
		client:  &http.Client{Timeout: timeout},
		log:     logger.ForNotifier("telegram"),
	}
}

// Enabled reports whether both credentials are present
func (n *TelegramNotifier) Enabled() bool {
	return n.token != "" && n.chatID != ""
}

// Notify sends text to the configured chat
func (n *TelegramNotifier) Notify(ctx context.Context, text string) bool {
	if !n.Enabled() {
		n.log.Info().Msg("TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_ID not set, skipping notification")
		return false
	}

	form := url.Values{
		"chat_id":                  {n.chatID},
		"text":                     {text},
		"disable_web_page_preview": {"true"},
		"parse_mode":               {"HTML"},
	}

	endpoint := n.apiBase + "/bot" + n.token + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		// url errors quote the endpoint, which carries the bot token
		n.log.Warn().
			Err(errors.NewNotify("telegram", "build request: "+redact(err.Error(), n.token), nil)).
			Msg("Failed to build Telegram request")
		return false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		n.log.Warn().
			Err(errors.NewNotify("telegram", redact(err.Error(), n.token), nil)).
			Msg("Telegram request failed")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		n.log.Warn().
			Err(errors.NewNotify("telegram", fmt.Sprintf("HTTP %d", resp.StatusCode), nil)).
			Int("status", resp.StatusCode).
			Str("body", string(body)).
			Msg("Telegram API rejected message")
		return false
	}

	return true
}

func redact(s, secret string) string {
	if secret == "" {
		return s
	}
	return strings.ReplaceAll(s, secret, "<redacted>")
}
