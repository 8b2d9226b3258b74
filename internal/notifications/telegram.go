package notifications

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cho-y-j/able-sub001/pkg/types"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramNotifier delivers session alerts through the Telegram Bot API.
// Each alert becomes one Markdown message carrying the level, the raising
// step and the message body.
type TelegramNotifier struct {
	token   string
	chatID  string
	apiBase string
	client  *http.Client
}

func NewTelegramNotifier(token, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		token:   token,
		chatID:  chatID,
		apiBase: telegramAPIBase,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *TelegramNotifier) Send(alert types.Alert) error {
	data := url.Values{}
	data.Set("chat_id", t.chatID)
	data.Set("text", formatAlert(alert))
	data.Set("parse_mode", "Markdown")

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.token)
	resp, err := t.client.Post(endpoint, "application/x-www-form-urlencoded",
		strings.NewReader(data.Encode()))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}
	return nil
}

func formatAlert(alert types.Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s *%s*", levelEmoji(alert.Level), strings.ToUpper(string(alert.Level)))
	if alert.Source != "" {
		fmt.Fprintf(&b, " _%s_", alert.Source)
	}
	b.WriteString("\n\n")
	b.WriteString(alert.Message)
	return b.String()
}

func levelEmoji(level types.AlertLevel) string {
	switch level {
	case types.AlertWarning:
		return "⚠️"
	case types.AlertError:
		return "🚨"
	case types.AlertSuccess:
		return "✅"
	default:
		return "ℹ️"
	}
}
